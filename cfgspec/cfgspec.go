// Package cfgspec is the JSON document schema for the external Cfg input
// contract spec.md §6 names: an ordered terminal list, an ordered
// production list over named terminals/non-terminals/pushdown markers, and
// a start symbol. It mirrors vartan's spec/grammar JSON structs (a plain,
// hand-written Go struct tree fed straight to encoding/json), adapted from
// vartan's lexical-spec-plus-productions document to this module's
// attribute-carrying Cfg.
//
// A front-end that lexes a PAR-like grammar source (out of scope here, per
// spec.md §1) would emit a Document; cmd/parsegen analyze reads one
// directly from a file or stdin.
package cfgspec

import (
	"fmt"

	"github.com/parsegen/parsegen/cfg"
	"github.com/parsegen/parsegen/ktuple"
)

// Document is the serialized form of a cfg.Cfg.
type Document struct {
	Start       string       `json:"start"`
	Terminals   []string     `json:"terminals"`
	Productions []Production `json:"productions"`
}

// Production is one cfg.Pr, with its RHS symbols referencing terminals and
// non-terminals by name instead of by compiled index.
type Production struct {
	LHS  string   `json:"lhs"`
	RHS  []Symbol `json:"rhs"`
	Attr string   `json:"attr,omitempty"`
}

// Symbol is one cfg.Symbol, with terminals and non-terminals referenced by
// name.
type Symbol struct {
	Kind string `json:"kind"` // "terminal", "non-terminal", "pushdown"

	Terminal     string `json:"terminal,omitempty"`
	TerminalKind string `json:"terminal_kind,omitempty"` // "legacy", "raw", "regex"

	NonTerminal string `json:"non_terminal,omitempty"`

	// Attr applies to both terminal and non-terminal occurrences: "",
	// "repetition-anchor", "option", "clipped".
	Attr string `json:"attr,omitempty"`

	Pushdown string `json:"pushdown,omitempty"` // "s", "push", "pop"

	UserType string `json:"user_type,omitempty"`
}

var prodAttrNames = map[string]cfg.ProdAttr{
	"":                 cfg.ProdNone,
	"collection-start": cfg.ProdCollectionStart,
	"add-to-collection": cfg.ProdAddToCollection,
	"optional-some":    cfg.ProdOptionalSome,
	"optional-none":    cfg.ProdOptionalNone,
}

var symAttrNames = map[string]cfg.SymbolAttr{
	"":                  cfg.AttrNone,
	"repetition-anchor": cfg.AttrRepetitionAnchor,
	"option":            cfg.AttrOption,
	"clipped":           cfg.AttrClipped,
}

var terminalKindNames = map[string]cfg.TerminalKind{
	"":       cfg.TerminalLegacy,
	"legacy": cfg.TerminalLegacy,
	"raw":    cfg.TerminalRaw,
	"regex":  cfg.TerminalRegex,
}

var pushdownKindNames = map[string]cfg.PushdownKind{
	"":     cfg.PushdownS,
	"s":    cfg.PushdownS,
	"push": cfg.PushdownPush,
	"pop":  cfg.PushdownPop,
}

// Compile resolves d's name references into a cfg.Cfg, assigning each
// declared terminal a CompiledTerminal index starting at
// ktuple.FirstUserTerminal, in declaration order. It also returns the
// resulting name table so callers can render terminal indices back to
// source names (the asttype argument-naming rule, spec.md §4.6 Phase 2,
// needs exactly this map).
func (d *Document) Compile() (*cfg.Cfg, map[ktuple.CompiledTerminal]string, error) {
	if d.Start == "" {
		return nil, nil, fmt.Errorf("cfgspec: document has no start symbol")
	}

	termIndex := make(map[string]ktuple.CompiledTerminal, len(d.Terminals))
	names := make(map[ktuple.CompiledTerminal]string, len(d.Terminals))
	next := ktuple.FirstUserTerminal
	for _, name := range d.Terminals {
		if _, dup := termIndex[name]; dup {
			return nil, nil, fmt.Errorf("cfgspec: terminal %q declared twice", name)
		}
		termIndex[name] = next
		names[next] = name
		next++
	}

	out := &cfg.Cfg{Start: d.Start}
	for pi, p := range d.Productions {
		attr, ok := prodAttrNames[p.Attr]
		if !ok {
			return nil, nil, fmt.Errorf("cfgspec: production %d has unknown attr %q", pi, p.Attr)
		}

		rhs := make([]cfg.Symbol, len(p.RHS))
		for si, s := range p.RHS {
			sym, err := s.compile(termIndex)
			if err != nil {
				return nil, nil, fmt.Errorf("cfgspec: production %d symbol %d: %w", pi, si, err)
			}
			rhs[si] = sym
		}

		out.Productions = append(out.Productions, cfg.Pr{LHS: p.LHS, RHS: rhs, Attr: attr})
	}

	return out, names, nil
}

func (s Symbol) compile(termIndex map[string]ktuple.CompiledTerminal) (cfg.Symbol, error) {
	attr, ok := symAttrNames[s.Attr]
	if !ok {
		return cfg.Symbol{}, fmt.Errorf("unknown attr %q", s.Attr)
	}

	switch s.Kind {
	case "terminal":
		idx, ok := termIndex[s.Terminal]
		if !ok {
			return cfg.Symbol{}, fmt.Errorf("references undeclared terminal %q", s.Terminal)
		}
		kind, ok := terminalKindNames[s.TerminalKind]
		if !ok {
			return cfg.Symbol{}, fmt.Errorf("unknown terminal_kind %q", s.TerminalKind)
		}
		sym := cfg.TermAttr(idx, kind, attr)
		sym.UserType = s.UserType
		return sym, nil
	case "non-terminal":
		sym := cfg.NonTerm(s.NonTerminal, attr)
		sym.UserType = s.UserType
		return sym, nil
	case "pushdown":
		kind, ok := pushdownKindNames[s.Pushdown]
		if !ok {
			return cfg.Symbol{}, fmt.Errorf("unknown pushdown %q", s.Pushdown)
		}
		return cfg.Pushdown(kind), nil
	default:
		return cfg.Symbol{}, fmt.Errorf("unknown kind %q", s.Kind)
	}
}
