// Package cfg is the external input contract named in spec.md §6: an
// ordered list of productions over terminal and non-terminal symbols,
// annotated with the production/symbol attributes the AST type inferer
// needs. It is supplied by the grammar front-end (lexing PAR, building the
// raw grammar) — out of scope here — or, for this repository, by the
// cfgspec JSON document cmd/parsegen reads.
package cfg

import "github.com/parsegen/parsegen/ktuple"

// SymbolKind distinguishes the three kinds of RHS symbol spec.md §3 names.
type SymbolKind int

const (
	SymbolTerminal SymbolKind = iota
	SymbolNonTerminal
	SymbolPushdown
)

// TerminalKind is the lexical flavor of a terminal symbol.
type TerminalKind int

const (
	TerminalLegacy TerminalKind = iota
	TerminalRaw
	TerminalRegex
)

// SymbolAttr tags a terminal or non-terminal RHS occurrence the way the
// EBNF desugaring marks it.
type SymbolAttr int

const (
	AttrNone SymbolAttr = iota
	AttrRepetitionAnchor
	AttrOption
	AttrClipped
)

// PushdownKind is the scanner-state marker a RHS symbol can carry.
type PushdownKind int

const (
	PushdownS PushdownKind = iota
	PushdownPush
	PushdownPop
)

// ProdAttr tags a production as an EBNF-desugaring branch.
type ProdAttr int

const (
	ProdNone ProdAttr = iota
	ProdCollectionStart
	ProdAddToCollection
	ProdOptionalSome
	ProdOptionalNone
)

func (a ProdAttr) String() string {
	switch a {
	case ProdCollectionStart:
		return "CollectionStart"
	case ProdAddToCollection:
		return "AddToCollection"
	case ProdOptionalSome:
		return "OptionalSome"
	case ProdOptionalNone:
		return "OptionalNone"
	default:
		return "None"
	}
}

// Symbol is one element of a production's right-hand side (or, via
// Pos{Symbol:0}, stands for the left-hand side).
type Symbol struct {
	Kind SymbolKind

	// Terminal fields, valid when Kind == SymbolTerminal.
	Terminal     ktuple.CompiledTerminal
	TerminalKind TerminalKind

	// Non-terminal fields, valid when Kind == SymbolNonTerminal.
	NonTerminal string

	// SymAttr is the EBNF-desugaring marker (Clipped, Option,
	// RepetitionAnchor) the AST type inferer reads in its action-argument
	// typing rules (spec.md §4.6). It applies to both terminal and
	// non-terminal RHS occurrences.
	SymAttr SymbolAttr

	// Pushdown fields, valid when Kind == SymbolPushdown.
	Pushdown PushdownKind

	// UserType is an optional emitter-facing type annotation; it never
	// affects FIRST_k/FOLLOW_k/DFA computation or production-equivalence
	// checks (spec.md §9).
	UserType string
}

func Term(t ktuple.CompiledTerminal, kind TerminalKind) Symbol {
	return Symbol{Kind: SymbolTerminal, Terminal: t, TerminalKind: kind}
}

// TermAttr is Term with an explicit EBNF-desugaring attribute (e.g. a
// terminal marked Clipped).
func TermAttr(t ktuple.CompiledTerminal, kind TerminalKind, attr SymbolAttr) Symbol {
	return Symbol{Kind: SymbolTerminal, Terminal: t, TerminalKind: kind, SymAttr: attr}
}

func NonTerm(name string, attr SymbolAttr) Symbol {
	return Symbol{Kind: SymbolNonTerminal, NonTerminal: name, SymAttr: attr}
}

func Pushdown(kind PushdownKind) Symbol {
	return Symbol{Kind: SymbolPushdown, Pushdown: kind}
}

func (s Symbol) IsTerminal() bool    { return s.Kind == SymbolTerminal }
func (s Symbol) IsNonTerminal() bool { return s.Kind == SymbolNonTerminal }
func (s Symbol) IsPushdown() bool    { return s.Kind == SymbolPushdown }

// EquivKey returns the part of Symbol that participates in structural
// production-equivalence checks, ignoring UserType. spec.md §9 resolves
// this precisely: terminal occurrences compare equal under
// (terminal-index, terminal-kind) alone, but non-terminal occurrences
// carry their SymAttr into the comparison — a plain reference to N and a
// repetition/option/clipped reference to the same N are distinct RHS
// shapes, not the same production modulo attribute.
func (s Symbol) EquivKey() interface{} {
	switch s.Kind {
	case SymbolTerminal:
		return [2]interface{}{s.Terminal, s.TerminalKind}
	case SymbolNonTerminal:
		return [2]interface{}{s.NonTerminal, s.SymAttr}
	default:
		return [1]interface{}{s.Pushdown}
	}
}

// Pr is one production: LHS non-terminal, RHS symbol sequence, and the
// production attribute marking it as an EBNF-desugaring branch.
type Pr struct {
	LHS  string
	RHS  []Symbol
	Attr ProdAttr
}

// Pos identifies a specific symbol occurrence on a production's RHS.
// Symbol 0 denotes the LHS; Symbol >= 1 denotes RHS positions counted from
// 1.
type Pos struct {
	Production int
	Symbol     int
}

// Cfg is the ordered list of productions that make up a grammar.
type Cfg struct {
	Productions []Pr
	Start       string
}

// NonTerminals returns the grammar's non-terminals in order of first LHS
// appearance, with Start always first.
func (g *Cfg) NonTerminals() []string {
	seen := map[string]bool{}
	var out []string
	if g.Start != "" {
		seen[g.Start] = true
		out = append(out, g.Start)
	}
	for _, p := range g.Productions {
		if seen[p.LHS] {
			continue
		}
		seen[p.LHS] = true
		out = append(out, p.LHS)
	}
	return out
}

// ProductionsFor returns the indices (into g.Productions) of the
// productions whose LHS is nt, in declaration order.
func (g *Cfg) ProductionsFor(nt string) []int {
	var out []int
	for i, p := range g.Productions {
		if p.LHS == nt {
			out = append(out, i)
		}
	}
	return out
}

// Equivalent reports whether a and b are structurally the same production:
// same RHS length, each position's EquivKey equal. LHS and UserType are not
// compared — two productions under different non-terminals are never
// "the same alternative", and UserType never participates in equivalence
// per spec.md §9's resolved Open Question.
func Equivalent(a, b Pr) bool {
	if len(a.RHS) != len(b.RHS) {
		return false
	}
	for i := range a.RHS {
		if a.RHS[i].EquivKey() != b.RHS[i].EquivKey() {
			return false
		}
	}
	return true
}

// MaxTerminalIndex returns the largest CompiledTerminal index appearing
// anywhere in the grammar, or -1 if the grammar has no terminals.
func (g *Cfg) MaxTerminalIndex() int {
	max := -1
	for _, p := range g.Productions {
		for _, s := range p.RHS {
			if s.Kind == SymbolTerminal && int(s.Terminal) > max {
				max = int(s.Terminal)
			}
		}
	}
	return max
}
