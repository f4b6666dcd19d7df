// Package report is the JSON output schema the §6 "output to code
// emission" contract names: it mirrors vartan's spec/grammar
// description.go Report/State structs, carrying a per-non-terminal summary
// of each lookahead automaton, the symbol table's flattened global type
// list, and the asttype.Result maps cmd/parsegen analyze needs to hand a
// downstream code emitter.
package report

import (
	"github.com/parsegen/parsegen/asttype"
	"github.com/parsegen/parsegen/lookahead"
	"github.com/parsegen/parsegen/symtab"
)

// Report is the complete analysis output for one grammar.
type Report struct {
	NonTerminals map[string]*NonTerminalReport `json:"non_terminals"`
	Types        []*TypeEntry                  `json:"types"`

	AdapterActions   map[int]string    `json:"adapter_actions"`
	ProductionTypes  map[int]string    `json:"production_types"`
	NonTerminalTypes map[string]string `json:"non_terminal_types"`

	VectorTypedNonTerminals []string `json:"vector_typed_non_terminals,omitempty"`
	OptionTypedNonTerminals []string `json:"option_typed_non_terminals,omitempty"`

	ASTEnumType string `json:"ast_enum_type"`
}

// NonTerminalReport summarizes one non-terminal's lookahead automaton: the
// chosen k, the production-index set it disambiguates among, the per-state
// Accept vector (indexing into Alternatives), and the state count. The
// automaton's transition table is not included.
type NonTerminalReport struct {
	K            int   `json:"k"`
	Alternatives []int `json:"alternatives"`
	Accept       []int `json:"accept"`
	States       int   `json:"states"`
}

// TypeEntry is one symtab.Symbol (Type or Instance), flattened for JSON:
// SymbolIDs are rendered as their string form, and a Type's member scope
// is expanded into an ordered Members id list rather than a ScopeID.
type TypeEntry struct {
	ID   string `json:"id"`
	Name string `json:"name"`
	Kind string `json:"kind"` // "type" or "instance"

	// Type fields.
	Entrails        string   `json:"entrails,omitempty"`
	Inner           string   `json:"inner,omitempty"`
	Params          []string `json:"params,omitempty"`
	UserDefinedKind string   `json:"user_defined_kind,omitempty"`
	UserDefinedPath string   `json:"user_defined_path,omitempty"`
	HasLifetime     bool     `json:"has_lifetime,omitempty"`
	Recursive       bool     `json:"recursive,omitempty"`
	Members         []string `json:"members,omitempty"`

	// Instance fields.
	TypeID      string `json:"type_id,omitempty"`
	Used        bool   `json:"used,omitempty"`
	Description string `json:"description,omitempty"`
}

// Build assembles a Report from the per-non-terminal lookahead tables
// (keyed by non-terminal name), the symbol table asttype.Infer populated,
// and the asttype.Result maps Infer returned.
func Build(tables map[string]*lookahead.Table, tab *symtab.Table, result *asttype.Result) *Report {
	r := &Report{
		NonTerminals:     map[string]*NonTerminalReport{},
		AdapterActions:   map[int]string{},
		ProductionTypes:  map[int]string{},
		NonTerminalTypes: map[string]string{},
		ASTEnumType:      result.ASTEnumType.String(),
	}

	for nt, tbl := range tables {
		r.NonTerminals[nt] = &NonTerminalReport{
			K:            tbl.K,
			Alternatives: append([]int(nil), tbl.Alternatives...),
			Accept:       append([]int(nil), tbl.Accept...),
			States:       tbl.States,
		}
	}

	for pi, id := range result.AdapterActions {
		r.AdapterActions[pi] = id.String()
	}
	for pi, id := range result.ProductionTypes {
		r.ProductionTypes[pi] = id.String()
	}
	for nt, id := range result.NonTerminalTypes {
		r.NonTerminalTypes[nt] = id.String()
	}
	for nt := range result.VectorTypedNonTerminals {
		r.VectorTypedNonTerminals = append(r.VectorTypedNonTerminals, nt)
	}
	for nt := range result.OptionTypedNonTerminals {
		r.OptionTypedNonTerminals = append(r.OptionTypedNonTerminals, nt)
	}

	r.Types = dumpTypes(tab)

	return r
}

// dumpTypes walks the symbol table's scope forest from the root, in the
// deterministic insertion order each Scope already keeps, flattening
// every symbol it finds into a TypeEntry.
func dumpTypes(tab *symtab.Table) []*TypeEntry {
	var out []*TypeEntry
	visitScope(tab, tab.Root(), &out)
	return out
}

func visitScope(tab *symtab.Table, id symtab.ScopeID, out *[]*TypeEntry) {
	scope, ok := tab.Scope(id)
	if !ok {
		return
	}
	for _, sid := range scope.Symbols() {
		sym, ok := tab.Symbol(sid)
		if !ok {
			continue
		}
		*out = append(*out, entryFor(tab, sym))
		if sym.Kind == symtab.KindType && sym.Members != symtab.NoScope {
			visitScope(tab, sym.Members, out)
		}
	}
}

func entryFor(tab *symtab.Table, sym *symtab.Symbol) *TypeEntry {
	e := &TypeEntry{
		ID:   sym.ID.String(),
		Name: sym.Name,
	}
	switch sym.Kind {
	case symtab.KindType:
		e.Kind = "type"
		e.Entrails = sym.Entrails.Kind.String()
		if sym.Entrails.Inner != (symtab.SymbolID{}) {
			e.Inner = sym.Entrails.Inner.String()
		}
		for _, p := range sym.Entrails.Params {
			e.Params = append(e.Params, p.String())
		}
		e.UserDefinedKind = sym.Entrails.UserDefinedKind
		e.UserDefinedPath = sym.Entrails.UserDefinedPath
		e.HasLifetime = sym.HasLifetime
		e.Recursive = sym.Recursive
		if sym.Members != symtab.NoScope {
			for _, id := range tab.Members(sym.ID) {
				e.Members = append(e.Members, id.String())
			}
		}
	case symtab.KindInstance:
		e.Kind = "instance"
		e.TypeID = sym.TypeID.String()
		e.Used = sym.Used
		e.Description = sym.Description
	}
	return e
}
