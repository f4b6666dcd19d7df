// Package asttype is the four-phase AST type inferer spec.md §4.6
// describes: it walks a cfg.Cfg and populates a symtab.Table with a
// struct or enum type per non-terminal, a function symbol per production
// (the "adapter actions"), the production's own argument struct, and a
// top-level ASTType sum, finishing with a lifetime-propagation pass.
package asttype

import (
	"fmt"
	"strings"

	"github.com/parsegen/parsegen/cfg"
	"github.com/parsegen/parsegen/ktuple"
	"github.com/parsegen/parsegen/perr"
	"github.com/parsegen/parsegen/symtab"
)

// Result is the output spec.md §6 lists for code emission: the per-NT and
// per-production type ids, the adapter's action function ids, the
// vector-/option-typed NT sets, and the top-level sum type.
type Result struct {
	AdapterType        symtab.SymbolID
	NonTerminalTypes    map[string]symtab.SymbolID
	ProductionTypes      map[int]symtab.SymbolID
	AdapterActions        map[int]symtab.SymbolID
	VectorTypedNonTerminals map[string]bool
	OptionTypedNonTerminals map[string]bool
	ASTEnumType         symtab.SymbolID
}

type argument struct {
	name   string
	instID symtab.SymbolID
}

// Infer runs all four phases over g, using terminalNames (spec.md §4.6's
// "globally generated terminal name" mapping) for terminal argument naming.
func Infer(g *cfg.Cfg, tab *symtab.Table, terminalNames map[ktuple.CompiledTerminal]string) (*Result, error) {
	nts := g.NonTerminals()
	ntProds := make(map[string][]int, len(nts))
	for _, nt := range nts {
		ntProds[nt] = g.ProductionsFor(nt)
	}

	result := &Result{
		NonTerminalTypes:        map[string]symtab.SymbolID{},
		ProductionTypes:         map[int]symtab.SymbolID{},
		AdapterActions:          map[int]symtab.SymbolID{},
		VectorTypedNonTerminals: map[string]bool{},
		OptionTypedNonTerminals: map[string]bool{},
	}

	// Phase 1 — initial NT types.
	for _, nt := range nts {
		idxs := ntProds[nt]
		kind := symtab.EntrailsEnum
		switch {
		case len(idxs) == 1:
			kind = symtab.EntrailsStruct
		case len(idxs) == 2 && hasCollectionOrOptionAttr(g, idxs):
			kind = symtab.EntrailsStruct
		}
		result.NonTerminalTypes[nt] = tab.InsertTypeInScope(tab.Root(), nt, symtab.TypeEntrails{Kind: kind})
	}

	// Phase 2 — actions.
	adapterID := tab.InsertTypeInScope(tab.Root(), "Adapter", symtab.TypeEntrails{Kind: symtab.EntrailsStruct})
	adapterSym, _ := tab.Symbol(adapterID)
	result.AdapterType = adapterID

	prodArgs := map[int][]argument{}
	for _, nt := range nts {
		idxs := ntProds[nt]
		for rel, pi := range idxs {
			fnName := nt
			if len(idxs) > 1 {
				fnName = fmt.Sprintf("%s_%d", nt, rel)
			}
			fn := tab.InsertTypeInScope(adapterSym.Members, fnName, symtab.TypeEntrails{Kind: symtab.EntrailsFunction})
			result.AdapterActions[pi] = fn

			p := g.Productions[pi]
			var args []argument
			for _, sym := range p.RHS {
				if sym.IsPushdown() {
					continue
				}
				name, instID, err := buildArgument(tab, fn, sym, result.NonTerminalTypes, terminalNames)
				if err != nil {
					return nil, err
				}
				args = append(args, argument{name: name, instID: instID})
			}

			// An AddToCollection production's recursive tail argument holds
			// the rest of the collection: retype it from Box(T) to Vec(T).
			if p.Attr == cfg.ProdAddToCollection {
				if pos := selfRefPosition(nt, p.RHS); pos >= 0 {
					if inst, ok := tab.Symbol(args[pos].instID); ok {
						inst.TypeID = tab.GetOrCreateType(nt, tab.Root(), symtab.TypeEntrails{Kind: symtab.EntrailsVec, Inner: result.NonTerminalTypes[nt]})
					}
				}
			}

			prodArgs[pi] = args
		}
	}

	// Phase 3 — production types and NT finishing.
	for _, nt := range nts {
		idxs := ntProds[nt]
		for _, pi := range idxs {
			p := g.Productions[pi]
			structName := rhsStructName(nt, p.RHS, terminalNames)
			structID := tab.InsertTypeInScope(tab.Root(), structName, symtab.TypeEntrails{Kind: symtab.EntrailsStruct})
			for _, a := range args(prodArgs, pi) {
				if err := copyArgumentInto(tab, structID, a); err != nil {
					return nil, err
				}
			}
			result.ProductionTypes[pi] = structID
		}

		if err := finishNonTerminal(tab, result, nt, idxs, g); err != nil {
			return nil, err
		}
	}

	// Phase 4 — top-level AST sum.
	astEnum := tab.InsertTypeInScope(tab.Root(), "ASTType", symtab.TypeEntrails{Kind: symtab.EntrailsEnum})
	for _, nt := range nts {
		ntType := result.NonTerminalTypes[nt]
		var inner symtab.SymbolID
		switch {
		case result.VectorTypedNonTerminals[nt]:
			inner = tab.GetOrCreateType(nt, tab.Root(), symtab.TypeEntrails{Kind: symtab.EntrailsVec, Inner: ntType})
		case result.OptionTypedNonTerminals[nt]:
			inner = tab.GetOrCreateType(nt, tab.Root(), symtab.TypeEntrails{Kind: symtab.EntrailsOption, Inner: ntType})
		default:
			inner = ntType
		}
		variant := tab.GetOrCreateType(nt, tab.Root(), symtab.TypeEntrails{Kind: symtab.EntrailsEnumVariant, Inner: inner})
		if _, err := tab.InsertInstance(astEnum, nt, variant, cfg.AttrNone, ""); err != nil {
			return nil, err
		}
	}
	result.ASTEnumType = astEnum

	detectRecursiveTypes(tab, g, nts, result.NonTerminalTypes)

	tab.PropagateLifetimes()

	return result, nil
}

func args(prodArgs map[int][]argument, pi int) []argument { return prodArgs[pi] }

func hasCollectionOrOptionAttr(g *cfg.Cfg, idxs []int) bool {
	for _, pi := range idxs {
		switch g.Productions[pi].Attr {
		case cfg.ProdCollectionStart, cfg.ProdAddToCollection, cfg.ProdOptionalSome, cfg.ProdOptionalNone:
			return true
		}
	}
	return false
}

// buildArgument implements Phase 2's per-RHS-symbol typing table.
func buildArgument(tab *symtab.Table, fn symtab.SymbolID, sym cfg.Symbol, ntTypes map[string]symtab.SymbolID, terminalNames map[ktuple.CompiledTerminal]string) (string, symtab.SymbolID, error) {
	used := true
	var entrails symtab.TypeEntrails
	var name string

	switch {
	case sym.IsTerminal():
		name = terminalNames[sym.Terminal]
		if name == "" {
			name = fmt.Sprintf("terminal_%d", int(sym.Terminal))
		}
		token := tab.GetOrCreateType("Token", tab.Root(), symtab.TypeEntrails{Kind: symtab.EntrailsToken})
		switch {
		case sym.SymAttr == cfg.AttrClipped:
			entrails = symtab.TypeEntrails{Kind: symtab.EntrailsClipped, Inner: token}
			used = false
		case sym.UserType != "":
			entrails = symtab.TypeEntrails{Kind: symtab.EntrailsUserDefinedType, Inner: token, UserDefinedKind: "Token", UserDefinedPath: sym.UserType}
		default:
			entrails = symtab.TypeEntrails{Kind: symtab.EntrailsToken}
		}
	case sym.IsNonTerminal():
		name = sym.NonTerminal
		ntType, ok := ntTypes[sym.NonTerminal]
		if !ok {
			return "", symtab.SymbolID{}, fmt.Errorf("asttype: production references undeclared non-terminal %q", sym.NonTerminal)
		}
		switch {
		case sym.UserType != "":
			entrails = symtab.TypeEntrails{Kind: symtab.EntrailsUserDefinedType, Inner: ntType, UserDefinedKind: "NonTerminal", UserDefinedPath: sym.UserType}
		case sym.SymAttr == cfg.AttrRepetitionAnchor:
			entrails = symtab.TypeEntrails{Kind: symtab.EntrailsVec, Inner: ntType}
		case sym.SymAttr == cfg.AttrOption:
			entrails = symtab.TypeEntrails{Kind: symtab.EntrailsOption, Inner: ntType}
		case sym.SymAttr == cfg.AttrClipped:
			entrails = symtab.TypeEntrails{Kind: symtab.EntrailsClipped, Inner: ntType}
			used = false
		default:
			entrails = symtab.TypeEntrails{Kind: symtab.EntrailsBox, Inner: ntType}
		}
	default:
		return "", symtab.SymbolID{}, fmt.Errorf("asttype: pushdown symbol reached buildArgument")
	}

	typeID := tab.GetOrCreateType(name, tab.Root(), entrails)
	instID, err := tab.InsertInstance(fn, name, typeID, sym.SymAttr, "")
	if err != nil {
		return "", symtab.SymbolID{}, err
	}
	tab.SetInstanceUsed(instID, used)
	return name, instID, nil
}

func copyArgumentInto(tab *symtab.Table, structID symtab.SymbolID, a argument) error {
	src, ok := tab.Symbol(a.instID)
	if !ok {
		return fmt.Errorf("asttype: dangling argument instance %v", a.instID)
	}
	id, err := tab.InsertInstance(structID, src.Name, src.TypeID, src.Attr, src.Description)
	if err != nil {
		return err
	}
	tab.SetInstanceUsed(id, src.Used)
	return nil
}

// finishNonTerminal implements Phase 3's NT-finishing rules.
func finishNonTerminal(tab *symtab.Table, result *Result, nt string, idxs []int, g *cfg.Cfg) error {
	ntType := result.NonTerminalTypes[nt]

	switch {
	case len(idxs) == 1:
		for _, a := range tab.Members(result.ProductionTypes[idxs[0]]) {
			if err := copyMemberInto(tab, ntType, a); err != nil {
				return err
			}
		}

	case len(idxs) == 2 && hasAttrPair(g, idxs, cfg.ProdCollectionStart, cfg.ProdAddToCollection):
		addIdx := pickByAttr(g, idxs, cfg.ProdAddToCollection)
		members := tab.Members(result.ProductionTypes[addIdx])
		drop := selfRefPosition(nt, g.Productions[addIdx].RHS)
		for i, a := range members {
			if i == drop {
				continue
			}
			if err := copyMemberInto(tab, ntType, a); err != nil {
				return err
			}
		}
		result.VectorTypedNonTerminals[nt] = true

	case len(idxs) == 2 && hasAttrPair(g, idxs, cfg.ProdOptionalSome, cfg.ProdOptionalNone):
		someIdx := pickByAttr(g, idxs, cfg.ProdOptionalSome)
		for _, a := range tab.Members(result.ProductionTypes[someIdx]) {
			if err := copyMemberInto(tab, ntType, a); err != nil {
				return err
			}
		}
		result.OptionTypedNonTerminals[nt] = true

	case len(idxs) == 2 && hasCollectionOrOptionAttr(g, idxs):
		// Phase 1 saw a collection/option attribute on one of exactly two
		// productions and chose Struct entrails for this NT, but neither
		// valid pairing (CollectionStart+AddToCollection,
		// OptionalSome+OptionalNone) matched — e.g. two AddToCollection
		// productions. There is no sound way to finish a Struct-shaped NT
		// from a mispaired production set.
		return perr.UnexpectedProductionAttributeCombination(nt)

	default:
		for _, pi := range idxs {
			variantName := rhsStructName(nt, g.Productions[pi].RHS, nil)
			variant := tab.GetOrCreateType(variantName, tab.Root(), symtab.TypeEntrails{Kind: symtab.EntrailsEnumVariant, Inner: result.ProductionTypes[pi]})
			if _, err := tab.InsertInstance(ntType, variantName, variant, cfg.AttrNone, ""); err != nil {
				return err
			}
		}
	}

	return nil
}

func hasAttrPair(g *cfg.Cfg, idxs []int, a, b cfg.ProdAttr) bool {
	seen := map[cfg.ProdAttr]bool{}
	for _, pi := range idxs {
		seen[g.Productions[pi].Attr] = true
	}
	return seen[a] && seen[b]
}

func pickByAttr(g *cfg.Cfg, idxs []int, attr cfg.ProdAttr) int {
	for _, pi := range idxs {
		if g.Productions[pi].Attr == attr {
			return pi
		}
	}
	return idxs[0]
}

// selfRefPosition returns the index, among rhs's non-pushdown symbols, of
// the plain (unattributed, no user type) occurrence of nt referencing
// itself — the recursive-tail field an AddToCollection production carries.
// This is identified by identity rather than by RHS position: the
// left-recursive convention used elsewhere in this grammar form puts the
// self-reference first, not last, so "drop the last argument" silently
// keeps the recursion and discards the per-item data. Returns -1 if rhs
// carries no such occurrence, leaving every argument in place.
func selfRefPosition(nt string, rhs []cfg.Symbol) int {
	i := 0
	for _, sym := range rhs {
		if sym.IsPushdown() {
			continue
		}
		if sym.IsNonTerminal() && sym.NonTerminal == nt && sym.SymAttr == cfg.AttrNone && sym.UserType == "" {
			return i
		}
		i++
	}
	return -1
}

func copyMemberInto(tab *symtab.Table, dst symtab.SymbolID, member symtab.SymbolID) error {
	src, ok := tab.Symbol(member)
	if !ok {
		return fmt.Errorf("asttype: dangling member %v", member)
	}
	id, err := tab.InsertInstance(dst, src.Name, src.TypeID, src.Attr, src.Description)
	if err != nil {
		return err
	}
	tab.SetInstanceUsed(id, src.Used)
	return nil
}

// rhsStructName synthesizes "<N>_<RhsConcatUpperCamel>", or "<N>Empty" if
// the RHS contains no terminals or non-terminals.
func rhsStructName(nt string, rhs []cfg.Symbol, terminalNames map[ktuple.CompiledTerminal]string) string {
	var parts []string
	for _, sym := range rhs {
		switch {
		case sym.IsTerminal():
			n := ""
			if terminalNames != nil {
				n = terminalNames[sym.Terminal]
			}
			if n == "" {
				n = fmt.Sprintf("t%d", int(sym.Terminal))
			}
			parts = append(parts, n)
		case sym.IsNonTerminal():
			parts = append(parts, sym.NonTerminal)
		}
	}
	if len(parts) == 0 {
		return nt + "Empty"
	}
	return nt + "_" + strings.Join(parts, "")
}

// detectRecursiveTypes marks every non-terminal type that participates in
// a cycle of plain (Box-wrapped) non-terminal references. This is the
// information a code emitter needs to know Box(T) is load-bearing, not
// optional, for that type (SPEC_FULL.md §5's supplemented feature).
func detectRecursiveTypes(tab *symtab.Table, g *cfg.Cfg, nts []string, ntTypes map[string]symtab.SymbolID) {
	edges := map[string][]string{}
	for _, nt := range nts {
		edges[nt] = nil
	}
	for _, p := range g.Productions {
		for _, sym := range p.RHS {
			if !sym.IsNonTerminal() {
				continue
			}
			if sym.SymAttr != cfg.AttrNone || sym.UserType != "" {
				continue // Vec/Option/Clipped/UserDefinedType occurrences don't go through Box
			}
			if p.Attr == cfg.ProdAddToCollection && sym.NonTerminal == p.LHS {
				continue // the collection tail is retyped to Vec in Phase 2
			}
			edges[p.LHS] = append(edges[p.LHS], sym.NonTerminal)
		}
	}

	const (
		white = 0
		gray  = 1
		black = 2
	)
	color := map[string]int{}
	var stack []string

	var dfs func(n string)
	dfs = func(n string) {
		color[n] = gray
		stack = append(stack, n)
		for _, m := range edges[n] {
			switch color[m] {
			case white:
				dfs(m)
			case gray:
				idx := -1
				for i, s := range stack {
					if s == m {
						idx = i
						break
					}
				}
				if idx >= 0 {
					for _, s := range stack[idx:] {
						if id, ok := ntTypes[s]; ok {
							if sym, ok := tab.Symbol(id); ok {
								sym.Recursive = true
							}
						}
					}
				}
			}
		}
		stack = stack[:len(stack)-1]
		color[n] = black
	}

	for _, nt := range nts {
		if color[nt] == white {
			dfs(nt)
		}
	}
}
