package asttype

import (
	"testing"

	"github.com/parsegen/parsegen/cfg"
	"github.com/parsegen/parsegen/ktuple"
	"github.com/parsegen/parsegen/perr"
	"github.com/parsegen/parsegen/symtab"
)

const (
	termPlus ktuple.CompiledTerminal = 5
	termNum  ktuple.CompiledTerminal = 6
)

func terminalNames() map[ktuple.CompiledTerminal]string {
	return map[ktuple.CompiledTerminal]string{
		termPlus: "plus",
		termNum:  "num",
	}
}

// exprGrammar is a small left-recursive expression grammar with a genuine
// enum case (two unrelated alternatives, neither carrying a collection or
// optional attribute).
func exprGrammar() *cfg.Cfg {
	return &cfg.Cfg{
		Start: "Expr",
		Productions: []cfg.Pr{
			{LHS: "Expr", RHS: []cfg.Symbol{cfg.NonTerm("Expr", cfg.AttrNone), cfg.Term(termPlus, cfg.TerminalRaw), cfg.NonTerm("Num", cfg.AttrNone)}},
			{LHS: "Expr", RHS: []cfg.Symbol{cfg.NonTerm("Num", cfg.AttrNone)}},
			{LHS: "Num", RHS: []cfg.Symbol{cfg.Term(termNum, cfg.TerminalRaw)}},
		},
	}
}

func TestInferPhase1StructVsEnum(t *testing.T) {
	tab := symtab.New()
	result, err := Infer(exprGrammar(), tab, terminalNames())
	if err != nil {
		t.Fatal(err)
	}

	numSym, ok := tab.Symbol(result.NonTerminalTypes["Num"])
	if !ok || numSym.Entrails.Kind != symtab.EntrailsStruct {
		t.Errorf("Num (single production) should be a Struct, got %v", numSym.Entrails.Kind)
	}

	exprSym, ok := tab.Symbol(result.NonTerminalTypes["Expr"])
	if !ok || exprSym.Entrails.Kind != symtab.EntrailsEnum {
		t.Errorf("Expr (two unrelated productions) should be an Enum, got %v", exprSym.Entrails.Kind)
	}
}

func TestInferCreatesOneAdapterActionPerProduction(t *testing.T) {
	tab := symtab.New()
	result, err := Infer(exprGrammar(), tab, terminalNames())
	if err != nil {
		t.Fatal(err)
	}
	if len(result.AdapterActions) != 3 {
		t.Fatalf("AdapterActions has %d entries, want 3 (one per production)", len(result.AdapterActions))
	}
	for pi, fn := range result.AdapterActions {
		sym, ok := tab.Symbol(fn)
		if !ok || sym.Entrails.Kind != symtab.EntrailsFunction {
			t.Errorf("production %d's action is not a Function symbol", pi)
		}
	}
}

// optionalGrammar is Opt -> Some x | None, the CollectionStart-free
// optional-typing case.
func optionalGrammar() *cfg.Cfg {
	return &cfg.Cfg{
		Start: "S",
		Productions: []cfg.Pr{
			{LHS: "S", RHS: []cfg.Symbol{cfg.NonTerm("Opt", cfg.AttrNone)}},
			{LHS: "Opt", RHS: []cfg.Symbol{cfg.Term(termNum, cfg.TerminalRaw)}, Attr: cfg.ProdOptionalSome},
			{LHS: "Opt", RHS: nil, Attr: cfg.ProdOptionalNone},
		},
	}
}

func TestInferMarksOptionTyped(t *testing.T) {
	tab := symtab.New()
	result, err := Infer(optionalGrammar(), tab, terminalNames())
	if err != nil {
		t.Fatal(err)
	}
	if !result.OptionTypedNonTerminals["Opt"] {
		t.Error("Opt should be marked option-typed")
	}
	optSym, ok := tab.Symbol(result.NonTerminalTypes["Opt"])
	if !ok || optSym.Entrails.Kind != symtab.EntrailsStruct {
		t.Errorf("Opt should finish as a Struct, got %v", optSym.Entrails.Kind)
	}
}

// listGrammar is the classic EBNF-desugared repetition: List -> Item |
// List Item, with CollectionStart/AddToCollection attributes.
func listGrammar() *cfg.Cfg {
	return &cfg.Cfg{
		Start: "S",
		Productions: []cfg.Pr{
			{LHS: "S", RHS: []cfg.Symbol{cfg.NonTerm("List", cfg.AttrNone)}},
			{LHS: "List", RHS: []cfg.Symbol{cfg.NonTerm("Item", cfg.AttrNone)}, Attr: cfg.ProdCollectionStart},
			{LHS: "List", RHS: []cfg.Symbol{cfg.NonTerm("List", cfg.AttrNone), cfg.NonTerm("Item", cfg.AttrNone)}, Attr: cfg.ProdAddToCollection},
			{LHS: "Item", RHS: []cfg.Symbol{cfg.Term(termNum, cfg.TerminalRaw)}},
		},
	}
}

func TestInferMarksVectorTypedAndRewritesTail(t *testing.T) {
	tab := symtab.New()
	result, err := Infer(listGrammar(), tab, terminalNames())
	if err != nil {
		t.Fatal(err)
	}
	if !result.VectorTypedNonTerminals["List"] {
		t.Error("List should be marked vector-typed")
	}
	listSym, ok := tab.Symbol(result.NonTerminalTypes["List"])
	if !ok || listSym.Entrails.Kind != symtab.EntrailsStruct {
		t.Fatalf("List should finish as a Struct, got %v", listSym.Entrails.Kind)
	}
	members := tab.Members(result.NonTerminalTypes["List"])
	if len(members) != 1 {
		t.Fatalf("List should have exactly one field (Item, with the recursive tail dropped), got %d", len(members))
	}
}

func TestInferLifetimePropagatesFromTokenMembers(t *testing.T) {
	tab := symtab.New()
	result, err := Infer(exprGrammar(), tab, terminalNames())
	if err != nil {
		t.Fatal(err)
	}
	numSym, _ := tab.Symbol(result.NonTerminalTypes["Num"])
	if !numSym.HasLifetime {
		t.Error("Num holds a terminal (Token) field, so it should become lifetime-bearing")
	}
}

func TestInferMarksRecursiveTypes(t *testing.T) {
	tab := symtab.New()
	result, err := Infer(exprGrammar(), tab, terminalNames())
	if err != nil {
		t.Fatal(err)
	}
	exprSym, _ := tab.Symbol(result.NonTerminalTypes["Expr"])
	if !exprSym.Recursive {
		t.Error("Expr -> Expr '+' Num is self-recursive through a plain Box(Expr) occurrence and should be marked Recursive")
	}
	numSym, _ := tab.Symbol(result.NonTerminalTypes["Num"])
	if numSym.Recursive {
		t.Error("Num never references itself and should not be marked Recursive")
	}
}

// mispairedCollectionGrammar gives a two-production non-terminal both
// carrying AddToCollection, with no CollectionStart to pair against — a
// malformed EBNF-desugaring combination that should fail fast rather than
// silently produce a struct-with-enum-variants type.
func mispairedCollectionGrammar() *cfg.Cfg {
	return &cfg.Cfg{
		Start: "S",
		Productions: []cfg.Pr{
			{LHS: "S", RHS: []cfg.Symbol{cfg.NonTerm("List", cfg.AttrNone)}},
			{LHS: "List", RHS: []cfg.Symbol{cfg.NonTerm("List", cfg.AttrNone), cfg.NonTerm("Item", cfg.AttrNone)}, Attr: cfg.ProdAddToCollection},
			{LHS: "List", RHS: []cfg.Symbol{cfg.NonTerm("List", cfg.AttrNone), cfg.Term(termNum, cfg.TerminalRaw)}, Attr: cfg.ProdAddToCollection},
			{LHS: "Item", RHS: []cfg.Symbol{cfg.Term(termNum, cfg.TerminalRaw)}},
		},
	}
}

func TestInferRejectsMispairedCollectionAttributes(t *testing.T) {
	tab := symtab.New()
	_, err := Infer(mispairedCollectionGrammar(), tab, terminalNames())
	if err == nil {
		t.Fatal("expected an error for two AddToCollection productions with no CollectionStart")
	}
	se, ok := err.(*perr.SpecError)
	if !ok || se.Kind != perr.KindUnexpectedProductionAttributeCombo {
		t.Fatalf("err = %v, want a KindUnexpectedProductionAttributeCombo SpecError", err)
	}
}

func TestInferBuildsASTEnumType(t *testing.T) {
	tab := symtab.New()
	result, err := Infer(exprGrammar(), tab, terminalNames())
	if err != nil {
		t.Fatal(err)
	}
	astSym, ok := tab.Symbol(result.ASTEnumType)
	if !ok || astSym.Entrails.Kind != symtab.EntrailsEnum {
		t.Fatal("ASTEnumType should be an Enum symbol")
	}
	if len(tab.Members(result.ASTEnumType)) != 2 {
		t.Errorf("ASTType should have one variant per non-terminal (Expr, Num), got %d", len(tab.Members(result.ASTEnumType)))
	}
}
