package symtab

import (
	"strings"
	"testing"

	"github.com/parsegen/parsegen/cfg"
)

func TestInsertTypeAppliesUpperCamelCase(t *testing.T) {
	tab := New()
	id := tab.InsertTypeInScope(tab.Root(), "my_node", TypeEntrails{Kind: EntrailsStruct})
	sym, ok := tab.Symbol(id)
	if !ok {
		t.Fatal("symbol not found")
	}
	if sym.Name != "MyNode" {
		t.Errorf("Name = %q, want %q", sym.Name, "MyNode")
	}
}

func TestInsertInstanceAppliesLowerSnakeCase(t *testing.T) {
	tab := New()
	typeID := tab.InsertTypeInScope(tab.Root(), "Node", TypeEntrails{Kind: EntrailsStruct})
	instID, err := tab.InsertInstance(typeID, "LeftChild", typeID, cfg.AttrNone, "")
	if err != nil {
		t.Fatal(err)
	}
	sym, _ := tab.Symbol(instID)
	if sym.Name != "left_child" {
		t.Errorf("Name = %q, want %q", sym.Name, "left_child")
	}
}

func TestUniquenessSynthesizesSuffix(t *testing.T) {
	tab := New()
	tab.InsertTypeInScope(tab.Root(), "Node", TypeEntrails{Kind: EntrailsStruct})
	second := tab.InsertTypeInScope(tab.Root(), "Node", TypeEntrails{Kind: EntrailsEnum})
	sym, _ := tab.Symbol(second)
	if sym.Name != "Node2" {
		t.Errorf("Name = %q, want %q", sym.Name, "Node2")
	}
}

func TestUnnamedSentinelExemptFromUniqueness(t *testing.T) {
	tab := New()
	a := tab.InsertTypeInScope(tab.Root(), "", TypeEntrails{Kind: EntrailsStruct})
	b := tab.InsertTypeInScope(tab.Root(), "", TypeEntrails{Kind: EntrailsEnum})
	symA, _ := tab.Symbol(a)
	symB, _ := tab.Symbol(b)
	if symA.Name != "" || symB.Name != "" {
		t.Errorf("unnamed symbols should both keep the empty name, got %q and %q", symA.Name, symB.Name)
	}
}

func TestGetOrCreateTypeCollapsesTokens(t *testing.T) {
	tab := New()
	a := tab.GetOrCreateType("IntLiteral", tab.Root(), TypeEntrails{Kind: EntrailsToken})
	b := tab.GetOrCreateType("StringLiteral", tab.Root(), TypeEntrails{Kind: EntrailsToken})
	if a != b {
		t.Error("all Token entrails should collapse to one canonical type per scope")
	}
}

func TestGetOrCreateTypeReusesMatchingEntrailsAndName(t *testing.T) {
	tab := New()
	a := tab.GetOrCreateType("Expr", tab.Root(), TypeEntrails{Kind: EntrailsEnum})
	b := tab.GetOrCreateType("Expr", tab.Root(), TypeEntrails{Kind: EntrailsEnum})
	if a != b {
		t.Error("identical (name, entrails) should reuse the existing type")
	}
	c := tab.GetOrCreateType("Expr", tab.Root(), TypeEntrails{Kind: EntrailsStruct})
	if a == c {
		t.Error("a different entrails kind under the same name should not reuse the type")
	}
}

func TestScopedUserDefinedTypeMaterializesChain(t *testing.T) {
	tab := New()
	leaf := tab.GetOrCreateScopedUserDefinedType("Struct", "ast::expr::BinOp")
	sym, _ := tab.Symbol(leaf)
	if sym.Entrails.Kind != EntrailsUserDefinedType {
		t.Fatalf("leaf entrails kind = %v, want UserDefinedType", sym.Entrails.Kind)
	}
	if sym.Entrails.UserDefinedKind != "Struct" {
		t.Errorf("leaf UserDefinedKind = %q, want %q", sym.Entrails.UserDefinedKind, "Struct")
	}
	if !strings.HasSuffix(sym.Entrails.UserDefinedPath, "BinOp") {
		t.Errorf("leaf UserDefinedPath = %q, want a path ending in BinOp", sym.Entrails.UserDefinedPath)
	}

	// A second request for the same path must return the same leaf, not a
	// fresh chain.
	leaf2 := tab.GetOrCreateScopedUserDefinedType("Struct", "ast::expr::BinOp")
	if leaf != leaf2 {
		t.Error("requesting the same dotted path twice should reuse the materialized chain")
	}
}

func TestPropagateLifetimesThroughMemberScope(t *testing.T) {
	tab := New()
	token := tab.GetOrCreateType("Token", tab.Root(), TypeEntrails{Kind: EntrailsToken})
	node := tab.InsertTypeInScope(tab.Root(), "Node", TypeEntrails{Kind: EntrailsStruct})
	if _, err := tab.InsertInstance(node, "value", token, cfg.AttrNone, ""); err != nil {
		t.Fatal(err)
	}

	tab.PropagateLifetimes()

	sym, _ := tab.Symbol(node)
	if !sym.HasLifetime {
		t.Error("a struct with a Token-typed member should become lifetime-bearing")
	}
}

func TestPropagateLifetimesClippedDoesNotPropagate(t *testing.T) {
	tab := New()
	token := tab.GetOrCreateType("Token", tab.Root(), TypeEntrails{Kind: EntrailsToken})
	node := tab.InsertTypeInScope(tab.Root(), "Node", TypeEntrails{Kind: EntrailsStruct})
	if _, err := tab.InsertInstance(node, "discarded", token, cfg.AttrClipped, ""); err != nil {
		t.Fatal(err)
	}

	tab.PropagateLifetimes()

	sym, _ := tab.Symbol(node)
	if sym.HasLifetime {
		t.Error("a struct whose only lifetime-bearing member is Clipped should not become lifetime-bearing")
	}
}

func TestPropagateLifetimesNoTerminalsStaysFalse(t *testing.T) {
	tab := New()
	empty := tab.InsertTypeInScope(tab.Root(), "Empty", TypeEntrails{Kind: EntrailsStruct})

	tab.PropagateLifetimes()

	sym, _ := tab.Symbol(empty)
	if sym.HasLifetime {
		t.Error("a struct with no members at all should not become lifetime-bearing")
	}
}
