package analysis

import (
	"testing"

	"github.com/parsegen/parsegen/cfg"
	"github.com/parsegen/parsegen/ktuple"
)

const (
	termA ktuple.CompiledTerminal = 5
	termB ktuple.CompiledTerminal = 6
	termC ktuple.CompiledTerminal = 7
)

// simpleListGrammar is List -> a | List a (left-recursive, requires
// FOLLOW(List) to include 'a' via the recursive occurrence).
func simpleListGrammar() *cfg.Cfg {
	return &cfg.Cfg{
		Start: "S",
		Productions: []cfg.Pr{
			{LHS: "S", RHS: []cfg.Symbol{cfg.NonTerm("List", cfg.AttrNone)}},
			{LHS: "List", RHS: []cfg.Symbol{cfg.Term(termA, cfg.TerminalRaw)}},
			{LHS: "List", RHS: []cfg.Symbol{cfg.NonTerm("List", cfg.AttrNone), cfg.Term(termA, cfg.TerminalRaw)}},
		},
	}
}

func mustGrammar(t *testing.T, g *cfg.Cfg, maxK int) *Grammar {
	t.Helper()
	cg, err := Compile(g, maxK)
	if err != nil {
		t.Fatalf("Compile: %v", err)
	}
	return cg
}

func TestComputeFirstKSimpleList(t *testing.T) {
	g := mustGrammar(t, simpleListGrammar(), 2)
	cache := NewFirstCache()
	r, err := ComputeFirstK(g, 1, cache, 2)
	if err != nil {
		t.Fatal(err)
	}
	listIdx, _ := g.NonTerminalIndex("List")
	first := r.ByNT[listIdx]
	if first.Len() != 1 {
		t.Fatalf("FIRST_1(List).Len() = %d, want 1", first.Len())
	}
	want, err := ktuple.Empty(g.Bits(), 1).Push(termA)
	if err != nil {
		t.Fatal(err)
	}
	if !first.Contains(want) {
		t.Errorf("FIRST_1(List) should contain {a}")
	}
}

func TestComputeFirstKCachesByGrammarIdentity(t *testing.T) {
	g1 := mustGrammar(t, simpleListGrammar(), 2)
	g2 := mustGrammar(t, simpleListGrammar(), 2)
	cache := NewFirstCache()

	r1, err := ComputeFirstK(g1, 1, cache, 1)
	if err != nil {
		t.Fatal(err)
	}
	r2, err := ComputeFirstK(g2, 1, cache, 1)
	if err != nil {
		t.Fatal(err)
	}
	if r1 != r2 {
		t.Error("two Grammars compiled from equal Cfgs should share a cache entry")
	}
}

func TestComputeFollowKSeedsStartWithEOI(t *testing.T) {
	g := mustGrammar(t, simpleListGrammar(), 2)
	firstCache := NewFirstCache()
	followCache := NewFollowCache()

	first, err := ComputeFirstK(g, 1, firstCache, 2)
	if err != nil {
		t.Fatal(err)
	}
	follow, err := ComputeFollowK(g, 1, first, followCache, 2)
	if err != nil {
		t.Fatal(err)
	}
	startIdx := g.StartIndex()
	followStart := follow.ByNT[startIdx]
	if !followStart.Contains(ktuple.EOIOnly(g.Bits(), 1)) {
		t.Error("FOLLOW_1(start) must contain EOI")
	}
}

func TestComputeFollowKPropagatesThroughRecursion(t *testing.T) {
	g := mustGrammar(t, simpleListGrammar(), 2)
	firstCache := NewFirstCache()
	followCache := NewFollowCache()

	first, err := ComputeFirstK(g, 1, firstCache, 2)
	if err != nil {
		t.Fatal(err)
	}
	follow, err := ComputeFollowK(g, 1, first, followCache, 2)
	if err != nil {
		t.Fatal(err)
	}
	listIdx, _ := g.NonTerminalIndex("List")
	followList := follow.ByNT[listIdx]

	wantA, err := ktuple.Empty(g.Bits(), 1).Push(termA)
	if err != nil {
		t.Fatal(err)
	}
	if !followList.Contains(wantA) {
		t.Error("FOLLOW_1(List) should contain 'a' via the left-recursive List -> List a occurrence")
	}
	if !followList.Contains(ktuple.EOIOnly(g.Bits(), 1)) {
		t.Error("FOLLOW_1(List) should also contain EOI via List being the last symbol of S -> List")
	}
}
