// Package analysis computes FIRST_k and FOLLOW_k over a cfg.Cfg as fixed
// points of equation systems over k-bounded terminal tries (ktuple), and
// exposes the compiled grammar.
//
// The internal production/symbol representation (a content-addressed
// production id plus an ordered production set keyed by LHS) mirrors
// vartan's grammar/production.go and grammar/symbol.go.
package analysis

import (
	"crypto/sha256"
	"fmt"

	"github.com/parsegen/parsegen/cfg"
	"github.com/parsegen/parsegen/ktuple"
	"github.com/parsegen/parsegen/perr"
)

// symRef is the compiled form of a cfg.Symbol: a non-terminal is resolved
// to its index in the grammar's non-terminal order, a terminal keeps its
// CompiledTerminal index, and a pushdown marker carries no payload (it is
// transparent to every equation in this package).
type symRef struct {
	kind cfg.SymbolKind
	nt   int
	term ktuple.CompiledTerminal
}

func (s symRef) isTerminal() bool    { return s.kind == cfg.SymbolTerminal }
func (s symRef) isNonTerminal() bool { return s.kind == cfg.SymbolNonTerminal }
func (s symRef) isPushdown() bool    { return s.kind == cfg.SymbolPushdown }

type productionID [32]byte

func genProductionID(lhs int, rhs []symRef) productionID {
	buf := []byte{byte(lhs >> 8), byte(lhs)}
	for _, s := range rhs {
		buf = append(buf, byte(s.kind), byte(s.nt>>8), byte(s.nt), byte(s.term>>8), byte(s.term))
	}
	return productionID(sha256.Sum256(buf))
}

// production is the compiled form of a cfg.Pr.
type production struct {
	id    productionID
	index int // index into Grammar.Cfg.Productions / Grammar.prods
	lhs   int
	rhs   []symRef
	attr  cfg.ProdAttr
}

func (p *production) isEmpty() bool {
	for _, s := range p.rhs {
		if !s.isPushdown() {
			return false
		}
	}
	return true
}

// Grammar is the compiled form of a cfg.Cfg: non-terminals numbered in
// declaration order, and productions grouped by LHS.
type Grammar struct {
	Cfg *cfg.Cfg

	ntNames  []string
	ntIndex  map[string]int
	prods    []*production
	byLHS    map[int][]*production
	startIdx int

	bits uint
	maxK int
}

// Compile validates g and builds its internal numbered representation.
// maxK bounds the k this grammar's FIRST_k/FOLLOW_k caches will ever be
// asked to compute (spec.md §5's MAX_K ceiling).
func Compile(g *cfg.Cfg, maxK int) (*Grammar, error) {
	if g == nil || len(g.Productions) == 0 || g.Start == "" {
		return nil, perr.GrammarEmpty(fmt.Errorf("grammar has no productions or no start symbol"))
	}

	bits, err := ktuple.BitsFor(g.MaxTerminalIndex())
	if err != nil {
		return nil, perr.TerminalCountOverflow(err)
	}

	cg := &Grammar{
		Cfg:     g,
		ntIndex: map[string]int{},
		byLHS:   map[int][]*production{},
		bits:    bits,
		maxK:    maxK,
	}
	for _, name := range g.NonTerminals() {
		cg.ntIndex[name] = len(cg.ntNames)
		cg.ntNames = append(cg.ntNames, name)
	}
	cg.startIdx = cg.ntIndex[g.Start]

	for i, p := range g.Productions {
		lhs, ok := cg.ntIndex[p.LHS]
		if !ok {
			return nil, perr.GrammarEmpty(fmt.Errorf("production %d has unknown LHS %q", i, p.LHS))
		}
		rhs := make([]symRef, len(p.RHS))
		for j, s := range p.RHS {
			switch s.Kind {
			case cfg.SymbolTerminal:
				rhs[j] = symRef{kind: cfg.SymbolTerminal, term: s.Terminal}
			case cfg.SymbolNonTerminal:
				ntI, ok := cg.ntIndex[s.NonTerminal]
				if !ok {
					return nil, perr.GrammarEmpty(fmt.Errorf("production %d references unknown non-terminal %q", i, s.NonTerminal))
				}
				rhs[j] = symRef{kind: cfg.SymbolNonTerminal, nt: ntI}
			default:
				rhs[j] = symRef{kind: cfg.SymbolPushdown}
			}
		}
		prod := &production{
			id:    genProductionID(lhs, rhs),
			index: i,
			lhs:   lhs,
			rhs:   rhs,
			attr:  p.Attr,
		}
		cg.prods = append(cg.prods, prod)
		cg.byLHS[lhs] = append(cg.byLHS[lhs], prod)
	}

	return cg, nil
}

// Bits returns the bits-per-slot this grammar's KTuples are packed with.
func (g *Grammar) Bits() uint { return g.bits }

// MaxK returns the configured ceiling on k.
func (g *Grammar) MaxK() int { return g.maxK }

// NonTerminalName returns the declared name of non-terminal index i.
func (g *Grammar) NonTerminalName(i int) string { return g.ntNames[i] }

// NonTerminalCount returns the number of distinct non-terminals.
func (g *Grammar) NonTerminalCount() int { return len(g.ntNames) }

// StartIndex returns the start non-terminal's index.
func (g *Grammar) StartIndex() int { return g.startIdx }

// ProductionsOf returns the compiled productions whose LHS is
// non-terminal index nt, in declaration order.
func (g *Grammar) ProductionsOf(nt int) []*production {
	return g.byLHS[nt]
}

// AllProductions returns every compiled production in declaration order.
func (g *Grammar) AllProductions() []*production {
	return g.prods
}

// ProductionIndicesOf returns the Cfg.Productions indices of every
// production whose LHS is non-terminal index nt, in declaration order. This
// is the external-facing counterpart of ProductionsOf for packages outside
// analysis (lookahead, asttype) that cannot see the unexported production
// type.
func (g *Grammar) ProductionIndicesOf(nt int) []int {
	prods := g.byLHS[nt]
	idx := make([]int, len(prods))
	for i, p := range prods {
		idx[i] = p.index
	}
	return idx
}

// ProductionLHS returns the non-terminal index of production prodIndex's
// left-hand side.
func (g *Grammar) ProductionLHS(prodIndex int) int {
	return g.prods[prodIndex].lhs
}

// ProductionAttr returns the declared attribute of production prodIndex.
func (g *Grammar) ProductionAttr(prodIndex int) cfg.ProdAttr {
	return g.prods[prodIndex].attr
}

// NonTerminalIndex returns the index assigned to the non-terminal named
// name, if any.
func (g *Grammar) NonTerminalIndex(name string) (int, bool) {
	i, ok := g.ntIndex[name]
	return i, ok
}
