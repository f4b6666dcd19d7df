// Package lookahead builds, for one non-terminal at a time, the minimum-k
// disambiguating automaton spec.md §4.4 describes: the smallest k at which
// every alternative's contributing-terminal set L_i = FIRST_k(rhs_i) ⊗_k
// FOLLOW_k(N) is pairwise disjoint from every other alternative's, plus the
// transition table a driver walks to pick an alternative by peeking at most
// k terminals ahead.
//
// The state-construction algorithm is grounded on vartan's
// parsing_table_builder.go: states are built breadth-first, each one
// keeping the set of alternatives still possible given the terminals
// consumed so far, and the dense table handed to a driver is compressed
// the way vartan's compressor package compresses its LALR action/goto
// tables.
package lookahead

import (
	"fmt"

	"github.com/emirpasic/gods/lists/arraylist"

	"github.com/parsegen/parsegen/analysis"
	"github.com/parsegen/parsegen/cfg"
	"github.com/parsegen/parsegen/compressor"
	"github.com/parsegen/parsegen/internal/genset"
	"github.com/parsegen/parsegen/ktuple"
	"github.com/parsegen/parsegen/perr"
)

// Table is the compiled lookahead automaton for one non-terminal.
type Table struct {
	NonTerminal string
	K           int

	// Alternatives are the LHS's productions (indices into
	// Grammar.Cfg.Productions), in the order the automaton's Accept values
	// index into.
	Alternatives []int

	// Accept[state] is the index into Alternatives that state decides, or
	// -1 if state does not yet decide (more terminals are needed) or is a
	// dead state (no alternative can continue; a parse error).
	Accept []int

	States int

	terminalCount int
	transitions   *compressor.RowDisplacementTable
}

// NextState returns the state reached from state by consuming term, or -1
// if no alternative's contributing set has a transition there (a parse
// error at this point in the input).
func (t *Table) NextState(state int, term ktuple.CompiledTerminal) (int, error) {
	if t.transitions == nil {
		return -1, nil
	}
	v, err := t.transitions.Lookup(state, int(term))
	if err != nil {
		return -1, err
	}
	if v == 0 {
		return -1, nil
	}
	return v - 1, nil
}

// AcceptedProduction returns the Cfg.Productions index state decides, or -1
// if state is not an accepting state.
func (t *Table) AcceptedProduction(state int) int {
	if state < 0 || state >= len(t.Accept) || t.Accept[state] < 0 {
		return -1
	}
	return t.Alternatives[t.Accept[state]]
}

// Build computes the lookahead table for non-terminal ntName: the smallest
// k in 1..g.MaxK() at which its alternatives' contributing-terminal sets
// are pairwise disjoint, and the resulting transition table. It returns
// perr.EquivalentProductions if two alternatives are structurally
// identical (no k ever disambiguates them) and perr.AmbiguousGrammar if
// g.MaxK() is exhausted without finding a disjoint k.
func Build(g *analysis.Grammar, ntName string, firstCache *analysis.FirstCache, followCache *analysis.FollowCache, parallelism int) (*Table, error) {
	ntIdx, ok := g.NonTerminalIndex(ntName)
	if !ok {
		return nil, fmt.Errorf("lookahead: unknown non-terminal %q", ntName)
	}

	prodIdxs := g.ProductionIndicesOf(ntIdx)
	if len(prodIdxs) == 0 {
		return nil, fmt.Errorf("lookahead: non-terminal %q has no productions", ntName)
	}

	for i := 0; i < len(prodIdxs); i++ {
		for j := i + 1; j < len(prodIdxs); j++ {
			if cfg.Equivalent(g.Cfg.Productions[prodIdxs[i]], g.Cfg.Productions[prodIdxs[j]]) {
				return nil, perr.EquivalentProductions(prodIdxs[i], prodIdxs[j])
			}
		}
	}

	if len(prodIdxs) == 1 {
		return &Table{
			NonTerminal:  ntName,
			K:            0,
			Alternatives: prodIdxs,
			Accept:       []int{0},
			States:       1,
		}, nil
	}

	maxK := g.MaxK()
	for k := 1; k <= maxK; k++ {
		first, err := analysis.ComputeFirstK(g, k, firstCache, parallelism)
		if err != nil {
			return nil, err
		}
		follow, err := analysis.ComputeFollowK(g, k, first, followCache, parallelism)
		if err != nil {
			return nil, err
		}

		contributing := make([]*ktuple.KTuples, len(prodIdxs))
		for i, prodIdx := range prodIdxs {
			rhsFirst := first.BySuffix[prodIdx][0]
			l, err := ktuple.ConcatAll(rhsFirst, follow.ByNT[ntIdx], k)
			if err != nil {
				return nil, err
			}
			contributing[i] = l
		}

		if pairwiseDisjoint(contributing) {
			return buildTable(ntName, k, prodIdxs, contributing)
		}
	}

	return nil, perr.AmbiguousGrammar(ntName, maxK)
}

func pairwiseDisjoint(sets []*ktuple.KTuples) bool {
	ok := true
	for i := range sets {
		sets[i].Each(func(t ktuple.KTuple) {
			for j := range sets {
				if j == i {
					continue
				}
				if sets[j].Contains(t) {
					ok = false
				}
			}
		})
		if !ok {
			return false
		}
	}
	return true
}

// buildTable walks, breadth-first, the set of alternatives still possible
// at each prefix of consumed terminals. A node whose surviving candidate
// set has narrowed to one alternative becomes an accepting state; one
// whose candidates are exhausted (no tuple has a terminal at this depth)
// is a dead state and gets no table entry at all.
//
// Because every L_i member shorter than k was truncated there by hitting
// EOI (ktuple.Concat's absorbing rule), and nothing can ever be pushed
// past an EOI slot, two tuples can never diverge only in length while
// agreeing on every terminal of the shorter one: the node-per-terminal-
// value branching below is exhaustive, not an approximation.
func buildTable(ntName string, k int, prodIdxs []int, contributing []*ktuple.KTuples) (*Table, error) {
	altTuples := make([][]ktuple.KTuple, len(prodIdxs))
	for i, s := range contributing {
		i, s := i, s
		s.Each(func(t ktuple.KTuple) {
			altTuples[i] = append(altTuples[i], t)
		})
	}

	type frontierItem struct {
		state      int
		depth      int
		candidates map[int][]ktuple.KTuple
	}
	type transKey struct {
		state int
		term  ktuple.CompiledTerminal
	}

	root := make(map[int][]ktuple.KTuple, len(altTuples))
	for i, ts := range altTuples {
		root[i] = ts
	}

	var accept []int
	trans := map[transKey]int{}
	nextState := 0
	newState := func() int {
		s := nextState
		nextState++
		accept = append(accept, -1)
		return s
	}
	rootState := newState()

	// The BFS frontier is a gods arraylist rather than a plain slice,
	// grounded on gorgo's lr/tables.go use of ordered gods collections for
	// the same "accumulate, then walk in order" shape this queue has.
	queue := arraylist.New()
	queue.Add(frontierItem{state: rootState, depth: 0, candidates: root})
	for !queue.Empty() {
		v, _ := queue.Get(0)
		queue.Remove(0)
		item := v.(frontierItem)

		if len(item.candidates) == 0 {
			continue
		}
		if len(item.candidates) == 1 {
			for alt := range item.candidates {
				accept[item.state] = alt
			}
			continue
		}

		branches := map[ktuple.CompiledTerminal]map[int][]ktuple.KTuple{}
		branchSyms := genset.New[ktuple.CompiledTerminal]()
		for alt, tuples := range item.candidates {
			for _, t := range tuples {
				terms := t.Terminals()
				if item.depth >= len(terms) {
					continue
				}
				sym := terms[item.depth]
				m, ok := branches[sym]
				if !ok {
					m = map[int][]ktuple.KTuple{}
					branches[sym] = m
					branchSyms.Add(sym)
				}
				m[alt] = append(m[alt], t)
			}
		}

		// Walk branches in sorted terminal-value order, not Go's randomized
		// map order, so state numbering (and hence the compressed table) is
		// reproducible across runs of the same grammar.
		for _, sym := range branchSyms.Sorted() {
			child := newState()
			trans[transKey{item.state, sym}] = child
			queue.Add(frontierItem{state: child, depth: item.depth + 1, candidates: branches[sym]})
		}
	}

	terminalCount := 0
	for key := range trans {
		if int(key.term)+1 > terminalCount {
			terminalCount = int(key.term) + 1
		}
	}
	if terminalCount == 0 {
		terminalCount = 1
	}

	entries := make([]int, nextState*terminalCount)
	for key, dst := range trans {
		entries[key.state*terminalCount+int(key.term)] = dst + 1
	}

	orig, err := compressor.NewOriginalTable(entries, terminalCount)
	if err != nil {
		return nil, fmt.Errorf("lookahead: %q: %w", ntName, err)
	}
	ct := compressor.NewRowDisplacementTable(0)
	if err := ct.Compress(orig); err != nil {
		return nil, fmt.Errorf("lookahead: %q: %w", ntName, err)
	}

	return &Table{
		NonTerminal:   ntName,
		K:             k,
		Alternatives:  prodIdxs,
		Accept:        accept,
		States:        nextState,
		terminalCount: terminalCount,
		transitions:   ct,
	}, nil
}
