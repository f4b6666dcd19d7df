package analysis

import (
	"sync"

	"github.com/parsegen/parsegen/ktuple"
)

// FollowResult is one (k, grammar) FOLLOW_k computation: the per-
// occurrence sets (one per RHS non-terminal position) plus the
// aggregated FOLLOW_k per non-terminal.
type FollowResult struct {
	K int
	// ByOccurrence[prodIndex][j] is FOLLOW_k at the non-terminal occupying
	// rhs position j of that production (only non-terminal positions are
	// populated).
	ByOccurrence map[int]map[int]*ktuple.KTuples
	ByNT         []*ktuple.KTuples
}

type followOccurrence struct {
	prodIndex int
	pos       int
	nt        int
	suffix    *ktuple.KTuples // FIRST_k of the RHS remaining after this occurrence
}

func (g *Grammar) followOccurrences(first *FirstResult) []followOccurrence {
	var occs []followOccurrence
	for _, p := range g.prods {
		suffixes := first.BySuffix[p.index]
		for j, sym := range p.rhs {
			if !sym.isNonTerminal() {
				continue
			}
			occs = append(occs, followOccurrence{
				prodIndex: p.index,
				pos:       j,
				nt:        sym.nt,
				suffix:    suffixes[j+1],
			})
		}
	}
	return occs
}

func (g *Grammar) followRound(occs []followOccurrence, prevNT []*ktuple.KTuples, k, parallelism int) (map[int]map[int]*ktuple.KTuples, *aggregate, error) {
	agg := newAggregate(g.NonTerminalCount(), g.bits, k)
	agg.unionInto(g.startIdx, singleton(g.bits, k, ktuple.EOI))

	byOcc := make(map[int]map[int]*ktuple.KTuples, len(occs))
	var byOccMu sync.Mutex

	sem := make(chan struct{}, parallelism)
	var wg sync.WaitGroup
	var errMu sync.Mutex
	var firstErr error

	for _, occ := range occs {
		occ := occ
		wg.Add(1)
		sem <- struct{}{}
		go func() {
			defer wg.Done()
			defer func() { <-sem }()

			lhsFollow := prevNT[g.prods[occ.prodIndex].lhs]
			if lhsFollow == nil {
				lhsFollow = ktuple.NewSet(g.bits, k)
			}
			contribution, err := ktuple.ConcatAll(occ.suffix, lhsFollow, k)
			if err != nil {
				errMu.Lock()
				if firstErr == nil {
					firstErr = err
				}
				errMu.Unlock()
				return
			}

			byOccMu.Lock()
			m, ok := byOcc[occ.prodIndex]
			if !ok {
				m = map[int]*ktuple.KTuples{}
				byOcc[occ.prodIndex] = m
			}
			m[occ.pos] = contribution
			byOccMu.Unlock()

			agg.unionInto(occ.nt, contribution)
		}()
	}
	wg.Wait()

	if firstErr != nil {
		return nil, nil, firstErr
	}
	return byOcc, agg, nil
}

// ComputeFollowK returns the FOLLOW_k result for g, given an already-
// computed FIRST_k result for the same k. It is cached the same way
// ComputeFirstK is.
func ComputeFollowK(g *Grammar, k int, first *FirstResult, cache *FollowCache, parallelism int) (*FollowResult, error) {
	if first.K != k {
		panic("analysis: FOLLOW_k requires a FIRST_k result for the same k")
	}

	identity := g.identity()
	if r, ok := cache.get(identity, k); ok {
		return r, nil
	}
	if parallelism < 1 {
		parallelism = 1
	}

	occs := g.followOccurrences(first)

	prevNT := make([]*ktuple.KTuples, g.NonTerminalCount())
	for i := range prevNT {
		prevNT[i] = ktuple.NewSet(g.bits, k)
	}

	var byOcc map[int]map[int]*ktuple.KTuples
	for {
		var agg *aggregate
		var err error
		byOcc, agg, err = g.followRound(occs, prevNT, k, parallelism)
		if err != nil {
			return nil, err
		}
		newNT := agg.snapshot()
		if equalNTSets(prevNT, newNT) {
			prevNT = newNT
			break
		}
		prevNT = newNT
	}

	r := &FollowResult{K: k, ByOccurrence: byOcc, ByNT: prevNT}
	cache.put(identity, k, r)
	return r, nil
}
