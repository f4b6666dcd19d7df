package analysis

import (
	"sync"

	"github.com/parsegen/parsegen/ktuple"
)

// FirstResult is one (k, grammar) FIRST_k computation: the per-production,
// per-suffix-position sets (BySuffix[prodIndex][j] = FIRST_k of the RHS
// symbols from index j to the end, j in 0..len(rhs)) plus the aggregated
// FIRST_k per non-terminal.
type FirstResult struct {
	K        int
	BySuffix map[int][]*ktuple.KTuples
	ByNT     []*ktuple.KTuples
}

func singleton(bits uint, k int, t ktuple.CompiledTerminal) *ktuple.KTuples {
	s := ktuple.NewSet(bits, k)
	var kt ktuple.KTuple
	if t == ktuple.EOI {
		kt = ktuple.EOIOnly(bits, k)
	} else {
		var err error
		kt, err = ktuple.Empty(bits, k).Push(t)
		if err != nil {
			panic(err) // a single push into an empty tuple never exceeds capacity
		}
	}
	s.Add(kt)
	return s
}

func singletonEpsilon(bits uint, k int) *ktuple.KTuples {
	s := ktuple.NewSet(bits, k)
	s.Add(ktuple.Eps(bits, k))
	return s
}

// computeProductionFirst evaluates FIRST_k(rhs[j:]) for every j, from the
// end of the production backward, reading the non-terminal aggregate only
// through prevNT (the previous round's read-only snapshot).
func (g *Grammar) computeProductionFirst(p *production, prevNT []*ktuple.KTuples, k int) ([]*ktuple.KTuples, error) {
	n := len(p.rhs)
	vals := make([]*ktuple.KTuples, n+1)
	vals[n] = singletonEpsilon(g.bits, k)

	for j := n - 1; j >= 0; j-- {
		sym := p.rhs[j]
		switch {
		case sym.isPushdown():
			vals[j] = vals[j+1]
		case sym.isTerminal():
			c, err := ktuple.ConcatAll(singleton(g.bits, k, sym.term), vals[j+1], k)
			if err != nil {
				return nil, err
			}
			vals[j] = c
		default: // non-terminal
			nfirst := prevNT[sym.nt]
			if nfirst == nil {
				nfirst = ktuple.NewSet(g.bits, k)
			}
			c, err := ktuple.ConcatAll(nfirst, vals[j+1], k)
			if err != nil {
				return nil, err
			}
			vals[j] = c
		}
	}
	return vals, nil
}

func (g *Grammar) firstRound(prevNT []*ktuple.KTuples, k, parallelism int) (map[int][]*ktuple.KTuples, *aggregate, error) {
	agg := newAggregate(g.NonTerminalCount(), g.bits, k)

	bySuffix := make(map[int][]*ktuple.KTuples, len(g.prods))
	var bySuffixMu sync.Mutex

	sem := make(chan struct{}, parallelism)
	var wg sync.WaitGroup
	var errMu sync.Mutex
	var firstErr error

	for _, p := range g.prods {
		p := p
		wg.Add(1)
		sem <- struct{}{}
		go func() {
			defer wg.Done()
			defer func() { <-sem }()

			vals, err := g.computeProductionFirst(p, prevNT, k)
			if err != nil {
				errMu.Lock()
				if firstErr == nil {
					firstErr = err
				}
				errMu.Unlock()
				return
			}

			bySuffixMu.Lock()
			bySuffix[p.index] = vals
			bySuffixMu.Unlock()

			agg.unionInto(p.lhs, vals[0])
		}()
	}
	wg.Wait()

	if firstErr != nil {
		return nil, nil, firstErr
	}
	return bySuffix, agg, nil
}

// ComputeFirstK returns the FIRST_k result for g, computing and caching
// it if necessary. If cache already holds FIRST_(k-1), its per-NT sets
// seed round zero (each tuple re-tagged to k) instead of starting from
// empty sets.
func ComputeFirstK(g *Grammar, k int, cache *FirstCache, parallelism int) (*FirstResult, error) {
	identity := g.identity()

	if r, ok := cache.get(identity, k); ok {
		return r, nil
	}

	if k == 0 {
		r := &FirstResult{K: 0, BySuffix: map[int][]*ktuple.KTuples{}, ByNT: make([]*ktuple.KTuples, g.NonTerminalCount())}
		for i := range r.ByNT {
			r.ByNT[i] = ktuple.NewSet(g.bits, 0)
		}
		cache.put(identity, 0, r)
		return r, nil
	}

	if parallelism < 1 {
		parallelism = 1
	}

	prevNT := make([]*ktuple.KTuples, g.NonTerminalCount())
	if seed, ok := cache.get(identity, k-1); ok {
		for i, s := range seed.ByNT {
			prevNT[i] = s.Retag(k)
		}
	}
	for i := range prevNT {
		if prevNT[i] == nil {
			prevNT[i] = ktuple.NewSet(g.bits, k)
		}
	}

	var bySuffix map[int][]*ktuple.KTuples
	for {
		var agg *aggregate
		var err error
		bySuffix, agg, err = g.firstRound(prevNT, k, parallelism)
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

	r := &FirstResult{K: k, BySuffix: bySuffix, ByNT: prevNT}
	cache.put(identity, k, r)
	return r, nil
}
