package analysis

import (
	"sync"

	"github.com/parsegen/parsegen/ktuple"
)

// aggregate is the shared, mutable per-non-terminal result of one fixed-
// point round. Per spec.md §5, writers only ever union into an entry
// (monotone, commutative, associative), so a single RWMutex guarding the
// whole slice is sufficient: readers take RLock, the rare concurrent
// writers to the same non-terminal (two productions sharing an LHS) take
// Lock just around their union.
type aggregate struct {
	mu   sync.RWMutex
	sets []*ktuple.KTuples
}

func newAggregate(ntCount int, bits uint, k int) *aggregate {
	sets := make([]*ktuple.KTuples, ntCount)
	for i := range sets {
		sets[i] = ktuple.NewSet(bits, k)
	}
	return &aggregate{sets: sets}
}

// unionInto merges ts into the entry for non-terminal nt, returning
// whether the entry changed.
func (a *aggregate) unionInto(nt int, ts *ktuple.KTuples) bool {
	if ts == nil {
		return false
	}
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.sets[nt].Union(ts)
}

// get returns a read-only view of the current entry for nt. Callers must
// not mutate the returned set.
func (a *aggregate) get(nt int) *ktuple.KTuples {
	a.mu.RLock()
	defer a.mu.RUnlock()
	return a.sets[nt]
}

// snapshot returns the underlying per-NT sets once the round's writers
// have all completed (i.e. after the WaitGroup barrier). The result
// becomes the next round's read-only "previous iteration" map.
func (a *aggregate) snapshot() []*ktuple.KTuples {
	a.mu.RLock()
	defer a.mu.RUnlock()
	return a.sets
}

func equalNTSets(a, b []*ktuple.KTuples) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if !a[i].Equal(b[i]) {
			return false
		}
	}
	return true
}
