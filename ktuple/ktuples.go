package ktuple

import (
	"github.com/emirpasic/gods/sets/treeset"
	"github.com/emirpasic/gods/utils"
)

// KTuples is a set of KTuple values, semantically a prefix trie of
// terminal strings. Membership, union, and k-concatenation are the
// supported operations; equality is set equality.
//
// Deduplication and a deterministic iteration order (needed for
// reproducible DFA construction, per SPEC_FULL.md §3) are delegated to
// gods' treeset.Set, ordered by a comparator over (length, packed bits)
// rather than Go's randomized map order.
type KTuples struct {
	bits uint
	k    int
	set  *treeset.Set
}

func tupleComparator(a, b interface{}) int {
	x := a.(KTuple)
	y := b.(KTuple)
	if x.i != y.i {
		return utils.IntComparator(x.i, y.i)
	}
	if x.hi != y.hi {
		if x.hi < y.hi {
			return -1
		}
		return 1
	}
	if x.lo != y.lo {
		if x.lo < y.lo {
			return -1
		}
		return 1
	}
	return 0
}

// NewSet returns an empty KTuples set for the given bit width and bound k.
func NewSet(bitsPerSlot uint, k int) *KTuples {
	return &KTuples{
		bits: bitsPerSlot,
		k:    k,
		set:  treeset.NewWith(tupleComparator),
	}
}

// Add inserts t (after retagging it to this set's k) and reports whether
// the set changed.
func (s *KTuples) Add(t KTuple) bool {
	t = t.Retag(s.k)
	if s.set.Contains(t) {
		return false
	}
	s.set.Add(t)
	return true
}

// Union merges other into s, returning whether s changed. Union is the
// only mutation a parallel writer performs (spec.md §5): it is
// commutative and associative, so concurrent callers need not be
// serialized beyond the lock that guards s.
func (s *KTuples) Union(other *KTuples) bool {
	if other == nil {
		return false
	}
	changed := false
	for _, v := range other.set.Values() {
		if s.Add(v.(KTuple)) {
			changed = true
		}
	}
	return changed
}

// Contains reports whether t (as a value, ignoring its k tag) is a member.
func (s *KTuples) Contains(t KTuple) bool {
	return s.set.Contains(t.Retag(s.k))
}

// Len returns the number of distinct tuples in the set.
func (s *KTuples) Len() int {
	return s.set.Size()
}

// Each iterates the set in deterministic (length, bits) order.
func (s *KTuples) Each(fn func(KTuple)) {
	for _, v := range s.set.Values() {
		fn(v.(KTuple))
	}
}

// Equal reports whether s and other contain the same tuples.
func (s *KTuples) Equal(other *KTuples) bool {
	if other == nil {
		return s.Len() == 0
	}
	if s.Len() != other.Len() {
		return false
	}
	eq := true
	s.Each(func(t KTuple) {
		if !other.Contains(t) {
			eq = false
		}
	})
	return eq
}

// Retag returns a copy of s with every member tuple re-tagged to k. Used
// to seed a FIRST_k/FOLLOW_k round from the cached k-1 result (spec.md
// §4.2's caching rule).
func (s *KTuples) Retag(k int) *KTuples {
	out := NewSet(s.bits, k)
	s.Each(func(t KTuple) {
		out.Add(t)
	})
	return out
}

// Clone returns an independent copy of s.
func (s *KTuples) Clone() *KTuples {
	out := NewSet(s.bits, s.k)
	s.Each(func(t KTuple) {
		out.Add(t)
	})
	return out
}

// ConcatAll computes A ⊗_k B = { a·b | a ∈ A, b ∈ B } truncated to k,
// deduplicating through the underlying trie representation.
func ConcatAll(a, b *KTuples, k int) (*KTuples, error) {
	out := NewSet(a.bits, k)
	var failure error
	a.Each(func(x KTuple) {
		if failure != nil {
			return
		}
		b.Each(func(y KTuple) {
			if failure != nil {
				return
			}
			c, err := Concat(x, y, k)
			if err != nil {
				failure = err
				return
			}
			out.Add(c)
		})
	})
	if failure != nil {
		return nil, failure
	}
	return out, nil
}
