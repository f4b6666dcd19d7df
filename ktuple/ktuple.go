package ktuple

import "fmt"

// SlotCapacity is the maximum number of terminal slots a KTuple can hold.
// At MaxBits (12) bits per slot, 10 slots fit in 120 of the available 128
// bits, leaving headroom; this comfortably satisfies "MAX_K >= 10".
const SlotCapacity = 10

// KTuple is a bounded sequence of up to SlotCapacity CompiledTerminals,
// packed bits-per-slot bits at a time into a 128-bit (lo, hi) pair. Unused
// high bits are always zero. KTuple is a value type: every mutating
// operation returns a new KTuple.
type KTuple struct {
	bits uint
	mask uint64
	i    int // number of slots in use
	k    int // the k this tuple was built/truncated for
	lo   uint64
	hi   uint64
}

// Empty returns a zero-length KTuple with capacity for the given bit width
// and intended bound k.
func Empty(bitsPerSlot uint, k int) KTuple {
	return KTuple{
		bits: bitsPerSlot,
		mask: (uint64(1) << bitsPerSlot) - 1,
		k:    k,
	}
}

// Eps returns the epsilon KTuple: a single slot equal to the all-ones mask.
func Eps(bitsPerSlot uint, k int) KTuple {
	kt := Empty(bitsPerSlot, k)
	writeBits(&kt.lo, &kt.hi, 0, kt.bits, kt.mask)
	kt.i = 1
	return kt
}

// EOIOnly returns a single-slot KTuple containing just EOI.
func EOIOnly(bitsPerSlot uint, k int) KTuple {
	kt := Empty(bitsPerSlot, k)
	kt.i = 1
	return kt
}

// K returns the bound this tuple is tagged with.
func (kt KTuple) K() int { return kt.k }

// Len returns the number of slots currently in use.
func (kt KTuple) Len() int { return kt.i }

// Retag returns a copy of kt tagged with a (possibly different) k. It does
// not truncate or extend the stored slots.
func (kt KTuple) Retag(k int) KTuple {
	kt.k = k
	return kt
}

func (kt KTuple) slot(idx int) uint64 {
	return readBits(kt.lo, kt.hi, idx*int(kt.bits), kt.bits)
}

// IsEpsilon reports whether kt is the one-slot epsilon tuple.
func (kt KTuple) IsEpsilon() bool {
	return kt.i == 1 && kt.slot(0) == kt.mask
}

// IsEOIOnly reports whether kt is the one-slot EOI tuple.
func (kt KTuple) IsEOIOnly() bool {
	return kt.i == 1 && kt.slot(0) == 0
}

// endsInEOI reports whether the last pushed slot is EOI. Because Push
// refuses to extend past an EOI slot, EOI (when present) is always the
// final slot.
func (kt KTuple) endsInEOI() bool {
	return kt.i > 0 && kt.slot(kt.i-1) == 0
}

// Push appends t and returns the resulting KTuple. Pushing past an
// already-EOI-terminated tuple is a no-op (EOI is absorbing). Pushing
// Invalid is a programming error and panics, per spec.
func (kt KTuple) Push(t CompiledTerminal) (KTuple, error) {
	if t == Invalid {
		panic("ktuple: push of an invalid (unassigned) terminal")
	}
	if t == Epsilon {
		panic("ktuple: push of the epsilon sentinel")
	}
	if kt.endsInEOI() {
		return kt, nil
	}
	if kt.i >= SlotCapacity {
		return kt, fmt.Errorf("ktuple: capacity of %d slots exceeded", SlotCapacity)
	}
	out := kt
	writeBits(&out.lo, &out.hi, out.i*int(out.bits), out.bits, uint64(t))
	out.i++
	return out, nil
}

// KLen returns the length of kt up to and including the first EOI slot,
// capped at k.
func (kt KTuple) KLen(k int) int {
	limit := k
	if kt.i < limit {
		limit = kt.i
	}
	for idx := 0; idx < limit; idx++ {
		if kt.slot(idx) == 0 {
			return idx + 1
		}
	}
	return limit
}

// IsKComplete reports whether kt's prefix of length k is fully determined:
// either kt is already at least k long, or it ends in EOI.
func (kt KTuple) IsKComplete(k int) bool {
	if kt.i >= k {
		return true
	}
	return kt.endsInEOI()
}

// Terminals decodes kt into exactly Len() CompiledTerminal values. The
// all-ones slot decodes to Epsilon; the zero slot decodes to EOI.
func (kt KTuple) Terminals() []CompiledTerminal {
	out := make([]CompiledTerminal, kt.i)
	for idx := 0; idx < kt.i; idx++ {
		v := kt.slot(idx)
		switch {
		case v == kt.mask:
			out[idx] = Epsilon
		default:
			out[idx] = CompiledTerminal(v)
		}
	}
	return out
}

// Equal reports whether kt and other hold the same bit width and the same
// sequence of slots. The k tag is not considered.
func (kt KTuple) Equal(other KTuple) bool {
	return kt.bits == other.bits && kt.i == other.i && kt.lo == other.lo && kt.hi == other.hi
}

func (kt KTuple) String() string {
	if kt.IsEpsilon() {
		return "ε"
	}
	s := "["
	for idx, t := range kt.Terminals() {
		if idx > 0 {
			s += " "
		}
		if t == EOI {
			s += "$"
		} else {
			s += fmt.Sprintf("%d", int(t))
		}
	}
	return s + "]"
}

// Concat implements k-concatenation (spec.md §4.1): u·ε=u, ε·v=v, a
// k-complete u absorbs v entirely, and otherwise u is extended with a
// prefix of v truncated to fit k (itself stopping at v's first EOI).
func Concat(u, v KTuple, k int) (KTuple, error) {
	if u.IsEpsilon() {
		return v.Retag(k), nil
	}
	if v.IsEpsilon() {
		return u.Retag(k), nil
	}
	if u.IsKComplete(k) {
		return u.Retag(k), nil
	}

	out := u.Retag(k)
	remaining := k - u.i
	for idx := 0; idx < v.i && remaining > 0; idx++ {
		t := CompiledTerminal(v.slot(idx))
		var err error
		out, err = out.Push(t)
		if err != nil {
			return KTuple{}, err
		}
		remaining--
		if t == EOI {
			break
		}
	}
	return out, nil
}

// readBits/writeBits treat (lo, hi) as a little-endian 128-bit integer and
// read/write a `width`-bit field starting at bit offset bitPos, handling
// fields that straddle the lo/hi boundary.
func readBits(lo, hi uint64, bitPos int, width uint) uint64 {
	if width == 0 {
		return 0
	}
	fieldMask := (uint64(1) << width) - 1
	if bitPos >= 64 {
		return (hi >> uint(bitPos-64)) & fieldMask
	}
	if bitPos+int(width) <= 64 {
		return (lo >> uint(bitPos)) & fieldMask
	}
	loBits := uint(64 - bitPos)
	hiBits := width - loBits
	loPart := lo >> uint(bitPos)
	hiPart := hi & ((uint64(1) << hiBits) - 1)
	return loPart | (hiPart << loBits)
}

func writeBits(lo, hi *uint64, bitPos int, width uint, value uint64) {
	value &= (uint64(1) << width) - 1
	if bitPos >= 64 {
		shift := uint(bitPos - 64)
		clear := ((uint64(1) << width) - 1) << shift
		*hi = (*hi &^ clear) | (value << shift)
		return
	}
	if bitPos+int(width) <= 64 {
		clear := ((uint64(1) << width) - 1) << uint(bitPos)
		*lo = (*lo &^ clear) | (value << uint(bitPos))
		return
	}
	loBits := uint(64 - bitPos)
	hiBits := width - loBits
	loClear := ((uint64(1) << loBits) - 1) << uint(bitPos)
	*lo = (*lo &^ loClear) | ((value & ((uint64(1) << loBits) - 1)) << uint(bitPos))
	hiClear := (uint64(1) << hiBits) - 1
	*hi = (*hi &^ hiClear) | (value >> loBits)
}
