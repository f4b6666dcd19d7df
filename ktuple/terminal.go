// Package ktuple implements the k-bounded terminal-sequence algebra that
// the FIRST_k and FOLLOW_k engines are built on: CompiledTerminal indices,
// bit-packed KTuple values, and KTuples sets (prefix tries of terminal
// strings).
//
// The bit-packing scheme mirrors the one vartan's grammar/symbol package
// uses for its Symbol type (a fixed-width integer with reserved bit
// patterns for "nil"/"start"/"EOF"), generalized here to a slotted,
// multi-terminal tuple instead of a single symbol.
package ktuple

import (
	"fmt"
	"math/bits"
)

// CompiledTerminal is an integer terminal index in a fixed global order.
type CompiledTerminal int

const (
	// EOI is the end-of-input terminal, always index 0.
	EOI = CompiledTerminal(0)

	// The four built-in "skip" terminals occupy indices 1-4.
	TerminalNewline      = CompiledTerminal(1)
	TerminalWhitespace   = CompiledTerminal(2)
	TerminalLineComment  = CompiledTerminal(3)
	TerminalBlockComment = CompiledTerminal(4)

	// FirstUserTerminal is the first index available to grammar-defined
	// terminals.
	FirstUserTerminal = CompiledTerminal(5)

	// Invalid is the "unassigned" sentinel. Pushing it onto a KTuple is a
	// programming error.
	Invalid = CompiledTerminal(-1)

	// Epsilon is returned by Terminals for the all-ones slot; it
	// is never a valid value to Push.
	Epsilon = CompiledTerminal(-2)
)

// MaxBits is the ceiling on bits-per-slot (spec's MAX_BITS). Because
// BitsFor spends one bit on the epsilon reservation, it bounds the largest
// terminal index to 2^(MaxBits-1)-1 (2047).
const MaxBits = 12

// BitsFor computes the number of bits needed to pack one terminal slot for
// a grammar whose largest terminal index is maxTerminalIndex:
// ceil(log2(max+1)) + 1, capped at MaxBits. The extra "+1" bit reserves the
// all-ones pattern for Epsilon so a real terminal index can never collide
// with it.
func BitsFor(maxTerminalIndex int) (uint, error) {
	if maxTerminalIndex < 0 {
		maxTerminalIndex = 0
	}
	need := bits.Len(uint(maxTerminalIndex))
	b := uint(need) + 1
	if b < 2 {
		b = 2
	}
	if b > MaxBits {
		return 0, fmt.Errorf("terminal index %d requires %d bits, exceeding the %d-bit ceiling (largest usable index is %d)", maxTerminalIndex, b, MaxBits, (1<<(MaxBits-1))-1)
	}
	return b, nil
}
