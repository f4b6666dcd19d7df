package cfg

import "testing"

func TestEquivalentTerminalOccurrencesIgnoreSymAttr(t *testing.T) {
	a := Pr{LHS: "A", RHS: []Symbol{TermAttr(5, TerminalRaw, AttrNone)}}
	b := Pr{LHS: "A", RHS: []Symbol{TermAttr(5, TerminalRaw, AttrClipped)}}
	if !Equivalent(a, b) {
		t.Error("terminal occurrences differing only by SymAttr should be Equivalent (spec §9 doesn't extend attribute comparison to terminals)")
	}
}

func TestEquivalentNonTerminalOccurrencesDistinguishSymAttr(t *testing.T) {
	a := Pr{LHS: "A", RHS: []Symbol{NonTerm("B", AttrNone)}}
	b := Pr{LHS: "A", RHS: []Symbol{NonTerm("B", AttrRepetitionAnchor)}}
	if Equivalent(a, b) {
		t.Error("a plain reference to B and a repeated reference to B are distinct RHS shapes and must not be Equivalent")
	}
}

func TestEquivalentIgnoresUserType(t *testing.T) {
	a := Pr{LHS: "A", RHS: []Symbol{NonTerm("B", AttrNone)}}
	b := a
	b.RHS = []Symbol{NonTerm("B", AttrNone)}
	b.RHS[0].UserType = "Custom"
	if !Equivalent(a, b) {
		t.Error("UserType must not affect production equivalence (spec §9)")
	}
}
