// Package perr defines the structured error values the core packages
// return at their boundaries. No core package formats or prints an error;
// that is left to cmd/parsegen.
package perr

import "fmt"

// Kind identifies which of the closed set of failure modes a SpecError
// represents.
type Kind string

const (
	KindGrammarEmpty                       = Kind("grammar-empty")
	KindAmbiguousGrammar                   = Kind("ambiguous-grammar")
	KindEquivalentProductions               = Kind("equivalent-productions")
	KindDuplicateNonTerminalType            = Kind("duplicate-non-terminal-type")
	KindUnexpectedProductionAttributeCombo  = Kind("unexpected-production-attribute-combination")
	KindUserActionNotFound                  = Kind("user-action-not-found")
	KindTerminalCountOverflow               = Kind("terminal-count-overflow")
)

// SpecError is the single structured error type every core package
// boundary returns. Only the fields relevant to Kind are populated.
type SpecError struct {
	Kind  Kind
	Cause error

	NonTerminal string
	K           int
	ProductionA int
	ProductionB int
}

func (e *SpecError) Error() string {
	switch e.Kind {
	case KindAmbiguousGrammar:
		return fmt.Sprintf("%s: non-terminal %q is ambiguous even at k=%d", e.Kind, e.NonTerminal, e.K)
	case KindEquivalentProductions:
		return fmt.Sprintf("%s: productions %d and %d are structurally identical", e.Kind, e.ProductionA, e.ProductionB)
	case KindDuplicateNonTerminalType:
		return fmt.Sprintf("%s: non-terminal %q was registered twice", e.Kind, e.NonTerminal)
	case KindUnexpectedProductionAttributeCombo:
		return fmt.Sprintf("%s: non-terminal %q has an unpaired production attribute combination", e.Kind, e.NonTerminal)
	case KindUserActionNotFound:
		return fmt.Sprintf("%s: no user action was registered for %q", e.Kind, e.NonTerminal)
	case KindTerminalCountOverflow:
		return fmt.Sprintf("%s: %v", e.Kind, e.Cause)
	case KindGrammarEmpty:
		return fmt.Sprintf("%s: %v", e.Kind, e.Cause)
	default:
		if e.Cause != nil {
			return fmt.Sprintf("%s: %v", e.Kind, e.Cause)
		}
		return string(e.Kind)
	}
}

func (e *SpecError) Unwrap() error {
	return e.Cause
}

// SpecErrors is a non-empty batch of SpecError, returned when a caller
// collects more than one failure before bubbling up (e.g. cmd/parsegen
// analyze gathering one lookahead.Build failure per non-terminal).
type SpecErrors []*SpecError

func (es SpecErrors) Error() string {
	if len(es) == 1 {
		return es[0].Error()
	}
	s := fmt.Sprintf("%d errors:", len(es))
	for _, e := range es {
		s += "\n  " + e.Error()
	}
	return s
}

func GrammarEmpty(cause error) *SpecError {
	return &SpecError{Kind: KindGrammarEmpty, Cause: cause}
}

func AmbiguousGrammar(nonTerminal string, kTried int) *SpecError {
	return &SpecError{Kind: KindAmbiguousGrammar, NonTerminal: nonTerminal, K: kTried}
}

func EquivalentProductions(i, j int) *SpecError {
	return &SpecError{Kind: KindEquivalentProductions, ProductionA: i, ProductionB: j}
}

func DuplicateNonTerminalType(nonTerminal string) *SpecError {
	return &SpecError{Kind: KindDuplicateNonTerminalType, NonTerminal: nonTerminal}
}

func UnexpectedProductionAttributeCombination(nonTerminal string) *SpecError {
	return &SpecError{Kind: KindUnexpectedProductionAttributeCombo, NonTerminal: nonTerminal}
}

func UserActionNotFound(nonTerminal string) *SpecError {
	return &SpecError{Kind: KindUserActionNotFound, NonTerminal: nonTerminal}
}

func TerminalCountOverflow(cause error) *SpecError {
	return &SpecError{Kind: KindTerminalCountOverflow, Cause: cause}
}
