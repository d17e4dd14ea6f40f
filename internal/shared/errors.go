package shared

import (
	"errors"
	"fmt"
)

var (
	// ErrNotFound indicates a referenced quotation, version or configuration is absent.
	ErrNotFound = errors.New("not found")
	// ErrConflict indicates a concurrent writer won a version race; callers may retry once.
	ErrConflict = errors.New("version conflict")
	// ErrForbidden indicates the actor lacks the role required for an operation.
	ErrForbidden = errors.New("forbidden")
)

// ValidationError reports malformed or out-of-range input. Nothing is persisted.
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("validation failed on %s: %s", e.Field, e.Reason)
}

// ConfigurationError reports a misconfigured pricing engine. Fatal to the calculation.
type ConfigurationError struct {
	Setting string
	Reason  string
}

func (e *ConfigurationError) Error() string {
	return fmt.Sprintf("engine misconfigured: %s %s", e.Setting, e.Reason)
}

// CalculationError reports an intermediate value violating a domain invariant,
// such as a negative price. Surfaced instead of clamping.
type CalculationError struct {
	Step  string
	Value float64
}

func (e *CalculationError) Error() string {
	return fmt.Sprintf("calculation produced invalid %s: %g", e.Step, e.Value)
}

// InvalidStateError reports a workflow transition or edit attempted from a
// state that does not allow it.
type InvalidStateError struct {
	Current string
	Action  string
}

func (e *InvalidStateError) Error() string {
	return fmt.Sprintf("cannot %s a quotation in state %s", e.Action, e.Current)
}
