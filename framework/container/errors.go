package container

import (
	"errors"
	"strconv"
	"strings"

	"github.com/km-arc/go-inject/framework/types"
)

var (
	// ErrDuplicatePrimary is returned when two providers claim primary for the same scope.
	ErrDuplicatePrimary = errors.New("container: duplicate primary provider")

	// ErrDuplicateQualifier is returned when two providers share a qualifier within one Bean.
	ErrDuplicateQualifier = errors.New("container: duplicate qualifier")

	// ErrAmbiguousResolution is returned when a conflict resolver cannot pick one candidate.
	ErrAmbiguousResolution = errors.New("container: ambiguous resolution")

	// ErrNotFound is returned by mandatory lookups when nothing satisfies the query.
	ErrNotFound = errors.New("container: no provider found")

	// ErrInvalidQuery is returned when a query names a Bean or Provider type instead of a target type.
	ErrInvalidQuery = errors.New("container: invalid query")

	// ErrNilProvider is returned when a nil provider is registered.
	ErrNilProvider = errors.New("container: nil provider")

	// ErrWrongType is returned by the generic helpers when an instance has an unexpected Go type.
	ErrWrongType = errors.New("container: wrong instance type")
)

// Scope names used in DuplicatePrimaryError.
const scopeBean = "bean"

// DuplicatePrimaryError names both providers competing for one primary slot.
// Scope is "bean" for the whole Bean or "partition <type>" for a typed partition.
type DuplicatePrimaryError struct {
	Type     types.TypeIdentifier
	Scope    string
	Existing string
	Incoming string
}

// Error implements the error interface.
func (e *DuplicatePrimaryError) Error() string {
	// Example: container: duplicate primary provider for "Box" (partition Box[A]): existing "p1", incoming "p2"
	return ErrDuplicatePrimary.Error() + " for " + strconv.Quote(e.Type.Key()) +
		" (" + e.Scope + "): existing " + strconv.Quote(e.Existing) +
		", incoming " + strconv.Quote(e.Incoming)
}

// Unwrap lets errors.Is match ErrDuplicatePrimary.
func (e *DuplicatePrimaryError) Unwrap() error { return ErrDuplicatePrimary }

// DuplicateQualifierError names the qualifier and both providers registered under it.
type DuplicateQualifierError struct {
	Type      types.TypeIdentifier
	Qualifier types.QualifierType
	Existing  string
	Incoming  string
}

// Error implements the error interface.
func (e *DuplicateQualifierError) Error() string {
	return ErrDuplicateQualifier.Error() + " " + e.Qualifier.String() + " for " + strconv.Quote(e.Type.Key()) +
		": existing " + strconv.Quote(e.Existing) + ", incoming " + strconv.Quote(e.Incoming)
}

// Unwrap lets errors.Is match ErrDuplicateQualifier.
func (e *DuplicateQualifierError) Unwrap() error { return ErrDuplicateQualifier }

// AmbiguousResolutionError enumerates every candidate a resolver was given.
type AmbiguousResolutionError struct {
	Resolver   string
	Expected   types.TypeIdentifier
	Candidates []string
	Matched    int
}

// Total is the number of candidates handed to the resolver.
func (e *AmbiguousResolutionError) Total() int { return len(e.Candidates) }

// Error implements the error interface.
func (e *AmbiguousResolutionError) Error() string {
	var b strings.Builder
	b.WriteString(ErrAmbiguousResolution.Error())
	b.WriteString(" of ")
	b.WriteString(strconv.Quote(e.Expected.Key()))
	b.WriteString(" by resolver ")
	b.WriteString(strconv.Quote(e.Resolver))
	b.WriteString(": ")
	b.WriteString(strconv.Itoa(e.Matched))
	b.WriteString(" matched of ")
	b.WriteString(strconv.Itoa(len(e.Candidates)))
	b.WriteString(" candidates")
	for _, c := range e.Candidates {
		b.WriteString("\n  - ")
		b.WriteString(c)
	}
	return b.String()
}

// Unwrap lets errors.Is match ErrAmbiguousResolution.
func (e *AmbiguousResolutionError) Unwrap() error { return ErrAmbiguousResolution }

// NotFoundError is returned by mandatory lookups.
type NotFoundError struct {
	Type      types.TypeIdentifier
	Qualifier types.QualifierType
}

// Error implements the error interface.
func (e *NotFoundError) Error() string {
	msg := ErrNotFound.Error() + " for " + strconv.Quote(e.Type.Key())
	if !e.Qualifier.IsZero() {
		msg += " " + e.Qualifier.String()
	}
	return msg
}

// Unwrap lets errors.Is match ErrNotFound.
func (e *NotFoundError) Unwrap() error { return ErrNotFound }

// InvalidQueryError is returned when a reference type is used as a query.
type InvalidQueryError struct{ Type types.TypeIdentifier }

// Error implements the error interface.
func (e *InvalidQueryError) Error() string {
	return ErrInvalidQuery.Error() + ": " + strconv.Quote(e.Type.Key()) + " is a reference type, query the target type instead"
}

// Unwrap lets errors.Is match ErrInvalidQuery.
func (e *InvalidQueryError) Unwrap() error { return ErrInvalidQuery }

// ConditionError wraps an error returned by a provider's condition during Load.
type ConditionError struct {
	Provider string
	Err      error
}

// Error implements the error interface.
func (e *ConditionError) Error() string {
	return "container: condition of " + strconv.Quote(e.Provider) + " failed: " + e.Err.Error()
}

// Unwrap returns the condition's own error unchanged.
func (e *ConditionError) Unwrap() error { return e.Err }

// WrongTypeError is returned when a resolved instance is not of the requested Go type.
type WrongTypeError struct {
	Type types.TypeIdentifier
	// Got is the dynamic type of the instance, as printed by %T.
	Got string
}

// Error implements the error interface.
func (e *WrongTypeError) Error() string {
	return ErrWrongType.Error() + " for " + strconv.Quote(e.Type.Key()) + " (" + e.Got + ")"
}

// Unwrap lets errors.Is match ErrWrongType.
func (e *WrongTypeError) Unwrap() error { return ErrWrongType }
