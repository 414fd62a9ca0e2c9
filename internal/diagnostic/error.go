package diagnostic

import (
	"errors"
	"fmt"
)

// Error is a domain failure raised by a pipeline component. The orchestrator
// turns it into a Diagnostic for the call site being analyzed.
type Error struct {
	Severity    DiagnosticSeverity
	Code        Code
	Message     string
	Location    Location
	FieldPath   string
	Suggestions []string
}

// Errorf returns an error-severity *Error.
func Errorf(code Code, format string, args ...any) *Error {
	return &Error{
		Severity: DiagnosticError,
		Code:     code,
		Message:  fmt.Sprintf(format, args...),
	}
}

func (e *Error) Error() string {
	if e.FieldPath != "" {
		return fmt.Sprintf("%s: [%s] %s", e.FieldPath, e.Code, e.Message)
	}

	return fmt.Sprintf("[%s] %s", e.Code, e.Message)
}

// At sets the reported location.
func (e *Error) At(loc Location) *Error {
	e.Location = loc
	return e
}

// In sets the field path unless one is already present.
func (e *Error) In(fieldPath string) *Error {
	if e.FieldPath == "" {
		e.FieldPath = fieldPath
	}

	return e
}

// Under prefixes the field path with parent, so that errors raised inside a
// nested construction read "Items.Product.Name".
func (e *Error) Under(parent string) *Error {
	if e.FieldPath == "" {
		e.FieldPath = parent
	} else {
		e.FieldPath = parent + "." + e.FieldPath
	}

	return e
}

// WithSuggestions attaches "did you mean" candidates.
func (e *Error) WithSuggestions(s ...string) *Error {
	e.Suggestions = s
	return e
}

// Diagnostic converts e for the given call site. A location already set on e
// (such as a field declaration) wins over the fallback.
func (e *Error) Diagnostic(callSite string, fallback Location) Diagnostic {
	loc := e.Location
	if !loc.IsValid() {
		loc = fallback
	}

	return Diagnostic{
		Severity:    e.Severity,
		Code:        e.Code,
		Message:     e.Message,
		Location:    loc,
		CallSite:    callSite,
		FieldPath:   e.FieldPath,
		Suggestions: e.Suggestions,
	}
}

// As extracts an *Error from err's chain.
func As(err error) (*Error, bool) {
	var de *Error
	if errors.As(err, &de) {
		return de, true
	}

	return nil, false
}
