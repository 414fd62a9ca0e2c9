package diagnostic

import (
	"cmp"
	"errors"
	"fmt"
	"slices"
	"strings"

	"projection-generator/internal/common"
)

// Code identifies a kind of diagnostic.
type Code string

const (
	CodeUnsupportedSelectorShape    Code = "unsupported_selector_shape"
	CodeNullSafetyRewriteFailure    Code = "null_safety_rewrite_failure"
	CodeAmbiguousMemberTypeConflict Code = "ambiguous_member_type_conflict"
	CodeNamingCollision             Code = "naming_collision"
	CodeUnresolvedNestedReference   Code = "unresolved_nested_reference"
	CodeUnresolvedMember            Code = "unresolved_member"
	CodeMissingTargetMember         Code = "missing_target_member"
	CodeInvalidCallSite             Code = "invalid_call_site"
	CodeInvalidExpressionTree       Code = "invalid_expression_tree"
	CodeInvalidConfig               Code = "invalid_config"
	CodeLoadProblem                 Code = "load_problem"
)

// Location is a position in a source file. Line and Column are 1-based;
// the zero value means "unknown".
type Location struct {
	File   string `json:"file,omitempty"`
	Line   int    `json:"line,omitempty"`
	Column int    `json:"column,omitempty"`
	Offset int    `json:"offset,omitempty"`
}

// IsValid reports whether the location carries a file.
func (l Location) IsValid() bool {
	return l.File != ""
}

// String returns file:line:column.
func (l Location) String() string {
	if !l.IsValid() {
		return "-"
	}

	if l.Line == 0 {
		return l.File
	}

	return fmt.Sprintf("%s:%d:%d", l.File, l.Line, l.Column)
}

// Compare orders locations by file, line, column.
func (l Location) Compare(o Location) int {
	return cmp.Or(
		cmp.Compare(l.File, o.File),
		cmp.Compare(l.Line, o.Line),
		cmp.Compare(l.Column, o.Column),
	)
}

// Diagnostics holds all diagnostic information from one generator pass.
type Diagnostics struct {
	Errors   []Diagnostic
	Warnings []Diagnostic
	Infos    []Diagnostic
}

// Diagnostic represents a single diagnostic message.
type Diagnostic struct {
	// Severity of the diagnostic.
	Severity DiagnosticSeverity `json:"severity"`
	// Code is a unique identifier for this type of diagnostic.
	Code Code `json:"code"`
	// Message is the human-readable description.
	Message string `json:"message"`
	// Location is where the problem is reported.
	Location Location `json:"location"`
	// CallSite identifies the call site this relates to (if any).
	CallSite string `json:"call_site,omitempty"`
	// FieldPath identifies which output property this relates to (if any).
	FieldPath string `json:"field_path,omitempty"`
	// Suggestions are potential fixes or alternatives.
	Suggestions []string `json:"suggestions,omitempty"`
}

// DiagnosticSeverity represents the severity level of a diagnostic.
type DiagnosticSeverity int

const (
	DiagnosticInfo DiagnosticSeverity = iota
	DiagnosticWarning
	DiagnosticError
)

// String returns a human-readable severity name.
func (s DiagnosticSeverity) String() string {
	switch s {
	case DiagnosticInfo:
		return "info"
	case DiagnosticWarning:
		return "warning"
	case DiagnosticError:
		return "error"
	default:
		return common.UnknownStr
	}
}

// MarshalText implements encoding.TextMarshaler.
func (s DiagnosticSeverity) MarshalText() ([]byte, error) {
	return []byte(s.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (s *DiagnosticSeverity) UnmarshalText(b []byte) error {
	switch string(b) {
	case "info":
		*s = DiagnosticInfo
	case "warning":
		*s = DiagnosticWarning
	case "error":
		*s = DiagnosticError
	default:
		return fmt.Errorf("unknown severity %q", b)
	}

	return nil
}

// Add appends d to the list matching its severity.
func (d *Diagnostics) Add(diag Diagnostic) {
	switch diag.Severity {
	case DiagnosticError:
		d.Errors = append(d.Errors, diag)
	case DiagnosticWarning:
		d.Warnings = append(d.Warnings, diag)
	default:
		d.Infos = append(d.Infos, diag)
	}
}

// AddError adds an error diagnostic.
func (d *Diagnostics) AddError(code Code, message string, loc Location, callSite, fieldPath string) {
	d.Add(Diagnostic{
		Severity:  DiagnosticError,
		Code:      code,
		Message:   message,
		Location:  loc,
		CallSite:  callSite,
		FieldPath: fieldPath,
	})
}

// AddWarning adds a warning diagnostic.
func (d *Diagnostics) AddWarning(code Code, message string, loc Location, callSite, fieldPath string) {
	d.Add(Diagnostic{
		Severity:  DiagnosticWarning,
		Code:      code,
		Message:   message,
		Location:  loc,
		CallSite:  callSite,
		FieldPath: fieldPath,
	})
}

// AddInfo adds an info diagnostic.
func (d *Diagnostics) AddInfo(code Code, message string, loc Location, callSite, fieldPath string) {
	d.Add(Diagnostic{
		Severity:  DiagnosticInfo,
		Code:      code,
		Message:   message,
		Location:  loc,
		CallSite:  callSite,
		FieldPath: fieldPath,
	})
}

// HasErrors returns true if there are any error diagnostics.
func (d *Diagnostics) HasErrors() bool {
	return len(d.Errors) > 0
}

// Merge merges another Diagnostics instance into this one.
func (d *Diagnostics) Merge(other Diagnostics) {
	d.Errors = append(d.Errors, other.Errors...)
	d.Warnings = append(d.Warnings, other.Warnings...)
	d.Infos = append(d.Infos, other.Infos...)
}

// IsValid returns true if there are no errors.
func (d *Diagnostics) IsValid() bool {
	return len(d.Errors) == 0
}

// Len returns the total number of diagnostics.
func (d *Diagnostics) Len() int {
	return len(d.Errors) + len(d.Warnings) + len(d.Infos)
}

// All returns every diagnostic, errors first, each group in location order.
func (d *Diagnostics) All() []Diagnostic {
	out := make([]Diagnostic, 0, d.Len())
	for _, group := range [][]Diagnostic{d.Errors, d.Warnings, d.Infos} {
		sorted := slices.Clone(group)
		slices.SortStableFunc(sorted, func(a, b Diagnostic) int {
			return cmp.Or(a.Location.Compare(b.Location), cmp.Compare(a.CallSite, b.CallSite))
		})
		out = append(out, sorted...)
	}

	return out
}

// ByCode returns the diagnostics with the given code in All order.
func (d *Diagnostics) ByCode(code Code) []Diagnostic {
	var out []Diagnostic
	for _, diag := range d.All() {
		if diag.Code == code {
			out = append(out, diag)
		}
	}

	return out
}

// Error returns a combined error from all error diagnostics, or nil if valid.
func (d *Diagnostics) Error() error {
	if d.IsValid() {
		return nil
	}

	var parts []string
	for _, e := range d.Errors {
		parts = append(parts, e.String())
	}

	return errors.New(strings.Join(parts, "; "))
}

// String returns a formatted diagnostic string.
func (d Diagnostic) String() string {
	var prefix []string
	if d.Location.IsValid() {
		prefix = append(prefix, d.Location.String())
	}

	if d.FieldPath != "" {
		prefix = append(prefix, d.FieldPath)
	}

	msg := d.Message
	if d.Code != "" {
		msg = fmt.Sprintf("[%s] %s", d.Code, msg)
	}

	if len(d.Suggestions) > 0 {
		msg += " (did you mean " + strings.Join(d.Suggestions, ", ") + "?)"
	}

	if len(prefix) > 0 {
		return strings.Join(prefix, " ") + ": " + msg
	}

	return msg
}
