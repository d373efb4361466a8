package validation

import "fmt"

// Phase identifies which validation pass produced an issue.
type Phase string

// Validation phases. PhaseServiceConfig is reserved for issues raised by a
// service registration's own Validate hook during composition.
const (
	PhaseSyntax        Phase = "syntax"
	PhaseSemantic      Phase = "semantic"
	PhaseRuntime       Phase = "runtime"
	PhaseServiceConfig Phase = "service-config"
)

// Severity of a single issue.
type Severity string

// Severity levels.
const (
	SeverityError   Severity = "error"
	SeverityWarning Severity = "warning"
)

// Mode selects which phases an orchestrated run executes.
type Mode int

// Validation modes.
const (
	// SyntaxOnly runs only the pure per-block checks.
	SyntaxOnly Mode = iota
	// Default runs Syntax and Semantic.
	Default
	// Full additionally runs the live Runtime phase.
	Full
)

// Issue is a single finding. Location is a dotted path such as
// "service.wfs.max_features", or file line/col where no path exists.
type Issue struct {
	Phase      Phase
	Severity   Severity
	Location   string
	Message    string
	Suggestion string
}

// String renders the issue in the diffable one-line form the CLI prints.
func (i Issue) String() string {
	s := fmt.Sprintf("%s: [%s] %s: %s", i.Severity, i.Phase, i.Location, i.Message)
	if i.Suggestion != "" {
		s += " (" + i.Suggestion + ")"
	}
	return s
}

// Result is an ordered collection of errors and warnings.
type Result struct {
	Errors   []Issue
	Warnings []Issue
}

// NewResult returns an empty result.
func NewResult() *Result {
	return &Result{}
}

// Valid reports whether the result contains no errors. Warnings never make a
// configuration invalid.
func (r *Result) Valid() bool {
	return len(r.Errors) == 0
}

// AddError appends an error issue.
func (r *Result) AddError(phase Phase, location, message string) {
	r.Errors = append(r.Errors, Issue{Phase: phase, Severity: SeverityError, Location: location, Message: message})
}

// AddErrorf appends an error issue with a formatted message.
func (r *Result) AddErrorf(phase Phase, location, format string, args ...any) {
	r.AddError(phase, location, fmt.Sprintf(format, args...))
}

// AddErrorWithSuggestion appends an error issue carrying a suggestion.
func (r *Result) AddErrorWithSuggestion(phase Phase, location, message, suggestion string) {
	r.Errors = append(r.Errors, Issue{
		Phase: phase, Severity: SeverityError,
		Location: location, Message: message, Suggestion: suggestion,
	})
}

// AddWarning appends a warning issue.
func (r *Result) AddWarning(phase Phase, location, message string) {
	r.Warnings = append(r.Warnings, Issue{Phase: phase, Severity: SeverityWarning, Location: location, Message: message})
}

// AddWarningWithSuggestion appends a warning issue carrying a suggestion.
func (r *Result) AddWarningWithSuggestion(phase Phase, location, message, suggestion string) {
	r.Warnings = append(r.Warnings, Issue{
		Phase: phase, Severity: SeverityWarning,
		Location: location, Message: message, Suggestion: suggestion,
	})
}

// Merge appends all issues from other, preserving order.
func (r *Result) Merge(other *Result) {
	if other == nil {
		return
	}
	r.Errors = append(r.Errors, other.Errors...)
	r.Warnings = append(r.Warnings, other.Warnings...)
}

// Issues returns errors followed by warnings.
func (r *Result) Issues() []Issue {
	out := make([]Issue, 0, len(r.Errors)+len(r.Warnings))
	out = append(out, r.Errors...)
	out = append(out, r.Warnings...)
	return out
}
