package typematch

import "strings"

// IssueSeverity represents the severity of a reported issue.
type IssueSeverity string

const (
	// SeverityFatal indicates the descriptor itself is unusable.
	SeverityFatal IssueSeverity = "fatal"
	// SeverityError indicates a value did not conform to its descriptor.
	SeverityError IssueSeverity = "error"
	// SeverityWarning indicates a check was skipped or degraded.
	SeverityWarning IssueSeverity = "warning"
	// SeverityInformation indicates informational feedback.
	SeverityInformation IssueSeverity = "information"
)

// IssueType represents the type of issue.
type IssueType string

const (
	// IssueTypeMismatch indicates a structural mismatch between value and descriptor.
	IssueTypeMismatch IssueType = "mismatch"
	// IssueTypeMalformed indicates an invalid descriptor.
	IssueTypeMalformed IssueType = "malformed"
	// IssueTypeUnresolved indicates a forward reference that could not be resolved.
	IssueTypeUnresolved IssueType = "unresolved"
	// IssueTypeUnchecked indicates a descriptor that cannot be checked at runtime.
	IssueTypeUnchecked IssueType = "unchecked"
	// IssueTypeProcessing indicates a failure outside the matching engine.
	IssueTypeProcessing IssueType = "processing"
	// IssueTypeTimeout indicates a check was cancelled.
	IssueTypeTimeout IssueType = "timeout"
)

// Issue represents a single diagnostic produced while checking a value.
type Issue struct {
	// Severity of the issue (error, warning, information)
	Severity IssueSeverity `json:"severity"`

	// Code identifying the type of issue
	Code IssueType `json:"code"`

	// Diagnostics contains the rendered, human-readable message
	Diagnostics string `json:"diagnostics,omitempty"`

	// Path lists location segments from the innermost outwards,
	// e.g. ["item 2", "value of key 'a'"]
	Path []string `json:"path,omitempty"`

	// Descriptor is the display name of the descriptor being checked
	Descriptor string `json:"descriptor,omitempty"`
}

// IsError returns true if this is an error or fatal issue.
func (i Issue) IsError() bool {
	return i.Severity == SeverityError || i.Severity == SeverityFatal
}

// IsWarning returns true if this is a warning.
func (i Issue) IsWarning() bool {
	return i.Severity == SeverityWarning
}

// Location returns the path segments joined outward with " of ".
func (i Issue) Location() string {
	return strings.Join(i.Path, " of ")
}

// String returns a human-readable representation of the issue.
func (i Issue) String() string {
	s := string(i.Severity) + ": " + i.Diagnostics
	if i.Descriptor != "" {
		s += " (" + i.Descriptor + ")"
	}
	return s
}

// IssueBuilder provides a fluent API for building issues.
type IssueBuilder struct {
	issue Issue
}

// NewIssue creates a new IssueBuilder.
func NewIssue(severity IssueSeverity, code IssueType) *IssueBuilder {
	return &IssueBuilder{
		issue: Issue{
			Severity: severity,
			Code:     code,
		},
	}
}

// Error creates an error issue.
func Error(code IssueType) *IssueBuilder {
	return NewIssue(SeverityError, code)
}

// Warning creates a warning issue.
func Warning(code IssueType) *IssueBuilder {
	return NewIssue(SeverityWarning, code)
}

// Info creates an informational issue.
func Info(code IssueType) *IssueBuilder {
	return NewIssue(SeverityInformation, code)
}

// Diagnostics sets the diagnostic message.
func (b *IssueBuilder) Diagnostics(msg string) *IssueBuilder {
	b.issue.Diagnostics = msg
	return b
}

// At sets the location path, innermost segment first.
func (b *IssueBuilder) At(path ...string) *IssueBuilder {
	b.issue.Path = path
	return b
}

// Descriptor sets the descriptor name.
func (b *IssueBuilder) Descriptor(name string) *IssueBuilder {
	b.issue.Descriptor = name
	return b
}

// Build returns the constructed issue.
func (b *IssueBuilder) Build() Issue {
	return b.issue
}
