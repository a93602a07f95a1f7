package internal

import (
	"github.com/furlinter/furlint/internal/lints"
	"github.com/furlinter/furlint/internal/tokenize"
	tt "github.com/furlinter/furlint/internal/types"
)

/*
* Implement each lint rule as a separate struct
 */

// LintRule defines the interface for all lint rules.
type LintRule interface {
	// Check runs the lint rule on the given source and returns a slice of Issues.
	Check(filename string, src []byte, tokens []tokenize.Token) ([]tt.Issue, error)

	// Name returns the code of the lint rule.
	Name() string

	// Severity returns the severity attached to the rule's issues.
	Severity() tt.Severity

	// SetSeverity changes the severity attached to the rule's issues.
	SetSeverity(tt.Severity)
}

// CloserIndentRule checks that a closer-only line lines up with the
// continuation indent of its bracket.
type CloserIndentRule struct {
	severity tt.Severity
}

func NewCloserIndentRule() LintRule {
	return &CloserIndentRule{severity: tt.SeverityError}
}

func (r *CloserIndentRule) Check(filename string, src []byte, tokens []tokenize.Token) ([]tt.Issue, error) {
	return lints.DetectCloserIndent(filename, src, tokens, r.severity)
}

func (r *CloserIndentRule) Name() string {
	return lints.CodeFUR901
}

func (r *CloserIndentRule) Severity() tt.Severity {
	return r.severity
}

func (r *CloserIndentRule) SetSeverity(severity tt.Severity) {
	r.severity = severity
}
