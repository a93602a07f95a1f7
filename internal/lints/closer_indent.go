package lints

import (
	"fmt"
	"go/token"
	"sort"
	"strings"

	"github.com/furlinter/furlint/internal/bracket"
	"github.com/furlinter/furlint/internal/tokenize"
	tt "github.com/furlinter/furlint/internal/types"
)

// CodeFUR901 identifies the closer-only line alignment rule.
const CodeFUR901 = "FUR901"

const closerIndentCategory = "indentation"

// Violation is a raw finding of a token-level check. Column is 0-based.
type Violation struct {
	Line    int
	Column  int
	Message string

	// Expected is the continuation indent column the closer should use and
	// Indent the whitespace an inner line uses to reach it.
	Expected int
	Indent   string
}

// CheckCloserIndent reports every closer-only line whose closer is not
// aligned with the continuation indent of its bracket.
//
// It never fails: a panic while analysing the source yields no findings.
func CheckCloserIndent(src string) (violations []Violation) {
	defer func() {
		if r := recover(); r != nil {
			violations = nil
		}
	}()
	return EvaluateCloserIndent(bracket.Build(tokenize.Tokenize(src)), tokenize.SplitLines(src))
}

// EvaluateCloserIndent runs the FUR901 rule over completed bracket contexts.
// Violations follow the order of contexts.
func EvaluateCloserIndent(contexts []bracket.Context, lines []string) []Violation {
	var violations []Violation
	for _, ctx := range contexts {
		if !ctx.Closed || !ctx.Multiline() {
			continue
		}
		if ctx.ElementAndCloserSameLine || !closerOnlyLine(lines, ctx) {
			continue
		}

		expected := continuationColumn(ctx.InnerFirstColumns)
		if ctx.Closer.Column == expected {
			continue
		}
		violations = append(violations, Violation{
			Line:     ctx.Closer.Line,
			Column:   ctx.Closer.Column,
			Message:  closerIndentMessage(expected, ctx.Closer.Column),
			Expected: expected,
			Indent:   continuationIndent(lines, ctx, expected),
		})
	}
	return violations
}

// DetectCloserIndent converts FUR901 violations of src into issues for filename.
func DetectCloserIndent(
	filename string,
	src []byte,
	tokens []tokenize.Token,
	severity tt.Severity,
) ([]tt.Issue, error) {
	lines := tokenize.SplitLines(string(src))
	violations := EvaluateCloserIndent(bracket.Build(tokens), lines)

	issues := make([]tt.Issue, 0, len(violations))
	for _, v := range violations {
		line := lineAt(lines, v.Line)
		issue := tt.Issue{
			Rule:       CodeFUR901,
			Category:   closerIndentCategory,
			Filename:   filename,
			Message:    strings.TrimPrefix(v.Message, CodeFUR901+" "),
			Suggestion: v.Indent + strings.TrimLeft(line, " \t"),
			Note:       fmt.Sprintf("inner lines of this bracket start at column %d", v.Expected),
			Severity:   severity,
			Start:      token.Position{Filename: filename, Line: v.Line, Column: v.Column + 1},
			End:        token.Position{Filename: filename, Line: v.Line, Column: v.Column + 1},
		}
		issues = append(issues, issue)
	}
	return issues, nil
}

func closerIndentMessage(expected, found int) string {
	return fmt.Sprintf("%s closer-only line must align with continuation indent (expected col %d, found col %d)",
		CodeFUR901, expected, found)
}

// continuationColumn returns the most common inner first column. Ties go
// to the smallest column.
func continuationColumn(firstColumns map[int]int) int {
	counts := make(map[int]int, len(firstColumns))
	for _, col := range firstColumns {
		counts[col]++
	}

	best, bestCount := 0, 0
	for col, n := range counts {
		if n > bestCount || (n == bestCount && col < best) {
			best, bestCount = col, n
		}
	}
	return best
}

// closerOnlyLine reports whether only spaces and tabs precede the closer
// on its line.
func closerOnlyLine(lines []string, ctx bracket.Context) bool {
	if ctx.Closer.Line < 1 || ctx.Closer.Line > len(lines) {
		return false
	}
	prefix := []rune(lines[ctx.Closer.Line-1])
	if ctx.Closer.Column < len(prefix) {
		prefix = prefix[:ctx.Closer.Column]
	}
	for _, r := range prefix {
		if r != ' ' && r != '\t' {
			return false
		}
	}
	return true
}

// continuationIndent returns the leading whitespace of the first inner line
// that starts at column, falling back to spaces.
func continuationIndent(lines []string, ctx bracket.Context, column int) string {
	lineNums := make([]int, 0, len(ctx.InnerFirstColumns))
	for n, col := range ctx.InnerFirstColumns {
		if col == column {
			lineNums = append(lineNums, n)
		}
	}
	sort.Ints(lineNums)

	for _, n := range lineNums {
		runes := []rune(lineAt(lines, n))
		if column > len(runes) {
			continue
		}
		indent := string(runes[:column])
		if strings.Trim(indent, " \t") == "" {
			return indent
		}
	}
	return strings.Repeat(" ", column)
}

func lineAt(lines []string, n int) string {
	if n < 1 || n > len(lines) {
		return ""
	}
	return lines[n-1]
}
