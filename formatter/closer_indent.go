package formatter

import (
	"strings"
)

// CloserIndentFormatter renders FUR901 issues. The snippet keeps its
// indentation and a marker shows where the closer belongs.
type CloserIndentFormatter struct{}

func (f *CloserIndentFormatter) IssueTemplate() string {
	return `{{header .Rule .Severity .MaxLineNumWidth .Filename .StartLine .StartColumn}}
{{- snippet .SnippetLines .StartLine .EndLine .MaxLineNumWidth "" .Padding}}
{{- alignment .Message .Padding .StartLine .StartColumn .SnippetLines .Suggestion}}
{{- if .Suggestion }}{{suggestion .Suggestion .Padding .MaxLineNumWidth .StartLine}}{{ end }}
{{- if .Note }}{{note .Note}}{{ end }}
`
}

// alignmentAndMessage marks the closer with '~' and the continuation
// column taken from the suggested line with '^'.
func alignmentAndMessage(message string, padding string, line int, column int, snippetLines []string, suggested string) string {
	if line < 1 || line > len(snippetLines) {
		return lineStyle.Sprintf("%s| ", padding) + messageStyle.Sprintf("%s\n", message)
	}

	found := calculateVisualColumn(snippetLines[line-1], column)
	indent := suggested[:len(suggested)-len(strings.TrimLeft(suggested, " \t"))]
	expected := calculateVisualColumn(indent, len([]rune(indent))+1)

	var marks string
	switch {
	case suggested == "" || expected == found:
		marks = strings.Repeat(" ", found) + messageStyle.Sprint("~")
	case expected < found:
		marks = strings.Repeat(" ", expected) + expectedStyle.Sprint("^") +
			strings.Repeat(" ", found-expected-1) + messageStyle.Sprint("~")
	default:
		marks = strings.Repeat(" ", found) + messageStyle.Sprint("~") +
			strings.Repeat(" ", expected-found-1) + expectedStyle.Sprint("^")
	}

	endString := lineStyle.Sprintf("%s| ", padding) + marks + "\n"
	endString += lineStyle.Sprintf("%s= ", padding)
	endString += messageStyle.Sprintf("%s\n", message)
	return endString
}
