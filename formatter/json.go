package formatter

import (
	"encoding/json"
	"fmt"
	"io"

	tt "github.com/furlinter/furlint/internal/types"
)

type jsonPosition struct {
	Line   int `json:"line"`
	Column int `json:"column"`
}

type jsonIssue struct {
	Rule       string       `json:"rule"`
	Category   string       `json:"category"`
	Severity   string       `json:"severity"`
	Message    string       `json:"message"`
	Suggestion string       `json:"suggestion,omitempty"`
	Note       string       `json:"note,omitempty"`
	Start      jsonPosition `json:"start"`
	End        jsonPosition `json:"end"`
}

// WriteJSON writes issues grouped by filename as an indented JSON object.
func WriteJSON(w io.Writer, issues []tt.Issue) error {
	issuesByFile := make(map[string][]jsonIssue)
	for _, issue := range issues {
		issuesByFile[issue.Filename] = append(issuesByFile[issue.Filename], jsonIssue{
			Rule:       issue.Rule,
			Category:   issue.Category,
			Severity:   issue.Severity.String(),
			Message:    issue.Message,
			Suggestion: issue.Suggestion,
			Note:       issue.Note,
			Start:      jsonPosition{Line: issue.Start.Line, Column: issue.Start.Column},
			End:        jsonPosition{Line: issue.End.Line, Column: issue.End.Column},
		})
	}

	encoder := json.NewEncoder(w)
	encoder.SetIndent("", "  ")
	if err := encoder.Encode(issuesByFile); err != nil {
		return fmt.Errorf("error marshalling issues to JSON: %w", err)
	}
	return nil
}
