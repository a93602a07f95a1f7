package nolint

import (
	"regexp"
	"strings"

	"github.com/furlinter/furlint/internal/tokenize"
)

var (
	// # noqa, # noqa: FUR901, # NOQA:FUR901,E501
	lineNoqa = regexp.MustCompile(`(?i)#\s*noqa(?::[\s]?(?P<codes>[A-Z]+[0-9]*(?:[,\s]+[A-Z]+[0-9]*)*))?`)
	// # flake8: noqa, # furlint: noqa
	fileNoqa = regexp.MustCompile(`(?i)#\s*(?:flake8|furlint)[:=]\s*noqa(?P<codes>:\s?[A-Z]+[0-9]*(?:[,\s]+[A-Z]+[0-9]*)*)?\s*$`)
)

// Manager manages noqa scopes and checks if a position is suppressed.
type Manager struct {
	// lines maps a physical line to the codes suppressed on it.
	// An empty set suppresses every code.
	lines map[int]map[string]struct{}
	// wholeFile is set by a file level "# flake8: noqa" comment.
	wholeFile bool
}

// ParseComments collects noqa comments from the token stream.
func ParseComments(tokens []tokenize.Token) *Manager {
	manager := Manager{
		lines: make(map[int]map[string]struct{}),
	}

	for _, tok := range tokens {
		if tok.Type != tokenize.COMMENT {
			continue
		}
		if m := fileNoqa.FindStringSubmatch(tok.Value); m != nil {
			// a file level comment with codes is ignored, as flake8 does
			if m[1] == "" {
				manager.wholeFile = true
			}
			continue
		}
		m := lineNoqa.FindStringSubmatch(tok.Value)
		if m == nil {
			continue
		}
		// a physical line holds at most one comment
		manager.lines[tok.Start.Line] = parseIgnoreRuleNames(m[1])
	}
	return &manager
}

// parseIgnoreRuleNames parses the code list of a noqa comment.
func parseIgnoreRuleNames(text string) map[string]struct{} {
	rulesMap := make(map[string]struct{})
	if text == "" {
		return rulesMap
	}
	fields := strings.FieldsFunc(text, func(r rune) bool {
		return r == ',' || r == ' ' || r == '\t'
	})
	for _, rule := range fields {
		rule = strings.ToUpper(strings.TrimSpace(rule))
		if rule != "" {
			rulesMap[rule] = struct{}{}
		}
	}
	return rulesMap
}

// IsNolint checks if a rule reported on the given line is suppressed.
// Codes in a noqa comment match by prefix, so "FUR" covers "FUR901".
func (m *Manager) IsNolint(line int, ruleName string) bool {
	if m == nil {
		return false
	}
	if m.wholeFile {
		return true
	}
	rules, exists := m.lines[line]
	if !exists {
		return false
	}
	if len(rules) == 0 {
		return true
	}
	for code := range rules {
		if strings.HasPrefix(ruleName, code) {
			return true
		}
	}
	return false
}
