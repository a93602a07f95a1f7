package internal

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"

	"github.com/furlinter/furlint/internal/nolint"
	"github.com/furlinter/furlint/internal/tokenize"
	"github.com/furlinter/furlint/internal/trie"
	tt "github.com/furlinter/furlint/internal/types"
)

// StdinFilename is the name given to issues found in source read from stdin.
const StdinFilename = "<stdin>"

var errUnknownRule = errors.New("unknown rule")

// Engine manages the linting process.
type Engine struct {
	rootDir      string
	ignoredRules *trie.Trie
	selected     *trie.Trie
	ignoredPaths []string
	rules        map[string]LintRule
	cache        *Cache
}

// NewEngine creates a new lint engine rooted at rootDir. Rules listed in
// the configuration get their severity from it; a severity of OFF
// disables the rule.
func NewEngine(rootDir string, rules map[string]tt.ConfigRule) (*Engine, error) {
	engine := &Engine{
		rootDir:      rootDir,
		ignoredRules: trie.New(),
		selected:     trie.New(),
	}
	if err := engine.applyRules(rules); err != nil {
		return nil, err
	}
	return engine, nil
}

// Define the ruleConstructor type
type ruleConstructor func() LintRule

// Define the ruleMap type
type ruleMap map[string]ruleConstructor

// Create a map to hold the mappings of rule codes to their constructors
var allRuleConstructors = ruleMap{
	"FUR901": NewCloserIndentRule,
}

// RuleNames returns the codes of every known rule, sorted.
func RuleNames() []string {
	names := make([]string, 0, len(allRuleConstructors))
	for name := range allRuleConstructors {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

func (e *Engine) applyRules(rules map[string]tt.ConfigRule) error {
	e.rules = make(map[string]LintRule)
	e.registerDefaultRules()

	// Iterate over the rules and apply severity
	for key, rule := range rules {
		if _, known := allRuleConstructors[key]; !known {
			return fmt.Errorf("%w: %s", errUnknownRule, key)
		}
		if rule.Severity == tt.SeverityOff {
			delete(e.rules, key)
			continue
		}
		r := e.findRule(key)
		if r == nil {
			r = allRuleConstructors[key]()
			e.rules[key] = r
		}
		r.SetSeverity(rule.Severity)
	}
	return nil
}

func (e *Engine) registerDefaultRules() {
	// iterate over allRuleConstructors and add them to the rules map if severity is not off
	for key, newRuleCstr := range allRuleConstructors {
		newRule := newRuleCstr()
		if newRule.Severity() != tt.SeverityOff {
			e.rules[key] = newRule
		}
	}
}

func (e *Engine) findRule(name string) LintRule {
	if rule, ok := e.rules[name]; ok {
		return rule
	}
	return nil
}

// Run applies all lint rules to the given file and returns a slice of Issues.
func (e *Engine) Run(filename string) ([]tt.Issue, error) {
	if e.IsIgnoredPath(filename) {
		return nil, nil
	}

	if e.cache != nil {
		if issues, ok := e.cache.Get(filename, e.fingerprint()); ok {
			return issues, nil
		}
	}

	src, err := os.ReadFile(filename)
	if err != nil {
		return nil, fmt.Errorf("error reading file: %w", err)
	}

	issues := e.runSource(filename, src)

	if e.cache != nil {
		if err := e.cache.Set(filename, e.fingerprint(), issues); err != nil {
			return issues, fmt.Errorf("error caching issues: %w", err)
		}
	}
	return issues, nil
}

// RunSource applies all lint rules to the given source and returns a slice of Issues.
func (e *Engine) RunSource(source []byte) ([]tt.Issue, error) {
	return e.runSource(StdinFilename, source), nil
}

func (e *Engine) runSource(filename string, src []byte) []tt.Issue {
	tokens := tokenize.Tokenize(string(src))
	nolintMgr := nolint.ParseComments(tokens)

	var wg sync.WaitGroup
	var mu sync.Mutex

	var allIssues []tt.Issue
	for _, rule := range e.rules {
		if !e.isReported(rule.Name()) {
			continue
		}
		wg.Add(1)
		go func(r LintRule) {
			defer wg.Done()
			issues, err := r.Check(filename, src, tokens)
			if err != nil {
				return
			}

			nolinted := filterNolintIssues(nolintMgr, issues)

			mu.Lock()
			allIssues = append(allIssues, nolinted...)
			mu.Unlock()
		}(rule)
	}
	wg.Wait()

	sortIssues(allIssues)
	return allIssues
}

// IgnoreRule stops reporting codes starting with rule.
func (e *Engine) IgnoreRule(rule string) {
	if rule = strings.TrimSpace(rule); rule != "" {
		e.ignoredRules.Insert(rule)
	}
}

// Select restricts reporting to codes starting with rule. Without any
// selection every code is reported.
func (e *Engine) Select(rule string) {
	if rule = strings.TrimSpace(rule); rule != "" {
		e.selected.Insert(rule)
	}
}

// IgnorePath skips files matching the glob pattern, either on their path
// relative to the engine root or on their base name. A directory path
// skips everything below it.
func (e *Engine) IgnorePath(pattern string) {
	if pattern = strings.TrimSpace(pattern); pattern != "" {
		e.ignoredPaths = append(e.ignoredPaths, filepath.Clean(pattern))
	}
}

// UseCache stores and reuses issues per file.
func (e *Engine) UseCache(cache *Cache) {
	e.cache = cache
}

// isReported applies flake8 style selection: the code must match a
// selected prefix (if any) and no ignored prefix.
func (e *Engine) isReported(code string) bool {
	if e.selected.Len() > 0 && !e.selected.MatchesPrefix(code) {
		return false
	}
	return !e.ignoredRules.MatchesPrefix(code)
}

// IsIgnoredPath reports whether path matches one of the ignored patterns.
func (e *Engine) IsIgnoredPath(path string) bool {
	if len(e.ignoredPaths) == 0 {
		return false
	}
	path = filepath.Clean(path)
	rel := path
	if e.rootDir != "" {
		if r, err := filepath.Rel(e.rootDir, path); err == nil {
			rel = r
		}
	}
	base := filepath.Base(path)

	for _, pattern := range e.ignoredPaths {
		for _, candidate := range []string{path, rel, base} {
			if ok, _ := filepath.Match(pattern, candidate); ok {
				return true
			}
		}
		if strings.HasPrefix(path, pattern+string(filepath.Separator)) ||
			strings.HasPrefix(rel, pattern+string(filepath.Separator)) {
			return true
		}
	}
	return false
}

// fingerprint identifies the engine settings that shape cached issues.
func (e *Engine) fingerprint() string {
	names := make([]string, 0, len(e.rules))
	for name, rule := range e.rules {
		names = append(names, name+"="+rule.Severity().String())
	}
	sort.Strings(names)
	return fmt.Sprintf("rules=%s;select=%s;ignore=%s",
		strings.Join(names, ","), strings.Join(e.selected.Prefixes(), ","), strings.Join(e.ignoredRules.Prefixes(), ","))
}

// filterNolintIssues filters issues based on noqa comments.
func filterNolintIssues(mgr *nolint.Manager, issues []tt.Issue) []tt.Issue {
	if mgr == nil {
		return issues
	}
	filtered := make([]tt.Issue, 0, len(issues))
	for _, issue := range issues {
		if !mgr.IsNolint(issue.Start.Line, issue.Rule) {
			filtered = append(filtered, issue)
		}
	}
	return filtered
}

func sortIssues(issues []tt.Issue) {
	sort.SliceStable(issues, func(i, j int) bool {
		a, b := issues[i], issues[j]
		if a.Start.Line != b.Start.Line {
			return a.Start.Line < b.Start.Line
		}
		if a.Start.Column != b.Start.Column {
			return a.Start.Column < b.Start.Column
		}
		return a.Rule < b.Rule
	})
}

// SourceCode stores the content of a source code file.
type SourceCode struct {
	Lines []string
}

// ReadSourceCode reads the content of a file and returns it as a `SourceCode` struct.
func ReadSourceCode(filename string) (*SourceCode, error) {
	content, err := os.ReadFile(filename)
	if err != nil {
		return nil, err
	}
	return NewSourceCode(content), nil
}

// NewSourceCode splits source into physical lines.
func NewSourceCode(content []byte) *SourceCode {
	return &SourceCode{Lines: tokenize.SplitLines(string(content))}
}
