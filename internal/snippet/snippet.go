// Package snippet verifies Python snippets embedded in TOML files.
//
// Every table of a snippet file holding both `src` and `expected_codes` is a
// case: the snippet is linted and the set of reported codes must equal the
// expected set.
package snippet

import (
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"

	"github.com/pelletier/go-toml/v2"

	tt "github.com/furlinter/furlint/internal/types"
)

// Case is a single snippet.
type Case struct {
	ID            string
	File          string
	Table         string
	Src           string
	ExpectedCodes []string
}

// Checker lints a snippet.
type Checker interface {
	RunSource(source []byte) ([]tt.Issue, error)
}

// Result is the outcome of verifying a Case.
type Result struct {
	Case       Case
	Got        []string
	Missing    []string
	Unexpected []string
	Issues     []tt.Issue
}

func (r Result) Passed() bool {
	return len(r.Missing) == 0 && len(r.Unexpected) == 0
}

// Discover returns every .toml file below the given roots, sorted.
// A root may also name a single file.
func Discover(roots ...string) ([]string, error) {
	var files []string
	for _, root := range roots {
		err := filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
			if err != nil {
				return err
			}
			if !d.IsDir() && filepath.Ext(path) == ".toml" {
				files = append(files, path)
			}
			return nil
		})
		if err != nil {
			return nil, fmt.Errorf("error walking %s: %w", root, err)
		}
	}
	sort.Strings(files)
	return files, nil
}

// LoadFile reads the cases of a snippet file, ordered by table name.
func LoadFile(path string) ([]Case, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("error reading snippet file: %w", err)
	}
	return Parse(path, data)
}

// Parse decodes the cases of snippet file content. Tables without `src` or
// `expected_codes` are skipped; tables with values of the wrong type are an
// error.
func Parse(path string, data []byte) ([]Case, error) {
	var doc map[string]any
	if err := toml.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("%s: error decoding toml: %w", path, err)
	}

	names := make([]string, 0, len(doc))
	for name := range doc {
		names = append(names, name)
	}
	sort.Strings(names)

	var cases []Case
	for _, name := range names {
		table, ok := doc[name].(map[string]any)
		if !ok {
			continue
		}
		rawSrc, hasSrc := table["src"]
		rawCodes, hasCodes := table["expected_codes"]
		if !hasSrc || !hasCodes {
			continue
		}

		src, ok := rawSrc.(string)
		if !ok {
			return nil, fmt.Errorf("%s [%s]: `src` must be a string", path, name)
		}
		codes, err := stringList(rawCodes)
		if err != nil {
			return nil, fmt.Errorf("%s [%s]: %w", path, name, err)
		}

		cases = append(cases, Case{
			ID:            filepath.Base(path) + "::" + name,
			File:          path,
			Table:         name,
			Src:           src,
			ExpectedCodes: codes,
		})
	}
	return cases, nil
}

func stringList(v any) ([]string, error) {
	items, ok := v.([]any)
	if !ok {
		return nil, fmt.Errorf("`expected_codes` must be a list of strings")
	}
	codes := make([]string, 0, len(items))
	for _, item := range items {
		code, ok := item.(string)
		if !ok {
			return nil, fmt.Errorf("`expected_codes` must be a list of strings")
		}
		codes = append(codes, code)
	}
	return codes, nil
}

// Verify lints the snippet of c and compares the reported codes with the
// expected ones.
func Verify(checker Checker, c Case) (Result, error) {
	issues, err := checker.RunSource([]byte(c.Src))
	if err != nil {
		return Result{}, fmt.Errorf("%s: %w", c.ID, err)
	}

	got := make(map[string]struct{}, len(issues))
	for _, issue := range issues {
		got[issue.Rule] = struct{}{}
	}
	expected := make(map[string]struct{}, len(c.ExpectedCodes))
	for _, code := range c.ExpectedCodes {
		expected[code] = struct{}{}
	}

	return Result{
		Case:       c,
		Got:        sortedKeys(got),
		Missing:    difference(expected, got),
		Unexpected: difference(got, expected),
		Issues:     issues,
	}, nil
}

// VerifyAll loads and verifies every case found below roots.
func VerifyAll(checker Checker, roots ...string) ([]Result, error) {
	files, err := Discover(roots...)
	if err != nil {
		return nil, err
	}

	var results []Result
	for _, file := range files {
		cases, err := LoadFile(file)
		if err != nil {
			return nil, err
		}
		for _, c := range cases {
			result, err := Verify(checker, c)
			if err != nil {
				return nil, err
			}
			results = append(results, result)
		}
	}
	return results, nil
}

func difference(a, b map[string]struct{}) []string {
	var out []string
	for k := range a {
		if _, ok := b[k]; !ok {
			out = append(out, k)
		}
	}
	sort.Strings(out)
	return out
}

func sortedKeys(m map[string]struct{}) []string {
	out := make([]string, 0, len(m))
	for k := range m {
		out = append(out, k)
	}
	sort.Strings(out)
	return out
}
