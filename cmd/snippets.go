package cmd

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/furlinter/furlint/internal/snippet"
	"github.com/furlinter/furlint/lint"
)

// snippetPathEnv lists snippet roots separated by the OS path list separator.
const snippetPathEnv = "SNIPPET_PATH"

var errSnippetMismatch = errors.New("snippet codes mismatch")

var snippetsCmd = &cobra.Command{
	Use:   "snippets [paths...]",
	Short: "Verify the codes reported for Python snippets embedded in TOML files",
	Long: `Every table of a *.toml file below the given paths that holds both "src" and
"expected_codes" is linted, and the reported codes must match the expected ones.
Without paths the roots are read from $SNIPPET_PATH, then the current directory.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		config, err := loadConfig()
		if err != nil {
			return err
		}
		engine, err := lint.NewFromConfig(".", config)
		if err != nil {
			return fmt.Errorf("failed to initialize lint engine: %w", err)
		}
		return runSnippets(cmd.OutOrStdout(), engine, snippetRoots(args))
	},
}

func init() {
	snippetsCmd.Flags().StringVar(&selectRules, "select", "", "Comma-separated list of rule codes or prefixes to report")
	snippetsCmd.Flags().StringVar(&ignoreRules, "ignore", "", "Comma-separated list of rule codes or prefixes to ignore")
}

func snippetRoots(args []string) []string {
	if len(args) > 0 {
		return args
	}
	if env := os.Getenv(snippetPathEnv); env != "" {
		if roots := splitPathList(env); len(roots) > 0 {
			return roots
		}
	}
	return []string{"."}
}

func splitPathList(s string) []string {
	var roots []string
	for _, p := range filepath.SplitList(s) {
		if p != "" {
			roots = append(roots, p)
		}
	}
	return roots
}

func runSnippets(w io.Writer, checker snippet.Checker, roots []string) error {
	results, err := snippet.VerifyAll(checker, roots...)
	if err != nil {
		return err
	}

	failed := 0
	for _, r := range results {
		if r.Passed() {
			fmt.Fprintf(w, "ok   %s\n", r.Case.ID)
			continue
		}
		failed++
		fmt.Fprintf(w, "FAIL %s: codes mismatch\n", r.Case.ID)
		fmt.Fprintf(w, "  expected  : %v\n", r.Case.ExpectedCodes)
		fmt.Fprintf(w, "  got       : %v\n", r.Got)
		fmt.Fprintf(w, "  missing   : %v\n", r.Missing)
		fmt.Fprintf(w, "  unexpected: %v\n", r.Unexpected)
		for _, issue := range r.Issues {
			fmt.Fprintf(w, "    %d:%d: %s %s\n", issue.Start.Line, issue.Start.Column, issue.Rule, issue.Message)
		}
	}
	fmt.Fprintf(w, "%d snippets, %d failed\n", len(results), failed)

	if failed > 0 {
		return fmt.Errorf("%w: %d of %d snippets", errSnippetMismatch, failed, len(results))
	}
	return nil
}
