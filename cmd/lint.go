package cmd

import (
	"context"
	"fmt"
	"io"
	"os"
	"sort"
	"strings"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/furlinter/furlint/formatter"
	"github.com/furlinter/furlint/internal"
	tt "github.com/furlinter/furlint/internal/types"
	"github.com/furlinter/furlint/lint"
)

// stdinPath names standard input on the command line.
const stdinPath = "-"

var (
	selectRules    string
	ignoreRules    string
	ignorePaths    string
	lintJsonOutput bool
	outPath        string
	cacheDir       string
	cacheMaxAge    time.Duration
	clearCache     bool
	workers        int
	showProgress   bool
)

var lintCmd = &cobra.Command{
	Use:   "lint [paths...]",
	Short: "Run the normal lint process",
	Long: `Lints Python files and directories. Use "-" to read source from standard input.
Example) furlint lint --ignore-paths build src/ tests/test_api.py`,
	Args: cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, cancel := context.WithTimeout(commandContext(cmd), timeout)
		defer cancel()

		config, err := loadConfig()
		if err != nil {
			return err
		}

		engine, err := lint.NewFromConfig(".", config)
		if err != nil {
			return fmt.Errorf("failed to initialize lint engine: %w", err)
		}

		var cache *internal.Cache
		if cacheDir != "" {
			cache, err = openCache(cacheDir, cacheMaxAge, clearCache)
			if err != nil {
				return err
			}
			engine.UseCache(cache)
		}

		opts := []lint.Option{lint.WithExtensions(config.Extensions...), lint.WithWorkers(workers)}
		if showProgress && !lintJsonOutput {
			opts = append(opts, lint.WithProgress(cmd.ErrOrStderr()))
		}

		err = runNormalLintProcess(ctx, logger, engine, args, cmd.InOrStdin(), cmd.OutOrStdout(), lintJsonOutput, outPath, opts...)

		if cache != nil {
			if saveErr := cache.Save(); saveErr != nil {
				logger.Warn("Failed to save cache", zap.Error(saveErr))
			}
		}
		return err
	},
}

func init() {
	lintCmd.Flags().StringVar(&selectRules, "select", "", "Comma-separated list of rule codes or prefixes to report")
	lintCmd.Flags().StringVar(&ignoreRules, "ignore", "", "Comma-separated list of rule codes or prefixes to ignore")
	lintCmd.Flags().StringVar(&ignorePaths, "ignore-paths", "", "Comma-separated list of paths to ignore")
	lintCmd.Flags().BoolVar(&lintJsonOutput, "json", false, "Output issues in JSON format")
	lintCmd.Flags().StringVarP(&outPath, "output", "o", "", "Output path (when using JSON)")
	lintCmd.Flags().StringVar(&cacheDir, "cache-dir", "", "Reuse results of unchanged files stored in this directory")
	lintCmd.Flags().DurationVar(&cacheMaxAge, "cache-max-age", 24*time.Hour, "Discard cached results older than this")
	lintCmd.Flags().BoolVar(&clearCache, "clear-cache", false, "Drop every cached result before linting")
	lintCmd.Flags().IntVar(&workers, "workers", 0, "Number of files linted in parallel (default: number of CPUs)")
	lintCmd.Flags().BoolVar(&showProgress, "progress", true, "Show a progress bar while linting directories")
}

// loadConfig reads the configuration file and applies the command line
// selection on top of it.
func loadConfig() (lint.Config, error) {
	config, err := lint.LoadConfigOrDefault(cfgFile)
	if err != nil {
		return lint.Config{}, fmt.Errorf("failed to load configuration: %w", err)
	}
	config.Select = append(config.Select, splitList(selectRules)...)
	config.Ignore = append(config.Ignore, splitList(ignoreRules)...)
	config.IgnorePaths = append(config.IgnorePaths, splitList(ignorePaths)...)
	return config, nil
}

func openCache(dir string, maxAge time.Duration, reset bool) (*internal.Cache, error) {
	cache, err := internal.NewCache(dir)
	if err != nil {
		return nil, err
	}
	if maxAge > 0 {
		cache.SetMaxAge(maxAge)
	}
	if reset {
		if err := cache.InvalidateAll(); err != nil {
			return nil, fmt.Errorf("failed to clear cache: %w", err)
		}
	}
	configPath := cfgFile
	if configPath == "" {
		configPath = lint.DefaultConfigFile
	}
	if _, err := os.Stat(configPath); err == nil {
		if err := cache.AddDependency(configPath); err != nil {
			return nil, err
		}
	}
	return cache, nil
}

func commandContext(cmd *cobra.Command) context.Context {
	if ctx := cmd.Context(); ctx != nil {
		return ctx
	}
	return context.Background()
}

func splitList(s string) []string {
	var out []string
	for _, item := range strings.Split(s, ",") {
		if item = strings.TrimSpace(item); item != "" {
			out = append(out, item)
		}
	}
	return out
}

func runNormalLintProcess(
	ctx context.Context,
	logger *zap.Logger,
	engine lint.LintEngine,
	paths []string,
	stdin io.Reader,
	stdout io.Writer,
	isJson bool,
	jsonOutput string,
	opts ...lint.Option,
) error {
	var (
		issues []tt.Issue
		source []byte
		files  []string
	)
	for _, path := range paths {
		if path == stdinPath {
			if source != nil {
				continue
			}
			b, err := io.ReadAll(stdin)
			if err != nil {
				return fmt.Errorf("error reading standard input: %w", err)
			}
			source = b
			continue
		}
		files = append(files, path)
	}

	if source != nil {
		found, err := lint.ProcessSources(ctx, logger, engine, [][]byte{source}, lint.ProcessSource)
		if err != nil {
			return fmt.Errorf("error processing standard input: %w", err)
		}
		issues = append(issues, found...)
	}

	if len(files) > 0 {
		found, err := lint.ProcessFiles(ctx, logger, engine, files, lint.ProcessFile, opts...)
		if err != nil {
			return fmt.Errorf("error processing files: %w", err)
		}
		issues = append(issues, found...)
	}

	if err := printIssues(logger, stdout, issues, source, isJson, jsonOutput); err != nil {
		return err
	}

	if len(issues) > 0 {
		return ErrIssuesFound
	}
	return nil
}

func printIssues(logger *zap.Logger, w io.Writer, issues []tt.Issue, stdinSource []byte, isJson bool, jsonOutput string) error {
	if isJson {
		if jsonOutput == "" {
			return formatter.WriteJSON(w, issues)
		}
		return writeJSONFile(jsonOutput, issues)
	}

	issuesByFile := make(map[string][]tt.Issue)
	for _, issue := range issues {
		issuesByFile[issue.Filename] = append(issuesByFile[issue.Filename], issue)
	}

	sortedFiles := make([]string, 0, len(issuesByFile))
	for filename := range issuesByFile {
		sortedFiles = append(sortedFiles, filename)
	}
	sort.Strings(sortedFiles)

	for _, filename := range sortedFiles {
		var sourceCode *internal.SourceCode
		if filename == internal.StdinFilename {
			sourceCode = internal.NewSourceCode(stdinSource)
		} else {
			sc, err := internal.ReadSourceCode(filename)
			if err != nil {
				logger.Error("Error reading source file", zap.String("file", filename), zap.Error(err))
				continue
			}
			sourceCode = sc
		}
		fmt.Fprint(w, formatter.GenerateFormattedIssue(issuesByFile[filename], sourceCode))
	}
	return nil
}

func writeJSONFile(path string, issues []tt.Issue) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("error creating JSON output file: %w", err)
	}
	if err := formatter.WriteJSON(f, issues); err != nil {
		f.Close()
		return err
	}
	if err := f.Close(); err != nil {
		return fmt.Errorf("error closing JSON output file: %w", err)
	}
	return nil
}
