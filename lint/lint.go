package lint

import (
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"runtime"
	"sort"
	"sync"

	"github.com/schollz/progressbar/v3"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
	"gopkg.in/yaml.v3"

	"github.com/furlinter/furlint/internal"
	"github.com/furlinter/furlint/internal/lints"
	tt "github.com/furlinter/furlint/internal/types"
	"github.com/furlinter/furlint/scanner"
)

// DefaultConfigFile is the configuration looked up when none is given.
const DefaultConfigFile = ".furlint.yaml"

type LintEngine interface {
	Run(filePath string) ([]tt.Issue, error)
	RunSource(source []byte) ([]tt.Issue, error)
	IgnoreRule(rule string)
	IgnorePath(path string)
	Select(rule string)
}

// Violation is a FUR901 finding. Line is 1-based, Column 0-based.
type Violation struct {
	Line    int
	Column  int
	Message string
}

// Check reports the closer-only lines of source that are not aligned with
// the continuation indent of their bracket. It never fails: source that
// cannot be analysed yields no violations.
func Check(source string) []Violation {
	found := lints.CheckCloserIndent(source)
	if len(found) == 0 {
		return nil
	}
	violations := make([]Violation, 0, len(found))
	for _, v := range found {
		violations = append(violations, Violation{Line: v.Line, Column: v.Column, Message: v.Message})
	}
	return violations
}

// Config represents the overall configuration of furlint.
type Config struct {
	Name        string                   `yaml:"name"`
	Rules       map[string]tt.ConfigRule `yaml:"rules"`
	Select      []string                 `yaml:"select,omitempty"`
	Ignore      []string                 `yaml:"ignore,omitempty"`
	IgnorePaths []string                 `yaml:"ignore-paths,omitempty"`
	Extensions  []string                 `yaml:"extensions,omitempty"`
}

// DefaultConfig returns the configuration used without a configuration file.
func DefaultConfig() Config {
	rules := make(map[string]tt.ConfigRule)
	for _, name := range internal.RuleNames() {
		rules[name] = tt.ConfigRule{Severity: tt.SeverityError}
	}
	return Config{
		Name:       "furlint",
		Rules:      rules,
		Extensions: append([]string(nil), defaultExtensions...),
	}
}

// LoadConfig reads a YAML configuration file.
func LoadConfig(configurationPath string) (Config, error) {
	var config Config

	f, err := os.Open(configurationPath)
	if err != nil {
		return config, fmt.Errorf("error opening configuration: %w", err)
	}
	defer f.Close()

	decoder := yaml.NewDecoder(f)
	decoder.KnownFields(true)
	if err := decoder.Decode(&config); err != nil && !errors.Is(err, io.EOF) {
		return config, fmt.Errorf("error parsing configuration %s: %w", configurationPath, err)
	}

	return config, nil
}

// LoadConfigOrDefault reads configurationPath. A missing file at the default
// location falls back to DefaultConfig; any other missing file is an error.
func LoadConfigOrDefault(configurationPath string) (Config, error) {
	if configurationPath == "" {
		configurationPath = DefaultConfigFile
	}
	config, err := LoadConfig(configurationPath)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) && configurationPath == DefaultConfigFile {
			return DefaultConfig(), nil
		}
		return Config{}, err
	}
	return config, nil
}

// WriteConfig stores config as YAML at configurationPath.
func WriteConfig(configurationPath string, config Config) error {
	d, err := yaml.Marshal(config)
	if err != nil {
		return fmt.Errorf("error encoding configuration: %w", err)
	}
	if err := os.WriteFile(configurationPath, d, 0o644); err != nil {
		return fmt.Errorf("error writing configuration: %w", err)
	}
	return nil
}

// New creates an engine configured from the file at configurationPath.
func New(rootDir string, configurationPath string) (*internal.Engine, error) {
	config, err := LoadConfigOrDefault(configurationPath)
	if err != nil {
		return nil, err
	}
	return NewFromConfig(rootDir, config)
}

// NewFromConfig creates an engine from an already loaded configuration.
func NewFromConfig(rootDir string, config Config) (*internal.Engine, error) {
	engine, err := internal.NewEngine(rootDir, config.Rules)
	if err != nil {
		return nil, fmt.Errorf("error creating engine: %w", err)
	}
	for _, code := range config.Select {
		engine.Select(code)
	}
	for _, code := range config.Ignore {
		engine.IgnoreRule(code)
	}
	for _, pattern := range config.IgnorePaths {
		engine.IgnorePath(pattern)
	}
	return engine, nil
}

var defaultExtensions = []string{".py", ".pyi"}

type options struct {
	workers    int
	progress   io.Writer
	extensions map[string]bool
}

// Option configures file processing.
type Option func(*options)

// WithWorkers bounds the number of files linted in parallel.
func WithWorkers(n int) Option {
	return func(o *options) {
		if n > 0 {
			o.workers = n
		}
	}
}

// WithProgress renders a progress bar on w while a directory is processed.
func WithProgress(w io.Writer) Option {
	return func(o *options) { o.progress = w }
}

// WithExtensions replaces the file extensions linted inside directories.
func WithExtensions(exts ...string) Option {
	return func(o *options) {
		if len(exts) == 0 {
			return
		}
		o.extensions = make(map[string]bool, len(exts))
		for _, ext := range exts {
			o.extensions[ext] = true
		}
	}
}

func newOptions(opts []Option) *options {
	o := &options{workers: runtime.NumCPU()}
	WithExtensions(defaultExtensions...)(o)
	for _, opt := range opts {
		opt(o)
	}
	return o
}

func (o *options) hasDesiredExtension(path string) bool {
	return o.extensions[filepath.Ext(path)]
}

func ProcessSources(
	ctx context.Context,
	logger *zap.Logger,
	engine LintEngine,
	sources [][]byte,
	processor func(LintEngine, []byte) ([]tt.Issue, error),
) ([]tt.Issue, error) {
	var allIssues []tt.Issue
	for i, source := range sources {
		if err := ctx.Err(); err != nil {
			return allIssues, err
		}
		issues, err := processor(engine, source)
		if err != nil {
			if logger != nil {
				logger.Error("Error processing source", zap.Int("source", i), zap.Error(err))
			}
			return nil, err
		}
		allIssues = append(allIssues, issues...)
	}

	return allIssues, nil
}

func ProcessFiles(
	ctx context.Context,
	logger *zap.Logger,
	engine LintEngine,
	paths []string,
	processor func(LintEngine, string) ([]tt.Issue, error),
	opts ...Option,
) ([]tt.Issue, error) {
	var allIssues []tt.Issue
	for _, path := range paths {
		issues, err := ProcessPath(ctx, logger, engine, path, processor, opts...)
		if err != nil {
			if logger != nil {
				logger.Error("Error processing path", zap.String("path", path), zap.Error(err))
			}
			return allIssues, err
		}
		allIssues = append(allIssues, issues...)
	}

	return allIssues, nil
}

// ProcessPath lints a file, or every file with a desired extension below a
// directory. Files that fail are logged and skipped. On cancellation the
// issues collected so far are returned with the context error.
func ProcessPath(
	ctx context.Context,
	logger *zap.Logger,
	engine LintEngine,
	path string,
	processor func(LintEngine, string) ([]tt.Issue, error),
	opts ...Option,
) ([]tt.Issue, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	o := newOptions(opts)

	info, err := os.Stat(path)
	if err != nil {
		return nil, fmt.Errorf("error accessing %s: %w", path, err)
	}

	if !info.IsDir() {
		// an explicitly named file is linted whatever its extension
		return processor(engine, path)
	}

	files, err := collectFiles(engine, path, o)
	if err != nil {
		return nil, err
	}

	var bar *progressbar.ProgressBar
	if o.progress != nil {
		bar = progressbar.NewOptions(len(files),
			progressbar.OptionSetWriter(o.progress),
			progressbar.OptionSetDescription(path),
			progressbar.OptionEnableColorCodes(true),
			progressbar.OptionSetWidth(40),
			progressbar.OptionShowCount(),
			progressbar.OptionClearOnFinish(),
			progressbar.OptionSetTheme(progressbar.Theme{
				Saucer:        "[green]=[reset]",
				SaucerHead:    "[green]>[reset]",
				SaucerPadding: " ",
				BarStart:      "[",
				BarEnd:        "]",
			}))
	}

	var mu sync.Mutex
	issues := make([]tt.Issue, 0)

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(o.workers)

	for _, filePath := range files {
		if gctx.Err() != nil {
			break
		}
		fp := filePath
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			fileIssues, err := processor(engine, fp)
			if bar != nil {
				_ = bar.Add(1)
			}
			if err != nil {
				logger.Error("Error processing file", zap.String("file", fp), zap.Error(err))
				return nil
			}
			mu.Lock()
			issues = append(issues, fileIssues...)
			mu.Unlock()
			return nil
		})
	}

	err = g.Wait()
	sortByFile(issues)
	if err == nil {
		err = ctx.Err()
	}
	return issues, err
}

func collectFiles(engine LintEngine, root string, o *options) ([]string, error) {
	exts := make([]string, 0, len(o.extensions))
	for ext := range o.extensions {
		exts = append(exts, ext)
	}

	s := scanner.New(root, exts...)
	if ignorer, ok := engine.(interface{ IsIgnoredPath(string) bool }); ok {
		s.Skip(ignorer.IsIgnoredPath)
	}

	found, err := s.Scan()
	if err != nil {
		return nil, fmt.Errorf("error walking %s: %w", root, err)
	}
	files := make([]string, 0, len(found))
	for _, f := range found {
		files = append(files, f.Path)
	}
	return files, nil
}

func sortByFile(issues []tt.Issue) {
	sort.SliceStable(issues, func(i, j int) bool {
		a, b := issues[i], issues[j]
		if a.Filename != b.Filename {
			return a.Filename < b.Filename
		}
		if a.Start.Line != b.Start.Line {
			return a.Start.Line < b.Start.Line
		}
		return a.Start.Column < b.Start.Column
	})
}

func ProcessFile(engine LintEngine, filePath string) ([]tt.Issue, error) {
	return engine.Run(filePath)
}

func ProcessSource(engine LintEngine, source []byte) ([]tt.Issue, error) {
	return engine.RunSource(source)
}
