package internal

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	tt "github.com/furlinter/furlint/internal/types"
)

const misalignedSource = `result = [
    1,
    2,
]
items = {
    "a": 1,
    "b": 2,
  }
`

const misalignedList = "a = [\n    1,\n    2,\n]"

func newTestEngine(t *testing.T, rootDir string, rules map[string]tt.ConfigRule) *Engine {
	t.Helper()
	engine, err := NewEngine(rootDir, rules)
	require.NoError(t, err)
	return engine
}

func TestNewEngine(t *testing.T) {
	t.Parallel()

	engine := newTestEngine(t, t.TempDir(), nil)
	require.Contains(t, engine.rules, "FUR901")
	assert.Equal(t, tt.SeverityError, engine.rules["FUR901"].Severity())
}

func TestNewEngine_ConfigRules(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name     string
		rules    map[string]tt.ConfigRule
		wantErr  bool
		enabled  bool
		severity tt.Severity
	}{
		{
			name:     "severity from config",
			rules:    map[string]tt.ConfigRule{"FUR901": {Severity: tt.SeverityWarning}},
			enabled:  true,
			severity: tt.SeverityWarning,
		},
		{
			name:    "off disables the rule",
			rules:   map[string]tt.ConfigRule{"FUR901": {Severity: tt.SeverityOff}},
			enabled: false,
		},
		{
			name:    "unknown rule",
			rules:   map[string]tt.ConfigRule{"FUR999": {Severity: tt.SeverityError}},
			wantErr: true,
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			engine, err := NewEngine("", tc.rules)
			if tc.wantErr {
				assert.ErrorIs(t, err, errUnknownRule)
				return
			}
			require.NoError(t, err)

			rule, ok := engine.rules["FUR901"]
			assert.Equal(t, tc.enabled, ok)
			if ok {
				assert.Equal(t, tc.severity, rule.Severity())
			}
		})
	}
}

func TestEngine_RunSource(t *testing.T) {
	t.Parallel()

	engine := newTestEngine(t, "", nil)
	issues, err := engine.RunSource([]byte(misalignedSource))
	require.NoError(t, err)
	require.Len(t, issues, 2)

	assert.Equal(t, "FUR901", issues[0].Rule)
	assert.Equal(t, StdinFilename, issues[0].Filename)
	assert.Equal(t, 4, issues[0].Start.Line)
	assert.Equal(t, 1, issues[0].Start.Column)

	assert.Equal(t, 8, issues[1].Start.Line)
	assert.Equal(t, 3, issues[1].Start.Column)
	assert.Equal(t, "    }", issues[1].Suggestion)
}

func TestEngine_Run(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	filename := filepath.Join(dir, "sample.py")
	require.NoError(t, os.WriteFile(filename, []byte(misalignedSource), 0o644))

	engine := newTestEngine(t, dir, nil)
	issues, err := engine.Run(filename)
	require.NoError(t, err)
	require.Len(t, issues, 2)
	assert.Equal(t, filename, issues[0].Filename)
	assert.Equal(t, filename, issues[0].Start.Filename)

	_, err = engine.Run(filepath.Join(dir, "missing.py"))
	assert.Error(t, err)
}

func TestEngine_Noqa(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name   string
		source string
		want   int
	}{
		{"bare noqa", misalignedList + "  # noqa\n", 0},
		{"matching code", misalignedList + "  # noqa: FUR901\n", 0},
		{"code prefix", misalignedList + "  # noqa: FUR\n", 0},
		{"other code", misalignedList + "  # noqa: E501\n", 1},
		{"file level", "# flake8: noqa\n" + misalignedList + "\n", 0},
		{"noqa on another line", "a = [  # noqa\n    1,\n    2,\n]\n", 1},
	}

	engine := newTestEngine(t, "", nil)
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			issues, err := engine.RunSource([]byte(tc.source))
			require.NoError(t, err)
			assert.Len(t, issues, tc.want)
		})
	}
}

func TestEngine_SelectAndIgnore(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name     string
		selected []string
		ignored  []string
		want     int
	}{
		{"default", nil, nil, 2},
		{"select matching", []string{"FUR9"}, nil, 2},
		{"select other", []string{"E"}, nil, 0},
		{"ignore exact", nil, []string{"FUR901"}, 0},
		{"ignore prefix", nil, []string{"FUR"}, 0},
		{"ignore other", nil, []string{"W"}, 2},
		{"ignore wins over select", []string{"FUR"}, []string{"FUR901"}, 0},
		{"blank entries", []string{" "}, []string{""}, 2},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			engine := newTestEngine(t, "", nil)
			for _, code := range tc.selected {
				engine.Select(code)
			}
			for _, code := range tc.ignored {
				engine.IgnoreRule(code)
			}
			issues, err := engine.RunSource([]byte(misalignedSource))
			require.NoError(t, err)
			assert.Len(t, issues, tc.want)
		})
	}
}

func TestEngine_IsIgnoredPath(t *testing.T) {
	t.Parallel()

	root := filepath.Join("project")
	engine := newTestEngine(t, root, nil)
	engine.IgnorePath("*_pb2.py")
	engine.IgnorePath("build")
	engine.IgnorePath("tests/fixtures/*.py")

	tests := []struct {
		path string
		want bool
	}{
		{filepath.Join(root, "pkg", "api_pb2.py"), true},
		{filepath.Join(root, "build", "lib", "mod.py"), true},
		{filepath.Join(root, "tests", "fixtures", "bad.py"), true},
		{filepath.Join(root, "tests", "test_mod.py"), false},
		{filepath.Join(root, "pkg", "mod.py"), false},
	}

	for _, tc := range tests {
		t.Run(tc.path, func(t *testing.T) {
			assert.Equal(t, tc.want, engine.IsIgnoredPath(tc.path))
		})
	}
}

func TestEngine_RunIgnoredPath(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	filename := filepath.Join(dir, "generated_pb2.py")
	require.NoError(t, os.WriteFile(filename, []byte(misalignedSource), 0o644))

	engine := newTestEngine(t, dir, nil)
	engine.IgnorePath("*_pb2.py")

	issues, err := engine.Run(filename)
	require.NoError(t, err)
	assert.Empty(t, issues)
}

func TestEngine_UseCache(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	filename := filepath.Join(dir, "cached.py")
	require.NoError(t, os.WriteFile(filename, []byte(misalignedSource), 0o644))

	cache, err := NewCache(filepath.Join(dir, ".cache"))
	require.NoError(t, err)

	engine := newTestEngine(t, dir, nil)
	engine.UseCache(cache)

	first, err := engine.Run(filename)
	require.NoError(t, err)

	cached, ok := cache.Get(filename, engine.fingerprint())
	require.True(t, ok)
	assert.Equal(t, first, cached)

	second, err := engine.Run(filename)
	require.NoError(t, err)
	assert.Equal(t, first, second)

	// a different selection must not reuse the cached issues
	engine.IgnoreRule("FUR901")
	third, err := engine.Run(filename)
	require.NoError(t, err)
	assert.Empty(t, third)
}

func TestRuleNames(t *testing.T) {
	t.Parallel()
	assert.Equal(t, []string{"FUR901"}, RuleNames())
}

func TestNewSourceCode(t *testing.T) {
	t.Parallel()
	sc := NewSourceCode([]byte("a = [\r\n    1,\r\n]"))
	assert.Equal(t, []string{"a = [", "    1,", "]"}, sc.Lines)
}
