package lint

import (
	"context"
	"errors"
	"go/token"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/furlinter/furlint/internal/types"
)

type mockLintEngine struct {
	mock.Mock
}

func (m *mockLintEngine) Run(filePath string) ([]types.Issue, error) {
	args := m.Called(filePath)
	return args.Get(0).([]types.Issue), args.Error(1)
}

func (m *mockLintEngine) RunSource(source []byte) ([]types.Issue, error) {
	args := m.Called(source)
	return args.Get(0).([]types.Issue), args.Error(1)
}

func (m *mockLintEngine) IgnoreRule(rule string) {
	m.Called(rule)
}

func (m *mockLintEngine) IgnorePath(path string) {
	m.Called(path)
}

func (m *mockLintEngine) Select(rule string) {
	m.Called(rule)
}

func setupMockEngine(expectedIssues []types.Issue, filePath string) *mockLintEngine {
	mockEngine := new(mockLintEngine)
	mockEngine.On("Run", filePath).Return(expectedIssues, nil)
	return mockEngine
}

func setupSourceMockEngine(expectedIssues []types.Issue, content []byte) *mockLintEngine {
	mockEngine := new(mockLintEngine)
	mockEngine.On("RunSource", content).Return(expectedIssues, nil)
	return mockEngine
}

func issueAt(filename, rule, message string) types.Issue {
	return types.Issue{
		Rule:     rule,
		Filename: filename,
		Start:    token.Position{Filename: filename, Line: 4, Column: 1},
		End:      token.Position{Filename: filename, Line: 4, Column: 1},
		Message:  message,
	}
}

func TestProcessFile(t *testing.T) {
	t.Parallel()
	expectedIssues := []types.Issue{issueAt("test.py", "FUR901", "Test issue")}
	mockEngine := setupMockEngine(expectedIssues, "test.py")

	issues, err := ProcessFile(mockEngine, "test.py")

	assert.NoError(t, err)
	assert.Equal(t, expectedIssues, issues)
	mockEngine.AssertExpectations(t)
}

func TestProcessSource(t *testing.T) {
	t.Parallel()
	expectedIssues := []types.Issue{issueAt("<stdin>", "FUR901", "Test issue")}
	mockEngine := setupSourceMockEngine(expectedIssues, []byte("x = 1\n"))

	issues, err := ProcessSource(mockEngine, []byte("x = 1\n"))

	assert.NoError(t, err)
	assert.Equal(t, expectedIssues, issues)
	mockEngine.AssertExpectations(t)
}

func TestProcessPath(t *testing.T) {
	t.Parallel()
	logger := zap.NewNop()
	ctx := context.Background()

	tempDir := t.TempDir()
	paths := createTempFiles(t, tempDir, "test1.py", "test2.pyi")
	createTempFiles(t, tempDir, "notes.txt")

	expectedIssues := []types.Issue{
		issueAt(paths[0], "FUR901", "Test issue 1"),
		issueAt(paths[1], "FUR901", "Test issue 2"),
	}

	mockEngine := new(mockLintEngine)
	mockEngine.On("Run", paths[0]).Return([]types.Issue{expectedIssues[0]}, nil)
	mockEngine.On("Run", paths[1]).Return([]types.Issue{expectedIssues[1]}, nil)

	issues, err := ProcessPath(ctx, logger, mockEngine, tempDir, ProcessFile)

	assert.NoError(t, err)
	assert.Equal(t, expectedIssues, issues)
	mockEngine.AssertExpectations(t)
	mockEngine.AssertNotCalled(t, "Run", filepath.Join(tempDir, "notes.txt"))
}

func TestProcessPath_Extensions(t *testing.T) {
	t.Parallel()

	tempDir := t.TempDir()
	paths := createTempFiles(t, tempDir, "script.py", "stub.pyi")

	mockEngine := new(mockLintEngine)
	mockEngine.On("Run", paths[1]).Return([]types.Issue{}, nil)

	_, err := ProcessPath(context.Background(), nil, mockEngine, tempDir, ProcessFile,
		WithExtensions(".pyi"), WithWorkers(1))

	assert.NoError(t, err)
	mockEngine.AssertExpectations(t)
	mockEngine.AssertNotCalled(t, "Run", paths[0])
}

func TestProcessPath_SingleFile(t *testing.T) {
	t.Parallel()

	tempDir := t.TempDir()
	paths := createTempFiles(t, tempDir, "script")
	expectedIssues := []types.Issue{issueAt(paths[0], "FUR901", "Test issue")}
	mockEngine := setupMockEngine(expectedIssues, paths[0])

	issues, err := ProcessPath(context.Background(), nil, mockEngine, paths[0], ProcessFile)

	assert.NoError(t, err)
	assert.Equal(t, expectedIssues, issues)
	mockEngine.AssertExpectations(t)
}

func TestProcessPath_Missing(t *testing.T) {
	t.Parallel()

	mockEngine := new(mockLintEngine)
	_, err := ProcessPath(context.Background(), nil, mockEngine, filepath.Join(t.TempDir(), "missing"), ProcessFile)

	assert.ErrorIs(t, err, os.ErrNotExist)
	mockEngine.AssertNotCalled(t, "Run", mock.Anything)
}

func TestProcessFiles(t *testing.T) {
	t.Parallel()
	logger := zap.NewNop()
	ctx := context.Background()

	tempDir := t.TempDir()
	paths := createTempFiles(t, tempDir, "test1.py", "test2.py")

	expectedIssues := []types.Issue{
		issueAt(paths[0], "FUR901", "Test issue 1"),
		issueAt(paths[1], "FUR901", "Test issue 2"),
	}

	mockEngine := new(mockLintEngine)
	mockEngine.On("Run", paths[0]).Return([]types.Issue{expectedIssues[0]}, nil)
	mockEngine.On("Run", paths[1]).Return([]types.Issue{expectedIssues[1]}, nil)

	issues, err := ProcessFiles(ctx, logger, mockEngine, paths, ProcessFile)

	assert.NoError(t, err)
	assert.Len(t, issues, 2)
	assert.Contains(t, issues, expectedIssues[0])
	assert.Contains(t, issues, expectedIssues[1])
	mockEngine.AssertExpectations(t)
}

func TestProcessSources(t *testing.T) {
	t.Parallel()
	logger := zap.NewNop()
	ctx := context.Background()

	expectedIssues := []types.Issue{
		issueAt("<stdin>", "FUR901", "Test issue 1"),
		issueAt("<stdin>", "FUR901", "Test issue 2"),
	}

	mockEngine := new(mockLintEngine)
	mockEngine.On("RunSource", []byte("a = 1\n")).Return([]types.Issue{expectedIssues[0]}, nil)
	mockEngine.On("RunSource", []byte("b = 2\n")).Return([]types.Issue{expectedIssues[1]}, nil)

	issues, err := ProcessSources(ctx, logger, mockEngine, [][]byte{[]byte("a = 1\n"), []byte("b = 2\n")}, ProcessSource)

	assert.NoError(t, err)
	assert.Equal(t, expectedIssues, issues)
	mockEngine.AssertExpectations(t)
}

func TestProcessSources_Error(t *testing.T) {
	t.Parallel()

	mockEngine := new(mockLintEngine)
	mockEngine.On("RunSource", []byte("a = 1\n")).Return([]types.Issue(nil), errors.New("boom"))

	issues, err := ProcessSources(context.Background(), zap.NewNop(), mockEngine, [][]byte{[]byte("a = 1\n")}, ProcessSource)

	assert.Error(t, err)
	assert.Nil(t, issues)
}

func TestOptions_HasDesiredExtension(t *testing.T) {
	t.Parallel()
	o := newOptions(nil)
	assert.True(t, o.hasDesiredExtension("test.py"))
	assert.True(t, o.hasDesiredExtension("test.pyi"))
	assert.False(t, o.hasDesiredExtension("test.go"))
	assert.False(t, o.hasDesiredExtension("test"))
}

func createTempFiles(t *testing.T, dir string, fileNames ...string) []string {
	t.Helper()
	paths := make([]string, 0, len(fileNames))
	for _, fileName := range fileNames {
		filePath := filepath.Join(dir, fileName)
		f, err := os.Create(filePath)
		require.NoError(t, err)
		require.NoError(t, f.Close())
		paths = append(paths, filePath)
	}
	return paths
}
