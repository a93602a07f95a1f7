package internal

import (
	"go/token"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	tt "github.com/furlinter/furlint/internal/types"
)

const testFingerprint = "rules=FUR901=ERROR;select=;ignore="

func writeFile(t *testing.T, path, content string) {
	t.Helper()
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
}

func sampleIssues(filename string) []tt.Issue {
	return []tt.Issue{
		{
			Rule:     "FUR901",
			Category: "indentation",
			Filename: filename,
			Message:  "closer-only line must align with continuation indent (expected col 4, found col 0)",
			Start:    token.Position{Filename: filename, Line: 4, Column: 1},
			End:      token.Position{Filename: filename, Line: 4, Column: 1},
		},
	}
}

func TestCache(t *testing.T) {
	tmpDir := t.TempDir()
	cache, err := NewCache(filepath.Join(tmpDir, "cache"))
	require.NoError(t, err)

	t.Run("SetAndGet", func(t *testing.T) {
		filename := filepath.Join(tmpDir, "set.py")
		writeFile(t, filename, "a = [\n    1,\n]\n")

		issues := sampleIssues(filename)
		require.NoError(t, cache.Set(filename, testFingerprint, issues))

		got, found := cache.Get(filename, testFingerprint)
		assert.True(t, found)
		assert.Equal(t, issues, got)
	})

	t.Run("NotFound", func(t *testing.T) {
		_, found := cache.Get("nonexistent.py", testFingerprint)
		assert.False(t, found)
	})

	t.Run("SetMissingFile", func(t *testing.T) {
		err := cache.Set(filepath.Join(tmpDir, "missing.py"), testFingerprint, nil)
		assert.Error(t, err)
	})

	t.Run("FileModified", func(t *testing.T) {
		filename := filepath.Join(tmpDir, "modified.py")
		writeFile(t, filename, "x = 1\n")
		require.NoError(t, cache.Set(filename, testFingerprint, nil))

		writeFile(t, filename, "x = (\n    1\n)\n")

		_, found := cache.Get(filename, testFingerprint)
		assert.False(t, found)
	})

	t.Run("FingerprintChanged", func(t *testing.T) {
		filename := filepath.Join(tmpDir, "fingerprint.py")
		writeFile(t, filename, "x = 1\n")
		require.NoError(t, cache.Set(filename, testFingerprint, nil))

		_, found := cache.Get(filename, "rules=;select=;ignore=FUR")
		assert.False(t, found)

		// the stale entry is dropped
		_, found = cache.Get(filename, testFingerprint)
		assert.False(t, found)
	})

	t.Run("Expired", func(t *testing.T) {
		filename := filepath.Join(tmpDir, "expired.py")
		writeFile(t, filename, "x = 1\n")
		require.NoError(t, cache.Set(filename, testFingerprint, nil))

		cache.SetMaxAge(time.Nanosecond)
		defer cache.SetMaxAge(defaultCacheAge)
		time.Sleep(time.Millisecond)

		_, found := cache.Get(filename, testFingerprint)
		assert.False(t, found)
	})
}

func TestCachePersistence(t *testing.T) {
	tmpDir := t.TempDir()
	cacheDir := filepath.Join(tmpDir, "cache")
	filename := filepath.Join(tmpDir, "persist.py")
	writeFile(t, filename, "a = [\n    1,\n]\n")

	cache, err := NewCache(cacheDir)
	require.NoError(t, err)
	issues := sampleIssues(filename)
	require.NoError(t, cache.Set(filename, testFingerprint, issues))
	require.NoError(t, cache.Save())

	reloaded, err := NewCache(cacheDir)
	require.NoError(t, err)

	got, found := reloaded.Get(filename, testFingerprint)
	require.True(t, found)
	assert.Equal(t, issues, got)
}

func TestCacheCorruptFile(t *testing.T) {
	cacheDir := t.TempDir()
	writeFile(t, filepath.Join(cacheDir, cacheFileName), "not a gob stream")

	cache, err := NewCache(cacheDir)
	require.NoError(t, err)

	_, found := cache.Get("any.py", testFingerprint)
	assert.False(t, found)
}

func TestCacheDependencyChanged(t *testing.T) {
	tmpDir := t.TempDir()
	cache, err := NewCache(filepath.Join(tmpDir, "cache"))
	require.NoError(t, err)

	config := filepath.Join(tmpDir, ".furlint.yaml")
	writeFile(t, config, "name: one\n")
	require.NoError(t, cache.AddDependency(config))

	filename := filepath.Join(tmpDir, "dep.py")
	writeFile(t, filename, "x = 1\n")
	require.NoError(t, cache.Set(filename, testFingerprint, nil))

	_, found := cache.Get(filename, testFingerprint)
	require.True(t, found)

	writeFile(t, config, "name: two\n")
	_, found = cache.Get(filename, testFingerprint)
	assert.False(t, found)
}

func TestCacheInvalidateAll(t *testing.T) {
	tmpDir := t.TempDir()
	cache, err := NewCache(filepath.Join(tmpDir, "cache"))
	require.NoError(t, err)

	filename := filepath.Join(tmpDir, "all.py")
	writeFile(t, filename, "x = 1\n")
	require.NoError(t, cache.Set(filename, testFingerprint, nil))

	require.NoError(t, cache.InvalidateAll())

	_, found := cache.Get(filename, testFingerprint)
	assert.False(t, found)

	reloaded, err := NewCache(cache.CacheDir)
	require.NoError(t, err)
	_, found = reloaded.Get(filename, testFingerprint)
	assert.False(t, found, "cleared cache is persisted")
}
