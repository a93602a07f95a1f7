package internal

import (
	"crypto/md5"
	"encoding/gob"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sync"
	"time"

	tt "github.com/furlinter/furlint/internal/types"
)

const (
	cacheFileName   = "lint_cache.gob"
	defaultCacheAge = 24 * time.Hour
)

type fileMetadata struct {
	Hash         string
	LastModified time.Time
}

type CacheEntry struct {
	Metadata     fileMetadata
	Fingerprint  string
	Issues       []tt.Issue
	CreatedAt    time.Time
	LastAccessed time.Time
}

// Cache keeps the issues of files that did not change since they were
// last linted. Entries are persisted with Save.
type Cache struct {
	CacheDir         string
	entries          map[string]CacheEntry
	mutex            sync.Mutex
	maxAge           time.Duration
	dirty            bool
	dependencyFiles  []string
	dependencyHashes map[string]string
}

func NewCache(cacheDir string) (*Cache, error) {
	if err := os.MkdirAll(cacheDir, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create cache directory: %w", err)
	}

	cache := &Cache{
		CacheDir:         cacheDir,
		entries:          make(map[string]CacheEntry),
		maxAge:           defaultCacheAge,
		dependencyHashes: make(map[string]string),
	}

	if err := cache.load(); err != nil {
		return nil, fmt.Errorf("failed to load cache: %w", err)
	}

	return cache, nil
}

func (c *Cache) load() error {
	cacheFile := filepath.Join(c.CacheDir, cacheFileName)
	file, err := os.Open(cacheFile)
	if os.IsNotExist(err) {
		return nil // cache file doesn't exist yet. This is fine.
	}
	if err != nil {
		return fmt.Errorf("failed to open cache file: %w", err)
	}
	defer file.Close()

	decoder := gob.NewDecoder(file)
	if err := decoder.Decode(&c.entries); err != nil {
		// a corrupt cache is dropped rather than blocking the run
		c.entries = make(map[string]CacheEntry)
	}

	return nil
}

// Save writes the entries to disk if they changed.
func (c *Cache) Save() error {
	c.mutex.Lock()
	defer c.mutex.Unlock()

	if !c.dirty {
		return nil
	}
	if err := c.save(); err != nil {
		return err
	}
	c.dirty = false
	return nil
}

func (c *Cache) save() error {
	cacheFile := filepath.Join(c.CacheDir, cacheFileName)
	file, err := os.Create(cacheFile)
	if err != nil {
		return fmt.Errorf("failed to create cache file: %w", err)
	}

	encoder := gob.NewEncoder(file)
	if err := encoder.Encode(c.entries); err != nil {
		file.Close()
		return fmt.Errorf("failed to encode cache file: %w", err)
	}

	if err := file.Close(); err != nil {
		return fmt.Errorf("failed to close cache file: %w", err)
	}
	return nil
}

// Set records the issues found in filename with the given engine fingerprint.
func (c *Cache) Set(filename, fingerprint string, issues []tt.Issue) error {
	metadata, err := getFileMetadata(filename)
	if err != nil {
		return fmt.Errorf("failed to get file metadata: %w", err)
	}

	c.mutex.Lock()
	defer c.mutex.Unlock()

	now := time.Now()
	c.entries[filename] = CacheEntry{
		Metadata:     metadata,
		Fingerprint:  fingerprint,
		Issues:       issues,
		CreatedAt:    now,
		LastAccessed: now,
	}
	c.dirty = true

	return nil
}

// Get returns the cached issues of filename if the file, the fingerprint
// and the dependency files are unchanged.
func (c *Cache) Get(filename, fingerprint string) ([]tt.Issue, bool) {
	c.mutex.Lock()
	defer c.mutex.Unlock()

	entry, exists := c.entries[filename]
	if !exists {
		return nil, false
	}

	if entry.Fingerprint != fingerprint || c.isEntryInvalid(filename, entry) {
		delete(c.entries, filename)
		c.dirty = true
		return nil, false
	}

	entry.LastAccessed = time.Now()
	c.entries[filename] = entry

	return entry.Issues, true
}

func (c *Cache) isEntryInvalid(filename string, entry CacheEntry) bool {
	// too old
	if time.Since(entry.CreatedAt) > c.maxAge {
		return true
	}

	currentMetadata, err := getFileMetadata(filename)
	if err != nil || !currentMetadata.equal(entry.Metadata) {
		return true
	}

	return c.haveDependenciesChanged()
}

// AddDependency invalidates every entry whenever file changes later on,
// typically the configuration file.
func (c *Cache) AddDependency(file string) error {
	hash, err := getFileHash(file)
	if err != nil {
		return fmt.Errorf("failed to get hash for %s: %w", file, err)
	}

	c.mutex.Lock()
	defer c.mutex.Unlock()

	c.dependencyFiles = append(c.dependencyFiles, file)
	c.dependencyHashes[file] = hash
	return nil
}

func (c *Cache) haveDependenciesChanged() bool {
	for _, file := range c.dependencyFiles {
		hash, err := getFileHash(file)
		if err != nil {
			return true
		}

		if hash != c.dependencyHashes[file] {
			return true
		}
	}

	return false
}

// SetMaxAge sets how long an entry stays valid after it was stored.
func (c *Cache) SetMaxAge(duration time.Duration) {
	c.mutex.Lock()
	defer c.mutex.Unlock()

	c.maxAge = duration
}

// InvalidateAll drops every entry and rewrites the cache file.
func (c *Cache) InvalidateAll() error {
	c.mutex.Lock()
	defer c.mutex.Unlock()

	c.entries = make(map[string]CacheEntry)
	if err := c.save(); err != nil {
		return err
	}
	c.dirty = false
	return nil
}

func (m fileMetadata) equal(other fileMetadata) bool {
	return m.Hash == other.Hash && m.LastModified.Equal(other.LastModified)
}

func getFileMetadata(filename string) (fileMetadata, error) {
	file, err := os.Open(filename)
	if err != nil {
		return fileMetadata{}, fmt.Errorf("failed to open file: %w", err)
	}
	defer file.Close()

	hash := md5.New()
	if _, err := io.Copy(hash, file); err != nil {
		return fileMetadata{}, fmt.Errorf("failed to calculate hash: %w", err)
	}

	info, err := file.Stat()
	if err != nil {
		return fileMetadata{}, fmt.Errorf("failed to get file info: %w", err)
	}

	return fileMetadata{
		Hash:         fmt.Sprintf("%x", hash.Sum(nil)),
		LastModified: info.ModTime(),
	}, nil
}

func getFileHash(filename string) (string, error) {
	file, err := os.Open(filename)
	if err != nil {
		return "", fmt.Errorf("failed to open file: %w", err)
	}
	defer file.Close()

	hash := md5.New()
	if _, err := io.Copy(hash, file); err != nil {
		return "", err
	}

	return fmt.Sprintf("%x", hash.Sum(nil)), nil
}
