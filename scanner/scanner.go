package scanner

import (
	"io/fs"
	"path/filepath"
	"sort"
)

type FileInfo struct {
	Path string
	Size int64
}

// Scanner finds the files to lint below a root directory.
type Scanner struct {
	rootDir    string
	extensions []string
	skip       func(path string) bool
}

func New(rootDir string, extensions ...string) *Scanner {
	return &Scanner{
		rootDir:    rootDir,
		extensions: extensions,
	}
}

// Skip excludes files and directories for which fn returns true. The root
// itself is never skipped.
func (s *Scanner) Skip(fn func(path string) bool) *Scanner {
	s.skip = fn
	return s
}

// Scan returns the target files sorted by path.
func (s *Scanner) Scan() ([]FileInfo, error) {
	var files []FileInfo

	err := filepath.WalkDir(s.rootDir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}

		if path != s.rootDir && s.skip != nil && s.skip(path) {
			if d.IsDir() {
				return filepath.SkipDir
			}
			return nil
		}

		if d.IsDir() || !s.isTargetFile(path) {
			return nil
		}

		info, err := d.Info()
		if err != nil {
			return err
		}
		files = append(files, FileInfo{Path: path, Size: info.Size()})
		return nil
	})

	sort.Slice(files, func(i, j int) bool { return files[i].Path < files[j].Path })
	return files, err
}

func (s *Scanner) isTargetFile(path string) bool {
	if len(s.extensions) == 0 {
		return true
	}

	ext := filepath.Ext(path)
	for _, targetExt := range s.extensions {
		if ext == targetExt {
			return true
		}
	}
	return false
}
