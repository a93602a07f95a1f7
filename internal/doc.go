// Package internal provides the core of furlint, a linter for Python source.
//
// Key components:
//
// Engine: the linting engine. It owns the enabled rules, applies code
// selection and ignored paths, filters findings suppressed by noqa comments
// and returns issues sorted by position.
//
// LintRule: the contract every rule implements. A rule receives the raw
// source and its token stream and returns issues.
//
// Cache: a gob file of issues per file, reused while the file, the engine
// settings and the dependency files stay unchanged.
//
// Watcher: re-lints files on write through fsnotify.
//
// Usage:
//
//	engine, err := internal.NewEngine("path/to/root", nil)
//	if err != nil {
//	    // handle error
//	}
//
//	issues, err := engine.Run("path/to/module.py")
//	if err != nil {
//	    // handle error
//	}
//
//	for _, issue := range issues {
//	    fmt.Printf("%s %s at %s\n", issue.Rule, issue.Message, issue.Start)
//	}
//
// This package is intended for internal use within the linting tool and should not be
// imported by external packages.
package internal
