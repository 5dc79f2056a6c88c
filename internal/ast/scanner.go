// Copyright (c) 2026 Petar Djukic. All rights reserved.
// SPDX-License-Identifier: MIT

// Package ast turns a C frontend's entity tree into the declaration model.
// It covers input discovery, the reconciling walker that merges tags with
// their typedef aliases, and a name index over extracted files.
package ast

import (
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/go-git/go-billy/v5/osfs"
	"github.com/go-git/go-git/v5/plumbing/format/gitignore"
	"gitlab.com/tozd/go/errors"
)

// skipDirs contains directory names that ScanPaths never descends into.
var skipDirs = map[string]bool{
	".git":         true,
	"vendor":       true,
	"node_modules": true,
	"testdata":     true,
}

// DefaultExtensions are the file suffixes collected from directories.
var DefaultExtensions = []string{".c", ".h"}

// ScanOptions configures ScanPaths.
type ScanOptions struct {
	// Extensions filters files found inside directories. Empty means
	// DefaultExtensions.
	Extensions []string
}

// ScanPaths expands paths into the list of C sources to extract. Files
// named explicitly are always kept. Directories are walked recursively,
// skipping skipDirs and anything the directory's .gitignore rules match.
// The result keeps input order and holds each path once.
func ScanPaths(paths []string, opts ScanOptions) ([]string, error) {
	exts := opts.Extensions
	if len(exts) == 0 {
		exts = DefaultExtensions
	}

	seen := make(map[string]bool)
	var result []string
	add := func(p string) {
		p = filepath.Clean(p)
		if seen[p] {
			return
		}
		seen[p] = true
		result = append(result, p)
	}

	for _, p := range paths {
		info, err := os.Stat(p)
		if err != nil {
			return nil, errors.Errorf("stat %s: %w", p, err)
		}
		if !info.IsDir() {
			add(p)
			continue
		}
		found, err := scanDir(p, exts)
		if err != nil {
			return nil, err
		}
		for _, f := range found {
			add(f)
		}
	}
	return result, nil
}

func scanDir(root string, exts []string) ([]string, error) {
	patterns, err := gitignore.ReadPatterns(osfs.New(root), nil)
	if err != nil {
		return nil, errors.Errorf("reading gitignore under %s: %w", root, err)
	}
	matcher := gitignore.NewMatcher(patterns)

	var found []string
	err = filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return nil // skip inaccessible entries
		}
		if path == root {
			return nil
		}
		rel, relErr := filepath.Rel(root, path)
		if relErr != nil {
			return nil
		}
		parts := strings.Split(rel, string(filepath.Separator))
		if d.IsDir() {
			if skipDirs[d.Name()] || matcher.Match(parts, true) {
				return filepath.SkipDir
			}
			return nil
		}
		if !hasExtension(d.Name(), exts) || matcher.Match(parts, false) {
			return nil
		}
		found = append(found, path)
		return nil
	})
	if err != nil {
		return nil, errors.Errorf("walking %s: %w", root, err)
	}
	return found, nil
}

func hasExtension(name string, exts []string) bool {
	for _, ext := range exts {
		if strings.HasSuffix(name, ext) {
			return true
		}
	}
	return false
}
