// Copyright (c) 2026 Petar Djukic. All rights reserved.
// SPDX-License-Identifier: MIT

// Package csitter is a C frontend built on the tree-sitter C grammar. It
// runs the part of the preprocessor that declarations depend on (includes,
// conditionals, object-like macros, #line) and exposes each translation
// unit as a tree of frontend entities.
package csitter

import (
	"context"
	"fmt"
	"os"

	"github.com/petar-djukic/cdecl/internal/frontend"
)

// Index parses translation units. It is safe for concurrent use: every
// parse builds its own trees and entities and only header contents are
// shared.
type Index struct {
	cache *headerCache
}

var _ frontend.Frontend = (*Index)(nil)

// NewIndex creates an Index with an empty header cache.
func NewIndex() *Index {
	return &Index{cache: newHeaderCache()}
}

// Parse reads path and parses it as the main file of a translation unit.
func (x *Index) Parse(ctx context.Context, path string, opts frontend.Options) (frontend.Entity, error) {
	content, err := os.ReadFile(path)
	if err != nil {
		return nil, &frontend.ParseError{
			Path: path,
			Diagnostics: []frontend.Diagnostic{{
				Location: frontend.Location{File: path},
				Message:  fmt.Sprintf("cannot read file: %v", err),
			}},
		}
	}
	return x.ParseSource(ctx, path, content, opts)
}

// ParseSource parses src as the main file of a translation unit named path.
// Quoted includes resolve relative to path's directory.
func (x *Index) ParseSource(ctx context.Context, path string, src []byte, opts frontend.Options) (frontend.Entity, error) {
	u := newUnit(ctx, x.cache, path, opts)
	if err := u.splice(path, src, true); err != nil {
		return nil, err
	}
	if len(u.diags) > 0 {
		return nil, &frontend.ParseError{Path: path, Diagnostics: u.diags}
	}
	return u.root, nil
}

// Stats returns header cache statistics accumulated since NewIndex.
func (x *Index) Stats() CacheStats {
	return x.cache.snapshot()
}
