// Copyright (c) 2026 Petar Djukic. All rights reserved.
// SPDX-License-Identifier: MIT

// Package cdecl defines the public interface for cdecl, a library that
// extracts a compact declaration model (enums, structs, unions, typedefs,
// and functions) from the main file of C translation units.
package cdecl

import (
	"context"
	"io"

	"gitlab.com/tozd/go/errors"

	"github.com/petar-djukic/cdecl/internal/ast"
	"github.com/petar-djukic/cdecl/pkg/types"
)

// Error types for the cdecl API.
var (
	ErrInvalidConfig = errors.New("invalid config")
	// ErrParseFailure wraps frontend diagnostics for a file that could not
	// be parsed.
	ErrParseFailure = errors.New("failed to parse C source")
	// ErrInvariant marks input the declaration model cannot represent. It
	// is the same value the internal walker wraps, so errors.Is works on
	// every returned invariant error.
	ErrInvariant = ast.ErrInvariant
)

// Merge policies accepted by Config.MergePolicy.
const (
	MergeByTag  = string(ast.MergeByTag)
	MergeByName = string(ast.MergeByName)
)

// Config configures an Extractor.
type Config struct {
	IncludeDirs []string          // Search path for #include (in order)
	Defines     map[string]string // Predefined macros; an empty value means 1
	Jobs        int               // Files extracted in parallel (default runtime.NumCPU())
	MergePolicy string            // "tag" (default) or "name"
}

// FileFailure reports one file that could not be parsed. Err wraps
// ErrParseFailure and carries the frontend's diagnostics verbatim.
type FileFailure struct {
	Path string
	Err  error
}

// Result holds the outcome of Extractor.Extract.
type Result struct {
	Files    []*types.SourceFile // One model per parsed file, in input order
	Failures []FileFailure       // Files the frontend rejected
}

// Extractor turns C source files into declaration models.
type Extractor interface {
	// Extract processes paths in parallel. Parse failures are reported per
	// file in the Result; an invariant violation aborts the whole run and
	// is returned as an error wrapping ErrInvariant.
	Extract(ctx context.Context, paths []string) (*Result, error)

	// ExtractSource processes one translation unit held in memory. Quoted
	// includes resolve relative to path's directory.
	ExtractSource(ctx context.Context, path string, src []byte) (*types.SourceFile, error)

	// DumpEntities writes the frontend entity tree of path's main file.
	DumpEntities(ctx context.Context, w io.Writer, path string) error
}
