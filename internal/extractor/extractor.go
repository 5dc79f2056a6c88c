// Copyright (c) 2026 Petar Djukic. All rights reserved.
// SPDX-License-Identifier: MIT

// Package extractor drives the per-file pipeline: parse each translation
// unit with the C frontend, then walk it into a declaration model.
package extractor

import (
	"context"
	"io"
	"runtime"
	"time"

	slogctx "github.com/veqryn/slog-context"
	"gitlab.com/tozd/go/errors"
	"golang.org/x/sync/errgroup"

	"github.com/petar-djukic/cdecl/internal/ast"
	"github.com/petar-djukic/cdecl/internal/csitter"
	"github.com/petar-djukic/cdecl/internal/frontend"
	"github.com/petar-djukic/cdecl/pkg/types"
)

// FileError records a file the frontend could not parse. It does not stop
// the other files of a run.
type FileError struct {
	Path string
	Err  error
}

func (e FileError) Error() string {
	return e.Path + ": " + e.Err.Error()
}

func (e FileError) Unwrap() error { return e.Err }

// FrontendError wraps any error returned by the frontend, so callers can
// tell parse failures from walk failures.
type FrontendError struct {
	Err error
}

func (e *FrontendError) Error() string { return e.Err.Error() }

func (e *FrontendError) Unwrap() error { return e.Err }

// RunResult holds the outcome of Runner.Run. Files keeps the order of the
// input paths, minus the ones listed in Errors.
type RunResult struct {
	Files  []*types.SourceFile
	Errors []FileError
}

// Deps holds injected dependencies for the runner.
type Deps struct {
	Frontend frontend.Frontend // nil means a new csitter index
	Options  frontend.Options
	Walk     ast.WalkOptions
	Jobs     int // parallel files; <= 0 means runtime.NumCPU()
}

// statser is implemented by frontends that cache headers.
type statser interface {
	Stats() csitter.CacheStats
}

// Runner extracts declaration models from C source files.
type Runner struct {
	deps Deps
}

// NewRunner creates a Runner with the given dependencies.
func NewRunner(deps Deps) *Runner {
	if deps.Frontend == nil {
		deps.Frontend = csitter.NewIndex()
	}
	if deps.Jobs <= 0 {
		deps.Jobs = runtime.NumCPU()
	}
	return &Runner{deps: deps}
}

type outcome struct {
	sf  *types.SourceFile
	err error
}

// Run extracts every path with a bounded worker pool. Parse failures are
// collected per file. An invariant violation cancels the remaining work
// and is returned as the run error, with no result.
func (r *Runner) Run(ctx context.Context, paths []string) (*RunResult, error) {
	start := time.Now()
	outcomes := make([]outcome, len(paths))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(r.deps.Jobs)
	for i, path := range paths {
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			sf, err := r.extract(gctx, path, nil)
			if errors.Is(err, ast.ErrInvariant) {
				return errors.Errorf("%s: %w", path, err)
			}
			outcomes[i] = outcome{sf: sf, err: err}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	result := &RunResult{}
	for i, o := range outcomes {
		if o.err != nil {
			result.Errors = append(result.Errors, FileError{Path: paths[i], Err: o.err})
			continue
		}
		result.Files = append(result.Files, o.sf)
	}

	attrs := []any{
		"files", len(result.Files),
		"failed", len(result.Errors),
		"duration", time.Since(start),
	}
	if s, ok := r.deps.Frontend.(statser); ok {
		stats := s.Stats()
		attrs = append(attrs, "headers_read", stats.FilesRead, "header_cache_hits", stats.CacheHits)
	}
	slogctx.Info(ctx, "extraction finished", attrs...)
	return result, nil
}

// RunSource extracts one translation unit from in-memory source. Frontend
// failures come back as *FrontendError.
func (r *Runner) RunSource(ctx context.Context, path string, src []byte) (*types.SourceFile, error) {
	return r.extract(ctx, path, src)
}

// Dump writes the main-file entity tree of path to w.
func (r *Runner) Dump(ctx context.Context, w io.Writer, path string) error {
	tu, err := r.deps.Frontend.Parse(ctx, path, r.deps.Options)
	if err != nil {
		return &FrontendError{Err: err}
	}
	return ast.DumpEntities(w, tu)
}

func (r *Runner) extract(ctx context.Context, path string, src []byte) (*types.SourceFile, error) {
	ctx = slogctx.With(ctx, "file", path)
	start := time.Now()

	var tu frontend.Entity
	var err error
	if src != nil {
		tu, err = r.deps.Frontend.ParseSource(ctx, path, src, r.deps.Options)
	} else {
		tu, err = r.deps.Frontend.Parse(ctx, path, r.deps.Options)
	}
	if err != nil {
		slogctx.Warn(ctx, "parse failed", "error", err)
		return nil, &FrontendError{Err: err}
	}

	sf, err := ast.Walk(ctx, tu, r.deps.Walk)
	if err != nil {
		slogctx.Error(ctx, "declaration model rejected", "error", err)
		return nil, err
	}
	slogctx.Debug(ctx, "extracted",
		"type_decls", len(sf.TypeDecls),
		"functions", len(sf.Functions),
		"duration", time.Since(start),
	)
	return sf, nil
}
