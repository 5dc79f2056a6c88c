// Copyright (c) 2026 Petar Djukic. All rights reserved.
// SPDX-License-Identifier: MIT

package cdecl

import (
	"context"
	"io"
	"maps"
	"slices"

	"gitlab.com/tozd/go/errors"

	"github.com/petar-djukic/cdecl/internal/ast"
	"github.com/petar-djukic/cdecl/internal/extractor"
	"github.com/petar-djukic/cdecl/internal/frontend"
	"github.com/petar-djukic/cdecl/pkg/types"
)

// New validates the config and returns a ready-to-use Extractor. Headers
// read by its runs are cached for the Extractor's lifetime.
func New(cfg Config) (Extractor, error) {
	policy, err := validateConfig(cfg)
	if err != nil {
		return nil, errors.Errorf("%w: %v", ErrInvalidConfig, err)
	}

	runner := extractor.NewRunner(extractor.Deps{
		Options: frontend.Options{
			IncludeDirs: slices.Clone(cfg.IncludeDirs),
			Defines:     maps.Clone(cfg.Defines),
		},
		Walk: ast.WalkOptions{MergePolicy: policy},
		Jobs: cfg.Jobs,
	})
	return &extractorAdapter{runner: runner}, nil
}

// extractorAdapter adapts internal/extractor.Runner to the public
// Extractor interface.
type extractorAdapter struct {
	runner *extractor.Runner
}

func (a *extractorAdapter) Extract(ctx context.Context, paths []string) (*Result, error) {
	rr, err := a.runner.Run(ctx, paths)
	if err != nil {
		return nil, err
	}
	result := &Result{Files: rr.Files}
	for _, fe := range rr.Errors {
		result.Failures = append(result.Failures, FileFailure{Path: fe.Path, Err: parseFailure(fe.Err)})
	}
	return result, nil
}

func (a *extractorAdapter) ExtractSource(ctx context.Context, path string, src []byte) (*types.SourceFile, error) {
	sf, err := a.runner.RunSource(ctx, path, src)
	if err != nil {
		return nil, parseFailure(err)
	}
	return sf, nil
}

func (a *extractorAdapter) DumpEntities(ctx context.Context, w io.Writer, path string) error {
	return parseFailure(a.runner.Dump(ctx, w, path))
}

// parseError matches ErrParseFailure and every error the frontend
// returned, such as *frontend.ParseError. Its message is the frontend's,
// verbatim.
type parseError struct {
	err error
}

func (e *parseError) Error() string   { return e.err.Error() }
func (e *parseError) Unwrap() []error { return []error{ErrParseFailure, e.err} }

// parseFailure tags frontend errors with ErrParseFailure. Other errors
// pass through unchanged.
func parseFailure(err error) error {
	var ferr *extractor.FrontendError
	if errors.As(err, &ferr) {
		return &parseError{err: ferr.Err}
	}
	return err
}

// validateConfig checks the config and resolves the merge policy.
func validateConfig(cfg Config) (ast.MergePolicy, error) {
	if cfg.Jobs < 0 {
		return "", errors.Errorf("Jobs must not be negative, got %d", cfg.Jobs)
	}
	for _, dir := range cfg.IncludeDirs {
		if dir == "" {
			return "", errors.New("IncludeDirs contains an empty path")
		}
	}
	for name := range cfg.Defines {
		if name == "" {
			return "", errors.New("Defines contains an empty macro name")
		}
	}
	return ast.ParseMergePolicy(cfg.MergePolicy)
}
