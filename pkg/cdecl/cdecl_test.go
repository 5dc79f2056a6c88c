// Copyright (c) 2026 Petar Djukic. All rights reserved.
// SPDX-License-Identifier: MIT

package cdecl

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gitlab.com/tozd/go/errors"

	"github.com/petar-djukic/cdecl/internal/extractor"
	"github.com/petar-djukic/cdecl/internal/frontend"
	"github.com/petar-djukic/cdecl/pkg/types"
)

// failingFrontend returns err from every parse.
type failingFrontend struct {
	err error
}

func (f failingFrontend) Parse(context.Context, string, frontend.Options) (frontend.Entity, error) {
	return nil, f.err
}

func (f failingFrontend) ParseSource(context.Context, string, []byte, frontend.Options) (frontend.Entity, error) {
	return nil, f.err
}

func writeFixture(t *testing.T, root, rel, content string) string {
	t.Helper()
	path := filepath.Join(root, rel)
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestNew_Validation(t *testing.T) {
	tests := []struct {
		name    string
		cfg     Config
		wantErr bool
	}{
		{"zero config", Config{}, false},
		{"name policy", Config{MergePolicy: MergeByName, Jobs: 2}, false},
		{"unknown policy", Config{MergePolicy: "structural"}, true},
		{"negative jobs", Config{Jobs: -1}, true},
		{"empty include dir", Config{IncludeDirs: []string{""}}, true},
		{"empty macro name", Config{Defines: map[string]string{"": "1"}}, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ex, err := New(tt.cfg)
			if tt.wantErr {
				assert.True(t, errors.Is(err, ErrInvalidConfig))
				assert.Nil(t, ex)
				return
			}
			require.NoError(t, err)
			assert.NotNil(t, ex)
		})
	}
}

func TestExtract(t *testing.T) {
	dir := t.TempDir()
	writeFixture(t, dir, "include/vec.h", "typedef struct Vec { float x, y; } Vec;\n")
	shapes := writeFixture(t, dir, "src/shapes.c", `#include <vec.h>
#if USE_COLOR
enum Color { RED, GREEN = 5 };
#endif
typedef struct {
  Vec origin;
  float radius;
} Circle;
float area(const Circle *c);
`)
	broken := writeFixture(t, dir, "src/broken.c", "int broken(\n")

	ex, err := New(Config{
		IncludeDirs: []string{filepath.Join(dir, "include")},
		Defines:     map[string]string{"USE_COLOR": "1"},
	})
	require.NoError(t, err)

	result, err := ex.Extract(context.Background(), []string{shapes, broken})
	require.NoError(t, err)

	require.Len(t, result.Files, 1)
	sf := result.Files[0]
	assert.Equal(t, shapes, sf.Path)
	require.Len(t, sf.TypeDecls, 2)
	assert.Equal(t, types.DeclEnum, sf.TypeDecls[0].DeclKind())
	assert.Equal(t, "Circle", sf.TypeDecls[1].TypedefName())
	assert.Nil(t, sf.FindTypedef("Vec"), "header declarations stay out of the model")

	area := sf.FindFunction("area")
	require.NotNil(t, area)
	require.Len(t, area.Parameters, 1)
	assert.Equal(t, "const Circle *", area.Parameters[0].Type.Name)

	require.Len(t, result.Failures, 1)
	assert.Equal(t, broken, result.Failures[0].Path)
	assert.True(t, errors.Is(result.Failures[0].Err, ErrParseFailure))
	var perr *frontend.ParseError
	require.True(t, errors.As(result.Failures[0].Err, &perr))
	assert.Equal(t, perr.Error(), result.Failures[0].Err.Error(), "diagnostics are passed through verbatim")
}

func TestExtract_Invariant(t *testing.T) {
	dir := t.TempDir()
	path := writeFixture(t, dir, "globals.c", "int counter;\n")

	ex, err := New(Config{})
	require.NoError(t, err)

	result, err := ex.Extract(context.Background(), []string{path})
	assert.Nil(t, result)
	assert.True(t, errors.Is(err, ErrInvariant))
	assert.False(t, errors.Is(err, ErrParseFailure))
}

func TestExtractSource(t *testing.T) {
	ex, err := New(Config{})
	require.NoError(t, err)

	sf, err := ex.ExtractSource(context.Background(), "mem.c", []byte("struct A;\nstruct B;\ntypedef struct A TA;\n"))
	require.NoError(t, err)
	require.Len(t, sf.TypeDecls, 2)
	assert.Equal(t, "TA", sf.TypeDecls[0].TypedefName())

	_, err = ex.ExtractSource(context.Background(), "bad.c", []byte("struct {"))
	assert.True(t, errors.Is(err, ErrParseFailure))
}

func TestDumpEntities(t *testing.T) {
	ex, err := New(Config{})
	require.NoError(t, err)

	dir := t.TempDir()
	path := writeFixture(t, dir, "a.c", "enum E { A };\n")

	var buf bytes.Buffer
	require.NoError(t, ex.DumpEntities(context.Background(), &buf, path))
	assert.Contains(t, buf.String(), "EnumConstantDecl A")

	err = ex.DumpEntities(context.Background(), &buf, filepath.Join(dir, "missing.c"))
	assert.True(t, errors.Is(err, ErrParseFailure))
}

func TestParseFailure_AnyFrontendError(t *testing.T) {
	limitErr := errors.New("tree-sitter: operation limit was hit")
	tests := []struct {
		name string
		err  error
	}{
		{"diagnostics", &frontend.ParseError{Path: "a.c"}},
		{"other frontend error", limitErr},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ex := &extractorAdapter{runner: extractor.NewRunner(extractor.Deps{
				Frontend: failingFrontend{err: tt.err},
				Jobs:     1,
			})}

			_, err := ex.ExtractSource(context.Background(), "a.c", []byte("int x;"))
			assert.True(t, errors.Is(err, ErrParseFailure))
			assert.True(t, errors.Is(err, tt.err))
			assert.Equal(t, tt.err.Error(), err.Error())

			result, err := ex.Extract(context.Background(), []string{"a.c"})
			require.NoError(t, err)
			require.Len(t, result.Failures, 1)
			assert.True(t, errors.Is(result.Failures[0].Err, ErrParseFailure))

			err = ex.DumpEntities(context.Background(), &bytes.Buffer{}, "a.c")
			assert.True(t, errors.Is(err, ErrParseFailure))
		})
	}

	assert.Nil(t, parseFailure(nil))
	assert.False(t, errors.Is(parseFailure(ErrInvariant), ErrParseFailure))
}
