// Copyright (c) 2026 Petar Djukic. All rights reserved.
// SPDX-License-Identifier: MIT

package main

import (
	"context"
	"fmt"
	"io"
	"path/filepath"

	"github.com/spf13/cobra"
	slogctx "github.com/veqryn/slog-context"
	"gitlab.com/tozd/go/errors"

	gitpkg "github.com/petar-djukic/cdecl/internal/git"
	"github.com/petar-djukic/cdecl/internal/render"
	"github.com/petar-djukic/cdecl/pkg/cdecl"
	"github.com/petar-djukic/cdecl/pkg/types"
)

// newDiffCmd creates the "diff" command.
func newDiffCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "diff <old> <new> | diff --rev <rev> <file>",
		Short: "Compare the declarations of two versions of a file",
		Long: "Diff renders both versions as C-like declaration listings and prints a line diff. " +
			"With --rev the old version is read from git at the given revision.",
		Args: cobra.RangeArgs(1, 2),
		RunE: runDiff,
	}
	cmd.Flags().String("rev", "", "Compare the file against this git revision")
	cmd.Flags().Bool("stat", false, "Print only the number of added and removed lines")
	return cmd
}

func runDiff(cmd *cobra.Command, args []string) error {
	rev, _ := cmd.Flags().GetString("rev")
	switch {
	case rev != "" && len(args) != 1:
		return errors.New("diff --rev takes exactly one file")
	case rev == "" && len(args) != 2:
		return errors.New("diff takes two files")
	}

	ctx, ext, err := setup(cmd)
	if err != nil {
		return err
	}

	var before, after *types.SourceFile
	if rev != "" {
		before, after, err = diffRevision(ctx, ext, rev, args[0])
	} else {
		before, after, err = diffFiles(ctx, ext, args[0], args[1])
	}
	if err != nil {
		return err
	}

	a, b := render.TextString(before), render.TextString(after)
	if stat, _ := cmd.Flags().GetBool("stat"); stat {
		added, removed := render.DiffStats(a, b)
		fmt.Fprintf(cmd.OutOrStdout(), "%d added, %d removed\n", added, removed)
		return nil
	}
	_, err = io.WriteString(cmd.OutOrStdout(), render.Diff(a, b))
	return err
}

func diffFiles(ctx context.Context, ext cdecl.Extractor, oldPath, newPath string) (*types.SourceFile, *types.SourceFile, error) {
	result, err := ext.Extract(ctx, []string{oldPath, newPath})
	if err != nil {
		return nil, nil, err
	}
	if len(result.Failures) > 0 {
		return nil, nil, result.Failures[0].Err
	}
	return result.Files[0], result.Files[1], nil
}

// diffRevision reads path at rev through git and extracts it next to the
// working copy. Includes of the old version resolve against the headers
// on disk.
func diffRevision(ctx context.Context, ext cdecl.Extractor, rev, path string) (*types.SourceFile, *types.SourceFile, error) {
	repo, err := gitpkg.Open(filepath.Dir(path))
	if err != nil {
		return nil, nil, errors.Errorf("opening repository: %w", err)
	}
	src, info, err := repo.ReadFile(rev, path)
	if err != nil {
		return nil, nil, err
	}
	if modified, err := repo.IsModified(path); err == nil {
		slogctx.Debug(ctx, "comparing against revision", "rev", info.Short(), "summary", info.Summary, "modified", modified)
	}

	before, err := ext.ExtractSource(ctx, path, src)
	if err != nil {
		return nil, nil, errors.Errorf("%s at %s: %w", path, info.Short(), err)
	}
	result, err := ext.Extract(ctx, []string{path})
	if err != nil {
		return nil, nil, err
	}
	if len(result.Failures) > 0 {
		return nil, nil, result.Failures[0].Err
	}
	return before, result.Files[0], nil
}
