// Copyright (c) 2026 Petar Djukic. All rights reserved.
// SPDX-License-Identifier: MIT

package main

import (
	"context"
	"fmt"
	"io"

	"github.com/spf13/cobra"
	"gitlab.com/tozd/go/errors"

	"github.com/petar-djukic/cdecl/internal/ast"
	"github.com/petar-djukic/cdecl/internal/declmap"
	"github.com/petar-djukic/cdecl/internal/render"
	"github.com/petar-djukic/cdecl/pkg/cdecl"
	"github.com/petar-djukic/cdecl/pkg/types"
)

// ErrNotFound is returned by lookup when no declaration has the name.
var ErrNotFound = errors.New("no declaration found")

// newLookupCmd creates the "lookup" command.
func newLookupCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "lookup <name> [paths...]",
		Short: "Find declarations by tag, typedef, or function name",
		Long:  "Lookup extracts the given paths (default: the current directory) and prints every declaration named <name>.",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, ext, err := setup(cmd)
			if err != nil {
				return err
			}
			files, err := extractAll(ctx, cmd.ErrOrStderr(), ext, args[1:])
			if err != nil {
				return err
			}
			entries := ast.BuildDeclTable(files).ByName(args[0])
			if len(entries) == 0 {
				return errors.Errorf("%w: %s", ErrNotFound, args[0])
			}
			for _, e := range entries {
				loc := e.File
				if l := e.Location(); l != nil {
					loc = l.String()
				}
				fmt.Fprintf(cmd.OutOrStdout(), "%s: %s\n", loc, describe(e))
			}
			return nil
		},
	}
}

func describe(e ast.Entry) string {
	if e.Function != nil {
		return render.Signature(e.Function)
	}
	return render.Header(e.Decl)
}

// newMapCmd creates the "map" command.
func newMapCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "map [paths...]",
		Short: "Print the most depended-on declarations within a budget",
		Long: "Map ranks declarations by how often other declarations use them and prints " +
			"the top-ranked ones grouped by file, until the token budget is spent.",
		RunE: func(cmd *cobra.Command, args []string) error {
			budget, _ := cmd.Flags().GetFloat64("budget")
			focus, _ := cmd.Flags().GetStringSlice("focus")

			ctx, ext, err := setup(cmd)
			if err != nil {
				return err
			}
			files, err := extractAll(ctx, cmd.ErrOrStderr(), ext, args)
			if err != nil {
				return err
			}
			m := declmap.BuildMap(files, focus, budget)
			_, err = io.WriteString(cmd.OutOrStdout(), m.Text)
			return err
		},
	}
	cmd.Flags().Float64("budget", 1024, "Token budget for the map")
	cmd.Flags().StringSlice("focus", nil, "Files whose declarations are ranked first")
	return cmd
}

// extractAll scans paths and extracts every file. Parse failures are
// reported to stderr and skipped.
func extractAll(ctx context.Context, stderr io.Writer, ext cdecl.Extractor, paths []string) ([]*types.SourceFile, error) {
	if len(paths) == 0 {
		paths = []string{"."}
	}
	files, err := ast.ScanPaths(paths, ast.ScanOptions{})
	if err != nil {
		return nil, err
	}
	result, err := ext.Extract(ctx, files)
	if err != nil {
		return nil, err
	}
	for _, f := range result.Failures {
		fmt.Fprintln(stderr, f.Err)
	}
	return result.Files, nil
}
