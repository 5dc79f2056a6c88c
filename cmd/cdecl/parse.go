// Copyright (c) 2026 Petar Djukic. All rights reserved.
// SPDX-License-Identifier: MIT

package main

import (
	"fmt"
	"io"

	"github.com/spf13/cobra"
	"gitlab.com/tozd/go/errors"

	"github.com/petar-djukic/cdecl/internal/ast"
	"github.com/petar-djukic/cdecl/internal/render"
	"github.com/petar-djukic/cdecl/pkg/types"
)

// newParseCmd creates the "parse" command.
func newParseCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "parse <paths...>",
		Short: "Print the declaration model of each file",
		Long: "Parse extracts every file (directories are searched for .c and .h files) and " +
			"prints one declaration model per file. Exits non-zero if any file fails.",
		Args: cobra.MinimumNArgs(1),
		RunE: runParse,
	}
	cmd.Flags().StringP("format", "f", string(render.FormatPretty), "Output format: text, json, yaml, or pretty")
	return cmd
}

func runParse(cmd *cobra.Command, args []string) error {
	name, _ := cmd.Flags().GetString("format")
	format, err := render.ParseFormat(name)
	if err != nil {
		return err
	}
	ctx, ext, err := setup(cmd)
	if err != nil {
		return err
	}
	paths, err := ast.ScanPaths(args, ast.ScanOptions{})
	if err != nil {
		return err
	}

	result, err := ext.Extract(ctx, paths)
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	for _, sf := range result.Files {
		if err := write(out, format, sf, useColor(out)); err != nil {
			return err
		}
	}
	for _, f := range result.Failures {
		fmt.Fprintln(cmd.ErrOrStderr(), f.Err)
	}
	if len(result.Failures) > 0 {
		return errors.Errorf("%d of %d files failed to parse", len(result.Failures), len(paths))
	}
	return nil
}

func write(w io.Writer, format render.Format, sf *types.SourceFile, color bool) error {
	switch format {
	case render.FormatText:
		return render.Text(w, sf)
	case render.FormatJSON:
		return render.JSON(w, sf)
	case render.FormatYAML:
		return render.YAML(w, sf)
	default:
		return render.Pretty(w, sf, color)
	}
}

// newEntitiesCmd creates the "entities" command.
func newEntitiesCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "entities <file>",
		Short: "Dump the frontend entity tree of a file",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, ext, err := setup(cmd)
			if err != nil {
				return err
			}
			return ext.DumpEntities(ctx, cmd.OutOrStdout(), args[0])
		},
	}
}
