// Copyright (c) 2026 Petar Djukic. All rights reserved.
// SPDX-License-Identifier: MIT

// Command cdecl extracts enum, struct, union, typedef, and function
// declarations from C source files.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"strings"

	"github.com/mattn/go-isatty"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"gitlab.com/tozd/go/errors"

	"github.com/petar-djukic/cdecl/internal/logging"
	"github.com/petar-djukic/cdecl/pkg/cdecl"
)

const version = "0.1.0"

func main() {
	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt)
	defer cancel()

	if err := newRootCmd().ExecuteContext(ctx); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	rootCmd := &cobra.Command{
		Use:   "cdecl",
		Short: "Extract declarations from C sources",
		Long: "cdecl parses C translation units and reports the enums, structs, unions, " +
			"typedefs, and functions declared in each main file.",
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	// Global flags.
	rootCmd.PersistentFlags().StringSliceP("include", "I", nil, "Add a directory to the #include search path")
	rootCmd.PersistentFlags().StringSliceP("define", "D", nil, "Predefine a macro as NAME or NAME=VALUE")
	rootCmd.PersistentFlags().Int("jobs", 0, "Files extracted in parallel (default: number of CPUs)")
	rootCmd.PersistentFlags().String("merge-policy", cdecl.MergeByTag, "Typedef merge policy: tag or name")
	rootCmd.PersistentFlags().String("log-level", "warn", "Log level: debug, info, warn, or error")
	rootCmd.PersistentFlags().Bool("no-color", false, "Disable colored output")

	// Bind flags to viper.
	for _, name := range []string{"include", "define", "jobs", "merge-policy", "log-level", "no-color"} {
		_ = viper.BindPFlag(name, rootCmd.PersistentFlags().Lookup(name))
	}

	// Env vars: CDECL_JOBS, CDECL_MERGE_POLICY, etc.
	viper.SetEnvPrefix("CDECL")
	viper.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	viper.AutomaticEnv()

	// Config file.
	viper.SetConfigName(".cdecl")
	viper.SetConfigType("yaml")
	viper.AddConfigPath(".")
	_ = viper.ReadInConfig() // optional

	rootCmd.AddCommand(newParseCmd())
	rootCmd.AddCommand(newEntitiesCmd())
	rootCmd.AddCommand(newDiffCmd())
	rootCmd.AddCommand(newLookupCmd())
	rootCmd.AddCommand(newMapCmd())
	rootCmd.AddCommand(newVersionCmd())
	return rootCmd
}

// newVersionCmd creates the "version" command.
func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print cdecl version",
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Fprintf(cmd.OutOrStdout(), "cdecl %s\n", version)
		},
	}
}

// setup builds the logger and extractor shared by every command from the
// viper configuration.
func setup(cmd *cobra.Command) (context.Context, cdecl.Extractor, error) {
	level, err := logging.ParseLevel(viper.GetString("log-level"))
	if err != nil {
		return nil, nil, err
	}
	ctx := logging.NewContext(cmd.Context(), cmd.ErrOrStderr(), logging.Options{
		Level:   level,
		NoColor: !useColor(cmd.ErrOrStderr()),
	})

	defines, err := parseDefines(viper.GetStringSlice("define"))
	if err != nil {
		return nil, nil, err
	}
	ext, err := cdecl.New(cdecl.Config{
		IncludeDirs: viper.GetStringSlice("include"),
		Defines:     defines,
		Jobs:        viper.GetInt("jobs"),
		MergePolicy: viper.GetString("merge-policy"),
	})
	if err != nil {
		return nil, nil, err
	}
	return ctx, ext, nil
}

// parseDefines turns -D arguments into a macro table. A bare NAME is
// defined as 1 by the frontend.
func parseDefines(args []string) (map[string]string, error) {
	defines := make(map[string]string, len(args))
	for _, arg := range args {
		name, value, _ := strings.Cut(arg, "=")
		if strings.TrimSpace(name) == "" {
			return nil, errors.Errorf("%w: bad -D argument %q", cdecl.ErrInvalidConfig, arg)
		}
		defines[name] = value
	}
	return defines, nil
}

// useColor reports whether w is a terminal and color was not disabled.
func useColor(w any) bool {
	if viper.GetBool("no-color") {
		return false
	}
	f, ok := w.(*os.File)
	return ok && isatty.IsTerminal(f.Fd())
}
