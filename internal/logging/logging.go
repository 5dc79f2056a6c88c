// Copyright (c) 2026 Petar Djukic. All rights reserved.
// SPDX-License-Identifier: MIT

// Package logging sets up the slog logger cdecl carries through
// context.Context.
package logging

import (
	"context"
	"io"
	"log/slog"
	"strings"

	"github.com/lmittmann/tint"
	slogctx "github.com/veqryn/slog-context"
	"gitlab.com/tozd/go/errors"
)

const timeFormat = "15:04:05.000"

// ErrUnknownLevel is returned by ParseLevel.
var ErrUnknownLevel = errors.New("unknown log level")

// Options configures NewLogger.
type Options struct {
	Level     slog.Level
	NoColor   bool
	AddSource bool
}

// ParseLevel accepts debug, info, warn, or error in any case. The empty
// string means info.
func ParseLevel(s string) (slog.Level, error) {
	if strings.TrimSpace(s) == "" {
		return slog.LevelInfo, nil
	}
	var level slog.Level
	if err := level.UnmarshalText([]byte(s)); err != nil {
		return 0, errors.Errorf("%w: %q", ErrUnknownLevel, s)
	}
	return level, nil
}

// NewLogger returns a tint logger writing to w. Attributes added to a
// context with slogctx.With are included in every record logged through
// that context.
func NewLogger(w io.Writer, opts Options) *slog.Logger {
	handler := tint.NewHandler(w, &tint.Options{
		Level:      opts.Level,
		TimeFormat: timeFormat,
		AddSource:  opts.AddSource,
		NoColor:    opts.NoColor,
	})
	return slog.New(slogctx.NewHandler(handler, nil))
}

// NewContext stores a logger built from opts in ctx.
func NewContext(ctx context.Context, w io.Writer, opts Options) context.Context {
	return slogctx.NewCtx(ctx, NewLogger(w, opts))
}
