// Copyright (c) 2026 Petar Djukic. All rights reserved.
// SPDX-License-Identifier: MIT

package declmap

import (
	"fmt"
	"strings"

	"github.com/petar-djukic/cdecl/internal/ast"
	"github.com/petar-djukic/cdecl/internal/render"
	"github.com/petar-djukic/cdecl/pkg/types"
)

const (
	defaultTokenRatio  = 0.25
	defaultTokenBudget = 1024
	maxLineLength      = 100
)

// RenderConfig configures map rendering.
type RenderConfig struct {
	TokenBudget float64 // Maximum tokens for the map (default 1024)
	TokenRatio  float64 // Tokens per character (default 0.25)
}

// Map is a rendered declaration map.
type Map struct {
	Text       string
	FileCount  int
	TotalFiles int
	DeclCount  int
	TotalDecls int
	TokensUsed float64
}

// Render groups ranked declarations by file, in order of each file's best
// declaration, and adds whole file sections until the budget is spent.
func Render(ranked []Ranked, totalFiles int, cfg RenderConfig) *Map {
	budget := cfg.TokenBudget
	if budget == 0 {
		budget = defaultTokenBudget
	}
	ratio := cfg.TokenRatio
	if ratio == 0 {
		ratio = defaultTokenRatio
	}

	var fileOrder []string
	byFile := make(map[string][]string)
	for _, r := range ranked {
		if _, ok := byFile[r.File]; !ok {
			fileOrder = append(fileOrder, r.File)
		}
		byFile[r.File] = append(byFile[r.File], Line(r.Entry))
	}

	var buf strings.Builder
	placeholder := strings.Repeat(" ", 80) + "\n"
	buf.WriteString(placeholder)

	used := float64(len(placeholder)) * ratio
	filesShown, declsShown := 0, 0
	for _, file := range fileOrder {
		var section strings.Builder
		section.WriteString(file + "\n")
		for _, l := range byFile[file] {
			l = "  " + l
			if len(l) > maxLineLength {
				l = l[:maxLineLength-3] + "..."
			}
			section.WriteString(l + "\n")
		}
		text := section.String()
		cost := float64(len(text)) * ratio
		if used+cost > budget {
			break
		}
		buf.WriteString(text)
		used += cost
		filesShown++
		declsShown += len(byFile[file])
	}

	header := fmt.Sprintf("Declaration map (%d/%d files, %d/%d declarations)", filesShown, totalFiles, declsShown, len(ranked))
	text := header + "\n" + buf.String()[len(placeholder):]

	return &Map{
		Text:       text,
		FileCount:  filesShown,
		TotalFiles: totalFiles,
		DeclCount:  declsShown,
		TotalDecls: len(ranked),
		TokensUsed: float64(len(text)) * ratio,
	}
}

// Line renders one entry as a single line: the head of a type declaration
// or a function prototype, with its source line when known.
func Line(e ast.Entry) string {
	var s string
	if e.Function != nil {
		s = render.Signature(e.Function)
	} else {
		s = render.Header(e.Decl)
	}
	if loc := e.Location(); loc != nil {
		s = fmt.Sprintf("%d: %s", loc.Line, s)
	}
	return s
}

// BuildMap runs the full pipeline over extracted files: index, link, rank,
// and render.
func BuildMap(files []*types.SourceFile, focus []string, budget float64) *Map {
	g := BuildGraph(ast.BuildDeclTable(files))
	ranked := Rank(g, RankConfig{FocusFiles: focus})
	return Render(ranked, len(files), RenderConfig{TokenBudget: budget})
}
