// Copyright (c) 2026 Petar Djukic. All rights reserved.
// SPDX-License-Identifier: MIT

package declmap

import (
	"math"
	"sort"

	"github.com/petar-djukic/cdecl/internal/ast"
)

const (
	defaultDamping    = 0.85
	defaultMaxIter    = 100
	defaultTolerance  = 1e-6
	personalizeFactor = 100.0
)

// RankConfig configures PageRank computation.
type RankConfig struct {
	Damping       float64  // Damping factor (default 0.85)
	MaxIterations int      // Maximum iterations (default 100)
	Tolerance     float64  // Convergence tolerance (default 1e-6)
	FocusFiles    []string // Files whose declarations get 100x personalization weight
}

// Ranked is a declaration with its PageRank score.
type Ranked struct {
	ast.Entry
	Score float64
}

// Rank runs PageRank over the graph and returns every entry, highest
// score first. Ties are broken by file, then by source line.
func Rank(g *Graph, cfg RankConfig) []Ranked {
	damping := cfg.Damping
	if damping == 0 {
		damping = defaultDamping
	}
	maxIter := cfg.MaxIterations
	if maxIter == 0 {
		maxIter = defaultMaxIter
	}
	tolerance := cfg.Tolerance
	if tolerance == 0 {
		tolerance = defaultTolerance
	}

	n := len(g.Entries)
	if n == 0 {
		return nil
	}

	focus := make(map[string]bool, len(cfg.FocusFiles))
	for _, f := range cfg.FocusFiles {
		focus[f] = true
	}
	personalization := make([]float64, n)
	total := 0.0
	for i, e := range g.Entries {
		personalization[i] = 1.0
		if focus[e.File] {
			personalization[i] = personalizeFactor
		}
		total += personalization[i]
	}
	for i := range personalization {
		personalization[i] /= total
	}

	type outEdge struct {
		to     int
		weight float64
	}
	outEdges := make([][]outEdge, n)
	outWeight := make([]float64, n)
	for _, e := range g.Edges {
		outEdges[e.From] = append(outEdges[e.From], outEdge{to: e.To, weight: e.Weight})
		outWeight[e.From] += e.Weight
	}

	rank := make([]float64, n)
	for i := range rank {
		rank[i] = 1.0 / float64(n)
	}

	next := make([]float64, n)
	for iter := 0; iter < maxIter; iter++ {
		for i := range next {
			next[i] = (1.0 - damping) * personalization[i]
		}
		for i := 0; i < n; i++ {
			if outWeight[i] == 0 {
				// Dangling: spread by personalization.
				for j := range next {
					next[j] += damping * rank[i] * personalization[j]
				}
				continue
			}
			for _, e := range outEdges[i] {
				next[e.to] += damping * rank[i] * (e.weight / outWeight[i])
			}
		}

		diff := 0.0
		for i := range rank {
			diff += math.Abs(next[i] - rank[i])
		}
		copy(rank, next)
		if diff < tolerance {
			break
		}
	}

	ranked := make([]Ranked, n)
	for i, e := range g.Entries {
		ranked[i] = Ranked{Entry: e, Score: rank[i]}
	}
	sort.SliceStable(ranked, func(i, j int) bool {
		if ranked[i].Score != ranked[j].Score {
			return ranked[i].Score > ranked[j].Score
		}
		if ranked[i].File != ranked[j].File {
			return ranked[i].File < ranked[j].File
		}
		return line(ranked[i].Entry) < line(ranked[j].Entry)
	})
	return ranked
}

func line(e ast.Entry) uint32 {
	if loc := e.Location(); loc != nil {
		return loc.Line
	}
	return 0
}
