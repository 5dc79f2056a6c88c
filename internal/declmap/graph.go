// Copyright (c) 2026 Petar Djukic. All rights reserved.
// SPDX-License-Identifier: MIT

// Package declmap ranks the declarations of many C files by how much the
// rest of the code depends on them, and renders the most central ones
// within a size budget.
package declmap

import (
	"strings"

	"github.com/petar-djukic/cdecl/internal/ast"
	"github.com/petar-djukic/cdecl/pkg/types"
)

const (
	longNameThreshold = 8
	longNameWeight    = 1.0
	shortNameWeight   = 0.5
	underscoreWeight  = 0.1
	commonThreshold   = 5
	commonFactor      = 0.1
)

// Edge is a directed use of one declaration by another: a field,
// parameter, return, or underlying type naming the target.
type Edge struct {
	From      int     // Index of the using entry
	To        int     // Index of the declaring entry
	Reference string  // Type name as spelled at the use
	Weight    float64 // Edge weight based on identifier quality
}

// Graph is a directed multigraph over the entries of a DeclTable.
type Graph struct {
	Entries []ast.Entry
	Edges   []Edge
	defs    map[string][]int // reference key -> declaring entries
}

// BuildGraph links every declaration to the type declarations it uses.
// A type declared under the same key in several files links to each.
func BuildGraph(dt *ast.DeclTable) *Graph {
	g := &Graph{
		Entries: dt.All(),
		defs:    make(map[string][]int),
	}

	for i, e := range g.Entries {
		if e.Decl == nil {
			continue
		}
		if tag := e.Decl.TagName(); tag != "" {
			key := e.Decl.DeclKind().String() + " " + tag
			g.defs[key] = append(g.defs[key], i)
		}
		if alias := e.Decl.TypedefName(); alias != "" {
			g.defs[alias] = append(g.defs[alias], i)
		}
	}

	type edgeKey struct {
		from, to int
		ref      string
	}
	edgeCounts := make(map[edgeKey]int)
	var order []edgeKey

	for i, e := range g.Entries {
		for _, t := range usedTypes(e) {
			key := referenceKey(t)
			if key == "" {
				continue
			}
			for _, to := range g.defs[key] {
				if to == i {
					continue // self-referential records
				}
				k := edgeKey{from: i, to: to, ref: key}
				if edgeCounts[k] == 0 {
					order = append(order, k)
				}
				edgeCounts[k]++
			}
		}
	}

	for _, k := range order {
		weight := float64(edgeCounts[k]) * identifierWeight(bareName(k.ref)) * commonWeight(k.ref, g.defs)
		g.Edges = append(g.Edges, Edge{From: k.from, To: k.to, Reference: k.ref, Weight: weight})
	}
	return g
}

// usedTypes lists the type references an entry depends on.
func usedTypes(e ast.Entry) []*types.TypeRef {
	var refs []*types.TypeRef
	if fn := e.Function; fn != nil {
		if fn.ReturnType != nil {
			refs = append(refs, fn.ReturnType)
		}
		for _, p := range fn.Parameters {
			if p.Type != nil {
				refs = append(refs, p.Type)
			}
		}
		return refs
	}
	switch d := e.Decl.(type) {
	case *types.EnumDeclare:
		if d.Underlying != nil {
			refs = append(refs, d.Underlying)
		}
	case *types.StructDeclare:
		refs = memberTypes(refs, d.Members)
	case *types.UnionDeclare:
		refs = memberTypes(refs, d.Members)
	}
	return refs
}

func memberTypes(refs []*types.TypeRef, members []types.Member) []*types.TypeRef {
	for _, m := range members {
		switch m := m.(type) {
		case *types.FieldDeclare:
			if m.Type != nil {
				refs = append(refs, m.Type)
			}
		case *types.UnionDeclare:
			refs = memberTypes(refs, m.Members)
		}
	}
	return refs
}

// referenceKey reduces a type to the key its declaration is indexed
// under: `struct Point` for tags, the alias for typedef names. Qualifiers,
// pointers, and array bounds are dropped.
func referenceKey(t *types.TypeRef) string {
	name := t.Leaf().Name
	if i := strings.IndexAny(name, "[("); i >= 0 {
		name = name[:i]
	}
	var words []string
	for _, w := range strings.Fields(strings.ReplaceAll(name, "*", " ")) {
		switch w {
		case "const", "volatile", "restrict", "_Atomic":
			continue
		}
		words = append(words, w)
	}
	switch {
	case len(words) == 2 && (words[0] == "struct" || words[0] == "union" || words[0] == "enum"):
		return words[0] + " " + words[1]
	case len(words) == 1:
		return words[0]
	}
	return ""
}

func bareName(key string) string {
	if i := strings.LastIndexByte(key, ' '); i >= 0 {
		return key[i+1:]
	}
	return key
}

// identifierWeight scores a type name based on length and prefix.
func identifierWeight(name string) float64 {
	if len(name) > 0 && name[0] == '_' {
		return underscoreWeight
	}
	if len(name) >= longNameThreshold {
		return longNameWeight
	}
	return shortNameWeight
}

// commonWeight reduces weight for names declared in many files.
func commonWeight(key string, defs map[string][]int) float64 {
	if len(defs[key]) >= commonThreshold {
		return commonFactor
	}
	return 1.0
}
