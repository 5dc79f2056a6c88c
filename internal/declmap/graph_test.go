// Copyright (c) 2026 Petar Djukic. All rights reserved.
// SPDX-License-Identifier: MIT

package declmap

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/petar-djukic/cdecl/internal/ast"
	"github.com/petar-djukic/cdecl/pkg/types"
)

func ref(kind types.TypeKind, name string) *types.TypeRef {
	return &types.TypeRef{Kind: kind, Name: name}
}

func ptr(name string, pointee *types.TypeRef) *types.TypeRef {
	return &types.TypeRef{Kind: types.KindPointer, Name: name, Pointee: pointee}
}

// shapesFiles returns a header-like file declaring Point and a user of it.
func shapesFiles() []*types.SourceFile {
	geom := types.NewSourceFile("geometry.c")
	point := types.NewStructDeclare("Point", "Point")
	point.Location = &types.SourceLocation{Path: "geometry.c", Line: 1, Column: 16}
	point.Members = []types.Member{
		&types.FieldDeclare{Name: "x", Type: ref(types.KindInt, "int")},
		&types.FieldDeclare{Name: "y", Type: ref(types.KindInt, "int")},
	}
	node := types.NewStructDeclare("node", "")
	node.Location = &types.SourceLocation{Path: "geometry.c", Line: 2, Column: 8}
	node.Members = []types.Member{
		&types.FieldDeclare{Name: "next", Type: ptr("struct node *", ref(types.KindRecord, "struct node"))},
		&types.FieldDeclare{Name: "at", Type: ref(types.KindTypedef, "Point")},
	}
	geom.TypeDecls = append(geom.TypeDecls, point, node)

	app := types.NewSourceFile("app.c")
	move := types.NewFunctionDeclare("move")
	move.Location = &types.SourceLocation{Path: "app.c", Line: 3, Column: 6}
	move.ReturnType = ref(types.KindVoid, "void")
	move.Parameters = []*types.ParameterDeclare{
		{Name: "p", Type: ptr("Point *", ref(types.KindTypedef, "Point"))},
		{Name: "q", Type: ptr("const Point *", ref(types.KindTypedef, "const Point"))},
	}
	walk := types.NewFunctionDeclare("walk")
	walk.Location = &types.SourceLocation{Path: "app.c", Line: 4, Column: 5}
	walk.ReturnType = ref(types.KindInt, "int")
	walk.Parameters = []*types.ParameterDeclare{
		{Name: "n", Type: ptr("struct node *", ref(types.KindRecord, "struct node"))},
	}
	app.Functions = append(app.Functions, move, walk)
	return []*types.SourceFile{geom, app}
}

func TestBuildGraph_UsesLinkToDeclarations(t *testing.T) {
	g := BuildGraph(ast.BuildDeclTable(shapesFiles()))
	require.Len(t, g.Entries, 4)

	type link struct{ from, to, ref string }
	var got []link
	for _, e := range g.Edges {
		got = append(got, link{g.Entries[e.From].Name(), g.Entries[e.To].Name(), e.Reference})
	}
	assert.ElementsMatch(t, []link{
		{"struct node", "Point", "Point"},
		{"move", "Point", "Point"},
		{"walk", "struct node", "struct node"},
	}, got)
}

func TestBuildGraph_RepeatedUseAddsWeight(t *testing.T) {
	g := BuildGraph(ast.BuildDeclTable(shapesFiles()))
	for _, e := range g.Edges {
		if g.Entries[e.From].Name() == "move" {
			// Two parameters of a short name.
			assert.Equal(t, 2*shortNameWeight, e.Weight)
		}
	}
}

func TestBuildGraph_NoSelfEdges(t *testing.T) {
	list := types.NewStructDeclare("list", "")
	list.Members = []types.Member{
		&types.FieldDeclare{Name: "next", Type: ptr("struct list *", ref(types.KindRecord, "struct list"))},
	}
	sf := types.NewSourceFile("list.c")
	sf.TypeDecls = append(sf.TypeDecls, list)

	g := BuildGraph(ast.BuildDeclTable([]*types.SourceFile{sf}))
	assert.Empty(t, g.Edges, "self-references should not create edges")
}

func TestReferenceKey(t *testing.T) {
	tests := []struct {
		name string
		typ  *types.TypeRef
		want string
	}{
		{"typedef", ref(types.KindTypedef, "Point"), "Point"},
		{"qualified typedef", ref(types.KindTypedef, "const Point"), "Point"},
		{"tag", ref(types.KindRecord, "struct node"), "struct node"},
		{"qualified tag", ref(types.KindRecord, "volatile union U"), "union U"},
		{"pointer", ptr("struct node *", ref(types.KindRecord, "struct node")), "struct node"},
		{"array", ref(types.KindConstantArray, "Point[4]"), "Point"},
		{"builtin", ref(types.KindUInt, "unsigned int"), ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, referenceKey(tt.typ))
		})
	}
}

func TestIdentifierWeight(t *testing.T) {
	tests := []struct {
		name string
		want float64
	}{
		{"Rectangle", longNameWeight},
		{"Point", shortNameWeight},
		{"_private", underscoreWeight},
		{"listnode", longNameWeight}, // exactly threshold
		{"ab", shortNameWeight},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, identifierWeight(tt.name))
		})
	}
}

func TestCommonWeight(t *testing.T) {
	defs := map[string][]int{
		"size_t":      {0, 1, 2, 3, 4},
		"struct node": {5},
	}
	assert.Equal(t, commonFactor, commonWeight("size_t", defs))
	assert.Equal(t, 1.0, commonWeight("struct node", defs))
	assert.Equal(t, 1.0, commonWeight("missing", defs))
}
