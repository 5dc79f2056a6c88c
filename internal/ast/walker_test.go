// Copyright (c) 2026 Petar Djukic. All rights reserved.
// SPDX-License-Identifier: MIT

package ast

import (
	"context"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gitlab.com/tozd/go/errors"

	"github.com/petar-djukic/cdecl/internal/csitter"
	"github.com/petar-djukic/cdecl/internal/frontend"
	"github.com/petar-djukic/cdecl/pkg/types"
)

// fakeEntity is a hand-built frontend entity for shapes the C frontend
// never produces.
type fakeEntity struct {
	kind       frontend.EntityKind
	name       string
	children   []frontend.Entity
	notMain    bool
	typ        frontend.Type
	underlying frontend.Type
	args       []frontend.Entity
}

func (f *fakeEntity) Kind() frontend.EntityKind { return f.kind }
func (f *fakeEntity) Name() (string, bool) { return f.name, f.name != "" }
func (f *fakeEntity) Children() []frontend.Entity { return f.children }
func (f *fakeEntity) IsInMainFile() bool { return !f.notMain }
func (f *fakeEntity) Location() (frontend.Location, bool) {
	return frontend.Location{File: "fake.c", Line: 1, Column: 1}, true
}
func (f *fakeEntity) Type() (frontend.Type, bool) { return f.typ, f.typ != nil }
func (f *fakeEntity) TypedefUnderlyingType() (frontend.Type, bool) {
	return f.underlying, f.underlying != nil
}
func (f *fakeEntity) EnumUnderlyingType() (frontend.Type, bool) { return nil, false }
func (f *fakeEntity) ResultType() (frontend.Type, bool) { return nil, false }
func (f *fakeEntity) Arguments() ([]frontend.Entity, bool) { return f.args, f.args != nil }
func (f *fakeEntity) IsVariadic() bool { return false }
func (f *fakeEntity) EnumConstantValue() (int64, uint64, bool) { return 0, 0, false }
func (f *fakeEntity) String() string { return fmt.Sprintf("%s %s", f.kind, f.name) }

type fakeType struct {
	kind    types.TypeKind
	name    string
	pointee frontend.Type
	decl    frontend.Entity
}

func (f *fakeType) Kind() types.TypeKind { return f.kind }
func (f *fakeType) DisplayName() string { return f.name }
func (f *fakeType) Pointee() (frontend.Type, bool) { return f.pointee, f.pointee != nil }
func (f *fakeType) Declaration() (frontend.Entity, bool) {
	return f.decl, f.decl != nil
}

func translationUnit(children ...frontend.Entity) *fakeEntity {
	return &fakeEntity{kind: frontend.KindTranslationUnit, name: "fake.c", children: children}
}

func parseC(t *testing.T, src string, files map[string]string) frontend.Entity {
	t.Helper()
	root := t.TempDir()
	for rel, content := range files {
		writeFixture(t, root, rel, content)
	}
	writeFixture(t, root, "main.c", src)
	tu, err := csitter.NewIndex().Parse(context.Background(), root+"/main.c", frontend.Options{})
	require.NoError(t, err)
	return tu
}

func walkC(t *testing.T, src string, policy MergePolicy) *types.SourceFile {
	t.Helper()
	sf, err := Walk(context.Background(), parseC(t, src, nil), WalkOptions{MergePolicy: policy})
	require.NoError(t, err)
	require.NotNil(t, sf)
	return sf
}

func walkErr(t *testing.T, tu frontend.Entity) *InvariantError {
	t.Helper()
	sf, err := Walk(context.Background(), tu, WalkOptions{})
	require.Error(t, err)
	assert.Nil(t, sf, "no partial model on invariant violation")
	assert.True(t, errors.Is(err, ErrInvariant))
	var inv *InvariantError
	require.True(t, errors.As(err, &inv))
	return inv
}

func declSummary(sf *types.SourceFile) []string {
	out := make([]string, len(sf.TypeDecls))
	for i, d := range sf.TypeDecls {
		out[i] = fmt.Sprintf("%s tag=%q alias=%q", d.DeclKind(), d.TagName(), d.TypedefName())
	}
	return out
}

func TestWalk_Scoping(t *testing.T) {
	tu := parseC(t, "#include \"shapes.h\"\nstruct Local { int v; };\nvoid draw(struct Shape *s);\n", map[string]string{
		"shapes.h": "struct Shape { int sides; };\ntypedef struct Shape Shape;\nint area(struct Shape *s);\n",
	})

	sf, err := Walk(context.Background(), tu, WalkOptions{})
	require.NoError(t, err)

	assert.Equal(t, []string{`struct tag="Local" alias=""`}, declSummary(sf))
	require.Len(t, sf.Functions, 1)
	assert.Equal(t, "draw", sf.Functions[0].Name)
	assert.Nil(t, sf.FindTag(types.DeclStruct, "Shape"))
	assert.Nil(t, sf.FindFunction("area"))
}

func TestWalk_TypedefMerge(t *testing.T) {
	tests := []struct {
		name   string
		src    string
		policy MergePolicy
		want   []string
	}{
		{
			name: "same-named tag and alias merge",
			src:  "typedef struct Point { int x; int y; } Point;\n",
			want: []string{`struct tag="Point" alias="Point"`},
		},
		{
			name: "anonymous struct typedef",
			src:  "typedef struct { int x; } Vec2;\n",
			want: []string{`struct tag="" alias="Vec2"`},
		},
		{
			name:   "order preserved on merge by tag",
			src:    "struct A;\nstruct B;\ntypedef struct A TA;\n",
			policy: MergeByTag,
			want:   []string{`struct tag="A" alias="TA"`, `struct tag="B" alias=""`},
		},
		{
			name:   "merge by name keeps a separate alias node",
			src:    "struct A;\nstruct B;\ntypedef struct A TA;\n",
			policy: MergeByName,
			want:   []string{`struct tag="A" alias=""`, `struct tag="B" alias=""`, `struct tag="" alias="TA"`},
		},
		{
			name:   "second alias of an aliased tag gets its own node",
			src:    "struct A { int a; };\ntypedef struct A TA;\ntypedef struct A TB;\n",
			policy: MergeByTag,
			want:   []string{`struct tag="A" alias="TA"`, `struct tag="" alias="TB"`},
		},
		{
			name: "enum and union aliases",
			src:  "typedef enum Mode { ON, OFF } Mode;\ntypedef union { int i; float f; } Num;\n",
			want: []string{`enum tag="Mode" alias="Mode"`, `union tag="" alias="Num"`},
		},
		{
			name: "typedefs of builtins and pointers are skipped",
			src:  "typedef int myint;\ntypedef char *str;\ntypedef void (*cb)(int);\n",
			want: []string{},
		},
		{
			name: "bare anonymous struct is skipped",
			src:  "struct { int x; };\nstruct Named { int y; };\n",
			want: []string{`struct tag="Named" alias=""`},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			sf := walkC(t, tt.src, tt.policy)
			assert.Equal(t, tt.want, declSummary(sf))
		})
	}
}

func TestWalk_AliasNodeCarriesBody(t *testing.T) {
	sf := walkC(t, "typedef struct {\n  int x;\n  float y;\n} Vec2;\n", MergeByTag)

	require.Len(t, sf.TypeDecls, 1)
	vec, ok := sf.TypeDecls[0].(*types.StructDeclare)
	require.True(t, ok)
	require.Len(t, vec.Members, 2)
	assert.Equal(t, "x", vec.Members[0].MemberName())
	assert.Equal(t, "y", vec.Members[1].MemberName())
	require.NotNil(t, vec.Location)
	assert.Equal(t, uint32(1), vec.Location.Line)
	assert.Equal(t, uint32(9), vec.Location.Column)
}

func TestWalk_PointerChain(t *testing.T) {
	sf := walkC(t, "void f(int **p);\n", MergeByTag)

	fn := sf.FindFunction("f")
	require.NotNil(t, fn)
	require.Len(t, fn.Parameters, 1)
	p := fn.Parameters[0]
	assert.Equal(t, "p", p.Name)
	require.NotNil(t, p.Type)
	assert.Equal(t, "int **", p.Type.Name)
	assert.Equal(t, 2, p.Type.Depth())
	assert.Equal(t, types.KindPointer, p.Type.Kind)
	assert.Equal(t, types.KindPointer, p.Type.Pointee.Kind)
	leaf := p.Type.Leaf()
	assert.Equal(t, types.KindInt, leaf.Kind)
	assert.Nil(t, leaf.Pointee)
}

func TestWalk_EnumConstantDuality(t *testing.T) {
	sf := walkC(t, "enum Flags { NONE = 0, ALL = -1 };\n", MergeByTag)

	flags, ok := sf.FindTag(types.DeclEnum, "Flags").(*types.EnumDeclare)
	require.True(t, ok)
	assert.Nil(t, flags.Underlying)
	require.Len(t, flags.Constants, 2)
	all := flags.Constants[1]
	require.NotNil(t, all.Value)
	assert.Equal(t, int64(-1), all.Value.Signed)
	assert.Equal(t, uint64(0xFFFFFFFF), all.Value.Unsigned)
	require.NotNil(t, all.Location)
	assert.Equal(t, uint32(1), all.Location.Line)
}

func TestWalk_EndToEnd(t *testing.T) {
	sf := walkC(t, "enum Color { RED, GREEN=5 }; void f(enum Color c);\n", MergeByTag)

	require.Len(t, sf.TypeDecls, 1)
	color, ok := sf.TypeDecls[0].(*types.EnumDeclare)
	require.True(t, ok)
	assert.Equal(t, "Color", color.Tag)
	assert.Empty(t, color.Typedef)
	require.Len(t, color.Constants, 2)
	assert.Equal(t, "RED", color.Constants[0].Name)
	assert.Equal(t, &types.EnumConstantValue{Signed: 0, Unsigned: 0}, color.Constants[0].Value)
	assert.Equal(t, "GREEN", color.Constants[1].Name)
	assert.Equal(t, &types.EnumConstantValue{Signed: 5, Unsigned: 5}, color.Constants[1].Value)

	require.Len(t, sf.Functions, 1)
	fn := sf.Functions[0]
	assert.Equal(t, "f", fn.Name)
	require.NotNil(t, fn.ReturnType)
	assert.Equal(t, types.KindVoid, fn.ReturnType.Kind)
	assert.Equal(t, "void", fn.ReturnType.Name)
	require.Len(t, fn.Parameters, 1)
	assert.Equal(t, "c", fn.Parameters[0].Name)
	assert.Equal(t, &types.TypeRef{Kind: types.KindEnum, Name: "enum Color"}, fn.Parameters[0].Type)
}

func TestWalk_Members(t *testing.T) {
	src := `struct Packet {
  unsigned int flags : 4;
  int : 4;
  union {
    int i;
    float f;
  };
  const char *name;
};
`
	sf := walkC(t, src, MergeByTag)

	pkt, ok := sf.FindTag(types.DeclStruct, "Packet").(*types.StructDeclare)
	require.True(t, ok)
	require.Len(t, pkt.Members, 4)

	flags, ok := pkt.Members[0].(*types.FieldDeclare)
	require.True(t, ok)
	assert.Equal(t, "flags", flags.Name)

	pad, ok := pkt.Members[1].(*types.FieldDeclare)
	require.True(t, ok)
	assert.Empty(t, pad.Name, "unnamed bit-field keeps an empty name")

	u, ok := pkt.Members[2].(*types.UnionDeclare)
	require.True(t, ok)
	assert.Empty(t, u.Tag)
	require.Len(t, u.Members, 2)
	assert.Equal(t, "i", u.Members[0].MemberName())

	name, ok := pkt.Members[3].(*types.FieldDeclare)
	require.True(t, ok)
	assert.Equal(t, "const char *", name.Type.Name)
	assert.Equal(t, 1, name.Type.Depth())
}

func TestWalk_Functions(t *testing.T) {
	sf := walkC(t, "int printf(const char *fmt, ...);\nvoid reset(void);\nint twice(int x) { return 2 * x; }\n", MergeByTag)

	require.Len(t, sf.Functions, 3)
	printf := sf.Functions[0]
	assert.True(t, printf.Variadic)
	require.Len(t, printf.Parameters, 1)
	assert.Equal(t, "fmt", printf.Parameters[0].Name)

	reset := sf.Functions[1]
	assert.False(t, reset.Variadic)
	assert.Empty(t, reset.Parameters)

	twice := sf.Functions[2]
	assert.Equal(t, "int", twice.ReturnType.Name)
	require.NotNil(t, twice.Location)
	assert.Equal(t, uint32(3), twice.Location.Line)
}

func TestWalk_InvariantViolations(t *testing.T) {
	t.Run("unnamed parameter", func(t *testing.T) {
		inv := walkErr(t, parseC(t, "struct S { int a; };\nvoid f(int);\n", nil))
		assert.Equal(t, ReasonUnnamedParameter, inv.Reason)
		require.NotNil(t, inv.Location)
		assert.Equal(t, uint32(2), inv.Location.Line)
	})

	t.Run("variable at file scope", func(t *testing.T) {
		inv := walkErr(t, parseC(t, "int counter;\n", nil))
		assert.Equal(t, ReasonUnexpectedTopLevel, inv.Reason)
		assert.Contains(t, inv.Error(), "VarDecl")
	})

	t.Run("root is not a translation unit", func(t *testing.T) {
		inv := walkErr(t, &fakeEntity{kind: frontend.KindStructDecl, name: "S"})
		assert.Equal(t, ReasonKindMismatch, inv.Reason)
	})

	t.Run("unnamed function", func(t *testing.T) {
		inv := walkErr(t, translationUnit(&fakeEntity{kind: frontend.KindFunctionDecl, args: []frontend.Entity{}}))
		assert.Equal(t, ReasonUnnamedFunction, inv.Reason)
	})

	t.Run("typedef of a typedef declaration", func(t *testing.T) {
		inner := &fakeEntity{kind: frontend.KindTypedefDecl, name: "Inner"}
		outer := &fakeEntity{
			kind:       frontend.KindTypedefDecl,
			name:       "Outer",
			underlying: &fakeType{kind: types.KindTypedef, name: "Inner", decl: inner},
		}
		inv := walkErr(t, translationUnit(outer))
		assert.Equal(t, ReasonUnsupportedTypedefTarget, inv.Reason)
	})

	t.Run("same-named typedef of a typedef merges before the target check", func(t *testing.T) {
		inner := &fakeEntity{kind: frontend.KindTypedefDecl, name: "Inner"}
		tests := []struct {
			name    string
			typedef string
			merged  bool
		}{
			{"name matches a tag", "Point", true},
			{"name matches nothing", "Other", false},
		}
		for _, tt := range tests {
			t.Run(tt.name, func(t *testing.T) {
				tu := translationUnit(
					&fakeEntity{kind: frontend.KindStructDecl, name: "Point"},
					&fakeEntity{
						kind:       frontend.KindTypedefDecl,
						name:       tt.typedef,
						underlying: &fakeType{kind: types.KindTypedef, name: "Inner", decl: inner},
					},
				)
				if !tt.merged {
					assert.Equal(t, ReasonUnsupportedTypedefTarget, walkErr(t, tu).Reason)
					return
				}
				sf, err := Walk(context.Background(), tu, WalkOptions{})
				require.NoError(t, err)
				assert.Equal(t, []string{`struct tag="Point" alias="Point"`}, declSummary(sf))
			})
		}
	})

	t.Run("unexpected struct member", func(t *testing.T) {
		s := &fakeEntity{kind: frontend.KindStructDecl, name: "S", children: []frontend.Entity{
			&fakeEntity{kind: frontend.KindStructDecl, name: "Nested"},
		}}
		inv := walkErr(t, translationUnit(s))
		assert.Equal(t, ReasonUnexpectedMember, inv.Reason)
	})

	t.Run("unnamed enum constant", func(t *testing.T) {
		e := &fakeEntity{kind: frontend.KindEnumDecl, name: "E", children: []frontend.Entity{
			&fakeEntity{kind: frontend.KindEnumConstantDecl},
		}}
		inv := walkErr(t, translationUnit(e))
		assert.Equal(t, ReasonUnnamedEnumConstant, inv.Reason)
	})

	t.Run("header entities are never dispatched", func(t *testing.T) {
		sf, err := Walk(context.Background(), translationUnit(
			&fakeEntity{kind: frontend.KindVarDecl, name: "hidden", notMain: true},
		), WalkOptions{})
		require.NoError(t, err)
		assert.Empty(t, sf.TypeDecls)
		assert.Empty(t, sf.Functions)
	})
}

func TestPopulate_KindMismatch(t *testing.T) {
	enum := &fakeEntity{kind: frontend.KindEnumDecl, name: "E"}

	tests := []struct {
		name string
		run  func() error
	}{
		{"struct", func() error { return populateStruct(types.NewStructDeclare("S", ""), enum) }},
		{"union", func() error { return populateUnion(types.NewUnionDeclare("U", ""), enum) }},
		{"field", func() error { return populateField(&types.FieldDeclare{}, enum) }},
		{"parameter", func() error { return populateParameter(&types.ParameterDeclare{}, enum) }},
		{"function", func() error { return populateFunction(types.NewFunctionDeclare(""), enum) }},
		{"enum constant", func() error { return populateEnumConstant(&types.EnumConstantDeclare{}, enum) }},
		{"enum", func() error {
			return populateEnum(types.NewEnumDeclare("E", ""), &fakeEntity{kind: frontend.KindStructDecl})
		}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.run()
			require.Error(t, err)
			var inv *InvariantError
			require.True(t, errors.As(err, &inv))
			assert.Equal(t, ReasonKindMismatch, inv.Reason)
		})
	}
}

func TestPopulate_FieldWithoutType(t *testing.T) {
	f := &types.FieldDeclare{}
	require.NoError(t, populateField(f, &fakeEntity{kind: frontend.KindFieldDecl, name: "x"}))
	assert.Equal(t, "x", f.Name)
	assert.Nil(t, f.Type)
	assert.Equal(t, &types.SourceLocation{Path: "fake.c", Line: 1, Column: 1}, f.Location)
}

func TestCaptureType(t *testing.T) {
	intType := &fakeType{kind: types.KindInt, name: "int"}
	ptr := &fakeType{kind: types.KindPointer, name: "int *", pointee: intType}
	arr := &fakeType{kind: types.KindConstantArray, name: "int *[4]", pointee: ptr}

	assert.Nil(t, captureType(nil))
	assert.Equal(t, &types.TypeRef{Kind: types.KindPointer, Name: "int *", Pointee: &types.TypeRef{Kind: types.KindInt, Name: "int"}}, captureType(ptr))
	assert.Nil(t, captureType(arr).Pointee, "only pointers carry a pointee")
	assert.Nil(t, captureOptionalType(ptr, false))
}

func TestParseMergePolicy(t *testing.T) {
	tests := []struct {
		in      string
		want    MergePolicy
		wantErr bool
	}{
		{"", MergeByTag, false},
		{"tag", MergeByTag, false},
		{"name", MergeByName, false},
		{"structural", "", true},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := ParseMergePolicy(tt.in)
			if tt.wantErr {
				assert.True(t, errors.Is(err, ErrUnknownMergePolicy))
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestInvariantError_Message(t *testing.T) {
	err := &InvariantError{
		Reason:   ReasonUnnamedParameter,
		Entity:   "ParmDecl",
		Location: &types.SourceLocation{Path: "a.c", Line: 3, Column: 12},
		Detail:   "in f",
	}
	assert.Equal(t, "a.c:3:12: parameter without a name: ParmDecl (in f)", err.Error())
}
