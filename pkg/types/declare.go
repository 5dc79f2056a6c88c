// Copyright (c) 2026 Petar Djukic. All rights reserved.
// SPDX-License-Identifier: MIT

package types

import "encoding/json"

// DeclKind identifies the variant of a type declaration.
type DeclKind int

const (
	DeclEnum DeclKind = iota
	DeclStruct
	DeclUnion
)

func (k DeclKind) String() string {
	switch k {
	case DeclEnum:
		return "enum"
	case DeclStruct:
		return "struct"
	case DeclUnion:
		return "union"
	default:
		return "unknown"
	}
}

// TypeDecl is a top-level type declaration: one of *EnumDeclare,
// *StructDeclare, or *UnionDeclare. The set is closed.
//
// Every TypeDecl in a SourceFile has a tag name, a typedef name, or both.
type TypeDecl interface {
	DeclKind() DeclKind
	TagName() string
	TypedefName() string
	SetTypedefName(name string)
	Loc() *SourceLocation
	isTypeDecl()
}

// Member is an entry of a struct or union body: either a *FieldDeclare or
// a nested *UnionDeclare (the anonymous-union-inside-struct idiom).
type Member interface {
	MemberName() string
	isMember()
}

// EnumConstantValue holds both readings of an enum constant. Signed is the
// two's-complement reading of the same bits as Unsigned, at the width of
// the enum's integer type.
type EnumConstantValue struct {
	Signed   int64  `json:"signed" yaml:"signed"`
	Unsigned uint64 `json:"unsigned" yaml:"unsigned"`
}

// EnumConstantDeclare is one enumerator of an enum.
type EnumConstantDeclare struct {
	Name     string             `json:"name" yaml:"name"`
	Value    *EnumConstantValue `json:"value,omitempty" yaml:"value,omitempty"`
	Location *SourceLocation    `json:"location,omitempty" yaml:"location,omitempty"`
}

// FieldDeclare is a struct or union field. Name is empty for unnamed
// bit-field padding.
type FieldDeclare struct {
	Name     string          `json:"name,omitempty" yaml:"name,omitempty"`
	Type     *TypeRef        `json:"type,omitempty" yaml:"type,omitempty"`
	Location *SourceLocation `json:"location,omitempty" yaml:"location,omitempty"`
}

func (f *FieldDeclare) MemberName() string { return f.Name }
func (*FieldDeclare) isMember() {}

// MarshalJSON encodes the field with a leading `kind: field` discriminator.
func (f *FieldDeclare) MarshalJSON() ([]byte, error) {
	type plain FieldDeclare
	return json.Marshal(struct {
		Kind string `json:"kind"`
		plain
	}{"field", plain(*f)})
}

// MarshalYAML is the YAML form of MarshalJSON.
func (f *FieldDeclare) MarshalYAML() (any, error) {
	type plain FieldDeclare
	return struct {
		Kind  string `yaml:"kind"`
		plain `yaml:",inline"`
	}{"field", plain(*f)}, nil
}

// ParameterDeclare is a named function parameter.
type ParameterDeclare struct {
	Name     string          `json:"name" yaml:"name"`
	Type     *TypeRef        `json:"type,omitempty" yaml:"type,omitempty"`
	Location *SourceLocation `json:"location,omitempty" yaml:"location,omitempty"`
}

// EnumDeclare is an enum declaration. Underlying is set only when the
// source fixes the integer type (`enum E : unsigned char`).
type EnumDeclare struct {
	Tag        string                 `json:"tag,omitempty" yaml:"tag,omitempty"`
	Typedef    string                 `json:"typedef,omitempty" yaml:"typedef,omitempty"`
	Underlying *TypeRef               `json:"underlying,omitempty" yaml:"underlying,omitempty"`
	Constants  []*EnumConstantDeclare `json:"constants" yaml:"constants"`
	Location   *SourceLocation        `json:"location,omitempty" yaml:"location,omitempty"`
}

// NewEnumDeclare returns an enum with no constants. Either name may be
// empty, but not both.
func NewEnumDeclare(tag, typedef string) *EnumDeclare {
	return &EnumDeclare{Tag: tag, Typedef: typedef, Constants: []*EnumConstantDeclare{}}
}

func (d *EnumDeclare) DeclKind() DeclKind { return DeclEnum }
func (d *EnumDeclare) TagName() string { return d.Tag }
func (d *EnumDeclare) TypedefName() string { return d.Typedef }
func (d *EnumDeclare) SetTypedefName(name string) { d.Typedef = name }
func (d *EnumDeclare) Loc() *SourceLocation { return d.Location }
func (*EnumDeclare) isTypeDecl() {}

// MarshalJSON encodes the enum with a leading `kind: enum` discriminator.
func (d *EnumDeclare) MarshalJSON() ([]byte, error) {
	type plain EnumDeclare
	return json.Marshal(struct {
		Kind string `json:"kind"`
		plain
	}{"enum", plain(*d)})
}

// MarshalYAML is the YAML form of MarshalJSON.
func (d *EnumDeclare) MarshalYAML() (any, error) {
	type plain EnumDeclare
	return struct {
		Kind  string `yaml:"kind"`
		plain `yaml:",inline"`
	}{"enum", plain(*d)}, nil
}

// StructDeclare is a struct declaration. Members keep declaration order.
type StructDeclare struct {
	Tag      string          `json:"tag,omitempty" yaml:"tag,omitempty"`
	Typedef  string          `json:"typedef,omitempty" yaml:"typedef,omitempty"`
	Members  []Member        `json:"members" yaml:"members"`
	Location *SourceLocation `json:"location,omitempty" yaml:"location,omitempty"`
}

// NewStructDeclare returns a struct with an empty body.
func NewStructDeclare(tag, typedef string) *StructDeclare {
	return &StructDeclare{Tag: tag, Typedef: typedef, Members: []Member{}}
}

func (d *StructDeclare) DeclKind() DeclKind { return DeclStruct }
func (d *StructDeclare) TagName() string { return d.Tag }
func (d *StructDeclare) TypedefName() string { return d.Typedef }
func (d *StructDeclare) SetTypedefName(name string) { d.Typedef = name }
func (d *StructDeclare) Loc() *SourceLocation { return d.Location }
func (*StructDeclare) isTypeDecl() {}

// MarshalJSON encodes the struct with a leading `kind: struct` discriminator.
func (d *StructDeclare) MarshalJSON() ([]byte, error) {
	type plain StructDeclare
	return json.Marshal(struct {
		Kind string `json:"kind"`
		plain
	}{"struct", plain(*d)})
}

// MarshalYAML is the YAML form of MarshalJSON.
func (d *StructDeclare) MarshalYAML() (any, error) {
	type plain StructDeclare
	return struct {
		Kind  string `yaml:"kind"`
		plain `yaml:",inline"`
	}{"struct", plain(*d)}, nil
}

// UnionDeclare is a union declaration, either top-level or nested inside
// a struct or union body.
type UnionDeclare struct {
	Tag      string          `json:"tag,omitempty" yaml:"tag,omitempty"`
	Typedef  string          `json:"typedef,omitempty" yaml:"typedef,omitempty"`
	Members  []Member        `json:"members" yaml:"members"`
	Location *SourceLocation `json:"location,omitempty" yaml:"location,omitempty"`
}

// NewUnionDeclare returns a union with an empty body.
func NewUnionDeclare(tag, typedef string) *UnionDeclare {
	return &UnionDeclare{Tag: tag, Typedef: typedef, Members: []Member{}}
}

func (d *UnionDeclare) DeclKind() DeclKind { return DeclUnion }
func (d *UnionDeclare) TagName() string { return d.Tag }
func (d *UnionDeclare) TypedefName() string { return d.Typedef }
func (d *UnionDeclare) SetTypedefName(name string) { d.Typedef = name }
func (d *UnionDeclare) Loc() *SourceLocation { return d.Location }
func (d *UnionDeclare) MemberName() string { return d.Tag }
func (*UnionDeclare) isTypeDecl() {}
func (*UnionDeclare) isMember() {}

// MarshalJSON encodes the union with a leading `kind: union` discriminator.
func (d *UnionDeclare) MarshalJSON() ([]byte, error) {
	type plain UnionDeclare
	return json.Marshal(struct {
		Kind string `json:"kind"`
		plain
	}{"union", plain(*d)})
}

// MarshalYAML is the YAML form of MarshalJSON.
func (d *UnionDeclare) MarshalYAML() (any, error) {
	type plain UnionDeclare
	return struct {
		Kind  string `yaml:"kind"`
		plain `yaml:",inline"`
	}{"union", plain(*d)}, nil
}

// FunctionDeclare is a function prototype or definition. ReturnType is nil
// only when the frontend could not resolve it; `void` is a KindVoid ref.
type FunctionDeclare struct {
	Name       string              `json:"name" yaml:"name"`
	ReturnType *TypeRef            `json:"return_type,omitempty" yaml:"return_type,omitempty"`
	Parameters []*ParameterDeclare `json:"parameters" yaml:"parameters"`
	Variadic   bool                `json:"variadic,omitempty" yaml:"variadic,omitempty"`
	Location   *SourceLocation     `json:"location,omitempty" yaml:"location,omitempty"`
}

// NewFunctionDeclare returns a function with no parameters and no
// return type.
func NewFunctionDeclare(name string) *FunctionDeclare {
	return &FunctionDeclare{Name: name, Parameters: []*ParameterDeclare{}}
}

// DisplayName returns the name a reader would use for the declaration:
// the typedef alias when there is one, otherwise `kind tag`.
func DisplayName(d TypeDecl) string {
	if d.TypedefName() != "" {
		return d.TypedefName()
	}
	return d.DeclKind().String() + " " + d.TagName()
}
