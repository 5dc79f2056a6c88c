// Copyright (c) 2026 Petar Djukic. All rights reserved.
// SPDX-License-Identifier: MIT

// Package frontend defines the capability surface cdecl needs from a C
// source frontend: a navigable tree of semantic entities with type and
// presumed location information.
package frontend

import (
	"context"
	"fmt"
	"strings"

	"github.com/petar-djukic/cdecl/pkg/types"
)

// EntityKind is the kind tag of an entity.
type EntityKind int

const (
	KindUnexposed EntityKind = iota
	KindTranslationUnit
	KindEnumDecl
	KindStructDecl
	KindUnionDecl
	KindTypedefDecl
	KindFunctionDecl
	KindFieldDecl
	KindParmDecl
	KindEnumConstantDecl
	KindVarDecl
)

func (k EntityKind) String() string {
	switch k {
	case KindTranslationUnit:
		return "TranslationUnit"
	case KindEnumDecl:
		return "EnumDecl"
	case KindStructDecl:
		return "StructDecl"
	case KindUnionDecl:
		return "UnionDecl"
	case KindTypedefDecl:
		return "TypedefDecl"
	case KindFunctionDecl:
		return "FunctionDecl"
	case KindFieldDecl:
		return "FieldDecl"
	case KindParmDecl:
		return "ParmDecl"
	case KindEnumConstantDecl:
		return "EnumConstantDecl"
	case KindVarDecl:
		return "VarDecl"
	default:
		return "UnexposedDecl"
	}
}

// IsTag reports whether the kind declares an enum, struct, or union tag.
func (k EntityKind) IsTag() bool {
	return k == KindEnumDecl || k == KindStructDecl || k == KindUnionDecl
}

// Location is a presumed source location.
type Location struct {
	File   string
	Line   uint32
	Column uint32
}

func (l Location) String() string {
	return fmt.Sprintf("%s:%d:%d", l.File, l.Line, l.Column)
}

// Entity is one node of the frontend's semantic tree. Accessors that do
// not apply to an entity's kind report false.
type Entity interface {
	Kind() EntityKind
	Name() (string, bool)
	Children() []Entity
	IsInMainFile() bool
	Location() (Location, bool)

	// Type is the declared type of fields, parameters, and typedefs.
	Type() (Type, bool)
	TypedefUnderlyingType() (Type, bool)
	EnumUnderlyingType() (Type, bool)
	ResultType() (Type, bool)
	Arguments() ([]Entity, bool)
	IsVariadic() bool
	EnumConstantValue() (signed int64, unsigned uint64, ok bool)

	String() string
}

// Type is a frontend type handle.
type Type interface {
	Kind() types.TypeKind
	DisplayName() string
	Pointee() (Type, bool)
	Declaration() (Entity, bool)
}

// Options carries the compile flags a frontend needs.
type Options struct {
	IncludeDirs []string
	Defines     map[string]string
}

// Frontend parses one translation unit into its root entity.
type Frontend interface {
	Parse(ctx context.Context, path string, opts Options) (Entity, error)
	ParseSource(ctx context.Context, path string, src []byte, opts Options) (Entity, error)
}

// Diagnostic is a single frontend message.
type Diagnostic struct {
	Location Location
	Message  string
}

func (d Diagnostic) String() string {
	return fmt.Sprintf("%s: error: %s", d.Location, d.Message)
}

// ParseError reports that a translation unit could not be parsed. Its
// diagnostics are the frontend's own and are passed through unchanged.
type ParseError struct {
	Path        string
	Diagnostics []Diagnostic
}

func (e *ParseError) Error() string {
	if len(e.Diagnostics) == 0 {
		return fmt.Sprintf("%s: parse failed", e.Path)
	}
	lines := make([]string, len(e.Diagnostics))
	for i, d := range e.Diagnostics {
		lines[i] = d.String()
	}
	return strings.Join(lines, "\n")
}
