// Copyright (c) 2026 Petar Djukic. All rights reserved.
// SPDX-License-Identifier: MIT

// Package types defines the declaration model produced by cdecl: a
// self-contained tree of the enums, structs, unions, typedefs, and
// functions declared in one C source file.
package types

import (
	"fmt"
	"strings"

	"gitlab.com/tozd/go/errors"
)

// TypeKind identifies the category of a C type.
type TypeKind int

const (
	KindInvalid TypeKind = iota
	KindUnexposed
	KindVoid
	KindBool
	KindCharS // plain char (signed on the supported targets)
	KindSChar
	KindUChar
	KindShort
	KindUShort
	KindInt
	KindUInt
	KindLong
	KindULong
	KindLongLong
	KindULongLong
	KindInt128
	KindUInt128
	KindFloat
	KindDouble
	KindLongDouble
	KindComplex
	KindPointer
	KindRecord
	KindEnum
	KindTypedef
	KindConstantArray
	KindIncompleteArray
	KindVariableArray
	KindFunctionProto
	KindFunctionNoProto
)

var typeKindNames = [...]string{
	KindInvalid:         "invalid",
	KindUnexposed:       "unexposed",
	KindVoid:            "void",
	KindBool:            "bool",
	KindCharS:           "char_s",
	KindSChar:           "schar",
	KindUChar:           "uchar",
	KindShort:           "short",
	KindUShort:          "ushort",
	KindInt:             "int",
	KindUInt:            "uint",
	KindLong:            "long",
	KindULong:           "ulong",
	KindLongLong:        "longlong",
	KindULongLong:       "ulonglong",
	KindInt128:          "int128",
	KindUInt128:         "uint128",
	KindFloat:           "float",
	KindDouble:          "double",
	KindLongDouble:      "longdouble",
	KindComplex:         "complex",
	KindPointer:         "pointer",
	KindRecord:          "record",
	KindEnum:            "enum",
	KindTypedef:         "typedef",
	KindConstantArray:   "constant_array",
	KindIncompleteArray: "incomplete_array",
	KindVariableArray:   "variable_array",
	KindFunctionProto:   "function_proto",
	KindFunctionNoProto: "function_no_proto",
}

// String returns the lower-case name of the kind.
func (k TypeKind) String() string {
	if k < 0 || int(k) >= len(typeKindNames) {
		return "unknown"
	}
	return typeKindNames[k]
}

// ParseTypeKind is the inverse of String.
func ParseTypeKind(s string) (TypeKind, error) {
	for i, name := range typeKindNames {
		if name == s {
			return TypeKind(i), nil
		}
	}
	return KindInvalid, errors.Errorf("unknown type kind %q", s)
}

// IsPointer reports whether values of this kind carry a pointee.
func (k TypeKind) IsPointer() bool {
	return k == KindPointer
}

// IsInteger reports whether the kind is a builtin integer type.
func (k TypeKind) IsInteger() bool {
	return k >= KindBool && k <= KindUInt128
}

func (k TypeKind) MarshalText() ([]byte, error) {
	return []byte(k.String()), nil
}

func (k *TypeKind) UnmarshalText(text []byte) error {
	parsed, err := ParseTypeKind(string(text))
	if err != nil {
		return err
	}
	*k = parsed
	return nil
}

// TypeRef is an immutable snapshot of a C type. Pointer types own the type
// they point to, so `int **` is a chain of two pointer links ending in an
// `int` leaf.
type TypeRef struct {
	Kind    TypeKind `json:"kind" yaml:"kind"`
	Name    string   `json:"name" yaml:"name"`
	Pointee *TypeRef `json:"pointee,omitempty" yaml:"pointee,omitempty"`
}

// Depth returns the number of pointer links in the chain.
func (t *TypeRef) Depth() int {
	depth := 0
	for cur := t; cur != nil && cur.Pointee != nil; cur = cur.Pointee {
		depth++
	}
	return depth
}

// Leaf returns the last link of the pointee chain.
func (t *TypeRef) Leaf() *TypeRef {
	cur := t
	for cur != nil && cur.Pointee != nil {
		cur = cur.Pointee
	}
	return cur
}

func (t *TypeRef) String() string {
	if t == nil {
		return "<unresolved>"
	}
	var b strings.Builder
	b.WriteString(t.Name)
	b.WriteString(" (")
	for cur := t; cur != nil; cur = cur.Pointee {
		if cur != t {
			b.WriteString(" -> ")
		}
		b.WriteString(cur.Kind.String())
	}
	b.WriteString(")")
	return b.String()
}

// SourceLocation is a presumed source position: `#line` directives are
// honored, so Path and Line are what a reader of the original text expects.
type SourceLocation struct {
	Path   string `json:"path" yaml:"path"`
	Line   uint32 `json:"line" yaml:"line"`
	Column uint32 `json:"column" yaml:"column"`
}

func (l SourceLocation) String() string {
	return fmt.Sprintf("%s:%d:%d", l.Path, l.Line, l.Column)
}
