// Copyright (c) 2026 Petar Djukic. All rights reserved.
// SPDX-License-Identifier: MIT

// Package render writes declaration models for people and tools: a C-like
// listing, JSON, YAML, a pretty-printed Go view, and line diffs.
package render

import (
	"fmt"
	"io"
	"strings"

	"github.com/petar-djukic/cdecl/pkg/types"
)

const indent = "    "

// Text writes sf as a C-like declaration listing.
func Text(w io.Writer, sf *types.SourceFile) error {
	_, err := io.WriteString(w, TextString(sf))
	return err
}

// TextString returns the C-like listing of sf. Type declarations come
// first, then functions, each in source order.
func TextString(sf *types.SourceFile) string {
	var b strings.Builder
	fmt.Fprintf(&b, "// %s\n", sf.Path)
	for _, d := range sf.TypeDecls {
		writeTypeDecl(&b, d)
	}
	if len(sf.TypeDecls) > 0 && len(sf.Functions) > 0 {
		b.WriteString("\n")
	}
	for _, fn := range sf.Functions {
		b.WriteString(Signature(fn))
		b.WriteString(";\n")
	}
	return b.String()
}

// Signature returns the C prototype of fn without a trailing semicolon.
func Signature(fn *types.FunctionDeclare) string {
	params := make([]string, 0, len(fn.Parameters)+1)
	for _, p := range fn.Parameters {
		params = append(params, declare(p.Type, p.Name))
	}
	if fn.Variadic {
		params = append(params, "...")
	}
	if len(params) == 0 {
		params = append(params, "void")
	}
	return fmt.Sprintf("%s(%s)", declare(fn.ReturnType, fn.Name), strings.Join(params, ", "))
}

// Header returns the one-line head of a type declaration, such as
// `typedef struct Point Point` or `enum Color`.
func Header(d types.TypeDecl) string {
	head := d.DeclKind().String()
	if d.TagName() != "" {
		head += " " + d.TagName()
	}
	if d.TypedefName() != "" {
		return "typedef " + head + " " + d.TypedefName()
	}
	return head
}

func writeTypeDecl(b *strings.Builder, d types.TypeDecl) {
	if d.TypedefName() != "" {
		b.WriteString("typedef ")
	}
	switch d := d.(type) {
	case *types.EnumDeclare:
		writeEnum(b, d)
	case *types.StructDeclare:
		writeRecord(b, "struct", d.Tag, d.Members, "")
	case *types.UnionDeclare:
		writeRecord(b, "union", d.Tag, d.Members, "")
	}
	if d.TypedefName() != "" {
		b.WriteString(" " + d.TypedefName())
	}
	b.WriteString(";\n")
}

func writeEnum(b *strings.Builder, d *types.EnumDeclare) {
	b.WriteString("enum")
	if d.Tag != "" {
		b.WriteString(" " + d.Tag)
	}
	if d.Underlying != nil {
		b.WriteString(" : " + d.Underlying.Name)
	}
	b.WriteString(" {\n")
	for _, c := range d.Constants {
		b.WriteString(indent + c.Name)
		if c.Value != nil {
			fmt.Fprintf(b, " = %d", c.Value.Signed)
		}
		b.WriteString(",\n")
	}
	b.WriteString("}")
}

func writeRecord(b *strings.Builder, keyword, tag string, members []types.Member, prefix string) {
	b.WriteString(keyword)
	if tag != "" {
		b.WriteString(" " + tag)
	}
	b.WriteString(" {\n")
	for _, m := range members {
		b.WriteString(prefix + indent)
		switch m := m.(type) {
		case *types.FieldDeclare:
			if m.Name == "" {
				b.WriteString(declare(m.Type, "") + " /* unnamed */")
			} else {
				b.WriteString(declare(m.Type, m.Name))
			}
		case *types.UnionDeclare:
			writeRecord(b, "union", m.Tag, m.Members, prefix+indent)
		}
		b.WriteString(";\n")
	}
	b.WriteString(prefix + "}")
}

// declare spells a declaration of name with type t, placing the name where
// C puts it: `int *p`, `int a[4]`, `void (*cb)(int)`.
func declare(t *types.TypeRef, name string) string {
	spelled := "<unresolved>"
	if t != nil {
		spelled = t.Name
	}
	if name == "" {
		return spelled
	}
	if i := strings.Index(spelled, "(*"); i >= 0 {
		j := i + 2
		for j < len(spelled) && spelled[j] == '*' {
			j++
		}
		return spelled[:j] + name + spelled[j:]
	}
	if i := strings.Index(spelled, "["); i >= 0 {
		head := strings.TrimRight(spelled[:i], " ")
		return joinName(head, name) + spelled[i:]
	}
	return joinName(spelled, name)
}

func joinName(head, name string) string {
	if strings.HasSuffix(head, "*") {
		return head + name
	}
	return head + " " + name
}
