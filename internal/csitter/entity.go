// Copyright (c) 2026 Petar Djukic. All rights reserved.
// SPDX-License-Identifier: MIT

package csitter

import (
	"fmt"
	"strings"

	"github.com/petar-djukic/cdecl/internal/frontend"
	"github.com/petar-djukic/cdecl/pkg/types"
)

// entity is a snapshot of one declaration. It holds no tree-sitter nodes,
// so it stays valid after the parse tree is released.
type entity struct {
	kind     frontend.EntityKind
	name     string
	children []frontend.Entity
	inMain   bool
	loc      *frontend.Location

	typ        *ctype
	underlying *ctype
	result     *ctype
	args       []frontend.Entity
	hasArgs    bool
	variadic   bool

	hasValue bool
	signed   int64
	unsigned uint64

	definition bool // tag declared with a body
}

var _ frontend.Entity = (*entity)(nil)

func (e *entity) Kind() frontend.EntityKind { return e.kind }

func (e *entity) Name() (string, bool) {
	return e.name, e.name != ""
}

func (e *entity) Children() []frontend.Entity { return e.children }
func (e *entity) IsInMainFile() bool          { return e.inMain }

func (e *entity) Location() (frontend.Location, bool) {
	if e.loc == nil {
		return frontend.Location{}, false
	}
	return *e.loc, true
}

func (e *entity) Type() (frontend.Type, bool) {
	return optType(e.typ)
}

func (e *entity) TypedefUnderlyingType() (frontend.Type, bool) {
	if e.kind != frontend.KindTypedefDecl {
		return nil, false
	}
	return optType(e.underlying)
}

func (e *entity) EnumUnderlyingType() (frontend.Type, bool) {
	if e.kind != frontend.KindEnumDecl {
		return nil, false
	}
	return optType(e.underlying)
}

func (e *entity) ResultType() (frontend.Type, bool) {
	return optType(e.result)
}

func (e *entity) Arguments() ([]frontend.Entity, bool) {
	return e.args, e.hasArgs
}

func (e *entity) IsVariadic() bool { return e.variadic }

func (e *entity) EnumConstantValue() (int64, uint64, bool) {
	return e.signed, e.unsigned, e.hasValue
}

func (e *entity) String() string {
	var b strings.Builder
	b.WriteString(e.kind.String())
	if e.name != "" {
		b.WriteString(" ")
		b.WriteString(e.name)
	}
	if e.typ != nil && e.kind != frontend.KindFunctionDecl {
		fmt.Fprintf(&b, " : %s", e.typ.DisplayName())
	}
	if e.loc != nil {
		fmt.Fprintf(&b, " (%s)", e.loc)
	}
	return b.String()
}

func (e *entity) append(children ...*entity) {
	for _, c := range children {
		e.children = append(e.children, c)
	}
}

func optType(t *ctype) (frontend.Type, bool) {
	if t == nil {
		return nil, false
	}
	return t, true
}

// tagKey identifies a named enum, struct, or union within a translation unit.
type tagKey struct {
	kind frontend.EntityKind
	name string
}

// symbols resolves tag and typedef names to their declaring entities. It is
// filled while the translation unit is built and read-only afterwards.
type symbols struct {
	tags     map[tagKey]*entity
	typedefs map[string]*entity
}

func newSymbols() *symbols {
	return &symbols{
		tags:     make(map[tagKey]*entity),
		typedefs: make(map[string]*entity),
	}
}

// declareTag records a tag declaration. Definitions replace forward
// declarations; the first definition wins.
func (s *symbols) declareTag(key tagKey, e *entity) {
	prev, ok := s.tags[key]
	if !ok || (e.definition && !prev.definition) {
		s.tags[key] = e
	}
}

// ctype is a C type built from declaration specifiers and declarators.
type ctype struct {
	kind  types.TypeKind
	name  string   // spelling of leaf kinds, e.g. "int", "struct Point"
	quals []string // const, volatile, restrict, _Atomic

	pointee *ctype // pointer

	elem *ctype // arrays
	size string

	ret      *ctype // functions
	params   []*ctype
	variadic bool

	syms   *symbols
	tag    *tagKey
	direct *entity
}

var _ frontend.Type = (*ctype)(nil)

func (t *ctype) Kind() types.TypeKind { return t.kind }

func (t *ctype) DisplayName() string { return t.spell("") }

func (t *ctype) Pointee() (frontend.Type, bool) {
	if t.kind != types.KindPointer || t.pointee == nil {
		return nil, false
	}
	return t.pointee, true
}

func (t *ctype) Declaration() (frontend.Entity, bool) {
	if t.direct != nil {
		return t.direct, true
	}
	if t.syms == nil {
		return nil, false
	}
	if t.tag != nil {
		if e, ok := t.syms.tags[*t.tag]; ok {
			return e, true
		}
		return nil, false
	}
	if t.kind == types.KindTypedef {
		if e, ok := t.syms.typedefs[t.name]; ok {
			return e, true
		}
	}
	return nil, false
}

func (t *ctype) qualified(quals []string) *ctype {
	if len(quals) == 0 {
		return t
	}
	cp := *t
	cp.quals = appendQuals(append([]string(nil), t.quals...), quals...)
	return &cp
}

func appendQuals(dst []string, quals ...string) []string {
	for _, q := range quals {
		dup := false
		for _, d := range dst {
			if d == q {
				dup = true
				break
			}
		}
		if !dup {
			dst = append(dst, q)
		}
	}
	return dst
}

func pointerTo(t *ctype, quals []string) *ctype {
	return &ctype{kind: types.KindPointer, pointee: t, quals: quals}
}

func arrayOf(t *ctype, size string) *ctype {
	kind := types.KindConstantArray
	switch {
	case size == "":
		kind = types.KindIncompleteArray
	case size == "*" || !isIntegerText(size):
		kind = types.KindVariableArray
	}
	return &ctype{kind: kind, elem: t, size: size}
}

// decay applies the parameter type adjustments: arrays become pointers to
// their element and functions become function pointers.
func (t *ctype) decay() *ctype {
	switch t.kind {
	case types.KindConstantArray, types.KindIncompleteArray, types.KindVariableArray:
		return pointerTo(t.elem, nil)
	case types.KindFunctionProto, types.KindFunctionNoProto:
		return pointerTo(t, nil)
	}
	return t
}

func (t *ctype) isArray() bool {
	return t.kind == types.KindConstantArray || t.kind == types.KindIncompleteArray || t.kind == types.KindVariableArray
}

func (t *ctype) isFunction() bool {
	return t.kind == types.KindFunctionProto || t.kind == types.KindFunctionNoProto
}

// spell renders the type the way a C compiler prints it, with inner as the
// partially built declarator text.
func (t *ctype) spell(inner string) string {
	switch {
	case t.kind == types.KindPointer:
		s := "*" + strings.Join(t.quals, " ")
		if inner != "" {
			if len(t.quals) > 0 {
				s += " "
			}
			s += inner
		}
		if t.pointee.isArray() || t.pointee.isFunction() {
			s = "(" + s + ")"
		}
		return t.pointee.spell(s)
	case t.isArray():
		return t.elem.spell(inner + "[" + t.size + "]")
	case t.isFunction():
		var params []string
		for _, p := range t.params {
			params = append(params, p.spell(""))
		}
		if t.variadic {
			params = append(params, "...")
		}
		if t.kind == types.KindFunctionProto && len(params) == 0 {
			params = append(params, "void")
		}
		return t.ret.spell(inner + "(" + strings.Join(params, ", ") + ")")
	}
	base := t.name
	if len(t.quals) > 0 {
		base = strings.Join(t.quals, " ") + " " + base
	}
	switch {
	case inner == "":
		return base
	case strings.HasPrefix(inner, "["):
		return base + inner
	default:
		return base + " " + inner
	}
}

func isIntegerText(s string) bool {
	if s == "" {
		return false
	}
	for _, r := range s {
		if (r < '0' || r > '9') && (r < 'a' || r > 'f') && (r < 'A' || r > 'F') && r != 'x' && r != 'X' && r != 'u' && r != 'U' && r != 'l' && r != 'L' {
			return false
		}
	}
	return s[0] >= '0' && s[0] <= '9'
}
