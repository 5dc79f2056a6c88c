// Copyright (c) 2026 Petar Djukic. All rights reserved.
// SPDX-License-Identifier: MIT

package csitter

import (
	"fmt"
	"strings"

	sitter "github.com/smacker/go-tree-sitter"
	slogctx "github.com/veqryn/slog-context"
	"gitlab.com/tozd/go/errors"

	"github.com/petar-djukic/cdecl/internal/frontend"
	"github.com/petar-djukic/cdecl/pkg/types"
)

// topLevel turns one file-scope item into entities of the translation unit.
func (u *unit) topLevel(src *source, n *sitter.Node) error {
	switch n.Type() {
	case "preproc_include":
		return u.include(src, n)
	case "declaration":
		return u.declaration(src, n)
	case "type_definition":
		return u.typeDefinition(src, n)
	case "function_definition":
		return u.functionDefinition(src, n)
	case "struct_specifier", "union_specifier", "enum_specifier":
		_, tag, err := u.tagSpecifier(src, n, tagForward)
		if tag != nil {
			u.root.append(tag)
		}
		return err
	case "expression_statement":
		if strings.TrimSpace(n.Content(src.content)) == ";" {
			return nil
		}
	}
	u.root.append(&entity{kind: frontend.KindUnexposed, inMain: src.main, loc: u.loc(src, n)})
	return nil
}

func (u *unit) declaration(src *source, n *sitter.Node) error {
	declarators := declaratorNodes(n)
	use := tagImplicit
	if len(declarators) == 0 {
		use = tagForward
	}
	base, tag, err := u.specifier(src, n.ChildByFieldName("type"), qualifiers(src, n), use)
	if err != nil {
		return err
	}
	if tag != nil {
		u.root.append(tag)
	}
	for _, d := range declarators {
		decl, err := u.declarator(src, base, d)
		if err != nil {
			return err
		}
		if decl.isFunc {
			u.root.append(u.function(src, n, decl))
			continue
		}
		u.root.append(&entity{
			kind:   frontend.KindVarDecl,
			name:   decl.nameText(src),
			inMain: src.main,
			loc:    u.loc(src, decl.at(n)),
			typ:    decl.typ,
		})
	}
	return nil
}

func (u *unit) functionDefinition(src *source, n *sitter.Node) error {
	base, tag, err := u.specifier(src, n.ChildByFieldName("type"), qualifiers(src, n), tagImplicit)
	if err != nil {
		return err
	}
	if tag != nil {
		u.root.append(tag)
	}
	decl, err := u.declarator(src, base, n.ChildByFieldName("declarator"))
	if err != nil {
		return err
	}
	if !decl.isFunc {
		u.root.append(&entity{kind: frontend.KindUnexposed, inMain: src.main, loc: u.loc(src, n)})
		return nil
	}
	u.root.append(u.function(src, n, decl))
	return nil
}

func (u *unit) function(src *source, n *sitter.Node, decl declared) *entity {
	fn := &entity{
		kind:     frontend.KindFunctionDecl,
		name:     decl.nameText(src),
		inMain:   src.main,
		loc:      u.loc(src, decl.at(n)),
		typ:      decl.typ,
		result:   decl.typ.ret,
		hasArgs:  true,
		variadic: decl.typ.variadic,
	}
	for _, p := range decl.params {
		fn.args = append(fn.args, p)
		fn.children = append(fn.children, p)
	}
	if fn.args == nil {
		fn.args = []frontend.Entity{}
	}
	return fn
}

// typeDefinition emits one TypedefDecl per declarator, preceded by the tag
// declaration when the typedef defines one inline.
func (u *unit) typeDefinition(src *source, n *sitter.Node) error {
	base, tag, err := u.specifier(src, n.ChildByFieldName("type"), qualifiers(src, n), tagImplicit)
	if err != nil {
		return err
	}
	if tag != nil {
		u.root.append(tag)
	}
	for _, d := range declaratorNodes(n) {
		decl, err := u.declarator(src, base, d)
		if err != nil {
			return err
		}
		name := decl.nameText(src)
		td := &entity{
			kind:       frontend.KindTypedefDecl,
			name:       name,
			inMain:     src.main,
			loc:        u.loc(src, decl.at(n)),
			typ:        &ctype{kind: types.KindTypedef, name: name, syms: u.syms},
			underlying: decl.typ,
		}
		if _, ok := u.syms.typedefs[name]; !ok && name != "" {
			u.syms.typedefs[name] = td
		}
		u.root.append(td)
	}
	return nil
}

// tagUse says whether a bodiless tag specifier declares its tag.
type tagUse int

const (
	tagReference tagUse = iota // never declares
	tagImplicit                // declares the tag at file scope if it is not yet known
	tagForward                 // `struct A;` always declares
)

// tagSpecifier builds the type named by a struct, union, or enum specifier.
// A specifier with a body, or one that declares its tag per use, also
// yields the tag's declaring entity.
func (u *unit) tagSpecifier(src *source, n *sitter.Node, use tagUse) (*ctype, *entity, error) {
	var kind frontend.EntityKind
	var typeKind types.TypeKind
	var keyword string
	switch n.Type() {
	case "struct_specifier":
		kind, typeKind, keyword = frontend.KindStructDecl, types.KindRecord, "struct"
	case "union_specifier":
		kind, typeKind, keyword = frontend.KindUnionDecl, types.KindRecord, "union"
	default:
		kind, typeKind, keyword = frontend.KindEnumDecl, types.KindEnum, "enum"
	}

	nameNode := n.ChildByFieldName("name")
	body := n.ChildByFieldName("body")
	var name string
	if nameNode != nil {
		name = nameNode.Content(src.content)
	}
	key := tagKey{kind: kind, name: name}
	t := &ctype{kind: typeKind, name: keyword + " " + name, syms: u.syms, tag: &key}

	_, known := u.syms.tags[key]
	declares := nameNode != nil && (use == tagForward || (use == tagImplicit && !known))
	if body == nil && !declares {
		if nameNode == nil {
			return &ctype{kind: types.KindUnexposed, name: keyword}, nil, nil
		}
		return t, nil, nil
	}

	at := n
	if nameNode != nil {
		at = nameNode
	}
	e := &entity{kind: kind, name: name, inMain: src.main, loc: u.loc(src, at), definition: body != nil}
	if nameNode != nil {
		u.syms.declareTag(key, e)
	} else {
		t = &ctype{
			kind:   typeKind,
			name:   fmt.Sprintf("%s (unnamed at %s)", keyword, e.loc),
			direct: e,
		}
	}

	var err error
	switch {
	case body == nil:
	case kind == frontend.KindEnumDecl:
		err = u.enumerators(src, n, body, e)
	default:
		err = u.members(src, body, e)
	}
	return t, e, err
}

func (u *unit) members(src *source, body *sitter.Node, owner *entity) error {
	return u.items(src, body, nil, func(n *sitter.Node) error {
		switch n.Type() {
		case "field_declaration":
			return u.field(src, n, owner)
		case "preproc_include":
			slogctx.Debug(u.ctx, "ignoring include inside a record body", "file", src.file)
			return nil
		}
		owner.append(&entity{kind: frontend.KindUnexposed, inMain: src.main, loc: u.loc(src, n)})
		return nil
	})
}

func (u *unit) field(src *source, n *sitter.Node, owner *entity) error {
	declarators := declaratorNodes(n)
	base, tag, err := u.specifier(src, n.ChildByFieldName("type"), qualifiers(src, n), tagReference)
	if err != nil {
		return err
	}
	if tag != nil {
		owner.append(tag)
	}
	if len(declarators) == 0 {
		if tag == nil {
			// unnamed bit-field
			owner.append(&entity{kind: frontend.KindFieldDecl, inMain: src.main, loc: u.loc(src, n), typ: base})
		}
		return nil
	}
	for _, d := range declarators {
		decl, err := u.declarator(src, base, d)
		if err != nil {
			return err
		}
		owner.append(&entity{
			kind:   frontend.KindFieldDecl,
			name:   decl.nameText(src),
			inMain: src.main,
			loc:    u.loc(src, decl.at(n)),
			typ:    decl.typ,
		})
	}
	return nil
}

// enumerators builds the constants of an enum. Implicit values continue
// from the previous constant; a value that cannot be folded stays absent.
func (u *unit) enumerators(src *source, spec, body *sitter.Node, e *entity) error {
	var fixed *ctype
	if base, ok := src.enumBases[spec.StartByte()]; ok {
		fixed = u.namedType(base)
		e.underlying = fixed
	}

	var constants []*entity
	var values []int64
	next, nextKnown := int64(0), true
	err := u.items(src, body, nil, func(n *sitter.Node) error {
		if n.Type() != "enumerator" {
			return nil
		}
		ec := &entity{kind: frontend.KindEnumConstantDecl, inMain: src.main, loc: u.loc(src, n)}
		if name := n.ChildByFieldName("name"); name != nil {
			ec.name = name.Content(src.content)
			ec.loc = u.loc(src, name)
		}
		v, known := next, nextKnown
		if expr := n.ChildByFieldName("value"); expr != nil {
			got, err := u.evaluator(src.content, modeEnum).eval(expr)
			v, known = got, err == nil
			if err != nil {
				slogctx.Debug(u.ctx, "enum constant has no constant value", "constant", ec.name, "error", err)
			}
		}
		if known {
			ec.hasValue = true
			ec.signed = v
			values = append(values, v)
			if ec.name != "" {
				u.constants[ec.name] = v
			}
		}
		next, nextKnown = v+1, known
		constants = append(constants, ec)
		return nil
	})
	if err != nil {
		return err
	}

	width := enumWidth(values, fixed)
	for _, ec := range constants {
		if ec.hasValue {
			ec.signed, ec.unsigned = readings(ec.signed, width)
		}
	}
	e.append(constants...)
	return nil
}

// declared is the result of applying a declarator to a base type.
type declared struct {
	name   *sitter.Node
	typ    *ctype
	isFunc bool
	params []*entity
}

func (d declared) nameText(src *source) string {
	if d.name == nil {
		return ""
	}
	return d.name.Content(src.content)
}

// at is the node an entity's location points to: its name when present.
func (d declared) at(fallback *sitter.Node) *sitter.Node {
	if d.name != nil {
		return d.name
	}
	return fallback
}

// declarator unwraps d from the outside in. Each level wraps the type built
// so far, so `int *a[4]` becomes an array of pointers to int.
func (u *unit) declarator(src *source, t *ctype, d *sitter.Node) (declared, error) {
	var out declared
	for d != nil {
		switch d.Type() {
		case "identifier", "field_identifier", "type_identifier", "primitive_type":
			out.name = d
			out.typ = t
			return out, nil
		case "pointer_declarator", "abstract_pointer_declarator":
			t = pointerTo(t, qualifiers(src, d))
			out.isFunc, out.params = false, nil
		case "array_declarator", "abstract_array_declarator":
			var size string
			if s := d.ChildByFieldName("size"); s != nil {
				size = strings.TrimSpace(s.Content(src.content))
			}
			t = arrayOf(t, size)
			out.isFunc, out.params = false, nil
		case "function_declarator", "abstract_function_declarator":
			ft, params, err := u.functionType(src, t, d.ChildByFieldName("parameters"))
			if err != nil {
				return out, err
			}
			t = ft
			out.isFunc, out.params = true, params
		case "parenthesized_declarator", "abstract_parenthesized_declarator", "attributed_declarator":
			d = innerDeclarator(d)
			continue
		case "init_declarator":
		default:
			return out, errors.Errorf("unsupported declarator %s at %s", d.Type(), u.loc(src, d))
		}
		d = d.ChildByFieldName("declarator")
	}
	out.typ = t
	return out, nil
}

func innerDeclarator(d *sitter.Node) *sitter.Node {
	if inner := d.ChildByFieldName("declarator"); inner != nil {
		return inner
	}
	for i := 0; i < int(d.NamedChildCount()); i++ {
		c := d.NamedChild(i)
		switch c.Type() {
		case "comment", "attribute_specifier", "attribute_declaration", "type_qualifier", "ms_call_modifier":
			continue
		}
		return c
	}
	return nil
}

// functionType builds a function type and the parameter entities of its
// parameter list. `()` is an unprototyped function and `(void)` a
// prototype without parameters.
func (u *unit) functionType(src *source, ret *ctype, list *sitter.Node) (*ctype, []*entity, error) {
	ft := &ctype{kind: types.KindFunctionProto, ret: ret}
	if list == nil {
		ft.kind = types.KindFunctionNoProto
		return ft, nil, nil
	}

	var params []*entity
	sawVoid := false
	for i := 0; i < int(list.ChildCount()); i++ {
		c := list.Child(i)
		switch c.Type() {
		case "...", "variadic_parameter":
			ft.variadic = true
		case "parameter_declaration":
			decl := c.ChildByFieldName("declarator")
			quals := qualifiers(src, c)
			base, _, err := u.specifier(src, c.ChildByFieldName("type"), quals, tagReference)
			if err != nil {
				return nil, nil, err
			}
			if decl == nil && base.kind == types.KindVoid && len(quals) == 0 {
				sawVoid = true
				continue
			}
			pd, err := u.declarator(src, base, decl)
			if err != nil {
				return nil, nil, err
			}
			pt := pd.typ.decay()
			ft.params = append(ft.params, pt)
			params = append(params, &entity{
				kind:   frontend.KindParmDecl,
				name:   pd.nameText(src),
				inMain: src.main,
				loc:    u.loc(src, pd.at(c)),
				typ:    pt,
			})
		}
	}
	if len(params) == 0 && !ft.variadic && !sawVoid {
		ft.kind = types.KindFunctionNoProto
	}
	return ft, params, nil
}

// specifier builds the base type of a declaration and, for tag
// specifiers, the tag entity the declaration introduces.
func (u *unit) specifier(src *source, n *sitter.Node, quals []string, use tagUse) (*ctype, *entity, error) {
	if n == nil {
		return nil, nil, errors.New("declaration without a type specifier")
	}
	var t *ctype
	var tag *entity
	text := n.Content(src.content)
	switch n.Type() {
	case "primitive_type":
		t = primitiveType(text)
	case "sized_type_specifier":
		t = sizedType(text)
	case "type_identifier":
		t = &ctype{kind: types.KindTypedef, name: text, syms: u.syms}
	case "struct_specifier", "union_specifier", "enum_specifier":
		var err error
		t, tag, err = u.tagSpecifier(src, n, use)
		if err != nil {
			return nil, nil, err
		}
	default:
		t = &ctype{kind: types.KindUnexposed, name: strings.Join(strings.Fields(text), " ")}
	}
	return t.qualified(quals), tag, nil
}

// declaratorNodes returns the declarators of a declaration: the named
// children after its type specifier that are not qualifiers or attributes.
func declaratorNodes(n *sitter.Node) []*sitter.Node {
	typ := n.ChildByFieldName("type")
	if typ == nil {
		return nil
	}
	var out []*sitter.Node
	for i := 0; i < int(n.NamedChildCount()); i++ {
		c := n.NamedChild(i)
		if c.StartByte() < typ.EndByte() {
			continue
		}
		if c.IsMissing() {
			continue
		}
		switch c.Type() {
		case "type_qualifier", "storage_class_specifier", "attribute_specifier",
			"attribute_declaration", "ms_declspec_modifier", "comment",
			"bitfield_clause", "gnu_asm_expression", "compound_statement":
			continue
		}
		out = append(out, c)
	}
	return out
}

func qualifiers(src *source, n *sitter.Node) []string {
	var quals []string
	for i := 0; i < int(n.NamedChildCount()); i++ {
		c := n.NamedChild(i)
		if c.Type() == "type_qualifier" {
			quals = appendQuals(quals, c.Content(src.content))
		}
	}
	return quals
}

var primitiveKinds = map[string]types.TypeKind{
	"void":     types.KindVoid,
	"char":     types.KindCharS,
	"int":      types.KindInt,
	"float":    types.KindFloat,
	"double":   types.KindDouble,
	"bool":     types.KindBool,
	"_Bool":    types.KindBool,
	"__int128": types.KindInt128,
}

// primitiveType maps a primitive_type node. The grammar also treats common
// typedef names such as size_t as primitives; those stay typedefs.
func primitiveType(text string) *ctype {
	switch text {
	case "signed", "unsigned", "short", "long":
		return sizedType(text)
	case "_Bool":
		return &ctype{kind: types.KindBool, name: "_Bool"}
	}
	if kind, ok := primitiveKinds[text]; ok {
		return &ctype{kind: kind, name: text}
	}
	return &ctype{kind: types.KindTypedef, name: text}
}

// sizedType maps a combination of sign and size keywords to its canonical
// spelling: `long int` is `long`, `unsigned` is `unsigned int`.
func sizedType(text string) *ctype {
	var unsigned, signed, short bool
	longs := 0
	base := ""
	for _, w := range strings.Fields(text) {
		switch w {
		case "unsigned":
			unsigned = true
		case "signed":
			signed = true
		case "long":
			longs++
		case "short":
			short = true
		default:
			base = w
		}
	}
	pick := func(kind, ukind types.TypeKind, name string) *ctype {
		if unsigned {
			return &ctype{kind: ukind, name: "unsigned " + name}
		}
		return &ctype{kind: kind, name: name}
	}
	switch {
	case base == "char":
		switch {
		case unsigned:
			return &ctype{kind: types.KindUChar, name: "unsigned char"}
		case signed:
			return &ctype{kind: types.KindSChar, name: "signed char"}
		}
		return &ctype{kind: types.KindCharS, name: "char"}
	case base == "double":
		if longs > 0 {
			return &ctype{kind: types.KindLongDouble, name: "long double"}
		}
		return &ctype{kind: types.KindDouble, name: "double"}
	case base == "float":
		return &ctype{kind: types.KindFloat, name: "float"}
	case base == "__int128":
		return pick(types.KindInt128, types.KindUInt128, "__int128")
	case short:
		return pick(types.KindShort, types.KindUShort, "short")
	case longs >= 2:
		return pick(types.KindLongLong, types.KindULongLong, "long long")
	case longs == 1:
		return pick(types.KindLong, types.KindULong, "long")
	}
	return pick(types.KindInt, types.KindUInt, "int")
}
