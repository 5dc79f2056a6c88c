// Copyright (c) 2026 Petar Djukic. All rights reserved.
// SPDX-License-Identifier: MIT

package csitter

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	sitter "github.com/smacker/go-tree-sitter"
	"github.com/smacker/go-tree-sitter/c"
	slogctx "github.com/veqryn/slog-context"
	"gitlab.com/tozd/go/errors"

	"github.com/petar-djukic/cdecl/internal/frontend"
)

const (
	maxIncludeDepth = 200
	maxDiagnostics  = 20
)

// macro is a preprocessor definition. Function-like macros are tracked for
// defined() only; their bodies are never expanded.
type macro struct {
	value    string
	function bool
}

// source is one file spliced into a translation unit.
type source struct {
	file      string // physical path, used to resolve quoted includes
	content   []byte
	main      bool
	lines     lineMap
	enumBases map[uint32]string // fixed enum types by `enum` keyword offset
}

// unit builds the entity tree of one translation unit. A unit is owned by
// a single goroutine; only the header cache is shared.
type unit struct {
	ctx   context.Context
	cache *headerCache
	opts  frontend.Options

	root      *entity
	syms      *symbols
	macros    map[string]*macro
	expanding map[string]bool
	constants map[string]int64
	included  map[string]bool
	depth     int
	diags     []frontend.Diagnostic
}

func newUnit(ctx context.Context, cache *headerCache, path string, opts frontend.Options) *unit {
	u := &unit{
		ctx:       ctx,
		cache:     cache,
		opts:      opts,
		root:      &entity{kind: frontend.KindTranslationUnit, name: path, inMain: true},
		syms:      newSymbols(),
		macros:    make(map[string]*macro),
		expanding: make(map[string]bool),
		constants: make(map[string]int64),
		included:  make(map[string]bool),
	}
	for name, value := range opts.Defines {
		if value == "" {
			value = "1"
		}
		u.macros[name] = &macro{value: value}
	}
	if abs, err := filepath.Abs(path); err == nil {
		u.included[abs] = true
	}
	return u
}

// splice parses one file and appends its top-level entities to the unit.
// Syntax errors become diagnostics rather than errors so that every
// broken file in the unit is reported.
func (u *unit) splice(path string, content []byte, main bool) error {
	src := &source{file: path, main: main}
	src.content, src.enumBases = liftEnumBases(content)
	root, err := sitter.ParseCtx(u.ctx, src.content, c.GetLanguage())
	if err != nil {
		return errors.Errorf("parsing %s: %w", path, err)
	}
	diags := syntaxDiagnostics(src, root)
	if len(diags) > 0 {
		// Untaken branches may hold code for another configuration or
		// language, such as an extern "C" guard. Retry without them.
		src.content = u.maskInactive(src)
		root, err = sitter.ParseCtx(u.ctx, src.content, c.GetLanguage())
		if err != nil {
			return errors.Errorf("parsing %s: %w", path, err)
		}
		diags = syntaxDiagnostics(src, root)
	}
	if len(diags) > 0 {
		u.diags = append(u.diags, diags...)
		return nil
	}
	u.depth++
	defer func() { u.depth-- }()
	return u.items(src, root, nil, func(n *sitter.Node) error {
		return u.topLevel(src, n)
	})
}

// items visits the active children of parent in order. Directives run as
// they are reached and only the selected branch of a conditional is
// visited; everything else goes to visit.
func (u *unit) items(src *source, parent *sitter.Node, skip func(*sitter.Node) bool, visit func(*sitter.Node) error) error {
	for i := 0; i < int(parent.NamedChildCount()); i++ {
		n := parent.NamedChild(i)
		if skip != nil && skip(n) {
			continue
		}
		if err := u.ctx.Err(); err != nil {
			return err
		}
		var err error
		switch n.Type() {
		case "comment":
		case "preproc_def":
			u.define(src, n)
		case "preproc_function_def":
			if name := n.ChildByFieldName("name"); name != nil {
				u.macros[name.Content(src.content)] = &macro{function: true}
			}
		case "preproc_call":
			u.directive(src, n)
		case "preproc_if", "preproc_ifdef":
			err = u.conditional(src, n, visit)
		default:
			err = visit(n)
		}
		if err != nil {
			return err
		}
	}
	return nil
}

func (u *unit) conditional(src *source, n *sitter.Node, visit func(*sitter.Node) error) error {
	for branch := n; branch != nil; branch = branch.ChildByFieldName("alternative") {
		if u.branchTaken(src, branch) {
			return u.items(src, branch, branchHeader(branch), visit)
		}
	}
	return nil
}

func (u *unit) branchTaken(src *source, b *sitter.Node) bool {
	switch b.Type() {
	case "preproc_else":
		return true
	case "preproc_ifdef", "preproc_elifdef":
		name := b.ChildByFieldName("name")
		if name == nil {
			return false
		}
		_, ok := u.macros[name.Content(src.content)]
		negate := b.ChildCount() > 0 && strings.HasSuffix(b.Child(0).Type(), "ndef")
		return ok != negate
	case "preproc_if", "preproc_elif":
		cond := b.ChildByFieldName("condition")
		v, err := u.evaluator(src.content, modeCondition).eval(cond)
		if err != nil {
			at := b
			if cond != nil {
				at = cond
			}
			u.diag(src, at, fmt.Sprintf("invalid preprocessor expression: %v", err))
			return false
		}
		return v != 0
	}
	return false
}

// branchHeader matches the children of a conditional branch that are not
// part of its body: the condition, the macro name, and the next branch.
func branchHeader(b *sitter.Node) func(*sitter.Node) bool {
	header := []*sitter.Node{
		b.ChildByFieldName("condition"),
		b.ChildByFieldName("name"),
		b.ChildByFieldName("alternative"),
	}
	return func(n *sitter.Node) bool {
		for _, h := range header {
			if sameNode(h, n) {
				return true
			}
		}
		return false
	}
}

func sameNode(a, b *sitter.Node) bool {
	if a == nil || b == nil {
		return false
	}
	return a.StartByte() == b.StartByte() && a.EndByte() == b.EndByte() && a.Type() == b.Type()
}

func (u *unit) define(src *source, n *sitter.Node) {
	name := n.ChildByFieldName("name")
	if name == nil {
		return
	}
	m := &macro{}
	if value := n.ChildByFieldName("value"); value != nil {
		m.value = strings.TrimSpace(value.Content(src.content))
	}
	u.macros[name.Content(src.content)] = m
}

func (u *unit) directive(src *source, n *sitter.Node) {
	dirNode := n.ChildByFieldName("directive")
	if dirNode == nil {
		return
	}
	dir := strings.TrimSpace(dirNode.Content(src.content))
	var arg string
	if a := n.ChildByFieldName("argument"); a != nil {
		arg = strings.TrimSpace(a.Content(src.content))
	}

	switch dir {
	case "#undef":
		if fields := strings.Fields(arg); len(fields) > 0 {
			delete(u.macros, fields[0])
		}
	case "#line":
		number, rest, _ := strings.Cut(arg, " ")
		u.lineDirective(src, n, number, rest)
	case "#error":
		u.diag(src, n, arg)
	default:
		// GNU line markers: # 42 "file.c" 1
		if number := strings.TrimSpace(strings.TrimPrefix(dir, "#")); number != "" && isDigits(number) {
			u.lineDirective(src, n, number, arg)
		}
	}
}

func (u *unit) lineDirective(src *source, n *sitter.Node, number, rest string) {
	line, err := strconv.ParseUint(number, 10, 32)
	if err != nil || line == 0 {
		u.diag(src, n, "#line directive requires a positive integer argument")
		return
	}
	row := n.StartPoint().Row + 1
	file, _ := src.lines.presume(src.file, row)
	rest = strings.TrimSpace(rest)
	if strings.HasPrefix(rest, `"`) {
		if end := strings.IndexByte(rest[1:], '"'); end >= 0 {
			file = rest[1 : end+1]
		}
	}
	src.lines.add(row, uint32(line), file)
}

func isDigits(s string) bool {
	for _, r := range s {
		if r < '0' || r > '9' {
			return false
		}
	}
	return s != ""
}

func (u *unit) include(src *source, n *sitter.Node) error {
	pathNode := n.ChildByFieldName("path")
	if pathNode == nil {
		return nil
	}
	raw := pathNode.Content(src.content)
	var name string
	system := false
	switch pathNode.Type() {
	case "string_literal":
		name = strings.Trim(raw, `"`)
	case "system_lib_string":
		name = strings.Trim(raw, "<>")
		system = true
	default:
		slogctx.Debug(u.ctx, "skipping computed include", "include", raw, "file", src.file)
		return nil
	}

	resolved, ok := u.resolveInclude(src, name, system)
	if !ok {
		if system {
			slogctx.Debug(u.ctx, "skipping unresolved system include", "include", name, "file", src.file)
			return nil
		}
		u.diag(src, pathNode, fmt.Sprintf("'%s' file not found", name))
		return nil
	}

	key := resolved
	if abs, err := filepath.Abs(resolved); err == nil {
		key = abs
	}
	if u.included[key] {
		return nil
	}
	u.included[key] = true

	if u.depth >= maxIncludeDepth {
		u.diag(src, n, "#include nested too deeply")
		return nil
	}
	content, err := u.cache.read(resolved)
	if err != nil {
		u.diag(src, pathNode, fmt.Sprintf("cannot read '%s': %v", name, err))
		return nil
	}
	slogctx.Debug(u.ctx, "including header", "header", resolved, "file", src.file)
	return u.splice(resolved, content, false)
}

// resolveInclude finds a header the way a compiler does: quoted includes
// try the including file's directory first, then every include directory.
func (u *unit) resolveInclude(src *source, name string, system bool) (string, bool) {
	if filepath.IsAbs(name) {
		return name, isFile(name)
	}
	var candidates []string
	if !system {
		candidates = append(candidates, filepath.Join(filepath.Dir(src.file), name))
	}
	for _, dir := range u.opts.IncludeDirs {
		candidates = append(candidates, filepath.Join(dir, name))
	}
	for _, cand := range candidates {
		if isFile(cand) {
			return cand, true
		}
	}
	return "", false
}

func isFile(path string) bool {
	info, err := os.Stat(path)
	return err == nil && !info.IsDir()
}

type evalMode int

const (
	modeCondition evalMode = iota
	modeEnum
)

// evaluator returns a constant folder for src. In conditions unknown
// identifiers are 0; in enum initializers they are an error.
func (u *unit) evaluator(src []byte, mode evalMode) *evaluator {
	ev := &evaluator{src: src}
	switch mode {
	case modeCondition:
		ev.defined = func(name string) bool {
			_, ok := u.macros[name]
			return ok
		}
		ev.ident = func(name string) (int64, error) {
			v, _, err := u.expand(name, mode)
			return v, err
		}
	case modeEnum:
		ev.ident = func(name string) (int64, error) {
			if v, ok := u.constants[name]; ok {
				return v, nil
			}
			v, found, err := u.expand(name, mode)
			if !found {
				return 0, errors.Errorf("%w: use of undeclared identifier '%s'", errNotConstant, name)
			}
			return v, err
		}
	}
	return ev
}

// expand evaluates the replacement text of an object-like macro. found is
// false when name is not such a macro or is already being expanded.
func (u *unit) expand(name string, mode evalMode) (int64, bool, error) {
	m, ok := u.macros[name]
	if !ok || m.function || u.expanding[name] {
		return 0, false, nil
	}
	u.expanding[name] = true
	defer delete(u.expanding, name)

	expr, src, err := u.parseExpression(m.value)
	if err != nil {
		return 0, true, err
	}
	v, err := u.evaluator(src, mode).eval(expr)
	return v, true, err
}

// parseExpression parses text as a C expression by wrapping it in an
// initializer.
func (u *unit) parseExpression(text string) (*sitter.Node, []byte, error) {
	if strings.TrimSpace(text) == "" {
		return nil, nil, errors.Errorf("%w: expected value in expression", errNotConstant)
	}
	src := []byte("int __cdecl_value = (" + text + ");")
	root, err := sitter.ParseCtx(u.ctx, src, c.GetLanguage())
	if err != nil {
		return nil, nil, errors.Errorf("parsing expression %q: %w", text, err)
	}
	if root.HasError() {
		return nil, nil, errors.Errorf("%w: %s", errNotConstant, text)
	}
	decl := firstNamed(root)
	if decl == nil || decl.Type() != "declaration" {
		return nil, nil, errors.Errorf("%w: %s", errNotConstant, text)
	}
	init := decl.ChildByFieldName("declarator")
	if init == nil || init.Type() != "init_declarator" {
		return nil, nil, errors.Errorf("%w: %s", errNotConstant, text)
	}
	return init.ChildByFieldName("value"), src, nil
}

func (u *unit) loc(src *source, n *sitter.Node) *frontend.Location {
	p := n.StartPoint()
	file, line := src.lines.presume(src.file, p.Row)
	return &frontend.Location{File: file, Line: line, Column: p.Column + 1}
}

func (u *unit) diag(src *source, n *sitter.Node, msg string) {
	if len(u.diags) >= maxDiagnostics {
		return
	}
	u.diags = append(u.diags, frontend.Diagnostic{Location: *u.loc(src, n), Message: msg})
}

// syntaxDiagnostics reports every ERROR and MISSING node of a tree,
// except the identifier the grammar expects in an unnamed bit-field.
func syntaxDiagnostics(src *source, root *sitter.Node) []frontend.Diagnostic {
	if !root.HasError() {
		return nil
	}
	var out []frontend.Diagnostic
	found := false
	var walk func(n, parent *sitter.Node)
	walk = func(n, parent *sitter.Node) {
		if len(out) >= maxDiagnostics {
			return
		}
		p := n.StartPoint()
		at := frontend.Location{File: src.file, Line: p.Row + 1, Column: p.Column + 1}
		switch {
		case n.IsMissing():
			found = true
			if !unnamedBitField(n, parent) {
				out = append(out, frontend.Diagnostic{Location: at, Message: fmt.Sprintf("expected '%s'", n.Type())})
			}
			return
		case n.Type() == "ERROR":
			found = true
			text, _, _ := strings.Cut(strings.TrimSpace(n.Content(src.content)), "\n")
			if len(text) > 40 {
				text = text[:37] + "..."
			}
			out = append(out, frontend.Diagnostic{Location: at, Message: fmt.Sprintf("syntax error near '%s'", text)})
			return
		}
		if !n.HasError() {
			return
		}
		for i := 0; i < int(n.ChildCount()); i++ {
			walk(n.Child(i), n)
		}
	}
	walk(root, nil)
	if len(out) == 0 && !found {
		out = append(out, frontend.Diagnostic{
			Location: frontend.Location{File: src.file, Line: 1, Column: 1},
			Message:  "syntax error",
		})
	}
	return out
}

// unnamedBitField reports whether n is the field name the grammar inserts
// into `int : 3;`.
func unnamedBitField(n, parent *sitter.Node) bool {
	if n.Type() != "field_identifier" || parent == nil || parent.Type() != "field_declaration" {
		return false
	}
	for i := 0; i < int(parent.NamedChildCount()); i++ {
		if parent.NamedChild(i).Type() == "bitfield_clause" {
			return true
		}
	}
	return false
}

// lineMap records #line directives of one file.
type lineMap struct {
	marks []lineMark
}

type lineMark struct {
	row  uint32 // first physical row (0-based) the mark applies to
	line uint32
	file string
}

func (m *lineMap) add(row, line uint32, file string) {
	m.marks = append(m.marks, lineMark{row: row, line: line, file: file})
}

// presume maps a 0-based physical row to the presumed file and 1-based line.
func (m *lineMap) presume(file string, row uint32) (string, uint32) {
	for i := len(m.marks) - 1; i >= 0; i-- {
		mk := m.marks[i]
		if row >= mk.row {
			return mk.file, mk.line + (row - mk.row)
		}
	}
	return file, row + 1
}
