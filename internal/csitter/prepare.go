// Copyright (c) 2026 Petar Djukic. All rights reserved.
// SPDX-License-Identifier: MIT

package csitter

import (
	"path/filepath"
	"regexp"
	"strings"

	sitter "github.com/smacker/go-tree-sitter"
	"github.com/smacker/go-tree-sitter/c"
	slogctx "github.com/veqryn/slog-context"

	"github.com/petar-djukic/cdecl/pkg/types"
)

// enumBasePattern matches the head of a C23 enum with a fixed underlying
// type, `enum E : unsigned char {`, which the grammar cannot parse.
var enumBasePattern = regexp.MustCompile(`\benum(\s+[A-Za-z_]\w*)?\s*(:)\s*([A-Za-z_][\w \t]*?)\s*\{`)

// liftEnumBases blanks the `: type` of every fixed-underlying enum and
// returns the type text keyed by the byte offset of its `enum` keyword.
// Offsets, rows, and columns of everything else are unchanged.
func liftEnumBases(content []byte) ([]byte, map[uint32]string) {
	matches := enumBasePattern.FindAllSubmatchIndex(content, -1)
	if len(matches) == 0 {
		return content, nil
	}
	out := append([]byte(nil), content...)
	bases := make(map[uint32]string, len(matches))
	for _, m := range matches {
		colon, typeStart, typeEnd := m[4], m[6], m[7]
		bases[uint32(m[0])] = strings.Join(strings.Fields(string(content[typeStart:typeEnd])), " ")
		blank(out, colon, typeEnd)
	}
	return out, bases
}

// namedType builds the type spelled by text: a primitive, a combination
// of size and sign keywords, or a typedef name.
func (u *unit) namedType(text string) *ctype {
	var quals, words []string
	for _, w := range strings.Fields(text) {
		switch w {
		case "const", "volatile":
			quals = appendQuals(quals, w)
		default:
			words = append(words, w)
		}
	}
	var t *ctype
	switch {
	case len(words) > 1:
		t = sizedType(strings.Join(words, " "))
	case len(words) == 1 && isKeywordType(words[0]):
		t = primitiveType(words[0])
	case len(words) == 1:
		t = &ctype{kind: types.KindTypedef, name: words[0], syms: u.syms}
	default:
		t = sizedType("int")
	}
	return t.qualified(quals)
}

func isKeywordType(w string) bool {
	switch w {
	case "signed", "unsigned", "short", "long", "_Bool":
		return true
	}
	_, ok := primitiveKinds[w]
	return ok
}

// maskInactive returns src's content with the lines of untaken conditional
// branches, and the conditional directives themselves, blanked. Macro and
// include state is simulated on copies, following includes, so the unit
// replays the real state when it walks the masked tree.
func (u *unit) maskInactive(src *source) []byte {
	macros, included := u.macros, u.included
	u.macros = make(map[string]*macro, len(macros))
	for k, v := range macros {
		u.macros[k] = v
	}
	u.included = make(map[string]bool, len(included))
	for k, v := range included {
		u.included[k] = v
	}
	defer func() { u.macros, u.included = macros, included }()

	return u.scanConditionals(src.file, src.content, u.depth)
}

type branchFrame struct {
	parent bool // enclosing region is active
	taken  bool // some branch of this conditional was selected
	active bool
}

func (u *unit) scanConditionals(file string, content []byte, depth int) []byte {
	out := append([]byte(nil), content...)
	var stack []branchFrame
	active := func() bool {
		return len(stack) == 0 || stack[len(stack)-1].active
	}

	for _, ln := range logicalLines(content) {
		name, arg, ok := directiveOf(string(content[ln.start:ln.end]))
		if !ok {
			if !active() {
				blank(out, ln.start, ln.end)
			}
			continue
		}
		switch name {
		case "if", "ifdef", "ifndef":
			parent := active()
			on := parent && u.simCondition(name, arg)
			stack = append(stack, branchFrame{parent: parent, taken: on, active: on})
		case "elif", "elifdef", "elifndef":
			if len(stack) == 0 {
				continue
			}
			f := &stack[len(stack)-1]
			on := f.parent && !f.taken && u.simCondition(strings.TrimPrefix(name, "el"), arg)
			f.active, f.taken = on, f.taken || on
		case "else":
			if len(stack) == 0 {
				continue
			}
			f := &stack[len(stack)-1]
			f.active, f.taken = f.parent && !f.taken, true
		case "endif":
			if len(stack) == 0 {
				continue
			}
			stack = stack[:len(stack)-1]
		default:
			if active() {
				u.simDirective(file, name, arg, depth)
				continue
			}
		}
		blank(out, ln.start, ln.end)
	}
	return out
}

func (u *unit) simCondition(kind, arg string) bool {
	switch kind {
	case "ifdef", "ifndef":
		fields := strings.Fields(arg)
		if len(fields) == 0 {
			return false
		}
		_, ok := u.macros[fields[0]]
		return ok == (kind == "ifdef")
	}
	src := []byte("#if " + arg + "\n#endif\n")
	root, err := sitter.ParseCtx(u.ctx, src, c.GetLanguage())
	if err != nil {
		return false
	}
	n := firstNamed(root)
	if n == nil || n.Type() != "preproc_if" {
		return false
	}
	v, err := u.evaluator(src, modeCondition).eval(n.ChildByFieldName("condition"))
	if err != nil {
		slogctx.Debug(u.ctx, "invalid preprocessor expression", "condition", arg, "error", err)
		return false
	}
	return v != 0
}

// simDirective applies the macro effects of an active directive.
func (u *unit) simDirective(file, name, arg string, depth int) {
	switch name {
	case "define":
		end := 0
		for end < len(arg) && isIdentByte(arg[end]) {
			end++
		}
		if end == 0 {
			return
		}
		if strings.HasPrefix(arg[end:], "(") {
			u.macros[arg[:end]] = &macro{function: true}
			return
		}
		u.macros[arg[:end]] = &macro{value: strings.TrimSpace(arg[end:])}
	case "undef":
		if fields := strings.Fields(arg); len(fields) > 0 {
			delete(u.macros, fields[0])
		}
	case "include":
		var header string
		system := false
		switch {
		case strings.HasPrefix(arg, `"`):
			header, _, _ = strings.Cut(arg[1:], `"`)
		case strings.HasPrefix(arg, "<"):
			header, _, _ = strings.Cut(arg[1:], ">")
			system = true
		default:
			return
		}
		resolved, ok := u.resolveInclude(&source{file: file}, header, system)
		if !ok {
			return
		}
		key := resolved
		if abs, err := filepath.Abs(resolved); err == nil {
			key = abs
		}
		if u.included[key] || depth >= maxIncludeDepth {
			return
		}
		u.included[key] = true
		content, err := u.cache.read(resolved)
		if err != nil {
			return
		}
		u.scanConditionals(resolved, content, depth+1)
	}
}

func isIdentByte(b byte) bool {
	return b == '_' || b >= 'a' && b <= 'z' || b >= 'A' && b <= 'Z' || b >= '0' && b <= '9'
}

type lineSpan struct {
	start, end int // end excludes the newline
}

// logicalLines splits content into lines, joining backslash continuations.
func logicalLines(content []byte) []lineSpan {
	var out []lineSpan
	start := 0
	for i := 0; i <= len(content); i++ {
		if i < len(content) && content[i] != '\n' {
			continue
		}
		end := i
		body := strings.TrimRight(string(content[start:end]), "\r")
		if i < len(content) && strings.HasSuffix(body, `\`) {
			continue
		}
		out = append(out, lineSpan{start: start, end: end})
		start = i + 1
	}
	return out
}

// directiveOf splits a preprocessor line into its directive name and
// argument text.
func directiveOf(line string) (string, string, bool) {
	t := strings.TrimLeft(line, " \t")
	if !strings.HasPrefix(t, "#") {
		return "", "", false
	}
	t = strings.TrimLeft(t[1:], " \t")
	end := 0
	for end < len(t) && isIdentByte(t[end]) {
		end++
	}
	arg := strings.ReplaceAll(t[end:], "\\\r\n", " ")
	arg = strings.ReplaceAll(arg, "\\\n", " ")
	return t[:end], strings.TrimSpace(arg), true
}

// blank replaces content[start:end] with spaces, keeping line breaks.
func blank(b []byte, start, end int) {
	for i := start; i < end; i++ {
		if b[i] != '\n' && b[i] != '\r' {
			b[i] = ' '
		}
	}
}
