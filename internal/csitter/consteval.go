// Copyright (c) 2026 Petar Djukic. All rights reserved.
// SPDX-License-Identifier: MIT

package csitter

import (
	"math"
	"strconv"
	"strings"
	"unicode/utf8"

	sitter "github.com/smacker/go-tree-sitter"
	"gitlab.com/tozd/go/errors"

	"github.com/petar-djukic/cdecl/pkg/types"
)

// errNotConstant reports an expression that cannot be folded to an integer.
var errNotConstant = errors.New("not an integer constant expression")

// evaluator folds C integer constant expressions over tree-sitter nodes.
// The same evaluator serves enum initializers and #if conditions; the
// latter also set defined.
type evaluator struct {
	src     []byte
	ident   func(name string) (int64, error)
	defined func(name string) bool
}

func (ev *evaluator) eval(n *sitter.Node) (int64, error) {
	if n == nil {
		return 0, errors.Errorf("%w: empty expression", errNotConstant)
	}
	switch n.Type() {
	case "number_literal":
		return parseIntLiteral(n.Content(ev.src))
	case "char_literal":
		return parseCharLiteral(n.Content(ev.src))
	case "true":
		return 1, nil
	case "false", "null":
		return 0, nil
	case "identifier":
		return ev.ident(n.Content(ev.src))
	case "parenthesized_expression":
		return ev.eval(firstNamed(n))
	case "cast_expression":
		return ev.eval(n.ChildByFieldName("value"))
	case "preproc_defined":
		if ev.defined == nil {
			return 0, errors.Errorf("%w: defined outside a preprocessor condition", errNotConstant)
		}
		name := firstNamed(n)
		if name == nil {
			return 0, errors.Errorf("%w: defined without a macro name", errNotConstant)
		}
		return boolInt(ev.defined(name.Content(ev.src))), nil
	case "unary_expression":
		return ev.unary(n)
	case "binary_expression":
		return ev.binary(n)
	case "conditional_expression":
		cond, err := ev.eval(n.ChildByFieldName("condition"))
		if err != nil {
			return 0, err
		}
		if cond != 0 {
			return ev.eval(n.ChildByFieldName("consequence"))
		}
		return ev.eval(n.ChildByFieldName("alternative"))
	}
	return 0, errors.Errorf("%w: %s", errNotConstant, n.Type())
}

func (ev *evaluator) unary(n *sitter.Node) (int64, error) {
	op := n.ChildByFieldName("operator")
	v, err := ev.eval(n.ChildByFieldName("argument"))
	if err != nil || op == nil {
		return 0, err
	}
	switch op.Type() {
	case "-":
		return -v, nil
	case "+":
		return v, nil
	case "!":
		return boolInt(v == 0), nil
	case "~":
		return ^v, nil
	}
	return 0, errors.Errorf("%w: unary %s", errNotConstant, op.Type())
}

func (ev *evaluator) binary(n *sitter.Node) (int64, error) {
	op := n.ChildByFieldName("operator")
	if op == nil {
		return 0, errors.Errorf("%w: binary expression without operator", errNotConstant)
	}
	l, err := ev.eval(n.ChildByFieldName("left"))
	if err != nil {
		return 0, err
	}
	switch op.Type() {
	case "&&":
		if l == 0 {
			return 0, nil
		}
	case "||":
		if l != 0 {
			return 1, nil
		}
	}
	r, err := ev.eval(n.ChildByFieldName("right"))
	if err != nil {
		return 0, err
	}
	switch op.Type() {
	case "+":
		return l + r, nil
	case "-":
		return l - r, nil
	case "*":
		return l * r, nil
	case "/", "%":
		if r == 0 {
			return 0, errors.Errorf("%w: division by zero", errNotConstant)
		}
		if op.Type() == "/" {
			return l / r, nil
		}
		return l % r, nil
	case "<<", ">>":
		if r < 0 || r >= 64 {
			return 0, errors.Errorf("%w: shift count %d out of range", errNotConstant, r)
		}
		if op.Type() == "<<" {
			return l << uint(r), nil
		}
		return l >> uint(r), nil
	case "&":
		return l & r, nil
	case "|":
		return l | r, nil
	case "^":
		return l ^ r, nil
	case "&&", "||":
		return boolInt(r != 0), nil
	case "==":
		return boolInt(l == r), nil
	case "!=":
		return boolInt(l != r), nil
	case "<":
		return boolInt(l < r), nil
	case ">":
		return boolInt(l > r), nil
	case "<=":
		return boolInt(l <= r), nil
	case ">=":
		return boolInt(l >= r), nil
	}
	return 0, errors.Errorf("%w: binary %s", errNotConstant, op.Type())
}

func boolInt(b bool) int64 {
	if b {
		return 1
	}
	return 0
}

func firstNamed(n *sitter.Node) *sitter.Node {
	for i := 0; i < int(n.NamedChildCount()); i++ {
		c := n.NamedChild(i)
		if c.Type() != "comment" {
			return c
		}
	}
	return nil
}

// parseIntLiteral parses a C integer literal with any base prefix and
// suffix. Values above MaxInt64 wrap, as unsigned long long literals do.
// The grammar folds a leading sign into the literal, so `-1` arrives here
// whole.
func parseIntLiteral(text string) (int64, error) {
	s := strings.ToLower(strings.ReplaceAll(text, "'", ""))
	s = strings.TrimRight(s, "ul")
	negative := false
	switch {
	case strings.HasPrefix(s, "-"):
		negative, s = true, strings.TrimSpace(s[1:])
	case strings.HasPrefix(s, "+"):
		s = strings.TrimSpace(s[1:])
	}
	base := 10
	switch {
	case strings.HasPrefix(s, "0x"):
		base, s = 16, s[2:]
		if strings.ContainsAny(s, ".p") {
			return 0, errors.Errorf("%w: floating literal %s", errNotConstant, text)
		}
	case strings.HasPrefix(s, "0b"):
		base, s = 2, s[2:]
	case strings.ContainsAny(s, ".e"):
		return 0, errors.Errorf("%w: floating literal %s", errNotConstant, text)
	case len(s) > 1 && s[0] == '0':
		base, s = 8, s[1:]
	}
	v, err := strconv.ParseUint(s, base, 64)
	if err != nil {
		return 0, errors.Errorf("%w: invalid literal %s: %v", errNotConstant, text, err)
	}
	if negative {
		return -int64(v), nil
	}
	return int64(v), nil
}

// parseCharLiteral returns the value of a character constant. Plain char
// is signed, so '\xff' is -1.
func parseCharLiteral(text string) (int64, error) {
	start := strings.IndexByte(text, '\'')
	end := strings.LastIndexByte(text, '\'')
	if start < 0 || end <= start+1 {
		return 0, errors.Errorf("%w: invalid character constant %s", errNotConstant, text)
	}
	plain := start == 0
	body := text[start+1 : end]
	if body[0] != '\\' {
		r, _ := utf8.DecodeRuneInString(body)
		return int64(r), nil
	}
	var v int64
	esc := body[1:]
	switch {
	case esc == "":
		return 0, errors.Errorf("%w: invalid escape in %s", errNotConstant, text)
	case esc[0] == 'x':
		u, err := strconv.ParseUint(esc[1:], 16, 32)
		if err != nil {
			return 0, errors.Errorf("%w: invalid escape in %s: %v", errNotConstant, text, err)
		}
		v = int64(u)
	case esc[0] >= '0' && esc[0] <= '7':
		u, err := strconv.ParseUint(esc, 8, 32)
		if err != nil {
			return 0, errors.Errorf("%w: invalid escape in %s: %v", errNotConstant, text, err)
		}
		v = int64(u)
	default:
		simple := map[byte]int64{
			'n': '\n', 't': '\t', 'r': '\r', 'a': '\a', 'b': '\b', 'f': '\f',
			'v': '\v', '\\': '\\', '\'': '\'', '"': '"', '?': '?', 'e': 27,
		}
		c, ok := simple[esc[0]]
		if !ok {
			return 0, errors.Errorf("%w: unknown escape in %s", errNotConstant, text)
		}
		return c, nil
	}
	if plain && v > math.MaxInt8 && v <= math.MaxUint8 {
		v = int64(int8(uint8(v)))
	}
	return v, nil
}

// enumWidth is the bit width of an enum's integer type: the fixed
// underlying type if one is given, else int or unsigned int when every
// value fits, else 64.
func enumWidth(values []int64, fixed *ctype) int {
	if fixed != nil {
		return typeWidth(fixed)
	}
	fitsInt, fitsUint := true, true
	for _, v := range values {
		if v < math.MinInt32 || v > math.MaxInt32 {
			fitsInt = false
		}
		if v < 0 || v > math.MaxUint32 {
			fitsUint = false
		}
	}
	if fitsInt || fitsUint {
		return 32
	}
	return 64
}

func typeWidth(t *ctype) int {
	switch t.kind {
	case types.KindBool, types.KindCharS, types.KindSChar, types.KindUChar:
		return 8
	case types.KindShort, types.KindUShort:
		return 16
	case types.KindLong, types.KindULong, types.KindLongLong, types.KindULongLong,
		types.KindInt128, types.KindUInt128:
		return 64
	case types.KindTypedef:
		switch strings.TrimPrefix(t.name, "u") {
		case "int8_t", "int_least8_t", "int_fast8_t":
			return 8
		case "int16_t", "int_least16_t":
			return 16
		case "int64_t", "int_least64_t", "int_fast64_t", "intptr_t", "intmax_t",
			"size_t", "ssize_t", "ptrdiff_t":
			return 64
		}
	}
	return 32
}

// readings returns the signed and unsigned views of v at the given width.
func readings(v int64, width int) (int64, uint64) {
	if width >= 64 {
		return v, uint64(v)
	}
	mask := uint64(1)<<width - 1
	u := uint64(v) & mask
	if u&(uint64(1)<<(width-1)) != 0 {
		return int64(u) - int64(1)<<width, u
	}
	return int64(u), u
}
