// Copyright (c) 2026 Petar Djukic. All rights reserved.
// SPDX-License-Identifier: MIT

package ast

import (
	"context"

	slogctx "github.com/veqryn/slog-context"
	"gitlab.com/tozd/go/errors"

	"github.com/petar-djukic/cdecl/internal/frontend"
	"github.com/petar-djukic/cdecl/pkg/types"
)

// MergePolicy selects how a typedef finds an existing declaration to alias.
type MergePolicy string

const (
	// MergeByTag aliases a same-named tag first, then the recorded
	// declaration of the typedef's underlying tag if it has no alias yet.
	MergeByTag MergePolicy = "tag"
	// MergeByName only aliases a declaration whose tag equals the typedef
	// name; every other typedef gets its own declaration.
	MergeByName MergePolicy = "name"
)

// ErrUnknownMergePolicy is returned by ParseMergePolicy.
var ErrUnknownMergePolicy = errors.New("unknown merge policy")

// ParseMergePolicy accepts "tag", "name", or "" for the default.
func ParseMergePolicy(s string) (MergePolicy, error) {
	switch MergePolicy(s) {
	case "", MergeByTag:
		return MergeByTag, nil
	case MergeByName:
		return MergeByName, nil
	}
	return "", errors.Errorf("%w: %q", ErrUnknownMergePolicy, s)
}

// WalkOptions configures Walk.
type WalkOptions struct {
	MergePolicy MergePolicy
}

type walker struct {
	ctx   context.Context
	opts  WalkOptions
	sf    *types.SourceFile
	byTag map[string][]int
}

// Walk builds the declaration model of a translation unit from the
// entities located in its main file. It returns either a complete model
// or an *InvariantError, never both.
func Walk(ctx context.Context, tu frontend.Entity, opts WalkOptions) (*types.SourceFile, error) {
	if err := expectKind(tu, frontend.KindTranslationUnit); err != nil {
		return nil, err
	}
	if opts.MergePolicy == "" {
		opts.MergePolicy = MergeByTag
	}
	path, _ := tu.Name()
	w := &walker{
		ctx:   ctx,
		opts:  opts,
		sf:    types.NewSourceFile(path),
		byTag: make(map[string][]int),
	}
	for _, child := range tu.Children() {
		if !child.IsInMainFile() {
			continue
		}
		if err := w.visit(child); err != nil {
			return nil, err
		}
	}
	return w.sf, nil
}

func (w *walker) visit(e frontend.Entity) error {
	switch e.Kind() {
	case frontend.KindEnumDecl, frontend.KindStructDecl, frontend.KindUnionDecl:
		tag, ok := e.Name()
		if !ok {
			// reachable only through a typedef
			return nil
		}
		d, err := newTypeDecl(e, tag, "")
		if err != nil {
			return err
		}
		w.appendDecl(d)
		return nil
	case frontend.KindTypedefDecl:
		return w.typedef(e)
	case frontend.KindFunctionDecl:
		fn := types.NewFunctionDeclare("")
		if err := populateFunction(fn, e); err != nil {
			return err
		}
		w.sf.Functions = append(w.sf.Functions, fn)
		return nil
	}
	return newInvariantError(ReasonUnexpectedTopLevel, e, "")
}

func (w *walker) typedef(e frontend.Entity) error {
	name, ok := e.Name()
	if !ok {
		return nil
	}
	underlying, ok := e.TypedefUnderlyingType()
	if !ok {
		slogctx.Debug(w.ctx, "skipping typedef without underlying type", "typedef", name)
		return nil
	}
	decl, ok := underlying.Declaration()
	if !ok {
		slogctx.Debug(w.ctx, "skipping typedef of undeclared type", "typedef", name, "type", underlying.DisplayName())
		return nil
	}
	if idx, ok := w.firstWithTag(name); ok {
		w.sf.TypeDecls[idx].SetTypedefName(name)
		return nil
	}
	if !decl.Kind().IsTag() {
		return newInvariantError(ReasonUnsupportedTypedefTarget, e, decl.Kind().String())
	}
	if w.opts.MergePolicy == MergeByTag {
		if tag, named := decl.Name(); named {
			for _, idx := range w.byTag[tag] {
				d := w.sf.TypeDecls[idx]
				if d.TypedefName() == "" && d.DeclKind() == declKind(decl.Kind()) {
					d.SetTypedefName(name)
					return nil
				}
			}
		}
	}

	d, err := newTypeDecl(decl, "", name)
	if err != nil {
		return err
	}
	w.appendDecl(d)
	return nil
}

func (w *walker) appendDecl(d types.TypeDecl) {
	idx := len(w.sf.TypeDecls)
	w.sf.TypeDecls = append(w.sf.TypeDecls, d)
	if tag := d.TagName(); tag != "" {
		w.byTag[tag] = append(w.byTag[tag], idx)
	}
}

func (w *walker) firstWithTag(tag string) (int, bool) {
	indices := w.byTag[tag]
	if len(indices) == 0 {
		return 0, false
	}
	return indices[0], true
}

func declKind(k frontend.EntityKind) types.DeclKind {
	switch k {
	case frontend.KindStructDecl:
		return types.DeclStruct
	case frontend.KindUnionDecl:
		return types.DeclUnion
	}
	return types.DeclEnum
}
