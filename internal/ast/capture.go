// Copyright (c) 2026 Petar Djukic. All rights reserved.
// SPDX-License-Identifier: MIT

package ast

import (
	"github.com/petar-djukic/cdecl/internal/frontend"
	"github.com/petar-djukic/cdecl/pkg/types"
)

// captureType snapshots a frontend type. Only pointers carry a pointee, so
// the chain ends at the first non-pointer link.
func captureType(t frontend.Type) *types.TypeRef {
	if t == nil {
		return nil
	}
	ref := &types.TypeRef{Kind: t.Kind(), Name: t.DisplayName()}
	if ref.Kind.IsPointer() {
		if pointee, ok := t.Pointee(); ok {
			ref.Pointee = captureType(pointee)
		}
	}
	return ref
}

func captureOptionalType(t frontend.Type, ok bool) *types.TypeRef {
	if !ok {
		return nil
	}
	return captureType(t)
}

// captureLocation snapshots an entity's presumed location, or nil when the
// frontend reports none.
func captureLocation(e frontend.Entity) *types.SourceLocation {
	loc, ok := e.Location()
	if !ok {
		return nil
	}
	return &types.SourceLocation{Path: loc.File, Line: loc.Line, Column: loc.Column}
}
