// Copyright (c) 2026 Petar Djukic. All rights reserved.
// SPDX-License-Identifier: MIT

package ast

import (
	"fmt"

	"gitlab.com/tozd/go/errors"

	"github.com/petar-djukic/cdecl/internal/frontend"
	"github.com/petar-djukic/cdecl/pkg/types"
)

// ErrInvariant is wrapped by every InvariantError.
var ErrInvariant = errors.New("declaration model invariant violated")

// Reason identifies which model invariant an entity violated.
type Reason int

const (
	ReasonUnexpectedTopLevel Reason = iota
	ReasonKindMismatch
	ReasonUnnamedFunction
	ReasonUnnamedParameter
	ReasonUnsupportedTypedefTarget
	ReasonUnexpectedMember
	ReasonUnnamedEnumConstant
)

func (r Reason) String() string {
	switch r {
	case ReasonUnexpectedTopLevel:
		return "unexpected top-level entity"
	case ReasonKindMismatch:
		return "entity kind mismatch"
	case ReasonUnnamedFunction:
		return "function without a name"
	case ReasonUnnamedParameter:
		return "parameter without a name"
	case ReasonUnsupportedTypedefTarget:
		return "typedef of an unsupported declaration"
	case ReasonUnexpectedMember:
		return "unexpected member entity"
	case ReasonUnnamedEnumConstant:
		return "enum constant without a name"
	default:
		return "unknown invariant"
	}
}

// InvariantError reports input the declaration model cannot represent.
// A walk that returns one produces no model at all.
type InvariantError struct {
	Reason   Reason
	Entity   string
	Location *types.SourceLocation
	Detail   string
}

func newInvariantError(reason Reason, e frontend.Entity, detail string) *InvariantError {
	return &InvariantError{
		Reason:   reason,
		Entity:   e.String(),
		Location: captureLocation(e),
		Detail:   detail,
	}
}

func (e *InvariantError) Error() string {
	msg := fmt.Sprintf("%s: %s", e.Reason, e.Entity)
	if e.Detail != "" {
		msg += " (" + e.Detail + ")"
	}
	if e.Location != nil {
		msg = e.Location.String() + ": " + msg
	}
	return msg
}

func (e *InvariantError) Unwrap() error { return ErrInvariant }

// expectKind guards every populate entry point.
func expectKind(e frontend.Entity, want frontend.EntityKind) error {
	if e.Kind() != want {
		return newInvariantError(ReasonKindMismatch, e, "expected "+want.String())
	}
	return nil
}
