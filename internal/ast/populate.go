// Copyright (c) 2026 Petar Djukic. All rights reserved.
// SPDX-License-Identifier: MIT

package ast

import (
	"github.com/petar-djukic/cdecl/internal/frontend"
	"github.com/petar-djukic/cdecl/pkg/types"
)

// newTypeDecl builds the declaration node for a tag entity and fills it.
func newTypeDecl(e frontend.Entity, tag, typedef string) (types.TypeDecl, error) {
	switch e.Kind() {
	case frontend.KindEnumDecl:
		d := types.NewEnumDeclare(tag, typedef)
		return d, populateEnum(d, e)
	case frontend.KindStructDecl:
		d := types.NewStructDeclare(tag, typedef)
		return d, populateStruct(d, e)
	case frontend.KindUnionDecl:
		d := types.NewUnionDeclare(tag, typedef)
		return d, populateUnion(d, e)
	}
	return nil, newInvariantError(ReasonUnsupportedTypedefTarget, e, "")
}

func populateEnum(d *types.EnumDeclare, e frontend.Entity) error {
	if err := expectKind(e, frontend.KindEnumDecl); err != nil {
		return err
	}
	d.Location = captureLocation(e)
	d.Underlying = captureOptionalType(e.EnumUnderlyingType())
	for _, child := range e.Children() {
		if child.Kind() != frontend.KindEnumConstantDecl {
			return newInvariantError(ReasonUnexpectedMember, child, "in enum")
		}
		c := &types.EnumConstantDeclare{}
		if err := populateEnumConstant(c, child); err != nil {
			return err
		}
		d.Constants = append(d.Constants, c)
	}
	return nil
}

func populateEnumConstant(c *types.EnumConstantDeclare, e frontend.Entity) error {
	if err := expectKind(e, frontend.KindEnumConstantDecl); err != nil {
		return err
	}
	name, ok := e.Name()
	if !ok {
		return newInvariantError(ReasonUnnamedEnumConstant, e, "")
	}
	c.Name = name
	c.Location = captureLocation(e)
	if signed, unsigned, ok := e.EnumConstantValue(); ok {
		c.Value = &types.EnumConstantValue{Signed: signed, Unsigned: unsigned}
	}
	return nil
}

func populateStruct(d *types.StructDeclare, e frontend.Entity) error {
	if err := expectKind(e, frontend.KindStructDecl); err != nil {
		return err
	}
	d.Location = captureLocation(e)
	members, err := populateMembers(e, "in struct")
	d.Members = append(d.Members, members...)
	return err
}

func populateUnion(d *types.UnionDeclare, e frontend.Entity) error {
	if err := expectKind(e, frontend.KindUnionDecl); err != nil {
		return err
	}
	d.Location = captureLocation(e)
	members, err := populateMembers(e, "in union")
	d.Members = append(d.Members, members...)
	return err
}

// populateMembers reads a record body one level deep. Nested unions
// recurse; nested structs and enums are not representable as members.
func populateMembers(e frontend.Entity, where string) ([]types.Member, error) {
	var members []types.Member
	for _, child := range e.Children() {
		switch child.Kind() {
		case frontend.KindFieldDecl:
			f := &types.FieldDeclare{}
			if err := populateField(f, child); err != nil {
				return nil, err
			}
			members = append(members, f)
		case frontend.KindUnionDecl:
			tag, _ := child.Name()
			u := types.NewUnionDeclare(tag, "")
			if err := populateUnion(u, child); err != nil {
				return nil, err
			}
			members = append(members, u)
		default:
			return nil, newInvariantError(ReasonUnexpectedMember, child, where)
		}
	}
	return members, nil
}

// populateField fills a struct or union field. Unnamed bit-fields keep an
// empty name.
func populateField(f *types.FieldDeclare, e frontend.Entity) error {
	if err := expectKind(e, frontend.KindFieldDecl); err != nil {
		return err
	}
	f.Name, _ = e.Name()
	f.Type = captureOptionalType(e.Type())
	f.Location = captureLocation(e)
	return nil
}

func populateParameter(p *types.ParameterDeclare, e frontend.Entity) error {
	if err := expectKind(e, frontend.KindParmDecl); err != nil {
		return err
	}
	name, ok := e.Name()
	if !ok {
		return newInvariantError(ReasonUnnamedParameter, e, "")
	}
	p.Name = name
	p.Type = captureOptionalType(e.Type())
	p.Location = captureLocation(e)
	return nil
}

func populateFunction(fn *types.FunctionDeclare, e frontend.Entity) error {
	if err := expectKind(e, frontend.KindFunctionDecl); err != nil {
		return err
	}
	name, ok := e.Name()
	if !ok {
		return newInvariantError(ReasonUnnamedFunction, e, "")
	}
	fn.Name = name
	fn.Location = captureLocation(e)
	fn.ReturnType = captureOptionalType(e.ResultType())
	fn.Variadic = e.IsVariadic()
	args, _ := e.Arguments()
	for _, arg := range args {
		p := &types.ParameterDeclare{}
		if err := populateParameter(p, arg); err != nil {
			return err
		}
		fn.Parameters = append(fn.Parameters, p)
	}
	return nil
}
