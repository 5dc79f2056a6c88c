// Copyright (c) 2026 Petar Djukic. All rights reserved.
// SPDX-License-Identifier: MIT

package types

// SourceFile is the root of the declaration model for one translation
// unit. Both sequences keep the top-to-bottom order of the source.
type SourceFile struct {
	Path      string             `json:"path" yaml:"path"`
	TypeDecls []TypeDecl         `json:"type_declares" yaml:"type_declares"`
	Functions []*FunctionDeclare `json:"function_declares" yaml:"function_declares"`
}

func NewSourceFile(path string) *SourceFile {
	return &SourceFile{
		Path:      path,
		TypeDecls: []TypeDecl{},
		Functions: []*FunctionDeclare{},
	}
}

// FindTag returns the first type declaration with the given kind and tag.
func (sf *SourceFile) FindTag(kind DeclKind, tag string) TypeDecl {
	for _, d := range sf.TypeDecls {
		if d.DeclKind() == kind && d.TagName() == tag {
			return d
		}
	}
	return nil
}

// FindTypedef returns the first type declaration aliased by name.
func (sf *SourceFile) FindTypedef(name string) TypeDecl {
	for _, d := range sf.TypeDecls {
		if d.TypedefName() == name {
			return d
		}
	}
	return nil
}

// FindFunction returns the first function declared with the given name.
func (sf *SourceFile) FindFunction(name string) *FunctionDeclare {
	for _, fn := range sf.Functions {
		if fn.Name == name {
			return fn
		}
	}
	return nil
}
