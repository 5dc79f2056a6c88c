// Copyright (c) 2026 Petar Djukic. All rights reserved.
// SPDX-License-Identifier: MIT

package ast

import (
	"github.com/petar-djukic/cdecl/pkg/types"
)

// EntryKind is the kind of a DeclTable entry.
type EntryKind string

const (
	EntryEnum     EntryKind = "enum"
	EntryStruct   EntryKind = "struct"
	EntryUnion    EntryKind = "union"
	EntryFunction EntryKind = "function"
)

// Entry is one declaration of a DeclTable. Exactly one of Decl and
// Function is set.
type Entry struct {
	Kind     EntryKind
	File     string
	Decl     types.TypeDecl
	Function *types.FunctionDeclare
}

// Name returns the name a reader would use for the entry.
func (e Entry) Name() string {
	if e.Function != nil {
		return e.Function.Name
	}
	return types.DisplayName(e.Decl)
}

// Location returns the entry's source location, if known.
func (e Entry) Location() *types.SourceLocation {
	if e.Function != nil {
		return e.Function.Location
	}
	return e.Decl.Loc()
}

// DeclTable indexes the declarations of many source files by name, file,
// and kind. Type declarations are reachable by both their tag and their
// typedef alias.
type DeclTable struct {
	entries []Entry
	byName  map[string][]int
	byFile  map[string][]int
	byKind  map[EntryKind][]int
}

// BuildDeclTable indexes files in order.
func BuildDeclTable(files []*types.SourceFile) *DeclTable {
	dt := &DeclTable{
		byName: make(map[string][]int),
		byFile: make(map[string][]int),
		byKind: make(map[EntryKind][]int),
	}
	for _, sf := range files {
		for _, d := range sf.TypeDecls {
			idx := dt.add(Entry{Kind: EntryKind(d.DeclKind().String()), File: sf.Path, Decl: d})
			if tag := d.TagName(); tag != "" {
				dt.byName[tag] = append(dt.byName[tag], idx)
			}
			if alias := d.TypedefName(); alias != "" && alias != d.TagName() {
				dt.byName[alias] = append(dt.byName[alias], idx)
			}
		}
		for _, fn := range sf.Functions {
			idx := dt.add(Entry{Kind: EntryFunction, File: sf.Path, Function: fn})
			dt.byName[fn.Name] = append(dt.byName[fn.Name], idx)
		}
	}
	return dt
}

func (dt *DeclTable) add(e Entry) int {
	idx := len(dt.entries)
	dt.entries = append(dt.entries, e)
	dt.byFile[e.File] = append(dt.byFile[e.File], idx)
	dt.byKind[e.Kind] = append(dt.byKind[e.Kind], idx)
	return idx
}

// All returns every entry in the table.
func (dt *DeclTable) All() []Entry {
	result := make([]Entry, len(dt.entries))
	copy(result, dt.entries)
	return result
}

// ByName returns the entries whose tag, typedef alias, or function name
// equals name.
func (dt *DeclTable) ByName(name string) []Entry {
	return dt.lookup(dt.byName[name])
}

// ByFile returns the entries declared in the given source file.
func (dt *DeclTable) ByFile(path string) []Entry {
	return dt.lookup(dt.byFile[path])
}

// ByKind returns all entries of the given kind.
func (dt *DeclTable) ByKind(kind EntryKind) []Entry {
	return dt.lookup(dt.byKind[kind])
}

// Len returns the total number of entries.
func (dt *DeclTable) Len() int {
	return len(dt.entries)
}

func (dt *DeclTable) lookup(indices []int) []Entry {
	if len(indices) == 0 {
		return nil
	}
	result := make([]Entry, len(indices))
	for i, idx := range indices {
		result[i] = dt.entries[idx]
	}
	return result
}
