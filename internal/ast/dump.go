// Copyright (c) 2026 Petar Djukic. All rights reserved.
// SPDX-License-Identifier: MIT

package ast

import (
	"fmt"
	"io"
	"strings"

	"github.com/petar-djukic/cdecl/internal/frontend"
)

// DumpEntities writes the entity tree of a translation unit's main file,
// one entity per line, indented by depth.
func DumpEntities(w io.Writer, tu frontend.Entity) error {
	if _, err := fmt.Fprintln(w, tu.String()); err != nil {
		return err
	}
	for _, child := range tu.Children() {
		if !child.IsInMainFile() {
			continue
		}
		if err := dumpEntity(w, child, 1); err != nil {
			return err
		}
	}
	return nil
}

func dumpEntity(w io.Writer, e frontend.Entity, depth int) error {
	if _, err := fmt.Fprintf(w, "%s%s\n", strings.Repeat("  ", depth), e); err != nil {
		return err
	}
	for _, child := range e.Children() {
		if err := dumpEntity(w, child, depth+1); err != nil {
			return err
		}
	}
	return nil
}
