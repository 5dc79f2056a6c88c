// Copyright (c) 2026 Petar Djukic. All rights reserved.
// SPDX-License-Identifier: MIT

package types

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gitlab.com/tozd/go/errors"
	"gopkg.in/yaml.v3"
)

func TestParseTypeKind(t *testing.T) {
	tests := []struct {
		in      string
		want    TypeKind
		wantErr string
	}{
		{"pointer", KindPointer, ""},
		{"char_s", KindCharS, ""},
		{"function_no_proto", KindFunctionNoProto, ""},
		{"Pointer", KindInvalid, `unknown type kind "Pointer"`},
		{"", KindInvalid, `unknown type kind ""`},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := ParseTypeKind(tt.in)
			assert.Equal(t, tt.want, got)
			if tt.wantErr == "" {
				require.NoError(t, err)
				assert.Equal(t, tt.in, got.String())
				return
			}
			require.EqualError(t, err, tt.wantErr)
			var withStack interface{ StackTrace() []uintptr }
			assert.True(t, errors.As(err, &withStack), "error carries a stack trace")
		})
	}
}

func TestDeclareMarshal_KindDiscriminator(t *testing.T) {
	tests := []struct {
		name string
		decl any
		kind string
	}{
		{"enum", NewEnumDeclare("E", ""), "enum"},
		{"struct", NewStructDeclare("", "Vec2"), "struct"},
		{"union", NewUnionDeclare("U", "U"), "union"},
		{"field", &FieldDeclare{Name: "x"}, "field"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			raw, err := json.Marshal(tt.decl)
			require.NoError(t, err)
			var fromJSON map[string]any
			require.NoError(t, json.Unmarshal(raw, &fromJSON))
			assert.Equal(t, tt.kind, fromJSON["kind"])

			raw, err = yaml.Marshal(tt.decl)
			require.NoError(t, err)
			var fromYAML map[string]any
			require.NoError(t, yaml.Unmarshal(raw, &fromYAML))
			assert.Equal(t, tt.kind, fromYAML["kind"])
		})
	}
}
