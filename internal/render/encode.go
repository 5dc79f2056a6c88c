// Copyright (c) 2026 Petar Djukic. All rights reserved.
// SPDX-License-Identifier: MIT

package render

import (
	"encoding/json"
	"io"

	"github.com/k0kubun/pp/v3"
	"gitlab.com/tozd/go/errors"
	"gopkg.in/yaml.v3"
)

// Format names an output format.
type Format string

const (
	FormatText   Format = "text"
	FormatJSON   Format = "json"
	FormatYAML   Format = "yaml"
	FormatPretty Format = "pretty"
)

// ErrUnknownFormat is returned by ParseFormat.
var ErrUnknownFormat = errors.New("unknown output format")

// ParseFormat accepts text, json, yaml, or pretty. The empty string means
// pretty.
func ParseFormat(s string) (Format, error) {
	switch Format(s) {
	case "":
		return FormatPretty, nil
	case FormatText, FormatJSON, FormatYAML, FormatPretty:
		return Format(s), nil
	}
	return "", errors.Errorf("%w: %q", ErrUnknownFormat, s)
}

// JSON writes v as indented JSON.
func JSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	if err := enc.Encode(v); err != nil {
		return errors.Errorf("encoding json: %w", err)
	}
	return nil
}

// YAML writes v as a YAML document.
func YAML(w io.Writer, v any) error {
	enc := yaml.NewEncoder(w)
	enc.SetIndent(2)
	if err := enc.Encode(v); err != nil {
		return errors.Errorf("encoding yaml: %w", err)
	}
	if err := enc.Close(); err != nil {
		return errors.Errorf("encoding yaml: %w", err)
	}
	return nil
}

// Pretty writes the Go view of v, exported fields only.
func Pretty(w io.Writer, v any, color bool) error {
	p := pp.New()
	p.SetExportedOnly(true)
	p.SetColoringEnabled(color)
	_, err := io.WriteString(w, p.Sprint(v)+"\n")
	return err
}
