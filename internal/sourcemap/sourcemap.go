// Package sourcemap records (CASM source position) -> (emitted output
// position) mappings for the `--sourcemap` flag (spec.md §4.13 /
// component C15), serializing them to a flat JSON document rather than
// full Source Map v3 VLQ, since the only consumer is casmc's own
// tooling rather than a browser devtools panel. It is grounded on the
// teacher's pkg/sourcemap/generator.go (the Mapping/Generator shape)
// and pkg/sourcemap/validator.go (the Validate/ValidationResult
// shape), adapted from Dingo-source-to-Go positions to CASM-source-to-
// emitted-output positions.
package sourcemap

import (
	"encoding/json"
	"fmt"
)

// Mapping is one (casm source position) -> (emitted output position)
// record, per spec.md §4.13: one entry per emitted statement and per
// emitted function header.
type Mapping struct {
	CasmLine int    `json:"casmLine"`
	CasmCol  int    `json:"casmCol"`
	OutLine  int    `json:"outLine"`
	OutCol   int    `json:"outCol"`
	Name     string `json:"name,omitempty"`
}

// Map collects mappings as an emitter writes text.
type Map struct {
	Version  int       `json:"version"`
	Source   string    `json:"source"`
	Output   string    `json:"output"`
	Mappings []Mapping `json:"mappings"`
}

// New returns an empty Map for the given source and output file paths.
func New(source, output string) *Map {
	return &Map{Version: 1, Source: source, Output: output}
}

// Add records one mapping. name is optional context (e.g. the
// function name at this position) carried through for debugging.
func (m *Map) Add(casmLine, casmCol, outLine, outCol int, name string) {
	m.Mappings = append(m.Mappings, Mapping{
		CasmLine: casmLine,
		CasmCol:  casmCol,
		OutLine:  outLine,
		OutCol:   outCol,
		Name:     name,
	})
}

// Marshal serializes m to the flat JSON document written alongside the
// emitted output as `<output>.map`.
func (m *Map) Marshal() ([]byte, error) {
	data, err := json.MarshalIndent(m, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("marshal source map: %w", err)
	}
	return data, nil
}

// Unmarshal parses a flat JSON source map document.
func Unmarshal(data []byte) (*Map, error) {
	var m Map
	if err := json.Unmarshal(data, &m); err != nil {
		return nil, fmt.Errorf("parse source map: %w", err)
	}
	return &m, nil
}
