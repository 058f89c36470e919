package stega

import (
	_ "embed"
	"encoding/json"
	"fmt"
	"sync"

	"github.com/kaptinlin/jsonschema"
)

//go:embed sourcemap.schema.json
var sourceMapSchema []byte

// ContentSourceMap maps result paths to the documents and fields they came from.
type ContentSourceMap struct {
	Documents []SourceDocument   `json:"documents"`
	Paths     []string           `json:"paths"`
	Mappings  map[string]Mapping `json:"mappings"`
}

// SourceDocument identifies a document referenced by a source map.
type SourceDocument struct {
	ID        string `json:"_id"`
	Type      string `json:"_type"`
	ProjectID string `json:"_projectId,omitempty"`
	Dataset   string `json:"_dataset,omitempty"`
}

// Mapping is a single result-path entry.
type Mapping struct {
	Type   string        `json:"type"`
	Source MappingSource `json:"source"`
}

// MappingSource points at a document and path, or carries a literal.
type MappingSource struct {
	Type     string `json:"type"`
	Document int    `json:"document"`
	Path     int    `json:"path"`
}

const (
	mappingValue   = "value"
	sourceDocument = "documentValue"
)

var compileSchema = sync.OnceValues(func() (*jsonschema.Schema, error) {
	compiler := jsonschema.NewCompiler()
	return compiler.Compile(sourceMapSchema)
})

// ParseSourceMap validates raw against the source map schema and decodes it.
func ParseSourceMap(raw []byte) (*ContentSourceMap, error) {
	schema, err := compileSchema()
	if err != nil {
		return nil, fmt.Errorf("stega: compile source map schema: %w", err)
	}
	result := schema.ValidateJSON(raw)
	if !result.IsValid() {
		return nil, fmt.Errorf("stega: invalid source map: %v", result.Errors)
	}
	var csm ContentSourceMap
	if err := json.Unmarshal(raw, &csm); err != nil {
		return nil, fmt.Errorf("stega: decode source map: %w", err)
	}
	return &csm, nil
}

// resolve finds the mapping for path: an exact entry, or the longest mapped
// prefix together with the segments below it.
func (csm *ContentSourceMap) resolve(path Path) (Mapping, Path, bool) {
	if len(csm.Mappings) == 0 {
		return Mapping{}, nil, false
	}
	for i := len(path); i >= 0; i-- {
		if m, ok := csm.Mappings[path[:i].JSONPath()]; ok {
			return m, path[i:], true
		}
	}
	return Mapping{}, nil, false
}

// source returns the document and the full source path for path.
func (csm *ContentSourceMap) source(path Path) (SourceDocument, Path, bool) {
	m, rest, ok := csm.resolve(path)
	if !ok || m.Type != mappingValue || m.Source.Type != sourceDocument {
		return SourceDocument{}, nil, false
	}
	if m.Source.Document < 0 || m.Source.Document >= len(csm.Documents) {
		return SourceDocument{}, nil, false
	}
	if m.Source.Path < 0 || m.Source.Path >= len(csm.Paths) {
		return SourceDocument{}, nil, false
	}
	base, err := ParseJSONPath(csm.Paths[m.Source.Path])
	if err != nil {
		return SourceDocument{}, nil, false
	}
	return csm.Documents[m.Source.Document], append(base.clone(), rest...), true
}
