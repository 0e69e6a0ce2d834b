// Package schema reads schema trees from JSON or YAML documents and infers
// them from sample payloads. Property order always follows the source.
package schema

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/invopop/jsonschema"
	orderedmap "github.com/wk8/go-ordered-map/v2"

	"github.com/yourorg/apidecl/pkg/types"
)

var (
	// ErrEmptySchema is returned for blank input.
	ErrEmptySchema = errors.New("empty schema")
	// ErrInvalid wraps every parse failure.
	ErrInvalid = errors.New("invalid schema")
)

// Decode parses a JSON schema document.
func Decode(raw []byte) (*types.SchemaNode, error) {
	raw = bytes.TrimSpace(raw)
	if len(raw) == 0 {
		return nil, ErrEmptySchema
	}
	var s jsonschema.Schema
	if err := json.Unmarshal(raw, &s); err != nil {
		return nil, fmt.Errorf("decode schema: %w: %w", ErrInvalid, err)
	}
	return fromJSONSchema(&s), nil
}

func fromJSONSchema(s *jsonschema.Schema) *types.SchemaNode {
	if s == nil {
		return nil
	}
	n := &types.SchemaNode{
		Type:        s.Type,
		Required:    s.Required,
		Title:       s.Title,
		Description: s.Description,
		Items:       fromJSONSchema(s.Items),
	}
	if s.Properties != nil {
		n.Properties = properties(s.Properties)
	}
	return n
}

// properties walks the ordered map oldest first, which is document order.
func properties(m *orderedmap.OrderedMap[string, *jsonschema.Schema]) []types.Property {
	out := make([]types.Property, 0, m.Len())
	for pair := m.Oldest(); pair != nil; pair = pair.Next() {
		out = append(out, types.Property{Name: pair.Key, Schema: fromJSONSchema(pair.Value)})
	}
	return out
}

// LoadFile reads a schema file, choosing the decoder by extension.
func LoadFile(path string) (*types.SchemaNode, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		return DecodeYAML(data)
	default:
		return Decode(data)
	}
}
