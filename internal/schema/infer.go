package schema

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/yourorg/apidecl/pkg/types"
)

// Infer builds a schema from a sample JSON payload. Every key seen in an
// object is required; array items are merged across elements so that keys
// missing from some elements become optional. null values have no type.
func Infer(sample []byte) (*types.SchemaNode, error) {
	if len(bytes.TrimSpace(sample)) == 0 {
		return nil, ErrEmptySchema
	}
	dec := json.NewDecoder(bytes.NewReader(sample))
	dec.UseNumber()
	n, err := inferValue(dec)
	if err != nil {
		return nil, fmt.Errorf("infer schema: %w: %w", ErrInvalid, err)
	}
	if _, err := dec.Token(); !errors.Is(err, io.EOF) {
		return nil, fmt.Errorf("infer schema: %w: unexpected data after payload", ErrInvalid)
	}
	return n, nil
}

func inferValue(dec *json.Decoder) (*types.SchemaNode, error) {
	tok, err := dec.Token()
	if err != nil {
		return nil, err
	}
	switch v := tok.(type) {
	case json.Delim:
		if v == '{' {
			return inferObject(dec)
		}
		if v == '[' {
			return inferArray(dec)
		}
		return nil, fmt.Errorf("unexpected delimiter %q", v)
	case string:
		return &types.SchemaNode{Type: "string"}, nil
	case json.Number:
		if strings.ContainsAny(v.String(), ".eE") {
			return &types.SchemaNode{Type: "number"}, nil
		}
		return &types.SchemaNode{Type: "integer"}, nil
	case bool:
		return &types.SchemaNode{Type: "boolean"}, nil
	case nil:
		return &types.SchemaNode{}, nil
	default:
		return nil, fmt.Errorf("unexpected token %v", tok)
	}
}

func inferObject(dec *json.Decoder) (*types.SchemaNode, error) {
	n := &types.SchemaNode{Type: "object", Properties: []types.Property{}}
	for dec.More() {
		tok, err := dec.Token()
		if err != nil {
			return nil, err
		}
		key, ok := tok.(string)
		if !ok {
			return nil, fmt.Errorf("unexpected object key %v", tok)
		}
		child, err := inferValue(dec)
		if err != nil {
			return nil, err
		}
		setProperty(n, key, child)
	}
	if _, err := dec.Token(); err != nil {
		return nil, err
	}
	return n, nil
}

func inferArray(dec *json.Decoder) (*types.SchemaNode, error) {
	n := &types.SchemaNode{Type: "array"}
	first := true
	for dec.More() {
		child, err := inferValue(dec)
		if err != nil {
			return nil, err
		}
		if first {
			n.Items = child
			first = false
			continue
		}
		n.Items = merge(n.Items, child)
	}
	if _, err := dec.Token(); err != nil {
		return nil, err
	}
	return n, nil
}

// setProperty adds key to an object node; a repeated key keeps its first
// position and takes the later value, like encoding/json does.
func setProperty(n *types.SchemaNode, key string, child *types.SchemaNode) {
	for i := range n.Properties {
		if n.Properties[i].Name == key {
			n.Properties[i].Schema = child
			return
		}
	}
	n.Properties = append(n.Properties, types.Property{Name: key, Schema: child})
	n.Required = append(n.Required, key)
}

// merge combines two samples of the same position.
func merge(a, b *types.SchemaNode) *types.SchemaNode {
	switch {
	case a == nil || a.Type == "":
		return b
	case b == nil || b.Type == "":
		return a
	case a.Type != b.Type:
		if isNumeric(a.Type) && isNumeric(b.Type) {
			return &types.SchemaNode{Type: "number"}
		}
		return a
	case a.Type == "array":
		return &types.SchemaNode{Type: "array", Items: merge(a.Items, b.Items)}
	case a.Type == "object":
		return mergeObjects(a, b)
	default:
		return a
	}
}

func mergeObjects(a, b *types.SchemaNode) *types.SchemaNode {
	out := &types.SchemaNode{Type: "object", Properties: make([]types.Property, 0, len(a.Properties))}
	for _, p := range a.Properties {
		schema := p.Schema
		if other := b.Property(p.Name); other != nil {
			schema = merge(schema, other)
		}
		out.Properties = append(out.Properties, types.Property{Name: p.Name, Schema: schema})
		if a.IsRequired(p.Name) && b.IsRequired(p.Name) {
			out.Required = append(out.Required, p.Name)
		}
	}
	for _, p := range b.Properties {
		if a.Property(p.Name) == nil {
			out.Properties = append(out.Properties, p)
		}
	}
	return out
}

func isNumeric(t string) bool {
	return t == "integer" || t == "number"
}
