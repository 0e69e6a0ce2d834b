package schema

import (
	"fmt"

	"gopkg.in/yaml.v3"

	"github.com/yourorg/apidecl/pkg/types"
)

// DecodeYAML parses a schema written as YAML. Mapping order is kept.
func DecodeYAML(raw []byte) (*types.SchemaNode, error) {
	var doc yaml.Node
	if err := yaml.Unmarshal(raw, &doc); err != nil {
		return nil, fmt.Errorf("decode yaml schema: %w: %w", ErrInvalid, err)
	}
	if doc.Kind != yaml.DocumentNode || len(doc.Content) == 0 {
		return nil, ErrEmptySchema
	}
	n, err := fromYAML(doc.Content[0])
	if err != nil {
		return nil, fmt.Errorf("decode yaml schema: %w: %w", ErrInvalid, err)
	}
	return n, nil
}

func fromYAML(n *yaml.Node) (*types.SchemaNode, error) {
	if n.Kind == yaml.AliasNode {
		n = n.Alias
	}
	if n.Kind == yaml.ScalarNode && n.Tag == "!!null" {
		return &types.SchemaNode{}, nil
	}
	if n.Kind != yaml.MappingNode {
		return nil, fmt.Errorf("line %d: schema must be a mapping", n.Line)
	}

	out := &types.SchemaNode{}
	for i := 0; i+1 < len(n.Content); i += 2 {
		key, val := n.Content[i].Value, n.Content[i+1]
		switch key {
		case "type":
			out.Type = val.Value
		case "title":
			out.Title = val.Value
		case "description":
			out.Description = val.Value
		case "required":
			if val.Kind != yaml.SequenceNode {
				return nil, fmt.Errorf("line %d: required must be a list", val.Line)
			}
			for _, item := range val.Content {
				out.Required = append(out.Required, item.Value)
			}
		case "items":
			items, err := fromYAML(val)
			if err != nil {
				return nil, err
			}
			out.Items = items
		case "properties":
			if val.Kind != yaml.MappingNode {
				return nil, fmt.Errorf("line %d: properties must be a mapping", val.Line)
			}
			out.Properties = make([]types.Property, 0, len(val.Content)/2)
			for j := 0; j+1 < len(val.Content); j += 2 {
				child, err := fromYAML(val.Content[j+1])
				if err != nil {
					return nil, fmt.Errorf("property %s: %w", val.Content[j].Value, err)
				}
				out.Properties = append(out.Properties, types.Property{Name: val.Content[j].Value, Schema: child})
			}
		}
	}
	return out, nil
}
