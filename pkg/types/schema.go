package types

// SchemaNode describes one piece of a JSON payload's shape.
type SchemaNode struct {
	Type        string
	Required    []string
	Title       string
	Description string

	// Items is set only when Type is "array".
	Items *SchemaNode

	// Properties is set only when Type is "object", in source order.
	// A present but empty "properties" object is a non-nil empty slice.
	Properties []Property
}

// Property is one named entry of an object schema.
type Property struct {
	Name   string
	Schema *SchemaNode
}

// HasProperties reports whether the node declares properties, even an empty set.
func (n *SchemaNode) HasProperties() bool {
	return n != nil && n.Properties != nil
}

// IsRequired reports whether name is listed in the node's required set.
func (n *SchemaNode) IsRequired(name string) bool {
	if n == nil {
		return false
	}
	for _, r := range n.Required {
		if r == name {
			return true
		}
	}
	return false
}

// Property returns the schema of the named property, or nil.
func (n *SchemaNode) Property(name string) *SchemaNode {
	if n == nil {
		return nil
	}
	for _, p := range n.Properties {
		if p.Name == name {
			return p.Schema
		}
	}
	return nil
}
