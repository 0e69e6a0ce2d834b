// Package transform converts schema trees into interface declaration text.
//
// Generation walks a schema depth-first and promotes every nested object
// (and every array of objects) to its own named declaration, referenced
// from the parent field. Declarations are collected in creation order, so
// nested shapes come before the declarations that reference them.
package transform

import (
	"errors"
	"fmt"

	"github.com/yourorg/apidecl/pkg/types"
)

// DefaultTopName names the root declaration when Options.TopName is empty.
const DefaultTopName = "Struct"

// ErrSchemaTooDeep is returned when a schema nests deeper than Options.MaxDepth.
var ErrSchemaTooDeep = errors.New("schema too deep")

// Options controls a single transform call.
type Options struct {
	// TopName names the root declaration. It is used verbatim.
	TopName string

	// DiscardTop computes the root object's fields but emits only the
	// declarations they reference.
	DiscardTop bool

	// InlineNested renders nested objects as inline shapes instead of
	// promoting them to named declarations.
	InlineNested bool

	// DescriptionFallback uses a node's description as its comment when the
	// title is empty.
	DescriptionFallback bool

	// MaxDepth bounds recursion; 0 means unbounded.
	MaxDepth int

	Render RenderOptions
}

func (o Options) topName() string {
	if o.TopName == "" {
		return DefaultTopName
	}
	return o.TopName
}

type generator struct {
	opts  Options
	decls []types.Declaration
}

// Generate walks root and returns the declarations it produces, in creation
// order. A root without a type yields no declarations.
func Generate(root *types.SchemaNode, opts Options) ([]types.Declaration, error) {
	if root == nil || root.Type == "" {
		return nil, nil
	}
	name := opts.topName()
	g := &generator{opts: opts}
	n, err := g.generate(root, name, true, true, 1, name)
	if err != nil {
		return nil, err
	}
	// A root that is not an object with properties comes back as a field;
	// wrap it so the output always has a block for it.
	if f, ok := n.(*types.Field); ok {
		g.decls = append(g.decls, types.Declaration{Name: name, Fields: []types.Field{*f}})
	}
	return g.decls, nil
}

func (g *generator) generate(node *types.SchemaNode, name string, required, top bool, depth int, path string) (types.Node, error) {
	if g.opts.MaxDepth > 0 && depth > g.opts.MaxDepth {
		return nil, fmt.Errorf("%w: %s is nested deeper than %d", ErrSchemaTooDeep, path, g.opts.MaxDepth)
	}

	var out types.Node
	switch {
	case node.Type == "array" && node.Items.HasProperties():
		fields, err := g.fields(node.Items, depth, path)
		if err != nil {
			return nil, err
		}
		out = g.field(name, required, types.ArrayOf(g.nested(name, fields)))

	case node.Type == "array":
		// Without items the outer type is mapped, which always lands on the
		// string default.
		keyword := MapType(node.Type)
		if node.Items != nil {
			keyword = MapType(node.Items.Type)
		}
		out = g.field(name, required, types.ArrayOf(types.Primitive(keyword)))

	case node.Type == "object" && node.HasProperties():
		fields, err := g.fields(node, depth, path)
		if err != nil {
			return nil, err
		}
		if top {
			decl := &types.Declaration{Name: name, Fields: fields}
			g.comment(decl, node)
			if !g.opts.DiscardTop {
				g.decls = append(g.decls, *decl)
			}
			return decl, nil
		}
		out = g.field(name, required, g.nested(name, fields))

	default:
		out = g.field(name, required, types.Primitive(MapType(node.Type)))
	}

	g.comment(out, node)
	return out, nil
}

// fields generates one field per property of parent, in property order.
func (g *generator) fields(parent *types.SchemaNode, depth int, path string) ([]types.Field, error) {
	fields := make([]types.Field, 0, len(parent.Properties))
	for _, p := range parent.Properties {
		child := p.Schema
		if child == nil {
			child = &types.SchemaNode{}
		}
		n, err := g.generate(child, p.Name, parent.IsRequired(p.Name), false, depth+1, path+"."+p.Name)
		if err != nil {
			return nil, err
		}
		if f, ok := n.(*types.Field); ok {
			fields = append(fields, *f)
		}
	}
	return fields, nil
}

// nested returns the type for a nested shape, appending a declaration for it
// unless shapes are inlined.
func (g *generator) nested(name string, fields []types.Field) types.TypeExpr {
	if g.opts.InlineNested {
		return types.Inline(fields)
	}
	ref := DeriveName(name)
	g.decls = append(g.decls, types.Declaration{Name: ref, Fields: fields})
	return types.Ref(ref)
}

func (g *generator) field(name string, required bool, typ types.TypeExpr) *types.Field {
	return &types.Field{Name: name, Optional: !required, Type: typ}
}

func (g *generator) comment(n types.Node, node *types.SchemaNode) {
	text := node.Title
	if text == "" && g.opts.DescriptionFallback {
		text = node.Description
	}
	if text != "" {
		n.SetComment(text)
	}
}
