package transform

import "github.com/yourorg/apidecl/pkg/types"

// Transform generates the declarations for root and renders them. The
// result is empty when root has no type. It only fails when MaxDepth is set
// and exceeded.
func Transform(root *types.SchemaNode, opts Options) (string, error) {
	decls, err := Generate(root, opts)
	if err != nil {
		return "", err
	}
	return Render(decls, opts.Render), nil
}
