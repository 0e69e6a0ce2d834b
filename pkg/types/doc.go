package types

// TypeKind tags the variant held by a TypeExpr.
type TypeKind int

const (
	KindPrimitive TypeKind = iota
	KindArray
	KindReference
	KindInline
)

func (k TypeKind) String() string {
	switch k {
	case KindPrimitive:
		return "primitive"
	case KindArray:
		return "array"
	case KindReference:
		return "reference"
	case KindInline:
		return "inline"
	default:
		return "unknown"
	}
}

// TypeExpr is the type of one field: a primitive keyword, an array of
// another type, a reference to a declaration by name, or an inline shape.
type TypeExpr struct {
	Kind TypeKind

	// Keyword is set for KindPrimitive ("string", "number", "boolean").
	Keyword string

	// Name is set for KindReference.
	Name string

	// Elem is set for KindArray.
	Elem *TypeExpr

	// Fields is set for KindInline.
	Fields []Field
}

// Primitive returns a primitive type expression.
func Primitive(keyword string) TypeExpr {
	return TypeExpr{Kind: KindPrimitive, Keyword: keyword}
}

// ArrayOf returns an array type expression with the given element.
func ArrayOf(elem TypeExpr) TypeExpr {
	return TypeExpr{Kind: KindArray, Elem: &elem}
}

// Ref returns a reference to the declaration called name.
func Ref(name string) TypeExpr {
	return TypeExpr{Kind: KindReference, Name: name}
}

// Inline returns an inline shape built from fields.
func Inline(fields []Field) TypeExpr {
	return TypeExpr{Kind: KindInline, Fields: fields}
}

// Node is either a *Field or a *Declaration.
type Node interface {
	node()
	// SetComment attaches a leading comment.
	SetComment(text string)
}

// Field is one member line of a declaration.
type Field struct {
	Name     string
	Optional bool
	Type     TypeExpr
	Comment  string
}

// Declaration is a named structural type block.
type Declaration struct {
	Name    string
	Fields  []Field
	Comment string
}

func (*Field) node()       {}
func (*Declaration) node() {}

// SetComment implements Node.
func (f *Field) SetComment(text string) { f.Comment = text }

// SetComment implements Node.
func (d *Declaration) SetComment(text string) { d.Comment = text }
