package transform

import (
	"strings"

	"github.com/yourorg/apidecl/pkg/types"
)

// DefaultIndent is one level of member indentation.
const DefaultIndent = "  "

// RenderOptions controls the text layout of rendered declarations.
type RenderOptions struct {
	// Indent is one indentation level; empty means DefaultIndent.
	Indent string

	// Export prefixes every block with "export ".
	Export bool
}

// Render serializes declarations into text, one block per declaration in
// slice order, joined by a newline. Members carry no terminators.
func Render(decls []types.Declaration, opts RenderOptions) string {
	indent := opts.Indent
	if indent == "" {
		indent = DefaultIndent
	}
	blocks := make([]string, 0, len(decls))
	for i := range decls {
		blocks = append(blocks, renderDeclaration(&decls[i], indent, opts.Export))
	}
	return strings.Join(blocks, "\n")
}

func renderDeclaration(d *types.Declaration, indent string, export bool) string {
	b := &strings.Builder{}
	if d.Comment != "" {
		b.WriteString(formatComment(d.Comment))
		b.WriteByte('\n')
	}
	if export {
		b.WriteString("export ")
	}
	b.WriteString("interface ")
	b.WriteString(d.Name)
	b.WriteString(" {\n")
	writeFields(b, d.Fields, indent, 1)
	b.WriteString("}")
	return b.String()
}

func writeFields(b *strings.Builder, fields []types.Field, indent string, level int) {
	pad := strings.Repeat(indent, level)
	for _, f := range fields {
		if f.Comment != "" {
			b.WriteString(pad)
			b.WriteString(formatComment(f.Comment))
			b.WriteByte('\n')
		}
		b.WriteString(pad)
		b.WriteString(f.Name)
		if f.Optional {
			b.WriteByte('?')
		}
		b.WriteString(": ")
		writeType(b, f.Type, indent, level)
		b.WriteByte('\n')
	}
}

func writeType(b *strings.Builder, t types.TypeExpr, indent string, level int) {
	switch t.Kind {
	case types.KindArray:
		if t.Elem == nil {
			b.WriteString(KeywordString)
		} else {
			writeType(b, *t.Elem, indent, level)
		}
		b.WriteString("[]")
	case types.KindReference:
		b.WriteString(t.Name)
	case types.KindInline:
		b.WriteString("{\n")
		writeFields(b, t.Fields, indent, level+1)
		b.WriteString(strings.Repeat(indent, level))
		b.WriteString("}")
	default:
		if t.Keyword == "" {
			b.WriteString(KeywordString)
			return
		}
		b.WriteString(t.Keyword)
	}
}

// formatComment wraps text in a block comment and widens every opening
// delimiter to "/** " and every closing one to " */".
func formatComment(text string) string {
	c := "/*" + text + "*/"
	c = strings.ReplaceAll(c, "/*", "/** ")
	return strings.ReplaceAll(c, "*/", " */")
}
