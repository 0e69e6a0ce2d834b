package generator

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/yourorg/apidecl/pkg/types"
)

// Render writes snippets in every requested format.
func Render(snippets []types.Snippet, formats []string, outputDir string) error {
	for _, format := range formats {
		switch format {
		case "typescript":
			if _, err := WriteTypeScript(snippets, outputDir); err != nil {
				return err
			}
		case "markdown":
			if err := RenderMarkdown(snippets, outputDir); err != nil {
				return err
			}
		default:
			return fmt.Errorf("unknown output format %q", format)
		}
	}
	return nil
}

// WriteTypeScript writes one .ts file per non-empty snippet and returns the
// paths written.
func WriteTypeScript(snippets []types.Snippet, outputDir string) ([]string, error) {
	if err := os.MkdirAll(outputDir, 0o755); err != nil {
		return nil, err
	}
	used := make(map[string]int, len(snippets))
	var paths []string
	for _, sn := range snippets {
		if sn.Text == "" {
			continue
		}
		base := fileBase(sn)
		used[base]++
		if n := used[base]; n > 1 {
			base = fmt.Sprintf("%s_%d", base, n)
		}
		path := filepath.Join(outputDir, base+".ts")
		if err := writeFile(path, sn.Text); err != nil {
			return nil, err
		}
		paths = append(paths, path)
	}
	return paths, nil
}

func fileBase(sn types.Snippet) string {
	name := sn.TopName
	if name == "" {
		name = "Struct"
	}
	if sn.Body == types.BodyRequest && !strings.HasSuffix(name, "Request") {
		name += ".request"
	}
	return strings.Map(func(r rune) rune {
		if r == '/' || r == '\\' || r == ':' || r == ' ' {
			return '_'
		}
		return r
	}, name)
}

// RenderMarkdown renders declarations.md with one fenced block per snippet.
func RenderMarkdown(snippets []types.Snippet, outputDir string) error {
	if err := os.MkdirAll(outputDir, 0o755); err != nil {
		return err
	}

	b := &strings.Builder{}
	fmt.Fprintln(b, "# Declarations")
	for _, sn := range snippets {
		fmt.Fprintf(b, "\n## %s\n\n", sn.TopName)
		fmt.Fprintf(b, "- source: %s %s\n", sn.Source, sn.Ref)
		fmt.Fprintf(b, "- body: %s\n", sn.Body)
		if sn.DiscardTop {
			fmt.Fprintln(b, "- top declaration discarded")
		}
		if sn.Text == "" {
			fmt.Fprintln(b, "\n_no declarations_")
			continue
		}
		fmt.Fprintf(b, "\n```ts\n%s\n```\n", sn.Text)
	}
	return os.WriteFile(filepath.Join(outputDir, "declarations.md"), []byte(b.String()), 0o644)
}
