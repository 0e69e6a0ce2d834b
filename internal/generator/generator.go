// Package generator ties the schema sources (YApi, files, samples and HAR
// captures) to the transform and records every result as a snippet.
package generator

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/yourorg/apidecl/internal/schema"
	"github.com/yourorg/apidecl/internal/store"
	"github.com/yourorg/apidecl/internal/transform"
	"github.com/yourorg/apidecl/pkg/types"
)

// ProgressFunc reports generation progress.
type ProgressFunc func(stage string)

// Fetcher loads an interface definition from a documentation server.
type Fetcher interface {
	GetInterface(ctx context.Context, id int64) (*types.Interface, error)
}

// Generator produces declaration snippets. Store may be nil, in which case
// nothing is cached or recorded.
type Generator struct {
	Store    store.Store
	Fetcher  Fetcher
	Options  transform.Options
	NoCache  bool
	Progress ProgressFunc
}

// FromInterface generates the declarations for one body of a YApi
// interface. Cached interfaces are reused unless NoCache is set.
func (g *Generator) FromInterface(ctx context.Context, id int64, body types.Body) (*types.Snippet, error) {
	if !body.Valid() {
		return nil, fmt.Errorf("unknown body %q", body)
	}
	itf, err := g.loadInterface(ctx, id)
	if err != nil {
		return nil, err
	}
	raw, isSchema := itf.Schema(body)
	if strings.TrimSpace(raw) == "" {
		return nil, fmt.Errorf("interface %d has no %s body: %w", id, body, schema.ErrEmptySchema)
	}

	var node *types.SchemaNode
	if isSchema {
		node, err = schema.Decode([]byte(raw))
	} else {
		node, err = schema.Infer([]byte(raw))
	}
	if err != nil {
		return nil, fmt.Errorf("interface %d %s body: %w", id, body, err)
	}

	report(g.Progress, fmt.Sprintf("transforming %s %s (%s)", itf.Method, itf.Path, body))
	return g.emit(node, g.Options, types.SourceYApi, strconv.FormatInt(id, 10), body)
}

func (g *Generator) loadInterface(ctx context.Context, id int64) (*types.Interface, error) {
	if g.Store != nil && !g.NoCache {
		itf, err := g.Store.GetInterface(id)
		if err == nil {
			report(g.Progress, fmt.Sprintf("interface %d: using cache", id))
			return itf, nil
		}
		if !errors.Is(err, store.ErrNotFound) {
			return nil, err
		}
	}
	if g.Fetcher == nil {
		return nil, errors.New("no yapi client configured")
	}
	report(g.Progress, fmt.Sprintf("fetching interface %d", id))
	itf, err := g.Fetcher.GetInterface(ctx, id)
	if err != nil {
		return nil, err
	}
	if g.Store != nil {
		if err := g.Store.SaveInterface(itf); err != nil {
			return nil, err
		}
	}
	return itf, nil
}

// FromFile generates declarations from a JSON or YAML schema file.
func (g *Generator) FromFile(path string, body types.Body) (*types.Snippet, error) {
	report(g.Progress, "reading "+path)
	node, err := schema.LoadFile(path)
	if err != nil {
		return nil, err
	}
	return g.emit(node, g.Options, types.SourceFile, path, body)
}

// FromSample infers a schema from a sample JSON payload.
func (g *Generator) FromSample(raw []byte, ref string) (*types.Snippet, error) {
	node, err := schema.Infer(raw)
	if err != nil {
		return nil, err
	}
	return g.emit(node, g.Options, types.SourceSample, ref, types.BodyResponse)
}

// FromSchema generates declarations from a JSON schema document.
func (g *Generator) FromSchema(raw []byte, ref string) (*types.Snippet, error) {
	node, err := schema.Decode(raw)
	if err != nil {
		return nil, err
	}
	return g.emit(node, g.Options, types.SourceInline, ref, types.BodyResponse)
}

// FromHAR generates one snippet per JSON body in the exchanges. Responses
// are named after the request path; request bodies get a Request suffix.
// Bodies that are not valid JSON are skipped.
func (g *Generator) FromHAR(exchanges []types.Exchange) ([]types.Snippet, error) {
	var out []types.Snippet
	for i, ex := range exchanges {
		report(g.Progress, fmt.Sprintf("exchange %d/%d: %s %s", i+1, len(exchanges), ex.Method, ex.Path))
		name := NameFromPath(ex.Path)
		ref := ex.Method + " " + ex.Path

		bodies := []struct {
			body types.Body
			text string
			name string
		}{
			{types.BodyResponse, ex.ResponseBody, name},
			{types.BodyRequest, ex.RequestBody, name + "Request"},
		}
		for _, b := range bodies {
			if strings.TrimSpace(b.text) == "" {
				continue
			}
			node, err := schema.Infer([]byte(b.text))
			if err != nil {
				report(g.Progress, fmt.Sprintf("skipping %s %s body: %v", ref, b.body, err))
				continue
			}
			opts := g.Options
			opts.TopName = b.name
			sn, err := g.emit(node, opts, types.SourceHAR, ref, b.body)
			if err != nil {
				return nil, err
			}
			out = append(out, *sn)
		}
	}
	return out, nil
}

func (g *Generator) emit(node *types.SchemaNode, opts transform.Options, source, ref string, body types.Body) (*types.Snippet, error) {
	text, err := transform.Transform(node, opts)
	if err != nil {
		return nil, err
	}
	sn := &types.Snippet{
		Source:     source,
		Ref:        ref,
		Body:       body,
		TopName:    topName(opts),
		DiscardTop: opts.DiscardTop,
		Text:       text,
	}
	if g.Store != nil {
		if err := g.Store.SaveSnippet(sn); err != nil {
			return nil, err
		}
	}
	return sn, nil
}

func topName(opts transform.Options) string {
	if opts.TopName == "" {
		return transform.DefaultTopName
	}
	return opts.TopName
}

// NameFromPath derives a declaration name from a request path, so
// /api/user/info becomes UserInfo. A leading api segment, version segments
// and numeric ids are skipped.
func NameFromPath(p string) string {
	var b strings.Builder
	for i, seg := range strings.Split(strings.Trim(p, "/"), "/") {
		if seg == "" || isNumeric(seg) || isVersion(seg) || (i == 0 && strings.EqualFold(seg, "api")) {
			continue
		}
		for _, word := range strings.FieldsFunc(seg, isSeparator) {
			b.WriteString(transform.DeriveName(word))
		}
	}
	if b.Len() == 0 {
		return transform.DefaultTopName
	}
	return b.String()
}

func isSeparator(r rune) bool {
	return !(r >= 'a' && r <= 'z' || r >= 'A' && r <= 'Z' || r >= '0' && r <= '9')
}

func isNumeric(s string) bool {
	_, err := strconv.ParseUint(s, 10, 64)
	return err == nil
}

func isVersion(s string) bool {
	return len(s) > 1 && (s[0] == 'v' || s[0] == 'V') && isNumeric(s[1:])
}

func report(fn ProgressFunc, msg string) {
	if fn != nil {
		fn(msg)
	}
}

func writeFile(path, text string) error {
	if text != "" && !strings.HasSuffix(text, "\n") {
		text += "\n"
	}
	return os.WriteFile(path, []byte(text), 0o644)
}
