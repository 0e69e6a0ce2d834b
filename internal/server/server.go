// Package server exposes the transform over HTTP for the browser extension
// and serves a small page listing recent snippets.
package server

import (
	"bytes"
	_ "embed"
	"encoding/json"
	"errors"
	"html/template"
	"log/slog"
	"net/http"
	"strconv"
	"strings"

	"github.com/yourorg/apidecl/internal/config"
	"github.com/yourorg/apidecl/internal/generator"
	"github.com/yourorg/apidecl/internal/schema"
	"github.com/yourorg/apidecl/internal/store"
	"github.com/yourorg/apidecl/internal/transform"
	"github.com/yourorg/apidecl/internal/yapi"
	"github.com/yourorg/apidecl/pkg/types"
)

var (
	//go:embed ui.html
	uiHTML string

	uiTemplate = template.Must(template.New("ui").Parse(uiHTML))
)

const recentSnippets = 20

// Server wraps the UI and API handlers.
type Server struct {
	cfg     *config.Config
	store   store.Store
	fetcher generator.Fetcher
	logger  *slog.Logger
	mux     *http.ServeMux
}

type uiData struct {
	Snippets []types.Snippet
}

// New constructs a new Server with routes registered. fetcher may be nil
// when no YApi server is configured; only cached interfaces are served then.
func New(cfg *config.Config, st store.Store, fetcher generator.Fetcher, logger *slog.Logger) (*Server, error) {
	if cfg == nil {
		return nil, errors.New("config is nil")
	}
	if st == nil {
		return nil, errors.New("store is nil")
	}
	if logger == nil {
		logger = slog.Default()
	}

	srv := &Server{
		cfg:     cfg,
		store:   st,
		fetcher: fetcher,
		logger:  logger,
		mux:     http.NewServeMux(),
	}
	srv.registerRoutes()
	return srv, nil
}

// Handler returns the http handler.
func (s *Server) Handler() http.Handler {
	return s.mux
}

// ListenAndServe starts the server on addr.
func (s *Server) ListenAndServe(addr string) error {
	return http.ListenAndServe(addr, s.mux)
}

func (s *Server) registerRoutes() {
	// Rendered output files.
	s.mux.Handle("/docs/", http.StripPrefix("/docs/", http.FileServer(http.Dir(s.cfg.Output.Dir))))

	s.mux.HandleFunc("/", s.handleIndex)

	s.mux.HandleFunc("/api/transform", s.handleTransform)
	s.mux.HandleFunc("/api/interfaces", s.handleInterfaces)
	s.mux.HandleFunc("/api/interfaces/", s.handleInterfaceRoutes)
	s.mux.HandleFunc("/api/snippets", s.handleSnippets)
	s.mux.HandleFunc("/api/snippets/", s.handleSnippetDetail)
}

func (s *Server) handleIndex(w http.ResponseWriter, r *http.Request) {
	if r.URL.Path != "/" {
		http.NotFound(w, r)
		return
	}
	if r.Method != http.MethodGet {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}
	snippets, err := s.store.ListSnippets()
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	if len(snippets) > recentSnippets {
		snippets = snippets[:recentSnippets]
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.Header().Set("Cache-Control", "no-store")
	_ = uiTemplate.Execute(w, uiData{Snippets: snippets})
}

type transformRequest struct {
	Schema     json.RawMessage `json:"schema"`
	Sample     bool            `json:"sample"`
	Name       string          `json:"name"`
	DiscardTop *bool           `json:"discard_top"`
	Export     *bool           `json:"export"`
}

// handleTransform accepts the schema either as a JSON object or as the JSON
// string YApi stores it as.
func (s *Server) handleTransform(w http.ResponseWriter, r *http.Request) {
	setCORS(w, s.cfg.Server.CORSExtensionID)
	if r.Method == http.MethodOptions {
		w.WriteHeader(http.StatusNoContent)
		return
	}
	if r.Method != http.MethodPost {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}
	var req transformRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "invalid json: "+err.Error(), http.StatusBadRequest)
		return
	}
	raw := bytes.TrimSpace(req.Schema)
	if len(raw) > 0 && raw[0] == '"' {
		var text string
		if err := json.Unmarshal(raw, &text); err != nil {
			http.Error(w, "invalid schema string", http.StatusBadRequest)
			return
		}
		raw = []byte(text)
	}
	if len(raw) == 0 || string(raw) == "null" {
		http.Error(w, "schema required", http.StatusBadRequest)
		return
	}

	gen := s.generator(req.Name, req.DiscardTop, req.Export)
	var (
		sn  *types.Snippet
		err error
	)
	if req.Sample {
		sn, err = gen.FromSample(raw, "extension")
	} else {
		sn, err = gen.FromSchema(raw, "extension")
	}
	if err != nil {
		s.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"id": sn.ID, "text": sn.Text})
}

func (s *Server) handleInterfaces(w http.ResponseWriter, r *http.Request) {
	setCORS(w, s.cfg.Server.CORSExtensionID)
	if r.Method == http.MethodOptions {
		w.WriteHeader(http.StatusNoContent)
		return
	}
	if r.Method != http.MethodGet {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}
	interfaces, err := s.store.ListInterfaces()
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	if interfaces == nil {
		interfaces = []types.Interface{}
	}
	writeJSON(w, http.StatusOK, interfaces)
}

func (s *Server) handleInterfaceRoutes(w http.ResponseWriter, r *http.Request) {
	setCORS(w, s.cfg.Server.CORSExtensionID)
	if r.Method == http.MethodOptions {
		w.WriteHeader(http.StatusNoContent)
		return
	}
	idStr, tail, ok := splitPath(r.URL.Path, "/api/interfaces/")
	if !ok || tail != "declaration" {
		http.NotFound(w, r)
		return
	}
	if r.Method != http.MethodGet {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}
	id, err := strconv.ParseInt(idStr, 10, 64)
	if err != nil || id <= 0 {
		http.Error(w, "invalid interface id", http.StatusBadRequest)
		return
	}

	q := r.URL.Query()
	body := types.BodyResponse
	if k := q.Get("kind"); k != "" {
		body = types.Body(k)
	}
	if !body.Valid() {
		http.Error(w, "kind must be request or response", http.StatusBadRequest)
		return
	}
	var discardTop *bool
	if v := q.Get("discard_top"); v != "" {
		b, err := strconv.ParseBool(v)
		if err != nil {
			http.Error(w, "invalid discard_top", http.StatusBadRequest)
			return
		}
		discardTop = &b
	}

	gen := s.generator(q.Get("name"), discardTop, nil)
	sn, err := gen.FromInterface(r.Context(), id, body)
	if err != nil {
		s.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"id": sn.ID, "text": sn.Text})
}

func (s *Server) handleSnippets(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}
	snippets, err := s.store.ListSnippets()
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	if snippets == nil {
		snippets = []types.Snippet{}
	}
	writeJSON(w, http.StatusOK, snippets)
}

func (s *Server) handleSnippetDetail(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}
	idStr, tail, ok := splitPath(r.URL.Path, "/api/snippets/")
	if !ok || tail != "" {
		http.NotFound(w, r)
		return
	}
	id, err := strconv.ParseInt(idStr, 10, 64)
	if err != nil {
		http.Error(w, "invalid snippet id", http.StatusBadRequest)
		return
	}
	sn, err := s.store.GetSnippet(id)
	if err != nil {
		s.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, sn)
}

// generator returns a Generator with per-request overrides applied to the
// configured options.
func (s *Server) generator(name string, discardTop, export *bool) *generator.Generator {
	opts := s.cfg.TransformOptions()
	if strings.TrimSpace(name) != "" {
		opts.TopName = strings.TrimSpace(name)
	}
	if discardTop != nil {
		opts.DiscardTop = *discardTop
	}
	if export != nil {
		opts.Render.Export = *export
	}
	return &generator.Generator{
		Store:   s.store,
		Fetcher: s.fetcher,
		Options: opts,
	}
}

func (s *Server) writeError(w http.ResponseWriter, err error) {
	status := http.StatusInternalServerError
	switch {
	case errors.Is(err, store.ErrNotFound), errors.Is(err, yapi.ErrNotFound):
		status = http.StatusNotFound
	case errors.Is(err, schema.ErrEmptySchema), errors.Is(err, transform.ErrSchemaTooDeep):
		status = http.StatusUnprocessableEntity
	case errors.Is(err, schema.ErrInvalid):
		status = http.StatusBadRequest
	}
	if status == http.StatusInternalServerError {
		s.logger.Error("request failed", "err", err)
	}
	http.Error(w, err.Error(), status)
}

func splitPath(fullPath, prefix string) (string, string, bool) {
	if !strings.HasPrefix(fullPath, prefix) {
		return "", "", false
	}
	rest := strings.TrimPrefix(fullPath, prefix)
	rest = strings.Trim(rest, "/")
	if rest == "" {
		return "", "", false
	}
	parts := strings.Split(rest, "/")
	id := parts[0]
	tail := ""
	if len(parts) > 1 {
		tail = strings.Join(parts[1:], "/")
	}
	return id, tail, true
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func setCORS(w http.ResponseWriter, extensionID string) {
	origin := "*"
	if extensionID != "" {
		origin = "chrome-extension://" + extensionID
	}
	w.Header().Set("Access-Control-Allow-Origin", origin)
	w.Header().Set("Access-Control-Allow-Methods", "GET, POST, OPTIONS")
	w.Header().Set("Access-Control-Allow-Headers", "Content-Type")
}
