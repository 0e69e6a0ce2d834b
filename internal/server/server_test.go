package server

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"sync/atomic"
	"testing"

	"github.com/yourorg/apidecl/internal/config"
	"github.com/yourorg/apidecl/internal/generator"
	"github.com/yourorg/apidecl/internal/store"
	"github.com/yourorg/apidecl/internal/yapi"
	"github.com/yourorg/apidecl/pkg/types"
)

const loginSchema = `{"type":"object","title":"login result","properties":{"code":{"type":"integer"},"data":{"type":"object","properties":{"token":{"type":"string"}},"required":["token"]}},"required":["code"]}`

func newTestServer(t *testing.T, fetcher *yapi.Client) (*Server, *store.SQLiteStore) {
	t.Helper()

	tmpDir := t.TempDir()
	cfg := &config.Config{}
	cfg.SetDefaults()
	cfg.Output.Dir = filepath.Join(tmpDir, "output")
	cfg.Server.CORSExtensionID = "abcdef"
	if err := os.MkdirAll(cfg.Output.Dir, 0o755); err != nil {
		t.Fatalf("mkdir output: %v", err)
	}

	st, err := store.NewSQLiteStore(filepath.Join(tmpDir, "apidecl.db"))
	if err != nil {
		t.Fatalf("open sqlite store: %v", err)
	}
	t.Cleanup(func() {
		_ = st.Close()
	})

	var f generator.Fetcher
	if fetcher != nil {
		f = fetcher
	}
	srv, err := New(cfg, st, f, nil)
	if err != nil {
		t.Fatalf("new server: %v", err)
	}
	return srv, st
}

func do(t *testing.T, srv *Server, method, target string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var reader *bytes.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			t.Fatalf("marshal body: %v", err)
		}
		reader = bytes.NewReader(data)
	} else {
		reader = bytes.NewReader(nil)
	}
	req := httptest.NewRequest(method, target, reader)
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	srv.Handler().ServeHTTP(rec, req)
	return rec
}

func decodeText(t *testing.T, rec *httptest.ResponseRecorder) string {
	t.Helper()
	var resp struct {
		ID   int64  `json:"id"`
		Text string `json:"text"`
	}
	if err := json.NewDecoder(rec.Body).Decode(&resp); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	return resp.Text
}

func TestServerTransform(t *testing.T) {
	srv, st := newTestServer(t, nil)

	rec := do(t, srv, http.MethodPost, "/api/transform", map[string]any{
		"schema": json.RawMessage(loginSchema),
		"name":   "Login",
		"export": true,
	})
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d body=%s", rec.Code, rec.Body.String())
	}
	if got := rec.Header().Get("Access-Control-Allow-Origin"); got != "chrome-extension://abcdef" {
		t.Fatalf("unexpected CORS origin %q", got)
	}
	want := "export interface Data {\n  token: string\n}\n/** login result */\nexport interface Login {\n  code: number\n  data?: Data\n}"
	if got := decodeText(t, rec); got != want {
		t.Fatalf("unexpected text:\n%s", got)
	}

	// YApi hands schemas around as JSON strings.
	rec = do(t, srv, http.MethodPost, "/api/transform", map[string]any{
		"schema":      loginSchema,
		"discard_top": true,
	})
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d body=%s", rec.Code, rec.Body.String())
	}
	if got := decodeText(t, rec); got != "interface Data {\n  token: string\n}" {
		t.Fatalf("unexpected discard-top text:\n%s", got)
	}

	rec = do(t, srv, http.MethodPost, "/api/transform", map[string]any{
		"schema": json.RawMessage(`{"id":1,"tags":["a"]}`),
		"sample": true,
	})
	if got := decodeText(t, rec); got != "interface Struct {\n  id: number\n  tags: string[]\n}" {
		t.Fatalf("unexpected sample text:\n%s", got)
	}

	snippets, err := st.ListSnippets()
	if err != nil || len(snippets) != 3 {
		t.Fatalf("expected 3 snippets recorded, got %d err=%v", len(snippets), err)
	}
}

func TestServerTransformErrors(t *testing.T) {
	srv, _ := newTestServer(t, nil)

	tests := []struct {
		name string
		body any
		code int
	}{
		{name: "missing schema", body: map[string]any{"name": "X"}, code: http.StatusBadRequest},
		{name: "bad schema string", body: map[string]any{"schema": `{"type":`}, code: http.StatusBadRequest},
		{name: "blank schema string", body: map[string]any{"schema": "   "}, code: http.StatusUnprocessableEntity},
	}
	for _, tt := range tests {
		rec := do(t, srv, http.MethodPost, "/api/transform", tt.body)
		if rec.Code != tt.code {
			t.Errorf("%s: status = %d, want %d (%s)", tt.name, rec.Code, tt.code, rec.Body.String())
		}
	}

	if rec := do(t, srv, http.MethodGet, "/api/transform", nil); rec.Code != http.StatusMethodNotAllowed {
		t.Fatalf("GET status = %d", rec.Code)
	}
	if rec := do(t, srv, http.MethodOptions, "/api/transform", nil); rec.Code != http.StatusNoContent {
		t.Fatalf("OPTIONS status = %d", rec.Code)
	}
}

func TestServerInterfaceDeclaration(t *testing.T) {
	var hit int32
	upstream := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&hit, 1)
		if r.URL.Query().Get("id") != "345" {
			_ = json.NewEncoder(w).Encode(map[string]any{"errcode": 490, "errmsg": "不存在的接口"})
			return
		}
		_ = json.NewEncoder(w).Encode(map[string]any{
			"errcode": 0,
			"data": map[string]any{
				"_id": 345, "project_id": 1, "title": "login", "method": "post", "path": "/api/user/login",
				"req_body_type": "json", "req_body_other": `{"type":"object","properties":{"username":{"type":"string"}},"required":["username"]}`, "req_body_is_json_schema": true,
				"res_body_type": "json", "res_body": loginSchema, "res_body_is_json_schema": true,
			},
		})
	}))
	defer upstream.Close()

	srv, _ := newTestServer(t, &yapi.Client{BaseURL: upstream.URL})

	rec := do(t, srv, http.MethodGet, "/api/interfaces/345/declaration?kind=request&name=LoginReq", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d body=%s", rec.Code, rec.Body.String())
	}
	if got := decodeText(t, rec); got != "interface LoginReq {\n  username: string\n}" {
		t.Fatalf("unexpected text:\n%s", got)
	}

	rec = do(t, srv, http.MethodGet, "/api/interfaces/345/declaration?discard_top=true", nil)
	if got := decodeText(t, rec); got != "interface Data {\n  token: string\n}" {
		t.Fatalf("unexpected text:\n%s", got)
	}
	if atomic.LoadInt32(&hit) != 1 {
		t.Fatalf("expected cached interface on second call, got %d upstream hits", hit)
	}

	rec = do(t, srv, http.MethodGet, "/api/interfaces", nil)
	var interfaces []types.Interface
	if err := json.NewDecoder(rec.Body).Decode(&interfaces); err != nil {
		t.Fatalf("decode interfaces: %v", err)
	}
	if len(interfaces) != 1 || interfaces[0].Method != "POST" {
		t.Fatalf("unexpected interfaces %+v", interfaces)
	}

	for target, code := range map[string]int{
		"/api/interfaces/9/declaration":               http.StatusNotFound,
		"/api/interfaces/abc/declaration":             http.StatusBadRequest,
		"/api/interfaces/345/declaration?kind=header": http.StatusBadRequest,
		"/api/interfaces/345/other":                   http.StatusNotFound,
	} {
		if rec := do(t, srv, http.MethodGet, target, nil); rec.Code != code {
			t.Errorf("%s: status = %d, want %d", target, rec.Code, code)
		}
	}
}

func TestServerSnippets(t *testing.T) {
	srv, st := newTestServer(t, nil)

	rec := do(t, srv, http.MethodGet, "/api/snippets", nil)
	if rec.Code != http.StatusOK || strings.TrimSpace(rec.Body.String()) != "[]" {
		t.Fatalf("expected empty list, got %d %s", rec.Code, rec.Body.String())
	}

	sn := &types.Snippet{Source: types.SourceFile, Ref: "a.json", Body: types.BodyResponse, TopName: "Struct", Text: "interface Struct {\n}"}
	if err := st.SaveSnippet(sn); err != nil {
		t.Fatal(err)
	}
	rec = do(t, srv, http.MethodGet, "/api/snippets/"+strconv.FormatInt(sn.ID, 10), nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}
	var got types.Snippet
	if err := json.NewDecoder(rec.Body).Decode(&got); err != nil {
		t.Fatal(err)
	}
	if got.Ref != "a.json" || got.Text != sn.Text {
		t.Fatalf("unexpected snippet %+v", got)
	}
	if rec := do(t, srv, http.MethodGet, "/api/snippets/999", nil); rec.Code != http.StatusNotFound {
		t.Fatalf("missing snippet status = %d", rec.Code)
	}
}

func TestServerIndexHTML(t *testing.T) {
	srv, st := newTestServer(t, nil)
	_ = st.SaveSnippet(&types.Snippet{Source: types.SourceSample, Ref: "cart", Body: types.BodyResponse, TopName: "Cart", Text: "interface Cart {\n  id: number\n}"})

	rec := do(t, srv, http.MethodGet, "/", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}
	body := rec.Body.String()
	if !strings.Contains(body, "apidecl") || !strings.Contains(body, "interface Cart {") {
		t.Fatalf("expected page with recent snippet, got:\n%s", body)
	}
	if rec := do(t, srv, http.MethodGet, "/nope", nil); rec.Code != http.StatusNotFound {
		t.Fatalf("unknown path status = %d", rec.Code)
	}
}
