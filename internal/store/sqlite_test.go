package store

import (
	"errors"
	"fmt"
	"path/filepath"
	"sync"
	"testing"

	"github.com/yourorg/apidecl/pkg/types"
)

func newTestStore(t *testing.T) *SQLiteStore {
	t.Helper()
	s, err := NewSQLiteStore(filepath.Join(t.TempDir(), "apidecl.db"))
	if err != nil {
		t.Fatal(err)
	}
	return s
}

func TestInterfaceUpsertAndGet(t *testing.T) {
	s := newTestStore(t)
	defer s.Close()

	itf := &types.Interface{ID: 345, ProjectID: 12, Title: "login", Method: "POST", Path: "/api/user/login", ResBodyType: "json", ResSchema: `{"type":"object"}`, ResIsSchema: true}
	if err := s.SaveInterface(itf); err != nil {
		t.Fatal(err)
	}
	itf.Title = "login v2"
	if err := s.SaveInterface(itf); err != nil {
		t.Fatal(err)
	}
	got, err := s.GetInterface(345)
	if err != nil {
		t.Fatal(err)
	}
	if got.Title != "login v2" || !got.ResIsSchema || got.ReqIsSchema || got.ResSchema != `{"type":"object"}` {
		t.Fatalf("unexpected interface %+v", got)
	}
	list, err := s.ListInterfaces()
	if err != nil || len(list) != 1 {
		t.Fatalf("expected one interface, got %d err=%v", len(list), err)
	}
	if _, err := s.GetInterface(1); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestSnippetsAndCascadeDelete(t *testing.T) {
	s := newTestStore(t)
	defer s.Close()

	_ = s.SaveInterface(&types.Interface{ID: 7, Title: "t", Method: "GET", Path: "/a"})
	owned := &types.Snippet{Source: types.SourceYApi, Ref: "7", Body: types.BodyResponse, TopName: "Struct", Text: "interface Struct {\n}"}
	other := &types.Snippet{Source: types.SourceFile, Ref: "7", Body: types.BodyResponse, TopName: "Struct", DiscardTop: true, Text: ""}
	if err := s.SaveSnippet(owned); err != nil {
		t.Fatal(err)
	}
	if err := s.SaveSnippet(other); err != nil {
		t.Fatal(err)
	}
	if owned.ID == 0 || other.ID == owned.ID {
		t.Fatalf("ids not assigned: %d %d", owned.ID, other.ID)
	}
	got, err := s.GetSnippet(other.ID)
	if err != nil || !got.DiscardTop || got.Body != types.BodyResponse {
		t.Fatalf("unexpected snippet %+v err=%v", got, err)
	}

	if err := s.DeleteInterface(7); err != nil {
		t.Fatal(err)
	}
	if _, err := s.GetSnippet(owned.ID); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected owned snippet deleted, got %v", err)
	}
	if _, err := s.GetSnippet(other.ID); err != nil {
		t.Fatalf("unrelated snippet should survive: %v", err)
	}
	if err := s.DeleteInterface(7); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound on second delete, got %v", err)
	}
}

func TestConcurrentReadWrite(t *testing.T) {
	s := newTestStore(t)
	defer s.Close()

	var wg sync.WaitGroup
	for i := 0; i < 10; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_ = s.SaveSnippet(&types.Snippet{Source: types.SourceSample, Ref: fmt.Sprintf("s%d", i), Body: types.BodyResponse, TopName: "Struct", Text: "x"})
		}(i)
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, _ = s.ListSnippets()
		}()
	}
	wg.Wait()

	snippets, err := s.ListSnippets()
	if err != nil {
		t.Fatal(err)
	}
	if len(snippets) == 0 {
		t.Fatalf("expected snippets")
	}
}
