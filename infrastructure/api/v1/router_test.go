package v1_test

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"testing"

	"github.com/codex7/codex7"
	"github.com/codex7/codex7/domain/library"
	v1 "github.com/codex7/codex7/infrastructure/api/v1"
)

func newTestClient(t *testing.T) *codex7.Client {
	t.Helper()
	tmpDir := t.TempDir()
	client, err := codex7.New(
		codex7.WithSQLite(filepath.Join(tmpDir, "test.db")),
		codex7.WithDataDir(tmpDir),
	)
	if err != nil {
		t.Fatalf("create client: %v", err)
	}
	t.Cleanup(func() { _ = client.Close() })
	return client
}

func seedLibrary(t *testing.T, client *codex7.Client, identifier, name string) library.Library {
	t.Helper()
	ctx := context.Background()

	id, err := library.ParseIdentifier(identifier)
	if err != nil {
		t.Fatalf("parse identifier: %v", err)
	}
	lib := library.NewLibrary(id, name, "Docs for "+name+".")
	if err := client.Libraries.SaveLibrary(ctx, lib); err != nil {
		t.Fatalf("save library: %v", err)
	}

	version := library.NewVersion(lib.ID(), "1.2.0", true).WithDocumentCount(3)
	if err := client.Libraries.SaveVersion(ctx, version); err != nil {
		t.Fatalf("save version: %v", err)
	}
	return lib
}

func TestLibrariesRouter_List(t *testing.T) {
	client := newTestClient(t)
	seedLibrary(t, client, "/acme/router", "router")
	seedLibrary(t, client, "/acme/forms", "forms")

	routes := v1.NewLibrariesRouter(client).Routes()

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	w := httptest.NewRecorder()
	routes.ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("status code = %v, want %v", w.Code, http.StatusOK)
	}

	var response v1.ListResponse
	if err := json.NewDecoder(w.Body).Decode(&response); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if response.Total != 2 {
		t.Errorf("Total = %v, want 2", response.Total)
	}
}

func TestLibrariesRouter_ListSearch(t *testing.T) {
	client := newTestClient(t)
	seedLibrary(t, client, "/acme/router", "router")
	seedLibrary(t, client, "/acme/forms", "forms")

	routes := v1.NewLibrariesRouter(client).Routes()

	req := httptest.NewRequest(http.MethodGet, "/?q=rout", nil)
	w := httptest.NewRecorder()
	routes.ServeHTTP(w, req)

	var response v1.ListResponse
	if err := json.NewDecoder(w.Body).Decode(&response); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if response.Total != 1 {
		t.Fatalf("Total = %v, want 1", response.Total)
	}
	if response.Libraries[0].Identifier != "/acme/router" {
		t.Errorf("identifier = %v", response.Libraries[0].Identifier)
	}
}

func TestLibrariesRouter_VersionsByIdentifier(t *testing.T) {
	client := newTestClient(t)
	seedLibrary(t, client, "/acme/router", "router")

	routes := v1.NewLibrariesRouter(client).Routes()

	req := httptest.NewRequest(http.MethodGet, "/acme/router/versions", nil)
	w := httptest.NewRecorder()
	routes.ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("status code = %v, want %v", w.Code, http.StatusOK)
	}

	var response v1.VersionsResponse
	if err := json.NewDecoder(w.Body).Decode(&response); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if response.LibraryID != "/acme/router" || response.Total != 1 {
		t.Fatalf("unexpected response: %+v", response)
	}
	if response.Versions[0].Version != "1.2.0" || response.Versions[0].DocumentationChunks != 3 {
		t.Errorf("version = %+v", response.Versions[0])
	}
}

func TestLibrariesRouter_VersionsByID(t *testing.T) {
	client := newTestClient(t)
	lib := seedLibrary(t, client, "/acme/router", "router")

	routes := v1.NewLibrariesRouter(client).Routes()

	req := httptest.NewRequest(http.MethodGet, "/"+lib.ID()+"/versions", nil)
	w := httptest.NewRecorder()
	routes.ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("status code = %v, want %v", w.Code, http.StatusOK)
	}
}

func TestLibrariesRouter_VersionsNotFound(t *testing.T) {
	client := newTestClient(t)

	routes := v1.NewLibrariesRouter(client).Routes()

	req := httptest.NewRequest(http.MethodGet, "/acme/missing/versions", nil)
	w := httptest.NewRecorder()
	routes.ServeHTTP(w, req)

	if w.Code != http.StatusNotFound {
		t.Errorf("status code = %v, want %v", w.Code, http.StatusNotFound)
	}
}

func TestSearchRouter_EmptyQuery(t *testing.T) {
	client := newTestClient(t)

	routes := v1.NewSearchRouter(client).Routes()

	body := `{"query": ""}`
	req := httptest.NewRequest(http.MethodPost, "/", strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	routes.ServeHTTP(w, req)

	if w.Code != http.StatusBadRequest {
		t.Errorf("status code = %v, want %v", w.Code, http.StatusBadRequest)
	}
}

func TestSearchRouter_EmptyIndex(t *testing.T) {
	client := newTestClient(t)

	routes := v1.NewSearchRouter(client).Routes()

	body := `{"query": "routing", "limit": 5}`
	req := httptest.NewRequest(http.MethodPost, "/", strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	routes.ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("status code = %v, want %v", w.Code, http.StatusOK)
	}

	var response v1.SearchResponse
	if err := json.NewDecoder(w.Body).Decode(&response); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if response.Total != 0 || response.Limit != 5 {
		t.Errorf("unexpected response: %+v", response)
	}
}
