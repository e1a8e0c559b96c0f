package v1

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/codex7/codex7"
	"github.com/codex7/codex7/domain/library"
	"github.com/codex7/codex7/domain/storage"
	"github.com/codex7/codex7/infrastructure/api/middleware"
)

// librarySearchLimit bounds ?q= searches on the list endpoint.
const librarySearchLimit = 50

// LibrariesRouter handles library listing and version endpoints.
type LibrariesRouter struct {
	client *codex7.Client
	logger *slog.Logger
}

// NewLibrariesRouter creates a new LibrariesRouter.
func NewLibrariesRouter(client *codex7.Client) *LibrariesRouter {
	return &LibrariesRouter{
		client: client,
		logger: client.Logger(),
	}
}

// Routes returns the chi router for library endpoints. Versions are served
// both by library id and by the two-segment /org/project identifier.
func (r *LibrariesRouter) Routes() chi.Router {
	router := chi.NewRouter()

	router.Get("/", r.List)
	router.Get("/{id}/versions", r.VersionsByID)
	router.Get("/{org}/{project}/versions", r.VersionsByIdentifier)

	return router
}

// LibraryData is one library in the list response.
type LibraryData struct {
	ID            string   `json:"id"`
	Identifier    string   `json:"identifier"`
	Name          string   `json:"name"`
	Description   string   `json:"description"`
	TrustScore    int      `json:"trust_score"`
	RepositoryURL string   `json:"repository_url"`
	HomepageURL   string   `json:"homepage_url"`
	Topics        []string `json:"topics"`
	Keywords      []string `json:"keywords"`
	UpdatedAt     string   `json:"updated_at"`
}

// ListResponse is the GET /api/v1/libraries response.
type ListResponse struct {
	Libraries []LibraryData `json:"libraries"`
	Total     int           `json:"total"`
}

// VersionData is one version in the versions response.
type VersionData struct {
	Version             string `json:"version"`
	IndexedAt           string `json:"indexed_at"`
	DocumentationChunks int    `json:"documentation_chunks"`
	IsLatest            bool   `json:"is_latest"`
	IsDeprecated        bool   `json:"is_deprecated"`
}

// VersionsResponse is the versions endpoint response.
type VersionsResponse struct {
	Library   string        `json:"library"`
	LibraryID string        `json:"library_id"`
	Versions  []VersionData `json:"versions"`
	Total     int           `json:"total"`
}

// List handles GET /api/v1/libraries. An optional ?q= parameter switches to
// substring search across name, org, project, and identifier.
func (r *LibrariesRouter) List(w http.ResponseWriter, req *http.Request) {
	ctx := req.Context()

	var libs []library.Library
	var err error
	if q := req.URL.Query().Get("q"); q != "" {
		libs, err = r.client.Libraries.SearchLibraries(ctx, q, librarySearchLimit)
	} else {
		libs, err = r.client.Libraries.ListLibraries(ctx, storage.WithOrderDesc("updated_at"))
	}
	if err != nil {
		middleware.WriteError(w, req, err, r.logger)
		return
	}

	data := make([]LibraryData, len(libs))
	for i, lib := range libs {
		data[i] = LibraryData{
			ID:            lib.ID(),
			Identifier:    lib.Identifier().String(),
			Name:          lib.Name(),
			Description:   lib.Description(),
			TrustScore:    lib.TrustScore(),
			RepositoryURL: lib.RepositoryURL(),
			HomepageURL:   lib.HomepageURL(),
			Topics:        lib.Topics(),
			Keywords:      lib.Keywords(),
			UpdatedAt:     lib.UpdatedAt().UTC().Format("2006-01-02T15:04:05Z"),
		}
	}

	middleware.WriteJSON(w, http.StatusOK, ListResponse{Libraries: data, Total: len(data)})
}

// VersionsByID handles GET /api/v1/libraries/{id}/versions.
func (r *LibrariesRouter) VersionsByID(w http.ResponseWriter, req *http.Request) {
	r.versions(w, req, chi.URLParam(req, "id"))
}

// VersionsByIdentifier handles GET /api/v1/libraries/{org}/{project}/versions.
func (r *LibrariesRouter) VersionsByIdentifier(w http.ResponseWriter, req *http.Request) {
	r.versions(w, req, "/"+chi.URLParam(req, "org")+"/"+chi.URLParam(req, "project"))
}

func (r *LibrariesRouter) versions(w http.ResponseWriter, req *http.Request, ref string) {
	ctx := req.Context()

	lib, versions, err := r.client.Retrieval.Versions(ctx, ref)
	if err != nil {
		middleware.WriteError(w, req, err, r.logger)
		return
	}

	data := make([]VersionData, len(versions))
	for i, v := range versions {
		data[i] = VersionData{
			Version:             v.VersionString(),
			IndexedAt:           v.IndexedAt().UTC().Format("2006-01-02T15:04:05Z"),
			DocumentationChunks: v.DocumentCount(),
			IsLatest:            v.IsLatest(),
			IsDeprecated:        v.IsDeprecated(),
		}
	}

	middleware.WriteJSON(w, http.StatusOK, VersionsResponse{
		Library:   lib.Name(),
		LibraryID: lib.Identifier().String(),
		Versions:  data,
		Total:     len(data),
	})
}
