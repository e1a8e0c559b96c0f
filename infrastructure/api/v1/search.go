// Package v1 implements the /api/v1 route handlers.
package v1

import (
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/codex7/codex7"
	"github.com/codex7/codex7/application/service"
	"github.com/codex7/codex7/infrastructure/api/middleware"
)

// SearchRouter handles hybrid search endpoints.
type SearchRouter struct {
	client *codex7.Client
	logger *slog.Logger
}

// NewSearchRouter creates a new SearchRouter.
func NewSearchRouter(client *codex7.Client) *SearchRouter {
	return &SearchRouter{
		client: client,
		logger: client.Logger(),
	}
}

// Routes returns the chi router for search endpoints.
func (r *SearchRouter) Routes() chi.Router {
	router := chi.NewRouter()

	router.Post("/", r.Search)

	return router
}

// SearchRequest is the POST /api/v1/search body.
type SearchRequest struct {
	Query    string        `json:"query"`
	Filters  SearchFilters `json:"filters"`
	Limit    int           `json:"limit"`
	MinScore float64       `json:"min_score"`
}

// SearchFilters narrows a search to one library, version, or source type.
type SearchFilters struct {
	Library    string `json:"library"`
	Version    string `json:"version"`
	SourceType string `json:"source_type"`
}

// SearchResponse is the POST /api/v1/search response.
type SearchResponse struct {
	Query   string         `json:"query"`
	Results []SearchResult `json:"results"`
	Total   int            `json:"total"`
	Limit   int            `json:"limit"`
}

// SearchResult is one hybrid search hit.
type SearchResult struct {
	Title   string        `json:"title"`
	Content string        `json:"content"`
	Score   float64       `json:"score"`
	Library ResultLibrary `json:"library"`
}

// ResultLibrary identifies the library a hit belongs to.
type ResultLibrary struct {
	Identifier string `json:"identifier"`
	Name       string `json:"name"`
	Version    string `json:"version"`
}

// Search handles POST /api/v1/search.
func (r *SearchRouter) Search(w http.ResponseWriter, req *http.Request) {
	ctx := req.Context()

	var body SearchRequest
	if err := json.NewDecoder(req.Body).Decode(&body); err != nil {
		middleware.WriteError(w, req, err, r.logger)
		return
	}

	limit := body.Limit
	if limit <= 0 {
		limit = service.DefaultHybridLimit
	}

	hits, err := r.client.Retrieval.Search(ctx, service.HybridRequest{
		Query:      body.Query,
		Library:    body.Filters.Library,
		Version:    body.Filters.Version,
		SourceType: body.Filters.SourceType,
		Limit:      limit,
		MinScore:   body.MinScore,
	})
	if err != nil {
		middleware.WriteError(w, req, err, r.logger)
		return
	}

	results := make([]SearchResult, len(hits))
	for i, hit := range hits {
		results[i] = SearchResult{
			Title:   hit.Title,
			Content: hit.Content,
			Score:   hit.Score,
			Library: ResultLibrary{
				Identifier: hit.LibraryIdentifier,
				Name:       hit.LibraryName,
				Version:    hit.LibraryVersion,
			},
		}
	}

	middleware.WriteJSON(w, http.StatusOK, SearchResponse{
		Query:   body.Query,
		Results: results,
		Total:   len(results),
		Limit:   limit,
	})
}
