// Package mcp exposes the documentation engine over the Model Context
// Protocol.
package mcp

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"

	"github.com/codex7/codex7/application/service"
	"github.com/codex7/codex7/domain/library"
	"github.com/codex7/codex7/domain/search"
)

// Resolver resolves library names to identifiers.
type Resolver interface {
	Resolve(ctx context.Context, name string) ([]service.LibraryMatch, error)
}

// Retriever serves the documentation read paths.
type Retriever interface {
	LibraryDocs(ctx context.Context, req service.DocsRequest) (string, error)
	GetDocument(ctx context.Context, libraryRef, path string, maxTokens int) (service.DocumentPayload, error)
	Versions(ctx context.Context, ref string) (library.Library, []library.Version, error)
	Search(ctx context.Context, req service.HybridRequest) ([]service.SearchHit, error)
}

// Server wraps the MCP server with the codex7 documentation tools.
type Server struct {
	mcpServer *server.MCPServer
	resolver  Resolver
	retrieval Retriever
	logger    *slog.Logger
}

// NewServer creates an MCP server exposing the five documentation tools.
func NewServer(resolver Resolver, retrieval Retriever, version string, logger *slog.Logger) *Server {
	if logger == nil {
		logger = slog.Default()
	}

	s := &Server{
		resolver:  resolver,
		retrieval: retrieval,
		logger:    logger,
	}

	mcpServer := server.NewMCPServer(
		"codex7",
		version,
		server.WithToolCapabilities(true),
	)
	s.registerTools(mcpServer)
	s.mcpServer = mcpServer
	return s
}

// registerTools registers the documentation tools.
func (s *Server) registerTools(mcpServer *server.MCPServer) {
	resolveTool := mcp.NewTool("resolve-library-id",
		mcp.WithDescription("Resolve a library name to its documentation identifier"),
		mcp.WithString("library_name",
			mcp.Required(),
			mcp.Description("The library name to search for"),
		),
	)
	mcpServer.AddTool(resolveTool, s.handleResolve)

	libraryDocsTool := mcp.NewTool("get-library-docs",
		mcp.WithDescription("Fetch token-budgeted documentation for a library"),
		mcp.WithString("context7_compatible_library_id",
			mcp.Required(),
			mcp.Description("The /org/project library identifier"),
		),
		mcp.WithString("topic",
			mcp.Description("Focus the documentation on a topic"),
		),
		mcp.WithNumber("tokens",
			mcp.Description("Maximum output tokens (minimum 1000, default 5000)"),
		),
	)
	mcpServer.AddTool(libraryDocsTool, s.handleLibraryDocs)

	localDocsTool := mcp.NewTool("get-local-docs",
		mcp.WithDescription("Fetch documentation for a locally indexed library, by path or by topic"),
		mcp.WithString("library_id",
			mcp.Required(),
			mcp.Description("The /org/project identifier or library id"),
		),
		mcp.WithString("path",
			mcp.Description("Fetch a single document by its repository path"),
		),
		mcp.WithArray("topics",
			mcp.Description("Filter snippets by topic tags"),
		),
		mcp.WithString("topic",
			mcp.Description("Focus the documentation on a topic"),
		),
		mcp.WithNumber("tokens",
			mcp.Description("Maximum output tokens (minimum 1000, default 5000)"),
		),
	)
	mcpServer.AddTool(localDocsTool, s.handleLocalDocs)

	versionsTool := mcp.NewTool("get-library-versions",
		mcp.WithDescription("List the indexed versions of a library"),
		mcp.WithString("library_id",
			mcp.Required(),
			mcp.Description("The /org/project identifier or library id"),
		),
	)
	mcpServer.AddTool(versionsTool, s.handleVersions)

	searchTool := mcp.NewTool("search-documentation",
		mcp.WithDescription("Search all indexed documentation"),
		mcp.WithString("query",
			mcp.Required(),
			mcp.Description("The search query"),
		),
		mcp.WithObject("filters",
			mcp.Description("Optional filters: library, version, source_type"),
		),
		mcp.WithNumber("limit",
			mcp.Description("Number of results to return (default: 10)"),
		),
	)
	mcpServer.AddTool(searchTool, s.handleSearch)
}

// errorResult wraps an engine error as a JSON payload inside a successful
// MCP response; the protocol layer never fails on engine errors.
func (s *Server) errorResult(ctx context.Context, tool string, err error) *mcp.CallToolResult {
	s.logger.WarnContext(ctx, "tool call failed", "tool", tool, "error", err)
	payload, marshalErr := json.Marshal(map[string]string{"error": err.Error()})
	if marshalErr != nil {
		return mcp.NewToolResultText(`{"error": "internal error"}`)
	}
	return mcp.NewToolResultText(string(payload))
}

func (s *Server) handleResolve(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	name, err := request.RequireString("library_name")
	if err != nil {
		return mcp.NewToolResultError("library_name is required"), nil
	}

	matches, err := s.resolver.Resolve(ctx, name)
	if err != nil {
		return s.errorResult(ctx, "resolve-library-id", err), nil
	}

	type matchResult struct {
		ID            string   `json:"id"`
		Name          string   `json:"name"`
		Description   string   `json:"description"`
		TrustScore    int      `json:"trust_score"`
		RepositoryURL string   `json:"repository_url"`
		HomepageURL   string   `json:"homepage_url"`
		Versions      []string `json:"versions"`
		Topics        []string `json:"topics"`
		ToolHint      string   `json:"tool_hint"`
		Source        string   `json:"source"`
	}

	results := make([]matchResult, len(matches))
	for i, m := range matches {
		results[i] = matchResult{
			ID:            m.ID,
			Name:          m.Name,
			Description:   m.Description,
			TrustScore:    m.TrustScore,
			RepositoryURL: m.RepositoryURL,
			HomepageURL:   m.HomepageURL,
			Versions:      m.Versions,
			Topics:        m.Topics,
			ToolHint:      m.ToolHint,
			Source:        m.Source,
		}
	}

	payload, err := json.Marshal(map[string]any{
		"query":   name,
		"matches": results,
		"total":   len(results),
	})
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("failed to marshal results: %v", err)), nil
	}
	return mcp.NewToolResultText(string(payload)), nil
}

func (s *Server) handleLibraryDocs(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	libraryID, err := request.RequireString("context7_compatible_library_id")
	if err != nil {
		return mcp.NewToolResultError("context7_compatible_library_id is required"), nil
	}

	docs, err := s.retrieval.LibraryDocs(ctx, service.DocsRequest{
		Library:   libraryID,
		Topic:     request.GetString("topic", ""),
		MaxTokens: request.GetInt("tokens", search.DefaultOutputTokens),
	})
	if err != nil {
		return s.errorResult(ctx, "get-library-docs", err), nil
	}
	return mcp.NewToolResultText(docs), nil
}

func (s *Server) handleLocalDocs(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	libraryID, err := request.RequireString("library_id")
	if err != nil {
		return mcp.NewToolResultError("library_id is required"), nil
	}
	tokens := request.GetInt("tokens", search.DefaultOutputTokens)

	// A path selects one whole document; otherwise render snippets.
	if path := request.GetString("path", ""); path != "" {
		doc, err := s.retrieval.GetDocument(ctx, libraryID, path, tokens)
		if err != nil {
			return s.errorResult(ctx, "get-local-docs", err), nil
		}
		return mcp.NewToolResultText("# " + doc.Title + "\n\n" + doc.Content), nil
	}

	docs, err := s.retrieval.LibraryDocs(ctx, service.DocsRequest{
		Library:   libraryID,
		Topic:     request.GetString("topic", ""),
		Topics:    request.GetStringSlice("topics", nil),
		MaxTokens: tokens,
	})
	if err != nil {
		return s.errorResult(ctx, "get-local-docs", err), nil
	}
	return mcp.NewToolResultText(docs), nil
}

func (s *Server) handleVersions(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	libraryID, err := request.RequireString("library_id")
	if err != nil {
		return mcp.NewToolResultError("library_id is required"), nil
	}

	lib, versions, err := s.retrieval.Versions(ctx, libraryID)
	if err != nil {
		return s.errorResult(ctx, "get-library-versions", err), nil
	}

	type versionResult struct {
		Version             string `json:"version"`
		IndexedAt           string `json:"indexed_at"`
		DocumentationChunks int    `json:"documentation_chunks"`
		IsLatest            bool   `json:"is_latest"`
		IsDeprecated        bool   `json:"is_deprecated"`
	}

	results := make([]versionResult, len(versions))
	for i, v := range versions {
		results[i] = versionResult{
			Version:             v.VersionString(),
			IndexedAt:           v.IndexedAt().UTC().Format("2006-01-02T15:04:05Z"),
			DocumentationChunks: v.DocumentCount(),
			IsLatest:            v.IsLatest(),
			IsDeprecated:        v.IsDeprecated(),
		}
	}

	payload, err := json.Marshal(map[string]any{
		"library":    lib.Name(),
		"library_id": lib.Identifier().String(),
		"versions":   results,
		"total":      len(results),
	})
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("failed to marshal results: %v", err)), nil
	}
	return mcp.NewToolResultText(string(payload)), nil
}

func (s *Server) handleSearch(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	query, err := request.RequireString("query")
	if err != nil {
		return mcp.NewToolResultError("query is required"), nil
	}
	limit := request.GetInt("limit", service.DefaultHybridLimit)

	req := service.HybridRequest{Query: query, Limit: limit}
	filters := map[string]string{}
	if raw, ok := request.GetArguments()["filters"].(map[string]any); ok {
		for key, value := range raw {
			if str, ok := value.(string); ok {
				filters[key] = str
			}
		}
		req.Library = filters["library"]
		req.Version = filters["version"]
		req.SourceType = filters["source_type"]
	}

	hits, err := s.retrieval.Search(ctx, req)
	if err != nil {
		return s.errorResult(ctx, "search-documentation", err), nil
	}

	type libraryResult struct {
		Identifier string `json:"identifier"`
		Name       string `json:"name"`
		Version    string `json:"version"`
	}
	type hitResult struct {
		Title   string        `json:"title"`
		Content string        `json:"content"`
		Score   float64       `json:"score"`
		Library libraryResult `json:"library"`
	}

	results := make([]hitResult, len(hits))
	for i, hit := range hits {
		results[i] = hitResult{
			Title:   hit.Title,
			Content: hit.Content,
			Score:   hit.Score,
			Library: libraryResult{
				Identifier: hit.LibraryIdentifier,
				Name:       hit.LibraryName,
				Version:    hit.LibraryVersion,
			},
		}
	}

	payload, err := json.Marshal(map[string]any{
		"query":   query,
		"results": results,
		"total":   len(results),
		"limit":   limit,
		"filters": filters,
	})
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("failed to marshal results: %v", err)), nil
	}
	return mcp.NewToolResultText(string(payload)), nil
}

// MCPServer returns the underlying MCP server for HTTP mounting.
func (s *Server) MCPServer() *server.MCPServer {
	return s.mcpServer
}

// ServeStdio runs the MCP server on stdio.
func (s *Server) ServeStdio() error {
	return server.ServeStdio(s.mcpServer)
}
