package service

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"golang.org/x/sync/errgroup"

	"github.com/codex7/codex7/domain/library"
)

// Tool hints steering the client toward the right docs tool.
const (
	ToolHintLocalDocs   = "get-local-docs"
	ToolHintLibraryDocs = "get-library-docs"
)

// Match sources.
const (
	SourceLocal  = "local"
	SourceRemote = "remote"
)

// RemoteLibrary is one upstream match.
type RemoteLibrary struct {
	ID            string
	Name          string
	Description   string
	TrustScore    int
	RepositoryURL string
	HomepageURL   string
	Versions      []string
	Topics        []string
}

// Upstream searches a remote documentation index. Optional; a nil Upstream
// resolves against local libraries only.
type Upstream interface {
	SearchLibraries(ctx context.Context, name string) ([]RemoteLibrary, error)
}

// LibraryMatch is one resolution result, local or remote.
type LibraryMatch struct {
	ID            string
	Name          string
	Description   string
	TrustScore    int
	RepositoryURL string
	HomepageURL   string
	Versions      []string
	Topics        []string
	ToolHint      string
	Source        string
}

// Resolver implements library-name resolution: local search merged with an
// optional remote upstream, locals always first.
type Resolver struct {
	libraries library.Store
	upstream  Upstream
	logger    *slog.Logger
}

// NewResolver wires a Resolver. upstream may be nil.
func NewResolver(libraries library.Store, upstream Upstream, logger *slog.Logger) *Resolver {
	if logger == nil {
		logger = slog.Default()
	}
	return &Resolver{libraries: libraries, upstream: upstream, logger: logger}
}

// Resolve searches local libraries and the upstream in parallel and merges
// the results, locals first. Upstream failures degrade to local-only.
func (r *Resolver) Resolve(ctx context.Context, name string) ([]LibraryMatch, error) {
	if strings.TrimSpace(name) == "" {
		return nil, fmt.Errorf("%w: empty library name", ErrValidation)
	}

	var locals []library.Library
	var remotes []RemoteLibrary

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		locals, err = r.libraries.SearchLibraries(gctx, name, 0)
		if err != nil {
			return fmt.Errorf("search libraries: %w", err)
		}
		return nil
	})
	if r.upstream != nil {
		g.Go(func() error {
			var err error
			remotes, err = r.upstream.SearchLibraries(gctx, name)
			if err != nil {
				// Best effort: remote trouble must not hide local matches.
				r.logger.WarnContext(gctx, "upstream search failed", "error", err)
				remotes = nil
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	matches := make([]LibraryMatch, 0, len(locals)+len(remotes))
	seen := make(map[string]struct{}, len(locals))
	for _, lib := range locals {
		versions, err := r.libraries.ListVersions(ctx, lib.ID())
		if err != nil {
			return nil, fmt.Errorf("list versions: %w", err)
		}
		versionStrings := make([]string, len(versions))
		for i, v := range versions {
			versionStrings[i] = v.VersionString()
		}

		seen[lib.Identifier().String()] = struct{}{}
		matches = append(matches, LibraryMatch{
			ID:            lib.Identifier().String(),
			Name:          lib.Name(),
			Description:   lib.Description(),
			TrustScore:    lib.TrustScore(),
			RepositoryURL: lib.RepositoryURL(),
			HomepageURL:   lib.HomepageURL(),
			Versions:      versionStrings,
			Topics:        lib.Topics(),
			ToolHint:      ToolHintLocalDocs,
			Source:        SourceLocal,
		})
	}

	for _, remote := range remotes {
		// Locals pre-empt remote entries for the same identifier.
		if _, ok := seen[remote.ID]; ok {
			continue
		}
		matches = append(matches, LibraryMatch{
			ID:            remote.ID,
			Name:          remote.Name,
			Description:   remote.Description,
			TrustScore:    remote.TrustScore,
			RepositoryURL: remote.RepositoryURL,
			HomepageURL:   remote.HomepageURL,
			Versions:      remote.Versions,
			Topics:        remote.Topics,
			ToolHint:      ToolHintLibraryDocs,
			Source:        SourceRemote,
		})
	}
	return matches, nil
}
