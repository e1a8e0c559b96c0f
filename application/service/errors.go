// Package service orchestrates indexing and retrieval over the domain
// stores, the embedding provider, and the vector store.
package service

import "errors"

// Sentinel errors surfaced to the MCP and HTTP layers.
var (
	// ErrLibraryBusy indicates another indexing job holds the per-library
	// lock. Surfaced immediately, never queued.
	ErrLibraryBusy = errors.New("library is being indexed")

	// ErrLibraryNotFound indicates no library matched the identifier or id.
	ErrLibraryNotFound = errors.New("library not found")

	// ErrDocumentNotFound indicates no document matched the path.
	ErrDocumentNotFound = errors.New("document not found")

	// ErrValidation indicates malformed caller input.
	ErrValidation = errors.New("validation failed")
)
