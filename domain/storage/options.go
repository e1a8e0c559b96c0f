package storage

// WithID filters by the "id" column.
func WithID(id string) Option {
	return WithCondition("id", id)
}

// WithIDIn filters by the "id" column using IN.
func WithIDIn(ids []string) Option {
	return WithConditionIn("id", ids)
}

// WithLibraryID filters by the "library_id" column.
func WithLibraryID(id string) Option {
	return WithCondition("library_id", id)
}

// WithVersionID filters by the "version_id" column.
func WithVersionID(id string) Option {
	return WithCondition("version_id", id)
}

// WithIdentifier filters by the "identifier" column.
func WithIdentifier(identifier string) Option {
	return WithCondition("identifier", identifier)
}

// WithPath filters by the "path" column.
func WithPath(path string) Option {
	return WithCondition("path", path)
}

// WithContentHash filters by the "content_hash" column.
func WithContentHash(hash string) Option {
	return WithCondition("content_hash", hash)
}

// WithLatest filters for the latest version (is_latest = true).
func WithLatest() Option {
	return WithCondition("is_latest", true)
}

// WithStatus filters by the "status" column.
func WithStatus(status string) Option {
	return WithCondition("status", status)
}
