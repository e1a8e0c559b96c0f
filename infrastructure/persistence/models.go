package persistence

import "time"

// LibraryModel represents an indexed library in the database.
type LibraryModel struct {
	ID            string      `gorm:"column:id;primaryKey;size:64"`
	Identifier    string      `gorm:"column:identifier;uniqueIndex;size:512"`
	Org           string      `gorm:"column:org;index;size:255"`
	Project       string      `gorm:"column:project;index;size:255"`
	Name          string      `gorm:"column:name;index;size:255"`
	Description   string      `gorm:"column:description;type:text"`
	RepositoryURL string      `gorm:"column:repository_url;size:1024"`
	HomepageURL   string      `gorm:"column:homepage_url;size:1024"`
	TrustScore    int         `gorm:"column:trust_score;default:10"`
	Keywords      StringSlice `gorm:"column:keywords;type:text"`
	Topics        StringSlice `gorm:"column:topics;type:text"`
	Rules         StringSlice `gorm:"column:rules;type:text"`
	SourcePath    string      `gorm:"column:source_path;size:1024"`
	Metadata      JSONMap     `gorm:"column:metadata;type:text"`
	// Timestamps come from the domain objects; gorm's by-name
	// auto-tracking is disabled so they round-trip untouched.
	CreatedAt time.Time `gorm:"column:created_at;not null;autoCreateTime:false"`
	UpdatedAt time.Time `gorm:"column:updated_at;index;not null;autoUpdateTime:false"`
}

// TableName returns the table name.
func (LibraryModel) TableName() string {
	return "libraries"
}

// VersionModel represents a library version in the database.
type VersionModel struct {
	ID                string     `gorm:"column:id;primaryKey;size:64"`
	LibraryID         string     `gorm:"column:library_id;index;size:64"`
	VersionString     string     `gorm:"column:version_string;size:255"`
	VersionNormalized string     `gorm:"column:version_normalized;index;size:255"`
	IsLatest          bool       `gorm:"column:is_latest;index;default:false"`
	IsDeprecated      bool       `gorm:"column:is_deprecated;default:false"`
	DocumentCount     int        `gorm:"column:document_count;default:0"`
	GitCommitSHA      string     `gorm:"column:git_commit_sha;size:64"`
	ReleaseDate       *time.Time `gorm:"column:release_date"`
	IndexedAt         time.Time  `gorm:"column:indexed_at;index;not null"`
	UpdatedAt         time.Time  `gorm:"column:updated_at;not null;autoUpdateTime:false"`
}

// TableName returns the table name.
func (VersionModel) TableName() string {
	return "library_versions"
}

// DocumentModel represents a whole source file in the database.
type DocumentModel struct {
	ID          string    `gorm:"column:id;primaryKey;size:64"`
	LibraryID   string    `gorm:"column:library_id;index:idx_documents_library_path;size:64"`
	VersionID   string    `gorm:"column:version_id;index;size:64"`
	Path        string    `gorm:"column:path;index:idx_documents_library_path;size:1024"`
	Title       string    `gorm:"column:title;size:512"`
	Content     string    `gorm:"column:content;type:text"`
	ContentHash string    `gorm:"column:content_hash;index;size:64"`
	Tokens      int       `gorm:"column:tokens;default:0"`
	SourceType  string    `gorm:"column:source_type;index;size:32"`
	SourcePath  string    `gorm:"column:source_path;size:1024"`
	SourceURL   string    `gorm:"column:source_url;size:1024"`
	Language    string    `gorm:"column:language;size:16"`
	IndexedAt   time.Time `gorm:"column:indexed_at;not null"`
}

// TableName returns the table name.
func (DocumentModel) TableName() string {
	return "documents"
}

// SnippetModel represents a documentation snippet in the database.
type SnippetModel struct {
	ID           string         `gorm:"column:id;primaryKey;size:64"`
	LibraryID    string         `gorm:"column:library_id;index;index:idx_snippets_library_source,priority:1;size:64"`
	VersionID    string         `gorm:"column:version_id;index;size:64"`
	Title        string         `gorm:"column:title;size:512"`
	SourceFile   string         `gorm:"column:source_file;size:1024"`
	SourceType   string         `gorm:"column:source_type;index:idx_snippets_library_source,priority:2;size:32"`
	Description  string         `gorm:"column:description;type:text"`
	Content      string         `gorm:"column:content;type:text"`
	CodeBlocks   CodeBlockSlice `gorm:"column:code_blocks;type:text"`
	Topics       StringSlice    `gorm:"column:topics;type:text"`
	Tokens       int            `gorm:"column:tokens;default:0"`
	QualityScore float64        `gorm:"column:quality_score;default:0.5"`
	Embedding    Float64Slice   `gorm:"column:embedding;type:text"`
	UpdatedAt    time.Time      `gorm:"column:updated_at;index;not null;autoUpdateTime:false"`
}

// TableName returns the table name.
func (SnippetModel) TableName() string {
	return "snippets"
}

// JobModel represents an indexing job in the database.
type JobModel struct {
	ID                 string     `gorm:"column:id;primaryKey;size:64"`
	LibraryID          string     `gorm:"column:library_id;index;size:64"`
	VersionID          string     `gorm:"column:version_id;size:64"`
	Status             string     `gorm:"column:status;index;size:32"`
	TotalDocuments     int        `gorm:"column:total_documents;default:0"`
	ProcessedDocuments int        `gorm:"column:processed_documents;default:0"`
	FailedDocuments    int        `gorm:"column:failed_documents;default:0"`
	ErrorMessage       string     `gorm:"column:error_message;type:text"`
	StartedAt          *time.Time `gorm:"column:started_at"`
	CompletedAt        *time.Time `gorm:"column:completed_at"`
	Metadata           JSONMap    `gorm:"column:metadata;type:text"`
	CreatedAt          time.Time  `gorm:"column:created_at;index;autoCreateTime"`
}

// TableName returns the table name.
func (JobModel) TableName() string {
	return "index_jobs"
}
