package persistence

import (
	"github.com/codex7/codex7/internal/database"
)

// AutoMigrate runs GORM auto migration for all models.
func AutoMigrate(db database.Database) error {
	return db.GORM().AutoMigrate(allModels()...)
}

// allModels returns every GORM model that AutoMigrate manages.
func allModels() []any {
	return []any{
		&LibraryModel{},
		&VersionModel{},
		&DocumentModel{},
		&SnippetModel{},
		&JobModel{},
	}
}
