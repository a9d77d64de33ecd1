package db

import (
	"fmt"

	"github.com/corpnet/microblog/internal/models"
	"github.com/corpnet/microblog/pkg/logging"
)

// Migrate creates or updates the schema for all entities. Safe to run on
// every startup; AutoMigrate only adds what is missing.
func (d *DB) Migrate() error {
	if err := d.DB.AutoMigrate(
		&models.User{},
		&models.Tweet{},
		&models.Like{},
		&models.Follow{},
		&models.Media{},
		&models.TweetMedia{},
	); err != nil {
		return fmt.Errorf("failed to migrate schema: %w", err)
	}

	logging.GetLogger().Info("Database schema migrated")
	return nil
}
