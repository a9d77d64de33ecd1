package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strings"
	"unicode/utf8"

	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/corpnet/microblog/internal/db"
	"github.com/corpnet/microblog/internal/models"
	"github.com/corpnet/microblog/pkg/config"
	"github.com/corpnet/microblog/pkg/logging"
)

// seed creates user accounts, which the API itself never does. Each
// argument is one account in name:api_key form.
func main() {
	if len(os.Args) < 2 {
		fmt.Fprintf(os.Stderr, "usage: %s name:api_key [name:api_key ...]\n", os.Args[0])
		os.Exit(2)
	}

	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load configuration: %v\n", err)
		os.Exit(1)
	}

	// Initialize logger
	if err := logging.InitLogger(&cfg.Logging); err != nil {
		fmt.Fprintf(os.Stderr, "Failed to initialize logger: %v\n", err)
		os.Exit(1)
	}
	defer logging.GetLogger().Sync()

	logger := logging.GetLogger()
	logger.Info("Seeding users")

	database, err := db.New(&cfg.Database, cfg.Logging.Level)
	if err != nil {
		logger.Fatal("Failed to connect to database", zap.Error(err))
	}
	defer database.Close()

	if err := database.Migrate(); err != nil {
		logger.Fatal("Failed to migrate database", zap.Error(err))
	}

	users := db.NewUserRepository(db.NewRepository(database.DB))
	ctx := context.Background()

	created := 0
	for _, arg := range os.Args[1:] {
		name, apiKey, ok := strings.Cut(arg, ":")
		if !ok || name == "" || apiKey == "" {
			logger.Fatal("Invalid argument, want name:api_key", zap.String("arg", arg))
		}
		if utf8.RuneCountInString(name) > 50 {
			logger.Fatal("Name too long", zap.String("name", name))
		}

		user := &models.User{Name: name, APIKey: apiKey}
		if err := users.Create(ctx, user); err != nil {
			if errors.Is(err, gorm.ErrDuplicatedKey) {
				logger.Warn("API key already taken, skipping", zap.String("name", name))
				continue
			}
			logger.Fatal("Failed to create user", zap.String("name", name), zap.Error(err))
		}

		logger.Info("User created", zap.Int64("id", user.ID), zap.String("name", name))
		created++
	}

	logger.Info("Seeding done", zap.Int("created", created))
}
