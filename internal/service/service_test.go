package service

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/corpnet/microblog/internal/blobstore"
	"github.com/corpnet/microblog/internal/db"
	"github.com/corpnet/microblog/internal/models"
	"github.com/corpnet/microblog/pkg/config"
)

// testEnv wires the full service stack over a throwaway SQLite database.
// The feed cache is nil, which the services treat as disabled.
type testEnv struct {
	users   *db.UserRepository
	tweets  *db.TweetRepository
	likes   *db.LikeRepository
	follows *db.FollowRepository
	media   *db.MediaRepository
	blobs   *blobstore.DiskStore

	auth    *AuthService
	social  *SocialService
	content *ContentService
	feed    *FeedService
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()

	cfg := &config.DatabaseConfig{
		URL:          filepath.Join(t.TempDir(), "test.db"),
		MaxIdleConns: 2,
		MaxOpenConns: 2,
	}
	database, err := db.New(cfg, "ERROR")
	if err != nil {
		t.Fatalf("Failed to open test database: %v", err)
	}
	t.Cleanup(func() { database.Close() })

	if err := database.Migrate(); err != nil {
		t.Fatalf("Failed to migrate schema: %v", err)
	}

	blobs, err := blobstore.NewDiskStore(t.TempDir(), 1024*1024)
	if err != nil {
		t.Fatalf("Failed to create blob store: %v", err)
	}

	repo := db.NewRepository(database.DB)
	env := &testEnv{
		users:   db.NewUserRepository(repo),
		tweets:  db.NewTweetRepository(repo),
		likes:   db.NewLikeRepository(repo),
		follows: db.NewFollowRepository(repo),
		media:   db.NewMediaRepository(repo),
		blobs:   blobs,
	}
	env.auth = NewAuthService(env.users)
	env.social = NewSocialService(env.users, env.tweets, env.likes, env.follows, nil)
	env.content = NewContentService(env.tweets, env.media, blobs, nil)
	env.feed = NewFeedService(env.users, env.tweets, env.likes, env.follows, env.media, nil, time.Minute, "/media/")
	return env
}

func (e *testEnv) seedUser(t *testing.T, name, apiKey string) *models.User {
	t.Helper()

	user := &models.User{Name: name, APIKey: apiKey}
	if err := e.users.Create(context.Background(), user); err != nil {
		t.Fatalf("Failed to create user %s: %v", name, err)
	}
	return user
}

func mustSmallStore(t *testing.T) *blobstore.DiskStore {
	t.Helper()

	store, err := blobstore.NewDiskStore(t.TempDir(), 16)
	if err != nil {
		t.Fatalf("Failed to create blob store: %v", err)
	}
	return store
}

func (e *testEnv) seedTweet(t *testing.T, author *models.User, content string, createdAt time.Time) *models.Tweet {
	t.Helper()

	tweet := &models.Tweet{Content: content, AuthorID: author.ID, CreatedAt: createdAt}
	if err := e.tweets.Create(context.Background(), tweet, nil); err != nil {
		t.Fatalf("Failed to create tweet: %v", err)
	}
	return tweet
}
