package service

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"
	"unicode/utf8"

	"go.uber.org/zap"

	"github.com/corpnet/microblog/internal/blobstore"
	"github.com/corpnet/microblog/internal/cache"
	"github.com/corpnet/microblog/internal/db"
	"github.com/corpnet/microblog/internal/models"
	"github.com/corpnet/microblog/pkg/logging"
	"github.com/corpnet/microblog/pkg/telemetry"
)

// ContentService implements tweet and media lifecycle
type ContentService struct {
	tweets *db.TweetRepository
	media  *db.MediaRepository
	blobs  blobstore.Store
	cache  *cache.Cache
	logger *zap.Logger
}

// NewContentService creates a new content service
func NewContentService(
	tweets *db.TweetRepository,
	media *db.MediaRepository,
	blobs blobstore.Store,
	feedCache *cache.Cache,
) *ContentService {
	return &ContentService{
		tweets: tweets,
		media:  media,
		blobs:  blobs,
		cache:  feedCache,
		logger: logging.WithComponent("content"),
	}
}

// CreateTweet validates and persists a new tweet. Media IDs the actor
// does not own are silently dropped rather than failing the whole
// request.
func (s *ContentService) CreateTweet(ctx context.Context, actor *models.User, content string, mediaIDs []int64) (*models.Tweet, error) {
	ctx, span := telemetry.StartSpan(ctx, "content.create_tweet")
	defer span.End()

	if strings.TrimSpace(content) == "" {
		return nil, ErrInvalidAction
	}
	if utf8.RuneCountInString(content) > models.MaxContentLength {
		return nil, ErrInvalidAction
	}

	attachIDs, err := s.ownedMediaIDs(ctx, actor.ID, mediaIDs)
	if err != nil {
		return nil, err
	}

	tweet := &models.Tweet{Content: content, AuthorID: actor.ID}
	if err := s.tweets.Create(ctx, tweet, attachIDs); err != nil {
		return nil, fmt.Errorf("failed to create tweet: %w", err)
	}

	s.invalidateFeed()
	s.logger.Info("Tweet created",
		zap.Int64("tweet_id", tweet.ID),
		zap.Int64("author_id", actor.ID),
		zap.Int("attachments", len(attachIDs)))
	return tweet, nil
}

// DeleteTweet removes a tweet the actor owns, together with its likes
// and attachment links
func (s *ContentService) DeleteTweet(ctx context.Context, actor *models.User, tweetID int64) error {
	ctx, span := telemetry.StartSpan(ctx, "content.delete_tweet")
	defer span.End()

	tweet, err := s.tweets.GetByID(ctx, tweetID)
	if err != nil {
		return fmt.Errorf("failed to look up tweet %d: %w", tweetID, err)
	}
	if tweet == nil {
		return ErrNotFound
	}
	if tweet.AuthorID != actor.ID {
		return ErrForbidden
	}

	if err := s.tweets.DeleteCascade(ctx, tweetID); err != nil {
		return fmt.Errorf("failed to delete tweet %d: %w", tweetID, err)
	}

	s.invalidateFeed()
	s.logger.Info("Tweet deleted",
		zap.Int64("tweet_id", tweetID),
		zap.Int64("author_id", actor.ID))
	return nil
}

// RegisterMedia stores an uploaded blob and records it as owned by the
// actor. The returned Media carries the generated file reference.
func (s *ContentService) RegisterMedia(ctx context.Context, actor *models.User, filename string, r io.Reader) (*models.Media, error) {
	ctx, span := telemetry.StartSpan(ctx, "content.register_media")
	defer span.End()

	ref, err := s.blobs.Save(ctx, filename, r)
	if err != nil {
		if errors.Is(err, blobstore.ErrTooLarge) {
			return nil, ErrInvalidAction
		}
		return nil, fmt.Errorf("failed to store blob: %w", err)
	}

	media := &models.Media{FilePath: ref, OwnerID: actor.ID}
	if err := s.media.Create(ctx, media); err != nil {
		// The blob is already on disk; drop it so nothing is left dangling
		if rmErr := s.blobs.Remove(ctx, ref); rmErr != nil {
			s.logger.Warn("Failed to remove orphaned blob", zap.String("ref", ref), zap.Error(rmErr))
		}
		return nil, fmt.Errorf("failed to record media: %w", err)
	}

	s.logger.Info("Media registered",
		zap.Int64("media_id", media.ID),
		zap.Int64("owner_id", actor.ID))
	return media, nil
}

// ownedMediaIDs keeps only IDs that exist and belong to the owner,
// preserving request order and dropping repeats
func (s *ContentService) ownedMediaIDs(ctx context.Context, ownerID int64, ids []int64) ([]int64, error) {
	if len(ids) == 0 {
		return nil, nil
	}

	owned, err := s.media.ListOwnedByIDs(ctx, ownerID, ids)
	if err != nil {
		return nil, fmt.Errorf("failed to check media ownership: %w", err)
	}

	ownedSet := make(map[int64]bool, len(owned))
	for _, m := range owned {
		ownedSet[m.ID] = true
	}

	result := make([]int64, 0, len(owned))
	seen := make(map[int64]bool, len(ids))
	for _, id := range ids {
		if ownedSet[id] && !seen[id] {
			result = append(result, id)
			seen[id] = true
		}
	}
	return result, nil
}

// invalidateFeed drops the cached ranked feed after tweet set changes
func (s *ContentService) invalidateFeed() {
	if err := s.cache.Delete(feedCacheKey); err != nil && !errors.Is(err, cache.ErrCacheDisabled) {
		s.logger.Warn("Failed to invalidate feed cache", zap.Error(err))
	}
}
