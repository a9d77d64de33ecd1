package service

import (
	"context"
	"errors"
	"fmt"

	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/corpnet/microblog/internal/cache"
	"github.com/corpnet/microblog/internal/db"
	"github.com/corpnet/microblog/internal/models"
	"github.com/corpnet/microblog/pkg/logging"
	"github.com/corpnet/microblog/pkg/telemetry"
)

// SocialService implements follow/unfollow/like/unlike. Duplicate
// prevention rides on the unique indexes, so concurrent identical
// requests resolve to exactly one success and one ErrDuplicate.
type SocialService struct {
	users   *db.UserRepository
	tweets  *db.TweetRepository
	likes   *db.LikeRepository
	follows *db.FollowRepository
	cache   *cache.Cache
	logger  *zap.Logger
}

// NewSocialService creates a new social service
func NewSocialService(
	users *db.UserRepository,
	tweets *db.TweetRepository,
	likes *db.LikeRepository,
	follows *db.FollowRepository,
	feedCache *cache.Cache,
) *SocialService {
	return &SocialService{
		users:   users,
		tweets:  tweets,
		likes:   likes,
		follows: follows,
		cache:   feedCache,
		logger:  logging.WithComponent("social"),
	}
}

// Follow records a follow edge from actor to the target user
func (s *SocialService) Follow(ctx context.Context, actor *models.User, targetID int64) error {
	ctx, span := telemetry.StartSpan(ctx, "social.follow")
	defer span.End()

	if actor.ID == targetID {
		return ErrInvalidAction
	}

	target, err := s.users.GetByID(ctx, targetID)
	if err != nil {
		return fmt.Errorf("failed to look up user %d: %w", targetID, err)
	}
	if target == nil {
		return ErrNotFound
	}

	follow := &models.Follow{FollowerID: actor.ID, FollowingID: targetID}
	if err := s.follows.Create(ctx, follow); err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return ErrDuplicate
		}
		return fmt.Errorf("failed to create follow: %w", err)
	}

	s.logger.Info("Follow created",
		zap.Int64("follower_id", actor.ID),
		zap.Int64("following_id", targetID))
	return nil
}

// Unfollow removes the follow edge from actor to the target user
func (s *SocialService) Unfollow(ctx context.Context, actor *models.User, targetID int64) error {
	ctx, span := telemetry.StartSpan(ctx, "social.unfollow")
	defer span.End()

	rows, err := s.follows.Delete(ctx, actor.ID, targetID)
	if err != nil {
		return fmt.Errorf("failed to delete follow: %w", err)
	}
	if rows == 0 {
		return ErrNotFound
	}

	s.logger.Info("Follow removed",
		zap.Int64("follower_id", actor.ID),
		zap.Int64("following_id", targetID))
	return nil
}

// Like records that actor liked the given tweet
func (s *SocialService) Like(ctx context.Context, actor *models.User, tweetID int64) error {
	ctx, span := telemetry.StartSpan(ctx, "social.like")
	defer span.End()

	tweet, err := s.tweets.GetByID(ctx, tweetID)
	if err != nil {
		return fmt.Errorf("failed to look up tweet %d: %w", tweetID, err)
	}
	if tweet == nil {
		return ErrNotFound
	}

	like := &models.Like{UserID: actor.ID, TweetID: tweetID}
	if err := s.likes.Create(ctx, like); err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return ErrDuplicate
		}
		return fmt.Errorf("failed to create like: %w", err)
	}

	s.invalidateFeed()
	return nil
}

// Unlike removes actor's like from the given tweet
func (s *SocialService) Unlike(ctx context.Context, actor *models.User, tweetID int64) error {
	ctx, span := telemetry.StartSpan(ctx, "social.unlike")
	defer span.End()

	rows, err := s.likes.Delete(ctx, actor.ID, tweetID)
	if err != nil {
		return fmt.Errorf("failed to delete like: %w", err)
	}
	if rows == 0 {
		return ErrNotFound
	}

	s.invalidateFeed()
	return nil
}

// invalidateFeed drops the cached ranked feed after a like-count change
func (s *SocialService) invalidateFeed() {
	if err := s.cache.Delete(feedCacheKey); err != nil && !errors.Is(err, cache.ErrCacheDisabled) {
		s.logger.Warn("Failed to invalidate feed cache", zap.Error(err))
	}
}
