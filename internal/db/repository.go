package db

import (
	"context"
	"errors"

	"gorm.io/gorm"

	"github.com/corpnet/microblog/internal/models"
)

// Repository provides database access methods
type Repository struct {
	db *gorm.DB
}

// NewRepository creates a new repository
func NewRepository(db *gorm.DB) *Repository {
	return &Repository{db: db}
}

// UserRepository provides user-related database operations
type UserRepository struct {
	*Repository
}

// NewUserRepository creates a new user repository
func NewUserRepository(repo *Repository) *UserRepository {
	return &UserRepository{Repository: repo}
}

// GetByID retrieves a user by ID
func (r *UserRepository) GetByID(ctx context.Context, id int64) (*models.User, error) {
	var user models.User
	if err := r.db.WithContext(ctx).First(&user, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &user, nil
}

// GetByAPIKey retrieves a user by API key
func (r *UserRepository) GetByAPIKey(ctx context.Context, apiKey string) (*models.User, error) {
	var user models.User
	if err := r.db.WithContext(ctx).Where("api_key = ?", apiKey).First(&user).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &user, nil
}

// GetByIDs retrieves multiple users by IDs
func (r *UserRepository) GetByIDs(ctx context.Context, ids []int64) ([]*models.User, error) {
	if len(ids) == 0 {
		return nil, nil
	}
	var users []*models.User
	if err := r.db.WithContext(ctx).Where("id IN ?", ids).Find(&users).Error; err != nil {
		return nil, err
	}
	return users, nil
}

// Create creates a new user
func (r *UserRepository) Create(ctx context.Context, user *models.User) error {
	return r.db.WithContext(ctx).Create(user).Error
}

// TweetRepository provides tweet-related database operations
type TweetRepository struct {
	*Repository
}

// NewTweetRepository creates a new tweet repository
func NewTweetRepository(repo *Repository) *TweetRepository {
	return &TweetRepository{Repository: repo}
}

// GetByID retrieves a tweet by ID
func (r *TweetRepository) GetByID(ctx context.Context, id int64) (*models.Tweet, error) {
	var tweet models.Tweet
	if err := r.db.WithContext(ctx).First(&tweet, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &tweet, nil
}

// Create inserts a tweet and its attachment links in one transaction.
func (r *TweetRepository) Create(ctx context.Context, tweet *models.Tweet, mediaIDs []int64) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(tweet).Error; err != nil {
			return err
		}
		if len(mediaIDs) == 0 {
			return nil
		}
		links := make([]models.TweetMedia, 0, len(mediaIDs))
		for _, mediaID := range mediaIDs {
			links = append(links, models.TweetMedia{TweetID: tweet.ID, MediaID: mediaID})
		}
		return tx.Create(&links).Error
	})
}

// ListRanked retrieves all tweets ordered by like count, newest first
// among ties.
func (r *TweetRepository) ListRanked(ctx context.Context) ([]*models.Tweet, error) {
	var tweets []*models.Tweet
	if err := r.db.WithContext(ctx).
		Model(&models.Tweet{}).
		Select("tweets.*").
		Joins("LEFT JOIN likes ON likes.tweet_id = tweets.id").
		Group("tweets.id").
		Order("COUNT(likes.id) DESC, tweets.created_at DESC").
		Find(&tweets).Error; err != nil {
		return nil, err
	}
	return tweets, nil
}

// DeleteCascade removes a tweet together with its likes and attachment
// links. Runs in one transaction so no orphaned rows survive a partial
// failure.
func (r *TweetRepository) DeleteCascade(ctx context.Context, id int64) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("tweet_id = ?", id).Delete(&models.TweetMedia{}).Error; err != nil {
			return err
		}
		if err := tx.Where("tweet_id = ?", id).Delete(&models.Like{}).Error; err != nil {
			return err
		}
		return tx.Delete(&models.Tweet{}, id).Error
	})
}

// LikeRepository provides like-related database operations
type LikeRepository struct {
	*Repository
}

// NewLikeRepository creates a new like repository
func NewLikeRepository(repo *Repository) *LikeRepository {
	return &LikeRepository{Repository: repo}
}

// Create creates a new like. A concurrent duplicate surfaces as
// gorm.ErrDuplicatedKey through the unique (user_id, tweet_id) index.
func (r *LikeRepository) Create(ctx context.Context, like *models.Like) error {
	return r.db.WithContext(ctx).Create(like).Error
}

// Delete removes a like and reports how many rows went away
func (r *LikeRepository) Delete(ctx context.Context, userID, tweetID int64) (int64, error) {
	res := r.db.WithContext(ctx).
		Where("user_id = ? AND tweet_id = ?", userID, tweetID).
		Delete(&models.Like{})
	return res.RowsAffected, res.Error
}

// ListByTweetIDs retrieves all likes for the given tweets
func (r *LikeRepository) ListByTweetIDs(ctx context.Context, tweetIDs []int64) ([]*models.Like, error) {
	if len(tweetIDs) == 0 {
		return nil, nil
	}
	var likes []*models.Like
	if err := r.db.WithContext(ctx).
		Where("tweet_id IN ?", tweetIDs).
		Order("id").
		Find(&likes).Error; err != nil {
		return nil, err
	}
	return likes, nil
}

// FollowRepository provides follow-related database operations
type FollowRepository struct {
	*Repository
}

// NewFollowRepository creates a new follow repository
func NewFollowRepository(repo *Repository) *FollowRepository {
	return &FollowRepository{Repository: repo}
}

// Create creates a new follow edge. A concurrent duplicate surfaces as
// gorm.ErrDuplicatedKey through the unique (follower_id, following_id)
// index.
func (r *FollowRepository) Create(ctx context.Context, follow *models.Follow) error {
	return r.db.WithContext(ctx).Create(follow).Error
}

// Delete removes a follow edge and reports how many rows went away
func (r *FollowRepository) Delete(ctx context.Context, followerID, followingID int64) (int64, error) {
	res := r.db.WithContext(ctx).
		Where("follower_id = ? AND following_id = ?", followerID, followingID).
		Delete(&models.Follow{})
	return res.RowsAffected, res.Error
}

// ListFollowers retrieves the users following the given user
func (r *FollowRepository) ListFollowers(ctx context.Context, userID int64) ([]*models.User, error) {
	var users []*models.User
	if err := r.db.WithContext(ctx).
		Joins("JOIN follows ON follows.follower_id = users.id").
		Where("follows.following_id = ?", userID).
		Order("users.id").
		Find(&users).Error; err != nil {
		return nil, err
	}
	return users, nil
}

// ListFollowing retrieves the users the given user follows
func (r *FollowRepository) ListFollowing(ctx context.Context, userID int64) ([]*models.User, error) {
	var users []*models.User
	if err := r.db.WithContext(ctx).
		Joins("JOIN follows ON follows.following_id = users.id").
		Where("follows.follower_id = ?", userID).
		Order("users.id").
		Find(&users).Error; err != nil {
		return nil, err
	}
	return users, nil
}

// MediaRepository provides media-related database operations
type MediaRepository struct {
	*Repository
}

// NewMediaRepository creates a new media repository
func NewMediaRepository(repo *Repository) *MediaRepository {
	return &MediaRepository{Repository: repo}
}

// Create creates a new media record
func (r *MediaRepository) Create(ctx context.Context, media *models.Media) error {
	return r.db.WithContext(ctx).Create(media).Error
}

// ListOwnedByIDs retrieves the subset of the given media IDs owned by
// the given user. IDs that do not exist or belong to someone else are
// silently absent from the result.
func (r *MediaRepository) ListOwnedByIDs(ctx context.Context, ownerID int64, ids []int64) ([]*models.Media, error) {
	if len(ids) == 0 {
		return nil, nil
	}
	var media []*models.Media
	if err := r.db.WithContext(ctx).
		Where("owner_id = ? AND id IN ?", ownerID, ids).
		Find(&media).Error; err != nil {
		return nil, err
	}
	return media, nil
}

// TweetMediaRow pairs a tweet with one of its attachment references
type TweetMediaRow struct {
	TweetID  int64
	MediaID  int64
	FilePath string
}

// ListByTweetIDs retrieves the attachment references for the given tweets
func (r *MediaRepository) ListByTweetIDs(ctx context.Context, tweetIDs []int64) ([]TweetMediaRow, error) {
	if len(tweetIDs) == 0 {
		return nil, nil
	}
	var rows []TweetMediaRow
	if err := r.db.WithContext(ctx).
		Table("tweet_media").
		Select("tweet_media.tweet_id AS tweet_id, media.id AS media_id, media.file_path AS file_path").
		Joins("JOIN media ON media.id = tweet_media.media_id").
		Where("tweet_media.tweet_id IN ?", tweetIDs).
		Order("tweet_media.tweet_id, media.id").
		Scan(&rows).Error; err != nil {
		return nil, err
	}
	return rows, nil
}
