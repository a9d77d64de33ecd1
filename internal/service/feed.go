package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/corpnet/microblog/internal/cache"
	"github.com/corpnet/microblog/internal/db"
	"github.com/corpnet/microblog/internal/models"
	"github.com/corpnet/microblog/pkg/logging"
	"github.com/corpnet/microblog/pkg/telemetry"
)

// feedCacheKey holds the assembled ranked feed; every mutation that can
// change it deletes this key
const feedCacheKey = "feed:ranked"

// UserRef is the compact user view embedded in feed and profile output
type UserRef struct {
	ID   int64  `json:"id"`
	Name string `json:"name"`
}

// LikeRef identifies one liker of a tweet
type LikeRef struct {
	UserID int64  `json:"user_id"`
	Name   string `json:"name"`
}

// FeedTweet is one fully assembled feed entry
type FeedTweet struct {
	ID          int64     `json:"id"`
	Content     string    `json:"content"`
	Attachments []string  `json:"attachments"`
	Author      UserRef   `json:"author"`
	Likes       []LikeRef `json:"likes"`
}

// Profile is the user view with follower and following lists
type Profile struct {
	ID        int64     `json:"id"`
	Name      string    `json:"name"`
	Followers []UserRef `json:"followers"`
	Following []UserRef `json:"following"`
}

// FeedService assembles aggregated read views. Everything loads in
// batches keyed by ID so a feed of N tweets costs a fixed number of
// queries, not N of them.
type FeedService struct {
	users   *db.UserRepository
	tweets  *db.TweetRepository
	likes   *db.LikeRepository
	follows *db.FollowRepository
	media   *db.MediaRepository
	cache   *cache.Cache
	ttl     time.Duration
	baseURL string
	logger  *zap.Logger
}

// NewFeedService creates a new feed service
func NewFeedService(
	users *db.UserRepository,
	tweets *db.TweetRepository,
	likes *db.LikeRepository,
	follows *db.FollowRepository,
	media *db.MediaRepository,
	feedCache *cache.Cache,
	ttl time.Duration,
	mediaBaseURL string,
) *FeedService {
	return &FeedService{
		users:   users,
		tweets:  tweets,
		likes:   likes,
		follows: follows,
		media:   media,
		cache:   feedCache,
		ttl:     ttl,
		baseURL: mediaBaseURL,
		logger:  logging.WithComponent("feed"),
	}
}

// ListFeed returns all tweets ranked by like count (newest first among
// ties), each annotated with attachments, author, and likers
func (s *FeedService) ListFeed(ctx context.Context) ([]FeedTweet, error) {
	ctx, span := telemetry.StartSpan(ctx, "feed.list_feed")
	defer span.End()

	var cached []FeedTweet
	if err := s.cache.GetJSON(feedCacheKey, &cached); err == nil {
		return cached, nil
	}

	tweets, err := s.tweets.ListRanked(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list tweets: %w", err)
	}

	feed, err := s.assemble(ctx, tweets)
	if err != nil {
		return nil, err
	}

	if err := s.cache.SetJSON(feedCacheKey, feed, s.ttl); err != nil && !errors.Is(err, cache.ErrCacheDisabled) {
		s.logger.Warn("Failed to cache feed", zap.Error(err))
	}

	return feed, nil
}

// assemble batch-loads likes, likers, authors, and attachments for the
// given tweets and builds the feed entries in order
func (s *FeedService) assemble(ctx context.Context, tweets []*models.Tweet) ([]FeedTweet, error) {
	feed := make([]FeedTweet, 0, len(tweets))
	if len(tweets) == 0 {
		return feed, nil
	}

	tweetIDs := make([]int64, 0, len(tweets))
	userIDSet := make(map[int64]bool)
	for _, t := range tweets {
		tweetIDs = append(tweetIDs, t.ID)
		userIDSet[t.AuthorID] = true
	}

	likes, err := s.likes.ListByTweetIDs(ctx, tweetIDs)
	if err != nil {
		return nil, fmt.Errorf("failed to list likes: %w", err)
	}
	likesByTweet := make(map[int64][]*models.Like)
	for _, l := range likes {
		likesByTweet[l.TweetID] = append(likesByTweet[l.TweetID], l)
		userIDSet[l.UserID] = true
	}

	userIDs := make([]int64, 0, len(userIDSet))
	for id := range userIDSet {
		userIDs = append(userIDs, id)
	}
	users, err := s.users.GetByIDs(ctx, userIDs)
	if err != nil {
		return nil, fmt.Errorf("failed to list users: %w", err)
	}
	usersByID := make(map[int64]*models.User, len(users))
	for _, u := range users {
		usersByID[u.ID] = u
	}

	attachmentRows, err := s.media.ListByTweetIDs(ctx, tweetIDs)
	if err != nil {
		return nil, fmt.Errorf("failed to list attachments: %w", err)
	}
	attachmentsByTweet := make(map[int64][]string)
	for _, row := range attachmentRows {
		attachmentsByTweet[row.TweetID] = append(attachmentsByTweet[row.TweetID], s.attachmentURL(row.FilePath))
	}

	for _, t := range tweets {
		entry := FeedTweet{
			ID:          t.ID,
			Content:     t.Content,
			Attachments: attachmentsByTweet[t.ID],
			Likes:       make([]LikeRef, 0, len(likesByTweet[t.ID])),
		}
		if entry.Attachments == nil {
			entry.Attachments = make([]string, 0)
		}
		if author, ok := usersByID[t.AuthorID]; ok {
			entry.Author = UserRef{ID: author.ID, Name: author.Name}
		}
		for _, l := range likesByTweet[t.ID] {
			ref := LikeRef{UserID: l.UserID}
			if u, ok := usersByID[l.UserID]; ok {
				ref.Name = u.Name
			}
			entry.Likes = append(entry.Likes, ref)
		}
		feed = append(feed, entry)
	}

	return feed, nil
}

// GetProfile returns the user view with follower and following lists
func (s *FeedService) GetProfile(ctx context.Context, userID int64) (*Profile, error) {
	ctx, span := telemetry.StartSpan(ctx, "feed.get_profile")
	defer span.End()

	user, err := s.users.GetByID(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to look up user %d: %w", userID, err)
	}
	if user == nil {
		return nil, ErrNotFound
	}

	followers, err := s.follows.ListFollowers(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to list followers: %w", err)
	}
	following, err := s.follows.ListFollowing(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to list following: %w", err)
	}

	profile := &Profile{
		ID:        user.ID,
		Name:      user.Name,
		Followers: make([]UserRef, 0, len(followers)),
		Following: make([]UserRef, 0, len(following)),
	}
	for _, u := range followers {
		profile.Followers = append(profile.Followers, UserRef{ID: u.ID, Name: u.Name})
	}
	for _, u := range following {
		profile.Following = append(profile.Following, UserRef{ID: u.ID, Name: u.Name})
	}

	return profile, nil
}

// attachmentURL turns a stored file reference into the URL clients fetch
func (s *FeedService) attachmentURL(ref string) string {
	if s.baseURL == "" {
		return ref
	}
	if strings.HasSuffix(s.baseURL, "/") {
		return s.baseURL + ref
	}
	return s.baseURL + "/" + ref
}
