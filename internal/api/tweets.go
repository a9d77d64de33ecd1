package api

import (
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/corpnet/microblog/internal/service"
	"github.com/corpnet/microblog/pkg/logging"
)

// TweetsAPI provides tweet and like endpoints
type TweetsAPI struct {
	content *service.ContentService
	social  *service.SocialService
	feed    *service.FeedService
	logger  *zap.Logger
}

// NewTweetsAPI creates a new tweets API
func NewTweetsAPI(content *service.ContentService, social *service.SocialService, feed *service.FeedService) *TweetsAPI {
	return &TweetsAPI{
		content: content,
		social:  social,
		feed:    feed,
		logger:  logging.GetLogger().With(zap.String("component", "tweets-api")),
	}
}

// CreateTweetRequest is the POST /api/tweets payload
type CreateTweetRequest struct {
	TweetData     string  `json:"tweet_data"`
	TweetMediaIDs []int64 `json:"tweet_media_ids"`
}

// Create handles POST /api/tweets
func (t *TweetsAPI) Create(c *gin.Context) {
	user := CurrentUser(c)

	var req CreateTweetRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		writeError(c, t.logger, fmt.Errorf("%w: malformed request body", service.ErrInvalidAction))
		return
	}

	tweet, err := t.content.CreateTweet(c.Request.Context(), user, req.TweetData, req.TweetMediaIDs)
	if err != nil {
		writeError(c, t.logger, err)
		return
	}

	c.JSON(http.StatusCreated, gin.H{
		"result":   true,
		"tweet_id": tweet.ID,
	})
}

// Delete handles DELETE /api/tweets/:id
func (t *TweetsAPI) Delete(c *gin.Context) {
	user := CurrentUser(c)

	id, err := pathID(c, "id")
	if err != nil {
		writeError(c, t.logger, err)
		return
	}

	if err := t.content.DeleteTweet(c.Request.Context(), user, id); err != nil {
		writeError(c, t.logger, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"result": true})
}

// Like handles POST /api/tweets/:id/likes
func (t *TweetsAPI) Like(c *gin.Context) {
	user := CurrentUser(c)

	id, err := pathID(c, "id")
	if err != nil {
		writeError(c, t.logger, err)
		return
	}

	if err := t.social.Like(c.Request.Context(), user, id); err != nil {
		writeError(c, t.logger, err)
		return
	}

	c.JSON(http.StatusCreated, gin.H{"result": true})
}

// Unlike handles DELETE /api/tweets/:id/likes
func (t *TweetsAPI) Unlike(c *gin.Context) {
	user := CurrentUser(c)

	id, err := pathID(c, "id")
	if err != nil {
		writeError(c, t.logger, err)
		return
	}

	if err := t.social.Unlike(c.Request.Context(), user, id); err != nil {
		writeError(c, t.logger, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"result": true})
}

// List handles GET /api/tweets
func (t *TweetsAPI) List(c *gin.Context) {
	feed, err := t.feed.ListFeed(c.Request.Context())
	if err != nil {
		writeError(c, t.logger, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"result": true,
		"tweets": feed,
	})
}
