package api

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/corpnet/microblog/internal/service"
	"github.com/corpnet/microblog/pkg/logging"
)

// UsersAPI provides profile and follow endpoints
type UsersAPI struct {
	social *service.SocialService
	feed   *service.FeedService
	logger *zap.Logger
}

// NewUsersAPI creates a new users API
func NewUsersAPI(social *service.SocialService, feed *service.FeedService) *UsersAPI {
	return &UsersAPI{
		social: social,
		feed:   feed,
		logger: logging.GetLogger().With(zap.String("component", "users-api")),
	}
}

// Me handles GET /api/users/me
func (u *UsersAPI) Me(c *gin.Context) {
	user := CurrentUser(c)

	profile, err := u.feed.GetProfile(c.Request.Context(), user.ID)
	if err != nil {
		writeError(c, u.logger, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"result": true,
		"user":   profile,
	})
}

// Get handles GET /api/users/:id
func (u *UsersAPI) Get(c *gin.Context) {
	id, err := pathID(c, "id")
	if err != nil {
		writeError(c, u.logger, err)
		return
	}

	profile, err := u.feed.GetProfile(c.Request.Context(), id)
	if err != nil {
		writeError(c, u.logger, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"result": true,
		"user":   profile,
	})
}

// Follow handles POST /api/users/:id/follow
func (u *UsersAPI) Follow(c *gin.Context) {
	user := CurrentUser(c)

	id, err := pathID(c, "id")
	if err != nil {
		writeError(c, u.logger, err)
		return
	}

	if err := u.social.Follow(c.Request.Context(), user, id); err != nil {
		writeError(c, u.logger, err)
		return
	}

	c.JSON(http.StatusCreated, gin.H{"result": true})
}

// Unfollow handles DELETE /api/users/:id/follow
func (u *UsersAPI) Unfollow(c *gin.Context) {
	user := CurrentUser(c)

	id, err := pathID(c, "id")
	if err != nil {
		writeError(c, u.logger, err)
		return
	}

	if err := u.social.Unfollow(c.Request.Context(), user, id); err != nil {
		writeError(c, u.logger, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"result": true})
}
