package api

import (
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/corpnet/microblog/internal/service"
	"github.com/corpnet/microblog/pkg/logging"
)

// MediasAPI provides the upload endpoint
type MediasAPI struct {
	content *service.ContentService
	logger  *zap.Logger
}

// NewMediasAPI creates a new medias API
func NewMediasAPI(content *service.ContentService) *MediasAPI {
	return &MediasAPI{
		content: content,
		logger:  logging.GetLogger().With(zap.String("component", "medias-api")),
	}
}

// Upload handles POST /api/medias (multipart, field "file")
func (m *MediasAPI) Upload(c *gin.Context) {
	user := CurrentUser(c)

	fileHeader, err := c.FormFile("file")
	if err != nil {
		writeError(c, m.logger, fmt.Errorf("%w: missing file field", service.ErrInvalidAction))
		return
	}

	f, err := fileHeader.Open()
	if err != nil {
		writeError(c, m.logger, fmt.Errorf("failed to open upload: %w", err))
		return
	}
	defer f.Close()

	media, err := m.content.RegisterMedia(c.Request.Context(), user, fileHeader.Filename, f)
	if err != nil {
		writeError(c, m.logger, err)
		return
	}

	c.JSON(http.StatusCreated, gin.H{
		"result":   true,
		"media_id": media.ID,
	})
}
