package api

import (
	"fmt"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"

	"github.com/corpnet/microblog/internal/models"
	"github.com/corpnet/microblog/internal/service"
	"github.com/corpnet/microblog/pkg/logging"
	"github.com/corpnet/microblog/pkg/telemetry"
)

const (
	apiKeyHeader   = "api-key"
	currentUserKey = "currentUser"
)

// APIKeyAuth authenticates every request by the api-key header and puts
// the resolved user on the context
func APIKeyAuth(auth *service.AuthService) gin.HandlerFunc {
	logger := logging.GetLogger().With(zap.String("component", "auth-middleware"))
	return func(c *gin.Context) {
		user, err := auth.Authenticate(c.Request.Context(), c.GetHeader(apiKeyHeader))
		if err != nil {
			writeError(c, logger, err)
			c.Abort()
			return
		}
		c.Set(currentUserKey, user)
		c.Next()
	}
}

// CurrentUser returns the user the auth middleware resolved, or nil on
// routes outside the authenticated group
func CurrentUser(c *gin.Context) *models.User {
	if v, ok := c.Get(currentUserKey); ok {
		if user, ok := v.(*models.User); ok {
			return user
		}
	}
	return nil
}

// RequestLogger logs one line per handled request, tagged with the
// trace ID when tracing is active
func RequestLogger() gin.HandlerFunc {
	logger := logging.GetLogger().With(zap.String("component", "http"))
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		log := logger
		if sc := trace.SpanContextFromContext(c.Request.Context()); sc.HasTraceID() {
			log = logging.WithTraceID(sc.TraceID().String())
		}
		log.Info("Request handled",
			zap.String("method", c.Request.Method),
			zap.String("path", c.FullPath()),
			zap.Int("status", c.Writer.Status()),
			zap.Duration("duration", time.Since(start)))
	}
}

// TraceRequests opens a span per request named after the matched route
func TraceRequests() gin.HandlerFunc {
	return func(c *gin.Context) {
		ctx, span := telemetry.StartSpan(c.Request.Context(), c.Request.Method+" "+c.FullPath())
		defer span.End()
		c.Request = c.Request.WithContext(ctx)
		c.Next()
	}
}

// pathID parses the named path parameter as an entity ID
func pathID(c *gin.Context, name string) (int64, error) {
	id, err := strconv.ParseInt(c.Param(name), 10, 64)
	if err != nil {
		return 0, fmt.Errorf("%w: %s must be an integer", service.ErrInvalidAction, name)
	}
	return id, nil
}
