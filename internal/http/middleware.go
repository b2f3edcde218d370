package http

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"bloglist/internal/auth"
	"bloglist/internal/domain"
)

const (
	actorKey     = "actor"
	authErrorKey = "auth_error"
)

func corsMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Writer.Header().Set("Access-Control-Allow-Origin", "*")
		c.Writer.Header().Set("Access-Control-Allow-Methods", "GET, POST, PUT, DELETE, OPTIONS")
		c.Writer.Header().Set("Access-Control-Allow-Headers", "Origin, Content-Type, Accept, Authorization")
		if c.Request.Method == http.MethodOptions {
			c.AbortWithStatus(http.StatusNoContent)
			return
		}

		c.Next()
	}
}

func requestLogger(logger *logrus.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		entry := logger.WithFields(logrus.Fields{
			"method":  c.Request.Method,
			"path":    c.Request.URL.Path,
			"status":  c.Writer.Status(),
			"latency": time.Since(start).String(),
		})
		if len(c.Errors) > 0 {
			entry.Warn(c.Errors.String())
			return
		}
		entry.Debug("request")
	}
}

// identify resolves the bearer token, if any, into the acting author. Failures
// are recorded and only reported by routes that require an actor.
func (h *Handler) identify() gin.HandlerFunc {
	return func(c *gin.Context) {
		token := auth.BearerToken(c.GetHeader("Authorization"))
		if token == "" || h.resolver == nil {
			c.Next()
			return
		}

		actor, err := h.resolver.Resolve(c.Request.Context(), token)
		if err != nil {
			c.Set(authErrorKey, err)
			c.Next()
			return
		}
		c.Set(actorKey, actor)
		c.Next()
	}
}

func requireActor() gin.HandlerFunc {
	return func(c *gin.Context) {
		if actorFrom(c) != nil {
			c.Next()
			return
		}
		reason := "token missing or invalid"
		if v, ok := c.Get(authErrorKey); ok {
			if err, ok := v.(error); ok {
				reason = err.Error()
			}
		}
		c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": reason})
	}
}

func actorFrom(c *gin.Context) *domain.Author {
	v, ok := c.Get(actorKey)
	if !ok {
		return nil
	}
	actor, _ := v.(*domain.Author)
	return actor
}
