package http

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"bloglist/internal/domain"
	"bloglist/internal/service"
	"bloglist/internal/stats"
)

func (h *Handler) writeError(c *gin.Context, err error) {
	var (
		validation *domain.ValidationError
		notFound   *domain.NotFoundError
		forbidden  *domain.ForbiddenError
		authErr    *domain.AuthenticationError
		conflict   *domain.ConflictError
	)

	status := http.StatusInternalServerError
	switch {
	case errors.As(err, &validation):
		status = http.StatusBadRequest
	case errors.As(err, &notFound):
		status = http.StatusNotFound
	case errors.As(err, &forbidden):
		status = http.StatusForbidden
	case errors.As(err, &authErr):
		status = http.StatusUnauthorized
	case errors.As(err, &conflict):
		status = http.StatusConflict
	case errors.Is(err, stats.ErrNoEntries):
		status = http.StatusNotFound
	case errors.Is(err, service.ErrExportDisabled):
		status = http.StatusServiceUnavailable
	}

	if status == http.StatusInternalServerError {
		_ = c.Error(err)
		h.logger.Errorf("%s %s: %v", c.Request.Method, c.Request.URL.Path, err)
		c.JSON(status, gin.H{"error": "internal server error"})
		return
	}
	c.JSON(status, gin.H{"error": err.Error()})
}
