package api

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/coursehive/forumcore/internal/models"
)

// statusFor maps a domain error code onto an HTTP status
func statusFor(code string) int {
	switch code {
	case "no-topic":
		return http.StatusNotFound
	case "no-privileges", "cant-delete-topic-has-reply", "cant-delete-topic-has-replies":
		return http.StatusForbidden
	case "topic-already-deleted", "topic-already-restored", "cant-move-topic-to-same-category":
		return http.StatusConflict
	case "invalid-data", "cant-pin-scheduled":
		return http.StatusBadRequest
	default:
		return http.StatusInternalServerError
	}
}

// abortWithError renders an error response. Domain errors carry their code
// and parameters; anything else is an opaque internal error.
func (r *Router) abortWithError(c *gin.Context, err error) {
	var de *models.DomainError
	if errors.As(err, &de) {
		body := gin.H{"error": de.Code}
		if len(de.Params) > 0 {
			body["params"] = de.Params
		}
		c.AbortWithStatusJSON(statusFor(de.Code), body)
		return
	}
	r.logger.Error("Request failed", zap.String("path", c.FullPath()), zap.Error(err))
	c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"error": "internal-error"})
}
