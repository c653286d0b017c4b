package handler

import (
	"net/http"
	"time"

	"go.uber.org/zap"

	"github.com/adeelfeb/watchServer/internal/models"
	"github.com/adeelfeb/watchServer/internal/service"
	"github.com/adeelfeb/watchServer/pkg/logger"

	"github.com/gin-gonic/gin"
)

// respondError maps typed service errors onto HTTP status codes.
func respondError(c *gin.Context, err error) {
	switch err.(type) {
	case *service.ValidationError:
		logger.Log.Warn("Validation error",
			zap.Error(err),
			zap.String("path", c.Request.URL.Path),
		)
		writeError(c, http.StatusBadRequest, "Bad Request", err.Error())
	case *service.NotFoundError:
		writeError(c, http.StatusNotFound, "Not Found", err.Error())
	case *service.DurationExceededError:
		logger.Log.Warn("Video rejected by duration cap",
			zap.Error(err),
			zap.String("path", c.Request.URL.Path),
		)
		writeError(c, http.StatusConflict, "Conflict", err.Error())
	case *service.ExternalServiceError:
		logger.Log.Error("External service error",
			zap.Error(err),
			zap.String("path", c.Request.URL.Path),
		)
		writeError(c, http.StatusBadGateway, "Bad Gateway", "An upstream service is unavailable")
	default:
		logger.Log.Error("Internal error",
			zap.Error(err),
			zap.String("path", c.Request.URL.Path),
		)
		writeError(c, http.StatusInternalServerError, "Internal Server Error", "An unexpected error occurred")
	}
}

func writeError(c *gin.Context, status int, label, message string) {
	c.JSON(status, models.ErrorResponse{
		Status:    status,
		Error:     label,
		Message:   message,
		Timestamp: time.Now(),
		Path:      c.Request.URL.Path,
	})
}

func badRequest(c *gin.Context, message string) {
	writeError(c, http.StatusBadRequest, "Bad Request", message)
}
