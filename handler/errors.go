package handler

import (
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"

	"blog-api/apperror"
	"blog-api/logger"
)

// writeError maps err to a status and a client-safe message. Server-side
// failures are logged with their cause.
func writeError(c *gin.Context, err error) {
	status := apperror.HTTPStatus(err)
	if status >= http.StatusInternalServerError {
		logger.From(c.Request.Context()).Error("request failed",
			slog.String("kind", apperror.KindOf(err).String()), slog.Any("error", err))
	}
	c.AbortWithStatusJSON(status, gin.H{"error": apperror.PublicMessage(err)})
}

func badRequest(c *gin.Context, msg string, values ...string) {
	writeError(c, apperror.InvalidArgument(msg, values...))
}
