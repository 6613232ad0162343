package middleware

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/martijn/userbase/internal/api/dto"
	"github.com/martijn/userbase/internal/api/view"
	"github.com/martijn/userbase/internal/logging"
)

// ErrorHandlerMiddleware handles panics and errors
func ErrorHandlerMiddleware(logger logging.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		defer func() {
			if err := recover(); err != nil {
				logger.Error(c.Request.Context(), "panic while handling request",
					"panic", err, "path", c.Request.URL.Path)
				internalError(c)
				c.Abort()
			}
		}()

		c.Next()

		// Check if there are any errors
		if len(c.Errors) > 0 && !c.Writer.Written() {
			logger.Error(c.Request.Context(), "request failed", "error", c.Errors.Last().Error())
			internalError(c)
		}
	}
}

func internalError(c *gin.Context) {
	if IsAPIRequest(c) {
		c.JSON(http.StatusInternalServerError, dto.ErrorResponse{
			Error:   "Internal Server Error",
			Message: "An unexpected error occurred",
			Code:    http.StatusInternalServerError,
		})
		return
	}
	c.HTML(http.StatusInternalServerError, view.PageError, view.Page{
		Title:   "Something went wrong",
		Message: "We're sorry, but something went wrong.",
	})
}

// IsAPIRequest reports whether the request targets the JSON API.
func IsAPIRequest(c *gin.Context) bool {
	return strings.HasPrefix(c.Request.URL.Path, "/api/")
}
