package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	apperrors "github.com/themattbirch/screen-time-guardian/internal/errors"
)

func writeError(c *gin.Context, apiErr *apperrors.APIError) {
	if apiErr == nil {
		apiErr = apperrors.Internal("")
	}
	if apiErr.Status >= http.StatusInternalServerError {
		_ = c.Error(apiErr)
	}
	c.JSON(apiErr.Status, apiErr.Envelope())
}

// bindJSON decodes the request body into dst and writes a 400 on failure.
// An empty body leaves dst untouched when optional is set.
func bindJSON(c *gin.Context, dst interface{}, optional bool) bool {
	if optional && c.Request.ContentLength == 0 {
		return true
	}
	if err := c.ShouldBindJSON(dst); err != nil {
		writeError(c, apperrors.InvalidJSON())
		return false
	}
	return true
}
