package handler

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"

	apperrors "github.com/themattbirch/screen-time-guardian/internal/errors"
	"github.com/themattbirch/screen-time-guardian/internal/feedback"
	"github.com/themattbirch/screen-time-guardian/internal/middleware"
	"github.com/themattbirch/screen-time-guardian/internal/model"
	"github.com/themattbirch/screen-time-guardian/internal/service"
)

type TimerHandler struct {
	timerService *service.TimerService
}

type resetRequest struct {
	Mode     model.Mode `json:"mode"`
	Interval int        `json:"interval"`
}

type permissionRequest struct {
	Granted *bool `json:"granted"`
}

func NewTimerHandler(timerService *service.TimerService) *TimerHandler {
	return &TimerHandler{timerService: timerService}
}

func (h *TimerHandler) GetState(c *gin.Context) {
	state, apiErr := h.timerService.GetState(c.Request.Context(), middleware.UserID(c))
	if apiErr != nil {
		writeError(c, apiErr)
		return
	}
	c.JSON(http.StatusOK, gin.H{"state": state})
}

func (h *TimerHandler) Start(c *gin.Context) {
	h.respondState(c, h.timerService.Start)
}

func (h *TimerHandler) Pause(c *gin.Context) {
	h.respondState(c, h.timerService.Pause)
}

func (h *TimerHandler) Resume(c *gin.Context) {
	h.respondState(c, h.timerService.Resume)
}

// Visibility is called by a client that returns to the foreground after its
// ticks may have been throttled.
func (h *TimerHandler) Visibility(c *gin.Context) {
	h.respondState(c, h.timerService.Reconcile)
}

func (h *TimerHandler) Reset(c *gin.Context) {
	var req resetRequest
	if !bindJSON(c, &req, true) {
		return
	}

	state, apiErr := h.timerService.Reset(c.Request.Context(), middleware.UserID(c), req.Mode, req.Interval)
	if apiErr != nil {
		writeError(c, apiErr)
		return
	}
	c.JSON(http.StatusOK, gin.H{"state": state})
}

func (h *TimerHandler) GetSettings(c *gin.Context) {
	settings, apiErr := h.timerService.Settings(c.Request.Context(), middleware.UserID(c))
	if apiErr != nil {
		writeError(c, apiErr)
		return
	}
	c.JSON(http.StatusOK, gin.H{"settings": settings})
}

func (h *TimerHandler) UpdateSettings(c *gin.Context) {
	userID := middleware.UserID(c)
	current, apiErr := h.timerService.Settings(c.Request.Context(), userID)
	if apiErr != nil {
		writeError(c, apiErr)
		return
	}

	// Fields missing from the body keep their current values.
	next := *current
	if !bindJSON(c, &next, false) {
		return
	}

	applied, apiErr := h.timerService.UpdateSettings(c.Request.Context(), userID, next)
	if apiErr != nil {
		writeError(c, apiErr)
		return
	}
	c.JSON(http.StatusOK, gin.H{"settings": applied})
}

// GetSounds lists the completion sounds a settings update may select.
func (h *TimerHandler) GetSounds(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"sounds": feedback.AvailableSounds()})
}

func (h *TimerHandler) GetAchievements(c *gin.Context) {
	achievements, apiErr := h.timerService.Achievements(c.Request.Context(), middleware.UserID(c))
	if apiErr != nil {
		writeError(c, apiErr)
		return
	}
	c.JSON(http.StatusOK, gin.H{"achievements": achievements})
}

func (h *TimerHandler) GetStatistics(c *gin.Context) {
	stats, apiErr := h.timerService.Statistics(c.Request.Context(), middleware.UserID(c))
	if apiErr != nil {
		writeError(c, apiErr)
		return
	}
	c.JSON(http.StatusOK, gin.H{"statistics": stats})
}

func (h *TimerHandler) SetNotificationPermission(c *gin.Context) {
	var req permissionRequest
	if !bindJSON(c, &req, false) {
		return
	}
	if req.Granted == nil {
		writeError(c, apperrors.BadRequest("invalid_permission", "granted is required"))
		return
	}

	if apiErr := h.timerService.SetNotificationPermission(c.Request.Context(), middleware.UserID(c), *req.Granted); apiErr != nil {
		writeError(c, apiErr)
		return
	}
	c.Status(http.StatusNoContent)
}

type stateFunc func(ctx context.Context, userID string) (*service.StateView, *apperrors.APIError)

func (h *TimerHandler) respondState(c *gin.Context, fn stateFunc) {
	state, apiErr := fn(c.Request.Context(), middleware.UserID(c))
	if apiErr != nil {
		writeError(c, apiErr)
		return
	}
	c.JSON(http.StatusOK, gin.H{"state": state})
}
