package handler

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/themattbirch/screen-time-guardian/internal/middleware"
	"github.com/themattbirch/screen-time-guardian/internal/service"
)

const defaultKeepAlive = 15 * time.Second

// EventsHandler streams a user's timer events as server-sent events. Event
// names are the event types; the data is the JSON encoded event.
type EventsHandler struct {
	timerService *service.TimerService
	keepAlive    time.Duration
}

func NewEventsHandler(timerService *service.TimerService, keepAlive time.Duration) *EventsHandler {
	if keepAlive <= 0 {
		keepAlive = defaultKeepAlive
	}
	return &EventsHandler{timerService: timerService, keepAlive: keepAlive}
}

func (h *EventsHandler) Stream(c *gin.Context) {
	ctx := c.Request.Context()
	stream, unsubscribe, apiErr := h.timerService.Subscribe(ctx, middleware.UserID(c))
	if apiErr != nil {
		writeError(c, apiErr)
		return
	}
	defer unsubscribe()

	c.Header("Content-Type", "text/event-stream")
	c.Header("Cache-Control", "no-cache")
	c.Header("Connection", "keep-alive")
	c.Header("X-Accel-Buffering", "no")
	c.Status(http.StatusOK)
	c.Writer.Flush()

	keepAlive := time.NewTicker(h.keepAlive)
	defer keepAlive.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case event, ok := <-stream:
			if !ok {
				return
			}
			c.SSEvent(event.Type, event)
		case now := <-keepAlive.C:
			c.SSEvent("ping", gin.H{"at": now.UTC()})
		}
		c.Writer.Flush()
	}
}
