package feedback

import (
	"context"
	"time"

	"github.com/themattbirch/screen-time-guardian/internal/events"
)

const PulseDuration = 150 * time.Millisecond

type Haptics interface {
	Supported() bool
	Vibrate(ctx context.Context, d time.Duration) error
}

type EventHaptics struct {
	Enabled   bool
	Publisher events.Publisher
}

func (h EventHaptics) Supported() bool {
	return h.Enabled
}

func (h EventHaptics) Vibrate(ctx context.Context, d time.Duration) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	h.Publisher.Publish(events.Event{
		Type: events.TypeVibrate,
		Data: map[string]interface{}{"durationMs": d.Milliseconds()},
	})
	return nil
}
