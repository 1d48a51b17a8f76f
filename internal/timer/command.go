package timer

import (
	"context"
	"errors"
	"fmt"

	"github.com/themattbirch/screen-time-guardian/internal/model"
)

var ErrUnknownVerb = errors.New("unknown command verb")

type Verb string

const (
	VerbStart  Verb = "start"
	VerbPause  Verb = "pause"
	VerbResume Verb = "resume"
	VerbReset  Verb = "reset"
)

type Result struct {
	Session model.TimerSession
	Err     error
}

// Command is one transition requested by a remote context such as an
// extension popup. Reply is optional and must be buffered by the sender.
type Command struct {
	Verb     Verb
	Mode     model.Mode
	Interval int
	Reply    chan<- Result
}

// Execute applies cmd directly.
func (c *Controller) Execute(ctx context.Context, cmd Command) (model.TimerSession, error) {
	switch cmd.Verb {
	case VerbStart:
		return c.Start(ctx), nil
	case VerbPause:
		return c.Pause(ctx), nil
	case VerbResume:
		return c.Resume(ctx), nil
	case VerbReset:
		return c.Reset(ctx, cmd.Mode, cmd.Interval), nil
	default:
		return c.Snapshot(), fmt.Errorf("%w: %q", ErrUnknownVerb, cmd.Verb)
	}
}

// Run serializes commands and foreground events until ctx is done, then
// stops tick delivery. A nil visibility source is allowed.
func (c *Controller) Run(ctx context.Context, commands <-chan Command, visibility VisibilitySource) error {
	defer c.Close()

	var foreground <-chan struct{}
	if visibility != nil {
		foreground = visibility.Foreground()
	}

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case cmd, ok := <-commands:
			if !ok {
				commands = nil
				continue
			}
			session, err := c.Execute(ctx, cmd)
			if cmd.Reply != nil {
				cmd.Reply <- Result{Session: session, Err: err}
			}
		case <-foreground:
			c.ReconcileAfterSuspend(ctx, c.nowMs())
			c.requestNotificationPermission(ctx)
		}
	}
}
