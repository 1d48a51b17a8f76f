package feedback

import (
	"context"
	"sync"

	"github.com/themattbirch/screen-time-guardian/internal/events"
)

type Permission string

const (
	PermissionDefault Permission = "default"
	PermissionGranted Permission = "granted"
	PermissionDenied  Permission = "denied"
)

// Notifier shows system notifications when the user allowed them and falls
// back to an in-app toast otherwise.
type Notifier interface {
	Permission() Permission
	// RequestPermission asks at most once per process lifetime. A request
	// that reached no client does not count. It reports whether a request
	// was delivered.
	RequestPermission(ctx context.Context) (bool, error)
	SetPermission(p Permission)
	Notify(ctx context.Context, title, body string) error
	Toast(ctx context.Context, message string) error
}

type EventNotifier struct {
	Publisher events.Publisher
	Available bool

	mu         sync.Mutex
	permission Permission
	requested  bool
}

func NewEventNotifier(publisher events.Publisher, available bool) *EventNotifier {
	return &EventNotifier{
		Publisher:  publisher,
		Available:  available,
		permission: PermissionDefault,
	}
}

func (n *EventNotifier) Permission() Permission {
	n.mu.Lock()
	defer n.mu.Unlock()
	if !n.Available {
		return PermissionDenied
	}
	return n.permission
}

func (n *EventNotifier) RequestPermission(ctx context.Context) (bool, error) {
	n.mu.Lock()
	if !n.Available || n.requested || n.permission != PermissionDefault {
		n.mu.Unlock()
		return false, nil
	}
	if err := ctx.Err(); err != nil {
		n.mu.Unlock()
		return false, err
	}
	n.requested = true
	n.mu.Unlock()

	if events.Deliver(n.Publisher, events.Event{Type: events.TypeNotificationPermissionRequired}) {
		return true, nil
	}
	n.mu.Lock()
	n.requested = false
	n.mu.Unlock()
	return false, nil
}

func (n *EventNotifier) SetPermission(p Permission) {
	n.mu.Lock()
	n.permission = p
	n.mu.Unlock()
}

func (n *EventNotifier) Notify(ctx context.Context, title, body string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	n.Publisher.Publish(events.Event{
		Type: events.TypeNotification,
		Data: map[string]interface{}{"title": title, "body": body},
	})
	return nil
}

func (n *EventNotifier) Toast(ctx context.Context, message string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	n.Publisher.Publish(events.Event{
		Type: events.TypeToast,
		Data: map[string]interface{}{"message": message},
	})
	return nil
}
