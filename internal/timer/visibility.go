package timer

// VisibilitySource emits a value each time the host page regains the
// foreground.
type VisibilitySource interface {
	Foreground() <-chan struct{}
}

// VisibilityBroadcaster is a VisibilitySource driven by Signal. Signals that
// arrive while one is already pending are coalesced, since reconciliation
// only depends on the current time.
type VisibilityBroadcaster struct {
	ch chan struct{}
}

func NewVisibilityBroadcaster() *VisibilityBroadcaster {
	return &VisibilityBroadcaster{ch: make(chan struct{}, 1)}
}

func (b *VisibilityBroadcaster) Foreground() <-chan struct{} {
	return b.ch
}

func (b *VisibilityBroadcaster) Signal() {
	select {
	case b.ch <- struct{}{}:
	default:
	}
}
