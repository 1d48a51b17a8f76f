package service_test

import (
	"context"
	"io"
	"net/http"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/themattbirch/screen-time-guardian/internal/events"
	"github.com/themattbirch/screen-time-guardian/internal/logging"
	"github.com/themattbirch/screen-time-guardian/internal/model"
	"github.com/themattbirch/screen-time-guardian/internal/service"
	"github.com/themattbirch/screen-time-guardian/internal/store"
	"github.com/themattbirch/screen-time-guardian/internal/timer/timertest"
)

type timerFixture struct {
	svc    *service.TimerService
	clock  *timertest.ManualClock
	sched  *timertest.ManualScheduler
	broker *events.Broker
	stores store.Factory
}

func newTimerFixture(t *testing.T, configure ...func(*service.TimerServiceOptions)) *timerFixture {
	t.Helper()
	f := &timerFixture{
		clock:  timertest.NewManualClock(time.Date(2026, 1, 10, 12, 0, 0, 0, time.UTC)),
		sched:  timertest.NewManualScheduler(),
		broker: events.NewBroker(),
		stores: store.MemoryFactory(),
	}
	opts := service.TimerServiceOptions{
		Stores:                 f.stores,
		Broker:                 f.broker,
		Clock:                  f.clock,
		Scheduler:              f.sched,
		Location:               time.UTC,
		Logger:                 logging.New("error", "text", io.Discard),
		HapticsSupported:       true,
		NotificationsSupported: true,
	}
	for _, fn := range configure {
		fn(&opts)
	}
	f.svc = service.NewTimerService(opts)
	t.Cleanup(f.svc.Shutdown)
	return f
}

func TestTimerService_CommandsRoundTrip(t *testing.T) {
	f := newTimerFixture(t)
	ctx := context.Background()

	state, apiErr := f.svc.GetState(ctx, "u1")
	require.Nil(t, apiErr)
	assert.Equal(t, model.StatusInactive, state.Status)
	assert.Equal(t, f.clock.Now().UnixMilli(), state.ServerTimeEpochMs)

	state, apiErr = f.svc.Start(ctx, "u1")
	require.Nil(t, apiErr)
	assert.Equal(t, model.StatusRunning, state.Status)

	f.clock.Advance(5 * time.Minute)
	state, apiErr = f.svc.Pause(ctx, "u1")
	require.Nil(t, apiErr)
	assert.Equal(t, 20*60, state.TimeLeftSeconds)

	state, apiErr = f.svc.Resume(ctx, "u1")
	require.Nil(t, apiErr)
	assert.Equal(t, model.StatusRunning, state.Status)

	state, apiErr = f.svc.Reset(ctx, "u1", model.ModeLongBreak, 0)
	require.Nil(t, apiErr)
	assert.Equal(t, 15*60, state.TimeLeftSeconds)
	assert.Equal(t, 0, f.sched.Active())
}

func TestTimerService_ValidatesInput(t *testing.T) {
	f := newTimerFixture(t)
	ctx := context.Background()

	_, apiErr := f.svc.Reset(ctx, "u1", "nap", 0)
	require.NotNil(t, apiErr)
	assert.Equal(t, "invalid_mode", apiErr.Code)

	_, apiErr = f.svc.Reset(ctx, "u1", model.ModeCustom, 500)
	require.NotNil(t, apiErr)
	assert.Equal(t, "invalid_interval", apiErr.Code)

	settings := model.DefaultSettings()
	settings.SoundVolume = 101
	_, apiErr = f.svc.UpdateSettings(ctx, "u1", settings)
	require.NotNil(t, apiErr)
	assert.Equal(t, "invalid_volume", apiErr.Code)

	_, apiErr = f.svc.GetState(ctx, "")
	require.NotNil(t, apiErr)
	assert.Equal(t, http.StatusUnauthorized, apiErr.Status)
}

func TestTimerService_StatePersistsAcrossRestart(t *testing.T) {
	f := newTimerFixture(t)
	ctx := context.Background()

	_, apiErr := f.svc.Start(ctx, "u1")
	require.Nil(t, apiErr)
	f.svc.Shutdown()

	f.clock.Advance(10 * time.Minute)
	restarted := newTimerFixture(t, func(opts *service.TimerServiceOptions) {
		opts.Stores = f.stores
		opts.Clock = f.clock
	})

	state, apiErr := restarted.svc.GetState(ctx, "u1")
	require.Nil(t, apiErr)
	assert.Equal(t, model.StatusRunning, state.Status)
	assert.Equal(t, 15*60, state.TimeLeftSeconds)
	assert.Equal(t, 1, restarted.sched.Active())
}

func TestTimerService_SubscribeStreamsEffects(t *testing.T) {
	f := newTimerFixture(t)
	ctx := context.Background()

	stream, unsubscribe, apiErr := f.svc.Subscribe(ctx, "u1")
	require.Nil(t, apiErr)
	defer unsubscribe()

	require.Nil(t, f.svc.SetNotificationPermission(ctx, "u1", true))
	_, apiErr = f.svc.Start(ctx, "u1")
	require.Nil(t, apiErr)

	f.clock.Advance(25 * time.Minute)
	f.sched.Fire()

	seen := map[string]bool{}
	deadline := time.After(2 * time.Second)
	for !seen[events.TypeSessionCompleted] {
		select {
		case ev := <-stream:
			seen[ev.Type] = true
		case <-deadline:
			t.Fatalf("timed out; saw %v", seen)
		}
	}

	assert.True(t, seen[events.TypeNotificationPermissionRequired])
	assert.True(t, seen[events.TypePlaySound])
	assert.True(t, seen[events.TypeVibrate])
	assert.True(t, seen[events.TypeNotification])
	assert.False(t, seen[events.TypeToast])

	stats, apiErr := f.svc.Statistics(ctx, "u1")
	require.Nil(t, apiErr)
	assert.Equal(t, 1, stats.TotalSessions)
}

func TestTimerService_PermissionRequestReachesLateSubscriber(t *testing.T) {
	f := newTimerFixture(t)
	ctx := context.Background()

	_, apiErr := f.svc.GetState(ctx, "u1")
	require.Nil(t, apiErr)

	stream, unsubscribe, apiErr := f.svc.Subscribe(ctx, "u1")
	require.Nil(t, apiErr)
	defer unsubscribe()

	deadline := time.After(2 * time.Second)
	for {
		select {
		case ev := <-stream:
			if ev.Type == events.TypeNotificationPermissionRequired {
				return
			}
		case <-deadline:
			t.Fatal("permission request never reached the subscriber")
		}
	}
}

// gatedStore holds every read until gate is closed.
type gatedStore struct {
	store.Store
	gate <-chan struct{}
}

func (g gatedStore) Get(ctx context.Context, keys []string) (map[string][]byte, error) {
	<-g.gate
	return g.Store.Get(ctx, keys)
}

func TestTimerService_SlowLoadDoesNotBlockOtherUsers(t *testing.T) {
	gate := make(chan struct{})
	var release sync.Once
	var builds atomic.Int32
	memory := store.MemoryFactory()
	f := newTimerFixture(t, func(opts *service.TimerServiceOptions) {
		opts.Stores = func(owner string) store.Store {
			if owner != "slow" {
				return memory(owner)
			}
			builds.Add(1)
			return gatedStore{Store: memory(owner), gate: gate}
		}
	})
	t.Cleanup(func() { release.Do(func() { close(gate) }) })
	ctx := context.Background()

	slow := make(chan bool, 2)
	for i := 0; i < 2; i++ {
		go func() {
			_, apiErr := f.svc.GetState(ctx, "slow")
			slow <- apiErr == nil
		}()
	}

	require.Eventually(t, func() bool { return builds.Load() == 1 }, 2*time.Second, time.Millisecond)

	fast := make(chan struct{})
	go func() {
		_, apiErr := f.svc.GetState(ctx, "fast")
		assert.Nil(t, apiErr)
		close(fast)
	}()
	select {
	case <-fast:
	case <-time.After(2 * time.Second):
		t.Fatal("a slow load for one user blocked another user")
	}

	release.Do(func() { close(gate) })
	for i := 0; i < 2; i++ {
		select {
		case ok := <-slow:
			assert.True(t, ok)
		case <-time.After(2 * time.Second):
			t.Fatal("slow user never got its state")
		}
	}
	assert.Equal(t, int32(1), builds.Load())
}

func TestTimerService_ShutdownRejectsCalls(t *testing.T) {
	f := newTimerFixture(t)
	f.svc.Shutdown()

	_, apiErr := f.svc.Start(context.Background(), "u1")
	require.NotNil(t, apiErr)
	assert.Equal(t, http.StatusServiceUnavailable, apiErr.Status)
}
