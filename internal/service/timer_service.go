package service

import (
	"context"
	"log/slog"
	"sync"
	"time"

	apperrors "github.com/themattbirch/screen-time-guardian/internal/errors"
	"github.com/themattbirch/screen-time-guardian/internal/events"
	"github.com/themattbirch/screen-time-guardian/internal/feedback"
	"github.com/themattbirch/screen-time-guardian/internal/model"
	"github.com/themattbirch/screen-time-guardian/internal/progress"
	"github.com/themattbirch/screen-time-guardian/internal/repository"
	"github.com/themattbirch/screen-time-guardian/internal/store"
	"github.com/themattbirch/screen-time-guardian/internal/timer"
)

const maxIntervalMinutes = 180

type TimerServiceOptions struct {
	Stores     store.Factory
	Broker     *events.Broker
	Clock      timer.Clock
	Scheduler  timer.Scheduler
	TickPeriod time.Duration
	Location   *time.Location
	Logger     *slog.Logger

	ResetCountsAsAbandoned bool
	HapticsSupported       bool
	NotificationsSupported bool
}

// TimerService owns one timer controller per user. Controllers are created
// on first use and live until Shutdown.
type TimerService struct {
	opts   TimerServiceOptions
	logger *slog.Logger

	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup

	mu     sync.Mutex
	timers map[string]*userTimer
	closed bool
}

// userTimer is registered before its controller is built; ready closes
// once ctrl is set, or left nil when the service shut down meanwhile.
type userTimer struct {
	ready      chan struct{}
	ctrl       *timer.Controller
	commands   chan timer.Command
	visibility *timer.VisibilityBroadcaster
}

// StateView is a session as reported to clients, stamped with the server
// clock so clients can render a countdown from the deadline.
type StateView struct {
	model.TimerSession
	Status            string `json:"status"`
	ServerTimeEpochMs int64  `json:"serverTimeEpochMs"`
}

func NewTimerService(opts TimerServiceOptions) *TimerService {
	if opts.Stores == nil {
		opts.Stores = store.MemoryFactory()
	}
	if opts.Broker == nil {
		opts.Broker = events.NewBroker()
	}
	if opts.Clock == nil {
		opts.Clock = timer.SystemClock{}
	}
	if opts.Scheduler == nil {
		opts.Scheduler = timer.NewTickerScheduler()
	}
	if opts.Location == nil {
		opts.Location = time.Local
	}
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}

	ctx, cancel := context.WithCancel(context.Background())
	return &TimerService{
		opts:   opts,
		logger: logger,
		ctx:    ctx,
		cancel: cancel,
		timers: make(map[string]*userTimer),
	}
}

func (s *TimerService) GetState(ctx context.Context, userID string) (*StateView, *apperrors.APIError) {
	t, apiErr := s.timerFor(userID)
	if apiErr != nil {
		return nil, apiErr
	}
	view := s.toStateView(t.ctrl.Snapshot())
	return &view, nil
}

func (s *TimerService) Start(ctx context.Context, userID string) (*StateView, *apperrors.APIError) {
	return s.dispatch(ctx, userID, timer.Command{Verb: timer.VerbStart})
}

func (s *TimerService) Pause(ctx context.Context, userID string) (*StateView, *apperrors.APIError) {
	return s.dispatch(ctx, userID, timer.Command{Verb: timer.VerbPause})
}

func (s *TimerService) Resume(ctx context.Context, userID string) (*StateView, *apperrors.APIError) {
	return s.dispatch(ctx, userID, timer.Command{Verb: timer.VerbResume})
}

// Reset returns the user's timer to Inactive. An empty mode or zero interval
// keeps the value from the user's settings.
func (s *TimerService) Reset(ctx context.Context, userID string, mode model.Mode, interval int) (*StateView, *apperrors.APIError) {
	if mode != "" && !mode.Valid() {
		return nil, apperrors.BadRequest("invalid_mode", "mode must be focus, shortBreak, longBreak or custom")
	}
	if interval < 0 || interval > maxIntervalMinutes {
		return nil, apperrors.BadRequest("invalid_interval", "interval must be between 1 and 180 minutes")
	}
	return s.dispatch(ctx, userID, timer.Command{Verb: timer.VerbReset, Mode: mode, Interval: interval})
}

// Reconcile is called when a client regains the foreground.
func (s *TimerService) Reconcile(ctx context.Context, userID string) (*StateView, *apperrors.APIError) {
	t, apiErr := s.timerFor(userID)
	if apiErr != nil {
		return nil, apiErr
	}
	session := t.ctrl.ReconcileAfterSuspend(ctx, s.opts.Clock.Now().UnixMilli())
	view := s.toStateView(session)
	return &view, nil
}

func (s *TimerService) Settings(ctx context.Context, userID string) (*model.AppSettings, *apperrors.APIError) {
	t, apiErr := s.timerFor(userID)
	if apiErr != nil {
		return nil, apiErr
	}
	settings := t.ctrl.Settings()
	return &settings, nil
}

func (s *TimerService) UpdateSettings(ctx context.Context, userID string, settings model.AppSettings) (*model.AppSettings, *apperrors.APIError) {
	if apiErr := validateSettings(settings); apiErr != nil {
		return nil, apiErr
	}
	t, apiErr := s.timerFor(userID)
	if apiErr != nil {
		return nil, apiErr
	}
	applied := t.ctrl.ApplySettings(ctx, settings)
	return &applied, nil
}

func (s *TimerService) Achievements(ctx context.Context, userID string) ([]model.Achievement, *apperrors.APIError) {
	t, apiErr := s.timerFor(userID)
	if apiErr != nil {
		return nil, apiErr
	}
	return t.ctrl.Achievements(), nil
}

func (s *TimerService) Statistics(ctx context.Context, userID string) (*model.Statistics, *apperrors.APIError) {
	t, apiErr := s.timerFor(userID)
	if apiErr != nil {
		return nil, apiErr
	}
	stats := t.ctrl.Statistics()
	return &stats, nil
}

// SetNotificationPermission records the user's answer to the permission
// prompt a client displayed.
func (s *TimerService) SetNotificationPermission(ctx context.Context, userID string, granted bool) *apperrors.APIError {
	t, apiErr := s.timerFor(userID)
	if apiErr != nil {
		return apiErr
	}
	permission := feedback.PermissionDenied
	if granted {
		permission = feedback.PermissionGranted
	}
	t.ctrl.SetNotificationPermission(permission)
	return nil
}

// Subscribe streams the user's events. A new subscriber counts as the client
// returning to the foreground, so the session is reconciled right after the
// subscription is registered.
func (s *TimerService) Subscribe(ctx context.Context, userID string) (<-chan events.Event, func(), *apperrors.APIError) {
	ch, unsubscribe := s.opts.Broker.Subscribe(userID)
	t, apiErr := s.timerFor(userID)
	if apiErr != nil {
		unsubscribe()
		return nil, nil, apiErr
	}
	t.visibility.Signal()
	return ch, unsubscribe, nil
}

// Shutdown stops every controller loop and waits for them to exit.
func (s *TimerService) Shutdown() {
	s.mu.Lock()
	s.closed = true
	s.mu.Unlock()

	s.cancel()
	s.wg.Wait()
}

func (s *TimerService) dispatch(ctx context.Context, userID string, cmd timer.Command) (*StateView, *apperrors.APIError) {
	t, apiErr := s.timerFor(userID)
	if apiErr != nil {
		return nil, apiErr
	}

	reply := make(chan timer.Result, 1)
	cmd.Reply = reply
	select {
	case t.commands <- cmd:
	case <-ctx.Done():
		return nil, apperrors.Unavailable("request cancelled").WithCause(ctx.Err())
	case <-s.ctx.Done():
		return nil, apperrors.Unavailable("server shutting down")
	}

	select {
	case res := <-reply:
		if res.Err != nil {
			return nil, apperrors.BadRequest("invalid_command", res.Err.Error())
		}
		view := s.toStateView(res.Session)
		return &view, nil
	case <-ctx.Done():
		return nil, apperrors.Unavailable("request cancelled").WithCause(ctx.Err())
	case <-s.ctx.Done():
		return nil, apperrors.Unavailable("server shutting down")
	}
}

// timerFor returns the user's controller, building it on first use. The
// build loads persisted records, so it runs outside s.mu; concurrent callers
// for the same user wait for the one build in flight.
func (s *TimerService) timerFor(userID string) (*userTimer, *apperrors.APIError) {
	if userID == "" {
		return nil, apperrors.Unauthorized("")
	}

	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return nil, apperrors.Unavailable("server shutting down")
	}
	if t, ok := s.timers[userID]; ok {
		s.mu.Unlock()
		<-t.ready
		if t.ctrl == nil {
			return nil, apperrors.Unavailable("server shutting down")
		}
		return t, nil
	}

	t := &userTimer{
		ready:      make(chan struct{}),
		commands:   make(chan timer.Command),
		visibility: timer.NewVisibilityBroadcaster(),
	}
	s.timers[userID] = t
	s.wg.Add(1)
	s.mu.Unlock()
	defer s.wg.Done()

	ctrl := s.newController(userID)

	s.mu.Lock()
	closed := s.closed
	if !closed {
		t.ctrl = ctrl
	}
	s.mu.Unlock()
	close(t.ready)

	if closed {
		ctrl.Close()
		return nil, apperrors.Unavailable("server shutting down")
	}

	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		_ = ctrl.Run(s.ctx, t.commands, t.visibility)
	}()

	s.logger.Debug("timer controller started", "user_id", userID)
	return t, nil
}

func (s *TimerService) newController(userID string) *timer.Controller {
	publisher := events.Scoped{Owner: userID, Next: s.opts.Broker}
	return timer.New(s.ctx, timer.Options{
		Owner:       userID,
		Clock:       s.opts.Clock,
		Scheduler:   s.opts.Scheduler,
		TickPeriod:  s.opts.TickPeriod,
		Persistence: repository.NewRecordRepository(s.opts.Stores(userID)),
		Recorder:    progress.NewRecorder(s.opts.Location),
		Sound:       feedback.EventSoundPlayer{Publisher: publisher},
		Haptics:     feedback.EventHaptics{Enabled: s.opts.HapticsSupported, Publisher: publisher},
		Notifier:    feedback.NewEventNotifier(publisher, s.opts.NotificationsSupported),
		Events:      publisher,
		Logger:      s.logger,

		ResetCountsAsAbandoned: s.opts.ResetCountsAsAbandoned,
	})
}

func (s *TimerService) toStateView(session model.TimerSession) StateView {
	return StateView{
		TimerSession:      session,
		Status:            session.Status(),
		ServerTimeEpochMs: s.opts.Clock.Now().UnixMilli(),
	}
}

func validateSettings(settings model.AppSettings) *apperrors.APIError {
	if !settings.TimerMode.Valid() {
		return apperrors.BadRequest("invalid_mode", "timerMode must be focus, shortBreak, longBreak or custom")
	}
	if settings.Interval < 1 || settings.Interval > maxIntervalMinutes {
		return apperrors.BadRequest("invalid_interval", "interval must be between 1 and 180 minutes")
	}
	if settings.SoundVolume < 0 || settings.SoundVolume > 100 {
		return apperrors.BadRequest("invalid_volume", "soundVolume must be between 0 and 100")
	}
	if settings.Theme != model.ThemeLight && settings.Theme != model.ThemeDark {
		return apperrors.BadRequest("invalid_theme", "theme must be light or dark")
	}
	if _, err := feedback.LookupSound(settings.SelectedSound); err != nil {
		return apperrors.BadRequest("invalid_sound", err.Error())
	}
	return nil
}
