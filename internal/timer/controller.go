// Package timer implements the timer session controller: the focus/break
// state machine, deadline based remaining time, and recovery after the host
// stopped delivering ticks.
package timer

import (
	"context"
	"log/slog"
	"slices"
	"sync"
	"time"

	"github.com/themattbirch/screen-time-guardian/internal/events"
	"github.com/themattbirch/screen-time-guardian/internal/feedback"
	"github.com/themattbirch/screen-time-guardian/internal/model"
	"github.com/themattbirch/screen-time-guardian/internal/progress"
	"github.com/themattbirch/screen-time-guardian/internal/repository"
)

const (
	DefaultTickPeriod = time.Second

	notificationTitle = "Screen Time Guardian"
	completionMessage = "Time is up!"
)

// Persistence is the subset of the record repository the controller writes
// through. Failures are logged and otherwise ignored.
type Persistence interface {
	Load(ctx context.Context) (*repository.Records, error)
	SaveSettings(ctx context.Context, settings model.AppSettings) error
	SaveTimerState(ctx context.Context, session model.TimerSession) error
	SaveAchievements(ctx context.Context, achievements []model.Achievement) error
	SaveStatistics(ctx context.Context, stats model.Statistics) error
}

type Options struct {
	Owner       string
	Clock       Clock
	Scheduler   Scheduler
	TickPeriod  time.Duration
	Persistence Persistence
	Recorder    *progress.Recorder
	Sound       feedback.SoundPlayer
	Haptics     feedback.Haptics
	Notifier    feedback.Notifier
	Events      events.Publisher
	Logger      *slog.Logger

	// ResetCountsAsAbandoned records a reset of an active session in the
	// statistics and publishes a session_reset event.
	ResetCountsAsAbandoned bool
}

type Controller struct {
	opts   Options
	logger *slog.Logger

	mu           sync.Mutex
	session      model.TimerSession
	settings     model.AppSettings
	achievements []model.Achievement
	stats        model.Statistics
	tick         *Handle
}

// completion carries what the post-unlock side effects need.
type completion struct {
	mode     model.Mode
	minutes  int
	settings model.AppSettings
}

// New builds a controller from the persisted records and reconciles the
// stored session against the current time. A failed load starts from
// defaults.
func New(ctx context.Context, opts Options) *Controller {
	if opts.Clock == nil {
		opts.Clock = SystemClock{}
	}
	if opts.Scheduler == nil {
		opts.Scheduler = NewTickerScheduler()
	}
	if opts.TickPeriod <= 0 {
		opts.TickPeriod = DefaultTickPeriod
	}
	if opts.Recorder == nil {
		opts.Recorder = progress.NewRecorder(time.Local)
	}
	if opts.Events == nil {
		opts.Events = events.Discard{}
	}
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}
	logger = logger.With("owner", opts.Owner)

	c := &Controller{
		opts:     opts,
		logger:   logger,
		settings: model.DefaultSettings(),
	}

	records := &repository.Records{}
	if opts.Persistence != nil {
		loaded, err := opts.Persistence.Load(ctx)
		if err != nil {
			logger.Warn("load records failed, using defaults", "error", err)
		} else {
			records = loaded
		}
	}

	if records.Settings != nil {
		c.settings = normalizeSettings(*records.Settings, c.settings)
	}
	c.achievements = progress.MergeCatalog(records.Achievements)
	if records.Statistics != nil {
		c.stats = *records.Statistics
	}
	if records.TimerState != nil {
		c.session = normalizeSession(*records.TimerState)
	} else {
		c.session = model.NewTimerSession(c.settings.TimerMode, c.settings.Interval)
	}

	c.requestNotificationPermission(ctx)
	c.ReconcileAfterSuspend(ctx, c.nowMs())
	return c
}

// Start begins a session from Inactive, or re-arms a running one from its
// current remaining time.
func (c *Controller) Start(ctx context.Context) model.TimerSession {
	c.mu.Lock()
	now := c.nowMs()
	s := &c.session

	if s.Running() {
		remaining := remainingSeconds(*s.DeadlineEpochMs, now)
		if remaining <= 0 {
			done := c.completeLocked(ctx, now)
			return c.unlockAndFinish(ctx, done)
		}
		s.TimeLeftSeconds = remaining
	} else if !s.IsActive && s.TimeLeftSeconds <= 0 {
		s.TimeLeftSeconds = model.NominalSeconds(s.Mode, s.IntervalMinutes)
		s.IsBlinking = false
	}

	deadline := now + int64(s.TimeLeftSeconds)*1000
	s.StartedAtEpochMs = &now
	s.DeadlineEpochMs = &deadline
	s.IsActive = true
	s.IsPaused = false

	c.startTickingLocked()
	c.saveSessionLocked(ctx)
	return c.unlockAndFinish(ctx, nil)
}

// Resume continues a paused session. It shares Start's semantics.
func (c *Controller) Resume(ctx context.Context) model.TimerSession {
	return c.Start(ctx)
}

// Pause freezes the whole seconds left and drops the deadline. It is a no-op
// unless the session is running.
func (c *Controller) Pause(ctx context.Context) model.TimerSession {
	c.mu.Lock()
	now := c.nowMs()
	s := &c.session

	if !s.Running() {
		return c.unlockAndFinish(ctx, nil)
	}

	remaining := remainingSeconds(*s.DeadlineEpochMs, now)
	if remaining <= 0 {
		done := c.completeLocked(ctx, now)
		return c.unlockAndFinish(ctx, done)
	}

	s.TimeLeftSeconds = remaining
	s.IsPaused = true
	s.DeadlineEpochMs = nil

	c.stopTickingLocked()
	c.saveSessionLocked(ctx)
	return c.unlockAndFinish(ctx, nil)
}

// Reset returns to Inactive with the nominal duration of mode. An empty mode
// or non-positive interval falls back to the current settings.
func (c *Controller) Reset(ctx context.Context, mode model.Mode, intervalMinutes int) model.TimerSession {
	c.mu.Lock()
	if !mode.Valid() {
		mode = c.settings.TimerMode
	}
	if intervalMinutes <= 0 {
		intervalMinutes = c.settings.Interval
	}

	abandoned := c.session.IsActive
	c.session = model.NewTimerSession(mode, intervalMinutes)
	c.stopTickingLocked()
	c.saveSessionLocked(ctx)

	if abandoned && c.opts.ResetCountsAsAbandoned {
		c.stats = c.opts.Recorder.RecordReset(c.stats)
		c.saveStatisticsLocked(ctx)
		c.opts.Events.Publish(events.Event{
			Type: events.TypeSessionReset,
			Data: map[string]interface{}{"mode": string(mode)},
		})
	}
	return c.unlockAndFinish(ctx, nil)
}

// Tick derives the remaining time from the deadline. It completes the session
// once no whole second is left and does nothing unless the session is
// running.
func (c *Controller) Tick(ctx context.Context, nowMs int64) model.TimerSession {
	c.mu.Lock()
	done := c.tickLocked(ctx, nowMs)
	return c.unlockAndFinish(ctx, done)
}

// ReconcileAfterSuspend brings a running session up to date after ticks were
// missed. Paused and inactive sessions are left untouched apart from
// resuming tick delivery for a running session restored from storage.
func (c *Controller) ReconcileAfterSuspend(ctx context.Context, nowMs int64) model.TimerSession {
	c.mu.Lock()
	if c.session.DeadlineEpochMs == nil {
		return c.unlockAndFinish(ctx, nil)
	}

	done := c.tickLocked(ctx, nowMs)
	if done == nil {
		c.startTickingLocked()
	}
	return c.unlockAndFinish(ctx, done)
}

// Complete finishes the active session immediately. It is a no-op when no
// session is active.
func (c *Controller) Complete(ctx context.Context) model.TimerSession {
	c.mu.Lock()
	if !c.session.IsActive {
		return c.unlockAndFinish(ctx, nil)
	}
	done := c.completeLocked(ctx, c.nowMs())
	return c.unlockAndFinish(ctx, done)
}

// ApplySettings replaces the settings record. A mode or interval change only
// reaches the session while it is inactive.
func (c *Controller) ApplySettings(ctx context.Context, settings model.AppSettings) model.AppSettings {
	c.mu.Lock()
	c.settings = normalizeSettings(settings, c.settings)
	c.saveSettingsLocked(ctx)

	s := &c.session
	if !s.IsActive && (s.Mode != c.settings.TimerMode || s.IntervalMinutes != c.settings.Interval) {
		c.session = model.NewTimerSession(c.settings.TimerMode, c.settings.Interval)
		c.saveSessionLocked(ctx)
	}
	applied := c.settings
	c.unlockAndFinish(ctx, nil)

	c.requestNotificationPermission(ctx)
	return applied
}

// SetNotificationPermission records the answer a client got from the user.
func (c *Controller) SetNotificationPermission(p feedback.Permission) {
	if c.opts.Notifier != nil {
		c.opts.Notifier.SetPermission(p)
	}
}

func (c *Controller) Snapshot() model.TimerSession {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.session.Clone()
}

func (c *Controller) Settings() model.AppSettings {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.settings
}

func (c *Controller) Achievements() []model.Achievement {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := make([]model.Achievement, len(c.achievements))
	for i, a := range c.achievements {
		a.Seen = slices.Clone(a.Seen)
		out[i] = a
	}
	return out
}

func (c *Controller) Statistics() model.Statistics {
	c.mu.Lock()
	defer c.mu.Unlock()
	stats := c.stats
	stats.SessionHistory = slices.Clone(c.stats.SessionHistory)
	return stats
}

// Close stops tick delivery.
func (c *Controller) Close() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.stopTickingLocked()
}

func (c *Controller) tickLocked(ctx context.Context, nowMs int64) *completion {
	s := &c.session
	if !s.Running() {
		return nil
	}

	remaining := remainingSeconds(*s.DeadlineEpochMs, nowMs)
	if remaining <= 0 {
		return c.completeLocked(ctx, nowMs)
	}
	if remaining != s.TimeLeftSeconds {
		s.TimeLeftSeconds = remaining
		c.saveSessionLocked(ctx)
	}
	return nil
}

// completeLocked moves the session to Completed and folds it into the
// accumulators. Effects that leave the process run after the lock is
// released. The recorded minutes are the time actually spent, so a session
// completed early does not count its full length.
func (c *Controller) completeLocked(ctx context.Context, nowMs int64) *completion {
	s := &c.session
	mode := s.Mode
	left := s.TimeLeftSeconds
	if s.Running() {
		left = remainingSeconds(*s.DeadlineEpochMs, nowMs)
	}
	used := model.NominalSeconds(s.Mode, s.IntervalMinutes) - left
	if used < 0 {
		used = 0
	}
	minutes := used / 60

	s.IsActive = false
	s.IsPaused = false
	s.TimeLeftSeconds = 0
	s.IsBlinking = true
	s.DeadlineEpochMs = nil
	c.stopTickingLocked()
	c.saveSessionLocked(ctx)

	at := time.UnixMilli(nowMs).In(c.opts.Recorder.Location)
	c.stats = c.opts.Recorder.RecordCompletion(c.stats, mode, minutes, at)
	c.achievements = progress.Advance(c.achievements, progress.Completion{
		Mode:    mode,
		Minutes: minutes,
		At:      at,
		Streak:  c.stats.DailyStreak,
	})
	c.saveAchievementsLocked(ctx)
	c.saveStatisticsLocked(ctx)

	c.logger.Info("session completed", "mode", mode, "minutes", minutes)
	return &completion{mode: mode, minutes: minutes, settings: c.settings}
}

// unlockAndFinish releases the lock taken by the caller, then publishes the
// new state and runs completion side effects in order. Each effect may fail
// on its own without affecting the others.
func (c *Controller) unlockAndFinish(ctx context.Context, done *completion) model.TimerSession {
	session := c.session.Clone()
	c.mu.Unlock()

	if done != nil {
		c.runCompletionEffects(ctx, done)
	}
	c.opts.Events.Publish(events.Event{
		Type: events.TypeStateChanged,
		Data: map[string]interface{}{"state": session, "status": session.Status()},
	})
	return session
}

func (c *Controller) runCompletionEffects(ctx context.Context, done *completion) {
	if done.settings.SoundEnabled && c.opts.Sound != nil {
		if err := c.opts.Sound.Play(ctx, done.settings.SelectedSound, done.settings.SoundVolume); err != nil {
			c.logger.Warn("play completion sound failed", "sound", done.settings.SelectedSound, "error", err)
		}
	}

	if c.opts.Haptics != nil && c.opts.Haptics.Supported() {
		if err := c.opts.Haptics.Vibrate(ctx, feedback.PulseDuration); err != nil {
			c.logger.Warn("haptic pulse failed", "error", err)
		}
	}

	if c.opts.Notifier != nil {
		if c.opts.Notifier.Permission() == feedback.PermissionGranted {
			if err := c.opts.Notifier.Notify(ctx, notificationTitle, completionMessage); err != nil {
				c.logger.Warn("notification failed", "error", err)
			}
		} else if err := c.opts.Notifier.Toast(ctx, completionMessage); err != nil {
			c.logger.Warn("toast failed", "error", err)
		}
	}

	c.opts.Events.Publish(events.Event{
		Type: events.TypeSessionCompleted,
		Data: map[string]interface{}{"mode": string(done.mode), "minutes": done.minutes},
	})
}

func (c *Controller) requestNotificationPermission(ctx context.Context) {
	if c.opts.Notifier == nil || !c.Settings().SoundEnabled {
		return
	}
	if c.opts.Notifier.Permission() != feedback.PermissionDefault {
		return
	}
	if _, err := c.opts.Notifier.RequestPermission(ctx); err != nil {
		c.logger.Warn("request notification permission failed", "error", err)
	}
}

func (c *Controller) startTickingLocked() {
	if c.tick != nil {
		return
	}
	h := c.opts.Scheduler.ScheduleRepeating(func() {
		c.Tick(context.Background(), c.nowMs())
	}, c.opts.TickPeriod)
	c.tick = &h
}

func (c *Controller) stopTickingLocked() {
	if c.tick == nil {
		return
	}
	c.opts.Scheduler.Cancel(*c.tick)
	c.tick = nil
}

func (c *Controller) saveSessionLocked(ctx context.Context) {
	if c.opts.Persistence == nil {
		return
	}
	if err := c.opts.Persistence.SaveTimerState(ctx, c.session.Clone()); err != nil {
		c.logger.Warn("persist timer state failed", "error", err)
	}
}

func (c *Controller) saveSettingsLocked(ctx context.Context) {
	if c.opts.Persistence == nil {
		return
	}
	if err := c.opts.Persistence.SaveSettings(ctx, c.settings); err != nil {
		c.logger.Warn("persist settings failed", "error", err)
	}
}

func (c *Controller) saveAchievementsLocked(ctx context.Context) {
	if c.opts.Persistence == nil {
		return
	}
	if err := c.opts.Persistence.SaveAchievements(ctx, c.achievements); err != nil {
		c.logger.Warn("persist achievements failed", "error", err)
	}
}

func (c *Controller) saveStatisticsLocked(ctx context.Context) {
	if c.opts.Persistence == nil {
		return
	}
	if err := c.opts.Persistence.SaveStatistics(ctx, c.stats); err != nil {
		c.logger.Warn("persist statistics failed", "error", err)
	}
}

func (c *Controller) nowMs() int64 {
	return c.opts.Clock.Now().UnixMilli()
}

// remainingSeconds is max(0, floor((deadline-now)/1000)).
func remainingSeconds(deadlineMs, nowMs int64) int {
	diff := deadlineMs - nowMs
	if diff <= 0 {
		return 0
	}
	return int(diff / 1000)
}
