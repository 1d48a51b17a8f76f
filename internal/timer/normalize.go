package timer

import (
	"github.com/themattbirch/screen-time-guardian/internal/feedback"
	"github.com/themattbirch/screen-time-guardian/internal/model"
)

// normalizeSession repairs a stored session that breaks the state invariants:
// inactive and paused sessions carry no deadline, and an active session
// without a deadline is treated as paused.
func normalizeSession(s model.TimerSession) model.TimerSession {
	s = s.Clone()
	if !s.Mode.Valid() {
		s.Mode = model.ModeFocus
	}
	if s.TimeLeftSeconds < 0 {
		s.TimeLeftSeconds = 0
	}

	switch {
	case !s.IsActive:
		s.IsPaused = false
		s.DeadlineEpochMs = nil
	case s.IsPaused:
		s.DeadlineEpochMs = nil
	case s.DeadlineEpochMs == nil:
		s.IsPaused = true
	}
	return s
}

func normalizeSettings(next, prev model.AppSettings) model.AppSettings {
	if !next.TimerMode.Valid() {
		next.TimerMode = prev.TimerMode
		if !next.TimerMode.Valid() {
			next.TimerMode = model.ModeFocus
		}
	}
	if next.Interval <= 0 {
		next.Interval = prev.Interval
		if next.Interval <= 0 {
			next.Interval = model.DefaultCustomIntervalMinutes
		}
	}
	if next.Theme != model.ThemeDark {
		next.Theme = model.ThemeLight
	}
	next.SoundVolume = feedback.ClampVolume(next.SoundVolume)
	return next
}
