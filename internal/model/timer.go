package model

type Mode string

const (
	ModeFocus      Mode = "focus"
	ModeShortBreak Mode = "shortBreak"
	ModeLongBreak  Mode = "longBreak"
	ModeCustom     Mode = "custom"
)

const (
	FocusDurationSeconds      = 25 * 60
	ShortBreakDurationSeconds = 5 * 60
	LongBreakDurationSeconds  = 15 * 60

	DefaultCustomIntervalMinutes = 15
)

func (m Mode) Valid() bool {
	switch m {
	case ModeFocus, ModeShortBreak, ModeLongBreak, ModeCustom:
		return true
	}
	return false
}

// NominalSeconds returns the length of a fresh session in mode m. The interval
// only applies to custom sessions; a non-positive interval falls back to 15
// minutes.
func NominalSeconds(m Mode, intervalMinutes int) int {
	switch m {
	case ModeFocus:
		return FocusDurationSeconds
	case ModeShortBreak:
		return ShortBreakDurationSeconds
	case ModeLongBreak:
		return LongBreakDurationSeconds
	case ModeCustom:
		if intervalMinutes > 0 {
			return intervalMinutes * 60
		}
		return DefaultCustomIntervalMinutes * 60
	default:
		return DefaultCustomIntervalMinutes * 60
	}
}

// TimerSession is the persisted "timerState" record. Timestamps are epoch
// milliseconds so the stored shape round-trips without timezone handling.
type TimerSession struct {
	Mode             Mode   `json:"mode"`
	IntervalMinutes  int    `json:"intervalMinutes"`
	IsActive         bool   `json:"isActive"`
	IsPaused         bool   `json:"isPaused"`
	TimeLeftSeconds  int    `json:"timeLeftSeconds"`
	StartedAtEpochMs *int64 `json:"startedAtEpochMs"`
	DeadlineEpochMs  *int64 `json:"deadlineEpochMs"`
	IsBlinking       bool   `json:"isBlinking"`
}

func NewTimerSession(mode Mode, intervalMinutes int) TimerSession {
	return TimerSession{
		Mode:            mode,
		IntervalMinutes: intervalMinutes,
		TimeLeftSeconds: NominalSeconds(mode, intervalMinutes),
	}
}

func (s TimerSession) Running() bool {
	return s.IsActive && !s.IsPaused && s.DeadlineEpochMs != nil
}

func (s TimerSession) Status() string {
	switch {
	case s.Running():
		return StatusRunning
	case s.IsActive && s.IsPaused:
		return StatusPaused
	case s.IsBlinking:
		return StatusCompleted
	default:
		return StatusInactive
	}
}

const (
	StatusInactive  = "inactive"
	StatusRunning   = "running"
	StatusPaused    = "paused"
	StatusCompleted = "completed"
)

// Clone returns a copy that shares no pointers with s.
func (s TimerSession) Clone() TimerSession {
	out := s
	if s.StartedAtEpochMs != nil {
		v := *s.StartedAtEpochMs
		out.StartedAtEpochMs = &v
	}
	if s.DeadlineEpochMs != nil {
		v := *s.DeadlineEpochMs
		out.DeadlineEpochMs = &v
	}
	return out
}
