package progress

import (
	"math"
	"slices"
	"time"

	"github.com/google/uuid"

	"github.com/themattbirch/screen-time-guardian/internal/model"
)

const (
	DefaultHistoryLimit = 100

	dateLayout = "2006-01-02"
)

// Recorder folds completed and reset sessions into model.Statistics. Dates
// are evaluated in Location.
type Recorder struct {
	Location     *time.Location
	HistoryLimit int
	NewID        func() string
}

func NewRecorder(loc *time.Location) *Recorder {
	if loc == nil {
		loc = time.Local
	}
	return &Recorder{
		Location:     loc,
		HistoryLimit: DefaultHistoryLimit,
		NewID:        uuid.NewString,
	}
}

// RecordCompletion returns stats with one more completed session of the
// given mode and length at now.
func (r *Recorder) RecordCompletion(stats model.Statistics, mode model.Mode, minutes int, now time.Time) model.Statistics {
	local := now.In(r.Location)
	today := local.Format(dateLayout)
	yesterday := local.AddDate(0, 0, -1).Format(dateLayout)

	switch stats.LastSessionDate {
	case today:
		if stats.DailyStreak == 0 {
			stats.DailyStreak = 1
		}
	case yesterday:
		stats.DailyStreak++
	default:
		stats.DailyStreak = 1
	}
	stats.LastSessionDate = today
	stats.BestStreak = max(stats.BestStreak, stats.DailyStreak)

	stats.TotalSessions++
	stats.TotalMinutes += minutes
	stats.AverageSessionDuration = float64(stats.TotalMinutes) / float64(stats.TotalSessions)

	record := model.SessionRecord{
		ID:              r.NewID(),
		Date:            today,
		CompletedAtMs:   now.UnixMilli(),
		DurationMinutes: minutes,
		Mode:            mode,
	}
	history := make([]model.SessionRecord, 0, len(stats.SessionHistory)+1)
	history = append(history, record)
	history = append(history, stats.SessionHistory...)
	if limit := r.limit(); len(history) > limit {
		history = history[:limit]
	}
	stats.SessionHistory = history

	stats.CompletionRate = completionRate(stats)
	stats.WeeklyMinutes = minutesSince(history, now.AddDate(0, 0, -7))
	stats.MonthlyMinutes = minutesSince(history, now.AddDate(0, 0, -30))
	return stats
}

// RecordReset counts a session abandoned before completion.
func (r *Recorder) RecordReset(stats model.Statistics) model.Statistics {
	stats.ResetSessions++
	stats.CompletionRate = completionRate(stats)
	stats.SessionHistory = slices.Clone(stats.SessionHistory)
	return stats
}

func (r *Recorder) limit() int {
	if r.HistoryLimit <= 0 {
		return DefaultHistoryLimit
	}
	return r.HistoryLimit
}

func completionRate(stats model.Statistics) int {
	attempts := stats.TotalSessions + stats.ResetSessions
	if attempts == 0 {
		return 0
	}
	return int(math.Round(float64(stats.TotalSessions) * 100 / float64(attempts)))
}

func minutesSince(history []model.SessionRecord, since time.Time) int {
	cutoff := since.UnixMilli()
	total := 0
	for _, rec := range history {
		if rec.CompletedAtMs >= cutoff {
			total += rec.DurationMinutes
		}
	}
	return total
}
