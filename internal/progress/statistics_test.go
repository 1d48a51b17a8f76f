package progress

import (
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/themattbirch/screen-time-guardian/internal/model"
)

func newTestRecorder() *Recorder {
	n := 0
	r := NewRecorder(time.UTC)
	r.NewID = func() string {
		n++
		return fmt.Sprintf("rec-%d", n)
	}
	return r
}

func TestRecordCompletion_StreakFromYesterday(t *testing.T) {
	r := newTestRecorder()
	now := time.Date(2026, 5, 12, 14, 0, 0, 0, time.UTC)
	stats := model.Statistics{DailyStreak: 3, BestStreak: 3, LastSessionDate: "2026-05-11"}

	stats = r.RecordCompletion(stats, model.ModeFocus, 25, now)
	assert.Equal(t, 4, stats.DailyStreak)
	assert.Equal(t, 4, stats.BestStreak)
	assert.Equal(t, "2026-05-12", stats.LastSessionDate)

	stats = r.RecordCompletion(stats, model.ModeShortBreak, 5, now.Add(time.Hour))
	assert.Equal(t, 4, stats.DailyStreak)
	assert.Equal(t, 4, stats.BestStreak)
}

func TestRecordCompletion_BestStreakKeptWhenNotExceeded(t *testing.T) {
	r := newTestRecorder()
	now := time.Date(2026, 5, 12, 14, 0, 0, 0, time.UTC)
	stats := model.Statistics{DailyStreak: 2, BestStreak: 9, LastSessionDate: "2026-05-11"}

	stats = r.RecordCompletion(stats, model.ModeFocus, 25, now)
	assert.Equal(t, 3, stats.DailyStreak)
	assert.Equal(t, 9, stats.BestStreak)
}

func TestRecordCompletion_GapResetsStreak(t *testing.T) {
	r := newTestRecorder()
	now := time.Date(2026, 5, 12, 14, 0, 0, 0, time.UTC)
	stats := model.Statistics{DailyStreak: 6, BestStreak: 6, LastSessionDate: "2026-05-09"}

	stats = r.RecordCompletion(stats, model.ModeFocus, 25, now)
	assert.Equal(t, 1, stats.DailyStreak)
	assert.Equal(t, 6, stats.BestStreak)
}

func TestRecordCompletion_StreakUsesLocation(t *testing.T) {
	loc := time.FixedZone("UTC-8", -8*60*60)
	r := newTestRecorder()
	r.Location = loc

	// 03:00 UTC on the 12th is still the 11th in UTC-8.
	now := time.Date(2026, 5, 12, 3, 0, 0, 0, time.UTC)
	stats := r.RecordCompletion(model.Statistics{LastSessionDate: "2026-05-10", DailyStreak: 1}, model.ModeFocus, 25, now)
	assert.Equal(t, "2026-05-11", stats.LastSessionDate)
	assert.Equal(t, 2, stats.DailyStreak)
}

func TestRecordCompletion_TotalsAndHistory(t *testing.T) {
	r := newTestRecorder()
	r.HistoryLimit = 3
	start := time.Date(2026, 5, 1, 10, 0, 0, 0, time.UTC)

	var stats model.Statistics
	for i := 0; i < 5; i++ {
		stats = r.RecordCompletion(stats, model.ModeFocus, 10*(i+1), start.Add(time.Duration(i)*time.Hour))
	}

	assert.Equal(t, 5, stats.TotalSessions)
	assert.Equal(t, 150, stats.TotalMinutes)
	assert.InDelta(t, 30.0, stats.AverageSessionDuration, 0.001)
	require.Len(t, stats.SessionHistory, 3)
	assert.Equal(t, "rec-5", stats.SessionHistory[0].ID)
	assert.Equal(t, 50, stats.SessionHistory[0].DurationMinutes)
	assert.Equal(t, "rec-3", stats.SessionHistory[2].ID)
	assert.Equal(t, 100, stats.CompletionRate)
}

func TestRecordCompletion_DefaultHistoryCap(t *testing.T) {
	r := newTestRecorder()
	now := time.Date(2026, 5, 1, 10, 0, 0, 0, time.UTC)

	var stats model.Statistics
	for i := 0; i < DefaultHistoryLimit+7; i++ {
		stats = r.RecordCompletion(stats, model.ModeShortBreak, 5, now)
	}
	assert.Len(t, stats.SessionHistory, DefaultHistoryLimit)
	assert.Equal(t, DefaultHistoryLimit+7, stats.TotalSessions)
}

func TestRecordCompletion_WeeklyAndMonthlyMinutes(t *testing.T) {
	r := newTestRecorder()
	now := time.Date(2026, 5, 31, 10, 0, 0, 0, time.UTC)
	stats := model.Statistics{
		SessionHistory: []model.SessionRecord{
			{ID: "a", CompletedAtMs: now.AddDate(0, 0, -3).UnixMilli(), DurationMinutes: 25},
			{ID: "b", CompletedAtMs: now.AddDate(0, 0, -20).UnixMilli(), DurationMinutes: 15},
			{ID: "c", CompletedAtMs: now.AddDate(0, 0, -45).UnixMilli(), DurationMinutes: 60},
		},
	}

	stats = r.RecordCompletion(stats, model.ModeFocus, 25, now)
	assert.Equal(t, 50, stats.WeeklyMinutes)
	assert.Equal(t, 65, stats.MonthlyMinutes)
}

func TestRecordReset_CompletionRate(t *testing.T) {
	r := newTestRecorder()
	stats := model.Statistics{TotalSessions: 3}

	stats = r.RecordReset(stats)
	assert.Equal(t, 1, stats.ResetSessions)
	assert.Equal(t, 75, stats.CompletionRate)

	assert.Equal(t, 0, r.RecordReset(model.Statistics{}).CompletionRate)
}
