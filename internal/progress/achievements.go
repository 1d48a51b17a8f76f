// Package progress holds the accumulators updated when a session completes:
// achievement progress and aggregate statistics.
package progress

import (
	"slices"
	"strings"
	"time"

	"github.com/themattbirch/screen-time-guardian/internal/model"
)

const (
	AchievementFirstSession   = "first-session"
	AchievementTenSessions    = "ten-sessions"
	AchievementLongStreak     = "long-streak"
	AchievementEarlyBird      = "early-bird"
	AchievementDifferentModes = "different-modes"
	AchievementFullHour       = "full-hour"
	AchievementWeekendWarrior = "weekend-warrior"
)

const earlyBirdHour = 9

func Catalog() []model.Achievement {
	return []model.Achievement{
		{ID: AchievementFirstSession, Name: "First Session", Description: "Complete your first mindful browsing session.", Icon: "🎉", Target: 1},
		{ID: AchievementTenSessions, Name: "Consistent Practitioner", Description: "Complete 10 mindful browsing sessions.", Icon: "🏆", Target: 10},
		{ID: AchievementLongStreak, Name: "Steadfast Focus", Description: "Maintain a daily streak for 7 days.", Icon: "🔥", Target: 7},
		{ID: AchievementEarlyBird, Name: "Early Bird", Description: "Complete a session before 9 AM.", Icon: "🌅", Target: 1},
		{ID: AchievementDifferentModes, Name: "Mode Explorer", Description: "Try all timer modes (Focus, Short Break, Long Break).", Icon: "🔄", Target: 3},
		{ID: AchievementFullHour, Name: "Deep Dive", Description: "Complete a 60-minute focus session.", Icon: "⏱️", Target: 1},
		{ID: AchievementWeekendWarrior, Name: "Weekend Warrior", Description: "Complete sessions on both Saturday and Sunday.", Icon: "🌟", Target: 2},
	}
}

// MergeCatalog returns the catalog with stored progress applied. Stored
// entries that are no longer in the catalog are dropped.
func MergeCatalog(stored []model.Achievement) []model.Achievement {
	byID := make(map[string]model.Achievement, len(stored))
	for _, a := range stored {
		byID[a.ID] = a
	}

	merged := Catalog()
	for i, def := range merged {
		prev, ok := byID[def.ID]
		if !ok {
			continue
		}
		merged[i].Progress = min(max(prev.Progress, 0), def.Target)
		merged[i].UnlockedAt = prev.UnlockedAt
		merged[i].Seen = slices.Clone(prev.Seen)
	}
	return merged
}

// Completion describes a finished session as seen by the accumulators.
type Completion struct {
	Mode    model.Mode
	Minutes int
	At      time.Time
	Streak  int
}

// Advance applies c to every matching achievement and returns a new slice.
func Advance(achievements []model.Achievement, c Completion) []model.Achievement {
	out := make([]model.Achievement, len(achievements))
	for i, a := range achievements {
		a.Seen = slices.Clone(a.Seen)
		switch a.ID {
		case AchievementFirstSession, AchievementTenSessions:
			a.Progress++
		case AchievementLongStreak:
			a.Progress = max(a.Progress, c.Streak)
		case AchievementEarlyBird:
			if c.At.Hour() < earlyBirdHour {
				a.Progress++
			}
		case AchievementDifferentModes:
			if c.Mode != model.ModeCustom {
				a.Seen = addSeen(a.Seen, string(c.Mode))
				a.Progress = len(a.Seen)
			}
		case AchievementFullHour:
			if c.Minutes >= 60 {
				a.Progress++
			}
		case AchievementWeekendWarrior:
			if day := c.At.Weekday(); day == time.Saturday || day == time.Sunday {
				a.Seen = addSeen(a.Seen, strings.ToLower(day.String()))
				a.Progress = len(a.Seen)
			}
		}

		a.Progress = min(a.Progress, a.Target)
		if a.UnlockedAt == nil && a.Progress >= a.Target {
			stamp := c.At.UTC().Format(time.RFC3339)
			a.UnlockedAt = &stamp
		}
		out[i] = a
	}
	return out
}

func addSeen(seen []string, value string) []string {
	if slices.Contains(seen, value) {
		return seen
	}
	return append(seen, value)
}
