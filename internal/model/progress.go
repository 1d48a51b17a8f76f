package model

type Achievement struct {
	ID          string   `json:"id"`
	Name        string   `json:"name"`
	Description string   `json:"description"`
	Icon        string   `json:"icon"`
	Progress    int      `json:"progress"`
	Target      int      `json:"target"`
	UnlockedAt  *string  `json:"unlockedAt"`
	Seen        []string `json:"seen,omitempty"`
}

func (a Achievement) Unlocked() bool {
	return a.UnlockedAt != nil
}

// SessionRecord is one completed session in the statistics history.
type SessionRecord struct {
	ID              string `json:"id"`
	Date            string `json:"date"`
	CompletedAtMs   int64  `json:"completedAtEpochMs"`
	DurationMinutes int    `json:"duration"`
	Mode            Mode   `json:"mode"`
}

type Statistics struct {
	TotalSessions          int             `json:"totalSessions"`
	TotalMinutes           int             `json:"totalMinutes"`
	DailyStreak            int             `json:"dailyStreak"`
	BestStreak             int             `json:"bestStreak"`
	LastSessionDate        string          `json:"lastSessionDate"`
	AverageSessionDuration float64         `json:"averageSessionDuration"`
	CompletionRate         int             `json:"completionRate"`
	ResetSessions          int             `json:"resetSessions"`
	WeeklyMinutes          int             `json:"weeklyMinutes"`
	MonthlyMinutes         int             `json:"monthlyMinutes"`
	SessionHistory         []SessionRecord `json:"sessionHistory"`
}
