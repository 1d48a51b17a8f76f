package model

type Theme string

const (
	ThemeLight Theme = "light"
	ThemeDark  Theme = "dark"
)

// AppSettings is the persisted "appSettings" record.
type AppSettings struct {
	Interval            int    `json:"interval"`
	SoundEnabled        bool   `json:"soundEnabled"`
	Theme               Theme  `json:"theme"`
	SoundVolume         int    `json:"soundVolume"`
	AutoStartTimer      bool   `json:"autoStartTimer"`
	ShowQuotes          bool   `json:"showQuotes"`
	QuoteChangeInterval int    `json:"quoteChangeInterval"`
	SelectedSound       string `json:"selectedSound"`
	TimerMode           Mode   `json:"timerMode"`
	QuoteCategory       string `json:"quoteCategory"`
	MinimalMode         bool   `json:"minimalMode"`
}

func DefaultSettings() AppSettings {
	return AppSettings{
		Interval:            DefaultCustomIntervalMinutes,
		SoundEnabled:        true,
		Theme:               ThemeLight,
		SoundVolume:         50,
		ShowQuotes:          true,
		QuoteChangeInterval: 60,
		SelectedSound:       "gentle-bell",
		TimerMode:           ModeFocus,
		QuoteCategory:       "all",
	}
}
