package repository

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/themattbirch/screen-time-guardian/internal/model"
	"github.com/themattbirch/screen-time-guardian/internal/store"
)

// Records is everything persisted for one user. Nil pointers mean the key was
// absent from the store.
type Records struct {
	Settings     *model.AppSettings
	TimerState   *model.TimerSession
	Achievements []model.Achievement
	Statistics   *model.Statistics
}

// RecordRepository maps the typed records onto the key-value store. Each
// record is an independent key; there is no coupling between writes.
type RecordRepository struct {
	store store.Store
}

func NewRecordRepository(s store.Store) *RecordRepository {
	return &RecordRepository{store: s}
}

func (r *RecordRepository) Load(ctx context.Context) (*Records, error) {
	raw, err := r.store.Get(ctx, []string{
		store.KeySettings,
		store.KeyTimerState,
		store.KeyAchievements,
		store.KeyStatistics,
	})
	if err != nil {
		return nil, fmt.Errorf("load records: %w", err)
	}

	records := &Records{}
	if value, ok := raw[store.KeySettings]; ok {
		var settings model.AppSettings
		if err := json.Unmarshal(value, &settings); err != nil {
			return nil, fmt.Errorf("decode %s: %w", store.KeySettings, err)
		}
		records.Settings = &settings
	}
	if value, ok := raw[store.KeyTimerState]; ok {
		var session model.TimerSession
		if err := json.Unmarshal(value, &session); err != nil {
			return nil, fmt.Errorf("decode %s: %w", store.KeyTimerState, err)
		}
		records.TimerState = &session
	}
	if value, ok := raw[store.KeyAchievements]; ok {
		if err := json.Unmarshal(value, &records.Achievements); err != nil {
			return nil, fmt.Errorf("decode %s: %w", store.KeyAchievements, err)
		}
	}
	if value, ok := raw[store.KeyStatistics]; ok {
		var stats model.Statistics
		if err := json.Unmarshal(value, &stats); err != nil {
			return nil, fmt.Errorf("decode %s: %w", store.KeyStatistics, err)
		}
		records.Statistics = &stats
	}
	return records, nil
}

func (r *RecordRepository) SaveSettings(ctx context.Context, settings model.AppSettings) error {
	return r.put(ctx, store.KeySettings, settings)
}

func (r *RecordRepository) SaveTimerState(ctx context.Context, session model.TimerSession) error {
	return r.put(ctx, store.KeyTimerState, session)
}

func (r *RecordRepository) SaveAchievements(ctx context.Context, achievements []model.Achievement) error {
	return r.put(ctx, store.KeyAchievements, achievements)
}

func (r *RecordRepository) SaveStatistics(ctx context.Context, stats model.Statistics) error {
	return r.put(ctx, store.KeyStatistics, stats)
}

func (r *RecordRepository) put(ctx context.Context, key string, value interface{}) error {
	encoded, err := json.Marshal(value)
	if err != nil {
		return fmt.Errorf("encode %s: %w", key, err)
	}
	if err := r.store.Put(ctx, map[string][]byte{key: encoded}); err != nil {
		return fmt.Errorf("save %s: %w", key, err)
	}
	return nil
}
