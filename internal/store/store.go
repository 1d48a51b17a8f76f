// Package store defines the key-value persistence contract the timer core
// depends on, together with its SQLite and in-memory backends.
package store

import (
	"context"
	"errors"
)

const (
	KeySettings     = "appSettings"
	KeyTimerState   = "timerState"
	KeyAchievements = "achievements"
	KeyStatistics   = "statistics"
)

var ErrClosed = errors.New("store closed")

// Store is a generic key-value store. Get returns only the keys that exist;
// a missing key is never an error. Put upserts every entry.
type Store interface {
	Get(ctx context.Context, keys []string) (map[string][]byte, error)
	Put(ctx context.Context, entries map[string][]byte) error
}

// Factory opens the store owned by a single user.
type Factory func(owner string) Store
