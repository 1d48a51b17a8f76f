// Package feedback implements the best-effort side effects of a finished
// session: sound, haptic pulse and notification. The production
// implementations publish events that connected clients act on.
package feedback

import (
	"context"
	"errors"
	"fmt"

	"github.com/themattbirch/screen-time-guardian/internal/events"
)

var ErrUnknownSound = errors.New("unknown sound")

type Sound struct {
	ID       string `json:"id"`
	Name     string `json:"name"`
	URL      string `json:"url"`
	Category string `json:"category"`
}

var sounds = []Sound{
	{ID: "gentle-bell", Name: "Gentle Bell", URL: "/sounds/gentle-bell.mp3", Category: "bell"},
	{ID: "meditation-bowl", Name: "Meditation Bowl", URL: "/sounds/meditation-bowl.mp3", Category: "meditation"},
	{ID: "forest-ambient", Name: "Forest Ambience", URL: "/sounds/forest-ambient.mp3", Category: "ambient"},
}

func AvailableSounds() []Sound {
	out := make([]Sound, len(sounds))
	copy(out, sounds)
	return out
}

func LookupSound(id string) (Sound, error) {
	for _, s := range sounds {
		if s.ID == id {
			return s, nil
		}
	}
	return Sound{}, fmt.Errorf("%w: %q", ErrUnknownSound, id)
}

// ClampVolume limits volume to the 0-100 range.
func ClampVolume(volume int) int {
	return min(max(volume, 0), 100)
}

type SoundPlayer interface {
	Play(ctx context.Context, soundID string, volume int) error
}

// EventSoundPlayer asks clients to play a catalog sound.
type EventSoundPlayer struct {
	Publisher events.Publisher
}

func (p EventSoundPlayer) Play(ctx context.Context, soundID string, volume int) error {
	sound, err := LookupSound(soundID)
	if err != nil {
		return err
	}
	if err := ctx.Err(); err != nil {
		return err
	}
	p.Publisher.Publish(events.Event{
		Type: events.TypePlaySound,
		Data: map[string]interface{}{
			"soundId": sound.ID,
			"url":     sound.URL,
			"volume":  ClampVolume(volume),
		},
	})
	return nil
}
