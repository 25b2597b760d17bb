// ABOUTME: Sync controller mirroring transport commands across tracks
// ABOUTME: Global play/stop toggle and frame-aligned seek fan-out
package sync

import (
	"errors"
	"log"
	"sync"
	"sync/atomic"

	"github.com/stemdeck/stemdeck-go/pkg/track"
)

// Group supplies the tracks a controller governs, in slot order
type Group interface {
	Tracks() []*track.Track
}

// Controller fans play, pause and seek out to every loaded track while enabled
type Controller struct {
	group   Group
	enabled atomic.Bool

	// Serialises fan-outs so two group commands never interleave
	mu sync.Mutex
}

// NewController creates a disabled controller over group
func NewController(group Group) *Controller {
	return &Controller{group: group}
}

// SetEnabled turns synchronization on or off
func (c *Controller) SetEnabled(enabled bool) {
	if c.enabled.Swap(enabled) != enabled {
		log.Printf("Sync enabled: %v", enabled)
	}
}

// Enabled reports whether synchronization is on
func (c *Controller) Enabled() bool {
	return c.enabled.Load()
}

// loaded returns the member tracks that have audio, as of now
func (c *Controller) loaded() []*track.Track {
	var out []*track.Track
	for _, t := range c.group.Tracks() {
		if t.IsLoaded() {
			out = append(out, t)
		}
	}
	return out
}

// SyncPlay is the global toggle. If any track is playing, every playing
// track pauses in place; otherwise every loaded track starts from frame 0.
func (c *Controller) SyncPlay() error {
	c.mu.Lock()
	defer c.mu.Unlock()

	tracks := c.loaded()

	var playing []*track.Track
	for _, t := range tracks {
		if t.IsPlaying() {
			playing = append(playing, t)
		}
	}

	if len(playing) > 0 {
		for _, t := range playing {
			t.Pause()
		}
		log.Printf("Sync: stopped %d tracks", len(playing))
		return nil
	}

	var errs []error
	for _, t := range tracks {
		if err := t.PlayFrom(0); err != nil {
			errs = append(errs, err)
		}
	}
	log.Printf("Sync: started %d tracks", len(tracks)-len(errs))
	return errors.Join(errs...)
}

// SyncSeek moves every loaded track except origin to frame. If origin is
// playing the others play from frame; if not they are left stopped there.
func (c *Controller) SyncSeek(origin *track.Track, frame int) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	originPlaying := origin != nil && origin.IsPlaying()

	var errs []error
	for _, t := range c.loaded() {
		if t == origin {
			continue
		}
		if originPlaying {
			if err := t.PlayFrom(frame); err != nil {
				errs = append(errs, err)
			}
			continue
		}
		t.Pause()
		t.Seek(frame)
	}
	return errors.Join(errs...)
}

// TogglePlay is a track's play button: under sync it is the global toggle,
// otherwise it toggles only that track
func (c *Controller) TogglePlay(origin *track.Track) error {
	if !origin.IsLoaded() {
		return nil
	}
	if c.Enabled() {
		return c.SyncPlay()
	}
	return origin.Toggle()
}

// Seek is a track's position control: it seeks origin and, under sync,
// mirrors the same frame to the rest of the group
func (c *Controller) Seek(origin *track.Track, frame int) error {
	if !origin.IsLoaded() {
		return nil
	}
	origin.Seek(frame)
	if c.Enabled() {
		return c.SyncSeek(origin, frame)
	}
	return nil
}
