// ABOUTME: Track synchronization package
// ABOUTME: Mirrors play/pause/seek from one track to the whole group
// Package sync keeps tracks playing together.
//
// While enabled, a play toggle on any track becomes a group-wide toggle and
// a seek on one track moves every other loaded track to the same frame, so
// tracks of different lengths stay aligned by frame rather than by time.
// Tracks without audio are skipped.
//
// Example:
//
//	ctrl := sync.NewController(bus)
//	ctrl.SetEnabled(true)
//	ctrl.TogglePlay(bus.Track(1))
//	ctrl.Seek(bus.Track(2), 5000)
package sync
