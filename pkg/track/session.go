// ABOUTME: One play session of a track: the Source its output stream pulls
// ABOUTME: Renders frames at the cursor and ends the session at end of audio
package track

import (
	"io"
	"sync"
	"sync/atomic"

	"github.com/stemdeck/stemdeck-go/pkg/audio"
	"github.com/stemdeck/stemdeck-go/pkg/audio/output"
)

// session lives from Play until the stream is closed. Reads from a session
// that is no longer current return silence, so a stream that outlives its
// session can never move the cursor.
type session struct {
	t      *Track
	stream output.Stream

	ended     chan struct{}
	endOnce   sync.Once
	closed    chan struct{}
	closeOnce sync.Once
	done      atomic.Bool
}

func newSession(t *Track) *session {
	return &session{
		t:      t,
		ended:  make(chan struct{}),
		closed: make(chan struct{}),
	}
}

// Read is the audio callback
func (s *session) Read(dst []float32) (int, error) {
	if s.done.Load() || s.t.active.Load() != s {
		clear(dst)
		return 0, io.EOF
	}

	n, end := s.t.render(dst)
	if end {
		s.done.Store(true)
		s.t.active.CompareAndSwap(s, nil)
		s.endOnce.Do(func() { close(s.ended) })
		return n, io.EOF
	}
	return n, nil
}

// shutdown closes the stream once
func (s *session) shutdown() {
	s.closeOnce.Do(func() {
		s.done.Store(true)
		close(s.closed)
		if s.stream != nil {
			s.stream.Close()
		}
	})
}

// Read renders the running session's next block into dst. Without a running
// session dst is silenced and io.EOF returned.
func (t *Track) Read(dst []float32) (int, error) {
	s := t.active.Load()
	if s == nil {
		clear(dst)
		return 0, io.EOF
	}
	return s.Read(dst)
}

// render copies frames from the cursor into dst, scaled by the track gain,
// and advances the cursor. The advance is a compare-and-swap so a seek
// issued meanwhile wins. end reports that the buffer is exhausted.
func (t *Track) render(dst []float32) (n int, end bool) {
	ch := t.config.Channels
	r := t.current.Load()
	if r == nil || r.buf.Empty() {
		clear(dst)
		return 0, true
	}

	buf := r.buf
	total := int64(buf.Frames())
	pos := t.position.Load()
	if pos >= total {
		clear(dst)
		return 0, true
	}

	want := int64(len(dst) / ch)
	take := total - pos
	if take > want {
		take = want
	}

	gain := float32(0)
	if t.Audible() {
		gain = float32(t.Volume())
	}

	src := buf.Samples[pos*int64(buf.Channels) : (pos+take)*int64(buf.Channels)]
	audio.ScaleFrames(dst, ch, src, buf.Channels, gain)
	clear(dst[take*int64(ch):])

	t.position.CompareAndSwap(pos, pos+take)
	return int(take) * ch, pos+take >= total
}
