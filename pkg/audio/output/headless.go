// ABOUTME: Headless audio output for machines without a sound device
// ABOUTME: Pulls each stream in real time on a ticker and discards the audio
package output

import (
	"errors"
	"io"
	"log"
	"sync"
	"time"
)

// DefaultPeriod is the pull interval used by the headless backend
const DefaultPeriod = 20 * time.Millisecond

// Headless consumes audio at the device rate without playing it
type Headless struct {
	mu         sync.Mutex
	period     time.Duration
	sampleRate int
	channels   int
	ready      bool
}

// NewHeadless creates a headless output pulling every period
func NewHeadless(period time.Duration) Output {
	if period <= 0 {
		period = DefaultPeriod
	}
	return &Headless{period: period}
}

// Open records the output format
func (h *Headless) Open(sampleRate, channels int) error {
	h.mu.Lock()
	defer h.mu.Unlock()

	h.sampleRate = sampleRate
	h.channels = channels
	h.ready = true

	log.Printf("Audio output initialized: %dHz, %d channels (headless)", sampleRate, channels)
	return nil
}

// NewStream creates a paused stream that pulls src on a ticker
func (h *Headless) NewStream(src Source) (Stream, error) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if !h.ready {
		return nil, &StreamError{Backend: "headless", Op: "new stream", Err: errors.New("output not initialized")}
	}

	frames := int(time.Duration(h.sampleRate) * h.period / time.Second)
	if frames < 1 {
		frames = 1
	}
	return &headlessStream{
		src:    src,
		period: h.period,
		buf:    make([]float32, frames*h.channels),
	}, nil
}

// Close releases output resources
func (h *Headless) Close() error {
	h.mu.Lock()
	h.ready = false
	h.mu.Unlock()
	return nil
}

type headlessStream struct {
	mu     sync.Mutex
	src    Source
	period time.Duration
	buf    []float32
	stop   chan struct{}
	exited chan struct{}
	closed bool
}

func (s *headlessStream) Play() {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed || s.stop != nil {
		return
	}
	s.stop = make(chan struct{})
	s.exited = make(chan struct{})
	go s.run(s.stop, s.exited)
}

func (s *headlessStream) run(stop, exited chan struct{}) {
	defer close(exited)

	ticker := time.NewTicker(s.period)
	defer ticker.Stop()

	for {
		select {
		case <-stop:
			return
		case <-ticker.C:
			if _, err := s.src.Read(s.buf); err == io.EOF {
				return
			}
		}
	}
}

// halt stops the pull goroutine and waits for it; callers hold s.mu
func (s *headlessStream) halt() {
	if s.stop == nil {
		return
	}
	close(s.stop)
	<-s.exited
	s.stop = nil
	s.exited = nil
}

func (s *headlessStream) Pause() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.halt()
}

func (s *headlessStream) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.halt()
	s.closed = true
	return nil
}
