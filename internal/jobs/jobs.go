// ABOUTME: Background job runner with future-style handles
// ABOUTME: Submit returns a Handle whose Done channel closes on completion
package jobs

import (
	"context"
	"errors"
	"fmt"
	"log"
	"sync"
	"time"

	"github.com/google/uuid"
)

// ErrClosed is the error of a job submitted after Close
var ErrClosed = errors.New("job runner is closed")

// Func is the body of a job. progress may be called any number of times.
type Func func(ctx context.Context, progress func(string)) (any, error)

// Handle tracks one submitted job
type Handle struct {
	ID      string
	Name    string
	Started time.Time

	done  chan struct{}
	value any
	err   error

	mu       sync.Mutex
	progress string
}

// Done is closed when the job has finished
func (h *Handle) Done() <-chan struct{} {
	return h.done
}

// Finished reports whether the job has completed
func (h *Handle) Finished() bool {
	select {
	case <-h.done:
		return true
	default:
		return false
	}
}

// Result blocks until the job finishes and returns its outcome
func (h *Handle) Result() (any, error) {
	<-h.done
	return h.value, h.err
}

// Err blocks until the job finishes and returns its error
func (h *Handle) Err() error {
	<-h.done
	return h.err
}

// Progress returns the most recent progress message
func (h *Handle) Progress() string {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.progress
}

// Config holds runner configuration
type Config struct {
	// OnProgress is called for every progress message
	OnProgress func(h *Handle, msg string)
}

// Runner runs jobs on their own goroutines
type Runner struct {
	config Config
	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup

	mu     sync.Mutex
	active map[string]*Handle
	closed bool
}

// NewRunner creates a job runner
func NewRunner(config Config) *Runner {
	ctx, cancel := context.WithCancel(context.Background())
	return &Runner{
		config: config,
		ctx:    ctx,
		cancel: cancel,
		active: make(map[string]*Handle),
	}
}

// Submit starts fn in the background. onDone, if set, runs on the job's
// goroutine after Done is closed. After Close the returned handle is
// already finished with ErrClosed and onDone is not called.
func (r *Runner) Submit(name string, fn Func, onDone func(*Handle)) *Handle {
	h := &Handle{
		ID:      uuid.New().String(),
		Name:    name,
		Started: time.Now(),
		done:    make(chan struct{}),
	}

	r.mu.Lock()
	if r.closed {
		r.mu.Unlock()
		h.err = ErrClosed
		close(h.done)
		log.Printf("Job %s (%s) rejected: %v", h.Name, h.ID, ErrClosed)
		return h
	}
	r.active[h.ID] = h
	r.wg.Add(1)
	r.mu.Unlock()

	log.Printf("Job %s (%s) started", h.Name, h.ID)

	go func() {
		defer r.wg.Done()

		h.value, h.err = r.run(h, fn)

		r.mu.Lock()
		delete(r.active, h.ID)
		r.mu.Unlock()

		if h.err != nil {
			log.Printf("Job %s (%s) failed after %v: %v", h.Name, h.ID, time.Since(h.Started), h.err)
		} else {
			log.Printf("Job %s (%s) finished in %v", h.Name, h.ID, time.Since(h.Started))
		}
		close(h.done)

		if onDone != nil {
			onDone(h)
		}
	}()

	return h
}

func (r *Runner) run(h *Handle, fn Func) (value any, err error) {
	defer func() {
		if p := recover(); p != nil {
			err = fmt.Errorf("job %s panicked: %v", h.Name, p)
		}
	}()

	progress := func(msg string) {
		h.mu.Lock()
		h.progress = msg
		h.mu.Unlock()
		if r.config.OnProgress != nil {
			r.config.OnProgress(h, msg)
		}
	}
	return fn(r.ctx, progress)
}

// Active returns the jobs still running
func (r *Runner) Active() []*Handle {
	r.mu.Lock()
	defer r.mu.Unlock()

	out := make([]*Handle, 0, len(r.active))
	for _, h := range r.active {
		out = append(out, h)
	}
	return out
}

// Wait blocks until every submitted job has finished
func (r *Runner) Wait() {
	r.wg.Wait()
}

// Close cancels the runner context and waits for running jobs. Later
// submits are rejected.
func (r *Runner) Close() {
	r.mu.Lock()
	r.closed = true
	r.mu.Unlock()

	r.cancel()
	r.wg.Wait()
}
