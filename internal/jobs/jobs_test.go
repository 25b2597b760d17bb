// ABOUTME: Tests for the background job runner
// ABOUTME: Covers results, progress, panics and shutdown cancellation
package jobs

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"
)

func TestSubmitDeliversResult(t *testing.T) {
	r := NewRunner(Config{})
	defer r.Close()

	var called bool
	var mu sync.Mutex
	h := r.Submit("double", func(ctx context.Context, progress func(string)) (any, error) {
		return 42, nil
	}, func(h *Handle) {
		mu.Lock()
		called = true
		mu.Unlock()
	})

	if h.ID == "" {
		t.Error("expected job ID")
	}

	v, err := h.Result()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if v.(int) != 42 {
		t.Errorf("expected 42, got %v", v)
	}
	if !h.Finished() {
		t.Error("expected finished after Result")
	}

	r.Wait()
	mu.Lock()
	defer mu.Unlock()
	if !called {
		t.Error("onDone was not called")
	}
}

func TestSubmitDeliversError(t *testing.T) {
	r := NewRunner(Config{})
	defer r.Close()

	boom := errors.New("boom")
	h := r.Submit("fail", func(ctx context.Context, progress func(string)) (any, error) {
		return nil, boom
	}, nil)

	select {
	case <-h.Done():
	case <-time.After(2 * time.Second):
		t.Fatal("job never finished")
	}
	if !errors.Is(h.Err(), boom) {
		t.Errorf("expected boom, got %v", h.Err())
	}
}

func TestPanicBecomesError(t *testing.T) {
	r := NewRunner(Config{})
	defer r.Close()

	h := r.Submit("panic", func(ctx context.Context, progress func(string)) (any, error) {
		panic("bad")
	}, nil)

	if h.Err() == nil {
		t.Error("expected panic to surface as error")
	}
}

func TestProgressMessages(t *testing.T) {
	var mu sync.Mutex
	var msgs []string
	r := NewRunner(Config{OnProgress: func(h *Handle, msg string) {
		mu.Lock()
		msgs = append(msgs, msg)
		mu.Unlock()
	}})
	defer r.Close()

	h := r.Submit("steps", func(ctx context.Context, progress func(string)) (any, error) {
		progress("converting")
		progress("separating")
		return nil, nil
	}, nil)
	h.Result()

	if h.Progress() != "separating" {
		t.Errorf("expected last progress 'separating', got %q", h.Progress())
	}
	mu.Lock()
	defer mu.Unlock()
	if len(msgs) != 2 {
		t.Errorf("expected 2 progress messages, got %d", len(msgs))
	}
}

func TestCloseCancelsContext(t *testing.T) {
	r := NewRunner(Config{})
	started := make(chan struct{})
	h := r.Submit("wait", func(ctx context.Context, progress func(string)) (any, error) {
		close(started)
		<-ctx.Done()
		return nil, ctx.Err()
	}, nil)

	<-started
	if len(r.Active()) != 1 {
		t.Errorf("expected 1 active job, got %d", len(r.Active()))
	}
	r.Close()

	if !errors.Is(h.Err(), context.Canceled) {
		t.Errorf("expected context.Canceled, got %v", h.Err())
	}
	if len(r.Active()) != 0 {
		t.Errorf("expected no active jobs, got %d", len(r.Active()))
	}
}

func TestSubmitAfterCloseIsRejected(t *testing.T) {
	r := NewRunner(Config{})
	r.Close()

	ran := false
	called := false
	h := r.Submit("late", func(ctx context.Context, progress func(string)) (any, error) {
		ran = true
		return nil, nil
	}, func(*Handle) { called = true })

	if !h.Finished() {
		t.Fatal("expected rejected handle to be finished")
	}
	if !errors.Is(h.Err(), ErrClosed) {
		t.Errorf("expected ErrClosed, got %v", h.Err())
	}
	if ran || called {
		t.Errorf("expected job and onDone not to run (ran=%v, onDone=%v)", ran, called)
	}
	if len(r.Active()) != 0 {
		t.Errorf("expected no active jobs, got %d", len(r.Active()))
	}
	r.Wait()
}
