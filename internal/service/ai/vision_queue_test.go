package ai

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"sync"
	"testing"
	"time"

	"essaycoach/internal/domain/services"
)

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func TestVisionQueue_SerializesInArrivalOrder(t *testing.T) {
	q := NewVisionQueue(0, discardLogger())
	defer q.Close()

	var (
		mu      sync.Mutex
		order   []int
		running int
		maxRun  int
	)
	job := func(n int) func(context.Context) (*services.ImageDescription, error) {
		return func(context.Context) (*services.ImageDescription, error) {
			mu.Lock()
			running++
			if running > maxRun {
				maxRun = running
			}
			order = append(order, n)
			mu.Unlock()

			time.Sleep(5 * time.Millisecond)

			mu.Lock()
			running--
			mu.Unlock()
			return &services.ImageDescription{Description: "ok"}, nil
		}
	}

	var wg sync.WaitGroup
	for i := 0; i < 3; i++ {
		wg.Add(1)
		go func(n int) {
			defer wg.Done()
			if _, err := q.Do(context.Background(), job(n)); err != nil {
				t.Errorf("Do(%d) failed: %v", n, err)
			}
		}(i)
		// Give each submitter time to reach the queue before the next
		time.Sleep(time.Millisecond)
	}
	wg.Wait()

	if maxRun != 1 {
		t.Errorf("jobs overlapped: max concurrent = %d", maxRun)
	}
	for i, n := range order {
		if n != i {
			t.Errorf("order = %v, want arrival order", order)
			break
		}
	}
}

func TestVisionQueue_SpacesRequests(t *testing.T) {
	interval := 30 * time.Millisecond
	q := NewVisionQueue(interval, discardLogger())
	defer q.Close()

	var starts []time.Time
	for i := 0; i < 2; i++ {
		_, err := q.Do(context.Background(), func(context.Context) (*services.ImageDescription, error) {
			starts = append(starts, time.Now())
			return &services.ImageDescription{}, nil
		})
		if err != nil {
			t.Fatal(err)
		}
	}

	if gap := starts[1].Sub(starts[0]); gap < interval-5*time.Millisecond {
		t.Errorf("requests %v apart, want at least %v", gap, interval)
	}
}

func TestVisionQueue_CancelledWhileWaiting(t *testing.T) {
	q := NewVisionQueue(time.Hour, discardLogger())
	defer q.Close()

	// Use up the single token
	if _, err := q.Do(context.Background(), func(context.Context) (*services.ImageDescription, error) {
		return &services.ImageDescription{}, nil
	}); err != nil {
		t.Fatal(err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()

	ran := false
	_, err := q.Do(ctx, func(context.Context) (*services.ImageDescription, error) {
		ran = true
		return nil, nil
	})
	if err == nil {
		t.Fatal("expected an error for a request that could not be served in time")
	}
	if ran {
		t.Error("cancelled request must not run")
	}
}

func TestVisionQueue_ClosedQueueRejects(t *testing.T) {
	q := NewVisionQueue(0, discardLogger())
	q.Close()

	_, err := q.Do(context.Background(), func(context.Context) (*services.ImageDescription, error) {
		return nil, nil
	})
	if !errors.Is(err, ErrQueueClosed) {
		t.Errorf("expected ErrQueueClosed, got %v", err)
	}
}
