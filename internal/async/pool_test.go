package async

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/joseph-ayodele/papertrans/internal/entity"
)

func TestWorkerPoolRunsEveryJob(t *testing.T) {
	var (
		mu   sync.Mutex
		seen = map[int]bool{}
		cur  atomic.Int32
		peak atomic.Int32
	)
	handler := func(ctx context.Context, job Job) error {
		n := cur.Add(1)
		for {
			p := peak.Load()
			if n <= p || peak.CompareAndSwap(p, n) {
				break
			}
		}
		time.Sleep(5 * time.Millisecond)
		cur.Add(-1)
		mu.Lock()
		seen[job.Index] = true
		mu.Unlock()
		if job.Index == 3 {
			return errors.New("boom")
		}
		return nil
	}

	q := NewWorkerPool(context.Background(), handler, nil, WithWorkers(2), WithQueueSize(1))
	for i := 0; i < 10; i++ {
		if err := q.Enqueue(context.Background(), Job{Index: i, Doc: entity.NewDocument("d", "", "", "", "")}); err != nil {
			t.Fatalf("Enqueue(%d) error = %v", i, err)
		}
	}
	q.Shutdown(context.Background())

	if len(seen) != 10 {
		t.Errorf("processed %d jobs, want 10", len(seen))
	}
	if peak.Load() > 2 {
		t.Errorf("peak concurrency = %d, want <= 2", peak.Load())
	}
	if err := q.Enqueue(context.Background(), Job{Doc: entity.NewDocument("d", "", "", "", "")}); !errors.Is(err, ErrQueueClosed) {
		t.Errorf("Enqueue after Shutdown = %v, want ErrQueueClosed", err)
	}
}

func TestWorkerPoolJobTimeout(t *testing.T) {
	got := make(chan error, 1)
	handler := func(ctx context.Context, job Job) error {
		<-ctx.Done()
		got <- ctx.Err()
		return ctx.Err()
	}
	q := NewWorkerPool(context.Background(), handler, nil, WithWorkers(1), WithJobTimeout(10*time.Millisecond))
	_ = q.Enqueue(context.Background(), Job{Doc: entity.NewDocument("d", "", "", "", "")})
	q.Shutdown(context.Background())
	if err := <-got; !errors.Is(err, context.DeadlineExceeded) {
		t.Errorf("job ctx err = %v, want deadline exceeded", err)
	}
}
