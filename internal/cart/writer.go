package cart

import (
	"context"
	"errors"
	"sort"
	"sync"
	"time"

	"github.com/angelmondragon/aquadrop/pkg/logger"
	"github.com/angelmondragon/aquadrop/pkg/metrics"
)

var errWriterClosed = errors.New("cart writer closed")

// writeJob is a full-cart snapshot bound for one persistence target.
type writeJob struct {
	ctx    context.Context
	seq    uint64
	target Persistence
	lines  Lines
}

// writer executes cart saves one at a time in sequence order. A pending job
// replaced by a newer one for the same target is dropped without being written.
type writer struct {
	logg    *logger.Logger
	metrics *metrics.CartMetrics
	timeout time.Duration

	mu      sync.Mutex
	cond    *sync.Cond
	pending map[string]writeJob
	busy    bool
	closed  bool
	done    chan struct{}
}

func newWriter(logg *logger.Logger, m *metrics.CartMetrics, timeout time.Duration) *writer {
	w := &writer{
		logg:    logg,
		metrics: m,
		timeout: timeout,
		pending: map[string]writeJob{},
		done:    make(chan struct{}),
	}
	w.cond = sync.NewCond(&w.mu)
	go w.run()
	return w
}

// enqueue schedules job and returns immediately. Jobs arriving after close are
// dropped, logged and counted as failed saves.
func (w *writer) enqueue(job writeJob) {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.closed {
		w.metrics.Observe(job.target.Backend(), "save", 0, errWriterClosed)
		fields := map[string]any{"backend": job.target.Backend(), "seq": job.seq, "lines": len(job.lines)}
		w.logg.Error(w.logg.WithFields(job.ctx, fields), "cart.persist.dropped", errWriterClosed)
		return
	}
	key := job.target.Key()
	if prev, ok := w.pending[key]; ok {
		w.metrics.IncStale()
		if prev.seq > job.seq {
			return
		}
	}
	w.pending[key] = job
	w.cond.Broadcast()
}

func (w *writer) run() {
	defer close(w.done)
	for {
		w.mu.Lock()
		for len(w.pending) == 0 && !w.closed {
			w.cond.Wait()
		}
		if len(w.pending) == 0 {
			w.mu.Unlock()
			return
		}
		batch := make([]writeJob, 0, len(w.pending))
		for _, job := range w.pending {
			batch = append(batch, job)
		}
		w.pending = map[string]writeJob{}
		w.busy = true
		w.mu.Unlock()

		sort.Slice(batch, func(i, j int) bool { return batch[i].seq < batch[j].seq })
		for _, job := range batch {
			w.exec(job)
		}

		w.mu.Lock()
		w.busy = false
		w.cond.Broadcast()
		w.mu.Unlock()
	}
}

func (w *writer) exec(job writeJob) {
	ctx := job.ctx
	if ctx == nil {
		ctx = context.Background()
	}
	if w.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, w.timeout)
		defer cancel()
	}

	start := time.Now()
	err := job.target.Save(ctx, job.lines)
	w.metrics.Observe(job.target.Backend(), "save", time.Since(start), err)
	if err != nil {
		fields := map[string]any{"backend": job.target.Backend(), "seq": job.seq, "lines": len(job.lines)}
		w.logg.Error(w.logg.WithFields(ctx, fields), "cart.persist.failed", err)
	}
}

// flush blocks until nothing is pending or in flight, or ctx ends.
func (w *writer) flush(ctx context.Context) error {
	idle := make(chan struct{})
	go func() {
		w.mu.Lock()
		for len(w.pending) > 0 || w.busy {
			w.cond.Wait()
		}
		w.mu.Unlock()
		close(idle)
	}()
	select {
	case <-idle:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// close stops accepting jobs and waits for pending ones to be written.
func (w *writer) close(ctx context.Context) error {
	w.mu.Lock()
	w.closed = true
	w.cond.Broadcast()
	w.mu.Unlock()
	select {
	case <-w.done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
