// Package queue implements the bounded-concurrency admission queue that
// decides which tracked files upload now.
package queue

import (
	"context"
	"log/slog"
	"sync"
)

// RunFunc executes the transfer for one file id. It must handle all of
// its own failures; the scheduler only cares that it returns.
type RunFunc func(id string)

// Scheduler is a FIFO queue of file ids plus an admitted counter bounded
// by a concurrency limit. Transfers are started fire-and-forget; every
// settle decrements the counter and re-runs admission, which is the sole
// re-entry point that keeps the pipeline full.
type Scheduler struct {
	mu       sync.Mutex
	cond     *sync.Cond
	limit    int
	queue    []string
	queued   map[string]struct{}
	admitted int
	run      RunFunc
	log      *slog.Logger
}

// New creates a scheduler admitting at most limit concurrent transfers.
// limit must be positive.
func New(limit int, run RunFunc, log *slog.Logger) *Scheduler {
	s := &Scheduler{
		limit:  limit,
		queued: make(map[string]struct{}),
		run:    run,
		log:    log,
	}
	s.cond = sync.NewCond(&s.mu)
	return s
}

// Enqueue appends ids to the queue in order and triggers admission.
// An id already queued is skipped so it cannot double-count a
// concurrency slot.
func (s *Scheduler) Enqueue(ids ...string) {
	s.mu.Lock()
	for _, id := range ids {
		if _, dup := s.queued[id]; dup {
			continue
		}
		s.queued[id] = struct{}{}
		s.queue = append(s.queue, id)
	}
	s.mu.Unlock()

	s.admit()
}

// admit starts transfers while a slot and a queued id are both available.
// It does not wait for any transfer to finish.
func (s *Scheduler) admit() {
	s.mu.Lock()
	for s.admitted < s.limit && len(s.queue) > 0 {
		id := s.queue[0]
		s.queue = s.queue[1:]
		delete(s.queued, id)
		s.admitted++

		go func(id string) {
			defer s.settle(id)
			s.run(id)
		}(id)
	}
	s.mu.Unlock()
}

// settle releases the slot held by id and immediately attempts further
// admissions. It runs regardless of how the transfer ended.
func (s *Scheduler) settle(id string) {
	s.mu.Lock()
	s.admitted--
	s.cond.Broadcast()
	s.mu.Unlock()

	s.log.Debug("transfer settled", slog.String("file_id", id))
	s.admit()
}

// InFlight reports the number of currently admitted transfers.
func (s *Scheduler) InFlight() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.admitted
}

// Pending reports the number of queued, not yet admitted ids.
func (s *Scheduler) Pending() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.queue)
}

// Wait blocks until the queue is empty and no transfer is in flight, or
// until ctx is done, in which case it returns the context's error.
func (s *Scheduler) Wait(ctx context.Context) error {
	stop := context.AfterFunc(ctx, func() {
		s.mu.Lock()
		s.cond.Broadcast()
		s.mu.Unlock()
	})
	defer stop()

	s.mu.Lock()
	defer s.mu.Unlock()
	for s.admitted > 0 || len(s.queue) > 0 {
		if err := ctx.Err(); err != nil {
			return err
		}
		s.cond.Wait()
	}
	return nil
}
