package reconcile

import (
	"context"
	"sync/atomic"

	"golang.org/x/sync/semaphore"
)

// WorkQueue bounds the number of write operations in flight. Submit blocks
// the caller until a slot is free; completion order is not submission order.
type WorkQueue struct {
	sem      *semaphore.Weighted
	max      int64
	inFlight atomic.Int64
	peak     atomic.Int64
}

func NewWorkQueue(maxInFlight int) *WorkQueue {
	if maxInFlight < 1 {
		maxInFlight = 1
	}
	return &WorkQueue{
		sem: semaphore.NewWeighted(int64(maxInFlight)),
		max: int64(maxInFlight),
	}
}

// Submit runs op on its own goroutine once fewer than maxInFlight operations
// are unresolved. It only fails when ctx ends while waiting for a slot.
func (q *WorkQueue) Submit(ctx context.Context, op func()) error {
	if err := q.sem.Acquire(ctx, 1); err != nil {
		return err
	}
	n := q.inFlight.Add(1)
	for {
		p := q.peak.Load()
		if n <= p || q.peak.CompareAndSwap(p, n) {
			break
		}
	}
	go func() {
		defer func() {
			q.inFlight.Add(-1)
			q.sem.Release(1)
		}()
		op()
	}()
	return nil
}

// DrainTo blocks until at most n operations remain in flight. DrainTo(ctx, 0)
// is the final barrier of a task.
func (q *WorkQueue) DrainTo(ctx context.Context, n int) error {
	if int64(n) >= q.max {
		return nil
	}
	w := q.max - int64(max(n, 0))
	if err := q.sem.Acquire(ctx, w); err != nil {
		return err
	}
	q.sem.Release(w)
	return nil
}

func (q *WorkQueue) InFlight() int {
	return int(q.inFlight.Load())
}

// Peak is the highest number of operations observed in flight at once.
func (q *WorkQueue) Peak() int {
	return int(q.peak.Load())
}
