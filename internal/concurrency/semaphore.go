// Package concurrency provides the bounded-parallelism primitives used by
// the orchestrator and upload worker: a per-job worker semaphore and a
// process-wide chunk semaphore (spec section on concurrency & resource
// model). Both are the same buffered-channel semaphore type. The chunk
// semaphore is constructed once by the composition root and threaded in as
// a dependency rather than held as a package-level singleton; the orchestrator
// creates a fresh per-job worker semaphore for each upload run.
package concurrency

import "context"

// Semaphore bounds concurrent access to capacity permits.
type Semaphore struct {
	slots chan struct{}
}

// NewSemaphore creates a semaphore with the given capacity. Capacity must
// be at least 1.
func NewSemaphore(capacity int) *Semaphore {
	if capacity < 1 {
		capacity = 1
	}
	return &Semaphore{slots: make(chan struct{}, capacity)}
}

// Acquire blocks until a permit is available or ctx is cancelled.
func (s *Semaphore) Acquire(ctx context.Context) error {
	select {
	case s.slots <- struct{}{}:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Release returns a permit to the semaphore.
func (s *Semaphore) Release() {
	<-s.slots
}

// Capacity returns the semaphore's total permit count.
func (s *Semaphore) Capacity() int {
	return cap(s.slots)
}

// InUse returns the number of permits currently held.
func (s *Semaphore) InUse() int {
	return len(s.slots)
}
