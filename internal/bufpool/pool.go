// Package bufpool provides reusable byte buffers sized to the configured
// upload chunk size, reducing heap churn across concurrent part uploads.
package bufpool

import (
	"sync"
	"sync/atomic"
)

// Pool hands out chunk-sized buffers backed by a sync.Pool.
type Pool struct {
	chunkSize   int
	pool        sync.Pool
	allocations int64
	reuses      int64
}

// New creates a pool that serves buffers of the given chunk size.
func New(chunkSize int) *Pool {
	p := &Pool{chunkSize: chunkSize}
	p.pool.New = func() interface{} {
		atomic.AddInt64(&p.allocations, 1)
		buf := make([]byte, p.chunkSize)
		return &buf
	}
	return p
}

// Get retrieves a chunk-sized buffer from the pool.
// The buffer must be returned with Put when done.
func (p *Pool) Get() *[]byte {
	atomic.AddInt64(&p.reuses, 1)
	return p.pool.Get().(*[]byte)
}

// Put returns a buffer to the pool for reuse. Buffers of the wrong size
// (e.g. from a previous chunk-size configuration) are dropped instead of
// pooled.
func (p *Pool) Put(buf *[]byte) {
	if buf == nil || len(*buf) != p.chunkSize {
		return
	}
	clear(*buf)
	p.pool.Put(buf)
}

// Stats reports pool counters for monitoring. Allocations counts buffers
// newly created by the pool; Reuses counts every Get call, including those
// served by a fresh allocation.
type Stats struct {
	ChunkSize   int
	Allocations int64
	Reuses      int64
}

// Stats returns a snapshot of pool counters.
func (p *Pool) Stats() Stats {
	return Stats{
		ChunkSize:   p.chunkSize,
		Allocations: atomic.LoadInt64(&p.allocations),
		Reuses:      atomic.LoadInt64(&p.reuses),
	}
}
