// Package buffers provides reusable copy buffers so repeated transfers do not
// allocate a fresh buffer for every request.
package buffers

import (
	"sync"
	"sync/atomic"
)

// Pool hands out byte slices of one fixed size.
type Pool struct {
	size  int
	pool  sync.Pool
	gets  atomic.Int64 // Get calls
	news  atomic.Int64 // buffers created because the pool was empty
	drops atomic.Int64 // Put calls rejected for a wrong size
}

// NewPool returns a pool of size-byte buffers. size must be positive.
func NewPool(size int) *Pool {
	if size <= 0 {
		panic("buffers: non-positive buffer size")
	}
	p := &Pool{size: size}
	p.pool.New = func() interface{} {
		p.news.Add(1)
		buf := make([]byte, size)
		return &buf
	}
	return p
}

// Size returns the length of every buffer handed out by the pool.
func (p *Pool) Size() int { return p.size }

// Get retrieves a buffer from the pool. Return it with Put when done.
//
// Usage:
//
//	buf := pool.Get()
//	defer pool.Put(buf)
//	io.CopyBuffer(dst, src, *buf)
func (p *Pool) Get() *[]byte {
	p.gets.Add(1)
	return p.pool.Get().(*[]byte)
}

// Put returns a buffer to the pool. Buffers of another size are discarded.
// The buffer is cleared so file contents do not outlive the copy.
func (p *Pool) Put(buf *[]byte) {
	if buf == nil || len(*buf) != p.size {
		p.drops.Add(1)
		return
	}
	clear(*buf)
	p.pool.Put(buf)
}

// Stats are the pool monitoring counters.
type Stats struct {
	BufferSize  int
	Gets        int64
	Allocations int64
	Reuses      int64
	Dropped     int64
}

// Stats returns current pool statistics.
func (p *Pool) Stats() Stats {
	gets, news := p.gets.Load(), p.news.Load()
	reuses := gets - news
	if reuses < 0 {
		reuses = 0
	}
	return Stats{
		BufferSize:  p.size,
		Gets:        gets,
		Allocations: news,
		Reuses:      reuses,
		Dropped:     p.drops.Load(),
	}
}
