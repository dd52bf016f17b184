// Package streampool hands a handle's auxiliary streams out to parallel
// sub-tasks. Take blocks while every stream is checked out, so the pool
// doubles as a concurrency limiter for device work.
package streampool

import (
	"errors"
	"sync/atomic"

	"github.com/san-kum/gpustream/internal/driver"
	"github.com/san-kum/gpustream/internal/handle"
)

var ErrNoStreams = errors.New("handle has no auxiliary streams to pool")

type Pool struct {
	free  chan driver.Stream
	size  int
	taken atomic.Int64
}

// New builds a pool over h's auxiliary streams. The pool borrows the
// streams; the handle still owns them, and must outlive the pool.
func New(h *handle.Handle) (*Pool, error) {
	n := h.AuxStreamCount()
	if n == 0 {
		return nil, ErrNoStreams
	}

	p := &Pool{
		free: make(chan driver.Stream, n),
		size: n,
	}
	for i := 0; i < n; i++ {
		p.free <- h.AuxStream(i)
	}
	return p, nil
}

// Take checks a stream out, blocking until one is free.
func (p *Pool) Take() driver.Stream {
	s := <-p.free
	p.taken.Add(1)
	return s
}

// TryTake checks a stream out without blocking.
func (p *Pool) TryTake() (driver.Stream, bool) {
	select {
	case s := <-p.free:
		p.taken.Add(1)
		return s, true
	default:
		return driver.Stream{}, false
	}
}

// Return checks a stream back in. Returning a stream that was never taken
// from this pool corrupts the accounting; don't.
func (p *Pool) Return(s driver.Stream) {
	p.taken.Add(-1)
	p.free <- s
}

// Size returns the fixed pool capacity.
func (p *Pool) Size() int { return p.size }

// InUse returns how many streams are currently checked out.
func (p *Pool) InUse() int { return int(p.taken.Load()) }
