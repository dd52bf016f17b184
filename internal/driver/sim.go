package driver

import (
	"fmt"
	"runtime"
	"sync"

	"github.com/eapache/queue"
	"go.uber.org/zap"

	"github.com/san-kum/gpustream/internal/logging"
)

// SimConfig bounds the host simulation runtime.
type SimConfig struct {
	// MaxStreams caps the number of non-default streams that can exist at
	// once. Creation beyond the cap fails with StatusMemoryAllocation.
	MaxStreams int
}

func DefaultSimConfig() SimConfig {
	return SimConfig{MaxStreams: 64}
}

// SimRuntime is a host-side stand-in for a device runtime. Each stream is
// an in-order command queue drained by its own goroutine, so work within a
// stream is strictly ordered while work across streams overlaps.
type SimRuntime struct {
	mu      sync.Mutex
	streams map[uint64]*simStream
	nextID  uint64
	max     int
}

func NewSimRuntime(cfg SimConfig) *SimRuntime {
	if cfg.MaxStreams <= 0 {
		cfg.MaxStreams = DefaultSimConfig().MaxStreams
	}
	// The default stream is created lazily on first use, not counted
	// against the cap, and not respawned by Cleanup.
	return &SimRuntime{
		streams: make(map[uint64]*simStream),
		nextID:  1,
		max:     cfg.MaxStreams,
	}
}

func (rt *SimRuntime) Name() string {
	return fmt.Sprintf("sim (%s)", runtime.GOARCH)
}

func (rt *SimRuntime) Available() bool { return true }
func (rt *SimRuntime) DeviceCount() int { return 1 }

func (rt *SimRuntime) StreamCreate() (Stream, Status) {
	rt.mu.Lock()
	defer rt.mu.Unlock()

	if rt.liveLocked() >= rt.max {
		return Stream{}, StatusMemoryAllocation
	}

	id := rt.nextID
	rt.nextID++
	rt.streams[id] = newSimStream(id)

	logging.Logger().Debug("sim stream created", zap.Uint64("stream", id))
	return Stream{id: id}, StatusSuccess
}

func (rt *SimRuntime) StreamDestroy(s Stream) Status {
	if s.IsDefault() {
		return StatusInvalidValue
	}

	rt.mu.Lock()
	st, ok := rt.streams[s.id]
	if ok {
		delete(rt.streams, s.id)
	}
	rt.mu.Unlock()

	if !ok {
		return StatusInvalidValue
	}

	// Pending work drains before the stream goes away, matching device
	// semantics where destruction is ordered after enqueued work.
	st.synchronize()
	st.close()

	logging.Logger().Debug("sim stream destroyed", zap.Uint64("stream", s.id))
	return StatusSuccess
}

func (rt *SimRuntime) StreamSynchronize(s Stream) Status {
	st, status := rt.lookup(s)
	if status != StatusSuccess {
		return status
	}
	return st.synchronize()
}

func (rt *SimRuntime) StreamQuery(s Stream) Status {
	st, status := rt.lookup(s)
	if status != StatusSuccess {
		return status
	}
	return st.query()
}

// Submit enqueues a host task on the given stream.
func (rt *SimRuntime) Submit(s Stream, t Task) Status {
	st, status := rt.lookup(s)
	if status != StatusSuccess {
		return status
	}
	return st.submit(t)
}

func (rt *SimRuntime) Cleanup() {
	rt.mu.Lock()
	streams := make([]*simStream, 0, len(rt.streams))
	for _, st := range rt.streams {
		streams = append(streams, st)
	}
	rt.streams = make(map[uint64]*simStream)
	rt.mu.Unlock()

	for _, st := range streams {
		st.synchronize()
		st.close()
	}
}

// LiveStreams reports the number of non-default streams currently alive.
func (rt *SimRuntime) LiveStreams() int {
	rt.mu.Lock()
	defer rt.mu.Unlock()
	return rt.liveLocked()
}

func (rt *SimRuntime) liveLocked() int {
	n := len(rt.streams)
	if _, ok := rt.streams[0]; ok {
		n--
	}
	return n
}

// StreamDepths snapshots the pending-task depth of every live stream,
// keyed by stream ID. Depth includes the task currently executing.
func (rt *SimRuntime) StreamDepths() map[uint64]int {
	rt.mu.Lock()
	streams := make(map[uint64]*simStream, len(rt.streams))
	for id, st := range rt.streams {
		streams[id] = st
	}
	rt.mu.Unlock()

	depths := make(map[uint64]int, len(streams))
	for id, st := range streams {
		depths[id] = st.depth()
	}
	return depths
}

func (rt *SimRuntime) lookup(s Stream) (*simStream, Status) {
	rt.mu.Lock()
	defer rt.mu.Unlock()
	st, ok := rt.streams[s.id]
	if !ok {
		if !s.IsDefault() {
			return nil, StatusInvalidValue
		}
		st = newSimStream(0)
		rt.streams[0] = st
	}
	return st, StatusSuccess
}

// simStream is one in-order command queue. A faulting task poisons the
// stream: the fault is sticky and reported by every later synchronize,
// the way device runtimes report asynchronous errors.
type simStream struct {
	id      uint64
	mu      sync.Mutex
	cond    *sync.Cond
	pending *queue.Queue
	busy    bool
	fault   Status
	closed  bool
}

func newSimStream(id uint64) *simStream {
	st := &simStream{
		id:      id,
		pending: queue.New(),
	}
	st.cond = sync.NewCond(&st.mu)
	go st.loop()
	return st
}

func (st *simStream) loop() {
	st.mu.Lock()
	for {
		for st.pending.Length() == 0 && !st.closed {
			st.cond.Wait()
		}
		if st.pending.Length() == 0 && st.closed {
			st.mu.Unlock()
			return
		}

		task := st.pending.Remove().(Task)
		st.busy = true
		st.mu.Unlock()

		err := task()

		st.mu.Lock()
		st.busy = false
		if err != nil && st.fault == StatusSuccess {
			st.fault = StatusLaunchFailure
			logging.Logger().Warn("sim stream faulted",
				zap.Uint64("stream", st.id), zap.Error(err))
		}
		st.cond.Broadcast()
	}
}

func (st *simStream) submit(t Task) Status {
	st.mu.Lock()
	defer st.mu.Unlock()
	if st.closed {
		return StatusInvalidValue
	}
	if st.fault != StatusSuccess {
		return st.fault
	}
	st.pending.Add(t)
	st.cond.Broadcast()
	return StatusSuccess
}

func (st *simStream) synchronize() Status {
	st.mu.Lock()
	defer st.mu.Unlock()
	for st.pending.Length() > 0 || st.busy {
		st.cond.Wait()
	}
	return st.fault
}

func (st *simStream) query() Status {
	st.mu.Lock()
	defer st.mu.Unlock()
	if st.fault != StatusSuccess {
		return st.fault
	}
	if st.pending.Length() > 0 || st.busy {
		return StatusNotReady
	}
	return StatusSuccess
}

func (st *simStream) depth() int {
	st.mu.Lock()
	defer st.mu.Unlock()
	d := st.pending.Length()
	if st.busy {
		d++
	}
	return d
}

func (st *simStream) close() {
	st.mu.Lock()
	st.closed = true
	st.cond.Broadcast()
	st.mu.Unlock()
}
