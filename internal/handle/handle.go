package handle

import (
	"encoding/binary"
	"fmt"
	"sync/atomic"

	"go.uber.org/zap"

	"github.com/san-kum/gpustream/internal/driver"
	"github.com/san-kum/gpustream/internal/logging"
)

// Handle binds a primary execution stream and a fixed pool of auxiliary
// streams, and is passed into compute routines to supply stream context.
//
// The primary stream defaults to the runtime's default queue and may be
// rebound any number of times with SetStream. The auxiliary pool is sized
// at construction and never changes; auxiliary streams are owned by the
// handle and released by Close.
//
// A Handle is confined to one logical execution context: it performs no
// internal locking, and rebinding the primary stream concurrently with
// Synchronize is a data race the caller must avoid.
type Handle struct {
	rt      driver.Runtime
	primary driver.Stream
	aux     []driver.Stream
	raw     uintptr
	closed  atomic.Bool
}

// New constructs a handle on the active runtime with auxStreams auxiliary
// streams (zero is valid). The primary stream starts bound to the
// runtime's default stream.
func New(auxStreams int) (*Handle, error) {
	return NewWithRuntime(driver.GetRuntime(), auxStreams)
}

// NewWithRuntime is New against an explicit runtime, used by tests and by
// callers juggling more than one device runtime.
func NewWithRuntime(rt driver.Runtime, auxStreams int) (*Handle, error) {
	if auxStreams < 0 {
		return nil, fmt.Errorf("auxiliary stream count must be non-negative, got %d", auxStreams)
	}

	aux, err := reserve(rt, auxStreams)
	if err != nil {
		return nil, err
	}

	h := &Handle{
		rt:      rt,
		primary: driver.DefaultStream,
		aux:     aux,
	}
	h.raw = register(h)

	logging.Logger().Debug("handle constructed",
		zap.Uintptr("handle", h.raw), zap.Int("aux_streams", auxStreams))
	return h, nil
}

// reserve creates n streams, unwinding on failure so a partial pool never
// leaks.
func reserve(rt driver.Runtime, n int) ([]driver.Stream, error) {
	aux := make([]driver.Stream, 0, n)
	for i := 0; i < n; i++ {
		s, status := rt.StreamCreate()
		if status != driver.StatusSuccess {
			for _, created := range aux {
				rt.StreamDestroy(created)
			}
			return nil, &ResourceError{Requested: n, Created: i, Code: status}
		}
		aux = append(aux, s)
	}
	return aux, nil
}

// SetStream rebinds the primary stream to an externally-owned stream.
// The handle takes no ownership: the caller must keep s alive for as long
// as the handle uses it. The auxiliary pool is unaffected.
func (h *Handle) SetStream(s driver.Stream) {
	h.primary = s
}

// Stream returns the currently bound primary stream.
func (h *Handle) Stream() driver.Stream {
	return h.primary
}

// Synchronize blocks until all work enqueued on the primary stream has
// completed. Waiting on the handle's own binding rather than the whole
// device keeps unrelated work out of the wait.
func (h *Handle) Synchronize() error {
	if status := h.rt.StreamSynchronize(h.primary); status != driver.StatusSuccess {
		return &SyncError{Code: status}
	}
	return nil
}

// AuxStreamCount returns the immutable construction-time pool size.
func (h *Handle) AuxStreamCount() int {
	return len(h.aux)
}

// AuxStream returns the i'th auxiliary stream. Auxiliary streams carve
// internal parallel sub-work out of algorithms using the handle; ordering
// between them and the primary stream is the caller's business.
func (h *Handle) AuxStream(i int) driver.Stream {
	return h.aux[i]
}

// Runtime returns the device runtime the handle was constructed on.
func (h *Handle) Runtime() driver.Runtime {
	return h.rt
}

// Raw exposes the handle's identity for interop with other bindings.
// The value is stable across SetStream and only meaningful while the
// handle is alive.
func (h *Handle) Raw() uintptr {
	return h.raw
}

// Close releases the auxiliary streams and drops the primary-stream
// reference. Safe to call more than once; only the first call tears down.
// No other operation is legal after Close.
func (h *Handle) Close() error {
	if !h.closed.CompareAndSwap(false, true) {
		return nil
	}
	unregister(h.raw)

	var firstErr error
	for _, s := range h.aux {
		if status := h.rt.StreamDestroy(s); status != driver.StatusSuccess && firstErr == nil {
			firstErr = fmt.Errorf("destroy auxiliary stream %d: %s", s.ID(), status)
		}
	}
	h.primary = driver.DefaultStream

	logging.Logger().Debug("handle closed", zap.Uintptr("handle", h.raw))
	return firstErr
}

// GobEncode persists only the construction parameter. Stream references
// are process-local runtime handles and cannot cross a process boundary,
// so live state is deliberately not captured.
func (h *Handle) GobEncode() ([]byte, error) {
	buf := make([]byte, binary.MaxVarintLen64)
	n := binary.PutVarint(buf, int64(len(h.aux)))
	return buf[:n], nil
}

// GobDecode reconstructs the handle on the active runtime: a fresh
// auxiliary pool of the persisted size, primary stream re-bound to the
// default stream. A custom binding made before encoding is intentionally
// not restored.
func (h *Handle) GobDecode(data []byte) error {
	count, n := binary.Varint(data)
	if n <= 0 || count < 0 {
		return fmt.Errorf("malformed handle payload")
	}

	rt := driver.GetRuntime()
	aux, err := reserve(rt, int(count))
	if err != nil {
		return err
	}

	h.rt = rt
	h.primary = driver.DefaultStream
	h.aux = aux
	h.raw = register(h)
	h.closed.Store(false)
	return nil
}
