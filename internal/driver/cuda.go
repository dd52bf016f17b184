//go:build cuda

package driver

/*
#cgo CFLAGS: -I/opt/cuda/include
#cgo LDFLAGS: -L/opt/cuda/lib64 -lcudart
#include <cuda_runtime_api.h>
*/
import "C"
import (
	"sync"

	"go.uber.org/zap"

	"github.com/san-kum/gpustream/internal/logging"
)

type CUDARuntime struct {
	available  bool
	deviceName string
	devices    int

	mu      sync.Mutex
	streams map[uint64]C.cudaStream_t
	nextID  uint64
}

func NewCUDARuntime() *CUDARuntime {
	var count C.int
	if C.cudaGetDeviceCount(&count) != C.cudaSuccess {
		count = 0
	}

	name := ""
	if count > 0 {
		var props C.struct_cudaDeviceProp
		if C.cudaGetDeviceProperties(&props, 0) == C.cudaSuccess {
			name = C.GoString(&props.name[0])
		}
	}

	return &CUDARuntime{
		available:  count > 0,
		deviceName: name,
		devices:    int(count),
		streams:    make(map[uint64]C.cudaStream_t),
		nextID:     1,
	}
}

func (c *CUDARuntime) Name() string {
	if c.available {
		return "cuda (" + c.deviceName + ")"
	}
	return "cuda (not available)"
}

func (c *CUDARuntime) Available() bool  { return c.available }
func (c *CUDARuntime) DeviceCount() int { return c.devices }

func (c *CUDARuntime) StreamCreate() (Stream, Status) {
	if !c.available {
		return Stream{}, StatusNotInitialized
	}

	var cs C.cudaStream_t
	if err := C.cudaStreamCreateWithFlags(&cs, C.cudaStreamNonBlocking); err != C.cudaSuccess {
		return Stream{}, statusFromCUDA(err)
	}

	c.mu.Lock()
	id := c.nextID
	c.nextID++
	c.streams[id] = cs
	c.mu.Unlock()

	logging.Logger().Debug("cuda stream created", zap.Uint64("stream", id))
	return Stream{id: id}, StatusSuccess
}

func (c *CUDARuntime) StreamDestroy(s Stream) Status {
	if s.IsDefault() {
		return StatusInvalidValue
	}

	c.mu.Lock()
	cs, ok := c.streams[s.id]
	if ok {
		delete(c.streams, s.id)
	}
	c.mu.Unlock()

	if !ok {
		return StatusInvalidValue
	}
	return statusFromCUDA(C.cudaStreamDestroy(cs))
}

func (c *CUDARuntime) StreamSynchronize(s Stream) Status {
	cs, status := c.lookup(s)
	if status != StatusSuccess {
		return status
	}
	return statusFromCUDA(C.cudaStreamSynchronize(cs))
}

func (c *CUDARuntime) StreamQuery(s Stream) Status {
	cs, status := c.lookup(s)
	if status != StatusSuccess {
		return status
	}
	return statusFromCUDA(C.cudaStreamQuery(cs))
}

func (c *CUDARuntime) Cleanup() {
	c.mu.Lock()
	defer c.mu.Unlock()
	for id, cs := range c.streams {
		C.cudaStreamDestroy(cs)
		delete(c.streams, id)
	}
}

func (c *CUDARuntime) lookup(s Stream) (C.cudaStream_t, Status) {
	if !c.available {
		return nil, StatusNotInitialized
	}
	if s.IsDefault() {
		// Stream 0 is the runtime's own default queue.
		return nil, StatusSuccess
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	cs, ok := c.streams[s.id]
	if !ok {
		return nil, StatusInvalidValue
	}
	return cs, StatusSuccess
}

func statusFromCUDA(err C.cudaError_t) Status {
	switch err {
	case C.cudaSuccess:
		return StatusSuccess
	case C.cudaErrorInvalidValue, C.cudaErrorInvalidResourceHandle:
		return StatusInvalidValue
	case C.cudaErrorMemoryAllocation:
		return StatusMemoryAllocation
	case C.cudaErrorNotReady:
		return StatusNotReady
	case C.cudaErrorLaunchFailure:
		return StatusLaunchFailure
	default:
		return StatusUnknown
	}
}
