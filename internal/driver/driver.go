package driver

// Stream identifies a device command queue. Work submitted to one stream
// executes in submission order; work on different streams may overlap.
// The zero value is the process-wide default stream.
type Stream struct {
	id uint64
}

// DefaultStream is the device's default command queue. It always exists
// and cannot be destroyed.
var DefaultStream = Stream{}

func (s Stream) IsDefault() bool { return s.id == 0 }

// ID exposes the stream's native identity for interop with other bindings
// operating on the same runtime. Only meaningful while the stream is alive.
func (s Stream) ID() uint64 { return s.id }

// Status is a device runtime status code.
type Status int

const (
	StatusSuccess Status = iota
	StatusInvalidValue
	StatusMemoryAllocation
	StatusNotInitialized
	StatusLaunchFailure
	StatusNotReady
	StatusUnknown
)

func (s Status) String() string {
	switch s {
	case StatusSuccess:
		return "success"
	case StatusInvalidValue:
		return "invalid value"
	case StatusMemoryAllocation:
		return "memory allocation failed"
	case StatusNotInitialized:
		return "runtime not initialized"
	case StatusLaunchFailure:
		return "launch failure"
	case StatusNotReady:
		return "not ready"
	default:
		return "unknown error"
	}
}

// Task is a unit of host work enqueued on a simulated stream. A non-nil
// error poisons the stream: later synchronization reports the fault.
type Task func() error

// Runtime is a device runtime capable of managing execution streams.
type Runtime interface {
	Name() string
	Available() bool
	DeviceCount() int

	StreamCreate() (Stream, Status)
	StreamDestroy(s Stream) Status

	// StreamSynchronize blocks until all work enqueued on s has completed.
	StreamSynchronize(s Stream) Status

	// StreamQuery reports StatusSuccess when s is idle, StatusNotReady
	// when work is still pending.
	StreamQuery(s Stream) Status

	Cleanup()
}

// Submitter is implemented by runtimes that can run host tasks on a stream.
type Submitter interface {
	Submit(s Stream, t Task) Status
}

var activeRuntime Runtime

func init() {
	// Auto-select best available runtime (CUDA if available, else host sim)
	activeRuntime = AutoSelectRuntime()
}

func SetRuntime(rt Runtime) {
	if activeRuntime != nil {
		activeRuntime.Cleanup()
	}
	activeRuntime = rt
}

func GetRuntime() Runtime {
	return activeRuntime
}

func AutoSelectRuntime() Runtime {
	cuda := NewCUDARuntime()
	if cuda.Available() {
		return cuda
	}
	return NewSimRuntime(DefaultSimConfig())
}
