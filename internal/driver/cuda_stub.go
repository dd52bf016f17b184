//go:build !cuda

package driver

type CUDARuntime struct{}

func NewCUDARuntime() *CUDARuntime {
	return &CUDARuntime{}
}

func (c *CUDARuntime) Name() string     { return "cuda (not available)" }
func (c *CUDARuntime) Available() bool  { return false }
func (c *CUDARuntime) DeviceCount() int { return 0 }

func (c *CUDARuntime) StreamCreate() (Stream, Status) {
	return Stream{}, StatusNotInitialized
}

func (c *CUDARuntime) StreamDestroy(s Stream) Status {
	return StatusNotInitialized
}

func (c *CUDARuntime) StreamSynchronize(s Stream) Status {
	return StatusNotInitialized
}

func (c *CUDARuntime) StreamQuery(s Stream) Status {
	return StatusNotInitialized
}

func (c *CUDARuntime) Cleanup() {}
