// Package driver provides the device runtime layer underneath compute
// handles.
//
// The package automatically selects the best available runtime:
//
//   - CUDA: real device streams via the CUDA runtime API
//   - Sim: host-side simulation for systems without a GPU
//
// # Streams
//
// A Stream is an ordered command queue. Work submitted to one stream runs
// in submission order; work on different streams may overlap. The zero
// Stream value is the runtime's default queue.
//
//	rt := driver.GetRuntime()
//	s, status := rt.StreamCreate()
//
// Build with CUDA support:
//
//	go build -tags cuda ./...
package driver
