package handle

import (
	"fmt"

	"github.com/san-kum/gpustream/internal/driver"
)

// ResourceError reports that the device runtime could not reserve the
// requested auxiliary streams. Streams created before the failure are
// released before the error is returned.
type ResourceError struct {
	Requested int
	Created   int
	Code      driver.Status
}

func (e *ResourceError) Error() string {
	return fmt.Sprintf("reserve %d auxiliary streams (created %d): %s",
		e.Requested, e.Created, e.Code)
}

// SyncError wraps a device status code observed while waiting on the
// primary stream, typically a fault in previously launched work.
type SyncError struct {
	Code driver.Status
}

func (e *SyncError) Error() string {
	return fmt.Sprintf("stream synchronization failed: %s", e.Code)
}
