package driver

import (
	"errors"
	"sync"
	"testing"
	"time"
)

func TestSimStreamCreateDestroy(t *testing.T) {
	rt := NewSimRuntime(DefaultSimConfig())
	defer rt.Cleanup()

	s, status := rt.StreamCreate()
	if status != StatusSuccess {
		t.Fatalf("create failed: %s", status)
	}
	if s.IsDefault() {
		t.Error("created stream should not be the default stream")
	}
	if rt.LiveStreams() != 1 {
		t.Errorf("expected 1 live stream, got %d", rt.LiveStreams())
	}

	if status := rt.StreamDestroy(s); status != StatusSuccess {
		t.Errorf("destroy failed: %s", status)
	}
	if rt.LiveStreams() != 0 {
		t.Errorf("expected 0 live streams, got %d", rt.LiveStreams())
	}
}

func TestSimDestroyInvalid(t *testing.T) {
	rt := NewSimRuntime(DefaultSimConfig())
	defer rt.Cleanup()

	tests := []struct {
		name   string
		stream Stream
	}{
		{"default stream", DefaultStream},
		{"unknown stream", Stream{id: 12345}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if status := rt.StreamDestroy(tt.stream); status != StatusInvalidValue {
				t.Errorf("expected invalid value, got %s", status)
			}
		})
	}
}

func TestSimStreamCap(t *testing.T) {
	rt := NewSimRuntime(SimConfig{MaxStreams: 2})
	defer rt.Cleanup()

	for i := 0; i < 2; i++ {
		if _, status := rt.StreamCreate(); status != StatusSuccess {
			t.Fatalf("create %d failed: %s", i, status)
		}
	}

	if _, status := rt.StreamCreate(); status != StatusMemoryAllocation {
		t.Errorf("expected memory allocation failure, got %s", status)
	}
}

func TestSimOrderingWithinStream(t *testing.T) {
	rt := NewSimRuntime(DefaultSimConfig())
	defer rt.Cleanup()

	s, status := rt.StreamCreate()
	if status != StatusSuccess {
		t.Fatalf("create failed: %s", status)
	}

	var mu sync.Mutex
	var order []int
	for i := 0; i < 50; i++ {
		i := i
		rt.Submit(s, func() error {
			mu.Lock()
			order = append(order, i)
			mu.Unlock()
			return nil
		})
	}

	if status := rt.StreamSynchronize(s); status != StatusSuccess {
		t.Fatalf("synchronize failed: %s", status)
	}

	if len(order) != 50 {
		t.Fatalf("expected 50 tasks, got %d", len(order))
	}
	for i, v := range order {
		if v != i {
			t.Fatalf("task %d ran out of order (saw %d)", i, v)
		}
	}
}

func TestSimSynchronizeEmptyStream(t *testing.T) {
	rt := NewSimRuntime(DefaultSimConfig())
	defer rt.Cleanup()

	if status := rt.StreamSynchronize(DefaultStream); status != StatusSuccess {
		t.Errorf("empty-stream sync should succeed, got %s", status)
	}
}

func TestSimFaultIsSticky(t *testing.T) {
	rt := NewSimRuntime(DefaultSimConfig())
	defer rt.Cleanup()

	s, _ := rt.StreamCreate()
	rt.Submit(s, func() error { return errors.New("boom") })

	if status := rt.StreamSynchronize(s); status != StatusLaunchFailure {
		t.Fatalf("expected launch failure, got %s", status)
	}

	// Fault persists across later synchronizes and rejects new work.
	if status := rt.StreamSynchronize(s); status != StatusLaunchFailure {
		t.Errorf("fault should be sticky, got %s", status)
	}
	if status := rt.Submit(s, func() error { return nil }); status != StatusLaunchFailure {
		t.Errorf("submit after fault should fail, got %s", status)
	}
}

func TestSimStreamQuery(t *testing.T) {
	rt := NewSimRuntime(DefaultSimConfig())
	defer rt.Cleanup()

	s, _ := rt.StreamCreate()
	if status := rt.StreamQuery(s); status != StatusSuccess {
		t.Errorf("idle stream should report success, got %s", status)
	}

	release := make(chan struct{})
	rt.Submit(s, func() error {
		<-release
		return nil
	})

	// The task is either queued or running; both count as busy.
	deadline := time.After(time.Second)
	for rt.StreamQuery(s) != StatusNotReady {
		select {
		case <-deadline:
			t.Fatal("stream never reported busy")
		default:
			time.Sleep(time.Millisecond)
		}
	}

	close(release)
	if status := rt.StreamSynchronize(s); status != StatusSuccess {
		t.Fatalf("synchronize failed: %s", status)
	}
	if status := rt.StreamQuery(s); status != StatusSuccess {
		t.Errorf("drained stream should report success, got %s", status)
	}
}

func TestSimStreamsOverlap(t *testing.T) {
	rt := NewSimRuntime(DefaultSimConfig())
	defer rt.Cleanup()

	a, _ := rt.StreamCreate()
	b, _ := rt.StreamCreate()

	gate := make(chan struct{})
	done := make(chan struct{})

	// a blocks until b's task has run: only possible if the two streams
	// execute concurrently.
	rt.Submit(a, func() error {
		<-gate
		return nil
	})
	rt.Submit(b, func() error {
		close(gate)
		return nil
	})

	go func() {
		rt.StreamSynchronize(a)
		rt.StreamSynchronize(b)
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("streams did not overlap")
	}
}

func TestSimDepths(t *testing.T) {
	rt := NewSimRuntime(DefaultSimConfig())
	defer rt.Cleanup()

	s, _ := rt.StreamCreate()
	release := make(chan struct{})
	for i := 0; i < 3; i++ {
		rt.Submit(s, func() error {
			<-release
			return nil
		})
	}

	depths := rt.StreamDepths()
	if depths[s.ID()] == 0 {
		t.Error("expected non-zero depth for busy stream")
	}

	close(release)
	rt.StreamSynchronize(s)
}

func TestSimCleanupLeavesNoWorkers(t *testing.T) {
	rt := NewSimRuntime(DefaultSimConfig())

	s, _ := rt.StreamCreate()
	rt.Submit(s, func() error { return nil })
	rt.StreamSynchronize(DefaultStream)

	rt.Cleanup()

	// Terminal teardown keeps nothing alive, not even the default
	// stream's worker.
	rt.mu.Lock()
	remaining := len(rt.streams)
	rt.mu.Unlock()
	if remaining != 0 {
		t.Errorf("expected no streams after cleanup, got %d", remaining)
	}

	// The runtime stays usable: the default stream comes back on demand.
	if status := rt.StreamSynchronize(DefaultStream); status != StatusSuccess {
		t.Errorf("default stream should be recreated lazily, got %s", status)
	}
	if rt.LiveStreams() != 0 {
		t.Errorf("expected 0 live streams, got %d", rt.LiveStreams())
	}
	rt.Cleanup()
}

func TestAutoSelectRuntime(t *testing.T) {
	rt := AutoSelectRuntime()
	if rt == nil {
		t.Fatal("expected a runtime")
	}
	if !rt.Available() {
		t.Error("auto-selected runtime should be available")
	}
	rt.Cleanup()
}

func TestCUDAStubUnavailable(t *testing.T) {
	cuda := NewCUDARuntime()
	if cuda.Available() {
		t.Skip("CUDA present; stub assertions do not apply")
	}
	if _, status := cuda.StreamCreate(); status == StatusSuccess {
		t.Error("unavailable runtime should not create streams")
	}
}
