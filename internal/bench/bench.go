// Package bench drives timed host workloads through a handle's streams,
// the integration exercise for driver + handle + streampool.
package bench

import (
	"fmt"
	"sync"
	"time"

	"github.com/san-kum/gpustream/internal/driver"
	"github.com/san-kum/gpustream/internal/handle"
	"github.com/san-kum/gpustream/internal/streampool"
)

type Config struct {
	Tasks        int
	TaskDuration time.Duration
}

type Result struct {
	// Latencies holds per-task submit-to-completion times, indexed by
	// submission order.
	Latencies []time.Duration
	Elapsed   time.Duration
	Streams   int
}

// LatencySeries returns the latencies as float64 milliseconds, ready for
// plotting.
func (r *Result) LatencySeries() []float64 {
	series := make([]float64, len(r.Latencies))
	for i, d := range r.Latencies {
		series[i] = float64(d.Microseconds()) / 1000.0
	}
	return series
}

// Run dispatches cfg.Tasks host tasks across h's auxiliary pool (or the
// primary stream when the pool is empty) and waits for completion.
func Run(h *handle.Handle, cfg Config) (*Result, error) {
	if cfg.Tasks <= 0 {
		return nil, fmt.Errorf("task count must be positive, got %d", cfg.Tasks)
	}

	sub, ok := h.Runtime().(driver.Submitter)
	if !ok {
		return nil, fmt.Errorf("runtime %q cannot run host tasks", h.Runtime().Name())
	}

	start := time.Now()
	latencies := make([]time.Duration, cfg.Tasks)

	if h.AuxStreamCount() == 0 {
		if err := runOnPrimary(h, sub, cfg, latencies); err != nil {
			return nil, err
		}
		return &Result{Latencies: latencies, Elapsed: time.Since(start), Streams: 1}, nil
	}

	pool, err := streampool.New(h)
	if err != nil {
		return nil, err
	}

	var wg sync.WaitGroup
	for i := 0; i < cfg.Tasks; i++ {
		i := i
		s := pool.Take()
		submitted := time.Now()
		wg.Add(1)
		status := sub.Submit(s, func() error {
			defer wg.Done()
			time.Sleep(cfg.TaskDuration)
			latencies[i] = time.Since(submitted)
			pool.Return(s)
			return nil
		})
		if status != driver.StatusSuccess {
			wg.Done()
			pool.Return(s)
			return nil, fmt.Errorf("submit task %d: %s", i, status)
		}
	}
	wg.Wait()

	for i := 0; i < h.AuxStreamCount(); i++ {
		if status := h.Runtime().StreamSynchronize(h.AuxStream(i)); status != driver.StatusSuccess {
			return nil, fmt.Errorf("drain auxiliary stream %d: %s", i, status)
		}
	}

	return &Result{
		Latencies: latencies,
		Elapsed:   time.Since(start),
		Streams:   h.AuxStreamCount(),
	}, nil
}

func runOnPrimary(h *handle.Handle, sub driver.Submitter, cfg Config, latencies []time.Duration) error {
	for i := 0; i < cfg.Tasks; i++ {
		i := i
		submitted := time.Now()
		status := sub.Submit(h.Stream(), func() error {
			time.Sleep(cfg.TaskDuration)
			latencies[i] = time.Since(submitted)
			return nil
		})
		if status != driver.StatusSuccess {
			return fmt.Errorf("submit task %d: %s", i, status)
		}
	}
	return h.Synchronize()
}
