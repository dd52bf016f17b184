package main

import (
	"strings"
	"testing"
	"time"

	"github.com/san-kum/gpustream/internal/storage"
)

func TestPrintRuns(t *testing.T) {
	runs := []storage.RunMetadata{
		{
			ID:        "bench_1700000000",
			Runtime:   "sim (amd64)",
			Timestamp: time.Date(2026, 8, 25, 12, 0, 0, 0, time.UTC),
			Streams:   2,
			Tasks:     64,
			Elapsed:   80 * time.Millisecond,
			MeanMs:    2.5,
			MaxMs:     4.0,
		},
	}

	var b strings.Builder
	if err := printRuns(&b, runs); err != nil {
		t.Fatalf("print failed: %v", err)
	}

	out := b.String()
	for _, want := range []string{"ID", "bench_1700000000", "sim (amd64)", "2.50ms", "4.00ms"} {
		if !strings.Contains(out, want) {
			t.Errorf("output missing %q:\n%s", want, out)
		}
	}
}
