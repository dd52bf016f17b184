package storage

import (
	"encoding/csv"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"github.com/san-kum/gpustream/internal/bench"
)

type Store struct {
	baseDir string
}

func New(baseDir string) *Store {
	return &Store{baseDir: baseDir}
}

func (s *Store) Init() error {
	return os.MkdirAll(s.baseDir, 0755)
}

type RunMetadata struct {
	ID        string        `json:"id"`
	Runtime   string        `json:"runtime"`
	Timestamp time.Time     `json:"timestamp"`
	Streams   int           `json:"streams"`
	Tasks     int           `json:"tasks"`
	Elapsed   time.Duration `json:"elapsed"`
	MeanMs    float64       `json:"mean_ms"`
	MaxMs     float64       `json:"max_ms"`
}

func (s *Store) Save(runtimeName string, result *bench.Result) (string, error) {
	runID := fmt.Sprintf("bench_%d", time.Now().Unix())
	runDir := filepath.Join(s.baseDir, runID)

	if err := os.MkdirAll(runDir, 0755); err != nil {
		return "", err
	}

	series := result.LatencySeries()
	mean, max := 0.0, 0.0
	for _, v := range series {
		mean += v
		if v > max {
			max = v
		}
	}
	if len(series) > 0 {
		mean /= float64(len(series))
	}

	meta := RunMetadata{
		ID:        runID,
		Runtime:   runtimeName,
		Timestamp: time.Now(),
		Streams:   result.Streams,
		Tasks:     len(result.Latencies),
		Elapsed:   result.Elapsed,
		MeanMs:    mean,
		MaxMs:     max,
	}

	metaFile, err := os.Create(filepath.Join(runDir, "metadata.json"))
	if err != nil {
		return "", err
	}
	defer metaFile.Close()

	enc := json.NewEncoder(metaFile)
	enc.SetIndent("", "  ")
	if err := enc.Encode(meta); err != nil {
		return "", err
	}

	if err := s.writeSeries(filepath.Join(runDir, "latencies.csv"), series); err != nil {
		return "", err
	}

	return runID, nil
}

func (s *Store) writeSeries(path string, series []float64) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer f.Close()

	w := csv.NewWriter(f)
	defer w.Flush()

	if err := w.Write([]string{"task", "latency_ms"}); err != nil {
		return err
	}
	for i, v := range series {
		row := []string{
			strconv.Itoa(i),
			strconv.FormatFloat(v, 'f', 3, 64),
		}
		if err := w.Write(row); err != nil {
			return err
		}
	}
	return nil
}

func (s *Store) List() ([]RunMetadata, error) {
	entries, err := os.ReadDir(s.baseDir)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, err
	}

	var runs []RunMetadata
	for _, e := range entries {
		if !e.IsDir() {
			continue
		}
		meta, err := s.Load(e.Name())
		if err != nil {
			continue
		}
		runs = append(runs, *meta)
	}
	return runs, nil
}

func (s *Store) Load(runID string) (*RunMetadata, error) {
	data, err := os.ReadFile(filepath.Join(s.baseDir, runID, "metadata.json"))
	if err != nil {
		return nil, err
	}
	var meta RunMetadata
	if err := json.Unmarshal(data, &meta); err != nil {
		return nil, err
	}
	return &meta, nil
}
