package main

import (
	"fmt"
	"io"
	"math/rand"
	"os"
	"text/tabwriter"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/guptarohit/asciigraph"
	"github.com/spf13/cobra"

	"github.com/san-kum/gpustream/internal/bench"
	"github.com/san-kum/gpustream/internal/config"
	"github.com/san-kum/gpustream/internal/driver"
	"github.com/san-kum/gpustream/internal/handle"
	"github.com/san-kum/gpustream/internal/logging"
	"github.com/san-kum/gpustream/internal/storage"
	"github.com/san-kum/gpustream/internal/tui"
)

var (
	dataDir    string
	configFile string
	preset     string
	auxStreams int
	tasks      int
	taskMs     int
)

func main() {
	rootCmd := &cobra.Command{
		Use:   "gpustream",
		Short: "compute-stream handle playground",
	}

	rootCmd.PersistentFlags().StringVar(&dataDir, "data", ".gpustream", "data directory")
	rootCmd.PersistentFlags().StringVar(&configFile, "config", "", "config file (yaml)")
	rootCmd.PersistentFlags().StringVar(&preset, "preset", "", "config preset (minimal, throughput, debug)")

	infoCmd := &cobra.Command{
		Use:   "info",
		Short: "show runtime information",
		RunE:  runInfo,
	}

	benchCmd := &cobra.Command{
		Use:   "bench",
		Short: "dispatch a timed workload across the auxiliary pool",
		RunE:  runBench,
	}
	benchCmd.Flags().IntVar(&auxStreams, "streams", -1, "auxiliary stream count (-1: from config)")
	benchCmd.Flags().IntVar(&tasks, "tasks", 64, "number of tasks")
	benchCmd.Flags().IntVar(&taskMs, "task-ms", 2, "per-task duration in milliseconds")

	watchCmd := &cobra.Command{
		Use:   "watch",
		Short: "live per-stream queue monitor (sim runtime)",
		RunE:  runWatch,
	}
	watchCmd.Flags().IntVar(&auxStreams, "streams", -1, "auxiliary stream count (-1: from config)")

	listCmd := &cobra.Command{
		Use:   "list",
		Short: "list saved bench runs",
		RunE:  listRuns,
	}

	rootCmd.AddCommand(infoCmd, benchCmd, watchCmd, listCmd)

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func loadConfig() (*config.Config, error) {
	var cfg *config.Config
	switch {
	case configFile != "":
		loaded, err := config.Load(configFile)
		if err != nil {
			return nil, err
		}
		cfg = loaded
	case preset != "":
		cfg = config.GetPreset(preset)
		if cfg == nil {
			return nil, fmt.Errorf("unknown preset %q (have %v)", preset, config.ListPresets())
		}
	default:
		cfg = config.DefaultConfig()
	}

	if _, err := logging.Init(cfg.LogLevel); err != nil {
		return nil, err
	}
	return cfg, nil
}

func buildRuntime(cfg *config.Config) (driver.Runtime, error) {
	switch cfg.Runtime {
	case "cuda":
		rt := driver.NewCUDARuntime()
		if !rt.Available() {
			return nil, fmt.Errorf("cuda runtime not available")
		}
		return rt, nil
	case "sim":
		return driver.NewSimRuntime(driver.SimConfig{MaxStreams: cfg.Sim.MaxStreams}), nil
	default:
		return driver.AutoSelectRuntime(), nil
	}
}

func streamCount(cfg *config.Config) int {
	if auxStreams >= 0 {
		return auxStreams
	}
	return cfg.AuxStreams
}

func runInfo(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	rt, err := buildRuntime(cfg)
	if err != nil {
		return err
	}
	defer rt.Cleanup()

	w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
	fmt.Fprintf(w, "runtime:\t%s\n", rt.Name())
	fmt.Fprintf(w, "available:\t%v\n", rt.Available())
	fmt.Fprintf(w, "devices:\t%d\n", rt.DeviceCount())
	fmt.Fprintf(w, "aux streams:\t%d\n", cfg.AuxStreams)
	return w.Flush()
}

func runBench(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	rt, err := buildRuntime(cfg)
	if err != nil {
		return err
	}
	defer rt.Cleanup()

	h, err := handle.NewWithRuntime(rt, streamCount(cfg))
	if err != nil {
		return err
	}
	defer h.Close()

	result, err := bench.Run(h, bench.Config{
		Tasks:        tasks,
		TaskDuration: time.Duration(taskMs) * time.Millisecond,
	})
	if err != nil {
		return err
	}

	fmt.Printf("%d tasks over %d stream(s) in %v\n\n", tasks, result.Streams, result.Elapsed)
	fmt.Println(asciigraph.Plot(result.LatencySeries(),
		asciigraph.Height(10),
		asciigraph.Caption("per-task latency (ms)")))

	store := storage.New(dataDir)
	if err := store.Init(); err != nil {
		return err
	}
	runID, err := store.Save(rt.Name(), result)
	if err != nil {
		return err
	}
	fmt.Printf("\nsaved run %s\n", runID)
	return nil
}

func listRuns(cmd *cobra.Command, args []string) error {
	st := storage.New(dataDir)
	runs, err := st.List()
	if err != nil {
		return err
	}

	if len(runs) == 0 {
		fmt.Println("no runs found")
		return nil
	}

	return printRuns(os.Stdout, runs)
}

func printRuns(out io.Writer, runs []storage.RunMetadata) error {
	w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "ID\tRUNTIME\tTIME\tSTREAMS\tTASKS\tELAPSED\tMEAN\tMAX")

	for _, run := range runs {
		fmt.Fprintf(w, "%s\t%s\t%s\t%d\t%d\t%v\t%.2fms\t%.2fms\n",
			run.ID,
			run.Runtime,
			run.Timestamp.Format("2006-01-02 15:04:05"),
			run.Streams,
			run.Tasks,
			run.Elapsed,
			run.MeanMs,
			run.MaxMs,
		)
	}

	return w.Flush()
}

func runWatch(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	// The monitor reads queue depths, which only the sim runtime exposes.
	rt := driver.NewSimRuntime(driver.SimConfig{MaxStreams: cfg.Sim.MaxStreams})
	defer rt.Cleanup()

	n := streamCount(cfg)
	if n == 0 {
		n = config.DefaultAuxStreams
	}
	h, err := handle.NewWithRuntime(rt, n)
	if err != nil {
		return err
	}
	defer h.Close()

	done := make(chan struct{})
	go generateLoad(rt, h, done)
	defer close(done)

	p := tea.NewProgram(tui.NewModel(rt, h))
	_, err = p.Run()
	return err
}

// generateLoad keeps the streams busy with randomly-sized sleep tasks so
// the monitor has something to show.
func generateLoad(rt *driver.SimRuntime, h *handle.Handle, done chan struct{}) {
	rng := rand.New(rand.NewSource(time.Now().UnixNano()))
	for {
		select {
		case <-done:
			return
		default:
		}

		s := h.Stream()
		if n := h.AuxStreamCount(); n > 0 && rng.Intn(4) != 0 {
			s = h.AuxStream(rng.Intn(n))
		}
		d := time.Duration(rng.Intn(400)) * time.Millisecond
		rt.Submit(s, func() error {
			time.Sleep(d)
			return nil
		})
		time.Sleep(time.Duration(50+rng.Intn(150)) * time.Millisecond)
	}
}
