package main

import (
	"context"
	"fmt"
	"io"
	"math/rand"
	"os"
	"os/signal"
	"strconv"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/charmbracelet/log"
	"github.com/guptarohit/asciigraph"
	"github.com/spf13/cobra"

	"github.com/san-kum/magsim/internal/config"
	"github.com/san-kum/magsim/internal/dynamo"
	"github.com/san-kum/magsim/internal/export"
	"github.com/san-kum/magsim/internal/metrics"
	"github.com/san-kum/magsim/internal/sim"
	"github.com/san-kum/magsim/internal/viz"
)

var (
	logLevel   string
	configFile string
	preset     string
	dt         float64
	steps      int
	seed       int64
	numBodies  int
	scale      float64
	workers    int
	// pick
	origin string
	dir    string
	// export
	every  int
	size   int
	trails bool
	theme  string
)

var logger = log.NewWithOptions(os.Stderr, log.Options{Prefix: "magsim", Level: log.WarnLevel})

// main registers the magsim commands and runs the root command. With no
// subcommand it opens the interactive preset picker.
func main() {
	rootCmd := &cobra.Command{
		Use:           "magsim",
		Short:         "magnetic sphere simulation",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			lvl, err := log.ParseLevel(logLevel)
			if err != nil {
				return err
			}
			logger.SetLevel(lvl)
			return nil
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			viz.SetTheme(theme)
			return viz.RunInteractive(sim.WithLogger(logger))
		},
	}

	pf := rootCmd.PersistentFlags()
	pf.StringVar(&logLevel, "log-level", "warn", "log level (debug, info, warn, error)")
	pf.StringVar(&configFile, "config", "", "config file path (yaml)")
	pf.StringVar(&preset, "preset", "", "use preset configuration")
	pf.Float64Var(&dt, "dt", config.DefaultDt, "timestep")
	pf.IntVar(&steps, "steps", config.DefaultSteps, "frames to simulate")
	pf.Int64Var(&seed, "seed", config.DefaultSeed, "random seed")
	pf.IntVar(&numBodies, "bodies", config.DefaultRandomCount, "number of random bodies")
	pf.Float64Var(&scale, "scale", config.DefaultRandomScale, "scale of random bodies")
	pf.IntVar(&workers, "workers", 0, "worker goroutines for pair phases (0 = GOMAXPROCS)")
	pf.StringVar(&theme, "theme", viz.ThemeClassic.Name, "color theme ("+strings.Join(viz.ThemeNames(), ", ")+")")

	runCmd := &cobra.Command{
		Use:   "run",
		Short: "run simulation headless and report metrics",
		RunE:  runSimulation,
	}

	liveCmd := &cobra.Command{
		Use:   "live",
		Short: "run simulation with live visualization",
		RunE:  runLive,
	}

	pickCmd := &cobra.Command{
		Use:   "pick",
		Short: "run the scene, then report the first body hit by a ray",
		RunE:  runPick,
	}
	pickCmd.Flags().StringVar(&origin, "origin", "0,0,-1000", "ray origin x,y,z")
	pickCmd.Flags().StringVar(&dir, "dir", "0,0,1", "ray direction x,y,z")

	exportCSVCmd := &cobra.Command{
		Use:   "export-csv [file]",
		Short: "export body trajectories to CSV (stdout if no file)",
		Args:  cobra.MaximumNArgs(1),
		RunE:  exportCSV,
	}
	exportCSVCmd.Flags().IntVar(&every, "every", 1, "write every n-th frame")

	exportSVGCmd := &cobra.Command{
		Use:   "export-svg [file]",
		Short: "export a top-down SVG of the final frame (stdout if no file)",
		Args:  cobra.MaximumNArgs(1),
		RunE:  exportSVG,
	}
	exportSVGCmd.Flags().IntVar(&size, "size", 800, "image size in pixels")
	exportSVGCmd.Flags().BoolVar(&trails, "trails", false, "draw trajectories instead of the final frame")
	exportSVGCmd.Flags().IntVar(&every, "every", 5, "trajectory sample interval in frames")

	presetsCmd := &cobra.Command{
		Use:   "presets",
		Short: "list presets",
		RunE:  listPresets,
	}

	configCmd := &cobra.Command{
		Use:   "config",
		Short: "print the resolved configuration as yaml",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := resolveConfig(cmd)
			if err != nil {
				return err
			}
			return config.Write(os.Stdout, cfg)
		},
	}

	benchCmd := &cobra.Command{
		Use:   "bench",
		Short: "benchmark step throughput by body and worker count",
		RunE:  runBench,
	}

	rootCmd.AddCommand(runCmd, liveCmd, pickCmd, exportCSVCmd, exportSVGCmd, presetsCmd, configCmd, benchCmd)
	rootCmd.AddCommand(toolCommands()...)

	if err := rootCmd.Execute(); err != nil {
		logger.Error("command failed", "err", err)
		os.Exit(1)
	}
}

// resolveConfig layers defaults, the preset, the config file and finally any
// flags set on the command line.
func resolveConfig(cmd *cobra.Command) (*config.Config, error) {
	cfg := config.DefaultConfig()
	if preset != "" {
		cfg = config.GetPreset(preset)
		if cfg == nil {
			return nil, fmt.Errorf("unknown preset: %s (available: %v)", preset, config.ListPresets())
		}
	}

	if configFile != "" {
		loaded, err := config.Load(configFile)
		if err != nil {
			return nil, fmt.Errorf("failed to load config: %w", err)
		}
		cfg = loaded
	}

	flags := cmd.Flags()
	if flags.Changed("dt") {
		cfg.Dt = dt
	}
	if flags.Changed("steps") {
		cfg.Steps = steps
	}
	if flags.Changed("seed") {
		cfg.Seed = seed
	}
	if flags.Changed("bodies") {
		cfg.Random.Count = numBodies
	}
	if flags.Changed("scale") {
		cfg.Random.Scale = scale
	}
	if flags.Changed("workers") {
		cfg.Physics.Workers = workers
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	return cfg, nil
}

func sceneName() string {
	switch {
	case configFile != "":
		return configFile
	case preset != "":
		return preset
	}
	return "default"
}

// kineticTrace records total kinetic energy after every frame.
type kineticTrace struct {
	values []float64
}

func (k *kineticTrace) OnStep(bodies []*dynamo.Body, stats dynamo.StepStats, t float64) {
	var ke float64
	for _, b := range bodies {
		ke += b.KineticEnergy()
	}
	k.values = append(k.values, ke)
}

func runSimulation(cmd *cobra.Command, args []string) error {
	cfg, err := resolveConfig(cmd)
	if err != nil {
		return err
	}
	s, _, err := cfg.NewSimulation(sim.WithLogger(logger))
	if err != nil {
		return err
	}
	for _, m := range metrics.Standard() {
		s.AddMetric(m)
	}
	trace := &kineticTrace{}
	s.AddObserver(trace)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	fmt.Printf("running %s: %d bodies, %d frames...\n", sceneName(), s.Len(), cfg.Steps)
	start := time.Now()
	result, err := s.Run(ctx, cfg.Steps, cfg.Dt)
	elapsed := time.Since(start)
	if err != nil && result == nil {
		return err
	}
	if err != nil {
		logger.Warn("run interrupted", "frames", result.Frames, "err", err)
	}

	fmt.Printf("completed in %v\n", elapsed)
	fmt.Printf("frames: %d (%.2fs simulated)\n", result.Frames, result.Time)
	fmt.Printf("contacts: %d collisions, %d wall\n", result.Collisions, result.WallContacts)
	fmt.Println("\nmetrics:")
	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	for _, m := range metrics.Standard() {
		fmt.Fprintf(w, "  %s\t%.6f\n", m.Name(), result.Metrics[m.Name()])
	}
	if err := w.Flush(); err != nil {
		return err
	}

	if len(trace.values) > 1 {
		fmt.Println()
		fmt.Println(asciigraph.Plot(trace.values, asciigraph.Height(10), asciigraph.Width(60), asciigraph.Caption("kinetic energy")))
	}
	return nil
}

func runLive(cmd *cobra.Command, args []string) error {
	cfg, err := resolveConfig(cmd)
	if err != nil {
		return err
	}
	viz.SetTheme(theme)
	return viz.RunLive(sceneName(), cfg.Dt, func() (*sim.Simulation, *rand.Rand, error) {
		return cfg.NewSimulation(sim.WithLogger(logger))
	})
}

func parseVec(s string) (dynamo.Vec, error) {
	parts := strings.Split(s, ",")
	if len(parts) != 3 {
		return dynamo.Vec{}, fmt.Errorf("expected x,y,z, got %q", s)
	}
	var v dynamo.Vec
	for i, p := range parts {
		f, err := strconv.ParseFloat(strings.TrimSpace(p), 64)
		if err != nil {
			return dynamo.Vec{}, fmt.Errorf("component %d of %q: %w", i, s, err)
		}
		v[i] = f
	}
	return v, nil
}

// simulate builds the scene and runs it to completion with the given
// observers attached.
func simulate(cmd *cobra.Command, observers ...dynamo.Observer) (*sim.Simulation, error) {
	cfg, err := resolveConfig(cmd)
	if err != nil {
		return nil, err
	}
	s, _, err := cfg.NewSimulation(sim.WithLogger(logger))
	if err != nil {
		return nil, err
	}
	for _, o := range observers {
		s.AddObserver(o)
	}
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()
	if _, err := s.Run(ctx, cfg.Steps, cfg.Dt); err != nil {
		return nil, err
	}
	return s, nil
}

func runPick(cmd *cobra.Command, args []string) error {
	o, err := parseVec(origin)
	if err != nil {
		return fmt.Errorf("--origin: %w", err)
	}
	d, err := parseVec(dir)
	if err != nil {
		return fmt.Errorf("--dir: %w", err)
	}

	s, err := simulate(cmd)
	if err != nil {
		return err
	}
	b, dist, ok := s.NearestHit(o, d)
	if !ok {
		fmt.Println("no hit")
		return nil
	}
	pole := "negative"
	if b.Positive {
		pole = "positive"
	}
	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintf(w, "body\t%d\n", b.ID)
	fmt.Fprintf(w, "distance\t%.3f\n", dist)
	fmt.Fprintf(w, "position\t%.3f, %.3f, %.3f\n", b.Position.X(), b.Position.Y(), b.Position.Z())
	fmt.Fprintf(w, "velocity\t%.3f, %.3f, %.3f\n", b.Velocity.X(), b.Velocity.Y(), b.Velocity.Z())
	fmt.Fprintf(w, "mass\t%.3f\n", b.Mass())
	fmt.Fprintf(w, "strength\t%.3f\n", b.Strength())
	fmt.Fprintf(w, "polarity\t%s\n", pole)
	fmt.Fprintf(w, "radius\t%.3f\n", b.Radius())
	return w.Flush()
}

// output returns the named file, or stdout when no name is given.
func output(args []string) (io.WriteCloser, error) {
	if len(args) == 0 {
		return nopCloser{os.Stdout}, nil
	}
	return os.Create(args[0])
}

type nopCloser struct{ io.Writer }

func (nopCloser) Close() error { return nil }

// sampled forwards every n-th frame to an observer.
type sampled struct {
	n    int
	next dynamo.Observer
}

func (s sampled) OnStep(bodies []*dynamo.Body, stats dynamo.StepStats, t float64) {
	if stats.Frame%s.n == 0 {
		s.next.OnStep(bodies, stats, t)
	}
}

func exportCSV(cmd *cobra.Command, args []string) error {
	out, err := output(args)
	if err != nil {
		return err
	}
	defer out.Close()

	tw := export.NewTrajectoryWriter(out)
	if _, err := simulate(cmd, sampled{n: max(1, every), next: tw}); err != nil {
		return err
	}
	if err := tw.Flush(); err != nil {
		return err
	}
	if len(args) > 0 {
		fmt.Fprintf(os.Stderr, "exported to %s\n", args[0])
	}
	return out.Close()
}

func exportSVG(cmd *cobra.Command, args []string) error {
	rec := export.NewPathRecorder(every)
	s, err := simulate(cmd, rec)
	if err != nil {
		return err
	}

	svg := export.SnapshotSVG(s.Bounds(), s.Bodies(), size)
	if trails {
		svg = export.TrajectorySVG(s.Bounds(), rec.Paths(), size)
	}

	out, err := output(args)
	if err != nil {
		return err
	}
	defer out.Close()
	if _, err := io.WriteString(out, svg); err != nil {
		return err
	}
	if len(args) > 0 {
		fmt.Fprintf(os.Stderr, "exported to %s\n", args[0])
	}
	return out.Close()
}

func listPresets(cmd *cobra.Command, args []string) error {
	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "PRESET\tBODIES\tBOUNDS\tSTEPS")
	for _, name := range config.ListPresets() {
		cfg := config.GetPreset(name)
		b, err := cfg.BoundingBox()
		if err != nil {
			return err
		}
		size := b.Size()
		fmt.Fprintf(w, "%s\t%d\t%.0fx%.0fx%.0f\t%d\n", name, len(cfg.Bodies)+cfg.Random.Count, size.X(), size.Y(), size.Z(), cfg.Steps)
	}
	return w.Flush()
}

func runBench(cmd *cobra.Command, args []string) error {
	counts := []int{16, 64, 256, 1024}
	workerCounts := []int{1, 0}

	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "BODIES\tWORKERS\tFRAMES\tTIME\tFRAMES/SEC")
	for _, n := range counts {
		for _, wk := range workerCounts {
			cfg := config.DefaultConfig()
			cfg.Random = config.RandomConfig{Count: n, Scale: 0.1}
			cfg.Physics.Workers = wk
			cfg.Steps = max(10, 20000/n)

			s, _, err := cfg.NewSimulation(sim.WithLogger(logger))
			if err != nil {
				return err
			}
			start := time.Now()
			res, err := s.Run(context.Background(), cfg.Steps, cfg.Dt)
			if err != nil {
				return err
			}
			elapsed := time.Since(start)

			label := strconv.Itoa(wk)
			if wk == 0 {
				label = "auto"
			}
			fmt.Fprintf(w, "%d\t%s\t%d\t%v\t%.0f\n", n, label, res.Frames, elapsed.Round(time.Microsecond), float64(res.Frames)/elapsed.Seconds())
		}
	}
	return w.Flush()
}
