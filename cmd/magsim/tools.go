package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"sort"
	"strconv"
	"strings"
	"text/tabwriter"

	"github.com/guptarohit/asciigraph"
	"github.com/spf13/cobra"

	"github.com/san-kum/magsim/internal/analysis"
	"github.com/san-kum/magsim/internal/automation"
	"github.com/san-kum/magsim/internal/optim"
	"github.com/san-kum/magsim/internal/sim"
)

var (
	sweepParams []string
	sweepMetric string
	parallel    int
)

func toolCommands() []*cobra.Command {
	sweepCmd := &cobra.Command{
		Use:   "sweep",
		Short: "grid search over knobs, minimizing a metric",
		Example: `  magsim sweep --param drag=0.9,0.95,0.99 --param restitution=0.5,1 --metric final_kinetic
  magsim sweep --preset gas --param seed=1,2,3,4 --metric max_speed`,
		RunE: runSweep,
	}
	sweepCmd.Flags().StringArrayVar(&sweepParams, "param", nil, "knob=v1,v2,... (repeatable; knobs: "+strings.Join(optim.Knobs(), ", ")+")")
	sweepCmd.Flags().StringVar(&sweepMetric, "metric", "final_kinetic", "metric to minimize")
	sweepCmd.Flags().IntVar(&parallel, "parallel", 0, "concurrent runs (0 = GOMAXPROCS)")

	analyzeCmd := &cobra.Command{
		Use:   "analyze",
		Short: "frequency analysis of kinetic energy, pair separation and spread",
		RunE:  runAnalyze,
	}

	scriptCmd := &cobra.Command{
		Use:   "script <file>",
		Short: "run a staged yaml script",
		Args:  cobra.ExactArgs(1),
		RunE:  runScript,
	}

	return []*cobra.Command{sweepCmd, analyzeCmd, scriptCmd}
}

func parseSweep(specs []string) ([]string, [][]float64, error) {
	if len(specs) == 0 {
		return nil, nil, fmt.Errorf("at least one --param is required")
	}
	names := make([]string, 0, len(specs))
	ranges := make([][]float64, 0, len(specs))
	for _, spec := range specs {
		name, list, ok := strings.Cut(spec, "=")
		if !ok {
			return nil, nil, fmt.Errorf("--param %q: expected knob=v1,v2", spec)
		}
		var values []float64
		for _, s := range strings.Split(list, ",") {
			v, err := strconv.ParseFloat(strings.TrimSpace(s), 64)
			if err != nil {
				return nil, nil, fmt.Errorf("--param %s: %w", name, err)
			}
			values = append(values, v)
		}
		names = append(names, strings.TrimSpace(name))
		ranges = append(ranges, values)
	}
	return names, ranges, nil
}

func runSweep(cmd *cobra.Command, args []string) error {
	cfg, err := resolveConfig(cmd)
	if err != nil {
		return err
	}
	names, ranges, err := parseSweep(sweepParams)
	if err != nil {
		return err
	}
	gs, err := optim.NewGridSearch(names, ranges)
	if err != nil {
		return err
	}
	gs.Parallel = parallel
	gs.Options = []sim.Option{sim.WithLogger(logger)}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	best, points, err := gs.Search(ctx, cfg, sweepMetric)
	if err != nil {
		return err
	}

	sort.SliceStable(points, func(i, j int) bool {
		return points[i].Metrics[sweepMetric] < points[j].Metrics[sweepMetric]
	})

	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintf(w, "%s\t%s\n", strings.ToUpper(strings.Join(names, "\t")), strings.ToUpper(sweepMetric))
	for _, p := range points {
		for _, name := range names {
			fmt.Fprintf(w, "%g\t", p.Params[name])
		}
		fmt.Fprintf(w, "%.6f\n", p.Metrics[sweepMetric])
	}
	if err := w.Flush(); err != nil {
		return err
	}

	fmt.Printf("\nbest %s = %.6f at", sweepMetric, best.Metrics[sweepMetric])
	for _, name := range names {
		fmt.Printf(" %s=%g", name, best.Params[name])
	}
	fmt.Println()
	return nil
}

func runAnalyze(cmd *cobra.Command, args []string) error {
	cfg, err := resolveConfig(cmd)
	if err != nil {
		return err
	}
	s, _, err := cfg.NewSimulation(sim.WithLogger(logger))
	if err != nil {
		return err
	}

	traces := map[string]*analysis.Trace{
		"kinetic_energy": analysis.NewTrace(analysis.KineticEnergy),
		"spread":         analysis.NewTrace(analysis.Spread),
	}
	if bodies := s.Bodies(); len(bodies) >= 2 {
		traces["separation"] = analysis.NewTrace(analysis.Separation(bodies[0], bodies[1]))
	}
	names := make([]string, 0, len(traces))
	for name, tr := range traces {
		s.AddObserver(tr)
		names = append(names, name)
	}
	sort.Strings(names)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()
	if _, err := s.Run(ctx, cfg.Steps, cfg.Dt); err != nil {
		return err
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "SERIES\tMIN\tMAX\tFINAL\tDOMINANT HZ\tMAGNITUDE")
	for _, name := range names {
		vals := traces[name].Values
		if len(vals) == 0 {
			continue
		}
		freq, mag := analysis.DominantFrequency(vals, cfg.Dt)
		fmt.Fprintf(w, "%s\t%.4g\t%.4g\t%.4g\t%.4f\t%.4g\n", name, minOf(vals), maxOf(vals), vals[len(vals)-1], freq, mag)
	}
	if err := w.Flush(); err != nil {
		return err
	}

	if tr, ok := traces["separation"]; ok && len(tr.Values) > 1 {
		fmt.Println()
		fmt.Println(asciigraph.Plot(tr.Values, asciigraph.Height(10), asciigraph.Width(60), asciigraph.Caption("separation of the first pair")))
	}
	return nil
}

func runScript(cmd *cobra.Command, args []string) error {
	script, err := automation.LoadScript(args[0])
	if err != nil {
		return err
	}
	base := script.Base()
	if cmd.Flags().Changed("seed") {
		base.Seed = seed
	}
	if cmd.Flags().Changed("dt") {
		base.Dt = dt
	}

	name := script.Name
	if name == "" {
		name = args[0]
	}
	fmt.Printf("script %s: %d stages\n", name, len(script.Stages))
	if script.Description != "" {
		fmt.Println(script.Description)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "STAGE\tBODIES\tFRAMES\tTIME\tKINETIC\tCOLLISIONS/FRAME")
	_, err = automation.Run(ctx, script, base, func(r automation.StageResult) {
		fmt.Fprintf(w, "%s\t%d\t%d\t%.2fs\t%.4g\t%.3f\n", r.Name, r.Bodies, r.Frames, r.Time, r.Metrics["final_kinetic"], r.Metrics["collision_rate"])
	}, sim.WithLogger(logger))
	if ferr := w.Flush(); ferr != nil && err == nil {
		err = ferr
	}
	return err
}

func minOf(v []float64) float64 {
	m := v[0]
	for _, x := range v[1:] {
		m = min(m, x)
	}
	return m
}

func maxOf(v []float64) float64 {
	m := v[0]
	for _, x := range v[1:] {
		m = max(m, x)
	}
	return m
}
