package optim

import (
	"context"
	"fmt"
	"maps"
	"math"
	"runtime"
	"sort"

	"golang.org/x/sync/errgroup"

	"github.com/san-kum/magsim/internal/config"
	"github.com/san-kum/magsim/internal/dynamo"
	"github.com/san-kum/magsim/internal/metrics"
	"github.com/san-kum/magsim/internal/sim"
)

// Setters maps sweepable knob names to their config fields.
var Setters = map[string]func(*config.Config, float64){
	"force_constant":   func(c *config.Config, v float64) { c.Physics.ForceConstant = v },
	"drag":             func(c *config.Config, v float64) { c.Physics.Drag = v },
	"max_velocity":     func(c *config.Config, v float64) { c.Physics.MaxVelocity = v },
	"restitution":      func(c *config.Config, v float64) { c.Physics.Restitution = v },
	"wall_restitution": func(c *config.Config, v float64) { c.Physics.WallRestitution = v },
	"bodies":           func(c *config.Config, v float64) { c.Random.Count = int(v) },
	"scale":            func(c *config.Config, v float64) { c.Random.Scale = v },
	"speed":            func(c *config.Config, v float64) { c.Random.Speed = v },
	"seed":             func(c *config.Config, v float64) { c.Seed = int64(v) },
}

func Knobs() []string {
	names := make([]string, 0, len(Setters))
	for name := range Setters {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Point is one evaluated combination of knob values.
type Point struct {
	Params  map[string]float64
	Metrics map[string]float64
}

// GridSearch runs the base configuration once for every combination of knob
// values. Runs are independent simulations and execute concurrently.
type GridSearch struct {
	paramNames []string
	ranges     [][]float64
	// Parallel bounds the concurrent runs; 0 means GOMAXPROCS.
	Parallel int
	// Options are passed to every simulation.
	Options []sim.Option
}

func NewGridSearch(params []string, ranges [][]float64) (*GridSearch, error) {
	if len(params) != len(ranges) {
		return nil, fmt.Errorf("%d params but %d ranges: %w", len(params), len(ranges), dynamo.ErrParameterBounds)
	}
	for i, name := range params {
		if _, ok := Setters[name]; !ok {
			return nil, fmt.Errorf("unknown knob %q (available: %v)", name, Knobs())
		}
		if len(ranges[i]) == 0 {
			return nil, fmt.Errorf("knob %q has no values: %w", name, dynamo.ErrParameterBounds)
		}
	}
	return &GridSearch{paramNames: params, ranges: ranges}, nil
}

// combinations enumerates the grid in row-major order.
func (g *GridSearch) combinations() []map[string]float64 {
	out := []map[string]float64{{}}
	for depth, name := range g.paramNames {
		next := make([]map[string]float64, 0, len(out)*len(g.ranges[depth]))
		for _, current := range out {
			for _, val := range g.ranges[depth] {
				p := maps.Clone(current)
				p[name] = val
				next = append(next, p)
			}
		}
		out = next
	}
	return out
}

// Evaluate runs every grid point and returns the points in grid order. The
// first failing run cancels the rest.
func (g *GridSearch) Evaluate(ctx context.Context, base *config.Config) ([]Point, error) {
	combos := g.combinations()
	points := make([]Point, len(combos))

	limit := g.Parallel
	if limit <= 0 {
		limit = runtime.GOMAXPROCS(0)
	}
	eg, ctx := errgroup.WithContext(ctx)
	eg.SetLimit(limit)

	for i, params := range combos {
		eg.Go(func() error {
			cfg := base.Clone()
			for name, v := range params {
				Setters[name](cfg, v)
			}
			// Pair phases stay sequential inside each run; runs are the unit
			// of parallelism here.
			cfg.Physics.Workers = 1

			s, _, err := cfg.NewSimulation(g.Options...)
			if err != nil {
				return fmt.Errorf("%v: %w", params, err)
			}
			for _, m := range metrics.Standard() {
				s.AddMetric(m)
			}
			res, err := s.Run(ctx, cfg.Steps, cfg.Dt)
			if err != nil {
				return fmt.Errorf("%v: %w", params, err)
			}
			points[i] = Point{Params: params, Metrics: res.Metrics}
			return nil
		})
	}
	if err := eg.Wait(); err != nil {
		return nil, err
	}
	return points, nil
}

// Search evaluates the grid and returns the point minimizing metricName.
func (g *GridSearch) Search(ctx context.Context, base *config.Config, metricName string) (Point, []Point, error) {
	points, err := g.Evaluate(ctx, base)
	if err != nil {
		return Point{}, nil, err
	}

	best, bestVal := Point{}, math.Inf(1)
	for _, p := range points {
		val, ok := p.Metrics[metricName]
		if !ok {
			return Point{}, nil, fmt.Errorf("unknown metric %q", metricName)
		}
		if val < bestVal {
			best, bestVal = p, val
		}
	}
	return best, points, nil
}
