package automation

import (
	"context"
	"fmt"
	"math"
	"os"
	"sort"

	"gopkg.in/yaml.v3"

	"github.com/san-kum/magsim/internal/config"
	"github.com/san-kum/magsim/internal/dynamo"
	"github.com/san-kum/magsim/internal/metrics"
	"github.com/san-kum/magsim/internal/sim"
)

// Script is a staged run of one scene. Between stages the registry and the
// physics knobs may change; a stage never interrupts a frame.
type Script struct {
	Name        string  `yaml:"name"`
	Description string  `yaml:"description"`
	Preset      string  `yaml:"preset"`
	Stages      []Stage `yaml:"stages"`
}

// Stage applies its changes, then runs Frames frames.
type Stage struct {
	Name   string               `yaml:"name"`
	Frames int                  `yaml:"frames"`
	Params map[string]float64   `yaml:"params,omitempty"`
	Spawn  int                  `yaml:"spawn,omitempty"`
	Scale  float64              `yaml:"scale,omitempty"`
	Remove int                  `yaml:"remove,omitempty"`
	Bounds *config.BoundsConfig `yaml:"bounds,omitempty"`
}

// StageResult summarizes one finished stage.
type StageResult struct {
	Name    string
	Bodies  int
	Frames  int
	Time    float64
	Metrics map[string]float64
}

var paramSetters = map[string]func(*sim.Params, float64){
	"force_constant":   func(p *sim.Params, v float64) { p.ForceConstant = v },
	"min_distance":     func(p *sim.Params, v float64) { p.MinDistance = v },
	"drag":             func(p *sim.Params, v float64) { p.Drag = v },
	"max_velocity":     func(p *sim.Params, v float64) { p.MaxSpeed = v },
	"rest_speed_sq":    func(p *sim.Params, v float64) { p.RestSpeedSq = v },
	"restitution":      func(p *sim.Params, v float64) { p.Restitution = v },
	"wall_restitution": func(p *sim.Params, v float64) { p.WallRestitution = v },
}

func ParamNames() []string {
	names := make([]string, 0, len(paramSetters))
	for name := range paramSetters {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// LoadScript loads a script from a YAML file
func LoadScript(path string) (*Script, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	var script Script
	if err := yaml.Unmarshal(data, &script); err != nil {
		return nil, fmt.Errorf("parse %s: %w", path, err)
	}
	if err := script.Validate(); err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return &script, nil
}

func (s *Script) Validate() error {
	if s.Preset != "" && config.GetPreset(s.Preset) == nil {
		return fmt.Errorf("unknown preset %q", s.Preset)
	}
	if len(s.Stages) == 0 {
		return fmt.Errorf("script has no stages: %w", dynamo.ErrParameterBounds)
	}
	for i, st := range s.Stages {
		if st.Frames < 0 || st.Spawn < 0 || st.Remove < 0 {
			return fmt.Errorf("stage %d: negative count: %w", i+1, dynamo.ErrParameterBounds)
		}
		if st.Scale < 0 || math.IsNaN(st.Scale) || math.IsInf(st.Scale, 0) {
			return fmt.Errorf("stage %d: scale %v: %w", i+1, st.Scale, dynamo.ErrInvalidScale)
		}
		for name := range st.Params {
			if _, ok := paramSetters[name]; !ok {
				return fmt.Errorf("stage %d: unknown param %q (available: %v)", i+1, name, ParamNames())
			}
		}
	}
	return nil
}

// Base returns the scene configuration the script starts from.
func (s *Script) Base() *config.Config {
	if s.Preset != "" {
		return config.GetPreset(s.Preset)
	}
	return config.DefaultConfig()
}

// Run executes the stages in order on base. progress, if non-nil, is called
// after each stage.
func Run(ctx context.Context, script *Script, base *config.Config, progress func(StageResult), opts ...sim.Option) ([]StageResult, error) {
	if err := script.Validate(); err != nil {
		return nil, err
	}
	s, rng, err := base.NewSimulation(opts...)
	if err != nil {
		return nil, err
	}
	for _, m := range metrics.Standard() {
		s.AddMetric(m)
	}

	results := make([]StageResult, 0, len(script.Stages))
	for i, st := range script.Stages {
		name := st.Name
		if name == "" {
			name = fmt.Sprintf("stage %d", i+1)
		}

		if err := apply(s, st); err != nil {
			return results, fmt.Errorf("%s: %w", name, err)
		}
		scale := st.Scale
		if scale == 0 {
			scale = base.Random.Scale
		}
		for j := 0; j < st.Spawn; j++ {
			if _, err := s.Spawn(rng, scale); err != nil {
				return results, fmt.Errorf("%s spawn: %w", name, err)
			}
		}
		bodies := s.Bodies()
		for j := 0; j < st.Remove && j < len(bodies); j++ {
			s.Deregister(bodies[len(bodies)-1-j])
		}

		res, err := s.Run(ctx, st.Frames, base.Dt)
		if err != nil {
			return results, fmt.Errorf("%s run: %w", name, err)
		}

		sr := StageResult{Name: name, Bodies: s.Len(), Frames: res.Frames, Time: res.Time, Metrics: res.Metrics}
		results = append(results, sr)
		if progress != nil {
			progress(sr)
		}
	}

	return results, nil
}

func apply(s *sim.Simulation, st Stage) error {
	if len(st.Params) > 0 {
		p := s.Params()
		for name, v := range st.Params {
			paramSetters[name](&p, v)
		}
		if err := s.SetParams(p); err != nil {
			return err
		}
	}
	if st.Bounds != nil {
		cfg := config.Config{Bounds: *st.Bounds}
		b, err := cfg.BoundingBox()
		if err != nil {
			return err
		}
		if err := s.SetBounds(b); err != nil {
			return err
		}
	}
	return nil
}
