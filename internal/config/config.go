package config

import (
	"fmt"
	"io"
	"math"
	"math/rand"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/san-kum/magsim/internal/dynamo"
	"github.com/san-kum/magsim/internal/integrators"
	"github.com/san-kum/magsim/internal/physics"
	"github.com/san-kum/magsim/internal/sim"
)

const (
	DefaultDt          = 1.0 / 60
	DefaultSteps       = 600
	DefaultSeed        = 1
	DefaultBoundsSize  = 600.0
	DefaultRandomCount = 12
	DefaultRandomScale = 0.5
)

type Config struct {
	Dt      float64       `yaml:"dt"`
	Steps   int           `yaml:"steps"`
	Seed    int64         `yaml:"seed"`
	Physics PhysicsConfig `yaml:"physics"`
	Bounds  BoundsConfig  `yaml:"bounds"`
	Bodies  []BodyConfig  `yaml:"bodies,omitempty"`
	Random  RandomConfig  `yaml:"random"`
}

type PhysicsConfig struct {
	ForceConstant     float64 `yaml:"force_constant"`
	MinDistance       float64 `yaml:"min_distance"`
	Drag              float64 `yaml:"drag"`
	MaxVelocity       float64 `yaml:"max_velocity"`
	RestSpeedSq       float64 `yaml:"rest_speed_sq"`
	Restitution       float64 `yaml:"restitution"`
	WallRestitution   float64 `yaml:"wall_restitution"`
	Workers           int     `yaml:"workers"`
	ParallelThreshold int     `yaml:"parallel_threshold"`
}

// BoundsConfig is either a symmetric cube of half-extent Size or an explicit
// Lower/Upper box. Explicit corners win when both are set.
type BoundsConfig struct {
	Size  float64   `yaml:"size,omitempty"`
	Lower []float64 `yaml:"lower,omitempty"`
	Upper []float64 `yaml:"upper,omitempty"`
}

type BodyConfig struct {
	Position []float64 `yaml:"position"`
	Velocity []float64 `yaml:"velocity,omitempty"`
	Scale    float64   `yaml:"scale"`
	Mass     float64   `yaml:"mass,omitempty"`
	Strength float64   `yaml:"strength,omitempty"`
	Polarity string    `yaml:"polarity,omitempty"`
}

// RandomConfig spawns Count randomized bodies after the explicit list.
type RandomConfig struct {
	Count int     `yaml:"count"`
	Scale float64 `yaml:"scale"`
	Speed float64 `yaml:"speed,omitempty"`
}

func DefaultConfig() *Config {
	return &Config{
		Dt:    DefaultDt,
		Steps: DefaultSteps,
		Seed:  DefaultSeed,
		Physics: PhysicsConfig{
			ForceConstant:     physics.DefaultForceConstant,
			MinDistance:       physics.DefaultMinDistance,
			Drag:              integrators.DefaultDrag,
			MaxVelocity:       integrators.DefaultMaxSpeed,
			RestSpeedSq:       integrators.DefaultRestSpeedSq,
			Restitution:       physics.DefaultRestitution,
			WallRestitution:   physics.DefaultWallRestitution,
			ParallelThreshold: sim.DefaultParallelThreshold,
		},
		Bounds: BoundsConfig{Size: DefaultBoundsSize},
		Random: RandomConfig{Count: DefaultRandomCount, Scale: DefaultRandomScale},
	}
}

func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	cfg := DefaultConfig()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parse %s: %w", path, err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return cfg, nil
}

func Save(path string, cfg *Config) error {
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0644)
}

func Write(w io.Writer, cfg *Config) error {
	enc := yaml.NewEncoder(w)
	enc.SetIndent(2)
	if err := enc.Encode(cfg); err != nil {
		return err
	}
	return enc.Close()
}

func (c *Config) Clone() *Config {
	out := *c
	out.Bounds.Lower = cloneFloats(c.Bounds.Lower)
	out.Bounds.Upper = cloneFloats(c.Bounds.Upper)
	if c.Bodies != nil {
		out.Bodies = make([]BodyConfig, len(c.Bodies))
		for i, b := range c.Bodies {
			b.Position = cloneFloats(b.Position)
			b.Velocity = cloneFloats(b.Velocity)
			out.Bodies[i] = b
		}
	}
	return &out
}

func cloneFloats(v []float64) []float64 {
	if v == nil {
		return nil
	}
	return append([]float64(nil), v...)
}

func (c *Config) Validate() error {
	if !(c.Dt > 0) || math.IsInf(c.Dt, 0) {
		return fmt.Errorf("dt %v: %w", c.Dt, dynamo.ErrInvalidStep)
	}
	if c.Steps < 0 {
		return fmt.Errorf("steps %d: %w", c.Steps, dynamo.ErrParameterBounds)
	}
	if err := c.Params().Validate(); err != nil {
		return err
	}
	if _, err := c.BoundingBox(); err != nil {
		return err
	}
	for i, b := range c.Bodies {
		if err := b.validate(); err != nil {
			return fmt.Errorf("body %d: %w", i, err)
		}
	}
	if c.Random.Count < 0 {
		return fmt.Errorf("random count %d: %w", c.Random.Count, dynamo.ErrParameterBounds)
	}
	if c.Random.Count > 0 && (!(c.Random.Scale > 0) || math.IsInf(c.Random.Scale, 0)) {
		return fmt.Errorf("random scale %v: %w", c.Random.Scale, dynamo.ErrInvalidScale)
	}
	if c.Random.Speed < 0 {
		return fmt.Errorf("random speed %v: %w", c.Random.Speed, dynamo.ErrParameterBounds)
	}
	return nil
}

func (b BodyConfig) validate() error {
	if _, err := vec(b.Position, "position"); err != nil {
		return err
	}
	if b.Velocity != nil {
		if _, err := vec(b.Velocity, "velocity"); err != nil {
			return err
		}
	}
	if !(b.Scale > 0) || math.IsInf(b.Scale, 0) {
		return dynamo.ErrInvalidScale
	}
	if _, err := polarity(b.Polarity); err != nil {
		return err
	}
	return nil
}

func vec(v []float64, field string) (dynamo.Vec, error) {
	if len(v) != 3 {
		return dynamo.Vec{}, fmt.Errorf("%s needs 3 components, got %d: %w", field, len(v), dynamo.ErrParameterBounds)
	}
	return dynamo.Vec{v[0], v[1], v[2]}, nil
}

func polarity(s string) (bool, error) {
	switch s {
	case "", "+", "positive", "north":
		return true, nil
	case "-", "negative", "south":
		return false, nil
	}
	return false, fmt.Errorf("unknown polarity %q: %w", s, dynamo.ErrParameterBounds)
}

func (c *Config) Params() sim.Params {
	p := c.Physics
	return sim.Params{
		ForceConstant:     p.ForceConstant,
		MinDistance:       p.MinDistance,
		Drag:              p.Drag,
		MaxSpeed:          p.MaxVelocity,
		RestSpeedSq:       p.RestSpeedSq,
		Restitution:       p.Restitution,
		WallRestitution:   p.WallRestitution,
		Workers:           p.Workers,
		ParallelThreshold: p.ParallelThreshold,
	}
}

func (c *Config) BoundingBox() (dynamo.Bounds, error) {
	if c.Bounds.Lower != nil || c.Bounds.Upper != nil {
		lo, err := vec(c.Bounds.Lower, "bounds.lower")
		if err != nil {
			return dynamo.Bounds{}, err
		}
		hi, err := vec(c.Bounds.Upper, "bounds.upper")
		if err != nil {
			return dynamo.Bounds{}, err
		}
		return dynamo.NewBounds(lo, hi)
	}
	if !(c.Bounds.Size > 0) || math.IsInf(c.Bounds.Size, 0) {
		return dynamo.Bounds{}, fmt.Errorf("bounds size %v: %w", c.Bounds.Size, dynamo.ErrInvalidBounds)
	}
	return dynamo.CubeBounds(c.Bounds.Size), nil
}

// NewSimulation validates the configuration, builds a simulation from it and
// registers the scene. The returned rng is the one the scene was drawn from.
func (c *Config) NewSimulation(opts ...sim.Option) (*sim.Simulation, *rand.Rand, error) {
	if err := c.Validate(); err != nil {
		return nil, nil, err
	}
	bounds, err := c.BoundingBox()
	if err != nil {
		return nil, nil, err
	}
	s := sim.New(c.Params(), bounds, opts...)
	rng := rand.New(rand.NewSource(c.Seed))
	if err := c.Populate(s, rng); err != nil {
		return nil, nil, err
	}
	return s, rng, nil
}

// Populate registers the explicit bodies, then Random.Count randomized ones.
func (c *Config) Populate(s *sim.Simulation, rng *rand.Rand) error {
	for i, bc := range c.Bodies {
		b, err := bc.body()
		if err != nil {
			return fmt.Errorf("body %d: %w", i, err)
		}
		if err := s.Register(b); err != nil {
			return fmt.Errorf("body %d: %w", i, err)
		}
	}
	for i := 0; i < c.Random.Count; i++ {
		b, err := s.Spawn(rng, c.Random.Scale)
		if err != nil {
			return fmt.Errorf("random body %d: %w", i, err)
		}
		if c.Random.Speed > 0 {
			dir, _ := dynamo.SafeNormal(dynamo.Vec{rng.NormFloat64(), rng.NormFloat64(), rng.NormFloat64()})
			b.Velocity = dir.Mul(c.Random.Speed * rng.Float64())
		}
	}
	return nil
}

func (bc BodyConfig) body() (*dynamo.Body, error) {
	pos, err := vec(bc.Position, "position")
	if err != nil {
		return nil, err
	}
	b, err := dynamo.NewBody(pos, bc.Scale)
	if err != nil {
		return nil, err
	}
	if bc.Velocity != nil {
		if b.Velocity, err = vec(bc.Velocity, "velocity"); err != nil {
			return nil, err
		}
	}
	if bc.Mass != 0 {
		b.SetMass(bc.Mass)
	}
	if bc.Strength != 0 {
		b.SetStrength(bc.Strength)
	}
	if b.Positive, err = polarity(bc.Polarity); err != nil {
		return nil, err
	}
	return b, nil
}
