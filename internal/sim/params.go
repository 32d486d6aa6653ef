package sim

import (
	"fmt"
	"math"

	"github.com/san-kum/magsim/internal/dynamo"
	"github.com/san-kum/magsim/internal/integrators"
	"github.com/san-kum/magsim/internal/physics"
)

const DefaultParallelThreshold = 64

// Params are the numeric knobs of a simulation.
type Params struct {
	ForceConstant   float64
	MinDistance     float64
	Drag            float64
	MaxSpeed        float64
	RestSpeedSq     float64
	Restitution     float64
	WallRestitution float64

	// Workers bounds the goroutines used by the pairwise phases; 0 means GOMAXPROCS.
	Workers int
	// ParallelThreshold is the minimum number of outer indices per worker.
	ParallelThreshold int
}

func DefaultParams() Params {
	return Params{
		ForceConstant:     physics.DefaultForceConstant,
		MinDistance:       physics.DefaultMinDistance,
		Drag:              integrators.DefaultDrag,
		MaxSpeed:          integrators.DefaultMaxSpeed,
		RestSpeedSq:       integrators.DefaultRestSpeedSq,
		Restitution:       physics.DefaultRestitution,
		WallRestitution:   physics.DefaultWallRestitution,
		ParallelThreshold: DefaultParallelThreshold,
	}
}

func (p Params) Validate() error {
	checks := []struct {
		name string
		v    float64
	}{
		{"force constant", p.ForceConstant},
		{"min distance", p.MinDistance},
		{"drag", p.Drag},
		{"max speed", p.MaxSpeed},
		{"rest speed", p.RestSpeedSq},
		{"restitution", p.Restitution},
		{"wall restitution", p.WallRestitution},
	}
	for _, c := range checks {
		if c.v < 0 || math.IsNaN(c.v) || math.IsInf(c.v, 0) {
			return fmt.Errorf("%s must be a finite non-negative number, got %v: %w", c.name, c.v, dynamo.ErrParameterBounds)
		}
	}
	if p.Workers < 0 {
		return fmt.Errorf("workers must be non-negative, got %d: %w", p.Workers, dynamo.ErrParameterBounds)
	}
	return nil
}
