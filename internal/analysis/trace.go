package analysis

import (
	"math"

	"github.com/san-kum/magsim/internal/dynamo"
)

// Sampler extracts one scalar from a frame.
type Sampler func(bodies []*dynamo.Body) float64

// Trace records a Sampler after every step. It implements dynamo.Observer.
type Trace struct {
	sample Sampler
	Values []float64
	Times  []float64
}

func NewTrace(s Sampler) *Trace {
	return &Trace{sample: s}
}

func (t *Trace) OnStep(bodies []*dynamo.Body, stats dynamo.StepStats, time float64) {
	t.Values = append(t.Values, t.sample(bodies))
	t.Times = append(t.Times, time)
}

// KineticEnergy samples the total kinetic energy.
func KineticEnergy(bodies []*dynamo.Body) float64 {
	var ke float64
	for _, b := range bodies {
		ke += b.KineticEnergy()
	}
	return ke
}

// Separation samples the distance between the centers of a and b.
func Separation(a, b *dynamo.Body) Sampler {
	return func([]*dynamo.Body) float64 {
		return b.Position.Sub(a.Position).Len()
	}
}

// Spread samples the RMS distance of the bodies from their centroid.
func Spread(bodies []*dynamo.Body) float64 {
	if len(bodies) == 0 {
		return 0
	}
	var c dynamo.Vec
	for _, b := range bodies {
		c = c.Add(b.Position)
	}
	c = c.Mul(1 / float64(len(bodies)))

	var sum float64
	for _, b := range bodies {
		sum += b.Position.Sub(c).LenSqr()
	}
	return math.Sqrt(sum / float64(len(bodies)))
}
