package metrics

import (
	"math"

	"github.com/san-kum/magsim/internal/dynamo"
)

// MaxSpeed tracks the largest body speed seen across all frames.
type MaxSpeed struct {
	name string
	max  float64
}

func NewMaxSpeed() *MaxSpeed {
	return &MaxSpeed{name: "max_speed"}
}

func (m *MaxSpeed) Name() string { return m.name }

func (m *MaxSpeed) Observe(bodies []*dynamo.Body, stats dynamo.StepStats, t float64) {
	for _, b := range bodies {
		m.max = math.Max(m.max, b.Velocity.Len())
	}
}

func (m *MaxSpeed) Value() float64 { return m.max }
func (m *MaxSpeed) Reset()         { m.max = 0 }

// Settled is the fraction of frames in which every body moved slower than
// threshold.
type Settled struct {
	name      string
	threshold float64
	settled   int
	samples   int
}

func NewSettled(threshold float64) *Settled {
	return &Settled{
		name:      "settled",
		threshold: threshold,
	}
}

func (s *Settled) Name() string {
	return s.name
}

func (s *Settled) Observe(bodies []*dynamo.Body, stats dynamo.StepStats, t float64) {
	s.samples++
	limit := s.threshold * s.threshold
	for _, b := range bodies {
		if b.Velocity.LenSqr() >= limit {
			return
		}
	}
	s.settled++
}

func (s *Settled) Value() float64 {
	if s.samples == 0 {
		return 0
	}
	return float64(s.settled) / float64(s.samples)
}

func (s *Settled) Reset() {
	s.settled = 0
	s.samples = 0
}
