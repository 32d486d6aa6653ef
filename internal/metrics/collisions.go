package metrics

import (
	"github.com/san-kum/magsim/internal/dynamo"
)

// CollisionRate is the mean number of colliding pairs per frame.
type CollisionRate struct {
	name    string
	sum     int
	samples int
}

func NewCollisionRate() *CollisionRate {
	return &CollisionRate{name: "collision_rate"}
}

func (c *CollisionRate) Name() string {
	return c.name
}

func (c *CollisionRate) Observe(bodies []*dynamo.Body, stats dynamo.StepStats, t float64) {
	c.sum += stats.Collisions
	c.samples++
}

func (c *CollisionRate) Value() float64 {
	if c.samples == 0 {
		return 0
	}
	return float64(c.sum) / float64(c.samples)
}

func (c *CollisionRate) Reset() {
	c.sum = 0
	c.samples = 0
}

// WallRate is the mean number of wall contacts per frame.
type WallRate struct {
	name    string
	sum     int
	samples int
}

func NewWallRate() *WallRate {
	return &WallRate{name: "wall_rate"}
}

func (w *WallRate) Name() string { return w.name }

func (w *WallRate) Observe(bodies []*dynamo.Body, stats dynamo.StepStats, t float64) {
	w.sum += stats.WallContacts
	w.samples++
}

func (w *WallRate) Value() float64 {
	if w.samples == 0 {
		return 0
	}
	return float64(w.sum) / float64(w.samples)
}

func (w *WallRate) Reset() {
	w.sum = 0
	w.samples = 0
}

// Standard returns the metric set reported by headless runs.
func Standard() []dynamo.Metric {
	return []dynamo.Metric{
		NewKineticEnergy(),
		NewFinalKinetic(),
		NewMomentum(),
		NewMaxSpeed(),
		NewCollisionRate(),
		NewWallRate(),
	}
}
