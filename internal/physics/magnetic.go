package physics

import (
	"github.com/san-kum/magsim/internal/dynamo"
)

const (
	DefaultForceConstant = 100000.0
	DefaultMinDistance   = 1e-3
)

// MagneticField is an inverse-square force between charged spheres. Like
// polarities repel, opposite polarities attract.
type MagneticField struct {
	K           float64
	MinDistance float64
}

func NewMagneticField() *MagneticField {
	return &MagneticField{K: DefaultForceConstant, MinDistance: DefaultMinDistance}
}

// Force returns the force on a. Coincident or nearly coincident centers have
// no defined direction and yield zero.
func (f *MagneticField) Force(a, b *dynamo.Body) dynamo.Vec {
	if a == b {
		return dynamo.Vec{}
	}
	dir, d := dynamo.SafeNormal(b.Position.Sub(a.Position))
	if d < f.MinDistance || dir == (dynamo.Vec{}) {
		return dynamo.Vec{}
	}

	magnitude := f.K * a.Charge() * b.Charge() / (d * d)
	if a.Positive == b.Positive {
		magnitude = -magnitude
	}
	return dir.Mul(magnitude)
}

// Apply adds the pair's impulse for dt to both bodies in place.
func (f *MagneticField) Apply(a, b *dynamo.Body, dt float64) {
	impulse := f.Force(a, b).Mul(dt)
	a.ApplyImpulse(impulse)
	b.ApplyImpulse(impulse.Mul(-1))
}
