package integrators

import (
	"math"

	"github.com/san-kum/magsim/internal/dynamo"
)

const (
	DefaultDrag        = 0.99
	DefaultMaxSpeed    = 1000.0
	DefaultRestSpeedSq = 0.01
)

// Euler advances position with the current velocity, then applies drag.
// Velocities below the rest threshold snap to zero; velocities above MaxSpeed
// are rescaled to it before the position update.
type Euler struct {
	Drag        float64
	MaxSpeed    float64
	RestSpeedSq float64
}

func NewEuler() *Euler {
	return &Euler{Drag: DefaultDrag, MaxSpeed: DefaultMaxSpeed, RestSpeedSq: DefaultRestSpeedSq}
}

func (e *Euler) Advance(b *dynamo.Body, dt float64) {
	speedSq := b.Velocity.LenSqr()
	if speedSq < e.RestSpeedSq {
		b.Velocity = dynamo.Vec{}
		return
	}

	if e.MaxSpeed > 0 && speedSq > e.MaxSpeed*e.MaxSpeed {
		b.Velocity = b.Velocity.Mul(e.MaxSpeed / math.Sqrt(speedSq))
	}

	b.Position = b.Position.Add(b.Velocity.Mul(dt))
	b.Velocity = b.Velocity.Mul(e.Drag)
}
