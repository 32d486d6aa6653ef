package dynamo

import (
	"math"
	"math/rand"
	"sync/atomic"

	"github.com/go-gl/mathgl/mgl64"
)

// Vec is a world-space 3D vector.
type Vec = mgl64.Vec3

const (
	BaseRadius = 50.0

	MinMass     = 1.0
	MaxMass     = 5.0
	DefaultMass = 2.0

	MinStrength     = 1.0
	MaxStrength     = 10.0
	DefaultStrength = 3.0

	// directions shorter than this are treated as undefined
	normalEpsilon = 1e-9
)

var nextID atomic.Uint64

// SafeNormal returns the unit vector of v and its length. Vectors shorter than
// a tiny epsilon return the zero vector.
func SafeNormal(v Vec) (Vec, float64) {
	l := v.Len()
	if l < normalEpsilon || math.IsNaN(l) || math.IsInf(l, 0) {
		return Vec{}, l
	}
	return v.Mul(1 / l), l
}

// Body is a charged, massive sphere. Mass and strength are only reachable
// through setters so they never leave their ranges.
type Body struct {
	ID       uint64
	Position Vec
	Velocity Vec
	Positive bool

	mass     float64
	strength float64
	scale    float64
}

// NewBody creates a positive body with default mass and strength at position.
// The sphere is uniformly scaled by scale.
func NewBody(position Vec, scale float64) (*Body, error) {
	if !(scale > 0) || math.IsInf(scale, 0) {
		return nil, ErrInvalidScale
	}
	return &Body{
		ID:       nextID.Add(1),
		Position: position,
		Positive: true,
		mass:     DefaultMass,
		strength: DefaultStrength,
		scale:    scale,
	}, nil
}

// NewBodyFromScale3 creates a body from a per-axis scale. Only uniform scaling
// is supported, so the X component is used for all three axes.
func NewBodyFromScale3(position, scale Vec) (*Body, error) {
	return NewBody(position, scale.X())
}

func (b *Body) Mass() float64     { return b.mass }
func (b *Body) Strength() float64 { return b.strength }
func (b *Body) Scale() float64    { return b.scale }
func (b *Body) Radius() float64   { return b.scale * BaseRadius }

// SetMass stores m clamped to [MinMass, MaxMass].
func (b *Body) SetMass(m float64) { b.mass = clamp(m, MinMass, MaxMass) }

// SetStrength stores s clamped to [MinStrength, MaxStrength].
func (b *Body) SetStrength(s float64) { b.strength = clamp(s, MinStrength, MaxStrength) }

// Charge is mass times magnet strength, the per-body factor of the force law.
func (b *Body) Charge() float64 { return b.mass * b.strength }

// ApplyImpulse changes velocity by impulse / mass.
func (b *Body) ApplyImpulse(impulse Vec) {
	b.Velocity = b.Velocity.Add(impulse.Mul(1 / b.mass))
}

// Randomize draws mass, strength and polarity uniformly from their ranges.
func (b *Body) Randomize(rng *rand.Rand) {
	b.SetMass(MinMass + rng.Float64()*(MaxMass-MinMass))
	b.SetStrength(MinStrength + rng.Float64()*(MaxStrength-MinStrength))
	b.Positive = rng.Intn(2) == 0
}

func (b *Body) KineticEnergy() float64 { return 0.5 * b.mass * b.Velocity.LenSqr() }
func (b *Body) Momentum() Vec          { return b.Velocity.Mul(b.mass) }

func clamp(v, lo, hi float64) float64 {
	if math.IsNaN(v) || v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

// Bounds is an axis-aligned box. A symmetric cube is just Min = -Max.
type Bounds struct {
	Min Vec
	Max Vec
}

// CubeBounds returns a cube of the given half-extent centered at the origin.
func CubeBounds(halfExtent float64) Bounds {
	h := math.Abs(halfExtent)
	return Bounds{Min: Vec{-h, -h, -h}, Max: Vec{h, h, h}}
}

// NewBounds returns the box spanned by lower and upper.
func NewBounds(lower, upper Vec) (Bounds, error) {
	b := Bounds{Min: lower, Max: upper}
	return b, b.Validate()
}

func (b Bounds) Validate() error {
	for i := 0; i < 3; i++ {
		if !(b.Min[i] < b.Max[i]) {
			return ErrInvalidBounds
		}
	}
	return nil
}

func (b Bounds) Center() Vec      { return b.Min.Add(b.Max).Mul(0.5) }
func (b Bounds) Size() Vec        { return b.Max.Sub(b.Min) }
func (b Bounds) HalfExtents() Vec { return b.Size().Mul(0.5) }

// Inset shrinks the box by r on every side. Axes narrower than 2r collapse to
// their center.
func (b Bounds) Inset(r float64) Bounds {
	out := b
	for i := 0; i < 3; i++ {
		lo, hi := b.Min[i]+r, b.Max[i]-r
		if lo > hi {
			c := (b.Min[i] + b.Max[i]) / 2
			lo, hi = c, c
		}
		out.Min[i], out.Max[i] = lo, hi
	}
	return out
}

// ContainsSphere reports whether a sphere lies within the box, allowing eps of slack.
func (b Bounds) ContainsSphere(center Vec, r, eps float64) bool {
	for i := 0; i < 3; i++ {
		if center[i]-r < b.Min[i]-eps || center[i]+r > b.Max[i]+eps {
			return false
		}
	}
	return true
}

// StepStats summarizes one frame.
type StepStats struct {
	Frame        int
	Pairs        int
	Collisions   int
	WallContacts int
}

// Contact is the resolved response for one overlapping pair. Impulse is applied
// to B and its negation to A.
type Contact struct {
	Normal  Vec
	Overlap float64
	Impulse Vec
	ShiftA  Vec
	ShiftB  Vec
}

// Apply commits the contact to the pair.
func (c Contact) Apply(a, b *Body) {
	a.ApplyImpulse(c.Impulse.Mul(-1))
	b.ApplyImpulse(c.Impulse)
	a.Position = a.Position.Add(c.ShiftA)
	b.Position = b.Position.Add(c.ShiftB)
}

type ForceField interface {
	// Force returns the instantaneous force on a; b receives the negation.
	Force(a, b *Body) Vec
}

type Integrator interface {
	Advance(b *Body, dt float64)
}

type Collider interface {
	// Detect computes the response for a pair without mutating either body.
	Detect(a, b *Body) (Contact, bool, error)
}

type Constraint interface {
	// Constrain clamps b inside bounds and reports whether any axis was hit.
	Constrain(b *Body, bounds Bounds) bool
}

type Metric interface {
	Name() string
	Observe(bodies []*Body, stats StepStats, t float64)
	Value() float64
	Reset()
}

type Observer interface {
	OnStep(bodies []*Body, stats StepStats, t float64)
}
