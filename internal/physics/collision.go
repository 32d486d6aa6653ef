package physics

import (
	"math"

	"github.com/san-kum/magsim/internal/dynamo"
)

const DefaultRestitution = 0.99

// fallbackNormal separates spheres whose centers coincide.
var fallbackNormal = dynamo.Vec{1, 0, 0}

// SphereCollider pushes overlapping spheres apart and exchanges an equal and
// opposite impulse along the contact normal.
type SphereCollider struct {
	Restitution float64
}

func NewSphereCollider() *SphereCollider {
	return &SphereCollider{Restitution: DefaultRestitution}
}

// Detect computes the contact for a and b without mutating them. The approach
// speed of each body along the normal is signed, and a pair that is already
// separating gets no impulse, only positional correction.
func (c *SphereCollider) Detect(a, b *dynamo.Body) (dynamo.Contact, bool, error) {
	if a == b {
		return dynamo.Contact{}, false, dynamo.ErrSelfPair
	}

	delta := b.Position.Sub(a.Position)
	dist := delta.Len()
	overlap := a.Radius() + b.Radius() - dist
	if overlap <= 0 || math.IsNaN(overlap) {
		return dynamo.Contact{}, false, nil
	}

	normal, _ := dynamo.SafeNormal(delta)
	if normal == (dynamo.Vec{}) {
		normal = fallbackNormal
	}

	ma, mb := a.Mass(), b.Mass()
	speedA := a.Velocity.Dot(normal)
	speedB := b.Velocity.Dot(normal.Mul(-1))
	total := (speedA*ma + speedB*mb) * c.Restitution
	if total < 0 {
		total = 0
	}

	sum := ma + mb
	return dynamo.Contact{
		Normal:  normal,
		Overlap: overlap,
		Impulse: normal.Mul(total),
		ShiftA:  normal.Mul(-overlap * mb / sum),
		ShiftB:  normal.Mul(overlap * ma / sum),
	}, true, nil
}

// Resolve detects and applies the contact in place.
func (c *SphereCollider) Resolve(a, b *dynamo.Body) (bool, error) {
	contact, hit, err := c.Detect(a, b)
	if err != nil || !hit {
		return false, err
	}
	contact.Apply(a, b)
	return true, nil
}
