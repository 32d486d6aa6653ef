package physics

import (
	"math"

	"github.com/san-kum/magsim/internal/dynamo"
)

const DefaultWallRestitution = 1.0

// BoxConstraint clamps spheres inside the bounds on each axis independently.
type BoxConstraint struct {
	Restitution float64
}

func NewBoxConstraint() *BoxConstraint {
	return &BoxConstraint{Restitution: DefaultWallRestitution}
}

// Constrain moves b back inside bounds and points the violated velocity
// component inward, scaled by Restitution. A box narrower than the sphere
// resolves against the lower wall.
func (c *BoxConstraint) Constrain(b *dynamo.Body, bounds dynamo.Bounds) bool {
	r := b.Radius()
	hit := false
	for axis := 0; axis < 3; axis++ {
		if b.Position[axis]-r < bounds.Min[axis] {
			b.Position[axis] = bounds.Min[axis] + r
			b.Velocity[axis] = math.Abs(b.Velocity[axis]) * c.Restitution
			hit = true
		} else if b.Position[axis]+r > bounds.Max[axis] {
			b.Position[axis] = bounds.Max[axis] - r
			b.Velocity[axis] = -math.Abs(b.Velocity[axis]) * c.Restitution
			hit = true
		}
	}
	return hit
}
