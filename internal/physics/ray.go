package physics

import (
	"math"

	"github.com/san-kum/magsim/internal/dynamo"
)

// RaySphere returns the distance along a unit direction to the near surface of
// a sphere, or false when the ray misses, points away, or starts inside it.
func RaySphere(origin, dir, center dynamo.Vec, r float64) (float64, bool) {
	toCenter := center.Sub(origin)
	distSq := toCenter.LenSqr()
	rSq := r * r

	if distSq < rSq {
		return 0, false
	}

	along := toCenter.Dot(dir)
	if along < 0 {
		return 0, false
	}

	perpSq := distSq - along*along
	if perpSq > rSq {
		return 0, false
	}

	return along - math.Sqrt(rSq-perpSq), true
}

// NearestHit returns the body whose surface the ray reaches first and the
// distance to it. dir is normalized; a zero direction never hits.
func NearestHit(bodies []*dynamo.Body, origin, dir dynamo.Vec) (*dynamo.Body, float64) {
	dir, l := dynamo.SafeNormal(dir)
	if l == 0 || dir == (dynamo.Vec{}) {
		return nil, 0
	}

	var hit *dynamo.Body
	closest := math.MaxFloat64
	for _, b := range bodies {
		d, ok := RaySphere(origin, dir, b.Position, b.Radius())
		if !ok || d >= closest {
			continue
		}
		hit, closest = b, d
	}
	if hit == nil {
		return nil, 0
	}
	return hit, closest
}
