// Package physics provides the per-phase models of a magsim frame.
//
// Each model implements one of the [dynamo] phase interfaces:
//
//   - [MagneticField]: pairwise inverse-square attraction/repulsion ([dynamo.ForceField])
//   - [SphereCollider]: sphere overlap response ([dynamo.Collider])
//   - [BoxConstraint]: hard clamp inside the bounds ([dynamo.Constraint])
//
// [NearestHit] is the closest analytic ray/sphere intersection used for picking.
// It never mutates a body.
//
// # Pair Symmetry
//
// Every pairwise model produces one value for the pair, applied to A and
// negated for B, so momentum exchanged inside a pair always sums to zero:
//
//	f := field.Force(a, b)
//	a.ApplyImpulse(f.Mul(dt))
//	b.ApplyImpulse(f.Mul(-dt))
package physics
