// Package dynamo provides the core simulation primitives for charged spheres.
//
// The package defines the leaf types and the phase interfaces a frame is built from:
//
//   - [Body]: a charged, massive sphere
//   - [Bounds]: the axis-aligned box bodies are kept inside
//   - [ForceField]: pairwise impulse between two bodies
//   - [Integrator]: advances one body by dt
//   - [Collider]: resolves one overlapping pair
//   - [Constraint]: keeps one body inside the bounds
//
// The orchestrator that runs the phases in order lives in package sim.
//
// # Example
//
//	b, _ := dynamo.NewBody(dynamo.Vec{0, 0, 0}, 1.0)
//	b.Randomize(rng)
//	s := sim.New(sim.DefaultParams(), dynamo.CubeBounds(600))
//	s.Register(b)
//	s.Step(1.0 / 60)
//
// # Thread Safety
//
// Body values are NOT thread-safe. The orchestrator serializes every mutation;
// parallel phases write into per-worker accumulators only.
package dynamo
