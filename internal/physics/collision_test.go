package physics

import (
	"errors"
	"math"
	"testing"

	"github.com/san-kum/magsim/internal/dynamo"
)

func sphere(t *testing.T, pos, vel dynamo.Vec, mass float64) *dynamo.Body {
	t.Helper()
	b, err := dynamo.NewBody(pos, 1)
	if err != nil {
		t.Fatalf("NewBody: %v", err)
	}
	b.Velocity = vel
	b.SetMass(mass)
	return b
}

func TestSphereCollider_NoOverlap(t *testing.T) {
	c := NewSphereCollider()
	a := sphere(t, dynamo.Vec{0, 0, 0}, dynamo.Vec{10, 0, 0}, 2)
	b := sphere(t, dynamo.Vec{100, 0, 0}, dynamo.Vec{-10, 0, 0}, 2)

	hit, err := c.Resolve(a, b)
	if err != nil || hit {
		t.Fatalf("touching spheres should not collide: hit=%v err=%v", hit, err)
	}
	if a.Velocity != (dynamo.Vec{10, 0, 0}) || b.Velocity != (dynamo.Vec{-10, 0, 0}) {
		t.Errorf("velocities changed without a collision: %v %v", a.Velocity, b.Velocity)
	}
}

func TestSphereCollider_EqualAndOpposite(t *testing.T) {
	c := NewSphereCollider()

	tests := []struct {
		name       string
		ma, mb     float64
		velA, velB dynamo.Vec
	}{
		{"head on equal", 2, 2, dynamo.Vec{10, 0, 0}, dynamo.Vec{-10, 0, 0}},
		{"heavy light", 5, 1, dynamo.Vec{3, 1, 0}, dynamo.Vec{-20, 0, 2}},
		{"chasing", 1, 3, dynamo.Vec{30, 0, 0}, dynamo.Vec{5, 0, 0}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			a := sphere(t, dynamo.Vec{0, 0, 0}, tt.velA, tt.ma)
			b := sphere(t, dynamo.Vec{80, 10, 0}, tt.velB, tt.mb)

			before := a.Momentum().Add(b.Momentum())
			contact, hit, err := c.Detect(a, b)
			if err != nil || !hit {
				t.Fatalf("expected collision: hit=%v err=%v", hit, err)
			}
			contact.Apply(a, b)
			after := a.Momentum().Add(b.Momentum())

			if after.Sub(before).Len() > 1e-9 {
				t.Errorf("momentum changed: %v -> %v", before, after)
			}
			if contact.Impulse.Dot(contact.Normal) < 0 {
				t.Errorf("impulse should push b along the normal, got %v", contact.Impulse)
			}
		})
	}
}

func TestSphereCollider_HeadOn(t *testing.T) {
	c := &SphereCollider{Restitution: 1}
	a := sphere(t, dynamo.Vec{0, 0, 0}, dynamo.Vec{10, 0, 0}, 2)
	b := sphere(t, dynamo.Vec{90, 0, 0}, dynamo.Vec{-10, 0, 0}, 2)

	if _, err := c.Resolve(a, b); err != nil {
		t.Fatal(err)
	}
	if math.Abs(a.Velocity[0]+10) > 1e-9 || math.Abs(b.Velocity[0]-10) > 1e-9 {
		t.Errorf("equal masses should swap approach speed: %v %v", a.Velocity, b.Velocity)
	}
}

func TestSphereCollider_SeparationByMass(t *testing.T) {
	c := NewSphereCollider()
	a := sphere(t, dynamo.Vec{0, 0, 0}, dynamo.Vec{}, 4)
	b := sphere(t, dynamo.Vec{60, 0, 0}, dynamo.Vec{}, 1)

	if _, err := c.Resolve(a, b); err != nil {
		t.Fatal(err)
	}

	// overlap 40 split 1:4
	if math.Abs(a.Position[0]+8) > 1e-9 {
		t.Errorf("heavy body moved to %v, want -8", a.Position[0])
	}
	if math.Abs(b.Position[0]-92) > 1e-9 {
		t.Errorf("light body moved to %v, want 92", b.Position[0])
	}
	if d := b.Position.Sub(a.Position).Len(); math.Abs(d-100) > 1e-9 {
		t.Errorf("distance after separation %v, want 100", d)
	}
}

func TestSphereCollider_SeparatingPairGetsNoImpulse(t *testing.T) {
	c := NewSphereCollider()
	a := sphere(t, dynamo.Vec{0, 0, 0}, dynamo.Vec{-10, 0, 0}, 2)
	b := sphere(t, dynamo.Vec{50, 0, 0}, dynamo.Vec{10, 0, 0}, 2)

	contact, hit, err := c.Detect(a, b)
	if err != nil || !hit {
		t.Fatalf("expected overlap: hit=%v err=%v", hit, err)
	}
	if contact.Impulse != (dynamo.Vec{}) {
		t.Errorf("separating pair impulse %v, want zero", contact.Impulse)
	}
}

func TestSphereCollider_SelfPair(t *testing.T) {
	c := NewSphereCollider()
	a := sphere(t, dynamo.Vec{1, 2, 3}, dynamo.Vec{4, 5, 6}, 2)

	hit, err := c.Resolve(a, a)
	if !errors.Is(err, dynamo.ErrSelfPair) || hit {
		t.Fatalf("expected ErrSelfPair, got hit=%v err=%v", hit, err)
	}
	if a.Position != (dynamo.Vec{1, 2, 3}) || a.Velocity != (dynamo.Vec{4, 5, 6}) {
		t.Errorf("self pair mutated body: %v %v", a.Position, a.Velocity)
	}
}

func TestSphereCollider_CoincidentCenters(t *testing.T) {
	c := NewSphereCollider()
	a := sphere(t, dynamo.Vec{0, 0, 0}, dynamo.Vec{}, 2)
	b := sphere(t, dynamo.Vec{0, 0, 0}, dynamo.Vec{}, 2)

	if _, err := c.Resolve(a, b); err != nil {
		t.Fatal(err)
	}
	if d := b.Position.Sub(a.Position).Len(); math.Abs(d-100) > 1e-9 {
		t.Errorf("coincident spheres separated to %v, want 100", d)
	}
}
