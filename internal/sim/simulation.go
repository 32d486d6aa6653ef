package sim

import (
	"context"
	"math"
	"math/rand"
	"os"
	"slices"
	"sync"

	"github.com/charmbracelet/log"
	"github.com/san-kum/magsim/internal/dynamo"
	"github.com/san-kum/magsim/internal/integrators"
	"github.com/san-kum/magsim/internal/physics"
)

// Hooks are called after a body enters or leaves the registry.
type Hooks struct {
	OnRegister   func(b *dynamo.Body)
	OnDeregister func(b *dynamo.Body)
}

type Option func(*Simulation)

func WithLogger(l *log.Logger) Option { return func(s *Simulation) { s.logger = l } }
func WithHooks(h Hooks) Option        { return func(s *Simulation) { s.hooks = h } }

func WithField(f dynamo.ForceField) Option      { return func(s *Simulation) { s.field = f } }
func WithIntegrator(i dynamo.Integrator) Option { return func(s *Simulation) { s.integrator = i } }
func WithCollider(c dynamo.Collider) Option     { return func(s *Simulation) { s.collider = c } }
func WithConstraint(c dynamo.Constraint) Option { return func(s *Simulation) { s.constraint = c } }

// Simulation owns the registry of bodies and runs the four phases of a frame
// in fixed order: forces, integration, collisions, bounds.
type Simulation struct {
	mu     sync.Mutex
	bodies []*dynamo.Body
	index  map[*dynamo.Body]struct{}
	bounds dynamo.Bounds
	params Params

	field      dynamo.ForceField
	integrator dynamo.Integrator
	collider   dynamo.Collider
	constraint dynamo.Constraint

	logger    *log.Logger
	hooks     Hooks
	metrics   []dynamo.Metric
	observers []dynamo.Observer

	frame int
	t     float64

	scratch []workerScratch
}

// workerScratch is the per-worker accumulator of one pairwise phase. Workers
// only write their own slot; the orchestrator merges after the phase.
type workerScratch struct {
	impulse []dynamo.Vec
	shift   []dynamo.Vec
	pairs   int
	hits    int
	errs    []*dynamo.StepError
}

func (w *workerScratch) reset(n int) {
	w.impulse = resize(w.impulse, n)
	w.shift = resize(w.shift, n)
	w.pairs, w.hits = 0, 0
	w.errs = w.errs[:0]
}

func resize(v []dynamo.Vec, n int) []dynamo.Vec {
	if cap(v) < n {
		return make([]dynamo.Vec, n)
	}
	v = v[:n]
	clear(v)
	return v
}

// Result summarizes a Run.
type Result struct {
	Frames       int
	Time         float64
	Collisions   int
	WallContacts int
	Metrics      map[string]float64
}

// New creates a simulation with the given parameters and bounds. Options
// replace the default phase models.
func New(params Params, bounds dynamo.Bounds, opts ...Option) *Simulation {
	s := &Simulation{
		index:  make(map[*dynamo.Body]struct{}),
		bounds: bounds,
		logger: log.NewWithOptions(os.Stderr, log.Options{Prefix: "magsim", Level: log.WarnLevel}),
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.field == nil {
		s.field = physics.NewMagneticField()
	}
	if s.integrator == nil {
		s.integrator = integrators.NewEuler()
	}
	if s.collider == nil {
		s.collider = physics.NewSphereCollider()
	}
	if s.constraint == nil {
		s.constraint = physics.NewBoxConstraint()
	}
	s.applyParams(params)
	return s
}

func (s *Simulation) AddMetric(m dynamo.Metric) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.metrics = append(s.metrics, m)
}

func (s *Simulation) AddObserver(o dynamo.Observer) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.observers = append(s.observers, o)
}

// Register adds b to the registry. Registering a body twice is a no-op.
func (s *Simulation) Register(b *dynamo.Body) error {
	if b == nil {
		return dynamo.ErrNilBody
	}
	if !(b.Radius() > 0) {
		return dynamo.ErrInvalidScale
	}

	s.mu.Lock()
	if _, ok := s.index[b]; ok {
		s.mu.Unlock()
		s.logger.Debug("body already registered", "id", b.ID)
		return nil
	}
	s.index[b] = struct{}{}
	s.bodies = append(s.bodies, b)
	s.mu.Unlock()

	if s.hooks.OnRegister != nil {
		s.hooks.OnRegister(b)
	}
	return nil
}

// Deregister removes b and reports whether it was registered. Removing an
// absent body is a no-op.
func (s *Simulation) Deregister(b *dynamo.Body) bool {
	if b == nil {
		return false
	}

	s.mu.Lock()
	if _, ok := s.index[b]; !ok {
		s.mu.Unlock()
		s.logger.Debug("deregister of unknown body ignored", "id", b.ID)
		return false
	}
	delete(s.index, b)
	if i := slices.Index(s.bodies, b); i >= 0 {
		s.bodies = slices.Delete(s.bodies, i, i+1)
	}
	s.mu.Unlock()

	if s.hooks.OnDeregister != nil {
		s.hooks.OnDeregister(b)
	}
	return true
}

// Bodies returns a copy of the registry in registration order.
func (s *Simulation) Bodies() []*dynamo.Body {
	s.mu.Lock()
	defer s.mu.Unlock()
	return slices.Clone(s.bodies)
}

func (s *Simulation) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.bodies)
}

func (s *Simulation) Frame() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.frame
}

func (s *Simulation) Time() float64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.t
}

// Bounds returns the current extents, for debug drawing.
func (s *Simulation) Bounds() dynamo.Bounds {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.bounds
}

func (s *Simulation) SetBounds(b dynamo.Bounds) error {
	if err := b.Validate(); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.bounds = b
	return nil
}

func (s *Simulation) Params() Params {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.params
}

func (s *Simulation) SetParams(p Params) error {
	if err := p.Validate(); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.applyParams(p)
	return nil
}

// applyParams pushes the knobs into the default phase models. Models supplied
// through options are left alone.
func (s *Simulation) applyParams(p Params) {
	if p.ParallelThreshold <= 0 {
		p.ParallelThreshold = DefaultParallelThreshold
	}
	s.params = p
	if f, ok := s.field.(*physics.MagneticField); ok {
		f.K, f.MinDistance = p.ForceConstant, p.MinDistance
	}
	if e, ok := s.integrator.(*integrators.Euler); ok {
		e.Drag, e.MaxSpeed, e.RestSpeedSq = p.Drag, p.MaxSpeed, p.RestSpeedSq
	}
	if c, ok := s.collider.(*physics.SphereCollider); ok {
		c.Restitution = p.Restitution
	}
	if c, ok := s.constraint.(*physics.BoxConstraint); ok {
		c.Restitution = p.WallRestitution
	}
}

// RandomSpawnPosition returns a uniform point inside the bounds inset by
// radius, so a sphere spawned there does not cross a wall.
func (s *Simulation) RandomSpawnPosition(rng *rand.Rand, radius float64) dynamo.Vec {
	box := s.Bounds().Inset(radius)
	var p dynamo.Vec
	for i := 0; i < 3; i++ {
		p[i] = box.Min[i] + rng.Float64()*(box.Max[i]-box.Min[i])
	}
	return p
}

// Spawn creates a randomized body of the given scale at a random position and
// registers it.
func (s *Simulation) Spawn(rng *rand.Rand, scale float64) (*dynamo.Body, error) {
	b, err := dynamo.NewBody(dynamo.Vec{}, scale)
	if err != nil {
		return nil, err
	}
	b.Randomize(rng)
	b.Position = s.RandomSpawnPosition(rng, b.Radius())
	if err := s.Register(b); err != nil {
		return nil, err
	}
	return b, nil
}

// NearestHit returns the registered body whose surface the ray reaches first.
func (s *Simulation) NearestHit(origin, dir dynamo.Vec) (*dynamo.Body, float64, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	b, d := physics.NearestHit(s.bodies, origin, dir)
	return b, d, b != nil
}

// Step runs one frame. The registry cannot change while a frame is in flight.
func (s *Simulation) Step(dt float64) (dynamo.StepStats, error) {
	if !(dt > 0) || math.IsInf(dt, 0) {
		return dynamo.StepStats{}, dynamo.ErrInvalidStep
	}

	s.mu.Lock()
	stats := dynamo.StepStats{Frame: s.frame}
	stats.Pairs = s.applyForces(dt)
	s.integrate(dt)
	stats.Collisions = s.resolveCollisions()
	stats.WallContacts = s.constrainBounds()
	s.frame++
	s.t += dt

	t := s.t
	bodies := slices.Clone(s.bodies)
	metrics := slices.Clone(s.metrics)
	observers := slices.Clone(s.observers)
	s.mu.Unlock()

	for _, m := range metrics {
		m.Observe(bodies, stats, t)
	}
	for _, o := range observers {
		o.OnStep(bodies, stats, t)
	}
	return stats, nil
}

// Run steps the simulation for the given number of frames. ctx is only
// checked between frames.
func (s *Simulation) Run(ctx context.Context, frames int, dt float64) (*Result, error) {
	if !(dt > 0) || math.IsInf(dt, 0) {
		return nil, dynamo.ErrInvalidStep
	}

	s.mu.Lock()
	metrics := slices.Clone(s.metrics)
	s.mu.Unlock()
	for _, m := range metrics {
		m.Reset()
	}

	result := &Result{Metrics: make(map[string]float64)}
	var err error
	for i := 0; i < frames; i++ {
		if err = ctx.Err(); err != nil {
			break
		}
		stats, stepErr := s.Step(dt)
		if stepErr != nil {
			err = stepErr
			break
		}
		result.Frames++
		result.Collisions += stats.Collisions
		result.WallContacts += stats.WallContacts
	}
	result.Time = s.Time()

	for _, m := range metrics {
		result.Metrics[m.Name()] = m.Value()
	}
	return result, err
}

// workers sizes and clears the per-worker scratch for a pair phase over n
// bodies.
func (s *Simulation) workers(n int) int {
	w := s.counters(n)
	for i := 0; i < w; i++ {
		s.scratch[i].reset(n)
	}
	return w
}

// counters prepares only the per-worker counts, for phases that write no
// per-body vectors.
func (s *Simulation) counters(n int) int {
	w := dynamo.Workers(n, s.params.ParallelThreshold, s.params.Workers)
	for len(s.scratch) < w {
		s.scratch = append(s.scratch, workerScratch{})
	}
	for i := 0; i < w; i++ {
		s.scratch[i].pairs, s.scratch[i].hits = 0, 0
	}
	return w
}

// applyForces accumulates every pair's impulse from one snapshot of positions,
// then commits the per-body sums.
func (s *Simulation) applyForces(dt float64) int {
	n := len(s.bodies)
	w := s.workers(n)

	dynamo.ParallelPairs(n, s.params.ParallelThreshold, s.params.Workers, func(worker, start, end int) {
		acc := &s.scratch[worker]
		for i := start; i < end; i++ {
			a := s.bodies[i]
			for j := i + 1; j < n; j++ {
				acc.pairs++
				f := s.field.Force(a, s.bodies[j])
				if f == (dynamo.Vec{}) {
					continue
				}
				imp := f.Mul(dt)
				acc.impulse[i] = acc.impulse[i].Add(imp)
				acc.impulse[j] = acc.impulse[j].Sub(imp)
			}
		}
	})

	pairs := 0
	for k := 0; k < w; k++ {
		pairs += s.scratch[k].pairs
	}
	for i, b := range s.bodies {
		var total dynamo.Vec
		for k := 0; k < w; k++ {
			total = total.Add(s.scratch[k].impulse[i])
		}
		if total != (dynamo.Vec{}) {
			b.ApplyImpulse(total)
		}
	}
	return pairs
}

func (s *Simulation) integrate(dt float64) {
	dynamo.ParallelFor(len(s.bodies), s.params.ParallelThreshold, s.params.Workers, func(_, start, end int) {
		for _, b := range s.bodies[start:end] {
			s.integrator.Advance(b, dt)
		}
	})
}

// resolveCollisions detects every overlapping pair against the post-integration
// state, then commits the summed impulses and separations.
func (s *Simulation) resolveCollisions() int {
	n := len(s.bodies)
	w := s.workers(n)

	dynamo.ParallelPairs(n, s.params.ParallelThreshold, s.params.Workers, func(worker, start, end int) {
		acc := &s.scratch[worker]
		for i := start; i < end; i++ {
			a := s.bodies[i]
			for j := i + 1; j < n; j++ {
				b := s.bodies[j]
				c, hit, err := s.collider.Detect(a, b)
				if err != nil {
					acc.errs = append(acc.errs, &dynamo.StepError{Frame: s.frame, A: a.ID, B: b.ID, Wrapped: err})
					continue
				}
				if !hit {
					continue
				}
				acc.hits++
				acc.impulse[i] = acc.impulse[i].Sub(c.Impulse)
				acc.impulse[j] = acc.impulse[j].Add(c.Impulse)
				acc.shift[i] = acc.shift[i].Add(c.ShiftA)
				acc.shift[j] = acc.shift[j].Add(c.ShiftB)
			}
		}
	})

	hits := 0
	for k := 0; k < w; k++ {
		hits += s.scratch[k].hits
		for _, se := range s.scratch[k].errs {
			s.logger.Warn("skipping collision pair", "frame", se.Frame, "a", se.A, "b", se.B, "err", se.Wrapped)
		}
	}
	for i, b := range s.bodies {
		var imp, shift dynamo.Vec
		for k := 0; k < w; k++ {
			imp = imp.Add(s.scratch[k].impulse[i])
			shift = shift.Add(s.scratch[k].shift[i])
		}
		if imp != (dynamo.Vec{}) {
			b.ApplyImpulse(imp)
		}
		b.Position = b.Position.Add(shift)
	}
	return hits
}

func (s *Simulation) constrainBounds() int {
	n := len(s.bodies)
	w := s.counters(n)

	dynamo.ParallelFor(n, s.params.ParallelThreshold, s.params.Workers, func(worker, start, end int) {
		acc := &s.scratch[worker]
		for _, b := range s.bodies[start:end] {
			if s.constraint.Constrain(b, s.bounds) {
				acc.hits++
			}
		}
	})

	contacts := 0
	for k := 0; k < w; k++ {
		contacts += s.scratch[k].hits
	}
	return contacts
}
