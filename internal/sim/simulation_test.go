package sim_test

import (
	"bytes"
	"context"
	"math"
	"math/rand"

	"github.com/charmbracelet/log"
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/san-kum/magsim/internal/dynamo"
	"github.com/san-kum/magsim/internal/metrics"
	"github.com/san-kum/magsim/internal/sim"
)

const dt = 1.0 / 60

func newBody(pos dynamo.Vec, scale float64, positive bool) *dynamo.Body {
	b, err := dynamo.NewBody(pos, scale)
	Expect(err).NotTo(HaveOccurred())
	b.Positive = positive
	return b
}

func quietLogger() *log.Logger {
	return log.New(&bytes.Buffer{})
}

// recorder implements every phase interface and logs the call order.
type recorder struct {
	calls []string
}

func (r *recorder) Force(a, b *dynamo.Body) dynamo.Vec {
	r.calls = append(r.calls, "force")
	return dynamo.Vec{}
}

func (r *recorder) Advance(b *dynamo.Body, dt float64) {
	r.calls = append(r.calls, "advance")
}

func (r *recorder) Detect(a, b *dynamo.Body) (dynamo.Contact, bool, error) {
	r.calls = append(r.calls, "detect")
	return dynamo.Contact{}, false, nil
}

func (r *recorder) Constrain(b *dynamo.Body, bounds dynamo.Bounds) bool {
	r.calls = append(r.calls, "constrain")
	return false
}

type selfPairCollider struct{}

func (selfPairCollider) Detect(a, b *dynamo.Body) (dynamo.Contact, bool, error) {
	return dynamo.Contact{}, false, dynamo.ErrSelfPair
}

var _ = Describe("Simulation", func() {
	var s *sim.Simulation

	BeforeEach(func() {
		s = sim.New(sim.DefaultParams(), dynamo.CubeBounds(600), sim.WithLogger(quietLogger()))
	})

	Describe("registry", func() {
		It("rejects nil and zero-radius bodies", func() {
			Expect(s.Register(nil)).To(MatchError(dynamo.ErrNilBody))
			Expect(s.Register(&dynamo.Body{})).To(MatchError(dynamo.ErrInvalidScale))
			Expect(s.Len()).To(BeZero())
		})

		It("ignores duplicate registration", func() {
			b := newBody(dynamo.Vec{}, 1, true)
			Expect(s.Register(b)).To(Succeed())
			Expect(s.Register(b)).To(Succeed())
			Expect(s.Len()).To(Equal(1))
		})

		It("tolerates deregistering twice without touching other bodies", func() {
			a := newBody(dynamo.Vec{-100, 0, 0}, 1, true)
			b := newBody(dynamo.Vec{100, 0, 0}, 1, false)
			Expect(s.Register(a)).To(Succeed())
			Expect(s.Register(b)).To(Succeed())
			before := *b

			Expect(s.Deregister(a)).To(BeTrue())
			Expect(s.Deregister(a)).To(BeFalse())
			Expect(s.Deregister(nil)).To(BeFalse())

			Expect(s.Bodies()).To(ConsistOf(b))
			Expect(*b).To(Equal(before))
		})

		It("keeps registration order after removal", func() {
			bodies := make([]*dynamo.Body, 4)
			for i := range bodies {
				bodies[i] = newBody(dynamo.Vec{float64(i) * 200, 0, 0}, 0.1, true)
				Expect(s.Register(bodies[i])).To(Succeed())
			}
			s.Deregister(bodies[1])
			Expect(s.Bodies()).To(Equal([]*dynamo.Body{bodies[0], bodies[2], bodies[3]}))
		})

		It("calls lifecycle hooks once per transition", func() {
			var registered, deregistered []uint64
			s = sim.New(sim.DefaultParams(), dynamo.CubeBounds(600), sim.WithLogger(quietLogger()), sim.WithHooks(sim.Hooks{
				OnRegister:   func(b *dynamo.Body) { registered = append(registered, b.ID) },
				OnDeregister: func(b *dynamo.Body) { deregistered = append(deregistered, b.ID) },
			}))
			b := newBody(dynamo.Vec{}, 1, true)

			s.Register(b)
			s.Register(b)
			s.Deregister(b)
			s.Deregister(b)

			Expect(registered).To(Equal([]uint64{b.ID}))
			Expect(deregistered).To(Equal([]uint64{b.ID}))
		})
	})

	Describe("Step", func() {
		It("rejects invalid timesteps", func() {
			for _, bad := range []float64{0, -dt, math.NaN(), math.Inf(1)} {
				_, err := s.Step(bad)
				Expect(err).To(MatchError(dynamo.ErrInvalidStep))
			}
			Expect(s.Frame()).To(BeZero())
		})

		It("runs the phases in fixed order", func() {
			r := &recorder{}
			s = sim.New(sim.DefaultParams(), dynamo.CubeBounds(600),
				sim.WithField(r), sim.WithIntegrator(r), sim.WithCollider(r), sim.WithConstraint(r))
			s.Register(newBody(dynamo.Vec{-100, 0, 0}, 1, true))
			s.Register(newBody(dynamo.Vec{100, 0, 0}, 1, true))

			stats, err := s.Step(dt)
			Expect(err).NotTo(HaveOccurred())
			Expect(stats.Pairs).To(Equal(1))
			Expect(r.calls).To(Equal([]string{"force", "advance", "advance", "detect", "constrain", "constrain"}))
		})

		It("pulls opposite polarities toward each other", func() {
			a := newBody(dynamo.Vec{-10, 0, 0}, 0.1, true)
			b := newBody(dynamo.Vec{10, 0, 0}, 0.1, false)
			s.Register(a)
			s.Register(b)

			_, err := s.Step(dt)
			Expect(err).NotTo(HaveOccurred())

			Expect(a.Velocity.X()).To(BeNumerically(">", 0))
			Expect(b.Velocity.X()).To(BeNumerically("<", 0))
			Expect(a.Velocity.Y()).To(BeZero())
			Expect(b.Velocity.Z()).To(BeZero())
		})

		It("pushes like polarities apart", func() {
			a := newBody(dynamo.Vec{-10, 0, 0}, 0.1, false)
			b := newBody(dynamo.Vec{10, 0, 0}, 0.1, false)
			s.Register(a)
			s.Register(b)

			_, err := s.Step(dt)
			Expect(err).NotTo(HaveOccurred())

			Expect(a.Velocity.X()).To(BeNumerically("<", 0))
			Expect(b.Velocity.X()).To(BeNumerically(">", 0))
		})

		It("caps speed before moving", func() {
			p := sim.DefaultParams()
			p.Drag = 1
			Expect(s.SetParams(p)).To(Succeed())

			b := newBody(dynamo.Vec{}, 0.1, true)
			b.Velocity = dynamo.Vec{2000, 0, 0}
			s.Register(b)

			_, err := s.Step(dt)
			Expect(err).NotTo(HaveOccurred())
			Expect(b.Velocity).To(Equal(dynamo.Vec{1000, 0, 0}))
			Expect(b.Position.X()).To(BeNumerically("~", 1000*dt, 1e-9))
		})

		It("clamps a body crossing the lower wall", func() {
			b := newBody(dynamo.Vec{-620, 0, 0}, 1, true)
			b.Velocity = dynamo.Vec{-30, 0, 0}
			s.Register(b)

			stats, err := s.Step(dt)
			Expect(err).NotTo(HaveOccurred())
			Expect(stats.WallContacts).To(Equal(1))
			Expect(b.Position.X() - b.Radius()).To(BeNumerically("~", -600, 1e-9))
			Expect(b.Velocity.X()).To(BeNumerically(">=", 0))
		})

		It("conserves momentum inside a cluster", func() {
			p := sim.DefaultParams()
			p.Drag, p.RestSpeedSq, p.MaxSpeed = 1, 0, 1e12
			Expect(s.SetParams(p)).To(Succeed())
			Expect(s.SetBounds(dynamo.CubeBounds(1e6))).To(Succeed())

			rng := rand.New(rand.NewSource(3))
			for i := 0; i < 6; i++ {
				b := newBody(dynamo.Vec{float64(i) * 120, float64(i%2) * 40, 0}, 1, true)
				b.Randomize(rng)
				s.Register(b)
			}

			for i := 0; i < 5; i++ {
				_, err := s.Step(dt)
				Expect(err).NotTo(HaveOccurred())
			}

			var total dynamo.Vec
			var scale float64
			for _, b := range s.Bodies() {
				total = total.Add(b.Momentum())
				scale += b.Momentum().Len()
			}
			Expect(scale).To(BeNumerically(">", 0))
			Expect(total.Len()).To(BeNumerically("<", 1e-9*scale+1e-9))
		})

		It("keeps every body inside the bounds", func() {
			rng := rand.New(rand.NewSource(11))
			for i := 0; i < 30; i++ {
				_, err := s.Spawn(rng, 0.5+rng.Float64())
				Expect(err).NotTo(HaveOccurred())
			}

			bounds := s.Bounds()
			for i := 0; i < 120; i++ {
				_, err := s.Step(dt)
				Expect(err).NotTo(HaveOccurred())
				for _, b := range s.Bodies() {
					Expect(bounds.ContainsSphere(b.Position, b.Radius(), 1e-6)).To(BeTrue(), "body %d at %v", b.ID, b.Position)
				}
			}
		})

		It("gives the same result with parallel workers", func() {
			build := func(workers int) *sim.Simulation {
				p := sim.DefaultParams()
				p.Workers, p.ParallelThreshold = workers, 8
				out := sim.New(p, dynamo.CubeBounds(600), sim.WithLogger(quietLogger()))
				rng := rand.New(rand.NewSource(5))
				for i := 0; i < 120; i++ {
					_, err := out.Spawn(rng, 0.2)
					Expect(err).NotTo(HaveOccurred())
				}
				return out
			}

			seq, par := build(1), build(4)
			for i := 0; i < 3; i++ {
				_, err := seq.Step(dt)
				Expect(err).NotTo(HaveOccurred())
				_, err = par.Step(dt)
				Expect(err).NotTo(HaveOccurred())
			}

			a, b := seq.Bodies(), par.Bodies()
			Expect(a).To(HaveLen(len(b)))
			for i := range a {
				Expect(a[i].Position.Sub(b[i].Position).Len()).To(BeNumerically("<", 1e-6))
				Expect(a[i].Velocity.Sub(b[i].Velocity).Len()).To(BeNumerically("<", 1e-6))
			}
		})

		It("logs and skips self pairs", func() {
			var buf bytes.Buffer
			s = sim.New(sim.DefaultParams(), dynamo.CubeBounds(600),
				sim.WithLogger(log.New(&buf)), sim.WithCollider(selfPairCollider{}))
			a := newBody(dynamo.Vec{}, 1, true)
			b := newBody(dynamo.Vec{10, 0, 0}, 1, false)
			s.Register(a)
			s.Register(b)

			stats, err := s.Step(dt)
			Expect(err).NotTo(HaveOccurred())
			Expect(stats.Collisions).To(BeZero())
			Expect(buf.String()).To(ContainSubstring("skipping collision pair"))
		})
	})

	Describe("Run", func() {
		It("collects metrics over the frames", func() {
			rng := rand.New(rand.NewSource(1))
			for i := 0; i < 8; i++ {
				s.Spawn(rng, 1)
			}
			s.AddMetric(metrics.NewKineticEnergy())

			res, err := s.Run(context.Background(), 30, dt)
			Expect(err).NotTo(HaveOccurred())
			Expect(res.Frames).To(Equal(30))
			Expect(res.Time).To(BeNumerically("~", 30*dt, 1e-9))
			Expect(res.Metrics).To(HaveKey("kinetic_energy"))
			Expect(s.Frame()).To(Equal(30))
		})

		It("stops between frames when the context is done", func() {
			ctx, cancel := context.WithCancel(context.Background())
			cancel()

			res, err := s.Run(ctx, 10, dt)
			Expect(err).To(MatchError(context.Canceled))
			Expect(res.Frames).To(BeZero())
		})
	})

	Describe("NearestHit", func() {
		It("reports no hit on an empty registry", func() {
			_, _, ok := s.NearestHit(dynamo.Vec{}, dynamo.Vec{1, 0, 0})
			Expect(ok).To(BeFalse())
		})

		It("hits a body on the ray through its center", func() {
			b := newBody(dynamo.Vec{0, 0, 300}, 1, true)
			s.Register(b)

			hit, d, ok := s.NearestHit(dynamo.Vec{0, 0, -500}, dynamo.Vec{0, 0, 1})
			Expect(ok).To(BeTrue())
			Expect(hit).To(BeIdenticalTo(b))
			Expect(d).To(BeNumerically("~", 750, 1e-9))
		})
	})

	Describe("RandomSpawnPosition", func() {
		It("stays inside the inset bounds", func() {
			rng := rand.New(rand.NewSource(9))
			for i := 0; i < 1000; i++ {
				p := s.RandomSpawnPosition(rng, dynamo.BaseRadius)
				Expect(s.Bounds().ContainsSphere(p, dynamo.BaseRadius, 1e-9)).To(BeTrue())
			}
		})

		It("collapses axes narrower than the sphere", func() {
			Expect(s.SetBounds(dynamo.Bounds{Min: dynamo.Vec{-600, -10, -600}, Max: dynamo.Vec{600, 10, 600}})).To(Succeed())
			p := s.RandomSpawnPosition(rand.New(rand.NewSource(2)), dynamo.BaseRadius)
			Expect(p.Y()).To(BeZero())
		})
	})

	Describe("configuration", func() {
		It("rejects invalid params and bounds", func() {
			p := sim.DefaultParams()
			p.Drag = -1
			Expect(s.SetParams(p)).To(MatchError(dynamo.ErrParameterBounds))

			_, err := dynamo.NewBounds(dynamo.Vec{1, 1, 1}, dynamo.Vec{0, 0, 0})
			Expect(err).To(HaveOccurred())
			Expect(s.SetBounds(dynamo.Bounds{})).To(MatchError(dynamo.ErrInvalidBounds))
			Expect(s.Bounds()).To(Equal(dynamo.CubeBounds(600)))
		})
	})
})
