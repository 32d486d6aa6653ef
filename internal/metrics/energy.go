package metrics

import (
	"github.com/san-kum/magsim/internal/dynamo"
)

func totalKinetic(bodies []*dynamo.Body) float64 {
	var ke float64
	for _, b := range bodies {
		ke += b.KineticEnergy()
	}
	return ke
}

// KineticEnergy is the mean total kinetic energy over the observed frames.
type KineticEnergy struct {
	name    string
	total   float64
	samples int
}

func NewKineticEnergy() *KineticEnergy {
	return &KineticEnergy{name: "kinetic_energy"}
}

func (k *KineticEnergy) Name() string { return k.name }

func (k *KineticEnergy) Observe(bodies []*dynamo.Body, stats dynamo.StepStats, t float64) {
	k.total += totalKinetic(bodies)
	k.samples++
}

func (k *KineticEnergy) Value() float64 {
	if k.samples == 0 {
		return 0
	}
	return k.total / float64(k.samples)
}

func (k *KineticEnergy) Reset() {
	k.total = 0
	k.samples = 0
}

// FinalKinetic is the total kinetic energy at the last observed frame.
type FinalKinetic struct {
	name  string
	value float64
}

func NewFinalKinetic() *FinalKinetic {
	return &FinalKinetic{name: "final_kinetic"}
}

func (f *FinalKinetic) Name() string { return f.name }

func (f *FinalKinetic) Observe(bodies []*dynamo.Body, stats dynamo.StepStats, t float64) {
	f.value = totalKinetic(bodies)
}

func (f *FinalKinetic) Value() float64 { return f.value }
func (f *FinalKinetic) Reset()         { f.value = 0 }

// Momentum is the magnitude of the total linear momentum at the last frame.
type Momentum struct {
	name  string
	value float64
}

func NewMomentum() *Momentum {
	return &Momentum{name: "momentum"}
}

func (m *Momentum) Name() string { return m.name }

func (m *Momentum) Observe(bodies []*dynamo.Body, stats dynamo.StepStats, t float64) {
	var p dynamo.Vec
	for _, b := range bodies {
		p = p.Add(b.Momentum())
	}
	m.value = p.Len()
}

func (m *Momentum) Value() float64 { return m.value }
func (m *Momentum) Reset()         { m.value = 0 }
