package config

import (
	"bytes"
	"errors"
	"math/rand"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/charmbracelet/log"

	"github.com/san-kum/magsim/internal/dynamo"
	"github.com/san-kum/magsim/internal/sim"
)

func quiet() sim.Option {
	return sim.WithLogger(log.New(&bytes.Buffer{}))
}

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()

	if cfg.Dt <= 0 {
		t.Error("dt should be positive")
	}
	if err := cfg.Validate(); err != nil {
		t.Fatalf("default config invalid: %v", err)
	}
	if cfg.Params() != sim.DefaultParams() {
		t.Errorf("default params mismatch: %+v", cfg.Params())
	}

	b, err := cfg.BoundingBox()
	if err != nil {
		t.Fatal(err)
	}
	if b != dynamo.CubeBounds(600) {
		t.Errorf("expected 600 cube, got %+v", b)
	}
}

func TestSaveLoad(t *testing.T) {
	path := filepath.Join(t.TempDir(), "scene.yaml")
	cfg := GetPreset("pair")
	cfg.Physics.Drag = 0.95

	if err := Save(path, cfg); err != nil {
		t.Fatal(err)
	}
	got, err := Load(path)
	if err != nil {
		t.Fatal(err)
	}
	if got.Physics.Drag != 0.95 {
		t.Errorf("expected drag 0.95, got %f", got.Physics.Drag)
	}
	if len(got.Bodies) != 2 || got.Bodies[1].Polarity != "negative" {
		t.Errorf("bodies not round-tripped: %+v", got.Bodies)
	}
}

func TestLoadKeepsDefaults(t *testing.T) {
	path := filepath.Join(t.TempDir(), "partial.yaml")
	data := "steps: 10\nphysics:\n  drag: 0.5\n"
	if err := os.WriteFile(path, []byte(data), 0644); err != nil {
		t.Fatal(err)
	}

	cfg, err := Load(path)
	if err != nil {
		t.Fatal(err)
	}
	if cfg.Steps != 10 || cfg.Physics.Drag != 0.5 {
		t.Errorf("overrides not applied: %+v", cfg)
	}
	if cfg.Physics.MaxVelocity != 1000 || cfg.Bounds.Size != DefaultBoundsSize {
		t.Errorf("defaults lost: %+v", cfg)
	}
}

func TestLoadRejectsInvalid(t *testing.T) {
	path := filepath.Join(t.TempDir(), "bad.yaml")
	if err := os.WriteFile(path, []byte("dt: -1\n"), 0644); err != nil {
		t.Fatal(err)
	}
	if _, err := Load(path); !errors.Is(err, dynamo.ErrInvalidStep) {
		t.Errorf("expected ErrInvalidStep, got %v", err)
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
		want   error
	}{
		{"negative drag", func(c *Config) { c.Physics.Drag = -1 }, dynamo.ErrParameterBounds},
		{"zero bounds", func(c *Config) { c.Bounds.Size = 0 }, dynamo.ErrInvalidBounds},
		{"inverted box", func(c *Config) {
			c.Bounds.Lower = []float64{1, 1, 1}
			c.Bounds.Upper = []float64{0, 0, 0}
		}, dynamo.ErrInvalidBounds},
		{"short vector", func(c *Config) {
			c.Bodies = []BodyConfig{{Position: []float64{1, 2}, Scale: 1}}
		}, dynamo.ErrParameterBounds},
		{"zero scale", func(c *Config) {
			c.Bodies = []BodyConfig{{Position: []float64{0, 0, 0}}}
		}, dynamo.ErrInvalidScale},
		{"bad polarity", func(c *Config) {
			c.Bodies = []BodyConfig{{Position: []float64{0, 0, 0}, Scale: 1, Polarity: "up"}}
		}, dynamo.ErrParameterBounds},
		{"random without scale", func(c *Config) { c.Random.Scale = 0 }, dynamo.ErrInvalidScale},
	}

	for _, tt := range tests {
		cfg := DefaultConfig()
		tt.mutate(cfg)
		if err := cfg.Validate(); !errors.Is(err, tt.want) {
			t.Errorf("%s: expected %v, got %v", tt.name, tt.want, err)
		}
	}
}

func TestNewSimulation(t *testing.T) {
	cfg := GetPreset("pair")
	cfg.Random = RandomConfig{Count: 3, Scale: 0.25, Speed: 50}

	s, _, err := cfg.NewSimulation(quiet())
	if err != nil {
		t.Fatal(err)
	}
	bodies := s.Bodies()
	if len(bodies) != 5 {
		t.Fatalf("expected 5 bodies, got %d", len(bodies))
	}
	if !bodies[0].Positive || bodies[1].Positive {
		t.Error("explicit polarities not applied")
	}
	if bodies[0].Position != (dynamo.Vec{-150, 0, 0}) {
		t.Errorf("unexpected position %v", bodies[0].Position)
	}
	for _, b := range bodies[2:] {
		if b.Velocity.Len() > 50 {
			t.Errorf("random speed above limit: %v", b.Velocity)
		}
		if !s.Bounds().ContainsSphere(b.Position, b.Radius(), 1e-9) {
			t.Errorf("random body outside bounds: %v", b.Position)
		}
	}
}

func TestPopulateDeterministic(t *testing.T) {
	cfg := GetPreset("swarm")
	build := func() []*dynamo.Body {
		s := sim.New(cfg.Params(), dynamo.CubeBounds(600), quiet())
		if err := cfg.Populate(s, rand.New(rand.NewSource(42))); err != nil {
			t.Fatal(err)
		}
		return s.Bodies()
	}

	a, b := build(), build()
	for i := range a {
		if a[i].Position != b[i].Position || a[i].Mass() != b[i].Mass() {
			t.Fatalf("body %d differs between seeded runs", i)
		}
	}
}

func TestGetPreset(t *testing.T) {
	cfg := GetPreset("cluster")
	if cfg == nil {
		t.Fatal("expected preset, got nil")
	}
	if cfg.Random.Count != 150 {
		t.Errorf("expected 150 bodies, got %d", cfg.Random.Count)
	}

	cfg.Random.Count = 1
	if Presets["cluster"].Random.Count != 150 {
		t.Error("GetPreset returned a shared config")
	}

	if GetPreset("nonexistent") != nil {
		t.Error("expected nil for nonexistent preset")
	}
}

func TestPresetsValid(t *testing.T) {
	names := ListPresets()
	if len(names) != len(Presets) {
		t.Fatalf("expected %d names, got %d", len(Presets), len(names))
	}
	for _, name := range names {
		if err := GetPreset(name).Validate(); err != nil {
			t.Errorf("preset %s: %v", name, err)
		}
	}
}

func TestWrite(t *testing.T) {
	var buf bytes.Buffer
	if err := Write(&buf, DefaultConfig()); err != nil {
		t.Fatal(err)
	}
	for _, key := range []string{"force_constant:", "wall_restitution:", "size: 600"} {
		if !strings.Contains(buf.String(), key) {
			t.Errorf("missing %q in:\n%s", key, buf.String())
		}
	}
}
