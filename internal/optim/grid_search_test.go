package optim

import (
	"bytes"
	"context"
	"errors"
	"testing"

	"github.com/charmbracelet/log"

	"github.com/san-kum/magsim/internal/config"
	"github.com/san-kum/magsim/internal/dynamo"
	"github.com/san-kum/magsim/internal/sim"
)

func base() *config.Config {
	cfg := config.GetPreset("gas")
	cfg.Steps = 40
	cfg.Random.Count = 8
	return cfg
}

func TestNewGridSearchValidates(t *testing.T) {
	if _, err := NewGridSearch([]string{"drag"}, nil); !errors.Is(err, dynamo.ErrParameterBounds) {
		t.Errorf("expected ErrParameterBounds, got %v", err)
	}
	if _, err := NewGridSearch([]string{"gravity"}, [][]float64{{1}}); err == nil {
		t.Error("expected error for unknown knob")
	}
	if _, err := NewGridSearch([]string{"drag"}, [][]float64{{}}); err == nil {
		t.Error("expected error for empty range")
	}
}

func TestCombinations(t *testing.T) {
	g, err := NewGridSearch([]string{"drag", "restitution"}, [][]float64{{0.9, 1}, {0.1, 0.5, 1}})
	if err != nil {
		t.Fatal(err)
	}
	combos := g.combinations()
	if len(combos) != 6 {
		t.Fatalf("expected 6 combinations, got %d", len(combos))
	}
	if combos[0]["drag"] != 0.9 || combos[0]["restitution"] != 0.1 || combos[5]["drag"] != 1 || combos[5]["restitution"] != 1 {
		t.Errorf("unexpected order: %v", combos)
	}
}

func TestSearchFindsLowestDrag(t *testing.T) {
	g, err := NewGridSearch([]string{"drag"}, [][]float64{{1, 0.5, 0.9}})
	if err != nil {
		t.Fatal(err)
	}
	g.Parallel = 2
	g.Options = []sim.Option{sim.WithLogger(log.New(&bytes.Buffer{}))}

	best, points, err := g.Search(context.Background(), base(), "final_kinetic")
	if err != nil {
		t.Fatal(err)
	}
	if len(points) != 3 {
		t.Fatalf("expected 3 points, got %d", len(points))
	}
	if points[0].Params["drag"] != 1 {
		t.Error("points not in grid order")
	}
	if best.Params["drag"] != 0.5 {
		t.Errorf("expected drag 0.5 to lose the most energy, got %v", best.Params)
	}
}

func TestSearchUnknownMetric(t *testing.T) {
	g, _ := NewGridSearch([]string{"seed"}, [][]float64{{1}})
	g.Options = []sim.Option{sim.WithLogger(log.New(&bytes.Buffer{}))}
	if _, _, err := g.Search(context.Background(), base(), "nope"); err == nil {
		t.Error("expected error for unknown metric")
	}
}

func TestEvaluateCancelled(t *testing.T) {
	g, _ := NewGridSearch([]string{"seed"}, [][]float64{{1, 2, 3}})
	g.Options = []sim.Option{sim.WithLogger(log.New(&bytes.Buffer{}))}
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if _, err := g.Evaluate(ctx, base()); !errors.Is(err, context.Canceled) {
		t.Errorf("expected context.Canceled, got %v", err)
	}
}
