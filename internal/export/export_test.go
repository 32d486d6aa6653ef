package export

import (
	"bytes"
	"encoding/csv"
	"strings"
	"testing"

	"github.com/san-kum/magsim/internal/dynamo"
)

func body(t *testing.T, pos dynamo.Vec, positive bool) *dynamo.Body {
	t.Helper()
	b, err := dynamo.NewBody(pos, 0.5)
	if err != nil {
		t.Fatal(err)
	}
	b.Positive = positive
	return b
}

func TestTrajectoryWriter(t *testing.T) {
	var buf bytes.Buffer
	w := NewTrajectoryWriter(&buf)
	a := body(t, dynamo.Vec{1, 2, 3}, true)
	b := body(t, dynamo.Vec{-1, 0, 0}, false)

	w.OnStep([]*dynamo.Body{a, b}, dynamo.StepStats{Frame: 0}, 0.5)
	w.OnStep([]*dynamo.Body{a}, dynamo.StepStats{Frame: 1}, 1.0)
	if err := w.Flush(); err != nil {
		t.Fatal(err)
	}

	rows, err := csv.NewReader(&buf).ReadAll()
	if err != nil {
		t.Fatal(err)
	}
	if len(rows) != 4 {
		t.Fatalf("expected header + 3 rows, got %d", len(rows))
	}
	if strings.Join(rows[0], ",") != strings.Join(Header, ",") {
		t.Errorf("unexpected header %v", rows[0])
	}
	if rows[1][0] != "1" || rows[1][3] != "1.000000" || rows[1][11] != "true" || rows[1][12] != "25.000000" {
		t.Errorf("unexpected first row %v", rows[1])
	}
	if rows[2][11] != "false" {
		t.Errorf("expected negative polarity, got %v", rows[2])
	}
	if rows[3][0] != "2" {
		t.Errorf("expected frame 2, got %v", rows[3])
	}
}

func TestSnapshotSVG(t *testing.T) {
	bounds := dynamo.CubeBounds(100)
	bodies := []*dynamo.Body{
		body(t, dynamo.Vec{0, 0, 10}, true),
		body(t, dynamo.Vec{50, 50, -10}, false),
	}

	svg := SnapshotSVG(bounds, bodies, 220)
	if !strings.HasPrefix(svg, "<?xml") || !strings.HasSuffix(svg, "</svg>") {
		t.Fatal("malformed svg")
	}
	if n := strings.Count(svg, "<circle"); n != 2 {
		t.Errorf("expected 2 circles, got %d", n)
	}
	// Center of a 200 wide box in a 220 viewport with an 11px margin.
	if !strings.Contains(svg, `cx="110.0" cy="110.0"`) {
		t.Errorf("origin body not centered:\n%s", svg)
	}
	// Lower z is drawn first.
	if strings.Index(svg, negativeFill) > strings.Index(svg, positiveFill) {
		t.Error("bodies not ordered by height")
	}
}

func TestPathRecorder(t *testing.T) {
	r := NewPathRecorder(2)
	a := body(t, dynamo.Vec{}, true)
	for frame := 0; frame < 5; frame++ {
		a.Position = dynamo.Vec{float64(frame), 0, 0}
		r.OnStep([]*dynamo.Body{a}, dynamo.StepStats{Frame: frame}, 0)
	}

	paths := r.Paths()
	if len(paths) != 1 {
		t.Fatalf("expected 1 path, got %d", len(paths))
	}
	if len(paths[0].Points) != 3 {
		t.Errorf("expected frames 0, 2, 4; got %v", paths[0].Points)
	}

	svg := TrajectorySVG(dynamo.CubeBounds(10), paths, 100)
	if strings.Count(svg, "<path") != 1 || !strings.Contains(svg, " L") {
		t.Errorf("expected one polyline:\n%s", svg)
	}
}
