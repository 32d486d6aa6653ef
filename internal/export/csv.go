package export

import (
	"encoding/csv"
	"io"
	"strconv"

	"github.com/san-kum/magsim/internal/dynamo"
)

var Header = []string{"frame", "time", "id", "x", "y", "z", "vx", "vy", "vz", "mass", "strength", "positive", "radius"}

// TrajectoryWriter writes one CSV row per body per frame. It implements
// dynamo.Observer so it can be attached to a running simulation; the first
// write error is kept and reported by Flush.
type TrajectoryWriter struct {
	w      *csv.Writer
	header bool
	err    error
}

func NewTrajectoryWriter(w io.Writer) *TrajectoryWriter {
	return &TrajectoryWriter{w: csv.NewWriter(w)}
}

func formatFloat(v float64) string {
	return strconv.FormatFloat(v, 'f', 6, 64)
}

// WriteFrame writes the rows for one frame, emitting the header first.
func (t *TrajectoryWriter) WriteFrame(frame int, time float64, bodies []*dynamo.Body) error {
	if t.err != nil {
		return t.err
	}
	if !t.header {
		if t.err = t.w.Write(Header); t.err != nil {
			return t.err
		}
		t.header = true
	}

	for _, b := range bodies {
		row := []string{
			strconv.Itoa(frame),
			formatFloat(time),
			strconv.FormatUint(b.ID, 10),
			formatFloat(b.Position.X()),
			formatFloat(b.Position.Y()),
			formatFloat(b.Position.Z()),
			formatFloat(b.Velocity.X()),
			formatFloat(b.Velocity.Y()),
			formatFloat(b.Velocity.Z()),
			formatFloat(b.Mass()),
			formatFloat(b.Strength()),
			strconv.FormatBool(b.Positive),
			formatFloat(b.Radius()),
		}
		if t.err = t.w.Write(row); t.err != nil {
			return t.err
		}
	}
	return nil
}

// OnStep records the post-step state. stats.Frame is the frame that just ran.
func (t *TrajectoryWriter) OnStep(bodies []*dynamo.Body, stats dynamo.StepStats, time float64) {
	t.WriteFrame(stats.Frame+1, time, bodies)
}

func (t *TrajectoryWriter) Flush() error {
	t.w.Flush()
	if t.err != nil {
		return t.err
	}
	return t.w.Error()
}
