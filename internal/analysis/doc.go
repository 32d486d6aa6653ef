// Package analysis characterizes the time series a simulation produces.
//
//   - [Spectrum]: windowed power spectrum of a sampled scalar series
//   - [DominantFrequency]: strongest non-DC component of a series
//   - [Trace]: observer sampling a scalar from every frame
//
// A pair of opposite poles released from rest falls together, collides and
// separates again; the dominant frequency of their separation is the
// bounce rate:
//
//	sep := analysis.NewTrace(analysis.Separation(a, b))
//	s.AddObserver(sep)
//	s.Run(ctx, 1200, dt)
//	hz, _ := analysis.DominantFrequency(sep.Values, dt)
package analysis
