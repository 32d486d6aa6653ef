package analysis

import (
	"math"
	"math/cmplx"

	"github.com/mjibson/go-dsp/fft"
)

// Bin is one frequency bin of a power spectrum.
type Bin struct {
	Frequency float64
	Magnitude float64
}

// Spectrum returns the magnitude spectrum of series sampled every dt, up to
// the Nyquist frequency. The mean is removed and a Hann window applied first.
func Spectrum(series []float64, dt float64) []Bin {
	n := len(series)
	if n < 2 || !(dt > 0) {
		return nil
	}

	var mean float64
	for _, v := range series {
		mean += v
	}
	mean /= float64(n)

	windowed := make([]float64, n)
	for i, v := range series {
		w := 0.5 * (1 - math.Cos(2*math.Pi*float64(i)/float64(n-1)))
		windowed[i] = (v - mean) * w
	}
	spectrum := fft.FFTReal(windowed)

	bins := make([]Bin, n/2+1)
	for k := range bins {
		bins[k] = Bin{
			Frequency: float64(k) / (float64(n) * dt),
			Magnitude: cmplx.Abs(spectrum[k]),
		}
	}
	return bins
}

// DominantFrequency returns the frequency and magnitude of the strongest
// non-DC bin. A flat or too short series returns zeros.
func DominantFrequency(series []float64, dt float64) (float64, float64) {
	bins := Spectrum(series, dt)
	var best Bin
	for _, b := range bins[min(1, len(bins)):] {
		if b.Magnitude > best.Magnitude {
			best = b
		}
	}
	return best.Frequency, best.Magnitude
}
