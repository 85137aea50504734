// Package noise estimates the noise floor of an idle measurement burst.
//
// Before a sweep starts, the drive generator is off and a burst read
// from the current sensor contains only sensing-chain noise. The
// statistics of that burst calibrate the absolute amplitude floor used
// by peak selection, replacing a hard-coded constant: local maxima
// below the floor are treated as noise rather than resonance
// candidates.
package noise

import (
	"errors"
	"fmt"
	"math"
	"sort"

	algofft "github.com/MeKo-Christian/algo-fft"
	"github.com/cwbudde/algo-vecmath"
	"gonum.org/v1/gonum/stat"
)

// Errors returned by noise analysis.
var (
	ErrEmptyBurst = errors.New("noise: empty burst")
	ErrShortBurst = errors.New("noise: burst too short for spectral analysis")
)

// DefaultFloorSigma is the default multiple of the burst standard
// deviation used as the amplitude floor.
const DefaultFloorSigma = 4.0

// Stats summarizes an idle burst.
type Stats struct {
	Mean       float64 // mean sample value
	StdDev     float64 // standard deviation of samples
	PeakToPeak float64 // max - min across the burst
	Flatness   float64 // spectral flatness, 0..1 (1 = white noise)
	MedianMag  float64 // median one-sided spectral magnitude
}

// AmplitudeFloor derives an absolute amplitude floor as sigma standard
// deviations of the idle burst. Non-positive sigma selects
// [DefaultFloorSigma].
func (s Stats) AmplitudeFloor(sigma float64) float64 {
	if sigma <= 0 {
		sigma = DefaultFloorSigma
	}

	return sigma * s.StdDev
}

// Analyze computes time-domain and spectral statistics of a burst.
func Analyze(burst []float64) (Stats, error) {
	if len(burst) == 0 {
		return Stats{}, ErrEmptyBurst
	}

	s := Stats{
		Mean:   stat.Mean(burst, nil),
		StdDev: 0,
	}

	if len(burst) > 1 {
		s.StdDev = stat.StdDev(burst, nil)
	}

	minV, maxV := burst[0], burst[0]
	for _, v := range burst[1:] {
		if v < minV {
			minV = v
		}

		if v > maxV {
			maxV = v
		}
	}

	s.PeakToPeak = maxV - minV

	mag, err := Spectrum(burst)
	if err != nil {
		// Too short for an FFT; time-domain stats are still valid.
		if errors.Is(err, ErrShortBurst) {
			return s, nil
		}

		return Stats{}, err
	}

	// Skip DC for the shape descriptors.
	mag = mag[1:]
	if len(mag) == 0 {
		return s, nil
	}

	s.Flatness = flatness(mag)

	sorted := make([]float64, len(mag))
	copy(sorted, mag)
	sort.Float64s(sorted)
	s.MedianMag = stat.Quantile(0.5, stat.Empirical, sorted, nil)

	return s, nil
}

// Spectrum returns the one-sided magnitude spectrum of a burst,
// zero-padded to the next power of two.
func Spectrum(burst []float64) ([]float64, error) {
	if len(burst) == 0 {
		return nil, ErrEmptyBurst
	}

	if len(burst) < 4 {
		return nil, ErrShortBurst
	}

	fftSize := nextPowerOf2(len(burst))

	plan, err := algofft.NewPlan64(fftSize)
	if err != nil {
		return nil, fmt.Errorf("noise: failed to create FFT plan: %w", err)
	}

	// Remove the DC operating point so the ADC mid-rail bias does not
	// dominate the spectrum.
	mean := stat.Mean(burst, nil)

	in := make([]complex128, fftSize)
	for i, v := range burst {
		in[i] = complex(v-mean, 0)
	}

	out := make([]complex128, fftSize)
	if err := plan.Forward(out, in); err != nil {
		return nil, fmt.Errorf("noise: forward FFT failed: %w", err)
	}

	binCount := fftSize/2 + 1
	re := make([]float64, binCount)
	im := make([]float64, binCount)

	for i := 0; i < binCount; i++ {
		re[i] = real(out[i])
		im[i] = imag(out[i])
	}

	mag := make([]float64, binCount)
	vecmath.Magnitude(mag, re, im)

	return mag, nil
}

// flatness returns the ratio of geometric to arithmetic mean of the
// magnitudes.
func flatness(mag []float64) float64 {
	const eps = 1e-20

	logSum := 0.0
	sum := 0.0

	for _, v := range mag {
		logSum += math.Log(v + eps)
		sum += v
	}

	n := float64(len(mag))
	if sum <= 0 {
		return 0
	}

	return math.Exp(logSum/n) / (sum / n)
}

// nextPowerOf2 returns the next power of 2 >= n.
func nextPowerOf2(n int) int {
	if n <= 1 {
		return 1
	}

	p := 1
	for p < n {
		p *= 2
	}

	return p
}
