// Package curve computes descriptive statistics over a completed
// sweep curve for presentation sinks.
package curve

import (
	"math"
	"sort"

	"gonum.org/v1/gonum/stat"

	"github.com/cwbudde/algo-resonance/scan"
)

// Stats holds amplitude-curve descriptors for one sweep.
type Stats struct {
	Points        int
	PeakFrequency uint64  // frequency of the curve maximum, Hz
	PeakAmplitude float64 // amplitude at the maximum
	Mean          float64 // mean amplitude across the curve
	Median        float64 // median amplitude across the curve
	Centroid      float64 // amplitude-weighted mean frequency, Hz
	Bandwidth     float64 // 3 dB bandwidth around the peak, Hz
	Q             float64 // peak frequency / 3 dB bandwidth
}

// Calculate computes all descriptors from a frequency-ordered curve.
// An empty curve yields zero stats.
func Calculate(pts []scan.Point) Stats {
	if len(pts) == 0 {
		return Stats{}
	}

	s := Stats{Points: len(pts)}

	amps := make([]float64, len(pts))
	peakIdx := 0

	var weightedSum, ampSum float64

	for i, p := range pts {
		amps[i] = p.Amplitude
		weightedSum += float64(p.Frequency) * p.Amplitude
		ampSum += p.Amplitude

		if p.Amplitude > amps[peakIdx] {
			peakIdx = i
		}
	}

	s.PeakFrequency = pts[peakIdx].Frequency
	s.PeakAmplitude = pts[peakIdx].Amplitude
	s.Mean = stat.Mean(amps, nil)

	sorted := make([]float64, len(amps))
	copy(sorted, amps)
	sort.Float64s(sorted)
	s.Median = stat.Quantile(0.5, stat.Empirical, sorted, nil)

	if ampSum > 0 {
		s.Centroid = weightedSum / ampSum
	}

	s.Bandwidth = bandwidth3dB(pts, peakIdx)
	if s.Bandwidth > 0 {
		s.Q = float64(s.PeakFrequency) / s.Bandwidth
	}

	return s
}

// bandwidth3dB measures the frequency span around the peak where the
// amplitude stays above peak/sqrt(2), at sample granularity.
func bandwidth3dB(pts []scan.Point, peakIdx int) float64 {
	threshold := pts[peakIdx].Amplitude / math.Sqrt2
	if threshold <= 0 {
		return 0
	}

	lo := peakIdx
	for lo > 0 && pts[lo-1].Amplitude >= threshold {
		lo--
	}

	hi := peakIdx
	for hi < len(pts)-1 && pts[hi+1].Amplitude >= threshold {
		hi++
	}

	return float64(pts[hi].Frequency - pts[lo].Frequency)
}
