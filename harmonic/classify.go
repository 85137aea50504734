// Package harmonic classifies candidate frequencies against integer
// ratios of a fundamental.
//
// Given the fundamental resonance F of a driven load and a set of
// (frequency, amplitude) candidates, the classifier looks for the
// candidate H whose ratio to F is closest to a small integer n >= 2,
// either as a harmonic (H/F ~ n) or a subharmonic (F/H ~ n), within a
// relative tolerance. Candidates inside an exclusion window around the
// fundamental are never reported, so the classifier cannot return the
// fundamental itself.
//
// Real transducers often show secondary resonances that are not strict
// harmonics; when no candidate satisfies any integer ratio, the
// classifier falls back to the strongest candidate outside the
// exclusion window and marks it with Order 0.
package harmonic

import "math"

// Candidate is one (frequency, amplitude) pair under consideration.
type Candidate struct {
	Frequency uint64
	Amplitude float64
}

// Config holds classification parameters.
type Config struct {
	MaxOrder  int     // highest integer ratio considered
	Tolerance float64 // relative tolerance on the ratio
	Exclusion uint64  // half-width of the window around the fundamental, Hz
}

// DefaultCoarseConfig returns the looser tolerance used when
// classifying directly from a coarse sweep curve.
func DefaultCoarseConfig() Config {
	return Config{MaxOrder: 6, Tolerance: 0.12, Exclusion: 200}
}

// DefaultFineConfig returns the tighter tolerance used when
// classifying from refined fine-target results.
func DefaultFineConfig() Config {
	return Config{MaxOrder: 6, Tolerance: 0.08, Exclusion: 200}
}

// Match is a classified harmonic (or secondary resonance).
type Match struct {
	Frequency   uint64
	Amplitude   float64
	Order       int  // integer ratio; 0 for a non-harmonic secondary resonance
	Subharmonic bool // true when fundamental/frequency ~ Order
}

// ratioOrder reports the integer order best matching the candidate and
// whether it is a subharmonic, or ok=false when no order within
// tolerance exists.
func ratioOrder(fundamental, freq uint64, cfg Config) (order int, sub bool, ok bool) {
	f := float64(fundamental)
	h := float64(freq)

	ratio := h / f
	if h < f {
		ratio = f / h
		sub = true
	}

	n := int(math.Round(ratio))
	if n < 2 || n > cfg.MaxOrder {
		return 0, false, false
	}

	if math.Abs(ratio-float64(n)) > cfg.Tolerance*float64(n) {
		return 0, false, false
	}

	return n, sub, true
}

// Classify finds the best harmonic match for the fundamental among the
// candidates. The tie-break among candidates within tolerance is
// highest amplitude. Classification is a pure function of its inputs:
// re-running it on the same data yields the same result.
func Classify(fundamental uint64, cands []Candidate, cfg Config) (Match, bool) {
	if fundamental == 0 || len(cands) == 0 {
		return Match{}, false
	}

	var (
		best      Match
		bestFound bool
		alt       Match // strongest non-harmonic candidate outside the exclusion window
		altFound  bool
	)

	for _, c := range cands {
		if c.Frequency == 0 || c.Amplitude <= 0 {
			continue
		}

		if inWindow(c.Frequency, fundamental, cfg.Exclusion) {
			continue
		}

		if order, sub, ok := ratioOrder(fundamental, c.Frequency, cfg); ok {
			if !bestFound || c.Amplitude > best.Amplitude {
				best = Match{Frequency: c.Frequency, Amplitude: c.Amplitude, Order: order, Subharmonic: sub}
				bestFound = true
			}

			continue
		}

		if !altFound || c.Amplitude > alt.Amplitude {
			alt = Match{Frequency: c.Frequency, Amplitude: c.Amplitude}
			altFound = true
		}
	}

	if bestFound {
		return best, true
	}

	if altFound {
		return alt, true
	}

	return Match{}, false
}

// inWindow reports whether freq lies within +/- window of center.
func inWindow(freq, center, window uint64) bool {
	if freq >= center {
		return freq-center <= window
	}

	return center-freq <= window
}
