package scan

import "sort"

// Target is one fine-refinement window produced by the coarse pass.
type Target struct {
	Center         uint64  // coarse frequency the window is centered on
	BestFrequency  uint64  // best frequency found so far
	BestAmplitude  float64 // best amplitude found so far
	BestPeakToPeak float64
	Done           bool // refinement of this target has completed
}

// selectTargets post-processes a completed coarse curve into at most
// cfg.MaxTargets refinement targets.
//
// Target 0 always seeds the global maximum's own frequency and
// amplitude, so the true resonance is refined even when sweep edge
// effects keep it from registering as a strict local maximum. Further
// candidates are strict local maxima at or above the relative
// threshold (floored by the absolute minimum), accepted in descending
// amplitude order and only outside the deduplication window of every
// already-accepted target.
func selectTargets(curve []Point, maxFreq uint64, maxAmp, maxPkPk float64, cfg Config) []Target {
	if len(curve) < 3 || maxFreq == 0 || maxAmp <= cfg.FloorAmplitude {
		return nil
	}

	targets := make([]Target, 0, cfg.MaxTargets)
	targets = append(targets, Target{
		Center:         maxFreq,
		BestFrequency:  maxFreq,
		BestAmplitude:  maxAmp,
		BestPeakToPeak: maxPkPk,
	})

	threshold := cfg.PeakFraction * maxAmp
	if threshold < cfg.FloorAmplitude {
		threshold = cfg.FloorAmplitude
	}

	var cands []Point

	for i := 1; i < len(curve)-1; i++ {
		p := curve[i]
		if p.Amplitude > curve[i-1].Amplitude && p.Amplitude > curve[i+1].Amplitude && p.Amplitude >= threshold {
			cands = append(cands, p)
		}
	}

	sort.Slice(cands, func(i, j int) bool {
		return cands[i].Amplitude > cands[j].Amplitude
	})

	window := uint64(cfg.DedupSteps) * cfg.CoarseStep

	for _, cand := range cands {
		if len(targets) >= cfg.MaxTargets {
			break
		}

		dup := false

		for _, t := range targets {
			if windowContains(t.Center, cand.Frequency, window) {
				dup = true
				break
			}
		}

		if dup {
			continue
		}

		targets = append(targets, Target{
			Center:        cand.Frequency,
			BestFrequency: cand.Frequency,
			BestAmplitude: cand.Amplitude,
		})
	}

	return targets
}

// windowContains reports whether freq lies within +/- window of center.
func windowContains(center, freq, window uint64) bool {
	if freq >= center {
		return freq-center <= window
	}

	return center-freq <= window
}
