// Package sink provides ready-made progress sink implementations for
// the sweep controller.
package sink

import (
	"go.uber.org/zap"

	"github.com/cwbudde/algo-resonance/scan"
)

// ZapSink pushes sweep progress and completion events to a structured
// logger. Progress snapshots arrive once per sweep step, which at
// coarse resolution can be hundreds of events per second; Every
// subsamples them to keep logs readable.
type ZapSink struct {
	log   *zap.Logger
	every int
	seen  int
}

// NewZapSink creates a sink logging through log. every selects which
// fraction of progress snapshots is logged (1 = all); values below 1
// default to 25. Completion events are always logged.
func NewZapSink(log *zap.Logger, every int) *ZapSink {
	if log == nil {
		log = zap.NewNop()
	}

	if every < 1 {
		every = 25
	}

	return &ZapSink{log: log, every: every}
}

// SweepProgress logs every Nth snapshot at debug level.
func (z *ZapSink) SweepProgress(s scan.Snapshot) {
	z.seen++
	if (z.seen-1)%z.every != 0 {
		return
	}

	z.log.Debug("sweep progress",
		zap.Stringer("phase", s.Phase),
		zap.Uint64("frequency", s.Frequency),
		zap.Float64("amplitude", s.Amplitude),
		zap.Int("target", s.TargetIndex),
		zap.Int("step", s.Step),
		zap.Int("total_steps", s.TotalSteps),
	)
}

// SweepComplete logs the final result.
func (z *ZapSink) SweepComplete(r scan.Result, curve []scan.Point) {
	z.seen = 0

	z.log.Info("sweep complete",
		zap.Uint64("resonant_frequency", r.ResonantFrequency),
		zap.Float64("resonant_peak", r.ResonantPeak),
		zap.Float64("resonant_peak_to_peak", r.ResonantPeakToPeak),
		zap.Uint64("harmonic_frequency", r.HarmonicFrequency),
		zap.Float64("harmonic_amplitude", r.HarmonicAmplitude),
		zap.Int("curve_points", len(curve)),
	)
}

// Collector retains every event in memory. It is intended for tests
// and for presentation layers that render the curve after completion.
type Collector struct {
	Snapshots []scan.Snapshot
	Results   []scan.Result
	Curve     []scan.Point
}

// SweepProgress appends the snapshot.
func (c *Collector) SweepProgress(s scan.Snapshot) {
	c.Snapshots = append(c.Snapshots, s)
}

// SweepComplete appends the result and keeps the final curve.
func (c *Collector) SweepComplete(r scan.Result, curve []scan.Point) {
	c.Results = append(c.Results, r)
	c.Curve = curve
}

// Tee fans sink events out to several sinks in order.
func Tee(sinks ...scan.ProgressSink) scan.ProgressSink {
	return teeSink(sinks)
}

type teeSink []scan.ProgressSink

func (t teeSink) SweepProgress(s scan.Snapshot) {
	for _, sink := range t {
		if sink != nil {
			sink.SweepProgress(s)
		}
	}
}

func (t teeSink) SweepComplete(r scan.Result, curve []scan.Point) {
	for _, sink := range t {
		if sink != nil {
			sink.SweepComplete(r, curve)
		}
	}
}
