package scan

import (
	"errors"
	"time"

	"github.com/cwbudde/algo-resonance/band"
	"github.com/cwbudde/algo-resonance/burst"
	"github.com/cwbudde/algo-resonance/harmonic"
)

// Errors returned by controller construction and control operations.
var (
	ErrNilGenerator    = errors.New("scan: nil generator")
	ErrNilSampler      = errors.New("scan: nil sampler")
	ErrSweepInProgress = errors.New("scan: sweep in progress")
)

// Generator drives the load at a commanded frequency. Calls are
// assumed to always succeed; the controller does not verify the
// actual output frequency.
type Generator interface {
	SetFrequency(hz uint64)
	Stop()
}

// Option configures a Controller.
type Option func(*Controller)

// WithSink attaches a progress sink.
func WithSink(s ProgressSink) Option {
	return func(c *Controller) {
		if s != nil {
			c.sink = s
		}
	}
}

// WithClock overrides the monotonic clock used to gate step
// advancement. Intended for tests.
func WithClock(now func() time.Time) Option {
	return func(c *Controller) {
		if now != nil {
			c.now = now
		}
	}
}

// Controller owns all state of one sweep at a time and advances it
// cooperatively through repeated Tick calls.
type Controller struct {
	cfg     Config
	gen     Generator
	sampler *burst.Sampler
	sink    ProgressSink
	now     func() time.Time

	phase    Phase
	start    uint64
	end      uint64
	freq     uint64
	lastStep time.Time

	curve   *Curve
	maxAmp  float64
	resFreq uint64
	resPkPk float64

	targets   []Target
	targetIdx int
	fineEnd   uint64

	step       int
	totalSteps int

	result    Result
	hasResult bool
}

// New creates an idle controller. The configuration is normalized:
// out-of-range values fall back to defaults.
func New(gen Generator, sampler *burst.Sampler, cfg Config, opts ...Option) (*Controller, error) {
	if gen == nil {
		return nil, ErrNilGenerator
	}

	if sampler == nil {
		return nil, ErrNilSampler
	}

	cfg = normalizeConfig(cfg)

	c := &Controller{
		cfg:     cfg,
		gen:     gen,
		sampler: sampler,
		sink:    nopSink{},
		now:     time.Now,
		curve:   NewCurve(cfg.CurveCapacity),
	}

	for _, opt := range opts {
		if opt != nil {
			opt(c)
		}
	}

	return c, nil
}

// Phase returns the current sweep phase.
func (c *Controller) Phase() Phase {
	return c.phase
}

// Config returns the normalized configuration.
func (c *Controller) Config() Config {
	return c.cfg
}

// Start begins a sweep over r. A new start is only honored while the
// controller is Idle or Complete; mid-sweep restarts return
// ErrSweepInProgress.
//
// A degenerate range (End <= Start) is swept as a single step at
// Start rather than rejected.
func (c *Controller) Start(r band.Range) error {
	if c.phase == PhaseCoarse || c.phase == PhaseFine {
		return ErrSweepInProgress
	}

	c.start = r.Start
	c.end = r.End

	if c.end <= c.start {
		c.end = c.start
	}

	c.curve.Reset()
	c.maxAmp = 0
	c.resFreq = 0
	c.resPkPk = 0
	c.targets = nil
	c.targetIdx = 0
	c.result = Result{}
	c.hasResult = false

	c.freq = c.start
	c.step = 0
	c.totalSteps = int((c.end-c.start)/c.cfg.CoarseStep) + 1

	c.gen.SetFrequency(c.freq)
	c.lastStep = c.now()
	c.phase = PhaseCoarse

	return nil
}

// Reset returns a Complete controller to Idle, discarding the result.
// It is a no-op in any other phase.
func (c *Controller) Reset() {
	if c.phase != PhaseComplete {
		return
	}

	c.phase = PhaseIdle
	c.result = Result{}
	c.hasResult = false
}

// Tick advances the sweep by at most one step. It returns immediately
// when the controller is Idle or Complete, or when the stabilization
// interval since the previous step has not yet elapsed. The longest a
// call can block is one averaged measurement burst.
func (c *Controller) Tick() {
	switch c.phase {
	case PhaseCoarse:
		c.tickCoarse()
	case PhaseFine:
		c.tickFine()
	case PhaseIdle, PhaseComplete:
	}
}

// Result returns the finalized sweep outcome. ok is false until the
// sweep has completed.
func (c *Controller) Result() (Result, bool) {
	return c.result, c.hasResult
}

// Curve returns a copy of the stored coarse curve.
func (c *Controller) Curve() []Point {
	pts := c.curve.Points()

	out := make([]Point, len(pts))
	copy(out, pts)

	return out
}

// Targets returns a copy of the refinement targets selected after the
// coarse pass.
func (c *Controller) Targets() []Target {
	out := make([]Target, len(c.targets))
	copy(out, c.targets)

	return out
}

func (c *Controller) tickCoarse() {
	now := c.now()
	if now.Sub(c.lastStep) < c.cfg.SettleInterval {
		return
	}

	amp := c.measure(c.sampler.Config().Spacing)
	c.curve.Append(Point{Frequency: c.freq, Amplitude: amp.Peak})

	// Strict greater-than: the first point wins ties.
	if amp.Peak > c.maxAmp {
		c.maxAmp = amp.Peak
		c.resFreq = c.freq
		c.resPkPk = amp.PeakToPeak
	}

	c.step++
	c.sink.SweepProgress(Snapshot{
		Phase:       PhaseCoarse,
		Frequency:   c.freq,
		Amplitude:   amp.Peak,
		TargetIndex: -1,
		Step:        c.step,
		TotalSteps:  c.totalSteps,
	})

	c.lastStep = now

	if c.freq+c.cfg.CoarseStep > c.end {
		c.finishCoarse(now)
		return
	}

	c.freq += c.cfg.CoarseStep
	c.gen.SetFrequency(c.freq)
}

// finishCoarse transitions out of the coarse phase: into fine
// refinement when targets exist, directly to Complete otherwise.
func (c *Controller) finishCoarse(now time.Time) {
	c.gen.Stop()

	// A maximum at or below the floor is indistinguishable from
	// noise; the sweep reports the no-resonance sentinel.
	if c.maxAmp <= c.cfg.FloorAmplitude {
		c.maxAmp = 0
		c.resFreq = 0
		c.resPkPk = 0
	}

	c.targets = selectTargets(c.curve.Points(), c.resFreq, c.maxAmp, c.resPkPk, c.cfg)

	if len(c.targets) == 0 {
		c.classifyCoarse()
		c.complete()

		return
	}

	c.targetIdx = 0
	c.enterFine(now)
}

// enterFine re-initializes the narrow sweep around the current target,
// clamped to the band.
func (c *Controller) enterFine(now time.Time) {
	t := c.targets[c.targetIdx]

	lo := c.start
	if t.Center > c.start && t.Center-c.start > c.cfg.FineHalfWidth {
		lo = t.Center - c.cfg.FineHalfWidth
	}

	hi := t.Center + c.cfg.FineHalfWidth
	if hi > c.end {
		hi = c.end
	}

	c.freq = lo
	c.fineEnd = hi
	c.step = 0
	c.totalSteps = int((hi-lo)/c.cfg.FineStep) + 1

	c.gen.SetFrequency(lo)
	c.lastStep = now
	c.phase = PhaseFine
}

func (c *Controller) tickFine() {
	now := c.now()
	if now.Sub(c.lastStep) < c.cfg.FineSettleInterval {
		return
	}

	amp := c.measure(c.cfg.FineReadSpacing)
	t := &c.targets[c.targetIdx]

	if amp.Peak > t.BestAmplitude {
		t.BestAmplitude = amp.Peak
		t.BestFrequency = c.freq
		t.BestPeakToPeak = amp.PeakToPeak
	}

	if amp.Peak > c.maxAmp {
		c.maxAmp = amp.Peak
		c.resFreq = c.freq
		c.resPkPk = amp.PeakToPeak
	}

	c.step++
	c.sink.SweepProgress(Snapshot{
		Phase:       PhaseFine,
		Frequency:   c.freq,
		Amplitude:   amp.Peak,
		TargetIndex: c.targetIdx,
		Step:        c.step,
		TotalSteps:  c.totalSteps,
	})

	c.lastStep = now

	if c.freq+c.cfg.FineStep > c.fineEnd {
		t.Done = true
		c.targetIdx++

		if c.targetIdx < len(c.targets) {
			c.enterFine(now)
			return
		}

		c.gen.Stop()
		c.classifyFine()
		c.complete()

		return
	}

	c.freq += c.cfg.FineStep
	c.gen.SetFrequency(c.freq)
}

// measure averages SamplesPerStep bursts at the current frequency.
func (c *Controller) measure(spacing time.Duration) burst.Amplitude {
	n := c.cfg.SamplesPerStep

	var peak, pkpk float64

	for i := 0; i < n; i++ {
		a := c.sampler.MeasureSpaced(spacing)
		peak += a.Peak
		pkpk += a.PeakToPeak
	}

	return burst.Amplitude{
		Peak:       peak / float64(n),
		PeakToPeak: pkpk / float64(n),
	}
}

func (c *Controller) harmonicConfig(tolerance float64) harmonic.Config {
	return harmonic.Config{
		MaxOrder:  c.cfg.MaxHarmonicOrder,
		Tolerance: tolerance,
		Exclusion: uint64(c.cfg.ExclusionSteps) * c.cfg.CoarseStep,
	}
}

// classifyFine classifies harmonics from the refined target results,
// falling back to the coarse curve when the fine data yields no match.
func (c *Controller) classifyFine() {
	if c.resFreq == 0 {
		return
	}

	cands := make([]harmonic.Candidate, 0, len(c.targets))

	for _, t := range c.targets {
		if t.BestFrequency != 0 {
			cands = append(cands, harmonic.Candidate{
				Frequency: t.BestFrequency,
				Amplitude: t.BestAmplitude,
			})
		}
	}

	m, ok := harmonic.Classify(c.resFreq, cands, c.harmonicConfig(c.cfg.FineTolerance))
	if !ok {
		m, ok = harmonic.Classify(c.resFreq, c.curveCandidates(), c.harmonicConfig(c.cfg.CoarseTolerance))
	}

	if ok {
		c.result.HarmonicFrequency = m.Frequency
		c.result.HarmonicAmplitude = m.Amplitude
	}
}

// classifyCoarse classifies harmonics directly from the coarse curve.
func (c *Controller) classifyCoarse() {
	if c.resFreq == 0 {
		return
	}

	m, ok := harmonic.Classify(c.resFreq, c.curveCandidates(), c.harmonicConfig(c.cfg.CoarseTolerance))
	if ok {
		c.result.HarmonicFrequency = m.Frequency
		c.result.HarmonicAmplitude = m.Amplitude
	}
}

func (c *Controller) curveCandidates() []harmonic.Candidate {
	pts := c.curve.Points()

	cands := make([]harmonic.Candidate, len(pts))
	for i, p := range pts {
		cands[i] = harmonic.Candidate{Frequency: p.Frequency, Amplitude: p.Amplitude}
	}

	return cands
}

// complete finalizes the result and pushes it to the sink.
func (c *Controller) complete() {
	c.result.ResonantFrequency = c.resFreq
	c.result.ResonantPeak = c.maxAmp
	c.result.ResonantPeakToPeak = c.resPkPk
	c.hasResult = true
	c.phase = PhaseComplete

	c.sink.SweepComplete(c.result, c.Curve())
}
