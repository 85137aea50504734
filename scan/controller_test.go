package scan

import (
	"errors"
	"testing"
	"time"

	"github.com/cwbudde/algo-resonance/band"
	"github.com/cwbudde/algo-resonance/burst"
	"github.com/cwbudde/algo-resonance/sim"
)

// collector records sink events for assertions.
type collector struct {
	snapshots []Snapshot
	result    Result
	curve     []Point
	completes int
}

func (c *collector) SweepProgress(s Snapshot) {
	c.snapshots = append(c.snapshots, s)
}

func (c *collector) SweepComplete(r Result, curve []Point) {
	c.result = r
	c.curve = curve
	c.completes++
}

func (c *collector) coarseSteps() int {
	n := 0

	for _, s := range c.snapshots {
		if s.Phase == PhaseCoarse {
			n++
		}
	}

	return n
}

type stubGenerator struct {
	freqs []uint64
	stops int
}

func (g *stubGenerator) SetFrequency(hz uint64) { g.freqs = append(g.freqs, hz) }
func (g *stubGenerator) Stop()                  { g.stops++ }

type flatSource int

func (s flatSource) ReadRaw() int { return int(s) }

func testSamplerConfig() burst.Config {
	return burst.Config{
		Readings:    32,
		Spacing:     0,
		VRef:        5,
		FullScale:   1023,
		Sensitivity: 0.185,
	}
}

// fastConfig removes all settle intervals so tests run flat out.
func fastConfig() Config {
	cfg := DefaultConfig()
	cfg.SettleInterval = 0
	cfg.FineSettleInterval = 0
	cfg.FineReadSpacing = 0
	cfg.SamplesPerStep = 2

	return cfg
}

func runToComplete(t *testing.T, c *Controller) {
	t.Helper()

	for i := 0; i < 1_000_000; i++ {
		if c.Phase() == PhaseComplete {
			return
		}

		c.Tick()
	}

	t.Fatal("sweep did not complete")
}

func newSimController(t *testing.T, modes []sim.Mode, opts ...Option) (*Controller, *sim.Transducer) {
	t.Helper()

	tr := sim.New(modes, 1)

	sampler, err := burst.NewSampler(tr, testSamplerConfig())
	if err != nil {
		t.Fatal(err)
	}

	c, err := New(tr, sampler, fastConfig(), opts...)
	if err != nil {
		t.Fatal(err)
	}

	return c, tr
}

func TestNewValidation(t *testing.T) {
	sampler, err := burst.NewSampler(flatSource(512), testSamplerConfig())
	if err != nil {
		t.Fatal(err)
	}

	if _, err := New(nil, sampler, Config{}); !errors.Is(err, ErrNilGenerator) {
		t.Errorf("New(nil gen) = %v, want ErrNilGenerator", err)
	}

	if _, err := New(&stubGenerator{}, nil, Config{}); !errors.Is(err, ErrNilSampler) {
		t.Errorf("New(nil sampler) = %v, want ErrNilSampler", err)
	}
}

func TestCoarseSweepFindsResonance(t *testing.T) {
	sink := &collector{}
	c, _ := newSimController(t, []sim.Mode{{Center: 32000, Width: 400, Gain: 1.0}}, WithSink(sink))

	if err := c.Start(band.Range{Label: "full", Start: 20000, End: 46000}); err != nil {
		t.Fatal(err)
	}

	runToComplete(t, c)

	res, ok := c.Result()
	if !ok {
		t.Fatal("no result after completion")
	}

	// A single-mode load must resolve within one coarse step.
	if d := absDiff(res.ResonantFrequency, 32000); d > 50 {
		t.Errorf("ResonantFrequency = %d, want within 50 Hz of 32000", res.ResonantFrequency)
	}

	if res.ResonantPeak <= 0 || res.ResonantPeakToPeak <= res.ResonantPeak {
		t.Errorf("amplitudes = %g / %g, want 0 < peak < pkpk", res.ResonantPeak, res.ResonantPeakToPeak)
	}

	// Band 20000..46000 at step 50 is exactly 521 coarse steps.
	if n := sink.coarseSteps(); n != 521 {
		t.Errorf("coarse steps = %d, want 521", n)
	}

	if sink.completes != 1 {
		t.Errorf("completes = %d, want 1", sink.completes)
	}
}

func TestRunningMaximumMatchesSnapshots(t *testing.T) {
	sink := &collector{}
	c, _ := newSimController(t, nil, WithSink(sink))

	if err := c.Start(band.Range{Start: 20000, End: 46000}); err != nil {
		t.Fatal(err)
	}

	runToComplete(t, c)

	res, _ := c.Result()

	maxSeen := 0.0
	for _, s := range sink.snapshots {
		if s.Amplitude > maxSeen {
			maxSeen = s.Amplitude
		}
	}

	// Every measurement is pushed to the sink, so the final peak is
	// exactly the maximum over all snapshots.
	if res.ResonantPeak != maxSeen {
		t.Errorf("ResonantPeak = %g, max snapshot amplitude = %g", res.ResonantPeak, maxSeen)
	}
}

func TestCurveOrderedAndBounded(t *testing.T) {
	c, _ := newSimController(t, nil)

	if err := c.Start(band.Range{Start: 20000, End: 46000}); err != nil {
		t.Fatal(err)
	}

	runToComplete(t, c)

	pts := c.Curve()
	if len(pts) == 0 || len(pts) > c.Config().CurveCapacity {
		t.Fatalf("curve length = %d, want in (0, %d]", len(pts), c.Config().CurveCapacity)
	}

	for i := 1; i < len(pts); i++ {
		if pts[i].Frequency <= pts[i-1].Frequency {
			t.Fatalf("curve out of order at %d", i)
		}
	}
}

func TestHarmonicScenario(t *testing.T) {
	c, _ := newSimController(t, []sim.Mode{
		{Center: 21500, Width: 300, Gain: 1.0},
		{Center: 43000, Width: 350, Gain: 0.35},
	})

	if err := c.Start(band.Range{Start: 20000, End: 46000}); err != nil {
		t.Fatal(err)
	}

	runToComplete(t, c)

	res, _ := c.Result()

	if d := absDiff(res.ResonantFrequency, 21500); d > 50 {
		t.Errorf("ResonantFrequency = %d, want within 50 Hz of 21500", res.ResonantFrequency)
	}

	if res.HarmonicFrequency == 0 {
		t.Fatal("no harmonic found, want ~43000")
	}

	if d := absDiff(res.HarmonicFrequency, 43000); d > 100 {
		t.Errorf("HarmonicFrequency = %d, want within 100 Hz of 43000", res.HarmonicFrequency)
	}

	if res.HarmonicAmplitude <= 0 || res.HarmonicAmplitude >= res.ResonantPeak {
		t.Errorf("HarmonicAmplitude = %g, want in (0, %g)", res.HarmonicAmplitude, res.ResonantPeak)
	}
}

func TestHarmonicFallbackToCoarseCurve(t *testing.T) {
	// With a single refinement target the fine pass produces only the
	// fundamental itself, which the exclusion window rejects. The
	// harmonic must then come from reclassifying the coarse curve at
	// the looser tolerance.
	sink := &collector{}

	cfg := fastConfig()
	cfg.MaxTargets = 1

	tr := sim.New([]sim.Mode{
		{Center: 21500, Width: 300, Gain: 1.0},
		{Center: 43000, Width: 350, Gain: 0.35},
	}, 1)

	sampler, err := burst.NewSampler(tr, testSamplerConfig())
	if err != nil {
		t.Fatal(err)
	}

	c, err := New(tr, sampler, cfg, WithSink(sink))
	if err != nil {
		t.Fatal(err)
	}

	if err := c.Start(band.Range{Start: 20000, End: 46000}); err != nil {
		t.Fatal(err)
	}

	runToComplete(t, c)

	if n := len(c.Targets()); n != 1 {
		t.Fatalf("len(targets) = %d, want 1", n)
	}

	res, _ := c.Result()

	if res.HarmonicFrequency == 0 {
		t.Fatal("no harmonic from coarse reclassification, want ~43000")
	}

	if d := absDiff(res.HarmonicFrequency, 43000); d > 100 {
		t.Errorf("HarmonicFrequency = %d, want within 100 Hz of 43000", res.HarmonicFrequency)
	}

	// The match is a coarse curve point: its frequency and amplitude
	// are exactly one of the points handed to the completion sink.
	found := false
	for _, p := range sink.curve {
		if p.Frequency == res.HarmonicFrequency && p.Amplitude == res.HarmonicAmplitude {
			found = true
			break
		}
	}

	if !found {
		t.Errorf("harmonic %d/%g not present in the coarse curve",
			res.HarmonicFrequency, res.HarmonicAmplitude)
	}
}

func TestTargetsSeededFromCoarseMaximum(t *testing.T) {
	c, _ := newSimController(t, []sim.Mode{
		{Center: 21500, Width: 300, Gain: 1.0},
		{Center: 43000, Width: 350, Gain: 0.35},
	})

	if err := c.Start(band.Range{Start: 20000, End: 46000}); err != nil {
		t.Fatal(err)
	}

	runToComplete(t, c)

	targets := c.Targets()
	if len(targets) < 2 {
		t.Fatalf("len(targets) = %d, want at least 2", len(targets))
	}

	if d := absDiff(targets[0].Center, 21500); d > 50 {
		t.Errorf("target 0 center = %d, want ~21500", targets[0].Center)
	}

	for i, tgt := range targets {
		if !tgt.Done {
			t.Errorf("target %d not marked done", i)
		}

		// Fine refinement never decreases a target's best amplitude
		// below its coarse seed; target 0 carries the global maximum.
		if tgt.BestAmplitude <= 0 {
			t.Errorf("target %d best amplitude = %g, want > 0", i, tgt.BestAmplitude)
		}
	}
}

func TestFlatSignalYieldsSentinels(t *testing.T) {
	sink := &collector{}

	sampler, err := burst.NewSampler(flatSource(512), testSamplerConfig())
	if err != nil {
		t.Fatal(err)
	}

	gen := &stubGenerator{}

	c, err := New(gen, sampler, fastConfig(), WithSink(sink))
	if err != nil {
		t.Fatal(err)
	}

	if err := c.Start(band.Range{Start: 20000, End: 46000}); err != nil {
		t.Fatal(err)
	}

	runToComplete(t, c)

	res, ok := c.Result()
	if !ok {
		t.Fatal("no result")
	}

	if res.ResonantFrequency != 0 || res.HarmonicFrequency != 0 {
		t.Errorf("result = %+v, want zero sentinels", res)
	}

	if len(c.Targets()) != 0 {
		t.Errorf("targets = %d, want 0 for a flat curve", len(c.Targets()))
	}

	if gen.stops == 0 {
		t.Error("generator never stopped")
	}
}

func TestDegenerateRangeSingleStep(t *testing.T) {
	sink := &collector{}
	c, _ := newSimController(t, nil, WithSink(sink))

	// endFreq < startFreq degrades to a single sample at startFreq.
	if err := c.Start(band.Range{Start: 30000, End: 20000}); err != nil {
		t.Fatal(err)
	}

	runToComplete(t, c)

	if n := sink.coarseSteps(); n != 1 {
		t.Errorf("coarse steps = %d, want 1", n)
	}

	if sink.snapshots[0].Frequency != 30000 {
		t.Errorf("sampled %d, want 30000", sink.snapshots[0].Frequency)
	}

	if _, ok := c.Result(); !ok {
		t.Error("no result for degenerate range")
	}
}

func TestStartWhileSweeping(t *testing.T) {
	c, _ := newSimController(t, nil)

	if err := c.Start(band.Range{Start: 20000, End: 46000}); err != nil {
		t.Fatal(err)
	}

	c.Tick()

	if err := c.Start(band.Range{Start: 20000, End: 46000}); !errors.Is(err, ErrSweepInProgress) {
		t.Errorf("Start() mid-sweep = %v, want ErrSweepInProgress", err)
	}
}

func TestRestartAfterComplete(t *testing.T) {
	c, _ := newSimController(t, nil)

	if err := c.Start(band.Range{Start: 21000, End: 22000}); err != nil {
		t.Fatal(err)
	}

	runToComplete(t, c)

	// A new start is honored from Complete without an explicit Reset.
	if err := c.Start(band.Range{Start: 42000, End: 44000}); err != nil {
		t.Fatal(err)
	}

	if _, ok := c.Result(); ok {
		t.Error("stale result visible after restart")
	}

	runToComplete(t, c)

	if _, ok := c.Result(); !ok {
		t.Error("no result after second sweep")
	}
}

func TestResetReturnsToIdle(t *testing.T) {
	c, _ := newSimController(t, nil)

	c.Reset() // no-op while idle
	if c.Phase() != PhaseIdle {
		t.Fatalf("Phase() = %v, want idle", c.Phase())
	}

	if err := c.Start(band.Range{Start: 21000, End: 21500}); err != nil {
		t.Fatal(err)
	}

	runToComplete(t, c)
	c.Reset()

	if c.Phase() != PhaseIdle {
		t.Errorf("Phase() after Reset = %v, want idle", c.Phase())
	}

	if _, ok := c.Result(); ok {
		t.Error("result survived Reset")
	}
}

func TestTickGatedByStabilizationInterval(t *testing.T) {
	now := time.Unix(0, 0)
	clock := func() time.Time { return now }

	sink := &collector{}

	cfg := fastConfig()
	cfg.SettleInterval = 5 * time.Millisecond

	tr := sim.New(nil, 1)

	sampler, err := burst.NewSampler(tr, testSamplerConfig())
	if err != nil {
		t.Fatal(err)
	}

	c, err := New(tr, sampler, cfg, WithSink(sink), WithClock(clock))
	if err != nil {
		t.Fatal(err)
	}

	if err := c.Start(band.Range{Start: 20000, End: 46000}); err != nil {
		t.Fatal(err)
	}

	// The interval has not elapsed: repeated ticks are no-ops.
	for i := 0; i < 10; i++ {
		c.Tick()
	}

	if len(sink.snapshots) != 0 {
		t.Fatalf("snapshots = %d before interval elapsed, want 0", len(sink.snapshots))
	}

	now = now.Add(5 * time.Millisecond)
	c.Tick()
	c.Tick() // second call within the same instant must not step again

	if len(sink.snapshots) != 1 {
		t.Fatalf("snapshots = %d after one interval, want 1", len(sink.snapshots))
	}
}

func TestPhaseString(t *testing.T) {
	tests := []struct {
		p    Phase
		want string
	}{
		{PhaseIdle, "idle"},
		{PhaseCoarse, "coarse"},
		{PhaseFine, "fine"},
		{PhaseComplete, "complete"},
		{Phase(42), "unknown"},
	}

	for _, tt := range tests {
		if got := tt.p.String(); got != tt.want {
			t.Errorf("Phase(%d).String() = %q, want %q", int(tt.p), got, tt.want)
		}
	}
}
