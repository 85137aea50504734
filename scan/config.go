package scan

import "time"

// Default sweep parameters. The threshold constants (peak fraction,
// harmonic tolerances, dedup/exclusion windows) carry measurement
// meaning and are deliberately configurable rather than derived.
const (
	defaultCoarseStep         = 50
	defaultFineStep           = 5
	defaultFineHalfWidth      = 200
	defaultSamplesPerStep     = 4
	defaultSettleInterval     = 5 * time.Millisecond
	defaultFineSettleInterval = 2 * time.Millisecond
	defaultFineReadSpacing    = 5 * time.Microsecond
	defaultCurveCapacity      = 256
	defaultMaxTargets         = 3
	defaultPeakFraction       = 0.08
	defaultFloorAmplitude     = 0.02
	defaultDedupSteps         = 3
	defaultExclusionSteps     = 4
	defaultMaxHarmonicOrder   = 6
	defaultCoarseTolerance    = 0.12
	defaultFineTolerance      = 0.08
)

// Config holds sweep parameters.
type Config struct {
	CoarseStep    uint64 // Hz advanced per coarse step
	FineStep      uint64 // Hz advanced per fine step
	FineHalfWidth uint64 // Hz swept on each side of a fine target

	SamplesPerStep     int           // amplitude bursts averaged per step
	SettleInterval     time.Duration // minimum dwell between coarse steps
	FineSettleInterval time.Duration // minimum dwell between fine steps
	FineReadSpacing    time.Duration // inter-read spacing within fine bursts

	CurveCapacity int // stored coarse curve points before decimation
	MaxTargets    int // refinement targets kept after the coarse pass

	PeakFraction   float64 // local maxima below this fraction of the global maximum are ignored
	FloorAmplitude float64 // absolute amplitude floor in amperes
	DedupSteps     int     // dedup window around accepted targets, in coarse steps

	MaxHarmonicOrder int     // highest integer ratio checked
	CoarseTolerance  float64 // harmonic ratio tolerance for coarse-curve classification
	FineTolerance    float64 // harmonic ratio tolerance for fine-target classification
	ExclusionSteps   int     // window around the fundamental excluded from classification, in coarse steps
}

// DefaultConfig returns sweep defaults suitable for ultrasonic
// transducer bands in the tens of kilohertz.
func DefaultConfig() Config {
	return Config{
		CoarseStep:         defaultCoarseStep,
		FineStep:           defaultFineStep,
		FineHalfWidth:      defaultFineHalfWidth,
		SamplesPerStep:     defaultSamplesPerStep,
		SettleInterval:     defaultSettleInterval,
		FineSettleInterval: defaultFineSettleInterval,
		FineReadSpacing:    defaultFineReadSpacing,
		CurveCapacity:      defaultCurveCapacity,
		MaxTargets:         defaultMaxTargets,
		PeakFraction:       defaultPeakFraction,
		FloorAmplitude:     defaultFloorAmplitude,
		DedupSteps:         defaultDedupSteps,
		MaxHarmonicOrder:   defaultMaxHarmonicOrder,
		CoarseTolerance:    defaultCoarseTolerance,
		FineTolerance:      defaultFineTolerance,
		ExclusionSteps:     defaultExclusionSteps,
	}
}

// normalizeConfig replaces out-of-range values with defaults so a
// zero-valued Config still produces a working sweep.
func normalizeConfig(cfg Config) Config {
	def := DefaultConfig()

	if cfg.CoarseStep == 0 {
		cfg.CoarseStep = def.CoarseStep
	}

	if cfg.FineStep == 0 {
		cfg.FineStep = def.FineStep
	}

	if cfg.FineHalfWidth == 0 {
		cfg.FineHalfWidth = def.FineHalfWidth
	}

	if cfg.SamplesPerStep <= 0 {
		cfg.SamplesPerStep = def.SamplesPerStep
	}

	if cfg.CurveCapacity < 8 {
		cfg.CurveCapacity = def.CurveCapacity
	}

	if cfg.MaxTargets <= 0 {
		cfg.MaxTargets = def.MaxTargets
	}

	if cfg.PeakFraction <= 0 || cfg.PeakFraction >= 1 {
		cfg.PeakFraction = def.PeakFraction
	}

	if cfg.FloorAmplitude < 0 {
		cfg.FloorAmplitude = def.FloorAmplitude
	}

	if cfg.DedupSteps <= 0 {
		cfg.DedupSteps = def.DedupSteps
	}

	if cfg.MaxHarmonicOrder < 2 {
		cfg.MaxHarmonicOrder = def.MaxHarmonicOrder
	}

	if cfg.CoarseTolerance <= 0 {
		cfg.CoarseTolerance = def.CoarseTolerance
	}

	if cfg.FineTolerance <= 0 {
		cfg.FineTolerance = def.FineTolerance
	}

	if cfg.ExclusionSteps <= 0 {
		cfg.ExclusionSteps = def.ExclusionSteps
	}

	return cfg
}
