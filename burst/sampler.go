// Package burst implements oversampled amplitude estimation.
//
// A burst is a short run of back-to-back raw reads from a sensing ADC
// at a fixed drive frequency. The sampler tracks the running minimum
// and maximum code across the burst and converts the swing into a
// current amplitude through the sensing transfer function
// (reference voltage / full-scale code / sensitivity).
//
// A burst is the only blocking primitive in the measurement core: it
// busy-holds the caller for at most Readings*Spacing (see
// [Sampler.WorstCaseDuration]), so the polling loop driving a sweep
// stays responsive between steps.
package burst

import (
	"errors"
	"time"
)

// Errors returned by sampler construction.
var (
	ErrNilSource          = errors.New("burst: nil source")
	ErrInvalidReadings    = errors.New("burst: readings must be positive")
	ErrInvalidFullScale   = errors.New("burst: full-scale code must be positive")
	ErrInvalidSensitivity = errors.New("burst: sensitivity must be positive")
)

// Source supplies one instantaneous raw ADC code per call.
type Source interface {
	ReadRaw() int
}

// Config holds sampler parameters.
type Config struct {
	Readings    int           // raw reads per burst
	Spacing     time.Duration // delay between consecutive reads
	VRef        float64       // ADC reference voltage in volts
	FullScale   float64       // ADC full-scale code (e.g. 1023 for 10 bit)
	Sensitivity float64       // sensor transfer in volts per ampere
}

// DefaultConfig returns sampler defaults for a 10-bit ADC reading a
// hall-effect current sensor.
func DefaultConfig() Config {
	return Config{
		Readings:    64,
		Spacing:     20 * time.Microsecond,
		VRef:        5.0,
		FullScale:   1023,
		Sensitivity: 0.185,
	}
}

// Validate checks that the Config parameters are valid.
func (c Config) Validate() error {
	if c.Readings <= 0 {
		return ErrInvalidReadings
	}

	if c.FullScale <= 0 {
		return ErrInvalidFullScale
	}

	if c.Sensitivity <= 0 {
		return ErrInvalidSensitivity
	}

	return nil
}

// Amplitude is a single burst's derived amplitude estimate in amperes.
type Amplitude struct {
	Peak       float64 // half of the scaled peak-to-peak swing
	PeakToPeak float64 // full scaled swing
}

// Sampler converts raw read bursts into amplitude estimates.
//
// The last burst is retained in a pre-allocated buffer (scaled to
// amperes) so callers can feed it to offline analysis such as
// noise-floor estimation without re-reading.
type Sampler struct {
	cfg   Config
	src   Source
	last  []float64
	scale float64 // amperes per ADC count
}

// NewSampler creates a sampler reading from src.
func NewSampler(src Source, cfg Config) (*Sampler, error) {
	if src == nil {
		return nil, ErrNilSource
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return &Sampler{
		cfg:   cfg,
		src:   src,
		last:  make([]float64, cfg.Readings),
		scale: cfg.VRef / cfg.FullScale / cfg.Sensitivity,
	}, nil
}

// Config returns the sampler configuration.
func (s *Sampler) Config() Config {
	return s.cfg
}

// WorstCaseDuration is the upper bound on how long one burst may block
// the caller.
func (s *Sampler) WorstCaseDuration() time.Duration {
	return time.Duration(s.cfg.Readings) * s.cfg.Spacing
}

// Measure runs one burst at the configured inter-read spacing.
func (s *Sampler) Measure() Amplitude {
	return s.MeasureSpaced(s.cfg.Spacing)
}

// MeasureSpaced runs one burst with an explicit inter-read spacing.
// Fine refinement uses a shorter spacing than the coarse pass to keep
// per-step latency bounded while holding the read count constant.
//
// A flat signal yields a zero amplitude; Measure never fails.
func (s *Sampler) MeasureSpaced(spacing time.Duration) Amplitude {
	minCode := s.src.ReadRaw()
	maxCode := minCode
	s.last[0] = float64(minCode) * s.scale

	for i := 1; i < s.cfg.Readings; i++ {
		if spacing > 0 {
			time.Sleep(spacing)
		}

		code := s.src.ReadRaw()
		s.last[i] = float64(code) * s.scale

		if code < minCode {
			minCode = code
		}

		if code > maxCode {
			maxCode = code
		}
	}

	pkpk := float64(maxCode-minCode) * s.scale

	return Amplitude{Peak: pkpk / 2, PeakToPeak: pkpk}
}

// LastBurst returns the scaled samples of the most recent burst. The
// slice is reused by the next Measure call; callers that keep it must
// copy.
func (s *Sampler) LastBurst() []float64 {
	return s.last
}
