// Package sim provides a simulated driven transducer for tests and
// the demo CLI.
//
// The simulated load models current draw as a sum of Lorentzian
// resonance modes: driving near a mode center raises the amplitude of
// the sensed sine, which the sampler then sees as an increased
// peak-to-peak ADC swing. Readings are deterministic for a fixed seed.
package sim

import (
	"math"
	"math/rand"
)

// ADC model constants matching the default sampler configuration.
const (
	midCode   = 512 // ADC mid-rail operating point
	swingCode = 400 // ADC counts of swing at unit mode gain
)

// Mode is one Lorentzian resonance mode of the simulated load.
type Mode struct {
	Center uint64  // resonant frequency in Hz
	Width  float64 // half-width at half-maximum in Hz
	Gain   float64 // relative amplitude at the center
}

// DefaultModes returns a fundamental inside the full ultrasonic band
// with a weaker second harmonic.
func DefaultModes() []Mode {
	return []Mode{
		{Center: 21500, Width: 300, Gain: 1.0},
		{Center: 43000, Width: 350, Gain: 0.35},
	}
}

// Transducer simulates a frequency generator driving a resonant load
// sensed through a current-sensing ADC. It implements both the
// generator and raw-source interfaces consumed by the sweep core.
type Transducer struct {
	modes     []Mode
	noiseCode float64 // noise amplitude in ADC counts
	rng       *rand.Rand

	freq    uint64
	running bool
	phase   float64
}

// New creates a transducer with the given modes and a deterministic
// noise source. Nil or empty modes fall back to [DefaultModes].
func New(modes []Mode, seed int64) *Transducer {
	if len(modes) == 0 {
		modes = DefaultModes()
	}

	return &Transducer{
		modes:     modes,
		noiseCode: 1.5,
		rng:       rand.New(rand.NewSource(seed)),
	}
}

// SetNoise sets the noise amplitude in ADC counts.
func (t *Transducer) SetNoise(counts float64) {
	if counts >= 0 {
		t.noiseCode = counts
	}
}

// SetFrequency starts driving the load at hz.
func (t *Transducer) SetFrequency(hz uint64) {
	t.freq = hz
	t.running = true
}

// Stop halts the drive; subsequent reads see only noise.
func (t *Transducer) Stop() {
	t.running = false
}

// Response returns the relative current amplitude of the load at hz.
func (t *Transducer) Response(hz uint64) float64 {
	f := float64(hz)
	amp := 0.0

	for _, m := range t.modes {
		d := (f - float64(m.Center)) / m.Width
		amp += m.Gain / (1 + d*d)
	}

	return amp
}

// ReadRaw returns one instantaneous ADC code of the sensed current.
func (t *Transducer) ReadRaw() int {
	v := float64(midCode)

	if t.running {
		amp := t.Response(t.freq) * swingCode

		// Phase increment chosen so a 64-read burst spans several
		// cycles regardless of the simulated drive frequency.
		t.phase += 0.7
		v += amp * math.Sin(t.phase)
	}

	v += (t.rng.Float64()*2 - 1) * t.noiseCode

	code := int(math.Round(v))
	if code < 0 {
		code = 0
	}

	if code > 1023 {
		code = 1023
	}

	return code
}
