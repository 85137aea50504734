package scan

// Phase identifies the sweep state machine state.
type Phase int

// Sweep phases in execution order.
const (
	PhaseIdle Phase = iota
	PhaseCoarse
	PhaseFine
	PhaseComplete
)

// String returns the phase name.
func (p Phase) String() string {
	switch p {
	case PhaseIdle:
		return "idle"
	case PhaseCoarse:
		return "coarse"
	case PhaseFine:
		return "fine"
	case PhaseComplete:
		return "complete"
	default:
		return "unknown"
	}
}

// Snapshot is one progress report pushed to the sink after each step.
type Snapshot struct {
	Phase       Phase
	Frequency   uint64  // frequency just measured, Hz
	Amplitude   float64 // averaged peak amplitude at that frequency
	TargetIndex int     // fine target being refined; -1 during the coarse phase
	Step        int     // 1-based step within the current phase window
	TotalSteps  int     // total steps in the current phase window
}

// Result is the finalized outcome of one sweep. Sentinel zero values
// report degraded outcomes: ResonantFrequency 0 means no resonance was
// distinguishable from noise, HarmonicFrequency 0 means no harmonic
// (or secondary resonance) was found.
type Result struct {
	ResonantFrequency  uint64  `json:"resonant_frequency"`
	ResonantPeak       float64 `json:"resonant_peak"`
	ResonantPeakToPeak float64 `json:"resonant_peak_to_peak"`
	HarmonicFrequency  uint64  `json:"harmonic_frequency"`
	HarmonicAmplitude  float64 `json:"harmonic_amplitude"`
}

// ProgressSink receives push-only progress and completion events from
// a sweep. The controller never queries the sink; implementations must
// not call back into the controller.
type ProgressSink interface {
	// SweepProgress is invoked once per completed step.
	SweepProgress(Snapshot)

	// SweepComplete is invoked once per sweep with the final result
	// and the full coarse curve for presentation. The curve slice is
	// owned by the receiver.
	SweepComplete(Result, []Point)
}

// nopSink is the default sink.
type nopSink struct{}

func (nopSink) SweepProgress(Snapshot)        {}
func (nopSink) SweepComplete(Result, []Point) {}
