// Package scan drives a two-pass resonance sweep over a frequency band.
//
// A sweep walks a frequency generator across a configured band while
// sampling the current drawn by the load, using current amplitude as a
// proxy for mechanical resonance. The first (coarse) pass covers the
// whole band at a wide step and records a bounded amplitude curve; the
// strongest local maxima of that curve become refinement targets for
// the second (fine) pass, which re-sweeps a narrow window around each
// target at a finer step. The final result is the resonant frequency,
// its amplitude, and — when one exists — a harmonically related
// secondary frequency classified by the harmonic package.
//
// The controller is poll-driven and single-threaded: callers invoke
// [Controller.Tick] from an outer loop shared with unrelated periodic
// work. Tick is a no-op until the stabilization interval since the
// previous step has elapsed, and never blocks for longer than one
// measurement burst. All sweep state is owned by the controller; there
// is exactly one sweep in flight at a time.
//
//	ctrl, _ := scan.New(gen, sampler, scan.DefaultConfig())
//	_ = ctrl.Start(band.Range{Label: "full", Start: 20000, End: 46000})
//	for ctrl.Phase() != scan.PhaseComplete {
//	    ctrl.Tick()
//	    // ... other periodic work ...
//	}
//	result, _ := ctrl.Result()
package scan
