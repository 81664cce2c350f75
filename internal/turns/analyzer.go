package turns

import (
	"github.com/wavewatch-data/maneuver.report/internal/pose"
	"github.com/wavewatch-data/maneuver.report/internal/signal"
)

// Analyzer is the per-stream facade over the maneuver engine: three
// independent smoothing filters (knee, torso, rotation) feeding one state
// machine, plus the accumulated results of the session.
//
// Each stream needs its own Analyzer; there is no shared state between
// instances, so batch jobs run one per video. A single instance must only
// be driven from one goroutine at a time.
type Analyzer struct {
	cfg Config

	kneeFilter  *signal.EMA
	torsoFilter *signal.EMA
	rotFilter   *signal.EMA
	machine     *Machine

	results []TurnResult
}

// NewAnalyzer creates an analyzer with the given configuration.
func NewAnalyzer(cfg Config) *Analyzer {
	return &Analyzer{
		cfg:         cfg,
		kneeFilter:  signal.NewEMA(cfg.SmoothingAlpha),
		torsoFilter: signal.NewEMA(cfg.SmoothingAlpha),
		rotFilter:   signal.NewEMA(cfg.SmoothingAlpha),
		machine:     NewMachine(cfg),
	}
}

// ProcessFrame extracts the three angle signals from the frame pose,
// smooths each, and advances the state machine. When this frame completes
// a maneuver cycle the result is accumulated and returned; otherwise nil.
// Frames must arrive in strict temporal order.
func (a *Analyzer) ProcessFrame(fp pose.FramePose) *TurnResult {
	knee := a.kneeFilter.Update(pose.AverageKneeFlexion(fp))
	torso := a.torsoFilter.Update(pose.TorsoLeanAngle(fp))
	rot := a.rotFilter.Update(pose.RotationDifferential(fp))

	result := a.machine.Update(knee, torso, rot)
	if result != nil {
		a.results = append(a.results, *result)
	}
	return result
}

// State returns the human-readable label of the current detection phase.
func (a *Analyzer) State() string {
	return string(a.machine.State())
}

// Signals returns the current smoothed (knee, torso, rotation) triple.
// Values are zero before the first frame.
func (a *Analyzer) Signals() (knee, torso, rot float64) {
	return a.kneeFilter.Value(), a.torsoFilter.Value(), a.rotFilter.Value()
}

// FramesProcessed returns the number of frames consumed since construction
// or the last reset.
func (a *Analyzer) FramesProcessed() int {
	return a.machine.FrameIndex()
}

// Results returns a defensive copy of all accumulated turn results in
// completion order.
func (a *Analyzer) Results() []TurnResult {
	out := make([]TurnResult, len(a.results))
	copy(out, a.results)
	return out
}

// Reset reinitialises the filters and state machine and clears the
// accumulated results. The analyzer is then ready for a fresh stream;
// resuming a mid-sequence stream after a reset is caller misuse.
func (a *Analyzer) Reset() {
	a.kneeFilter.Reset()
	a.torsoFilter.Reset()
	a.rotFilter.Reset()
	a.machine.Reset()
	a.results = nil
}
