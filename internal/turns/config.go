package turns

import (
	"github.com/wavewatch-data/maneuver.report/internal/config"
)

// Config holds every tunable of the detection engine: filter decay, state
// timing, entry/exit thresholds, and the scoring rubric. All thresholds are
// evaluated on smoothed signal values.
type Config struct {
	SmoothingAlpha  float64 // EMA decay factor [0, 1)
	HistoryCapacity int     // Rolling history length per signal

	MinStateFrames   int // Minimum frames before bottom/top exits may fire
	TransitionFrames int // Fixed frames spent rising to the lip
	CooldownFrames   int // Fixed frames before re-arming detection

	// Bottom-turn entry window: all three must hold in the same frame.
	EntryKneeMin     float64 // Degrees
	EntryKneeMax     float64
	EntryTorsoMin    float64
	EntryTorsoMax    float64
	EntryRotationMin float64

	// Bottom-turn exit conditions.
	BottomExitKneeRise     float64 // Knee rise vs previous frame (degrees)
	BottomExitTorsoUpright float64 // Torso strictly below this is upright
	BottomExitTorsoDrop    float64 // Or torso at least this far under the snapshot's

	// Top-turn exit conditions.
	TopExitTorsoMax     float64
	TopExitRotationMin  float64
	TopExitExtensionMin float64 // Knee extension over the snapshot knee

	// TargetKneeDeg is the biomechanical ideal compression angle the
	// snapshot tracker pulls toward.
	TargetKneeDeg float64

	Rubric Rubric
}

// DefaultConfig returns engine configuration loaded from the canonical
// tuning defaults file (config/tuning.defaults.json). Panics if the file
// cannot be found; intended for tests and binaries that have already
// validated config availability.
func DefaultConfig() Config {
	return ConfigFromTuning(config.MustLoadDefaultConfig())
}

// ConfigFromTuning builds a Config from a loaded TuningConfig. Use this in
// production code where the TuningConfig is already loaded. The scoring
// rubric keeps its canonical bands except for the smoothness sample rule,
// which follows the tuning file.
func ConfigFromTuning(cfg *config.TuningConfig) Config {
	rubric := DefaultRubric()
	rubric.SmoothnessMinSamples = cfg.GetSmoothnessMinSamples()

	return Config{
		SmoothingAlpha:         cfg.GetSmoothingAlpha(),
		HistoryCapacity:        cfg.GetHistoryCapacity(),
		MinStateFrames:         cfg.GetMinStateFrames(),
		TransitionFrames:       cfg.GetTransitionFrames(),
		CooldownFrames:         cfg.GetCooldownFrames(),
		EntryKneeMin:           cfg.GetEntryKneeMin(),
		EntryKneeMax:           cfg.GetEntryKneeMax(),
		EntryTorsoMin:          cfg.GetEntryTorsoMin(),
		EntryTorsoMax:          cfg.GetEntryTorsoMax(),
		EntryRotationMin:       cfg.GetEntryRotationMin(),
		BottomExitKneeRise:     cfg.GetBottomExitKneeRise(),
		BottomExitTorsoUpright: cfg.GetBottomExitTorsoUpright(),
		BottomExitTorsoDrop:    cfg.GetBottomExitTorsoDrop(),
		TopExitTorsoMax:        cfg.GetTopExitTorsoMax(),
		TopExitRotationMin:     cfg.GetTopExitRotationMin(),
		TopExitExtensionMin:    cfg.GetTopExitExtensionMin(),
		TargetKneeDeg:          cfg.GetTargetKneeDeg(),
		Rubric:                 rubric,
	}
}
