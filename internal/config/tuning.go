package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
)

// DefaultConfigPath is the path to the canonical tuning defaults file.
// This is the single source of truth for all default tuning values.
const DefaultConfigPath = "config/tuning.defaults.json"

// TuningConfig represents the root configuration for tuning parameters.
// Fields omitted from the JSON file fall back to the hardcoded defaults
// in the Get* accessors, so partial configs are safe.
type TuningConfig struct {
	// Signal params
	SmoothingAlpha  *float64 `json:"smoothing_alpha,omitempty"`
	HistoryCapacity *int     `json:"history_capacity,omitempty"`

	// State machine timing params (frame counts)
	MinStateFrames   *int `json:"min_state_frames,omitempty"`
	TransitionFrames *int `json:"transition_frames,omitempty"`
	CooldownFrames   *int `json:"cooldown_frames,omitempty"`

	// Bottom-turn entry thresholds (degrees, evaluated on smoothed signals)
	EntryKneeMin     *float64 `json:"entry_knee_min,omitempty"`
	EntryKneeMax     *float64 `json:"entry_knee_max,omitempty"`
	EntryTorsoMin    *float64 `json:"entry_torso_min,omitempty"`
	EntryTorsoMax    *float64 `json:"entry_torso_max,omitempty"`
	EntryRotationMin *float64 `json:"entry_rotation_min,omitempty"`

	// Bottom-turn exit thresholds
	BottomExitKneeRise     *float64 `json:"bottom_exit_knee_rise,omitempty"`
	BottomExitTorsoUpright *float64 `json:"bottom_exit_torso_upright,omitempty"`
	BottomExitTorsoDrop    *float64 `json:"bottom_exit_torso_drop,omitempty"`

	// Top-turn exit thresholds
	TopExitTorsoMax     *float64 `json:"top_exit_torso_max,omitempty"`
	TopExitRotationMin  *float64 `json:"top_exit_rotation_min,omitempty"`
	TopExitExtensionMin *float64 `json:"top_exit_extension_min,omitempty"`

	// Snapshot params
	TargetKneeDeg *float64 `json:"target_knee_deg,omitempty"`

	// Smoothness scoring params
	SmoothnessMinSamples *int `json:"smoothness_min_samples,omitempty"`
}

// Helper functions to create pointers
func ptrFloat64(v float64) *float64 { return &v }
func ptrInt(v int) *int             { return &v }

// EmptyTuningConfig returns a TuningConfig with all fields set to nil.
// Use LoadTuningConfig to load actual values from the defaults file.
func EmptyTuningConfig() *TuningConfig {
	return &TuningConfig{}
}

// DefaultTuningConfig returns a TuningConfig with every field explicitly
// set to its canonical default. Useful when a fully-populated config is
// needed without reading the defaults file (e.g. serialising the current
// defaults back out).
func DefaultTuningConfig() *TuningConfig {
	return &TuningConfig{
		SmoothingAlpha:         ptrFloat64(0.9),
		HistoryCapacity:        ptrInt(30),
		MinStateFrames:         ptrInt(6),
		TransitionFrames:       ptrInt(3),
		CooldownFrames:         ptrInt(12),
		EntryKneeMin:           ptrFloat64(70),
		EntryKneeMax:           ptrFloat64(100),
		EntryTorsoMin:          ptrFloat64(20),
		EntryTorsoMax:          ptrFloat64(40),
		EntryRotationMin:       ptrFloat64(15),
		BottomExitKneeRise:     ptrFloat64(3),
		BottomExitTorsoUpright: ptrFloat64(18),
		BottomExitTorsoDrop:    ptrFloat64(5),
		TopExitTorsoMax:        ptrFloat64(30),
		TopExitRotationMin:     ptrFloat64(10),
		TopExitExtensionMin:    ptrFloat64(5),
		TargetKneeDeg:          ptrFloat64(85),
		SmoothnessMinSamples:   ptrInt(5),
	}
}

// LoadTuningConfig loads a TuningConfig from a JSON file.
// The file is validated to ensure it has a .json extension and is under the max file size.
// Fields omitted from the JSON file retain their default values, so
// partial configs are safe.
func LoadTuningConfig(path string) (*TuningConfig, error) {
	// Validate the config file path.
	cleanPath := filepath.Clean(path)
	if ext := filepath.Ext(cleanPath); ext != ".json" {
		return nil, fmt.Errorf("config file must have .json extension, got %q", ext)
	}

	// Check file size for safety (max 1MB)
	fileInfo, err := os.Stat(cleanPath)
	if err != nil {
		return nil, fmt.Errorf("failed to stat config file: %w", err)
	}
	const maxFileSize = 1 * 1024 * 1024 // 1MB
	if fileInfo.Size() > maxFileSize {
		return nil, fmt.Errorf("config file too large: %d bytes (max %d)", fileInfo.Size(), maxFileSize)
	}

	data, err := os.ReadFile(cleanPath)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	// Parse JSON into empty config. The Get* methods provide fallback
	// defaults for any fields not specified in the JSON.
	cfg := EmptyTuningConfig()
	if err := json.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config JSON: %w", err)
	}

	// Validate the configuration
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return cfg, nil
}

// MustLoadDefaultConfig loads the canonical tuning defaults from DefaultConfigPath.
// It searches for the file in the current directory and common parent directories.
// Panics if the file cannot be loaded, intended for test setup.
func MustLoadDefaultConfig() *TuningConfig {
	// Try paths from current dir up to repo root
	candidates := []string{
		DefaultConfigPath,
		"../../" + DefaultConfigPath,       // from internal/config/
		"../../../" + DefaultConfigPath,    // from internal/turns/monitor/
		"../../../../" + DefaultConfigPath, // deeper packages
	}
	for _, path := range candidates {
		if cfg, err := LoadTuningConfig(path); err == nil {
			return cfg
		}
	}
	panic("cannot find " + DefaultConfigPath + " - run tests from repository root")
}

// Validate checks that the configuration values are valid.
func (c *TuningConfig) Validate() error {
	if c.SmoothingAlpha != nil {
		if *c.SmoothingAlpha < 0 || *c.SmoothingAlpha >= 1 {
			return fmt.Errorf("smoothing_alpha must be in [0, 1), got %f", *c.SmoothingAlpha)
		}
	}

	if c.HistoryCapacity != nil {
		if *c.HistoryCapacity < 1 {
			return fmt.Errorf("history_capacity must be positive, got %d", *c.HistoryCapacity)
		}
	}

	if c.MinStateFrames != nil && *c.MinStateFrames < 1 {
		return fmt.Errorf("min_state_frames must be positive, got %d", *c.MinStateFrames)
	}
	if c.TransitionFrames != nil && *c.TransitionFrames < 1 {
		return fmt.Errorf("transition_frames must be positive, got %d", *c.TransitionFrames)
	}
	if c.CooldownFrames != nil && *c.CooldownFrames < 1 {
		return fmt.Errorf("cooldown_frames must be positive, got %d", *c.CooldownFrames)
	}

	// Entry windows must be well-ordered when both edges are given.
	if c.EntryKneeMin != nil && c.EntryKneeMax != nil {
		if *c.EntryKneeMin > *c.EntryKneeMax {
			return fmt.Errorf("entry_knee_min (%f) must not exceed entry_knee_max (%f)", *c.EntryKneeMin, *c.EntryKneeMax)
		}
	}
	if c.EntryTorsoMin != nil && c.EntryTorsoMax != nil {
		if *c.EntryTorsoMin > *c.EntryTorsoMax {
			return fmt.Errorf("entry_torso_min (%f) must not exceed entry_torso_max (%f)", *c.EntryTorsoMin, *c.EntryTorsoMax)
		}
	}

	if c.TargetKneeDeg != nil {
		if *c.TargetKneeDeg < 0 || *c.TargetKneeDeg > 180 {
			return fmt.Errorf("target_knee_deg must be in [0, 180], got %f", *c.TargetKneeDeg)
		}
	}

	if c.SmoothnessMinSamples != nil && *c.SmoothnessMinSamples < 1 {
		return fmt.Errorf("smoothness_min_samples must be positive, got %d", *c.SmoothnessMinSamples)
	}

	return nil
}

// GetSmoothingAlpha returns the smoothing_alpha value or the default.
func (c *TuningConfig) GetSmoothingAlpha() float64 {
	if c.SmoothingAlpha == nil {
		return 0.9
	}
	return *c.SmoothingAlpha
}

// GetHistoryCapacity returns the history_capacity value or the default.
func (c *TuningConfig) GetHistoryCapacity() int {
	if c.HistoryCapacity == nil {
		return 30
	}
	return *c.HistoryCapacity
}

// GetMinStateFrames returns the min_state_frames value or the default.
func (c *TuningConfig) GetMinStateFrames() int {
	if c.MinStateFrames == nil {
		return 6
	}
	return *c.MinStateFrames
}

// GetTransitionFrames returns the transition_frames value or the default.
func (c *TuningConfig) GetTransitionFrames() int {
	if c.TransitionFrames == nil {
		return 3
	}
	return *c.TransitionFrames
}

// GetCooldownFrames returns the cooldown_frames value or the default.
func (c *TuningConfig) GetCooldownFrames() int {
	if c.CooldownFrames == nil {
		return 12
	}
	return *c.CooldownFrames
}

// GetEntryKneeMin returns the entry_knee_min value or the default.
func (c *TuningConfig) GetEntryKneeMin() float64 {
	if c.EntryKneeMin == nil {
		return 70
	}
	return *c.EntryKneeMin
}

// GetEntryKneeMax returns the entry_knee_max value or the default.
func (c *TuningConfig) GetEntryKneeMax() float64 {
	if c.EntryKneeMax == nil {
		return 100
	}
	return *c.EntryKneeMax
}

// GetEntryTorsoMin returns the entry_torso_min value or the default.
func (c *TuningConfig) GetEntryTorsoMin() float64 {
	if c.EntryTorsoMin == nil {
		return 20
	}
	return *c.EntryTorsoMin
}

// GetEntryTorsoMax returns the entry_torso_max value or the default.
func (c *TuningConfig) GetEntryTorsoMax() float64 {
	if c.EntryTorsoMax == nil {
		return 40
	}
	return *c.EntryTorsoMax
}

// GetEntryRotationMin returns the entry_rotation_min value or the default.
func (c *TuningConfig) GetEntryRotationMin() float64 {
	if c.EntryRotationMin == nil {
		return 15
	}
	return *c.EntryRotationMin
}

// GetBottomExitKneeRise returns the bottom_exit_knee_rise value or the default.
func (c *TuningConfig) GetBottomExitKneeRise() float64 {
	if c.BottomExitKneeRise == nil {
		return 3
	}
	return *c.BottomExitKneeRise
}

// GetBottomExitTorsoUpright returns the bottom_exit_torso_upright value or the default.
func (c *TuningConfig) GetBottomExitTorsoUpright() float64 {
	if c.BottomExitTorsoUpright == nil {
		return 18
	}
	return *c.BottomExitTorsoUpright
}

// GetBottomExitTorsoDrop returns the bottom_exit_torso_drop value or the default.
func (c *TuningConfig) GetBottomExitTorsoDrop() float64 {
	if c.BottomExitTorsoDrop == nil {
		return 5
	}
	return *c.BottomExitTorsoDrop
}

// GetTopExitTorsoMax returns the top_exit_torso_max value or the default.
func (c *TuningConfig) GetTopExitTorsoMax() float64 {
	if c.TopExitTorsoMax == nil {
		return 30
	}
	return *c.TopExitTorsoMax
}

// GetTopExitRotationMin returns the top_exit_rotation_min value or the default.
func (c *TuningConfig) GetTopExitRotationMin() float64 {
	if c.TopExitRotationMin == nil {
		return 10
	}
	return *c.TopExitRotationMin
}

// GetTopExitExtensionMin returns the top_exit_extension_min value or the default.
func (c *TuningConfig) GetTopExitExtensionMin() float64 {
	if c.TopExitExtensionMin == nil {
		return 5
	}
	return *c.TopExitExtensionMin
}

// GetTargetKneeDeg returns the target_knee_deg value or the default.
func (c *TuningConfig) GetTargetKneeDeg() float64 {
	if c.TargetKneeDeg == nil {
		return 85
	}
	return *c.TargetKneeDeg
}

// GetSmoothnessMinSamples returns the smoothness_min_samples value or the default.
func (c *TuningConfig) GetSmoothnessMinSamples() int {
	if c.SmoothnessMinSamples == nil {
		return 5
	}
	return *c.SmoothnessMinSamples
}
