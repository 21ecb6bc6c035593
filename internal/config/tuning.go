package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
)

// DefaultCodecTuningPath is the conventional location of a JSON codec
// tuning override file, if the operator supplies one via --tuning.
const DefaultCodecTuningPath = "config/codec_tuning.json"

// CodecTuning holds the encoder's tunable knobs.
// Fields are pointers so a partially specified JSON file only overrides
// what it sets, following the same partial-override tuning pattern used
// elsewhere in this codebase.
type CodecTuning struct {
	// ForceAbsInterval bounds consecutive relative moves/cuts before an
	// absolute one is forced. Default 100.
	ForceAbsInterval *int `json:"force_abs_interval,omitempty"`

	// EmitTravelAsSecondTrailerValue, when true, emits travel distance as
	// the trailer's second value instead of repeating cut distance.
	// Default false (preserve the observed quirk).
	EmitTravelAsSecondTrailerValue *bool `json:"emit_travel_as_second_trailer_value,omitempty"`
}

// EmptyCodecTuning returns a CodecTuning with all fields nil (all defaults).
func EmptyCodecTuning() *CodecTuning {
	return &CodecTuning{}
}

// LoadCodecTuning loads a CodecTuning from a JSON file. Fields omitted from
// the file retain their default values, so partial overrides are safe.
func LoadCodecTuning(path string) (*CodecTuning, error) {
	cleanPath := filepath.Clean(path)
	if ext := filepath.Ext(cleanPath); ext != ".json" {
		return nil, fmt.Errorf("config: tuning file must have .json extension, got %q", ext)
	}

	const maxFileSize = 1 * 1024 * 1024
	info, err := os.Stat(cleanPath)
	if err != nil {
		return nil, fmt.Errorf("config: stat tuning file: %w", err)
	}
	if info.Size() > maxFileSize {
		return nil, fmt.Errorf("config: tuning file too large: %d bytes (max %d)", info.Size(), maxFileSize)
	}

	data, err := os.ReadFile(cleanPath)
	if err != nil {
		return nil, fmt.Errorf("config: read tuning file: %w", err)
	}

	cfg := EmptyCodecTuning()
	if err := json.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("config: parse tuning JSON: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config: invalid tuning: %w", err)
	}
	return cfg, nil
}

// Validate checks that set fields hold sane values.
func (c *CodecTuning) Validate() error {
	if c.ForceAbsInterval != nil && *c.ForceAbsInterval < 1 {
		return fmt.Errorf("force_abs_interval must be >= 1, got %d", *c.ForceAbsInterval)
	}
	return nil
}

// GetForceAbsInterval returns ForceAbsInterval or its default (100).
func (c *CodecTuning) GetForceAbsInterval() int {
	if c.ForceAbsInterval == nil {
		return 100
	}
	return *c.ForceAbsInterval
}

// GetEmitTravelAsSecondTrailerValue returns the flag or its default (false).
func (c *CodecTuning) GetEmitTravelAsSecondTrailerValue() bool {
	if c.EmitTravelAsSecondTrailerValue == nil {
		return false
	}
	return *c.EmitTravelAsSecondTrailerValue
}
