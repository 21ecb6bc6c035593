package config

import (
	"os"
	"path/filepath"
	"testing"
)

func TestEmptyCodecTuningDefaults(t *testing.T) {
	c := EmptyCodecTuning()
	if got := c.GetForceAbsInterval(); got != 100 {
		t.Errorf("GetForceAbsInterval() = %d, want 100", got)
	}
	if got := c.GetEmitTravelAsSecondTrailerValue(); got != false {
		t.Errorf("GetEmitTravelAsSecondTrailerValue() = %v, want false", got)
	}
}

func TestLoadCodecTuningPartialOverride(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "tuning.json")
	if err := os.WriteFile(path, []byte(`{"force_abs_interval": 25}`), 0o644); err != nil {
		t.Fatal(err)
	}

	c, err := LoadCodecTuning(path)
	if err != nil {
		t.Fatalf("LoadCodecTuning: %v", err)
	}
	if got := c.GetForceAbsInterval(); got != 25 {
		t.Errorf("GetForceAbsInterval() = %d, want 25", got)
	}
	// Fields not present in the file retain their defaults.
	if got := c.GetEmitTravelAsSecondTrailerValue(); got != false {
		t.Errorf("GetEmitTravelAsSecondTrailerValue() = %v, want false", got)
	}
}

func TestLoadCodecTuningRejectsNonJSONExtension(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "tuning.txt")
	if err := os.WriteFile(path, []byte(`{}`), 0o644); err != nil {
		t.Fatal(err)
	}
	if _, err := LoadCodecTuning(path); err == nil {
		t.Error("expected an error for a non-.json tuning file")
	}
}

func TestLoadCodecTuningRejectsInvalidValue(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "tuning.json")
	if err := os.WriteFile(path, []byte(`{"force_abs_interval": 0}`), 0o644); err != nil {
		t.Fatal(err)
	}
	if _, err := LoadCodecTuning(path); err == nil {
		t.Error("expected an error for force_abs_interval < 1")
	}
}
