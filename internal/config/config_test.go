package config

import (
	"os"
	"path/filepath"
	"testing"
)

func TestLoadMissingFileFillsDefaults(t *testing.T) {
	dir := t.TempDir()
	cfg, err := Load(dir)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.DebounceIntervalMS != DefaultDebounceIntervalMS {
		t.Fatalf("expected default interval, got %d", cfg.DebounceIntervalMS)
	}
	if cfg.RegistryFileName != DefaultRegistryFileName {
		t.Fatalf("expected default registry name, got %q", cfg.RegistryFileName)
	}
}

func TestSaveThenLoadRoundTrips(t *testing.T) {
	dir := t.TempDir()
	cfg := &GlobalConfig{DebounceIntervalMS: 1500, RegistryFileName: "custom.json"}
	if err := Save(dir, cfg); err != nil {
		t.Fatalf("save: %v", err)
	}

	got, err := Load(dir)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if got.DebounceIntervalMS != 1500 || got.RegistryFileName != "custom.json" {
		t.Fatalf("unexpected round trip: %+v", got)
	}
}

func TestDebounceIntervalConvertsMillisecondsToDuration(t *testing.T) {
	cfg := &GlobalConfig{DebounceIntervalMS: 2000}
	if got := cfg.DebounceInterval(); got.Milliseconds() != 2000 {
		t.Fatalf("expected 2000ms, got %s", got)
	}
}

func TestDirFindsExistingMarkerUpward(t *testing.T) {
	root := t.TempDir()
	marker := filepath.Join(root, ConfigDirName)
	if err := os.MkdirAll(marker, 0755); err != nil {
		t.Fatalf("mkdir marker: %v", err)
	}
	nested := filepath.Join(root, "a", "b", "c")
	if err := os.MkdirAll(nested, 0755); err != nil {
		t.Fatalf("mkdir nested: %v", err)
	}

	got := Dir(nested)
	if got != marker {
		t.Fatalf("expected to find marker at %q, got %q", marker, got)
	}
}

func TestDirFallsBackWhenNoMarkerFound(t *testing.T) {
	root := t.TempDir()
	got := Dir(root)
	want := filepath.Join(root, ConfigDirName)
	if got != want {
		t.Fatalf("expected fallback %q, got %q", want, got)
	}
}
