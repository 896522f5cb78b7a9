package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestDefaultIsValid(t *testing.T) {
	cfg := Default()
	if err := cfg.Validate(); err != nil {
		t.Fatalf("default config invalid: %v", err)
	}
	if len(cfg.BufferTimes) != 3 || cfg.BufferTimes[0] != 0.5 || cfg.BufferTimes[2] != 5 {
		t.Fatalf("unexpected buffer times %v", cfg.BufferTimes)
	}
	if got := cfg.MDwarfCatalog(); got != "allmdwarfweightedtce.dat" {
		t.Fatalf("unexpected mdwarf catalog %q", got)
	}
}

func TestWeightingSelectsCatalogNames(t *testing.T) {
	cfg := Default()
	cfg.Weighting = false
	cfg.CatalogDir = "cats"
	if got, want := cfg.MDwarfCatalog(), filepath.Join("cats", "allmdwarfnonweightedtce.dat"); got != want {
		t.Fatalf("got %q, want %q", got, want)
	}
	if got, want := cfg.SyntheticCatalog(), filepath.Join("cats", "synnonweightedtce.dat"); got != want {
		t.Fatalf("got %q, want %q", got, want)
	}
}

func TestLoadMergesOverDefaults(t *testing.T) {
	path := filepath.Join(t.TempDir(), "cutouts.yaml")
	body := "buffer_times: [0.5, 1.5]\nwrite_tce_files: false\nimage:\n  dpi: 72\n"
	if err := os.WriteFile(path, []byte(body), 0644); err != nil {
		t.Fatal(err)
	}
	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if len(cfg.BufferTimes) != 2 {
		t.Fatalf("expected 2 buffer times, got %v", cfg.BufferTimes)
	}
	if cfg.WriteTCEFiles {
		t.Fatalf("write_tce_files should be overridden to false")
	}
	if cfg.Image.DPI != 72 || cfg.Image.Width != 10 {
		t.Fatalf("image config not merged: %+v", cfg.Image)
	}
	if cfg.FluxColumn != "PDCSAP_FLUX" {
		t.Fatalf("default flux column lost: %q", cfg.FluxColumn)
	}
}

func TestValidateRejectsBadValues(t *testing.T) {
	cfg := Default()
	cfg.BufferTimes = nil
	cfg.Log.Format = "xml"
	err := cfg.Validate()
	if err == nil {
		t.Fatal("expected validation error")
	}
	for _, want := range []string{"BufferTimes", "Format"} {
		if !strings.Contains(err.Error(), want) {
			t.Fatalf("error %q does not mention %s", err, want)
		}
	}

	cfg = Default()
	cfg.BufferTimes = []float64{0.5, -1}
	if err := cfg.Validate(); err == nil {
		t.Fatal("expected negative buffer to be rejected")
	}

	cfg = Default()
	cfg.Viewer.Mode = "popup"
	if err := cfg.Validate(); err == nil || !strings.Contains(err.Error(), "Mode") {
		t.Fatalf("expected unknown viewer mode to be rejected, got %v", err)
	}
}

func TestLoadMissingFile(t *testing.T) {
	if _, err := Load(filepath.Join(t.TempDir(), "nope.yaml")); err == nil {
		t.Fatal("expected error for missing file")
	}
}
