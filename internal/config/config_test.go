package config

import (
	"os"
	"path/filepath"
	"testing"
)

func TestDefaultIsValid(t *testing.T) {
	cfg := Default()
	if err := cfg.Validate(); err != nil {
		t.Fatalf("default config should validate: %v", err)
	}

	if cfg.SampleSize != 200 {
		t.Errorf("expected sample size 200, got %d", cfg.SampleSize)
	}
	if cfg.SimilarityTolerance != 10 {
		t.Errorf("expected tolerance 10, got %d", cfg.SimilarityTolerance)
	}
	if cfg.BlueGateThreshold != 100 {
		t.Errorf("expected blue gate 100, got %v", cfg.BlueGateThreshold)
	}
}

func TestLoadFileAndEnv(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "chyrons.yaml")
	data := []byte(`
sample_size: 50
similarity_tolerance: 8
bottom_region_inset:
  x: 12
  y: 0
color_range:
  lower: {h: 90, s: 120, v: 40}
  upper: {h: 130, s: 255, v: 255}
regions:
  - {x: 700, y: 50, w: 250, h: 40}
video:
  chamber: senate
`)
	if err := os.WriteFile(path, data, 0644); err != nil {
		t.Fatal(err)
	}

	t.Setenv("CHYRONS_SAMPLE_SIZE", "75")
	t.Setenv("CHYRONS_DATABASE_URL", "postgres://example/db")

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}

	if cfg.SampleSize != 75 {
		t.Errorf("env should override file: sample size %d", cfg.SampleSize)
	}
	if cfg.SimilarityTolerance != 8 {
		t.Errorf("file value lost: tolerance %d", cfg.SimilarityTolerance)
	}
	if cfg.BottomRegionInset != (Inset{X: 12, Y: 0}) {
		t.Errorf("unexpected inset %+v", cfg.BottomRegionInset)
	}
	if cfg.ColorRange.Lower.H != 90 {
		t.Errorf("unexpected lower hue %d", cfg.ColorRange.Lower.H)
	}
	if len(cfg.Regions) != 1 || cfg.Regions[0] != (Region{X: 700, Y: 50, W: 250, H: 40}) {
		t.Errorf("unexpected regions %+v", cfg.Regions)
	}
	if cfg.DatabaseURL != "postgres://example/db" {
		t.Errorf("unexpected database url %q", cfg.DatabaseURL)
	}
	// untouched defaults survive
	if cfg.MinRegionSize != (Size{Width: 200, Height: 18}) {
		t.Errorf("unexpected min size %+v", cfg.MinRegionSize)
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
	}{
		{"zero sample", func(c *Config) { c.SampleSize = 0 }},
		{"negative tolerance", func(c *Config) { c.SimilarityTolerance = -1 }},
		{"bad chamber", func(c *Config) { c.Video.Chamber = "assembly" }},
		{"hue out of range", func(c *Config) { c.ColorRange.Upper.H = 200 }},
		{"empty region", func(c *Config) { c.Regions = []Region{{X: 1, Y: 1}} }},
		{"small scale", func(c *Config) { c.OCR.Scale = 0.5 }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Default()
			tt.mutate(cfg)
			if err := cfg.Validate(); err == nil {
				t.Error("expected validation error, got nil")
			}
		})
	}
}

func TestLoadMissingFile(t *testing.T) {
	if _, err := Load(filepath.Join(t.TempDir(), "missing.yaml")); err == nil {
		t.Fatal("expected error for missing file")
	}
}
