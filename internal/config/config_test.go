package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/google/go-cmp/cmp"

	"mpspline/internal/spline"
	"mpspline/pkg/harmonize"
)

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()
	if err := cfg.Validate(); err != nil {
		t.Fatalf("default config does not validate: %v", err)
	}
	if cfg.Lambda != spline.DefaultLambda {
		t.Errorf("Lambda = %v, want %v", cfg.Lambda, spline.DefaultLambda)
	}
	if len(cfg.TargetDepths) != len(spline.GlobalSoilMapDepths) {
		t.Errorf("TargetDepths has %d bands, want %d", len(cfg.TargetDepths), len(spline.GlobalSoilMapDepths))
	}
	if cfg.Mode != string(harmonize.ModeDCM) {
		t.Errorf("Mode = %q, want %q", cfg.Mode, harmonize.ModeDCM)
	}
}

func TestSaveLoadRoundTrip(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "nested", "mpspline.yaml")

	cfg := DefaultConfig()
	cfg.Lambda = 0.5
	cfg.Properties = []string{"clay", "sand"}
	cfg.TargetDepths = [][2]int{{0, 30}, {30, 100}}
	cfg.Parallel = true
	cfg.Workers = 8
	cfg.Logging.Level = "debug"

	if err := cfg.Save(path); err != nil {
		t.Fatalf("Save() error: %v", err)
	}

	loaded, err := Load(path)
	if err != nil {
		t.Fatalf("Load() error: %v", err)
	}
	if diff := cmp.Diff(cfg, loaded); diff != "" {
		t.Errorf("round trip mismatch (-saved +loaded):\n%s", diff)
	}
}

func TestLoad_PartialFileKeepsDefaults(t *testing.T) {
	path := filepath.Join(t.TempDir(), "partial.yaml")
	if err := os.WriteFile(path, []byte("lambda: 0.25\nmode: icm\n"), 0644); err != nil {
		t.Fatal(err)
	}

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load() error: %v", err)
	}
	if cfg.Lambda != 0.25 {
		t.Errorf("Lambda = %v, want 0.25", cfg.Lambda)
	}
	if cfg.Mode != string(harmonize.ModeICM) {
		t.Errorf("Mode = %q, want icm", cfg.Mode)
	}
	if cfg.CacheSize != spline.DefaultCacheSize {
		t.Errorf("CacheSize = %d, want default %d", cfg.CacheSize, spline.DefaultCacheSize)
	}
	if cfg.VHigh != spline.DefaultVHigh {
		t.Errorf("VHigh = %v, want default %v", cfg.VHigh, spline.DefaultVHigh)
	}
}

func TestLoad_MissingFile(t *testing.T) {
	if _, err := Load(filepath.Join(t.TempDir(), "nope.yaml")); err == nil {
		t.Fatal("Load() of a missing file succeeded")
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr bool
	}{
		{"defaults", func(c *Config) {}, false},
		{"negative lambda", func(c *Config) { c.Lambda = -1 }, true},
		{"inverted clip range", func(c *Config) { c.VLow = 100; c.VHigh = 50 }, true},
		{"unknown mode", func(c *Config) { c.Mode = "2cm" }, true},
		{"unknown shape", func(c *Config) { c.Shape = "tall" }, true},
		{"inverted interval", func(c *Config) { c.TargetDepths = [][2]int{{15, 15}} }, true},
		{"negative interval top", func(c *Config) { c.TargetDepths = [][2]int{{-1, 15}} }, true},
		{"unknown log level", func(c *Config) { c.Logging.Level = "loud" }, true},
		{"empty log level", func(c *Config) { c.Logging.Level = "" }, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := DefaultConfig()
			tt.mutate(cfg)
			err := cfg.Validate()
			if (err != nil) != tt.wantErr {
				t.Errorf("Validate() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}

func TestOptionsConversion(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Properties = []string{"clay"}
	cfg.TargetDepths = [][2]int{{0, 30}}
	cfg.Strict = true

	opts := cfg.Options()
	if opts.Lambda != cfg.Lambda {
		t.Errorf("Lambda = %v, want %v", opts.Lambda, cfg.Lambda)
	}
	if !opts.Strict {
		t.Error("Strict not carried over")
	}
	want := []spline.Interval{{Top: 0, Bottom: 30}}
	if diff := cmp.Diff(want, opts.TargetDepths); diff != "" {
		t.Errorf("TargetDepths mismatch (-want +got):\n%s", diff)
	}
	if opts.Mode != harmonize.ModeDCM {
		t.Errorf("Mode = %q, want %q", opts.Mode, harmonize.ModeDCM)
	}
}
