package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestLoadMissingReturnsDefaults(t *testing.T) {
	cfg, err := Load(filepath.Join(t.TempDir(), "absent.yaml"))
	if err != nil {
		t.Fatal(err)
	}
	if cfg.Compatible != "rockchip,rk3399_mipi_dsi" || cfg.Lanes != 4 {
		t.Errorf("defaults = %+v", cfg)
	}
	if cfg.ReferenceClock.Hz() != 24000000 || cfg.EscapeClock.Hz() != 20000000 {
		t.Errorf("clocks = %v %v", cfg.ReferenceClock, cfg.EscapeClock)
	}
	if cfg.MaxDDRClock.Hz() != 1500000000 {
		t.Errorf("max ddr = %v", cfg.MaxDDRClock)
	}
}

func TestLoadPartial(t *testing.T) {
	path := filepath.Join(t.TempDir(), "dsiboot.yaml")
	data := "reference_clock: 25MHz\nvideo_source: vop-l\nlanes: 2\nbacklight_gpio: GPIO4_C6\n"
	if err := os.WriteFile(path, []byte(data), 0o600); err != nil {
		t.Fatal(err)
	}

	cfg, err := Load(path)
	if err != nil {
		t.Fatal(err)
	}
	if cfg.ReferenceClock.Hz() != 25000000 {
		t.Errorf("reference clock = %v", cfg.ReferenceClock)
	}
	if cfg.VideoSource != "vop-l" || cfg.Lanes != 2 || cfg.BacklightGPIO != "GPIO4_C6" {
		t.Errorf("cfg = %+v", cfg)
	}
	// Unset keys fall back to defaults.
	if cfg.EscapeClock.Hz() != 20000000 || cfg.PanelProperty != "rockchip,panel" {
		t.Errorf("defaults not applied: %+v", cfg)
	}
	if cfg.MaxDDRClock.Hz() != 1500000000 {
		t.Errorf("max_ddr_clock = %v, want the 1500MHz default cap", cfg.MaxDDRClock)
	}
}

func TestLoadDisablesDDRCap(t *testing.T) {
	path := filepath.Join(t.TempDir(), "dsiboot.yaml")
	if err := os.WriteFile(path, []byte("max_ddr_clock: 0Hz\n"), 0o600); err != nil {
		t.Fatal(err)
	}
	cfg, err := Load(path)
	if err != nil {
		t.Fatal(err)
	}
	if cfg.MaxDDRClock != 0 {
		t.Errorf("max_ddr_clock = %v, want 0 (no cap)", cfg.MaxDDRClock)
	}
}

func TestLoadRejects(t *testing.T) {
	tests := []struct {
		name string
		data string
		want string
	}{
		{"bad frequency", "escape_clock: fast\n", "frequency"},
		{"lanes", "lanes: 5\n", "lanes"},
		{"grf window", "grf_size: 0x1000\n", "soc_con22"},
		{"ddr cap", "max_ddr_clock: 1MHz\n", "max_ddr_clock"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			path := filepath.Join(t.TempDir(), "dsiboot.yaml")
			if err := os.WriteFile(path, []byte(tt.data), 0o600); err != nil {
				t.Fatal(err)
			}
			_, err := Load(path)
			if err == nil || !strings.Contains(err.Error(), tt.want) {
				t.Errorf("err = %v, want mention of %q", err, tt.want)
			}
		})
	}
}

func TestSaveRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "etc", "dsiboot.yaml")
	cfg := DefaultConfig()
	cfg.VideoSource = "vop-l"
	cfg.FreqRangeFallback = "lowest"

	if err := cfg.Save(path); err != nil {
		t.Fatal(err)
	}
	fi, err := os.Stat(path)
	if err != nil {
		t.Fatal(err)
	}
	if fi.Mode().Perm() != 0o600 {
		t.Errorf("mode = %v, want 0600", fi.Mode().Perm())
	}
	raw, err := os.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(string(raw), "reference_clock: 24MHz") {
		t.Errorf("frequency not written as a string:\n%s", raw)
	}

	got, err := Load(path)
	if err != nil {
		t.Fatal(err)
	}
	if *got != *cfg {
		t.Errorf("round trip = %+v, want %+v", got, cfg)
	}
}

func TestEmptyPath(t *testing.T) {
	if _, err := Load(""); err == nil {
		t.Error("Load(\"\") succeeded")
	}
	if err := Save("", DefaultConfig()); err == nil {
		t.Error("Save(\"\") succeeded")
	}
}
