package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"
	"periph.io/x/conn/v3/physic"
)

// Frequency is a clock rate written in YAML as a string such as "24MHz".
type Frequency physic.Frequency

// Hz returns the rate in whole hertz.
func (f Frequency) Hz() uint64 {
	return uint64(physic.Frequency(f) / physic.Hertz)
}

func (f Frequency) String() string {
	return physic.Frequency(f).String()
}

func (f *Frequency) UnmarshalYAML(value *yaml.Node) error {
	var p physic.Frequency
	if err := p.Set(value.Value); err != nil {
		return fmt.Errorf("config: line %d: frequency %q: %w", value.Line, value.Value, err)
	}
	*f = Frequency(p)
	return nil
}

func (f Frequency) MarshalYAML() (any, error) {
	return f.String(), nil
}

// Config is the top-level bring-up configuration.
type Config struct {
	// DeviceTree is the DTB describing the DSI host, its panel and timing.
	DeviceTree string `yaml:"device_tree"`
	// Compatible selects the DSI host node.
	Compatible string `yaml:"compatible"`
	// PanelProperty is the DSI node property holding the panel phandle.
	PanelProperty string `yaml:"panel_property"`

	// Physical register windows.
	ControllerBase uint64 `yaml:"controller_base"`
	ControllerSize int    `yaml:"controller_size"`
	GRFBase        uint64 `yaml:"grf_base"`
	GRFSize        int    `yaml:"grf_size"`

	ReferenceClock Frequency `yaml:"reference_clock"`
	EscapeClock    Frequency `yaml:"escape_clock"`
	// MaxDDRClock caps pixel_clock*6; zero disables the cap.
	MaxDDRClock Frequency `yaml:"max_ddr_clock"`

	Lanes int `yaml:"lanes"`
	// VideoSource is "vop-b" or "vop-l".
	VideoSource string `yaml:"video_source"`

	// BacklightGPIO is the periph.io pin name of the backlight enable; empty
	// for panels without one.
	BacklightGPIO      string `yaml:"backlight_gpio"`
	BacklightActiveLow bool   `yaml:"backlight_active_low"`

	// FreqRangeFallback is "error" or "lowest": what to do when the DDR
	// clock is below the PHY's lowest frequency band.
	FreqRangeFallback string `yaml:"freq_range_fallback"`

	LogLevel string `yaml:"log_level"`
}

const (
	defaultDeviceTree     = "/boot/rk3399.dtb"
	defaultCompatible     = "rockchip,rk3399_mipi_dsi"
	defaultPanelProperty  = "rockchip,panel"
	defaultControllerBase = 0xff960000
	defaultGRFBase        = 0xff770000
	defaultWindowSize     = 0x10000
	defaultLanes          = 4
	defaultVideoSource    = "vop-b"
	defaultFallback       = "error"
	defaultLogLevel       = "info"
)

// DefaultConfig returns an RK3399 configuration.
func DefaultConfig() *Config {
	return &Config{
		DeviceTree:        defaultDeviceTree,
		Compatible:        defaultCompatible,
		PanelProperty:     defaultPanelProperty,
		ControllerBase:    defaultControllerBase,
		ControllerSize:    defaultWindowSize,
		GRFBase:           defaultGRFBase,
		GRFSize:           defaultWindowSize,
		ReferenceClock:    Frequency(24 * physic.MegaHertz),
		EscapeClock:       Frequency(20 * physic.MegaHertz),
		MaxDDRClock:       Frequency(1500 * physic.MegaHertz),
		Lanes:             defaultLanes,
		VideoSource:       defaultVideoSource,
		FreqRangeFallback: defaultFallback,
		LogLevel:          defaultLogLevel,
	}
}

// Normalize fills in missing/zero values with defaults so that partial
// configs still work. Values that are present but wrong are left for
// Validate and the bring-up to reject.
func (c *Config) Normalize() {
	d := DefaultConfig()
	if c.DeviceTree == "" {
		c.DeviceTree = d.DeviceTree
	}
	if c.Compatible == "" {
		c.Compatible = d.Compatible
	}
	if c.PanelProperty == "" {
		c.PanelProperty = d.PanelProperty
	}
	if c.ControllerBase == 0 {
		c.ControllerBase = d.ControllerBase
	}
	if c.ControllerSize == 0 {
		c.ControllerSize = d.ControllerSize
	}
	if c.GRFBase == 0 {
		c.GRFBase = d.GRFBase
	}
	if c.GRFSize == 0 {
		c.GRFSize = d.GRFSize
	}
	if c.ReferenceClock == 0 {
		c.ReferenceClock = d.ReferenceClock
	}
	if c.EscapeClock == 0 {
		c.EscapeClock = d.EscapeClock
	}
	if c.Lanes == 0 {
		c.Lanes = d.Lanes
	}
	if c.VideoSource == "" {
		c.VideoSource = d.VideoSource
	}
	if c.FreqRangeFallback == "" {
		c.FreqRangeFallback = d.FreqRangeFallback
	}
	if c.LogLevel == "" {
		c.LogLevel = d.LogLevel
	}
}

// Validate checks values Normalize cannot repair.
func (c *Config) Validate() error {
	var errs []error
	if c.Lanes < 1 || c.Lanes > 4 {
		errs = append(errs, fmt.Errorf("lanes %d out of range 1..4", c.Lanes))
	}
	if c.ControllerSize < 0x100 || c.ControllerSize%4 != 0 {
		errs = append(errs, fmt.Errorf("controller_size %#x too small or unaligned", c.ControllerSize))
	}
	if c.GRFSize < 0x6260 || c.GRFSize%4 != 0 {
		errs = append(errs, fmt.Errorf("grf_size %#x does not cover soc_con22", c.GRFSize))
	}
	if c.MaxDDRClock != 0 && c.MaxDDRClock < c.ReferenceClock {
		errs = append(errs, fmt.Errorf("max_ddr_clock %s below reference_clock %s", c.MaxDDRClock, c.ReferenceClock))
	}
	if err := errors.Join(errs...); err != nil {
		return fmt.Errorf("config: %w", err)
	}
	return nil
}

// Load loads configuration from the given YAML path.
//
// A missing file is not an error: the defaults are returned so the board
// can boot without one. Use Save to write them out.
func Load(path string) (*Config, error) {
	if path == "" {
		return nil, errors.New("config path is empty")
	}

	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return DefaultConfig(), nil
		}
		return nil, err
	}

	// Keys absent from the file keep their defaults; max_ddr_clock: 0 still
	// turns the DDR cap off.
	cfg := DefaultConfig()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, err
	}
	cfg.Normalize()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

// Save normalizes cfg and writes it as YAML. The file is replaced atomically
// and ends up 0600; missing parent directories are created 0700.
func Save(path string, cfg *Config) error {
	switch {
	case path == "":
		return errors.New("config path is empty")
	case cfg == nil:
		return errors.New("config is nil")
	}
	cfg.Normalize()

	data, err := yaml.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("config: marshal: %w", err)
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o700); err != nil {
		return err
	}
	return replaceFile(path, data)
}

// replaceFile writes data next to path and renames it into place.
func replaceFile(path string, data []byte) (err error) {
	f, err := os.CreateTemp(filepath.Dir(path), ".dsiboot-config-*.tmp")
	if err != nil {
		return err
	}
	defer func() {
		if err != nil {
			f.Close()
			os.Remove(f.Name())
		}
	}()

	if err = f.Chmod(0o600); err != nil {
		return err
	}
	if _, err = f.Write(data); err != nil {
		return err
	}
	if err = f.Sync(); err != nil {
		return err
	}
	if err = f.Close(); err != nil {
		return err
	}
	return os.Rename(f.Name(), path)
}

func (c *Config) Save(path string) error {
	return Save(path, c)
}
