package main

import (
	"flag"
	"fmt"
	"os"

	"dsiboot/internal/bringup"
	"dsiboot/internal/config"
	"dsiboot/internal/dphy"
	"dsiboot/internal/dsi"
	"dsiboot/internal/dtb"
	appLog "dsiboot/internal/log"
	"dsiboot/internal/mmio"
	"dsiboot/internal/model"
)

// flagConfig holds CLI flag values; they override the config file.
type flagConfig struct {
	configPath string
	dtbPath    string
	simulate   bool
	dumpPath   string
	initConfig bool
	verbose    bool
}

func main() {
	flags := parseFlags()
	if flags.verbose {
		appLog.SetLevel(appLog.LevelDebug)
	}
	appLog.Info("dsiboot starting", "version", "0.1.0")

	if err := run(flags); err != nil {
		appLog.Error("dsiboot failed", err)
		os.Exit(1)
	}
}

func run(flags flagConfig) error {
	if flags.initConfig {
		if err := config.DefaultConfig().Save(flags.configPath); err != nil {
			return fmt.Errorf("write default config: %w", err)
		}
		appLog.Info("default config written", "config_path", flags.configPath)
		return nil
	}

	conf, err := config.Load(flags.configPath)
	if err != nil {
		return fmt.Errorf("load config %s: %w", flags.configPath, err)
	}
	if !flags.verbose {
		appLog.SetLevel(appLog.ParseLevel(conf.LogLevel))
	}
	if flags.dtbPath != "" {
		conf.DeviceTree = flags.dtbPath
	}

	appLog.Info("effective config",
		"device_tree", conf.DeviceTree,
		"compatible", conf.Compatible,
		"reference_clock", conf.ReferenceClock,
		"escape_clock", conf.EscapeClock,
		"max_ddr_clock", conf.MaxDDRClock,
		"lanes", conf.Lanes,
		"video_source", conf.VideoSource,
		"simulate", flags.simulate,
	)

	source := model.ParseVideoSource(conf.VideoSource)
	fallback, err := dphy.ParseRangePolicy(conf.FreqRangeFallback)
	if err != nil {
		return err
	}

	tree, err := dtb.Load(conf.DeviceTree)
	if err != nil {
		return err
	}
	dev, err := dtb.Find(tree, conf.Compatible)
	if err != nil {
		return err
	}
	appLog.Debug("dsi host node", "node", dev.Name())

	hw, err := openBuses(conf, flags.simulate)
	if err != nil {
		return err
	}
	defer hw.Close()

	phy, err := dphy.New(hw.host, dphy.Config{Lanes: conf.Lanes, Fallback: fallback})
	if err != nil {
		return err
	}

	display := &bringup.DeviceDisplay{
		Device:             dev,
		PanelProperty:      conf.PanelProperty,
		BacklightGPIO:      conf.BacklightGPIO,
		BacklightActiveLow: conf.BacklightActiveLow,
	}
	if flags.simulate {
		// No GPIO access off the target board.
		display.BacklightGPIO = ""
	}

	res, runErr := bringup.Run(bringup.Platform{
		Display:    display,
		Controller: dsi.New(hw.host, hw.grf),
		PHY:        phy,
		Source:     source,
		Clocks: bringup.Clocks{
			Ref:    conf.ReferenceClock.Hz(),
			Esc:    conf.EscapeClock.Hz(),
			MaxDDR: conf.MaxDDRClock.Hz(),
		},
	})

	if flags.dumpPath != "" {
		if hw.sim == nil {
			appLog.Warn("register dump needs -simulate, skipped", "dump", flags.dumpPath)
		} else if err := writeDump(flags.dumpPath, res, runErr, hw.sim); err != nil {
			appLog.Error("failed to write dump", err, "dump", flags.dumpPath)
		} else {
			appLog.Info("register dump written", "dump", flags.dumpPath)
		}
	}
	return runErr
}

// buses are the two register windows of one bring-up pass.
type buses struct {
	host, grf mmio.Bus
	sim       *simBuses
	closers   []func() error
}

type simBuses struct {
	host, grf *mmio.Sim
	monitor   *dphy.Monitor
}

func openBuses(conf *config.Config, simulate bool) (*buses, error) {
	if simulate {
		s := &simBuses{
			host:    mmio.NewSim("dsi"),
			grf:     mmio.NewSim("grf"),
			monitor: &dphy.Monitor{},
		}
		s.host.OnWrite(s.monitor.Observe)
		return &buses{host: s.host, grf: s.grf, sim: s}, nil
	}

	host, err := mmio.Map(conf.ControllerBase, conf.ControllerSize)
	if err != nil {
		return nil, fmt.Errorf("map dsi host: %w", err)
	}
	grf, err := mmio.Map(conf.GRFBase, conf.GRFSize)
	if err != nil {
		host.Close()
		return nil, fmt.Errorf("map grf: %w", err)
	}
	appLog.Debug("register windows mapped",
		"dsi_base", fmt.Sprintf("%#x", host.Base()),
		"grf_base", fmt.Sprintf("%#x", grf.Base()),
	)
	return &buses{host: host, grf: grf, closers: []func() error{host.Close, grf.Close}}, nil
}

func (b *buses) Close() {
	for _, c := range b.closers {
		if err := c(); err != nil {
			appLog.Warn("unmap failed", "err", err)
		}
	}
}

func parseFlags() flagConfig {
	var cfg flagConfig

	flag.StringVar(&cfg.configPath, "config", "/etc/dsiboot/config.yaml", "Path to config file")
	flag.StringVar(&cfg.dtbPath, "dtb", "", "Device tree blob (overrides config if set)")
	flag.BoolVar(&cfg.simulate, "simulate", false, "Run against simulated registers; do not touch hardware")
	flag.StringVar(&cfg.dumpPath, "dump", "", "Write simulated registers and PHY test writes as YAML (with -simulate)")
	flag.BoolVar(&cfg.initConfig, "init-config", false, "Write the default config to -config and exit")
	flag.BoolVar(&cfg.verbose, "v", false, "Debug logging")

	flag.Parse()

	return cfg
}
