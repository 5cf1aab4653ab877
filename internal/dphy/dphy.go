package dphy

import (
	"fmt"

	"dsiboot/internal/clock"
	appLog "dsiboot/internal/log"
	"dsiboot/internal/mmio"
	"dsiboot/internal/model"
	"dsiboot/internal/regs"
)

// restConfig is the PHY tuning bank written after the PLL dividers. The
// values come from the SoC vendor without derivation; 0x21 and 0x22 are
// written twice on purpose.
var restConfig = [...]TestWrite{
	{0x20, 0x4d},
	{0x21, 0x3d},
	{0x21, 0xdf},
	{0x22, 0x07},
	{0x22, 0x80 | 0x07},
}

// Data lane state timings.
var laneTimings = [...]TestWrite{
	{CodeHSTxDataLaneRequest, 0x80 | 15},
	{CodeHSTxDataLanePrepare, 0x80 | 85},
	{CodeHSTxDataLaneHSZero, 0x40 | 10},
}

const pllInputLoopDivCtl = 0x30

// Config holds the PHY settings that do not come from the clock plan.
type Config struct {
	// Lanes is the number of data lanes, 1..4.
	Lanes int
	// Fallback applies when the DDR clock is below every frequency band.
	Fallback RangePolicy
}

// Configurator brings the D-PHY out of shutdown with a PLL locked to the
// plan's DDR clock.
type Configurator struct {
	bus  mmio.Bus
	tif  *TestIF
	conf Config
}

// New returns a Configurator driving the PHY through the DSI host window.
func New(bus mmio.Bus, conf Config) (*Configurator, error) {
	if conf.Lanes < 1 || conf.Lanes > 4 {
		return nil, fmt.Errorf("dphy: lane count %d out of range 1..4: %w", conf.Lanes, model.ErrInvalid)
	}
	return &Configurator{bus: bus, tif: NewTestIF(bus), conf: conf}, nil
}

// Configure programs the PLL and lane timings for plan.PhyClk, then enables
// the PHY. The charge pump and frequency band follow the requested DDR clock;
// the dividers are solved before any test code is written so a failed solve
// leaves the PHY untouched in shutdown and reset. On success plan.PhyClk (and
// the byte/escape clocks) hold the clock the PLL actually produces.
func (c *Configurator) Configure(plan *clock.Plan) error {
	regs.Write(c.bus, regs.PhyShutdownz, 0)
	regs.Write(c.bus, regs.PhyRstz, 0)
	c.tif.Clear()

	requested := plan.PhyClk
	div, err := clock.Solve(plan.RefClk, requested)
	if err != nil {
		return fmt.Errorf("dphy: %w", err)
	}
	code, err := c.conf.Fallback.lookup(requested / clock.MHz)
	if err != nil {
		return err
	}
	ddr := div.Output(plan.RefClk)

	appLog.Debug("dphy pll solved",
		"requested", requested,
		"achieved", ddr,
		"prediv", div.PreDiv,
		"fbdiv", div.FeedbackDiv,
		"hsfreqrange", fmt.Sprintf("%#04x", code),
	)

	// Charge pump and loop filter.
	c.tif.Write(CodeCPCurrent, byte(0x80|(requested/(200*clock.MHz))<<3|0x3))
	c.tif.Write(CodeLPFResistor, 0x08)
	c.tif.Write(CodePLLBiasCurrent, 0x80|0x40)

	c.tif.Write(CodeHSRxLane0, code<<1)

	fb := div.FeedbackDiv - 1
	c.tif.Write(CodePLLInputDivRat, byte(div.PreDiv-1))
	c.tif.Write(CodePLLLoopDivRat, byte(fb&0x1f))
	c.tif.Write(CodePLLLoopDivRat, byte(fb>>5|0x80))
	c.tif.Write(CodePLLInputLoopDivRat, pllInputLoopDivCtl)

	for _, w := range restConfig {
		c.tif.Write(w.Code, w.Data)
	}
	for _, w := range laneTimings {
		c.tif.Write(w.Code, w.Data)
	}

	regs.Write(c.bus, regs.NLanes, uint32(c.conf.Lanes-1))
	regs.Write(c.bus, regs.PhyEnableClk, 1)
	regs.Write(c.bus, regs.PhyForcePLL, 1)
	regs.Write(c.bus, regs.PhyShutdownz, 1)
	regs.Write(c.bus, regs.PhyRstz, 1)

	plan.SetPhyClock(ddr)
	return nil
}
