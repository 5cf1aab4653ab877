// Package dsi programs the DesignWare MIPI DSI host controller for burst
// video mode from a display timing.
package dsi

import (
	"fmt"

	"dsiboot/internal/clock"
	appLog "dsiboot/internal/log"
	"dsiboot/internal/mmio"
	"dsiboot/internal/model"
	"dsiboot/internal/regs"
)

// Fixed controller settings.
const (
	vidPktSize      = 0x4b0
	toClkDivision   = 0x0a
	hsTxTimeout     = 0x3e8
	phyStopWaitTime = 32
	phyHS2LPTime    = 0x14
	phyLP2HSTime    = 0x10
	maxRdTime       = 0x2710
)

// Controller is the DSI host plus the GRF bits that route a VOP into it.
type Controller struct {
	host mmio.Bus
	grf  mmio.Bus
}

func New(host, grf mmio.Bus) *Controller {
	return &Controller{host: host, grf: grf}
}

// Params is everything Configure needs besides the register windows.
type Params struct {
	Timing model.Timing
	Source model.VideoSource
	// BitsPerPixel is the panel's DPI depth hint; 0 when absent.
	BitsPerPixel int
	Plan         *clock.Plan
}

// Configure programs timing, polarity, burst video mode, DPI color coding,
// low-power intervals and PHY timing, then powers the controller on.
//
// The video source is validated before any register is touched: an unknown
// source returns ErrInvalid with no writes to either window.
func (c *Controller) Configure(p Params) error {
	var sel uint32
	switch p.Source {
	case model.VOPBig:
		sel = regs.GRFDSI0VOPSelB
	case model.VOPLit:
		sel = regs.GRFDSI0VOPSelL
	default:
		return fmt.Errorf("dsi: unsupported video source %d: %w", p.Source, model.ErrInvalid)
	}
	if p.Plan == nil {
		return fmt.Errorf("dsi: no clock plan: %w", model.ErrInvalid)
	}

	if err := c.selectSource(sel); err != nil {
		return err
	}

	t := p.Timing
	h := c.host
	regs.Write(h, regs.VidHSATime, t.HSyncLen)
	regs.Write(h, regs.VidHBPTime, t.HBackPorch)
	regs.Write(h, regs.VidHLineTime, t.HTotal())
	regs.Write(h, regs.VidVSALines, t.VSyncLen)
	regs.Write(h, regs.VidVBPLines, t.VBackPorch)
	regs.Write(h, regs.VidVFPLines, t.VFrontPorch)
	regs.Write(h, regs.VidActLines, t.VActive)

	regs.Write(h, regs.HSyncActiveLow, flag(t.Flags, model.FlagHSyncLow))
	regs.Write(h, regs.VSyncActiveLow, flag(t.Flags, model.FlagVSyncLow))
	regs.Write(h, regs.DataEnActiveLow, flag(t.Flags, model.FlagDELow))
	regs.Write(h, regs.ColorMActiveLow, flag(t.Flags, model.FlagPixDataNegEdge))

	regs.Write(h, regs.CmdVideoMode, regs.VideoMode)
	regs.Write(h, regs.VidModeType, regs.BurstMode)
	regs.Write(h, regs.VidPktSize, vidPktSize)

	coding := ColorCoding(p.BitsPerPixel)
	regs.Write(h, regs.DPIColorCoding, coding)

	for _, f := range lowPowerFields {
		regs.Write(h, f, 1)
	}

	regs.Write(h, regs.ToClkDivision, toClkDivision)
	regs.Write(h, regs.TxEscClkDivision, p.Plan.EscDivision())
	regs.Write(h, regs.HSTxToCnt, hsTxTimeout)

	regs.Write(h, regs.PhyStopWaitTime, phyStopWaitTime)
	regs.Write(h, regs.PhyTxRequestClkHS, 1)
	regs.Write(h, regs.PhyHS2LPTime, phyHS2LPTime)
	regs.Write(h, regs.PhyLP2HSTime, phyLP2HSTime)
	regs.Write(h, regs.MaxRdTime, maxRdTime)

	regs.Write(h, regs.Shutdownz, 1)

	appLog.Debug("dsi controller configured",
		"source", p.Source.String(),
		"hline", t.HTotal(),
		"vactive", t.VActive,
		"color_coding", coding,
		"esc_division", p.Plan.EscDivision(),
	)
	return nil
}

// selectSource routes the VOP to DSI0 and forces lane 0 into TX mode out of
// stop state.
func (c *Controller) selectSource(sel uint32) error {
	writes := []struct {
		f regs.Field
		v uint32
	}{
		{regs.GRFDSI0VOPSel, sel},
		{regs.GRFDPHYTX0RxMode, regs.GRFDPHYTX0Disable},
		{regs.GRFDPHYTX0TxStopMode, regs.GRFDPHYTX0Disable},
		{regs.GRFDPHYTX0TurnRequest, regs.GRFDPHYTX0Disable},
	}
	for _, w := range writes {
		if err := regs.WriteMasked(c.grf, w.f, w.v); err != nil {
			return fmt.Errorf("dsi: grf: %w", err)
		}
	}
	return nil
}

// Low-power intervals enabled in video mode.
var lowPowerFields = []regs.Field{
	regs.LPCmdEn,
	regs.LPHFPEn,
	regs.LPVActEn,
	regs.LPVFPEn,
	regs.LPVBPEn,
	regs.LPVSAEn,
}

// ColorCoding maps a bits-per-pixel hint to the DPI color coding. 16, 24 and
// 30 are recognized; anything else, including absent (0), selects 24-bit.
func ColorCoding(bpp int) uint32 {
	switch bpp {
	case 16:
		return regs.DPI16BitCfg1
	case 30:
		return regs.DPI30Bit
	default:
		return regs.DPI24Bit
	}
}

func flag(f, bit model.DisplayFlags) uint32 {
	if f&bit != 0 {
		return 1
	}
	return 0
}
