// Package clock derives the DSI clock plan from a pixel clock and solves the
// D-PHY PLL dividers for it.
package clock

import (
	"fmt"

	"periph.io/x/conn/v3/physic"

	"dsiboot/internal/model"
)

const (
	KHz uint64 = 1000
	MHz uint64 = 1000 * KHz
)

// PLL constraints of the D-PHY.
const (
	MaxFeedbackDiv = 512
	minPFD         = 5 * MHz  // lowest reference/prediv
	maxPFD         = 40 * MHz // highest reference/prediv
)

// DDRPerPixel is the DDR bit clock per pixel clock requested from the PHY.
const DDRPerPixel = 6

// MaxEscDivision is the largest TX escape clock divider the controller's
// 8-bit field holds.
const MaxEscDivision = 0xff

// Plan holds every clock of one bring-up pass, in Hz.
type Plan struct {
	RefClk    uint64
	SysClk    uint64
	PixClk    uint64
	PhyClk    uint64 // DDR bit clock per lane
	TxByteClk uint64
	TxEscClk  uint64

	// EscTarget is the requested escape clock; TxEscClk is the rate the
	// divider can actually produce from TxByteClk.
	EscTarget uint64
}

// Derive builds the requested clock plan for a pixel clock. The DDR clock is
// pixClk*6, capped at maxDDR when maxDDR is non-zero.
func Derive(refClk, pixClk, escTarget, maxDDR uint64) (*Plan, error) {
	if refClk == 0 {
		return nil, fmt.Errorf("clock: reference clock is zero: %w", model.ErrInvalid)
	}
	if pixClk == 0 {
		return nil, fmt.Errorf("clock: pixel clock is zero: %w", model.ErrInvalid)
	}
	if escTarget == 0 {
		return nil, fmt.Errorf("clock: escape clock is zero: %w", model.ErrInvalid)
	}

	phy := pixClk * DDRPerPixel
	if maxDDR != 0 && phy > maxDDR {
		phy = maxDDR
	}

	p := &Plan{
		RefClk:    refClk,
		SysClk:    refClk,
		PixClk:    pixClk,
		EscTarget: escTarget,
	}
	p.SetPhyClock(phy)
	if d := p.EscDivision(); d > MaxEscDivision {
		return nil, fmt.Errorf("clock: escape clock %d Hz needs divider %d from %d Hz byte clock (max %d): %w",
			escTarget, d, p.TxByteClk, MaxEscDivision, model.ErrInvalid)
	}
	return p, nil
}

// SetPhyClock sets the DDR clock and re-derives the byte and escape clocks.
func (p *Plan) SetPhyClock(phy uint64) {
	p.PhyClk = phy
	p.TxByteClk = phy / 8
	p.TxEscClk = EscClock(p.TxByteClk, p.EscTarget)
}

// EscDivision is the TX escape clock divider programmed into the controller.
func (p *Plan) EscDivision() uint32 {
	if p.TxEscClk == 0 {
		return 1
	}
	return uint32(p.TxByteClk / p.TxEscClk)
}

// EscClock returns the escape clock produced by dividing byteClk by the
// smallest integer that keeps it at or below target. The quotient
// byteClk/result is always at least 1.
func EscClock(byteClk, target uint64) uint64 {
	if target == 0 {
		return byteClk
	}
	return byteClk / (byteClk/target + 1)
}

// LogKVs renders the plan as key/value pairs for the logger.
func (p *Plan) LogKVs() []any {
	return []any{
		"ref_clk", hz(p.RefClk),
		"pix_clk", hz(p.PixClk),
		"phy_clk", hz(p.PhyClk),
		"txbyte_clk", hz(p.TxByteClk),
		"txesc_clk", hz(p.TxEscClk),
	}
}

func hz(v uint64) physic.Frequency {
	return physic.Frequency(v) * physic.Hertz
}
