// Package dphy drives the D-PHY attached to the DSI host: the bit-banged test
// interface used to reach the PHY's internal configuration codes, the
// frequency-range table, and the PLL/lane bring-up sequence.
package dphy

import (
	"dsiboot/internal/mmio"
	"dsiboot/internal/regs"
)

// Test codes of the PHY's internal test register space.
const (
	CodeCPCurrent           = 0x10
	CodeLPFResistor         = 0x11
	CodePLLBiasCurrent      = 0x12
	CodePLLInputDivRat      = 0x17
	CodePLLLoopDivRat       = 0x18
	CodePLLInputLoopDivRat  = 0x19
	CodeHSRxLane0           = 0x44
	CodeHSTxDataLaneRequest = 0x70
	CodeHSTxDataLanePrepare = 0x71
	CodeHSTxDataLaneHSZero  = 0x72
)

// TestIF bit-bangs the PHY test interface through the host controller's
// PHY_TST_CTRL registers. Every step is a separate committed register write;
// the PHY samples on clock edges.
type TestIF struct {
	bus mmio.Bus
}

func NewTestIF(bus mmio.Bus) *TestIF {
	return &TestIF{bus: bus}
}

// Write loads code as the test address, then clocks in data in order.
//
// The code is latched while testen is high across a falling testclk; each
// data byte is captured on a rising testclk with testen low.
func (t *TestIF) Write(code byte, data ...byte) {
	regs.Write(t.bus, regs.PhyTestClk, 1)
	regs.Write(t.bus, regs.PhyTestDin, uint32(code))
	regs.Write(t.bus, regs.PhyTestEn, 1)
	regs.Write(t.bus, regs.PhyTestClk, 0)
	regs.Write(t.bus, regs.PhyTestEn, 0)

	for _, d := range data {
		regs.Write(t.bus, regs.PhyTestClk, 0)
		regs.Write(t.bus, regs.PhyTestDin, uint32(d))
		regs.Write(t.bus, regs.PhyTestClk, 1)
	}
}

// Clear pulses testclr, resetting the test interface.
func (t *TestIF) Clear() {
	regs.Write(t.bus, regs.PhyTestClr, 1)
	regs.Write(t.bus, regs.PhyTestClr, 0)
}

// TestWrite is one data byte delivered to a test code.
type TestWrite struct {
	Code byte `yaml:"code"`
	Data byte `yaml:"data"`
}

// Monitor decodes test interface traffic from the host's register writes the
// way the PHY samples it: the code is latched on a falling testclk with
// testen high, data on a rising testclk with testen low. Attach Observe to a
// simulated register window.
type Monitor struct {
	Writes []TestWrite

	clk     bool
	en      bool
	din     byte
	code    byte
	latched bool
}

func (m *Monitor) Observe(off, v uint32) {
	if off == regs.PhyTestClk.Offset {
		if v&regs.PhyTestClr.Mask() != 0 {
			m.latched = false
		}
		clk := v&regs.PhyTestClk.Mask() != 0
		switch {
		case clk && !m.clk && !m.en && m.latched:
			m.Writes = append(m.Writes, TestWrite{Code: m.code, Data: m.din})
		case !clk && m.clk && m.en:
			m.code = m.din
			m.latched = true
		}
		m.clk = clk
	}
	if off == regs.PhyTestDin.Offset {
		m.din = byte((v & regs.PhyTestDin.Mask()) >> regs.PhyTestDin.Shift)
		m.en = v&regs.PhyTestEn.Mask() != 0
	}
}
