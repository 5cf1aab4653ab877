package main

import (
	"fmt"
	"os"
	"slices"

	"gopkg.in/yaml.v3"

	"dsiboot/internal/bringup"
	"dsiboot/internal/clock"
	"dsiboot/internal/dphy"
	"dsiboot/internal/mmio"
)

// dump is the YAML record of a simulated bring-up pass.
type dump struct {
	State      string           `yaml:"state"`
	Error      string           `yaml:"error,omitempty"`
	Plan       *planDump        `yaml:"plan,omitempty"`
	Controller windowDump       `yaml:"controller"`
	GRF        windowDump       `yaml:"grf"`
	PHYTest    []dphy.TestWrite `yaml:"phy_test_writes"`
}

type planDump struct {
	Ref    uint64 `yaml:"ref_hz"`
	Pixel  uint64 `yaml:"pixel_hz"`
	Phy    uint64 `yaml:"phy_hz"`
	TxByte uint64 `yaml:"txbyte_hz"`
	TxEsc  uint64 `yaml:"txesc_hz"`
}

type register struct {
	Off   string `yaml:"off"`
	Value string `yaml:"value"`
}

type windowDump struct {
	Registers []register    `yaml:"registers"`
	Trace     []mmio.Access `yaml:"trace"`
}

func newPlanDump(p *clock.Plan) *planDump {
	if p == nil {
		return nil
	}
	return &planDump{
		Ref:    p.RefClk,
		Pixel:  p.PixClk,
		Phy:    p.PhyClk,
		TxByte: p.TxByteClk,
		TxEsc:  p.TxEscClk,
	}
}

func newWindowDump(s *mmio.Sim) windowDump {
	snap := s.Snapshot()
	offs := make([]uint32, 0, len(snap))
	for off := range snap {
		offs = append(offs, off)
	}
	slices.Sort(offs)

	w := windowDump{Trace: s.Trace()}
	for _, off := range offs {
		w.Registers = append(w.Registers, register{
			Off:   fmt.Sprintf("%#05x", off),
			Value: fmt.Sprintf("%#010x", snap[off]),
		})
	}
	return w
}

func writeDump(path string, res *bringup.Result, runErr error, s *simBuses) error {
	d := dump{
		Controller: newWindowDump(s.host),
		GRF:        newWindowDump(s.grf),
		PHYTest:    s.monitor.Writes,
	}
	if res != nil {
		d.State = res.State.String()
		d.Plan = newPlanDump(res.Plan)
	}
	if runErr != nil {
		d.Error = runErr.Error()
	}

	data, err := yaml.Marshal(&d)
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0o644)
}
