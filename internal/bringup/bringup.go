// Package bringup sequences the one-shot DSI display bring-up: find the panel,
// read its timing, plan the clocks, configure the controller and the D-PHY,
// then switch the backlight on. The first failure aborts the sequence; the
// registers written so far stay written.
package bringup

import (
	"fmt"

	"dsiboot/internal/clock"
	"dsiboot/internal/dsi"
	appLog "dsiboot/internal/log"
	"dsiboot/internal/model"
)

// State is the progress of a bring-up pass.
type State int

const (
	Idle State = iota
	PanelDiscovered
	TimingRead
	ClockPlanDerived
	ControllerConfigured
	PhyConfigured
	BacklightEnabled
	Failed
)

var stateNames = [...]string{
	Idle:                 "idle",
	PanelDiscovered:      "panel-discovered",
	TimingRead:           "timing-read",
	ClockPlanDerived:     "clock-plan-derived",
	ControllerConfigured: "controller-configured",
	PhyConfigured:        "phy-configured",
	BacklightEnabled:     "backlight-enabled",
	Failed:               "failed",
}

func (s State) String() string {
	if s < 0 || int(s) >= len(stateNames) {
		return fmt.Sprintf("state(%d)", int(s))
	}
	return stateNames[s]
}

// StepError reports the step that failed. Err keeps its original kind.
type StepError struct {
	// Step is the state the pass was trying to reach.
	Step State
	Err  error
}

func (e *StepError) Error() string {
	return fmt.Sprintf("bringup: %s: %v", e.Step, e.Err)
}

func (e *StepError) Unwrap() error { return e.Err }

// Display is the source of panel, timing and descriptor properties.
// IntProperty returns 0, false for an absent property.
type Display interface {
	FindPanel() (model.Panel, error)
	Timing() (model.Timing, error)
	IntProperty(name string) (int, bool)
}

// Controller configures the DSI host.
type Controller interface {
	Configure(p dsi.Params) error
}

// PHY configures the D-PHY; it updates the plan to the achieved DDR clock.
type PHY interface {
	Configure(plan *clock.Plan) error
}

// Clocks are the platform clock inputs, in Hz.
type Clocks struct {
	Ref    uint64
	Esc    uint64
	MaxDDR uint64 // 0 for no cap
}

// Platform is the explicit context of a bring-up pass.
type Platform struct {
	Display    Display
	Controller Controller
	PHY        PHY
	Source     model.VideoSource
	Clocks     Clocks
}

// Result is what a pass produced, complete or not.
type Result struct {
	State  State
	Panel  model.Panel
	Timing model.Timing
	Plan   *clock.Plan
}

// Run executes one bring-up pass. It always returns a Result; on failure its
// State is Failed and the error is a *StepError.
func Run(p Platform) (*Result, error) {
	r := &Result{State: Idle}

	fail := func(step State, err error) (*Result, error) {
		r.State = Failed
		appLog.Error("display bring-up failed", err, "step", step.String())
		return r, &StepError{Step: step, Err: err}
	}

	panel, err := p.Display.FindPanel()
	if err != nil {
		return fail(PanelDiscovered, err)
	}
	r.Panel, r.State = panel, PanelDiscovered
	appLog.Info("panel found", "panel", panel.Name())

	timing, err := p.Display.Timing()
	if err != nil {
		return fail(TimingRead, err)
	}
	r.Timing, r.State = timing, TimingRead
	appLog.Info("display timing",
		"hactive", timing.HActive,
		"vactive", timing.VActive,
		"pixel_clock", timing.PixelClock,
	)

	plan, err := clock.Derive(p.Clocks.Ref, timing.PixelClock, p.Clocks.Esc, p.Clocks.MaxDDR)
	if err != nil {
		return fail(ClockPlanDerived, err)
	}
	r.Plan, r.State = plan, ClockPlanDerived
	appLog.Debug("clock plan requested", plan.LogKVs()...)

	bpp, _ := p.Display.IntProperty("bits-per-pixel")
	err = p.Controller.Configure(dsi.Params{
		Timing:       timing,
		Source:       p.Source,
		BitsPerPixel: bpp,
		Plan:         plan,
	})
	if err != nil {
		return fail(ControllerConfigured, err)
	}
	r.State = ControllerConfigured

	if err := p.PHY.Configure(plan); err != nil {
		return fail(PhyConfigured, err)
	}
	r.State = PhyConfigured
	appLog.Info("dphy configured", plan.LogKVs()...)

	if err := panel.EnableBacklight(); err != nil {
		return fail(BacklightEnabled, err)
	}
	r.State = BacklightEnabled
	appLog.Info("display up", "panel", panel.Name())

	return r, nil
}
