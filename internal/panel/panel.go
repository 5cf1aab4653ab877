// Package panel provides the panel collaborator of the DSI bring-up: a panel
// whose backlight is switched by a GPIO.
package panel

import (
	"fmt"

	"periph.io/x/conn/v3/gpio"
	"periph.io/x/conn/v3/gpio/gpioreg"
	"periph.io/x/host/v3"

	"dsiboot/internal/model"
)

// Panel is a DSI panel with an optional backlight enable pin.
type Panel struct {
	name      string
	backlight gpio.PinOut
	activeLow bool
}

// New returns a panel driving backlight (nil for none). activeLow inverts the
// enable level.
func New(name string, backlight gpio.PinOut, activeLow bool) *Panel {
	return &Panel{name: name, backlight: backlight, activeLow: activeLow}
}

// Open initializes periph.io and resolves the backlight pin by name (e.g.
// "GPIO4_D5" or "GPIO12"). An empty pin name yields a panel without a
// backlight pin.
func Open(name, pin string, activeLow bool) (*Panel, error) {
	if pin == "" {
		return New(name, nil, activeLow), nil
	}
	if _, err := host.Init(); err != nil {
		return nil, fmt.Errorf("panel: periph host init failed: %v: %w", err, model.ErrIO)
	}
	p := gpioreg.ByName(pin)
	if p == nil {
		return nil, fmt.Errorf("panel: gpio %s not found: %w", pin, model.ErrNotFound)
	}
	return New(name, p, activeLow), nil
}

func (p *Panel) Name() string { return p.name }

// EnableBacklight drives the backlight pin to its active level.
func (p *Panel) EnableBacklight() error {
	if p.backlight == nil {
		return nil
	}
	level := gpio.High
	if p.activeLow {
		level = gpio.Low
	}
	if err := p.backlight.Out(level); err != nil {
		return fmt.Errorf("panel: %s: backlight %s: %v: %w", p.name, p.backlight.Name(), err, model.ErrIO)
	}
	return nil
}
