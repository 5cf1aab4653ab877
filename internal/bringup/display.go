package bringup

import (
	"dsiboot/internal/dtb"
	"dsiboot/internal/model"
	"dsiboot/internal/panel"
)

// DeviceDisplay is a Display backed by the DSI node of a device tree, with
// the panel backlight on a named GPIO.
type DeviceDisplay struct {
	Device *dtb.Device
	// PanelProperty holds the panel phandle, e.g. "rockchip,panel".
	PanelProperty string
	// BacklightGPIO is a periph.io pin name; empty for none.
	BacklightGPIO      string
	BacklightActiveLow bool
}

func (d *DeviceDisplay) FindPanel() (model.Panel, error) {
	n, err := d.Device.Panel(d.PanelProperty)
	if err != nil {
		return nil, err
	}
	return panel.Open(n.Name, d.BacklightGPIO, d.BacklightActiveLow)
}

func (d *DeviceDisplay) Timing() (model.Timing, error) {
	return d.Device.Timing()
}

func (d *DeviceDisplay) IntProperty(name string) (int, bool) {
	return d.Device.IntProperty(name)
}
