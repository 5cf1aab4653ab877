package dtb

import (
	"fmt"

	"dsiboot/internal/model"
)

// Timing decodes the native display-timings entry. Each value is either a
// single cell or a min/typ/max triplet, in which case typ is used.
func (d *Device) Timing() (model.Timing, error) {
	n, err := d.timingNode()
	if err != nil {
		return model.Timing{}, err
	}

	cell := func(name string) (uint32, error) {
		v, ok := n.Properties[name]
		if !ok {
			return 0, fmt.Errorf("dtb: timing %s: missing %s: %w", n.Name, name, model.ErrNotFound)
		}
		switch len(v) {
		case 4:
			return d.tree.PropUint32(v), nil
		case 12:
			return d.tree.PropUint32(v[4:]), nil
		default:
			return 0, fmt.Errorf("dtb: timing %s: %s has %d bytes: %w", n.Name, name, len(v), model.ErrInvalid)
		}
	}

	var t model.Timing
	fields := []struct {
		name string
		dst  *uint32
	}{
		{"hactive", &t.HActive},
		{"hfront-porch", &t.HFrontPorch},
		{"hback-porch", &t.HBackPorch},
		{"hsync-len", &t.HSyncLen},
		{"vactive", &t.VActive},
		{"vfront-porch", &t.VFrontPorch},
		{"vback-porch", &t.VBackPorch},
		{"vsync-len", &t.VSyncLen},
	}
	for _, f := range fields {
		v, err := cell(f.name)
		if err != nil {
			return model.Timing{}, err
		}
		*f.dst = v
	}

	clk, err := cell("clock-frequency")
	if err != nil {
		return model.Timing{}, err
	}
	t.PixelClock = uint64(clk)

	flags := []struct {
		name      string
		high, low model.DisplayFlags
	}{
		{"hsync-active", model.FlagHSyncHigh, model.FlagHSyncLow},
		{"vsync-active", model.FlagVSyncHigh, model.FlagVSyncLow},
		{"de-active", model.FlagDEHigh, model.FlagDELow},
		{"pixelclk-active", model.FlagPixDataPosEdge, model.FlagPixDataNegEdge},
	}
	for _, f := range flags {
		v, ok := n.Properties[f.name]
		if !ok || len(v) != 4 {
			continue
		}
		if d.tree.PropUint32(v) != 0 {
			t.Flags |= f.high
		} else {
			t.Flags |= f.low
		}
	}

	return t, nil
}
