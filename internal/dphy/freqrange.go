package dphy

import (
	"fmt"

	"dsiboot/internal/model"
)

type freqRange struct {
	minMHz uint64
	code   byte
}

// hsFreqRanges maps the lowest DDR clock (MHz) of each band to its
// hsfreqrange code. Ascending by threshold.
var hsFreqRanges = [...]freqRange{
	{90, 0x01}, {100, 0x10}, {110, 0x20}, {130, 0x01},
	{140, 0x11}, {150, 0x21}, {170, 0x02}, {180, 0x12},
	{200, 0x22}, {220, 0x03}, {240, 0x13}, {250, 0x23},
	{270, 0x04}, {300, 0x14}, {330, 0x05}, {360, 0x15},
	{400, 0x25}, {450, 0x06}, {500, 0x16}, {550, 0x07},
	{600, 0x17}, {650, 0x08}, {700, 0x18}, {750, 0x09},
	{800, 0x19}, {850, 0x29}, {900, 0x39}, {950, 0x0a},
	{1000, 0x1a}, {1050, 0x2a}, {1100, 0x3a}, {1150, 0x0b},
	{1200, 0x1b}, {1250, 0x2b}, {1300, 0x3b}, {1350, 0x0c},
	{1400, 0x1c}, {1450, 0x2c}, {1500, 0x3c},
}

// RangePolicy decides what happens when the DDR clock is below every band.
type RangePolicy int

const (
	// RangeError fails the PHY configuration.
	RangeError RangePolicy = iota
	// RangeLowest uses the lowest band.
	RangeLowest
)

// ParseRangePolicy maps "error" or "lowest" to a policy.
func ParseRangePolicy(s string) (RangePolicy, error) {
	switch s {
	case "", "error":
		return RangeError, nil
	case "lowest":
		return RangeLowest, nil
	default:
		return RangeError, fmt.Errorf("dphy: unknown frequency range fallback %q: %w", s, model.ErrInvalid)
	}
}

// FreqRangeCode returns the code of the highest band whose threshold does not
// exceed mhz. ok is false when mhz is below the first band.
func FreqRangeCode(mhz uint64) (code byte, ok bool) {
	for _, r := range hsFreqRanges {
		if r.minMHz <= mhz {
			code, ok = r.code, true
		}
	}
	return code, ok
}

func (p RangePolicy) lookup(mhz uint64) (byte, error) {
	if code, ok := FreqRangeCode(mhz); ok {
		return code, nil
	}
	if p == RangeLowest {
		return hsFreqRanges[0].code, nil
	}
	return 0, fmt.Errorf("dphy: DDR clock %d MHz below lowest frequency band %d MHz: %w",
		mhz, hsFreqRanges[0].minMHz, model.ErrInvalid)
}
