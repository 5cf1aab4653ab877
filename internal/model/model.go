package model

import "errors"

// Error kinds shared by every bring-up component. Components wrap these with
// context; callers test with errors.Is.
var (
	// ErrNotFound means no display or panel device is present.
	ErrNotFound = errors.New("not found")
	// ErrInvalid means malformed or out-of-range input.
	ErrInvalid = errors.New("invalid argument")
	// ErrIO means a downstream panel/backlight operation failed.
	ErrIO = errors.New("i/o error")
)

// DisplayFlags carries the polarity bits of a display timing.
type DisplayFlags uint32

const (
	FlagHSyncLow DisplayFlags = 1 << iota
	FlagHSyncHigh
	FlagVSyncLow
	FlagVSyncHigh
	FlagDELow
	FlagDEHigh
	FlagPixDataPosEdge
	FlagPixDataNegEdge
)

// Timing is a resolved display timing descriptor. Horizontal values are in
// pixels, vertical values in lines, PixelClock in Hz.
type Timing struct {
	PixelClock uint64

	HActive     uint32
	HFrontPorch uint32
	HBackPorch  uint32
	HSyncLen    uint32

	VActive     uint32
	VFrontPorch uint32
	VBackPorch  uint32
	VSyncLen    uint32

	Flags DisplayFlags
}

// HTotal is the full line length in pixels.
func (t Timing) HTotal() uint32 {
	return t.HSyncLen + t.HBackPorch + t.HActive + t.HFrontPorch
}

// VideoSource selects which display controller (VOP) feeds the DSI host.
type VideoSource int

const (
	VideoSourceUnknown VideoSource = iota
	VOPBig
	VOPLit
)

func (s VideoSource) String() string {
	switch s {
	case VOPBig:
		return "vop-b"
	case VOPLit:
		return "vop-l"
	default:
		return "unknown"
	}
}

// ParseVideoSource maps a config name to a VideoSource. Unknown names yield
// VideoSourceUnknown, which the controller rejects.
func ParseVideoSource(name string) VideoSource {
	switch name {
	case "vop-b", "vopb", "big":
		return VOPBig
	case "vop-l", "vopl", "lit":
		return VOPLit
	default:
		return VideoSourceUnknown
	}
}

// Panel is the collaborator attached to the DSI link.
type Panel interface {
	Name() string
	EnableBacklight() error
}
