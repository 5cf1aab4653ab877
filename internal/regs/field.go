// Package regs implements bit-field access to 32-bit registers described by
// (offset, width, shift) triples, plus the named field catalog of the DSI host
// controller and the general register file.
package regs

import (
	"fmt"

	"dsiboot/internal/mmio"
)

// Field locates a bit-field inside a register window.
// Shift+Width never exceeds 32.
type Field struct {
	Offset uint32 // byte offset from the window base
	Width  uint8  // 1..32
	Shift  uint8  // 0..31
}

// NewField validates and returns a Field.
func NewField(off uint32, width, shift uint8) (Field, error) {
	f := Field{Offset: off, Width: width, Shift: shift}
	if err := f.Validate(); err != nil {
		return Field{}, err
	}
	return f, nil
}

// mustField is used by the catalog, whose entries are known at build time.
func mustField(off uint32, width, shift uint8) Field {
	f, err := NewField(off, width, shift)
	if err != nil {
		panic(err)
	}
	return f
}

func (f Field) Validate() error {
	switch {
	case f.Width < 1 || f.Width > 32:
		return fmt.Errorf("regs: field width %d out of range", f.Width)
	case f.Shift > 31:
		return fmt.Errorf("regs: field shift %d out of range", f.Shift)
	case int(f.Shift)+int(f.Width) > 32:
		return fmt.Errorf("regs: field %d+%d exceeds 32 bits", f.Shift, f.Width)
	case f.Offset%4 != 0:
		return fmt.Errorf("regs: unaligned register offset %#x", f.Offset)
	}
	return nil
}

// Max is the largest value the field can hold.
func (f Field) Max() uint32 {
	return uint32(uint64(1)<<f.Width - 1)
}

// Mask is the field's bits in place.
func (f Field) Mask() uint32 {
	return f.Max() << f.Shift
}

func (f Field) String() string {
	return fmt.Sprintf("%#05x[%d:%d]", f.Offset, int(f.Shift)+int(f.Width)-1, f.Shift)
}

// Pack encodes the field as offset<<16 | width<<8 | shift, the compact form
// used by register tables in vendor headers.
func (f Field) Pack() (uint32, error) {
	if err := f.Validate(); err != nil {
		return 0, err
	}
	if f.Offset > 0xffff {
		return 0, fmt.Errorf("regs: offset %#x does not fit a packed descriptor", f.Offset)
	}
	return f.Offset<<16 | uint32(f.Width)<<8 | uint32(f.Shift), nil
}

// Unpack decodes a packed descriptor.
func Unpack(d uint32) (Field, error) {
	return NewField(d>>16, uint8(d>>8), uint8(d))
}

// Write performs a read-modify-write of the field: v is truncated to the
// field width, the other bits of the register are preserved.
func Write(bus mmio.Bus, f Field, v uint32) {
	mask := f.Mask()
	dat := bus.Read32(f.Offset)
	dat &^= mask
	dat |= (v & f.Max()) << f.Shift
	bus.Write32(f.Offset, dat)
}

// Read extracts the field value.
func Read(bus mmio.Bus, f Field) uint32 {
	return (bus.Read32(f.Offset) >> f.Shift) & f.Max()
}

// WriteMasked updates the field through a hiword write-mask register: the
// upper 16 bits of the written word select which of the lower 16 bits change,
// so no read is needed. The field must sit in the low half-word.
func WriteMasked(bus mmio.Bus, f Field, v uint32) error {
	if int(f.Shift)+int(f.Width) > 16 {
		return fmt.Errorf("regs: field %s is not in the write-masked half", f)
	}
	bus.Write32(f.Offset, f.Mask()<<16|(v&f.Max())<<f.Shift)
	return nil
}
