// Package mmio provides 32-bit register windows: a physical memory mapping for
// real hardware and a simulated register file that records every access in
// program order.
package mmio

import "fmt"

// Bus is a window of 32-bit registers addressed by byte offset from its base.
// Every Write32 is committed before it returns; implementations never batch or
// reorder writes.
type Bus interface {
	Read32(off uint32) uint32
	Write32(off uint32, v uint32)
}

// Op is the kind of a recorded register access.
type Op string

const (
	OpRead  Op = "read"
	OpWrite Op = "write"
)

// Access is one recorded register access.
type Access struct {
	Op    Op     `yaml:"op"`
	Off   uint32 `yaml:"off"`
	Value uint32 `yaml:"value"`
}

func (a Access) String() string {
	return fmt.Sprintf("%s %#05x=%#010x", a.Op, a.Off, a.Value)
}

func checkOffset(off uint32, size int) error {
	if off%4 != 0 {
		return fmt.Errorf("mmio: unaligned offset %#x", off)
	}
	if uint64(off)+4 > uint64(size) {
		return fmt.Errorf("mmio: offset %#x outside %#x byte window", off, size)
	}
	return nil
}
