//go:build !linux

// Stub register window for non-linux hosts. Physical mapping needs /dev/mem,
// so only the simulated register file works here.

package mmio

import "fmt"

type Window struct{}

func Map(base uint64, size int) (*Window, error) {
	return nil, fmt.Errorf("mmio: physical mapping of %#x is only available on linux", base)
}

func (w *Window) Read32(off uint32) uint32 { return 0 }

func (w *Window) Write32(off uint32, v uint32) {}

func (w *Window) Base() uint64 { return 0 }

func (w *Window) Close() error { return nil }
