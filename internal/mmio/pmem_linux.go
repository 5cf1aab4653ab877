//go:build linux

package mmio

import (
	"fmt"
	"sync/atomic"

	"periph.io/x/host/v3"
	"periph.io/x/host/v3/pmem"
)

// Window is a physical register block mapped through /dev/mem.
type Window struct {
	view *pmem.View
	regs []uint32
	base uint64
	size int
}

// Map initializes periph.io and maps size bytes of physical memory at base.
// The caller must Close the window when bring-up is done.
func Map(base uint64, size int) (*Window, error) {
	if _, err := host.Init(); err != nil {
		return nil, fmt.Errorf("mmio: periph host init failed: %w", err)
	}
	if size <= 0 || size%4 != 0 {
		return nil, fmt.Errorf("mmio: invalid window size %#x", size)
	}
	v, err := pmem.Map(base, size)
	if err != nil {
		return nil, fmt.Errorf("mmio: map %#x+%#x: %w", base, size, err)
	}
	return &Window{view: v, regs: v.Uint32(), base: base, size: size}, nil
}

// Read32 loads a register. Atomic access keeps the compiler from caching or
// merging register accesses.
func (w *Window) Read32(off uint32) uint32 {
	if err := checkOffset(off, w.size); err != nil {
		panic(err)
	}
	return atomic.LoadUint32(&w.regs[off/4])
}

func (w *Window) Write32(off uint32, v uint32) {
	if err := checkOffset(off, w.size); err != nil {
		panic(err)
	}
	atomic.StoreUint32(&w.regs[off/4], v)
}

// Base is the physical base address of the window.
func (w *Window) Base() uint64 { return w.base }

func (w *Window) Close() error {
	return w.view.Close()
}
