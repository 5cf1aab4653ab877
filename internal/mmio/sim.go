package mmio

import (
	"maps"
	"slices"
)

// Sim is an in-memory register file. Registers read as zero until written.
// It records every access so callers can inspect the exact write order.
type Sim struct {
	Name string

	regs    map[uint32]uint32
	trace   []Access
	noReads bool
	onWrite func(off, v uint32)
}

// NewSim returns an empty simulated register window.
func NewSim(name string) *Sim {
	return &Sim{Name: name, regs: make(map[uint32]uint32)}
}

// RecordWritesOnly drops reads from the trace. Read-modify-write sequences
// then show up as one entry per committed write.
func (s *Sim) RecordWritesOnly() *Sim {
	s.noReads = true
	return s
}

// OnWrite installs a hook called after each committed write.
func (s *Sim) OnWrite(f func(off, v uint32)) {
	s.onWrite = f
}

func (s *Sim) Read32(off uint32) uint32 {
	v := s.regs[off]
	if !s.noReads {
		s.trace = append(s.trace, Access{Op: OpRead, Off: off, Value: v})
	}
	return v
}

func (s *Sim) Write32(off uint32, v uint32) {
	s.regs[off] = v
	s.trace = append(s.trace, Access{Op: OpWrite, Off: off, Value: v})
	if s.onWrite != nil {
		s.onWrite(off, v)
	}
}

// Poke sets a register without recording it.
func (s *Sim) Poke(off, v uint32) {
	s.regs[off] = v
}

// Peek returns a register without recording it.
func (s *Sim) Peek(off uint32) uint32 {
	return s.regs[off]
}

// Trace returns a copy of the recorded accesses.
func (s *Sim) Trace() []Access {
	return slices.Clone(s.trace)
}

// Writes returns only the recorded writes.
func (s *Sim) Writes() []Access {
	var out []Access
	for _, a := range s.trace {
		if a.Op == OpWrite {
			out = append(out, a)
		}
	}
	return out
}

// Reset clears the trace but keeps register contents.
func (s *Sim) Reset() {
	s.trace = nil
}

// Snapshot returns the current register contents keyed by offset.
func (s *Sim) Snapshot() map[uint32]uint32 {
	return maps.Clone(s.regs)
}
