package regs

import (
	"testing"

	"dsiboot/internal/mmio"
)

func TestWritePreservesOtherBits(t *testing.T) {
	tests := []struct {
		name  string
		field Field
		init  uint32
		val   uint32
	}{
		{"low nibble", Field{0x10, 4, 0}, 0xffffffff, 0x5},
		{"middle byte", Field{0x10, 8, 8}, 0xa5a5a5a5, 0x3c},
		{"single top bit", Field{0x10, 1, 31}, 0x00000000, 1},
		{"truncated value", Field{0x10, 3, 4}, 0x12345678, 0xff},
		{"full word", Field{0x10, 32, 0}, 0xdeadbeef, 0x01234567},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			bus := mmio.NewSim("t")
			bus.Poke(tt.field.Offset, tt.init)

			Write(bus, tt.field, tt.val)

			got := bus.Peek(tt.field.Offset)
			mask := tt.field.Mask()
			if got&^mask != tt.init&^mask {
				t.Errorf("untouched bits changed: got %#08x, init %#08x, mask %#08x", got, tt.init, mask)
			}
			want := tt.val & tt.field.Max()
			if Read(bus, tt.field) != want {
				t.Errorf("field value = %#x, want %#x", Read(bus, tt.field), want)
			}
		})
	}
}

func TestWriteIsReadModifyWrite(t *testing.T) {
	bus := mmio.NewSim("t")
	Write(bus, PhyTestClk, 1)
	Write(bus, PhyTestClr, 1)

	trace := bus.Trace()
	if len(trace) != 4 {
		t.Fatalf("trace length = %d, want 4: %v", len(trace), trace)
	}
	// The second read observes the first write to the same word.
	if trace[2].Op != mmio.OpRead || trace[2].Value != 0x2 {
		t.Errorf("second read = %v, want read of 0x2", trace[2])
	}
	if bus.Peek(0x0b4) != 0x3 {
		t.Errorf("register = %#x, want 0x3", bus.Peek(0x0b4))
	}
}

func TestNewFieldValidation(t *testing.T) {
	bad := []struct {
		off          uint32
		width, shift uint8
	}{
		{0, 0, 0},
		{0, 33, 0},
		{0, 1, 32},
		{0, 8, 25},
		{2, 1, 0},
	}
	for _, b := range bad {
		if _, err := NewField(b.off, b.width, b.shift); err == nil {
			t.Errorf("NewField(%#x, %d, %d) succeeded, want error", b.off, b.width, b.shift)
		}
	}
	if _, err := NewField(0x100, 1, 31); err != nil {
		t.Errorf("NewField top bit: %v", err)
	}
}

func TestPackUnpack(t *testing.T) {
	d, err := PhyTestEn.Pack()
	if err != nil {
		t.Fatal(err)
	}
	if d != 0x00b80110 {
		t.Errorf("Pack = %#08x, want 0x00b80110", d)
	}
	f, err := Unpack(d)
	if err != nil {
		t.Fatal(err)
	}
	if f != PhyTestEn {
		t.Errorf("Unpack = %v, want %v", f, PhyTestEn)
	}

	if _, err := (Field{Offset: 0x10000, Width: 1}).Pack(); err == nil {
		t.Error("Pack accepted an offset wider than 16 bits")
	}
	if _, err := Unpack(0x00102020); err == nil {
		t.Error("Unpack accepted shift+width > 32")
	}
}

func TestWriteMasked(t *testing.T) {
	bus := mmio.NewSim("grf")
	bus.Poke(0x6258, 0xffff)

	if err := WriteMasked(bus, GRFDPHYTX0TxStopMode, 0x3); err != nil {
		t.Fatal(err)
	}
	w := bus.Writes()
	if len(w) != 1 || w[0].Value != 0x00f00030 {
		t.Fatalf("writes = %v, want single 0x00f00030", w)
	}
	if len(bus.Trace()) != 1 {
		t.Error("masked write must not read the register")
	}

	if err := WriteMasked(bus, Field{Offset: 0x0, Width: 4, Shift: 14}, 1); err == nil {
		t.Error("WriteMasked accepted a field in the upper half-word")
	}
}
