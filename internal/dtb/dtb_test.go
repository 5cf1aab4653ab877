package dtb

import (
	"bytes"
	"encoding/binary"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"dsiboot/internal/model"
)

// fdtNode is a device tree node for building test blobs.
type fdtNode struct {
	name     string
	props    []fdtProp
	children []*fdtNode
}

type fdtProp struct {
	name string
	val  []byte
}

func cells(vs ...uint32) []byte {
	b := make([]byte, 4*len(vs))
	for i, v := range vs {
		binary.BigEndian.PutUint32(b[4*i:], v)
	}
	return b
}

func strz(ss ...string) []byte {
	var b []byte
	for _, s := range ss {
		b = append(b, s...)
		b = append(b, 0)
	}
	return b
}

// buildFDT serializes root as a version 17 flattened device tree.
func buildFDT(root *fdtNode) []byte {
	var st bytes.Buffer
	var strs bytes.Buffer
	offsets := map[string]int{}

	put := func(v uint32) { _ = binary.Write(&st, binary.BigEndian, v) }
	pad := func() {
		for st.Len()%4 != 0 {
			st.WriteByte(0)
		}
	}
	strOff := func(name string) uint32 {
		if o, ok := offsets[name]; ok {
			return uint32(o)
		}
		o := strs.Len()
		strs.WriteString(name)
		strs.WriteByte(0)
		offsets[name] = o
		return uint32(o)
	}

	var emit func(n *fdtNode)
	emit = func(n *fdtNode) {
		put(0x1)
		st.WriteString(n.name)
		st.WriteByte(0)
		pad()
		for _, p := range n.props {
			put(0x3)
			put(uint32(len(p.val)))
			put(strOff(p.name))
			st.Write(p.val)
			pad()
		}
		for _, c := range n.children {
			emit(c)
		}
		put(0x2)
	}
	emit(root)
	put(0x9)

	const hdr = 40
	const rsv = 16
	offStruct := hdr + rsv
	offStrings := offStruct + st.Len()
	total := offStrings + strs.Len()

	var out bytes.Buffer
	for _, v := range []uint32{
		0xd00dfeed, uint32(total), uint32(offStruct), uint32(offStrings), hdr,
		17, 16, 0, uint32(strs.Len()), uint32(st.Len()),
	} {
		_ = binary.Write(&out, binary.BigEndian, v)
	}
	out.Write(make([]byte, rsv))
	out.Write(st.Bytes())
	out.Write(strs.Bytes())
	return out.Bytes()
}

func timingNode(name string, extra ...fdtProp) *fdtNode {
	props := []fdtProp{
		{"clock-frequency", cells(148500000)},
		{"hactive", cells(1920)},
		{"hfront-porch", cells(80, 88, 96)},
		{"hback-porch", cells(148)},
		{"hsync-len", cells(44)},
		{"vactive", cells(1080)},
		{"vfront-porch", cells(4)},
		{"vback-porch", cells(36)},
		{"vsync-len", cells(5)},
		{"hsync-active", cells(0)},
		{"vsync-active", cells(1)},
		{"de-active", cells(1)},
		{"pixelclk-active", cells(0)},
	}
	return &fdtNode{name: name, props: append(props, extra...)}
}

func displayTimings(props []fdtProp, timings ...*fdtNode) *fdtNode {
	return &fdtNode{name: "display-timings", props: props, children: timings}
}

func testTree(dsiProps []fdtProp, dt *fdtNode) []byte {
	dsi := &fdtNode{
		name:  "dsi@ff960000",
		props: append([]fdtProp{{"compatible", strz("rockchip,rk3399_mipi_dsi")}}, dsiProps...),
	}
	if dt != nil {
		dsi.children = []*fdtNode{dt}
	}
	root := &fdtNode{
		name: "",
		children: []*fdtNode{
			dsi,
			{name: "panel", props: []fdtProp{
				{"compatible", strz("simple-panel-dsi")},
				{"phandle", cells(0x42)},
			}},
			{name: "old-dsi@0", props: []fdtProp{
				{"compatible", strz("rockchip,rk3399_mipi_dsi")},
				{"status", strz("disabled")},
			}},
		},
	}
	return buildFDT(root)
}

func mustDevice(t *testing.T, blob []byte) *Device {
	t.Helper()
	tree, err := Parse(blob)
	if err != nil {
		t.Fatal(err)
	}
	d, err := Find(tree, "rockchip,rk3399_mipi_dsi")
	if err != nil {
		t.Fatal(err)
	}
	return d
}

func TestTiming(t *testing.T) {
	d := mustDevice(t, testTree(nil, displayTimings(nil, timingNode("timing0", fdtProp{"bits-per-pixel", cells(30)}))))
	if d.Name() != "dsi@ff960000" {
		t.Errorf("found %s, want the enabled dsi node", d.Name())
	}

	got, err := d.Timing()
	if err != nil {
		t.Fatal(err)
	}
	want := model.Timing{
		PixelClock:  148500000,
		HActive:     1920,
		HFrontPorch: 88,
		HBackPorch:  148,
		HSyncLen:    44,
		VActive:     1080,
		VFrontPorch: 4,
		VBackPorch:  36,
		VSyncLen:    5,
		Flags: model.FlagHSyncLow | model.FlagVSyncHigh | model.FlagDEHigh |
			model.FlagPixDataNegEdge,
	}
	if got != want {
		t.Errorf("Timing =\n%+v\nwant\n%+v", got, want)
	}

	if bpp, ok := d.IntProperty("bits-per-pixel"); !ok || bpp != 30 {
		t.Errorf("bits-per-pixel = %d, %v; want 30", bpp, ok)
	}
	if v, ok := d.IntProperty("no-such-prop"); ok || v != 0 {
		t.Errorf("missing property = %d, %v; want 0, false", v, ok)
	}
}

func TestTimingNativeMode(t *testing.T) {
	native := timingNode("timing1", fdtProp{"phandle", cells(7)})
	native.props[1] = fdtProp{"hactive", cells(800)}

	dt := displayTimings([]fdtProp{{"native-mode", cells(7)}}, timingNode("timing0"), native)
	d := mustDevice(t, testTree(nil, dt))

	got, err := d.Timing()
	if err != nil {
		t.Fatal(err)
	}
	if got.HActive != 800 {
		t.Errorf("HActive = %d, want native mode 800", got.HActive)
	}
}

func TestTimingWithoutNativeModeUsesFirstByName(t *testing.T) {
	// timing1 comes first in the blob; children are picked by name.
	late := timingNode("timing1", fdtProp{"bits-per-pixel", cells(16)})
	late.props[1] = fdtProp{"hactive", cells(800)}
	first := timingNode("timing0", fdtProp{"bits-per-pixel", cells(30)})

	d := mustDevice(t, testTree(nil, displayTimings(nil, late, first)))

	got, err := d.Timing()
	if err != nil {
		t.Fatal(err)
	}
	if got.HActive != 1920 {
		t.Errorf("HActive = %d, want timing0's 1920", got.HActive)
	}
	if bpp, ok := d.IntProperty("bits-per-pixel"); !ok || bpp != 30 {
		t.Errorf("bits-per-pixel = %d, %v; want timing0's 30", bpp, ok)
	}
}

func TestTimingMissing(t *testing.T) {
	d := mustDevice(t, testTree(nil, nil))
	if _, err := d.Timing(); !errors.Is(err, model.ErrNotFound) {
		t.Errorf("no display-timings: err = %v, want ErrNotFound", err)
	}

	n := timingNode("timing0")
	n.props = n.props[1:] // drop clock-frequency
	d = mustDevice(t, testTree(nil, displayTimings(nil, n)))
	if _, err := d.Timing(); !errors.Is(err, model.ErrNotFound) {
		t.Errorf("no clock-frequency: err = %v, want ErrNotFound", err)
	}

	n = timingNode("timing0")
	n.props[1] = fdtProp{"hactive", cells(1, 2)}
	d = mustDevice(t, testTree(nil, displayTimings(nil, n)))
	if _, err := d.Timing(); !errors.Is(err, model.ErrInvalid) {
		t.Errorf("two-cell hactive: err = %v, want ErrInvalid", err)
	}
}

func TestPanel(t *testing.T) {
	d := mustDevice(t, testTree([]fdtProp{{"rockchip,panel", cells(0x42)}}, nil))
	n, err := d.Panel("rockchip,panel")
	if err != nil {
		t.Fatal(err)
	}
	if n.Name != "panel" {
		t.Errorf("panel node = %s", n.Name)
	}

	d = mustDevice(t, testTree(nil, nil))
	if _, err := d.Panel("rockchip,panel"); !errors.Is(err, model.ErrNotFound) {
		t.Errorf("no phandle: err = %v, want ErrNotFound", err)
	}

	d = mustDevice(t, testTree([]fdtProp{{"rockchip,panel", cells(0x99)}}, nil))
	if _, err := d.Panel("rockchip,panel"); !errors.Is(err, model.ErrNotFound) {
		t.Errorf("dangling phandle: err = %v, want ErrNotFound", err)
	}
}

func TestFindMissing(t *testing.T) {
	tree, err := Parse(testTree(nil, nil))
	if err != nil {
		t.Fatal(err)
	}
	if _, err := Find(tree, "rockchip,rk3288-mipi-dsi"); !errors.Is(err, model.ErrNotFound) {
		t.Errorf("err = %v, want ErrNotFound", err)
	}
}

func TestParseRejectsGarbage(t *testing.T) {
	blob := testTree(nil, nil)

	bad := [][]byte{
		nil,
		[]byte("not a device tree blob at all, just some text padding"),
		blob[:len(blob)-8],
	}
	for i, b := range bad {
		if _, err := Parse(b); !errors.Is(err, model.ErrInvalid) {
			t.Errorf("case %d: err = %v, want ErrInvalid", i, err)
		}
	}

	// Corrupt the struct offset so the walk runs off the blob.
	broken := append([]byte(nil), blob...)
	binary.BigEndian.PutUint32(broken[8:], uint32(len(broken)-2))
	if _, err := Parse(broken); !errors.Is(err, model.ErrInvalid) {
		t.Errorf("bad struct offset: err = %v, want ErrInvalid", err)
	}
}

func TestLoad(t *testing.T) {
	path := filepath.Join(t.TempDir(), "board.dtb")
	if err := os.WriteFile(path, testTree(nil, displayTimings(nil, timingNode("timing0"))), 0o600); err != nil {
		t.Fatal(err)
	}
	if _, err := Load(path); err != nil {
		t.Fatal(err)
	}
	if _, err := Load(filepath.Join(t.TempDir(), "missing.dtb")); err == nil {
		t.Error("Load of missing file succeeded")
	}
}
