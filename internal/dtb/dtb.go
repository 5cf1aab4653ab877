// Package dtb reads the display description of the DSI host from a flattened
// device tree: the attached panel, the native display timing and its
// bits-per-pixel hint.
package dtb

import (
	"encoding/binary"
	"fmt"
	"os"
	"slices"
	"sort"

	"github.com/platinasystems/fdt"

	"dsiboot/internal/model"
)

const (
	fdtMagic      = 0xd00dfeed
	fdtHeaderSize = 40
)

// Load reads and parses a DTB file.
func Load(path string) (*fdt.Tree, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("dtb: %w", err)
	}
	return Parse(b)
}

// Parse validates the blob header and parses it. The fdt parser trusts its
// input, so structural damage beyond the header is turned into an error
// instead of a panic.
func Parse(b []byte) (t *fdt.Tree, err error) {
	if len(b) < fdtHeaderSize {
		return nil, fmt.Errorf("dtb: blob too short (%d bytes): %w", len(b), model.ErrInvalid)
	}
	if m := binary.BigEndian.Uint32(b); m != fdtMagic {
		return nil, fmt.Errorf("dtb: bad magic %#010x: %w", m, model.ErrInvalid)
	}
	if size := binary.BigEndian.Uint32(b[4:]); int(size) > len(b) {
		return nil, fmt.Errorf("dtb: header size %d exceeds blob (%d bytes): %w", size, len(b), model.ErrInvalid)
	}

	defer func() {
		if r := recover(); r != nil {
			t, err = nil, fmt.Errorf("dtb: malformed blob: %v: %w", r, model.ErrInvalid)
		}
	}()

	t = &fdt.Tree{Debug: false, IsLittleEndian: false}
	if err := t.Parse(b); err != nil {
		return nil, fmt.Errorf("dtb: %v: %w", err, model.ErrInvalid)
	}
	if t.RootNode == nil {
		return nil, fmt.Errorf("dtb: no root node: %w", model.ErrInvalid)
	}
	return t, nil
}

// Device is the DSI host node inside a parsed tree.
type Device struct {
	tree *fdt.Tree
	node *fdt.Node
}

// Find returns the first enabled node whose compatible list contains
// compatible.
func Find(t *fdt.Tree, compatible string) (*Device, error) {
	var found *fdt.Node
	eachNode(t.RootNode, func(n *fdt.Node) bool {
		v, ok := n.Properties["compatible"]
		if !ok || !enabled(t, n) {
			return true
		}
		if slices.Contains(t.PropStringSlice(v), compatible) {
			found = n
			return false
		}
		return true
	})
	if found == nil {
		return nil, fmt.Errorf("dtb: no enabled %q node: %w", compatible, model.ErrNotFound)
	}
	return &Device{tree: t, node: found}, nil
}

func (d *Device) Name() string { return d.node.Name }

// Panel follows the phandle in property prop (e.g. "rockchip,panel") to the
// panel node.
func (d *Device) Panel(prop string) (*fdt.Node, error) {
	v, ok := d.node.Properties[prop]
	if !ok || len(v) < 4 {
		return nil, fmt.Errorf("dtb: %s: no %q phandle: %w", d.node.Name, prop, model.ErrNotFound)
	}
	ph := d.tree.PropUint32(v)
	n := d.byPhandle(ph)
	if n == nil {
		return nil, fmt.Errorf("dtb: %s: phandle %#x not in tree: %w", d.node.Name, ph, model.ErrNotFound)
	}
	if !enabled(d.tree, n) {
		return nil, fmt.Errorf("dtb: panel %s disabled: %w", n.Name, model.ErrNotFound)
	}
	return n, nil
}

func (d *Device) byPhandle(ph uint32) *fdt.Node {
	var found *fdt.Node
	eachNode(d.tree.RootNode, func(n *fdt.Node) bool {
		for _, name := range []string{"phandle", "linux,phandle"} {
			if v, ok := n.Properties[name]; ok && len(v) >= 4 && d.tree.PropUint32(v) == ph {
				found = n
				return false
			}
		}
		return true
	})
	return found
}

// timingNode picks the display-timings entry: the native-mode phandle when
// present, else the first entry by name.
func (d *Device) timingNode() (*fdt.Node, error) {
	dt := d.node.Children["display-timings"]
	if dt == nil || len(dt.Children) == 0 {
		return nil, fmt.Errorf("dtb: %s: no display-timings: %w", d.node.Name, model.ErrNotFound)
	}
	if v, ok := dt.Properties["native-mode"]; ok && len(v) >= 4 {
		ph := d.tree.PropUint32(v)
		for _, c := range dt.Children {
			if p, ok := c.Properties["phandle"]; ok && len(p) >= 4 && d.tree.PropUint32(p) == ph {
				return c, nil
			}
		}
	}
	names := make([]string, 0, len(dt.Children))
	for name := range dt.Children {
		names = append(names, name)
	}
	sort.Strings(names)
	return dt.Children[names[0]], nil
}

// IntProperty reads a single-cell property of the native timing node.
func (d *Device) IntProperty(name string) (int, bool) {
	n, err := d.timingNode()
	if err != nil {
		return 0, false
	}
	v, ok := n.Properties[name]
	if !ok || len(v) != 4 {
		return 0, false
	}
	return int(int32(d.tree.PropUint32(v))), true
}

func enabled(t *fdt.Tree, n *fdt.Node) bool {
	v, ok := n.Properties["status"]
	if !ok {
		return true
	}
	s := t.PropString(v)
	return s == "okay" || s == "ok"
}

// eachNode walks n depth-first, children in name order, until f returns false.
func eachNode(n *fdt.Node, f func(*fdt.Node) bool) bool {
	if n == nil {
		return true
	}
	if !f(n) {
		return false
	}
	names := make([]string, 0, len(n.Children))
	for name := range n.Children {
		names = append(names, name)
	}
	sort.Strings(names)
	for _, name := range names {
		if !eachNode(n.Children[name], f) {
			return false
		}
	}
	return true
}
