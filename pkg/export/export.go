// Package export turns decoded XAY meshes into files other tools can load.
//
// Each Exporter declares how its target stores vertex colors. Convert asks
// the decoder for colors in that encoding, so exporters never transform
// colors themselves.
package export

import (
	"bytes"
	"io"
	"sort"
	"strings"

	"github.com/pkg/errors"

	"github.com/Faultbox/xaytool/pkg/formats"
)

// ErrUnknownFormat is returned by ForFormat for unsupported output formats.
var ErrUnknownFormat = errors.New("unknown export format")

// Exporter writes an assembled mesh in one output format.
type Exporter interface {
	// Name is the format name accepted by ForFormat.
	Name() string
	// Extension is the output file extension including the dot.
	Extension() string
	// ColorEncoding is how the format stores vertex colors.
	ColorEncoding() formats.ColorEncoding
	Export(w io.Writer, m *formats.XAYMesh) error
}

var exporters = map[string]Exporter{
	"gltf": &GLTF{},
	"glb":  &GLTF{Binary: true},
	"obj":  &OBJ{},
}

// ForFormat returns the exporter for a format name.
func ForFormat(name string) (Exporter, error) {
	e, ok := exporters[strings.ToLower(name)]
	if !ok {
		return nil, errors.Wrapf(ErrUnknownFormat, "%q (supported: %s)", name, strings.Join(Formats(), ", "))
	}
	return e, nil
}

// Formats lists the supported format names.
func Formats() []string {
	names := make([]string, 0, len(exporters))
	for name := range exporters {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Options controls Convert.
type Options struct {
	Strict bool
}

// Convert decodes an XAY stream and writes it with e. label names the mesh.
// Nothing is written to w when decoding fails.
func Convert(r io.Reader, label string, e Exporter, w io.Writer, opts Options) (*formats.XAYMesh, error) {
	m, err := formats.DecodeXAYMesh(r, label, formats.DecodeOptions{
		ColorEncoding: e.ColorEncoding(),
		Strict:        opts.Strict,
	})
	if err != nil {
		return nil, errors.Wrapf(err, "decoding %s", label)
	}

	var buf bytes.Buffer
	if err := e.Export(&buf, m); err != nil {
		return nil, errors.Wrapf(err, "exporting %s as %s", label, e.Name())
	}
	if _, err := buf.WriteTo(w); err != nil {
		return nil, errors.Wrap(err, "writing output")
	}

	return m, nil
}

// materialRuns groups consecutive faces that share a material slot.
type materialRun struct {
	Slot  uint16
	Start int
	End   int
}

func materialRuns(m *formats.XAYMesh) []materialRun {
	var runs []materialRun
	for i, slot := range m.FaceMaterials {
		if len(runs) > 0 && runs[len(runs)-1].Slot == slot {
			runs[len(runs)-1].End = i + 1
			continue
		}
		runs = append(runs, materialRun{Slot: slot, Start: i, End: i + 1})
	}
	return runs
}

// materialName returns the slot name, or "" when the mesh has no materials.
func materialName(m *formats.XAYMesh, slot uint16) string {
	if int(slot) < len(m.Materials) {
		return m.Materials[slot]
	}
	return ""
}
