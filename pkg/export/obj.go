package export

import (
	"bufio"
	"fmt"
	"io"

	"github.com/pkg/errors"

	"github.com/Faultbox/xaytool/pkg/formats"
)

// OBJ exports Wavefront OBJ. Vertex colors use the common "v x y z r g b"
// extension, which readers treat as display values, so colors arrive
// sRGB-encoded. Only UV channel 0 is written.
type OBJ struct{}

func (e *OBJ) Name() string      { return "obj" }
func (e *OBJ) Extension() string { return ".obj" }

func (e *OBJ) ColorEncoding() formats.ColorEncoding {
	return formats.ColorSRGB
}

func (e *OBJ) Export(w io.Writer, m *formats.XAYMesh) error {
	bw := bufio.NewWriter(w)
	line := func(format string, args ...interface{}) {
		fmt.Fprintf(bw, format+"\n", args...)
	}

	line("# XAY v%d: %d vertices, %d faces", m.Version, len(m.Positions), len(m.Faces))
	line("o %s", m.Name)

	for i, p := range m.Positions {
		if m.HasColors() {
			c := m.Colors[i]
			line("v %f %f %f %f %f %f", p[0], p[1], p[2], c[0], c[1], c[2])
		} else {
			line("v %f %f %f", p[0], p[1], p[2])
		}
	}

	haveUV := len(m.UVs) > 0
	if haveUV {
		for _, uv := range m.UVs[0] {
			line("vt %f %f", uv[0], 1-uv[1])
		}
	}

	for _, n := range m.Normals {
		line("vn %f %f %f", n[0], n[1], n[2])
	}

	for _, run := range materialRuns(m) {
		if name := materialName(m, run.Slot); name != "" {
			line("usemtl %s", name)
		}
		for _, face := range m.Faces[run.Start:run.End] {
			a, b, c := face[0]+1, face[1]+1, face[2]+1
			if haveUV {
				line("f %d/%d/%d %d/%d/%d %d/%d/%d", a, a, a, b, b, b, c, c, c)
			} else {
				line("f %d//%d %d//%d %d//%d", a, a, b, b, c, c)
			}
		}
	}

	return errors.Wrap(bw.Flush(), "writing OBJ")
}
