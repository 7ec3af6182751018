package formats

import (
	"fmt"
	"io"
	"math"
	"path"
	"strings"

	"github.com/go-gl/mathgl/mgl32"
)

// ColorEncoding describes how a mesh consumer stores vertex colors.
type ColorEncoding int

const (
	// ColorLinear stores colors as linear floats, unmodified.
	ColorLinear ColorEncoding = iota
	// ColorSRGB stores colors as display values; RGB is sRGB-encoded, alpha is not.
	ColorSRGB
)

// String returns the encoding name used in configuration files.
func (e ColorEncoding) String() string {
	switch e {
	case ColorLinear:
		return "linear"
	case ColorSRGB:
		return "srgb"
	default:
		return fmt.Sprintf("Unknown(%d)", int(e))
	}
}

// ParseColorEncoding converts a configuration value to a ColorEncoding.
func ParseColorEncoding(s string) (ColorEncoding, error) {
	switch strings.ToLower(s) {
	case "linear", "":
		return ColorLinear, nil
	case "srgb":
		return ColorSRGB, nil
	default:
		return ColorLinear, fmt.Errorf("unknown color encoding %q", s)
	}
}

// LinearToSRGB converts one linear color channel to sRGB.
// Negative input clamps to 0.
func LinearToSRGB(c float32) float32 {
	if c < 0.0031308 {
		if c < 0 {
			return 0
		}
		return c * 12.92
	}
	return float32(1.055*math.Pow(float64(c), 1.0/2.4) - 0.055)
}

// XAYMesh is a decoded XAY file assembled for a mesh consumer.
// Every per-vertex slice has one entry per vertex.
type XAYMesh struct {
	Name    string
	Version uint8

	Positions [][3]float32
	Normals   [][3]float32 // Authoritative custom normals, never recomputed
	Faces     [][3]uint32
	UVs       [][][2]float32 // UVs[0] comes from the vertex records

	Materials     []string // Slot order, one per section
	FaceMaterials []uint16 // Slot index per face

	Colors        [][4]float32 // nil when the file has no vertex colors
	ColorEncoding ColorEncoding
}

// HasColors reports whether the mesh carries vertex colors.
func (m *XAYMesh) HasColors() bool {
	return m.Colors != nil
}

// Bounds returns the axis-aligned bounding box of the positions.
// An empty mesh returns two zero vectors.
func (m *XAYMesh) Bounds() (min, max mgl32.Vec3) {
	if len(m.Positions) == 0 {
		return min, max
	}

	min = mgl32.Vec3(m.Positions[0])
	max = min
	for _, p := range m.Positions[1:] {
		for i := 0; i < 3; i++ {
			if p[i] < min[i] {
				min[i] = p[i]
			}
			if p[i] > max[i] {
				max[i] = p[i]
			}
		}
	}
	return min, max
}

// Extent returns the size of the bounding box on each axis.
func (m *XAYMesh) Extent() mgl32.Vec3 {
	min, max := m.Bounds()
	return max.Sub(min)
}

// Assemble combines the parsed arrays into a mesh. enc selects how the
// consumer stores colors: ColorSRGB applies LinearToSRGB to RGB.
func (x *XAY) Assemble(name string, enc ColorEncoding) *XAYMesh {
	m := &XAYMesh{
		Name:          name,
		Version:       x.Header.Version,
		Positions:     make([][3]float32, len(x.Vertices)),
		Normals:       make([][3]float32, len(x.Vertices)),
		Faces:         x.Faces,
		UVs:           make([][][2]float32, 0, x.UVChannelCount()),
		Materials:     make([]string, len(x.Sections)),
		FaceMaterials: AssignSectionMaterials(x.Sections, uint32(len(x.Faces))),
		ColorEncoding: enc,
	}

	uv0 := make([][2]float32, len(x.Vertices))
	for i, v := range x.Vertices {
		m.Positions[i] = v.Position
		m.Normals[i] = v.Normal
		uv0[i] = v.UV
	}
	m.UVs = append(m.UVs, uv0)
	m.UVs = append(m.UVs, x.ExtraUVs...)

	for i, s := range x.Sections {
		m.Materials[i] = s.Name
	}

	if x.Colors != nil {
		m.Colors = make([][4]float32, len(x.Colors))
		for i, c := range x.Colors {
			if enc == ColorSRGB {
				c = [4]float32{LinearToSRGB(c[0]), LinearToSRGB(c[1]), LinearToSRGB(c[2]), c[3]}
			}
			m.Colors[i] = c
		}
	}

	return m
}

// AssignSectionMaterials returns the material slot of every face.
//
// For each adjacent pair of sections (i, i+1) the faces in
// [sections[i].FirstFace, sections[i+1].FirstFace) get slot i+1. Faces before
// the first section and from the last section's start onward keep slot 0.
// Ranges are clamped to faceCount.
func AssignSectionMaterials(sections []XAYSection, faceCount uint32) []uint16 {
	slots := make([]uint16, faceCount)

	for i := 0; i+1 < len(sections); i++ {
		start := sections[i].FirstFace
		end := sections[i+1].FirstFace
		if end > faceCount {
			end = faceCount
		}
		for f := start; f < end; f++ {
			slots[f] = uint16(i + 1)
		}
	}

	return slots
}

// MeshName derives a mesh name from a source label: the base file name
// without its extension. Both '/' and '\' separate directories.
func MeshName(label string) string {
	base := path.Base(strings.ReplaceAll(label, "\\", "/"))
	if base == "." || base == "/" {
		return ""
	}
	return strings.TrimSuffix(base, path.Ext(base))
}

// DecodeOptions controls DecodeXAYMesh.
type DecodeOptions struct {
	ColorEncoding ColorEncoding
	Strict        bool
}

// DecodeXAYMesh decodes a complete XAY stream into a mesh. label is only
// used to name the mesh. No mesh is returned on error.
func DecodeXAYMesh(r io.Reader, label string, opts DecodeOptions) (*XAYMesh, error) {
	x, err := DecodeXAY(r, XAYOptions{Strict: opts.Strict})
	if err != nil {
		return nil, err
	}

	return x.Assemble(MeshName(label), opts.ColorEncoding), nil
}
