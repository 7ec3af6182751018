// Package formats provides parsers for the XAY static mesh format.
// XAY is a flat, non-indexed triangle container: vertices are never
// deduplicated, so every attribute array is indexed by the same vertex id.
package formats

import (
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/Faultbox/xaytool/pkg/encoding"
)

// XAY format errors.
var (
	ErrInvalidXAYMagic     = errors.New("invalid XAY magic: expected 'XAY\\x02'")
	ErrTruncatedXAYData    = errors.New("truncated XAY data")
	ErrMalformedXAYSection = errors.New("malformed XAY material section")
	ErrInvalidXAYEncoding  = errors.New("invalid XAY material name encoding")
	ErrDanglingXAYIndex    = errors.New("XAY face index out of range")
)

const (
	// XAYMagic is "XAY\x02" read as a little-endian uint32.
	XAYMagic uint32 = 0x02594158

	// Files with more vertices than this store 32-bit face indices.
	xayWideIndexThreshold = 0xFFFF + 1

	xayHeaderSize      = 20
	xayVertexSize      = 32
	xayNarrowFaceSize  = 6
	xayWideFaceSize    = 12
	xayUVSize          = 8
	xayColorSize       = 4
	xaySectionTailSize = 4
)

// IsNotXAY reports whether err means the data is not an XAY file at all,
// as opposed to an XAY file that is corrupt.
func IsNotXAY(err error) bool {
	return errors.Is(err, ErrInvalidXAYMagic)
}

// IsCorrupt reports whether err means the data is an XAY file that cannot
// be decoded: truncated, malformed, badly encoded or with dangling indices.
func IsCorrupt(err error) bool {
	return errors.Is(err, ErrTruncatedXAYData) ||
		errors.Is(err, ErrMalformedXAYSection) ||
		errors.Is(err, ErrInvalidXAYEncoding) ||
		errors.Is(err, ErrDanglingXAYIndex)
}

// XAYHeader is the fixed 20-byte file header.
type XAYHeader struct {
	Magic           uint32
	Version         uint8 // Stored, never used to branch decoding
	VertexCount     uint32
	FaceCount       uint32
	UVChannelCount  uint8 // Channel 0 lives in the vertex record
	HasVertexColors bool
	SectionCount    uint16
}

// WideIndices reports whether face indices are stored as uint32.
func (h XAYHeader) WideIndices() bool {
	return wideIndices(h.VertexCount)
}

// IndexSize returns the on-disk size of a single face index.
func (h XAYHeader) IndexSize() int {
	if h.WideIndices() {
		return 4
	}
	return 2
}

func wideIndices(vertexCount uint32) bool {
	return vertexCount > xayWideIndexThreshold
}

// XAYSection names the material used from FirstFace onward.
type XAYSection struct {
	Name      string
	FirstFace uint32
}

// XAYVertex is one vertex record.
// On disk the floats are interleaved as px nx py ny pz nz u v.
type XAYVertex struct {
	Position [3]float32
	Normal   [3]float32
	UV       [2]float32 // UV channel 0
}

// XAY represents a parsed XAY file.
type XAY struct {
	Header   XAYHeader
	Sections []XAYSection
	Vertices []XAYVertex
	Faces    [][3]uint32
	ExtraUVs [][][2]float32 // Channels 1..UVChannelCount-1
	Colors   [][4]float32   // RGBA in [0,1], nil without vertex colors
}

// XAYOptions controls optional validation during parsing.
type XAYOptions struct {
	// Strict rejects face indices that do not reference a vertex and
	// section starts that are descending or past the face count.
	Strict bool
}

// ParseXAY parses XAY data from a byte slice.
func ParseXAY(data []byte) (*XAY, error) {
	return ParseXAYWithOptions(data, XAYOptions{})
}

// ParseXAYWithOptions parses XAY data with optional validation.
func ParseXAYWithOptions(data []byte, opts XAYOptions) (*XAY, error) {
	r := newXAYReader(data)

	header, err := parseXAYHeader(r)
	if err != nil {
		return nil, err
	}
	x := &XAY{Header: header}

	if x.Sections, err = parseXAYSections(r, header.SectionCount); err != nil {
		return nil, err
	}
	if x.Vertices, err = parseXAYVertices(r, header.VertexCount); err != nil {
		return nil, err
	}
	if x.Faces, err = parseXAYFaces(r, header); err != nil {
		return nil, err
	}
	if x.ExtraUVs, err = parseXAYExtraUVs(r, header); err != nil {
		return nil, err
	}
	if header.HasVertexColors {
		if x.Colors, err = parseXAYColors(r, header.VertexCount); err != nil {
			return nil, err
		}
	}

	if opts.Strict {
		if err := x.Validate(); err != nil {
			return nil, err
		}
	}

	return x, nil
}

// DecodeXAY reads the whole stream and parses it.
func DecodeXAY(r io.Reader, opts XAYOptions) (*XAY, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("reading XAY data: %w", err)
	}
	return ParseXAYWithOptions(data, opts)
}

// ParseXAYFile parses an XAY file from disk.
func ParseXAYFile(path string) (*XAY, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading XAY file: %w", err)
	}
	return ParseXAY(data)
}

func parseXAYHeader(r *xayReader) (XAYHeader, error) {
	var h XAYHeader

	h.Magic = r.u32()
	h.Version = r.u8()
	if r.err != nil {
		return h, fmt.Errorf("header: %w", r.err)
	}
	if h.Magic != XAYMagic {
		return h, fmt.Errorf("%w: got 0x%08x", ErrInvalidXAYMagic, h.Magic)
	}

	// Reserved, never checked
	r.skip(3)

	h.VertexCount = r.u32()
	h.FaceCount = r.u32()
	h.UVChannelCount = r.u8()
	h.HasVertexColors = r.u8() != 0
	h.SectionCount = r.u16()

	if r.err != nil {
		return h, fmt.Errorf("header: %w", r.err)
	}
	return h, nil
}

// parseXAYSections reads the material table. Each entry is
// u8 len; len-1 name bytes; 1 pad byte; u32 first face.
func parseXAYSections(r *xayReader, count uint16) ([]XAYSection, error) {
	sections := make([]XAYSection, 0, count)

	for i := 0; i < int(count); i++ {
		strLen := int(r.u8())
		if r.err != nil {
			return nil, fmt.Errorf("section %d: %w", i, r.err)
		}
		if strLen == 0 {
			return nil, fmt.Errorf("section %d: %w: zero name length", i, ErrMalformedXAYSection)
		}
		if !r.need(uint64(strLen + xaySectionTailSize)) {
			return nil, fmt.Errorf("section %d: %w", i, r.err)
		}

		raw := r.bytes(strLen - 1)
		r.skip(1) // null terminator, not validated
		first := r.u32()

		name, err := encoding.DecodeName(raw)
		if err != nil {
			return nil, fmt.Errorf("section %d: %w: %q", i, ErrInvalidXAYEncoding, raw)
		}

		sections = append(sections, XAYSection{Name: name, FirstFace: first})
	}

	return sections, nil
}

func parseXAYVertices(r *xayReader, count uint32) ([]XAYVertex, error) {
	if !r.need(uint64(count) * xayVertexSize) {
		return nil, fmt.Errorf("vertices: %w", r.err)
	}

	vertices := make([]XAYVertex, count)
	var f [8]float32
	for i := range vertices {
		r.f32s(f[:])
		vertices[i] = XAYVertex{
			Position: [3]float32{f[0], f[2], f[4]},
			Normal:   [3]float32{f[1], f[3], f[5]},
			UV:       [2]float32{f[6], f[7]},
		}
	}

	if r.err != nil {
		return nil, fmt.Errorf("vertices: %w", r.err)
	}
	return vertices, nil
}

func parseXAYFaces(r *xayReader, h XAYHeader) ([][3]uint32, error) {
	wide := h.WideIndices()
	faceSize := uint64(xayNarrowFaceSize)
	if wide {
		faceSize = xayWideFaceSize
	}
	if !r.need(uint64(h.FaceCount) * faceSize) {
		return nil, fmt.Errorf("faces: %w", r.err)
	}

	faces := make([][3]uint32, h.FaceCount)
	for i := range faces {
		if wide {
			faces[i] = [3]uint32{r.u32(), r.u32(), r.u32()}
		} else {
			faces[i] = [3]uint32{uint32(r.u16()), uint32(r.u16()), uint32(r.u16())}
		}
	}

	if r.err != nil {
		return nil, fmt.Errorf("faces: %w", r.err)
	}
	return faces, nil
}

func parseXAYExtraUVs(r *xayReader, h XAYHeader) ([][][2]float32, error) {
	if h.UVChannelCount <= 1 {
		return nil, nil
	}

	extra := int(h.UVChannelCount) - 1
	if !r.need(uint64(extra) * uint64(h.VertexCount) * xayUVSize) {
		return nil, fmt.Errorf("uv channels: %w", r.err)
	}

	channels := make([][][2]float32, extra)
	for c := range channels {
		uvs := make([][2]float32, h.VertexCount)
		for i := range uvs {
			uvs[i] = [2]float32{r.f32(), r.f32()}
		}
		channels[c] = uvs
	}

	if r.err != nil {
		return nil, fmt.Errorf("uv channels: %w", r.err)
	}
	return channels, nil
}

func parseXAYColors(r *xayReader, count uint32) ([][4]float32, error) {
	if !r.need(uint64(count) * xayColorSize) {
		return nil, fmt.Errorf("vertex colors: %w", r.err)
	}

	colors := make([][4]float32, count)
	for i := range colors {
		b := r.bytes(xayColorSize)
		if b == nil {
			break
		}
		colors[i] = [4]float32{
			float32(b[0]) / 255,
			float32(b[1]) / 255,
			float32(b[2]) / 255,
			float32(b[3]) / 255,
		}
	}

	if r.err != nil {
		return nil, fmt.Errorf("vertex colors: %w", r.err)
	}
	return colors, nil
}

// Validate checks references the format itself never checks: face indices
// against the vertex count and section starts against the face count.
func (x *XAY) Validate() error {
	vertexCount := uint32(len(x.Vertices))
	for i, face := range x.Faces {
		for _, idx := range face {
			if idx >= vertexCount {
				return fmt.Errorf("%w: face %d references vertex %d of %d", ErrDanglingXAYIndex, i, idx, vertexCount)
			}
		}
	}

	faceCount := uint32(len(x.Faces))
	for i, s := range x.Sections {
		if s.FirstFace > faceCount {
			return fmt.Errorf("%w: section %d (%q) starts at face %d of %d", ErrMalformedXAYSection, i, s.Name, s.FirstFace, faceCount)
		}
		if i > 0 && s.FirstFace < x.Sections[i-1].FirstFace {
			return fmt.Errorf("%w: section %d (%q) starts before section %d", ErrMalformedXAYSection, i, s.Name, i-1)
		}
	}

	return nil
}

// UVChannelCount returns the number of UV channels including channel 0.
func (x *XAY) UVChannelCount() int {
	return 1 + len(x.ExtraUVs)
}
