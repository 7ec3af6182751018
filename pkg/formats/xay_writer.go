package formats

import (
	"bytes"
	"encoding/binary"
	"errors"
	"fmt"
	"io"
	"math"

	"github.com/Faultbox/xaytool/pkg/encoding"
)

// ErrXAYEncode is returned when an XAY value cannot be represented on disk.
var ErrXAYEncode = errors.New("cannot encode XAY")

// maxXAYNameLen leaves room for the terminator inside the u8 length prefix.
const maxXAYNameLen = 0xFF - 1

// MarshalBinary encodes x in the XAY wire format.
func (x *XAY) MarshalBinary() ([]byte, error) {
	var buf bytes.Buffer
	if err := EncodeXAY(&buf, x); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// EncodeXAY writes x in the XAY wire format.
//
// Counts are taken from the slices, not from x.Header; only Version is
// copied from the header. Colors are quantized to bytes with rounding.
func EncodeXAY(w io.Writer, x *XAY) error {
	if err := checkXAYEncodable(x); err != nil {
		return err
	}

	vertexCount := uint32(len(x.Vertices))
	wide := wideIndices(vertexCount)

	var buf bytes.Buffer
	le := binary.LittleEndian

	// Header
	binary.Write(&buf, le, XAYMagic)
	buf.WriteByte(x.Header.Version)
	buf.Write([]byte{0, 0, 0}) // reserved
	binary.Write(&buf, le, vertexCount)
	binary.Write(&buf, le, uint32(len(x.Faces)))
	buf.WriteByte(uint8(x.UVChannelCount()))
	if x.Colors != nil {
		buf.WriteByte(1)
	} else {
		buf.WriteByte(0)
	}
	binary.Write(&buf, le, uint16(len(x.Sections)))

	// Material sections
	for _, s := range x.Sections {
		name, _ := encoding.EncodeName(s.Name)
		buf.WriteByte(uint8(len(name) + 1))
		buf.Write(name)
		buf.WriteByte(0)
		binary.Write(&buf, le, s.FirstFace)
	}

	// Vertex records, position and normal interleaved
	for _, v := range x.Vertices {
		f := [8]float32{
			v.Position[0], v.Normal[0],
			v.Position[1], v.Normal[1],
			v.Position[2], v.Normal[2],
			v.UV[0], v.UV[1],
		}
		binary.Write(&buf, le, f)
	}

	// Faces
	for _, face := range x.Faces {
		if wide {
			binary.Write(&buf, le, face)
		} else {
			binary.Write(&buf, le, [3]uint16{uint16(face[0]), uint16(face[1]), uint16(face[2])})
		}
	}

	// Extra UV channels
	for _, uvs := range x.ExtraUVs {
		binary.Write(&buf, le, uvs)
	}

	// Vertex colors
	for _, c := range x.Colors {
		buf.Write([]byte{quantizeUnit(c[0]), quantizeUnit(c[1]), quantizeUnit(c[2]), quantizeUnit(c[3])})
	}

	if _, err := w.Write(buf.Bytes()); err != nil {
		return fmt.Errorf("writing XAY data: %w", err)
	}
	return nil
}

func checkXAYEncodable(x *XAY) error {
	vertexCount := len(x.Vertices)
	if uint64(vertexCount) > math.MaxUint32 || uint64(len(x.Faces)) > math.MaxUint32 {
		return fmt.Errorf("%w: too many vertices or faces", ErrXAYEncode)
	}
	if x.UVChannelCount() > math.MaxUint8 {
		return fmt.Errorf("%w: %d UV channels", ErrXAYEncode, x.UVChannelCount())
	}
	if len(x.Sections) > math.MaxUint16 {
		return fmt.Errorf("%w: %d sections", ErrXAYEncode, len(x.Sections))
	}

	for i, s := range x.Sections {
		name, err := encoding.EncodeName(s.Name)
		if err != nil {
			return fmt.Errorf("%w: section %d: %v", ErrXAYEncode, i, err)
		}
		if len(name) > maxXAYNameLen {
			return fmt.Errorf("%w: section %d name is %d bytes, max %d", ErrXAYEncode, i, len(name), maxXAYNameLen)
		}
	}

	if !wideIndices(uint32(vertexCount)) {
		for i, face := range x.Faces {
			for _, idx := range face {
				if idx > math.MaxUint16 {
					return fmt.Errorf("%w: face %d index %d needs 32-bit indices", ErrXAYEncode, i, idx)
				}
			}
		}
	}

	for c, uvs := range x.ExtraUVs {
		if len(uvs) != vertexCount {
			return fmt.Errorf("%w: UV channel %d has %d entries, want %d", ErrXAYEncode, c+1, len(uvs), vertexCount)
		}
	}
	if x.Colors != nil && len(x.Colors) != vertexCount {
		return fmt.Errorf("%w: %d vertex colors, want %d", ErrXAYEncode, len(x.Colors), vertexCount)
	}

	return nil
}

// quantizeUnit maps [0,1] to a byte, clamping out-of-range values.
func quantizeUnit(c float32) uint8 {
	switch {
	case !(c > 0):
		return 0
	case c >= 1:
		return 255
	default:
		return uint8(c*255 + 0.5)
	}
}
