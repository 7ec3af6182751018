package formats

import (
	"encoding/binary"
	"math"
)

// xayReader is a forward-only cursor over an in-memory XAY file.
//
// Errors are sticky: the first read that runs past the end of the data
// records ErrTruncatedXAYData, leaves the cursor at the end, and makes every
// later read return zero. Callers check err once per decode stage.
type xayReader struct {
	data []byte
	off  int
	err  error
}

func newXAYReader(data []byte) *xayReader {
	return &xayReader{data: data}
}

// remaining returns the number of unread bytes.
func (r *xayReader) remaining() int {
	return len(r.data) - r.off
}

// need reports whether n more bytes are available. It fails the reader when
// they are not, so a huge declared count is rejected before allocation.
func (r *xayReader) need(n uint64) bool {
	if r.err != nil {
		return false
	}
	if n > uint64(r.remaining()) {
		r.fail()
		return false
	}
	return true
}

func (r *xayReader) fail() {
	r.off = len(r.data)
	if r.err == nil {
		r.err = ErrTruncatedXAYData
	}
}

// take returns the next n bytes, or nil once the reader has failed.
func (r *xayReader) take(n int) []byte {
	if r.err != nil {
		return nil
	}
	if n < 0 || n > r.remaining() {
		r.fail()
		return nil
	}
	b := r.data[r.off : r.off+n]
	r.off += n
	return b
}

func (r *xayReader) skip(n int) {
	r.take(n)
}

func (r *xayReader) bytes(n int) []byte {
	return r.take(n)
}

func (r *xayReader) u8() uint8 {
	b := r.take(1)
	if b == nil {
		return 0
	}
	return b[0]
}

func (r *xayReader) u16() uint16 {
	b := r.take(2)
	if b == nil {
		return 0
	}
	return binary.LittleEndian.Uint16(b)
}

func (r *xayReader) u32() uint32 {
	b := r.take(4)
	if b == nil {
		return 0
	}
	return binary.LittleEndian.Uint32(b)
}

func (r *xayReader) f32() float32 {
	return math.Float32frombits(r.u32())
}

// f32s fills dst with consecutive little-endian floats.
func (r *xayReader) f32s(dst []float32) {
	b := r.take(4 * len(dst))
	if b == nil {
		for i := range dst {
			dst[i] = 0
		}
		return
	}
	for i := range dst {
		dst[i] = math.Float32frombits(binary.LittleEndian.Uint32(b[4*i:]))
	}
}
