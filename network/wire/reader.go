package wire

import (
	"encoding/binary"
	"errors"
)

// ErrShortPayload reports a read past the end of a frame payload.
var ErrShortPayload = errors.New("wire: payload underflow")

// Reader decodes little-endian values from a frame payload. The first
// failed read sticks: subsequent reads return zero values and Err
// reports the failure.
type Reader struct {
	buf []byte
	pos int
	err error
}

// NewReader creates a Reader over a frame payload.
func NewReader(payload []byte) *Reader {
	return &Reader{buf: payload}
}

// Err returns the first decoding error, or nil.
func (r *Reader) Err() error {
	return r.err
}

// Remaining returns the number of unread bytes.
func (r *Reader) Remaining() int {
	return len(r.buf) - r.pos
}

func (r *Reader) take(n int) []byte {
	if r.err != nil {
		return nil
	}
	if r.Remaining() < n {
		r.err = ErrShortPayload
		return nil
	}
	b := r.buf[r.pos : r.pos+n]
	r.pos += n
	return b
}

// U8 reads one byte.
func (r *Reader) U8() uint8 {
	b := r.take(1)
	if b == nil {
		return 0
	}
	return b[0]
}

// U16 reads a little-endian uint16.
func (r *Reader) U16() uint16 {
	b := r.take(2)
	if b == nil {
		return 0
	}
	return binary.LittleEndian.Uint16(b)
}

// U32 reads a little-endian uint32.
func (r *Reader) U32() uint32 {
	b := r.take(4)
	if b == nil {
		return 0
	}
	return binary.LittleEndian.Uint32(b)
}

// I32 reads a little-endian int32.
func (r *Reader) I32() int32 {
	return int32(r.U32())
}

// I64 reads a little-endian int64.
func (r *Reader) I64() int64 {
	b := r.take(8)
	if b == nil {
		return 0
	}
	return int64(binary.LittleEndian.Uint64(b))
}

// String reads a length-prefixed string (single length byte).
func (r *Reader) String() string {
	n := int(r.U8())
	b := r.take(n)
	if b == nil {
		return ""
	}
	return string(b)
}

// Skip discards n bytes.
func (r *Reader) Skip(n int) {
	r.take(n)
}
