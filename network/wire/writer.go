package wire

import (
	"encoding/binary"
	"fmt"
)

// Writer assembles an outgoing frame. It starts with the 2-byte length
// placeholder; SealFrame patches the real length in before sending.
// Workers keep one Writer per packet kind alive for the whole session and
// truncate it back after every send, so appends stay allocation-free once
// the buffer has grown to its working size.
type Writer struct {
	buf []byte
}

// NewWriter creates a Writer holding only the frame length placeholder.
func NewWriter() *Writer {
	w := &Writer{buf: make([]byte, 0, 512)}
	w.buf = append(w.buf, 0, 0)
	return w
}

// NewPacketWriter creates a Writer pre-filled with the frame length
// placeholder and the given service opcode.
func NewPacketWriter(op Opcode) *Writer {
	w := NewWriter()
	w.PutU8(uint8(op))
	return w
}

// Len returns the current frame size, length prefix included.
func (w *Writer) Len() int {
	return len(w.buf)
}

// Bytes returns the assembled frame. Valid until the next mutation.
func (w *Writer) Bytes() []byte {
	return w.buf
}

// Truncate drops everything past the first n bytes.
func (w *Writer) Truncate(n int) {
	w.buf = w.buf[:n]
}

// PutU8 appends one byte.
func (w *Writer) PutU8(v uint8) {
	w.buf = append(w.buf, v)
}

// PutU16 appends a little-endian uint16.
func (w *Writer) PutU16(v uint16) {
	w.buf = binary.LittleEndian.AppendUint16(w.buf, v)
}

// PutU32 appends a little-endian uint32.
func (w *Writer) PutU32(v uint32) {
	w.buf = binary.LittleEndian.AppendUint32(w.buf, v)
}

// PutI32 appends a little-endian int32.
func (w *Writer) PutI32(v int32) {
	w.PutU32(uint32(v))
}

// PutI64 appends a little-endian int64.
func (w *Writer) PutI64(v int64) {
	w.buf = binary.LittleEndian.AppendUint64(w.buf, uint64(v))
}

// PutString appends a length-prefixed string. Names longer than
// MaxNameLen are truncated to fit the single length byte.
func (w *Writer) PutString(s string) {
	if len(s) > MaxNameLen {
		s = s[:MaxNameLen]
	}
	w.buf = append(w.buf, uint8(len(s)))
	w.buf = append(w.buf, s...)
}

// PatchI32 overwrites 4 bytes at off with a little-endian int32.
// The region must already exist.
func (w *Writer) PatchI32(off int, v int32) {
	binary.LittleEndian.PutUint32(w.buf[off:off+4], uint32(v))
}

// SealFrame patches the length prefix with the current frame size.
func (w *Writer) SealFrame() error {
	if len(w.buf) > MaxFrameSize {
		return fmt.Errorf("wire: frame of %d bytes exceeds the uint16 length prefix", len(w.buf))
	}
	binary.LittleEndian.PutUint16(w.buf[0:FrameLenSize], uint16(len(w.buf)))
	return nil
}
