package wire

import (
	"encoding/binary"
	"strings"
	"testing"

	"github.com/brianvoe/gofakeit/v6"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// frame assembles a full client frame and returns its payload, checking
// that the length prefix covers the whole frame.
func frame(t *testing.T, m *ClientMessage) []byte {
	t.Helper()
	w := NewWriter()
	m.Encode(w)
	require.NoError(t, w.SealFrame())
	raw := w.Bytes()
	require.Equal(t, uint16(len(raw)), binary.LittleEndian.Uint16(raw[:FrameLenSize]))
	return raw[FrameLenSize:]
}

func TestClientMessageRoundTrip(t *testing.T) {
	msgs := []ClientMessage{
		{Code: OpHandshake, Version: ProtocolVersion},
		{Code: OpUserRegistered, UserID: 42, Name: gofakeit.Username()},
		{Code: OpUserRenamed, UserID: 42, Name: gofakeit.Username()},
		{Code: OpUserDealWon, UserID: 7, Amount: 1_000_000},
		{Code: OpUserDealWon, UserID: 7, Amount: -250},
		{Code: OpUserConnected, UserID: 9},
		{Code: OpUserDisconnected, UserID: 9},
	}
	for _, want := range msgs {
		var got ClientMessage
		require.NoError(t, got.Decode(frame(t, &want)))
		assert.Equal(t, want, got)
	}
}

func TestClientMessageDealTimestampIgnored(t *testing.T) {
	w := NewWriter()
	w.PutU8(uint8(OpUserDealWon))
	w.PutI32(3)
	w.PutI64(500)
	w.PutI64(1724457600) // trailing deal timestamp, bucketing uses arrival time
	require.NoError(t, w.SealFrame())

	var m ClientMessage
	require.NoError(t, m.Decode(w.Bytes()[FrameLenSize:]))
	assert.Equal(t, int32(3), m.UserID)
	assert.Equal(t, int64(500), m.Amount)
}

func TestClientMessageUnknownOpcode(t *testing.T) {
	var m ClientMessage
	err := m.Decode([]byte{200, 1, 2, 3})
	var uo *UnknownOpcodeError
	require.ErrorAs(t, err, &uo)
	assert.Equal(t, Opcode(200), uo.Code)
}

func TestClientMessageTruncatedPayload(t *testing.T) {
	payload := frame(t, &ClientMessage{Code: OpUserRegistered, UserID: 1, Name: "abcdef"})
	for cut := 1; cut < len(payload); cut++ {
		var m ClientMessage
		assert.ErrorIs(t, m.Decode(payload[:cut]), ErrShortPayload, "cut at %d", cut)
	}
}

func TestWriterStringTruncation(t *testing.T) {
	w := NewWriter()
	w.PutString(strings.Repeat("x", MaxNameLen+40))
	require.NoError(t, w.SealFrame())

	r := NewReader(w.Bytes()[FrameLenSize:])
	assert.Len(t, r.String(), MaxNameLen)
	assert.NoError(t, r.Err())
	assert.Zero(t, r.Remaining())
}

func TestWriterTruncateReuse(t *testing.T) {
	w := NewPacketWriter(OpUserRating)
	mark := w.Len()
	w.PutI32(1)
	w.PutI64(2)
	w.Truncate(mark)
	w.PutI32(77)
	require.NoError(t, w.SealFrame())

	payload := w.Bytes()[FrameLenSize:]
	r := NewReader(payload)
	assert.Equal(t, OpUserRating, Opcode(r.U8()))
	assert.Equal(t, int32(77), r.I32())
	assert.Zero(t, r.Remaining())
}

func TestReaderStickyError(t *testing.T) {
	r := NewReader([]byte{1, 2})
	_ = r.U32()
	require.ErrorIs(t, r.Err(), ErrShortPayload)
	assert.Zero(t, r.U8())
	assert.Zero(t, r.I64())
	assert.Empty(t, r.String())
}

func TestProtoErrorRoundTrip(t *testing.T) {
	cases := []ProtoError{
		NewVersionUnsupported(),
		NewUserUnrecognized(123),
		NewMultipleRegistration(-5),
	}
	for _, want := range cases {
		w := NewPacketWriter(OpProtocolError)
		want.Encode(w)
		require.NoError(t, w.SealFrame())

		r := NewReader(w.Bytes()[FrameLenSize:])
		require.Equal(t, OpProtocolError, Opcode(r.U8()))
		got, err := DecodeProtoError(r)
		require.NoError(t, err)
		assert.Equal(t, want, got)
	}
}

func TestProtoErrorUnknownCode(t *testing.T) {
	r := NewReader([]byte{99, 0, 0, 0})
	_, err := DecodeProtoError(r)
	assert.Error(t, err)
}

func TestRatingPacketDecode(t *testing.T) {
	w := NewPacketWriter(OpUserRating)
	PutRatingHeader(w, 8, 3, 1)
	PutRatingEntry(w, 5, 900, "ada")
	PutRatingEntry(w, 8, 400, "grace")
	PutRatingEntry(w, 2, 100, "linus")
	require.NoError(t, w.SealFrame())

	payload := w.Bytes()[FrameLenSize:]
	require.Equal(t, OpUserRating, Opcode(payload[0]))
	p, err := DecodeRatingPacket(payload[1:])
	require.NoError(t, err)
	assert.Equal(t, int32(8), p.SubjectID)
	assert.Equal(t, int32(3), p.Length)
	assert.Equal(t, int32(1), p.Position)
	require.Len(t, p.Entries, 3)
	assert.Equal(t, RatingEntry{UserID: 8, Winnings: 400, Name: "grace"}, p.Entries[1])
}

func TestPatchRatingHeader(t *testing.T) {
	w := NewPacketWriter(OpUserRating)
	PutRatingHeader(w, InvalidUserID, 0, 0)
	PutRatingEntry(w, 1, 10, "a")
	PatchRatingHeader(w, 31, 25, 12)
	require.NoError(t, w.SealFrame())

	p, err := DecodeRatingPacket(w.Bytes()[RatingHeaderOffset:])
	require.NoError(t, err)
	assert.Equal(t, int32(31), p.SubjectID)
	assert.Equal(t, int32(25), p.Length)
	assert.Equal(t, int32(12), p.Position)
	require.Len(t, p.Entries, 1)
}
