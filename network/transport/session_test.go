package transport

import (
	"encoding/binary"
	"io"
	"net"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/linchenxuan/ladderd/network/wire"
)

func testListener(t *testing.T) *Listener {
	t.Helper()
	l, err := Listen(&TransportCfg{Addr: "127.0.0.1:0", MaxBufferSize: 1 << 16})
	require.NoError(t, err)
	t.Cleanup(func() { _ = l.Close() })
	return l
}

func dialFrame(t *testing.T, addr net.Addr, m *wire.ClientMessage) net.Conn {
	t.Helper()
	conn, err := net.Dial("tcp", addr.String())
	require.NoError(t, err)
	w := wire.NewWriter()
	m.Encode(w)
	require.NoError(t, w.SealFrame())
	_, err = conn.Write(w.Bytes())
	require.NoError(t, err)
	return conn
}

func readFrame(t *testing.T, conn net.Conn) []byte {
	t.Helper()
	var lenBuf [2]byte
	_, err := io.ReadFull(conn, lenBuf[:])
	require.NoError(t, err)
	payload := make([]byte, binary.LittleEndian.Uint16(lenBuf[:])-2)
	_, err = io.ReadFull(conn, payload)
	require.NoError(t, err)
	return payload
}

func TestHandshakeAndFrames(t *testing.T) {
	l := testListener(t)

	done := make(chan net.Conn, 1)
	go func() {
		conn := dialFrame(t, l.Addr(), &wire.ClientMessage{
			Code: wire.OpHandshake, Version: wire.ProtocolVersion,
		})
		w := wire.NewWriter()
		(&wire.ClientMessage{Code: wire.OpUserConnected, UserID: 42}).Encode(w)
		_ = w.SealFrame()
		_, _ = conn.Write(w.Bytes())
		done <- conn
	}()

	sess, err := l.Accept()
	require.NoError(t, err)
	defer sess.Close()

	payload, err := sess.Receive()
	require.NoError(t, err)
	var msg wire.ClientMessage
	require.NoError(t, msg.Decode(payload))
	assert.Equal(t, wire.OpUserConnected, msg.Code)
	assert.Equal(t, int32(42), msg.UserID)

	conn := <-done
	_ = conn.Close()
}

func TestHandshakeVersionMismatch(t *testing.T) {
	l := testListener(t)

	reply := make(chan wire.ProtoError, 1)
	go func() {
		conn := dialFrame(t, l.Addr(), &wire.ClientMessage{Code: wire.OpHandshake, Version: 2})
		defer conn.Close()
		payload := readFrame(t, conn)
		r := wire.NewReader(payload)
		require.Equal(t, wire.OpProtocolError, wire.Opcode(r.U8()))
		e, err := wire.DecodeProtoError(r)
		require.NoError(t, err)
		reply <- e
	}()

	_, err := l.Accept()
	require.Error(t, err)
	assert.True(t, IsRecoverable(err))

	e := <-reply
	assert.Equal(t, wire.ErrCodeVersionUnsupported, e.Code)
	assert.Equal(t, wire.ProtocolVersion, e.Expected)
}

func TestHandshakeWrongFirstMessage(t *testing.T) {
	l := testListener(t)

	go func() {
		conn := dialFrame(t, l.Addr(), &wire.ClientMessage{Code: wire.OpUserConnected, UserID: 1})
		defer conn.Close()
	}()

	_, err := l.Accept()
	require.Error(t, err)
	assert.True(t, IsRecoverable(err))
}

func TestReceiveAfterPeerClose(t *testing.T) {
	l := testListener(t)

	go func() {
		conn := dialFrame(t, l.Addr(), &wire.ClientMessage{
			Code: wire.OpHandshake, Version: wire.ProtocolVersion,
		})
		_ = conn.Close()
	}()

	sess, err := l.Accept()
	require.NoError(t, err)
	defer sess.Close()

	_, err = sess.Receive()
	require.Error(t, err)
	assert.True(t, IsRecoverable(err))
}

// Frames written from many goroutines must arrive whole, never
// interleaved.
func TestWriteFrameSerialized(t *testing.T) {
	l := testListener(t)

	const writers = 4
	const perWriter = 200

	clientDone := make(chan map[int32]int)
	go func() {
		conn := dialFrame(t, l.Addr(), &wire.ClientMessage{
			Code: wire.OpHandshake, Version: wire.ProtocolVersion,
		})
		defer conn.Close()

		seen := make(map[int32]int)
		for i := 0; i < writers*perWriter; i++ {
			payload := readFrame(t, conn)
			r := wire.NewReader(payload)
			require.Equal(t, wire.OpProtocolError, wire.Opcode(r.U8()))
			e, err := wire.DecodeProtoError(r)
			require.NoError(t, err)
			seen[e.UserID]++
		}
		clientDone <- seen
	}()

	sess, err := l.Accept()
	require.NoError(t, err)
	defer sess.Close()

	var wg sync.WaitGroup
	for wr := 0; wr < writers; wr++ {
		wg.Add(1)
		go func(wr int) {
			defer wg.Done()
			w := wire.NewPacketWriter(wire.OpProtocolError)
			base := w.Len()
			for i := 0; i < perWriter; i++ {
				w.Truncate(base)
				wire.NewUserUnrecognized(int32(wr)).Encode(w)
				require.NoError(t, w.SealFrame())
				require.NoError(t, sess.WriteFrame(w.Bytes()))
			}
		}(wr)
	}
	wg.Wait()

	seen := <-clientDone
	for wr := 0; wr < writers; wr++ {
		assert.Equal(t, perWriter, seen[int32(wr)], "writer %d", wr)
	}
}
