package transport

import (
	"encoding/binary"
	"errors"
	"fmt"
	"io"
	"net"
	"time"

	"github.com/linchenxuan/ladderd/log"
	"github.com/linchenxuan/ladderd/metrics"
	"github.com/linchenxuan/ladderd/network/wire"
)

// Listener accepts one client session at a time on a bound TCP port.
type Listener struct {
	cfg *TransportCfg
	ln  net.Listener
}

// Listen binds the configured address.
func Listen(cfg *TransportCfg) (*Listener, error) {
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid TransportCfg: %w", err)
	}

	ln, err := net.Listen("tcp", cfg.Addr)
	if err != nil {
		return nil, fmt.Errorf("failed to listen on '%s': %w", cfg.Addr, err)
	}

	log.Info().Str("address", ln.Addr().String()).Msg("transport listening")
	return &Listener{cfg: cfg, ln: ln}, nil
}

// Addr returns the bound address.
func (l *Listener) Addr() net.Addr {
	return l.ln.Addr()
}

// Close stops accepting clients.
func (l *Listener) Close() error {
	return l.ln.Close()
}

// Accept blocks for the next client and runs the protocol handshake.
// Handshake faults are recoverable: the connection is closed and the
// caller is expected to Accept again.
func (l *Listener) Accept() (*Session, error) {
	conn, err := l.ln.Accept()
	if err != nil {
		return nil, fmt.Errorf("accept failed: %w", err)
	}

	if tcp, ok := conn.(*net.TCPConn); ok && l.cfg.MaxBufferSize > 0 {
		if err := tcp.SetReadBuffer(l.cfg.MaxBufferSize); err != nil {
			log.Warn().Err(err).Msg("failed to set read buffer size")
		}
		if err := tcp.SetWriteBuffer(l.cfg.MaxBufferSize); err != nil {
			log.Warn().Err(err).Msg("failed to set write buffer size")
		}
	}

	s := NewSession(conn, time.Duration(l.cfg.IdleTimeout)*time.Second)

	if err := s.handshake(); err != nil {
		metrics.IncrCounter("net", "handshake_failure_total", 1)
		_ = conn.Close()
		return nil, err
	}

	metrics.IncrCounter("net", "sessions_accepted_total", 1)
	log.Info().Str("remote", conn.RemoteAddr().String()).Msg("session accepted")
	return s, nil
}

// Session is one framed client connection. Receive is single-goroutine
// (the router); WriteFrame may be called from any worker.
type Session struct {
	conn        net.Conn
	idleTimeout time.Duration
	payload     []byte

	writeLock spinlock
}

// NewSession wraps an established connection. idleTimeout of 0 disables
// read/write deadlines.
func NewSession(conn net.Conn, idleTimeout time.Duration) *Session {
	return &Session{
		conn:        conn,
		idleTimeout: idleTimeout,
		payload:     make([]byte, wire.MaxFrameSize),
	}
}

// RemoteAddr returns the peer address.
func (s *Session) RemoteAddr() net.Addr {
	return s.conn.RemoteAddr()
}

// Close tears the connection down, unblocking a pending Receive.
func (s *Session) Close() error {
	return s.conn.Close()
}

// handshake reads exactly one frame and requires a handshake message with
// the supported protocol version. A version mismatch is answered on the
// wire before the session is torn down.
func (s *Session) handshake() error {
	payload, err := s.Receive()
	if err != nil {
		return err
	}

	var msg wire.ClientMessage
	if err := msg.Decode(payload); err != nil {
		return Recoverable(fmt.Errorf("malformed handshake: %w", err))
	}
	if msg.Code != wire.OpHandshake {
		return Recoverable(fmt.Errorf("expected handshake, got opcode %d", msg.Code))
	}
	if msg.Version != wire.ProtocolVersion {
		w := wire.NewPacketWriter(wire.OpProtocolError)
		wire.NewVersionUnsupported().Encode(w)
		if err := w.SealFrame(); err == nil {
			_ = s.WriteFrame(w.Bytes())
		}
		return Recoverable(fmt.Errorf("unsupported protocol version %d", msg.Version))
	}
	return nil
}

// Receive reads one frame and returns its payload. The returned slice
// aliases an internal buffer valid until the next call. All faults,
// including a malformed length prefix, are recoverable.
func (s *Session) Receive() ([]byte, error) {
	if s.idleTimeout > 0 {
		_ = s.conn.SetReadDeadline(time.Now().Add(s.idleTimeout))
	}

	var lenBuf [wire.FrameLenSize]byte
	if _, err := io.ReadFull(s.conn, lenBuf[:]); err != nil {
		return nil, Recoverable(fmt.Errorf("failed to read frame length: %w", err))
	}

	frameLen := int(binary.LittleEndian.Uint16(lenBuf[:]))
	if frameLen <= wire.FrameLenSize {
		return nil, Recoverable(errors.New("frame length smaller than its own prefix"))
	}

	payload := s.payload[:frameLen-wire.FrameLenSize]
	if _, err := io.ReadFull(s.conn, payload); err != nil {
		return nil, Recoverable(fmt.Errorf("failed to read frame payload: %w", err))
	}
	return payload, nil
}

// WriteFrame sends one sealed frame. The spinlock keeps frames from
// different workers from interleaving on the wire. Returns a recoverable
// fault on any write error.
func (s *Session) WriteFrame(frame []byte) error {
	s.writeLock.Lock()
	defer s.writeLock.Unlock()

	if s.idleTimeout > 0 {
		_ = s.conn.SetWriteDeadline(time.Now().Add(s.idleTimeout))
	}

	if _, err := s.conn.Write(frame); err != nil {
		metrics.IncrCounter("net", "send_errors_total", 1)
		return Recoverable(fmt.Errorf("failed to write frame: %w", err))
	}

	metrics.IncrCounter("net", "frames_written_total", 1)
	return nil
}
