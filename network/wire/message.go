package wire

import "fmt"

// UnknownOpcodeError reports a client opcode this protocol revision does
// not define. It is fatal to the session.
type UnknownOpcodeError struct {
	Code Opcode
}

func (e *UnknownOpcodeError) Error() string {
	return fmt.Sprintf("wire: unknown client opcode %d", e.Code)
}

// ClientMessage is a decoded client-to-service message. One instance is
// reused for every frame of a session so the ingest loop does not allocate
// per message. Which fields are meaningful depends on Code:
//
//	OpHandshake          Version
//	OpUserRegistered     UserID, Name
//	OpUserRenamed        UserID, Name
//	OpUserDealWon        UserID, Amount
//	OpUserConnected      UserID
//	OpUserDisconnected   UserID
type ClientMessage struct {
	Code    Opcode
	UserID  int32
	Name    string
	Amount  int64
	Version uint32
}

// Decode parses one frame payload into m. The payload starts at the
// opcode byte; the frame length prefix has already been consumed.
func (m *ClientMessage) Decode(payload []byte) error {
	r := NewReader(payload)
	m.Code = Opcode(r.U8())

	switch m.Code {
	case OpHandshake:
		m.Version = r.U32()
	case OpUserRegistered, OpUserRenamed:
		m.UserID = r.I32()
		m.Name = r.String()
	case OpUserDealWon:
		m.UserID = r.I32()
		m.Amount = r.I64()
		// Clients may append a deal timestamp; it is deliberately unused.
		// Deals are bucketed by arrival time on this side.
		if r.Remaining() >= 8 {
			r.Skip(8)
		}
	case OpUserConnected, OpUserDisconnected:
		m.UserID = r.I32()
	default:
		if err := r.Err(); err != nil {
			return err
		}
		return &UnknownOpcodeError{Code: m.Code}
	}
	return r.Err()
}

// Encode appends m to w as opcode plus body. Used by test clients and the
// loopback integration harness.
func (m *ClientMessage) Encode(w *Writer) {
	w.PutU8(uint8(m.Code))
	switch m.Code {
	case OpHandshake:
		w.PutU32(m.Version)
	case OpUserRegistered, OpUserRenamed:
		w.PutI32(m.UserID)
		w.PutString(m.Name)
	case OpUserDealWon:
		w.PutI32(m.UserID)
		w.PutI64(m.Amount)
	case OpUserConnected, OpUserDisconnected:
		w.PutI32(m.UserID)
	}
}
