// Package wire implements the binary protocol spoken between the ranking
// service and its client. Every message travels in a little-endian
// length-prefixed frame: a uint16 frame length (which counts itself)
// followed by frameLength-2 bytes of payload. Multi-byte integers are
// little-endian; strings carry a single length byte (0..255) before their
// raw bytes.
package wire

// ProtocolVersion is the only protocol revision this service speaks.
const ProtocolVersion uint32 = 1

// InvalidUserID is the sentinel id used in placeholder headers.
const InvalidUserID int32 = -1

// FrameLenSize is the size of the frame length prefix in bytes.
const FrameLenSize = 2

// MaxFrameSize bounds a whole frame, prefix included.
const MaxFrameSize = 1<<16 - 1

// MaxNameLen bounds a user name on the wire.
const MaxNameLen = 255

// Opcode identifies a message within a frame payload.
type Opcode uint8

// Client-to-service opcodes.
const (
	OpUserRegistered   Opcode = 1
	OpUserRenamed      Opcode = 2
	OpUserDealWon      Opcode = 3
	OpUserConnected    Opcode = 4
	OpUserDisconnected Opcode = 5
	OpHandshake        Opcode = 111
)

// String names the client opcode, for logs and metric labels. Service
// opcodes share the low numbers and are not covered.
func (o Opcode) String() string {
	switch o {
	case OpUserRegistered:
		return "user_registered"
	case OpUserRenamed:
		return "user_renamed"
	case OpUserDealWon:
		return "user_deal_won"
	case OpUserConnected:
		return "user_connected"
	case OpUserDisconnected:
		return "user_disconnected"
	case OpHandshake:
		return "handshake"
	}
	return "unknown"
}

// Service-to-client opcodes.
const (
	OpProtocolError Opcode = 1
	OpUserRating    Opcode = 2
)

// Rating window dimensions: the leaderboard head always sent, and how many
// neighbours around the subject's position are included.
const (
	TopPositions        = 10
	CompetitionDistance = 10
)
