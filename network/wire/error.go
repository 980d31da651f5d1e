package wire

import "fmt"

// ErrorCode identifies a protocol error sent back to the client.
type ErrorCode uint32

const (
	ErrCodeVersionUnsupported   ErrorCode = 1
	ErrCodeUserUnrecognized     ErrorCode = 2
	ErrCodeMultipleRegistration ErrorCode = 3
)

// ProtoError is a protocol-level error reported to the client inside an
// OpProtocolError packet. It is a tagged value: Code selects which of the
// remaining fields matter.
type ProtoError struct {
	Code     ErrorCode
	UserID   int32  // ErrCodeUserUnrecognized, ErrCodeMultipleRegistration
	Expected uint32 // ErrCodeVersionUnsupported
}

// NewVersionUnsupported reports a handshake with the wrong protocol
// version, carrying the version this service expects.
func NewVersionUnsupported() ProtoError {
	return ProtoError{Code: ErrCodeVersionUnsupported, Expected: ProtocolVersion}
}

// NewUserUnrecognized reports an operation referencing an unknown user id.
func NewUserUnrecognized(id int32) ProtoError {
	return ProtoError{Code: ErrCodeUserUnrecognized, UserID: id}
}

// NewMultipleRegistration reports a registration of an id already known.
func NewMultipleRegistration(id int32) ProtoError {
	return ProtoError{Code: ErrCodeMultipleRegistration, UserID: id}
}

// Encode appends the error code and body to w. The OpProtocolError opcode
// is already part of the packet prefix.
func (e ProtoError) Encode(w *Writer) {
	w.PutU32(uint32(e.Code))
	switch e.Code {
	case ErrCodeVersionUnsupported:
		w.PutU32(e.Expected)
	case ErrCodeUserUnrecognized, ErrCodeMultipleRegistration:
		w.PutI32(e.UserID)
	}
}

// DecodeProtoError parses an OpProtocolError payload (after the opcode).
func DecodeProtoError(r *Reader) (ProtoError, error) {
	var e ProtoError
	e.Code = ErrorCode(r.U32())
	switch e.Code {
	case ErrCodeVersionUnsupported:
		e.Expected = r.U32()
	case ErrCodeUserUnrecognized, ErrCodeMultipleRegistration:
		e.UserID = r.I32()
	default:
		if err := r.Err(); err != nil {
			return e, err
		}
		return e, fmt.Errorf("wire: unknown protocol error code %d", e.Code)
	}
	return e, r.Err()
}
