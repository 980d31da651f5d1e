package log

import (
	"bytes"
	"strconv"
	"time"
)

// Event is a single structured log entry being assembled. Fields are
// appended with the fluent methods and the entry is emitted by Msg or End.
// A nil Event is safe to use; every method is a no-op on it.
type Event struct {
	buf    *bytes.Buffer
	logger *Logger
	level  Level
}

func newEvent(l *Logger) *Event {
	e := &Event{logger: l, buf: &bytes.Buffer{}}
	e.buf.Grow(512)
	return e
}

func (e *Event) reset() {
	e.buf.Reset()
	e.level = DebugLevel
	e.buf.WriteByte('{')
}

func (e *Event) key(k string) {
	if e.buf.Len() > 1 {
		e.buf.WriteByte(',')
	}
	e.buf.WriteByte('"')
	e.buf.WriteString(k)
	e.buf.WriteString(`":`)
}

func (e *Event) str(s string) {
	e.buf.WriteString(strconv.Quote(s))
}

// Str appends a string field.
func (e *Event) Str(k, v string) *Event {
	if e == nil {
		return nil
	}
	e.key(k)
	e.str(v)
	return e
}

// Int appends an int field.
func (e *Event) Int(k string, v int) *Event {
	return e.Int64(k, int64(v))
}

// Int32 appends an int32 field.
func (e *Event) Int32(k string, v int32) *Event {
	return e.Int64(k, int64(v))
}

// Int64 appends an int64 field.
func (e *Event) Int64(k string, v int64) *Event {
	if e == nil {
		return nil
	}
	e.key(k)
	e.buf.WriteString(strconv.FormatInt(v, 10))
	return e
}

// Uint8 appends a uint8 field.
func (e *Event) Uint8(k string, v uint8) *Event {
	return e.Uint64(k, uint64(v))
}

// Uint16 appends a uint16 field.
func (e *Event) Uint16(k string, v uint16) *Event {
	return e.Uint64(k, uint64(v))
}

// Uint32 appends a uint32 field.
func (e *Event) Uint32(k string, v uint32) *Event {
	return e.Uint64(k, uint64(v))
}

// Uint64 appends a uint64 field.
func (e *Event) Uint64(k string, v uint64) *Event {
	if e == nil {
		return nil
	}
	e.key(k)
	e.buf.WriteString(strconv.FormatUint(v, 10))
	return e
}

// Bool appends a bool field.
func (e *Event) Bool(k string, v bool) *Event {
	if e == nil {
		return nil
	}
	e.key(k)
	e.buf.WriteString(strconv.FormatBool(v))
	return e
}

// Dur appends a duration field rendered in milliseconds.
func (e *Event) Dur(k string, v time.Duration) *Event {
	if e == nil {
		return nil
	}
	e.key(k)
	e.buf.WriteString(strconv.FormatFloat(float64(v)/float64(time.Millisecond), 'f', 3, 64))
	return e
}

// Err appends the error message under the "error" key; nil logs null.
func (e *Event) Err(v error) *Event {
	if e == nil {
		return nil
	}
	e.key("error")
	if v == nil {
		e.buf.WriteString("null")
	} else {
		e.str(v.Error())
	}
	return e
}

// Msg sets the final message and emits the entry.
func (e *Event) Msg(v string) {
	if e == nil {
		return
	}
	e.Str("msg", v)
	e.End()
}

// End emits the entry without a message field.
func (e *Event) End() {
	if e == nil {
		return
	}
	e.buf.WriteString("}\n")
	e.logger.onEventEnd(e)
}
