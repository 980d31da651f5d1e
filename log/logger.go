// Package log provides a structured, level-gated fluent logger.
// Entries are rendered as single-line JSON and fanned out to the
// configured appenders:
//
//	log.Info().Int32("userId", 7).Msg("user promoted")
package log

import (
	"fmt"
	"runtime"
	"strconv"
	"strings"
	"sync"
	"sync/atomic"
	"time"
)

// Logger routes events above its minimum level to its appenders.
// Events are pooled to keep the hot logging path allocation-free.
type Logger struct {
	appenders         []Appender
	minLevel          atomic.Uint32
	eventPool         sync.Pool
	enabledCallerInfo bool
	callerSkip        int
}

// NewLogger creates a Logger for cfg. A nil cfg selects the defaults
// (console appender, info level).
func NewLogger(cfg *LogCfg) (*Logger, error) {
	if cfg == nil {
		cfg = getDefaultCfg()
	}
	l := &Logger{
		enabledCallerInfo: cfg.EnabledCallerInfo,
		callerSkip:        cfg.CallerSkip,
	}
	l.minLevel.Store(uint32(cfg.LogLevel))
	l.eventPool.New = func() any { return newEvent(l) }

	if cfg.FileAppender {
		fa, err := NewFileAppender(cfg)
		if err != nil {
			return nil, err
		}
		l.appenders = append(l.appenders, fa)
	}
	if cfg.ConsoleAppender {
		l.appenders = append(l.appenders, NewConsoleAppender())
	}
	return l, nil
}

// SetLevel changes the minimum level at runtime.
func (l *Logger) SetLevel(lv Level) {
	l.minLevel.Store(uint32(lv))
}

// AddAppender registers an additional appender. Not safe to call
// concurrently with logging; intended for initialization.
func (l *Logger) AddAppender(a Appender) {
	l.appenders = append(l.appenders, a)
}

// Close closes all appenders.
func (l *Logger) Close() {
	for _, a := range l.appenders {
		a.Close()
	}
}

// Debug starts a debug-level event, or returns nil if filtered.
func (l *Logger) Debug() *Event { return l.log(DebugLevel) }

// Info starts an info-level event, or returns nil if filtered.
func (l *Logger) Info() *Event { return l.log(InfoLevel) }

// Warn starts a warn-level event, or returns nil if filtered.
func (l *Logger) Warn() *Event { return l.log(WarnLevel) }

// Error starts an error-level event, or returns nil if filtered.
func (l *Logger) Error() *Event { return l.log(ErrorLevel) }

// Fatal starts a fatal-level event; the emitting call panics after output.
func (l *Logger) Fatal() *Event { return l.log(FatalLevel) }

func (l *Logger) log(lv Level) *Event {
	if uint32(lv) < l.minLevel.Load() {
		return nil
	}
	e := l.eventPool.Get().(*Event)
	e.reset()
	e.level = lv

	now := time.Now()
	e.Str("time", now.Format("2006-01-02 15:04:05.000"))
	e.Str("level", lv.String())
	if l.enabledCallerInfo {
		e.Str("caller", caller(3+l.callerSkip))
	}
	return e
}

func (l *Logger) onEventEnd(e *Event) {
	for _, a := range l.appenders {
		a.Write(e.buf.Bytes())
	}
	fatal := e.level == FatalLevel
	l.eventPool.Put(e)
	if fatal {
		panic("fatal log event")
	}
}

// caller resolves the file:line of the logging call site, trimmed to the
// last two path elements.
func caller(skip int) string {
	_, file, line, ok := runtime.Caller(skip)
	if !ok {
		return "unknown"
	}
	if i := strings.LastIndexByte(file, '/'); i > 0 {
		if j := strings.LastIndexByte(file[:i], '/'); j >= 0 {
			file = file[j+1:]
		}
	}
	return file + ":" + strconv.Itoa(line)
}

var _defaultLogger atomic.Pointer[Logger]

func init() {
	l, err := NewLogger(nil)
	if err != nil {
		panic(fmt.Sprintf("default logger: %v", err))
	}
	_defaultLogger.Store(l)
}

// Initialize configures the package-level default logger.
// It should be called once at application startup.
func Initialize(cfg *LogCfg) error {
	if cfg == nil {
		cfg = getDefaultCfg()
	}
	if err := cfg.Validate(); err != nil {
		return err
	}
	l, err := NewLogger(cfg)
	if err != nil {
		return err
	}
	_defaultLogger.Store(l)
	return nil
}

// SetDefaultLogger replaces the default logger with a custom instance.
func SetDefaultLogger(l *Logger) {
	_defaultLogger.Store(l)
}

// Close closes the default logger's appenders.
func Close() {
	_defaultLogger.Load().Close()
}

// Debug starts a debug-level event on the default logger.
func Debug() *Event { return _defaultLogger.Load().log(DebugLevel) }

// Info starts an info-level event on the default logger.
func Info() *Event { return _defaultLogger.Load().log(InfoLevel) }

// Warn starts a warn-level event on the default logger.
func Warn() *Event { return _defaultLogger.Load().log(WarnLevel) }

// Error starts an error-level event on the default logger.
func Error() *Event { return _defaultLogger.Load().log(ErrorLevel) }

// Fatal starts a fatal-level event on the default logger.
func Fatal() *Event { return _defaultLogger.Load().log(FatalLevel) }
