package log

import (
	"fmt"
	"os"
	"path/filepath"
	"sync"
)

// Appender writes finished log entries to a destination.
type Appender interface {
	Write(p []byte)
	Close()
}

// ConsoleAppender writes entries to stdout.
type ConsoleAppender struct {
	mu sync.Mutex
}

// NewConsoleAppender creates a stdout appender.
func NewConsoleAppender() *ConsoleAppender {
	return &ConsoleAppender{}
}

// Write emits one entry.
func (a *ConsoleAppender) Write(p []byte) {
	a.mu.Lock()
	_, _ = os.Stdout.Write(p)
	a.mu.Unlock()
}

// Close flushes nothing; stdout is not ours to close.
func (a *ConsoleAppender) Close() {}

// FileAppender writes entries to a log file, rotating when the file
// exceeds the configured size.
type FileAppender struct {
	mu       sync.Mutex
	path     string
	maxBytes int64
	written  int64
	file     *os.File
	rotation int
}

// NewFileAppender creates a file appender for cfg.LogPath.
// Rotation is disabled when cfg.MaxFileSizeMB is zero.
func NewFileAppender(cfg *LogCfg) (*FileAppender, error) {
	if err := os.MkdirAll(filepath.Dir(cfg.LogPath), 0o755); err != nil {
		return nil, fmt.Errorf("failed to create log directory: %w", err)
	}
	f, err := os.OpenFile(cfg.LogPath, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		return nil, fmt.Errorf("failed to open log file %s: %w", cfg.LogPath, err)
	}
	st, err := f.Stat()
	if err != nil {
		_ = f.Close()
		return nil, err
	}
	return &FileAppender{
		path:     cfg.LogPath,
		maxBytes: int64(cfg.MaxFileSizeMB) * 1024 * 1024,
		written:  st.Size(),
		file:     f,
	}, nil
}

// Write emits one entry, rotating first if the size cap is reached.
func (a *FileAppender) Write(p []byte) {
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.maxBytes > 0 && a.written+int64(len(p)) > a.maxBytes {
		a.rotate()
	}
	n, _ := a.file.Write(p)
	a.written += int64(n)
}

func (a *FileAppender) rotate() {
	_ = a.file.Close()
	a.rotation++
	_ = os.Rename(a.path, fmt.Sprintf("%s.%d", a.path, a.rotation))
	f, err := os.OpenFile(a.path, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0o644)
	if err != nil {
		// Fall back to stderr rather than dropping entries silently.
		a.file = os.Stderr
		return
	}
	a.file = f
	a.written = 0
}

// Close closes the underlying file.
func (a *FileAppender) Close() {
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.file != nil && a.file != os.Stderr {
		_ = a.file.Close()
	}
}
