package log

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type captureAppender struct {
	lines []string
}

func (a *captureAppender) Write(p []byte) {
	a.lines = append(a.lines, string(p))
}

func (a *captureAppender) Close() {}

func newTestLogger(t *testing.T, lv Level) (*Logger, *captureAppender) {
	t.Helper()
	l, err := NewLogger(&LogCfg{LogLevel: lv})
	require.NoError(t, err)
	sink := &captureAppender{}
	l.AddAppender(sink)
	return l, sink
}

func TestEventFields(t *testing.T) {
	l, sink := newTestLogger(t, DebugLevel)

	l.Info().Str("name", "alice").Int32("userId", 7).Bool("online", true).
		Err(nil).Msg("user promoted")

	require.Len(t, sink.lines, 1)
	line := sink.lines[0]
	assert.Contains(t, line, `"level":"info"`)
	assert.Contains(t, line, `"name":"alice"`)
	assert.Contains(t, line, `"userId":7`)
	assert.Contains(t, line, `"online":true`)
	assert.Contains(t, line, `"error":null`)
	assert.Contains(t, line, `"msg":"user promoted"`)
	assert.True(t, strings.HasSuffix(line, "}\n"))
}

func TestLevelGating(t *testing.T) {
	l, sink := newTestLogger(t, WarnLevel)

	l.Debug().Msg("dropped")
	l.Info().Msg("dropped")
	l.Warn().Msg("kept")
	l.Error().Msg("kept")

	assert.Len(t, sink.lines, 2)

	l.SetLevel(DebugLevel)
	l.Debug().Msg("kept now")
	assert.Len(t, sink.lines, 3)
}

func TestNilEventIsSafe(t *testing.T) {
	l, sink := newTestLogger(t, ErrorLevel)

	// Filtered events return nil; the whole chain must still be usable.
	l.Info().Str("k", "v").Int("n", 1).Msg("filtered")
	assert.Empty(t, sink.lines)
}

func TestFileAppenderRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "ladderd.log")

	l, err := NewLogger(&LogCfg{
		FileAppender: true,
		LogPath:      path,
		LogLevel:     InfoLevel,
	})
	require.NoError(t, err)

	l.Info().Str("session", "abc").Msg("session starting")
	l.Close()

	content, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(content), "session starting")
	assert.Contains(t, string(content), `"level":"info"`)
}

func TestValidate(t *testing.T) {
	bad := &LogCfg{FileAppender: true} // no LogPath
	assert.Error(t, bad.Validate())

	none := &LogCfg{} // no appender at all
	assert.Error(t, none.Validate())

	named := &LogCfg{ConsoleAppender: true, LogLevelName: "warn"}
	require.NoError(t, named.Validate())
	assert.Equal(t, WarnLevel, named.LogLevel)

	unknown := &LogCfg{ConsoleAppender: true, LogLevelName: "loud"}
	assert.Error(t, unknown.Validate())
}
