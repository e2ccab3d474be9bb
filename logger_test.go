package streamio

import (
	"log/slog"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestLogger_SlogSatisfiesInterface(t *testing.T) {
	var _ Logger = slog.Default()
}

func TestDefaultLogger(t *testing.T) {
	logger := defaultLogger()
	require.NotNil(t, logger)
	require.Equal(t, slog.Default(), logger)
}

// capturingLogger records calls for loop tests that assert on logging.
type capturingLogger struct {
	msgs []string
}

func (l *capturingLogger) record(msg string) { l.msgs = append(l.msgs, msg) }

func (l *capturingLogger) Debug(msg string, args ...any) { l.record(msg) }
func (l *capturingLogger) Info(msg string, args ...any)  { l.record(msg) }
func (l *capturingLogger) Warn(msg string, args ...any)  { l.record(msg) }
func (l *capturingLogger) Error(msg string, args ...any) { l.record(msg) }

func TestLogger_Injectable(t *testing.T) {
	logger := &capturingLogger{}
	conn, err := NewConn(&scriptedStream{}, LoggerOption(logger))
	require.NoError(t, err)

	_, err = conn.ReadMessage()
	require.NoError(t, err)
	require.Contains(t, logger.msgs, "message drained")
}
