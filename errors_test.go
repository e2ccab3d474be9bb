package streamio

import (
	"crypto/tls"
	"errors"
	"fmt"
	"io"
	"net"
	"os"
	"syscall"
	"testing"

	pkgerrors "github.com/pkg/errors"
	"github.com/stretchr/testify/require"
)

// timeoutError mimics what a deadline-capable stream reports on poll expiry.
type timeoutError struct{}

func (timeoutError) Error() string   { return "i/o timeout" }
func (timeoutError) Timeout() bool   { return true }
func (timeoutError) Temporary() bool { return true }

func TestClassify(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want Code
	}{
		{"nil", nil, CodeNone},
		{"eof", io.EOF, CodeClosed},
		{"wrapped eof", fmt.Errorf("read: %w", io.EOF), CodeClosed},
		{"would block sentinel", ErrWouldBlock, CodeWantRead},
		{"wrapped would block", pkgerrors.Wrap(ErrWouldBlock, "attempt 2"), CodeWantRead},
		{"deadline exceeded", os.ErrDeadlineExceeded, CodeWantRead},
		{"net timeout", timeoutError{}, CodeWantRead},
		{"op error wrapping timeout", &net.OpError{Op: "read", Err: os.ErrDeadlineExceeded}, CodeWantRead},
		{"would block write", ErrWouldBlockWrite, CodeWantWrite},
		{"tls record header", tls.RecordHeaderError{Msg: "bad record"}, CodeProtocol},
		{"tls alert", tls.AlertError(80), CodeProtocol},
		{"errno", syscall.ECONNRESET, CodeTransport},
		{"errno timeout", syscall.ETIMEDOUT, CodeTransport},
		{"op error wrapping errno timeout", &net.OpError{Op: "read", Err: syscall.ETIMEDOUT}, CodeTransport},
		{"would-block errno", syscall.EAGAIN, CodeWantRead},
		{"op error wrapping would-block errno", &net.OpError{Op: "read", Err: syscall.EAGAIN}, CodeWantRead},
		{"op error wrapping errno", &net.OpError{Op: "read", Err: syscall.EPIPE}, CodeTransport},
		{"net closed", net.ErrClosed, CodeTransport},
		{"unexpected eof", io.ErrUnexpectedEOF, CodeTransport},
		{"op error other", &net.OpError{Op: "read", Err: errors.New("dns weirdness")}, CodeTransport},
		{"unclassified", errors.New("novel condition"), CodeUnclassified},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			require.Equal(t, tt.want, classify(tt.err))
		})
	}
}

func TestCodeString(t *testing.T) {
	tests := []struct {
		code Code
		want string
	}{
		{CodeNone, "none"},
		{CodeClosed, "closed"},
		{CodeWantRead, "want read"},
		{CodeWantWrite, "want write"},
		{CodeTransport, "transport fault"},
		{CodeProtocol, "protocol fault"},
		{CodeUnclassified, "unclassified"},
		{Code(99), "unclassified"},
	}

	for _, tt := range tests {
		require.Equal(t, tt.want, tt.code.String())
	}
}
