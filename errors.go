package streamio

import (
	"crypto/tls"
	"errors"
	"io"
	"net"
	"os"
	"syscall"
)

// Errors returned by stream operations.
var (
	// ErrConnectionClosed is returned when operating on a closed connection.
	ErrConnectionClosed = errors.New("connection closed")
	// ErrMessageTooLarge is returned when an accumulated message would exceed
	// the maximum allowed size. The bytes received so far are preserved.
	ErrMessageTooLarge = errors.New("message too large")
)

// Sentinel readiness errors. Stream implementations that are not backed by a
// deadline-capable net.Conn can return these to signal that an operation
// cannot make progress right now without the connection being broken.
var (
	// ErrWouldBlock means the stream has no data ready to read, but the
	// connection is still alive. Deadline misses classify the same way.
	ErrWouldBlock = errors.New("stream would block on read")
	// ErrWouldBlockWrite means the stream cannot accept a write right now.
	ErrWouldBlockWrite = errors.New("stream would block on write")
)

// Code is the closed classification of stream-level read/write errors.
// Every error observed on a stream maps to exactly one Code; codes newly
// introduced by a stream implementation land in CodeUnclassified until they
// are consciously triaged into one of the named variants.
type Code int

const (
	// CodeNone means the operation succeeded.
	CodeNone Code = iota
	// CodeClosed means the peer ended the readable side of the stream.
	CodeClosed
	// CodeWantRead means the connection is open but no data is available yet.
	CodeWantRead
	// CodeWantWrite means the stream needs a write to proceed; during a read
	// this is unrecoverable at this layer.
	CodeWantWrite
	// CodeTransport is a socket-level fault (reset, broken pipe, use of a
	// closed connection).
	CodeTransport
	// CodeProtocol is a fault in the security/record layer itself.
	CodeProtocol
	// CodeUnclassified is any error not covered above; the read loop treats
	// it permissively and retries.
	CodeUnclassified
)

func (c Code) String() string {
	switch c {
	case CodeNone:
		return "none"
	case CodeClosed:
		return "closed"
	case CodeWantRead:
		return "want read"
	case CodeWantWrite:
		return "want write"
	case CodeTransport:
		return "transport fault"
	case CodeProtocol:
		return "protocol fault"
	default:
		return "unclassified"
	}
}

// classify maps an error returned by a stream operation to its Code.
// Classification depends solely on the error value; a zero-byte read with a
// nil error is handled by the read loop itself (it counts as peer close).
func classify(err error) Code {
	if err == nil {
		return CodeNone
	}

	switch {
	case errors.Is(err, io.EOF):
		return CodeClosed
	case errors.Is(err, ErrWouldBlock):
		return CodeWantRead
	case errors.Is(err, ErrWouldBlockWrite):
		return CodeWantWrite
	case errors.Is(err, os.ErrDeadlineExceeded):
		return CodeWantRead
	}

	// Errnos must bind before the generic timeout check: syscall.Errno
	// implements net.Error and reports Timeout() true for ETIMEDOUT, which
	// is a dead connection here, not a poll expiry. Only the would-block
	// errnos mean "no data yet".
	var errno syscall.Errno
	if errors.As(err, &errno) {
		if errno == syscall.EAGAIN || errno == syscall.EWOULDBLOCK {
			return CodeWantRead
		}
		return CodeTransport
	}

	// Deadline-capable streams report poll expiry as a net timeout.
	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		return CodeWantRead
	}

	var recordErr tls.RecordHeaderError
	if errors.As(err, &recordErr) {
		return CodeProtocol
	}
	var alertErr tls.AlertError
	if errors.As(err, &alertErr) {
		return CodeProtocol
	}

	switch {
	case errors.Is(err, net.ErrClosed):
		return CodeTransport
	case errors.Is(err, io.ErrUnexpectedEOF):
		return CodeTransport
	}
	var opErr *net.OpError
	if errors.As(err, &opErr) {
		return CodeTransport
	}

	return CodeUnclassified
}
