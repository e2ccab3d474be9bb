// Package streamio provides a resilient message read/write layer on top of
// an established encrypted stream connection, such as a *tls.Conn after its
// handshake has completed. It drains inbound messages of unknown total
// length, detecting end of message by the absence of further readable data
// rather than by a length header, and performs best-effort bounded writes.
// The payload bytes are delivered as-is; framing and parsing belong to the
// application.
package streamio

import (
	"context"
	"errors"
	"io"
	"net"
	"sync/atomic"
	"time"

	"golang.org/x/sync/errgroup"
)

// Errors returned by connection setup and Run.
var (
	// ErrInvalidStream is returned when no stream is provided.
	ErrInvalidStream = errors.New("invalid stream")
	// ErrInvalidOnMessage is returned by Run when no message handler is set.
	ErrInvalidOnMessage = errors.New("invalid on message callback")
)

// Stream is an established, already-secured bidirectional byte stream.
// *crypto/tls.Conn and *net.TCPConn satisfy it. This package never dials,
// performs handshakes, or negotiates ciphers; it only reads and writes.
type Stream interface {
	io.Reader
	io.Writer
}

// deadlineStream is the optional capability used to bound each read or
// write attempt. Streams without it (in-memory pipes, test doubles) must
// return ErrWouldBlock themselves when no data is ready, or reads block.
type deadlineStream interface {
	SetReadDeadline(t time.Time) error
	SetWriteDeadline(t time.Time) error
}

// Conn wraps a Stream with message-level read and write operations and an
// optional Run loop for asynchronous communication. A Conn supports one
// in-flight ReadMessage and one in-flight WriteMessage at a time; Run
// imposes exactly that discipline with its two loops.
type Conn struct {
	stream    Stream
	deadlines deadlineStream // nil when the stream has no deadline support
	logger    Logger

	opts options

	sendMsg chan []byte
	closed  atomic.Bool
	cancel  atomic.Pointer[context.CancelFunc]
}

// Default configuration values. The read-loop constants mirror the timing
// of the TLS frame cadence this layer was tuned against: a 160 byte read
// chunk, 10ms between retries, ten retry rounds before the first byte and
// three idle rounds after the last one.
const (
	// defaultInitialBufferSize is the starting capacity of a message buffer.
	defaultInitialBufferSize = 1024
	// defaultChunkSize is the size of one bounded read attempt.
	defaultChunkSize = 160
	// defaultMaxMessageSize is the growth cap for a single message (1MB).
	defaultMaxMessageSize = 1024 * 1024
	// defaultRetryInterval is the sleep between retried read attempts.
	defaultRetryInterval = 10 * time.Millisecond
	// defaultFirstByteRetries is the wait budget before any byte arrives.
	defaultFirstByteRetries = 10
	// defaultIdleReadLimit is how many consecutive empty attempts after a
	// successful read mean the message is complete.
	defaultIdleReadLimit = 3
	// defaultSendQueueSize is the default size of the outbound queue.
	defaultSendQueueSize = 1
	// defaultWriteDeadline bounds one write attempt.
	defaultWriteDeadline = 30 * time.Second
)

// NewConn creates a connection wrapper around an established stream.
// It applies the provided options and validates them before returning.
func NewConn(stream Stream, opt ...Option) (*Conn, error) {
	if stream == nil {
		return nil, ErrInvalidStream
	}

	var opts options
	for _, o := range opt {
		o(&opts)
	}

	checkOptions(&opts)

	c := &Conn{
		stream:  stream,
		logger:  opts.logger,
		opts:    opts,
		sendMsg: make(chan []byte, opts.sendQueueSize),
	}
	c.deadlines, _ = stream.(deadlineStream)

	return c, nil
}

// checkOptions fills in default values for unset connection options.
func checkOptions(opts *options) {
	if opts.initialBufferSize <= 0 {
		opts.initialBufferSize = defaultInitialBufferSize
	}

	if opts.chunkSize <= 0 {
		opts.chunkSize = defaultChunkSize
	}

	if opts.maxMessageSize <= 0 {
		opts.maxMessageSize = defaultMaxMessageSize
	}

	if opts.retryInterval <= 0 {
		opts.retryInterval = defaultRetryInterval
	}

	if opts.pollTimeout <= 0 {
		opts.pollTimeout = opts.retryInterval
	}

	if opts.firstByteRetries <= 0 {
		opts.firstByteRetries = defaultFirstByteRetries
	}

	if opts.idleReadLimit <= 0 {
		opts.idleReadLimit = defaultIdleReadLimit
	}

	if opts.sendQueueSize <= 0 {
		opts.sendQueueSize = defaultSendQueueSize
	}

	if opts.writeDeadline <= 0 {
		opts.writeDeadline = defaultWriteDeadline
	}

	if opts.onError == nil {
		opts.onError = func(err error) ErrorAction { return Disconnect }
	}

	if opts.sleeper == nil {
		opts.sleeper = defaultSleeper()
	}

	if opts.logger == nil {
		opts.logger = defaultLogger()
	}
}

// Run starts the connection's read and write loops. It creates two
// goroutines for concurrent reading and writing and blocks until an error
// occurs or the context is canceled. The connection is closed when Run
// returns. Requires OnMessageOption.
func (c *Conn) Run(ctx context.Context) error {
	if c.opts.onMessage == nil {
		return ErrInvalidOnMessage
	}

	c.logger.Info("connection loop started", "addr", c.Addr())
	c.logger.Debug("connection options",
		"chunk_size", c.opts.chunkSize,
		"retry_interval", c.opts.retryInterval,
		"first_byte_retries", c.opts.firstByteRetries,
		"idle_read_limit", c.opts.idleReadLimit)

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()
	c.cancel.Store(&cancel)

	group, child := errgroup.WithContext(ctx)

	group.Go(func() error {
		return c.readLoop(child)
	})

	group.Go(func() error {
		return c.writeLoop(child)
	})

	err := group.Wait()
	c.closeConn()

	if err != nil && !errors.Is(err, context.Canceled) {
		c.logger.Info("connection closed with error", "addr", c.Addr(), "error", err)
	} else {
		c.logger.Info("connection closed", "addr", c.Addr())
	}

	return err
}

// Close gracefully closes the connection. Safe to call multiple times.
// The underlying stream is closed only if it implements io.Closer.
func (c *Conn) Close() error {
	if c.closed.Swap(true) {
		return nil // already closed
	}
	if cancel := c.cancel.Load(); cancel != nil {
		(*cancel)()
	}
	if closer, ok := c.stream.(io.Closer); ok {
		return closer.Close()
	}
	return nil
}

// IsClosed returns true if the connection has been closed.
func (c *Conn) IsClosed() bool {
	return c.closed.Load()
}

// ErrBufferFull is returned when the send queue is full and cannot accept
// more messages. This indicates backpressure: the write loop is not
// draining the queue fast enough. Drop the message, or use WriteBlocking
// or WriteTimeout to wait for space.
var ErrBufferFull = errors.New("send buffer full")

// Write queues a payload for sending without blocking (fire-and-forget).
//
// Returns:
//   - nil: payload was queued (not yet written to the stream)
//   - ErrBufferFull: queue is full, payload was NOT queued
//   - ErrConnectionClosed: connection is closed
//
// For guaranteed queueing, use WriteBlocking or WriteTimeout instead.
func (c *Conn) Write(payload []byte) error {
	if c.closed.Load() {
		return ErrConnectionClosed
	}

	select {
	case c.sendMsg <- payload:
		return nil
	default:
		return ErrBufferFull
	}
}

// WriteBlocking queues a payload, blocking until there is room in the send
// queue or the context is canceled.
func (c *Conn) WriteBlocking(ctx context.Context, payload []byte) error {
	if c.closed.Load() {
		return ErrConnectionClosed
	}

	select {
	case c.sendMsg <- payload:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// WriteTimeout queues a payload, waiting up to timeout for room in the
// send queue. Returns ErrBufferFull if the timeout expires first.
func (c *Conn) WriteTimeout(payload []byte, timeout time.Duration) error {
	if c.closed.Load() {
		return ErrConnectionClosed
	}

	select {
	case c.sendMsg <- payload:
		return nil
	case <-time.After(timeout):
		return ErrBufferFull
	}
}

// Addr returns the remote address of the connection, or nil when the
// stream does not expose one.
func (c *Conn) Addr() net.Addr {
	if ra, ok := c.stream.(interface{ RemoteAddr() net.Addr }); ok {
		return ra.RemoteAddr()
	}
	return nil
}

// readLoop drains messages from the stream and hands them to the message
// handler. An empty message without a connection end means the peer was
// silent for the whole first-byte budget; the loop just polls again.
// Bytes accumulated before a mid-message fault are handed to the message
// handler as well, before the error callback decides the connection's fate.
func (c *Conn) readLoop(ctx context.Context) error {
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		default:
			message, err := c.ReadMessage()
			if err != nil {
				c.logger.Debug("read error", "addr", c.Addr(), "error", err)
				if message.Length() > 0 {
					if err := c.opts.onMessage(message); err != nil {
						return err
					}
				}
				if c.opts.onError(err) == Disconnect {
					return err
				}
				continue
			}

			if message.ConnectionEnded() {
				return ErrConnectionClosed
			}

			if message.Length() == 0 {
				continue
			}

			if err = c.opts.onMessage(message); err != nil {
				return err
			}
		}
	}
}

// writeLoop drains the send queue into the stream.
// Returns when the context is canceled or an unrecoverable error occurs.
func (c *Conn) writeLoop(ctx context.Context) error {
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case data := <-c.sendMsg:
			if _, err := c.WriteMessage(data); err != nil {
				c.logger.Debug("write error", "addr", c.Addr(), "error", err)
				if c.opts.onError(err) == Disconnect {
					return err
				}
			}
		}
	}
}

// closeConn marks the connection as closed and closes the stream if it
// supports closing.
func (c *Conn) closeConn() {
	c.closed.Store(true)
	if closer, ok := c.stream.(io.Closer); ok {
		closer.Close()
	}
}
