package streamio

import (
	"time"
)

// ErrorAction defines the action Conn.Run takes when an error occurs.
type ErrorAction int

const (
	// Disconnect closes the connection when an error occurs.
	Disconnect ErrorAction = iota
	// Continue suppresses the error and keeps the loop running.
	Continue
)

// options holds the configuration for a connection.
type options struct {
	logger  Logger
	sleeper Sleeper

	onMessage func(message Message) error
	// onError is called when a read or write error occurs inside Run.
	// Returns Disconnect to close the connection, Continue to suppress it.
	onError func(error) ErrorAction

	initialBufferSize int           // starting capacity of a message buffer
	chunkSize         int           // bytes requested per read attempt
	maxMessageSize    int           // growth cap for a single message
	retryInterval     time.Duration // sleep between retried read attempts
	pollTimeout       time.Duration // read deadline per attempt
	writeDeadline     time.Duration // deadline for one write attempt
	firstByteRetries  int           // wait budget before any byte arrives
	idleReadLimit     int           // consecutive want-reads meaning end of message
	sendQueueSize     int           // size of the outbound message channel
}

// Option is a function that configures connection options.
type Option func(*options)

// InitialBufferSizeOption sets the starting capacity of the buffer a message
// is accumulated into. Larger messages grow it by doubling.
func InitialBufferSizeOption(size int) Option {
	return func(o *options) {
		o.initialBufferSize = size
	}
}

// ChunkSizeOption sets how many bytes each read attempt asks the stream for.
// Message boundaries are not chunk-aligned; this only bounds one attempt.
func ChunkSizeOption(size int) Option {
	return func(o *options) {
		o.chunkSize = size
	}
}

// MessageMaxSize sets the maximum size a single message may grow to.
// A message exceeding it fails with ErrMessageTooLarge; bytes received up
// to that point are still returned.
func MessageMaxSize(size int) Option {
	return func(o *options) {
		o.maxMessageSize = size
	}
}

// RetryIntervalOption sets the sleep between retried read attempts, both
// while waiting for the first byte and while probing for end of message.
func RetryIntervalOption(d time.Duration) Option {
	return func(o *options) {
		o.retryInterval = d
	}
}

// PollTimeoutOption sets the per-attempt read deadline applied to streams
// that support deadlines. An attempt that misses it counts as "no data yet".
func PollTimeoutOption(d time.Duration) Option {
	return func(o *options) {
		o.pollTimeout = d
	}
}

// WriteDeadlineOption sets the deadline applied to one WriteMessage attempt
// on streams that support deadlines.
func WriteDeadlineOption(d time.Duration) Option {
	return func(o *options) {
		o.writeDeadline = d
	}
}

// FirstByteRetriesOption sets how many wait rounds ReadMessage spends on a
// stream that has produced no data at all before giving up with an empty
// message.
func FirstByteRetriesOption(n int) Option {
	return func(o *options) {
		o.firstByteRetries = n
	}
}

// IdleReadLimitOption sets how many consecutive "no data yet" signals after
// a successful read mean the message is complete.
func IdleReadLimitOption(n int) Option {
	return func(o *options) {
		o.idleReadLimit = n
	}
}

// SendQueueSizeOption sets the size of the outbound queue used by Write,
// WriteBlocking and WriteTimeout. A larger queue absorbs more backpressure
// before Write starts failing with ErrBufferFull.
func SendQueueSizeOption(size int) Option {
	return func(o *options) {
		o.sendQueueSize = size
	}
}

// SleeperOption sets the wait primitive used between read attempts.
// The default blocks with time.Sleep.
func SleeperOption(sleeper Sleeper) Option {
	return func(o *options) {
		o.sleeper = sleeper
	}
}

// OnErrorOption sets the error callback consulted by Conn.Run.
// Return Disconnect to close the connection, or Continue to suppress the
// error and keep reading.
func OnErrorOption(cb func(error) ErrorAction) Option {
	return func(o *options) {
		o.onError = cb
	}
}

// OnMessageOption sets the message handler invoked by Conn.Run for each
// complete inbound message, and for the partial payload accumulated before
// a mid-message fault. Required before calling Run; direct
// ReadMessage/WriteMessage use does not need it.
func OnMessageOption(cb func(Message) error) Option {
	return func(o *options) {
		o.onMessage = cb
	}
}

// LoggerOption sets the logger. If not set, slog.Default() is used.
func LoggerOption(logger Logger) Option {
	return func(o *options) {
		o.logger = logger
	}
}
