package streamio

import (
	"time"

	"github.com/pkg/errors"
)

// ReadMessage drains one complete inbound message from the stream.
//
// The message's total length is unknown up front: data arrives in discrete
// frames and the end of the message is signaled only by the absence of
// further readable data. Before the first byte arrives the loop tolerates
// peer latency for a bounded number of retry rounds; after the first byte,
// a run of consecutive "no data yet" attempts marks the message complete.
//
// The returned Message always carries whatever bytes were accumulated,
// even when err is non-nil: an unrecoverable stream fault or a message
// growing past the configured size cap terminates the read early with the
// partial payload. When the peer closed the connection before sending
// anything, err is nil, the payload is empty and ConnectionEnded reports
// true. A peer that stays silent for the whole first-byte budget yields an
// empty payload with ConnectionEnded false.
//
// ReadMessage blocks between attempts using the configured Sleeper; there
// is no caller-supplied timeout. Only one ReadMessage may be in flight per
// Conn at a time.
func (c *Conn) ReadMessage() (Message, error) {
	if c.closed.Load() {
		return Message{}, ErrConnectionClosed
	}

	buf := newMessageBuffer(c.opts.initialBufferSize, c.opts.maxMessageSize)
	chunk := make([]byte, c.opts.chunkSize)

	var (
		firstReadingDone bool
		connectionEnded  bool
		idleReads        int // consecutive want-reads since the last frame
		firstByteWaits   int
		readErr          error
	)

loop:
	for {
		if c.deadlines != nil {
			_ = c.deadlines.SetReadDeadline(time.Now().Add(c.opts.pollTimeout))
		}

		n, err := c.stream.Read(chunk)
		if n > 0 {
			firstReadingDone = true
			idleReads = 0

			if err := buf.append(chunk[:n]); err != nil {
				readErr = err
				break
			}
			// A non-nil err alongside data is handled on the next attempt;
			// close and fault conditions repeat on subsequent reads.
			continue
		}

		code := classify(err)
		if code == CodeNone {
			// A zero-byte read without an error is an end-of-readable-data
			// signal from the stream. Treat it the same as a close.
			code = CodeClosed
		}

		switch {
		case code == CodeClosed:
			if buf.len() == 0 {
				connectionEnded = true
			}
			break loop

		case !firstReadingDone && (code == CodeWantRead || code == CodeUnclassified):
			if c.waitForFirstByte(&firstByteWaits) {
				break loop
			}

		case code == CodeWantRead:
			idleReads++
			c.opts.sleeper.Sleep(c.opts.retryInterval)
			if idleReads >= c.opts.idleReadLimit {
				// No readable data for idleReadLimit consecutive attempts
				// after at least one frame: the message is complete.
				break loop
			}

		case code == CodeUnclassified:
			// Not consciously triaged into the taxonomy yet; retry with no
			// counter change. The poll deadline bounds each attempt.
			continue

		default:
			// Want-write during a read, transport fault or protocol fault:
			// unrecoverable here, return the partial payload with the error.
			c.logger.Error("unrecoverable stream error during read",
				"addr", c.Addr(), "code", code.String(), "error", err)
			readErr = errors.Wrap(err, "read message")
			break loop
		}
	}

	message := Message{body: buf.finalize(), connectionEnded: connectionEnded}
	c.logger.Debug("message drained",
		"addr", c.Addr(), "bytes", message.Length(), "connection_ended", connectionEnded)

	return message, readErr
}

// waitForFirstByte burns one round of the first-byte wait budget and
// reports whether the budget is now exhausted. The first frame of a
// response may lag behind the request by scheduling and network jitter;
// waiting a few bounded rounds absorbs that without blocking forever on a
// peer that never answers.
func (c *Conn) waitForFirstByte(attempts *int) bool {
	*attempts++
	c.opts.sleeper.Sleep(c.opts.retryInterval)

	return *attempts >= c.opts.firstByteRetries
}
