package streamio

import (
	"time"

	"github.com/pkg/errors"
)

// WriteMessage performs a single bounded write of payload to the stream and
// returns the number of bytes the stream accepted. No retry happens at this
// layer; if a retry policy is wanted it belongs to the caller. The failure
// is classified (would-block on write, would-block on read, other stream
// fault) for diagnostics only; every failure branch reports an error.
func (c *Conn) WriteMessage(payload []byte) (int, error) {
	if c.closed.Load() {
		return 0, ErrConnectionClosed
	}

	if c.deadlines != nil {
		_ = c.deadlines.SetWriteDeadline(time.Now().Add(c.opts.writeDeadline))
	}

	n, err := c.stream.Write(payload)
	if err != nil {
		switch code := classify(err); code {
		case CodeWantWrite, CodeWantRead:
			c.logger.Error("stream not ready for write",
				"addr", c.Addr(), "code", code.String(), "error", err)
		default:
			c.logger.Error("stream error during write",
				"addr", c.Addr(), "code", code.String(), "error", err)
		}
		return n, errors.Wrap(err, "write message")
	}

	return n, nil
}
