package streamio

import (
	"github.com/pkg/errors"
)

// messageBuffer accumulates one inbound message of unknown total length.
// Capacity grows by doubling so repeated small appends stay amortized O(1);
// it never shrinks until finalize. A configurable cap bounds growth so a
// peer cannot make the process allocate without limit.
type messageBuffer struct {
	data  []byte // physical allocation
	total int    // logical length written so far
	max   int    // growth cap, 0 means unlimited
}

func newMessageBuffer(initial, max int) *messageBuffer {
	return &messageBuffer{
		data: make([]byte, initial),
		max:  max,
	}
}

// append copies chunk into the buffer at the current logical end, growing
// the allocation first if the remaining capacity could not hold a full
// read chunk. On failure the buffer is left undisturbed: no bytes already
// accumulated are lost and nothing is written past capacity.
func (b *messageBuffer) append(chunk []byte) error {
	if len(chunk) == 0 {
		return nil
	}

	if len(b.data)-b.total < len(chunk) {
		if err := b.grow(len(chunk)); err != nil {
			return err
		}
	}

	copy(b.data[b.total:], chunk)
	b.total += len(chunk)
	return nil
}

// grow doubles the allocation until it can hold n more bytes. The cap is
// checked before reallocating, so a rejected growth leaves data intact.
func (b *messageBuffer) grow(n int) error {
	size := len(b.data)
	if size == 0 {
		size = 1
	}
	for size-b.total < n {
		size *= 2
	}

	if b.max > 0 && size > b.max {
		return errors.Wrapf(ErrMessageTooLarge, "growing buffer to %d bytes exceeds limit %d", size, b.max)
	}

	grown := make([]byte, size)
	copy(grown, b.data[:b.total])
	b.data = grown
	return nil
}

// len returns the logical length accumulated so far.
func (b *messageBuffer) len() int {
	return b.total
}

// finalize returns the accumulated bytes as an exact-length slice, releasing
// the spare capacity. The caller owns the result; the buffer must not be
// used afterwards.
func (b *messageBuffer) finalize() []byte {
	body := make([]byte, b.total)
	copy(body, b.data[:b.total])
	b.data = nil
	return body
}
