package streamio

// Message is one complete inbound message drained from a stream.
// The payload is exactly the bytes the peer sent; this layer never parses
// or validates it. A zero-length payload is a legitimate result: it means
// the peer either closed before sending (ConnectionEnded reports true) or
// produced nothing within the first-byte retry budget.
type Message struct {
	body            []byte
	connectionEnded bool
}

// Length returns the length of the message body.
func (m Message) Length() int {
	return len(m.body)
}

// Body returns the raw message data. The caller owns the returned slice.
func (m Message) Body() []byte {
	return m.body
}

// ConnectionEnded reports whether the peer closed the connection without
// ever sending a byte of this message. It is false when the message simply
// ended (the normal case) and false when a fault cut the message short.
func (m Message) ConnectionEnded() bool {
	return m.connectionEnded
}
