package streamio

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestMessageBuffer_AppendPreservesOrder(t *testing.T) {
	buf := newMessageBuffer(1024, 0)

	var want []byte
	chunks := [][]byte{
		[]byte("alpha"),
		[]byte("beta"),
		bytes.Repeat([]byte{0x42}, 160),
		[]byte("gamma"),
	}
	for _, chunk := range chunks {
		require.NoError(t, buf.append(chunk))
		want = append(want, chunk...)
	}

	require.Equal(t, len(want), buf.len())
	require.Equal(t, want, buf.finalize())
}

func TestMessageBuffer_GrowthByDoubling(t *testing.T) {
	const initial = 1024
	buf := newMessageBuffer(initial, 0)

	var total int
	chunk := bytes.Repeat([]byte{0x7f}, 160)
	for i := 0; i < 64; i++ {
		require.NoError(t, buf.append(chunk))
		total += len(chunk)

		require.Equal(t, total, buf.len())
		require.GreaterOrEqual(t, len(buf.data), buf.len())

		// Physical capacity must be reachable from the initial size by
		// repeated doubling.
		size := initial
		for size < len(buf.data) {
			size *= 2
		}
		require.Equal(t, size, len(buf.data))
	}
}

func TestMessageBuffer_VariedChunkSizes(t *testing.T) {
	buf := newMessageBuffer(16, 0)

	var want []byte
	sizes := []int{1, 160, 7, 159, 32, 1, 160, 80}
	for i, size := range sizes {
		chunk := bytes.Repeat([]byte{byte('A' + i)}, size)
		require.NoError(t, buf.append(chunk))
		want = append(want, chunk...)
	}

	require.Equal(t, want, buf.finalize())
}

func TestMessageBuffer_EmptyChunkIsNoop(t *testing.T) {
	buf := newMessageBuffer(8, 0)
	require.NoError(t, buf.append(nil))
	require.NoError(t, buf.append([]byte{}))
	require.Equal(t, 0, buf.len())
}

func TestMessageBuffer_GrowthCapRejectedKeepsData(t *testing.T) {
	buf := newMessageBuffer(64, 128)

	first := bytes.Repeat([]byte{'a'}, 100)
	require.NoError(t, buf.append(first))

	// The next append would need a 256 byte allocation, past the cap. The
	// failure must leave every accumulated byte intact.
	err := buf.append(bytes.Repeat([]byte{'b'}, 100))
	require.ErrorIs(t, err, ErrMessageTooLarge)
	require.Equal(t, 100, buf.len())
	require.Equal(t, first, buf.finalize())
}

func TestMessageBuffer_FinalizeReturnsExactOwnedCopy(t *testing.T) {
	buf := newMessageBuffer(1024, 0)
	require.NoError(t, buf.append([]byte("payload")))

	internal := buf.data
	body := buf.finalize()

	require.Equal(t, []byte("payload"), body)
	require.Equal(t, len(body), cap(body), "finalize must shed spare capacity")

	// Mutating the old allocation must not leak into the result.
	internal[0] = 'X'
	require.Equal(t, byte('p'), body[0])
}

func TestMessageBuffer_FinalizeEmpty(t *testing.T) {
	buf := newMessageBuffer(1024, 0)
	body := buf.finalize()
	require.NotNil(t, body)
	require.Empty(t, body)
}
