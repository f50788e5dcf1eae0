package vdsorng

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestLocalStateTryFillReturnsBytesFilled(t *testing.T) {
	p, err := New(mockResolver{stateSize: 64})
	require.NoError(t, err)
	defer p.Close()

	state, err := NewLocalState(p)
	require.NoError(t, err)
	defer state.Close()

	buf := make([]byte, 32)
	n, err := state.TryFill(buf, 0)
	require.NoError(t, err)
	require.Equal(t, len(buf), n)
}

func TestLocalStateFillEmptyBufferIsNoop(t *testing.T) {
	p, err := New(mockResolver{stateSize: 64})
	require.NoError(t, err)
	defer p.Close()

	state, err := NewLocalState(p)
	require.NoError(t, err)
	defer state.Close()

	require.NoError(t, state.Fill(nil, 0))
}

func TestLocalStateCloseIsIdempotent(t *testing.T) {
	p, err := New(mockResolver{stateSize: 64})
	require.NoError(t, err)
	defer p.Close()

	state, err := NewLocalState(p)
	require.NoError(t, err)

	state.Close()
	require.NotPanics(t, func() { state.Close() })
}

func TestErrnoIsMatchesAnyValue(t *testing.T) {
	var target error = Errno(errnoEAGAIN)
	require.ErrorIs(t, Errno(errnoEINTR), target)
}
