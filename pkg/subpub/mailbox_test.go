package subpub

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestMailboxFIFO(t *testing.T) {
	m := NewMailbox[int](3)
	for i := 1; i <= 3; i++ {
		require.NoError(t, m.TryPush(&Event[int]{value: i}))
	}
	require.ErrorIs(t, m.TryPush(&Event[int]{value: 4}), ErrMailboxFull)
	require.Equal(t, 3, m.Len())
	require.Equal(t, 3, m.Cap())

	for i := 1; i <= 3; i++ {
		ev, ok := m.TryPop()
		require.True(t, ok)
		require.Equal(t, i, ev.Value())
	}
	_, ok := m.TryPop()
	require.False(t, ok)
}

func TestMailboxZeroCapacity(t *testing.T) {
	m := NewMailbox[string](0)
	require.ErrorIs(t, m.TryPush(&Event[string]{value: "x"}), ErrMailboxFull)
	_, ok := m.TryPop()
	require.False(t, ok)
	require.Zero(t, m.Cap())
}

func TestMailboxNegativeCapacity(t *testing.T) {
	m := NewMailbox[int](-5)
	require.Zero(t, m.Cap())
	require.ErrorIs(t, m.TryPush(&Event[int]{}), ErrMailboxFull)
}

func TestMailboxDetached(t *testing.T) {
	var zero Mailbox[int]
	require.ErrorIs(t, zero.TryPush(&Event[int]{}), ErrMailboxDetached)
	_, ok := zero.TryPop()
	require.False(t, ok)

	var nilBox *Mailbox[int]
	require.ErrorIs(t, nilBox.TryPush(&Event[int]{}), ErrMailboxDetached)
	require.Zero(t, nilBox.Len())
	require.Zero(t, nilBox.Cap())
}
