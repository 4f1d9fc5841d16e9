package jobs

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/timmy/mdb2el/internal/domain"
)

func TestNewStore_StartsWithOneSlotOfCapacity(t *testing.T) {
	s := NewStore(0)

	assert.Equal(t, 0, s.Len())
	assert.Equal(t, 1, cap(s.entries))
}

func TestStore_AppendPreservesEntries(t *testing.T) {
	s := NewStore(0)

	for i := 0; i < 5; i++ {
		idx, err := s.Append()
		require.NoError(t, err)
		require.Equal(t, i, idx)
		require.NoError(t, s.Update(idx, func(j *domain.JobDescriptor) {
			j.SourceCollection = string(rune('a' + i))
		}))
	}

	entries := s.Entries()
	require.Len(t, entries, 5)
	for i, e := range entries {
		assert.Equal(t, string(rune('a'+i)), e.SourceCollection)
	}
}

func TestStore_AppendFailsAtLimit(t *testing.T) {
	s := NewStore(2)

	_, err := s.Append()
	require.NoError(t, err)
	require.NoError(t, s.Update(0, func(j *domain.JobDescriptor) { j.SourceDatabase = "orders" }))
	_, err = s.Append()
	require.NoError(t, err)

	idx, err := s.Append()
	assert.Equal(t, -1, idx)
	assert.True(t, errors.Is(err, ErrStorageExhausted))

	require.Equal(t, 2, s.Len())
	first, ok := s.At(0)
	require.True(t, ok)
	assert.Equal(t, "orders", first.SourceDatabase)
}

func TestNewStore_NegativeLimitIsUnbounded(t *testing.T) {
	s := NewStore(-3)

	for i := 0; i < 10; i++ {
		_, err := s.Append()
		require.NoError(t, err)
	}
	assert.Equal(t, 10, s.Len())
}

func TestStore_UpdateOutOfRange(t *testing.T) {
	s := NewStore(0)

	err := s.Update(0, func(j *domain.JobDescriptor) {})
	assert.Error(t, err)

	_, ok := s.At(0)
	assert.False(t, ok)
}

func TestStore_EntriesReturnsCopy(t *testing.T) {
	s := NewStore(0)
	_, err := s.Append()
	require.NoError(t, err)

	entries := s.Entries()
	entries[0].TargetIndex = "mutated"

	got, _ := s.At(0)
	assert.Empty(t, got.TargetIndex)
}
