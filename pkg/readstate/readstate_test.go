package readstate

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNew_NothingRead(t *testing.T) {
	s := New()

	assert.Equal(t, int64(1), s.Threshold)
	assert.Empty(t, s.Read)
	assert.Empty(t, s.Unread)
	for id := int64(1); id <= 50; id++ {
		assert.True(t, s.IsUnread(id), "id %d", id)
	}
}

func TestMarkRead_SingleItem(t *testing.T) {
	s := New()
	s.MarkRead(5)

	assert.True(t, s.IsRead(5))
	assert.False(t, s.IsRead(4))
	assert.False(t, s.IsRead(6))
	assert.Equal(t, int64(1), s.Threshold, "threshold must not move")
}

func TestMarkRead_AlreadyReadIsNoop(t *testing.T) {
	s := New()
	s.MarkAllReadUpTo(10)
	s.MarkRead(4)

	assert.True(t, s.IsRead(4))

	s.Compact()
	assert.Equal(t, int64(11), s.Threshold)
	assert.Empty(t, s.Read)
	assert.Empty(t, s.Unread)
}

func TestMarkUnread_InverseOfMarkRead(t *testing.T) {
	s := New()
	s.MarkRead(7)
	s.MarkUnread(7)

	assert.True(t, s.IsUnread(7))
	assert.False(t, s.Read.Has(7))
	assert.True(t, s.Unread.Has(7))
}

func TestMarkUnread_BelowThreshold(t *testing.T) {
	s := State{Threshold: 10, Read: IDSet{}, Unread: IDSet{}}
	s.MarkUnread(3)

	assert.Equal(t, []int64{3}, s.Unread.Sorted())
	assert.True(t, s.IsUnread(3))
	assert.True(t, s.IsRead(2))
	assert.True(t, s.IsRead(9))
	assert.True(t, s.IsUnread(10))
}

func TestMarkAllReadUpTo(t *testing.T) {
	s := New()
	s.MarkRead(200)
	s.MarkUnread(3)

	s.MarkAllReadUpTo(100)

	assert.Empty(t, s.Read)
	assert.Empty(t, s.Unread)
	for id := int64(1); id <= 100; id++ {
		require.True(t, s.IsRead(id), "id %d", id)
	}
	for id := int64(101); id <= 300; id++ {
		require.False(t, s.IsRead(id), "id %d", id)
	}
}

func TestMarkAllReadUpTo_Saturates(t *testing.T) {
	// Threshold upto+1 olduğundan int64 sınırında taşmamalı.
	s := New()
	s.MarkAllReadUpTo(math.MaxInt64)

	assert.Equal(t, int64(math.MaxInt64), s.Threshold)
	assert.True(t, s.IsRead(5))
	assert.True(t, s.IsRead(math.MaxInt64-1))

	// Negatif upto hiçbir şeyi okunmuş yapmaz.
	s.MarkAllReadUpTo(-5)
	assert.Equal(t, int64(1), s.Threshold)
	assert.True(t, s.IsUnread(1))

	s.MarkAllReadUpTo(math.MinInt64)
	assert.Equal(t, int64(1), s.Threshold)
}

func TestMarkAllReadUpTo_ThenMarkReadBelow(t *testing.T) {
	s := New()
	s.MarkAllReadUpTo(100)
	before := s.Clone()

	s.MarkRead(50)
	for id := int64(1); id <= 150; id++ {
		require.Equal(t, before.IsRead(id), s.IsRead(id), "id %d", id)
	}

	s.Compact()
	assert.Equal(t, int64(101), s.Threshold)
	assert.Empty(t, s.Read)
	assert.Empty(t, s.Unread)
}

func TestMarkOnZeroValueState(t *testing.T) {
	var s State
	s.Threshold = 1

	s.MarkRead(3)
	s.MarkUnread(4)

	assert.True(t, s.IsRead(3))
	assert.True(t, s.IsUnread(4))
}

func TestClone_Independent(t *testing.T) {
	s := New()
	s.MarkRead(3)

	c := s.Clone()
	c.MarkUnread(3)
	c.Threshold = 9

	assert.True(t, s.IsRead(3))
	assert.Equal(t, int64(1), s.Threshold)
}

func TestNormalized(t *testing.T) {
	tests := []struct {
		name  string
		state State
		want  bool
	}{
		{"fresh", New(), true},
		{"read above threshold", State{Threshold: 3, Read: NewIDSet(5), Unread: NewIDSet(1)}, true},
		{"read below threshold", State{Threshold: 3, Read: NewIDSet(2), Unread: IDSet{}}, false},
		{"unread at threshold", State{Threshold: 3, Read: IDSet{}, Unread: NewIDSet(3)}, false},
		{"zero threshold", State{Threshold: 0, Read: IDSet{}, Unread: IDSet{}}, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.state.Normalized())
		})
	}
}

func TestIDSet_Sorted(t *testing.T) {
	assert.Equal(t, []int64{}, IDSet{}.Sorted())
	assert.Equal(t, []int64{1, 4, 9}, NewIDSet(9, 1, 4, 4).Sorted())

	var nilSet IDSet
	assert.Equal(t, []int64{}, nilSet.Sorted())
	assert.NotNil(t, nilSet.Clone())
}
