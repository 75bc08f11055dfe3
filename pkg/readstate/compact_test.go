package readstate

import (
	"fmt"
	"math"
	"math/rand/v2"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// assertSameFunction, 1..upto aralığında iki durumun aynı okundu
// fonksiyonunu kodladığını doğrular.
func assertSameFunction(t *testing.T, want, got State, upto int64) {
	t.Helper()
	for id := int64(1); id <= upto; id++ {
		require.Equal(t, want.IsRead(id), got.IsRead(id), "id %d (threshold %d→%d)", id, want.Threshold, got.Threshold)
	}
}

// randomState, ids ∈ [1, maxID] üzerinde rastgele Mark* dizisi uygular.
func randomState(r *rand.Rand, maxID int64, ops int) State {
	s := New()
	if r.IntN(3) == 0 {
		s.MarkAllReadUpTo(r.Int64N(maxID))
	}
	for range ops {
		id := r.Int64N(maxID) + 1
		switch r.IntN(10) {
		case 0:
			s.MarkAllReadUpTo(id)
		case 1, 2, 3, 4, 5:
			s.MarkRead(id)
		default:
			s.MarkUnread(id)
		}
	}
	return s
}

// costAt, threshold t ile fonksiyonu kodlamak için gereken istisna sayısı.
// upto'nun üstündeki her id'nin okunmamış olduğu varsayılır.
func costAt(s State, t, upto int64) int {
	n := 0
	for id := int64(1); id <= upto; id++ {
		read := s.IsRead(id)
		if id < t && !read {
			n++
		}
		if id >= t && read {
			n++
		}
	}
	return n
}

func TestCompact_EmptyExceptionsUntouched(t *testing.T) {
	s := State{Threshold: 42, Read: IDSet{}, Unread: IDSet{}}
	s.Compact()

	assert.Equal(t, int64(42), s.Threshold)
	assert.Empty(t, s.Read)
	assert.Empty(t, s.Unread)
}

func TestCompact_DropsImpliedExceptions(t *testing.T) {
	s := State{Threshold: 10, Read: NewIDSet(2, 3), Unread: NewIDSet(12)}
	original := s.Clone()

	s.Compact()

	assert.Equal(t, int64(10), s.Threshold)
	assert.Empty(t, s.Read)
	assert.Empty(t, s.Unread)
	assertSameFunction(t, original, s, 30)
}

func TestCompact_SingleUnreadBelowThreshold(t *testing.T) {
	s := State{Threshold: 10, Read: IDSet{}, Unread: IDSet{}}
	s.MarkUnread(3)
	require.Equal(t, []int64{3}, s.Unread.Sorted())
	original := s.Clone()

	s.Compact()

	assertSameFunction(t, original, s, 50)
	assert.True(t, s.Normalized())
	assert.LessOrEqual(t, s.Exceptions(), 1)
	assert.Equal(t, int64(10), s.Threshold)
	assert.Equal(t, []int64{3}, s.Unread.Sorted())
}

func TestCompact_ContiguousReadRunMovesThreshold(t *testing.T) {
	s := New()
	for id := int64(1); id <= 5; id++ {
		s.MarkRead(id)
	}
	s.MarkRead(7)
	original := s.Clone()

	s.Compact()

	assertSameFunction(t, original, s, 20)
	// 1..5 okundu, 6 okunmadı, 7 okundu: T=6 → Read{7} veya T=8 → Unread{6}.
	// Eşitlikte büyük threshold kazanır.
	assert.Equal(t, int64(8), s.Threshold)
	assert.Empty(t, s.Read)
	assert.Equal(t, []int64{6}, s.Unread.Sorted())
}

func TestCompact_TieBreakPrefersLargerThreshold(t *testing.T) {
	// Sadece 2 okunmuş. T=1/Read{2} ve T=3/Unread{1} aynı maliyette (1).
	s := New()
	s.MarkRead(2)

	s.Compact()

	assert.Equal(t, int64(3), s.Threshold)
	assert.Empty(t, s.Read)
	assert.Equal(t, []int64{1}, s.Unread.Sorted())
}

func TestCompact_ThresholdNeverBelowOne(t *testing.T) {
	s := New()
	s.MarkUnread(1)
	s.MarkRead(1)
	s.MarkUnread(1)

	s.Compact()

	assert.GreaterOrEqual(t, s.Threshold, int64(1))
	assert.True(t, s.IsUnread(1))
	assert.Equal(t, 0, s.Exceptions())
}

func TestCompact_Compacted_DoesNotMutate(t *testing.T) {
	s := New()
	s.MarkRead(3)
	s.MarkRead(1)
	s.MarkRead(2)

	c := s.Compacted()

	assert.Equal(t, int64(1), s.Threshold)
	assert.Equal(t, 3, s.Exceptions())
	assert.Equal(t, int64(4), c.Threshold)
	assert.Equal(t, 0, c.Exceptions())
}

func TestCompact_Properties(t *testing.T) {
	r := rand.New(rand.NewPCG(7, 11))

	for i := range 300 {
		s := randomState(r, 120, r.IntN(60))
		original := s.Clone()

		// Pencere, filtreden sonraki durumdan hesaplanır.
		filtered := s.Clone()
		filtered.dropImplied()
		low, high := filtered.window()

		c := s.Compacted()

		// invariant
		require.True(t, c.Normalized(), "case %d", i)
		for id := range c.Read {
			require.False(t, c.Unread.Has(id), "case %d: id %d in both sets", i, id)
		}

		// functional equivalence
		assertSameFunction(t, original, c, 200)

		// idempotence
		again := c.Compacted()
		require.Equal(t, c.Threshold, again.Threshold, "case %d", i)
		require.Equal(t, c.Read.Sorted(), again.Read.Sorted(), "case %d", i)
		require.Equal(t, c.Unread.Sorted(), again.Unread.Sorted(), "case %d", i)

		// minimality within the window
		if filtered.Exceptions() == 0 {
			require.Equal(t, original.Threshold, c.Threshold, "case %d", i)
			continue
		}
		best, bestT := -1, int64(0)
		for th := low; th <= high; th++ {
			if cost := costAt(original, th, high); best < 0 || cost <= best {
				best, bestT = cost, th
			}
		}
		require.Equal(t, best, c.Exceptions(), "case %d", i)
		require.Equal(t, bestT, c.Threshold, "case %d", i)
		require.LessOrEqual(t, c.Exceptions(), filtered.Exceptions(), "case %d", i)
	}
}

func TestCompact_LargeGap(t *testing.T) {
	s := New()
	s.MarkAllReadUpTo(10)
	s.MarkRead(5000)
	original := s.Clone()

	s.Compact()

	assertSameFunction(t, original, s, 6000)
	assert.Equal(t, 1, s.Exceptions())
}

// compactWithin, Compacted'ı ayrı goroutine'de çalıştırır; d içinde
// bitmezse testi düşürür.
func compactWithin(t *testing.T, s State, d time.Duration) State {
	t.Helper()
	done := make(chan State, 1)
	go func() { done <- s.Compacted() }()
	select {
	case c := <-done:
		return c
	case <-time.After(d):
		t.Fatalf("compact did not finish within %s (threshold %d, %d exceptions)", d, s.Threshold, s.Exceptions())
		return State{}
	}
}

// readBelow, [1, t) aralığındaki okunmuş id sayısı. Sadece istisnaları
// gezer, bu yüzden büyük id'lerde de ucuzdur.
func readBelow(s State, t int64) int64 {
	n := max(min(t, s.Threshold)-1, 0)
	for id := range s.Unread {
		if id >= 1 && id < s.Threshold && id < t {
			n--
		}
	}
	for id := range s.Read {
		if id >= s.Threshold && id < t {
			n++
		}
	}
	return n
}

// sparseCost, costAt'in id'leri tek tek gezmeyen karşılığı: [1, t)
// içindeki okunmamışlar artı t ve üstündeki okunmuşlar.
func sparseCost(s State, t int64) int64 {
	below := readBelow(s, t)
	total := readBelow(s, math.MaxInt64)
	if s.IsRead(math.MaxInt64) {
		total++
	}
	return (t - 1 - below) + (total - below)
}

// touched, durumun istisnaları ve threshold'unun ±1 komşuları.
func touched(s State) []int64 {
	var ids []int64
	add := func(id int64) {
		for _, d := range []int64{-1, 0, 1} {
			if (d < 0 && id == 1) || (d > 0 && id == math.MaxInt64) {
				continue
			}
			if v := id + d; v >= 1 {
				ids = append(ids, v)
			}
		}
	}
	add(s.Threshold)
	for id := range s.Read {
		add(id)
	}
	for id := range s.Unread {
		add(id)
	}
	return ids
}

// assertSparseCompaction, büyük id'li durumlarda eşdeğerlik, idempotence
// ve minimalliği sadece dokunulan id'lerin çevresinde kontrol eder.
func assertSparseCompaction(t *testing.T, original, c State) {
	t.Helper()

	require.True(t, c.Normalized())
	require.GreaterOrEqual(t, c.Threshold, int64(1))

	samples := append(touched(original), touched(c)...)
	for _, id := range samples {
		require.Equal(t, original.IsRead(id), c.IsRead(id), "id %d", id)
	}

	again := compactWithin(t, c, 2*time.Second)
	require.Equal(t, c.Threshold, again.Threshold)
	require.Equal(t, c.Read.Sorted(), again.Read.Sorted())
	require.Equal(t, c.Unread.Sorted(), again.Unread.Sorted())

	got := int64(c.Exceptions())
	require.Equal(t, sparseCost(original, c.Threshold), got)
	for _, th := range samples {
		cost := sparseCost(original, th)
		require.LessOrEqual(t, got, cost, "threshold %d", th)
		if th > c.Threshold {
			require.Less(t, got, cost, "tie at larger threshold %d", th)
		}
	}
}

func TestCompact_HugeSparseIDs(t *testing.T) {
	const base = int64(1) << 40

	tests := []struct {
		name      string
		build     func() State
		threshold int64
		read      []int64
		unread    []int64
	}{
		{
			name:      "single far read",
			build:     func() State { s := New(); s.MarkRead(50_000_000); return s },
			threshold: 1,
			read:      []int64{50_000_000},
		},
		{
			name: "threshold around 1<<40",
			build: func() State {
				s := New()
				s.MarkAllReadUpTo(base)
				s.MarkUnread(5)
				s.MarkRead(base + 3)
				return s
			},
			threshold: base + 1,
			read:      []int64{base + 3},
			unread:    []int64{5},
		},
		{
			name:      "read at max int64",
			build:     func() State { s := New(); s.MarkRead(math.MaxInt64); return s },
			threshold: 1,
			read:      []int64{math.MaxInt64},
		},
		{
			name: "everything read up to max int64",
			build: func() State {
				s := New()
				s.MarkAllReadUpTo(math.MaxInt64 - 1)
				s.MarkRead(math.MaxInt64)
				return s
			},
			threshold: math.MaxInt64,
			read:      []int64{math.MaxInt64},
		},
		{
			name: "unread just below max int64 folds into threshold",
			build: func() State {
				s := New()
				s.MarkAllReadUpTo(math.MaxInt64 - 1)
				s.MarkUnread(math.MaxInt64 - 1)
				return s
			},
			threshold: math.MaxInt64 - 1,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			original := tt.build()
			c := compactWithin(t, original, 2*time.Second)

			assertSparseCompaction(t, original, c)
			assert.Equal(t, tt.threshold, c.Threshold)
			assert.ElementsMatch(t, tt.read, c.Read.Sorted())
			assert.ElementsMatch(t, tt.unread, c.Unread.Sorted())
		})
	}
}

func TestCompact_RandomSparseIDs(t *testing.T) {
	r := rand.New(rand.NewPCG(3, 5))
	bases := []int64{1, 50_000_000, int64(1) << 40, math.MaxInt64 - 64}

	for i := range 200 {
		s := New()
		if r.IntN(2) == 0 {
			s.MarkAllReadUpTo(bases[r.IntN(len(bases))] + r.Int64N(32))
		}
		for range r.IntN(40) {
			// Aynı tabana yakın id'ler bitişik koşular oluşturur.
			id := bases[r.IntN(len(bases))] + r.Int64N(64)
			if r.IntN(8) == 0 {
				id = r.Int64N(math.MaxInt64) + 1
			}
			if r.IntN(3) == 0 {
				s.MarkUnread(id)
			} else {
				s.MarkRead(id)
			}
		}
		original := s.Clone()

		c := compactWithin(t, original, 2*time.Second)

		t.Run(fmt.Sprintf("case %d", i), func(t *testing.T) {
			assertSparseCompaction(t, original, c)
		})
	}
}
