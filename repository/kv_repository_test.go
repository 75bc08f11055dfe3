package repository

import (
	"context"
	"errors"
	"os"
	"sync/atomic"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/akinalp/feedmark/database"
	"github.com/akinalp/feedmark/pkg/readstate"
)

// newTestDB, migration'ları uygulanmış bellek içi SQLite döner.
func newTestDB(t *testing.T) *database.DB {
	t.Helper()
	db, err := database.New(database.MemoryPath, database.Migrations())
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	return db
}

// testKVRepository, her KVRepository implementasyonunun sağlaması
// gereken davranışı doğrular.
func testKVRepository(t *testing.T, repo KVRepository) {
	ctx := context.Background()

	t.Run("missing key", func(t *testing.T) {
		v, ok, err := repo.Get(ctx, "nobody", readstate.KeyThreshold)
		require.NoError(t, err)
		assert.False(t, ok)
		assert.Empty(t, v)
	})

	t.Run("set and overwrite", func(t *testing.T) {
		require.NoError(t, repo.Set(ctx, "u1", readstate.KeyThreshold, "4"))
		require.NoError(t, repo.Set(ctx, "u1", readstate.KeyThreshold, "9"))

		v, ok, err := repo.Get(ctx, "u1", readstate.KeyThreshold)
		require.NoError(t, err)
		assert.True(t, ok)
		assert.Equal(t, "9", v)
	})

	t.Run("set many", func(t *testing.T) {
		require.NoError(t, repo.SetMany(ctx, "u2", map[string]string{
			readstate.KeyThreshold: "12",
			readstate.KeyRead:      "[20]",
			readstate.KeyUnread:    "[3,5]",
		}))

		for key, want := range map[string]string{
			readstate.KeyThreshold: "12",
			readstate.KeyRead:      "[20]",
			readstate.KeyUnread:    "[3,5]",
		} {
			v, ok, err := repo.Get(ctx, "u2", key)
			require.NoError(t, err)
			require.True(t, ok, key)
			assert.Equal(t, want, v, key)
		}
	})

	t.Run("namespaces are isolated", func(t *testing.T) {
		require.NoError(t, repo.Set(ctx, "a", readstate.KeyDataset, "db-a"))
		require.NoError(t, repo.Set(ctx, "b", readstate.KeyDataset, "db-b"))

		v, _, err := repo.Get(ctx, "a", readstate.KeyDataset)
		require.NoError(t, err)
		assert.Equal(t, "db-a", v)
	})

	t.Run("delete namespace", func(t *testing.T) {
		require.NoError(t, repo.Set(ctx, "gone", readstate.KeyDataset, "db"))
		require.NoError(t, repo.Set(ctx, "kept", readstate.KeyDataset, "db"))

		require.NoError(t, repo.DeleteNamespace(ctx, "gone"))

		_, ok, err := repo.Get(ctx, "gone", readstate.KeyDataset)
		require.NoError(t, err)
		assert.False(t, ok)
		_, ok, err = repo.Get(ctx, "kept", readstate.KeyDataset)
		require.NoError(t, err)
		assert.True(t, ok)
	})

	t.Run("read state round trip", func(t *testing.T) {
		store := Slots(repo, "reader")

		s, res, err := readstate.Load(ctx, store, "dataset-1")
		require.NoError(t, err)
		assert.True(t, res.Reinitialized())

		s.MarkAllReadUpTo(50)
		s.MarkUnread(7)
		s.MarkRead(60)
		require.NoError(t, readstate.Persist(ctx, store, &s))

		loaded, res, err := readstate.Load(ctx, store, "dataset-1")
		require.NoError(t, err)
		assert.False(t, res.Reinitialized())
		assert.True(t, loaded.IsUnread(7))
		assert.True(t, loaded.IsRead(50))
		assert.True(t, loaded.IsRead(60))
		assert.True(t, loaded.IsUnread(61))
	})
}

func TestSQLiteKVRepo(t *testing.T) {
	testKVRepository(t, NewSQLiteKVRepo(newTestDB(t).Conn))
}

func TestMemoryKVRepo(t *testing.T) {
	testKVRepository(t, NewMemoryKVRepo())
}

func TestMemoryKVRepo_CanceledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, _, err := NewMemoryKVRepo().Get(ctx, "u", "k")
	assert.ErrorIs(t, err, context.Canceled)
}

func TestCachedKVRepo(t *testing.T) {
	repo := NewCachedKVRepo(NewMemoryKVRepo(), time.Minute)
	t.Cleanup(repo.Close)
	testKVRepository(t, repo)
}

func TestRedisKVRepo(t *testing.T) {
	addr := os.Getenv("REDIS_ADDR")
	if addr == "" {
		t.Skip("REDIS_ADDR not set")
	}

	rdb, err := database.NewRedis(context.Background(), database.RedisOptions{Addr: addr})
	require.NoError(t, err)
	t.Cleanup(func() { rdb.Close() })

	prefix := "feedmark-test:" + uuid.NewString() + ":"
	t.Cleanup(func() {
		ctx := context.Background()
		keys, _ := rdb.Keys(ctx, prefix+"*").Result()
		if len(keys) > 0 {
			rdb.Del(ctx, keys...)
		}
	})

	testKVRepository(t, NewRedisKVRepo(rdb, prefix))
}

func TestSQLiteKVRepo_SetManyIsAtomic(t *testing.T) {
	ctx := context.Background()
	db := newTestDB(t)
	repo := NewSQLiteKVRepo(db.Conn)

	require.NoError(t, repo.Set(ctx, "u", readstate.KeyThreshold, "5"))

	// Trigger "bad" key'ini reddeder; aynı batch'teki diğer yazma da geri alınmalı.
	_, err := db.Conn.ExecContext(ctx, `
		CREATE TRIGGER reject_bad BEFORE INSERT ON kv_slots
		WHEN NEW.key = 'bad' BEGIN SELECT RAISE(ABORT, 'rejected'); END`)
	require.NoError(t, err)

	err = repo.SetMany(ctx, "u", map[string]string{
		readstate.KeyThreshold: "99",
		"bad":                  "x",
	})
	require.Error(t, err)

	v, _, err := repo.Get(ctx, "u", readstate.KeyThreshold)
	require.NoError(t, err)
	assert.Equal(t, "5", v)
}

// countingKV, alttaki depoya giden okumaları sayar.
type countingKV struct {
	KVRepository
	gets   atomic.Int32
	failOn string
}

func (c *countingKV) Get(ctx context.Context, namespace, key string) (string, bool, error) {
	c.gets.Add(1)
	return c.KVRepository.Get(ctx, namespace, key)
}

func (c *countingKV) SetMany(ctx context.Context, namespace string, values map[string]string) error {
	if _, ok := values[c.failOn]; ok {
		return errors.New("boom")
	}
	return c.KVRepository.SetMany(ctx, namespace, values)
}

func TestCachedKVRepo_ServesReadsFromCache(t *testing.T) {
	ctx := context.Background()
	inner := &countingKV{KVRepository: NewMemoryKVRepo()}
	repo := NewCachedKVRepo(inner, time.Minute)
	t.Cleanup(repo.Close)

	// Negatif sonuç da cache'lenir.
	for range 3 {
		_, ok, err := repo.Get(ctx, "u", readstate.KeyDataset)
		require.NoError(t, err)
		assert.False(t, ok)
	}
	assert.Equal(t, int32(1), inner.gets.Load())

	require.NoError(t, repo.Set(ctx, "u", readstate.KeyDataset, "db"))
	v, ok, err := repo.Get(ctx, "u", readstate.KeyDataset)
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, "db", v)
	assert.Equal(t, int32(1), inner.gets.Load())
}

// gatedKV, ilk Get'i alttaki değeri okuduktan sonra release kapanana
// kadar bekletir.
type gatedKV struct {
	KVRepository
	gate    atomic.Bool
	entered chan struct{}
	release chan struct{}
}

func (g *gatedKV) Get(ctx context.Context, namespace, key string) (string, bool, error) {
	value, ok, err := g.KVRepository.Get(ctx, namespace, key)
	if g.gate.CompareAndSwap(true, false) {
		close(g.entered)
		<-g.release
	}
	return value, ok, err
}

func TestCachedKVRepo_SlowReadDoesNotOverwriteConcurrentSet(t *testing.T) {
	ctx := context.Background()
	inner := &gatedKV{
		KVRepository: NewMemoryKVRepo(),
		entered:      make(chan struct{}),
		release:      make(chan struct{}),
	}
	repo := NewCachedKVRepo(inner, time.Minute)
	t.Cleanup(repo.Close)

	require.NoError(t, inner.KVRepository.Set(ctx, "u", readstate.KeyThreshold, "3"))
	inner.gate.Store(true)

	type result struct {
		value string
		err   error
	}
	done := make(chan result, 1)
	go func() {
		v, _, err := repo.Get(ctx, "u", readstate.KeyThreshold)
		done <- result{v, err}
	}()

	// Okuma eski değeri aldı ve bekliyor; bu sırada yeni değer yazılır.
	<-inner.entered
	require.NoError(t, repo.Set(ctx, "u", readstate.KeyThreshold, "8"))
	close(inner.release)

	res := <-done
	require.NoError(t, res.err)
	assert.Equal(t, "3", res.value)

	v, ok, err := repo.Get(ctx, "u", readstate.KeyThreshold)
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, "8", v, "stale read must not be cached over the newer write")
}

func TestCachedKVRepo_FailedWriteInvalidates(t *testing.T) {
	ctx := context.Background()
	inner := &countingKV{KVRepository: NewMemoryKVRepo(), failOn: readstate.KeyRead}
	repo := NewCachedKVRepo(inner, time.Minute)
	t.Cleanup(repo.Close)

	require.NoError(t, repo.Set(ctx, "u", readstate.KeyThreshold, "3"))
	_, _, err := repo.Get(ctx, "u", readstate.KeyThreshold)
	require.NoError(t, err)

	err = repo.SetMany(ctx, "u", map[string]string{
		readstate.KeyThreshold: "8",
		readstate.KeyRead:      "[]",
	})
	require.Error(t, err)

	v, _, err := repo.Get(ctx, "u", readstate.KeyThreshold)
	require.NoError(t, err)
	assert.Equal(t, "3", v)
	assert.Equal(t, int32(1), inner.gets.Load(), "cache must be refilled from the store")
}
