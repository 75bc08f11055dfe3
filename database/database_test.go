package database

import (
	"context"
	"database/sql"
	"errors"
	"path/filepath"
	"testing"
	"testing/fstest"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSplitStatements(t *testing.T) {
	sql := `
-- yorum; noktalı virgül burada sayılmaz
CREATE TABLE a (x TEXT DEFAULT 'a;b');
INSERT INTO a VALUES ('it''s');
SELECT 1`

	got := splitStatements(sql)

	require.Len(t, got, 3)
	assert.Equal(t, "CREATE TABLE a (x TEXT DEFAULT 'a;b')", got[0])
	assert.Equal(t, "INSERT INTO a VALUES ('it''s')", got[1])
	assert.Equal(t, "SELECT 1", got[2])
}

func TestNew_AppliesEmbeddedMigrations(t *testing.T) {
	db, err := New(filepath.Join(t.TempDir(), "data", "feedmark.db"), Migrations())
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	for _, table := range []string{"users", "sessions", "kv_slots"} {
		var n int
		require.NoError(t, db.Conn.QueryRow(
			"SELECT COUNT(*) FROM sqlite_master WHERE type='table' AND name=?", table,
		).Scan(&n))
		assert.Equal(t, 1, n, table)
	}

	var applied int
	require.NoError(t, db.Conn.QueryRow("SELECT COUNT(*) FROM schema_migrations").Scan(&applied))
	assert.Equal(t, 2, applied)
}

func TestNew_MigrationsRunOnce(t *testing.T) {
	path := filepath.Join(t.TempDir(), "once.db")
	migrations := fstest.MapFS{
		"001_init.sql":  {Data: []byte("CREATE TABLE kv_slots (namespace TEXT);")},
		"002_alter.sql": {Data: []byte("ALTER TABLE kv_slots ADD COLUMN note TEXT;")},
		"README.md":     {Data: []byte("not sql")},
	}

	db, err := New(path, migrations)
	require.NoError(t, err)
	require.NoError(t, db.Close())

	// İkinci açılışta ALTER TABLE tekrar çalışmamalı.
	db, err = New(path, migrations)
	require.NoError(t, err)
	require.NoError(t, db.Close())
}

func TestNew_RecoverableErrorSkipped(t *testing.T) {
	migrations := fstest.MapFS{
		"001_init.sql": {Data: []byte(`
CREATE TABLE kv_slots (namespace TEXT, note TEXT);
ALTER TABLE kv_slots ADD COLUMN note TEXT;
`)},
	}

	db, err := New(MemoryPath, migrations)
	require.NoError(t, err)
	db.Close()
}

func TestNew_BrokenMigrationFails(t *testing.T) {
	migrations := fstest.MapFS{
		"001_init.sql": {Data: []byte("CREATE TABLE ;")},
	}

	_, err := New(MemoryPath, migrations)
	require.Error(t, err)
}

func TestWithTx(t *testing.T) {
	ctx := context.Background()
	db, err := New(MemoryPath, Migrations())
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	insert := func(tx *sql.Tx, key string) error {
		_, err := tx.ExecContext(ctx,
			"INSERT INTO kv_slots (namespace, key, value) VALUES ('ns', ?, 'v')", key)
		return err
	}

	require.NoError(t, WithTx(ctx, db.Conn, func(tx *sql.Tx) error {
		return insert(tx, "committed")
	}))

	boom := errors.New("boom")
	err = WithTx(ctx, db.Conn, func(tx *sql.Tx) error {
		if err := insert(tx, "rolled-back"); err != nil {
			return err
		}
		return boom
	})
	require.ErrorIs(t, err, boom)

	assert.Panics(t, func() {
		_ = WithTx(ctx, db.Conn, func(tx *sql.Tx) error {
			_ = insert(tx, "panicked")
			panic("boom")
		})
	})

	var keys []string
	rows, err := db.Conn.QueryContext(ctx, "SELECT key FROM kv_slots ORDER BY key")
	require.NoError(t, err)
	defer rows.Close()
	for rows.Next() {
		var k string
		require.NoError(t, rows.Scan(&k))
		keys = append(keys, k)
	}
	require.NoError(t, rows.Err())
	assert.Equal(t, []string{"committed"}, keys)
}
