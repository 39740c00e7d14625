package database

import (
	"database/sql"
	"errors"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newDB(t *testing.T, name string, profile DatabaseProfile) *DB {
	t.Helper()
	db, err := New(Config{
		Path:    filepath.Join(t.TempDir(), "nested", name+".db"),
		Profile: profile,
		Name:    name,
	})
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })
	return db
}

func tableExists(t *testing.T, db *DB, table string) bool {
	t.Helper()
	var n int
	err := db.Conn().QueryRow(`SELECT COUNT(*) FROM sqlite_master WHERE type = 'table' AND name = ?`, table).Scan(&n)
	require.NoError(t, err)
	return n == 1
}

func TestMigrate_CreatesTables(t *testing.T) {
	snippets := newDB(t, NameSnippets, ProfileCache)
	require.NoError(t, snippets.Migrate())
	require.NoError(t, snippets.Migrate(), "migrations are idempotent")
	assert.True(t, tableExists(t, snippets, "snippets"))

	history := newDB(t, NameHistory, ProfileStandard)
	require.NoError(t, history.Migrate())
	assert.True(t, tableExists(t, history, "stance_history"))
	assert.True(t, tableExists(t, history, "tracker_runs"))
	assert.Equal(t, ProfileStandard, history.Profile())
}

func TestMigrate_UnknownNameIsNoop(t *testing.T) {
	db := newDB(t, "scratch", "")
	assert.NoError(t, db.Migrate())
	assert.Equal(t, ProfileStandard, db.Profile())
}

func TestSchema(t *testing.T) {
	s, err := Schema(NameHistory)
	require.NoError(t, err)
	assert.Contains(t, s, "stance_history")

	_, err = Schema("missing")
	assert.Error(t, err)
}

func TestWithTransaction(t *testing.T) {
	db := newDB(t, NameSnippets, ProfileCache)
	require.NoError(t, db.Migrate())

	insert := func(tx *sql.Tx, title string) error {
		_, err := tx.Exec(`INSERT INTO snippets (participant_id, title, fetched_at) VALUES ('powell', ?, 0)`, title)
		return err
	}

	require.NoError(t, WithTransaction(db.Conn(), func(tx *sql.Tx) error {
		return insert(tx, "committed")
	}))

	err := WithTransaction(db.Conn(), func(tx *sql.Tx) error {
		require.NoError(t, insert(tx, "rolled back"))
		return errors.New("boom")
	})
	assert.ErrorContains(t, err, "boom")

	err = WithTransaction(db.Conn(), func(tx *sql.Tx) error {
		require.NoError(t, insert(tx, "panicked"))
		panic("unexpected")
	})
	assert.ErrorContains(t, err, "panic in transaction")

	var n int
	require.NoError(t, db.Conn().QueryRow(`SELECT COUNT(*) FROM snippets`).Scan(&n))
	assert.Equal(t, 1, n)

	assert.Error(t, WithTransaction(nil, func(*sql.Tx) error { return nil }))
}

func TestStatsAndCheckpoint(t *testing.T) {
	db := newDB(t, NameHistory, ProfileStandard)
	require.NoError(t, db.Migrate())

	require.NoError(t, db.WALCheckpoint(""))
	stats, err := db.GetStats()
	require.NoError(t, err)
	assert.Positive(t, stats.PageCount)
	assert.Positive(t, stats.PageSize)
}
