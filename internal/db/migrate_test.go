package db

import (
	"io/fs"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func tableExists(t *testing.T, db *DB, name string) bool {
	t.Helper()
	var n int
	err := db.QueryRow(`SELECT COUNT(*) FROM sqlite_master WHERE type = 'table' AND name = ?`, name).Scan(&n)
	require.NoError(t, err)
	return n > 0
}

func TestEmbeddedMigrations(t *testing.T) {
	sub, err := MigrationsFS()
	require.NoError(t, err)
	entries, err := fs.ReadDir(sub, ".")
	require.NoError(t, err)

	var names []string
	for _, e := range entries {
		names = append(names, e.Name())
	}
	assert.Contains(t, names, "000001_nutrition.up.sql")
	assert.Contains(t, names, "000001_nutrition.down.sql")
	assert.Zero(t, len(names)%2, "every up migration has a down")
}

func TestMigrateUpDown(t *testing.T) {
	db, err := OpenDB(filepath.Join(t.TempDir(), "wheyout.db"))
	require.NoError(t, err)
	defer db.Close()

	version, dirty, err := db.MigrateVersion()
	require.NoError(t, err)
	assert.Zero(t, version)
	assert.False(t, dirty)
	assert.False(t, tableExists(t, db, "nutrition_entries"))

	require.NoError(t, db.MigrateUp())
	require.NoError(t, db.MigrateUp(), "second up is a no-op")
	version, dirty, err = db.MigrateVersion()
	require.NoError(t, err)
	assert.Equal(t, uint(1), version)
	assert.False(t, dirty)
	assert.True(t, tableExists(t, db, "nutrition_entries"))
	assert.True(t, tableExists(t, db, "granted_permissions"))

	require.NoError(t, db.MigrateDown())
	version, _, err = db.MigrateVersion()
	require.NoError(t, err)
	assert.Zero(t, version)
	assert.False(t, tableExists(t, db, "nutrition_entries"))
	assert.False(t, tableExists(t, db, "granted_permissions"))
}
