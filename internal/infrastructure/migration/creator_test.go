package migration

import (
	"os"
	"path/filepath"
	"testing"
	"testing/fstest"

	"github.com/handmade/backend/migrations"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSanitizeName(t *testing.T) {
	tests := []struct {
		input    string
		expected string
	}{
		{"add reorder index", "add_reorder_index"},
		{"Add-Reorder-Index", "add_reorder_index"},
		{"ADD_REORDER_INDEX", "add_reorder_index"},
		{"add__reorder__index", "add_reorder_index"},
		{"Add Returns 2", "add_returns_2"},
		{"   spaces   ", "spaces"},
		{"special!@#$chars", "specialchars"},
		{"trailing_", "trailing"},
		{"_leading", "leading"},
		{"", ""},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			assert.Equal(t, tt.expected, sanitizeName(tt.input))
		})
	}
}

func TestCreateMigration(t *testing.T) {
	t.Run("first migration in an empty directory", func(t *testing.T) {
		dir := t.TempDir()
		mf, err := CreateMigration(dir, "create stock records", "ledger table")
		require.NoError(t, err)

		assert.Equal(t, uint(1), mf.Version)
		assert.Equal(t, "create_stock_records", mf.Name)
		assert.Equal(t, filepath.Join(dir, "000001_create_stock_records.up.sql"), mf.UpPath)
		assert.Equal(t, filepath.Join(dir, "000001_create_stock_records.down.sql"), mf.DownPath)

		up, err := os.ReadFile(mf.UpPath)
		require.NoError(t, err)
		assert.Contains(t, string(up), "-- Migration: create_stock_records")
		assert.Contains(t, string(up), "-- ledger table")

		down, err := os.ReadFile(mf.DownPath)
		require.NoError(t, err)
		assert.Contains(t, string(down), "-- Rollback: create_stock_records")
	})

	t.Run("numbers past the highest existing version", func(t *testing.T) {
		dir := t.TempDir()
		require.NoError(t, os.WriteFile(filepath.Join(dir, "000007_old.up.sql"), nil, 0o644))
		require.NoError(t, os.WriteFile(filepath.Join(dir, "000007_old.down.sql"), nil, 0o644))

		mf, err := CreateMigration(dir, "add returns", "")
		require.NoError(t, err)
		assert.Equal(t, uint(8), mf.Version)

		up, err := os.ReadFile(mf.UpPath)
		require.NoError(t, err)
		assert.NotContains(t, string(up), "-- \n")
	})

	t.Run("creates a missing directory", func(t *testing.T) {
		dir := filepath.Join(t.TempDir(), "nested", "migrations")
		_, err := CreateMigration(dir, "init", "")
		require.NoError(t, err)
		assert.DirExists(t, dir)
	})

	t.Run("rejects a name with no usable characters", func(t *testing.T) {
		_, err := CreateMigration(t.TempDir(), "!!!", "")
		assert.Error(t, err)
	})
}

func TestListMigrations(t *testing.T) {
	t.Run("orders by version and ignores stray files", func(t *testing.T) {
		fsys := fstest.MapFS{
			"000010_tenth.up.sql":    {},
			"000010_tenth.down.sql":  {},
			"000002_second.up.sql":   {},
			"000001_first.up.sql":    {},
			"README.md":              {},
			"abc_bad.up.sql":         {},
			"nested/000003_x.up.sql": {},
		}
		list, err := ListMigrations(fsys)
		require.NoError(t, err)
		assert.Equal(t, []Info{
			{Version: 1, Name: "first"},
			{Version: 2, Name: "second"},
			{Version: 10, Name: "tenth"},
		}, list)
		assert.Equal(t, "000010_tenth", list[2].Base())
	})

	t.Run("embedded schema migrations are sequential", func(t *testing.T) {
		list, err := ListMigrations(migrations.FS)
		require.NoError(t, err)
		require.NotEmpty(t, list)
		for i, m := range list {
			assert.Equal(t, uint(i+1), m.Version, m.Name)
		}
	})
}

func TestStatus_Pending(t *testing.T) {
	assert.True(t, Status{Version: 1, Latest: 3}.Pending())
	assert.False(t, Status{Version: 3, Latest: 3}.Pending())
}
