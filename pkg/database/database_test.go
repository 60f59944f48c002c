package database

import (
	"context"
	"path/filepath"
	"testing"
	"testing/fstest"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func openTestDB(t *testing.T) *DB {
	t.Helper()
	db, err := New(Config{
		Driver:       DriverSQLite,
		Path:         filepath.Join(t.TempDir(), "test.db"),
		MaxOpenConns: 1,
	}, zap.NewNop())
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })
	return db
}

func TestNew_UnsupportedDriver(t *testing.T) {
	_, err := New(Config{Driver: "oracle"}, nil)
	assert.Error(t, err)

	_, err = New(Config{Driver: DriverPostgres}, nil)
	assert.Error(t, err)
}

func TestRunMigrations(t *testing.T) {
	ctx := context.Background()
	db := openTestDB(t)
	migrator := NewMigrator(db, nil)

	require.NoError(t, migrator.RunMigrations(ctx))
	// applying twice is a no-op
	require.NoError(t, migrator.RunMigrations(ctx))

	var count int
	require.NoError(t, db.QueryRowContext(ctx, "SELECT COUNT(*) FROM schema_migrations").Scan(&count))
	assert.Equal(t, 1, count)

	for _, table := range []string{"societies", "users", "transactions", "transaction_remarks", "transaction_attachments", "notifications"} {
		var name string
		err := db.QueryRowContext(ctx, "SELECT name FROM sqlite_master WHERE type = 'table' AND name = ?", table).Scan(&name)
		assert.NoError(t, err, table)
	}
}

func TestRunMigrationsFS_Order(t *testing.T) {
	ctx := context.Background()
	db := openTestDB(t)

	fsys := fstest.MapFS{
		"002_add_column.sql": {Data: []byte("ALTER TABLE things ADD COLUMN label TEXT;")},
		"001_create.sql":     {Data: []byte("-- things\nCREATE TABLE things (\n    id INTEGER PRIMARY KEY\n);\n")},
		"README.md":          {Data: []byte("ignored")},
	}
	require.NoError(t, NewMigrator(db, nil).RunMigrationsFS(ctx, fsys))

	_, err := db.ExecContext(ctx, "INSERT INTO things (id, label) VALUES (1, 'x')")
	assert.NoError(t, err)
}

func TestRunMigrationsFS_BadFilename(t *testing.T) {
	db := openTestDB(t)
	fsys := fstest.MapFS{"create.sql": {Data: []byte("SELECT 1;")}}
	assert.Error(t, NewMigrator(db, nil).RunMigrationsFS(context.Background(), fsys))
}

func TestSplitStatements(t *testing.T) {
	script := `
-- comment
CREATE TABLE a (
    id TEXT
);

CREATE INDEX idx_a ON a (id);
SELECT 1`

	stmts := splitStatements(script)
	require.Len(t, stmts, 3)
	assert.Equal(t, "CREATE TABLE a (\n    id TEXT\n);", stmts[0])
	assert.Equal(t, "CREATE INDEX idx_a ON a (id);", stmts[1])
	assert.Equal(t, "SELECT 1", stmts[2])
}

func TestPlaceholder(t *testing.T) {
	db := openTestDB(t)
	query, _, err := db.Builder().Select("id").From("users").Where("email = ?", "a@b.c").ToSql()
	require.NoError(t, err)
	assert.Equal(t, "SELECT id FROM users WHERE email = ?", query)

	pg := &DB{driver: DriverPostgres}
	query, _, err = pg.Builder().Select("id").From("users").Where("email = ?", "a@b.c").ToSql()
	require.NoError(t, err)
	assert.Equal(t, "SELECT id FROM users WHERE email = $1", query)
}
