package db_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/vytor/quizrunner/internal/db"
)

func TestOpen_SQLiteAppliesMigrations(t *testing.T) {
	ctx := context.Background()
	d, err := db.Open(ctx, db.DriverSQLite, ":memory:")
	require.NoError(t, err)
	defer d.Close()

	assert.Equal(t, db.DriverSQLite, d.Driver())

	var count int
	require.NoError(t, d.QueryRowContext(ctx, `SELECT COUNT(*) FROM schema_migrations`).Scan(&count))
	assert.Equal(t, 2, count)

	_, err = d.ExecContext(ctx, `SELECT attempt_id, status, finished_at FROM attempts`)
	assert.NoError(t, err)
}

func TestMigrate_Idempotent(t *testing.T) {
	ctx := context.Background()
	d, err := db.Open(ctx, db.DriverSQLite, ":memory:")
	require.NoError(t, err)
	defer d.Close()

	require.NoError(t, d.Migrate(ctx))

	var count int
	require.NoError(t, d.QueryRowContext(ctx, `SELECT COUNT(*) FROM schema_migrations`).Scan(&count))
	assert.Equal(t, 2, count)
}

func TestOpen_UnsupportedDriver(t *testing.T) {
	_, err := db.Open(context.Background(), "mysql", "whatever")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unsupported database driver")
}

func TestBuilderFor_Placeholders(t *testing.T) {
	query, _, err := db.BuilderFor(db.DriverPostgres).Select("a").From("t").Where("b = ?", 1).ToSql()
	require.NoError(t, err)
	assert.Equal(t, "SELECT a FROM t WHERE b = $1", query)

	query, _, err = db.BuilderFor(db.DriverSQLite).Select("a").From("t").Where("b = ?", 1).ToSql()
	require.NoError(t, err)
	assert.Equal(t, "SELECT a FROM t WHERE b = ?", query)
}
