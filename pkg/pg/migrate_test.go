package pg_test

import (
	"context"
	"log/slog"
	"os"
	"testing"
	"testing/fstest"

	"github.com/jackc/pgx/v5"
	"github.com/repclub/mfakit/pkg/pg"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMigrate_NilFS(t *testing.T) {
	t.Parallel()
	err := pg.Migrate(context.Background(), nil, pg.Config{}, nil, "migrations", slog.Default())
	assert.ErrorIs(t, err, pg.ErrMigrationsNotProvided)
}

func TestMigrate_Postgres(t *testing.T) {
	url := os.Getenv("PG_CONN_URL")
	if url == "" {
		t.Skip("PG_CONN_URL not set")
	}

	ctx := context.Background()
	cfg := pg.Config{
		ConnectionString: url,
		MaxOpenConns:     2,
		RetryAttempts:    1,
		MigrationsTable:  "pg_pkg_test_migrations",
	}
	pool, err := pg.Connect(ctx, cfg)
	require.NoError(t, err)
	defer pool.Close()

	require.NoError(t, pg.Healthcheck(pool)(ctx))

	fsys := fstest.MapFS{
		"sql/00001_probe.sql": &fstest.MapFile{Data: []byte(`-- +goose Up
CREATE TABLE IF NOT EXISTS pg_pkg_probe (id int primary key);

-- +goose Down
DROP TABLE IF EXISTS pg_pkg_probe;
`)},
	}
	t.Cleanup(func() {
		_, _ = pool.Exec(ctx, "DROP TABLE IF EXISTS pg_pkg_probe")
		_, _ = pool.Exec(ctx, "DROP TABLE IF EXISTS pg_pkg_test_migrations")
	})

	require.NoError(t, pg.Migrate(ctx, pool, cfg, fsys, "sql", slog.Default()))
	// Re-running is a no-op.
	require.NoError(t, pg.Migrate(ctx, pool, cfg, fsys, "sql", slog.Default()))

	err = pg.WithTx(ctx, pool, func(tx pgx.Tx) error {
		_, err := tx.Exec(ctx, "INSERT INTO pg_pkg_probe (id) VALUES (1)")
		return err
	})
	require.NoError(t, err)

	var n int
	require.NoError(t, pool.QueryRow(ctx, "SELECT count(*) FROM pg_pkg_probe").Scan(&n))
	assert.Equal(t, 1, n)

	err = pg.WithTx(ctx, pool, func(tx pgx.Tx) error {
		_, err := tx.Exec(ctx, "INSERT INTO pg_pkg_probe (id) VALUES (1)")
		return err
	})
	assert.True(t, pg.IsDuplicateKeyError(err))
}
