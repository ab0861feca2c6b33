package infra_test

import (
	"context"
	"io/fs"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"

	"wayfarer/internal/infra"
	"wayfarer/internal/infra/testdb"
	"wayfarer/migrations"
)

func TestEmbeddedMigrationsAreAnnotated(t *testing.T) {
	files, err := fs.Glob(migrations.FS, "*.sql")
	require.NoError(t, err)
	require.Len(t, files, 3)
	for _, name := range files {
		raw, err := fs.ReadFile(migrations.FS, name)
		require.NoError(t, err)
		require.Contains(t, string(raw), "-- +goose Up", name)
		require.Contains(t, string(raw), "-- +goose Down", name)
		require.Less(t, strings.Index(string(raw), "+goose Up"), strings.Index(string(raw), "+goose Down"), name)
	}
}

func TestMigrateIsIdempotent(t *testing.T) {
	db := testdb.Open(t)
	ctx := context.Background()

	applied, err := infra.Migrate(ctx, db, migrations.FS)
	require.NoError(t, err)
	require.Zero(t, applied)

	var version int64
	require.NoError(t, db.QueryRow(ctx, "SELECT MAX(version_id) FROM goose_db_version").Scan(&version))
	require.EqualValues(t, 3, version)
}
