package repository

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/garyjia/hr-approvals/internal/infrastructure/persistence/sqlite"
	"github.com/garyjia/hr-approvals/migrations"
	"github.com/garyjia/hr-approvals/pkg/database"
)

func newTestDB(t *testing.T) *sqlite.DB {
	t.Helper()
	logger := zap.NewNop()

	db, err := database.New(database.Config{Path: filepath.Join(t.TempDir(), "hr.db"), MaxOpenConns: 4}, logger)
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })

	_, err = database.NewMigrator(db, logger).Run(context.Background(), migrations.FS)
	require.NoError(t, err)

	return sqlite.NewDB(db.DB, logger)
}
