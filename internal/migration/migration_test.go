package migration

import (
	"io/fs"
	"testing"

	"github.com/smallbiznis/shoecare/internal/config"
	"github.com/smallbiznis/shoecare/pkg/db"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func TestEmbeddedMigrationsArePaired(t *testing.T) {
	ups, err := fs.Glob(embeddedMigrations, "migrations/*.up.sql")
	require.NoError(t, err)
	downs, err := fs.Glob(embeddedMigrations, "migrations/*.down.sql")
	require.NoError(t, err)

	require.NotEmpty(t, ups)
	assert.Len(t, downs, len(ups))
}

func TestRunAutoMigratesSQLite(t *testing.T) {
	conn, err := db.NewTest()
	require.NoError(t, err)

	require.NoError(t, Run(conn, config.Config{DBType: "sqlite"}, zap.NewNop()))
	for _, table := range []string{"customers", "services", "orders", "order_items", "expenses", "audit_logs"} {
		assert.True(t, conn.Migrator().HasTable(table), table)
	}

	require.NoError(t, Run(conn, config.Config{DBType: "sqlite"}, zap.NewNop()))
}

func TestRunMigrationsRequiresHandle(t *testing.T) {
	assert.Error(t, RunMigrations(nil))
}
