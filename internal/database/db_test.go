package database

import (
	"fmt"
	"os"
	"strings"
	"testing"
	"time"

	"erp-backend/internal/logger"
	"erp-backend/internal/model"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestOpenLeavesSchemaAlone(t *testing.T) {
	dsn := os.Getenv("TEST_DATABASE_DSN")
	if dsn == "" {
		t.Skip("TEST_DATABASE_DSN not set")
	}
	root, err := Open(dsn)
	require.NoError(t, err)

	schema := fmt.Sprintf("audit_test_%d", time.Now().UnixNano())
	require.NoError(t, root.Exec("CREATE SCHEMA "+schema).Error)
	t.Cleanup(func() { root.Exec("DROP SCHEMA " + schema + " CASCADE") })
	scoped := withSearchPath(dsn, schema)

	db, err := Open(scoped)
	require.NoError(t, err)
	assert.False(t, db.Migrator().HasTable(&model.Product{}))

	db, err = NewConnection(scoped, logger.Discard())
	require.NoError(t, err)
	assert.True(t, db.Migrator().HasTable(&model.Product{}))
	assert.True(t, db.Migrator().HasTable(&model.StockMovement{}))
}

func withSearchPath(dsn, schema string) string {
	switch {
	case !strings.Contains(dsn, "://"):
		return dsn + " search_path=" + schema
	case strings.Contains(dsn, "?"):
		return dsn + "&search_path=" + schema
	default:
		return dsn + "?search_path=" + schema
	}
}
