package postgres

import (
	"io/fs"
	"strings"
	"testing"

	"github.com/golang-migrate/migrate/v4/source/iofs"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEmbeddedMigrations(t *testing.T) {
	entries, err := fs.ReadDir(migrationFiles, migrationsDir)
	require.NoError(t, err)

	ups, downs := 0, 0
	for _, e := range entries {
		switch {
		case strings.HasSuffix(e.Name(), ".up.sql"):
			ups++
		case strings.HasSuffix(e.Name(), ".down.sql"):
			downs++
		}
	}
	assert.Equal(t, 2, ups)
	assert.Equal(t, ups, downs, "every migration needs a down file")

	src, err := iofs.New(migrationFiles, migrationsDir)
	require.NoError(t, err)
	first, err := src.First()
	require.NoError(t, err)
	assert.Equal(t, uint(1), first)
}

func TestCustomerMigrationDefinesMFAColumns(t *testing.T) {
	body, err := fs.ReadFile(migrationFiles, "migrations/000001_create_customers.up.sql")
	require.NoError(t, err)

	for _, col := range []string{"is_mfa_enabled", "mfa_secret", "mfa_enabled_at", "account_number", "date_of_birth"} {
		assert.Contains(t, string(body), col)
	}
}
