package persistence

import (
	"context"
	"io/fs"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func TestMigrationNames_Ordered(t *testing.T) {
	names, err := MigrationNames()
	require.NoError(t, err)
	assert.Equal(t, []string{"0001_init.sql", "0002_events.sql", "0003_gallery.sql"}, names)
}

func TestMigrations_DefineSchema(t *testing.T) {
	var all strings.Builder
	names, err := MigrationNames()
	require.NoError(t, err)
	for _, name := range names {
		content, err := fs.ReadFile(migrationFiles, migrationsDir+"/"+name)
		require.NoError(t, err)
		all.Write(content)
	}

	schema := all.String()
	for _, table := range []string{"users", "events", "albums", "media"} {
		assert.Contains(t, schema, "CREATE TABLE IF NOT EXISTS "+table+" (")
	}
	assert.Contains(t, schema, "events_share_token_key")
	assert.Contains(t, schema, "albums_share_token_key")
	assert.Contains(t, schema, "users_username_key")
}

func TestRunMigrations_NoPool(t *testing.T) {
	require.NoError(t, RunMigrations(context.Background(), nil, zap.NewNop()))
}
