package testdb

import (
	"context"
	"strings"
	"sync"
	"testing"

	"github.com/gellahi/EduConnect-Pakistan/internal/db"
	"github.com/gellahi/EduConnect-Pakistan/internal/schema"

	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/modules/postgres"
	"github.com/testcontainers/testcontainers-go/wait"
	"github.com/uptrace/bun"
)

var (
	sharedContainer *PostgresContainer
	sharedMu        sync.Mutex
)

// PostgresContainer wraps the postgres testcontainer
type PostgresContainer struct {
	Container *postgres.PostgresContainer
	DB        *bun.DB
	DSN       string
}

// SetupSharedPostgres starts one migrated PostgreSQL container and hands it
// to every test until Cleanup is called.
//
// IMPORTANT: Tests using shared container CANNOT run in parallel!
//
// Usage:
//
//	func TestMyRepository(t *testing.T) {
//	    pgContainer := testdb.SetupSharedPostgres(t)
//	    defer pgContainer.Cleanup(t)  // only call once at top level
//
//	    t.Run("Case", func(t *testing.T) {
//	        testdb.CleanupTables(t, pgContainer.DB)
//	        // ... test
//	    })
//	}
func SetupSharedPostgres(t *testing.T) *PostgresContainer {
	t.Helper()

	sharedMu.Lock()
	defer sharedMu.Unlock()

	if sharedContainer != nil {
		return sharedContainer
	}

	ctx := context.Background()
	pgContainer, err := postgres.Run(ctx,
		"postgres:16-alpine",
		postgres.WithDatabase("testdb"),
		postgres.WithUsername("postgres"),
		postgres.WithPassword("postgres"),
		testcontainers.WithWaitStrategy(
			wait.ForLog("database system is ready to accept connections").
				WithOccurrence(2),
		),
	)
	require.NoError(t, err)

	connStr, err := pgContainer.ConnectionString(ctx, "sslmode=disable")
	require.NoError(t, err)

	database, err := db.NewWithDSN(ctx, connStr)
	require.NoError(t, err)

	require.NoError(t, schema.Migrate(ctx, database), "failed to migrate schema")

	sharedContainer = &PostgresContainer{
		Container: pgContainer,
		DB:        database,
		DSN:       connStr,
	}
	return sharedContainer
}

// Cleanup closes the pool and terminates the container. The next
// SetupSharedPostgres starts a fresh one.
func (pc *PostgresContainer) Cleanup(t *testing.T) {
	t.Helper()
	ctx := context.Background()

	sharedMu.Lock()
	defer sharedMu.Unlock()
	if sharedContainer == pc {
		sharedContainer = nil
	}

	if pc.DB != nil {
		pc.DB.Close()
	}

	if pc.Container != nil {
		if err := pc.Container.Terminate(ctx); err != nil {
			t.Logf("failed to terminate container: %s", err)
		}
	}
}

// CleanupTables truncates the given tables, or every table of the schema
// when none are named.
func CleanupTables(t *testing.T, database *bun.DB, tables ...string) {
	t.Helper()

	if len(tables) == 0 {
		tables = schema.Tables
	}

	_, err := database.ExecContext(context.Background(), "TRUNCATE "+strings.Join(tables, ", ")+" CASCADE")
	require.NoError(t, err, "failed to truncate tables: %v", tables)
}
