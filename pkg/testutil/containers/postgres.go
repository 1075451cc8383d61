//go:build integration

package containers

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"testing"
	"time"

	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/modules/postgres"
	"github.com/testcontainers/testcontainers-go/wait"

	"cashwallet/internal/platform/config"
	"cashwallet/internal/platform/database"
	"cashwallet/migrations"
)

// appTables lists every migrated table, children first.
var appTables = []string{"outbox", "wallets", "accounts"}

type PostgresContainer struct {
	Container testcontainers.Container
	DSN       string
	Pool      *database.Pool
	DB        *sql.DB
}

// NewPostgresContainer starts Postgres, opens it through the application pool
// and applies the embedded migrations.
func NewPostgresContainer(t *testing.T) *PostgresContainer {
	t.Helper()
	ctx := context.Background()

	container, err := postgres.Run(ctx,
		"postgres:18-alpine",
		postgres.WithDatabase("cashwallet_test"),
		postgres.WithUsername("cashwallet"),
		postgres.WithPassword("cashwallet_test_password"),
		testcontainers.WithWaitStrategy(
			wait.ForLog("database system is ready to accept connections").
				WithOccurrence(2).
				WithStartupTimeout(60*time.Second),
		),
	)
	if err != nil {
		t.Fatalf("start postgres container: %v", err)
	}
	fail := func(format string, args ...any) {
		_ = container.Terminate(ctx)
		t.Fatalf(format, args...)
	}

	dsn, err := container.ConnectionString(ctx, "sslmode=disable")
	if err != nil {
		fail("postgres connection string: %v", err)
	}

	pool, err := database.New(ctx, config.Database{
		URL:             dsn,
		MaxOpenConns:    10,
		MaxIdleConns:    2,
		ConnMaxLifetime: time.Minute,
	})
	if err != nil {
		fail("open postgres pool: %v", err)
	}

	if _, err := database.Migrate(ctx, pool.DB(), migrations.FS); err != nil {
		_ = pool.Close()
		fail("run migrations: %v", err)
	}

	return &PostgresContainer{Container: container, DSN: dsn, Pool: pool, DB: pool.DB()}
}

// TruncateAll clears every application table in one statement.
func (p *PostgresContainer) TruncateAll(ctx context.Context) error {
	if _, err := p.DB.ExecContext(ctx, "TRUNCATE TABLE "+strings.Join(appTables, ", ")+" CASCADE"); err != nil {
		return fmt.Errorf("truncate %v: %w", appTables, err)
	}
	return nil
}
