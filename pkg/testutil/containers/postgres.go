//go:build integration

package containers

import (
	"context"
	"database/sql"
	"testing"

	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/testcontainers/testcontainers-go"
	tcpostgres "github.com/testcontainers/testcontainers-go/modules/postgres"

	"deedflow/migrations"
)

// PostgresContainer wraps a testcontainers Postgres instance with the
// schema applied.
type PostgresContainer struct {
	Container testcontainers.Container
	DB        *sql.DB
}

// NewPostgresContainer starts a Postgres container, applies the schema, and
// returns a ready database handle. The container is cleaned up when the test
// finishes.
func NewPostgresContainer(t *testing.T) *PostgresContainer {
	t.Helper()

	ctx := context.Background()

	container, err := tcpostgres.Run(ctx, "postgres:16-alpine",
		tcpostgres.WithDatabase("deedflow_test"),
		tcpostgres.WithUsername("deedflow"),
		tcpostgres.WithPassword("deedflow"),
		tcpostgres.BasicWaitStrategies(),
	)
	if err != nil {
		t.Fatalf("start postgres container: %v", err)
	}
	t.Cleanup(func() {
		_ = container.Terminate(context.Background())
	})

	dsn, err := container.ConnectionString(ctx, "sslmode=disable")
	if err != nil {
		t.Fatalf("postgres connection string: %v", err)
	}

	db, err := sql.Open("pgx", dsn)
	if err != nil {
		t.Fatalf("open postgres: %v", err)
	}
	t.Cleanup(func() {
		_ = db.Close()
	})
	if err := db.PingContext(ctx); err != nil {
		t.Fatalf("ping postgres: %v", err)
	}

	if _, err := db.ExecContext(ctx, migrations.Schema); err != nil {
		t.Fatalf("apply schema: %v", err)
	}

	return &PostgresContainer{
		Container: container,
		DB:        db,
	}
}

// TruncateTables clears the given tables. Use between tests sharing a
// container; list children before parents.
func (p *PostgresContainer) TruncateTables(ctx context.Context, tables ...string) error {
	for _, table := range tables {
		if _, err := p.DB.ExecContext(ctx, "TRUNCATE TABLE "+table+" CASCADE"); err != nil {
			return err
		}
	}
	return nil
}
