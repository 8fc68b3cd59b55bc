// Package pgtest boots one throwaway Postgres container per test binary and
// hands each test an isolated, fully migrated schema of its own.
package pgtest

import (
	"context"
	"database/sql"
	"fmt"
	"sync"
	"time"

	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/testcontainers/testcontainers-go/modules/postgres"
)

const (
	image    = "docker.io/postgres:16-alpine"
	dbName   = "radioboard"
	user     = "postgres"
	password = "pass"
)

var (
	bootOnce   sync.Once
	booted     bool
	bootErr    error
	pg         *postgres.PostgresContainer
	connString string
)

type failer interface {
	Helper()
	Fatalf(format string, args ...any)
}

// Boot starts the shared container. Call it from TestMain before m.Run.
func Boot(t failer) {
	t.Helper()
	bootOnce.Do(func() {
		booted = true
		ctx, cancel := context.WithTimeout(context.Background(), 120*time.Second)
		defer cancel()

		container, err := postgres.Run(ctx,
			image,
			postgres.WithDatabase(dbName),
			postgres.WithUsername(user),
			postgres.WithPassword(password),
			postgres.BasicWaitStrategies(),
		)
		if err != nil {
			bootErr = err
			return
		}
		pg = container

		host, err := container.Host(ctx)
		if err != nil {
			bootErr = err
			return
		}
		port, err := container.MappedPort(ctx, "5432/tcp")
		if err != nil {
			bootErr = err
			return
		}
		connString = fmt.Sprintf(
			"postgres://%s:%s@%s:%s/%s?sslmode=disable",
			user, password, host, port.Port(), dbName,
		)
	})
	if bootErr != nil {
		t.Fatalf("pgtest boot failed: %v", bootErr)
	}
}

// Shutdown terminates the shared container. Optional; call after m.Run.
func Shutdown() error {
	if pg == nil {
		return nil
	}
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	return pg.Terminate(ctx)
}

// adminDB opens a connection without any search_path override.
func adminDB(t failer) *sql.DB {
	t.Helper()
	if !booted {
		t.Fatalf("pgtest not booted. Call pgtest.Boot in TestMain first.")
	}
	db, err := sql.Open("pgx", connString)
	if err != nil {
		t.Fatalf("open admin: %v", err)
	}
	return db
}
