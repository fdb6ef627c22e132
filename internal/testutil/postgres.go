package testutil

import (
	"context"
	"fmt"

	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/wait"
)

// PostgresContainer manages a Postgres test container, following the
// same shape as RedisContainer.
type PostgresContainer struct {
	container testcontainers.Container
	host      string
	port      string
}

const (
	pgUser = "tradewatch"
	pgPass = "tradewatch"
	pgDB   = "tradewatch_test"
)

// StartPostgresContainer starts a Postgres container for integration tests.
func StartPostgresContainer(ctx context.Context) (*PostgresContainer, error) {
	req := testcontainers.ContainerRequest{
		Image:        "postgres:16-alpine",
		ExposedPorts: []string{"5432/tcp"},
		Env: map[string]string{
			"POSTGRES_USER":     pgUser,
			"POSTGRES_PASSWORD": pgPass,
			"POSTGRES_DB":       pgDB,
		},
		WaitingFor: wait.ForLog("database system is ready to accept connections").WithOccurrence(2),
	}

	container, err := testcontainers.GenericContainer(ctx, testcontainers.GenericContainerRequest{
		ContainerRequest: req,
		Started:          true,
	})
	if err != nil {
		return nil, err
	}

	host, err := container.Host(ctx)
	if err != nil {
		return nil, err
	}

	mappedPort, err := container.MappedPort(ctx, "5432")
	if err != nil {
		return nil, err
	}

	return &PostgresContainer{container: container, host: host, port: mappedPort.Port()}, nil
}

// Stop terminates the Postgres container.
func (pc *PostgresContainer) Stop(ctx context.Context) error {
	return pc.container.Terminate(ctx)
}

// DSN returns a lib/pq-compatible connection string.
func (pc *PostgresContainer) DSN() string {
	return fmt.Sprintf("host=%s port=%s user=%s password=%s dbname=%s sslmode=disable",
		pc.host, pc.port, pgUser, pgPass, pgDB)
}

// Host returns the container's mapped host.
func (pc *PostgresContainer) Host() string { return pc.host }

// Port returns the container's mapped Postgres port.
func (pc *PostgresContainer) Port() string { return pc.port }

// User returns the test superuser name.
func (pc *PostgresContainer) User() string { return pgUser }

// Password returns the test superuser password.
func (pc *PostgresContainer) Password() string { return pgPass }

// DBName returns the test database name.
func (pc *PostgresContainer) DBName() string { return pgDB }
