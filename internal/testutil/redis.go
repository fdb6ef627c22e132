// Package testutil provides shared test-container helpers for the
// monitoring core's integration tests, grounded on
// internal/cache/redis_integration_test.go's RedisContainer.
package testutil

import (
	"context"
	"fmt"

	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/wait"
)

// RedisContainer manages a Redis test container.
type RedisContainer struct {
	container testcontainers.Container
	host      string
	port      string
}

// StartRedisContainer starts a Redis container for integration tests.
func StartRedisContainer(ctx context.Context) (*RedisContainer, error) {
	req := testcontainers.ContainerRequest{
		Image:        "redis:7-alpine",
		ExposedPorts: []string{"6379/tcp"},
		WaitingFor:   wait.ForLog("Ready to accept connections"),
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

	mappedPort, err := container.MappedPort(ctx, "6379")
	if err != nil {
		return nil, err
	}

	return &RedisContainer{container: container, host: host, port: mappedPort.Port()}, nil
}

// Stop terminates the Redis container.
func (rc *RedisContainer) Stop(ctx context.Context) error {
	return rc.container.Terminate(ctx)
}

// Addr returns the "host:port" connection string.
func (rc *RedisContainer) Addr() string {
	return fmt.Sprintf("%s:%s", rc.host, rc.port)
}
