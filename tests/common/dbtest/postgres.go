//go:build integration

package dbtest

import (
	"context"
	"fmt"
	"sync"
	"testing"
	"time"

	"flashdrop/migrations"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/wait"
)

const (
	testUser     = "test"
	testPassword = "testpass"
	testDBName   = "flashdrop_test"
)

var (
	containerOnce sync.Once
	containerDSN  string
	containerErr  error
)

// SetupPool starts a shared PostgreSQL container on first use, applies the
// embedded migrations and hands back a pool. Tables are truncated when the
// test finishes so tests stay independent.
func SetupPool(t *testing.T) *pgxpool.Pool {
	t.Helper()

	containerOnce.Do(startContainer)
	require.NoError(t, containerErr, "failed to start postgres container")

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	pool, err := pgxpool.New(ctx, containerDSN)
	require.NoError(t, err)

	require.NoError(t, migrations.Apply(ctx, pool))

	t.Cleanup(func() {
		truncateAll(t, pool)
		pool.Close()
	})

	return pool
}

func startContainer() {
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Minute)
	defer cancel()

	container, err := testcontainers.GenericContainer(ctx, testcontainers.GenericContainerRequest{
		ContainerRequest: testcontainers.ContainerRequest{
			Image:        "postgres:16-alpine",
			ExposedPorts: []string{"5432/tcp"},
			Env: map[string]string{
				"POSTGRES_USER":     testUser,
				"POSTGRES_PASSWORD": testPassword,
				"POSTGRES_DB":       testDBName,
			},
			WaitingFor: wait.ForListeningPort("5432/tcp").WithStartupTimeout(time.Minute),
		},
		Started: true,
	})
	if err != nil {
		containerErr = err
		return
	}

	host, err := container.Host(ctx)
	if err != nil {
		containerErr = err
		return
	}
	port, err := container.MappedPort(ctx, "5432/tcp")
	if err != nil {
		containerErr = err
		return
	}

	containerDSN = fmt.Sprintf("postgres://%s:%s@%s:%s/%s?sslmode=disable",
		testUser, testPassword, host, port.Port(), testDBName)
}

func truncateAll(t *testing.T, pool *pgxpool.Pool) {
	t.Helper()

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	_, err := pool.Exec(ctx, `TRUNCATE purchases, reservations, drops CASCADE`)
	require.NoError(t, err)
}
