//go:build integration

package handlers

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"testing"
	"time"

	"github.com/joho/godotenv"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	tcpostgres "github.com/testcontainers/testcontainers-go/modules/postgres"
	"github.com/testcontainers/testcontainers-go/wait"

	"github.com/hongminglow/hermes-be/internal/storage/postgres"
)

// TestAuthIntegration exercises register, sign-in and the dashboards against
// a real Postgres started in a container.
func TestAuthIntegration(t *testing.T) {
	_ = godotenv.Load("../../../.env")
	image := os.Getenv("POSTGRES_TEST_IMAGE")
	if image == "" {
		image = "postgres:16-alpine"
	}

	ctx := context.Background()
	container, err := tcpostgres.Run(ctx, image,
		tcpostgres.WithDatabase("hermes"),
		tcpostgres.WithUsername("hermes"),
		tcpostgres.WithPassword("hermes"),
		testcontainers.WithWaitStrategy(
			wait.ForLog("database system is ready to accept connections").
				WithOccurrence(2).
				WithStartupTimeout(60*time.Second)),
	)
	require.NoError(t, err)
	t.Cleanup(func() { _ = container.Terminate(ctx) })

	dbURL, err := container.ConnectionString(ctx, "sslmode=disable")
	require.NoError(t, err)

	migrator, err := postgres.NewMigrator(dbURL)
	require.NoError(t, err)
	require.NoError(t, migrator.Up())
	require.NoError(t, migrator.Close())

	store, err := postgres.NewUserStore(ctx, dbURL, 3)
	require.NoError(t, err)
	t.Cleanup(store.Close)

	env := newTestEnvWithStore(t, store)

	email := fmt.Sprintf("it_%d@example.com", time.Now().UnixNano())
	token := env.register(t, email, "secret123", "investor")

	rec := env.postJSON(t, "/api/auth/register", map[string]string{"email": email, "password": "secret123"})
	assert.Equal(t, http.StatusConflict, rec.Code)

	rec = env.postJSON(t, "/api/auth/signin", map[string]string{"email": email, "password": "wrong-one"})
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, "/dashboard/investor", nil)
	require.NoError(t, err)
	rec = env.do(t, withSession(req, token))
	assert.Equal(t, http.StatusOK, rec.Code)

	req, err = http.NewRequestWithContext(ctx, http.MethodGet, "/dashboard/startup", nil)
	require.NoError(t, err)
	rec = env.do(t, withSession(req, token))
	assert.Equal(t, http.StatusFound, rec.Code)
	assert.Equal(t, "/unauthorized", rec.Header().Get("Location"))
}
