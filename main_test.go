package main

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"testing"
	"time"

	"elibrary/internal/config"
	"elibrary/internal/database"
	"elibrary/internal/models"
	"elibrary/internal/repositories"
	"elibrary/pkg/logger"

	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type nopNotifier struct{}

func (nopNotifier) Send(context.Context, string, string, string) error { return nil }

func testConfig(t *testing.T) *config.Config {
	t.Helper()
	v := viper.New()
	config.SetDefaults(v)
	v.Set("JWT_KEY", "0123456789abcdef0123456789abcdef")
	v.Set("DATABASE_DSN", "file::memory:")
	cfg, err := config.FromViper(v)
	require.NoError(t, err)
	return cfg
}

func setupTestApplication(t *testing.T) *application {
	t.Helper()
	cfg := testConfig(t)
	db, err := database.OpenMemory()
	require.NoError(t, err)
	require.NoError(t, database.SeedAdmin(context.Background(), repositories.NewGORMUserRepository(db), cfg.AdminEmail, cfg.AdminPassword))
	return newApplication(cfg, db, nopNotifier{}, nil)
}

func TestMain(m *testing.M) {
	logger.Silence()
	os.Exit(m.Run())
}

func TestHealthCheck(t *testing.T) {
	app := newServer(setupTestApplication(t))

	req := httptest.NewRequest(http.MethodGet, "/health", nil)
	resp, err := app.Test(req, -1)
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	var body map[string]string
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
	assert.Equal(t, "healthy", body["status"])
	assert.Equal(t, "connected", body["database"])
	assert.Equal(t, "disabled", body["rabbitmq"])
}

type stubBroker struct{ healthy bool }

func (stubBroker) PublishJSON(string, any) error { return nil }

func (b stubBroker) Healthy() bool { return b.healthy }

func TestHealthCheck_ReportsBrokerState(t *testing.T) {
	for _, tc := range []struct {
		healthy bool
		want    string
	}{
		{healthy: true, want: "connected"},
		{healthy: false, want: "disconnected"},
	} {
		db, err := database.OpenMemory()
		require.NoError(t, err)
		app := newServer(newApplication(testConfig(t), db, nopNotifier{}, stubBroker{healthy: tc.healthy}))

		resp, err := app.Test(httptest.NewRequest(http.MethodGet, "/health", nil), -1)
		require.NoError(t, err)

		var body map[string]string
		require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
		resp.Body.Close()
		assert.Equal(t, http.StatusOK, resp.StatusCode)
		assert.Equal(t, tc.want, body["rabbitmq"])
	}
}

func TestSeededAdminCanLogin(t *testing.T) {
	a := setupTestApplication(t)
	app := newServer(a)

	payload, _ := json.Marshal(map[string]string{"username_or_email": "admin", "password": "Admin@123"})
	req := httptest.NewRequest(http.MethodPost, "/api/v1/auth/login", bytes.NewReader(payload))
	req.Header.Set("Content-Type", "application/json")
	resp, err := app.Test(req, -1)
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var body map[string]interface{}
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
	assert.Equal(t, string(models.RoleAdmin), body["role"])

	claims, err := a.tokens.Validate(body["token"].(string))
	require.NoError(t, err)
	assert.Equal(t, models.RoleAdmin, claims.Role)
}

func TestReminderSchedulerIsWired(t *testing.T) {
	a := setupTestApplication(t)
	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()

	sent, err := a.reminders.RunOnce(ctx)
	require.NoError(t, err)
	assert.Zero(t, sent)
}
