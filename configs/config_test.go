package configs

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestInitConfig_DefaultsWithoutFile(t *testing.T) {
	cfg, err := InitConfig(filepath.Join(t.TempDir(), "missing.yml"))
	require.NoError(t, err)

	assert.Equal(t, 4000, cfg.Server.Port)
	assert.Equal(t, "mongo", cfg.Storage.Driver)
	assert.Equal(t, 5*time.Second, cfg.Mongo.OperationTimeout)
	assert.False(t, cfg.Redis.Enabled)
}

func TestInitConfig_ExpandsEnvReferences(t *testing.T) {
	t.Setenv("TEST_NOTES_PORT", "8081")
	t.Setenv("TEST_NOTES_REDIS", "true")

	path := filepath.Join(t.TempDir(), "config.yml")
	require.NoError(t, os.WriteFile(path, []byte(`
server:
  port: ${TEST_NOTES_PORT:-4000}
storage:
  driver: ${TEST_NOTES_DRIVER:-memory}
redis:
  enabled: ${TEST_NOTES_REDIS:-false}
mongo:
  operation_timeout: 2s
`), 0o600))

	cfg, err := InitConfig(path)
	require.NoError(t, err)
	assert.Equal(t, 8081, cfg.Server.Port)
	assert.Equal(t, "memory", cfg.Storage.Driver)
	assert.True(t, cfg.Redis.Enabled)
	assert.Equal(t, 2*time.Second, cfg.Mongo.OperationTimeout)
}

func TestInitConfig_EnvOverride(t *testing.T) {
	t.Setenv("NOTES_SERVER_PORT", "9999")

	cfg, err := InitConfig("")
	require.NoError(t, err)
	assert.Equal(t, 9999, cfg.Server.Port)
}

func TestInitConfig_RejectsUnknownDriver(t *testing.T) {
	t.Setenv("NOTES_STORAGE_DRIVER", "postgres")

	_, err := InitConfig("")
	assert.Error(t, err)
}

func TestNewLogger(t *testing.T) {
	log, err := NewLogger(LoggerConfig{Level: "debug"}, "test")
	require.NoError(t, err)
	assert.NotNil(t, log)

	_, err = NewLogger(LoggerConfig{Level: "loud"}, "test")
	assert.Error(t, err)
}

func TestRegisterService(t *testing.T) {
	var got ConsulService
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPut, r.Method)
		assert.Equal(t, "/v1/agent/service/register", r.URL.Path)
		assert.NoError(t, json.NewDecoder(r.Body).Decode(&got))
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	cfg := ConsulConfig{Address: srv.URL, ServiceID: "notes-1", ServiceName: "notes", ServiceAddress: "10.0.0.5"}
	require.NoError(t, RegisterService(context.Background(), srv.Client(), cfg, 4000))

	assert.Equal(t, "notes-1", got.ID)
	assert.Equal(t, 4000, got.Port)
	assert.Equal(t, "http://10.0.0.5:4000/health", got.Check["HTTP"])
}

func TestRegisterService_AgentError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer srv.Close()

	err := RegisterService(context.Background(), srv.Client(), ConsulConfig{Address: srv.URL}, 4000)
	assert.Error(t, err)
}

func TestDeregisterService(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/v1/agent/service/deregister/notes-1", r.URL.Path)
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	assert.NoError(t, DeregisterService(context.Background(), srv.Client(), ConsulConfig{Address: srv.URL, ServiceID: "notes-1"}))
}
