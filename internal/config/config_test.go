package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeYAML(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o600))
	return path
}

func TestLoadDefaults(t *testing.T) {
	c, err := Load("")
	require.NoError(t, err)

	assert.Equal(t, "prod", c.App.Env)
	assert.Equal(t, ":8080", c.HTTP.Addr)
	assert.Equal(t, DriverMemory, c.Storage.Driver)
	assert.True(t, c.Metrics.Enabled)
	assert.True(t, c.Reconcile.Compensate)
	assert.Equal(t, 20, c.Reconcile.AlertLimit)
	assert.Equal(t, 5*time.Second, c.Telegram.SendTimeout)
}

func TestLoadFileAndEnv(t *testing.T) {
	path := writeYAML(t, `
app:
  env: dev
storage:
  driver: sqlite
sqlite:
  path: /tmp/x.db
telegram:
  admin_chat_id: 42
  recipients: [7, 8]
  send_timeout: 2s
reconcile:
  compensate: false
`)
	t.Setenv("APP_HTTP_ADDR", ":9999")
	t.Setenv("APP_RECONCILE_ALERT_LIMIT", "5")

	c, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, "dev", c.App.Env)
	assert.Equal(t, DriverSQLite, c.Storage.Driver)
	assert.Equal(t, "/tmp/x.db", c.SQLite.Path)
	assert.Equal(t, int64(42), c.Telegram.AdminChatID)
	assert.Equal(t, []int64{7, 8}, c.Telegram.Recipients)
	assert.Equal(t, 2*time.Second, c.Telegram.SendTimeout)
	assert.False(t, c.Reconcile.Compensate)
	assert.Equal(t, ":9999", c.HTTP.Addr)
	assert.Equal(t, 5, c.Reconcile.AlertLimit)
}

func TestValidate(t *testing.T) {
	cases := []struct {
		name   string
		yaml   string
		errMsg string
	}{
		{"postgres without dsn", "storage:\n  driver: postgres\n", "postgres.dsn"},
		{"unknown driver", "storage:\n  driver: mongo\n", "unknown storage.driver"},
		{"negative alert limit", "reconcile:\n  alert_limit: -1\n", "alert_limit"},
		{"negative send timeout", "telegram:\n  send_timeout: -1s\n", "send_timeout"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := Load(writeYAML(t, tc.yaml))
			require.Error(t, err)
			assert.Contains(t, err.Error(), tc.errMsg)
		})
	}
}

func TestLoadMissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "nope.yaml"))
	assert.Error(t, err)
}
