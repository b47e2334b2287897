package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const baseYAML = `
app:
  name: authapi
  environment: local
  base_url: http://localhost:8080
server:
  port: 8080
database:
  host: localhost
  port: 5432
redis:
  host: localhost
  port: 6379
jwt:
  access_secret: access
  refresh_secret: refresh
rate_limit:
  enabled: false
`

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
	return path
}

func TestLoad_AppliesDefaults(t *testing.T) {
	cfg, err := Load(writeConfig(t, baseYAML))
	require.NoError(t, err)

	assert.Equal(t, 8080, cfg.Server.Port)
	assert.Equal(t, 15, cfg.JWT.AccessTokenDuration)
	assert.Equal(t, 7*24*60, cfg.JWT.RefreshTokenDuration)
	assert.Equal(t, 72, cfg.Auth.ConfirmationKeyTTL)
	assert.Equal(t, 60, cfg.Auth.PasswordResetTTL)
	assert.Equal(t, "https://oauth2.googleapis.com/token", cfg.Google.TokenURL)
	assert.Equal(t, 10, cfg.Throttle.Limit)
}

func TestLoad_EnvOverrides(t *testing.T) {
	t.Setenv("SERVER_PORT", "9090")
	t.Setenv("DB_HOST", "db.internal")
	t.Setenv("JWT_ACCESS_SECRET", "from-env")
	t.Setenv("RATE_LIMIT_ENABLED", "true")
	t.Setenv("GOOGLE_CLIENT_ID", "client-123")

	cfg, err := Load(writeConfig(t, baseYAML))
	require.NoError(t, err)

	assert.Equal(t, 9090, cfg.Server.Port)
	assert.Equal(t, "db.internal", cfg.Database.Host)
	assert.Equal(t, "from-env", cfg.JWT.AccessSecret)
	assert.True(t, cfg.RateLimit.Enabled)
	assert.Equal(t, "client-123", cfg.Google.ClientID)
	// untouched values keep the file's setting
	assert.Equal(t, "refresh", cfg.JWT.RefreshSecret)
}

func TestLoad_Errors(t *testing.T) {
	tests := []struct {
		name    string
		content string
		env     map[string]string
	}{
		{"invalid yaml", "app: [", nil},
		{"invalid environment", baseYAML, map[string]string{"APP_ENVIRONMENT": "staging"}},
		{"invalid env value", baseYAML, map[string]string{"SERVER_PORT": "not-a-number"}},
		{"missing port", `
app:
  environment: local
  base_url: http://x
database:
  host: localhost
jwt:
  access_secret: a
  refresh_secret: r
`, nil},
		{"missing base url", `
app:
  environment: local
server:
  port: 1
database:
  host: localhost
jwt:
  access_secret: a
  refresh_secret: r
`, nil},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			for k, v := range tc.env {
				t.Setenv(k, v)
			}
			_, err := Load(writeConfig(t, tc.content))
			assert.Error(t, err)
		})
	}

	_, err := Load(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.Error(t, err)
}
