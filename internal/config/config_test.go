package config

import (
	"testing"

	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func validConfig() *Config {
	return &Config{
		Env:                "production",
		Port:               "8080",
		JWTSecret:          "secure-secret-at-least-32-chars-long",
		JWTTTLHours:        24,
		DBDriver:           "postgres",
		DBPassword:         "secure-password",
		DBSSLMode:          "require",
		TracingExporter:    "stdout",
		TracingSampleRatio: 1,
	}
}

func TestConfig_ValidateSSLMode(t *testing.T) {
	tests := []struct {
		name        string
		env         string
		sslMode     string
		expectError bool
	}{
		{"Production with empty SSL mode", "production", "", true},
		{"Production with disable SSL mode", "production", "disable", true},
		{"Production with require SSL mode", "production", "require", false},
		{"Prod with verify-full SSL mode", "prod", "verify-full", false},
		{"Development with disable SSL mode", "development", "disable", false},
		{"Test with empty SSL mode", "test", "", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := validConfig()
			c.Env = tt.env
			c.DBSSLMode = tt.sslMode

			err := c.Validate()
			if tt.expectError {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestConfig_ValidateProductionSecrets(t *testing.T) {
	c := validConfig()
	c.JWTSecret = defaultJWTSecret
	assert.Error(t, c.Validate())

	c = validConfig()
	c.JWTSecret = "short"
	assert.Error(t, c.Validate())

	c = validConfig()
	c.DBPassword = "password"
	assert.Error(t, c.Validate())

	c = validConfig()
	c.DBDriver = "sqlite"
	assert.Error(t, c.Validate())
}

func TestConfig_ValidateRanges(t *testing.T) {
	c := validConfig()
	c.Env = "development"
	c.DBDriver = "mysql"
	assert.Error(t, c.Validate())

	c = validConfig()
	c.TracingExporter = "jaeger"
	assert.Error(t, c.Validate())

	c = validConfig()
	c.TracingSampleRatio = 1.5
	assert.Error(t, c.Validate())

	c = validConfig()
	c.JWTTTLHours = 0
	assert.Error(t, c.Validate())
}

func TestLoadConfig_EnvOverridesAndNormalization(t *testing.T) {
	defer viper.Reset()

	t.Setenv("APP_ENV", "development")
	t.Setenv("DB_SSLMODE", "  DISABLE  ")
	t.Setenv("DB_DRIVER", "SQLite")
	t.Setenv("CASCADE_TRANSACTIONAL", "false")
	t.Setenv("JWT_TTL_HOURS", "2")

	c, err := LoadConfig()
	require.NoError(t, err)
	assert.Equal(t, "disable", c.DBSSLMode)
	assert.Equal(t, "sqlite", c.DBDriver)
	assert.False(t, c.CascadeTransactional)
	assert.Equal(t, 2, c.JWTTTLHours)
	assert.False(t, c.IsProduction())
}

func TestLoadConfig_Defaults(t *testing.T) {
	defer viper.Reset()

	t.Setenv("APP_ENV", "development")

	c, err := LoadConfig()
	require.NoError(t, err)
	assert.Equal(t, "8080", c.Port)
	assert.Equal(t, 24, c.JWTTTLHours)
	assert.True(t, c.CascadeTransactional)
	assert.Equal(t, "stdout", c.TracingExporter)
}
