package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func noEnv(string) (string, bool) { return "", false }

func TestLoadDefaults(t *testing.T) {
	var c Config
	c.LoadDefaults()

	assert.Equal(t, ":8000", c.HTTPAddr)
	assert.Equal(t, "sqlite", c.DatabaseDriver)
	assert.Equal(t, "vaultsync.db", c.DatabaseDSN)
	assert.Equal(t, 24*time.Hour, c.AccessTokenValidityDuration)
	assert.Equal(t, 30*24*time.Hour, c.RefreshTokenValidityDuration)
	assert.Equal(t, BlobBackendFS, c.BlobBackend)
	assert.Equal(t, "./storage", c.StoragePath)
	assert.Equal(t, int64(25*1024*1024), c.MaxAttachmentSize)
	assert.Equal(t, 30, c.MaxPathDepth)
	assert.Equal(t, 30*time.Second, c.RequestTimeout)
	assert.Equal(t, "info", c.LogLevel)
	require.NoError(t, c.Validate())
}

func TestLoad_DefaultsWithoutSources(t *testing.T) {
	c, err := load(nil, noEnv)
	require.NoError(t, err)

	var want Config
	want.LoadDefaults()
	assert.Equal(t, &want, c)
}

func TestLoad_Precedence(t *testing.T) {
	file := writeTemp(t, "cfg.yaml", `
http_addr: ":7000"
database_dsn: from-file.db
log_level: debug
`)
	env := map[string]string{
		"VAULTSYNC_DATABASE_DSN": "from-env.db",
		"VAULTSYNC_LOG_LEVEL":    "warn",
	}
	lookup := func(k string) (string, bool) { v, ok := env[k]; return v, ok }

	c, err := load([]string{"-c", file, "-log-level", "error"}, lookup)
	require.NoError(t, err)

	assert.Equal(t, ":7000", c.HTTPAddr, "file overrides defaults")
	assert.Equal(t, "from-env.db", c.DatabaseDSN, "env overrides file")
	assert.Equal(t, "error", c.LogLevel, "flags override env")
}

func TestLoad_InvalidConfig(t *testing.T) {
	_, err := load([]string{"-blob", "ftp"}, noEnv)
	require.Error(t, err)
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(c *Config)
	}{
		{"driver", func(c *Config) { c.DatabaseDriver = "mysql" }},
		{"dsn", func(c *Config) { c.DatabaseDSN = "" }},
		{"secret", func(c *Config) { c.SecretKey = "" }},
		{"backend", func(c *Config) { c.BlobBackend = "ftp" }},
		{"storage path", func(c *Config) { c.StoragePath = "" }},
		{"s3 bucket", func(c *Config) { c.BlobBackend = BlobBackendS3; c.S3Bucket = "" }},
		{"token ttl", func(c *Config) { c.AccessTokenValidityDuration = 0 }},
		{"attachment size", func(c *Config) { c.MaxAttachmentSize = 0 }},
		{"path depth", func(c *Config) { c.MaxPathDepth = -1 }},
		{"timeout", func(c *Config) { c.RequestTimeout = 0 }},
		{"log level", func(c *Config) { c.LogLevel = "loud" }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var c Config
			c.LoadDefaults()
			tt.mutate(&c)
			require.Error(t, c.Validate())
		})
	}
}
