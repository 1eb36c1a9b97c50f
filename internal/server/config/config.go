// Package config handles configuration for the vaultsync server: defaults,
// an optional JSON or YAML file, VAULTSYNC_* environment variables and
// command-line flags, applied in that order.
package config

import (
	"fmt"
	"os"
	"time"

	"github.com/dmitrijs2005/vaultsync/internal/dbx"
	"github.com/dmitrijs2005/vaultsync/internal/flagx"
	"github.com/dmitrijs2005/vaultsync/internal/logging"
)

const (
	BlobBackendFS = "fs"
	BlobBackendS3 = "s3"
)

// Config holds runtime settings for the server.
//
// Fields:
//   - HTTPAddr: bind address of the JSON API.
//   - DatabaseDriver / DatabaseDSN: "sqlite" (modernc) or "pgx" (PostgreSQL).
//   - SecretKey: HMAC secret for signing JWTs (HS256).
//   - AccessTokenValidityDuration / RefreshTokenValidityDuration: token lifetimes.
//   - BlobBackend: "fs" stores content under StoragePath, "s3" in S3Bucket.
//   - MaxAttachmentSize: declared attachment size limit, bytes.
//   - MaxPathDepth: maximum number of segments in a vault path.
//   - RequestTimeout: per-request deadline of the HTTP layer.
//   - LogLevel / LogFile: logger level and optional rotating file.
type Config struct {
	HTTPAddr                     string
	DatabaseDriver               string
	DatabaseDSN                  string
	SecretKey                    string
	AccessTokenValidityDuration  time.Duration
	RefreshTokenValidityDuration time.Duration
	BlobBackend                  string
	StoragePath                  string
	S3RootUser                   string
	S3RootPassword               string
	S3Bucket                     string
	S3Region                     string
	S3BaseEndpoint               string
	MaxAttachmentSize            int64
	MaxPathDepth                 int
	RequestTimeout               time.Duration
	LogLevel                     string
	LogFile                      string
}

// LoadDefaults populates Config with development defaults. SecretKey in
// particular must be overridden in production.
func (c *Config) LoadDefaults() {
	c.HTTPAddr = ":8000"
	c.DatabaseDriver = string(dbx.SQLite)
	c.DatabaseDSN = "vaultsync.db"
	c.SecretKey = "change-me"
	c.AccessTokenValidityDuration = 24 * time.Hour
	c.RefreshTokenValidityDuration = 30 * 24 * time.Hour
	c.BlobBackend = BlobBackendFS
	c.StoragePath = "./storage"
	c.S3RootUser = "admin"
	c.S3RootPassword = "secretpassword"
	c.S3Bucket = "vault"
	c.S3Region = "us-east-1"
	c.S3BaseEndpoint = ""
	c.MaxAttachmentSize = 25 * 1024 * 1024
	c.MaxPathDepth = 30
	c.RequestTimeout = 30 * time.Second
	c.LogLevel = "info"
	c.LogFile = ""
}

// LoadConfig builds a Config from defaults, then the file named by -c or
// -config, then the environment (after loading .env if present), then the
// remaining command-line flags, and validates the result.
func LoadConfig() (*Config, error) {
	return load(os.Args[1:], os.LookupEnv)
}

func load(args []string, lookup func(string) (string, bool)) (*Config, error) {
	cfg := &Config{}
	cfg.LoadDefaults()

	if path := flagx.ConfigFileFrom(args); path != "" {
		if err := parseFile(cfg, path); err != nil {
			return nil, err
		}
	}

	if err := loadDotEnv(".env"); err != nil {
		return nil, err
	}
	if err := parseEnv(cfg, lookup); err != nil {
		return nil, err
	}

	if err := parseFlags(cfg, args); err != nil {
		return nil, err
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate checks values that would otherwise fail late at startup.
func (c *Config) Validate() error {
	if _, err := dbx.ParseDialect(c.DatabaseDriver); err != nil {
		return err
	}
	if c.DatabaseDSN == "" {
		return fmt.Errorf("database dsn must not be empty")
	}
	if c.SecretKey == "" {
		return fmt.Errorf("secret key must not be empty")
	}
	switch c.BlobBackend {
	case BlobBackendFS:
		if c.StoragePath == "" {
			return fmt.Errorf("storage path must not be empty")
		}
	case BlobBackendS3:
		if c.S3Bucket == "" {
			return fmt.Errorf("s3 bucket must not be empty")
		}
	default:
		return fmt.Errorf("unknown blob backend %q", c.BlobBackend)
	}
	if c.AccessTokenValidityDuration <= 0 || c.RefreshTokenValidityDuration <= 0 {
		return fmt.Errorf("token validity durations must be positive")
	}
	if c.MaxAttachmentSize <= 0 {
		return fmt.Errorf("max attachment size must be positive")
	}
	if c.MaxPathDepth <= 0 {
		return fmt.Errorf("max path depth must be positive")
	}
	if c.RequestTimeout <= 0 {
		return fmt.Errorf("request timeout must be positive")
	}
	if _, err := logging.ParseLevel(c.LogLevel); err != nil {
		return err
	}
	return nil
}
