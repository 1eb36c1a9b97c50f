package config

import (
	"errors"
	"fmt"
	"io/fs"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

const envPrefix = "VAULTSYNC_"

// loadDotEnv loads KEY=VALUE pairs from name into the process environment.
// Variables that are already set win; a missing file is not an error.
func loadDotEnv(name string) error {
	if err := godotenv.Load(name); err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil
		}
		return fmt.Errorf("load %s: %w", name, err)
	}
	return nil
}

// parseEnv overlays VAULTSYNC_* variables.
func parseEnv(config *Config, lookup func(string) (string, bool)) error {
	str := func(name string, dst *string) {
		if v, ok := lookup(envPrefix + name); ok {
			*dst = v
		}
	}
	dur := func(name string, dst *time.Duration) error {
		v, ok := lookup(envPrefix + name)
		if !ok {
			return nil
		}
		d, err := time.ParseDuration(v)
		if err != nil {
			return fmt.Errorf("%s%s: %w", envPrefix, name, err)
		}
		*dst = d
		return nil
	}

	str("HTTP_ADDR", &config.HTTPAddr)
	str("DATABASE_DRIVER", &config.DatabaseDriver)
	str("DATABASE_DSN", &config.DatabaseDSN)
	str("SECRET_KEY", &config.SecretKey)
	str("BLOB_BACKEND", &config.BlobBackend)
	str("STORAGE_PATH", &config.StoragePath)
	str("S3_ROOT_USER", &config.S3RootUser)
	str("S3_ROOT_PASSWORD", &config.S3RootPassword)
	str("S3_BUCKET", &config.S3Bucket)
	str("S3_REGION", &config.S3Region)
	str("S3_BASE_ENDPOINT", &config.S3BaseEndpoint)
	str("LOG_LEVEL", &config.LogLevel)
	str("LOG_FILE", &config.LogFile)

	if err := dur("ACCESS_TOKEN_TTL", &config.AccessTokenValidityDuration); err != nil {
		return err
	}
	if err := dur("REFRESH_TOKEN_TTL", &config.RefreshTokenValidityDuration); err != nil {
		return err
	}
	if err := dur("REQUEST_TIMEOUT", &config.RequestTimeout); err != nil {
		return err
	}

	if v, ok := lookup(envPrefix + "MAX_ATTACHMENT_SIZE"); ok {
		n, err := strconv.ParseInt(v, 10, 64)
		if err != nil {
			return fmt.Errorf("%sMAX_ATTACHMENT_SIZE: %w", envPrefix, err)
		}
		config.MaxAttachmentSize = n
	}
	if v, ok := lookup(envPrefix + "MAX_PATH_DEPTH"); ok {
		n, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("%sMAX_PATH_DEPTH: %w", envPrefix, err)
		}
		config.MaxPathDepth = n
	}

	return nil
}
