package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/dmitrijs2005/vaultsync/internal/timex"
	"gopkg.in/yaml.v3"
)

// FileConfig mirrors Config for JSON and YAML files. Durations accept
// strings such as "30s" or integer nanoseconds. Only fields present in the
// file override the current values.
type FileConfig struct {
	HTTPAddr                     *string         `json:"http_addr" yaml:"http_addr"`
	DatabaseDriver               *string         `json:"database_driver" yaml:"database_driver"`
	DatabaseDSN                  *string         `json:"database_dsn" yaml:"database_dsn"`
	SecretKey                    *string         `json:"secret_key" yaml:"secret_key"`
	AccessTokenValidityDuration  *timex.Duration `json:"access_token_validity_duration" yaml:"access_token_validity_duration"`
	RefreshTokenValidityDuration *timex.Duration `json:"refresh_token_validity_duration" yaml:"refresh_token_validity_duration"`
	BlobBackend                  *string         `json:"blob_backend" yaml:"blob_backend"`
	StoragePath                  *string         `json:"storage_path" yaml:"storage_path"`
	S3RootUser                   *string         `json:"s3_root_user" yaml:"s3_root_user"`
	S3RootPassword               *string         `json:"s3_root_password" yaml:"s3_root_password"`
	S3Bucket                     *string         `json:"s3_bucket" yaml:"s3_bucket"`
	S3Region                     *string         `json:"s3_region" yaml:"s3_region"`
	S3BaseEndpoint               *string         `json:"s3_base_endpoint" yaml:"s3_base_endpoint"`
	MaxAttachmentSize            *int64          `json:"max_attachment_size" yaml:"max_attachment_size"`
	MaxPathDepth                 *int            `json:"max_path_depth" yaml:"max_path_depth"`
	RequestTimeout               *timex.Duration `json:"request_timeout" yaml:"request_timeout"`
	LogLevel                     *string         `json:"log_level" yaml:"log_level"`
	LogFile                      *string         `json:"log_file" yaml:"log_file"`
}

// parseFile overlays values from a JSON or YAML file, chosen by extension.
func parseFile(config *Config, path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read config %s: %w", path, err)
	}

	c := &FileConfig{}
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		err = yaml.Unmarshal(data, c)
	default:
		err = json.Unmarshal(data, c)
	}
	if err != nil {
		return fmt.Errorf("parse config %s: %w", path, err)
	}

	c.apply(config)
	return nil
}

func (c *FileConfig) apply(config *Config) {
	setString(&config.HTTPAddr, c.HTTPAddr)
	setString(&config.DatabaseDriver, c.DatabaseDriver)
	setString(&config.DatabaseDSN, c.DatabaseDSN)
	setString(&config.SecretKey, c.SecretKey)
	setString(&config.BlobBackend, c.BlobBackend)
	setString(&config.StoragePath, c.StoragePath)
	setString(&config.S3RootUser, c.S3RootUser)
	setString(&config.S3RootPassword, c.S3RootPassword)
	setString(&config.S3Bucket, c.S3Bucket)
	setString(&config.S3Region, c.S3Region)
	setString(&config.S3BaseEndpoint, c.S3BaseEndpoint)
	setString(&config.LogLevel, c.LogLevel)
	setString(&config.LogFile, c.LogFile)

	if c.AccessTokenValidityDuration != nil {
		config.AccessTokenValidityDuration = c.AccessTokenValidityDuration.Duration
	}
	if c.RefreshTokenValidityDuration != nil {
		config.RefreshTokenValidityDuration = c.RefreshTokenValidityDuration.Duration
	}
	if c.RequestTimeout != nil {
		config.RequestTimeout = c.RequestTimeout.Duration
	}
	if c.MaxAttachmentSize != nil {
		config.MaxAttachmentSize = *c.MaxAttachmentSize
	}
	if c.MaxPathDepth != nil {
		config.MaxPathDepth = *c.MaxPathDepth
	}
}

func setString(dst *string, v *string) {
	if v != nil {
		*dst = *v
	}
}
