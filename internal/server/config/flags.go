package config

import (
	"flag"
	"fmt"
	"time"

	"github.com/dmitrijs2005/vaultsync/internal/flagx"
)

var knownFlags = []string{
	"-a", "-d", "-k", "-s", "-t", "-r", "-u", "-p", "-b", "-g", "-e",
	"-blob", "-storage", "-max-attachment-size", "-max-path-depth",
	"-timeout", "-log-level", "-log-file",
}

// parseFlags overlays command-line flags.
//
//	-a string   HTTP bind address (e.g. ":8000")
//	-k string   database driver: sqlite or pgx
//	-d string   database DSN
//	-s string   JWT HMAC secret key
//	-t int      access token validity, minutes
//	-r int      refresh token validity, minutes
//	-u, -p      S3 root user / password
//	-b, -g, -e  S3 bucket / region / base endpoint
//	-blob string                blob backend: fs or s3
//	-storage string             filesystem blob root
//	-max-attachment-size int    bytes
//	-max-path-depth int         segments
//	-timeout duration           per-request timeout
//	-log-level, -log-file string
//
// Arguments that are not listed above (-c, for instance) are filtered out
// with flagx.FilterArgs before parsing.
func parseFlags(config *Config, osArgs []string) error {
	args := flagx.FilterArgs(osArgs, knownFlags)

	fs := flag.NewFlagSet("vaultsync", flag.ContinueOnError)

	fs.StringVar(&config.HTTPAddr, "a", config.HTTPAddr, "address and port to run server")
	fs.StringVar(&config.DatabaseDriver, "k", config.DatabaseDriver, "database driver (sqlite|pgx)")
	fs.StringVar(&config.DatabaseDSN, "d", config.DatabaseDSN, "database DSN")
	fs.StringVar(&config.SecretKey, "s", config.SecretKey, "secret key")

	accessTokenValidityDuration := fs.Int("t", int(config.AccessTokenValidityDuration.Minutes()), "access token validity (in minutes)")
	refreshTokenValidityDuration := fs.Int("r", int(config.RefreshTokenValidityDuration.Minutes()), "refresh token validity (in minutes)")

	fs.StringVar(&config.S3RootUser, "u", config.S3RootUser, "S3 root user")
	fs.StringVar(&config.S3RootPassword, "p", config.S3RootPassword, "S3 root password")
	fs.StringVar(&config.S3Bucket, "b", config.S3Bucket, "S3 bucket")
	fs.StringVar(&config.S3Region, "g", config.S3Region, "S3 region")
	fs.StringVar(&config.S3BaseEndpoint, "e", config.S3BaseEndpoint, "S3 base endpoint")

	fs.StringVar(&config.BlobBackend, "blob", config.BlobBackend, "blob backend (fs|s3)")
	fs.StringVar(&config.StoragePath, "storage", config.StoragePath, "filesystem blob root")
	fs.Int64Var(&config.MaxAttachmentSize, "max-attachment-size", config.MaxAttachmentSize, "max attachment size, bytes")
	fs.IntVar(&config.MaxPathDepth, "max-path-depth", config.MaxPathDepth, "max path segments")
	fs.DurationVar(&config.RequestTimeout, "timeout", config.RequestTimeout, "per-request timeout")
	fs.StringVar(&config.LogLevel, "log-level", config.LogLevel, "log level")
	fs.StringVar(&config.LogFile, "log-file", config.LogFile, "rotating log file")

	if err := fs.Parse(args); err != nil {
		return fmt.Errorf("parse flags: %w", err)
	}

	fs.Visit(func(f *flag.Flag) {
		switch f.Name {
		case "t":
			config.AccessTokenValidityDuration = time.Duration(*accessTokenValidityDuration) * time.Minute
		case "r":
			config.RefreshTokenValidityDuration = time.Duration(*refreshTokenValidityDuration) * time.Minute
		}
	})
	return nil
}
