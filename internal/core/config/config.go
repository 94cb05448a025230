// Package config provides configuration management for DocGuard services.
package config

import (
	"fmt"
	"net/url"
	"time"
)

// Config is the full DocGuard configuration.
type Config struct {
	Server     ServerConfig
	Database   DatabaseConfig
	Validation ValidationConfig
	Worker     WorkerConfig
}

// ServerConfig holds listener settings for the HTTP and gRPC transports.
type ServerConfig struct {
	Host           string
	HTTPPort       int
	GRPCPort       int
	RequestTimeout time.Duration
}

// DatabaseConfig holds the database connection URL.
// Credentials belong in DG_DATABASE_URL, never in a config file.
type DatabaseConfig struct {
	URL string
}

// ValidationConfig tunes a single validation pass.
type ValidationConfig struct {
	// Concurrency bounds parallel rule evaluation per pass.
	Concurrency int
	// RuleCacheTTL is how long loaded rule sets are reused. Zero disables caching.
	RuleCacheTTL time.Duration
}

// WorkerConfig tunes the background processor.
type WorkerConfig struct {
	PollInterval time.Duration
	BatchSize    int
	Concurrency  int
	// StaleAfter is how long a document may sit in processing before the
	// processor assumes its pass was interrupted and runs it again.
	StaleAfter time.Duration
}

// Default returns configuration with default values.
func Default() *Config {
	return &Config{
		Server: ServerConfig{
			Host:           "0.0.0.0",
			HTTPPort:       8080,
			GRPCPort:       50051,
			RequestTimeout: 30 * time.Second,
		},
		Database: DatabaseConfig{
			URL: "sqlite://docguard.db",
		},
		Validation: ValidationConfig{
			Concurrency:  4,
			RuleCacheTTL: 30 * time.Second,
		},
		Worker: WorkerConfig{
			PollInterval: 5 * time.Second,
			BatchSize:    50,
			Concurrency:  4,
			StaleAfter:   5 * time.Minute,
		},
	}
}

// HTTPAddr returns the host:port the HTTP server binds.
func (c ServerConfig) HTTPAddr() string {
	return fmt.Sprintf("%s:%d", c.Host, c.HTTPPort)
}

// GRPCAddr returns the host:port the gRPC server binds.
func (c ServerConfig) GRPCAddr() string {
	return fmt.Sprintf("%s:%d", c.Host, c.GRPCPort)
}

// hasPassword reports whether a database URL carries a password.
// Unparseable URLs are left to db.Open to reject.
func hasPassword(dbURL string) bool {
	u, err := url.Parse(dbURL)
	if err != nil || u.User == nil {
		return false
	}
	_, ok := u.User.Password()
	return ok
}
