package config

import (
	"fmt"
	"strings"

	"github.com/spf13/viper"
)

// LoadConfig loads configuration from file using viper.
// CLI flags > environment > config file > defaults precedence.
// Flags are applied by the caller after LoadConfig returns.
func LoadConfig(configPath string) (*Config, error) {
	v := viper.New()

	// Set defaults matching Default()
	d := Default()
	v.SetDefault("server.host", d.Server.Host)
	v.SetDefault("server.http_port", d.Server.HTTPPort)
	v.SetDefault("server.grpc_port", d.Server.GRPCPort)
	v.SetDefault("server.request_timeout", d.Server.RequestTimeout.String())
	v.SetDefault("database.url", d.Database.URL)
	v.SetDefault("validation.concurrency", d.Validation.Concurrency)
	v.SetDefault("validation.rule_cache_ttl", d.Validation.RuleCacheTTL.String())
	v.SetDefault("worker.poll_interval", d.Worker.PollInterval.String())
	v.SetDefault("worker.batch_size", d.Worker.BatchSize)
	v.SetDefault("worker.concurrency", d.Worker.Concurrency)
	v.SetDefault("worker.stale_after", d.Worker.StaleAfter.String())

	// Bind environment variables with DG_ prefix
	v.SetEnvPrefix("DG")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	// Load config file if provided. The file is read into its own viper
	// first so the secrets check sees file values, not env overrides.
	if configPath != "" {
		file := viper.New()
		file.SetConfigFile(configPath)
		if err := file.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
		if err := validateNoSecretsInConfig(file); err != nil {
			return nil, err
		}
		if err := v.MergeConfigMap(file.AllSettings()); err != nil {
			return nil, fmt.Errorf("failed to merge config file: %w", err)
		}
	}

	cfg := &Config{
		Server: ServerConfig{
			Host:           v.GetString("server.host"),
			HTTPPort:       v.GetInt("server.http_port"),
			GRPCPort:       v.GetInt("server.grpc_port"),
			RequestTimeout: v.GetDuration("server.request_timeout"),
		},
		Database: DatabaseConfig{
			URL: v.GetString("database.url"),
		},
		Validation: ValidationConfig{
			Concurrency:  v.GetInt("validation.concurrency"),
			RuleCacheTTL: v.GetDuration("validation.rule_cache_ttl"),
		},
		Worker: WorkerConfig{
			PollInterval: v.GetDuration("worker.poll_interval"),
			BatchSize:    v.GetInt("worker.batch_size"),
			Concurrency:  v.GetInt("worker.concurrency"),
			StaleAfter:   v.GetDuration("worker.stale_after"),
		},
	}

	if err := Validate(cfg); err != nil {
		return nil, err
	}

	return cfg, nil
}

// Validate checks port ranges and positive values for timeouts, sizes and
// concurrency. Callers re-run it after applying CLI flag overrides.
func Validate(cfg *Config) error {
	if err := validatePort("http_port", cfg.Server.HTTPPort); err != nil {
		return err
	}
	if err := validatePort("grpc_port", cfg.Server.GRPCPort); err != nil {
		return err
	}
	if cfg.Server.HTTPPort == cfg.Server.GRPCPort {
		return fmt.Errorf("http_port and grpc_port must differ, both are %d", cfg.Server.HTTPPort)
	}
	if cfg.Server.RequestTimeout <= 0 {
		return fmt.Errorf("request_timeout must be positive, got %v", cfg.Server.RequestTimeout)
	}
	if cfg.Database.URL == "" {
		return fmt.Errorf("database url must be set")
	}
	if cfg.Validation.Concurrency <= 0 {
		return fmt.Errorf("validation concurrency must be positive, got %d", cfg.Validation.Concurrency)
	}
	if cfg.Validation.RuleCacheTTL < 0 {
		return fmt.Errorf("rule_cache_ttl must not be negative, got %v", cfg.Validation.RuleCacheTTL)
	}
	if cfg.Worker.PollInterval <= 0 {
		return fmt.Errorf("poll_interval must be positive, got %v", cfg.Worker.PollInterval)
	}
	if cfg.Worker.BatchSize <= 0 {
		return fmt.Errorf("batch_size must be positive, got %d", cfg.Worker.BatchSize)
	}
	if cfg.Worker.Concurrency <= 0 {
		return fmt.Errorf("worker concurrency must be positive, got %d", cfg.Worker.Concurrency)
	}
	if cfg.Worker.StaleAfter <= 0 {
		return fmt.Errorf("stale_after must be positive, got %v", cfg.Worker.StaleAfter)
	}
	return nil
}

func validatePort(name string, port int) error {
	if port <= 0 || port > 65535 {
		return fmt.Errorf("%s must be between 1 and 65535, got %d", name, port)
	}
	return nil
}

// validateNoSecretsInConfig enforces environment-only credentials (12-factor principle).
func validateNoSecretsInConfig(file *viper.Viper) error {
	if file.IsSet("database.password") || file.IsSet("database_password") {
		return fmt.Errorf("database credentials not allowed in config files (use DG_DATABASE_URL environment variable)")
	}
	if hasPassword(file.GetString("database.url")) {
		return fmt.Errorf("database credentials not allowed in config files (use DG_DATABASE_URL environment variable)")
	}
	return nil
}
