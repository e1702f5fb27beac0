package config

import (
	"os"
	"path/filepath"
	"strconv"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// Config holds all configuration for the application
type Config struct {
	Server     ServerConfig     `yaml:"server"`
	Storage    StorageConfig    `yaml:"storage"`
	Database   DatabaseConfig   `yaml:"database"`
	Redis      RedisConfig      `yaml:"redis"`
	Validation ValidationConfig `yaml:"validation"`
	Log        LogConfig        `yaml:"log"`
}

// ServerConfig holds HTTP server configuration
type ServerConfig struct {
	Port               int      `yaml:"port"`
	Host               string   `yaml:"host"`
	MaxUploadMegabytes int64    `yaml:"max_upload_megabytes"`
	AllowedOrigins     []string `yaml:"allowed_origins"`
}

// MaxUploadBytes returns the upload size limit in bytes.
func (c ServerConfig) MaxUploadBytes() int64 {
	return c.MaxUploadMegabytes << 20
}

// GetHost returns the server host, with container detection
func (c ServerConfig) GetHost() string {
	if os.Getenv("ECS_CONTAINER_METADATA_URI") != "" || os.Getenv("AWS_EXECUTION_ENV") != "" {
		return "0.0.0.0"
	}
	if host := os.Getenv("SERVER_HOST"); host != "" {
		return host
	}
	return c.Host
}

// StorageConfig selects where originals and produced artifacts live.
type StorageConfig struct {
	Type       string `yaml:"type"` // "local" or "s3"
	LocalPath  string `yaml:"local_path"`
	S3Bucket   string `yaml:"s3_bucket"`
	S3Prefix   string `yaml:"s3_prefix"`
	AWSRegion  string `yaml:"aws_region"`
	AWSProfile string `yaml:"aws_profile"` // empty uses the default credential chain
	AccessKey  string `yaml:"access_key"`
	SecretKey  string `yaml:"secret_key"`
}

// GetAWSProfile returns the AWS profile, with environment variable override
func (c StorageConfig) GetAWSProfile() string {
	if envProfile := os.Getenv("AWS_PROFILE_OVERRIDE"); envProfile != "" {
		if envProfile == "none" || envProfile == "iam" {
			return ""
		}
		return envProfile
	}
	if os.Getenv("ECS_CONTAINER_METADATA_URI") != "" || os.Getenv("AWS_EXECUTION_ENV") != "" {
		return ""
	}
	return c.AWSProfile
}

// DatabaseConfig holds the Postgres connection used for upload records.
type DatabaseConfig struct {
	URL          string `yaml:"url"`
	MaxOpenConns int    `yaml:"max_open_conns"`
	MaxIdleConns int    `yaml:"max_idle_conns"`
}

// RedisConfig holds the redis connection used for locks and progress.
type RedisConfig struct {
	URL              string `yaml:"url"`
	LockTTLSeconds   int    `yaml:"lock_ttl_seconds"`
	ProgressTTLHours int    `yaml:"progress_ttl_hours"`
}

// LockTTL returns the processing lock lifetime.
func (c RedisConfig) LockTTL() time.Duration {
	return time.Duration(c.LockTTLSeconds) * time.Second
}

// ProgressTTL returns how long stage progress is kept after the last update.
func (c RedisConfig) ProgressTTL() time.Duration {
	return time.Duration(c.ProgressTTLHours) * time.Hour
}

// ValidationConfig parametrizes the cleaning pipeline.
type ValidationConfig struct {
	RulesDir            string  `yaml:"rules_dir"`
	Environment         string  `yaml:"environment"`
	DNSTimeoutMillis    int     `yaml:"dns_timeout_ms"`
	DNSConcurrency      int     `yaml:"dns_concurrency"`
	DNSQueriesPerSecond float64 `yaml:"dns_queries_per_second"` // 0 disables the limiter
	SortChunkBytes      int64   `yaml:"sort_chunk_bytes"`
	TempDir             string  `yaml:"temp_dir"`
	PreviewLimit        int     `yaml:"preview_limit"`
}

// DNSTimeout returns the per-lookup MX timeout.
func (c ValidationConfig) DNSTimeout() time.Duration {
	return time.Duration(c.DNSTimeoutMillis) * time.Millisecond
}

// WhitelistPath returns the location of the domain whitelist rule file.
func (c ValidationConfig) WhitelistPath() string {
	return filepath.Join(c.RulesDir, "dns_whitelist.yml")
}

// RolePath returns the location of the role-address rule file.
func (c ValidationConfig) RolePath() string {
	return filepath.Join(c.RulesDir, "role_addresses.yml")
}

// SyntaxPath returns the location of the syntax threshold rule file.
func (c ValidationConfig) SyntaxPath() string {
	return filepath.Join(c.RulesDir, "email_syntax.yml")
}

// LogConfig controls the structured logger.
type LogConfig struct {
	Level     string `yaml:"level"`
	RedactPII *bool  `yaml:"redact_pii"`
}

// Redact reports whether addresses should be masked in logs. Defaults to true.
func (c LogConfig) Redact() bool {
	return c.RedactPII == nil || *c.RedactPII
}

// Load reads and parses the configuration file
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, err
	}

	cfg.applyDefaults()
	return &cfg, nil
}

// Default returns a configuration with every default applied, for callers
// that run without a config file.
func Default() *Config {
	cfg := &Config{}
	cfg.applyDefaults()
	return cfg
}

func (cfg *Config) applyDefaults() {
	if cfg.Server.Port == 0 {
		cfg.Server.Port = 8080
	}
	if cfg.Server.Host == "" {
		cfg.Server.Host = "localhost"
	}
	if cfg.Server.MaxUploadMegabytes == 0 {
		cfg.Server.MaxUploadMegabytes = 512
	}
	if cfg.Storage.Type == "" {
		cfg.Storage.Type = "local"
	}
	if cfg.Storage.LocalPath == "" {
		cfg.Storage.LocalPath = "./data/uploads"
	}
	if cfg.Storage.AWSRegion == "" {
		cfg.Storage.AWSRegion = "us-west-2"
	}
	if cfg.Database.MaxOpenConns == 0 {
		cfg.Database.MaxOpenConns = 10
	}
	if cfg.Database.MaxIdleConns == 0 {
		cfg.Database.MaxIdleConns = 5
	}
	if cfg.Redis.LockTTLSeconds == 0 {
		cfg.Redis.LockTTLSeconds = 1800
	}
	if cfg.Redis.ProgressTTLHours == 0 {
		cfg.Redis.ProgressTTLHours = 24
	}
	if cfg.Validation.RulesDir == "" {
		cfg.Validation.RulesDir = "config/validation"
	}
	if cfg.Validation.Environment == "" {
		cfg.Validation.Environment = "production"
	}
	if cfg.Validation.DNSTimeoutMillis == 0 {
		cfg.Validation.DNSTimeoutMillis = 2000
	}
	if cfg.Validation.DNSConcurrency == 0 {
		cfg.Validation.DNSConcurrency = 8
	}
	if cfg.Validation.SortChunkBytes == 0 {
		cfg.Validation.SortChunkBytes = 64 << 20
	}
	if cfg.Validation.PreviewLimit == 0 {
		cfg.Validation.PreviewLimit = 100
	}
	if cfg.Log.Level == "" {
		cfg.Log.Level = "info"
	}
}

// LoadFromEnv loads config from file and overrides with environment variables
func LoadFromEnv(path string) (*Config, error) {
	// Load .env file if it exists (no error if missing)
	_ = godotenv.Load()

	cfg, err := Load(path)
	if err != nil {
		return nil, err
	}

	if v := os.Getenv("DATABASE_URL"); v != "" {
		cfg.Database.URL = v
	}
	if v := os.Getenv("REDIS_URL"); v != "" {
		cfg.Redis.URL = v
	}
	if v := os.Getenv("STORAGE_TYPE"); v != "" {
		cfg.Storage.Type = v
	}
	if v := os.Getenv("S3_BUCKET"); v != "" {
		cfg.Storage.S3Bucket = v
	}
	if v := os.Getenv("AWS_REGION"); v != "" {
		cfg.Storage.AWSRegion = v
	}
	if v := os.Getenv("AWS_ACCESS_KEY_ID"); v != "" {
		cfg.Storage.AccessKey = v
	}
	if v := os.Getenv("AWS_SECRET_ACCESS_KEY"); v != "" {
		cfg.Storage.SecretKey = v
	}
	if v := os.Getenv("VALIDATION_RULES_DIR"); v != "" {
		cfg.Validation.RulesDir = v
	}
	if v := os.Getenv("VALIDATION_ENV"); v != "" {
		cfg.Validation.Environment = v
	}
	if v := os.Getenv("DNS_TIMEOUT_MS"); v != "" {
		if ms, err := strconv.Atoi(v); err == nil && ms > 0 {
			cfg.Validation.DNSTimeoutMillis = ms
		}
	}
	if v := os.Getenv("LOG_LEVEL"); v != "" {
		cfg.Log.Level = v
	}

	return cfg, nil
}
