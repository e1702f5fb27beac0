package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad(t *testing.T) {
	tmpDir := t.TempDir()
	configPath := filepath.Join(tmpDir, "config.yaml")

	configContent := `
server:
  port: 9090
  host: "0.0.0.0"

storage:
  type: "s3"
  s3_bucket: "list-cleaner-artifacts"
  s3_prefix: "uploads"
  aws_region: "us-east-1"

redis:
  url: "redis://localhost:6379/0"
  lock_ttl_seconds: 600

validation:
  rules_dir: "/etc/listclean"
  environment: "staging"
  dns_timeout_ms: 1500
  dns_concurrency: 16
  dns_queries_per_second: 50
  sort_chunk_bytes: 1048576

log:
  level: "debug"
  redact_pii: false
`
	require.NoError(t, os.WriteFile(configPath, []byte(configContent), 0644))

	cfg, err := Load(configPath)
	require.NoError(t, err)

	assert.Equal(t, 9090, cfg.Server.Port)
	assert.Equal(t, "0.0.0.0", cfg.Server.Host)

	assert.Equal(t, "s3", cfg.Storage.Type)
	assert.Equal(t, "list-cleaner-artifacts", cfg.Storage.S3Bucket)
	assert.Equal(t, "uploads", cfg.Storage.S3Prefix)
	assert.Equal(t, "us-east-1", cfg.Storage.AWSRegion)

	assert.Equal(t, 10*time.Minute, cfg.Redis.LockTTL())
	assert.Equal(t, 24*time.Hour, cfg.Redis.ProgressTTL())

	assert.Equal(t, "staging", cfg.Validation.Environment)
	assert.Equal(t, 1500*time.Millisecond, cfg.Validation.DNSTimeout())
	assert.Equal(t, 16, cfg.Validation.DNSConcurrency)
	assert.Equal(t, 50.0, cfg.Validation.DNSQueriesPerSecond)
	assert.Equal(t, int64(1048576), cfg.Validation.SortChunkBytes)
	assert.Equal(t, "/etc/listclean/dns_whitelist.yml", cfg.Validation.WhitelistPath())
	assert.Equal(t, "/etc/listclean/role_addresses.yml", cfg.Validation.RolePath())
	assert.Equal(t, "/etc/listclean/email_syntax.yml", cfg.Validation.SyntaxPath())

	assert.Equal(t, "debug", cfg.Log.Level)
	assert.False(t, cfg.Log.Redact())
}

func TestLoadDefaults(t *testing.T) {
	tmpDir := t.TempDir()
	configPath := filepath.Join(tmpDir, "config.yaml")
	require.NoError(t, os.WriteFile(configPath, []byte("{}"), 0644))

	cfg, err := Load(configPath)
	require.NoError(t, err)

	assert.Equal(t, 8080, cfg.Server.Port)
	assert.Equal(t, "localhost", cfg.Server.Host)
	assert.Equal(t, int64(512), cfg.Server.MaxUploadMegabytes)
	assert.Equal(t, "local", cfg.Storage.Type)
	assert.Equal(t, "./data/uploads", cfg.Storage.LocalPath)
	assert.Equal(t, 30*time.Minute, cfg.Redis.LockTTL())
	assert.Equal(t, "config/validation", cfg.Validation.RulesDir)
	assert.Equal(t, "production", cfg.Validation.Environment)
	assert.Equal(t, 2*time.Second, cfg.Validation.DNSTimeout())
	assert.Equal(t, 8, cfg.Validation.DNSConcurrency)
	assert.Equal(t, 100, cfg.Validation.PreviewLimit)
	assert.Equal(t, "info", cfg.Log.Level)
	assert.True(t, cfg.Log.Redact())

	assert.Equal(t, cfg, Default())
}

func TestLoadFileNotFound(t *testing.T) {
	_, err := Load("/nonexistent/path/config.yaml")
	assert.Error(t, err)
}

func TestLoadInvalidYAML(t *testing.T) {
	tmpDir := t.TempDir()
	configPath := filepath.Join(tmpDir, "config.yaml")
	require.NoError(t, os.WriteFile(configPath, []byte("server: [unclosed"), 0644))

	_, err := Load(configPath)
	assert.Error(t, err)
}

func TestLoadFromEnv(t *testing.T) {
	tmpDir := t.TempDir()
	configPath := filepath.Join(tmpDir, "config.yaml")
	require.NoError(t, os.WriteFile(configPath, []byte("storage:\n  type: local\n"), 0644))

	t.Setenv("STORAGE_TYPE", "s3")
	t.Setenv("S3_BUCKET", "env-bucket")
	t.Setenv("REDIS_URL", "redis://cache:6379/1")
	t.Setenv("DATABASE_URL", "postgres://u:p@db/lists?sslmode=disable")
	t.Setenv("VALIDATION_RULES_DIR", "/srv/rules")
	t.Setenv("DNS_TIMEOUT_MS", "750")
	t.Setenv("LOG_LEVEL", "warn")

	cfg, err := LoadFromEnv(configPath)
	require.NoError(t, err)

	assert.Equal(t, "s3", cfg.Storage.Type)
	assert.Equal(t, "env-bucket", cfg.Storage.S3Bucket)
	assert.Equal(t, "redis://cache:6379/1", cfg.Redis.URL)
	assert.Equal(t, "postgres://u:p@db/lists?sslmode=disable", cfg.Database.URL)
	assert.Equal(t, "/srv/rules", cfg.Validation.RulesDir)
	assert.Equal(t, 750*time.Millisecond, cfg.Validation.DNSTimeout())
	assert.Equal(t, "warn", cfg.Log.Level)
}

func TestServerGetHost(t *testing.T) {
	t.Setenv("ECS_CONTAINER_METADATA_URI", "")
	t.Setenv("AWS_EXECUTION_ENV", "")
	t.Setenv("SERVER_HOST", "")
	assert.Equal(t, "127.0.0.1", ServerConfig{Host: "127.0.0.1"}.GetHost())

	t.Setenv("SERVER_HOST", "10.0.0.5")
	assert.Equal(t, "10.0.0.5", ServerConfig{Host: "127.0.0.1"}.GetHost())

	t.Setenv("AWS_EXECUTION_ENV", "AWS_ECS_FARGATE")
	assert.Equal(t, "0.0.0.0", ServerConfig{Host: "127.0.0.1"}.GetHost())
}

func TestStorageGetAWSProfile(t *testing.T) {
	t.Setenv("ECS_CONTAINER_METADATA_URI", "")
	t.Setenv("AWS_EXECUTION_ENV", "")
	t.Setenv("AWS_PROFILE_OVERRIDE", "")
	assert.Equal(t, "dev", StorageConfig{AWSProfile: "dev"}.GetAWSProfile())

	t.Setenv("AWS_PROFILE_OVERRIDE", "iam")
	assert.Equal(t, "", StorageConfig{AWSProfile: "dev"}.GetAWSProfile())
}
