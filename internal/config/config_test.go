package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseDefaults(t *testing.T) {
	cfg, err := Parse([]byte("{}"))
	require.NoError(t, err)

	assert.Equal(t, ":3333", cfg.HTTP.Addr())
	assert.Equal(t, ":9999", cfg.HTTP.DiagAddr())
	assert.Equal(t, 10*time.Second, cfg.HTTP.ReadTimeout())
	assert.Equal(t, DriverMongoDB, cfg.Storage.Driver)
	assert.Equal(t, "mongodb://localhost:27017", cfg.MongoDB.URI)
	assert.Equal(t, "myblog", cfg.MongoDB.Database)
}

func TestParseFull(t *testing.T) {
	data := []byte(`
http:
  host: 127.0.0.1
  port: 8080
  diag_port: 8081
  request_timeout_sec: 5
storage:
  driver: memory
logging:
  level: debug
  format: console
`)

	cfg, err := Parse(data)
	require.NoError(t, err)

	assert.Equal(t, "127.0.0.1:8080", cfg.HTTP.Addr())
	assert.Equal(t, "127.0.0.1:8081", cfg.HTTP.DiagAddr())
	assert.Equal(t, 5*time.Second, cfg.HTTP.RequestTimeout())
	assert.Equal(t, DriverMemory, cfg.Storage.Driver)
	assert.Equal(t, "debug", cfg.Logging.Level)
	assert.Equal(t, "console", cfg.Logging.Format)
}

func TestParseExpandsEnv(t *testing.T) {
	t.Setenv("MYBLOG_TEST_URI", "mongodb://db:27017")

	cfg, err := Parse([]byte(`
mongodb:
  uri: ${MYBLOG_TEST_URI}
  database: ${MYBLOG_TEST_DB:-blog}
`))
	require.NoError(t, err)

	assert.Equal(t, "mongodb://db:27017", cfg.MongoDB.URI)
	assert.Equal(t, "blog", cfg.MongoDB.Database)
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name string
		yaml string
	}{
		{"port out of range", "http: {port: 70000}"},
		{"same ports", "http: {port: 8080, diag_port: 8080}"},
		{"unknown driver", "storage: {driver: postgres}"},
		{"bad uri", "mongodb: {uri: 'localhost:27017'}"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Parse([]byte(tt.yaml))
			assert.Error(t, err)
		})
	}
}

func TestMemoryDriverIgnoresURI(t *testing.T) {
	_, err := Parse([]byte("storage: {driver: memory}\nmongodb: {uri: 'whatever'}"))
	assert.NoError(t, err)
}

func TestLoad(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yml")
	require.NoError(t, os.WriteFile(path, []byte("http: {port: 4000}"), 0o600))

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, 4000, cfg.HTTP.Port)

	_, err = Load(filepath.Join(t.TempDir(), "missing.yml"))
	assert.Error(t, err)
}

func TestPath(t *testing.T) {
	t.Setenv(FileEnv, "")
	assert.Equal(t, DefaultFile, Path())

	t.Setenv(FileEnv, "/etc/myblog.yml")
	assert.Equal(t, "/etc/myblog.yml", Path())
}

func TestRedacted(t *testing.T) {
	cfg := Config{MongoDB: MongoDBConfig{URI: "mongodb://admin:s3cret@db:27017/?authSource=admin"}}

	got := cfg.Redacted()
	assert.NotContains(t, got.MongoDB.URI, "s3cret")
	assert.Contains(t, got.MongoDB.URI, "admin:xxxxx@db:27017")
	assert.Contains(t, cfg.MongoDB.URI, "s3cret", "original is left untouched")

	cfg.MongoDB.URI = "mongodb://localhost:27017"
	assert.Equal(t, "mongodb://localhost:27017", cfg.Redacted().MongoDB.URI)

	cfg.MongoDB.URI = "mongodb://bad host:%zz"
	assert.NotContains(t, cfg.Redacted().MongoDB.URI, "bad host")
}
