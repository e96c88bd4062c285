package config

import (
	"fmt"
	"net"
	"net/url"
	"os"
	"path/filepath"
	"regexp"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/SergeyParamoshkin/myblog/internal/logger"
)

const (
	DefaultFile = "config.yml"
	FileEnv     = "MYBLOG_CONFIG"
)

// Storage drivers.
const (
	DriverMongoDB = "mongodb"
	DriverMemory  = "memory"
)

// Config holds the service configuration.
type Config struct {
	HTTP    HTTPConfig    `yaml:"http"`
	Storage StorageConfig `yaml:"storage"`
	MongoDB MongoDBConfig `yaml:"mongodb"`
	Logging logger.Config `yaml:"logging"`
}

// HTTPConfig holds HTTP server settings.
type HTTPConfig struct {
	Host               string `yaml:"host"`
	Port               int    `yaml:"port"`
	DiagPort           int    `yaml:"diag_port"`
	ReadTimeoutSec     int    `yaml:"read_timeout_sec"`
	WriteTimeoutSec    int    `yaml:"write_timeout_sec"`
	RequestTimeoutSec  int    `yaml:"request_timeout_sec"`
	ShutdownTimeoutSec int    `yaml:"shutdown_timeout_sec"`
}

// StorageConfig selects the storage backend.
type StorageConfig struct {
	Driver string `yaml:"driver"` // mongodb (default) or memory
}

// MongoDBConfig holds database connection settings.
type MongoDBConfig struct {
	URI               string `yaml:"uri"`
	Database          string `yaml:"database"`
	ConnectTimeoutSec int    `yaml:"connect_timeout_sec"`
}

// Path returns the config file location: $MYBLOG_CONFIG or config.yml.
func Path() string {
	if p := os.Getenv(FileEnv); p != "" {
		return p
	}

	return DefaultFile
}

// Load reads, expands, defaults and validates the YAML file at path.
func Load(path string) (Config, error) {
	data, err := os.ReadFile(filepath.Clean(path))
	if err != nil {
		return Config{}, fmt.Errorf("failed to read config %s: %w", path, err)
	}

	return Parse(data)
}

// Parse decodes YAML config data. ${VAR} and ${VAR:-default} are replaced
// with environment values first.
func Parse(data []byte) (Config, error) {
	var cfg Config
	if err := yaml.Unmarshal(expandEnvVars(data), &cfg); err != nil {
		return Config{}, fmt.Errorf("failed to parse config: %w", err)
	}

	cfg.ApplyDefaults()

	if err := cfg.Validate(); err != nil {
		return Config{}, fmt.Errorf("invalid config: %w", err)
	}

	return cfg, nil
}

// ApplyDefaults fills empty fields with default values.
func (c *Config) ApplyDefaults() {
	if c.HTTP.Port == 0 {
		c.HTTP.Port = 3333
	}
	if c.HTTP.DiagPort == 0 {
		c.HTTP.DiagPort = 9999
	}
	if c.HTTP.ReadTimeoutSec <= 0 {
		c.HTTP.ReadTimeoutSec = 10
	}
	if c.HTTP.WriteTimeoutSec <= 0 {
		c.HTTP.WriteTimeoutSec = 10
	}
	if c.HTTP.RequestTimeoutSec <= 0 {
		c.HTTP.RequestTimeoutSec = 30
	}
	if c.HTTP.ShutdownTimeoutSec <= 0 {
		c.HTTP.ShutdownTimeoutSec = 10
	}
	if c.Storage.Driver == "" {
		c.Storage.Driver = DriverMongoDB
	}
	if c.MongoDB.URI == "" {
		c.MongoDB.URI = "mongodb://localhost:27017"
	}
	if c.MongoDB.Database == "" {
		c.MongoDB.Database = "myblog"
	}
	if c.MongoDB.ConnectTimeoutSec <= 0 {
		c.MongoDB.ConnectTimeoutSec = 10
	}
}

// Validate checks the configuration for correctness.
func (c *Config) Validate() error {
	if c.HTTP.Port <= 0 || c.HTTP.Port > 65535 {
		return fmt.Errorf("http.port must be between 1 and 65535, got %d", c.HTTP.Port)
	}
	if c.HTTP.DiagPort <= 0 || c.HTTP.DiagPort > 65535 {
		return fmt.Errorf("http.diag_port must be between 1 and 65535, got %d", c.HTTP.DiagPort)
	}
	if c.HTTP.DiagPort == c.HTTP.Port {
		return fmt.Errorf("http.diag_port must differ from http.port")
	}

	switch c.Storage.Driver {
	case DriverMongoDB:
		if !strings.HasPrefix(c.MongoDB.URI, "mongodb://") && !strings.HasPrefix(c.MongoDB.URI, "mongodb+srv://") {
			return fmt.Errorf("mongodb.uri must start with mongodb:// or mongodb+srv://")
		}
	case DriverMemory:
	default:
		return fmt.Errorf("storage.driver must be %q or %q, got %q", DriverMongoDB, DriverMemory, c.Storage.Driver)
	}

	return nil
}

// Addr is the API listen address.
func (c HTTPConfig) Addr() string {
	return net.JoinHostPort(c.Host, strconv.Itoa(c.Port))
}

// DiagAddr is the diagnostics (metrics) listen address.
func (c HTTPConfig) DiagAddr() string {
	return net.JoinHostPort(c.Host, strconv.Itoa(c.DiagPort))
}

func (c HTTPConfig) ReadTimeout() time.Duration {
	return time.Duration(c.ReadTimeoutSec) * time.Second
}

func (c HTTPConfig) WriteTimeout() time.Duration {
	return time.Duration(c.WriteTimeoutSec) * time.Second
}

func (c HTTPConfig) RequestTimeout() time.Duration {
	return time.Duration(c.RequestTimeoutSec) * time.Second
}

func (c HTTPConfig) ShutdownTimeout() time.Duration {
	return time.Duration(c.ShutdownTimeoutSec) * time.Second
}

// Redacted returns a copy of c safe to log: the password in the MongoDB URI
// is masked.
func (c Config) Redacted() Config {
	c.MongoDB.URI = redactURI(c.MongoDB.URI)

	return c
}

func redactURI(raw string) string {
	u, err := url.Parse(raw)
	if err != nil {
		return "<unparseable uri>"
	}

	return u.Redacted()
}

func (c MongoDBConfig) ConnectTimeout() time.Duration {
	return time.Duration(c.ConnectTimeoutSec) * time.Second
}

var envVarRegex = regexp.MustCompile(`\$\{([^}]+)\}`)

// expandEnvVars replaces ${VAR} and ${VAR:-default} with environment values.
func expandEnvVars(data []byte) []byte {
	return envVarRegex.ReplaceAllFunc(data, func(match []byte) []byte {
		expr := string(match[2 : len(match)-1])
		name, def, hasDefault := strings.Cut(expr, ":-")
		val := os.Getenv(name)
		if val == "" && hasDefault {
			val = def
		}

		return []byte(val)
	})
}
