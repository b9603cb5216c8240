package internal

import (
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/invopop/jsonschema"
	"gopkg.in/yaml.v3"
)

const (
	DefaultConfigFile   = "session-report.yaml"
	DefaultDataFile     = "reports.json"
	DefaultSQLiteFile   = "reports.db"
	DefaultAddr         = ":3000"
	DefaultMaxBodyBytes = 50 << 20

	envPrefix = "SESSION_REPORT_"
)

// ServerConfig controls the HTTP receiver
type ServerConfig struct {
	// Addr is the listen address, e.g. ":3000".
	Addr string `yaml:"addr,omitempty" json:"addr,omitempty" jsonschema:"description=Listen address,default=:3000"`

	// MaxBodyBytes caps the size of a submitted report body.
	MaxBodyBytes int64 `yaml:"max_body_bytes,omitempty" json:"max_body_bytes,omitempty" jsonschema:"description=Maximum request body size in bytes,default=52428800"`

	// CORSOrigins lists allowed origins; empty or "*" allows any.
	CORSOrigins []string `yaml:"cors_origins,omitempty" json:"cors_origins,omitempty" jsonschema:"description=Allowed CORS origins"`

	// ShutdownTimeout bounds graceful shutdown.
	ShutdownTimeout time.Duration `yaml:"shutdown_timeout,omitempty" json:"shutdown_timeout,omitempty" jsonschema:"description=Graceful shutdown timeout (Go duration string)"`
}

// StorageConfig selects where reports live
type StorageConfig struct {
	Backend string `yaml:"backend,omitempty" json:"backend,omitempty" jsonschema:"enum=json,enum=sqlite,default=json"`
	Path    string `yaml:"path,omitempty" json:"path,omitempty" jsonschema:"description=Report file or database path"`
}

// LogConfig controls logging output
type LogConfig struct {
	Level  string `yaml:"level,omitempty" json:"level,omitempty" jsonschema:"enum=debug,enum=info,enum=warn,enum=error,default=info"`
	Format string `yaml:"format,omitempty" json:"format,omitempty" jsonschema:"enum=text,enum=json,default=text"`
}

// Config is the top-level configuration structure for session-report
type Config struct {
	Server  ServerConfig  `yaml:"server,omitempty" json:"server,omitempty"`
	Storage StorageConfig `yaml:"storage,omitempty" json:"storage,omitempty"`
	Log     LogConfig     `yaml:"log,omitempty" json:"log,omitempty"`

	// source records where the config came from: "file" or "default"
	source string
}

// DefaultConfig returns the built-in configuration
func DefaultConfig() *Config {
	return &Config{
		Server: ServerConfig{
			Addr:            DefaultAddr,
			MaxBodyBytes:    DefaultMaxBodyBytes,
			CORSOrigins:     []string{"*"},
			ShutdownTimeout: 10 * time.Second,
		},
		Storage: StorageConfig{
			Backend: BackendJSON,
			Path:    DefaultDataFile,
		},
		Log: LogConfig{
			Level:  "info",
			Format: "text",
		},
		source: "default",
	}
}

// LoadConfig reads a YAML config on top of the defaults. An empty path means
// DefaultConfigFile, which may be absent; an explicit path must exist.
func LoadConfig(path string) (*Config, error) {
	cfg := DefaultConfig()

	explicit := path != ""
	if !explicit {
		path = DefaultConfigFile
	}

	data, err := os.ReadFile(path)
	if err != nil {
		if !explicit && errors.Is(err, fs.ErrNotExist) {
			return cfg, nil
		}
		return nil, fmt.Errorf("failed to read config %s: %w", path, err)
	}

	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config %s: %w", path, err)
	}
	cfg.source = "file"
	cfg.Storage.UseBackendDefaultPath()

	return cfg, nil
}

// UseBackendDefaultPath points Path at the selected backend's default file
// when it still holds the other backend's default
func (s *StorageConfig) UseBackendDefaultPath() {
	switch {
	case s.Backend == BackendSQLite && s.Path == DefaultDataFile:
		s.Path = DefaultSQLiteFile
	case s.Backend == BackendJSON && s.Path == DefaultSQLiteFile:
		s.Path = DefaultDataFile
	}
}

// Source returns "file" when a config file was read, otherwise "default"
func (c *Config) Source() string {
	return c.source
}

// ApplyEnv overrides fields from SESSION_REPORT_* environment variables
func (c *Config) ApplyEnv(lookup func(string) (string, bool)) error {
	if v, ok := lookup(envPrefix + "ADDR"); ok && v != "" {
		c.Server.Addr = v
	}
	if v, ok := lookup(envPrefix + "MAX_BODY_BYTES"); ok && v != "" {
		n, err := strconv.ParseInt(v, 10, 64)
		if err != nil {
			return fmt.Errorf("invalid %sMAX_BODY_BYTES: %w", envPrefix, err)
		}
		c.Server.MaxBodyBytes = n
	}
	if v, ok := lookup(envPrefix + "CORS_ORIGINS"); ok && v != "" {
		var origins []string
		for _, o := range strings.Split(v, ",") {
			if o = strings.TrimSpace(o); o != "" {
				origins = append(origins, o)
			}
		}
		c.Server.CORSOrigins = origins
	}
	if v, ok := lookup(envPrefix + "STORAGE_BACKEND"); ok && v != "" {
		c.Storage.Backend = v
	}
	if v, ok := lookup(envPrefix + "STORAGE_PATH"); ok && v != "" {
		c.Storage.Path = v
	}
	if v, ok := lookup(envPrefix + "LOG_LEVEL"); ok && v != "" {
		c.Log.Level = v
	}
	if v, ok := lookup(envPrefix + "LOG_FORMAT"); ok && v != "" {
		c.Log.Format = v
	}
	c.Storage.UseBackendDefaultPath()
	return nil
}

// Validate checks that the configuration is usable
func (c *Config) Validate() error {
	switch c.Storage.Backend {
	case BackendJSON, BackendSQLite:
	default:
		return &ValidationError{Field: "storage.backend", Msg: fmt.Sprintf("unsupported backend %q", c.Storage.Backend)}
	}
	if c.Storage.Path == "" {
		return &ValidationError{Field: "storage.path", Msg: "must not be empty"}
	}
	if c.Server.Addr == "" {
		return &ValidationError{Field: "server.addr", Msg: "must not be empty"}
	}
	if c.Server.MaxBodyBytes <= 0 {
		return &ValidationError{Field: "server.max_body_bytes", Msg: "must be positive"}
	}
	if _, err := ParseLogLevel(c.Log.Level); err != nil {
		return &ValidationError{Field: "log.level", Msg: err.Error()}
	}
	switch strings.ToLower(c.Log.Format) {
	case "", "text", "json":
	default:
		return &ValidationError{Field: "log.format", Msg: fmt.Sprintf("unsupported format %q", c.Log.Format)}
	}
	return nil
}

// ApplyLogging configures the package logger from c.Log
func (c *Config) ApplyLogging() error {
	level, err := ParseLogLevel(c.Log.Level)
	if err != nil {
		return err
	}
	SetLogLevel(level)
	return SetLogFormat(c.Log.Format)
}

// YAML renders the effective configuration
func (c *Config) YAML() ([]byte, error) {
	return yaml.Marshal(c)
}

// ConfigSchema returns the JSON Schema of the configuration file
func ConfigSchema() ([]byte, error) {
	r := &jsonschema.Reflector{
		AllowAdditionalProperties: true,
		ExpandedStruct:            true,
		FieldNameTag:              "yaml",
	}

	schema := r.Reflect(&Config{})
	schema.Title = "session-report configuration"
	schema.Description = "Schema for " + DefaultConfigFile + "."

	return json.MarshalIndent(schema, "", "  ")
}
