package config

import (
	"bytes"
	"encoding/json"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/BurntSushi/toml"
	"github.com/vango-dev/bloc/internal/errors"
	"gopkg.in/yaml.v3"
)

const (
	// DefaultNamespace is the default metrics namespace.
	DefaultNamespace = "bloc"

	// DefaultTracerName is the default OpenTelemetry tracer name.
	DefaultTracerName = "bloc"

	// DefaultInspectorAddr is the default inspector listen address.
	DefaultInspectorAddr = "localhost:7070"

	// DefaultInspectorPath is the default inspector route prefix.
	DefaultInspectorPath = "/inspect"

	// DefaultLogLevel is the default log level.
	DefaultLogLevel = "info"
)

// FileNames lists the config file names Find looks for, in order.
var FileNames = []string{"bloc.json", "bloc.yaml", "bloc.yml", "bloc.toml"}

// Config is the complete bloc configuration.
type Config struct {
	// Name is the application name, used as a log attribute.
	Name string `json:"name,omitempty" yaml:"name,omitempty" toml:"name,omitempty"`

	// Dev enables invariant checks on every commit and debug logging.
	Dev bool `json:"dev,omitempty" yaml:"dev,omitempty" toml:"dev,omitempty"`

	// LogLevel is one of debug, info, warn, error.
	LogLevel string `json:"logLevel,omitempty" yaml:"logLevel,omitempty" toml:"logLevel,omitempty"`

	// Metrics configures Prometheus collection.
	Metrics MetricsConfig `json:"metrics" yaml:"metrics" toml:"metrics"`

	// Tracing configures OpenTelemetry spans.
	Tracing TracingConfig `json:"tracing" yaml:"tracing" toml:"tracing"`

	// Inspector configures the element tree inspector.
	Inspector InspectorConfig `json:"inspector" yaml:"inspector" toml:"inspector"`

	path string
}

// MetricsConfig configures Prometheus collection.
type MetricsConfig struct {
	Enabled   bool   `json:"enabled,omitempty" yaml:"enabled,omitempty" toml:"enabled,omitempty"`
	Namespace string `json:"namespace,omitempty" yaml:"namespace,omitempty" toml:"namespace,omitempty"`
	Subsystem string `json:"subsystem,omitempty" yaml:"subsystem,omitempty" toml:"subsystem,omitempty"`
}

// TracingConfig configures OpenTelemetry spans.
type TracingConfig struct {
	Enabled    bool   `json:"enabled,omitempty" yaml:"enabled,omitempty" toml:"enabled,omitempty"`
	TracerName string `json:"tracerName,omitempty" yaml:"tracerName,omitempty" toml:"tracerName,omitempty"`
}

// InspectorConfig configures the element tree inspector.
type InspectorConfig struct {
	Addr string `json:"addr,omitempty" yaml:"addr,omitempty" toml:"addr,omitempty"`
	Path string `json:"path,omitempty" yaml:"path,omitempty" toml:"path,omitempty"`
}

// New creates a new Config with default values.
func New() *Config {
	return &Config{
		LogLevel: DefaultLogLevel,
		Metrics: MetricsConfig{
			Namespace: DefaultNamespace,
		},
		Tracing: TracingConfig{
			TracerName: DefaultTracerName,
		},
		Inspector: InspectorConfig{
			Addr: DefaultInspectorAddr,
			Path: DefaultInspectorPath,
		},
	}
}

// Find walks up from dir looking for one of FileNames and loads the
// first match.
func Find(dir string) (*Config, error) {
	dir, err := filepath.Abs(dir)
	if err != nil {
		return nil, errors.New("B301").Wrap(err)
	}
	for {
		for _, name := range FileNames {
			path := filepath.Join(dir, name)
			if _, err := os.Stat(path); err == nil {
				return LoadFile(path)
			}
		}
		parent := filepath.Dir(dir)
		if parent == dir {
			return nil, errors.New("B300").
				WithDetail("No bloc.json, bloc.yaml or bloc.toml found above " + dir).
				WithSuggestion("Create bloc.json in the project root or pass --config")
		}
		dir = parent
	}
}

// LoadFile reads configuration from the specified file path.
func LoadFile(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, errors.New("B300").WithDetail(path)
		}
		return nil, errors.New("B301").Wrap(err)
	}

	cfg := New()
	if err := decode(path, data, cfg); err != nil {
		return nil, err
	}

	cfg.path = path
	cfg.applyDefaults()

	return cfg, nil
}

func decode(path string, data []byte, cfg *Config) error {
	ext := strings.ToLower(filepath.Ext(path))
	var err error
	switch ext {
	case ".json":
		dec := json.NewDecoder(bytes.NewReader(data))
		dec.DisallowUnknownFields()
		err = dec.Decode(cfg)
	case ".yaml", ".yml":
		dec := yaml.NewDecoder(bytes.NewReader(data))
		dec.KnownFields(true)
		err = dec.Decode(cfg)
		if err == io.EOF {
			err = nil
		}
	case ".toml":
		var md toml.MetaData
		md, err = toml.Decode(string(data), cfg)
		if err == nil {
			if undecoded := md.Undecoded(); len(undecoded) > 0 {
				return errors.New("B301").
					WithDetailf("Unknown key %q in %s", undecoded[0].String(), filepath.Base(path))
			}
		}
	default:
		return errors.New("B302").
			WithDetail("Cannot load " + filepath.Base(path)).
			WithSuggestion("Use a .json, .yaml, .yml or .toml file")
	}
	if err != nil {
		return errors.New("B301").
			WithDetail("Failed to parse " + filepath.Base(path)).
			Wrap(err)
	}
	return nil
}

// Path returns the path where the config was loaded from.
func (c *Config) Path() string {
	return c.path
}

// applyDefaults fills in default values for empty fields.
func (c *Config) applyDefaults() {
	if c.LogLevel == "" {
		c.LogLevel = DefaultLogLevel
	}
	if c.Metrics.Namespace == "" {
		c.Metrics.Namespace = DefaultNamespace
	}
	if c.Tracing.TracerName == "" {
		c.Tracing.TracerName = DefaultTracerName
	}
	if c.Inspector.Addr == "" {
		c.Inspector.Addr = DefaultInspectorAddr
	}
	if c.Inspector.Path == "" {
		c.Inspector.Path = DefaultInspectorPath
	}
}

// Validate checks if the configuration is valid.
func (c *Config) Validate() error {
	if _, err := c.Level(); err != nil {
		return err
	}
	if !strings.HasPrefix(c.Inspector.Path, "/") {
		return errors.New("B303").
			WithDetailf("inspector.path %q must start with /", c.Inspector.Path)
	}
	return nil
}

// Level parses LogLevel.
func (c *Config) Level() (slog.Level, error) {
	var level slog.Level
	if err := level.UnmarshalText([]byte(c.LogLevel)); err != nil {
		return 0, errors.New("B303").
			WithDetailf("logLevel %q is not one of debug, info, warn, error", c.LogLevel)
	}
	return level, nil
}

// Logger builds a text slog.Logger writing to w at the configured level.
func (c *Config) Logger(w io.Writer) *slog.Logger {
	level, err := c.Level()
	if err != nil {
		level = slog.LevelInfo
	}
	if c.Dev && level > slog.LevelDebug {
		level = slog.LevelDebug
	}
	logger := slog.New(slog.NewTextHandler(w, &slog.HandlerOptions{Level: level}))
	if c.Name != "" {
		logger = logger.With("app", c.Name)
	}
	return logger
}
