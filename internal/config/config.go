package config

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/vango-dev/vtree/internal/errors"
	"github.com/vango-dev/vtree/pkg/vtree"
)

const (
	// ConfigFileName is the name of the configuration file.
	ConfigFileName = "vtree.json"

	// DefaultWidth and DefaultHeight are the default constrained size.
	DefaultWidth  = 375
	DefaultHeight = 812

	// DefaultAddress is the default inspector listen address.
	DefaultAddress = "localhost:7070"

	// DefaultNamespace is the default metrics namespace and tracer name.
	DefaultNamespace = "vtree"

	// DefaultBoltPath is the default snapshot database, relative to the config.
	DefaultBoltPath = ".vtree/snapshots.db"
)

// Snapshot backends.
const (
	BackendBolt = "bolt"
	BackendS3   = "s3"
)

// Config represents the complete vtree.json configuration.
type Config struct {
	// Layout contains the size and options used for passes.
	Layout LayoutConfig `json:"layout"`

	// Log contains logging configuration.
	Log LogConfig `json:"log"`

	// Inspector contains inspector server configuration.
	Inspector InspectorConfig `json:"inspector"`

	// Metrics contains Prometheus configuration.
	Metrics MetricsConfig `json:"metrics"`

	// Tracing contains OpenTelemetry configuration.
	Tracing TracingConfig `json:"tracing"`

	// Snapshot contains snapshot store configuration.
	Snapshot SnapshotConfig `json:"snapshot"`

	// configPath stores the path where the config was loaded from.
	configPath string
}

// LayoutConfig contains the constrained size and layout options.
type LayoutConfig struct {
	Width  float64 `json:"width,omitempty"`
	Height float64 `json:"height,omitempty"`

	// Options are layout option names, e.g. "sizeContainerViewToFit".
	Options []string `json:"options,omitempty"`
}

// LogConfig contains logging settings.
type LogConfig struct {
	// Level is one of debug, info, warn, error.
	Level string `json:"level,omitempty"`
}

// InspectorConfig contains inspector server settings.
type InspectorConfig struct {
	// Address is the address to listen on.
	Address string `json:"address,omitempty"`
}

// MetricsConfig contains Prometheus settings.
type MetricsConfig struct {
	// Namespace is the metrics namespace.
	Namespace string `json:"namespace,omitempty"`

	// Disabled turns the metrics middleware off.
	Disabled bool `json:"disabled,omitempty"`
}

// TracingConfig contains OpenTelemetry settings.
type TracingConfig struct {
	// TracerName is the name of the tracer.
	TracerName string `json:"tracerName,omitempty"`
}

// SnapshotConfig selects and configures the snapshot store.
type SnapshotConfig struct {
	// Backend is "bolt" or "s3".
	Backend string `json:"backend,omitempty"`

	Bolt BoltConfig `json:"bolt"`
	S3   S3Config   `json:"s3"`
}

// BoltConfig configures the local bbolt store.
type BoltConfig struct {
	// Path is the database file, relative to the config directory.
	Path string `json:"path,omitempty"`
}

// S3Config configures the S3 store.
type S3Config struct {
	Bucket   string `json:"bucket,omitempty"`
	Prefix   string `json:"prefix,omitempty"`
	Region   string `json:"region,omitempty"`
	Endpoint string `json:"endpoint,omitempty"`

	// PathStyle forces path-style addressing, needed by most S3-compatible
	// servers.
	PathStyle bool `json:"pathStyle,omitempty"`
}

// New creates a new Config with default values.
func New() *Config {
	c := &Config{}
	c.applyDefaults()
	return c
}

// Load reads configuration from the specified directory.
// It looks for vtree.json in the directory.
func Load(dir string) (*Config, error) {
	return LoadFile(filepath.Join(dir, ConfigFileName))
}

// LoadOptional is like Load but returns the defaults when the directory has
// no vtree.json.
func LoadOptional(dir string) (*Config, error) {
	if !Exists(dir) {
		c := New()
		c.configPath = filepath.Join(dir, ConfigFileName)
		return c, nil
	}
	return Load(dir)
}

// LoadFile reads configuration from the specified file path.
func LoadFile(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, errors.New("V020").
				WithDetail("No " + ConfigFileName + " found in " + filepath.Dir(path)).
				WithSuggestion("Create " + ConfigFileName + " or omit --config to use the defaults").
				Wrap(err)
		}
		return nil, errors.New("V020").Wrap(err)
	}

	var cfg Config
	if err := json.Unmarshal(data, &cfg); err != nil {
		return nil, errors.New("V020").
			WithDetail("Failed to parse " + ConfigFileName + ": " + err.Error())
	}

	cfg.configPath = path
	cfg.applyDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Save writes the configuration to the file it was loaded from.
func (c *Config) Save() error {
	if c.configPath == "" {
		return errors.Newf(errors.CategoryConfig, "no config path set")
	}
	return c.SaveTo(c.configPath)
}

// SaveTo writes the configuration to the specified path.
func (c *Config) SaveTo(path string) error {
	data, err := json.MarshalIndent(c, "", "  ")
	if err != nil {
		return errors.New("V020").Wrap(err)
	}
	data = append(data, '\n')

	if err := os.WriteFile(path, data, 0o644); err != nil {
		return errors.New("V020").Wrap(err)
	}

	c.configPath = path
	return nil
}

// Path returns the path where the config was loaded from.
func (c *Config) Path() string {
	return c.configPath
}

// Dir returns the directory containing the config file.
func (c *Config) Dir() string {
	if c.configPath == "" {
		return ""
	}
	return filepath.Dir(c.configPath)
}

// applyDefaults fills in default values for empty fields.
func (c *Config) applyDefaults() {
	if c.Layout.Width == 0 {
		c.Layout.Width = DefaultWidth
	}
	if c.Layout.Height == 0 {
		c.Layout.Height = DefaultHeight
	}
	if c.Log.Level == "" {
		c.Log.Level = "info"
	}
	if c.Inspector.Address == "" {
		c.Inspector.Address = DefaultAddress
	}
	if c.Metrics.Namespace == "" {
		c.Metrics.Namespace = DefaultNamespace
	}
	if c.Tracing.TracerName == "" {
		c.Tracing.TracerName = DefaultNamespace
	}
	if c.Snapshot.Backend == "" {
		c.Snapshot.Backend = BackendBolt
	}
	if c.Snapshot.Bolt.Path == "" {
		c.Snapshot.Bolt.Path = DefaultBoltPath
	}
}

// Validate checks if the configuration is valid.
func (c *Config) Validate() error {
	if c.Layout.Width < 0 || c.Layout.Height < 0 {
		return errors.New("V021").
			WithDetail(fmt.Sprintf("Layout size %vx%v must not be negative", c.Layout.Width, c.Layout.Height))
	}
	if _, err := c.LayoutOptions(); err != nil {
		return err
	}
	if _, err := ParseLevel(c.Log.Level); err != nil {
		return errors.New("V021").Wrap(err).
			WithSuggestion("Use one of debug, info, warn, error")
	}
	switch c.Snapshot.Backend {
	case BackendBolt:
	case BackendS3:
		if c.Snapshot.S3.Bucket == "" {
			return errors.New("V021").
				WithDetail("The s3 snapshot backend needs a bucket").
				WithSuggestion(`Set "snapshot": {"s3": {"bucket": "..."}}`)
		}
	default:
		return errors.New("V021").
			WithDetail(fmt.Sprintf("Unknown snapshot backend %q", c.Snapshot.Backend)).
			WithSuggestion(`Use "bolt" or "s3"`)
	}
	return nil
}

// Size returns the configured constrained size.
func (c *Config) Size() vtree.Size {
	return vtree.Size{Width: c.Layout.Width, Height: c.Layout.Height}
}

// LayoutOptions parses the configured layout option names. No names means
// vtree.OptionNone.
func (c *Config) LayoutOptions() (vtree.LayoutOptions, error) {
	if len(c.Layout.Options) == 0 {
		return vtree.OptionNone, nil
	}
	var opts vtree.LayoutOptions
	for _, name := range c.Layout.Options {
		o, ok := vtree.ParseLayoutOption(name)
		if !ok {
			return 0, errors.New("V021").
				WithDetail(fmt.Sprintf("Unknown layout option %q", name)).
				WithSuggestion("Use none, sizeContainerViewToFit or useSafeAreaInsets")
		}
		opts |= o
	}
	return opts, nil
}

// LogLevel returns the configured log level, or info when it is invalid.
func (c *Config) LogLevel() slog.Level {
	level, err := ParseLevel(c.Log.Level)
	if err != nil {
		return slog.LevelInfo
	}
	return level
}

// BoltPath returns the absolute path of the bbolt snapshot database.
func (c *Config) BoltPath() string {
	if filepath.IsAbs(c.Snapshot.Bolt.Path) {
		return c.Snapshot.Bolt.Path
	}
	return filepath.Join(c.Dir(), c.Snapshot.Bolt.Path)
}

// ParseLevel parses a log level name.
func ParseLevel(name string) (slog.Level, error) {
	var level slog.Level
	if err := level.UnmarshalText([]byte(strings.TrimSpace(name))); err != nil {
		return slog.LevelInfo, fmt.Errorf("invalid log level %q", name)
	}
	return level, nil
}

// Exists checks if a config file exists in the given directory.
func Exists(dir string) bool {
	_, err := os.Stat(filepath.Join(dir, ConfigFileName))
	return err == nil
}

// FindProjectRoot walks up directories to find the directory containing
// vtree.json.
func FindProjectRoot(startDir string) (string, error) {
	dir, err := filepath.Abs(startDir)
	if err != nil {
		return "", err
	}

	for {
		if Exists(dir) {
			return dir, nil
		}

		parent := filepath.Dir(dir)
		if parent == dir {
			return "", errors.New("V020").
				WithDetail("No " + ConfigFileName + " found in " + startDir + " or any parent directory")
		}
		dir = parent
	}
}

// LoadFromWorkingDir loads the nearest vtree.json above the working
// directory, or the defaults rooted at the working directory when there is
// none.
func LoadFromWorkingDir() (*Config, error) {
	wd, err := os.Getwd()
	if err != nil {
		return nil, err
	}

	root, err := FindProjectRoot(wd)
	if err != nil {
		return LoadOptional(wd)
	}
	return Load(root)
}
