package config

import (
	"encoding/json"
	"errors"
	"fmt"
	"net"
	"os"
	"path/filepath"
	"strconv"
)

const (
	// ConfigFileName is the name of the configuration file.
	ConfigFileName = "ripple.json"

	// DefaultInspectorPort is the default inspector server port.
	DefaultInspectorPort = 4000

	// DefaultInspectorHost is the default inspector server host.
	DefaultInspectorHost = "localhost"

	// DefaultMetricsNamespace is the default Prometheus metric namespace.
	DefaultMetricsNamespace = "ripple"

	// DefaultPersistDir is the default snapshot directory.
	DefaultPersistDir = ".ripple"

	// DefaultSnapshotName is the default snapshot name.
	DefaultSnapshotName = "state"
)

// ErrNoConfig reports that no ripple.json could be found.
var ErrNoConfig = errors.New("ripple.json not found")

// Config represents the complete ripple.json configuration.
type Config struct {
	// Name is the project name.
	Name string `json:"name,omitempty"`

	// Debug enables verbose runtime diagnostics.
	Debug bool `json:"debug,omitempty"`

	// Inspector contains inspector server configuration.
	Inspector InspectorConfig `json:"inspector,omitempty"`

	// Metrics contains Prometheus metric configuration.
	Metrics MetricsConfig `json:"metrics,omitempty"`

	// Persist contains snapshot persistence configuration.
	Persist PersistConfig `json:"persist,omitempty"`

	// configPath stores the path where the config was loaded from.
	configPath string
}

// InspectorConfig contains inspector server settings.
type InspectorConfig struct {
	// Host is the host to bind the inspector to.
	Host string `json:"host,omitempty"`

	// Port is the port to run the inspector on.
	Port int `json:"port,omitempty"`

	// MaxValueLen caps the length of signal values shown in the graph.
	MaxValueLen int `json:"maxValueLen,omitempty"`
}

// MetricsConfig contains Prometheus metric settings.
type MetricsConfig struct {
	// Namespace is the metric name prefix.
	Namespace string `json:"namespace,omitempty"`

	// Subsystem is the optional second metric name segment.
	Subsystem string `json:"subsystem,omitempty"`
}

// PersistConfig contains snapshot persistence settings.
type PersistConfig struct {
	// Dir is the directory snapshots are written to.
	Dir string `json:"dir,omitempty"`

	// Snapshot is the snapshot name.
	Snapshot string `json:"snapshot,omitempty"`
}

// New creates a new Config with default values.
func New() *Config {
	return &Config{
		Inspector: InspectorConfig{
			Host:        DefaultInspectorHost,
			Port:        DefaultInspectorPort,
			MaxValueLen: 128,
		},
		Metrics: MetricsConfig{
			Namespace: DefaultMetricsNamespace,
		},
		Persist: PersistConfig{
			Dir:      DefaultPersistDir,
			Snapshot: DefaultSnapshotName,
		},
	}
}

// Load reads configuration from the specified directory.
// It looks for ripple.json in the directory.
func Load(dir string) (*Config, error) {
	return LoadFile(filepath.Join(dir, ConfigFileName))
}

// LoadFile reads configuration from the specified file path.
func LoadFile(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("%w in %s", ErrNoConfig, filepath.Dir(path))
		}
		return nil, fmt.Errorf("read %s: %w", path, err)
	}

	cfg := New()
	if err := json.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parse %s: %w", path, err)
	}

	cfg.configPath = path
	cfg.applyDefaults()

	return cfg, nil
}

// Save writes the configuration to the file it was loaded from.
func (c *Config) Save() error {
	if c.configPath == "" {
		return errors.New("no config path set, use SaveTo")
	}
	return c.SaveTo(c.configPath)
}

// SaveTo writes the configuration to the specified path.
func (c *Config) SaveTo(path string) error {
	data, err := json.MarshalIndent(c, "", "  ")
	if err != nil {
		return fmt.Errorf("encode config: %w", err)
	}
	data = append(data, '\n')

	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("write %s: %w", path, err)
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
	if c.Inspector.Host == "" {
		c.Inspector.Host = DefaultInspectorHost
	}
	if c.Inspector.Port == 0 {
		c.Inspector.Port = DefaultInspectorPort
	}
	if c.Inspector.MaxValueLen == 0 {
		c.Inspector.MaxValueLen = 128
	}
	if c.Metrics.Namespace == "" {
		c.Metrics.Namespace = DefaultMetricsNamespace
	}
	if c.Persist.Dir == "" {
		c.Persist.Dir = DefaultPersistDir
	}
	if c.Persist.Snapshot == "" {
		c.Persist.Snapshot = DefaultSnapshotName
	}
}

// Validate checks if the configuration is valid.
func (c *Config) Validate() error {
	if c.Inspector.Port < 0 || c.Inspector.Port > 65535 {
		return fmt.Errorf("inspector port %d out of range 0-65535", c.Inspector.Port)
	}
	if c.Inspector.MaxValueLen < 0 {
		return fmt.Errorf("inspector maxValueLen %d must not be negative", c.Inspector.MaxValueLen)
	}
	return nil
}

// InspectorAddress returns the listen address for the inspector server.
func (c *Config) InspectorAddress() string {
	return net.JoinHostPort(c.Inspector.Host, strconv.Itoa(c.Inspector.Port))
}

// InspectorURL returns the full URL for the inspector server.
func (c *Config) InspectorURL() string {
	return "http://" + c.InspectorAddress()
}

// SnapshotDir returns the absolute path to the snapshot directory.
func (c *Config) SnapshotDir() string {
	if filepath.IsAbs(c.Persist.Dir) {
		return c.Persist.Dir
	}
	return filepath.Join(c.Dir(), c.Persist.Dir)
}

// Exists checks if a config file exists in the given directory.
func Exists(dir string) bool {
	_, err := os.Stat(filepath.Join(dir, ConfigFileName))
	return err == nil
}

// FindProjectRoot walks up directories to find the project root.
// Returns the directory containing ripple.json, or ErrNoConfig if no
// parent directory has one.
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
			return "", fmt.Errorf("%w in %s or any parent directory", ErrNoConfig, startDir)
		}
		dir = parent
	}
}

// LoadFromWorkingDir loads configuration from the current working directory.
func LoadFromWorkingDir() (*Config, error) {
	wd, err := os.Getwd()
	if err != nil {
		return nil, err
	}

	root, err := FindProjectRoot(wd)
	if err != nil {
		return nil, err
	}

	return Load(root)
}
