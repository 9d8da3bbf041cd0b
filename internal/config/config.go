package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/spf13/pflag"
	"github.com/spf13/viper"
	"gopkg.in/yaml.v3"

	"github.com/bryanchriswhite/screengrab/internal/capture"
	"github.com/bryanchriswhite/screengrab/internal/logger"
	"github.com/bryanchriswhite/screengrab/internal/output"
)

// EnvPrefix prefixes every environment override, e.g. SCREENGRAB_BACKEND
const EnvPrefix = "SCREENGRAB"

// Config is the resolved configuration
type Config struct {
	LogLevel       string        `json:"log_level" yaml:"log_level" mapstructure:"log_level"`
	LogPretty      bool          `json:"log_pretty" yaml:"log_pretty" mapstructure:"log_pretty"`
	Backend        string        `json:"backend" yaml:"backend" mapstructure:"backend"`
	ScaleToLogical bool          `json:"scale_to_logical" yaml:"scale_to_logical" mapstructure:"scale_to_logical"`
	Capture        CaptureConfig `json:"capture" yaml:"capture" mapstructure:"capture"`
	Output         OutputConfig  `json:"output" yaml:"output" mapstructure:"output"`
	ServerPort     int           `json:"server_port" yaml:"server_port" mapstructure:"server_port"`
}

// CaptureConfig tunes the platform backends
type CaptureConfig struct {
	Composite     bool          `json:"composite" yaml:"composite" mapstructure:"composite"`
	PortalTimeout time.Duration `json:"portal_timeout" yaml:"portal_timeout" mapstructure:"portal_timeout"`
	IncludeCursor bool          `json:"include_cursor" yaml:"include_cursor" mapstructure:"include_cursor"`
}

// OutputConfig controls how captures are written to disk
type OutputConfig struct {
	Dir         string `json:"dir" yaml:"dir" mapstructure:"dir"`
	Format      string `json:"format" yaml:"format" mapstructure:"format"`
	JPEGQuality int    `json:"jpeg_quality" yaml:"jpeg_quality" mapstructure:"jpeg_quality"`
}

// Defaults returns the configuration used when nothing else is set
func Defaults() Config {
	opts := capture.DefaultOptions()
	return Config{
		LogLevel:       "info",
		LogPretty:      true,
		Backend:        string(opts.Backend),
		ScaleToLogical: opts.ScaleToLogical,
		Capture: CaptureConfig{
			Composite:     opts.Composite,
			PortalTimeout: opts.PortalTimeout,
			IncludeCursor: opts.IncludeCursor,
		},
		Output: OutputConfig{
			Dir:         ".",
			Format:      "png",
			JPEGQuality: 90,
		},
		ServerPort: 8080,
	}
}

// Manager layers defaults, the config file, SCREENGRAB_* environment
// variables and bound flags, in increasing precedence
type Manager struct {
	configPath string
	v          *viper.Viper
	defaults   *viper.Viper
	mu         sync.RWMutex
}

// DefaultPath returns $HOME/.config/screengrab/config.yaml
func DefaultPath() (string, error) {
	homeDir, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("failed to get home directory: %w", err)
	}
	return filepath.Join(homeDir, ".config", "screengrab", "config.yaml"), nil
}

// NewManager loads configFile, or the default path when it is empty. A
// missing file is not an error; defaults apply until Save writes one.
func NewManager(configFile string) (*Manager, error) {
	actualConfigPath := configFile
	if actualConfigPath == "" {
		p, err := DefaultPath()
		if err != nil {
			return nil, err
		}
		actualConfigPath = p
	}

	v := viper.New()
	setDefaults(v, Defaults())
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	v.SetConfigFile(actualConfigPath)
	v.SetConfigType("yaml")

	defaults := viper.New()
	setDefaults(defaults, Defaults())

	m := &Manager{configPath: actualConfigPath, v: v, defaults: defaults}

	if err := v.ReadInConfig(); err != nil {
		if !errors.Is(err, os.ErrNotExist) {
			var notFound viper.ConfigFileNotFoundError
			if !errors.As(err, &notFound) {
				return nil, fmt.Errorf("failed to read config: %w", err)
			}
		}
		logger.WithComponent("config").Debug().
			Str("path", m.configPath).
			Msg("Config file not found, using defaults")
	} else {
		logger.WithComponent("config").Debug().
			Str("path", m.configPath).
			Msg("Config loaded")
	}

	return m, nil
}

func setDefaults(v *viper.Viper, d Config) {
	v.SetDefault("log_level", d.LogLevel)
	v.SetDefault("log_pretty", d.LogPretty)
	v.SetDefault("backend", d.Backend)
	v.SetDefault("scale_to_logical", d.ScaleToLogical)
	v.SetDefault("capture.composite", d.Capture.Composite)
	v.SetDefault("capture.portal_timeout", d.Capture.PortalTimeout)
	v.SetDefault("capture.include_cursor", d.Capture.IncludeCursor)
	v.SetDefault("output.dir", d.Output.Dir)
	v.SetDefault("output.format", d.Output.Format)
	v.SetDefault("output.jpeg_quality", d.Output.JPEGQuality)
	v.SetDefault("server_port", d.ServerPort)
}

// GetViper exposes the underlying viper instance
func (m *Manager) GetViper() *viper.Viper {
	return m.v
}

// BindFlag makes flag override key when the flag is set on the command line
func (m *Manager) BindFlag(key string, flag *pflag.Flag) error {
	if flag == nil {
		return fmt.Errorf("no flag for %s", key)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.v.BindPFlag(key, flag)
}

// Get resolves and validates the configuration
func (m *Manager) Get() (*Config, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	var cfg Config
	if err := m.v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to decode config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Keys lists every configuration key, sorted
func (m *Manager) Keys() []string {
	m.mu.RLock()
	defer m.mu.RUnlock()
	keys := m.v.AllKeys()
	sort.Strings(keys)
	return keys
}

// Value returns the resolved value of key
func (m *Manager) Value(key string) (interface{}, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if !m.known(key) {
		return nil, fmt.Errorf("configuration key not found: %s", key)
	}
	return m.v.Get(key), nil
}

// Set parses value according to the type of key's default and stores it.
// The resulting configuration must validate.
func (m *Manager) Set(key, value string) error {
	m.mu.Lock()
	if !m.known(key) {
		m.mu.Unlock()
		return fmt.Errorf("configuration key not found: %s", key)
	}

	var parsed interface{}
	var err error
	switch m.defaults.Get(key).(type) {
	case bool:
		parsed, err = strconv.ParseBool(value)
	case int:
		parsed, err = strconv.Atoi(value)
	case time.Duration:
		parsed, err = time.ParseDuration(value)
	default:
		parsed = value
	}
	if err != nil {
		m.mu.Unlock()
		return fmt.Errorf("invalid value for %s: %w", key, err)
	}

	prev := m.v.Get(key)
	m.v.Set(key, parsed)
	m.mu.Unlock()

	if _, err := m.Get(); err != nil {
		m.mu.Lock()
		m.v.Set(key, prev)
		m.mu.Unlock()
		return err
	}
	return nil
}

func (m *Manager) known(key string) bool {
	key = strings.ToLower(key)
	for _, k := range m.v.AllKeys() {
		if k == key {
			return true
		}
	}
	return false
}

// Save writes the resolved configuration to the config path as YAML
func (m *Manager) Save() error {
	cfg, err := m.Get()
	if err != nil {
		return err
	}

	logger.WithComponent("config").Debug().
		Str("path", m.configPath).
		Msg("Saving config")

	configDir := filepath.Dir(m.configPath)
	if err := os.MkdirAll(configDir, 0755); err != nil {
		logger.WithComponent("config").Error().
			Err(err).
			Str("config_dir", configDir).
			Msg("Failed to create config directory")
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	data, err := yaml.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}

	if err := os.WriteFile(m.configPath, data, 0644); err != nil {
		logger.WithComponent("config").Error().
			Err(err).
			Str("path", m.configPath).
			Msg("Failed to write config")
		return err
	}

	logger.WithComponent("config").Info().
		Str("path", m.configPath).
		Msg("Config saved successfully")
	return nil
}

// GetConfigPath returns the path to the config file
func (m *Manager) GetConfigPath() string {
	return m.configPath
}

var validLevels = map[string]bool{
	"trace": true, "debug": true, "info": true, "warn": true, "warning": true,
	"error": true, "disabled": true, "off": true,
}

// Validate checks every field that has a constrained range
func (c *Config) Validate() error {
	if !validLevels[strings.ToLower(c.LogLevel)] {
		return fmt.Errorf("invalid log level: %q (use: debug, info, warn, error)", c.LogLevel)
	}
	if _, err := capture.ParseKind(c.Backend); err != nil {
		return err
	}
	if c.Capture.PortalTimeout <= 0 {
		return fmt.Errorf("capture.portal_timeout must be positive, got %s", c.Capture.PortalTimeout)
	}
	if _, err := output.ParseFormat(c.Output.Format); err != nil {
		return err
	}
	if c.Output.JPEGQuality < 1 || c.Output.JPEGQuality > 100 {
		return fmt.Errorf("output.jpeg_quality must be 1-100, got %d", c.Output.JPEGQuality)
	}
	if c.ServerPort < 1 || c.ServerPort > 65535 {
		return fmt.Errorf("invalid port number: %d", c.ServerPort)
	}
	return nil
}

// CaptureOptions converts the configuration into router options
func (c *Config) CaptureOptions() (capture.Options, error) {
	kind, err := capture.ParseKind(c.Backend)
	if err != nil {
		return capture.Options{}, err
	}
	return capture.Options{
		Backend:        kind,
		ScaleToLogical: c.ScaleToLogical,
		Composite:      c.Capture.Composite,
		IncludeCursor:  c.Capture.IncludeCursor,
		PortalTimeout:  c.Capture.PortalTimeout,
	}, nil
}

// Encoding returns the image encoding settings for outputs
func (c *Config) Encoding() output.Config {
	format, err := output.ParseFormat(c.Output.Format)
	if err != nil {
		format = output.FormatPNG
	}
	return output.Config{Format: format, JPEGQuality: c.Output.JPEGQuality}
}
