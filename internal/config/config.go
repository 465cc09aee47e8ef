package config

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/soochol/droidflow/internal/droidflow"
)

// Environment variables that override file values.
const (
	EnvConfigPath    = "DROIDFLOW_CONFIG"
	EnvExtraRoots    = "WORKFLOW_EXTRA_ROOTS"
	EnvMessagingPath = "MESSAGING_CONFIG_PATH"
	EnvADBPath       = "ADB_PATH"
)

const defaultPath = "droidflow.yaml"

// DefaultMessagingPath is used when no messaging config path is supplied.
const DefaultMessagingPath = "config/messaging.json"

// Config holds the top-level application configuration.
type Config struct {
	Device    DeviceConfig    `yaml:"device"`
	Workflows WorkflowsConfig `yaml:"workflows"`
	Notify    NotifyConfig    `yaml:"notify"`
	Log       LogConfig       `yaml:"log"`
}

// DeviceConfig tunes the device driver and the wake/unlock step.
type DeviceConfig struct {
	ADBPath        string          `yaml:"adb_path"`
	CommandTimeout time.Duration   `yaml:"command_timeout"`
	Settle         time.Duration   `yaml:"settle"`       // pause after wake and unlock
	RewakeAfter    time.Duration   `yaml:"rewake_after"` // re-run wake when pre-dispatch hooks blocked this long
	LockedPackage  string          `yaml:"locked_package"`
	UnlockSwipe    droidflow.Swipe `yaml:"unlock_swipe"`
}

// WorkflowsConfig lists workflow search roots beyond the builtin one.
type WorkflowsConfig struct {
	ExtraRoots []string `yaml:"extra_roots"`
}

// NotifyConfig points at the messaging channel configuration.
type NotifyConfig struct {
	Path string `yaml:"path"`
}

type LogConfig struct {
	Debug bool `yaml:"debug"`
}

// defaults returns a Config populated with sensible default values.
func defaults() *Config {
	return &Config{
		Device: DeviceConfig{
			ADBPath:        "adb",
			CommandTimeout: 30 * time.Second,
			Settle:         500 * time.Millisecond,
			RewakeAfter:    30 * time.Second,
			LockedPackage:  "com.android.systemui",
			UnlockSwipe:    droidflow.DefaultUnlockSwipe,
		},
		Workflows: WorkflowsConfig{ExtraRoots: []string{"workflows"}},
		Notify:    NotifyConfig{Path: DefaultMessagingPath},
	}
}

// Load reads a YAML configuration file at path and returns a Config.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading config file: %w", err)
	}

	cfg := defaults()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parsing config file: %w", err)
	}
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// LoadDefault loads the file named by DROIDFLOW_CONFIG, or "droidflow.yaml"
// from the current directory, then applies environment overrides.
// A missing file yields defaults; any other error is returned.
func LoadDefault() (*Config, error) {
	path := os.Getenv(EnvConfigPath)
	if path == "" {
		path = defaultPath
	}
	cfg, err := Load(path)
	if err != nil {
		if !errors.Is(err, os.ErrNotExist) {
			return nil, err
		}
		cfg = defaults()
	}
	cfg.ApplyEnv(os.Getenv)
	return cfg, nil
}

// ApplyEnv overlays environment values onto cfg.
func (c *Config) ApplyEnv(getenv func(string) string) {
	if v, ok := lookup(getenv, EnvExtraRoots); ok {
		c.Workflows.ExtraRoots = splitList(v)
	}
	if v, ok := lookup(getenv, EnvMessagingPath); ok {
		c.Notify.Path = v
	}
	if v, ok := lookup(getenv, EnvADBPath); ok {
		c.Device.ADBPath = v
	}
}

func (c *Config) validate() error {
	if c.Device.Settle < 0 {
		return fmt.Errorf("device.settle must not be negative")
	}
	if c.Device.CommandTimeout < 0 {
		return fmt.Errorf("device.command_timeout must not be negative")
	}
	if c.Device.ADBPath == "" {
		c.Device.ADBPath = "adb"
	}
	return nil
}

func lookup(getenv func(string) string, key string) (string, bool) {
	v := strings.TrimSpace(getenv(key))
	return v, v != ""
}

func splitList(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if p := strings.TrimSpace(part); p != "" {
			out = append(out, p)
		}
	}
	return out
}
