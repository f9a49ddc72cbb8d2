package config

import (
	"fmt"
	"os"
	"strconv"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// Environment variables read by Load.
const (
	EnvAppName          = "APP_NAME"
	EnvAppEnv           = "APP_ENV"
	EnvAppDebug         = "APP_DEBUG"
	EnvResolver         = "INJECT_CONFLICT_RESOLVER"
	EnvRoundThreshold   = "INJECT_ROUND_WARN_THRESHOLD"
	EnvLogVerbosity     = "INJECT_LOG_VERBOSITY"
	EnvInspectorEnabled = "INJECT_INSPECTOR_ENABLED"
	EnvInspectorAddr    = "INJECT_INSPECTOR_ADDR"
)

// Config is the central typed configuration struct.
type Config struct {
	App       AppConfig       `yaml:"app" json:"app"`
	Container ContainerConfig `yaml:"container" json:"container"`
	Inspector InspectorConfig `yaml:"inspector" json:"inspector"`
}

type AppConfig struct {
	Name  string `yaml:"name" json:"name"`
	Env   string `yaml:"env" json:"env"` // local | production | testing
	Debug bool   `yaml:"debug" json:"debug"`
}

// ContainerConfig holds the settings the kernel hands to container.New.
type ContainerConfig struct {
	Resolver       string `yaml:"resolver" json:"resolver"` // strict | standard | order
	RoundThreshold int    `yaml:"round_threshold" json:"round_threshold"`
	LogVerbosity   int    `yaml:"log_verbosity" json:"log_verbosity"`
}

type InspectorConfig struct {
	Enabled bool   `yaml:"enabled" json:"enabled"`
	Addr    string `yaml:"addr" json:"addr"`
}

// Load reads .env (if present) and populates a Config from environment variables.
// Call once at bootstrap: cfg := config.Load()
func Load(envFiles ...string) *Config {
	files := envFiles
	if len(files) == 0 {
		files = []string{".env"}
	}
	// Non-fatal: .env may not exist in production
	_ = godotenv.Load(files...)

	return &Config{
		App: AppConfig{
			Name:  env(EnvAppName, "GoInject"),
			Env:   env(EnvAppEnv, "local"),
			Debug: envBool(EnvAppDebug, false),
		},
		Container: ContainerConfig{
			Resolver:       env(EnvResolver, "standard"),
			RoundThreshold: GetInt(EnvRoundThreshold, 5),
			LogVerbosity:   GetInt(EnvLogVerbosity, 0),
		},
		Inspector: InspectorConfig{
			Enabled: envBool(EnvInspectorEnabled, false),
			Addr:    env(EnvInspectorAddr, ":9090"),
		},
	}
}

// LoadFile overlays the YAML file at path onto c. Keys absent from the file
// keep their current value.
//
//	container:
//	  resolver: strict
//	inspector:
//	  enabled: true
func (c *Config) LoadFile(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("config: read %s: %w", path, err)
	}
	if err := yaml.Unmarshal(data, c); err != nil {
		return fmt.Errorf("config: parse %s: %w", path, err)
	}
	return nil
}

// Property returns the setting stored under an environment key, so values
// from a YAML overlay are seen the same way as the environment. Unknown keys
// fall through to the process environment.
func (c *Config) Property(key string) (string, bool) {
	switch key {
	case EnvAppName:
		return c.App.Name, true
	case EnvAppEnv:
		return c.App.Env, true
	case EnvAppDebug:
		return strconv.FormatBool(c.App.Debug), true
	case EnvResolver:
		return c.Container.Resolver, true
	case EnvRoundThreshold:
		return strconv.Itoa(c.Container.RoundThreshold), true
	case EnvLogVerbosity:
		return strconv.Itoa(c.Container.LogVerbosity), true
	case EnvInspectorEnabled:
		return strconv.FormatBool(c.Inspector.Enabled), true
	case EnvInspectorAddr:
		return c.Inspector.Addr, true
	}
	return os.LookupEnv(key)
}

// Validate checks the settings against their rules.
func (c *Config) Validate() error {
	data := make(map[string]string, len(rules))
	for key := range rules {
		data[key], _ = c.Property(key)
	}
	return Make(data, rules).Validate()
}

var rules = Rules{
	EnvAppName:          "required",
	EnvAppEnv:           "required|in:local,production,testing",
	EnvResolver:         "required|in:strict,standard,order",
	EnvRoundThreshold:   "required|integer|gte:0",
	EnvLogVerbosity:     "required|integer|gte:0|lte:10",
	EnvInspectorEnabled: "boolean",
	EnvInspectorAddr:    `required|regex:^[\w.\-]*:\d+$`,
}

// GetInt returns an int env value.
func GetInt(key string, defaultVal int) int {
	v := os.Getenv(key)
	if v == "" {
		return defaultVal
	}
	i, err := strconv.Atoi(v)
	if err != nil {
		return defaultVal
	}
	return i
}

// ── helpers ─────────────────────────────────────────────────────────────────

func env(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func envBool(key string, fallback bool) bool {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		return fallback
	}
	return b
}
