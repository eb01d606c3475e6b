// Package config loads wildprompt configuration from a YAML file, .env files
// and WILDPROMPT_* environment variables.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"

	"nickandperla.net/wildprompt/internal/logging"
)

// Backends.
const (
	BackendDir    = "dir"
	BackendSQLite = "sqlite"
	BackendBunt   = "bunt"
	BackendMemory = "memory"
)

// EnvPrefix prefixes every environment variable read by ApplyEnv.
const EnvPrefix = "WILDPROMPT_"

// DefaultPersistName is the persist file created in the first wildcard
// directory when none is configured.
const DefaultPersistName = "wildprompt.yaml"

// Config is the complete wildprompt configuration.
type Config struct {
	Backend       string    `yaml:"backend"`
	Wildcards     []string  `yaml:"wildcards"`
	PersistFile   string    `yaml:"persist_file"`
	Database      string    `yaml:"database"`
	Root          string    `yaml:"root"`
	MaxIterations int       `yaml:"max_iterations"`
	Watch         bool      `yaml:"watch"`
	Log           LogConfig `yaml:"log"`
}

// LogConfig configures logging.
type LogConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
}

// Load reads the YAML file at path, applies environment overrides and
// defaults, then validates the result.
func Load(path string) (*Config, error) {
	cfg, err := Read(path)
	if err != nil {
		return nil, err
	}
	if err := cfg.ApplyEnv(); err != nil {
		return nil, err
	}
	cfg.SetDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Read parses the YAML file at path without applying the environment or
// defaults. An empty path yields an empty Config.
func Read(path string) (*Config, error) {
	cfg := &Config{}
	if path == "" {
		return cfg, nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file %s: %w", path, err)
	}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config file %s: %w", path, err)
	}
	return cfg, nil
}

// LoadEnvFiles loads .env style files into the process environment without
// overriding variables that are already set. Missing files are skipped.
func LoadEnvFiles(files ...string) error {
	if len(files) == 0 {
		files = []string{".env.local", ".env"}
	}
	for _, file := range files {
		if err := godotenv.Load(file); err != nil && !errors.Is(err, fs.ErrNotExist) {
			return fmt.Errorf("failed to load %s: %w", file, err)
		}
	}
	return nil
}

// ApplyEnv overrides fields from WILDPROMPT_* variables.
func (c *Config) ApplyEnv() error {
	if v, ok := lookup("BACKEND"); ok {
		c.Backend = v
	}
	if v, ok := lookup("WILDCARDS"); ok {
		c.Wildcards = filepath.SplitList(v)
	}
	if v, ok := lookup("PERSIST_FILE"); ok {
		c.PersistFile = v
	}
	if v, ok := lookup("DB"); ok {
		c.Database = v
	}
	if v, ok := lookup("ROOT"); ok {
		c.Root = v
	}
	if v, ok := lookup("MAX_ITERATIONS"); ok {
		n, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("%sMAX_ITERATIONS: %w", EnvPrefix, err)
		}
		c.MaxIterations = n
	}
	if v, ok := lookup("WATCH"); ok {
		b, err := strconv.ParseBool(v)
		if err != nil {
			return fmt.Errorf("%sWATCH: %w", EnvPrefix, err)
		}
		c.Watch = b
	}
	if v, ok := lookup("LOG_LEVEL"); ok {
		c.Log.Level = v
	}
	if v, ok := lookup("LOG_FORMAT"); ok {
		c.Log.Format = v
	}
	return nil
}

func lookup(name string) (string, bool) {
	v, ok := os.LookupEnv(EnvPrefix + name)
	return strings.TrimSpace(v), ok && strings.TrimSpace(v) != ""
}

// SetDefaults fills unset fields.
func (c *Config) SetDefaults() {
	if c.Backend == "" {
		c.Backend = BackendDir
	}
	if len(c.Wildcards) == 0 {
		c.Wildcards = []string{"wildcards"}
	}
	if c.PersistFile == "" {
		c.PersistFile = filepath.Join(c.Wildcards[0], DefaultPersistName)
	}
	if c.Database == "" {
		switch c.Backend {
		case BackendSQLite:
			c.Database = "wildprompt.db"
		case BackendBunt:
			c.Database = "wildprompt.bunt"
		}
	}
	if c.Root == "" {
		c.Root = "m"
	}
	if c.MaxIterations == 0 {
		c.MaxIterations = 1000
	}
	if c.Log.Level == "" {
		c.Log.Level = "info"
	}
	if c.Log.Format == "" {
		c.Log.Format = "console"
	}
}

// Validate checks the configuration.
func (c *Config) Validate() error {
	switch c.Backend {
	case BackendDir, BackendSQLite, BackendBunt, BackendMemory:
	default:
		return fmt.Errorf("unknown backend %q (want dir, sqlite, bunt or memory)", c.Backend)
	}
	if (c.Backend == BackendSQLite || c.Backend == BackendBunt) && c.Database == "" {
		return fmt.Errorf("backend %s requires a database path", c.Backend)
	}
	if c.MaxIterations < 0 {
		return fmt.Errorf("max_iterations must be positive, got %d", c.MaxIterations)
	}
	if strings.Trim(c.Root, "/") != c.Root || c.Root == "" {
		return fmt.Errorf("invalid root %q", c.Root)
	}
	if _, err := logging.ParseLevel(c.Log.Level); err != nil {
		return err
	}
	switch c.Log.Format {
	case "json", "console":
	default:
		return fmt.Errorf("unknown log format %q", c.Log.Format)
	}
	return nil
}
