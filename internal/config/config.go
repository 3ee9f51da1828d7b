// Package config discovers and loads the dbflow configuration file.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/Aranil/dbflow/internal/logger"
	"github.com/spf13/afero"
	"gopkg.in/yaml.v3"
)

// EnvConfigPath names an environment variable pointing at a config file
const EnvConfigPath = "DBFLOW_CONFIG"

// DefaultSearchLevels is how many parent directories Discover climbs
const DefaultSearchLevels = 5

// FileNames are the config file names looked up in every searched directory
var FileNames = []string{"dbflow.yaml", "dbflow.yml", ".dbflow.yaml"}

// Config represents the dbflow.yaml configuration structure
type Config struct {
	Database struct {
		Path        string        `yaml:"path"`
		BusyTimeout time.Duration `yaml:"busy_timeout"`
	} `yaml:"database"`

	Catalog struct {
		Path string `yaml:"path"`
	} `yaml:"catalog"`

	SQL struct {
		TemplateDir   string `yaml:"template_dir"`
		ExecutedDir   string `yaml:"executed_dir"`
		WriteExecuted *bool  `yaml:"write_executed"`
	} `yaml:"sql"`

	Spatial struct {
		DefaultSRID int `yaml:"default_srid"`
	} `yaml:"spatial"`

	Logging struct {
		Level  string `yaml:"level"`
		File   string `yaml:"file"`
		Format string `yaml:"format"`
	} `yaml:"logging"`
}

// Default returns the built-in configuration
func Default() *Config {
	cfg := &Config{}
	cfg.applyDefaults()
	return cfg
}

func (c *Config) applyDefaults() {
	if c.Database.Path == "" {
		c.Database.Path = "dbflow.db"
	}
	if c.Database.BusyTimeout == 0 {
		c.Database.BusyTimeout = 5 * time.Second
	}
	if c.SQL.TemplateDir == "" {
		c.SQL.TemplateDir = "sql"
	}
	if c.SQL.ExecutedDir == "" {
		c.SQL.ExecutedDir = "_sql_executed"
	}
	if c.SQL.WriteExecuted == nil {
		write := true
		c.SQL.WriteExecuted = &write
	}
	if c.Spatial.DefaultSRID == 0 {
		c.Spatial.DefaultSRID = 4326
	}
	if c.Logging.Level == "" {
		c.Logging.Level = "warn"
	}
	if c.Logging.Format == "" {
		c.Logging.Format = "console"
	}
}

// ShouldWriteExecuted reports whether rendered templates are persisted
func (c *Config) ShouldWriteExecuted() bool {
	return c.SQL.WriteExecuted != nil && *c.SQL.WriteExecuted
}

// resolvePaths makes relative paths relative to the config file directory
func (c *Config) resolvePaths(base string) {
	resolve := func(p *string) {
		if *p != "" && !filepath.IsAbs(*p) {
			*p = filepath.Join(base, *p)
		}
	}
	resolve(&c.Database.Path)
	resolve(&c.Catalog.Path)
	resolve(&c.SQL.TemplateDir)
	resolve(&c.SQL.ExecutedDir)
	resolve(&c.Logging.File)
}

// Load reads the config file at path
func Load(fs afero.Fs, path string) (*Config, error) {
	data, err := afero.ReadFile(fs, path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config file: %w", err)
	}

	cfg.applyDefaults()
	cfg.resolvePaths(filepath.Dir(path))
	return &cfg, nil
}

// Find searches start and up to maxLevels parent directories for a config
// file and returns its path, or "" if none exists.
func Find(fs afero.Fs, start string, maxLevels int) string {
	dir := start
	for level := 0; level <= maxLevels; level++ {
		for _, name := range FileNames {
			candidate := filepath.Join(dir, name)
			if info, err := fs.Stat(candidate); err == nil && !info.IsDir() {
				return candidate
			}
		}
		parent := filepath.Dir(dir)
		if parent == dir {
			break
		}
		dir = parent
	}
	return ""
}

// Discover locates and loads the configuration. A missing file is not an
// error: the defaults are returned and a warning is logged. The returned path
// is empty when the defaults are used.
func Discover(fs afero.Fs, start string, maxLevels int) (*Config, string, error) {
	path := Find(fs, start, maxLevels)
	if path == "" {
		logger.Config().Warn("Config file not found. Using default values.", "start", start, "levels", maxLevels)
		cfg := Default()
		cfg.resolvePaths(start)
		return cfg, "", nil
	}

	cfg, err := Load(fs, path)
	if err != nil {
		return nil, path, err
	}

	logger.Config().Info("Found config file", "path", path)
	return cfg, path, nil
}

// Resolve loads the explicit path if given, then the file named by
// DBFLOW_CONFIG, and otherwise discovers one starting at the working directory.
func Resolve(fs afero.Fs, explicit string) (*Config, string, error) {
	if explicit == "" {
		explicit = os.Getenv(EnvConfigPath)
	}
	if explicit != "" {
		cfg, err := Load(fs, explicit)
		return cfg, explicit, err
	}

	wd, err := os.Getwd()
	if err != nil {
		return nil, "", fmt.Errorf("failed to get working directory: %w", err)
	}
	return Discover(fs, wd, DefaultSearchLevels)
}

// Save writes cfg as YAML to path, creating the parent directory
func Save(fs afero.Fs, cfg *Config, path string) error {
	if cfg == nil {
		return errors.New("config is nil")
	}
	if path == "" {
		path = FileNames[0]
	}

	if err := fs.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("failed to create directory: %w", err)
	}

	data, err := yaml.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}

	if err := afero.WriteFile(fs, path, data, 0644); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}

	return nil
}
