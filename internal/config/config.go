// Package config loads label-designer configuration from YAML
package config

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"github.com/thereceipt/label-designer/internal/preview"
	"github.com/thereceipt/label-designer/internal/renderer"
	"gopkg.in/yaml.v3"
)

// Config is the top-level configuration
type Config struct {
	Server ServerConfig `yaml:"server"`
	Store  StoreConfig  `yaml:"store"`
	Render RenderConfig `yaml:"render"`
	Editor EditorConfig `yaml:"editor"`
	Jobs   JobsConfig   `yaml:"jobs"`
}

// ServerConfig controls the HTTP API
type ServerConfig struct {
	Port int    `yaml:"port"`
	Mode string `yaml:"mode"` // gin mode: debug | release | test
	// URL is where CLIs reach a running server
	URL string `yaml:"url"`
}

// StoreConfig selects the persistence backend
type StoreConfig struct {
	Driver string `yaml:"driver"` // file | sqlite | memory
	Path   string `yaml:"path"`
}

// RenderConfig configures previews
type RenderConfig struct {
	Scale   float64                     `yaml:"scale"`
	Fonts   map[string]renderer.FontSet `yaml:"fonts"`
	Logos   map[string]string           `yaml:"logos"`
	Samples map[string]interface{}      `yaml:"samples"`
}

// Options builds renderer options for previews. The scale is left for
// the caller to choose.
func (r RenderConfig) Options(logger *slog.Logger) renderer.Options {
	resolver := preview.New()
	if len(r.Samples) > 0 {
		resolver.SetSampleData(r.Samples)
	}
	return renderer.Options{
		Scale:    r.Scale,
		Preview:  true,
		Resolver: resolver,
		Fonts:    r.Fonts,
		Logos:    r.Logos,
		Logger:   logger,
	}
}

// EditorConfig holds the editor's initial toggles
type EditorConfig struct {
	GridSnap     bool `yaml:"grid_snap"`
	ObjectSnap   bool `yaml:"object_snap"`
	HistoryLimit int  `yaml:"history_limit"`
}

// JobsConfig tunes the background render queue
type JobsConfig struct {
	MaxRetries int           `yaml:"max_retries"`
	RetryDelay time.Duration `yaml:"retry_delay"`
}

// Default returns the configuration used when no file is found
func Default() *Config {
	cfg := &Config{}
	cfg.applyDefaults()
	return cfg
}

// LoadFile reads a YAML configuration file
func LoadFile(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config %s: %w", path, err)
	}

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("parse config %s: %w", path, err)
	}

	cfg.applyDefaults()
	return &cfg, nil
}

// Load finds and reads the configuration, then applies environment
// overrides. A missing file is not an error.
func Load() (*Config, error) {
	cfg := Default()
	if path := Find(); path != "" {
		var err error
		if cfg, err = LoadFile(path); err != nil {
			return nil, err
		}
	}
	if err := cfg.applyEnv(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Find returns the first config file that exists: $LABEL_CONFIG, next to
// the executable, the working directory, then ~/.config/label-designer
func Find() string {
	if p := os.Getenv("LABEL_CONFIG"); p != "" {
		return p
	}

	var candidates []string
	if exe, err := os.Executable(); err == nil {
		candidates = append(candidates, filepath.Join(filepath.Dir(exe), "label-designer.yaml"))
	}
	candidates = append(candidates, "label-designer.yaml")
	if dir, err := DataDir(); err == nil {
		candidates = append(candidates, filepath.Join(dir, "config.yaml"))
	}

	for _, p := range candidates {
		if _, err := os.Stat(p); err == nil {
			return p
		}
	}
	return ""
}

// DataDir returns ~/.config/label-designer
func DataDir() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(home, ".config", "label-designer"), nil
}

func (c *Config) applyDefaults() {
	if c.Server.Port <= 0 {
		c.Server.Port = 8080
	}
	if c.Server.Mode == "" {
		c.Server.Mode = "release"
	}
	if c.Server.URL == "" {
		c.Server.URL = defaultURL(c.Server.Port)
	}
	if c.Store.Driver == "" {
		c.Store.Driver = "file"
	}
	if c.Store.Path == "" && c.Store.Driver != "memory" {
		c.Store.Path = defaultStorePath(c.Store.Driver)
	}
	if c.Render.Scale <= 0 {
		c.Render.Scale = 1
	}
	if c.Editor.HistoryLimit < 0 {
		c.Editor.HistoryLimit = 0
	}
	if c.Jobs.MaxRetries <= 0 {
		c.Jobs.MaxRetries = 3
	}
	if c.Jobs.RetryDelay <= 0 {
		c.Jobs.RetryDelay = time.Second
	}
}

func defaultURL(port int) string {
	return fmt.Sprintf("http://localhost:%d", port)
}

func defaultStorePath(driver string) string {
	name := "templates.json"
	if driver == "sqlite" {
		name = "templates.db"
	}
	if dir, err := DataDir(); err == nil {
		return filepath.Join(dir, name)
	}
	return name
}

// applyEnv applies SERVER_PORT, LABEL_STORE_DRIVER and LABEL_STORE_PATH
func (c *Config) applyEnv() error {
	if v := os.Getenv("SERVER_PORT"); v != "" {
		port, err := strconv.Atoi(v)
		if err != nil || port <= 0 {
			return fmt.Errorf("invalid SERVER_PORT %q", v)
		}
		if c.Server.URL == defaultURL(c.Server.Port) {
			c.Server.URL = ""
		}
		c.Server.Port = port
	}
	if v := os.Getenv("LABEL_STORE_DRIVER"); v != "" {
		if c.Store.Driver != v && os.Getenv("LABEL_STORE_PATH") == "" {
			c.Store.Path = ""
		}
		c.Store.Driver = v
	}
	if v := os.Getenv("LABEL_STORE_PATH"); v != "" {
		c.Store.Path = v
	}
	if v := os.Getenv("LABEL_SERVER_URL"); v != "" {
		c.Server.URL = v
	}
	c.applyDefaults()
	return nil
}
