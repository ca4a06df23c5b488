package main

import (
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"
)

type config struct {
	UserAgent  string `yaml:"user_agent"`
	Timeout    int    `yaml:"timeout"`
	MaxRetries int    `yaml:"max_retries"`
	CurlPath   string `yaml:"curl_path"`
	NoImages   bool   `yaml:"no_images"`
	NoCurl     bool   `yaml:"no_curl"`
}

// options carries the flag values. Zero values mean the flag was left
// alone, mirroring the config merge rules.
type options struct {
	ConfigPath string
	UserAgent  string
	Timeout    int
	MaxRetries int
	CurlPath   string
	NoImages   bool
	NoCurl     bool
}

func defaultConfig() *config {
	return &config{
		Timeout:    20,
		MaxRetries: 2,
		CurlPath:   "curl",
	}
}

func defaultConfigPath() string {
	// Windows
	if appdata := os.Getenv("APPDATA"); appdata != "" {
		return filepath.Join(appdata, "stele", "config.yaml")
	}

	// Linux/macOS XDG
	if xdg := os.Getenv("XDG_CONFIG_HOME"); xdg != "" {
		return filepath.Join(xdg, "stele", "config.yaml")
	}

	// Linux/macOS default
	home, _ := os.UserHomeDir()
	return filepath.Join(home, ".config", "stele", "config.yaml")
}

func loadYAML(path string) (*config, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	var c config
	if err := yaml.Unmarshal(b, &c); err != nil {
		return nil, err
	}

	return &c, nil
}

// loadMergedConfig layers flag values over the config file over the
// defaults. A missing file is only an error when its path was given
// explicitly.
func loadMergedConfig(opts options) (*config, error) {
	cfg := defaultConfig()

	path := opts.ConfigPath
	explicit := path != ""
	if !explicit {
		path = defaultConfigPath()
	}

	loaded, err := loadYAML(path)
	switch {
	case err == nil:
		mergeConfig(cfg, loaded)
	case os.IsNotExist(err) && !explicit:
	default:
		return nil, fmt.Errorf("failed to load config %s: %w", path, err)
	}

	mergeOptions(cfg, opts)
	return cfg, nil
}

func mergeConfig(c, o *config) {
	if o.UserAgent != "" {
		c.UserAgent = o.UserAgent
	}
	if o.Timeout != 0 {
		c.Timeout = o.Timeout
	}
	if o.MaxRetries != 0 {
		c.MaxRetries = o.MaxRetries
	}
	if o.CurlPath != "" {
		c.CurlPath = o.CurlPath
	}
	if o.NoImages {
		c.NoImages = true
	}
	if o.NoCurl {
		c.NoCurl = true
	}
}

func mergeOptions(c *config, o options) {
	if o.UserAgent != "" {
		c.UserAgent = o.UserAgent
	}
	if o.Timeout != 0 {
		c.Timeout = o.Timeout
	}
	if o.MaxRetries != 0 {
		c.MaxRetries = o.MaxRetries
	}
	if o.CurlPath != "" {
		c.CurlPath = o.CurlPath
	}
	if o.NoImages {
		c.NoImages = true
	}
	if o.NoCurl {
		c.NoCurl = true
	}
}
