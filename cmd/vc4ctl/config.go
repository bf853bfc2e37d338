//go:build linux

package main

import (
	"os"
	"path/filepath"

	"github.com/urfave/cli/v3"
	"gopkg.in/yaml.v3"
)

// Config is the vc4ctl configuration file (~/.config/vc4ctl/config.yaml).
// Absent fields keep the built-in defaults.
type Config struct {
	MailboxPath string `yaml:"mailbox_path"`
	MemPath     string `yaml:"mem_path"`
	LogLevel    string `yaml:"log_level"`

	Bench struct {
		SizeMB     int `yaml:"size_mb"`
		Iterations int `yaml:"iterations"`
		Warmup     int `yaml:"warmup"`
	} `yaml:"bench"`

	ServerAddress string `yaml:"server_address"`
}

func configPath() string {
	dir, err := os.UserConfigDir()
	if err != nil {
		return ""
	}
	return filepath.Join(dir, "vc4ctl", "config.yaml")
}

// loadConfig reads the config file; a missing file yields a zero Config.
func loadConfig() (Config, error) {
	var cfg Config
	path := configPath()
	if path == "" {
		return cfg, nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return cfg, nil
		}
		return cfg, err
	}
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return cfg, err
	}
	return cfg, nil
}

// applyGlobalConfig fills global flag values from the config file when the
// corresponding CLI flag was not set explicitly.
func applyGlobalConfig(c *cli.Command, cfg Config) {
	if cfg.MailboxPath != "" && !c.IsSet("mailbox") {
		mailboxPath = cfg.MailboxPath
	}
	if cfg.MemPath != "" && !c.IsSet("mem") {
		memPath = cfg.MemPath
	}
	if cfg.LogLevel != "" && !c.IsSet("log-level") {
		logLevel = cfg.LogLevel
	}
}
