package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"
)

// Backend kinds.
const (
	BackendSystem  = "system"
	BackendNative  = "keychain"
	BackendKeyring = "keyring"
	BackendFile    = "file"
	BackendMemory  = "memory"
)

// Config holds CLI configuration loaded from ~/.typedkeychain/config.yaml.
type Config struct {
	Backend        string `yaml:"backend"`
	Service        string `yaml:"service"`
	Server         string `yaml:"server"`
	AccessGroup    string `yaml:"access_group"`
	Accessibility  string `yaml:"accessibility"`
	Synchronizable *bool  `yaml:"synchronizable"`
	Label          string `yaml:"label"`
	FileDir        string `yaml:"file_dir"`
	AuditLog       string `yaml:"audit_log"`
}

// Home returns the typedkeychain home directory (~/.typedkeychain).
func Home() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(home, ".typedkeychain"), nil
}

// DefaultPath returns the default config file path: ~/.typedkeychain/config.yaml.
func DefaultPath() string {
	home, err := Home()
	if err != nil {
		return ""
	}
	return filepath.Join(home, "config.yaml")
}

// Load reads a YAML config file from path. If the file does not exist,
// it returns an empty Config and no error. An empty or all-comment file
// also returns an empty Config with no error.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return &Config{}, nil
		}
		return nil, err
	}

	cfg := &Config{}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate checks that the identity and backend settings are coherent.
func (c *Config) Validate() error {
	if c.Service != "" && c.Server != "" {
		return fmt.Errorf("service and server are mutually exclusive")
	}
	switch c.Backend {
	case "", BackendSystem, BackendNative, BackendKeyring, BackendFile, BackendMemory:
	default:
		return fmt.Errorf("unknown backend %q", c.Backend)
	}
	return nil
}
