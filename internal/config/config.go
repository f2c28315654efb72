// Package config loads and saves the REPL's per-user configuration file,
// the same ~/.sdb/config.yml convention and yaml.v2 binding the teacher's
// pkg/config uses for ~/.dlv/config.yml.
package config

import (
	"fmt"
	"io/ioutil"
	"os"
	"os/user"
	"path"

	"gopkg.in/yaml.v2"
)

const (
	configDirName  = ".sdb"
	configFileName = "config.yml"
)

// Config holds every option the REPL reads from its config file.
type Config struct {
	// Aliases maps a command name to extra aliases it should also answer
	// to, layered on top of the command table's own built-in aliases.
	Aliases map[string][]string `yaml:"aliases"`

	// LogLayers is the default --log-layers value when none is given on
	// the command line, e.g. "inferior".
	LogLayers string `yaml:"log-layers,omitempty"`
}

// LoadConfig reads ~/.sdb/config.yml, creating it with commented-out
// defaults on first run. Any failure to locate, read or parse the file is
// non-fatal: callers get a zero Config and the REPL proceeds with
// built-in defaults.
func LoadConfig() *Config {
	if err := createConfigDir(); err != nil {
		fmt.Printf("could not create config directory: %v\n", err)
		return &Config{}
	}
	fullPath, err := ConfigFilePath(configFileName)
	if err != nil {
		fmt.Printf("could not resolve config file path: %v\n", err)
		return &Config{}
	}

	f, err := os.Open(fullPath)
	if err != nil {
		f, err = createDefaultConfig(fullPath)
		if err != nil {
			fmt.Printf("could not create default config file: %v\n", err)
			return &Config{}
		}
	}
	defer f.Close()

	data, err := ioutil.ReadAll(f)
	if err != nil {
		fmt.Printf("could not read config file: %v\n", err)
		return &Config{}
	}

	var c Config
	if err := yaml.Unmarshal(data, &c); err != nil {
		fmt.Printf("could not parse config file: %v\n", err)
		return &Config{}
	}
	return &c
}

// SaveConfig marshals conf back to ~/.sdb/config.yml.
func SaveConfig(conf *Config) error {
	fullPath, err := ConfigFilePath(configFileName)
	if err != nil {
		return err
	}
	out, err := yaml.Marshal(*conf)
	if err != nil {
		return err
	}
	return ioutil.WriteFile(fullPath, out, 0644)
}

// ConfigFilePath resolves name relative to the user's config directory,
// e.g. ConfigFilePath("history") for the REPL's history file.
func ConfigFilePath(name string) (string, error) {
	dir, err := configDir()
	if err != nil {
		return "", err
	}
	return path.Join(dir, name), nil
}

func configDir() (string, error) {
	u, err := user.Current()
	if err != nil {
		return "", fmt.Errorf("could not determine home directory: %w", err)
	}
	return path.Join(u.HomeDir, configDirName), nil
}

func createConfigDir() error {
	dir, err := configDir()
	if err != nil {
		return err
	}
	return os.MkdirAll(dir, 0700)
}

func createDefaultConfig(fullPath string) (*os.File, error) {
	f, err := os.Create(fullPath)
	if err != nil {
		return nil, fmt.Errorf("could not create config file: %w", err)
	}
	if _, err := f.WriteString(defaultConfigText); err != nil {
		return nil, fmt.Errorf("could not write default config: %w", err)
	}
	if _, err := f.Seek(0, 0); err != nil {
		return nil, err
	}
	return f, nil
}

const defaultConfigText = `# Configuration file for sdb.
#
# Provided aliases are layered on top of each command's built-in aliases.
aliases:
  # command: ["alias1", "alias2"]

# Layers to enable debug logging for by default, comma separated
# (currently only "inferior" is defined). Leave blank to disable.
# log-layers: inferior
`
