package app

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"gopkg.in/yaml.v3"
)

// Config is the host configuration, loaded from an optional YAML file and
// overridable through FLEETSIM_* environment variables.
type Config struct {
	Addr     string `yaml:"addr"`
	Seed     string `yaml:"seed"`
	TickRate int    `yaml:"tickRate"`

	Population struct {
		Accounts int `yaml:"accounts"`
		Tweets   int `yaml:"tweets"`
	} `yaml:"population"`

	Logging struct {
		Sinks         []string      `yaml:"sinks"`
		JSONPath      string        `yaml:"jsonPath"`
		FlushInterval time.Duration `yaml:"flushInterval"`
	} `yaml:"logging"`
}

// DefaultConfig returns the standalone-server defaults.
func DefaultConfig() Config {
	cfg := Config{
		Addr:     ":8080",
		Seed:     "assessment",
		TickRate: 10,
	}
	cfg.Logging.Sinks = []string{"console"}
	cfg.Logging.FlushInterval = 2 * time.Second
	return cfg
}

// LoadConfig reads the YAML file at path when it exists, then applies
// environment overrides. A missing file is not an error; a malformed one is.
func LoadConfig(path string) (Config, error) {
	cfg := DefaultConfig()
	if path != "" {
		data, err := os.ReadFile(path)
		switch {
		case err == nil:
			if err := yaml.Unmarshal(data, &cfg); err != nil {
				return cfg, fmt.Errorf("parse config %s: %w", path, err)
			}
		case os.IsNotExist(err):
		default:
			return cfg, fmt.Errorf("read config %s: %w", path, err)
		}
	}
	cfg.applyEnv()
	return cfg, nil
}

func (c *Config) applyEnv() {
	if raw := os.Getenv("FLEETSIM_ADDR"); raw != "" {
		c.Addr = raw
	}
	if raw := os.Getenv("FLEETSIM_SEED"); raw != "" {
		c.Seed = raw
	}
	if raw := os.Getenv("FLEETSIM_TICK_RATE"); raw != "" {
		if value, err := strconv.Atoi(raw); err == nil && value > 0 {
			c.TickRate = value
		}
	}
	if raw := os.Getenv("FLEETSIM_LOG_JSON"); raw != "" {
		c.Logging.JSONPath = raw
		c.Logging.Sinks = appendUnique(c.Logging.Sinks, "json")
	}
}

func appendUnique(list []string, value string) []string {
	for _, existing := range list {
		if existing == value {
			return list
		}
	}
	return append(list, value)
}
