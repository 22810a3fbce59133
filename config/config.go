// Package config loads the configuration of the finmon commands.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"github.com/creasty/defaults"
	"github.com/etnz/finmon/logging"
	"github.com/go-playground/validator/v10"
	"gopkg.in/yaml.v3"
)

type Config struct {
	Log     logging.Config `yaml:"log"`
	Timeout time.Duration  `yaml:"timeout" default:"15s" validate:"gt=0"` // per upstream call
	Sources struct {
		BCRA       Source `yaml:"bcra"`
		Bluelytics Source `yaml:"bluelytics"`
		Yahoo      Source `yaml:"yahoo"`
	} `yaml:"sources"`
	Cache  Cache  `yaml:"cache"`
	Server Server `yaml:"server"`
}

// Source configures the HTTP access to one upstream.
type Source struct {
	BaseURL string `yaml:"base_url" validate:"omitempty,url"` // the adapter default if empty
	// InsecureSkipVerify accepts any certificate; api.bcra.gob.ar has served
	// incomplete chains.
	InsecureSkipVerify bool          `yaml:"insecure_skip_verify"`
	Timeout            time.Duration `yaml:"timeout" validate:"gte=0"` // the global timeout if zero
}

// Cache configures the HTTP response cache of the commands.
type Cache struct {
	Backend string `yaml:"backend" default:"none" validate:"oneof=none disk redis"`
	Dir     string `yaml:"dir"` // disk backend, the temp dir if empty
	Period  string `yaml:"period" default:"daily" validate:"oneof=daily weekly monthly"`
	Redis   struct {
		Addr     string        `yaml:"addr" default:"localhost:6379"`
		Password string        `yaml:"password"`
		DB       int           `yaml:"db" validate:"gte=0"`
		TTL      time.Duration `yaml:"ttl" default:"24h" validate:"gt=0"`
	} `yaml:"redis"`
}

type Server struct {
	Addr string `yaml:"addr" default:":8080" validate:"required"`
}

var validate = validator.New()

// DefaultPath returns the path of the user's configuration file.
func DefaultPath() string {
	dir, err := os.UserConfigDir()
	if err != nil {
		return "finmon.yaml"
	}
	return filepath.Join(dir, "finmon", "config.yaml")
}

// Load reads the YAML file at path, overrides it with the environment, sets
// defaults and validates the result. A missing file is not an error.
func Load(path string) (*Config, error) {
	var c Config
	if path != "" {
		b, err := os.ReadFile(path)
		switch {
		case errors.Is(err, fs.ErrNotExist):
		case err != nil:
			return nil, fmt.Errorf("read config: %w", err)
		default:
			if err := yaml.Unmarshal(b, &c); err != nil {
				return nil, fmt.Errorf("parse config %s: %w", path, err)
			}
		}
	}
	if err := c.env(os.Getenv); err != nil {
		return nil, err
	}
	if err := defaults.Set(&c); err != nil {
		return nil, fmt.Errorf("set config defaults: %w", err)
	}
	if err := validate.Struct(&c); err != nil {
		return nil, fmt.Errorf("validate config: %w", err)
	}
	return &c, nil
}

// env overrides the few settings that are handy to change per run.
func (c *Config) env(getenv func(string) string) error {
	if v := getenv("FINMON_LOG_LEVEL"); v != "" {
		c.Log.Level = v
	}
	if v := getenv("FINMON_ADDR"); v != "" {
		c.Server.Addr = v
	}
	if v := getenv("FINMON_CACHE"); v != "" {
		c.Cache.Backend = v
	}
	if v := getenv("FINMON_REDIS_ADDR"); v != "" {
		c.Cache.Redis.Addr = v
	}
	if v := getenv("FINMON_TIMEOUT"); v != "" {
		d, err := time.ParseDuration(v)
		if err != nil {
			return fmt.Errorf("FINMON_TIMEOUT: %w", err)
		}
		c.Timeout = d
	}
	if v := getenv("FINMON_BCRA_INSECURE"); v != "" {
		b, err := strconv.ParseBool(v)
		if err != nil {
			return fmt.Errorf("FINMON_BCRA_INSECURE: %w", err)
		}
		c.Sources.BCRA.InsecureSkipVerify = b
	}
	return nil
}

// TimeoutOf returns the timeout of an upstream call to s.
func (c *Config) TimeoutOf(s Source) time.Duration {
	if s.Timeout > 0 {
		return s.Timeout
	}
	return c.Timeout
}
