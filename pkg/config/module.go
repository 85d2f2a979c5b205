package config

import (
	"bytes"
	_ "embed"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/cfoust/broadside/pkg/grid"
	"github.com/cfoust/broadside/pkg/match"

	"gopkg.in/yaml.v3"
)

//go:embed default.yaml
var DEFAULT []byte

func decodeYAML(data []byte, config *Config) error {
	decoder := yaml.NewDecoder(bytes.NewReader(data))
	decoder.KnownFields(true)

	err := decoder.Decode(config)
	// An empty file changes nothing
	if errors.Is(err, io.EOF) {
		return nil
	}
	return err
}

func decodeJSON(data []byte, config *Config) error {
	decoder := json.NewDecoder(bytes.NewReader(data))
	decoder.DisallowUnknownFields()
	return decoder.Decode(config)
}

// readFile overlays the values in a configuration file onto config.
func readFile(path string, config *Config) error {
	// Check if this is a valid file
	if _, err := os.Stat(path); err != nil {
		return fmt.Errorf("does not exist")
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return err
	}

	extension := filepath.Ext(path)
	switch extension {
	case ".json":
		return decodeJSON(data, config)
	case ".yaml", ".yml":
		return decodeYAML(data, config)
	}

	return fmt.Errorf(
		"not in a valid format",
	)
}

// Process starts from the default configuration, overlays the provided
// configuration files in order, and validates the result.
func Process(configPaths []string) (*Config, error) {
	config := Config{}

	err := decodeYAML(DEFAULT, &config)
	if err != nil {
		return nil, fmt.Errorf(
			"invalid default config file: %v",
			err,
		)
	}

	for _, path := range configPaths {
		err := readFile(path, &config)
		if err != nil {
			return nil, fmt.Errorf(
				"could not process config file %s: %v",
				path,
				err,
			)
		}
	}

	err = config.Validate()
	if err != nil {
		return nil, fmt.Errorf("config is not valid: %w", err)
	}

	return &config, nil
}

func (c *Config) Validate() error {
	ingress := c.Server.Ingress
	if ingress.TCP.Port < 0 || ingress.TCP.Port > 65535 {
		return fmt.Errorf("tcp port %d is out of range", ingress.TCP.Port)
	}
	if ingress.TCP.RateLimit < 0 {
		return fmt.Errorf("rate limit must not be negative")
	}
	if ingress.TCP.RateLimit > 0 && ingress.TCP.Burst < 1 {
		return fmt.Errorf("burst must be at least 1 when rate limiting")
	}
	if ingress.Web.Enabled && (ingress.Web.Port < 0 || ingress.Web.Port > 65535) {
		return fmt.Errorf("web port %d is out of range", ingress.Web.Port)
	}

	settings := c.Server.Match
	if settings.Capacity < 2 {
		return fmt.Errorf("a match needs at least 2 participants, not %d", settings.Capacity)
	}
	if settings.Width < 1 || settings.Width > grid.MAX_WIDTH {
		return fmt.Errorf("width must be between 1 and %d", grid.MAX_WIDTH)
	}
	if settings.Height < 1 || settings.Height > grid.MAX_HEIGHT {
		return fmt.Errorf("height must be between 1 and %d", grid.MAX_HEIGHT)
	}
	if len(settings.Fleet) == 0 {
		return fmt.Errorf("fleet must have at least one ship")
	}
	err := grid.CheckFleet(settings.Fleet, settings.Width, settings.Height)
	if err != nil {
		return err
	}
	if settings.Countdown < 0 {
		return fmt.Errorf("countdown must not be negative")
	}
	if settings.CountdownInterval.Duration < 0 || settings.StallWarning.Duration < 0 {
		return fmt.Errorf("durations must not be negative")
	}

	ratings := c.Server.Ratings
	switch ratings.Backend {
	case RatingsBackendMemory:
	case RatingsBackendSQLite:
		if ratings.DBPath == "" {
			return fmt.Errorf("the sqlite ratings backend needs a dbPath")
		}
	case RatingsBackendRedis:
		if ratings.Redis.Address == "" {
			return fmt.Errorf("the redis ratings backend needs an address")
		}
	default:
		return fmt.Errorf("unknown ratings backend %q", ratings.Backend)
	}

	return nil
}

func (s MatchSettings) MatchConfig() match.Config {
	return match.Config{
		Capacity:          s.Capacity,
		Width:             s.Width,
		Height:            s.Height,
		Countdown:         s.Countdown,
		CountdownInterval: s.CountdownInterval.Duration,
		Renderer:          grid.TextRenderer{},
	}
}

func (t TCPIngress) Address() string {
	return fmt.Sprintf("%s:%d", t.Host, t.Port)
}
