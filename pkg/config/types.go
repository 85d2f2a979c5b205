package config

import (
	"encoding/json"
	"fmt"
	"time"

	"gopkg.in/yaml.v3"
)

// Duration is a time.Duration written as a string such as "1s" or "500ms".
type Duration struct {
	time.Duration
}

func (d *Duration) parse(value string) error {
	duration, err := time.ParseDuration(value)
	if err != nil {
		return err
	}
	d.Duration = duration
	return nil
}

func (d *Duration) UnmarshalYAML(value *yaml.Node) error {
	var text string
	if err := value.Decode(&text); err != nil {
		return err
	}
	return d.parse(text)
}

func (d *Duration) UnmarshalJSON(data []byte) error {
	var text string
	if err := json.Unmarshal(data, &text); err != nil {
		return fmt.Errorf("duration must be a string: %w", err)
	}
	return d.parse(text)
}

func (d Duration) MarshalYAML() (interface{}, error) {
	return d.String(), nil
}

func (d Duration) MarshalJSON() ([]byte, error) {
	return json.Marshal(d.String())
}

type TCPIngress struct {
	Host string `yaml:"host" json:"host"`
	Port int    `yaml:"port" json:"port"`
	// New connections allowed per second from one host, zero for no limit
	RateLimit float64 `yaml:"rateLimit" json:"rateLimit"`
	Burst     int     `yaml:"burst" json:"burst"`
}

type WebIngress struct {
	Enabled bool `yaml:"enabled" json:"enabled"`
	Port    int  `yaml:"port" json:"port"`
}

type ServerIngress struct {
	TCP TCPIngress `yaml:"tcp" json:"tcp"`
	Web WebIngress `yaml:"web" json:"web"`
}

type MatchSettings struct {
	Capacity          int      `yaml:"capacity" json:"capacity"`
	Width             int      `yaml:"width" json:"width"`
	Height            int      `yaml:"height" json:"height"`
	Fleet             []int    `yaml:"fleet" json:"fleet"`
	Countdown         int      `yaml:"countdown" json:"countdown"`
	CountdownInterval Duration `yaml:"countdownInterval" json:"countdownInterval"`
	StallWarning      Duration `yaml:"stallWarning" json:"stallWarning"`
}

type RatingsBackend string

const (
	RatingsBackendMemory RatingsBackend = "memory"
	RatingsBackendSQLite RatingsBackend = "sqlite"
	RatingsBackendRedis  RatingsBackend = "redis"
)

type RedisSettings struct {
	Address  string `yaml:"address" json:"address"`
	Password string `yaml:"password" json:"password"`
	DB       int    `yaml:"db" json:"db"`
}

type RatingsSettings struct {
	Backend RatingsBackend `yaml:"backend" json:"backend"`
	DBPath  string         `yaml:"dbPath" json:"dbPath"`
	Redis   RedisSettings  `yaml:"redis" json:"redis"`
}

type ServerConfig struct {
	Ingress ServerIngress   `yaml:"ingress" json:"ingress"`
	Match   MatchSettings   `yaml:"match" json:"match"`
	Ratings RatingsSettings `yaml:"ratings" json:"ratings"`
}

type Config struct {
	Server ServerConfig `yaml:"server" json:"server"`
}
