package config

import (
	"errors"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/san-kum/goalseek/internal/dynamo"
)

const (
	DefaultDt         = 0.01
	DefaultDuration   = 60.0
	DefaultRateHz     = 10.0
	DefaultIntegrator = "rk4"
	DefaultController = "goal"
	DefaultBridgeAddr = ":8765"

	// turtlesim spawns its first turtle at the middle of an 11x11 world.
	SpawnX = 5.544445
	SpawnY = 5.544445
)

var ErrInvalidConfig = errors.New("invalid config")

type Config struct {
	Integrator string       `yaml:"integrator"`
	Controller string       `yaml:"controller"`
	Dt         float64      `yaml:"dt"`
	Duration   float64      `yaml:"duration"`
	RateHz     float64      `yaml:"rate_hz"`
	Seed       int64        `yaml:"seed"`
	Start      dynamo.Pose  `yaml:"start"`
	Goal       dynamo.Goal  `yaml:"goal"`
	Gains      dynamo.Gains `yaml:"gains"`
	Limits     Limits       `yaml:"limits"`
	Logging    Logging      `yaml:"logging"`
	Bridge     Bridge       `yaml:"bridge"`
}

// Limits saturates the plant, not the controller. Zero means unlimited.
type Limits struct {
	MaxLinear  float64 `yaml:"max_linear"`
	MaxAngular float64 `yaml:"max_angular"`
}

type Logging struct {
	Level string `yaml:"level"`
	Dir   string `yaml:"dir"`
}

type Bridge struct {
	Addr string `yaml:"addr"`
}

func DefaultConfig() *Config {
	return &Config{
		Integrator: DefaultIntegrator,
		Controller: DefaultController,
		Dt:         DefaultDt,
		Duration:   DefaultDuration,
		RateHz:     DefaultRateHz,
		Start:      dynamo.Pose{X: SpawnX, Y: SpawnY},
		Goal:       dynamo.Goal{X: 5, Y: 5},
		Gains:      dynamo.DefaultGains(),
		Logging:    Logging{Level: "info"},
		Bridge:     Bridge{Addr: DefaultBridgeAddr},
	}
}

func Load(path string) (*Config, error) {
	return LoadWith(path, DefaultConfig())
}

// LoadWith reads path over base, so keys missing from the file keep base's
// values. base is modified and returned.
func LoadWith(path string, base *Config) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	cfg := base
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parse %s: %w", path, err)
	}
	return cfg, nil
}

func Save(path string, cfg *Config) error {
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0644)
}

func (c *Config) Validate() error {
	if c.Dt <= 0 {
		return fmt.Errorf("%w: dt must be positive, got %v", ErrInvalidConfig, c.Dt)
	}
	if c.Duration <= 0 {
		return fmt.Errorf("%w: duration must be positive, got %v", ErrInvalidConfig, c.Duration)
	}
	if c.RateHz <= 0 {
		return fmt.Errorf("%w: rate_hz must be positive, got %v", ErrInvalidConfig, c.RateHz)
	}
	if c.Limits.MaxLinear < 0 || c.Limits.MaxAngular < 0 {
		return fmt.Errorf("%w: limits must not be negative", ErrInvalidConfig)
	}
	if err := c.Gains.Validate(); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidConfig, err)
	}
	return nil
}

// InitState is the plant state vector for the configured start pose.
func (c *Config) InitState() dynamo.State {
	return c.Start.State()
}

// Clone returns a copy safe to mutate without touching presets.
func (c *Config) Clone() *Config {
	cp := *c
	return &cp
}
