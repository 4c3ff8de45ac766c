package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/caarlos0/env/v6"
	"gopkg.in/yaml.v3"
)

// MotorConfig holds the pins of one drive motor (BCM numbering).
type MotorConfig struct {
	DirPin int `yaml:"dir_pin"` // direction line
	PWMPin int `yaml:"pwm_pin"` // drive signal, must be 12, 13, 18 or 19
}

// PWMConfig is shared by both motors.
type PWMConfig struct {
	FrequencyHz int `yaml:"frequency_hz"` // PWM output frequency (default: 100 Hz)
	DutyPercent int `yaml:"duty_percent"` // duty cycle while driving (default: 50%)
}

// ServerConfig configures the control endpoint.
type ServerConfig struct {
	Port int `yaml:"port" env:"ROVERGO_PORT"`
	// Larger frames close the session (default: 128).
	MaxMessageLen int `yaml:"max_message_len"`
	// Reply "ok" or "error: ..." to every command.
	Ack bool `yaml:"ack" env:"ROVERGO_ACK"`
	// Keep motors running when a session closes.
	HoldOnDisconnect bool `yaml:"hold_on_disconnect" env:"ROVERGO_HOLD_ON_DISCONNECT"`
}

// DefaultsConfig contains generic parameters.
type DefaultsConfig struct {
	DebugLevel int  `yaml:"debug_level" env:"ROVERGO_DEBUG_LEVEL"` // debug level 0-4 (0=off, 1=info, 2=live, 3=verbose, 4=trace)
	MockGPIO   bool `yaml:"mock_gpio" env:"ROVERGO_MOCK_GPIO"`     // use mock GPIO (true=dev/test, false=real Raspberry Pi)
}

// Config aggregates all application configuration.
type Config struct {
	LeftMotor  MotorConfig    `yaml:"left_motor"`
	RightMotor MotorConfig    `yaml:"right_motor"`
	PWM        PWMConfig      `yaml:"pwm"`
	Server     ServerConfig   `yaml:"server"`
	Defaults   DefaultsConfig `yaml:"defaults"`
}

// ValidateConfigPath accepts only .yaml files located directly in a configs/ directory.
func ValidateConfigPath(path string) error {
	if path == "" {
		return errors.New("config path is empty")
	}
	for _, part := range strings.Split(filepath.ToSlash(path), "/") {
		if part == ".." {
			return fmt.Errorf("config path %q must not contain '..'", path)
		}
	}
	clean := filepath.Clean(path)
	if filepath.Ext(clean) != ".yaml" {
		return fmt.Errorf("config path %q must have a .yaml extension", path)
	}
	if filepath.Base(filepath.Dir(clean)) != "configs" {
		return fmt.Errorf("config path %q must be inside a configs/ directory", path)
	}
	return nil
}

// Load reads a YAML file, applies ROVERGO_* environment overrides and
// returns the validated configuration.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config file: %w", err)
	}

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("unmarshal yaml: %w", err)
	}

	// Environment variables win over the file; unset variables leave it untouched.
	if err := env.Parse(&cfg); err != nil {
		return nil, fmt.Errorf("parse environment: %w", err)
	}

	cfg.applyDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func (c *Config) applyDefaults() {
	if c.LeftMotor.DirPin <= 0 {
		c.LeftMotor.DirPin = 20
	}
	if c.LeftMotor.PWMPin <= 0 {
		c.LeftMotor.PWMPin = 12
	}
	if c.RightMotor.DirPin <= 0 {
		c.RightMotor.DirPin = 21
	}
	if c.RightMotor.PWMPin <= 0 {
		c.RightMotor.PWMPin = 13
	}
	if c.PWM.FrequencyHz <= 0 {
		c.PWM.FrequencyHz = 100
	}
	if c.PWM.DutyPercent <= 0 {
		c.PWM.DutyPercent = 50 // half power
	}
	if c.Server.Port <= 0 {
		c.Server.Port = 8080
	}
	if c.Server.MaxMessageLen <= 0 {
		c.Server.MaxMessageLen = 128
	}
}

// Validate checks ranges and pin assignments.
func (c *Config) Validate() error {
	if c.PWM.FrequencyHz < 50 || c.PWM.FrequencyHz > 10000 {
		return fmt.Errorf("pwm.frequency_hz must be between 50 and 10000, got %d", c.PWM.FrequencyHz)
	}
	if c.PWM.DutyPercent > 100 {
		return fmt.Errorf("pwm.duty_percent must be <= 100, got %d", c.PWM.DutyPercent)
	}
	if c.Server.Port > 65535 {
		return fmt.Errorf("server.port must be 1-65535, got %d", c.Server.Port)
	}
	if c.Server.MaxMessageLen > 4096 {
		return fmt.Errorf("server.max_message_len must be <= 4096, got %d", c.Server.MaxMessageLen)
	}
	if c.Defaults.DebugLevel < 0 || c.Defaults.DebugLevel > 4 {
		return fmt.Errorf("defaults.debug_level must be between 0 and 4, got %d", c.Defaults.DebugLevel)
	}

	for name, pin := range map[string]int{"left_motor.pwm_pin": c.LeftMotor.PWMPin, "right_motor.pwm_pin": c.RightMotor.PWMPin} {
		if pwmChannel(pin) < 0 {
			return fmt.Errorf("%s must be a hardware PWM pin (12, 13, 18, 19), got %d", name, pin)
		}
	}
	if pwmChannel(c.LeftMotor.PWMPin) == pwmChannel(c.RightMotor.PWMPin) {
		return fmt.Errorf("left and right pwm pins (%d, %d) share a PWM channel", c.LeftMotor.PWMPin, c.RightMotor.PWMPin)
	}

	seen := make(map[int]string)
	for _, p := range []struct {
		name string
		pin  int
	}{
		{"left_motor.dir_pin", c.LeftMotor.DirPin},
		{"left_motor.pwm_pin", c.LeftMotor.PWMPin},
		{"right_motor.dir_pin", c.RightMotor.DirPin},
		{"right_motor.pwm_pin", c.RightMotor.PWMPin},
	} {
		if p.pin > 27 {
			return fmt.Errorf("%s must be a BCM pin between 0 and 27, got %d", p.name, p.pin)
		}
		if other, ok := seen[p.pin]; ok {
			return fmt.Errorf("%s and %s both use pin %d", other, p.name, p.pin)
		}
		seen[p.pin] = p.name
	}
	return nil
}

// pwmChannel returns the BCM2835 PWM channel behind pin, or -1.
func pwmChannel(pin int) int {
	switch pin {
	case 12, 18:
		return 0
	case 13, 19:
		return 1
	}
	return -1
}

// Addr returns the listen address for the control server.
func (c *Config) Addr() string {
	return fmt.Sprintf(":%d", c.Server.Port)
}
