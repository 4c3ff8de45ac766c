package motor

import (
	"fmt"

	"github.com/cjeanneret/RoverGo/internal/debug"
	"github.com/cjeanneret/RoverGo/internal/hw/gpio"
)

// Config holds the hardware configuration for one drive motor.
type Config struct {
	Name        string // "left" or "right", for logs
	DirPin      int    // direction line (BCM)
	PWMPin      int    // drive signal, must be a hardware PWM pin (BCM)
	FrequencyHz int    // PWM output frequency
	DutyPercent int    // duty cycle applied while enabled
}

// Motor drives one wheel through a direction line and a PWM channel.
// It is not safe for concurrent use; callers serialize access.
type Motor struct {
	gpio    gpio.Driver
	cfg     Config
	dir     gpio.Level
	enabled bool
}

// New configures the pins and leaves the motor disabled with its
// direction line low.
func New(g gpio.Driver, cfg Config) (*Motor, error) {
	if err := g.SetupPin(cfg.DirPin, gpio.Output); err != nil {
		return nil, fmt.Errorf("setup %s direction pin: %w", cfg.Name, err)
	}
	if err := g.WritePin(cfg.DirPin, gpio.Low); err != nil {
		return nil, fmt.Errorf("reset %s direction pin: %w", cfg.Name, err)
	}
	if err := g.SetupPWM(cfg.PWMPin, cfg.FrequencyHz); err != nil {
		return nil, fmt.Errorf("setup %s pwm pin: %w", cfg.Name, err)
	}
	if err := g.WritePWM(cfg.PWMPin, 0); err != nil {
		return nil, fmt.Errorf("disable %s pwm: %w", cfg.Name, err)
	}

	return &Motor{gpio: g, cfg: cfg}, nil
}

// SetDirection drives the direction line. The cached level only changes on success.
func (m *Motor) SetDirection(level gpio.Level) error {
	if err := m.gpio.WritePin(m.cfg.DirPin, level); err != nil {
		return fmt.Errorf("%s motor direction: %w", m.cfg.Name, err)
	}
	m.dir = level
	debug.Trace("Motor %s: direction %v", m.cfg.Name, level)
	return nil
}

// Direction returns the last direction level successfully written.
func (m *Motor) Direction() gpio.Level {
	return m.dir
}

// SetEnabled energizes (configured duty) or de-energizes (0% duty) the drive signal.
func (m *Motor) SetEnabled(on bool) error {
	duty := 0
	if on {
		duty = m.cfg.DutyPercent
	}
	if err := m.gpio.WritePWM(m.cfg.PWMPin, duty); err != nil {
		return fmt.Errorf("%s motor enable=%t: %w", m.cfg.Name, on, err)
	}
	m.enabled = on
	debug.Trace("Motor %s: enabled=%t duty=%d%%", m.cfg.Name, on, duty)
	return nil
}

// Enabled reports whether the drive signal is energized.
func (m *Motor) Enabled() bool {
	return m.enabled
}

// Name returns the configured motor name.
func (m *Motor) Name() string {
	return m.cfg.Name
}
