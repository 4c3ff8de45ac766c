package gpio

import (
	"fmt"
	"sync"

	"github.com/cjeanneret/RoverGo/internal/debug"
)

// Level represents the logical state of a GPIO pin.
type Level bool

const (
	Low  Level = false
	High Level = true
)

func (l Level) String() string {
	if l {
		return "high"
	}
	return "low"
}

// PinMode indicates whether a GPIO is input, output or hardware PWM.
type PinMode int

const (
	Input PinMode = iota
	Output
	PWM
)

// Driver defines the abstract interface for controlling GPIOs.
// This allows plugging in a real Raspberry Pi implementation
// or a mock for development on PC.
type Driver interface {
	SetupPin(pin int, mode PinMode) error
	WritePin(pin int, level Level) error
	ReadPin(pin int) (Level, error)
	// SetupPWM puts pin in hardware PWM mode with the given output frequency.
	SetupPWM(pin int, freqHz int) error
	// WritePWM sets the duty cycle in percent (0-100). 0 de-energizes the output.
	WritePWM(pin int, dutyPercent int) error
	Close() error
}

// MockDriver is an in-memory implementation that logs actions and
// remembers the last level/duty written to each pin.
// Used for development on PC or testing.
type MockDriver struct {
	mu     sync.Mutex
	levels map[int]Level
	duties map[int]int
	modes  map[int]PinMode
}

// NewDriver creates a GPIO driver based on the chosen mode.
// If mock is true, returns a MockDriver (for dev/test).
// If mock is false, returns a real RPiDriver (for Raspberry Pi).
func NewDriver(mock bool) (Driver, error) {
	if mock {
		debug.Info("Using MOCK GPIO driver (development mode)")
		return NewMockDriver(), nil
	}
	return NewRPiRealDriver()
}

// NewMockDriver returns an empty MockDriver.
func NewMockDriver() *MockDriver {
	return &MockDriver{
		levels: make(map[int]Level),
		duties: make(map[int]int),
		modes:  make(map[int]PinMode),
	}
}

func (m *MockDriver) SetupPin(pin int, mode PinMode) error {
	debug.GPIO("SetupPin", pin, mode)
	m.mu.Lock()
	defer m.mu.Unlock()
	m.modes[pin] = mode
	return nil
}

func (m *MockDriver) WritePin(pin int, level Level) error {
	debug.GPIO("WritePin", pin, level)
	m.mu.Lock()
	defer m.mu.Unlock()
	m.levels[pin] = level
	return nil
}

func (m *MockDriver) ReadPin(pin int) (Level, error) {
	debug.GPIO("ReadPin", pin, nil)
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.levels[pin], nil
}

func (m *MockDriver) SetupPWM(pin int, freqHz int) error {
	debug.GPIO("SetupPWM", pin, freqHz)
	if freqHz <= 0 {
		return fmt.Errorf("pwm frequency must be > 0, got %d", freqHz)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.modes[pin] = PWM
	return nil
}

func (m *MockDriver) WritePWM(pin int, dutyPercent int) error {
	debug.GPIO("WritePWM", pin, dutyPercent)
	if dutyPercent < 0 || dutyPercent > 100 {
		return fmt.Errorf("duty cycle must be between 0 and 100, got %d", dutyPercent)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.modes[pin] != PWM {
		return fmt.Errorf("pin %d is not configured for PWM", pin)
	}
	m.duties[pin] = dutyPercent
	return nil
}

// Duty returns the last duty cycle written to pin.
func (m *MockDriver) Duty(pin int) int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.duties[pin]
}

// Mode returns the mode pin was configured with.
func (m *MockDriver) Mode(pin int) PinMode {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.modes[pin]
}

func (m *MockDriver) Close() error {
	debug.Trace("GPIO Close (mock)")
	return nil
}
