package gpio

import (
	"fmt"
	"sync"

	"github.com/cjeanneret/RoverGo/internal/debug"
	"github.com/stianeikeland/go-rpio/v4"
)

const (
	// pwmBaseCycleLen ticks per period give 1% duty per tick.
	pwmBaseCycleLen = 100
	// pwmMinClockHz is the slowest PWM clock rpio.SetFreq can produce on every
	// board. The clock divisor is 12 bits wide and the BCM2711 source runs at
	// 52 MHz, so slower clocks get masked into a wrong divisor.
	pwmMinClockHz = 52000000/4095 + 1
)

// pwmTiming returns the PWM clock and the cycle length (ticks per period)
// that produce freqHz. The cycle length is the smallest multiple of 100 that
// keeps the clock at or above pwmMinClockHz, so any duty percent maps to a
// whole number of ticks.
func pwmTiming(freqHz int) (clockHz int, cycleLen uint32) {
	mult := (pwmMinClockHz + freqHz*pwmBaseCycleLen - 1) / (freqHz * pwmBaseCycleLen)
	if mult < 1 {
		mult = 1
	}
	cycleLen = uint32(mult * pwmBaseCycleLen)
	return freqHz * int(cycleLen), cycleLen
}

// dutyTicks converts a duty percent into ticks of a cycleLen period.
func dutyTicks(dutyPercent int, cycleLen uint32) uint32 {
	return uint32(dutyPercent) * cycleLen / 100
}

// RPiDriver is the real implementation for Raspberry Pi using go-rpio.
// Hardware PWM is only available on BCM 12, 13, 18 and 19 and
// requires access to /dev/mem (run as root).
type RPiDriver struct {
	mu   sync.Mutex
	pins map[int]rpio.Pin
	pwm  map[int]uint32 // PWM pin -> cycle length; 0 until SetupPWM ran
}

// NewRPiRealDriver creates a real GPIO driver for Raspberry Pi.
// Requires running on a Raspberry Pi with access to /dev/gpiomem or as root.
func NewRPiRealDriver() (*RPiDriver, error) {
	debug.Info("Initializing real GPIO driver (go-rpio)")

	if err := rpio.Open(); err != nil {
		return nil, fmt.Errorf("failed to open GPIO: %w (are you running on a Raspberry Pi?)", err)
	}

	debug.Verbose("GPIO memory mapped successfully")

	return &RPiDriver{
		pins: make(map[int]rpio.Pin),
		pwm:  make(map[int]uint32),
	}, nil
}

func (r *RPiDriver) SetupPin(pin int, mode PinMode) error {
	debug.GPIO("SetupPin", pin, mode)
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.setupLocked(pin, mode)
}

func (r *RPiDriver) setupLocked(pin int, mode PinMode) error {
	p := rpio.Pin(pin)

	switch mode {
	case Input:
		p.Input()
	case Output:
		p.Output()
	case PWM:
		if !isHardwarePWMPin(pin) {
			return fmt.Errorf("pin %d has no hardware PWM channel", pin)
		}
		p.Pwm()
	default:
		return fmt.Errorf("unknown pin mode: %d", mode)
	}

	r.pins[pin] = p
	return nil
}

func (r *RPiDriver) WritePin(pin int, level Level) error {
	debug.GPIO("WritePin", pin, level)
	r.mu.Lock()
	defer r.mu.Unlock()

	p, ok := r.pins[pin]
	if !ok {
		// Pin not setup yet, setup as output
		if err := r.setupLocked(pin, Output); err != nil {
			return err
		}
		p = r.pins[pin]
	}
	if r.pwm[pin] > 0 {
		return fmt.Errorf("pin %d is in PWM mode", pin)
	}

	if level == High {
		p.High()
	} else {
		p.Low()
	}

	return nil
}

func (r *RPiDriver) ReadPin(pin int) (Level, error) {
	debug.GPIO("ReadPin", pin, nil)
	r.mu.Lock()
	defer r.mu.Unlock()

	p, ok := r.pins[pin]
	if !ok {
		// Pin not setup yet, setup as input
		if err := r.setupLocked(pin, Input); err != nil {
			return Low, err
		}
		p = r.pins[pin]
	}

	// Reading an output pin returns the level it is driven at.
	if p.Read() == rpio.High {
		return High, nil
	}
	return Low, nil
}

func (r *RPiDriver) SetupPWM(pin int, freqHz int) error {
	debug.GPIO("SetupPWM", pin, freqHz)
	if freqHz <= 0 {
		return fmt.Errorf("pwm frequency must be > 0, got %d", freqHz)
	}
	r.mu.Lock()
	defer r.mu.Unlock()

	if err := r.setupLocked(pin, PWM); err != nil {
		return err
	}
	clockHz, cycleLen := pwmTiming(freqHz)
	debug.Trace("PWM pin %d: clock=%dHz cycle=%d ticks", pin, clockHz, cycleLen)
	r.pins[pin].Freq(clockHz)
	r.pins[pin].DutyCycle(0, cycleLen)
	r.pwm[pin] = cycleLen
	return nil
}

func (r *RPiDriver) WritePWM(pin int, dutyPercent int) error {
	debug.GPIO("WritePWM", pin, dutyPercent)
	if dutyPercent < 0 || dutyPercent > 100 {
		return fmt.Errorf("duty cycle must be between 0 and 100, got %d", dutyPercent)
	}
	r.mu.Lock()
	defer r.mu.Unlock()

	cycleLen := r.pwm[pin]
	if cycleLen == 0 {
		return fmt.Errorf("pin %d is not configured for PWM", pin)
	}
	r.pins[pin].DutyCycle(dutyTicks(dutyPercent, cycleLen), cycleLen)
	return nil
}

func (r *RPiDriver) Close() error {
	debug.Trace("GPIO Close (real driver)")
	r.mu.Lock()
	defer r.mu.Unlock()

	// Stop PWM output, then reset all pins to input (safe state)
	for pin, p := range r.pins {
		if cycleLen := r.pwm[pin]; cycleLen > 0 {
			p.DutyCycle(0, cycleLen)
		}
		debug.Trace("Resetting pin %d to input", pin)
		p.Input()
	}

	return rpio.Close()
}

func isHardwarePWMPin(pin int) bool {
	switch pin {
	case 12, 13, 18, 19:
		return true
	}
	return false
}
