package drive

import (
	"errors"
	"fmt"
	"sync"

	"github.com/cjeanneret/RoverGo/internal/debug"
	"github.com/cjeanneret/RoverGo/internal/hw/gpio"
)

var (
	// ErrActuator wraps every failed direction or enable write.
	ErrActuator = errors.New("actuator write failed")
	// ErrInconsistent means a pair write failed and could not be rolled back,
	// leaving the wheels in a mixed configuration.
	ErrInconsistent = errors.New("motors left in inconsistent state")
	// ErrFaulted is returned after a panic interrupted an apply sequence.
	ErrFaulted = errors.New("drive faulted")
)

// Wheel is one side of the drive. *motor.Motor implements it.
type Wheel interface {
	SetDirection(level gpio.Level) error
	Direction() gpio.Level
	SetEnabled(on bool) error
	Enabled() bool
}

// State is a snapshot of the drive.
type State struct {
	Direction    *Direction `json:"direction"` // nil until a direction was applied, or after a failed rollback
	LeftLevel    gpio.Level `json:"left_dir_high"`
	RightLevel   gpio.Level `json:"right_dir_high"`
	LeftEnabled  bool       `json:"left_enabled"`
	RightEnabled bool       `json:"right_enabled"`
}

// Enabled reports whether both wheels are energized.
func (s State) Enabled() bool {
	return s.LeftEnabled && s.RightEnabled
}

// Drive owns the two wheels of a differential drive. Direction and enable
// are always written to both wheels together, under a single lock, so
// concurrent callers never interleave their writes.
type Drive struct {
	mu       sync.Mutex
	left     Wheel
	right    Wheel
	dir      *Direction
	fault    error
	onChange func(State)
}

// New creates a Drive over two already initialized wheels.
func New(left, right Wheel) *Drive {
	return &Drive{left: left, right: right}
}

// OnChange registers fn to be called with the new state after every
// successful, non-empty apply. fn runs while the drive is locked: it must
// not block and must not call back into the Drive.
func (d *Drive) OnChange(fn func(State)) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.onChange = fn
}

// SetDirection sets both direction lines for dir.
func (d *Drive) SetDirection(dir Direction) error {
	return d.Apply(Intent{}.WithDirection(dir))
}

// SetEnable energizes or de-energizes both wheels.
func (d *Drive) SetEnable(on bool) error {
	return d.Apply(Intent{}.WithEnable(on))
}

// Apply applies intent atomically with respect to other callers:
// direction first, then enable. A failed direction write aborts the
// command before enable is touched.
//
// Once faulted, the drive rejects everything except a stop.
func (d *Drive) Apply(intent Intent) (err error) {
	d.mu.Lock()
	defer d.mu.Unlock()

	if d.fault != nil {
		if intent.isStop() {
			return d.stopFaulted()
		}
		return fmt.Errorf("%w: %v", ErrFaulted, d.fault)
	}
	defer func() {
		if r := recover(); r != nil {
			d.fault = fmt.Errorf("panic while applying %v: %v", intent, r)
			err = fmt.Errorf("%w: %v", ErrFaulted, d.fault)
		}
	}()

	if intent.IsEmpty() {
		return nil
	}
	if intent.Direction != nil {
		if err := d.setDirection(*intent.Direction); err != nil {
			return err
		}
	}
	if intent.Enable != nil {
		if err := d.setEnable(*intent.Enable); err != nil {
			return err
		}
	}

	debug.Live("Drive: applied %v", intent)
	if d.onChange != nil {
		d.onChange(d.snapshot())
	}
	return nil
}

// stopFaulted disables both wheels of a faulted drive. Each wheel is tried
// even if the other fails. The fault itself stays recorded.
func (d *Drive) stopFaulted() (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("%w: panic while stopping: %v", ErrFaulted, r)
		}
	}()

	var errs []error
	if e := d.left.SetEnabled(false); e != nil {
		errs = append(errs, fmt.Errorf("left: %w", e))
	}
	if e := d.right.SetEnabled(false); e != nil {
		errs = append(errs, fmt.Errorf("right: %w", e))
	}
	if len(errs) > 0 {
		return fmt.Errorf("%w: stop faulted drive: %w", ErrActuator, errors.Join(errs...))
	}

	debug.Info("Drive: stopped while faulted (%v)", d.fault)
	if d.onChange != nil {
		d.onChange(d.snapshot())
	}
	return nil
}

// State returns a snapshot of the drive.
func (d *Drive) State() State {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.snapshot()
}

// Faulted returns the fault recorded by a panicking apply, if any.
func (d *Drive) Faulted() error {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.fault
}

func (d *Drive) snapshot() State {
	s := State{
		LeftLevel:    d.left.Direction(),
		RightLevel:   d.right.Direction(),
		LeftEnabled:  d.left.Enabled(),
		RightEnabled: d.right.Enabled(),
	}
	if d.dir != nil {
		dir := *d.dir
		s.Direction = &dir
	}
	return s
}

func (d *Drive) setDirection(dir Direction) error {
	leftLevel, rightLevel, err := Signals(dir)
	if err != nil {
		return err
	}

	prev := d.left.Direction()
	if err := d.left.SetDirection(leftLevel); err != nil {
		return fmt.Errorf("%w: set direction %v: %w", ErrActuator, dir, err)
	}
	if err := d.right.SetDirection(rightLevel); err != nil {
		if rbErr := d.left.SetDirection(prev); rbErr != nil {
			d.dir = nil
			return fmt.Errorf("%w: %w: set direction %v: %w (rollback: %v)", ErrActuator, ErrInconsistent, dir, err, rbErr)
		}
		return fmt.Errorf("%w: set direction %v: %w", ErrActuator, dir, err)
	}

	d.dir = &dir
	return nil
}

func (d *Drive) setEnable(on bool) error {
	prev := d.left.Enabled()
	if err := d.left.SetEnabled(on); err != nil {
		return fmt.Errorf("%w: set enable=%t: %w", ErrActuator, on, err)
	}
	if err := d.right.SetEnabled(on); err != nil {
		if rbErr := d.left.SetEnabled(prev); rbErr != nil {
			return fmt.Errorf("%w: %w: set enable=%t: %w (rollback: %v)", ErrActuator, ErrInconsistent, on, err, rbErr)
		}
		return fmt.Errorf("%w: set enable=%t: %w", ErrActuator, on, err)
	}
	return nil
}
