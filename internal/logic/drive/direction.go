package drive

import (
	"fmt"

	"github.com/cjeanneret/RoverGo/internal/hw/gpio"
)

// Direction is a commanded drive mode for a differential drive.
type Direction int

const (
	Forward Direction = iota
	Back
	Left
	Right
)

// Directions lists every valid Direction.
var Directions = []Direction{Forward, Back, Left, Right}

func (d Direction) String() string {
	switch d {
	case Forward:
		return "forward"
	case Back:
		return "back"
	case Left:
		return "left"
	case Right:
		return "right"
	default:
		return fmt.Sprintf("Direction(%d)", int(d))
	}
}

// MarshalText encodes the direction as its name.
func (d Direction) MarshalText() ([]byte, error) {
	if !d.Valid() {
		return nil, fmt.Errorf("invalid direction %d", int(d))
	}
	return []byte(d.String()), nil
}

// UnmarshalText decodes a direction name produced by MarshalText.
func (d *Direction) UnmarshalText(text []byte) error {
	for _, dir := range Directions {
		if dir.String() == string(text) {
			*d = dir
			return nil
		}
	}
	return fmt.Errorf("unknown direction %q", text)
}

// Valid reports whether d is one of the four directions.
func (d Direction) Valid() bool {
	return d >= Forward && d <= Right
}

// Signals returns the (left, right) direction line levels for d.
// Turning in place spins the wheels against each other.
//
//	Forward  high high
//	Back     low  low
//	Left     low  high
//	Right    high low
func Signals(d Direction) (left, right gpio.Level, err error) {
	switch d {
	case Forward:
		return gpio.High, gpio.High, nil
	case Back:
		return gpio.Low, gpio.Low, nil
	case Left:
		return gpio.Low, gpio.High, nil
	case Right:
		return gpio.High, gpio.Low, nil
	default:
		return gpio.Low, gpio.Low, fmt.Errorf("invalid direction %d", int(d))
	}
}

// DirectionOf is the inverse of Signals. Every level pair maps to exactly one direction.
func DirectionOf(left, right gpio.Level) Direction {
	switch {
	case left == gpio.High && right == gpio.High:
		return Forward
	case left == gpio.Low && right == gpio.Low:
		return Back
	case left == gpio.Low && right == gpio.High:
		return Left
	default:
		return Right
	}
}
