// Package command parses the textual control protocol:
//
//	<direction-token>["-" <state-token>]
//
// e.g. "fwd-down", "left", "back-up".
package command

import (
	"errors"
	"fmt"
	"strings"
	"unicode/utf8"

	"github.com/cjeanneret/RoverGo/internal/logic/drive"
)

// MaxMessageLen is the largest accepted message, in bytes.
const MaxMessageLen = 128

// Separator splits the direction token from the state token.
const Separator = "-"

var (
	// ErrInvalidText means the payload is not valid UTF-8. No intent is produced.
	ErrInvalidText = errors.New("command is not valid UTF-8")
	// ErrUnknownDirection is a non-fatal diagnostic: the intent carries no direction.
	ErrUnknownDirection = errors.New("unknown direction")
	// ErrUnknownState is a non-fatal diagnostic: the intent carries no enable state.
	ErrUnknownState = errors.New("unknown button state")
)

var directionTokens = map[string]drive.Direction{
	"fwd":   drive.Forward,
	"back":  drive.Back,
	"left":  drive.Left,
	"right": drive.Right,
}

var stateTokens = map[string]bool{
	"down": true,
	"up":   false,
}

// Decode turns a raw payload into command text, stripping NUL padding.
func Decode(raw []byte) (string, error) {
	if !utf8.Valid(raw) {
		return "", ErrInvalidText
	}
	return strings.Trim(string(raw), "\x00"), nil
}

// Parse maps a command to a drive intent. Unknown tokens leave the matching
// intent field nil and are reported in the returned error, which is only a
// diagnostic: the intent is valid and should be applied even when err != nil.
// Tokens after the state token are ignored.
func Parse(cmd string) (drive.Intent, error) {
	var (
		intent drive.Intent
		diags  []error
	)

	tokens := strings.Split(cmd, Separator)

	if dir, ok := directionTokens[tokens[0]]; ok {
		intent = intent.WithDirection(dir)
	} else if tokens[0] == "" {
		diags = append(diags, fmt.Errorf("%w: missing direction", ErrUnknownDirection))
	} else {
		diags = append(diags, fmt.Errorf("%w: %q", ErrUnknownDirection, tokens[0]))
	}

	if len(tokens) > 1 {
		if on, ok := stateTokens[tokens[1]]; ok {
			intent = intent.WithEnable(on)
		} else {
			diags = append(diags, fmt.Errorf("%w: %q", ErrUnknownState, tokens[1]))
		}
	}

	return intent, errors.Join(diags...)
}

