package command

import (
	"github.com/cjeanneret/RoverGo/internal/debug"
	"github.com/cjeanneret/RoverGo/internal/logic/drive"
)

// Applier applies a drive intent atomically. *drive.Drive implements it.
type Applier interface {
	Apply(intent drive.Intent) error
}

// Result describes what happened to one message.
type Result struct {
	Command    string
	Intent     drive.Intent
	Diagnostic error // decode failure or unknown tokens; logged, never fatal
}

// Handle decodes, parses and applies one raw message. Decode failures and
// unknown tokens are logged and reported in Result.Diagnostic; whatever part
// of the intent was recognized is still applied. The returned error is set
// only when applying the intent failed.
func Handle(a Applier, raw []byte) (Result, error) {
	text, err := Decode(raw)
	if err != nil {
		debug.Error(err)
		return Result{Diagnostic: err}, nil
	}

	debug.Live("Received command %q", text)

	intent, diag := Parse(text)
	if diag != nil {
		debug.Error(diag)
	}
	res := Result{Command: text, Intent: intent, Diagnostic: diag}

	if err := a.Apply(intent); err != nil {
		return res, err
	}
	return res, nil
}
