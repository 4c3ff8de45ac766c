package drive

import "fmt"

// Intent is the parsed result of one command. Either field may be nil.
type Intent struct {
	Direction *Direction
	Enable    *bool
}

// WithDirection returns a copy of i carrying direction d.
func (i Intent) WithDirection(d Direction) Intent {
	i.Direction = &d
	return i
}

// WithEnable returns a copy of i carrying enable state on.
func (i Intent) WithEnable(on bool) Intent {
	i.Enable = &on
	return i
}

// IsEmpty reports whether applying i would change nothing.
func (i Intent) IsEmpty() bool {
	return i.Direction == nil && i.Enable == nil
}

// isStop reports whether i only disables the wheels.
func (i Intent) isStop() bool {
	return i.Direction == nil && i.Enable != nil && !*i.Enable
}

func (i Intent) String() string {
	dir, enable := "-", "-"
	if i.Direction != nil {
		dir = i.Direction.String()
	}
	if i.Enable != nil {
		enable = fmt.Sprintf("%t", *i.Enable)
	}
	return fmt.Sprintf("{direction:%s enable:%s}", dir, enable)
}
