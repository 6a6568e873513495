package protocol

import "errors"

type Cmd struct {
	Name string
	Args []string
}

type Error struct {
	Err error
	Cmd Cmd
}

var (
	ErrProtocol = errors.New("protocol error")
)

func (e *Error) Error() string {
	return e.Err.Error()
}
