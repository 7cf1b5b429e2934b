// Package cmds holds the plain command objects behind the CLI: argument
// carriers with Validate and Exec, free of any flag parsing.
package cmds

import (
	"errors"
	"fmt"
	"io"
)

// ErrInvalid marks arguments that fail validation before execution.
var ErrInvalid = errors.New("invalid command")

type Command interface {
	Validate() error
	Exec(w io.Writer) error
}

func NotNull(name, value string) error {
	if value == "" {
		return fmt.Errorf("%w: %s is required", ErrInvalid, name)
	}
	return nil
}
