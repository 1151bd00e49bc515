package console

import (
	"errors"
	"fmt"

	"github.com/urfave/cli/v2"

	"github.com/mklimuk/baro/dps3xx"
)

// Exit codes
const (
	ExitFailure = 1
	ExitBus     = 2
	ExitDevice  = 3
	ExitConfig  = 4
)

func Exit(code int, msg string, args ...interface{}) cli.ExitCoder {
	return cli.Exit(fmt.Sprintf(msg, args...), code)
}

// ExitErr prefixes err with msg and picks the exit code from the error kind.
func ExitErr(msg string, err error) cli.ExitCoder {
	return Exit(ExitCode(err), "%s: %s", msg, Red(err))
}

func ExitCode(err error) int {
	var busErr *dps3xx.BusError
	switch {
	case errors.As(err, &busErr):
		return ExitBus
	case errors.Is(err, dps3xx.ErrWrongDevice), errors.Is(err, dps3xx.ErrInitTimeout):
		return ExitDevice
	case errors.Is(err, dps3xx.ErrInvalidConfig):
		return ExitConfig
	}
	return ExitFailure
}
