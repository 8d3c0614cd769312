//go:build unix

package mover

import (
	"errors"

	"golang.org/x/sys/unix"
)

func crossDevice(err error) bool {
	return errors.Is(err, unix.EXDEV)
}
