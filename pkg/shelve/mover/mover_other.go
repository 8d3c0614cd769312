//go:build !unix

package mover

import (
	"errors"
	"os"
)

// Without a portable errno, any failed rename that reports a link error is
// retried as a copy.
func crossDevice(err error) bool {
	var linkErr *os.LinkError
	return errors.As(err, &linkErr)
}
