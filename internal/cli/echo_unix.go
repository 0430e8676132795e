//go:build linux || darwin || freebsd || netbsd || openbsd || dragonfly

package cli

import (
	"os"

	"golang.org/x/sys/unix"
)

// disableEcho turns off terminal echo on file and returns a func restoring the previous mode.
func disableEcho(file *os.File) (func(), error) {
	fd := int(file.Fd())
	current, err := unix.IoctlGetTermios(fd, getTermiosRequest)
	if err != nil {
		return nil, err
	}

	saved := *current
	silent := saved
	silent.Lflag &^= unix.ECHO
	if err := unix.IoctlSetTermios(fd, setTermiosRequest, &silent); err != nil {
		return nil, err
	}
	return func() { _ = unix.IoctlSetTermios(fd, setTermiosRequest, &saved) }, nil
}
