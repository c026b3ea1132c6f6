//go:build linux

package main

import (
	"fmt"
	"os"

	"github.com/golang/glog"
	"golang.org/x/sys/unix"
)

// reexec replaces the process with a fresh copy of itself. Descriptors opened
// with O_CLOEXEC (the serial port) are released by the kernel.
func reexec() error {
	exe, err := os.Executable()
	if err != nil {
		return fmt.Errorf("locate executable: %w", err)
	}
	glog.Flush()
	return unix.Exec(exe, os.Args, os.Environ())
}
