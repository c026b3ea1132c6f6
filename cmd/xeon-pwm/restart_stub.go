//go:build !linux

package main

import "fmt"

func reexec() error {
	return fmt.Errorf("restart not supported on this platform")
}
