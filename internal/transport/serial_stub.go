//go:build !linux

package transport

import (
	"fmt"
	"os"
)

func OpenSerial(path string, baud int) (*Port, error) {
	return nil, fmt.Errorf("transport: serial not supported on this platform")
}

func pendingBytes(f *os.File) (int, error) {
	return 0, fmt.Errorf("transport: pending input query not supported on this platform")
}
