package main

import (
	"fmt"
	"time"

	"go.bug.st/serial"

	"xeon-pwm/internal/client"
)

// serialConn adapts a serial port to the client: a read that times out with no
// data is reported as client.ErrTimeout instead of a zero-length read.
type serialConn struct {
	port serial.Port
}

func (s *serialConn) Read(p []byte) (int, error) {
	n, err := s.port.Read(p)
	if n == 0 && err == nil {
		return 0, client.ErrTimeout
	}
	return n, err
}

func (s *serialConn) Write(p []byte) (int, error) {
	return s.port.Write(p)
}

func (s *serialConn) Close() error {
	return s.port.Close()
}

// openSerialConnection opens the controller port in 8N1 and drops whatever the
// controller printed before we connected (e.g. its startup settings line).
func openSerialConnection(name string, baud int, timeout time.Duration) (*serialConn, error) {
	if name == "" {
		return nil, fmt.Errorf("--port must be specified")
	}
	mode := &serial.Mode{
		BaudRate: baud,
		DataBits: 8,
		Parity:   serial.NoParity,
		StopBits: serial.OneStopBit,
	}
	port, err := serial.Open(name, mode)
	if err != nil {
		return nil, fmt.Errorf("failed to open serial port %s: %v", name, err)
	}
	if err := port.SetReadTimeout(timeout); err != nil {
		_ = port.Close()
		return nil, fmt.Errorf("failed to set read timeout: %v", err)
	}
	_ = port.ResetInputBuffer()
	return &serialConn{port: port}, nil
}

// withClient opens the configured port for the duration of fn.
func withClient(fn func(c *client.Client) error) error {
	conn, err := openSerialConnection(portName, baudRate, readTimeout)
	if err != nil {
		return err
	}
	defer conn.Close()
	return fn(client.New(conn))
}
