package transport

import (
	"errors"
	"os"
)

// Port is a file-backed byte stream (a tty, or a pair of pipes) that can report
// how much input is pending. It satisfies protocol.Transport.
type Port struct {
	name string
	in   *os.File
	out  *os.File
	own  bool
}

// Stdio serves the protocol on the process's stdin/stdout, e.g. behind socat
// or in tests with a pipe.
func Stdio() *Port {
	return &Port{name: "stdio", in: os.Stdin, out: os.Stdout}
}

func (p *Port) Name() string { return p.name }

func (p *Port) Read(b []byte) (int, error) { return p.in.Read(b) }

func (p *Port) Write(b []byte) (int, error) { return p.out.Write(b) }

// Available reports how many bytes can be read without blocking.
func (p *Port) Available() (int, error) {
	return pendingBytes(p.in)
}

// Close closes the underlying device. Stdio ports are left open.
func (p *Port) Close() error {
	if !p.own {
		return nil
	}
	errIn := p.in.Close()
	if p.out != p.in {
		return errors.Join(errIn, p.out.Close())
	}
	return errIn
}
