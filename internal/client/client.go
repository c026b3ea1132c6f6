package client

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"
	"sync"

	"xeon-pwm/internal/protocol"
)

// AbsoluteMaxDutyCycle is the duty ceiling at the widest supported resolution.
const AbsoluteMaxDutyCycle = 1<<16 - 1

var (
	// ErrTimeout is returned by transports whose read deadline expired. The
	// client passes it through unchanged.
	ErrTimeout = errors.New("client: timed out waiting for response")
	// ErrShortResponse means the stream ended before the result code.
	ErrShortResponse = errors.New("client: response ended before result code")
	// ErrOutOfRange rejects arguments the controller would clamp anyway.
	ErrOutOfRange = errors.New("client: value out of range")
)

// ResultError is a non-success result code.
type ResultError struct {
	Command protocol.CommandID
	Result  protocol.Result
}

func (e *ResultError) Error() string {
	return fmt.Sprintf("client: %s: %s (%d)", e.Command, e.Result, uint32(e.Result))
}

// Client speaks the line protocol over any byte stream. Calls are serialised so
// one request and its response never interleave with another.
type Client struct {
	mu   sync.Mutex
	w    io.Writer
	r    *bufio.Reader
	last protocol.SettingsReport
}

func New(rw io.ReadWriter) *Client {
	return &Client{
		w:    rw,
		r:    bufio.NewReader(rw),
		last: DefaultSettings(),
	}
}

// DefaultSettings is what a controller with no stored settings reports.
func DefaultSettings() protocol.SettingsReport {
	return protocol.SettingsReport{Channel: 0, FrequencyHz: 25000, ResolutionBits: 8, Pin: 4, MaxDutyCycle: 255}
}

// LastSettings returns the settings read by the most recent Settings call, or
// DefaultSettings if there was none.
func (c *Client) LastSettings() protocol.SettingsReport {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.last
}

// Restart asks the controller to restart. The controller may go away before it
// answers, so no response is read.
func (c *Client) Restart() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.send(protocol.CmdRestart)
}

// SetDutyCycle sets the live duty cycle. Values above the last known maximum
// are refused instead of being silently clamped by the controller.
func (c *Client) SetDutyCycle(duty int) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if duty < 0 || uint64(duty) > uint64(c.last.MaxDutyCycle) {
		return fmt.Errorf("%w: duty cycle %d not in [0, %d]", ErrOutOfRange, duty, c.last.MaxDutyCycle)
	}
	_, err := c.roundTrip(0, nil, protocol.CmdSetDutyCycle, strconv.Itoa(duty))
	return err
}

func (c *Client) DutyCycle() (uint32, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	lines, err := c.roundTrip(1, isUint, protocol.CmdGetDutyCycle)
	if err != nil {
		return 0, err
	}
	v, _ := strconv.ParseUint(lines[0], 10, 32)
	return uint32(v), nil
}

// SetSetting stores one PWM setting on the controller. Most settings apply
// after a restart.
func (c *Client) SetSetting(s protocol.Setting, value int) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if value < 0 {
		return fmt.Errorf("%w: %s value %d is negative", ErrOutOfRange, s, value)
	}
	_, err := c.roundTrip(0, nil, protocol.CmdSetPwmSetting, s.String(), strconv.Itoa(value))
	return err
}

// Settings reads the stored settings and remembers them for SetDutyCycle.
func (c *Client) Settings() (protocol.SettingsReport, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	lines, err := c.roundTrip(1, isSettingsLine, protocol.CmdShowPwmSettings)
	if err != nil {
		return protocol.SettingsReport{}, err
	}
	r, err := protocol.ParseSettingsLine(lines[0])
	if err != nil {
		return protocol.SettingsReport{}, err
	}
	c.last = r
	return r, nil
}

// PrettySettings returns the labelled settings lines.
func (c *Client) PrettySettings() ([]string, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.roundTrip(5, isPrettyLine, protocol.CmdShowPwmSettings, protocol.PrettyArg)
}

func (c *Client) ResetSettings() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	_, err := c.roundTrip(0, nil, protocol.CmdResetPwmSettings)
	return err
}

func (c *Client) send(cmd protocol.CommandID, args ...string) error {
	if _, err := c.w.Write(protocol.FormatRequest(cmd, args...)); err != nil {
		return fmt.Errorf("client: write %s: %w", cmd, err)
	}
	return nil
}

// roundTrip sends a request, collects n payload lines accepted by payload and
// then reads up to the result code. Other lines (debug traces, a settings
// banner from a fresh start) are skipped.
func (c *Client) roundTrip(n int, payload func(string) bool, cmd protocol.CommandID, args ...string) ([]string, error) {
	if err := c.send(cmd, args...); err != nil {
		return nil, err
	}
	var lines []string
	for len(lines) < n {
		line, err := c.readLine(cmd)
		if err != nil {
			return nil, err
		}
		if payload(line) {
			lines = append(lines, line)
			continue
		}
		// A bare result before the payload means the command failed.
		if r, perr := protocol.ParseResult(line); perr == nil && r != protocol.ErrSuccess {
			return nil, &ResultError{Command: cmd, Result: r}
		}
	}
	for {
		line, err := c.readLine(cmd)
		if err != nil {
			return nil, err
		}
		r, perr := protocol.ParseResult(line)
		if perr != nil {
			continue
		}
		if r != protocol.ErrSuccess {
			return nil, &ResultError{Command: cmd, Result: r}
		}
		return lines, nil
	}
}

func (c *Client) readLine(cmd protocol.CommandID) (string, error) {
	line, err := c.r.ReadString('\n')
	if err != nil {
		if errors.Is(err, io.EOF) {
			return "", fmt.Errorf("client: %s: %w", cmd, ErrShortResponse)
		}
		return "", fmt.Errorf("client: %s: read: %w", cmd, err)
	}
	return strings.TrimRight(line, "\r\n"), nil
}

func isUint(s string) bool {
	_, err := strconv.ParseUint(s, 10, 32)
	return err == nil
}

func isSettingsLine(s string) bool {
	_, err := protocol.ParseSettingsLine(s)
	return err == nil
}

func isPrettyLine(s string) bool {
	return strings.HasPrefix(s, "PWM ")
}
