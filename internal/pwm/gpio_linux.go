//go:build linux

package pwm

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/warthog618/go-gpiocdev"
)

// gpioLine is the part of *gpiocdev.Line the on/off backend uses.
type gpioLine interface {
	SetValue(value int) error
	Close() error
}

// requestLineFn finds the line named GPIO<pin> on any gpiochip and requests it
// as an output driven low.
var requestLineFn = requestLine

// gpioOnOff drives a 2-wire fan through a transistor on a plain GPIO line.
// Frequency and resolution are ignored; any duty above zero switches the line
// high.
type gpioOnOff struct {
	channels map[uint32]bool
	pins     map[uint32]uint32
	lines    map[uint32]gpioLine
}

func openGPIO() (Driver, error) {
	return &gpioOnOff{
		channels: map[uint32]bool{},
		pins:     map[uint32]uint32{},
		lines:    map[uint32]gpioLine{},
	}, nil
}

func (g *gpioOnOff) Setup(channel, frequencyHz, resolutionBits uint32) error {
	g.channels[channel] = true
	return nil
}

func (g *gpioOnOff) Attach(pin, channel uint32) error {
	if !g.channels[channel] {
		return fmt.Errorf("pwm: channel %d not set up", channel)
	}
	if old, ok := g.lines[channel]; ok {
		_ = old.Close()
	}
	line, err := requestLineFn(pin)
	if err != nil {
		return err
	}
	g.lines[channel] = line
	g.pins[pin] = channel
	return nil
}

func (g *gpioOnOff) Write(channel, duty uint32) error {
	line, ok := g.lines[channel]
	if !ok {
		return fmt.Errorf("pwm: channel %d has no pin attached", channel)
	}
	v := 0
	if duty > 0 {
		v = 1
	}
	return line.SetValue(v)
}

func (g *gpioOnOff) Detach(pin uint32) error {
	channel, ok := g.pins[pin]
	if !ok {
		return nil
	}
	delete(g.pins, pin)
	line := g.lines[channel]
	delete(g.lines, channel)
	if line == nil {
		return nil
	}
	_ = line.SetValue(0)
	return line.Close()
}

type chipLine struct {
	chip *gpiocdev.Chip
	line *gpiocdev.Line
}

func (c *chipLine) SetValue(v int) error { return c.line.SetValue(v) }

func (c *chipLine) Close() error {
	err := c.line.Close()
	_ = c.chip.Close()
	return err
}

func requestLine(pin uint32) (gpioLine, error) {
	lineName := fmt.Sprintf("GPIO%d", pin)

	// Header GPIOs live on gpiochip0 on most Pis and gpiochip4 on some Pi 5
	// kernels; fall back to every chip present.
	candidates := []string{"/dev/gpiochip0", "/dev/gpiochip4"}
	entries, _ := os.ReadDir("/dev")
	for _, e := range entries {
		if strings.HasPrefix(e.Name(), "gpiochip") {
			candidates = append(candidates, filepath.Join("/dev", e.Name()))
		}
	}

	for _, path := range candidates {
		chip, err := gpiocdev.NewChip(path)
		if err != nil {
			continue
		}
		offset, err := chip.FindLine(lineName)
		if err != nil {
			_ = chip.Close()
			continue
		}
		line, err := chip.RequestLine(offset, gpiocdev.AsOutput(0), gpiocdev.WithConsumer("xeon-pwm-fan"))
		if err != nil {
			_ = chip.Close()
			continue
		}
		return &chipLine{chip: chip, line: line}, nil
	}
	return nil, fmt.Errorf("pwm: gpio line %q not found (or busy)", lineName)
}
