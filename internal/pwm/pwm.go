package pwm

import (
	"fmt"

	"github.com/golang/glog"

	"xeon-pwm/internal/settings"
)

// Driver is the PWM hardware capability.
//
// Setup prepares a PWM generator on channel; Attach routes it to an output
// pin; Write sets the duty cycle in units of the channel's resolution; Detach
// releases the pin and leaves the output idle.
type Driver interface {
	Setup(channel, frequencyHz, resolutionBits uint32) error
	Attach(pin, channel uint32) error
	Write(channel, duty uint32) error
	Detach(pin uint32) error
}

// LiveChannel is the channel duty cycle writes go to. The configured channel is
// only used when the generator is set up.
const LiveChannel = 0

const (
	BackendSysfs = "sysfs"
	BackendGPIO  = "gpio"
	BackendNone  = "none"
)

// Options selects and parameterises a Driver backend.
type Options struct {
	Backend   string
	SysfsBase string
}

var (
	openSysfsFn = openSysfs
	openGPIOFn  = openGPIO
)

// Open returns the driver for opts.Backend.
func Open(opts Options) (Driver, error) {
	switch opts.Backend {
	case BackendSysfs:
		return openSysfsFn(opts.SysfsBase)
	case BackendGPIO:
		return openGPIOFn()
	case BackendNone, "":
		return NewNull(), nil
	default:
		return nil, fmt.Errorf("pwm: unknown backend %q", opts.Backend)
	}
}

// Controller binds one fan output to a Driver.
//
// Not safe for concurrent use.
type Controller struct {
	drv      Driver
	pin      uint32
	attached bool
	lastErr  string
}

func NewController(drv Driver) *Controller {
	return &Controller{drv: drv}
}

// Configure sets up the generator from s and attaches s.Pin to it.
func (c *Controller) Configure(s settings.PWM) error {
	if err := c.drv.Setup(s.Channel, s.FrequencyHz, settings.ClampResolution(s.ResolutionBits)); err != nil {
		return fmt.Errorf("pwm: setup channel %d: %w", s.Channel, err)
	}
	if err := c.drv.Attach(s.Pin, s.Channel); err != nil {
		return fmt.Errorf("pwm: attach pin %d: %w", s.Pin, err)
	}
	c.pin = s.Pin
	c.attached = true
	return nil
}

// SetDuty writes duty to LiveChannel. Errors are returned every time but only
// logged when they differ from the previous call, since this runs every loop
// iteration.
func (c *Controller) SetDuty(duty uint32) error {
	err := c.drv.Write(LiveChannel, duty)
	msg := ""
	if err != nil {
		msg = err.Error()
	}
	if msg != c.lastErr {
		if err != nil {
			glog.Warningf("pwm: write duty %d: %v", duty, err)
		} else {
			glog.Infof("pwm: writes recovered")
		}
		c.lastErr = msg
	}
	return err
}

// Detach releases the output pin. It is a no-op when nothing is attached.
func (c *Controller) Detach() error {
	if !c.attached {
		return nil
	}
	c.attached = false
	if err := c.drv.Detach(c.pin); err != nil {
		return fmt.Errorf("pwm: detach pin %d: %w", c.pin, err)
	}
	return nil
}
