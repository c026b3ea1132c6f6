package pwm

import (
	"fmt"

	"github.com/golang/glog"
)

// Null is a Driver without hardware. It enforces the same setup/attach rules as
// the real backends and logs duty changes, which makes the daemon usable on a
// development machine.
type Null struct {
	channels map[uint32]bool
	pins     map[uint32]uint32
	duty     map[uint32]uint32
}

func NewNull() *Null {
	return &Null{
		channels: map[uint32]bool{},
		pins:     map[uint32]uint32{},
		duty:     map[uint32]uint32{},
	}
}

func (n *Null) Setup(channel, frequencyHz, resolutionBits uint32) error {
	if frequencyHz == 0 {
		return fmt.Errorf("pwm: invalid frequency 0")
	}
	n.channels[channel] = true
	glog.V(1).Infof("pwm(null): setup channel=%d freq=%dHz res=%d", channel, frequencyHz, resolutionBits)
	return nil
}

func (n *Null) Attach(pin, channel uint32) error {
	if !n.channels[channel] {
		return fmt.Errorf("pwm: channel %d not set up", channel)
	}
	n.pins[pin] = channel
	glog.V(1).Infof("pwm(null): attach pin=%d channel=%d", pin, channel)
	return nil
}

func (n *Null) Write(channel, duty uint32) error {
	if !n.channels[channel] {
		return fmt.Errorf("pwm: channel %d not set up", channel)
	}
	if prev, ok := n.duty[channel]; !ok || prev != duty {
		glog.V(1).Infof("pwm(null): channel=%d duty=%d", channel, duty)
	}
	n.duty[channel] = duty
	return nil
}

func (n *Null) Detach(pin uint32) error {
	delete(n.pins, pin)
	glog.V(1).Infof("pwm(null): detach pin=%d", pin)
	return nil
}

// Duty reports the last duty written to channel.
func (n *Null) Duty(channel uint32) (uint32, bool) {
	d, ok := n.duty[channel]
	return d, ok
}
