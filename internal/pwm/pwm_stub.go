//go:build !linux

package pwm

import "fmt"

// DefaultSysfsBase is where the kernel exposes PWM chips on Linux.
const DefaultSysfsBase = "/sys/class/pwm"

func openSysfs(base string) (Driver, error) {
	return nil, fmt.Errorf("pwm: sysfs backend unsupported on this platform")
}

func openGPIO() (Driver, error) {
	return nil, fmt.Errorf("pwm: gpio backend unsupported on this platform")
}
