//go:build linux

package pwm

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"golang.org/x/sys/unix"

	"xeon-pwm/internal/settings"
)

// DefaultSysfsBase is where the kernel exposes PWM chips.
const DefaultSysfsBase = "/sys/class/pwm"

// sysfsPWM drives hardware PWM through /sys/class/pwm.
//
// A channel maps to pwmN of the first chip that has enough channels. Pin
// routing is done by the device tree (e.g. dtoverlay=pwm-2chan on a Pi), so
// Attach only records which channel a pin belongs to and enables the output.
type sysfsPWM struct {
	base     string
	chipPath string

	channels map[uint32]*sysfsChannel
	pins     map[uint32]uint32
}

type sysfsChannel struct {
	path     string
	periodNS uint64
	maxDuty  uint32
	enabled  bool
	duty     uint32
	written  bool
}

var (
	exportWait     = 500 * time.Millisecond
	writeRetryWait = 2 * time.Second
)

func openSysfs(base string) (Driver, error) {
	if base == "" {
		base = DefaultSysfsBase
	}
	return &sysfsPWM{
		base:     base,
		channels: map[uint32]*sysfsChannel{},
		pins:     map[uint32]uint32{},
	}, nil
}

func (d *sysfsPWM) Setup(channel, frequencyHz, resolutionBits uint32) error {
	if frequencyHz == 0 {
		return fmt.Errorf("pwm: invalid frequency %d", frequencyHz)
	}
	chip, err := findPWMChip(d.base, channel)
	if err != nil {
		return err
	}
	d.chipPath = chip
	ch := &sysfsChannel{
		path:     filepath.Join(chip, fmt.Sprintf("pwm%d", channel)),
		periodNS: uint64(time.Second) / uint64(frequencyHz),
		maxDuty:  settings.MaxDutyCycle(resolutionBits),
	}
	if ch.periodNS == 0 {
		ch.periodNS = 1
	}
	if err := ensureExported(chip, channel, ch.path); err != nil {
		return err
	}
	// Period changes are rejected while enabled on most controllers.
	_ = writeBool(ch.path, "enable", false)
	// duty_cycle must not exceed period; zero it before shrinking the period.
	_ = writeUint(ch.path, "duty_cycle", 0)
	if err := writeUint(ch.path, "period", ch.periodNS); err != nil {
		return fmt.Errorf("pwm: set period: %w", err)
	}
	d.channels[channel] = ch
	return nil
}

func (d *sysfsPWM) Attach(pin, channel uint32) error {
	ch, ok := d.channels[channel]
	if !ok {
		return fmt.Errorf("pwm: channel %d not set up", channel)
	}
	if err := writeBool(ch.path, "enable", true); err != nil {
		return fmt.Errorf("pwm: enable: %w", err)
	}
	ch.enabled = true
	d.pins[pin] = channel
	return nil
}

func (d *sysfsPWM) Write(channel, duty uint32) error {
	ch, ok := d.channels[channel]
	if !ok {
		return fmt.Errorf("pwm: channel %d not set up", channel)
	}
	if duty > ch.maxDuty {
		duty = ch.maxDuty
	}
	if ch.written && ch.duty == duty {
		return nil
	}
	ns := ch.periodNS * uint64(duty) / uint64(ch.maxDuty)
	if err := writeUint(ch.path, "duty_cycle", ns); err != nil {
		return fmt.Errorf("pwm: set duty: %w", err)
	}
	ch.duty = duty
	ch.written = true
	return nil
}

func (d *sysfsPWM) Detach(pin uint32) error {
	channel, ok := d.pins[pin]
	if !ok {
		return nil
	}
	delete(d.pins, pin)
	ch := d.channels[channel]
	if ch == nil || !ch.enabled {
		return nil
	}
	ch.enabled = false
	ch.written = false
	return writeBool(ch.path, "enable", false)
}

// findPWMChip returns the first pwmchip under base with more than channel
// channels, preferring low chip numbers.
func findPWMChip(base string, channel uint32) (string, error) {
	entries, err := os.ReadDir(base)
	if err != nil {
		return "", fmt.Errorf("pwm: read %s: %w", base, err)
	}
	// pwmchipN entries are usually symlinks, so match on name only.
	var candidates []string
	for _, e := range entries {
		if strings.HasPrefix(e.Name(), "pwmchip") {
			candidates = append(candidates, e.Name())
		}
	}
	sortChips(candidates)

	for _, name := range candidates {
		chip := filepath.Join(base, name)
		n, err := readInt(filepath.Join(chip, "npwm"))
		if err != nil || n <= 0 {
			continue
		}
		if uint64(channel) < uint64(n) {
			return chip, nil
		}
	}
	return "", fmt.Errorf("pwm: no pwmchip under %s has channel %d (is the pwm overlay enabled?)", base, channel)
}

func sortChips(names []string) {
	num := func(s string) int {
		n, err := strconv.Atoi(strings.TrimPrefix(s, "pwmchip"))
		if err != nil {
			return int(^uint(0) >> 1)
		}
		return n
	}
	for i := 1; i < len(names); i++ {
		for j := i; j > 0 && num(names[j]) < num(names[j-1]); j-- {
			names[j], names[j-1] = names[j-1], names[j]
		}
	}
}

func ensureExported(chip string, channel uint32, path string) error {
	if _, err := os.Stat(path); err == nil {
		return nil
	}
	if err := writeSysfs(filepath.Join(chip, "export"), strconv.FormatUint(uint64(channel), 10)); err != nil {
		// Someone else may have exported it meanwhile.
		if _, statErr := os.Stat(path); statErr == nil {
			return nil
		}
		return fmt.Errorf("pwm: export channel %d: %w", channel, err)
	}

	deadline := time.Now().Add(exportWait)
	for time.Now().Before(deadline) {
		if _, err := os.Stat(path); err == nil {
			return nil
		}
		time.Sleep(10 * time.Millisecond)
	}
	if _, err := os.Stat(path); err != nil {
		return fmt.Errorf("pwm: %s not created after export: %w", path, err)
	}
	return nil
}

func writeUint(dir, name string, v uint64) error {
	return writeSysfs(filepath.Join(dir, name), strconv.FormatUint(v, 10))
}

func writeBool(dir, name string, v bool) error {
	val := "0"
	if v {
		val = "1"
	}
	return writeSysfs(filepath.Join(dir, name), val)
}

// writeSysfs writes value with O_WRONLY only; some attributes reject
// O_TRUNC/O_CREATE. Freshly exported nodes can briefly return EACCES or ENOENT
// while udev fixes permissions, so those are retried for a short while.
func writeSysfs(path string, value string) error {
	deadline := time.Now().Add(writeRetryWait)
	for {
		err := writeOnce(path, value)
		if err == nil {
			return nil
		}
		if time.Now().Before(deadline) && isRetryableSysfsErr(err) {
			time.Sleep(25 * time.Millisecond)
			continue
		}
		return err
	}
}

func writeOnce(path, value string) error {
	f, err := os.OpenFile(path, os.O_WRONLY, 0)
	if err != nil {
		return err
	}
	_, werr := f.WriteString(value)
	cerr := f.Close()
	return errors.Join(werr, cerr)
}

func isRetryableSysfsErr(err error) bool {
	return os.IsPermission(err) || os.IsNotExist(err) ||
		errors.Is(err, unix.EACCES) || errors.Is(err, unix.EPERM) || errors.Is(err, unix.ENOENT)
}

func readInt(path string) (int, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return 0, err
	}
	s := strings.TrimSpace(string(b))
	if s == "" {
		return 0, fmt.Errorf("pwm: %s is empty", path)
	}
	return strconv.Atoi(s)
}
