package protocol

import (
	"fmt"
	"strconv"
	"strings"
)

// SettingsReport is what SHOW_PWM_SETTINGS prints.
type SettingsReport struct {
	Channel        uint32
	FrequencyHz    uint32
	ResolutionBits uint32
	Pin            uint32
	MaxDutyCycle   uint32
}

const settingsFieldCount = 5

// Line renders the machine-readable form: channel|frequency|resolution|pin|max.
func (r SettingsReport) Line() string {
	fields := []uint32{r.Channel, r.FrequencyHz, r.ResolutionBits, r.Pin, r.MaxDutyCycle}
	parts := make([]string, len(fields))
	for i, v := range fields {
		parts[i] = strconv.FormatUint(uint64(v), 10)
	}
	return strings.Join(parts, string(ArgSeparator))
}

// PrettyLines renders the labelled form, one setting per line.
func (r SettingsReport) PrettyLines() []string {
	return []string{
		fmt.Sprintf("PWM Channel: %d", r.Channel),
		fmt.Sprintf("PWM Frequency: %d Hz", r.FrequencyHz),
		fmt.Sprintf("PWM Resolution: %d", r.ResolutionBits),
		fmt.Sprintf("PWM GPIO pin: %d", r.Pin),
		fmt.Sprintf("PWM Max duty cycle: %d", r.MaxDutyCycle),
	}
}

// ParseSettingsLine parses the output of SettingsReport.Line. Empty fields are
// ignored, so a trailing separator is accepted.
func ParseSettingsLine(s string) (SettingsReport, error) {
	var fields []string
	for _, f := range strings.Split(strings.TrimSpace(s), string(ArgSeparator)) {
		if f != "" {
			fields = append(fields, f)
		}
	}
	if len(fields) != settingsFieldCount {
		return SettingsReport{}, fmt.Errorf("protocol: settings line has %d values, want %d", len(fields), settingsFieldCount)
	}
	vals := make([]uint32, settingsFieldCount)
	for i, f := range fields {
		n, err := strconv.ParseUint(f, 10, 32)
		if err != nil {
			return SettingsReport{}, fmt.Errorf("protocol: settings value %q: %w", f, err)
		}
		vals[i] = uint32(n)
	}
	return SettingsReport{
		Channel:        vals[0],
		FrequencyHz:    vals[1],
		ResolutionBits: vals[2],
		Pin:            vals[3],
		MaxDutyCycle:   vals[4],
	}, nil
}
