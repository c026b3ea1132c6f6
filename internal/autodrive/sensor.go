package autodrive

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
)

const (
	DefaultThermalPath = "/sys/class/thermal/thermal_zone0/temp"
	DefaultHwmonBase   = "/sys/class/hwmon"
)

// Sensor reports a temperature in degrees Celsius.
type Sensor interface {
	TempC() (float64, error)
}

// FileSensor reads a single sysfs temperature file.
type FileSensor struct {
	Path string
}

func (s FileSensor) TempC() (float64, error) {
	return readTempFile(s.Path)
}

// CoretempSensor reports the hottest core of every hwmon device named
// "coretemp" under Base. Multi-socket machines expose one device per package.
type CoretempSensor struct {
	Base string
}

func (s CoretempSensor) TempC() (float64, error) {
	base := s.Base
	if base == "" {
		base = DefaultHwmonBase
	}
	inputs, err := coretempInputs(base)
	if err != nil {
		return 0, err
	}
	var (
		hottest float64
		found   bool
		lastErr error
	)
	for _, p := range inputs {
		c, err := readTempFile(p)
		if err != nil {
			lastErr = err
			continue
		}
		if !found || c > hottest {
			hottest, found = c, true
		}
	}
	if !found {
		return 0, fmt.Errorf("autodrive: no readable coretemp input: %w", lastErr)
	}
	return hottest, nil
}

func coretempInputs(base string) ([]string, error) {
	devs, err := filepath.Glob(filepath.Join(base, "hwmon*"))
	if err != nil {
		return nil, err
	}
	var inputs []string
	for _, dev := range devs {
		b, err := os.ReadFile(filepath.Join(dev, "name"))
		if err != nil || strings.TrimSpace(string(b)) != "coretemp" {
			continue
		}
		m, _ := filepath.Glob(filepath.Join(dev, "temp*_input"))
		inputs = append(inputs, m...)
	}
	if len(inputs) == 0 {
		return nil, fmt.Errorf("autodrive: no coretemp sensors under %s", base)
	}
	return inputs, nil
}

// NewSensor picks a sensor for path: a file path reads that file, "coretemp"
// scans hwmon, and "" prefers coretemp when present and falls back to the
// first thermal zone.
func NewSensor(path string) Sensor {
	switch path {
	case "coretemp":
		return CoretempSensor{}
	case "":
		if _, err := coretempInputs(DefaultHwmonBase); err == nil {
			return CoretempSensor{}
		}
		return FileSensor{Path: DefaultThermalPath}
	default:
		return FileSensor{Path: path}
	}
}

func parseTempC(s string) (float64, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return 0, fmt.Errorf("autodrive: temperature empty")
	}
	n, err := strconv.Atoi(s)
	if err != nil {
		return 0, fmt.Errorf("autodrive: parse temperature %q: %w", s, err)
	}
	// sysfs reports millidegrees; some drivers report whole degrees.
	if n > 1000 {
		return float64(n) / 1000.0, nil
	}
	return float64(n), nil
}

func readTempFile(path string) (float64, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return 0, fmt.Errorf("autodrive: read temperature: %w", err)
	}
	return parseTempC(string(b))
}
