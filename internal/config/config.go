package config

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// Config is the controller daemon configuration.
type Config struct {
	Serial SerialConfig `yaml:"serial"`
	Store  StoreConfig  `yaml:"store"`
	PWM    PWMConfig    `yaml:"pwm"`
	Loop   LoopConfig   `yaml:"loop"`
	// Debug echoes handler traces onto the serial line.
	Debug bool `yaml:"debug"`
}

type SerialConfig struct {
	// Device is a tty path, or "-" for stdin/stdout.
	Device string `yaml:"device"`
	Baud   int    `yaml:"baud"`
}

type StoreConfig struct {
	Path      string `yaml:"path"`
	Namespace string `yaml:"namespace"`
}

type PWMConfig struct {
	// Backend is sysfs, gpio or none.
	Backend   string `yaml:"backend"`
	SysfsBase string `yaml:"sysfs_base"`
}

type LoopConfig struct {
	PollInterval time.Duration `yaml:"poll_interval"`
}

const (
	StdioDevice = "-"

	DefaultBaud         = 115200
	DefaultStorePath    = "/var/lib/xeon-pwm/prefs.yaml"
	DefaultNamespace    = "xeon-pwm"
	DefaultBackend      = "sysfs"
	DefaultSysfsBase    = "/sys/class/pwm"
	DefaultPollInterval = 5 * time.Millisecond
)

// Default is the configuration used when no file is given.
func Default() Config {
	var cfg Config
	cfg.applyDefaults()
	return cfg
}

func Load(path string) (Config, error) {
	var cfg Config
	if err := decodeFile(path, &cfg); err != nil {
		return Config{}, err
	}
	cfg.applyDefaults()
	if err := cfg.validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func (c *Config) applyDefaults() {
	if c.Serial.Device == "" {
		c.Serial.Device = StdioDevice
	}
	if c.Serial.Baud == 0 {
		c.Serial.Baud = DefaultBaud
	}
	if c.Store.Path == "" {
		c.Store.Path = DefaultStorePath
	}
	if c.Store.Namespace == "" {
		c.Store.Namespace = DefaultNamespace
	}
	if c.PWM.Backend == "" {
		c.PWM.Backend = DefaultBackend
	}
	if c.PWM.SysfsBase == "" {
		c.PWM.SysfsBase = DefaultSysfsBase
	}
	if c.Loop.PollInterval == 0 {
		c.Loop.PollInterval = DefaultPollInterval
	}
}

func (c Config) validate() error {
	if c.Serial.Baud < 0 {
		return fmt.Errorf("serial.baud must be > 0")
	}
	switch c.PWM.Backend {
	case "sysfs", "gpio", "none":
	default:
		return fmt.Errorf("pwm.backend must be one of sysfs, gpio, none")
	}
	if c.Loop.PollInterval < 0 {
		return fmt.Errorf("loop.poll_interval must be > 0")
	}
	if strings.ContainsAny(c.Store.Namespace, "\n\r\t") {
		return fmt.Errorf("store.namespace must not contain control characters")
	}
	return nil
}

// AutoConfig is the host-side auto driver configuration.
type AutoConfig struct {
	Auto AutoDriverConfig `yaml:"auto"`
}

type AutoDriverConfig struct {
	Enable   bool          `yaml:"enable"`
	Mode     string        `yaml:"mode"`
	Interval time.Duration `yaml:"interval"`
	// TempPath is a sysfs temperature file, "coretemp", or empty to detect.
	TempPath string      `yaml:"temp_path"`
	TargetC  float64     `yaml:"target_c"`
	Points   []AutoPoint `yaml:"points"`
}

type AutoPoint struct {
	Temperature   int `yaml:"temperature"`
	PwmPercentage int `yaml:"pwm_percentage"`
}

// DefaultAutoPoints is the fan curve used when none is configured.
var DefaultAutoPoints = []AutoPoint{
	{Temperature: 15, PwmPercentage: 10},
	{Temperature: 50, PwmPercentage: 20},
}

func LoadAuto(path string) (AutoConfig, error) {
	var cfg AutoConfig
	if err := decodeFile(path, &cfg); err != nil {
		return AutoConfig{}, err
	}

	a := &cfg.Auto
	if a.Mode == "" {
		a.Mode = "curve"
	}
	if a.Interval <= 0 {
		a.Interval = 5 * time.Second
	}
	if a.TargetC == 0 {
		a.TargetC = 50
	}

	switch a.Mode {
	case "curve":
		if len(a.Points) == 0 {
			a.Points = append([]AutoPoint(nil), DefaultAutoPoints...)
		}
	case "pid":
		if a.TargetC <= 0 || a.TargetC >= 100 {
			return AutoConfig{}, fmt.Errorf("auto.target_c must be between 0 and 100")
		}
	default:
		return AutoConfig{}, fmt.Errorf("auto.mode must be 'curve' or 'pid'")
	}
	for i, p := range a.Points {
		if p.PwmPercentage < 0 || p.PwmPercentage > 100 {
			return AutoConfig{}, fmt.Errorf("auto.points[%d].pwm_percentage must be between 0 and 100", i)
		}
	}
	return cfg, nil
}

func decodeFile(path string, out any) error {
	b, err := os.ReadFile(path)
	if err != nil {
		return err
	}
	dec := yaml.NewDecoder(bytes.NewReader(b))
	dec.KnownFields(true)
	if err := dec.Decode(out); err != nil {
		if errors.Is(err, io.EOF) {
			// Empty file: every default applies.
			return nil
		}
		var te *yaml.TypeError
		if errors.As(err, &te) {
			return fmt.Errorf("config contains invalid fields: %s", strings.Join(te.Errors, "; "))
		}
		return err
	}
	return nil
}
