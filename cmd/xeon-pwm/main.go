package main

import (
	"context"
	"flag"
	"os"
	"os/signal"
	"syscall"

	"github.com/golang/glog"

	"xeon-pwm/internal/config"
	"xeon-pwm/internal/firmware"
	"xeon-pwm/internal/kvstore"
	"xeon-pwm/internal/pwm"
	"xeon-pwm/internal/settings"
	"xeon-pwm/internal/transport"
)

func main() {
	var configPath string
	flag.StringVar(&configPath, "config", "", "Path to YAML config (built-in defaults when empty)")
	flag.Parse()
	defer glog.Flush()

	cfg := config.Default()
	if configPath != "" {
		var err error
		cfg, err = config.Load(configPath)
		if err != nil {
			glog.Exitf("config load failed: %v", err)
		}
	}

	port, err := openPort(cfg.Serial)
	if err != nil {
		glog.Exitf("serial open failed: %v", err)
	}
	defer port.Close()

	kv, err := kvstore.Open(cfg.Store.Path, cfg.Store.Namespace)
	if err != nil {
		glog.Exitf("settings store open failed: %v", err)
	}

	drv, err := pwm.Open(pwm.Options{Backend: cfg.PWM.Backend, SysfsBase: cfg.PWM.SysfsBase})
	if err != nil {
		glog.Exitf("pwm init failed: %v", err)
	}

	fw := firmware.New(firmware.Config{
		Debug:        cfg.Debug,
		PollInterval: cfg.Loop.PollInterval,
		Restart: func() error {
			_ = port.Close()
			if err := reexec(); err != nil {
				glog.Exitf("restart failed: %v", err)
			}
			return nil
		},
	}, port, settings.NewStore(kv), pwm.NewController(drv))

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	glog.Infof("xeon-pwm starting on %s (pwm backend=%s)", port.Name(), cfg.PWM.Backend)
	if err := fw.Start(); err != nil {
		glog.Exitf("start failed: %v", err)
	}

	runErr := fw.Run(ctx)
	if err := fw.Close(); err != nil {
		glog.Warningf("shutdown: %v", err)
	}
	if runErr != nil && ctx.Err() == nil {
		glog.Exitf("xeon-pwm stopped: %v", runErr)
	}
	glog.Infof("xeon-pwm stopping")
}

func openPort(c config.SerialConfig) (*transport.Port, error) {
	if c.Device == config.StdioDevice {
		return transport.Stdio(), nil
	}
	return transport.OpenSerial(c.Device, c.Baud)
}
