package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/golang/glog"
	"github.com/spf13/cobra"

	"xeon-pwm/internal/autodrive"
	"xeon-pwm/internal/client"
	"xeon-pwm/internal/config"
)

var autoConfigPath string

var autoCmd = &cobra.Command{
	Use:   "auto",
	Short: "Drive the fan from the host CPU temperature",
	Long: `Sample the CPU temperature and keep the controller's duty cycle in line
with a fan curve (or a PID loop toward a target temperature).

Runs until interrupted. See the auto section of the YAML config for the curve.`,
	Args: cobra.NoArgs,
	RunE: runAuto,
}

func init() {
	autoCmd.Flags().StringVarP(&autoConfigPath, "config", "c", "./auto.yaml", "Path to YAML auto driver config")
	rootCmd.AddCommand(autoCmd)
}

func runAuto(cmd *cobra.Command, args []string) error {
	cfg, err := config.LoadAuto(autoConfigPath)
	if err != nil {
		return fmt.Errorf("config load failed: %v", err)
	}
	if !cfg.Auto.Enable {
		return fmt.Errorf("auto.enable is false in %s", autoConfigPath)
	}

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	return withClient(func(c *client.Client) error {
		r, err := c.Settings()
		if err != nil {
			return err
		}
		glog.Infof("auto: controller %s, mode=%s interval=%s", r.Line(), cfg.Auto.Mode, cfg.Auto.Interval)

		svc := autodrive.New(autoDriveConfig(cfg.Auto), c, autodrive.NewSensor(cfg.Auto.TempPath))
		if err := svc.Start(ctx); err != nil {
			return err
		}
		<-ctx.Done()
		svc.Close()
		glog.Infof("auto: stopped")
		return nil
	})
}

func autoDriveConfig(a config.AutoDriverConfig) autodrive.Config {
	points := make([]autodrive.Point, 0, len(a.Points))
	for _, p := range a.Points {
		points = append(points, autodrive.Point{TemperatureC: p.Temperature, Percentage: p.PwmPercentage})
	}
	return autodrive.Config{
		Mode:     a.Mode,
		Interval: a.Interval,
		TargetC:  a.TargetC,
		Points:   points,
	}
}
