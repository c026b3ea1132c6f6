package main

import (
	"flag"
	"time"

	"github.com/spf13/cobra"
)

var (
	portName    string
	baudRate    int
	readTimeout time.Duration
)

var rootCmd = &cobra.Command{
	Use:   "xeonctl",
	Short: "Control a xeon-pwm fan controller over its serial line",
	Long: `xeonctl talks to a xeon-pwm controller using its line protocol.

It can read and set the fan duty cycle, inspect and change the stored PWM
settings, restart the controller, and drive the fan from the host CPU
temperature.

Connection:
  --port /dev/ttyUSB0 [--baud 115200] [--timeout 5s]`,
	SilenceUsage: true,
	PersistentPreRun: func(cmd *cobra.Command, args []string) {
		// glog complains unless the Go flag set has been parsed.
		_ = flag.CommandLine.Parse(nil)
	},
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&portName, "port", "p", "", "Serial port device")
	rootCmd.PersistentFlags().IntVarP(&baudRate, "baud", "b", 115200, "Baud rate")
	rootCmd.PersistentFlags().DurationVar(&readTimeout, "timeout", 5*time.Second, "Response timeout")
	rootCmd.PersistentFlags().AddGoFlagSet(flag.CommandLine)
}

// Execute runs the root command
func Execute() error {
	return rootCmd.Execute()
}
