package main

import (
	"fmt"
	"strconv"

	"github.com/spf13/cobra"

	"xeon-pwm/internal/client"
)

var dutyCmd = &cobra.Command{
	Use:   "duty",
	Short: "Read or set the fan duty cycle",
	Long: `Read or set the PWM duty cycle.

The fan input is inverted: a higher duty cycle means a slower fan. The maximum
depends on the configured resolution (255 at 8 bits).`,
}

var dutyGetCmd = &cobra.Command{
	Use:   "get",
	Short: "Print the current duty cycle",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		return withClient(func(c *client.Client) error {
			d, err := c.DutyCycle()
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), d)
			return nil
		})
	},
}

var dutySetCmd = &cobra.Command{
	Use:   "set DUTY",
	Short: "Set the duty cycle",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		duty, err := strconv.Atoi(args[0])
		if err != nil {
			return fmt.Errorf("invalid duty cycle %q", args[0])
		}
		return withClient(func(c *client.Client) error {
			// Learn the current maximum so out-of-range values are refused here.
			if _, err := c.Settings(); err != nil {
				return err
			}
			return c.SetDutyCycle(duty)
		})
	},
}

func init() {
	dutyCmd.AddCommand(dutyGetCmd, dutySetCmd)
	rootCmd.AddCommand(dutyCmd)
}
