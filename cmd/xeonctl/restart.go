package main

import (
	"github.com/spf13/cobra"

	"xeon-pwm/internal/client"
)

var restartCmd = &cobra.Command{
	Use:   "restart",
	Short: "Restart the controller so stored settings take effect",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		return withClient(func(c *client.Client) error {
			return c.Restart()
		})
	},
}

func init() {
	rootCmd.AddCommand(restartCmd)
}
