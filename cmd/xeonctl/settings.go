package main

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"xeon-pwm/internal/client"
	"xeon-pwm/internal/protocol"
)

var settingsPretty bool

var settingsCmd = &cobra.Command{
	Use:   "settings",
	Short: "Show or change the stored PWM settings",
	Long: `Show or change the PWM settings stored on the controller.

FREQUENCY and CHANNEL take effect after a restart. RESOLUTION also applies at
once. PIN cannot be changed remotely.`,
}

var settingsShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Print the stored settings",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		return withClient(func(c *client.Client) error {
			out := cmd.OutOrStdout()
			if settingsPretty {
				lines, err := c.PrettySettings()
				if err != nil {
					return err
				}
				for _, l := range lines {
					fmt.Fprintln(out, l)
				}
				return nil
			}
			r, err := c.Settings()
			if err != nil {
				return err
			}
			fmt.Fprintln(out, r.Line())
			return nil
		})
	},
}

var settingsSetCmd = &cobra.Command{
	Use:   "set NAME VALUE",
	Short: "Store one setting (FREQUENCY, CHANNEL, RESOLUTION)",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		s, err := parseSettingName(args[0])
		if err != nil {
			return err
		}
		v, err := strconv.Atoi(args[1])
		if err != nil {
			return fmt.Errorf("invalid value %q", args[1])
		}
		return withClient(func(c *client.Client) error {
			return c.SetSetting(s, v)
		})
	},
}

var settingsResetCmd = &cobra.Command{
	Use:   "reset",
	Short: "Restore the default settings",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		return withClient(func(c *client.Client) error {
			return c.ResetSettings()
		})
	},
}

func parseSettingName(name string) (protocol.Setting, error) {
	s := protocol.LookupSetting(strings.ToUpper(name))
	if s == protocol.SettingUnknown {
		return s, fmt.Errorf("unknown setting %q (want FREQUENCY, CHANNEL, RESOLUTION or PIN)", name)
	}
	return s, nil
}

func init() {
	settingsShowCmd.Flags().BoolVar(&settingsPretty, "pretty", false, "Labelled output")
	settingsCmd.AddCommand(settingsShowCmd, settingsSetCmd, settingsResetCmd)
	rootCmd.AddCommand(settingsCmd)
}
