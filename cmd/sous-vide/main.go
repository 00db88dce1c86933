// Command sous-vide runs a sous-vide cooker: the operator enters a target
// temperature and cook time on a keypad, and the daemon holds the water bath
// at temperature with a heater relay until the time is up.
package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

const defaultConfigPath = "/etc/sous-vide/config.yaml"

var version = "dev" // set via ldflags at build time

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

// globalOptions are the flags shared by every subcommand.
type globalOptions struct {
	configPath string
	logLevel   string
}

func newRootCmd() *cobra.Command {
	opts := &globalOptions{}

	root := &cobra.Command{
		Use:   "sous-vide",
		Short: "Keypad-driven sous-vide controller",
		Long: `sous-vide reads a DS18B20 probe in the water bath and switches a heater
relay to hold the bath at the target temperature for the requested time.
Setup happens on a 4x4 keypad: type the temperature, '#', the hours, '#',
then '#' again to start. '*' restarts setup at any point.`,
		Version:       version,
		SilenceErrors: true,
		SilenceUsage:  true,
	}
	root.PersistentFlags().StringVarP(&opts.configPath, "config", "c", defaultConfigPath, "YAML config file (missing file uses defaults)")
	root.PersistentFlags().StringVar(&opts.logLevel, "log-level", "", "Log level: debug, info, warn, error (overrides config)")

	root.AddCommand(newRunCmd(opts))
	root.AddCommand(newProbeCmd(opts))
	return root
}
