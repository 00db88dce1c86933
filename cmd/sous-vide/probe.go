package main

import (
	"fmt"
	"io"
	"time"

	"github.com/spf13/cobra"

	"github.com/jjroth89/sous-vide/internal/config"
	"github.com/jjroth89/sous-vide/internal/sensor"
)

func newProbeCmd(g *globalOptions) *cobra.Command {
	var (
		count    int
		interval time.Duration
	)
	cmd := &cobra.Command{
		Use:   "probe",
		Short: "Print the bath temperature and exit",
		Long: `Read the DS18B20 configured in the sensor section and print the
temperature. Use it to check the probe wiring before a cook.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load(g.configPath)
			if err != nil {
				return err
			}
			probe, err := sensor.NewDS18B20(cfg.Sensor.W1Dir, cfg.Sensor.Device)
			if err != nil {
				return fmt.Errorf("init sensor: %w", err)
			}
			return probeLoop(cmd.OutOrStdout(), probe, probe.Path(), count, interval, time.Sleep)
		},
	}
	cmd.Flags().IntVarP(&count, "count", "n", 1, "Number of readings")
	cmd.Flags().DurationVar(&interval, "interval", time.Second, "Delay between readings")
	return cmd
}

// probeLoop prints count readings. It fails only if every reading failed.
func probeLoop(w io.Writer, r sensor.Reader, name string, count int, interval time.Duration, sleep func(time.Duration)) error {
	if count < 1 {
		count = 1
	}
	failures := 0
	for i := 0; i < count; i++ {
		if i > 0 {
			sleep(interval)
		}
		c, err := r.ReadCelsius()
		if err != nil {
			failures++
			fmt.Fprintf(w, "%s: error: %v\n", name, err)
			continue
		}
		fmt.Fprintf(w, "%s: %.2f°C\n", name, c)
	}
	if failures == count {
		return fmt.Errorf("no valid reading from %s", name)
	}
	return nil
}
