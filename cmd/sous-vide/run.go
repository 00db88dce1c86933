package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/jjroth89/sous-vide/internal/config"
	"github.com/jjroth89/sous-vide/internal/controller"
	"github.com/jjroth89/sous-vide/internal/display"
	"github.com/jjroth89/sous-vide/internal/gpio"
	"github.com/jjroth89/sous-vide/internal/keypad"
	"github.com/jjroth89/sous-vide/internal/logger"
	"github.com/jjroth89/sous-vide/internal/mqtt"
	"github.com/jjroth89/sous-vide/internal/sensor"
	"github.com/jjroth89/sous-vide/internal/status"
	"github.com/jjroth89/sous-vide/internal/web"
)

type runOptions struct {
	*globalOptions
	dryRun   bool
	console  bool
	httpAddr string
	broker   string
}

func newRunCmd(g *globalOptions) *cobra.Command {
	opts := &runOptions{globalOptions: g}

	cmd := &cobra.Command{
		Use:   "run",
		Short: "Run the controller until SIGINT or SIGTERM",
		Long: `Run the cook controller. With --dry-run the DS18B20 and relays are
replaced by a simulated water bath and keys are read from the terminal,
so the whole cook flow can be tried on any machine.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(cmd, opts)
			if err != nil {
				return err
			}
			return run(cfg, opts.dryRun, opts.console || opts.dryRun)
		},
	}
	addRunFlags(cmd, opts)
	return cmd
}

func addRunFlags(cmd *cobra.Command, opts *runOptions) {
	cmd.Flags().BoolVar(&opts.dryRun, "dry-run", false, "Simulate the bath and relays; implies --console")
	cmd.Flags().BoolVar(&opts.console, "console", false, "Read keys from the terminal instead of the keypad matrix")
	cmd.Flags().StringVar(&opts.httpAddr, "http", "", "HTTP status address (overrides config; empty string disables)")
	cmd.Flags().StringVar(&opts.broker, "broker", "", "MQTT broker URL (overrides config; empty string disables)")
}

// loadConfig reads the config file and applies flags the user set explicitly.
func loadConfig(cmd *cobra.Command, opts *runOptions) (*config.Config, error) {
	cfg, err := config.Load(opts.configPath)
	if err != nil {
		return nil, err
	}
	if opts.logLevel != "" {
		cfg.Log.Level = opts.logLevel
	}
	if cmd.Flags().Changed("http") {
		cfg.HTTP.Addr = opts.httpAddr
	}
	if cmd.Flags().Changed("broker") {
		cfg.MQTT.Broker = opts.broker
	}
	if opts.dryRun {
		cfg.Sensor.Simulate = true
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config %s: %w", opts.configPath, err)
	}
	return cfg, nil
}

func run(cfg *config.Config, dryRun, console bool) error {
	var log *logger.Logger
	if console {
		log = logger.NewRaw(cfg.Log.Level)
	} else {
		log = logger.New(cfg.Log.Level)
	}
	defer log.Sync()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	defer signal.Stop(sigCh)

	// Initialize sensor and relays
	probe, relays, err := openHardware(cfg, log)
	if err != nil {
		return err
	}
	defer relays.Close()

	// Initialize keypad
	keys, err := openKeys(cfg, console, func() {
		select {
		case sigCh <- syscall.SIGINT:
		default:
		}
	})
	if err != nil {
		return err
	}
	defer keys.Close()

	// Display: log always, serial when configured
	sinks := display.Multi{display.NewLogSink(log.Named("display"))}
	if cfg.Display.SerialPort != "" {
		ser := display.NewSerial(cfg.Display.SerialPort, cfg.Display.Baud, log.Named("serial"))
		defer ser.Close()
		sinks = append(sinks, ser)
	}

	// Initialize MQTT
	var publisher mqtt.Publisher
	if cfg.MQTT.Broker != "" {
		p, err := mqtt.NewRealPublisher(mqtt.Options{
			Broker:   cfg.MQTT.Broker,
			ClientID: cfg.MQTT.ClientID,
			Device:   cfg.MQTT.Device,
			Buffer:   cfg.MQTT.Buffer,
		}, log.Named("mqtt"))
		if err != nil {
			return fmt.Errorf("init mqtt: %w", err)
		}
		defer p.Close()
		publisher = p
	}

	// Initialize status tracker (before STARTUP so snapshot is available)
	tracker := status.NewTracker(time.Now(), status.Config{
		PollMs:      cfg.Control.PollInterval.Milliseconds(),
		TickMs:      cfg.Control.TickInterval.Milliseconds(),
		HeartbeatMs: cfg.MQTT.Heartbeat.Milliseconds(),
		Countdown:   cfg.Control.Countdown,
		Pump:        cfg.Pump.Enabled,
		Broker:      cfg.MQTT.Broker,
		HTTPAddr:    cfg.HTTP.Addr,
		DryRun:      dryRun,
	})

	ctrl, err := controller.New(controller.Deps{
		Session:   cfg.Session(),
		Keys:      keys,
		Sensor:    probe,
		Relays:    relays,
		Display:   sinks,
		Publisher: publisher,
		Tracker:   tracker,
		Log:       log.Named("control"),
	})
	if err != nil {
		return fmt.Errorf("init controller: %w", err)
	}

	// Publish startup event with full status snapshot
	if publisher != nil {
		snap := tracker.Snapshot()
		startup := mqtt.SystemEvent{
			Timestamp:  snap.Now,
			Event:      "STARTUP",
			Retained:   true,
			RawPayload: status.FormatStatusEvent(snap, "STARTUP", ""),
		}
		if err := publisher.PublishSystem(startup); err != nil {
			log.Warnw("failed to publish startup event", "error", err)
		}
	}

	// Start HTTP status server
	if cfg.HTTP.Addr != "" {
		srv := web.New(cfg.HTTP.Addr, tracker, log.Named("http"))
		go func() {
			if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
				log.Errorw("http server error", "error", err)
			}
		}()
		defer srv.Shutdown(context.Background())
		log.Infow("http status server listening", "addr", cfg.HTTP.Addr)
	}

	log.Infow("started",
		"poll", cfg.Control.PollInterval,
		"tick", cfg.Control.TickInterval,
		"countdown", cfg.Control.Countdown,
		"pump", cfg.Pump.Enabled,
		"broker", cfg.MQTT.Broker,
		"dry_run", dryRun,
	)
	sinks.Emit("Press '*' to start a new cooking session.")

	ticker := time.NewTicker(cfg.Control.PollInterval)
	defer ticker.Stop()

	return runLoop(ctrl, publisher, tracker, cfg.MQTT.Heartbeat, log, time.Now, ticker.C, sigCh)
}

// openHardware returns the bath probe and the relay driver. In simulation
// one model serves as both so the heater warms the simulated bath.
func openHardware(cfg *config.Config, log *logger.Logger) (sensor.Reader, gpio.Relays, error) {
	if cfg.Sensor.Simulate {
		sim := sensor.NewSimulated(time.Now)
		log.Infow("using simulated water bath")
		return sim, sim, nil
	}

	probe, err := sensor.NewDS18B20(cfg.Sensor.W1Dir, cfg.Sensor.Device)
	if err != nil {
		return nil, nil, fmt.Errorf("init sensor: %w", err)
	}
	pumpPin := cfg.GPIO.PumpPin
	if !cfg.Pump.Enabled {
		pumpPin = -1
	}
	relays, err := gpio.NewRealRelays(cfg.GPIO.Chip, cfg.GPIO.HeaterPin, pumpPin, cfg.GPIO.ActiveLow)
	if err != nil {
		return nil, nil, fmt.Errorf("init relays: %w", err)
	}
	log.Infow("hardware ready", "probe", probe.Path(), "chip", cfg.GPIO.Chip,
		"heater_pin", cfg.GPIO.HeaterPin, "pump_pin", pumpPin, "active_low", cfg.GPIO.ActiveLow)
	return probe, relays, nil
}

func openKeys(cfg *config.Config, console bool, interrupt func()) (keypad.Source, error) {
	if console {
		c, err := keypad.NewConsole(os.Stdin, interrupt)
		if err != nil {
			return nil, fmt.Errorf("init console keys: %w", err)
		}
		return c, nil
	}
	lines, err := gpio.NewRealMatrix(cfg.GPIO.Chip, cfg.GPIO.Keypad.Rows, cfg.GPIO.Keypad.Cols)
	if err != nil {
		return nil, fmt.Errorf("init keypad lines: %w", err)
	}
	m, err := keypad.NewMatrix(lines, cfg.GPIO.Keypad.Keymap, keypad.DefaultStableScans)
	if err != nil {
		lines.Close()
		return nil, fmt.Errorf("init keypad: %w", err)
	}
	return m, nil
}

func runLoop(ctrl *controller.Controller, publisher mqtt.Publisher, tracker *status.Tracker, heartbeat time.Duration, log *logger.Logger, now func() time.Time, tick <-chan time.Time, sig <-chan os.Signal) error {
	var lastKeyErr string

	for {
		select {
		case s := <-sig:
			log.Infow("shutting down", "signal", s.String())
			return shutdown(ctrl, publisher, tracker, signalName(s), now(), log)

		case <-tick:
			t := now()
			err := ctrl.Step(t)
			if errors.Is(err, io.EOF) {
				log.Infow("key input closed, shutting down")
				return shutdown(ctrl, publisher, tracker, "EOF", t, log)
			}
			if err != nil {
				if err.Error() != lastKeyErr {
					log.Warnw("keypad read error", "error", err)
				}
				lastKeyErr = err.Error()
			} else if lastKeyErr != "" {
				log.Infow("keypad recovered")
				lastKeyErr = ""
			}

			if publisher != nil && ctrl.CheckHeartbeat(t, heartbeat) {
				snap := tracker.Snapshot()
				log.Infow("heartbeat", "uptime", snap.Uptime().Truncate(time.Second), "state", snap.Session.State)
				hb := mqtt.SystemEvent{
					Timestamp:  t,
					Event:      "HEARTBEAT",
					RawPayload: status.FormatStatusEvent(snap, "HEARTBEAT", ""),
				}
				if err := publisher.PublishSystem(hb); err != nil {
					log.Warnw("heartbeat publish error", "error", err)
				}
			}
		}
	}
}

// shutdown switches both relays off and announces the shutdown.
func shutdown(ctrl *controller.Controller, publisher mqtt.Publisher, tracker *status.Tracker, reason string, t time.Time, log *logger.Logger) error {
	relayErr := ctrl.Shutdown()
	if relayErr != nil {
		log.Errorw("failed to switch relays off", "error", relayErr)
	}

	if publisher != nil {
		event := mqtt.SystemEvent{
			Timestamp:  t,
			Event:      "SHUTDOWN",
			Reason:     reason,
			Retained:   true,
			RawPayload: status.FormatStatusEvent(tracker.Snapshot(), "SHUTDOWN", reason),
		}
		if err := publisher.PublishSystem(event); err != nil {
			log.Warnw("failed to publish shutdown event", "error", err)
		}
	}
	return relayErr
}

func signalName(s os.Signal) string {
	switch s {
	case syscall.SIGINT:
		return "SIGINT"
	case syscall.SIGTERM:
		return "SIGTERM"
	}
	return "UNKNOWN"
}
