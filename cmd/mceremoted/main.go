package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"
)

const version = "1.0.0"

func printVersion() {
	fmt.Printf("mceremoted v%s\n", version)
	fmt.Println("MCE IR remote dispatch daemon for headless HTPC front-ends")
}

func printUsage() {
	printVersion()
	fmt.Println()
	fmt.Println("USAGE:")
	fmt.Println("  mceremoted [OPTIONS]")
	fmt.Println()
	fmt.Println("DESCRIPTION:")
	fmt.Println("  Daemon that turns MCE remote (RC6-6A) IR frames into USB HID gadget")
	fmt.Println("  key reports for a host PC, plus discrete power on/off handling via")
	fmt.Println("  a GPIO-driven front-panel switch guarded by the sensed 5V rail.")
	fmt.Println()
	fmt.Println("  A held button presses the key once and releases it after the remote")
	fmt.Println("  stops repeating; the OS never sees IR-rate key chatter.")
	fmt.Println()
	fmt.Println("OPTIONS:")
	fmt.Println("  -config string")
	fmt.Println("        Path to YAML config file (flags override file values)")
	fmt.Println()
	fmt.Println("  -source string")
	fmt.Println("        Frame source: lirc (raw /dev/lircN pulses, decoded in-process)")
	fmt.Println("        or lircd (pre-decoded button lines from a lircd socket)")
	fmt.Println("        (default \"lirc\")")
	fmt.Println()
	fmt.Println("  -lirc-device string")
	fmt.Printf("        LIRC character device for raw IR pulses (default \"/dev/lirc0\")\n")
	fmt.Println()
	fmt.Println("  -lircd-socket string")
	fmt.Printf("        lircd unix socket path (default \"/var/run/lirc/lircd\")\n")
	fmt.Println()
	fmt.Println("  -socket string")
	fmt.Printf("        Unix domain socket path for the debug channel (default \"/tmp/mceremoted.sock\")\n")
	fmt.Println()
	fmt.Println("  -listen string")
	fmt.Println("        HTTP bind address for /status and /ws (default \":8989\"; empty disables)")
	fmt.Println()
	fmt.Println("  -log-level string")
	fmt.Println("        Log level: error, warn, info, debug (default \"info\")")
	fmt.Println()
	fmt.Println("  -version")
	fmt.Println("        Print version and exit")
	fmt.Println()
	fmt.Println("  -help")
	fmt.Println("        Print this help message")
	fmt.Println()
	fmt.Println("EXAMPLES:")
	fmt.Println("  # Start with defaults (raw decoding on /dev/lirc0)")
	fmt.Println("  mceremoted")
	fmt.Println()
	fmt.Println("  # Use an existing lircd instead of the built-in decoder")
	fmt.Println("  mceremoted -source lircd -lircd-socket /var/run/lirc/lircd")
	fmt.Println()
	fmt.Println("  # Full setup from a config file, with debug logging")
	fmt.Println("  mceremoted -config /etc/mceremoted.yaml -log-level debug")
	fmt.Println()
	fmt.Println("NOTES:")
	fmt.Println("  - Requires the USB gadget HID endpoints (/dev/hidg0, /dev/hidg1) to be")
	fmt.Println("    configured via configfs before starting")
	fmt.Println("  - Requires access to the LIRC device and the GPIO character device")
	fmt.Println("  - Runtime verbosity and status are available over the debug socket")
	fmt.Println("    (see mcectl) and over HTTP on the listen address")
	fmt.Println()
}

func main() {
	// Check for version/help flags early
	for _, arg := range os.Args[1:] {
		if arg == "-version" || arg == "--version" {
			printVersion()
			return
		}
		if arg == "-help" || arg == "--help" || arg == "-h" {
			printUsage()
			return
		}
	}

	// Parse command-line flags
	var (
		configPath  = flag.String("config", "", "Path to YAML config file")
		sourceKind  = flag.String("source", sourceLirc, "Frame source: lirc or lircd")
		lircDevice  = flag.String("lirc-device", "/dev/lirc0", "LIRC character device for raw IR pulses")
		lircdSocket = flag.String("lircd-socket", "/var/run/lirc/lircd", "lircd unix socket path")
		ipcSocket   = flag.String("socket", "/tmp/mceremoted.sock", "Unix domain socket path for the debug channel")
		listenAddr  = flag.String("listen", ":8989", "HTTP bind address for /status and /ws (empty disables)")
		logLevelStr = flag.String("log-level", "info", "Log level: error, warn, info, debug")
		showVersion = flag.Bool("version", false, "Print version and exit")
		showHelp    = flag.Bool("help", false, "Print help message")
	)

	flag.Usage = printUsage
	flag.Parse()

	if *showHelp {
		printUsage()
		return
	}
	if *showVersion {
		printVersion()
		return
	}

	// Config precedence: defaults, then file, then explicitly-set flags.
	cfg := DefaultConfig()
	if *configPath != "" {
		loaded, err := LoadConfigFile(ExpandPath(*configPath))
		if err != nil {
			fmt.Fprintln(os.Stderr, "error:", err)
			os.Exit(1)
		}
		cfg = loaded
	}

	var overrides FlagOverrides
	flag.Visit(func(f *flag.Flag) {
		switch f.Name {
		case "log-level":
			overrides.LogLevel = logLevelStr
		case "socket":
			overrides.Socket = ipcSocket
		case "listen":
			overrides.Listen = listenAddr
		case "source":
			overrides.SourceKind = sourceKind
		case "lirc-device":
			overrides.LircDevice = lircDevice
		case "lircd-socket":
			overrides.LircdSocket = lircdSocket
		}
	})
	overrides.Apply(&cfg)

	if err := cfg.Validate(); err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		os.Exit(1)
	}

	logLevel, err := parseLogLevel(cfg.LogLevel)
	if err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		os.Exit(1)
	}

	// Setup logger; the level var is shared with the debug channel so Q/V/D
	// take effect immediately.
	logger, levelVar := setupLogger(logLevel)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Handle shutdown
	sigc := make(chan os.Signal, 1)
	signal.Notify(sigc, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		s := <-sigc
		logger.Info("shutting down", "signal", s.String())
		cancel()
	}()

	// Open the GPIO lines (rail sense input + power switch output).
	gpio, err := OpenRealGPIO(cfg.Power.Chip, cfg.Power.SensePin, cfg.Power.ButtonPin)
	if err != nil {
		logger.Error("failed to open gpio lines", "chip", cfg.Power.Chip, "error", err)
		os.Exit(1)
	}
	defer func() {
		// Never leave the front-panel switch asserted.
		if err := gpio.Deassert(); err != nil {
			logger.Warn("deassert power switch on shutdown", "error", err)
		}
		gpio.Close()
	}()

	// Open the USB gadget HID endpoints.
	hid, err := OpenGadgetHID(cfg.HID.KeyboardDevice, cfg.HID.ConsumerDevice)
	if err != nil {
		logger.Error("failed to open hid gadget devices", "error", err, "tip", "configure the configfs USB gadget before starting")
		os.Exit(1)
	}
	defer func() {
		// The host must not be left with a key stuck down.
		if err := hid.ReleaseAll(); err != nil {
			logger.Warn("release keys on shutdown", "error", err)
		}
		hid.Close()
	}()

	// Create event channel - frame sources park here while the engine is busy
	events := make(chan Event, 64)

	// Start the configured frame source.
	var source FrameSource
	switch cfg.Source.Kind {
	case sourceLirc:
		source = NewLIRCSource(cfg.Source.LircDevice, events, logger)
	case sourceLircd:
		source = NewLircdSource(ExpandPath(cfg.Source.LircdSocket), events, logger)
	}
	go func() {
		if err := source.Run(ctx); err != nil {
			logger.Error("frame source stopped", "error", err)
			cancel()
		}
	}()

	tracker := NewStatusTracker(time.Now())

	// Start the debug channel server (Q/V/D/?).
	if err := runIPCServer(ctx, ExpandPath(cfg.Socket), tracker, levelVar, logger); err != nil {
		logger.Error("failed to start IPC server", "error", err)
		os.Exit(1)
	}

	// Observer sinks. Each gets its own queue so a stalled one cannot slow
	// the other; with both enabled a fan-out copies the daemon's output.
	var wsBcast, mqttBcast chan StateBroadcast

	if cfg.Listen != "" {
		server := NewServer(logger, tracker, ServerConfig{})
		go server.Hub().Run(ctx)

		wsBcast = make(chan StateBroadcast, 128)
		go RunBroadcaster(ctx, server.Hub(), wsBcast, logger)

		mux := http.NewServeMux()
		server.Register(mux, "/ws", "/status")
		go func() {
			if err := runHTTPServer(ctx, cfg.Listen, mux, logger); err != nil {
				logger.Error("http server error", "error", err)
			}
		}()
	}

	if cfg.MQTT.Broker != "" {
		pub, err := NewMQTTPublisher(cfg.MQTT, logger)
		if err != nil {
			logger.Error("failed to connect to mqtt broker", "broker", cfg.MQTT.Broker, "error", err)
			os.Exit(1)
		}
		defer pub.Close()

		mqttBcast = make(chan StateBroadcast, 128)
		go pub.Run(ctx, mqttBcast)
	}

	var broadcasts chan StateBroadcast
	switch {
	case wsBcast != nil && mqttBcast != nil:
		broadcasts = make(chan StateBroadcast, 128)
		go fanOutBroadcasts(ctx, broadcasts, wsBcast, mqttBcast)
	case wsBcast != nil:
		broadcasts = wsBcast
	case mqttBcast != nil:
		broadcasts = mqttBcast
	}

	deps := EffectDeps{
		HID:        hid,
		Rail:       gpio,
		Power:      gpio,
		PulseWidth: cfg.PulseWidth(),
	}

	logger.Debug("starting mceremoted", "version", version)
	logger.Debug("configuration",
		"source_kind", cfg.Source.Kind,
		"lirc_device", cfg.Source.LircDevice,
		"lircd_socket", cfg.Source.LircdSocket,
		"hid_keyboard", cfg.HID.KeyboardDevice,
		"hid_consumer", cfg.HID.ConsumerDevice,
		"gpio_chip", cfg.Power.Chip,
		"sense_pin", cfg.Power.SensePin,
		"button_pin", cfg.Power.ButtonPin,
		"pulse_ms", cfg.Power.PulseMS,
		"rail_poll_ms", cfg.Power.RailPollMS,
		"poll_hz", cfg.Timing.PollHz,
		"release_timeout_ms", cfg.Timing.ReleaseTimeoutMS,
		"ipc_socket", cfg.Socket,
		"listen", cfg.Listen,
		"mqtt_enabled", cfg.MQTT.Broker != "")

	listenInfo := []any{"source", cfg.Source.Kind, "ipc", cfg.Socket}
	if cfg.Listen != "" {
		listenInfo = append(listenInfo, "http", cfg.Listen)
	}
	if cfg.MQTT.Broker != "" {
		listenInfo = append(listenInfo, "mqtt", cfg.MQTT.Broker)
	}
	logger.Info("listening", listenInfo...)

	// The daemon loop owns all engine state and runs until shutdown.
	runDaemon(ctx, events, deps, cfg.ToEngineTuning(), &EngineState{}, cfg.Timing.PollHz, tracker, broadcasts, logger)
}

// runHTTPServer serves the status endpoints until ctx is canceled, then
// shuts down gracefully.
//
// This replaces http.ListenAndServe so we can call Server.Shutdown during
// program shutdown.
func runHTTPServer(ctx context.Context, addr string, handler http.Handler, logger *slog.Logger) error {
	logger.Info("http server listening", "addr", addr)

	srv := &http.Server{
		Addr:    addr,
		Handler: handler,
	}

	errCh := make(chan error, 1)

	go func() {
		// ListenAndServe returns http.ErrServerClosed on Shutdown; treat that as clean exit.
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- fmt.Errorf("HTTP server: %w", err)
			return
		}
		errCh <- nil
	}()

	select {
	case <-ctx.Done():
		// Graceful shutdown with a timeout.
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
		defer cancel()

		if err := srv.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("HTTP server shutdown: %w", err)
		}
		// Wait for the ListenAndServe goroutine to return.
		_ = <-errCh
		return nil

	case err := <-errCh:
		return err
	}
}
