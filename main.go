package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"golang.org/x/sync/errgroup"

	"github.com/goMascon/config"
	"github.com/goMascon/input"
	"github.com/goMascon/keymaps"
	"github.com/goMascon/keysink"
	"github.com/goMascon/logging"
	"github.com/goMascon/mascon"
)

const version = "0.3.0"

// eventBuffer bounds how far the device reader may run ahead of the controller.
const eventBuffer = 64

func printVersion() {
	fmt.Printf("goMascon v%s\n", version)
	fmt.Println("Train controller (mascon) to keyboard bridge for Linux")
}

func printUsage() {
	printVersion()
	fmt.Println()
	fmt.Println("USAGE:")
	fmt.Println("  goMascon [OPTIONS]")
	fmt.Println()
	fmt.Println("DESCRIPTION:")
	fmt.Println("  Reads a one-handle train controller through evdev and types the")
	fmt.Println("  keystrokes a train simulator expects on a uinput virtual keyboard.")
	fmt.Println("  Lever movements become power/brake notch steps; buttons and the")
	fmt.Println("  D-pad are held as keys or key chords.")
	fmt.Println()
	fmt.Println("OPTIONS:")
	fmt.Println("  -config string")
	fmt.Println("        YAML config file (defaults are used when not set)")
	fmt.Println()
	fmt.Println("  -device string")
	fmt.Println("        Controller event device, e.g. /dev/input/event5 (default: find by name)")
	fmt.Println()
	fmt.Println("  -profile string")
	fmt.Printf("        Key profile: %s, %s (default %q)\n", keymaps.ProfileZuiki, keymaps.ProfileBVE, keymaps.ProfileZuiki)
	fmt.Println()
	fmt.Println("  -grab")
	fmt.Println("        Take exclusive access to the controller (default true)")
	fmt.Println()
	fmt.Println("  -uinput string")
	fmt.Printf("        uinput control node (default %q)\n", keysink.DefaultPath)
	fmt.Println()
	fmt.Println("  -log-level string")
	fmt.Println("        Log level: error, warn, info, debug (default \"info\")")
	fmt.Println()
	fmt.Println("  -log-file string")
	fmt.Println("        Also append log output to this file")
	fmt.Println()
	fmt.Println("  -v")
	fmt.Println("        Verbose output, same as -log-level debug")
	fmt.Println()
	fmt.Println("  -list-devices")
	fmt.Println("        Print readable input devices and exit")
	fmt.Println()
	fmt.Println("  -version")
	fmt.Println("        Print version and exit")
	fmt.Println()
	fmt.Println("  -help")
	fmt.Println("        Print this help message")
	fmt.Println()
	fmt.Println("EXAMPLES:")
	fmt.Println("  # Find the controller by name and use the default key profile")
	fmt.Println("  goMascon")
	fmt.Println()
	fmt.Println("  # Fixed device, BVE key layout, debug logging")
	fmt.Println("  goMascon -device /dev/input/event5 -profile bve -v")
	fmt.Println()
	fmt.Println("NOTES:")
	fmt.Println("  - Requires read access to the controller (run as root or add user to 'input' group)")
	fmt.Println("  - Requires write access to /dev/uinput (modprobe uinput)")
	fmt.Println("  - Hold ZL while pulling the lever to full brake for the emergency notch")
	fmt.Println()
}

func main() {
	var (
		configPath  = flag.String("config", "", "YAML config file")
		devicePath  = flag.String("device", "", "Controller event device (default: find by name)")
		profile     = flag.String("profile", keymaps.ProfileZuiki, "Key profile")
		grab        = flag.Bool("grab", true, "Take exclusive access to the controller")
		uinputPath  = flag.String("uinput", keysink.DefaultPath, "uinput control node")
		logLevelStr = flag.String("log-level", "info", "Log level: error, warn, info, debug")
		logFile     = flag.String("log-file", "", "Also append log output to this file")
		verbose     = flag.Bool("v", false, "Verbose output")
		listDevices = flag.Bool("list-devices", false, "Print readable input devices and exit")
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
	if *listDevices {
		if err := printDevices(); err != nil {
			fmt.Fprintln(os.Stderr, "error:", err)
			os.Exit(1)
		}
		return
	}

	cfg := config.DefaultConfig()
	if *configPath != "" {
		loaded, err := config.LoadConfigFile(*configPath)
		if err != nil {
			fmt.Fprintln(os.Stderr, "error:", err)
			os.Exit(1)
		}
		cfg = loaded
	}

	// Only flags given on the command line override the file.
	var overrides config.FlagOverrides
	flag.Visit(func(f *flag.Flag) {
		switch f.Name {
		case "device":
			overrides.DevicePath = devicePath
		case "profile":
			overrides.Profile = profile
		case "grab":
			overrides.Grab = grab
		case "uinput":
			overrides.UinputPath = uinputPath
		case "log-level":
			overrides.LogLevel = logLevelStr
		case "log-file":
			overrides.LogFile = logFile
		}
	})
	if *verbose {
		debug := string(logging.LogLevelDebug)
		overrides.LogLevel = &debug
	}
	overrides.Apply(&cfg)

	if err := cfg.Validate(); err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		os.Exit(1)
	}

	logLevel, err := logging.ParseLogLevel(cfg.Logging.Level)
	if err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		os.Exit(1)
	}
	logger, logCloser, err := logging.Setup(logLevel, config.ExpandPath(cfg.Logging.File))
	if err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		os.Exit(1)
	}
	defer logCloser.Close()

	if err := run(cfg, logger); err != nil {
		logger.Error("goMascon stopped", "error", err)
		logCloser.Close()
		os.Exit(1)
	}
}

func run(cfg config.Config, logger *slog.Logger) error {
	keys, err := cfg.KeyMapping(keymaps.CreateDefaultKeyMappingProvider())
	if err != nil {
		return err
	}
	sourceCfg, err := cfg.SourceConfig()
	if err != nil {
		return err
	}

	kb, err := keysink.CreateKeyboard(cfg.Keyboard.UinputPath, cfg.Keyboard.Name)
	if err != nil {
		return err
	}
	defer kb.Close()

	ctrl := mascon.New(kb, keys, logger)
	source := input.NewSource(input.DeviceOpener(cfg.Device.Path, cfg.Device.Names), sourceCfg, logger)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	logger.Info("goMascon started",
		"version", version,
		"profile", cfg.Keyboard.Profile,
		"device", deviceLabel(cfg.Device),
		"grab", cfg.Device.Grab,
	)

	runErr := supervise(ctx, source, ctrl)

	logger.Info("shutting down", "notch", ctrl.Notch())
	// Keys still held would stay down in the target application.
	if err := ctrl.ReleaseAll(); err != nil {
		logger.Warn("failed to release held keys", "error", err)
	}
	return runErr
}

// eventSource is the part of input.Source that supervise drives.
type eventSource interface {
	Run(ctx context.Context, events chan<- mascon.Event) error
}

// supervise runs the reader and the controller until either one stops. The
// controller can stop cleanly (Quit), so its return cancels the reader too.
func supervise(ctx context.Context, source eventSource, ctrl *mascon.Controller) error {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	events := make(chan mascon.Event, eventBuffer)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		return source.Run(gctx, events)
	})
	g.Go(func() error {
		defer cancel()
		return ctrl.Run(gctx, events)
	})
	return g.Wait()
}

func deviceLabel(d config.DeviceConfig) string {
	if d.Path != "" {
		return d.Path
	}
	return fmt.Sprintf("name matching %q", d.Names)
}

func printDevices() error {
	devices, err := input.ListDevices()
	if err != nil {
		return err
	}
	if len(devices) == 0 {
		fmt.Println("no readable input devices (run as root or add user to 'input' group)")
		return nil
	}
	for _, d := range devices {
		fmt.Printf("%s\t%s\n", d.Path, d.Name)
	}
	return nil
}
