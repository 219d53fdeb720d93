// kbstate - Keyboard state reader
//
//	kbstate poll            Print the number of keys currently held down
//	kbstate watch           Continuously poll and report key transitions
//	kbstate info            Show the matched keyboard's properties
//	kbstate keys            List resolved keys
//	kbstate status          Show configuration and driver selection
package main

import (
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"kbstate/internal/config"
	"kbstate/internal/hiddev"
	"kbstate/internal/logging"
	"kbstate/internal/metrics"
	"kbstate/internal/session"
)

func main() {
	if len(os.Args) < 2 {
		usage()
		os.Exit(1)
	}

	cmd := os.Args[1]

	switch cmd {
	case "poll":
		cmdPoll()
	case "watch":
		cmdWatch()
	case "devices":
		cmdDevices()
	case "info":
		cmdInfo()
	case "keys":
		cmdKeys()
	case "status":
		cmdStatus()
	case "help", "-h", "--help":
		usage()
	default:
		fmt.Fprintf(os.Stderr, "Unknown command: %s\n\n", cmd)
		usage()
		os.Exit(1)
	}
}

func usage() {
	fmt.Println(`kbstate - Keyboard state reader

USAGE:
    kbstate <command> [options]

COMMANDS:
    poll            Print the number of keys currently held down
    watch           Continuously poll and report key transitions
    devices         List candidate input devices
    info            Show the matched keyboard's properties
    keys            List resolved keys
    status          Show configuration and driver selection
    help            Show this help message

OPTIONS (all commands):
    -config <path>  Configuration file (TOML, YAML, or JSON)
    -driver <type>  Driver backend: evdev, hidraw, or memory
    -debug          Enable debug diagnostics

PRIVACY NOTE:
    poll reports only how many keys are down, never which ones. watch
    names keys as they transition; use it deliberately.`)
}

// commonFlags registers the flags shared by every command.
func commonFlags(fs *flag.FlagSet) (configPath, driverType *string, debug *bool) {
	configPath = fs.String("config", "", "configuration file path")
	driverType = fs.String("driver", "", "driver backend (evdev, hidraw, memory)")
	debug = fs.Bool("debug", false, "enable debug diagnostics")
	return
}

// loadConfig loads and validates configuration, applying flag overrides.
func loadConfig(path, driverType string, debug bool) *config.Config {
	cfg, err := config.Load(path)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
	if driverType != "" {
		cfg.Driver.Type = driverType
	}
	if debug {
		cfg.Session.Debug = true
		cfg.Logging.Level = "debug"
	}
	if err := cfg.Validate(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
	setupLogging(cfg)
	return cfg
}

func setupLogging(cfg *config.Config) {
	level, _ := logging.ParseLevel(cfg.Logging.Level)
	format, _ := logging.ParseFormat(cfg.Logging.Format)
	l, err := logging.New(&logging.Config{
		Level:     level,
		Format:    format,
		Output:    cfg.Logging.Output,
		FilePath:  cfg.Logging.FilePath,
		Component: "kbstate",
	})
	if err != nil {
		fmt.Fprintf(os.Stderr, "Warning: logging setup failed: %v\n", err)
		return
	}
	logging.SetDefault(l)
}

// openSession builds the configured driver and starts a session on it.
func openSession(cfg *config.Config, enableQueue bool) *session.Session {
	drv, err := newDriver(cfg)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
	return session.New(drv, session.Options{
		EnableQueue:      enableQueue,
		Debug:            cfg.Session.Debug,
		ResolveThreshold: cfg.Session.ResolveThreshold,
		QueueDepth:       uint32(cfg.Session.QueueDepth),
		ErrorLog: func(msg string) {
			fmt.Fprintln(os.Stderr, "kbstate: "+msg)
		},
	})
}

func cmdPoll() {
	fs := flag.NewFlagSet("poll", flag.ExitOnError)
	configPath, driverType, debug := commonFlags(fs)
	fs.Parse(os.Args[2:])
	cfg := loadConfig(*configPath, *driverType, *debug)

	s := openSession(cfg, false)
	defer s.Close()

	n := s.CountDepressedKeys()
	if n < 0 {
		fmt.Fprintln(os.Stderr, "kbstate: no usable keyboard")
		os.Exit(1)
	}
	fmt.Println(n)
}

func cmdWatch() {
	fs := flag.NewFlagSet("watch", flag.ExitOnError)
	configPath, driverType, debug := commonFlags(fs)
	interval := fs.Int("interval", 0, "poll interval in milliseconds (overrides config)")
	showMetrics := fs.Bool("metrics", false, "print metrics on exit")
	fs.Parse(os.Args[2:])
	cfg := loadConfig(*configPath, *driverType, *debug)
	if *interval > 0 {
		cfg.Poll.IntervalMs = *interval
	}

	s := openSession(cfg, cfg.Session.EnableQueue)
	defer s.Close()
	if !s.Ready() {
		fmt.Fprintln(os.Stderr, "kbstate: no usable keyboard")
		os.Exit(1)
	}

	// Watch the config file so interval and log level edits apply without
	// restarting. Driver changes still need a restart; the session is
	// already bound.
	loader := config.NewLoader(resolveConfigPath(*configPath))
	reloaded := make(chan *config.Config, 1)
	loader.OnChange(func(c *config.Config) {
		select {
		case reloaded <- c:
		default:
		}
	})
	if err := loader.Watch(); err != nil {
		fmt.Fprintf(os.Stderr, "Warning: config watch unavailable: %v\n", err)
	} else {
		defer loader.Close()
	}

	sig := make(chan os.Signal, 1)
	signal.Notify(sig, syscall.SIGINT, syscall.SIGTERM)

	ticker := time.NewTicker(time.Duration(cfg.Poll.IntervalMs) * time.Millisecond)
	defer ticker.Stop()

	last := -1
	for {
		select {
		case <-sig:
			if *showMetrics {
				metrics.Default().WriteTo(os.Stdout)
			}
			return
		case c := <-reloaded:
			logging.Info("configuration reloaded")
			if *interval <= 0 && c.Poll.IntervalMs != cfg.Poll.IntervalMs {
				ticker.Reset(time.Duration(c.Poll.IntervalMs) * time.Millisecond)
			}
			if !*debug && c.Logging != cfg.Logging {
				cfg.Logging = c.Logging
				setupLogging(cfg)
			}
			cfg.Poll = c.Poll
		case err := <-loader.Errors():
			fmt.Fprintf(os.Stderr, "kbstate: config reload: %v\n", err)
		case <-ticker.C:
			for _, ev := range s.DrainEvents() {
				name := fmt.Sprintf("cookie %d", ev.Cookie)
				if k := s.Table().KeyByCookie(ev.Cookie); k != nil {
					name = k.Name
				}
				action := "released"
				if ev.Value != 0 {
					action = "pressed"
				}
				fmt.Printf("%s  %s %s\n",
					ev.Timestamp.Format("15:04:05.000"), name, action)
			}
			n := s.CountDepressedKeys()
			if n != last {
				fmt.Printf("keys down: %d\n", n)
				last = n
			}
		}
	}
}

func cmdDevices() {
	fs := flag.NewFlagSet("devices", flag.ExitOnError)
	configPath, driverType, debug := commonFlags(fs)
	fs.Parse(os.Args[2:])
	cfg := loadConfig(*configPath, *driverType, *debug)

	drv, err := newDriver(cfg)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
	lister, ok := drv.(hiddev.Lister)
	if !ok {
		fmt.Fprintln(os.Stderr, "Error: the configured driver cannot enumerate devices")
		os.Exit(1)
	}
	devices, err := lister.ListDevices()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
	for _, d := range devices {
		marker := ""
		if d.Keyboard {
			marker = "  [keyboard]"
		}
		fmt.Printf("%-24s %s%s\n", d.Path, d.Name, marker)
	}
}

func cmdInfo() {
	fs := flag.NewFlagSet("info", flag.ExitOnError)
	configPath, driverType, debug := commonFlags(fs)
	fs.Parse(os.Args[2:])
	cfg := loadConfig(*configPath, *driverType, *debug)

	s := openSession(cfg, false)
	defer s.Close()
	if !s.Ready() {
		fmt.Fprintln(os.Stderr, "kbstate: no usable keyboard")
		os.Exit(1)
	}

	for _, line := range s.DeviceInfo() {
		fmt.Println(line)
	}
	fmt.Printf("Resolved keys: %d\n", s.Table().ResolvedCount())
}

func cmdKeys() {
	fs := flag.NewFlagSet("keys", flag.ExitOnError)
	configPath, driverType, debug := commonFlags(fs)
	all := fs.Bool("all", false, "include ignored keys")
	fs.Parse(os.Args[2:])
	cfg := loadConfig(*configPath, *driverType, *debug)

	s := openSession(cfg, false)
	defer s.Close()
	if !s.Ready() {
		fmt.Fprintln(os.Stderr, "kbstate: no usable keyboard")
		os.Exit(1)
	}

	t := s.Table()
	for usage := uint32(1); int(usage) < t.Len(); usage++ {
		k := t.Key(usage)
		if k == nil || !k.Resolved() {
			continue
		}
		if k.Ignored && !*all {
			continue
		}
		marker := ""
		if k.Ignored {
			marker = "  (ignored)"
		}
		fmt.Printf("0x%02X  %s%s\n", k.Usage, k.Name, marker)
	}
}

func cmdStatus() {
	fs := flag.NewFlagSet("status", flag.ExitOnError)
	configPath, driverType, debug := commonFlags(fs)
	fs.Parse(os.Args[2:])
	cfg := loadConfig(*configPath, *driverType, *debug)

	fmt.Println("=== kbstate Status ===")
	fmt.Println()
	fmt.Printf("Config file: %s\n", configFileLabel(*configPath))
	fmt.Printf("Driver: %s\n", driverLabel(cfg))
	if cfg.Driver.DevicePath != "" {
		fmt.Printf("Device path: %s\n", cfg.Driver.DevicePath)
	}
	fmt.Printf("Event queue: %v (depth %d)\n",
		cfg.Session.EnableQueue, cfg.Session.QueueDepth)
	fmt.Printf("Resolve threshold: %d\n", cfg.Session.ResolveThreshold)
	fmt.Printf("Poll interval: %dms\n", cfg.Poll.IntervalMs)
	fmt.Printf("Debug: %v\n", cfg.Session.Debug)

	drv, err := newDriver(cfg)
	if err != nil {
		fmt.Printf("Keyboard: unavailable (%v)\n", err)
		return
	}
	if dev, ok := drv.MatchingDevice(hiddev.KeyboardQuery()); ok {
		dev.Release()
		fmt.Println("Keyboard: found")
	} else {
		fmt.Println("Keyboard: not found")
	}
}

// resolveConfigPath maps an empty -config flag to the platform default.
func resolveConfigPath(path string) string {
	if path != "" {
		return path
	}
	return config.ConfigPath()
}

func configFileLabel(path string) string {
	if path != "" {
		return path
	}
	return config.ConfigPath() + " (default)"
}

func driverLabel(cfg *config.Config) string {
	if cfg.Driver.Type != "" {
		return cfg.Driver.Type
	}
	return defaultDriverName + " (default)"
}
