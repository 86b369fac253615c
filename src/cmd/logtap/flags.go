// FILE: src/cmd/logtap/flags.go
package main

import (
	"flag"
	"fmt"
	"os"
)

// FlagConfig carries parsed command-line options.
type FlagConfig struct {
	ConfigFile  string
	ShowVersion bool
	Quiet       bool

	// Logging overrides, applied on top of the config file
	LogOutput  string
	LogLevel   string
	LogFile    string
	LogDir     string
	LogConsole string
}

func ParseFlags() (*FlagConfig, error) {
	fs := flag.NewFlagSet(os.Args[0], flag.ContinueOnError)
	fs.Usage = func() { printUsage(fs) }

	cfg := &FlagConfig{}
	fs.StringVar(&cfg.ConfigFile, "config", "", "Config file path")
	fs.BoolVar(&cfg.ShowVersion, "version", false, "Show version information")
	fs.BoolVar(&cfg.Quiet, "quiet", false, "Suppress all operational log output")

	fs.StringVar(&cfg.LogOutput, "log-output", "", "Log output: file, stdout, stderr, both, none (overrides config)")
	fs.StringVar(&cfg.LogLevel, "log-level", "", "Log level: debug, info, warn, error (overrides config)")
	fs.StringVar(&cfg.LogFile, "log-file", "", "Log file name (when using file output)")
	fs.StringVar(&cfg.LogDir, "log-dir", "", "Log directory (when using file output)")
	fs.StringVar(&cfg.LogConsole, "log-console", "", "Console target: stdout, stderr, split (overrides config)")

	if err := fs.Parse(os.Args[1:]); err != nil {
		return nil, err
	}

	if cfg.LogOutput != "" {
		validOutputs := map[string]bool{
			"file": true, "stdout": true, "stderr": true,
			"both": true, "none": true,
		}
		if !validOutputs[cfg.LogOutput] {
			return nil, fmt.Errorf("invalid log-output: %s (valid: file, stdout, stderr, both, none)", cfg.LogOutput)
		}
	}

	if cfg.LogLevel != "" {
		if _, err := parseLogLevel(cfg.LogLevel); err != nil {
			return nil, fmt.Errorf("invalid log-level: %s (valid: debug, info, warn, error)", cfg.LogLevel)
		}
	}

	if cfg.LogConsole != "" {
		validTargets := map[string]bool{
			"stdout": true, "stderr": true, "split": true,
		}
		if !validTargets[cfg.LogConsole] {
			return nil, fmt.Errorf("invalid log-console: %s (valid: stdout, stderr, split)", cfg.LogConsole)
		}
	}

	return cfg, nil
}

func printUsage(fs *flag.FlagSet) {
	fmt.Fprintf(os.Stderr, "logtap - Device Log Stream Decoder\n\n")
	fmt.Fprintf(os.Stderr, "Usage: %s [options]\n\n", os.Args[0])
	fmt.Fprintf(os.Stderr, "Options:\n")
	fs.PrintDefaults()

	fmt.Fprintf(os.Stderr, "\nExamples:\n")
	fmt.Fprintf(os.Stderr, "  # Decode the device log from stdin to the terminal\n")
	fmt.Fprintf(os.Stderr, "  adb exec-out logcat -B | %s\n\n", os.Args[0])

	fmt.Fprintf(os.Stderr, "  # Decode a saved binary capture\n")
	fmt.Fprintf(os.Stderr, "  %s --config capture.toml\n\n", os.Args[0])

	fmt.Fprintf(os.Stderr, "  # Run with debug logging to both file and console\n")
	fmt.Fprintf(os.Stderr, "  %s --log-output both --log-level debug\n\n", os.Args[0])

	fmt.Fprintf(os.Stderr, "Environment Variables:\n")
	fmt.Fprintf(os.Stderr, "  LOGTAP_CONFIG_FILE  Config file path\n")
	fmt.Fprintf(os.Stderr, "  LOGTAP_CONFIG_DIR   Config directory\n")
}
