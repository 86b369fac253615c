// FILE: src/internal/config/logging.go
package config

import "fmt"

// LogConfig controls logtap's own diagnostic logging. It is entirely
// separate from the decoded record output, which flows through sinks; the
// default keeps diagnostics on stderr so the stdout sink stays clean.
type LogConfig struct {
	// Output mode: "file", "stdout", "stderr", "both", "none"
	Output string `toml:"output"`

	// Level: "debug", "info", "warn", "error"
	Level string `toml:"level"`

	// File output settings, used by the "file" and "both" modes
	File *LogFileConfig `toml:"file"`

	// Console output settings, used whenever a console target is active
	Console *LogConsoleConfig `toml:"console"`
}

type LogFileConfig struct {
	Directory string `toml:"directory"`

	// Base name of the log files, without extension
	Name string `toml:"name"`

	MaxSizeMB      int64 `toml:"max_size_mb"`
	MaxTotalSizeMB int64 `toml:"max_total_size_mb"`

	// RetentionHours prunes rotated logs older than this; 0 keeps everything
	RetentionHours float64 `toml:"retention_hours"`
}

type LogConsoleConfig struct {
	// Target: "stdout", "stderr", or "split" (debug/info to stdout,
	// warn/error to stderr)
	Target string `toml:"target"`

	// Format: "txt" or "json"
	Format string `toml:"format"`
}

func DefaultLogConfig() *LogConfig {
	return &LogConfig{
		Output: "stderr",
		Level:  "info",
		File: &LogFileConfig{
			Directory:      "./log",
			Name:           "logtap",
			MaxSizeMB:      100,
			MaxTotalSizeMB: 1000,
			RetentionHours: 168, // 7 days
		},
		Console: &LogConsoleConfig{
			Target: "stderr",
			Format: "txt",
		},
	}
}

func (cfg *LogConfig) Validate() error {
	validOutputs := map[string]bool{
		"file": true, "stdout": true, "stderr": true,
		"both": true, "none": true,
	}
	if !validOutputs[cfg.Output] {
		return fmt.Errorf("invalid log output mode: %s", cfg.Output)
	}

	validLevels := map[string]bool{
		"debug": true, "info": true, "warn": true, "error": true,
	}
	if !validLevels[cfg.Level] {
		return fmt.Errorf("invalid log level: %s", cfg.Level)
	}

	if cfg.Console != nil {
		validTargets := map[string]bool{
			"stdout": true, "stderr": true, "split": true,
		}
		if !validTargets[cfg.Console.Target] {
			return fmt.Errorf("invalid console target: %s", cfg.Console.Target)
		}

		validFormats := map[string]bool{
			"txt": true, "json": true, "": true,
		}
		if !validFormats[cfg.Console.Format] {
			return fmt.Errorf("invalid console format: %s", cfg.Console.Format)
		}
	}

	return nil
}
