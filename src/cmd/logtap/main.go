// FILE: src/cmd/logtap/main.go
package main

import (
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"logtap/src/internal/config"
	"logtap/src/internal/service"
	"logtap/src/internal/version"

	"github.com/lixenwraith/log"
)

var logger *log.Logger

func main() {
	flagCfg, err := ParseFlags()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}

	if flagCfg.ShowVersion {
		fmt.Println(version.String())
		os.Exit(0)
	}

	// Set config file environment if specified
	if flagCfg.ConfigFile != "" {
		os.Setenv("LOGTAP_CONFIG_FILE", flagCfg.ConfigFile)
	}

	cfg, err := config.LoadWithCLI(nil)
	if err != nil {
		if flagCfg.ConfigFile != "" && strings.Contains(err.Error(), "not found") {
			fmt.Fprintf(os.Stderr, "Config file not found: %s\n", flagCfg.ConfigFile)
			os.Exit(2)
		}
		fmt.Fprintf(os.Stderr, "Failed to load config: %v\n", err)
		os.Exit(1)
	}

	if err := initializeLogger(cfg, flagCfg); err != nil {
		fmt.Fprintf(os.Stderr, "Failed to initialize logger: %v\n", err)
		os.Exit(1)
	}
	defer shutdownLogger()

	logger.Info("msg", "logtap starting",
		"version", version.String(),
		"config_file", flagCfg.ConfigFile,
		"source", cfg.Source.Type)

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)

	pipeline, err := service.NewPipeline(cfg, logger)
	if err != nil {
		logger.Error("msg", "Failed to create pipeline", "error", err)
		shutdownLogger()
		os.Exit(1)
	}

	if err := pipeline.Start(); err != nil {
		logger.Error("msg", "Failed to start pipeline", "error", err)
		shutdownLogger()
		os.Exit(1)
	}

	logger.Info("msg", "logtap started", "version", version.Short())

	<-sigChan
	logger.Info("msg", "Shutdown signal received, starting graceful shutdown...")

	done := make(chan struct{})
	go func() {
		pipeline.Shutdown()
		close(done)
	}()

	select {
	case <-done:
		logger.Info("msg", "Shutdown complete")
	case <-time.After(10 * time.Second):
		logger.Error("msg", "Shutdown timeout exceeded - forcing exit")
		os.Exit(1)
	}
}

func shutdownLogger() {
	if logger != nil {
		if err := logger.Shutdown(2 * time.Second); err != nil {
			fmt.Fprintf(os.Stderr, "Logger shutdown error: %v\n", err)
		}
	}
}
