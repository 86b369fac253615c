// FILE: src/internal/config/loader.go
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	lconfig "github.com/lixenwraith/config"
)

// LoadWithCLI builds the configuration from defaults, the config file, the
// LOGTAP_ environment and CLI arguments, in rising precedence.
func LoadWithCLI(cliArgs []string) (*Config, error) {
	configPath := GetConfigPath()

	cfg, err := lconfig.NewBuilder().
		WithDefaults(defaults()).
		WithEnvPrefix("LOGTAP_").
		WithFile(configPath).
		WithArgs(cliArgs).
		WithEnvTransform(customEnvTransform).
		WithSources(
			lconfig.SourceCLI,
			lconfig.SourceEnv,
			lconfig.SourceFile,
			lconfig.SourceDefault,
		).
		Build()

	if err != nil {
		if !strings.Contains(err.Error(), "not found") {
			return nil, fmt.Errorf("failed to load config: %w", err)
		}
	}

	finalConfig := &Config{}
	if err := cfg.Scan(finalConfig); err != nil {
		return nil, fmt.Errorf("failed to scan config: %w", err)
	}

	return finalConfig, finalConfig.validate()
}

func customEnvTransform(path string) string {
	env := strings.ReplaceAll(path, ".", "_")
	env = strings.ToUpper(env)
	env = "LOGTAP_" + env
	return env
}

// GetConfigPath resolves the config file location: explicit env var first,
// then the config directory, then a file next to the working directory.
func GetConfigPath() string {
	if path := os.Getenv("LOGTAP_CONFIG_FILE"); path != "" {
		return path
	}

	dir := os.Getenv("LOGTAP_CONFIG_DIR")
	if dir == "" {
		if home, err := os.UserHomeDir(); err == nil {
			dir = filepath.Join(home, ".config", "logtap")
		}
	}
	if dir != "" {
		candidate := filepath.Join(dir, "logtap.toml")
		if _, err := os.Stat(candidate); err == nil {
			return candidate
		}
	}

	return "logtap.toml"
}
