// FILE: src/internal/sink/sink.go
package sink

import (
	"context"
	"fmt"
	"time"

	"logtap/src/internal/config"
	"logtap/src/internal/core"
	"logtap/src/internal/format"

	"github.com/lixenwraith/log"
)

// Sink represents an output destination for decoded records
type Sink interface {
	// Input returns the channel for sending records to this sink
	Input() chan<- core.LogRecord

	// Start begins processing records
	Start(ctx context.Context) error

	// Stop gracefully shuts down the sink
	Stop()

	// GetStats returns sink statistics
	GetStats() SinkStats
}

// SinkStats contains statistics about a sink
type SinkStats struct {
	Type           string
	TotalProcessed uint64
	StartTime      time.Time
	LastProcessed  time.Time
	Details        map[string]any
}

// New creates a sink from configuration.
func New(cfg config.SinkConfig, formatter format.Formatter, logger *log.Logger) (Sink, error) {
	switch cfg.Type {
	case "stdout":
		return NewStdoutSink(cfg.Options, logger, formatter)
	case "stderr":
		return NewStderrSink(cfg.Options, logger, formatter)
	case "file":
		return NewFileSink(cfg.Options, logger, formatter)
	default:
		return nil, fmt.Errorf("unknown sink type: %s", cfg.Type)
	}
}

// Helper for option maps scanned from TOML
func toInt(v any) (int64, bool) {
	switch val := v.(type) {
	case int:
		return int64(val), true
	case int64:
		return val, true
	case float64:
		return int64(val), true
	default:
		return 0, false
	}
}
