// FILE: src/internal/source/source.go
package source

import (
	"fmt"
	"time"

	"logtap/src/internal/config"

	"github.com/lixenwraith/log"
)

// Source represents an input byte stream delivered as ordered chunks.
// Subscriber channels close when the stream ends.
type Source interface {
	// Returns a channel that receives byte chunks in delivery order
	Subscribe() <-chan []byte

	// Begins reading from the source
	Start() error

	// Gracefully shuts down the source
	Stop()

	// Returns source statistics
	GetStats() SourceStats
}

// Contains statistics about a source
type SourceStats struct {
	Type          string
	TotalChunks   uint64
	TotalBytes    uint64
	DroppedChunks uint64
	StartTime     time.Time
	LastChunkTime time.Time
	Details       map[string]any
}

// New creates a source from configuration.
func New(cfg *config.SourceConfig, logger *log.Logger) (Source, error) {
	switch cfg.Type {
	case "exec":
		return NewExecSource(cfg.Exec, logger)
	case "file":
		return NewFileSource(cfg.File, logger)
	case "stdin":
		return NewStdinSource(cfg.Stdin, logger)
	case "tcp":
		return NewTCPSource(cfg.TCP, logger)
	default:
		return nil, fmt.Errorf("unknown source type: %s", cfg.Type)
	}
}
