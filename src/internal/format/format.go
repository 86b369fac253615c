// FILE: src/internal/format/format.go
package format

import (
	"fmt"

	"logtap/src/internal/core"

	"github.com/lixenwraith/log"
)

// Formatter defines the interface for transforming a decoded record into a
// byte slice ready for output.
type Formatter interface {
	// Format takes a LogRecord and returns the formatted bytes.
	Format(rec core.LogRecord) ([]byte, error)

	// Name returns the formatter type name
	Name() string
}

// New creates a new Formatter based on the provided configuration.
func New(name string, options map[string]any, logger *log.Logger) (Formatter, error) {
	// Default to text if no format specified
	if name == "" {
		name = "text"
	}

	switch name {
	case "json":
		return NewJSONFormatter(options, logger)
	case "text":
		return NewTextFormatter(options, logger)
	default:
		return nil, fmt.Errorf("unknown formatter type: %s", name)
	}
}
