// FILE: src/internal/format/json.go
package format

import (
	"encoding/json"
	"fmt"
	"time"

	"logtap/src/internal/core"

	"github.com/lixenwraith/log"
)

// JSONFormatter produces one JSON object per decoded record.
type JSONFormatter struct {
	pretty bool
	logger *log.Logger
}

// NewJSONFormatter creates a new JSON formatter from configuration options.
func NewJSONFormatter(options map[string]any, logger *log.Logger) (*JSONFormatter, error) {
	f := &JSONFormatter{
		logger: logger,
	}

	if pretty, ok := options["pretty"].(bool); ok {
		f.pretty = pretty
	}

	return f, nil
}

// Format transforms a single record into a JSON byte slice.
func (f *JSONFormatter) Format(rec core.LogRecord) ([]byte, error) {
	output := map[string]any{
		"time":     rec.Time.Format(time.RFC3339Nano),
		"pid":      rec.Pid,
		"tid":      rec.Tid,
		"priority": rec.PriorityName(),
		"tag":      rec.Tag,
		"message":  rec.Message,
	}
	if rec.LogID != nil {
		output["log_id"] = *rec.LogID
	}

	var result []byte
	var err error
	if f.pretty {
		result, err = json.MarshalIndent(output, "", "  ")
	} else {
		result, err = json.Marshal(output)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to marshal JSON: %w", err)
	}

	return append(result, '\n'), nil
}

// Returns the formatter name
func (f *JSONFormatter) Name() string {
	return "json"
}
