// FILE: src/internal/format/text.go
package format

import (
	"bytes"
	"fmt"
	"strings"
	"text/template"
	"time"

	"logtap/src/internal/core"

	"github.com/lixenwraith/log"
)

// Timestamp layout of the classic device log text output.
const defaultTimestampFormat = "01-02 15:04:05.000"

const defaultTemplate = "{{FmtTime .Timestamp}} {{.Pid}} {{.Tid}} {{.Priority}} {{.Tag}}: {{.Message}}"

// Produces human-readable text lines from decoded records using templates
type TextFormatter struct {
	timestampFormat string
	template        *template.Template
	logger          *log.Logger
}

// Creates a new text formatter
func NewTextFormatter(options map[string]any, logger *log.Logger) (*TextFormatter, error) {
	f := &TextFormatter{
		timestampFormat: defaultTimestampFormat,
		logger:          logger,
	}

	if tsFormat, ok := options["timestamp_format"].(string); ok && tsFormat != "" {
		f.timestampFormat = tsFormat
	}

	tmplText := defaultTemplate
	if tmpl, ok := options["template"].(string); ok && tmpl != "" {
		tmplText = tmpl
	}

	// Create template with helper functions
	funcMap := template.FuncMap{
		"FmtTime": func(t time.Time) string {
			return t.Format(f.timestampFormat)
		},
		"ToUpper":   strings.ToUpper,
		"ToLower":   strings.ToLower,
		"TrimSpace": strings.TrimSpace,
	}

	tmpl, err := template.New("record").Funcs(funcMap).Parse(tmplText)
	if err != nil {
		return nil, fmt.Errorf("invalid template: %w", err)
	}

	f.template = tmpl
	return f, nil
}

// Formats the record using the template
func (f *TextFormatter) Format(rec core.LogRecord) ([]byte, error) {
	data := map[string]any{
		"Timestamp":    rec.Time,
		"Pid":          rec.Pid,
		"Tid":          rec.Tid,
		"Priority":     core.PriorityLetter(rec.Priority),
		"PriorityName": rec.PriorityName(),
		"Tag":          rec.Tag,
		"Message":      rec.Message,
	}
	if rec.LogID != nil {
		data["LogID"] = *rec.LogID
	}

	var buf bytes.Buffer
	if err := f.template.Execute(&buf, data); err != nil {
		// Fallback: return a basic formatted line
		f.logger.Debug("msg", "Template execution failed, using fallback",
			"component", "text_formatter",
			"error", err)

		fallback := fmt.Sprintf("%s %d %d %s %s: %s\n",
			rec.Time.Format(f.timestampFormat),
			rec.Pid,
			rec.Tid,
			core.PriorityLetter(rec.Priority),
			rec.Tag,
			rec.Message)
		return []byte(fallback), nil
	}

	// Ensure newline at end
	result := buf.Bytes()
	if len(result) == 0 || result[len(result)-1] != '\n' {
		result = append(result, '\n')
	}

	return result, nil
}

// Returns the formatter name
func (f *TextFormatter) Name() string {
	return "text"
}
