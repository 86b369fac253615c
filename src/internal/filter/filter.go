// FILE: src/internal/filter/filter.go
package filter

import (
	"fmt"
	"regexp"
	"sync/atomic"

	"logtap/src/internal/config"
	"logtap/src/internal/core"

	"github.com/lixenwraith/log"
)

// Filter drops or passes decoded records by tag/message regex or by a
// minimum priority.
type Filter struct {
	config      config.FilterConfig
	patterns    []*regexp.Regexp
	minPriority byte
	logger      *log.Logger

	// Statistics
	totalProcessed atomic.Uint64
	totalMatched   atomic.Uint64
	totalDropped   atomic.Uint64
}

// NewFilter creates a new filter from configuration
func NewFilter(cfg config.FilterConfig, logger *log.Logger) (*Filter, error) {
	if cfg.Type == "" {
		cfg.Type = config.FilterTypeInclude
	}
	if cfg.Field == "" {
		cfg.Field = config.FilterFieldMessage
	}

	f := &Filter{
		config:   cfg,
		patterns: make([]*regexp.Regexp, 0, len(cfg.Patterns)),
		logger:   logger,
	}

	if cfg.Type == config.FilterTypePriority {
		p, ok := core.ParsePriority(cfg.MinPriority)
		if !ok {
			return nil, fmt.Errorf("unknown priority name: %q", cfg.MinPriority)
		}
		f.minPriority = p
	}

	// Compile patterns
	for i, pattern := range cfg.Patterns {
		re, err := regexp.Compile(pattern)
		if err != nil {
			return nil, fmt.Errorf("invalid regex pattern[%d] '%s': %w", i, pattern, err)
		}
		f.patterns = append(f.patterns, re)
	}

	logger.Debug("msg", "Filter created",
		"component", "filter",
		"type", cfg.Type,
		"field", cfg.Field,
		"pattern_count", len(cfg.Patterns))

	return f, nil
}

// Apply checks if a record should be passed through
func (f *Filter) Apply(rec core.LogRecord) bool {
	f.totalProcessed.Add(1)

	shouldPass := false
	switch f.config.Type {
	case config.FilterTypePriority:
		shouldPass = rec.Priority >= f.minPriority
	case config.FilterTypeInclude:
		shouldPass = f.matches(rec)
	case config.FilterTypeExclude:
		shouldPass = !f.matches(rec)
	}

	if !shouldPass {
		f.totalDropped.Add(1)
	}

	return shouldPass
}

// matches checks the selected record field against any of the patterns
func (f *Filter) matches(rec core.LogRecord) bool {
	// No patterns means match everything
	if len(f.patterns) == 0 {
		return true
	}

	text := rec.Message
	if f.config.Field == config.FilterFieldTag {
		text = rec.Tag
	}

	for _, re := range f.patterns {
		if re.MatchString(text) {
			f.totalMatched.Add(1)
			return true
		}
	}
	return false
}

// GetStats returns filter statistics
func (f *Filter) GetStats() map[string]any {
	return map[string]any{
		"type":            f.config.Type,
		"field":           f.config.Field,
		"pattern_count":   len(f.patterns),
		"total_processed": f.totalProcessed.Load(),
		"total_matched":   f.totalMatched.Load(),
		"total_dropped":   f.totalDropped.Load(),
	}
}
