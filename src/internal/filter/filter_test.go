// FILE: src/internal/filter/filter_test.go
package filter

import (
	"testing"

	"logtap/src/internal/config"
	"logtap/src/internal/core"

	"github.com/lixenwraith/log"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestLogger() *log.Logger {
	return log.NewLogger()
}

func TestNewFilter(t *testing.T) {
	logger := newTestLogger()

	t.Run("InvalidRegex", func(t *testing.T) {
		_, err := NewFilter(config.FilterConfig{
			Type:     config.FilterTypeInclude,
			Patterns: []string{"["},
		}, logger)
		assert.Error(t, err)
		assert.Contains(t, err.Error(), "invalid regex")
	})

	t.Run("UnknownPriorityName", func(t *testing.T) {
		_, err := NewFilter(config.FilterConfig{
			Type:        config.FilterTypePriority,
			MinPriority: "loud",
		}, logger)
		assert.Error(t, err)
	})

	t.Run("DefaultsToIncludeOnMessage", func(t *testing.T) {
		f, err := NewFilter(config.FilterConfig{Patterns: []string{"x"}}, logger)
		require.NoError(t, err)
		assert.Equal(t, config.FilterTypeInclude, f.config.Type)
		assert.Equal(t, config.FilterFieldMessage, f.config.Field)
	})
}

func TestFilter_Apply(t *testing.T) {
	logger := newTestLogger()
	rec := core.LogRecord{
		Priority: core.PriorityWarn,
		Tag:      "WifiService",
		Message:  "scan failed, retrying",
	}

	testCases := []struct {
		name     string
		cfg      config.FilterConfig
		expected bool
	}{
		{
			name:     "IncludeMessageMatch",
			cfg:      config.FilterConfig{Type: config.FilterTypeInclude, Patterns: []string{"scan"}},
			expected: true,
		},
		{
			name:     "IncludeMessageNoMatch",
			cfg:      config.FilterConfig{Type: config.FilterTypeInclude, Patterns: []string{"bluetooth"}},
			expected: false,
		},
		{
			name:     "IncludeTagField",
			cfg:      config.FilterConfig{Type: config.FilterTypeInclude, Field: config.FilterFieldTag, Patterns: []string{"^Wifi"}},
			expected: true,
		},
		{
			name:     "ExcludeTagMatch",
			cfg:      config.FilterConfig{Type: config.FilterTypeExclude, Field: config.FilterFieldTag, Patterns: []string{"WifiService"}},
			expected: false,
		},
		{
			name:     "PriorityAtThreshold",
			cfg:      config.FilterConfig{Type: config.FilterTypePriority, MinPriority: "warn"},
			expected: true,
		},
		{
			name:     "PriorityBelowThreshold",
			cfg:      config.FilterConfig{Type: config.FilterTypePriority, MinPriority: "error"},
			expected: false,
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			f, err := NewFilter(tc.cfg, logger)
			require.NoError(t, err)
			assert.Equal(t, tc.expected, f.Apply(rec))
		})
	}
}
