// FILE: src/internal/format/text_test.go
package format

import (
	"fmt"
	"strings"
	"testing"
	"time"

	"logtap/src/internal/core"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewTextFormatter(t *testing.T) {
	logger := newTestLogger()
	t.Run("InvalidTemplate", func(t *testing.T) {
		options := map[string]any{"template": "{{ .Timestamp | InvalidFunc }}"}
		_, err := NewTextFormatter(options, logger)
		assert.Error(t, err)
		assert.Contains(t, err.Error(), "invalid template")
	})
}

func TestTextFormatter_Format(t *testing.T) {
	logger := newTestLogger()
	testTime := time.Date(2023, 10, 27, 10, 30, 0, 0, time.UTC)
	rec := core.LogRecord{
		Pid:      421,
		Tid:      437,
		Time:     testTime,
		Priority: core.PriorityWarn,
		Tag:      "WifiService",
		Message:  "rate limit exceeded",
	}

	t.Run("DefaultTemplate", func(t *testing.T) {
		formatter, err := NewTextFormatter(nil, logger)
		require.NoError(t, err)

		output, err := formatter.Format(rec)
		require.NoError(t, err)

		expected := fmt.Sprintf("%s 421 437 W WifiService: rate limit exceeded\n",
			testTime.Format(defaultTimestampFormat))
		assert.Equal(t, expected, string(output))
	})

	t.Run("CustomTemplate", func(t *testing.T) {
		options := map[string]any{"template": "{{.PriorityName}}:{{.Tag}}:{{.Message}}"}
		formatter, err := NewTextFormatter(options, logger)
		require.NoError(t, err)

		output, err := formatter.Format(rec)
		require.NoError(t, err)

		expected := "warn:WifiService:rate limit exceeded\n"
		assert.Equal(t, expected, string(output))
	})

	t.Run("CustomTimestampFormat", func(t *testing.T) {
		options := map[string]any{
			"template":         "{{FmtTime .Timestamp}} {{.Message}}",
			"timestamp_format": "2006-01-02",
		}
		formatter, err := NewTextFormatter(options, logger)
		require.NoError(t, err)

		output, err := formatter.Format(rec)
		require.NoError(t, err)

		assert.True(t, strings.HasPrefix(string(output), "2023-10-27"))
	})

	t.Run("UnknownPriorityLetter", func(t *testing.T) {
		odd := rec
		odd.Priority = 99
		formatter, err := NewTextFormatter(nil, logger)
		require.NoError(t, err)

		output, err := formatter.Format(odd)
		require.NoError(t, err)
		assert.Contains(t, string(output), " ? ")
	})
}
