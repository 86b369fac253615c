// FILE: src/internal/format/json_test.go
package format

import (
	"encoding/json"
	"testing"
	"time"

	"logtap/src/internal/core"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestJSONFormatter_Format(t *testing.T) {
	logger := newTestLogger()
	logID := uint32(1)
	rec := core.LogRecord{
		Pid:      100,
		Tid:      200,
		Time:     time.Date(2023, 10, 27, 10, 30, 0, 0, time.UTC),
		LogID:    &logID,
		Priority: core.PriorityError,
		Tag:      "AndroidRuntime",
		Message:  "FATAL EXCEPTION",
	}

	t.Run("AllFields", func(t *testing.T) {
		formatter, err := NewJSONFormatter(nil, logger)
		require.NoError(t, err)

		output, err := formatter.Format(rec)
		require.NoError(t, err)

		var decoded map[string]any
		require.NoError(t, json.Unmarshal(output, &decoded))
		assert.Equal(t, float64(100), decoded["pid"])
		assert.Equal(t, float64(200), decoded["tid"])
		assert.Equal(t, "error", decoded["priority"])
		assert.Equal(t, "AndroidRuntime", decoded["tag"])
		assert.Equal(t, "FATAL EXCEPTION", decoded["message"])
		assert.Equal(t, float64(1), decoded["log_id"])
	})

	t.Run("LogIDOmittedWhenAbsent", func(t *testing.T) {
		formatter, err := NewJSONFormatter(nil, logger)
		require.NoError(t, err)

		plain := rec
		plain.LogID = nil
		output, err := formatter.Format(plain)
		require.NoError(t, err)

		var decoded map[string]any
		require.NoError(t, json.Unmarshal(output, &decoded))
		_, present := decoded["log_id"]
		assert.False(t, present)
	})

	t.Run("Pretty", func(t *testing.T) {
		formatter, err := NewJSONFormatter(map[string]any{"pretty": true}, logger)
		require.NoError(t, err)

		output, err := formatter.Format(rec)
		require.NoError(t, err)
		assert.Contains(t, string(output), "\n  \"tag\"")
	})
}
