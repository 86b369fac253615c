// FILE: src/internal/service/pipeline_test.go
package service

import (
	"encoding/binary"
	"os"
	"path/filepath"
	"testing"
	"time"

	"logtap/src/internal/config"
	"logtap/src/internal/core"

	"github.com/lixenwraith/log"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestLogger() *log.Logger {
	return log.NewLogger()
}

// buildFrame assembles one wire frame in the compact header layout.
func buildFrame(priority byte, tag, message string) []byte {
	payload := []byte{priority}
	payload = append(payload, tag...)
	payload = append(payload, 0)
	payload = append(payload, message...)
	payload = append(payload, 0)

	buf := make([]byte, 0, 20+len(payload))
	buf = binary.LittleEndian.AppendUint16(buf, uint16(len(payload)))
	buf = binary.LittleEndian.AppendUint16(buf, 0)
	buf = binary.LittleEndian.AppendUint32(buf, 100)
	buf = binary.LittleEndian.AppendUint32(buf, 200)
	buf = binary.LittleEndian.AppendUint32(buf, uint32(time.Now().Unix()))
	buf = binary.LittleEndian.AppendUint32(buf, 0)
	return append(buf, payload...)
}

func testConfig(path string) *config.Config {
	return &config.Config{
		Source: config.SourceConfig{
			Type: "file",
			File: &config.FileSourceOptions{Path: path},
		},
		Decoder: config.DecoderConfig{
			SubscriberBuffer: 100,
		},
		Format: config.FormatConfig{Type: "text"},
		Sinks: []config.SinkConfig{
			{Type: "stdout"},
		},
	}
}

func TestPipelineEndToEnd(t *testing.T) {
	path := filepath.Join(t.TempDir(), "capture.bin")

	var data []byte
	data = append(data, buildFrame(core.PriorityInfo, "kernel", "first")...)
	data = append(data, buildFrame(core.PriorityError, "radio", "second")...)
	require.NoError(t, os.WriteFile(path, data, 0644))

	pipeline, err := NewPipeline(testConfig(path), newTestLogger())
	require.NoError(t, err)

	// Observe decoded records alongside the sinks.
	records := pipeline.Decoder.Subscribe()

	require.NoError(t, pipeline.Start())
	defer pipeline.Shutdown()

	first := receiveRecord(t, records)
	assert.Equal(t, "kernel", first.Tag)
	assert.Equal(t, "first", first.Message)
	assert.Equal(t, core.PriorityInfo, first.Priority)

	second := receiveRecord(t, records)
	assert.Equal(t, "radio", second.Tag)
	assert.Equal(t, "second", second.Message)
	assert.Equal(t, core.PriorityError, second.Priority)
}

func TestPipelineFiltersRecords(t *testing.T) {
	path := filepath.Join(t.TempDir(), "capture.bin")

	var data []byte
	data = append(data, buildFrame(core.PriorityDebug, "noise", "skipped")...)
	data = append(data, buildFrame(core.PriorityError, "radio", "kept")...)
	require.NoError(t, os.WriteFile(path, data, 0644))

	cfg := testConfig(path)
	cfg.Filters = []config.FilterConfig{
		{Type: config.FilterTypePriority, MinPriority: "error"},
	}

	pipeline, err := NewPipeline(cfg, newTestLogger())
	require.NoError(t, err)

	require.NoError(t, pipeline.Start())
	defer pipeline.Shutdown()

	assert.Eventually(t, func() bool {
		return pipeline.Stats.TotalRecordsFiltered.Load() == 1 &&
			pipeline.Stats.TotalRecordsDecoded.Load() == 2
	}, 2*time.Second, 10*time.Millisecond)
}

func TestPipelineStats(t *testing.T) {
	path := filepath.Join(t.TempDir(), "capture.bin")
	require.NoError(t, os.WriteFile(path, buildFrame(core.PriorityWarn, "t", "m"), 0644))

	pipeline, err := NewPipeline(testConfig(path), newTestLogger())
	require.NoError(t, err)

	require.NoError(t, pipeline.Start())
	defer pipeline.Shutdown()

	assert.Eventually(t, func() bool {
		return pipeline.Stats.TotalRecordsDecoded.Load() == 1
	}, 2*time.Second, 10*time.Millisecond)

	stats := pipeline.GetStats()
	source, ok := stats["source"].(map[string]any)
	require.True(t, ok)
	assert.Equal(t, "file", source["type"])
	assert.Equal(t, uint64(1), stats["total_decoded"])
}

func receiveRecord(t *testing.T, ch <-chan core.LogRecord) core.LogRecord {
	t.Helper()
	select {
	case rec := <-ch:
		return rec
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for record")
		return core.LogRecord{}
	}
}
