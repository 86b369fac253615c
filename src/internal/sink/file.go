// FILE: src/internal/sink/file.go
package sink

import (
	"bufio"
	"context"
	"fmt"
	"os"
	"sync/atomic"
	"time"

	"logtap/src/internal/core"
	"logtap/src/internal/format"

	"github.com/lixenwraith/log"
)

const fileFlushInterval = time.Second

// FileSink appends formatted records to a file
type FileSink struct {
	path      string
	input     chan core.LogRecord
	done      chan struct{}
	file      *os.File
	writer    *bufio.Writer
	startTime time.Time
	logger    *log.Logger
	formatter format.Formatter

	// Statistics
	totalProcessed atomic.Uint64
	lastProcessed  atomic.Value // time.Time
}

// NewFileSink creates a new file sink
func NewFileSink(options map[string]any, logger *log.Logger, formatter format.Formatter) (*FileSink, error) {
	path, ok := options["path"].(string)
	if !ok || path == "" {
		return nil, fmt.Errorf("file sink requires a 'path' option")
	}

	bufferSize := int64(1000)
	if bufSize, ok := toInt(options["buffer_size"]); ok && bufSize > 0 {
		bufferSize = bufSize
	}

	s := &FileSink{
		path:      path,
		input:     make(chan core.LogRecord, bufferSize),
		done:      make(chan struct{}),
		startTime: time.Now(),
		logger:    logger,
		formatter: formatter,
	}
	s.lastProcessed.Store(time.Time{})
	return s, nil
}

func (s *FileSink) Input() chan<- core.LogRecord {
	return s.input
}

func (s *FileSink) Start(ctx context.Context) error {
	f, err := os.OpenFile(s.path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0644)
	if err != nil {
		return fmt.Errorf("failed to open %q: %w", s.path, err)
	}
	s.file = f
	s.writer = bufio.NewWriter(f)

	go s.processLoop(ctx)
	s.logger.Info("msg", "File sink started",
		"component", "file_sink",
		"path", s.path)
	return nil
}

func (s *FileSink) Stop() {
	close(s.done)
}

func (s *FileSink) GetStats() SinkStats {
	lastProc, _ := s.lastProcessed.Load().(time.Time)

	return SinkStats{
		Type:           "file",
		TotalProcessed: s.totalProcessed.Load(),
		StartTime:      s.startTime,
		LastProcessed:  lastProc,
		Details: map[string]any{
			"path": s.path,
		},
	}
}

func (s *FileSink) processLoop(ctx context.Context) {
	flush := time.NewTicker(fileFlushInterval)
	defer flush.Stop()
	defer func() {
		s.writer.Flush()
		s.file.Close()
	}()

	for {
		select {
		case rec, ok := <-s.input:
			if !ok {
				return
			}

			s.totalProcessed.Add(1)
			s.lastProcessed.Store(time.Now())

			formatted, err := s.formatter.Format(rec)
			if err != nil {
				s.logger.Error("msg", "Failed to format record",
					"component", "file_sink",
					"error", err)
				continue
			}
			if _, err := s.writer.Write(formatted); err != nil {
				s.logger.Error("msg", "Failed to write record",
					"component", "file_sink",
					"path", s.path,
					"error", err)
			}

		case <-flush.C:
			s.writer.Flush()

		case <-ctx.Done():
			return
		case <-s.done:
			return
		}
	}
}
