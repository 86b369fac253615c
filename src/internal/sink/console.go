// FILE: src/internal/sink/console.go
package sink

import (
	"context"
	"io"
	"os"
	"sync/atomic"
	"time"

	"logtap/src/internal/core"
	"logtap/src/internal/format"

	"github.com/lixenwraith/log"
)

// consoleSink writes formatted records to a fixed writer; StdoutSink and
// StderrSink are thin wrappers around it.
type consoleSink struct {
	name      string
	input     chan core.LogRecord
	output    io.Writer
	done      chan struct{}
	startTime time.Time
	logger    *log.Logger
	formatter format.Formatter

	// Statistics
	totalProcessed atomic.Uint64
	lastProcessed  atomic.Value // time.Time
}

func newConsoleSink(name string, output io.Writer, options map[string]any, logger *log.Logger, formatter format.Formatter) *consoleSink {
	bufferSize := int64(1000)
	if bufSize, ok := toInt(options["buffer_size"]); ok && bufSize > 0 {
		bufferSize = bufSize
	}

	s := &consoleSink{
		name:      name,
		input:     make(chan core.LogRecord, bufferSize),
		output:    output,
		done:      make(chan struct{}),
		startTime: time.Now(),
		logger:    logger,
		formatter: formatter,
	}
	s.lastProcessed.Store(time.Time{})
	return s
}

func (s *consoleSink) Input() chan<- core.LogRecord {
	return s.input
}

func (s *consoleSink) Start(ctx context.Context) error {
	go s.processLoop(ctx)
	s.logger.Info("msg", "Console sink started",
		"component", s.name+"_sink")
	return nil
}

func (s *consoleSink) Stop() {
	close(s.done)
}

func (s *consoleSink) GetStats() SinkStats {
	lastProc, _ := s.lastProcessed.Load().(time.Time)

	return SinkStats{
		Type:           s.name,
		TotalProcessed: s.totalProcessed.Load(),
		StartTime:      s.startTime,
		LastProcessed:  lastProc,
		Details:        map[string]any{},
	}
}

func (s *consoleSink) processLoop(ctx context.Context) {
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
					"component", s.name+"_sink",
					"error", err)
				continue
			}
			s.output.Write(formatted)

		case <-ctx.Done():
			return
		case <-s.done:
			return
		}
	}
}

// StdoutSink writes decoded records to stdout
type StdoutSink struct {
	*consoleSink
}

// NewStdoutSink creates a new stdout sink
func NewStdoutSink(options map[string]any, logger *log.Logger, formatter format.Formatter) (*StdoutSink, error) {
	return &StdoutSink{newConsoleSink("stdout", os.Stdout, options, logger, formatter)}, nil
}

// StderrSink writes decoded records to stderr
type StderrSink struct {
	*consoleSink
}

// NewStderrSink creates a new stderr sink
func NewStderrSink(options map[string]any, logger *log.Logger, formatter format.Formatter) (*StderrSink, error) {
	return &StderrSink{newConsoleSink("stderr", os.Stderr, options, logger, formatter)}, nil
}
