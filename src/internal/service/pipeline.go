// FILE: src/internal/service/pipeline.go
package service

import (
	"context"
	"errors"
	"fmt"
	"io"
	"runtime"
	"sync"
	"sync/atomic"
	"time"

	"logtap/src/internal/config"
	"logtap/src/internal/decode"
	"logtap/src/internal/filter"
	"logtap/src/internal/format"
	"logtap/src/internal/sink"
	"logtap/src/internal/source"
	"logtap/src/internal/stream"

	"github.com/lixenwraith/log"
)

// Pipeline manages the flow of data from the byte source through the
// frame decoder and filters to the sinks and the HTTP streamer.
type Pipeline struct {
	Config      *config.Config
	Source      source.Source
	Decoder     *decode.Decoder
	FilterChain *filter.Chain
	Sinks       []sink.Sink
	Streamer    *stream.HTTPStreamer
	Stats       *PipelineStats
	logger      *log.Logger

	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup
}

// Contains statistics for a pipeline
type PipelineStats struct {
	StartTime            time.Time
	TotalRecordsDecoded  atomic.Uint64
	TotalRecordsFiltered atomic.Uint64
	TotalRecordsDropped  atomic.Uint64
}

// NewPipeline builds every component from the configuration. Nothing is
// started; call Start afterwards.
func NewPipeline(cfg *config.Config, logger *log.Logger) (*Pipeline, error) {
	logger.Debug("msg", "Creating pipeline", "component", "pipeline")

	pipelineCtx, pipelineCancel := context.WithCancel(context.Background())

	pipeline := &Pipeline{
		Config: cfg,
		Stats: &PipelineStats{
			StartTime: time.Now(),
		},
		ctx:    pipelineCtx,
		cancel: pipelineCancel,
		logger: logger,
	}

	src, err := source.New(&cfg.Source, logger)
	if err != nil {
		pipelineCancel()
		return nil, fmt.Errorf("failed to create source: %w", err)
	}
	pipeline.Source = src

	pipeline.Decoder = decode.NewDecoder(decode.Options{
		LineEndingPattern: lineEndingPattern(&cfg.Decoder),
		SubscriberBuffer:  cfg.Decoder.SubscriberBuffer,
	}, logger)

	if len(cfg.Filters) > 0 {
		chain, err := filter.NewChain(cfg.Filters, logger)
		if err != nil {
			pipelineCancel()
			return nil, fmt.Errorf("failed to create filter chain: %w", err)
		}
		pipeline.FilterChain = chain
	}

	formatter, err := format.New(cfg.Format.Type, cfg.Format.Options, logger)
	if err != nil {
		pipelineCancel()
		return nil, fmt.Errorf("failed to create formatter: %w", err)
	}

	for i, sinkCfg := range cfg.Sinks {
		sinkInst, err := sink.New(sinkCfg, formatter, logger)
		if err != nil {
			pipelineCancel()
			return nil, fmt.Errorf("failed to create sink[%d]: %w", i, err)
		}
		pipeline.Sinks = append(pipeline.Sinks, sinkInst)
	}

	if cfg.HTTP != nil && cfg.HTTP.Enabled {
		pipeline.Streamer = stream.NewHTTPStreamer(*cfg.HTTP, formatter, logger)
	}

	return pipeline, nil
}

func lineEndingPattern(cfg *config.DecoderConfig) []byte {
	if !cfg.CorrectLineEndings {
		return nil
	}
	platform := cfg.LineEndingPlatform
	if platform == "" {
		platform = runtime.GOOS
	}
	return decode.PatternForPlatform(platform)
}

// Start brings up the sinks, streamer and source, attaches the source to
// the decoder and begins pumping records.
func (p *Pipeline) Start() error {
	for i, sinkInst := range p.Sinks {
		if err := sinkInst.Start(p.ctx); err != nil {
			return fmt.Errorf("failed to start sink[%d]: %w", i, err)
		}
	}

	if p.Streamer != nil {
		if err := p.Streamer.Start(); err != nil {
			return fmt.Errorf("failed to start HTTP streamer: %w", err)
		}
	}

	p.Decoder.Attach(p.Source)

	if err := p.Source.Start(); err != nil {
		return fmt.Errorf("failed to start source: %w", err)
	}

	p.wg.Add(1)
	go p.pump()

	p.logger.Info("msg", "Pipeline started",
		"component", "pipeline",
		"source", p.Config.Source.Type,
		"sink_count", len(p.Sinks))
	return nil
}

// pump pulls records off the decoder stream and fans them out until the
// stream ends or the pipeline shuts down.
func (p *Pipeline) pump() {
	defer p.wg.Done()

	s := p.Decoder.Stream(decode.StreamOptions{
		SuppressErrors:         p.Config.Decoder.SuppressErrors,
		RecoverOnInvalidHeader: p.Config.Decoder.RecoverOnInvalidHeader,
	})

	for {
		record, err := s.Next()
		if err != nil {
			if !errors.Is(err, io.EOF) && !errors.Is(err, decode.ErrStreamDetached) {
				p.logger.Error("msg", "Record stream failed",
					"component", "pipeline",
					"error", err)
			}
			return
		}

		p.Stats.TotalRecordsDecoded.Add(1)

		if p.FilterChain != nil && !p.FilterChain.Apply(record) {
			p.Stats.TotalRecordsFiltered.Add(1)
			continue
		}

		for _, sinkInst := range p.Sinks {
			select {
			case sinkInst.Input() <- record:
			case <-p.ctx.Done():
				return
			default:
				p.Stats.TotalRecordsDropped.Add(1)
			}
		}

		if p.Streamer != nil {
			p.Streamer.Publish(record)
		}
	}
}

// Shutdown gracefully stops the pipeline
func (p *Pipeline) Shutdown() {
	p.logger.Info("msg", "Shutting down pipeline",
		"component", "pipeline")

	// Stop the source first so the decoder sees end of stream and the
	// pump drains every buffered frame before exiting.
	p.Source.Stop()
	p.wg.Wait()

	p.Decoder.Detach()
	p.cancel()

	var wg sync.WaitGroup
	for _, s := range p.Sinks {
		wg.Add(1)
		go func(sink sink.Sink) {
			defer wg.Done()
			sink.Stop()
		}(s)
	}
	wg.Wait()

	if p.Streamer != nil {
		p.Streamer.Stop()
	}

	p.logger.Info("msg", "Pipeline shutdown complete",
		"component", "pipeline")
}

// GetStats returns pipeline statistics
func (p *Pipeline) GetStats() map[string]any {
	sourceStats := p.Source.GetStats()
	decoderStats := p.Decoder.GetStats()

	sinkStats := make([]map[string]any, 0, len(p.Sinks))
	for _, s := range p.Sinks {
		stats := s.GetStats()
		sinkStats = append(sinkStats, map[string]any{
			"type":            stats.Type,
			"total_processed": stats.TotalProcessed,
			"start_time":      stats.StartTime,
			"last_processed":  stats.LastProcessed,
			"details":         stats.Details,
		})
	}

	var filterStats map[string]any
	if p.FilterChain != nil {
		filterStats = p.FilterChain.GetStats()
	}

	result := map[string]any{
		"uptime_seconds": int(time.Since(p.Stats.StartTime).Seconds()),
		"total_decoded":  p.Stats.TotalRecordsDecoded.Load(),
		"total_filtered": p.Stats.TotalRecordsFiltered.Load(),
		"total_dropped":  p.Stats.TotalRecordsDropped.Load(),
		"source": map[string]any{
			"type":          sourceStats.Type,
			"total_chunks":  sourceStats.TotalChunks,
			"total_bytes":   sourceStats.TotalBytes,
			"start_time":    sourceStats.StartTime,
			"last_activity": sourceStats.LastChunkTime,
			"details":       sourceStats.Details,
		},
		"decoder": map[string]any{
			"total_records":  decoderStats.TotalRecords,
			"dropped":        decoderStats.DroppedRecords,
			"buffered_bytes": decoderStats.BufferedBytes,
		},
		"sinks":   sinkStats,
		"filters": filterStats,
	}

	if p.Streamer != nil {
		result["http_clients"] = p.Streamer.GetActiveConnections()
	}

	return result
}
