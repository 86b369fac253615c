// FILE: src/internal/source/exec.go
package source

import (
	"context"
	"fmt"
	"os/exec"
	"sync"
	"sync/atomic"
	"time"

	"logtap/src/internal/config"

	"github.com/lixenwraith/log"
)

const defaultChunkSize = 4096

// Spawns an external log-producing command and streams its stdout
type ExecSource struct {
	command   string
	args      []string
	chunkSize int64

	subscribers []chan []byte
	mu          sync.Mutex
	ctx         context.Context
	cancel      context.CancelFunc
	cmd         *exec.Cmd
	wg          sync.WaitGroup
	logger      *log.Logger

	// Statistics
	totalChunks   atomic.Uint64
	totalBytes    atomic.Uint64
	droppedChunks atomic.Uint64
	startTime     time.Time
	lastChunkTime atomic.Value // time.Time
}

func NewExecSource(opts *config.ExecSourceOptions, logger *log.Logger) (*ExecSource, error) {
	if opts == nil || opts.Command == "" {
		return nil, fmt.Errorf("exec source requires a command")
	}

	chunkSize := opts.ChunkSize
	if chunkSize <= 0 {
		chunkSize = defaultChunkSize
	}

	s := &ExecSource{
		command:   opts.Command,
		args:      opts.Args,
		chunkSize: chunkSize,
		logger:    logger,
		startTime: time.Now(),
	}
	s.lastChunkTime.Store(time.Time{})
	return s, nil
}

func (s *ExecSource) Subscribe() <-chan []byte {
	s.mu.Lock()
	defer s.mu.Unlock()

	ch := make(chan []byte, 1000)
	s.subscribers = append(s.subscribers, ch)
	return ch
}

func (s *ExecSource) Start() error {
	s.ctx, s.cancel = context.WithCancel(context.Background())
	s.cmd = exec.CommandContext(s.ctx, s.command, s.args...)

	stdout, err := s.cmd.StdoutPipe()
	if err != nil {
		return fmt.Errorf("failed to open stdout pipe: %w", err)
	}

	if err := s.cmd.Start(); err != nil {
		return fmt.Errorf("failed to start %q: %w", s.command, err)
	}

	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		defer s.closeSubscribers()

		buf := make([]byte, s.chunkSize)
		for {
			n, err := stdout.Read(buf)
			if n > 0 {
				s.publish(append([]byte(nil), buf[:n]...))
			}
			if err != nil {
				break
			}
		}

		if err := s.cmd.Wait(); err != nil && s.ctx.Err() == nil {
			s.logger.Warn("msg", "Log producer exited with error",
				"component", "exec_source",
				"command", s.command,
				"error", err)
		}
	}()

	s.logger.Info("msg", "Exec source started",
		"component", "exec_source",
		"command", s.command,
		"pid", s.cmd.Process.Pid)
	return nil
}

func (s *ExecSource) Stop() {
	if s.cancel != nil {
		s.cancel()
	}
	s.wg.Wait()
	s.logger.Info("msg", "Exec source stopped", "component", "exec_source")
}

func (s *ExecSource) GetStats() SourceStats {
	lastChunk, _ := s.lastChunkTime.Load().(time.Time)

	return SourceStats{
		Type:          "exec",
		TotalChunks:   s.totalChunks.Load(),
		TotalBytes:    s.totalBytes.Load(),
		DroppedChunks: s.droppedChunks.Load(),
		StartTime:     s.startTime,
		LastChunkTime: lastChunk,
		Details: map[string]any{
			"command": s.command,
		},
	}
}

func (s *ExecSource) publish(chunk []byte) {
	s.totalChunks.Add(1)
	s.totalBytes.Add(uint64(len(chunk)))
	s.lastChunkTime.Store(time.Now())

	s.mu.Lock()
	defer s.mu.Unlock()
	for _, ch := range s.subscribers {
		// Dropping a chunk would corrupt the frame stream; block until the
		// subscriber drains, abandoning delivery only on shutdown.
		select {
		case ch <- chunk:
		case <-s.ctx.Done():
			s.droppedChunks.Add(1)
			return
		}
	}
}

func (s *ExecSource) closeSubscribers() {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, ch := range s.subscribers {
		close(ch)
	}
	s.subscribers = nil
}
