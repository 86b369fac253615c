// FILE: src/internal/source/stdin.go
package source

import (
	"fmt"
	"os"
	"sync"
	"sync/atomic"
	"time"

	"logtap/src/internal/config"

	"github.com/lixenwraith/log"
	"golang.org/x/term"
)

// Streams the raw byte stream from standard input
type StdinSource struct {
	chunkSize int64

	subscribers []chan []byte
	mu          sync.Mutex
	done        chan struct{}
	closeOnce   sync.Once
	wg          sync.WaitGroup
	logger      *log.Logger

	// Statistics
	totalChunks   atomic.Uint64
	totalBytes    atomic.Uint64
	droppedChunks atomic.Uint64
	startTime     time.Time
	lastChunkTime atomic.Value // time.Time
}

func NewStdinSource(opts *config.StdinSourceOptions, logger *log.Logger) (*StdinSource, error) {
	chunkSize := int64(defaultChunkSize)
	if opts != nil && opts.ChunkSize > 0 {
		chunkSize = opts.ChunkSize
	}

	s := &StdinSource{
		chunkSize: chunkSize,
		done:      make(chan struct{}),
		logger:    logger,
		startTime: time.Now(),
	}
	s.lastChunkTime.Store(time.Time{})
	return s, nil
}

func (s *StdinSource) Subscribe() <-chan []byte {
	s.mu.Lock()
	defer s.mu.Unlock()

	ch := make(chan []byte, 1000)
	s.subscribers = append(s.subscribers, ch)
	return ch
}

func (s *StdinSource) Start() error {
	// A binary frame stream never comes from an interactive terminal;
	// reading one would just freeze waiting for keystrokes.
	if term.IsTerminal(int(os.Stdin.Fd())) {
		return fmt.Errorf("stdin is a terminal; pipe a binary log stream instead")
	}

	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		defer s.endStream()

		buf := make([]byte, s.chunkSize)
		for {
			select {
			case <-s.done:
				return
			default:
			}

			n, err := os.Stdin.Read(buf)
			if n > 0 {
				s.publish(append([]byte(nil), buf[:n]...))
			}
			if err != nil {
				return
			}
		}
	}()

	s.logger.Info("msg", "Stdin source started", "component", "stdin_source")
	return nil
}

func (s *StdinSource) Stop() {
	// The read loop may stay blocked in os.Stdin.Read indefinitely, so the
	// subscriber channels are closed here. Downstream sees end of stream
	// without waiting on a read that may never return.
	s.endStream()
	s.logger.Info("msg", "Stdin source stopped", "component", "stdin_source")
}

func (s *StdinSource) GetStats() SourceStats {
	lastChunk, _ := s.lastChunkTime.Load().(time.Time)

	return SourceStats{
		Type:          "stdin",
		TotalChunks:   s.totalChunks.Load(),
		TotalBytes:    s.totalBytes.Load(),
		DroppedChunks: s.droppedChunks.Load(),
		StartTime:     s.startTime,
		LastChunkTime: lastChunk,
		Details:       map[string]any{},
	}
}

func (s *StdinSource) publish(chunk []byte) {
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
		case <-s.done:
			s.droppedChunks.Add(1)
			return
		}
	}
}

// endStream signals shutdown and closes subscriber channels exactly once,
// whether the read loop ends first or Stop does.
func (s *StdinSource) endStream() {
	s.closeOnce.Do(func() {
		close(s.done)

		s.mu.Lock()
		defer s.mu.Unlock()
		for _, ch := range s.subscribers {
			close(ch)
		}
		s.subscribers = nil
	})
}
