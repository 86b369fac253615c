// FILE: src/internal/source/tcp.go
package source

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"logtap/src/internal/config"

	"github.com/lixenwraith/log"
	"github.com/lixenwraith/log/compat"
	"github.com/panjf2000/gnet/v2"
)

// Receives a forwarded byte stream over a TCP connection. The first client
// to connect owns the stream; its connection closing ends the stream.
// Additional clients are turned away.
type TCPSource struct {
	host string
	port int64

	subscribers []chan []byte
	mu          sync.Mutex
	done        chan struct{}
	closeOnce   sync.Once
	server      *tcpStreamServer
	engine      *gnet.Engine
	engineMu    sync.Mutex
	wg          sync.WaitGroup
	logger      *log.Logger

	// Statistics
	totalChunks   atomic.Uint64
	totalBytes    atomic.Uint64
	droppedChunks atomic.Uint64
	rejectedConns atomic.Uint64
	startTime     time.Time
	lastChunkTime atomic.Value // time.Time
}

func NewTCPSource(opts *config.TCPSourceOptions, logger *log.Logger) (*TCPSource, error) {
	if opts == nil {
		return nil, fmt.Errorf("tcp source requires options")
	}
	host := opts.Host
	if host == "" {
		host = "127.0.0.1"
	}
	if opts.Port < 1 || opts.Port > 65535 {
		return nil, fmt.Errorf("tcp source requires a valid port")
	}

	s := &TCPSource{
		host:      host,
		port:      opts.Port,
		done:      make(chan struct{}),
		logger:    logger,
		startTime: time.Now(),
	}
	s.lastChunkTime.Store(time.Time{})
	return s, nil
}

func (s *TCPSource) Subscribe() <-chan []byte {
	s.mu.Lock()
	defer s.mu.Unlock()

	ch := make(chan []byte, 1000)
	s.subscribers = append(s.subscribers, ch)
	return ch
}

func (s *TCPSource) Start() error {
	s.server = &tcpStreamServer{source: s}

	addr := fmt.Sprintf("tcp://%s:%d", s.host, s.port)
	gnetLogger := compat.NewGnetAdapter(s.logger)

	errChan := make(chan error, 1)
	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		s.logger.Info("msg", "TCP source server starting",
			"component", "tcp_source",
			"port", s.port)

		// Single event loop keeps chunk delivery strictly ordered.
		err := gnet.Run(s.server, addr,
			gnet.WithLogger(gnetLogger),
			gnet.WithMulticore(false),
		)
		if err != nil {
			s.logger.Error("msg", "TCP source server failed",
				"component", "tcp_source",
				"port", s.port,
				"error", err)
		}
		errChan <- err
	}()

	// Wait briefly for server to start or fail
	select {
	case err := <-errChan:
		s.endStream()
		s.wg.Wait()
		return err
	case <-time.After(100 * time.Millisecond):
		s.logger.Info("msg", "TCP source started", "port", s.port)
		return nil
	}
}

func (s *TCPSource) Stop() {
	s.logger.Info("msg", "Stopping TCP source")

	s.engineMu.Lock()
	engine := s.engine
	s.engineMu.Unlock()

	if engine != nil {
		ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		defer cancel()
		(*engine).Stop(ctx)
	}

	s.endStream()
	s.wg.Wait()

	s.logger.Info("msg", "TCP source stopped")
}

func (s *TCPSource) GetStats() SourceStats {
	lastChunk, _ := s.lastChunkTime.Load().(time.Time)

	return SourceStats{
		Type:          "tcp",
		TotalChunks:   s.totalChunks.Load(),
		TotalBytes:    s.totalBytes.Load(),
		DroppedChunks: s.droppedChunks.Load(),
		StartTime:     s.startTime,
		LastChunkTime: lastChunk,
		Details: map[string]any{
			"port":                 s.port,
			"rejected_connections": s.rejectedConns.Load(),
		},
	}
}

func (s *TCPSource) publish(chunk []byte) {
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

// endStream closes subscriber channels exactly once.
func (s *TCPSource) endStream() {
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

// Handles gnet events
type tcpStreamServer struct {
	gnet.BuiltinEventEngine
	source *TCPSource

	mu     sync.Mutex
	stream gnet.Conn
}

func (t *tcpStreamServer) OnBoot(eng gnet.Engine) gnet.Action {
	t.source.engineMu.Lock()
	t.source.engine = &eng
	t.source.engineMu.Unlock()

	t.source.logger.Debug("msg", "TCP source server booted",
		"component", "tcp_source",
		"port", t.source.port)
	return gnet.None
}

func (t *tcpStreamServer) OnOpen(c gnet.Conn) (out []byte, action gnet.Action) {
	t.mu.Lock()
	defer t.mu.Unlock()

	if t.stream != nil {
		t.source.rejectedConns.Add(1)
		t.source.logger.Warn("msg", "Rejecting TCP connection - stream already owned",
			"component", "tcp_source",
			"remote_addr", c.RemoteAddr().String())
		return nil, gnet.Close
	}

	t.stream = c
	t.source.logger.Info("msg", "TCP stream connected",
		"component", "tcp_source",
		"remote_addr", c.RemoteAddr().String())
	return nil, gnet.None
}

func (t *tcpStreamServer) OnTraffic(c gnet.Conn) gnet.Action {
	t.mu.Lock()
	owned := t.stream == c
	t.mu.Unlock()
	if !owned {
		// Bytes from a rejected connection must never reach the stream.
		return gnet.Close
	}

	data, err := c.Next(-1)
	if err != nil {
		t.source.logger.Error("msg", "Error reading from connection",
			"component", "tcp_source",
			"error", err)
		return gnet.Close
	}

	t.source.publish(append([]byte(nil), data...))
	return gnet.None
}

func (t *tcpStreamServer) OnClose(c gnet.Conn, err error) gnet.Action {
	t.mu.Lock()
	owned := t.stream == c
	t.mu.Unlock()

	if owned {
		t.source.logger.Info("msg", "TCP stream closed, ending byte stream",
			"component", "tcp_source",
			"error", err)
		t.source.endStream()
	}
	return gnet.None
}
