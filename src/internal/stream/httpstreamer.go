// FILE: src/internal/stream/httpstreamer.go
package stream

import (
	"bufio"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"logtap/src/internal/config"
	"logtap/src/internal/core"
	"logtap/src/internal/format"

	"github.com/golang-jwt/jwt/v5"
	"github.com/lixenwraith/log"
	"github.com/valyala/fasthttp"
	"golang.org/x/time/rate"
)

// HTTPStreamer serves decoded records over HTTP. Each client connected
// to the stream endpoint receives newline-delimited formatted records;
// the status endpoint reports server statistics as JSON.
type HTTPStreamer struct {
	config    config.HTTPConfig
	formatter format.Formatter
	server    *fasthttp.Server
	logger    *log.Logger

	clientMu sync.RWMutex
	clients  map[uint64]chan core.LogRecord
	nextID   atomic.Uint64

	activeClients  atomic.Int32
	totalPublished atomic.Uint64
	totalDropped   atomic.Uint64
	startTime      time.Time

	done chan struct{}
	wg   sync.WaitGroup

	streamPath string
	statusPath string
}

func NewHTTPStreamer(cfg config.HTTPConfig, formatter format.Formatter, logger *log.Logger) *HTTPStreamer {
	streamPath := cfg.StreamPath
	if streamPath == "" {
		streamPath = "/stream"
	}
	statusPath := cfg.StatusPath
	if statusPath == "" {
		statusPath = "/status"
	}

	return &HTTPStreamer{
		config:     cfg,
		formatter:  formatter,
		logger:     logger,
		clients:    make(map[uint64]chan core.LogRecord),
		startTime:  time.Now(),
		done:       make(chan struct{}),
		streamPath: streamPath,
		statusPath: statusPath,
	}
}

func (h *HTTPStreamer) Start() error {
	h.server = &fasthttp.Server{
		Handler:           h.requestHandler,
		DisableKeepalive:  false,
		StreamRequestBody: true,
		Logger:            nil,
	}

	addr := fmt.Sprintf("%s:%d", h.config.Host, h.config.Port)

	// Run server in separate goroutine to avoid blocking
	errChan := make(chan error, 1)
	go func() {
		err := h.server.ListenAndServe(addr)
		if err != nil {
			errChan <- err
		}
	}()

	// Check if server started successfully
	select {
	case err := <-errChan:
		return err
	case <-time.After(100 * time.Millisecond):
		h.logger.Info("msg", "HTTP streamer started",
			"component", "http_streamer",
			"address", addr,
			"stream_path", h.streamPath,
			"status_path", h.statusPath)
		return nil
	}
}

func (h *HTTPStreamer) Stop() {
	close(h.done)

	if h.server != nil {
		ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		defer cancel()
		h.server.ShutdownWithContext(ctx)
	}

	h.wg.Wait()
}

// Publish fans a record out to every connected client. Clients that
// cannot keep up have records dropped rather than stalling the pipeline.
func (h *HTTPStreamer) Publish(record core.LogRecord) {
	h.totalPublished.Add(1)

	h.clientMu.RLock()
	defer h.clientMu.RUnlock()

	for _, ch := range h.clients {
		select {
		case ch <- record:
		default:
			h.totalDropped.Add(1)
		}
	}
}

func (h *HTTPStreamer) addClient() (uint64, chan core.LogRecord) {
	bufferSize := h.config.BufferSize
	if bufferSize <= 0 {
		bufferSize = 1000
	}

	id := h.nextID.Add(1)
	ch := make(chan core.LogRecord, bufferSize)

	h.clientMu.Lock()
	h.clients[id] = ch
	h.clientMu.Unlock()

	return id, ch
}

func (h *HTTPStreamer) removeClient(id uint64) {
	h.clientMu.Lock()
	delete(h.clients, id)
	h.clientMu.Unlock()
}

func (h *HTTPStreamer) requestHandler(ctx *fasthttp.RequestCtx) {
	path := string(ctx.Path())

	switch path {
	case h.streamPath:
		h.handleStream(ctx)
	case h.statusPath:
		h.handleStatus(ctx)
	default:
		ctx.SetStatusCode(fasthttp.StatusNotFound)
		ctx.SetContentType("application/json")
		json.NewEncoder(ctx).Encode(map[string]any{
			"error": "Not Found",
			"message": fmt.Sprintf("Available endpoints: %s (record stream), %s (status)",
				h.streamPath, h.statusPath),
		})
	}
}

// authorize validates the bearer token when an auth secret is
// configured. With no secret the stream is open.
func (h *HTTPStreamer) authorize(ctx *fasthttp.RequestCtx) error {
	if h.config.AuthSecret == "" {
		return nil
	}

	header := string(ctx.Request.Header.Peek("Authorization"))
	const prefix = "Bearer "
	if len(header) <= len(prefix) || header[:len(prefix)] != prefix {
		return errors.New("missing bearer token")
	}

	token, err := jwt.Parse(header[len(prefix):], func(t *jwt.Token) (any, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", t.Header["alg"])
		}
		return []byte(h.config.AuthSecret), nil
	})
	if err != nil {
		return err
	}
	if !token.Valid {
		return errors.New("invalid token")
	}
	return nil
}

func (h *HTTPStreamer) handleStream(ctx *fasthttp.RequestCtx) {
	if err := h.authorize(ctx); err != nil {
		h.logger.Warn("msg", "Stream client rejected",
			"component", "http_streamer",
			"remote_addr", ctx.RemoteAddr().String(),
			"error", err)
		ctx.SetStatusCode(fasthttp.StatusUnauthorized)
		ctx.SetContentType("application/json")
		json.NewEncoder(ctx).Encode(map[string]any{
			"error": "Unauthorized",
		})
		return
	}

	ctx.Response.Header.Set("Content-Type", "text/plain; charset=utf-8")
	ctx.Response.Header.Set("Cache-Control", "no-cache")
	ctx.Response.Header.Set("Connection", "keep-alive")
	ctx.Response.Header.Set("X-Accel-Buffering", "no")

	clientID, clientChan := h.addClient()

	var limiter *rate.Limiter
	if h.config.RecordsPerSecond > 0 {
		burst := int(h.config.RateBurst)
		if burst <= 0 {
			burst = int(h.config.RecordsPerSecond)
		}
		limiter = rate.NewLimiter(rate.Limit(h.config.RecordsPerSecond), burst)
	}

	remoteAddr := ctx.RemoteAddr().String()

	// Registered before the body writer is handed off; an Add racing a
	// concurrent Stop's Wait would let Stop return with the writer still
	// running.
	h.wg.Add(1)

	streamFunc := func(w *bufio.Writer) {
		count := h.activeClients.Add(1)
		h.logger.Debug("msg", "Stream client connected",
			"component", "http_streamer",
			"remote_addr", remoteAddr,
			"active_clients", count)

		defer func() {
			h.removeClient(clientID)
			count := h.activeClients.Add(-1)
			h.logger.Debug("msg", "Stream client disconnected",
				"component", "http_streamer",
				"remote_addr", remoteAddr,
				"active_clients", count)
			h.wg.Done()
		}()

		for {
			select {
			case record := <-clientChan:
				if limiter != nil && !limiter.Allow() {
					h.totalDropped.Add(1)
					continue
				}

				formatted, err := h.formatter.Format(record)
				if err != nil {
					continue
				}
				if _, err := w.Write(formatted); err != nil {
					return
				}
				if err := w.Flush(); err != nil {
					return
				}

			case <-h.done:
				return
			}
		}
	}

	ctx.SetBodyStreamWriter(streamFunc)
}

func (h *HTTPStreamer) handleStatus(ctx *fasthttp.RequestCtx) {
	ctx.SetContentType("application/json")

	status := map[string]any{
		"server": map[string]any{
			"host":           h.config.Host,
			"port":           h.config.Port,
			"active_clients": h.activeClients.Load(),
			"buffer_size":    h.config.BufferSize,
			"uptime_seconds": int(time.Since(h.startTime).Seconds()),
		},
		"stream": map[string]any{
			"total_published": h.totalPublished.Load(),
			"total_dropped":   h.totalDropped.Load(),
		},
		"endpoints": map[string]string{
			"stream": h.streamPath,
			"status": h.statusPath,
		},
		"features": map[string]any{
			"auth": map[string]bool{
				"enabled": h.config.AuthSecret != "",
			},
			"rate_limit": map[string]any{
				"enabled":            h.config.RecordsPerSecond > 0,
				"records_per_second": h.config.RecordsPerSecond,
			},
		},
	}

	data, _ := json.Marshal(status)
	ctx.SetBody(data)
}

// GetActiveConnections returns the current number of active clients.
func (h *HTTPStreamer) GetActiveConnections() int32 {
	return h.activeClients.Load()
}
