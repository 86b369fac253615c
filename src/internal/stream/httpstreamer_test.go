// FILE: src/internal/stream/httpstreamer_test.go
package stream

import (
	"bufio"
	"net/http"
	"testing"
	"time"

	"logtap/src/internal/config"
	"logtap/src/internal/core"
	"logtap/src/internal/format"

	"github.com/golang-jwt/jwt/v5"
	"github.com/lixenwraith/log"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/valyala/fasthttp"
)

func newTestLogger() *log.Logger {
	return log.NewLogger()
}

func newTestStreamer(t *testing.T, cfg config.HTTPConfig) *HTTPStreamer {
	t.Helper()
	formatter, err := format.New("text", nil, newTestLogger())
	require.NoError(t, err)
	return NewHTTPStreamer(cfg, formatter, newTestLogger())
}

func TestAuthorizeOpenWithoutSecret(t *testing.T) {
	h := newTestStreamer(t, config.HTTPConfig{})

	ctx := &fasthttp.RequestCtx{}
	assert.NoError(t, h.authorize(ctx))
}

func TestAuthorizeRejectsMissingToken(t *testing.T) {
	h := newTestStreamer(t, config.HTTPConfig{AuthSecret: "secret"})

	ctx := &fasthttp.RequestCtx{}
	assert.Error(t, h.authorize(ctx))

	ctx.Request.Header.Set("Authorization", "Bearer not-a-token")
	assert.Error(t, h.authorize(ctx))
}

func TestAuthorizeAcceptsValidToken(t *testing.T) {
	h := newTestStreamer(t, config.HTTPConfig{AuthSecret: "secret"})

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"sub": "reader",
		"exp": time.Now().Add(time.Hour).Unix(),
	})
	signed, err := token.SignedString([]byte("secret"))
	require.NoError(t, err)

	ctx := &fasthttp.RequestCtx{}
	ctx.Request.Header.Set("Authorization", "Bearer "+signed)
	assert.NoError(t, h.authorize(ctx))
}

func TestAuthorizeRejectsWrongSecret(t *testing.T) {
	h := newTestStreamer(t, config.HTTPConfig{AuthSecret: "secret"})

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"exp": time.Now().Add(time.Hour).Unix(),
	})
	signed, err := token.SignedString([]byte("other"))
	require.NoError(t, err)

	ctx := &fasthttp.RequestCtx{}
	ctx.Request.Header.Set("Authorization", "Bearer "+signed)
	assert.Error(t, h.authorize(ctx))
}

func TestPublishFansOutToClients(t *testing.T) {
	h := newTestStreamer(t, config.HTTPConfig{BufferSize: 4})

	id1, ch1 := h.addClient()
	id2, ch2 := h.addClient()
	defer h.removeClient(id1)
	defer h.removeClient(id2)

	record := core.LogRecord{
		Pid:      42,
		Tid:      43,
		Time:     time.Now(),
		Priority: core.PriorityInfo,
		Tag:      "kernel",
		Message:  "hello",
	}
	h.Publish(record)

	got1 := <-ch1
	got2 := <-ch2
	assert.Equal(t, "hello", got1.Message)
	assert.Equal(t, "hello", got2.Message)
	assert.Equal(t, uint64(1), h.totalPublished.Load())
}

func TestStreamEndpointDeliversRecordsAndStops(t *testing.T) {
	h := newTestStreamer(t, config.HTTPConfig{
		Host:       "127.0.0.1",
		Port:       17654,
		BufferSize: 16,
	})
	require.NoError(t, h.Start())

	resp, err := http.Get("http://127.0.0.1:17654/stream")
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)

	// The client is registered during request handling, before the body
	// writer starts.
	require.Eventually(t, func() bool {
		h.clientMu.RLock()
		defer h.clientMu.RUnlock()
		return len(h.clients) == 1
	}, 2*time.Second, 10*time.Millisecond)

	h.Publish(core.LogRecord{
		Time:     time.Now(),
		Priority: core.PriorityInfo,
		Tag:      "kernel",
		Message:  "streamed",
	})

	line, err := bufio.NewReader(resp.Body).ReadString('\n')
	require.NoError(t, err)
	assert.Contains(t, line, "kernel: streamed")

	// Stop must wait for the connected client's writer and still return.
	stopped := make(chan struct{})
	go func() {
		h.Stop()
		close(stopped)
	}()
	select {
	case <-stopped:
	case <-time.After(5 * time.Second):
		t.Fatal("Stop did not return while a client was connected")
	}
}

func TestPublishDropsWhenClientBufferFull(t *testing.T) {
	h := newTestStreamer(t, config.HTTPConfig{BufferSize: 1})

	id, ch := h.addClient()
	defer h.removeClient(id)

	record := core.LogRecord{Priority: core.PriorityDebug, Tag: "t", Message: "m"}
	h.Publish(record)
	h.Publish(record)

	assert.Equal(t, uint64(1), h.totalDropped.Load())
	assert.Len(t, ch, 1)
}
