package notifier

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"apartment-watcher/config"
	"apartment-watcher/utils"
)

const okResponse = `{"ok":true,"result":{"message_id":1,"date":0,"chat":{"id":42,"type":"private"}}}`

func newTestClient(t *testing.T, serverURL string, retries int) *TelegramClient {
	t.Helper()
	cfg := &config.Config{
		TelegramAPIURL:   serverURL,
		TelegramToken:    "123:secret",
		NotifyMaxRetries: retries,
		NotifyRatePerSec: 1000,
	}
	c, err := NewTelegramClient(cfg, utils.NewLoggerWithOptions(utils.LoggerOptions{Writer: io.Discard}))
	require.NoError(t, err)
	c.retry.BaseDelay = 0
	return c
}

type capturedRequest struct {
	path   string
	fields map[string]string
}

func captureServer(t *testing.T) (*httptest.Server, func() capturedRequest) {
	t.Helper()
	var (
		mu  sync.Mutex
		got capturedRequest
	)
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		mu.Lock()
		defer mu.Unlock()
		if err := r.ParseMultipartForm(1 << 20); err != nil {
			w.WriteHeader(http.StatusBadRequest)
			return
		}
		got = capturedRequest{path: r.URL.Path, fields: map[string]string{}}
		for k, v := range r.MultipartForm.Value {
			got.fields[k] = v[0]
		}
		_, _ = io.WriteString(w, okResponse)
	}))
	t.Cleanup(srv.Close)
	return srv, func() capturedRequest {
		mu.Lock()
		defer mu.Unlock()
		return got
	}
}

func TestSendPostsMarkdownMessage(t *testing.T) {
	srv, last := captureServer(t)

	err := newTestClient(t, srv.URL, 1).Send(context.Background(), "42", Message{Text: "*hi*", DisablePreview: true})
	require.NoError(t, err)

	got := last()
	assert.Equal(t, "/bot123:secret/sendMessage", got.path)
	assert.Equal(t, "42", got.fields["chat_id"])
	assert.Equal(t, "*hi*", got.fields["text"])
	assert.Equal(t, "Markdown", got.fields["parse_mode"])
	assert.Contains(t, got.fields["link_preview_options"], `"is_disabled":true`)
}

func TestSendKeepsPreviewForListings(t *testing.T) {
	srv, last := captureServer(t)

	err := newTestClient(t, srv.URL, 1).Send(context.Background(), "42", Message{Text: "🏠"})
	require.NoError(t, err)
	assert.NotContains(t, last().fields["link_preview_options"], "is_disabled")
}

func TestSendRejectedRequestIsNotRetried(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		w.WriteHeader(http.StatusBadRequest)
		_, _ = io.WriteString(w, `{"ok":false,"error_code":400,"description":"Bad Request: chat not found"}`)
	}))
	defer srv.Close()

	err := newTestClient(t, srv.URL, 3).Send(context.Background(), "42", Message{Text: "x"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "chat not found")
	assert.Equal(t, int32(1), calls.Load())
}

func TestSendRetriesRateLimits(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if calls.Add(1) < 3 {
			w.WriteHeader(http.StatusTooManyRequests)
			_, _ = io.WriteString(w, `{"ok":false,"error_code":429,"description":"Too Many Requests","parameters":{"retry_after":1}}`)
			return
		}
		_, _ = io.WriteString(w, okResponse)
	}))
	defer srv.Close()

	err := newTestClient(t, srv.URL, 3).Send(context.Background(), "42", Message{Text: "x"})
	require.NoError(t, err)
	assert.Equal(t, int32(3), calls.Load())
}

func TestTransportErrorHidesToken(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(http.ResponseWriter, *http.Request) {}))
	serverURL := srv.URL
	srv.Close()

	err := newTestClient(t, serverURL, 1).Send(context.Background(), "42", Message{Text: "x"})
	require.Error(t, err)
	assert.False(t, strings.Contains(err.Error(), "secret"), "error leaks token: %v", err)
}
