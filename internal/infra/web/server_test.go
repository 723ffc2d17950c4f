//go:build !integration

package web

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"telegram-random-image/internal/infra/logging"
)

type stubCounter struct {
	n   int
	err error
}

func (s stubCounter) Count(context.Context) (int, error) { return s.n, s.err }

type stubBot bool

func (b stubBot) Running() bool { return bool(b) }

func getHealth(t *testing.T, h http.Handler) (int, map[string]any) {
	t.Helper()
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/health", nil))
	require.Equal(t, "application/json", rec.Header().Get("Content-Type"))
	var body map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	return rec.Code, body
}

func TestHealth_Healthy(t *testing.T) {
	srv := NewServer(stubCounter{n: 7}, stubBot(true), logging.Nop())

	code, body := getHealth(t, srv.Router())

	require.Equal(t, http.StatusOK, code)
	require.Equal(t, map[string]any{"status": "healthy", "bot": "running", "images_count": float64(7)}, body)
}

func TestHealth_BotStopped(t *testing.T) {
	srv := NewServer(stubCounter{n: 2}, stubBot(false), logging.Nop())

	code, body := getHealth(t, srv.Router())

	require.Equal(t, http.StatusOK, code)
	require.Equal(t, "stopped", body["bot"])
}

func TestHealth_StoreFailure(t *testing.T) {
	srv := NewServer(stubCounter{err: errors.New("database is locked")}, stubBot(true), logging.Nop())

	code, body := getHealth(t, srv.Router())

	require.Equal(t, http.StatusServiceUnavailable, code)
	require.Equal(t, "unhealthy", body["status"])
	require.Equal(t, float64(0), body["images_count"])
}

func TestRouter_MetricsAndUnknown(t *testing.T) {
	h := NewServer(stubCounter{}, stubBot(true), logging.Nop()).Router()

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	require.Equal(t, http.StatusOK, rec.Code)

	rec = httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/nope", nil))
	require.Equal(t, http.StatusNotFound, rec.Code)

	rec = httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/health", nil))
	require.Equal(t, http.StatusMethodNotAllowed, rec.Code)
}

func TestServe_ShutsDownOnCancel(t *testing.T) {
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)

	srv := NewServer(stubCounter{n: 1}, stubBot(true), logging.Nop())
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- srv.serve(ctx, ln) }()

	var resp *http.Response
	require.Eventually(t, func() bool {
		resp, err = http.Get("http://" + ln.Addr().String() + "/health")
		return err == nil
	}, 2*time.Second, 20*time.Millisecond)
	body, _ := io.ReadAll(resp.Body)
	_ = resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)
	require.Contains(t, string(body), `"images_count":1`)

	cancel()
	select {
	case err := <-done:
		require.NoError(t, err)
	case <-time.After(3 * time.Second):
		t.Fatal("server did not stop")
	}
}

func TestRun_BadAddress(t *testing.T) {
	srv := NewServer(stubCounter{}, stubBot(true), logging.Nop())
	err := srv.Run(context.Background(), "not-an-addr")
	require.Error(t, err)
}
