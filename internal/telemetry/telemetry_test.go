package telemetry

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/italolelis/docx2xlsx/internal/logctx"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newEnabled(t *testing.T) *Telemetry {
	t.Helper()

	tel, err := New(context.Background(), Config{Enabled: true, ServiceName: "docx2xlsx-test"})
	require.NoError(t, err)

	t.Cleanup(func() { _ = tel.Shutdown(context.Background()) })

	return tel
}

func scrape(t *testing.T, tel *Telemetry) string {
	t.Helper()

	rec := httptest.NewRecorder()
	tel.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	require.Equal(t, http.StatusOK, rec.Code)

	return rec.Body.String()
}

func TestNew_Disabled(t *testing.T) {
	tel, err := New(context.Background(), Config{Enabled: false})
	require.NoError(t, err)

	called := false
	err = tel.InstrumentUpload(context.Background(), func(ctx context.Context) error {
		called = true
		return nil
	})
	require.NoError(t, err)
	assert.True(t, called)

	rec := httptest.NewRecorder()
	tel.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestInstrumentClientOperation_RecordsMetrics(t *testing.T) {
	tel := newEnabled(t)
	ctx := context.Background()

	require.NoError(t, tel.InstrumentClientOperation(ctx, "converter", "upload_docx", func(context.Context) error { return nil }))

	boom := errors.New("boom")
	err := tel.InstrumentClientOperation(ctx, "converter", "download_excel", func(context.Context) error { return boom })
	assert.ErrorIs(t, err, boom)

	out := scrape(t, tel)
	assert.Contains(t, out, "client_operations_total")
	assert.Contains(t, out, `operation="upload_docx"`)
	assert.Contains(t, out, "client_errors_total")
}

func TestInstrumentUpload_RecordsOutcome(t *testing.T) {
	tel := newEnabled(t)

	_ = tel.InstrumentUpload(context.Background(), func(context.Context) error { return errors.New("HTTP 500") })
	_ = tel.InstrumentUpload(context.Background(), func(context.Context) error { return nil })

	out := scrape(t, tel)
	assert.Contains(t, out, `uploads_total{`)
	assert.Contains(t, out, `status="error"`)
	assert.Contains(t, out, `status="success"`)
}

func TestHTTPMiddleware_RecordsRoute(t *testing.T) {
	tel := newEnabled(t)

	h := NewHTTPMiddleware(tel).Middleware(func(*http.Request) string { return "/files" })(
		http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusSeeOther)
		}),
	)

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/files", nil))
	assert.Equal(t, http.StatusSeeOther, rec.Code)

	out := scrape(t, tel)
	assert.Contains(t, out, `path="/files"`)
	assert.Contains(t, out, `status="3xx"`)
}

func TestRequestID(t *testing.T) {
	var seen string
	h := RequestID(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		seen = GetRequestID(r.Context())
	}))

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))
	assert.NotEmpty(t, seen)
	assert.Equal(t, seen, rec.Header().Get(RequestIDHeader))

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set(RequestIDHeader, "upstream-id")
	rec = httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	assert.Equal(t, "upstream-id", seen)
}

func TestHTTPLogging_LevelByStatus(t *testing.T) {
	tests := []struct {
		status int
		level  string
	}{
		{http.StatusOK, "INFO"},
		{http.StatusNotFound, "WARN"},
		{http.StatusBadGateway, "ERROR"},
	}

	for _, tt := range tests {
		t.Run(http.StatusText(tt.status), func(t *testing.T) {
			var buf bytes.Buffer
			logger := slog.New(slog.NewJSONHandler(&buf, nil))

			h := HTTPLogging(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(tt.status)
				_, _ = io.WriteString(w, "body")
			}))

			req := httptest.NewRequest(http.MethodGet, "/download", nil)
			req = req.WithContext(logctx.WithLogger(req.Context(), logger))
			h.ServeHTTP(httptest.NewRecorder(), req)

			var entry map[string]any
			require.NoError(t, json.Unmarshal(buf.Bytes(), &entry))
			assert.Equal(t, tt.level, entry["level"])
			assert.EqualValues(t, tt.status, entry["status"])
			assert.Equal(t, "/download", entry["path"])
		})
	}
}

func TestGetStatusClass(t *testing.T) {
	tests := map[int]string{
		200: "2xx",
		204: "2xx",
		303: "3xx",
		400: "4xx",
		499: "4xx",
		500: "5xx",
		100: "unknown",
	}

	for code, want := range tests {
		assert.Equal(t, want, getStatusClass(code), "code %d", code)
	}
}

func TestResponseWriter_FirstHeaderWins(t *testing.T) {
	rec := httptest.NewRecorder()
	rw := wrapResponseWriter(rec)

	rw.WriteHeader(http.StatusAccepted)
	rw.WriteHeader(http.StatusInternalServerError)
	_, _ = rw.Write([]byte(strings.Repeat("x", 10)))

	assert.Equal(t, http.StatusAccepted, rw.status)
	assert.Equal(t, int64(10), rw.bytesWritten)
	assert.Same(t, rw, wrapResponseWriter(rw))
}
