package converter_test

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/italolelis/docx2xlsx/internal/converter"
	"github.com/italolelis/docx2xlsx/internal/telemetry"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestUploadDocx_SendsMultipartFile(t *testing.T) {
	var (
		gotName    string
		gotContent []byte
	)

	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, converter.UploadPath, r.URL.Path)

		file, header, err := r.FormFile(converter.UploadField)
		if !assert.NoError(t, err) {
			w.WriteHeader(http.StatusBadRequest)
			return
		}
		defer file.Close()

		gotName = header.Filename
		gotContent, _ = io.ReadAll(file)

		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(map[string]int{"added": 3, "total": 7})
	}))
	defer ts.Close()

	client := converter.NewClient(ts.URL+"/", time.Second)
	content := []byte("PK\x03\x04 fake docx")

	result, err := client.UploadDocx(context.Background(), "students.docx", bytes.NewReader(content), int64(len(content)))
	require.NoError(t, err)

	assert.Equal(t, "students.docx", gotName)
	assert.Equal(t, content, gotContent)
	assert.Equal(t, &converter.UploadResult{Added: 3, Total: 7}, result)
}

func TestUploadDocx_NonJSONAnswer(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = io.WriteString(w, "queued")
	}))
	defer ts.Close()

	result, err := converter.NewClient(ts.URL, time.Second).UploadDocx(context.Background(), "a.docx", strings.NewReader("x"), 1)
	require.NoError(t, err)
	assert.Equal(t, &converter.UploadResult{}, result)
}

func TestUploadDocx_Errors(t *testing.T) {
	tests := []struct {
		name       string
		statusCode int
		body       string
		wantMsg    string
	}{
		{"server error", http.StatusInternalServerError, "Internal Server Error", "Internal Server Error"},
		{"unprocessable", http.StatusUnprocessableEntity, `{"detail":"field required"}`, `{"detail":"field required"}`},
		{"empty body", http.StatusBadGateway, "", "502 Bad Gateway"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(tt.statusCode)
				_, _ = io.WriteString(w, tt.body)
			}))
			defer ts.Close()

			_, err := converter.NewClient(ts.URL, time.Second).UploadDocx(context.Background(), "a.docx", strings.NewReader("x"), 1)

			var netErr *converter.NetworkError
			require.ErrorAs(t, err, &netErr)
			assert.Equal(t, converter.OpUploadDocx, netErr.Operation)
			assert.Equal(t, tt.statusCode, netErr.StatusCode)
			assert.Equal(t, tt.wantMsg, netErr.APIMessage)
		})
	}
}

func TestUploadDocx_TransportError(t *testing.T) {
	ts := httptest.NewServer(http.NotFoundHandler())
	url := ts.URL
	ts.Close()

	_, err := converter.NewClient(url, time.Second).UploadDocx(context.Background(), "a.docx", strings.NewReader("x"), 1)

	var netErr *converter.NetworkError
	require.ErrorAs(t, err, &netErr)
	assert.Zero(t, netErr.StatusCode)
	assert.NotNil(t, netErr.Err)
}

func TestDownloadExcel(t *testing.T) {
	payload := []byte("PK\x03\x04 workbook")

	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodGet, r.Method)
		assert.Equal(t, converter.DownloadPath, r.URL.Path)

		w.Header().Set("Content-Type", "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet")
		_, _ = w.Write(payload)
	}))
	defer ts.Close()

	body, err := converter.NewClient(ts.URL, time.Second).DownloadExcel(context.Background())
	require.NoError(t, err)
	defer body.Close()

	got, err := io.ReadAll(body)
	require.NoError(t, err)
	assert.Equal(t, payload, got)
}

func TestDownloadExcel_NoData(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusBadRequest)
		_, _ = io.WriteString(w, `{"error": "No data uploaded"}`)
	}))
	defer ts.Close()

	body, err := converter.NewClient(ts.URL, time.Second).DownloadExcel(context.Background())
	assert.Nil(t, body)
	assert.True(t, converter.IsUnavailable(err))
}

func TestResetSession(t *testing.T) {
	calls := 0

	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls++
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, converter.ResetPath, r.URL.Path)

		_, _ = io.WriteString(w, `{"status": "session cleared"}`)
	}))
	defer ts.Close()

	require.NoError(t, converter.NewClient(ts.URL, time.Second).ResetSession(context.Background()))
	assert.Equal(t, 1, calls)
}

func TestResetSession_Error(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusServiceUnavailable)
	}))
	defer ts.Close()

	err := converter.NewClient(ts.URL, time.Second).ResetSession(context.Background())

	var netErr *converter.NetworkError
	require.ErrorAs(t, err, &netErr)
	assert.Equal(t, http.StatusServiceUnavailable, netErr.StatusCode)
}

type stubConverter struct {
	err error
}

func (s *stubConverter) UploadDocx(context.Context, string, io.Reader, int64) (*converter.UploadResult, error) {
	return &converter.UploadResult{Added: 1, Total: 1}, s.err
}

func (s *stubConverter) DownloadExcel(context.Context) (io.ReadCloser, error) {
	if s.err != nil {
		return nil, s.err
	}
	return io.NopCloser(strings.NewReader("xlsx")), nil
}

func (s *stubConverter) ResetSession(context.Context) error { return s.err }

func TestInstrumentedClient_PassesThrough(t *testing.T) {
	tel, err := telemetry.New(context.Background(), telemetry.Config{Enabled: false})
	require.NoError(t, err)

	ok := converter.NewInstrumentedClient(&stubConverter{}, tel)

	res, err := ok.UploadDocx(context.Background(), "a.docx", strings.NewReader("x"), 1)
	require.NoError(t, err)
	assert.Equal(t, 1, res.Added)

	body, err := ok.DownloadExcel(context.Background())
	require.NoError(t, err)
	body.Close()

	require.NoError(t, ok.ResetSession(context.Background()))

	boom := errors.New("boom")
	failing := converter.NewInstrumentedClient(&stubConverter{err: boom}, tel)

	res, err = failing.UploadDocx(context.Background(), "a.docx", strings.NewReader("x"), 1)
	assert.ErrorIs(t, err, boom)
	assert.Nil(t, res)

	_, err = failing.DownloadExcel(context.Background())
	assert.ErrorIs(t, err, boom)
	assert.ErrorIs(t, failing.ResetSession(context.Background()), boom)
}
