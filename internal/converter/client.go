package converter

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"strings"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/italolelis/docx2xlsx/internal/logctx"
	"github.com/italolelis/docx2xlsx/internal/progress"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
)

// Backend endpoints.
const (
	UploadPath   = "/upload-docx"
	DownloadPath = "/download-excel"
	ResetPath    = "/reset-session"

	// UploadField is the multipart field carrying the document.
	UploadField = "file"
)

// Operation names used in errors and telemetry.
const (
	OpUploadDocx    = "upload_docx"
	OpDownloadExcel = "download_excel"
	OpResetSession  = "reset_session"
)

const maxErrorBody = 4 * 1024

// Converter is the conversion backend as seen by the form.
type Converter interface {
	UploadDocx(ctx context.Context, name string, content io.Reader, size int64) (*UploadResult, error)
	DownloadExcel(ctx context.Context) (io.ReadCloser, error)
	ResetSession(ctx context.Context) error
}

// UploadResult is the backend's answer to an upload. Both counts are zero when
// the backend does not report them.
type UploadResult struct {
	Added int `json:"added"`
	Total int `json:"total"`
}

type Client struct {
	BaseURL    string
	httpClient *http.Client
}

// Ensure Client implements Converter
var _ Converter = (*Client)(nil)

// NewClient returns a client for the backend at baseURL. A zero timeout means
// no timeout beyond what the transport imposes.
func NewClient(baseURL string, timeout time.Duration) *Client {
	return &Client{
		BaseURL: strings.TrimRight(baseURL, "/"),
		httpClient: &http.Client{
			Timeout:   timeout,
			Transport: otelhttp.NewTransport(http.DefaultTransport),
		},
	}
}

// UploadDocx posts one document as multipart/form-data.
func (c *Client) UploadDocx(ctx context.Context, name string, content io.Reader, size int64) (*UploadResult, error) {
	logger := logctx.LoggerFromContext(ctx).With("method", OpUploadDocx, "file_name", name)

	pr, pw := io.Pipe()
	mw := multipart.NewWriter(pw)

	go func() {
		part, err := mw.CreateFormFile(UploadField, name)
		if err != nil {
			pw.CloseWithError(err)
			return
		}

		body := progress.NewReader(content, size, 256*1024, func(sent, total int64) {
			logger.Debug("upload progress",
				"sent", humanize.Bytes(uint64(sent)),
				"total", humanize.Bytes(uint64(total)))
		})

		if _, err := io.Copy(part, body); err != nil {
			pw.CloseWithError(err)
			return
		}

		pw.CloseWithError(mw.Close())
	}()

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.BaseURL+UploadPath, pr)
	if err != nil {
		pr.Close()
		return nil, fmt.Errorf("failed to create upload request: %w", err)
	}

	req.Header.Set("Content-Type", mw.FormDataContentType())

	logger.Debug("sending document", "size", humanize.Bytes(uint64(size)))

	resp, err := c.httpClient.Do(req)
	if err != nil {
		pr.CloseWithError(err)
		logger.Error("HTTP error", "err", err)

		return nil, &NetworkError{Operation: OpUploadDocx, APIMessage: err.Error(), Err: err}
	}
	defer resp.Body.Close()

	if err := checkStatus(OpUploadDocx, resp); err != nil {
		logger.Error("non-2xx response", "status", resp.StatusCode, "err", err)

		return nil, err
	}

	result := &UploadResult{}
	if strings.HasPrefix(resp.Header.Get("Content-Type"), "application/json") {
		if err := json.NewDecoder(resp.Body).Decode(result); err != nil {
			logger.Warn("could not decode upload response", "err", err)
		}
	}

	logger.Debug("document accepted", "added", result.Added, "total", result.Total)

	return result, nil
}

// DownloadExcel fetches the generated spreadsheet. The caller closes the body.
func (c *Client) DownloadExcel(ctx context.Context) (io.ReadCloser, error) {
	logger := logctx.LoggerFromContext(ctx).With("method", OpDownloadExcel)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.BaseURL+DownloadPath, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create download request: %w", err)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		logger.Error("HTTP error", "err", err)

		return nil, &NetworkError{Operation: OpDownloadExcel, APIMessage: err.Error(), Err: err}
	}

	if err := checkStatus(OpDownloadExcel, resp); err != nil {
		resp.Body.Close()
		logger.Warn("spreadsheet not available", "status", resp.StatusCode)

		return nil, err
	}

	return resp.Body, nil
}

// ResetSession clears the records accumulated by the backend.
func (c *Client) ResetSession(ctx context.Context) error {
	logger := logctx.LoggerFromContext(ctx).With("method", OpResetSession)

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.BaseURL+ResetPath, nil)
	if err != nil {
		return fmt.Errorf("failed to create reset request: %w", err)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		logger.Error("HTTP error", "err", err)

		return &NetworkError{Operation: OpResetSession, APIMessage: err.Error(), Err: err}
	}
	defer resp.Body.Close()

	if err := checkStatus(OpResetSession, resp); err != nil {
		logger.Error("non-2xx response", "status", resp.StatusCode)

		return err
	}

	_, _ = io.Copy(io.Discard, resp.Body)

	return nil
}

func checkStatus(op string, resp *http.Response) error {
	if resp.StatusCode >= 200 && resp.StatusCode < 300 {
		return nil
	}

	b, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))

	msg := strings.TrimSpace(string(b))
	if msg == "" {
		msg = resp.Status
	}

	return &NetworkError{Operation: op, StatusCode: resp.StatusCode, APIMessage: msg}
}
