package converter

import (
	"context"
	"io"

	"github.com/italolelis/docx2xlsx/internal/telemetry"
)

const clientType = "converter"

// InstrumentedClient wraps a Converter with telemetry.
type InstrumentedClient struct {
	client    Converter
	telemetry *telemetry.Telemetry
}

var _ Converter = (*InstrumentedClient)(nil)

// NewInstrumentedClient creates a new instrumented converter client.
func NewInstrumentedClient(client Converter, tel *telemetry.Telemetry) *InstrumentedClient {
	return &InstrumentedClient{
		client:    client,
		telemetry: tel,
	}
}

// UploadDocx uploads a document with telemetry.
func (c *InstrumentedClient) UploadDocx(ctx context.Context, name string, content io.Reader, size int64) (*UploadResult, error) {
	var result *UploadResult

	var err error

	instrumentedErr := c.telemetry.InstrumentClientOperation(ctx, clientType, OpUploadDocx, func(ctx context.Context) error {
		result, err = c.client.UploadDocx(ctx, name, content, size)

		return err
	})

	if instrumentedErr != nil {
		return nil, instrumentedErr
	}

	return result, nil
}

// DownloadExcel fetches the spreadsheet with telemetry.
func (c *InstrumentedClient) DownloadExcel(ctx context.Context) (io.ReadCloser, error) {
	var result io.ReadCloser

	var err error

	instrumentedErr := c.telemetry.InstrumentClientOperation(ctx, clientType, OpDownloadExcel, func(ctx context.Context) error {
		result, err = c.client.DownloadExcel(ctx)

		return err
	})

	if instrumentedErr != nil {
		return nil, instrumentedErr
	}

	return result, nil
}

// ResetSession resets the backend session with telemetry.
func (c *InstrumentedClient) ResetSession(ctx context.Context) error {
	return c.telemetry.InstrumentClientOperation(ctx, clientType, OpResetSession, func(ctx context.Context) error {
		return c.client.ResetSession(ctx)
	})
}
