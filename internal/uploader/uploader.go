package uploader

import (
	"bytes"
	"context"
	"fmt"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/italolelis/docx2xlsx/internal/converter"
	"github.com/italolelis/docx2xlsx/internal/form"
	"github.com/italolelis/docx2xlsx/internal/logctx"
	"github.com/italolelis/docx2xlsx/internal/notifier"
	"github.com/italolelis/docx2xlsx/internal/progress"
	"github.com/italolelis/docx2xlsx/internal/telemetry"
)

// Summary is the outcome of one upload run.
type Summary struct {
	Uploaded int
	Failed   int
	Skipped  int
	Duration time.Duration
}

func (s Summary) String() string {
	return fmt.Sprintf("%d of %d documents uploaded (%d failed) in %s",
		s.Uploaded, s.Uploaded+s.Failed+s.Skipped, s.Failed, s.Duration.Round(time.Millisecond))
}

// Uploader sends the records of a form to the conversion backend, one at a time.
type Uploader struct {
	client    converter.Converter
	simulator progress.Simulator
	telemetry *telemetry.Telemetry
	notifier  notifier.Notifier
}

func NewUploader(
	client converter.Converter,
	simulator progress.Simulator,
	tel *telemetry.Telemetry,
	notif notifier.Notifier,
) *Uploader {
	if notif == nil {
		notif = notifier.Nop{}
	}

	return &Uploader{
		client:    client,
		simulator: simulator,
		telemetry: tel,
		notifier:  notif,
	}
}

// Start raises the form's uploading flag and runs the upload sequence in the
// background. The run is detached from ctx's cancellation: once started it
// cannot be cancelled.
func (u *Uploader) Start(ctx context.Context, c *form.Controller) error {
	if _, err := c.Dispatch(form.State.BeginUpload); err != nil {
		return err
	}

	go u.run(context.WithoutCancel(ctx), c)

	return nil
}

// Run raises the uploading flag and blocks until every pending record has been tried.
func (u *Uploader) Run(ctx context.Context, c *form.Controller) (Summary, error) {
	if _, err := c.Dispatch(form.State.BeginUpload); err != nil {
		return Summary{}, err
	}

	return u.run(ctx, c), nil
}

func (u *Uploader) run(ctx context.Context, c *form.Controller) Summary {
	logger := logctx.LoggerFromContext(ctx)
	start := time.Now()

	defer c.Update(form.State.FinishUpload)

	state := c.Snapshot()
	summary := Summary{Skipped: len(state.Records) - len(state.Pending())}

	logger.Info("upload started", "pending", len(state.Pending()), "skipped", summary.Skipped)

	for _, rec := range state.Pending() {
		if err := u.uploadRecord(ctx, c, rec); err != nil {
			summary.Failed++

			continue
		}

		summary.Uploaded++
	}

	summary.Duration = time.Since(start)

	logger.Info("upload finished",
		"uploaded", summary.Uploaded,
		"failed", summary.Failed,
		"skipped", summary.Skipped,
		"duration", summary.Duration.String(),
	)

	if err := u.notifier.Notify(ctx, "Word → Excel: "+summary.String()); err != nil {
		logger.Error("failed to send notification", "err", err)
	}

	return summary
}

// uploadRecord uploads one record. Failures are recorded on the record and
// returned; they never stop the sequence.
func (u *Uploader) uploadRecord(ctx context.Context, c *form.Controller, rec form.Record) error {
	logger := logctx.LoggerFromContext(ctx).With("record_id", rec.ID, "file_name", rec.Name)

	c.Update(func(s form.State) form.State { return s.MarkUploading(rec.ID) })

	logger.Debug("uploading document", "size", humanize.Bytes(uint64(rec.Size)))

	var result *converter.UploadResult

	err := u.telemetry.InstrumentUpload(ctx, func(ctx context.Context) error {
		stop := u.simulator.Start(ctx, func(percent int) {
			c.Update(func(s form.State) form.State { return s.SetProgress(rec.ID, percent) })
		})
		defer stop()

		var err error
		result, err = u.client.UploadDocx(ctx, rec.Name, bytes.NewReader(rec.File.Content), rec.Size)

		return err
	})
	if err != nil {
		logger.Error("failed to upload document", "err", err)

		c.Update(func(s form.State) form.State { return s.MarkFailed(rec.ID, err.Error()) })

		return fmt.Errorf("failed to upload %s: %w", rec.Name, err)
	}

	c.Update(func(s form.State) form.State { return s.MarkDone(rec.ID, result.Added, result.Total) })

	logger.Info("document uploaded", "added", result.Added, "total", result.Total)

	return nil
}
