package web

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"

	"github.com/dustin/go-humanize"
	"github.com/go-chi/chi/v5"
	"github.com/italolelis/docx2xlsx/internal/converter"
	"github.com/italolelis/docx2xlsx/internal/form"
	"github.com/italolelis/docx2xlsx/internal/logctx"
	"github.com/italolelis/docx2xlsx/internal/session"
	"github.com/italolelis/docx2xlsx/internal/sheet"
	"github.com/italolelis/docx2xlsx/internal/telemetry"
	"github.com/italolelis/docx2xlsx/internal/uploader"
)

const (
	// DownloadFilename is the name the browser saves the spreadsheet under.
	DownloadFilename = "final_output.xlsx"
	// FilesField is the multipart field carrying the selected documents.
	FilesField = "files"

	alertNoData   = "No data available to download"
	alertTooLarge = "The selected files are too large."
)

// Handler serves the upload form.
type Handler struct {
	sessions      *session.Store
	client        converter.Converter
	uploader      *uploader.Uploader
	telemetry     *telemetry.Telemetry
	maxUploadSize int64
}

// NewHandler creates a new form handler.
func NewHandler(
	sessions *session.Store,
	client converter.Converter,
	up *uploader.Uploader,
	tel *telemetry.Telemetry,
	maxUploadSize int64,
) *Handler {
	return &Handler{
		sessions:      sessions,
		client:        client,
		uploader:      up,
		telemetry:     tel,
		maxUploadSize: maxUploadSize,
	}
}

func (h *Handler) Routes() http.Handler {
	r := chi.NewRouter()
	r.Use(
		telemetry.RequestID,
		telemetry.NewHTTPMiddleware(h.telemetry).Middleware(routePattern),
		telemetry.HTTPLogging,
	)

	r.Get("/healthz", h.HandleHealth)
	r.Handle("/metrics", h.telemetry.Handler())

	r.Group(func(r chi.Router) {
		r.Use(h.sessionMiddleware)

		r.Get("/", h.HandleIndex)
		r.Get("/state", h.HandleState)
		r.Post("/files", h.HandleSelect)
		r.Post("/upload", h.HandleUpload)
		r.Get("/download", h.HandleDownload)
		r.Post("/reset", h.HandleReset)
	})

	return r
}

func routePattern(r *http.Request) string {
	if rctx := chi.RouteContext(r.Context()); rctx != nil {
		return rctx.RoutePattern()
	}

	return ""
}

// HandleIndex renders the form and consumes the pending alert.
func (h *Handler) HandleIndex(w http.ResponseWriter, r *http.Request) {
	logger := logctx.LoggerFromContext(r.Context())
	state, alert := controllerFrom(r.Context()).Render()

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.Header().Set("Cache-Control", "no-store")

	if err := pageTemplate.Execute(w, newPageView(state, alert)); err != nil {
		logger.Error("failed to render page", "err", err)
	}
}

// HandleState returns the session's form as JSON. The alert is not consumed.
func (h *Handler) HandleState(w http.ResponseWriter, r *http.Request) {
	logger := logctx.LoggerFromContext(r.Context())
	state := controllerFrom(r.Context()).Snapshot()

	w.Header().Set("Content-Type", "application/json")
	w.Header().Set("Cache-Control", "no-store")

	if err := json.NewEncoder(w).Encode(state); err != nil {
		logger.Error("failed to encode state", "err", err)
		http.Error(w, "failed to encode state", http.StatusInternalServerError)
	}
}

// HandleSelect appends the submitted documents to the form.
func (h *Handler) HandleSelect(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	logger := logctx.LoggerFromContext(ctx)
	ctrl := controllerFrom(ctx)

	r.Body = http.MaxBytesReader(w, r.Body, h.maxUploadSize)

	files, err := readFiles(r)
	if err != nil {
		logger.Warn("failed to read selected files", "err", err)

		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			ctrl.Update(func(s form.State) form.State { return s.WithAlert(alertTooLarge) })
			h.telemetry.RecordSelection(ctx, "rejected", 0)
			redirectHome(w, r)

			return
		}

		http.Error(w, "invalid multipart body", http.StatusBadRequest)

		return
	}

	if _, err := ctrl.Dispatch(func(s form.State) (form.State, error) { return s.Select(files) }); err != nil {
		logger.Info("selection refused", "files", len(files), "err", err)

		if msg, ok := form.AlertFor(err); ok {
			ctrl.Update(func(s form.State) form.State { return s.WithAlert(msg) })
		}

		h.telemetry.RecordSelection(ctx, "rejected", len(files))
		redirectHome(w, r)

		return
	}

	logger.Info("files selected", "files", len(files))
	h.telemetry.RecordSelection(ctx, "accepted", len(files))

	redirectHome(w, r)
}

// HandleUpload starts the upload sequence in the background.
func (h *Handler) HandleUpload(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	ctrl := controllerFrom(ctx)

	if err := h.uploader.Start(ctx, ctrl); err != nil {
		logctx.LoggerFromContext(ctx).Info("upload refused", "err", err)

		if msg, ok := form.AlertFor(err); ok {
			ctrl.Update(func(s form.State) form.State { return s.WithAlert(msg) })
		}
	}

	redirectHome(w, r)
}

// HandleDownload fetches the generated spreadsheet and sends it as an attachment.
func (h *Handler) HandleDownload(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	logger := logctx.LoggerFromContext(ctx)
	ctrl := controllerFrom(ctx)

	if !ctrl.Snapshot().CanDownload() {
		msg, _ := form.AlertFor(form.ErrDownloadNotReady)
		ctrl.Update(func(s form.State) form.State { return s.WithAlert(msg) })
		h.telemetry.RecordDownload(ctx, "not_ready")
		redirectHome(w, r)

		return
	}

	payload, err := h.fetchSpreadsheet(r)
	if err != nil {
		if converter.IsUnavailable(err) {
			logger.Warn("no spreadsheet available", "err", err)
			h.telemetry.RecordDownload(ctx, "unavailable")
		} else {
			logger.Error("failed to download spreadsheet", "err", err)
			h.telemetry.RecordDownload(ctx, "error")
		}

		ctrl.Update(func(s form.State) form.State { return s.WithAlert(alertNoData) })
		redirectHome(w, r)

		return
	}

	if summary, err := sheet.Inspect(payload); err != nil {
		logger.Warn("downloaded payload is not a readable workbook", "err", err)
	} else {
		logger.Info("spreadsheet downloaded",
			"size", humanize.Bytes(uint64(len(payload))),
			"sheets", len(summary.Sheets),
			"rows", summary.Rows,
			"columns", summary.Columns,
		)
	}

	h.telemetry.RecordDownload(ctx, "success")

	w.Header().Set("Content-Type", sheet.ContentType)
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", DownloadFilename))
	w.Header().Set("Content-Length", fmt.Sprint(len(payload)))

	if _, err := w.Write(payload); err != nil {
		logger.Error("failed to write spreadsheet", "err", err)
	}
}

func (h *Handler) fetchSpreadsheet(r *http.Request) ([]byte, error) {
	body, err := h.client.DownloadExcel(r.Context())
	if err != nil {
		return nil, err
	}
	defer body.Close()

	payload, err := io.ReadAll(body)
	if err != nil {
		return nil, fmt.Errorf("failed to read spreadsheet: %w", err)
	}

	return payload, nil
}

// HandleReset asks the backend to forget the session and clears the form.
// The backend's answer never blocks the local reset.
func (h *Handler) HandleReset(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	logger := logctx.LoggerFromContext(ctx)
	ctrl := controllerFrom(ctx)

	if !ctrl.Snapshot().CanReset() {
		msg, _ := form.AlertFor(form.ErrUploadInProgress)
		ctrl.Update(func(s form.State) form.State { return s.WithAlert(msg) })
		h.telemetry.RecordReset(ctx, "refused")
		redirectHome(w, r)

		return
	}

	status := "success"
	if err := h.client.ResetSession(ctx); err != nil {
		logger.Warn("backend session reset failed, clearing form anyway", "err", err)

		status = "error"
	}

	if _, err := ctrl.Dispatch(form.State.Reset); err != nil {
		logger.Info("reset refused", "err", err)

		if msg, ok := form.AlertFor(err); ok {
			ctrl.Update(func(s form.State) form.State { return s.WithAlert(msg) })
		}

		status = "refused"
	}

	h.telemetry.RecordReset(ctx, status)

	redirectHome(w, r)
}

// HandleHealth reports liveness.
func (h *Handler) HandleHealth(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	_, _ = w.Write([]byte(`{"status":"ok"}`))
}

func redirectHome(w http.ResponseWriter, r *http.Request) {
	http.Redirect(w, r, "/", http.StatusSeeOther)
}

// readFiles reads every document of the files field into memory. Empty parts
// (no file chosen) are skipped.
func readFiles(r *http.Request) ([]form.File, error) {
	if err := r.ParseMultipartForm(32 << 20); err != nil {
		return nil, fmt.Errorf("failed to parse multipart form: %w", err)
	}

	defer func() { _ = r.MultipartForm.RemoveAll() }()

	headers := r.MultipartForm.File[FilesField]
	files := make([]form.File, 0, len(headers))

	for _, fh := range headers {
		if fh.Filename == "" {
			continue
		}

		content, err := readPart(fh)
		if err != nil {
			return nil, err
		}

		files = append(files, form.File{Name: fh.Filename, Content: content})
	}

	return files, nil
}

func readPart(fh *multipart.FileHeader) ([]byte, error) {
	f, err := fh.Open()
	if err != nil {
		return nil, fmt.Errorf("failed to open %s: %w", fh.Filename, err)
	}
	defer f.Close()

	content, err := io.ReadAll(f)
	if err != nil {
		return nil, fmt.Errorf("failed to read %s: %w", fh.Filename, err)
	}

	return content, nil
}
