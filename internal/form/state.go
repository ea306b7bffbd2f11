// Package form holds the state of the upload form for one browser session.
//
// State is a value: every transition takes a State and returns a new one
// without touching the receiver's records. Controller serialises the
// transitions for concurrent callers.
package form

import (
	"path/filepath"
	"strings"

	"github.com/google/uuid"
)

// MaxFiles is the number of documents a form may hold at once.
const MaxFiles = 3

// Status of a single upload record.
type Status string

const (
	StatusPending   Status = "pending"
	StatusUploading Status = "uploading"
	StatusDone      Status = "done"
	StatusError     Status = "error"
)

// File is a document picked by the user.
type File struct {
	Name    string
	Content []byte
}

// Size returns the document size in bytes.
func (f File) Size() int64 {
	return int64(len(f.Content))
}

// Record tracks the transfer of one selected file.
type Record struct {
	ID       string `json:"id"`
	File     File   `json:"-"`
	Name     string `json:"name"`
	Size     int64  `json:"size"`
	Progress int    `json:"progress"`
	Status   Status `json:"status"`
	Error    string `json:"error,omitempty"`

	// Filled from the converter's answer when it reports record counts.
	Added int `json:"added,omitempty"`
	Total int `json:"total,omitempty"`
}

// State is the whole form: ordered records, the uploading flag and a one-shot alert.
type State struct {
	Records   []Record `json:"records"`
	Uploading bool     `json:"uploading"`
	Alert     string   `json:"alert,omitempty"`
}

// Transition is a pure update of the form state.
type Transition func(State) (State, error)

func (s State) clone() State {
	s.Records = append([]Record(nil), s.Records...)
	return s
}

// Select appends one pending record per file, preserving order. The whole
// selection is refused when it would exceed MaxFiles or contains a file that
// is not a .docx document.
func (s State) Select(files []File) (State, error) {
	if s.Uploading {
		return s, ErrUploadInProgress
	}

	if len(files) == 0 {
		return s, nil
	}

	if len(s.Records)+len(files) > MaxFiles {
		return s, ErrSelectionLimit
	}

	for _, f := range files {
		if !strings.EqualFold(filepath.Ext(f.Name), ".docx") {
			return s, &InvalidFileError{Filename: f.Name, Reason: "only .docx files are accepted"}
		}
	}

	next := s.clone()
	for _, f := range files {
		next.Records = append(next.Records, Record{
			ID:     uuid.NewString(),
			File:   f,
			Name:   f.Name,
			Size:   f.Size(),
			Status: StatusPending,
		})
	}

	return next, nil
}

// BeginUpload raises the uploading flag.
func (s State) BeginUpload() (State, error) {
	if s.Uploading {
		return s, ErrUploadInProgress
	}

	if len(s.Records) == 0 {
		return s, ErrNothingToUpload
	}

	next := s.clone()
	next.Uploading = true

	return next, nil
}

// FinishUpload lowers the uploading flag.
func (s State) FinishUpload() State {
	next := s.clone()
	next.Uploading = false

	return next
}

// MarkUploading moves a record to uploading and restarts its progress.
func (s State) MarkUploading(id string) State {
	return s.update(id, func(r *Record) {
		r.Status = StatusUploading
		r.Progress = 0
		r.Error = ""
	})
}

// SetProgress records a progress value for an uploading record. Values are
// clamped to [0, 100] and never move backwards; records in any other status
// are left alone.
func (s State) SetProgress(id string, percent int) State {
	percent = max(0, min(percent, 100))

	return s.update(id, func(r *Record) {
		if r.Status == StatusUploading && percent > r.Progress {
			r.Progress = percent
		}
	})
}

// MarkDone completes a record.
func (s State) MarkDone(id string, added, total int) State {
	return s.update(id, func(r *Record) {
		r.Status = StatusDone
		r.Progress = 100
		r.Error = ""
		r.Added = added
		r.Total = total
	})
}

// MarkFailed flags a record as failed; its progress stays where it stopped.
func (s State) MarkFailed(id string, reason string) State {
	return s.update(id, func(r *Record) {
		r.Status = StatusError
		r.Error = reason
	})
}

// Reset discards every record. The uploading flag must already be down.
func (s State) Reset() (State, error) {
	if s.Uploading {
		return s, ErrUploadInProgress
	}

	return State{Alert: s.Alert}, nil
}

// WithAlert sets the one-shot message shown on the next render.
func (s State) WithAlert(msg string) State {
	next := s.clone()
	next.Alert = msg

	return next
}

// TakeAlert returns the pending alert and a state without it.
func (s State) TakeAlert() (State, string) {
	next := s.clone()
	msg := next.Alert
	next.Alert = ""

	return next, msg
}

// Pending returns the records an upload run has to process, in order.
func (s State) Pending() []Record {
	var out []Record

	for _, r := range s.Records {
		if r.Status != StatusDone {
			out = append(out, r)
		}
	}

	return out
}

// CanSelect reports whether the file picker is enabled.
func (s State) CanSelect() bool {
	return !s.Uploading && len(s.Records) < MaxFiles
}

// CanStart reports whether the start button is enabled.
func (s State) CanStart() bool {
	return !s.Uploading && len(s.Records) > 0
}

// CanReset reports whether the clear button is enabled.
func (s State) CanReset() bool {
	return !s.Uploading
}

// CanDownload reports whether every record is done.
func (s State) CanDownload() bool {
	if s.Uploading || len(s.Records) == 0 {
		return false
	}

	for _, r := range s.Records {
		if r.Status != StatusDone {
			return false
		}
	}

	return true
}

func (s State) update(id string, fn func(*Record)) State {
	next := s.clone()

	for i := range next.Records {
		if next.Records[i].ID == id {
			fn(&next.Records[i])
			break
		}
	}

	return next
}
