package form

import (
	"errors"
	"fmt"
)

var (
	// ErrSelectionLimit is returned when a selection would push the form above MaxFiles.
	ErrSelectionLimit = errors.New("selection exceeds the file limit")
	// ErrUploadInProgress is returned for actions that are disabled while uploading.
	ErrUploadInProgress = errors.New("an upload is already in progress")
	// ErrNothingToUpload is returned when starting an upload with an empty form.
	ErrNothingToUpload = errors.New("no files selected")
	// ErrDownloadNotReady is returned when a download is requested before every record is done.
	ErrDownloadNotReady = errors.New("download is only available once every file is uploaded")
)

// InvalidFileError reports a selected file the converter cannot accept.
type InvalidFileError struct {
	Filename string
	Reason   string
}

func (e *InvalidFileError) Error() string {
	return fmt.Sprintf("invalid file %s: %s", e.Filename, e.Reason)
}

// AlertFor returns the user-facing message for an error produced by a form
// transition, and false for errors that are not meant for the user.
func AlertFor(err error) (string, bool) {
	var invalid *InvalidFileError

	switch {
	case errors.Is(err, ErrSelectionLimit):
		return fmt.Sprintf("You can upload a maximum of %d Word files at a time.", MaxFiles), true
	case errors.As(err, &invalid):
		return fmt.Sprintf("%s is not a Word document (.docx).", invalid.Filename), true
	case errors.Is(err, ErrUploadInProgress):
		return "Please wait for the current upload to finish.", true
	case errors.Is(err, ErrNothingToUpload):
		return "Select at least one Word file first.", true
	case errors.Is(err, ErrDownloadNotReady):
		return "No data available to download", true
	}

	return "", false
}
