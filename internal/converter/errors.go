package converter

import (
	"errors"
	"fmt"
	"net/http"
)

// NetworkError represents transport failures and non-2xx answers from the
// conversion backend.
type NetworkError struct {
	Operation  string // The operation that failed (e.g., "upload_docx", "download_excel")
	StatusCode int    // HTTP status code, if applicable (0 for non-HTTP errors)
	APIMessage string // Error message from the backend or the network layer
	Err        error  // Underlying error, if any
}

func (e *NetworkError) Error() string {
	if e.StatusCode > 0 {
		return fmt.Sprintf("network error during %s (HTTP %d): %s", e.Operation, e.StatusCode, e.APIMessage)
	}
	return fmt.Sprintf("network error during %s: %s", e.Operation, e.APIMessage)
}

func (e *NetworkError) Unwrap() error {
	return e.Err
}

// IsUnavailable reports whether err is a download the backend answered with a
// non-success status, which means there is no spreadsheet to hand out yet.
func IsUnavailable(err error) bool {
	var netErr *NetworkError
	if !errors.As(err, &netErr) {
		return false
	}

	return netErr.Operation == OpDownloadExcel && netErr.StatusCode >= http.StatusBadRequest
}
