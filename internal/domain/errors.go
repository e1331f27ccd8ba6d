package domain

import "errors"

// Domain errors
var (
	ErrNoFile              = errors.New("no file selected")
	ErrNoAutoFill          = errors.New("no auto-fill document; process a form first")
	ErrExtractInFlight     = errors.New("extraction already in progress")
	ErrDownloadInFlight    = errors.New("download already in progress")
	ErrFieldIndex          = errors.New("field index out of range")
	ErrInvalidEdit         = errors.New("invalid edit")
	ErrSurfaceUnavailable  = errors.New("editable surface not mounted")
	ErrBlobNotFound        = errors.New("blob not found")
	ErrSessionNotFound     = errors.New("session not found")
	ErrStaleResult         = errors.New("session changed while request was in flight")
	ErrUnsupportedDownload = errors.New("unsupported download kind")
	ErrInvalidFile         = errors.New("invalid file")
)

// Messages shown to the user. The wording is fixed.
const (
	ExtractFailedMessage  = "Failed to process the document. Please try again."
	DownloadFailedMessage = "Failed to download PDF. Please try again."
	NoAutoFillMessage     = "Please process a form first to generate the filled HTML."
	DocxPreviewFailed     = "Unable to preview DOCX."
)

// ValidationError represents a validation error with field and message information.
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	if e.Field != "" {
		return e.Field + ": " + e.Message
	}
	return e.Message
}
