package domain

import (
	"path/filepath"
	"strings"
	"time"
)

// Media types the preview builder treats specially.
const (
	MimePDF  = "application/pdf"
	MimeDOCX = "application/vnd.openxmlformats-officedocument.wordprocessingml.document"
	// MimeOctetStream is used when the browser did not declare a type.
	MimeOctetStream = "application/octet-stream"
)

// MediaClass is the coarse classification of an uploaded document.
type MediaClass string

const (
	MediaClassImage          MediaClass = "image"
	MediaClassPDF            MediaClass = "pdf"
	MediaClassWordProcessing MediaClass = "word_processing"
	MediaClassOther          MediaClass = "other"
)

// RenderStrategy tells how a preview document renders its file.
type RenderStrategy string

const (
	StrategyImageFill    RenderStrategy = "image_fill"
	StrategyDocxConvert  RenderStrategy = "docx_convert"
	StrategyPDFViewer    RenderStrategy = "pdf_viewer"
	StrategyGenericEmbed RenderStrategy = "generic_embed"
)

// UploadedDocument is the single file a session currently works on.
type UploadedDocument struct {
	Name        string    `json:"name"`
	ContentType string    `json:"content_type"`
	Content     []byte    `json:"-"`
	Size        int64     `json:"size"`
	UploadedAt  time.Time `json:"uploaded_at"`
}

// Validate checks that the document can be previewed and sent upstream.
func (d *UploadedDocument) Validate() error {
	if d == nil {
		return &ValidationError{Field: "file", Message: "file is required"}
	}
	name := strings.TrimSpace(d.Name)
	if name == "" || name == "." || name == string(filepath.Separator) {
		return &ValidationError{Field: "name", Message: "file name is required"}
	}
	if len(d.Content) == 0 {
		return &ValidationError{Field: "content", Message: "file is empty"}
	}
	if d.Size != 0 && d.Size != int64(len(d.Content)) {
		return &ValidationError{Field: "size", Message: "declared size does not match content"}
	}
	return nil
}

// IsDOCX reports whether the document is a word-processing document,
// either by extension or by declared type.
func (d *UploadedDocument) IsDOCX() bool {
	return strings.EqualFold(filepath.Ext(d.Name), ".docx") || d.ContentType == MimeDOCX
}

// PreviewDescriptor is derived from an UploadedDocument. BlobID names the
// ephemeral reference backing ObjectURL; it must be released when the
// descriptor is superseded.
type PreviewDescriptor struct {
	MediaClass MediaClass     `json:"media_class"`
	Strategy   RenderStrategy `json:"strategy"`
	BlobID     string         `json:"blob_id"`
	ObjectURL  string         `json:"object_url"`
	PageCount  int            `json:"page_count,omitempty"`
	HTML       string         `json:"-"`
}

// FormFieldRecord is one entry of the field list returned by extraction.
type FormFieldRecord struct {
	Name  string `json:"name"`
	Value string `json:"value"`
}

// ExtractResult is the backend payload of an extraction.
type ExtractResult struct {
	Fields []FormFieldRecord `json:"fields"`
	HTML   string            `json:"html"`
}

// DownloadKind selects which filled PDF flavour is requested.
type DownloadKind string

const (
	DownloadInteractive DownloadKind = "interactive"
	DownloadRaw         DownloadKind = "raw"
)

// ParseDownloadKind maps a path segment to a DownloadKind.
func ParseDownloadKind(s string) (DownloadKind, error) {
	switch DownloadKind(strings.ToLower(strings.TrimSpace(s))) {
	case DownloadInteractive:
		return DownloadInteractive, nil
	case DownloadRaw:
		return DownloadRaw, nil
	default:
		return "", ErrUnsupportedDownload
	}
}

// FillResponse is what the backend returns for a fill request.
type FillResponse struct {
	Content            []byte
	ContentType        string
	ContentDisposition string
}

// FilledPDF is a finished download ready to be handed to the browser.
type FilledPDF struct {
	Kind     DownloadKind
	Filename string
	Content  []byte
	Snapshot string

	// SnapshotFallback is true when the payload was the stale auto-fill HTML.
	SnapshotFallback bool
}
