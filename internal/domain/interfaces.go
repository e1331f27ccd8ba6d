package domain

import (
	"context"
	"time"
)

// Logger defines the interface for logging operations
type Logger interface {
	Info(msg string, fields ...interface{})
	Error(msg string, err error, fields ...interface{})
	Debug(msg string, fields ...interface{})
	Warn(msg string, fields ...interface{})
	// With returns a child logger that adds fields to every entry.
	With(fields ...interface{}) Logger
}

// Config defines the interface for configuration management
type Config interface {
	GetServerPort() string
	GetLogLevel() string
	GetMaxFileSize() int64
	GetAPIBase() string
	GetRequestTimeout() time.Duration
	GetSessionTTL() time.Duration
	GetAllowedOrigins() []string
	GetSupabaseURL() string
	GetSupabaseKey() string
	GetArchiveBucket() string
}

// Blob is the content behind an ephemeral reference.
type Blob struct {
	ID          string
	ContentType string
	Content     []byte
	CreatedAt   time.Time
}

// BlobStore hands out ephemeral references for in-memory bytes. Every
// reference returned by Create stays live until Release is called.
type BlobStore interface {
	Create(contentType string, content []byte) (*Blob, error)
	Get(id string) (*Blob, error)
	Release(id string) error
	URL(id string) string
}

// AutoFillBackend is the external extraction and fill service.
type AutoFillBackend interface {
	ExtractHTML(ctx context.Context, doc *UploadedDocument) (*ExtractResult, error)
	FillPDF(ctx context.Context, kind DownloadKind, snapshot string, doc *UploadedDocument) (*FillResponse, error)
}

// PDFInspector reads structural facts from PDF bytes.
type PDFInspector interface {
	PageCount(content []byte) (int, error)
	Validate(content []byte) error
}

// EditableSurface is the capability the download paths need from the
// mounted auto-fill document: mirror live control state into markup and
// serialize it.
type EditableSurface interface {
	Normalize() (string, error)
}

// FillArchive keeps a copy of every successful download.
type FillArchive interface {
	Archive(ctx context.Context, sessionID string, doc *UploadedDocument, pdf *FilledPDF) error
}
