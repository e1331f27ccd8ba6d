package service

import (
	"context"
	"fmt"
	"sync"
	"time"

	"autofill-workbench/internal/domain"
)

// Mock implementations for testing
type MockLogger struct{}

func (l *MockLogger) Info(msg string, fields ...interface{})             {}
func (l *MockLogger) Error(msg string, err error, fields ...interface{}) {}
func (l *MockLogger) Debug(msg string, fields ...interface{})            {}
func (l *MockLogger) Warn(msg string, fields ...interface{})             {}
func (l *MockLogger) With(fields ...interface{}) domain.Logger          { return l }

type MockBlobStore struct {
	mu       sync.Mutex
	blobs    map[string]*domain.Blob
	seq      int
	created  int
	released int
}

func NewMockBlobStore() *MockBlobStore {
	return &MockBlobStore{blobs: make(map[string]*domain.Blob)}
}

func (m *MockBlobStore) Create(contentType string, content []byte) (*domain.Blob, error) {
	if len(content) == 0 {
		return nil, domain.ErrInvalidFile
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.seq++
	b := &domain.Blob{ID: fmt.Sprintf("blob-%d", m.seq), ContentType: contentType, Content: content, CreatedAt: time.Now()}
	m.blobs[b.ID] = b
	m.created++
	return b, nil
}

func (m *MockBlobStore) Get(id string) (*domain.Blob, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	b, ok := m.blobs[id]
	if !ok {
		return nil, domain.ErrBlobNotFound
	}
	return b, nil
}

func (m *MockBlobStore) Release(id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.blobs[id]; !ok {
		return domain.ErrBlobNotFound
	}
	delete(m.blobs, id)
	m.released++
	return nil
}

func (m *MockBlobStore) URL(id string) string { return "/blobs/" + id }

func (m *MockBlobStore) Counts() (created, released, live int) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.created, m.released, len(m.blobs)
}

type MockInspector struct {
	pages       int
	pageErr     error
	validateErr error
}

func (m *MockInspector) PageCount([]byte) (int, error) { return m.pages, m.pageErr }
func (m *MockInspector) Validate([]byte) error         { return m.validateErr }

type fillCall struct {
	kind     domain.DownloadKind
	snapshot string
	doc      *domain.UploadedDocument
}

// MockBackend answers extraction and fill requests from canned values. When
// gate is set, every call blocks until it is closed or the context ends.
type MockBackend struct {
	mu          sync.Mutex
	extract     *domain.ExtractResult
	extractErr  error
	fill        *domain.FillResponse
	fillErr     error
	gate        chan struct{}
	extractHits int
	fills       []fillCall
}

func (m *MockBackend) ExtractHTML(ctx context.Context, doc *domain.UploadedDocument) (*domain.ExtractResult, error) {
	m.mu.Lock()
	m.extractHits++
	gate := m.gate
	m.mu.Unlock()
	if err := wait(ctx, gate); err != nil {
		return nil, err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.extractErr != nil {
		return nil, m.extractErr
	}
	return m.extract, nil
}

func (m *MockBackend) FillPDF(ctx context.Context, kind domain.DownloadKind, snapshot string, doc *domain.UploadedDocument) (*domain.FillResponse, error) {
	m.mu.Lock()
	m.fills = append(m.fills, fillCall{kind: kind, snapshot: snapshot, doc: doc})
	gate := m.gate
	m.mu.Unlock()
	if err := wait(ctx, gate); err != nil {
		return nil, err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.fillErr != nil {
		return nil, m.fillErr
	}
	return m.fill, nil
}

func (m *MockBackend) Fills() []fillCall {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]fillCall{}, m.fills...)
}

func wait(ctx context.Context, gate chan struct{}) error {
	if gate == nil {
		return nil
	}
	select {
	case <-gate:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

type MockArchive struct {
	mu    sync.Mutex
	saved []*domain.FilledPDF
	err   error
}

func (m *MockArchive) Archive(ctx context.Context, sessionID string, doc *domain.UploadedDocument, pdf *domain.FilledPDF) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.saved = append(m.saved, pdf)
	return m.err
}

func (m *MockArchive) Saved() []*domain.FilledPDF {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]*domain.FilledPDF{}, m.saved...)
}

var fixedNow = time.Date(2026, 10, 17, 9, 30, 0, 0, time.UTC)

func newTestDeps(backend *MockBackend) (*SessionDeps, *MockBlobStore) {
	blobs := NewMockBlobStore()
	logger := &MockLogger{}
	inspector := &MockInspector{pages: 1}
	return &SessionDeps{
		Blobs:          blobs,
		Previews:       NewPreviewBuilder(blobs, inspector, logger),
		Backend:        backend,
		Inspector:      inspector,
		Archive:        &MockArchive{},
		RequestTimeout: 5 * time.Second,
		Logger:         logger,
		Now:            func() time.Time { return fixedNow },
	}, blobs
}

func pdfDoc(name string) *domain.UploadedDocument {
	content := []byte("%PDF-1.4 test")
	return &domain.UploadedDocument{
		Name:        name,
		ContentType: domain.MimePDF,
		Content:     content,
		Size:        int64(len(content)),
	}
}

func strPtr(s string) *string { return &s }
func boolPtr(b bool) *bool    { return &b }
