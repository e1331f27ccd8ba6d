package service

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"autofill-workbench/internal/domain"
)

// SessionDeps are the collaborators shared by every session.
type SessionDeps struct {
	Blobs          domain.BlobStore
	Previews       *PreviewBuilder
	Backend        domain.AutoFillBackend
	Inspector      domain.PDFInspector
	Archive        domain.FillArchive
	RequestTimeout time.Duration
	Logger         domain.Logger
	Now            func() time.Time
}

func (d *SessionDeps) now() time.Time {
	if d.Now != nil {
		return d.Now()
	}
	return time.Now()
}

// withTimeout bounds ctx by RequestTimeout; zero means no extra deadline.
func (d *SessionDeps) withTimeout(ctx context.Context) (context.Context, context.CancelFunc) {
	if d.RequestTimeout <= 0 {
		return context.WithCancel(ctx)
	}
	return context.WithTimeout(ctx, d.RequestTimeout)
}

type inflight struct {
	cancel context.CancelFunc
}

// Session is one user's workbench: the selected file, its preview, the
// extraction results and the editable auto-fill document.
type Session struct {
	id     string
	deps   *SessionDeps
	logger domain.Logger

	mu           sync.Mutex
	state        domain.SessionState
	file         *domain.UploadedDocument
	preview      *domain.PreviewDescriptor
	fields       []domain.FormFieldRecord
	autoFillHTML string
	surface      *FormSurface
	errMsg       string
	generation   uint64
	extraction   *inflight
	downloads    map[domain.DownloadKind]*inflight
	updatedAt    time.Time

	background sync.WaitGroup
}

// NewSession creates an empty session.
func NewSession(id string, deps *SessionDeps) *Session {
	return &Session{
		id:        id,
		deps:      deps,
		logger:    deps.Logger.With("session_id", id),
		state:     domain.StateEmpty,
		downloads: make(map[domain.DownloadKind]*inflight),
		updatedAt: deps.now(),
	}
}

// ID returns the session identifier.
func (s *Session) ID() string { return s.id }

// LastActive returns the time of the last state change or read.
func (s *Session) LastActive() time.Time {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.updatedAt
}

// View returns a snapshot of the session for the page.
func (s *Session) View() domain.SessionView {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.touch()

	v := domain.SessionView{
		ID:                     s.id,
		State:                  s.state,
		File:                   s.file,
		Preview:                s.preview,
		Fields:                 append([]domain.FormFieldRecord{}, s.fields...),
		HasAutoFill:            s.autoFillHTML != "",
		Error:                  s.errMsg,
		Extracting:             s.extraction != nil,
		DownloadingInteractive: s.downloads[domain.DownloadInteractive] != nil,
		DownloadingRaw:         s.downloads[domain.DownloadRaw] != nil,
		UpdatedAt:              s.updatedAt,
	}
	return v
}

// SelectFile replaces the current file. The previous preview reference is
// released before a new one is allocated and the previous results are
// cleared. It is refused while an extraction is running.
func (s *Session) SelectFile(doc *domain.UploadedDocument) (*domain.PreviewDescriptor, error) {
	if doc == nil {
		return nil, &domain.ValidationError{Field: "file", Message: "file is required"}
	}
	if err := doc.Validate(); err != nil {
		return nil, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.extraction != nil {
		return nil, domain.ErrExtractInFlight
	}

	s.invalidate()
	s.releasePreview()
	s.file = doc
	s.fields = nil
	s.autoFillHTML = ""
	s.surface = nil
	s.errMsg = ""
	s.state = domain.StateFileSelected
	s.touch()

	preview, err := s.deps.Previews.Build(doc)
	if err != nil {
		s.logger.Error("Failed to build preview", err, "file", doc.Name)
		return nil, err
	}
	s.preview = preview
	s.state = domain.StatePreviewed

	s.logger.Info("File selected",
		"file", doc.Name,
		"size", doc.Size,
		"strategy", preview.Strategy,
	)
	return preview, nil
}

// PreviewHTML returns the preview document for the current file.
func (s *Session) PreviewHTML() (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.preview == nil {
		return "", domain.ErrNoFile
	}
	return s.preview.HTML, nil
}

// OwnedBlob returns the blob behind the current preview when id names it.
func (s *Session) OwnedBlob(id string) (*domain.Blob, error) {
	s.mu.Lock()
	if s.preview == nil || s.preview.BlobID != id {
		s.mu.Unlock()
		return nil, domain.ErrBlobNotFound
	}
	s.mu.Unlock()
	return s.deps.Blobs.Get(id)
}

// Extract sends the current file to the extraction endpoint and mounts the
// returned auto-fill document. Only one extraction runs at a time; a result
// that arrives after the session moved on is discarded.
func (s *Session) Extract(ctx context.Context) (*domain.ExtractResult, error) {
	s.mu.Lock()
	if s.file == nil {
		s.mu.Unlock()
		return nil, domain.ErrNoFile
	}
	if s.extraction != nil {
		s.mu.Unlock()
		return nil, domain.ErrExtractInFlight
	}
	ctx, cancel := s.deps.withTimeout(ctx)
	defer cancel()
	token := &inflight{cancel: cancel}
	s.extraction = token
	gen := s.generation
	doc := s.file
	s.state = domain.StateExtracting
	s.errMsg = ""
	s.touch()
	s.mu.Unlock()

	s.logger.Info("Extraction started", "file", doc.Name)
	started := time.Now()
	result, err := s.deps.Backend.ExtractHTML(ctx, doc)

	var surface *FormSurface
	if err == nil && result.HTML != "" {
		surface, err = MountSurface(result.HTML)
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.extraction == token {
		s.extraction = nil
	}
	if gen != s.generation {
		s.logger.Warn("Discarding stale extraction result", "file", doc.Name)
		return nil, domain.ErrStaleResult
	}
	s.touch()

	if err != nil {
		s.logger.Error("Extraction failed", err, "file", doc.Name)
		s.fields = nil
		s.autoFillHTML = ""
		s.surface = nil
		s.errMsg = domain.ExtractFailedMessage
		s.state = domain.StateFileSelected
		return nil, err
	}

	s.fields = append([]domain.FormFieldRecord{}, result.Fields...)
	s.autoFillHTML = result.HTML
	s.surface = surface
	s.state = domain.StateExtracted

	s.logger.Info("Extraction completed",
		"fields", len(s.fields),
		"html_bytes", len(result.HTML),
		"duration_ms", time.Since(started).Milliseconds(),
	)
	return &domain.ExtractResult{
		Fields: append([]domain.FormFieldRecord{}, s.fields...),
		HTML:   s.autoFillHTML,
	}, nil
}

// EditField replaces the value of one extracted field.
func (s *Session) EditField(index int, value string) (domain.FormFieldRecord, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if index < 0 || index >= len(s.fields) {
		return domain.FormFieldRecord{}, fmt.Errorf("%w: %d", domain.ErrFieldIndex, index)
	}
	fields := append([]domain.FormFieldRecord{}, s.fields...)
	fields[index].Value = value
	s.fields = fields
	s.touch()
	return fields[index], nil
}

// ApplyEdits applies user edits to the editable surface in order and stops
// at the first rejected edit.
func (s *Session) ApplyEdits(edits []domain.SurfaceEdit) error {
	s.mu.Lock()
	surface := s.surface
	s.touch()
	s.mu.Unlock()

	if surface == nil {
		return domain.ErrNoAutoFill
	}
	for _, e := range edits {
		if err := surface.ApplyEdit(e); err != nil {
			return err
		}
	}
	return nil
}

// EditableHTML returns the auto-fill document for display, with the edit
// sync script attached.
func (s *Session) EditableHTML(editEndpoint string) (string, error) {
	s.mu.Lock()
	surface := s.surface
	s.mu.Unlock()
	if surface == nil {
		return "", domain.ErrNoAutoFill
	}
	return surface.RenderEditable(editEndpoint)
}

// Download snapshots the editable surface, asks the backend to fill the
// PDF of the given kind and returns it with its save name. Each kind has
// its own in-flight flag.
func (s *Session) Download(ctx context.Context, kind domain.DownloadKind) (*domain.FilledPDF, error) {
	s.mu.Lock()
	if s.autoFillHTML == "" {
		s.mu.Unlock()
		return nil, domain.ErrNoAutoFill
	}
	if s.downloads[kind] != nil {
		s.mu.Unlock()
		return nil, domain.ErrDownloadInFlight
	}
	ctx, cancel := s.deps.withTimeout(ctx)
	defer cancel()
	token := &inflight{cancel: cancel}
	s.downloads[kind] = token
	var surface domain.EditableSurface
	if s.surface != nil {
		surface = s.surface
	}
	fallback := s.autoFillHTML
	doc := s.file
	s.touch()
	s.mu.Unlock()

	defer func() {
		s.mu.Lock()
		if s.downloads[kind] == token {
			delete(s.downloads, kind)
		}
		s.mu.Unlock()
	}()

	snapshot := CaptureSnapshot(surface, fallback)
	if snapshot.Err != nil {
		s.logger.Warn("Using stored auto-fill document for download",
			"kind", kind,
			"error", snapshot.Err,
		)
	}

	resp, err := s.deps.Backend.FillPDF(ctx, kind, snapshot.HTML, doc)
	if err != nil {
		s.logger.Error("Fill request failed", err, "kind", kind)
		return nil, err
	}
	if s.deps.Inspector != nil {
		if verr := s.deps.Inspector.Validate(resp.Content); verr != nil {
			s.logger.Warn("Filled PDF did not validate", "kind", kind, "error", verr)
		}
	}

	pdf := &domain.FilledPDF{
		Kind:             kind,
		Filename:         FilenameFromDisposition(resp.ContentDisposition, s.deps.now()),
		Content:          resp.Content,
		Snapshot:         snapshot.HTML,
		SnapshotFallback: snapshot.UsedFallback,
	}
	s.archive(doc, pdf)

	s.logger.Info("Filled PDF ready",
		"kind", kind,
		"filename", pdf.Filename,
		"bytes", len(pdf.Content),
	)
	return pdf, nil
}

func (s *Session) archive(doc *domain.UploadedDocument, pdf *domain.FilledPDF) {
	if s.deps.Archive == nil {
		return
	}
	s.background.Add(1)
	go func() {
		defer s.background.Done()
		ctx, cancel := s.deps.withTimeout(context.Background())
		defer cancel()
		if err := s.deps.Archive.Archive(ctx, s.id, doc, pdf); err != nil {
			s.logger.Error("Failed to archive filled PDF", err, "kind", pdf.Kind)
		}
	}()
}

// Wait blocks until background archive uploads have finished.
func (s *Session) Wait() {
	s.background.Wait()
}

// Reset returns the session to empty, cancelling in-flight requests and
// releasing the preview reference. Calling it twice is harmless.
func (s *Session) Reset() {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.invalidate()
	for kind, d := range s.downloads {
		d.cancel()
		delete(s.downloads, kind)
	}
	s.releasePreview()
	s.file = nil
	s.fields = nil
	s.autoFillHTML = ""
	s.surface = nil
	s.errMsg = ""
	s.state = domain.StateEmpty
	s.touch()
}

// invalidate abandons the running extraction. Callers hold s.mu.
func (s *Session) invalidate() {
	s.generation++
	if s.extraction != nil {
		s.extraction.cancel()
		s.extraction = nil
	}
}

// releasePreview drops the preview reference. Callers hold s.mu.
func (s *Session) releasePreview() {
	if s.preview == nil {
		return
	}
	if err := s.deps.Blobs.Release(s.preview.BlobID); err != nil && !errors.Is(err, domain.ErrBlobNotFound) {
		s.logger.Warn("Failed to release preview reference", "blob_id", s.preview.BlobID, "error", err)
	}
	s.preview = nil
}

func (s *Session) touch() {
	s.updatedAt = s.deps.now()
}
