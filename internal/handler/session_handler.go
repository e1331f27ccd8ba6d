// Package handler provides HTTP handlers for the workbench API.
package handler

import (
	"encoding/json"
	"errors"
	"io"
	"mime"
	"net/http"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"autofill-workbench/internal/domain"
	"autofill-workbench/internal/service"
	apperrors "autofill-workbench/pkg/errors"

	"github.com/gorilla/mux"
)

// EditsPath is where the auto-fill document posts user edits.
const EditsPath = "/api/v1/session/surface/edits"

// multipartOverhead leaves room for headers and boundaries around the file.
const multipartOverhead = 1 << 20

// SessionHandler handles the workbench session endpoints
type SessionHandler struct {
	maxFileSize int64
	logger      domain.Logger
}

// NewSessionHandler creates a new session handler
func NewSessionHandler(maxFileSize int64, logger domain.Logger) *SessionHandler {
	return &SessionHandler{
		maxFileSize: maxFileSize,
		logger:      logger,
	}
}

// GetSession returns the current session view
func (h *SessionHandler) GetSession(w http.ResponseWriter, r *http.Request) {
	sess, ok := GetSessionFromContext(r)
	if !ok {
		writeError(w, http.StatusInternalServerError, "Session not found in context")
		return
	}
	writeJSON(w, http.StatusOK, sess.View())
}

// UploadFile selects a new file and builds its preview
func (h *SessionHandler) UploadFile(w http.ResponseWriter, r *http.Request) {
	sess, ok := GetSessionFromContext(r)
	if !ok {
		writeError(w, http.StatusInternalServerError, "Session not found in context")
		return
	}

	r.Body = http.MaxBytesReader(w, r.Body, h.maxFileSize+multipartOverhead)
	file, header, err := r.FormFile("file")
	if err != nil {
		var maxErr *http.MaxBytesError
		if errors.As(err, &maxErr) {
			writeError(w, http.StatusRequestEntityTooLarge, "File too large")
			return
		}
		writeAppError(w, apperrors.NewValidationError("File is required", err.Error()))
		return
	}
	defer file.Close()

	if header.Size > h.maxFileSize {
		writeError(w, http.StatusRequestEntityTooLarge, "File too large")
		return
	}

	content, err := io.ReadAll(file)
	if err != nil {
		h.logger.Error("Failed to read uploaded file", err, "session_id", sess.ID())
		writeAppError(w, apperrors.NewValidationError("Failed to read file"))
		return
	}

	// Strip any path components the browser may send
	name := strings.TrimSpace(filepath.Base(strings.ReplaceAll(header.Filename, "\\", "/")))
	doc := &domain.UploadedDocument{
		Name:        name,
		ContentType: header.Header.Get("Content-Type"),
		Content:     content,
		Size:        int64(len(content)),
		UploadedAt:  time.Now().UTC(),
	}

	if _, err := sess.SelectFile(doc); err != nil {
		writeError(w, statusFor(err), err.Error())
		return
	}
	writeJSON(w, http.StatusCreated, sess.View())
}

// GetPreview serves the preview document of the current file
func (h *SessionHandler) GetPreview(w http.ResponseWriter, r *http.Request) {
	sess, ok := GetSessionFromContext(r)
	if !ok {
		writeError(w, http.StatusInternalServerError, "Session not found in context")
		return
	}
	doc, err := sess.PreviewHTML()
	if err != nil {
		writeAppError(w, apperrors.NewNotFoundError("No file selected"))
		return
	}
	writeHTML(w, http.StatusOK, doc)
}

// Extract sends the current file to the extraction backend
func (h *SessionHandler) Extract(w http.ResponseWriter, r *http.Request) {
	sess, ok := GetSessionFromContext(r)
	if !ok {
		writeError(w, http.StatusInternalServerError, "Session not found in context")
		return
	}

	result, err := sess.Extract(r.Context())
	if err != nil {
		switch {
		case errors.Is(err, domain.ErrNoFile),
			errors.Is(err, domain.ErrExtractInFlight),
			errors.Is(err, domain.ErrStaleResult):
			writeError(w, statusFor(err), err.Error())
		default:
			writeError(w, http.StatusBadGateway, domain.ExtractFailedMessage)
		}
		return
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{
		"fields":        result.Fields,
		"has_auto_fill": result.HTML != "",
		"session":       sess.View(),
	})
}

// GetAutoFill serves the editable auto-fill document
func (h *SessionHandler) GetAutoFill(w http.ResponseWriter, r *http.Request) {
	sess, ok := GetSessionFromContext(r)
	if !ok {
		writeError(w, http.StatusInternalServerError, "Session not found in context")
		return
	}
	doc, err := sess.EditableHTML(EditsPath)
	if err != nil {
		writeAppError(w, apperrors.NewNotFoundError(domain.NoAutoFillMessage))
		return
	}
	writeHTML(w, http.StatusOK, doc)
}

// ApplyEdits records edits made in the auto-fill document
func (h *SessionHandler) ApplyEdits(w http.ResponseWriter, r *http.Request) {
	sess, ok := GetSessionFromContext(r)
	if !ok {
		writeError(w, http.StatusInternalServerError, "Session not found in context")
		return
	}

	var edits []domain.SurfaceEdit
	if err := json.NewDecoder(r.Body).Decode(&edits); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	if err := sess.ApplyEdits(edits); err != nil {
		writeError(w, statusFor(err), err.Error())
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// UpdateField edits one extracted field record
func (h *SessionHandler) UpdateField(w http.ResponseWriter, r *http.Request) {
	sess, ok := GetSessionFromContext(r)
	if !ok {
		writeError(w, http.StatusInternalServerError, "Session not found in context")
		return
	}

	index, err := strconv.Atoi(mux.Vars(r)["index"])
	if err != nil {
		writeError(w, http.StatusBadRequest, "Field index must be a number")
		return
	}

	var req struct {
		Value *string `json:"value"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.Value == nil {
		writeError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	record, err := sess.EditField(index, *req.Value)
	if err != nil {
		writeError(w, statusFor(err), err.Error())
		return
	}
	writeJSON(w, http.StatusOK, record)
}

// Download returns the filled PDF of the requested kind as an attachment
func (h *SessionHandler) Download(w http.ResponseWriter, r *http.Request) {
	sess, ok := GetSessionFromContext(r)
	if !ok {
		writeError(w, http.StatusInternalServerError, "Session not found in context")
		return
	}

	kind, err := domain.ParseDownloadKind(mux.Vars(r)["kind"])
	if err != nil {
		writeError(w, http.StatusBadRequest, "Unsupported download kind")
		return
	}

	pdf, err := sess.Download(r.Context(), kind)
	if err != nil {
		switch {
		case errors.Is(err, domain.ErrNoAutoFill):
			writeAppError(w, apperrors.NewConflictError(domain.NoAutoFillMessage, err))
		case errors.Is(err, domain.ErrDownloadInFlight):
			writeAppError(w, apperrors.NewConflictError(err.Error(), err))
		default:
			writeError(w, http.StatusBadGateway, domain.DownloadFailedMessage)
		}
		return
	}

	disposition := mime.FormatMediaType("attachment", map[string]string{"filename": pdf.Filename})
	if disposition == "" {
		disposition = mime.FormatMediaType("attachment", map[string]string{"filename": service.DefaultFilename(time.Now())})
	}
	w.Header().Set("Content-Type", domain.MimePDF)
	w.Header().Set("Content-Disposition", disposition)
	w.Header().Set("Content-Length", strconv.Itoa(len(pdf.Content)))
	w.Header().Set("Cache-Control", "no-store")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(pdf.Content)
}

// Reset clears the session
func (h *SessionHandler) Reset(w http.ResponseWriter, r *http.Request) {
	sess, ok := GetSessionFromContext(r)
	if !ok {
		writeError(w, http.StatusInternalServerError, "Session not found in context")
		return
	}
	sess.Reset()
	writeJSON(w, http.StatusOK, sess.View())
}
