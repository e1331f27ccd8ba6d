package handler

import (
	"net/http"
	"strconv"

	"autofill-workbench/internal/domain"
	"autofill-workbench/internal/service"
	apperrors "autofill-workbench/pkg/errors"

	"github.com/gorilla/mux"
)

// BlobHandler serves the ephemeral preview references of the caller's session
type BlobHandler struct {
	logger domain.Logger
}

// NewBlobHandler creates a new blob handler
func NewBlobHandler(logger domain.Logger) *BlobHandler {
	return &BlobHandler{logger: logger}
}

// GetBlob streams the referenced bytes inline with their declared type
func (h *BlobHandler) GetBlob(w http.ResponseWriter, r *http.Request) {
	blob, ok := h.ownedBlob(w, r)
	if !ok {
		return
	}
	w.Header().Set("Content-Type", blob.ContentType)
	w.Header().Set("Content-Disposition", "inline")
	w.Header().Set("Content-Length", strconv.Itoa(len(blob.Content)))
	w.Header().Set("Cache-Control", "no-store")
	w.Header().Set("X-Content-Type-Options", "nosniff")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(blob.Content)
}

// GetBlobHTML converts a DOCX reference to an HTML fragment
func (h *BlobHandler) GetBlobHTML(w http.ResponseWriter, r *http.Request) {
	blob, ok := h.ownedBlob(w, r)
	if !ok {
		return
	}
	res := service.DocxPreview(blob.Content)
	if res.Fallback {
		h.logger.Warn("DOCX preview conversion failed", "blob_id", blob.ID, "error", res.Err)
		writeHTML(w, http.StatusUnprocessableEntity, res.HTML)
		return
	}
	writeHTML(w, http.StatusOK, res.HTML)
}

func (h *BlobHandler) ownedBlob(w http.ResponseWriter, r *http.Request) (*domain.Blob, bool) {
	sess, ok := GetSessionFromContext(r)
	if !ok {
		writeError(w, http.StatusInternalServerError, "Session not found in context")
		return nil, false
	}
	blob, err := sess.OwnedBlob(mux.Vars(r)["id"])
	if err != nil {
		writeAppError(w, apperrors.NewNotFoundError("Reference not found"))
		return nil, false
	}
	return blob, true
}
