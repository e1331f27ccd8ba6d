package handler

import (
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"autofill-workbench/internal/domain"
	apperrors "autofill-workbench/pkg/errors"
)

func TestWriteError(t *testing.T) {
	rr := httptest.NewRecorder()
	writeError(rr, http.StatusTeapot, "nope")

	if rr.Code != http.StatusTeapot {
		t.Fatalf("expected status %d, got %d", http.StatusTeapot, rr.Code)
	}
	if ct := rr.Header().Get("Content-Type"); ct != "application/json" {
		t.Fatalf("expected content type application/json, got %s", ct)
	}
	if strings.TrimSpace(rr.Body.String()) != `{"error":"nope"}` {
		t.Fatalf("unexpected response body: %s", rr.Body.String())
	}
}

func TestWriteAppError(t *testing.T) {
	tests := []struct {
		name   string
		err    *apperrors.AppError
		status int
	}{
		{"validation", apperrors.NewValidationError("File is required"), http.StatusBadRequest},
		{"not found", apperrors.NewNotFoundError("No file selected"), http.StatusNotFound},
		{"conflict", apperrors.NewConflictError("busy", domain.ErrDownloadInFlight), http.StatusConflict},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rr := httptest.NewRecorder()
			writeAppError(rr, tt.err)
			if rr.Code != tt.status {
				t.Fatalf("expected status %d, got %d", tt.status, rr.Code)
			}
			if !strings.Contains(rr.Body.String(), `"error":"`+tt.err.Message+`"`) {
				t.Fatalf("unexpected response body: %s", rr.Body.String())
			}
		})
	}
}

func TestStatusFor(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want int
	}{
		{"validation", &domain.ValidationError{Field: "content", Message: "file is empty"}, http.StatusBadRequest},
		{"invalid edit", fmt.Errorf("%w: control 9 out of range", domain.ErrInvalidEdit), http.StatusBadRequest},
		{"field index", domain.ErrFieldIndex, http.StatusBadRequest},
		{"blob", domain.ErrBlobNotFound, http.StatusNotFound},
		{"no file", domain.ErrNoFile, http.StatusConflict},
		{"extract in flight", domain.ErrExtractInFlight, http.StatusConflict},
		{"download in flight", domain.ErrDownloadInFlight, http.StatusConflict},
		{"upstream", apperrors.NewUpstreamError("extract_html failed", 500), http.StatusBadGateway},
		{"network", apperrors.NewNetworkError("backend unreachable", errors.New("dial tcp")), http.StatusServiceUnavailable},
		{"unknown", errors.New("boom"), http.StatusInternalServerError},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := statusFor(tt.err); got != tt.want {
				t.Fatalf("expected %d, got %d", tt.want, got)
			}
		})
	}
}

func TestWriteHTML(t *testing.T) {
	rr := httptest.NewRecorder()
	writeHTML(rr, http.StatusOK, "<p>hi</p>")

	if ct := rr.Header().Get("Content-Type"); ct != "text/html; charset=utf-8" {
		t.Fatalf("unexpected content type %s", ct)
	}
	if rr.Header().Get("Cache-Control") != "no-store" {
		t.Fatalf("expected no-store")
	}
	if rr.Body.String() != "<p>hi</p>" {
		t.Fatalf("unexpected body %s", rr.Body.String())
	}
}
