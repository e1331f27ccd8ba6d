package handler

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"autofill-workbench/internal/domain"
)

func TestSessionHandler_FullFlow(t *testing.T) {
	app := newTestApp(t)
	app.backend.disposition = `attachment; filename="form_filled.pdf"`

	rr := app.upload(t, "form.pdf", "application/pdf", []byte("%PDF-1.4 source"))
	if rr.Code != http.StatusCreated {
		t.Fatalf("upload: expected %d, got %d: %s", http.StatusCreated, rr.Code, rr.Body.String())
	}
	var view domain.SessionView
	if err := json.Unmarshal(rr.Body.Bytes(), &view); err != nil {
		t.Fatalf("decode view: %v", err)
	}
	if view.State != domain.StatePreviewed || view.Preview == nil || view.Preview.Strategy != domain.StrategyPDFViewer {
		t.Fatalf("unexpected view after upload: %+v", view)
	}

	rr = app.do(t, httptest.NewRequest(http.MethodGet, "/api/v1/session/preview", nil))
	if rr.Code != http.StatusOK || !strings.Contains(rr.Body.String(), view.Preview.ObjectURL+"#zoom=page-width") {
		t.Fatalf("unexpected preview: %d %s", rr.Code, rr.Body.String())
	}

	rr = app.do(t, httptest.NewRequest(http.MethodGet, view.Preview.ObjectURL, nil))
	if rr.Code != http.StatusOK || rr.Body.String() != "%PDF-1.4 source" {
		t.Fatalf("unexpected blob: %d %s", rr.Code, rr.Body.String())
	}
	if ct := rr.Header().Get("Content-Type"); ct != "application/pdf" {
		t.Fatalf("unexpected blob content type %q", ct)
	}

	rr = app.do(t, httptest.NewRequest(http.MethodPost, "/api/v1/session/extract", nil))
	if rr.Code != http.StatusOK {
		t.Fatalf("extract: expected %d, got %d: %s", http.StatusOK, rr.Code, rr.Body.String())
	}

	rr = app.do(t, httptest.NewRequest(http.MethodGet, "/api/v1/session/autofill", nil))
	if rr.Code != http.StatusOK || !strings.Contains(rr.Body.String(), EditsPath) {
		t.Fatalf("unexpected autofill document: %d", rr.Code)
	}

	edits := `[{"index":0,"value":"Anna"}]`
	req := httptest.NewRequest(http.MethodPost, EditsPath, strings.NewReader(edits))
	req.Header.Set("Content-Type", "application/json")
	rr = app.do(t, req)
	if rr.Code != http.StatusNoContent {
		t.Fatalf("edits: expected %d, got %d: %s", http.StatusNoContent, rr.Code, rr.Body.String())
	}

	rr = app.do(t, httptest.NewRequest(http.MethodPost, "/api/v1/session/download/interactive", nil))
	if rr.Code != http.StatusOK {
		t.Fatalf("download: expected %d, got %d: %s", http.StatusOK, rr.Code, rr.Body.String())
	}
	if got := rr.Header().Get("Content-Disposition"); got != `attachment; filename=form_filled.pdf` {
		t.Fatalf("unexpected disposition %q", got)
	}
	if rr.Body.String() != "%PDF-1.7 filled" {
		t.Fatalf("unexpected pdf body %q", rr.Body.String())
	}
	if !strings.Contains(app.backend.lastSnapshot, `value="Anna"`) {
		t.Fatalf("snapshot did not carry the edit: %s", app.backend.lastSnapshot)
	}
	if strings.Contains(app.backend.lastSnapshot, "<script>") {
		t.Fatalf("snapshot carried the edit sync script")
	}
}

func TestSessionHandler_DownloadDefaultFilename(t *testing.T) {
	app := newTestApp(t)
	app.upload(t, "form.pdf", "application/pdf", []byte("%PDF"))
	app.do(t, httptest.NewRequest(http.MethodPost, "/api/v1/session/extract", nil))

	rr := app.do(t, httptest.NewRequest(http.MethodPost, "/api/v1/session/download/raw", nil))
	if rr.Code != http.StatusOK {
		t.Fatalf("expected %d, got %d", http.StatusOK, rr.Code)
	}
	want := "attachment; filename=filled_form_" + time.Now().UTC().Format("2006-01-02") + ".pdf"
	if got := rr.Header().Get("Content-Disposition"); got != want {
		t.Fatalf("expected %q, got %q", want, got)
	}
}

func TestSessionHandler_ExtractFailure(t *testing.T) {
	app := newTestApp(t)
	app.backend.extractStatus = http.StatusInternalServerError
	app.upload(t, "form.pdf", "application/pdf", []byte("%PDF"))

	rr := app.do(t, httptest.NewRequest(http.MethodPost, "/api/v1/session/extract", nil))
	if rr.Code != http.StatusBadGateway {
		t.Fatalf("expected %d, got %d", http.StatusBadGateway, rr.Code)
	}
	if !strings.Contains(rr.Body.String(), domain.ExtractFailedMessage) {
		t.Fatalf("unexpected body: %s", rr.Body.String())
	}

	rr = app.do(t, httptest.NewRequest(http.MethodGet, "/api/v1/session", nil))
	var view domain.SessionView
	_ = json.Unmarshal(rr.Body.Bytes(), &view)
	if view.State != domain.StateFileSelected || view.Error != domain.ExtractFailedMessage || view.File == nil {
		t.Fatalf("unexpected view after failure: %+v", view)
	}
}

func TestSessionHandler_ExtractWithoutFile(t *testing.T) {
	app := newTestApp(t)
	rr := app.do(t, httptest.NewRequest(http.MethodPost, "/api/v1/session/extract", nil))
	if rr.Code != http.StatusConflict {
		t.Fatalf("expected %d, got %d", http.StatusConflict, rr.Code)
	}
}

func TestSessionHandler_DownloadErrors(t *testing.T) {
	app := newTestApp(t)

	rr := app.do(t, httptest.NewRequest(http.MethodPost, "/api/v1/session/download/raw", nil))
	if rr.Code != http.StatusConflict || !strings.Contains(rr.Body.String(), domain.NoAutoFillMessage) {
		t.Fatalf("unexpected response without auto-fill: %d %s", rr.Code, rr.Body.String())
	}

	rr = app.do(t, httptest.NewRequest(http.MethodPost, "/api/v1/session/download/flat", nil))
	if rr.Code != http.StatusBadRequest {
		t.Fatalf("expected %d for unknown kind, got %d", http.StatusBadRequest, rr.Code)
	}

	app.backend.fillStatus = http.StatusInternalServerError
	app.upload(t, "form.pdf", "application/pdf", []byte("%PDF"))
	app.do(t, httptest.NewRequest(http.MethodPost, "/api/v1/session/extract", nil))
	rr = app.do(t, httptest.NewRequest(http.MethodPost, "/api/v1/session/download/interactive", nil))
	if rr.Code != http.StatusBadGateway || !strings.Contains(rr.Body.String(), domain.DownloadFailedMessage) {
		t.Fatalf("unexpected failure response: %d %s", rr.Code, rr.Body.String())
	}
}

func TestSessionHandler_UpdateField(t *testing.T) {
	app := newTestApp(t)
	app.upload(t, "form.pdf", "application/pdf", []byte("%PDF"))
	app.do(t, httptest.NewRequest(http.MethodPost, "/api/v1/session/extract", nil))

	rr := app.do(t, httptest.NewRequest(http.MethodPut, "/api/v1/session/fields/0", strings.NewReader(`{"value":"Anna"}`)))
	if rr.Code != http.StatusOK || !strings.Contains(rr.Body.String(), `"value":"Anna"`) {
		t.Fatalf("unexpected response: %d %s", rr.Code, rr.Body.String())
	}

	rr = app.do(t, httptest.NewRequest(http.MethodPut, "/api/v1/session/fields/5", strings.NewReader(`{"value":"x"}`)))
	if rr.Code != http.StatusBadRequest {
		t.Fatalf("expected %d, got %d", http.StatusBadRequest, rr.Code)
	}

	rr = app.do(t, httptest.NewRequest(http.MethodPut, "/api/v1/session/fields/abc", strings.NewReader(`{"value":"x"}`)))
	if rr.Code != http.StatusBadRequest {
		t.Fatalf("expected %d, got %d", http.StatusBadRequest, rr.Code)
	}
}

func TestSessionHandler_ResetReleasesReference(t *testing.T) {
	app := newTestApp(t)
	app.upload(t, "a.png", "image/png", []byte{1, 2, 3})
	app.upload(t, "b.png", "image/png", []byte{4, 5, 6})

	created, released := app.blobs.Stats()
	if created != 2 || released != 1 {
		t.Fatalf("expected 2 created and 1 released, got %d and %d", created, released)
	}

	for i := 0; i < 2; i++ {
		rr := app.do(t, httptest.NewRequest(http.MethodPost, "/api/v1/session/reset", nil))
		if rr.Code != http.StatusOK || !strings.Contains(rr.Body.String(), `"state":"empty"`) {
			t.Fatalf("unexpected reset response: %d %s", rr.Code, rr.Body.String())
		}
	}
	if app.blobs.Live() != 0 {
		t.Fatalf("expected no live references after reset")
	}

	rr := app.do(t, httptest.NewRequest(http.MethodGet, "/api/v1/session/preview", nil))
	if rr.Code != http.StatusNotFound {
		t.Fatalf("expected %d, got %d", http.StatusNotFound, rr.Code)
	}
}

func TestSessionHandler_UploadValidation(t *testing.T) {
	app := newTestApp(t)

	req := httptest.NewRequest(http.MethodPost, "/api/v1/session/file", strings.NewReader("not multipart"))
	rr := app.do(t, req)
	if rr.Code != http.StatusBadRequest {
		t.Fatalf("expected %d, got %d", http.StatusBadRequest, rr.Code)
	}

	rr = app.upload(t, "empty.pdf", "application/pdf", nil)
	if rr.Code != http.StatusBadRequest {
		t.Fatalf("expected %d for empty file, got %d", http.StatusBadRequest, rr.Code)
	}

	rr = app.upload(t, "big.pdf", "application/pdf", make([]byte, 1<<20+512<<10))
	if rr.Code != http.StatusRequestEntityTooLarge {
		t.Fatalf("expected %d for oversized file, got %d", http.StatusRequestEntityTooLarge, rr.Code)
	}
}
