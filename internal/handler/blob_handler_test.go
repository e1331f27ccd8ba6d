package handler

import (
	"archive/zip"
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"autofill-workbench/internal/domain"
)

func docxBytes(t *testing.T, documentXML string) []byte {
	t.Helper()
	var buf bytes.Buffer
	zw := zip.NewWriter(&buf)
	w, err := zw.Create("word/document.xml")
	if err != nil {
		t.Fatalf("zip: %v", err)
	}
	_, _ = w.Write([]byte(documentXML))
	if err := zw.Close(); err != nil {
		t.Fatalf("zip close: %v", err)
	}
	return buf.Bytes()
}

func uploadedView(t *testing.T, rr *httptest.ResponseRecorder) domain.SessionView {
	t.Helper()
	var view domain.SessionView
	if err := json.Unmarshal(rr.Body.Bytes(), &view); err != nil {
		t.Fatalf("decode view: %v", err)
	}
	if view.Preview == nil {
		t.Fatalf("expected preview in view: %s", rr.Body.String())
	}
	return view
}

func TestBlobHandler_DocxConversion(t *testing.T) {
	app := newTestApp(t)
	doc := `<w:document xmlns:w="http://schemas.openxmlformats.org/wordprocessingml/2006/main"><w:body>` +
		`<w:p><w:r><w:t>Hello DOCX</w:t></w:r></w:p></w:body></w:document>`
	view := uploadedView(t, app.upload(t, "form.docx", domain.MimeDOCX, docxBytes(t, doc)))

	rr := app.do(t, httptest.NewRequest(http.MethodGet, view.Preview.ObjectURL+"/html", nil))
	if rr.Code != http.StatusOK {
		t.Fatalf("expected %d, got %d", http.StatusOK, rr.Code)
	}
	if rr.Body.String() != "<p>Hello DOCX</p>" {
		t.Fatalf("unexpected fragment %q", rr.Body.String())
	}
}

func TestBlobHandler_DocxConversionFailure(t *testing.T) {
	app := newTestApp(t)
	view := uploadedView(t, app.upload(t, "broken.docx", "", []byte("not a zip")))

	rr := app.do(t, httptest.NewRequest(http.MethodGet, view.Preview.ObjectURL+"/html", nil))
	if rr.Code != http.StatusUnprocessableEntity {
		t.Fatalf("expected %d, got %d", http.StatusUnprocessableEntity, rr.Code)
	}
	if rr.Body.String() != domain.DocxPreviewFailed {
		t.Fatalf("unexpected body %q", rr.Body.String())
	}
}

func TestBlobHandler_OtherSessionsCannotReadReference(t *testing.T) {
	app := newTestApp(t)
	view := uploadedView(t, app.upload(t, "a.png", "image/png", []byte{1, 2, 3}))

	app.cookie = nil
	rr := app.do(t, httptest.NewRequest(http.MethodGet, view.Preview.ObjectURL, nil))
	if rr.Code != http.StatusNotFound {
		t.Fatalf("expected %d, got %d", http.StatusNotFound, rr.Code)
	}
}

func TestBlobHandler_ReleasedReferenceIsGone(t *testing.T) {
	app := newTestApp(t)
	first := uploadedView(t, app.upload(t, "a.png", "image/png", []byte{1}))
	second := uploadedView(t, app.upload(t, "b.png", "image/png", []byte{2}))

	rr := app.do(t, httptest.NewRequest(http.MethodGet, first.Preview.ObjectURL, nil))
	if rr.Code != http.StatusNotFound {
		t.Fatalf("expected released reference to 404, got %d", rr.Code)
	}
	rr = app.do(t, httptest.NewRequest(http.MethodGet, second.Preview.ObjectURL, nil))
	if rr.Code != http.StatusOK || !strings.HasPrefix(rr.Header().Get("Content-Type"), "image/png") {
		t.Fatalf("unexpected response for live reference: %d", rr.Code)
	}
}
