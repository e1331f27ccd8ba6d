package repository

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/textproto"
	"strings"

	"autofill-workbench/internal/domain"
	apperrors "autofill-workbench/pkg/errors"
)

// Backend endpoint paths.
const (
	extractPath         = "/extract_html"
	interactiveFillPath = "/agent_fill_pdf"
	rawFillPath         = "/raw_agent_fill_pdf"
)

// maxErrorBody caps how much of a failed response is kept for logs.
const maxErrorBody = 2048

// HTTPAutoFillBackend talks to the external extraction/fill service.
type HTTPAutoFillBackend struct {
	baseURL string
	client  *http.Client
	logger  domain.Logger
}

// NewHTTPAutoFillBackend creates a backend client. Deadlines come from the
// caller's context; client may be nil.
func NewHTTPAutoFillBackend(baseURL string, client *http.Client, logger domain.Logger) *HTTPAutoFillBackend {
	if client == nil {
		client = &http.Client{}
	}
	return &HTTPAutoFillBackend{
		baseURL: strings.TrimRight(baseURL, "/"),
		client:  client,
		logger:  logger,
	}
}

// ExtractHTML uploads the document and returns the extracted fields and
// auto-fill markup.
func (b *HTTPAutoFillBackend) ExtractHTML(ctx context.Context, doc *domain.UploadedDocument) (*domain.ExtractResult, error) {
	if doc == nil {
		return nil, domain.ErrNoFile
	}

	body, contentType, err := encodeMultipart(func(mw *multipart.Writer) error {
		return writeFilePart(mw, doc)
	})
	if err != nil {
		return nil, apperrors.NewInternalError("failed to encode extract request", err)
	}

	resp, err := b.post(ctx, extractPath, body, contentType)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	var result domain.ExtractResult
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return nil, apperrors.NewProcessingError("invalid extract response", err)
	}
	if result.Fields == nil {
		result.Fields = []domain.FormFieldRecord{}
	}

	b.logger.Info("Extraction completed", "file", doc.Name, "fields", len(result.Fields), "html_bytes", len(result.HTML))
	return &result, nil
}

// FillPDF sends the snapshot (and the original file when one is named) to
// the fill endpoint for kind and returns the PDF bytes.
func (b *HTTPAutoFillBackend) FillPDF(ctx context.Context, kind domain.DownloadKind, snapshot string, doc *domain.UploadedDocument) (*domain.FillResponse, error) {
	path, err := fillPath(kind)
	if err != nil {
		return nil, err
	}

	body, contentType, err := encodeMultipart(func(mw *multipart.Writer) error {
		if err := mw.WriteField("html", snapshot); err != nil {
			return err
		}
		if doc != nil && doc.Name != "" {
			return writeFilePart(mw, doc)
		}
		return nil
	})
	if err != nil {
		return nil, apperrors.NewInternalError("failed to encode fill request", err)
	}

	resp, err := b.post(ctx, path, body, contentType)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	content, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, apperrors.NewNetworkError("failed to read fill response", err)
	}

	b.logger.Info("Fill completed", "kind", kind, "bytes", len(content))
	return &domain.FillResponse{
		Content:            content,
		ContentType:        resp.Header.Get("Content-Type"),
		ContentDisposition: resp.Header.Get("Content-Disposition"),
	}, nil
}

func fillPath(kind domain.DownloadKind) (string, error) {
	switch kind {
	case domain.DownloadInteractive:
		return interactiveFillPath, nil
	case domain.DownloadRaw:
		return rawFillPath, nil
	default:
		return "", domain.ErrUnsupportedDownload
	}
}

// post issues the request and turns transport failures and non-2xx
// answers into AppErrors. On success the caller owns resp.Body.
func (b *HTTPAutoFillBackend) post(ctx context.Context, path string, body io.Reader, contentType string) (*http.Response, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, b.baseURL+path, body)
	if err != nil {
		return nil, apperrors.NewInternalError("failed to build request", err)
	}
	req.Header.Set("Content-Type", contentType)

	resp, err := b.client.Do(req)
	if err != nil {
		b.logger.Error("Backend request failed", err, "path", path)
		return nil, apperrors.NewNetworkError("backend unreachable", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		snippet, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
		resp.Body.Close()
		b.logger.Warn("Backend returned non-success status", "path", path, "status", resp.StatusCode, "body", string(snippet))
		return nil, apperrors.NewUpstreamError(fmt.Sprintf("request failed: %s", path), resp.StatusCode)
	}
	return resp, nil
}

func encodeMultipart(write func(mw *multipart.Writer) error) (*bytes.Buffer, string, error) {
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	if err := write(mw); err != nil {
		return nil, "", err
	}
	if err := mw.Close(); err != nil {
		return nil, "", err
	}
	return &buf, mw.FormDataContentType(), nil
}

// writeFilePart writes the "file" part with the document's declared type;
// CreateFormFile would force application/octet-stream.
func writeFilePart(mw *multipart.Writer, doc *domain.UploadedDocument) error {
	contentType := doc.ContentType
	if contentType == "" {
		contentType = domain.MimeOctetStream
	}
	h := make(textproto.MIMEHeader)
	h.Set("Content-Disposition", fmt.Sprintf(`form-data; name="file"; filename="%s"`, escapeQuotes(doc.Name)))
	h.Set("Content-Type", contentType)
	part, err := mw.CreatePart(h)
	if err != nil {
		return err
	}
	_, err = part.Write(doc.Content)
	return err
}

var quoteEscaper = strings.NewReplacer("\\", "\\\\", `"`, "\\\"")

func escapeQuotes(s string) string {
	return quoteEscaper.Replace(s)
}
