package service

import (
	"encoding/json"
	"fmt"
	"strings"

	"autofill-workbench/internal/domain"

	"golang.org/x/net/html"
)

const previewHead = `<meta charset="utf-8"><meta name="viewport" content="width=device-width, initial-scale=1">` +
	`<style>html,body{margin:0;padding:0;height:100%;} .fill{width:100%;height:100%;border:0;} ` +
	`.docx{box-sizing:border-box;padding:16px;height:100%;overflow:auto;}</style>`

// pdfZoomFragment asks the native viewer to fit the page width.
const pdfZoomFragment = "#zoom=page-width"

// docxHTMLSuffix is appended to a blob URL to get its converted HTML.
const docxHTMLSuffix = "/html"

// PreviewBuilder turns an uploaded file into a standalone preview document.
type PreviewBuilder struct {
	blobs     domain.BlobStore
	inspector domain.PDFInspector
	logger    domain.Logger
}

// NewPreviewBuilder creates a preview builder. inspector may be nil.
func NewPreviewBuilder(blobs domain.BlobStore, inspector domain.PDFInspector, logger domain.Logger) *PreviewBuilder {
	return &PreviewBuilder{
		blobs:     blobs,
		inspector: inspector,
		logger:    logger,
	}
}

// Classify picks the media class and render strategy. First match wins:
// image type, then DOCX by extension or type, then PDF type, then anything else.
func Classify(doc *domain.UploadedDocument) (domain.MediaClass, domain.RenderStrategy) {
	switch {
	case strings.HasPrefix(doc.ContentType, "image/"):
		return domain.MediaClassImage, domain.StrategyImageFill
	case doc.IsDOCX():
		return domain.MediaClassWordProcessing, domain.StrategyDocxConvert
	case doc.ContentType == domain.MimePDF:
		return domain.MediaClassPDF, domain.StrategyPDFViewer
	default:
		return domain.MediaClassOther, domain.StrategyGenericEmbed
	}
}

// Build allocates one blob for doc and returns the descriptor pointing at it.
// The caller owns the blob and must release it when the descriptor is
// superseded.
func (b *PreviewBuilder) Build(doc *domain.UploadedDocument) (*domain.PreviewDescriptor, error) {
	if err := doc.Validate(); err != nil {
		return nil, err
	}

	contentType := doc.ContentType
	if contentType == "" {
		contentType = domain.MimeOctetStream
	}
	blob, err := b.blobs.Create(contentType, doc.Content)
	if err != nil {
		return nil, fmt.Errorf("failed to allocate preview reference: %w", err)
	}

	class, strategy := Classify(doc)
	url := b.blobs.URL(blob.ID)
	desc := &domain.PreviewDescriptor{
		MediaClass: class,
		Strategy:   strategy,
		BlobID:     blob.ID,
		ObjectURL:  url,
		HTML:       previewDocument(strategy, url, doc.ContentType),
	}

	if strategy == domain.StrategyPDFViewer && b.inspector != nil {
		if n, err := b.inspector.PageCount(doc.Content); err != nil {
			b.logger.Warn("Could not read PDF page count", "file", doc.Name, "error", err)
		} else {
			desc.PageCount = n
		}
	}

	b.logger.Debug("Preview built", "file", doc.Name, "strategy", strategy, "blob_id", blob.ID)
	return desc, nil
}

func previewDocument(strategy domain.RenderStrategy, url, contentType string) string {
	var sb strings.Builder
	sb.WriteString("<!doctype html><html><head>")
	sb.WriteString(previewHead)
	sb.WriteString("</head><body>")
	sb.WriteString(previewBody(strategy, url, contentType))
	sb.WriteString("</body></html>")
	return sb.String()
}

func previewBody(strategy domain.RenderStrategy, url, contentType string) string {
	attrURL := html.EscapeString(url)
	switch strategy {
	case domain.StrategyImageFill:
		return `<img src="` + attrURL + `" class="fill" style="object-fit:contain" />`
	case domain.StrategyDocxConvert:
		return docxPlaceholder(url + docxHTMLSuffix)
	case domain.StrategyPDFViewer:
		return `<iframe src="` + html.EscapeString(url+pdfZoomFragment) + `" class="fill"></iframe>`
	default:
		if contentType == "" {
			contentType = domain.MimeOctetStream
		}
		return `<object data="` + attrURL + `" type="` + html.EscapeString(contentType) + `" class="fill">` +
			`<iframe src="` + attrURL + `" class="fill"></iframe></object>`
	}
}

// docxPlaceholder renders the loading container and the script that swaps
// in the converted HTML. Failures stay inside the frame.
func docxPlaceholder(convertURL string) string {
	quotedURL, _ := json.Marshal(convertURL)
	quotedFailure, _ := json.Marshal(domain.DocxPreviewFailed)
	return `<div id="docx" class="docx">Loading DOCX preview...</div>` +
		`<script>(function(){var el=document.getElementById('docx');` +
		`fetch(` + string(quotedURL) + `,{credentials:'same-origin'})` +
		`.then(function(r){if(!r.ok){throw new Error('conversion failed: '+r.status);}return r.text();})` +
		`.then(function(h){el.innerHTML=h;})` +
		`.catch(function(err){el.textContent=` + string(quotedFailure) + `;console.error(err);});})();</script>`
}
