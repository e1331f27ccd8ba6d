package repository

import (
	"bytes"
	"fmt"

	"github.com/pdfcpu/pdfcpu/pkg/api"
	"github.com/pdfcpu/pdfcpu/pkg/pdfcpu/model"
)

// PDFCPUInspector implements domain.PDFInspector on top of pdfcpu.
type PDFCPUInspector struct{}

// NewPDFCPUInspector creates a new inspector.
func NewPDFCPUInspector() *PDFCPUInspector {
	return &PDFCPUInspector{}
}

func relaxedConfiguration() *model.Configuration {
	conf := model.NewDefaultConfiguration()
	conf.ValidationMode = model.ValidationRelaxed
	return conf
}

// PageCount returns the number of pages of the PDF in content.
func (i *PDFCPUInspector) PageCount(content []byte) (int, error) {
	n, err := api.PageCount(bytes.NewReader(content), relaxedConfiguration())
	if err != nil {
		return 0, fmt.Errorf("failed to count pages: %w", err)
	}
	return n, nil
}

// Validate checks that content parses as a PDF.
func (i *PDFCPUInspector) Validate(content []byte) error {
	if err := api.Validate(bytes.NewReader(content), relaxedConfiguration()); err != nil {
		return fmt.Errorf("invalid PDF: %w", err)
	}
	return nil
}
