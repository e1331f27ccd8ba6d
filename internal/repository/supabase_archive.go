package repository

import (
	"bytes"
	"context"
	"fmt"
	"strings"
	"time"

	"autofill-workbench/internal/domain"

	"github.com/google/uuid"
	storage "github.com/supabase-community/storage-go"
	"golang.org/x/sync/errgroup"
)

const fillRequestsTable = "fill_requests"

// SupabaseFillArchive stores every successful download in a storage
// bucket and records it in the fill_requests table.
type SupabaseFillArchive struct {
	supabaseClient domain.SupabaseClient
	bucket         string
	logger         domain.Logger
}

// NewSupabaseFillArchive creates an archive writing into bucket.
func NewSupabaseFillArchive(supabaseClient domain.SupabaseClient, bucket string, logger domain.Logger) *SupabaseFillArchive {
	return &SupabaseFillArchive{
		supabaseClient: supabaseClient,
		bucket:         bucket,
		logger:         logger,
	}
}

// Archive uploads the PDF and its snapshot in parallel, then inserts the row.
func (a *SupabaseFillArchive) Archive(ctx context.Context, sessionID string, doc *domain.UploadedDocument, pdf *domain.FilledPDF) error {
	client := a.supabaseClient.DB()
	if client == nil {
		return fmt.Errorf("supabase client not initialized")
	}

	archiveID := uuid.New().String()
	prefix := fmt.Sprintf("%s/%s", sessionID, archiveID)
	pdfPath := prefix + "/" + sanitizeObjectName(pdf.Filename)
	snapshotPath := prefix + "/snapshot.html"

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		return a.upload(gctx, pdfPath, domain.MimePDF, pdf.Content)
	})
	g.Go(func() error {
		return a.upload(gctx, snapshotPath, "text/html; charset=utf-8", []byte(pdf.Snapshot))
	})
	if err := g.Wait(); err != nil {
		return err
	}

	sourceName := ""
	if doc != nil {
		sourceName = doc.Name
	}
	row := map[string]interface{}{
		"id":                archiveID,
		"session_id":        sessionID,
		"kind":              string(pdf.Kind),
		"source_name":       sourceName,
		"filename":          pdf.Filename,
		"pdf_path":          pdfPath,
		"snapshot_path":     snapshotPath,
		"snapshot_fallback": pdf.SnapshotFallback,
		"created_at":        time.Now().UTC(),
	}
	if _, _, err := client.From(fillRequestsTable).Insert(row, false, "", "", "").Execute(); err != nil {
		return fmt.Errorf("failed to record fill request: %w", err)
	}

	a.logger.Info("Fill archived", "session_id", sessionID, "archive_id", archiveID, "kind", pdf.Kind)
	return nil
}

func (a *SupabaseFillArchive) upload(ctx context.Context, path, contentType string, content []byte) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	upsert := false
	_, err := a.supabaseClient.DB().Storage.UploadFile(a.bucket, path, bytes.NewReader(content), storage.FileOptions{
		ContentType: &contentType,
		Upsert:      &upsert,
	})
	if err != nil {
		return fmt.Errorf("failed to upload %s: %w", path, err)
	}
	return nil
}

func sanitizeObjectName(name string) string {
	name = strings.TrimSpace(name)
	name = strings.NewReplacer("/", "_", "\\", "_").Replace(name)
	if name == "" {
		return "filled_form.pdf"
	}
	return name
}

// NoopFillArchive is used when no archive is configured.
type NoopFillArchive struct{}

func (NoopFillArchive) Archive(context.Context, string, *domain.UploadedDocument, *domain.FilledPDF) error {
	return nil
}
