package config

import (
	"net/http"

	"autofill-workbench/internal/domain"
	"autofill-workbench/internal/repository"
	"autofill-workbench/internal/service"
	"autofill-workbench/pkg/logger"
)

// BlobBasePath is the URL prefix ephemeral references are served under.
const BlobBasePath = "/blobs"

// Container holds all application dependencies
type Container struct {
	Config         domain.Config
	Logger         domain.Logger
	SupabaseClient domain.SupabaseClient
	BlobStore      *repository.MemoryBlobStore
	Backend        domain.AutoFillBackend
	Inspector      domain.PDFInspector
	Archive        domain.FillArchive
	Previews       *service.PreviewBuilder
	Sessions       *service.SessionManager
}

// NewContainer creates a new dependency injection container from
// environment configuration.
func NewContainer() *Container {
	return NewContainerWithConfig(NewConfig())
}

// NewContainerWithConfig wires every dependency from cfg.
func NewContainerWithConfig(cfg domain.Config) *Container {
	appLogger := logger.NewLogger(cfg.GetLogLevel())

	// The backend client relies on per-call context deadlines
	httpClient := &http.Client{}
	backend := repository.NewHTTPAutoFillBackend(cfg.GetAPIBase(), httpClient, appLogger)

	blobs := repository.NewMemoryBlobStore(BlobBasePath, appLogger)
	inspector := repository.NewPDFCPUInspector()
	previews := service.NewPreviewBuilder(blobs, inspector, appLogger)

	// Initialize Supabase archive when configured
	supabaseClient := repository.NewSupabaseClient(cfg, appLogger)
	var archive domain.FillArchive = repository.NoopFillArchive{}
	if supabaseClient.Enabled() {
		if err := supabaseClient.Initialize(); err != nil {
			appLogger.Error("Supabase archive disabled", err)
		} else {
			archive = repository.NewSupabaseFillArchive(supabaseClient, cfg.GetArchiveBucket(), appLogger)
		}
	}

	sessions := service.NewSessionManager(&service.SessionDeps{
		Blobs:          blobs,
		Previews:       previews,
		Backend:        backend,
		Inspector:      inspector,
		Archive:        archive,
		RequestTimeout: cfg.GetRequestTimeout(),
		Logger:         appLogger,
	}, cfg.GetSessionTTL())

	return &Container{
		Config:         cfg,
		Logger:         appLogger,
		SupabaseClient: supabaseClient,
		BlobStore:      blobs,
		Backend:        backend,
		Inspector:      inspector,
		Archive:        archive,
		Previews:       previews,
		Sessions:       sessions,
	}
}

// GetConfig returns the configuration instance
func (c *Container) GetConfig() domain.Config {
	return c.Config
}

// GetLogger returns the logger instance
func (c *Container) GetLogger() domain.Logger {
	return c.Logger
}

// GetSupabaseClient returns the Supabase client instance
func (c *Container) GetSupabaseClient() domain.SupabaseClient {
	return c.SupabaseClient
}

// GetSessions returns the session manager
func (c *Container) GetSessions() *service.SessionManager {
	return c.Sessions
}
