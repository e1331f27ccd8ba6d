package handler

import (
	"net/http"

	"github.com/gorilla/mux"
	"github.com/rs/cors"
)

// NewRouter creates a new HTTP router with all routes configured
func NewRouter(
	sessionHandler *SessionHandler,
	blobHandler *BlobHandler,
	sessionMiddleware func(http.Handler) http.Handler,
	allowedOrigins []string,
) http.Handler {
	router := mux.NewRouter()

	// Health check endpoint (no session required)
	router.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte(`{"status":"ok","service":"autofill-workbench"}`))
	}).Methods(http.MethodGet)

	// Everything else runs inside the caller's session
	withSession := router.NewRoute().Subrouter()
	withSession.Use(sessionMiddleware)

	withSession.HandleFunc("/", IndexHandler).Methods(http.MethodGet)

	// Ephemeral preview references
	withSession.HandleFunc("/blobs/{id}", blobHandler.GetBlob).Methods(http.MethodGet)
	withSession.HandleFunc("/blobs/{id}/html", blobHandler.GetBlobHTML).Methods(http.MethodGet)

	// Session API
	api := withSession.PathPrefix("/api/v1/session").Subrouter()
	api.HandleFunc("", sessionHandler.GetSession).Methods(http.MethodGet)
	api.HandleFunc("/file", sessionHandler.UploadFile).Methods(http.MethodPost)
	api.HandleFunc("/preview", sessionHandler.GetPreview).Methods(http.MethodGet)
	api.HandleFunc("/extract", sessionHandler.Extract).Methods(http.MethodPost)
	api.HandleFunc("/autofill", sessionHandler.GetAutoFill).Methods(http.MethodGet)
	api.HandleFunc("/surface/edits", sessionHandler.ApplyEdits).Methods(http.MethodPost)
	api.HandleFunc("/fields/{index}", sessionHandler.UpdateField).Methods(http.MethodPut)
	api.HandleFunc("/download/{kind}", sessionHandler.Download).Methods(http.MethodPost)
	api.HandleFunc("/reset", sessionHandler.Reset).Methods(http.MethodPost)

	// Configure CORS
	c := cors.New(cors.Options{
		AllowedOrigins: allowedOrigins,
		AllowedMethods: []string{
			http.MethodGet,
			http.MethodPost,
			http.MethodPut,
			http.MethodOptions,
		},
		AllowedHeaders: []string{
			"Accept",
			"Content-Type",
			"X-CSRF-Token",
		},
		ExposedHeaders: []string{
			"Content-Disposition",
		},
		AllowCredentials: true,
		MaxAge:           300, // Maximum value not ignored by any of major browsers
	})

	return c.Handler(router)
}
