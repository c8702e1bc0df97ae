package rest

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"go.uber.org/zap"

	"kgraph/application/editor"
	"kgraph/interfaces/http/rest/handlers"
	"kgraph/interfaces/http/rest/middleware"
)

// Router creates and configures the HTTP router
type Router struct {
	editor     *editor.Editor
	logger     *zap.Logger
	enableCORS bool
}

// NewRouter creates a new router instance
func NewRouter(ed *editor.Editor, logger *zap.Logger, enableCORS bool) *Router {
	return &Router{
		editor:     ed,
		logger:     logger,
		enableCORS: enableCORS,
	}
}

// Setup configures all routes and middleware
func (rt *Router) Setup() http.Handler {
	router := chi.NewRouter()

	// Global middleware
	router.Use(chimiddleware.RequestID)
	router.Use(chimiddleware.RealIP)
	router.Use(chimiddleware.Recoverer)
	router.Use(middleware.Logger(rt.logger))

	if rt.enableCORS {
		router.Use(cors.Handler(cors.Options{
			AllowedOrigins:   []string{"http://localhost:4200", "http://localhost:3000"},
			AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
			AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type", "X-Request-ID"},
			ExposedHeaders:   []string{"X-Request-ID"},
			AllowCredentials: true,
			MaxAge:           300,
		}))
	}

	// Health check
	router.Get("/health", rt.healthCheck)
	router.Get("/ready", rt.readinessCheck)

	// API v1 routes
	router.Route("/api/v1", func(r chi.Router) {
		editorHandler := handlers.NewEditorHandler(rt.editor, rt.logger)

		r.Get("/state", editorHandler.GetState)
		r.Post("/events", editorHandler.DispatchEvent)
		r.Get("/export", editorHandler.GetExport)

		r.Route("/graphs", func(r chi.Router) {
			r.Get("/{graphID}/elements", editorHandler.GetElements)
			r.Get("/{graphID}/viewport", editorHandler.GetViewport)
			r.Put("/{graphID}/viewport", editorHandler.PutViewport)
			r.Post("/{graphID}/layout", editorHandler.RunLayout)
		})

		r.Route("/nodes", func(r chi.Router) {
			r.Post("/{nodeID}/children", editorHandler.AddChildNode)
		})
	})

	return router
}

// healthCheck handles health check requests
func (rt *Router) healthCheck(w http.ResponseWriter, req *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	w.Write([]byte(`{"status":"healthy"}`))
}

// readinessCheck handles readiness check requests
func (rt *Router) readinessCheck(w http.ResponseWriter, req *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	w.Write([]byte(`{"status":"ready"}`))
}
