package chi

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	chiMiddleware "github.com/go-chi/chi/v5/middleware"
	"go.uber.org/zap"

	"github.com/kailas-cloud/vidsearch/internal/metrics"
)

// NewRouter mounts the API on a chi router with recovery, request IDs,
// request logging, bearer auth and HTTP metrics.
func NewRouter(s *Server, apiKeys []string, log *zap.Logger) http.Handler {
	r := chi.NewRouter()
	r.Use(jsonRecoverer(log))
	r.Use(chiMiddleware.RequestID)
	r.Use(wideEventMiddleware(log))
	r.Use(BearerAuthMiddleware(apiKeys))
	r.Use(metrics.Middleware())

	r.NotFound(func(w http.ResponseWriter, _ *http.Request) {
		writeError(w, http.StatusNotFound, CodeNotFound, "route not found")
	})
	r.MethodNotAllowed(func(w http.ResponseWriter, _ *http.Request) {
		writeError(w, http.StatusMethodNotAllowed, CodeBadRequest, "method not allowed")
	})

	r.Get("/health", s.HealthCheck)
	r.Get("/metrics", s.Metrics)

	r.Route("/api", func(r chi.Router) {
		r.Post("/search", s.Search)
		r.Post("/search/vector", s.SearchVector)

		r.Route("/videos", func(r chi.Router) {
			r.Get("/", s.ListVideos)
			r.Post("/", s.IngestVideo)
			r.Get("/{id}", s.GetVideo)
			r.Delete("/{id}", s.DeleteVideo)
		})
	})
	return r
}
