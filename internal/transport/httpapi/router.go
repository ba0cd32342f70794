package httpapi

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
)

// Routes mounts every intake route on a chi router.
func (h *Handler) Routes(logger *slog.Logger) chi.Router {
	r := chi.NewRouter()
	r.Use(RequestID, Logger(logger), Recovery(logger))

	r.Get("/healthz", h.Healthz)
	if h.deps.Metrics != nil {
		r.Method(http.MethodGet, "/metrics", h.deps.Metrics)
	}

	r.Route("/intake", func(r chi.Router) {
		r.Post("/upload", h.Upload)
		r.Post("/pointer", h.StoragePointer)
		r.Post("/mail", h.MailPush)
	})
	r.Post("/billing/status", h.BillingStatus)
	return r
}

// Wrap applies the standard middleware to a single handler, for runtimes
// that route by entry point rather than by path.
func Wrap(logger *slog.Logger, fn http.HandlerFunc) http.Handler {
	return Chain(RequestID, Logger(logger), Recovery(logger))(fn)
}
