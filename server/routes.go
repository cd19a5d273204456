package server

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/richinex/llmbridge/llm"
	"github.com/richinex/llmbridge/storage"
)

// maxBodyBytes bounds request bodies; memo content is whole web pages.
const maxBodyBytes = 4 << 20

// Options configures request handling.
type Options struct {
	// DefaultProvider serves requests that name no provider.
	DefaultProvider llm.ProviderType

	// ChatDefaults fill the max tokens and temperature a request leaves
	// unset. Its Model is ignored: each live provider keeps its own model.
	ChatDefaults llm.ChatOptions

	Logger *slog.Logger
}

// NewRouter creates a chi router with every route registered.
func NewRouter(registry *Registry, store storage.Store, opts Options) *chi.Mux {
	h := NewHandler(registry, store, opts)

	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(requestLogger(h.logger))
	r.Use(middleware.Recoverer)
	r.Use(middleware.RequestSize(maxBodyBytes))

	r.Get("/health", h.Health)

	r.Route("/api/v1", func(r chi.Router) {
		r.Get("/providers", h.ListProviders)
		r.Post("/providers/{id}/validate", h.ValidateProvider)
		r.Post("/chat", h.Chat)

		r.Route("/sessions", func(r chi.Router) {
			r.Get("/", h.ListSessions)
			r.Get("/{id}", h.GetSession)
			r.Delete("/{id}", h.DeleteSession)
		})

		r.Route("/memos", func(r chi.Router) {
			r.Post("/", h.CreateMemo)
			r.Get("/", h.ListMemos)
			r.Get("/{id}", h.GetMemo)
			r.Delete("/{id}", h.DeleteMemo)
		})
	})

	return r
}

// requestLogger logs one line per request.
func requestLogger(logger *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
			start := time.Now()
			next.ServeHTTP(ww, r)
			logger.Info("request",
				"method", r.Method,
				"path", r.URL.Path,
				"status", ww.Status(),
				"bytes", ww.BytesWritten(),
				"duration", time.Since(start),
				"request_id", middleware.GetReqID(r.Context()),
			)
		})
	}
}
