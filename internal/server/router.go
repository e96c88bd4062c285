package server

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/render"
	"go.uber.org/zap"

	"github.com/SergeyParamoshkin/myblog/internal/article"
	"github.com/SergeyParamoshkin/myblog/internal/logger"
	"github.com/SergeyParamoshkin/myblog/internal/metrics"
)

// Options carries the collaborators of the API router.
type Options struct {
	Logger         *zap.Logger
	Metrics        *metrics.Metrics // optional
	Articles       *article.API
	RequestTimeout time.Duration // optional
}

// NewRouter builds the public API router.
func NewRouter(opts Options) chi.Router {
	log := opts.Logger
	if log == nil {
		log = zap.NewNop()
	}

	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(logger.Middleware(log))
	r.Use(middleware.Logger)
	r.Use(recoverer)
	if opts.Metrics != nil {
		r.Use(opts.Metrics.Middleware)
	}
	if opts.RequestTimeout > 0 {
		r.Use(middleware.Timeout(opts.RequestTimeout))
	}
	r.Use(render.SetContentType(render.ContentTypeJSON))

	r.NotFound(noRoute(http.StatusNotFound))
	r.MethodNotAllowed(noRoute(http.StatusMethodNotAllowed))

	r.Get("/", func(w http.ResponseWriter, r *http.Request) {
		if _, err := w.Write([]byte("root.")); err != nil {
			log.Error("write", zap.Error(err))
		}
	})

	r.Get("/ping", func(w http.ResponseWriter, r *http.Request) {
		if _, err := w.Write([]byte("pong")); err != nil {
			log.Error("write", zap.Error(err))
		}
	})

	// RESTy routes for "articles" resource
	opts.Articles.Routes(r)

	return r
}

// NewDiagRouter serves /metrics on the diagnostics listener.
func NewDiagRouter(m *metrics.Metrics) chi.Router {
	r := chi.NewRouter()
	r.Get("/metrics", m.Handler().ServeHTTP)

	return r
}
