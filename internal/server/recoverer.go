package server

import (
	"fmt"
	"net/http"

	"github.com/go-chi/render"
	"go.uber.org/zap"

	"github.com/SergeyParamoshkin/myblog/internal/bizerr"
	"github.com/SergeyParamoshkin/myblog/internal/logger"
	"github.com/SergeyParamoshkin/myblog/internal/resp"
)

// recoverer turns a handler panic into an internal error envelope. The
// panic value and stack are logged, never rendered.
func recoverer(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		defer func() {
			rvr := recover()
			if rvr == nil {
				return
			}
			if rvr == http.ErrAbortHandler {
				panic(rvr)
			}

			log := logger.FromContext(r.Context())
			log.Error("panic", zap.Any("panic", rvr), zap.Stack("stack"))

			if err := render.Render(w, r, resp.FromError(bizerr.Internal(fmt.Errorf("panic: %v", rvr)))); err != nil {
				log.Error("render", zap.Error(err))
			}
		}()

		next.ServeHTTP(w, r)
	})
}

func noRoute(status int) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if err := render.Render(w, r, resp.NoRoute(status)); err != nil {
			logger.FromContext(r.Context()).Error("render", zap.Error(err))
		}
	}
}
