package article

import (
	"context"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/render"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.uber.org/zap"

	"github.com/SergeyParamoshkin/myblog/internal/bizerr"
	"github.com/SergeyParamoshkin/myblog/internal/logger"
	"github.com/SergeyParamoshkin/myblog/internal/resp"
)

type ctxKey int8

const ctxKeyArticleID ctxKey = iota

// ArticleIDCtx middleware parses the {id} URL parameter into an ObjectID
// and puts it on the request context. A missing or malformed id stops the
// request here with a validation error, before any storage call.
func ArticleIDCtx(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		raw := chi.URLParam(r, "id")

		oid, err := primitive.ObjectIDFromHex(raw)
		if raw == "" || err != nil {
			logger.FromContext(r.Context()).Warn("can't parse id to ObjectId",
				zap.String("id", raw), zap.Error(err))

			if err := render.Render(w, r, resp.FromError(bizerr.Validation("id"))); err != nil {
				logger.FromContext(r.Context()).Error("render", zap.Error(err))
			}

			return
		}

		ctx := context.WithValue(r.Context(), ctxKeyArticleID, oid)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// articleID returns the id stored by ArticleIDCtx.
func articleID(ctx context.Context) (primitive.ObjectID, bool) {
	oid, ok := ctx.Value(ctxKeyArticleID).(primitive.ObjectID)

	return oid, ok
}
