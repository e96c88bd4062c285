package article

import (
	"context"
	"errors"
	"io"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/render"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.uber.org/zap"

	"github.com/SergeyParamoshkin/myblog/internal/articlerequest"
	"github.com/SergeyParamoshkin/myblog/internal/bizerr"
	"github.com/SergeyParamoshkin/myblog/internal/logger"
	"github.com/SergeyParamoshkin/myblog/internal/model"
	"github.com/SergeyParamoshkin/myblog/internal/resp"
)

// Repository is what the handlers need from article storage.
type Repository interface {
	ListWithFilter(ctx context.Context, filter bson.M) ([]model.Article, error)
	Save(ctx context.Context, record *model.Article) (string, error)
	UpdateByID(ctx context.Context, id primitive.ObjectID, record *model.Article) (int64, error)
	RemoveByID(ctx context.Context, id primitive.ObjectID) (int64, error)
}

// API serves the articles resource.
type API struct {
	repo Repository
}

func NewAPI(repo Repository) *API {
	return &API{repo: repo}
}

// Routes mounts the articles resource:
//
//	GET    /articles       list, optionally filtered by id and keyword
//	POST   /articles       create
//	PUT    /articles/{id}  partial update
//	DELETE /articles/{id}  delete
//
// PUT and DELETE without an id answer with a validation error on id.
func (a *API) Routes(r chi.Router) {
	r.Route("/articles", func(r chi.Router) {
		r.Get("/", a.ListArticles)
		r.Post("/", a.CreateArticle)
		r.Put("/", missingID)
		r.Delete("/", missingID)

		r.Route("/{id}", func(r chi.Router) {
			r.Use(ArticleIDCtx)
			r.Put("/", a.UpdateArticle)
			r.Delete("/", a.DeleteArticle)
		})
	})
}

// ListArticles returns every article matching the query. The query comes
// from the JSON body; with no body the id and keyword URL parameters are
// used instead.
func (a *API) ListArticles(w http.ResponseWriter, r *http.Request) {
	query, err := decodeQuery(r)
	if err != nil {
		renderError(w, r, err)

		return
	}

	list, err := a.repo.ListWithFilter(r.Context(), query.Filter())
	if err != nil {
		renderError(w, r, err)

		return
	}

	renderOK(w, r, list)
}

// CreateArticle persists the posted Article and returns its new id.
func (a *API) CreateArticle(w http.ResponseWriter, r *http.Request) {
	data := &articlerequest.NewArticleRequest{}
	if err := bind(r, data); err != nil {
		renderError(w, r, err)

		return
	}

	id, err := a.repo.Save(r.Context(), data.Article)
	if err != nil {
		renderError(w, r, err)

		return
	}

	logger.FromContext(r.Context()).Info("save article", zap.String("id", id))
	renderOK(w, r, id)
}

// UpdateArticle merges the posted fields into the article and returns the
// modified count.
func (a *API) UpdateArticle(w http.ResponseWriter, r *http.Request) {
	oid, ok := articleID(r.Context())
	if !ok {
		renderError(w, r, bizerr.Validation("id"))

		return
	}

	data := &articlerequest.ArticleRequest{}
	if err := bind(r, data); err != nil {
		renderError(w, r, err)

		return
	}

	modified, err := a.repo.UpdateByID(r.Context(), oid, data.Article)
	if err != nil {
		renderError(w, r, err)

		return
	}

	logger.FromContext(r.Context()).Info("update article",
		zap.String("id", oid.Hex()), zap.Int64("effect", modified))
	renderOK(w, r, modified)
}

// DeleteArticle removes the article and returns the deleted count.
func (a *API) DeleteArticle(w http.ResponseWriter, r *http.Request) {
	oid, ok := articleID(r.Context())
	if !ok {
		renderError(w, r, bizerr.Validation("id"))

		return
	}

	deleted, err := a.repo.RemoveByID(r.Context(), oid)
	if err != nil {
		renderError(w, r, err)

		return
	}

	logger.FromContext(r.Context()).Info("delete article",
		zap.String("id", oid.Hex()), zap.Int64("effect", deleted))
	renderOK(w, r, deleted)
}

// missingID answers PUT and DELETE sent without an article id.
func missingID(w http.ResponseWriter, r *http.Request) {
	renderError(w, r, bizerr.Validation("id"))
}

// bind decodes the body into v and reports failures as argument errors.
func bind(r *http.Request, v render.Binder) error {
	if err := render.Bind(r, v); err != nil {
		logger.FromContext(r.Context()).Error("json extractor error",
			zap.String("uri", r.RequestURI), zap.Error(err))

		return bizerr.Argument(err)
	}

	return nil
}

func decodeQuery(r *http.Request) (*articlerequest.ArticleQuery, error) {
	query := &articlerequest.ArticleQuery{}

	err := render.Bind(r, query)
	if err == nil {
		return query, nil
	}
	if !errors.Is(err, io.EOF) {
		logger.FromContext(r.Context()).Error("json extractor error",
			zap.String("uri", r.RequestURI), zap.Error(err))

		return nil, bizerr.Argument(err)
	}

	values := r.URL.Query()
	query.Keyword = values.Get("keyword")

	if raw := values.Get("id"); raw != "" {
		oid, err := primitive.ObjectIDFromHex(raw)
		if err != nil {
			return nil, bizerr.Validation("id")
		}
		query.ID = &oid
	}

	return query, nil
}

func renderOK(w http.ResponseWriter, r *http.Request, data interface{}) {
	if err := render.Render(w, r, resp.OK(data)); err != nil {
		logger.FromContext(r.Context()).Error("render", zap.Error(err))
	}
}

func renderError(w http.ResponseWriter, r *http.Request, err error) {
	if err := render.Render(w, r, resp.FromError(err)); err != nil {
		logger.FromContext(r.Context()).Error("render", zap.Error(err))
	}
}
