package articlerequest

import (
	"errors"
	"fmt"
	"net/http"
	"regexp"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/SergeyParamoshkin/myblog/internal/model"
)

// Fields searched by the keyword filter.
var keywordFields = []string{"title", "author", "content"}

var errMissingArticle = errors.New("missing required Article fields")

// ArticleRequest is the request payload for the Article data model.
type ArticleRequest struct {
	*model.Article
}

// Bind runs after the body has been decoded. The identifier is always taken
// from the URL or assigned by storage, never from the body.
func (a *ArticleRequest) Bind(r *http.Request) error {
	// a.Article is nil if no Article fields are sent in the request.
	if a.Article == nil {
		return errMissingArticle
	}

	a.Article.ID = nil // unset the protected ID

	return nil
}

// NewArticleRequest is the payload for creating an Article. Unlike an
// update, every field must be present.
type NewArticleRequest struct {
	ArticleRequest
}

func (a *NewArticleRequest) Bind(r *http.Request) error {
	if err := a.ArticleRequest.Bind(r); err != nil {
		return err
	}

	switch {
	case a.Title == nil:
		return missingField("title")
	case a.Author == nil:
		return missingField("author")
	case a.Content == nil:
		return missingField("content")
	}

	return nil
}

func missingField(name string) error {
	return fmt.Errorf("missing field %q", name)
}

// ArticleQuery is the request payload for listing articles.
type ArticleQuery struct {
	ID      *primitive.ObjectID `json:"id"`
	Keyword string              `json:"keyword"`
}

// Bind accepts any decoded query. A malformed id fails earlier, while the
// body is decoded.
func (q *ArticleQuery) Bind(r *http.Request) error {
	return nil
}

// Filter builds the document-store filter for q. An id constrains the
// result to that document; a non-empty keyword matches any of title,
// author or content case-insensitively. Both together are ANDed. The zero
// query matches every article.
func (q *ArticleQuery) Filter() bson.M {
	filter := bson.M{}

	if q.ID != nil {
		filter["_id"] = *q.ID
	}

	if q.Keyword != "" {
		pattern := regexp.QuoteMeta(q.Keyword)
		or := make(bson.A, 0, len(keywordFields))
		for _, field := range keywordFields {
			or = append(or, bson.M{field: bson.M{"$regex": pattern, "$options": "i"}})
		}
		filter["$or"] = or
	}

	return filter
}
