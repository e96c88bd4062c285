package article

import (
	"go.uber.org/zap"

	"github.com/SergeyParamoshkin/myblog/internal/crud"
	"github.com/SergeyParamoshkin/myblog/internal/model"
)

// Store persists articles in the article collection.
type Store struct {
	*crud.Service[model.Article]
}

// NewStore binds the article record type to coll.
func NewStore(coll crud.Collection, logger *zap.Logger) *Store {
	return &Store{
		Service: crud.New[model.Article](model.ArticleTable, coll, logger),
	}
}
