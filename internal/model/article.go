package model

import "go.mongodb.org/mongo-driver/bson/primitive"

// ArticleTable is the collection articles are stored in.
const ArticleTable = "article"

// Article data model. Every field is a pointer so an absent value can be
// told apart from an empty one: nil fields are never written on save or
// update.
type Article struct {
	ID      *primitive.ObjectID `json:"_id" bson:"_id"`
	Title   *string             `json:"title" bson:"title"`
	Author  *string             `json:"author" bson:"author"`
	Content *string             `json:"content" bson:"content"`
}

// NewArticle is a shorthand for building a fully populated Article.
func NewArticle(title, author, content string) *Article {
	return &Article{
		Title:   &title,
		Author:  &author,
		Content: &content,
	}
}

// HexID returns the identifier as a hex string, or "" if unset.
func (a *Article) HexID() string {
	if a == nil || a.ID == nil {
		return ""
	}

	return a.ID.Hex()
}
