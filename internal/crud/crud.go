// Package crud implements list/save/update/delete over a document
// collection for any record type.
package crud

import (
	"context"
	"errors"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.uber.org/zap"

	"github.com/SergeyParamoshkin/myblog/internal/bizerr"
	"github.com/SergeyParamoshkin/myblog/internal/document"
)

// Collection is the part of *mongo.Collection the service relies on.
type Collection interface {
	Find(ctx context.Context, filter interface{}, opts ...*options.FindOptions) (*mongo.Cursor, error)
	InsertOne(ctx context.Context, document interface{}, opts ...*options.InsertOneOptions) (*mongo.InsertOneResult, error)
	UpdateOne(ctx context.Context, filter interface{}, update interface{}, opts ...*options.UpdateOptions) (*mongo.UpdateResult, error)
	DeleteOne(ctx context.Context, filter interface{}, opts ...*options.DeleteOptions) (*mongo.DeleteResult, error)
}

var _ Collection = (*mongo.Collection)(nil)

var errNoInsertedID = errors.New("insert did not return an object id")

// Service binds the record type T to one collection.
type Service[T any] struct {
	name   string
	coll   Collection
	logger *zap.Logger
}

// New returns a Service storing T in coll. name is only used for logging.
func New[T any](name string, coll Collection, logger *zap.Logger) *Service[T] {
	if logger == nil {
		logger = zap.NewNop()
	}

	return &Service[T]{
		name:   name,
		coll:   coll,
		logger: logger.With(zap.String("collection", name)),
	}
}

// ListWithFilter returns every record matching filter in storage order.
// An empty filter matches everything.
func (s *Service[T]) ListWithFilter(ctx context.Context, filter bson.M) ([]T, error) {
	if filter == nil {
		filter = bson.M{}
	}

	cur, err := s.coll.Find(ctx, filter)
	if err != nil {
		return nil, s.internal("find", err)
	}
	defer cur.Close(ctx)

	list := make([]T, 0)
	for cur.Next(ctx) {
		record, err := document.FromDocument[T](cur.Current)
		if err != nil {
			return nil, s.internal("decode", err)
		}
		list = append(list, record)
	}

	if err := cur.Err(); err != nil {
		return nil, s.internal("cursor", err)
	}

	return list, nil
}

// Save inserts record and returns the assigned id as a hex string.
func (s *Service[T]) Save(ctx context.Context, record *T) (string, error) {
	doc, err := document.ToDocument(record)
	if err != nil {
		return "", s.internal("save", err)
	}

	res, err := s.coll.InsertOne(ctx, doc)
	if err != nil {
		return "", s.internal("save", err)
	}

	oid, ok := res.InsertedID.(primitive.ObjectID)
	if !ok {
		return "", s.internal("save", errNoInsertedID)
	}

	return oid.Hex(), nil
}

// UpdateByID merges the non-null fields of record into the document with
// the given id and returns the modified count. A missing document is not
// an error; the count is 0.
func (s *Service[T]) UpdateByID(ctx context.Context, id primitive.ObjectID, record *T) (int64, error) {
	doc, err := document.ToDocument(record)
	if err != nil {
		return 0, s.internal("update", err)
	}

	// _id is immutable once stored.
	doc = document.Without(doc, "_id")
	if len(doc) == 0 {
		return 0, nil
	}

	res, err := s.coll.UpdateOne(ctx, bson.M{"_id": id}, bson.M{"$set": doc})
	if err != nil {
		return 0, s.internal("update", err)
	}

	return res.ModifiedCount, nil
}

// RemoveByID deletes the document with the given id and returns the
// deleted count.
func (s *Service[T]) RemoveByID(ctx context.Context, id primitive.ObjectID) (int64, error) {
	res, err := s.coll.DeleteOne(ctx, bson.M{"_id": id})
	if err != nil {
		return 0, s.internal("remove", err)
	}

	return res.DeletedCount, nil
}

func (s *Service[T]) internal(op string, err error) error {
	s.logger.Error("storage call failed", zap.String("op", op), zap.Error(err))

	return bizerr.Internal(err)
}
