package crud_test

import (
	"context"
	"errors"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"

	"github.com/SergeyParamoshkin/myblog/internal/bizerr"
	"github.com/SergeyParamoshkin/myblog/internal/crud"
	"github.com/SergeyParamoshkin/myblog/internal/memstore"
	"github.com/SergeyParamoshkin/myblog/internal/model"
)

var errDriver = errors.New("connection reset by peer")

// brokenCollection fails every call.
type brokenCollection struct{ calls int }

func (b *brokenCollection) Find(context.Context, interface{}, ...*options.FindOptions) (*mongo.Cursor, error) {
	b.calls++
	return nil, errDriver
}

func (b *brokenCollection) InsertOne(context.Context, interface{}, ...*options.InsertOneOptions) (*mongo.InsertOneResult, error) {
	b.calls++
	return nil, errDriver
}

func (b *brokenCollection) UpdateOne(context.Context, interface{}, interface{}, ...*options.UpdateOptions) (*mongo.UpdateResult, error) {
	b.calls++
	return nil, errDriver
}

func (b *brokenCollection) DeleteOne(context.Context, interface{}, ...*options.DeleteOptions) (*mongo.DeleteResult, error) {
	b.calls++
	return nil, errDriver
}

// stringIDCollection returns a non-ObjectID insert id.
type stringIDCollection struct{ *memstore.Collection }

func (s stringIDCollection) InsertOne(context.Context, interface{}, ...*options.InsertOneOptions) (*mongo.InsertOneResult, error) {
	return &mongo.InsertOneResult{InsertedID: "not-an-oid"}, nil
}

func newService(t *testing.T) (*crud.Service[model.Article], *memstore.Collection) {
	t.Helper()

	coll := memstore.New()

	return crud.New[model.Article](model.ArticleTable, coll, zap.NewNop()), coll
}

func ptr(s string) *string { return &s }

func TestSaveThenListByID(t *testing.T) {
	svc, _ := newService(t)
	ctx := context.Background()

	in := model.NewArticle("A", "B", "C")
	hex, err := svc.Save(ctx, in)
	require.NoError(t, err)

	id, err := primitive.ObjectIDFromHex(hex)
	require.NoError(t, err)

	list, err := svc.ListWithFilter(ctx, bson.M{"_id": id})
	require.NoError(t, err)
	require.Len(t, list, 1)

	want := *in
	want.ID = &id
	if diff := cmp.Diff(want, list[0]); diff != "" {
		t.Errorf("listed article mismatch (-want +got):\n%s", diff)
	}
}

func TestListEmptyFilterMatchesAll(t *testing.T) {
	svc, _ := newService(t)
	ctx := context.Background()

	for _, title := range []string{"one", "two", "three"} {
		_, err := svc.Save(ctx, model.NewArticle(title, "x", "y"))
		require.NoError(t, err)
	}

	list, err := svc.ListWithFilter(ctx, nil)
	require.NoError(t, err)
	require.Len(t, list, 3)
	assert.Equal(t, "one", *list[0].Title)
	assert.Equal(t, "three", *list[2].Title)
}

func TestListNoMatchesIsEmptyNotNil(t *testing.T) {
	svc, _ := newService(t)

	list, err := svc.ListWithFilter(context.Background(), bson.M{"_id": primitive.NewObjectID()})
	require.NoError(t, err)
	assert.NotNil(t, list)
	assert.Empty(t, list)
}

func TestSaveNeverStoresNulls(t *testing.T) {
	svc, coll := newService(t)
	ctx := context.Background()

	hex, err := svc.Save(ctx, &model.Article{Title: ptr("lonely")})
	require.NoError(t, err)
	id, _ := primitive.ObjectIDFromHex(hex)

	cur, err := coll.Find(ctx, bson.M{"_id": id})
	require.NoError(t, err)
	require.True(t, cur.Next(ctx))

	_, err = cur.Current.LookupErr("author")
	assert.Error(t, err, "author must not be stored")
	_, err = cur.Current.LookupErr("content")
	assert.Error(t, err, "content must not be stored")
}

func TestUpdatePartialIsIdempotent(t *testing.T) {
	svc, _ := newService(t)
	ctx := context.Background()

	hex, err := svc.Save(ctx, model.NewArticle("A", "B", "C"))
	require.NoError(t, err)
	id, _ := primitive.ObjectIDFromHex(hex)

	patch := &model.Article{Title: ptr("A2")}

	n, err := svc.UpdateByID(ctx, id, patch)
	require.NoError(t, err)
	assert.EqualValues(t, 1, n)

	n, err = svc.UpdateByID(ctx, id, patch)
	require.NoError(t, err)
	assert.EqualValues(t, 0, n, "second identical update changes nothing")

	list, err := svc.ListWithFilter(ctx, bson.M{"_id": id})
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.Equal(t, "A2", *list[0].Title)
	assert.Equal(t, "B", *list[0].Author)
	assert.Equal(t, "C", *list[0].Content)
}

func TestUpdateIgnoresBodyID(t *testing.T) {
	svc, _ := newService(t)
	ctx := context.Background()

	hex, err := svc.Save(ctx, model.NewArticle("A", "B", "C"))
	require.NoError(t, err)
	id, _ := primitive.ObjectIDFromHex(hex)

	other := primitive.NewObjectID()
	_, err = svc.UpdateByID(ctx, id, &model.Article{ID: &other, Title: ptr("T")})
	require.NoError(t, err)

	list, err := svc.ListWithFilter(ctx, bson.M{"_id": id})
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.Equal(t, "T", *list[0].Title)
}

func TestUpdateMissingIsZero(t *testing.T) {
	svc, _ := newService(t)

	n, err := svc.UpdateByID(context.Background(), primitive.NewObjectID(), &model.Article{Title: ptr("x")})
	require.NoError(t, err)
	assert.Zero(t, n)
}

func TestUpdateEmptyRecordSkipsStorage(t *testing.T) {
	broken := &brokenCollection{}
	svc := crud.New[model.Article](model.ArticleTable, broken, nil)

	n, err := svc.UpdateByID(context.Background(), primitive.NewObjectID(), &model.Article{})
	require.NoError(t, err)
	assert.Zero(t, n)
	assert.Zero(t, broken.calls)
}

func TestRemove(t *testing.T) {
	svc, coll := newService(t)
	ctx := context.Background()

	hex, err := svc.Save(ctx, model.NewArticle("A", "B", "C"))
	require.NoError(t, err)
	id, _ := primitive.ObjectIDFromHex(hex)

	n, err := svc.RemoveByID(ctx, id)
	require.NoError(t, err)
	assert.EqualValues(t, 1, n)
	assert.Zero(t, coll.Len())

	n, err = svc.RemoveByID(ctx, id)
	require.NoError(t, err)
	assert.Zero(t, n)
}

func TestDriverFailuresBecomeInternalErrors(t *testing.T) {
	core, logs := observer.New(zap.ErrorLevel)
	svc := crud.New[model.Article](model.ArticleTable, &brokenCollection{}, zap.New(core))
	ctx := context.Background()
	id := primitive.NewObjectID()

	_, listErr := svc.ListWithFilter(ctx, bson.M{})
	_, saveErr := svc.Save(ctx, model.NewArticle("A", "B", "C"))
	_, updErr := svc.UpdateByID(ctx, id, &model.Article{Title: ptr("x")})
	_, rmErr := svc.RemoveByID(ctx, id)

	for _, err := range []error{listErr, saveErr, updErr, rmErr} {
		require.Error(t, err)
		assert.Equal(t, bizerr.CodeInternal, bizerr.Code(err))
		assert.ErrorIs(t, err, errDriver)
		assert.NotContains(t, err.Error(), "connection reset")
	}

	assert.Equal(t, 4, logs.Len())
	assert.Equal(t, model.ArticleTable, logs.All()[0].ContextMap()["collection"])
}

func TestSaveWithoutObjectID(t *testing.T) {
	svc := crud.New[model.Article](model.ArticleTable, stringIDCollection{memstore.New()}, nil)

	_, err := svc.Save(context.Background(), model.NewArticle("A", "B", "C"))
	require.Error(t, err)
	assert.Equal(t, bizerr.CodeInternal, bizerr.Code(err))
}
