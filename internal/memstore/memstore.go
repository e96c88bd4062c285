// Package memstore is an in-memory stand-in for a MongoDB collection. It
// understands just enough of the query language for the article service:
// equality on any field, $regex with $options, $or and $and in filters, and
// $set in updates. It is used by the "memory" storage driver and in tests.
package memstore

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"regexp"
	"strings"
	"sync"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

var (
	ErrDuplicateID      = errors.New("memstore: duplicate _id")
	ErrUnsupportedQuery = errors.New("memstore: unsupported query")
)

// Collection holds documents in insertion order.
type Collection struct {
	mu   sync.RWMutex
	docs []bson.Raw
}

// New returns an empty collection.
func New() *Collection {
	return &Collection{}
}

// Len returns the number of stored documents.
func (c *Collection) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()

	return len(c.docs)
}

// Find returns a cursor over every document matching filter.
func (c *Collection) Find(ctx context.Context, filter interface{}, _ ...*options.FindOptions) (*mongo.Cursor, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	c.mu.RLock()
	defer c.mu.RUnlock()

	found := []interface{}{}
	for _, doc := range c.docs {
		ok, err := matches(doc, filter)
		if err != nil {
			return nil, err
		}
		if !ok {
			continue
		}

		var d bson.D
		if err := bson.Unmarshal(doc, &d); err != nil {
			return nil, err
		}
		found = append(found, d)
	}

	return mongo.NewCursorFromDocuments(found, nil, nil)
}

// InsertOne stores document, assigning a new ObjectID when it has no _id.
func (c *Collection) InsertOne(ctx context.Context, document interface{}, _ ...*options.InsertOneOptions) (*mongo.InsertOneResult, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	b, err := bson.Marshal(document)
	if err != nil {
		return nil, err
	}

	var d bson.D
	if err := bson.Unmarshal(b, &d); err != nil {
		return nil, err
	}

	var id interface{}
	for _, e := range d {
		if e.Key == "_id" {
			id = e.Value
		}
	}
	if id == nil {
		id = primitive.NewObjectID()
		d = append(bson.D{{Key: "_id", Value: id}}, d...)
	}

	raw, err := bson.Marshal(d)
	if err != nil {
		return nil, err
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	for _, doc := range c.docs {
		ok, err := matches(doc, bson.M{"_id": id})
		if err != nil {
			return nil, err
		}
		if ok {
			return nil, fmt.Errorf("%w: %v", ErrDuplicateID, id)
		}
	}
	c.docs = append(c.docs, raw)

	return &mongo.InsertOneResult{InsertedID: id}, nil
}

// UpdateOne applies update to the first document matching filter. Only
// $set is supported.
func (c *Collection) UpdateOne(ctx context.Context, filter interface{}, update interface{}, _ ...*options.UpdateOptions) (*mongo.UpdateResult, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	upd, ok := asDoc(update)
	if !ok {
		return nil, fmt.Errorf("%w: update must be a document", ErrUnsupportedQuery)
	}

	var set bson.D
	for _, e := range upd {
		if e.Key != "$set" {
			return nil, fmt.Errorf("%w: update operator %q", ErrUnsupportedQuery, e.Key)
		}
		fields, ok := asDoc(e.Value)
		if !ok {
			return nil, fmt.Errorf("%w: $set needs a document", ErrUnsupportedQuery)
		}
		set = append(set, fields...)
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	for i, doc := range c.docs {
		ok, err := matches(doc, filter)
		if err != nil {
			return nil, err
		}
		if !ok {
			continue
		}

		var d bson.D
		if err := bson.Unmarshal(doc, &d); err != nil {
			return nil, err
		}
		d = applySet(d, set)

		raw, err := bson.Marshal(d)
		if err != nil {
			return nil, err
		}

		res := &mongo.UpdateResult{MatchedCount: 1}
		if !bytes.Equal(raw, doc) {
			c.docs[i] = raw
			res.ModifiedCount = 1
		}

		return res, nil
	}

	return &mongo.UpdateResult{}, nil
}

// DeleteOne removes the first document matching filter.
func (c *Collection) DeleteOne(ctx context.Context, filter interface{}, _ ...*options.DeleteOptions) (*mongo.DeleteResult, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	for i, doc := range c.docs {
		ok, err := matches(doc, filter)
		if err != nil {
			return nil, err
		}
		if ok {
			c.docs = append(c.docs[:i], c.docs[i+1:]...)

			return &mongo.DeleteResult{DeletedCount: 1}, nil
		}
	}

	return &mongo.DeleteResult{}, nil
}

func applySet(d, set bson.D) bson.D {
	for _, s := range set {
		replaced := false
		for i := range d {
			if d[i].Key == s.Key {
				d[i].Value = s.Value
				replaced = true

				break
			}
		}
		if !replaced {
			d = append(d, s)
		}
	}

	return d
}

func matches(doc bson.Raw, filter interface{}) (bool, error) {
	if filter == nil {
		return true, nil
	}

	f, ok := asDoc(filter)
	if !ok {
		return false, fmt.Errorf("%w: filter must be a document", ErrUnsupportedQuery)
	}

	for _, e := range f {
		ok, err := matchElem(doc, e)
		if err != nil || !ok {
			return false, err
		}
	}

	return true, nil
}

func matchElem(doc bson.Raw, e bson.E) (bool, error) {
	switch e.Key {
	case "$or", "$and":
		clauses, ok := asList(e.Value)
		if !ok {
			return false, fmt.Errorf("%w: %s needs an array", ErrUnsupportedQuery, e.Key)
		}

		for _, clause := range clauses {
			ok, err := matches(doc, clause)
			if err != nil {
				return false, err
			}
			if e.Key == "$or" && ok {
				return true, nil
			}
			if e.Key == "$and" && !ok {
				return false, nil
			}
		}

		return e.Key == "$and", nil
	}

	field, err := doc.LookupErr(e.Key)
	if err != nil {
		field = bson.RawValue{}
	}

	if re, ok := e.Value.(primitive.Regex); ok {
		return matchRegex(field, re.Pattern, re.Options)
	}

	if cond, ok := asDoc(e.Value); ok && isOperatorDoc(cond) {
		return matchOperators(field, cond)
	}

	return equal(field, e.Value)
}

func matchOperators(field bson.RawValue, cond bson.D) (bool, error) {
	var (
		pattern  string
		opts     string
		hasRegex bool
	)

	for _, c := range cond {
		switch c.Key {
		case "$regex":
			switch v := c.Value.(type) {
			case string:
				pattern = v
			case primitive.Regex:
				pattern, opts = v.Pattern, v.Options
			default:
				return false, fmt.Errorf("%w: $regex must be a string", ErrUnsupportedQuery)
			}
			hasRegex = true
		case "$options":
			s, ok := c.Value.(string)
			if !ok {
				return false, fmt.Errorf("%w: $options must be a string", ErrUnsupportedQuery)
			}
			opts = s
		case "$eq":
			ok, err := equal(field, c.Value)
			if err != nil || !ok {
				return false, err
			}
		default:
			return false, fmt.Errorf("%w: operator %q", ErrUnsupportedQuery, c.Key)
		}
	}

	if hasRegex {
		return matchRegex(field, pattern, opts)
	}

	return true, nil
}

func matchRegex(field bson.RawValue, pattern, opts string) (bool, error) {
	s, ok := field.StringValueOK()
	if !ok {
		return false, nil
	}

	var flags strings.Builder
	for _, o := range opts {
		switch o {
		case 'i', 'm', 's':
			flags.WriteRune(o)
		}
	}
	if flags.Len() > 0 {
		pattern = "(?" + flags.String() + ")" + pattern
	}

	re, err := regexp.Compile(pattern)
	if err != nil {
		return false, fmt.Errorf("%w: %v", ErrUnsupportedQuery, err)
	}

	return re.MatchString(s), nil
}

func equal(field bson.RawValue, want interface{}) (bool, error) {
	if field.Type == 0 {
		return want == nil, nil
	}

	t, b, err := bson.MarshalValue(want)
	if err != nil {
		return false, err
	}

	return field.Equal(bson.RawValue{Type: t, Value: b}), nil
}

func isOperatorDoc(d bson.D) bool {
	if len(d) == 0 {
		return false
	}
	for _, e := range d {
		if !strings.HasPrefix(e.Key, "$") {
			return false
		}
	}

	return true
}

func asDoc(v interface{}) (bson.D, bool) {
	switch d := v.(type) {
	case bson.D:
		return d, true
	case bson.M:
		return mapToDoc(d), true
	case map[string]interface{}:
		return mapToDoc(d), true
	default:
		return nil, false
	}
}

func mapToDoc(m map[string]interface{}) bson.D {
	d := make(bson.D, 0, len(m))
	for k, v := range m {
		d = append(d, bson.E{Key: k, Value: v})
	}

	return d
}

func asList(v interface{}) ([]interface{}, bool) {
	switch l := v.(type) {
	case bson.A:
		return l, true
	case []interface{}:
		return l, true
	case []bson.M:
		out := make([]interface{}, len(l))
		for i := range l {
			out[i] = l[i]
		}

		return out, true
	case []bson.D:
		out := make([]interface{}, len(l))
		for i := range l {
			out[i] = l[i]
		}

		return out, true
	default:
		return nil, false
	}
}
