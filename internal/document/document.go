// Package document converts typed records to and from BSON documents.
package document

import (
	"fmt"

	"go.mongodb.org/mongo-driver/bson"
)

// ToDocument marshals record into a BSON document and drops every
// top-level field whose value is null, so absent fields never overwrite
// stored values.
func ToDocument(record interface{}) (bson.D, error) {
	raw, err := bson.Marshal(record)
	if err != nil {
		return nil, fmt.Errorf("marshal %T: %w", record, err)
	}

	var full bson.D
	if err := bson.Unmarshal(raw, &full); err != nil {
		return nil, fmt.Errorf("unmarshal %T: %w", record, err)
	}

	doc := make(bson.D, 0, len(full))
	for _, e := range full {
		if e.Value == nil {
			continue
		}
		doc = append(doc, e)
	}

	return doc, nil
}

// FromDocument decodes doc into a T. doc may be a bson.Raw, as handed out
// by a cursor, or anything the BSON codec can marshal.
func FromDocument[T any](doc interface{}) (T, error) {
	var record T

	raw, ok := doc.(bson.Raw)
	if !ok {
		b, err := bson.Marshal(doc)
		if err != nil {
			return record, fmt.Errorf("marshal document: %w", err)
		}
		raw = b
	}

	if err := bson.Unmarshal(raw, &record); err != nil {
		return record, fmt.Errorf("unmarshal into %T: %w", record, err)
	}

	return record, nil
}

// Without returns a copy of doc with key removed.
func Without(doc bson.D, key string) bson.D {
	out := make(bson.D, 0, len(doc))
	for _, e := range doc {
		if e.Key != key {
			out = append(out, e)
		}
	}

	return out
}
