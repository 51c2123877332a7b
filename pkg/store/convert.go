package store

import (
	"encoding/json"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// AsDocument unwraps a nested document value. Mongo reads surface
// nested objects as primitive.M, firestore as plain maps.
func AsDocument(value any) (Document, bool) {
	switch v := value.(type) {
	case Document:
		return v, true
	case primitive.M:
		return Document(v), true
	}
	return nil, false
}

// AsSlice unwraps a nested array value. Mongo reads surface arrays as
// primitive.A.
func AsSlice(value any) ([]any, bool) {
	switch v := value.(type) {
	case []any:
		return v, true
	case primitive.A:
		return []any(v), true
	}
	return nil, false
}

// AsInt64 coerces the numeric shapes the backends hand back.
func AsInt64(value any) (int64, bool) {
	switch v := value.(type) {
	case int64:
		return v, true
	case int:
		return int64(v), true
	case int32:
		return int64(v), true
	case float64:
		return int64(v), true
	case json.Number:
		if n, err := v.Int64(); err == nil {
			return n, true
		}
		if f, err := v.Float64(); err == nil {
			return int64(f), true
		}
	}
	return 0, false
}

// AsString returns string values, tolerating absence.
func AsString(value any) string {
	if s, ok := value.(string); ok {
		return s
	}
	return ""
}
