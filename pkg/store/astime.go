package store

import (
	"encoding/json"
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

const legacyDateLayout = "2006-01-02 15:04:05"

// AsTime resolves a persisted timestamp of unknown physical shape into a
// comparable instant. Historical documents carry native driver types,
// formatted strings, epoch numbers, or serialized timestamp wrappers
// ({seconds, nanos} maps), depending on which backend and code version
// wrote them.
func AsTime(value any) (time.Time, bool) {
	switch v := value.(type) {
	case time.Time:
		return v, true
	case *time.Time:
		if v == nil {
			return time.Time{}, false
		}
		return *v, true
	case primitive.DateTime:
		return v.Time(), true
	case string:
		return parseTimeString(v)
	case int64:
		return fromEpoch(v), true
	case int:
		return fromEpoch(int64(v)), true
	case float64:
		return fromEpoch(int64(v)), true
	case json.Number:
		if n, err := v.Int64(); err == nil {
			return fromEpoch(n), true
		}
		if f, err := v.Float64(); err == nil {
			return fromEpoch(int64(f)), true
		}
		return time.Time{}, false
	case map[string]any:
		return fromWrapper(v)
	case primitive.M:
		return fromWrapper(v)
	}
	return time.Time{}, false
}

func parseTimeString(s string) (time.Time, bool) {
	for _, layout := range []string{time.RFC3339Nano, time.RFC3339, legacyDateLayout, "2006-01-02"} {
		if t, err := time.Parse(layout, s); err == nil {
			return t, true
		}
	}
	return time.Time{}, false
}

// fromEpoch treats magnitudes above 1e12 as milliseconds, otherwise
// seconds.
func fromEpoch(n int64) time.Time {
	if n > 1_000_000_000_000 || n < -1_000_000_000_000 {
		return time.UnixMilli(n)
	}
	return time.Unix(n, 0)
}

func fromWrapper(m map[string]any) (time.Time, bool) {
	secs, ok := wrapperField(m, "seconds", "_seconds")
	if !ok {
		return time.Time{}, false
	}
	nanos, _ := wrapperField(m, "nanos", "nanoseconds", "_nanoseconds")
	return time.Unix(secs, nanos), true
}

func wrapperField(m map[string]any, keys ...string) (int64, bool) {
	for _, key := range keys {
		raw, ok := m[key]
		if !ok {
			continue
		}
		switch v := raw.(type) {
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
		}
	}
	return 0, false
}
