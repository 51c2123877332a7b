package store

import (
	"encoding/json"
	"testing"
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

func TestAsTime(t *testing.T) {
	instant := time.Date(2025, time.March, 14, 9, 26, 53, 0, time.UTC)

	tests := []struct {
		name  string
		input any
		want  time.Time
		ok    bool
	}{
		{name: "native time", input: instant, want: instant, ok: true},
		{name: "time pointer", input: &instant, want: instant, ok: true},
		{name: "nil time pointer", input: (*time.Time)(nil), ok: false},
		{name: "mongo datetime", input: primitive.NewDateTimeFromTime(instant), want: instant, ok: true},
		{name: "rfc3339 string", input: "2025-03-14T09:26:53Z", want: instant, ok: true},
		{name: "legacy datetime string", input: "2025-03-14 09:26:53", want: instant, ok: true},
		{name: "date only string", input: "2025-03-14", want: time.Date(2025, time.March, 14, 0, 0, 0, 0, time.UTC), ok: true},
		{name: "garbage string", input: "not-a-date", ok: false},
		{name: "epoch seconds", input: int64(1741944413), want: time.Unix(1741944413, 0), ok: true},
		{name: "epoch millis", input: int64(1741944413000), want: time.UnixMilli(1741944413000), ok: true},
		{name: "epoch float", input: float64(1741944413), want: time.Unix(1741944413, 0), ok: true},
		{name: "json number", input: json.Number("1741944413"), want: time.Unix(1741944413, 0), ok: true},
		{name: "seconds wrapper", input: map[string]any{"seconds": int64(1741944413), "nanos": int64(500)}, want: time.Unix(1741944413, 500), ok: true},
		{name: "underscore wrapper", input: map[string]any{"_seconds": float64(1741944413), "_nanoseconds": float64(0)}, want: time.Unix(1741944413, 0), ok: true},
		{name: "mongo wrapper", input: primitive.M{"seconds": int64(1741944413), "nanos": int64(0)}, want: time.Unix(1741944413, 0), ok: true},
		{name: "wrapper without seconds", input: map[string]any{"nanos": int64(5)}, ok: false},
		{name: "unsupported type", input: []string{"2025"}, ok: false},
		{name: "nil", input: nil, ok: false},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			got, ok := AsTime(tc.input)
			if ok != tc.ok {
				t.Fatalf("AsTime(%v) ok = %v, want %v", tc.input, ok, tc.ok)
			}
			if ok && !got.Equal(tc.want) {
				t.Fatalf("AsTime(%v) = %v, want %v", tc.input, got, tc.want)
			}
		})
	}
}
