package posterwebhook

import (
	"encoding/json"
	"time"

	"github.com/posterops/poster-bridge/pkg/store"
)

// RawEventsCollection holds one audit document per inbound delivery.
const RawEventsCollection = "raw-events"

// NewRawEventDocument snapshots an inbound delivery before any
// validation. The body is stored decoded when it is valid JSON and as
// the original string otherwise, so even garbage payloads leave an
// audit trail.
func NewRawEventDocument(body []byte, receivedAt time.Time) store.Document {
	return store.Document{
		"body": decodeLoose(body),
		"metadata": store.Document{
			"received_at":           receivedAt.UTC(),
			"processed":             false,
			"processed_at":          nil,
			"saved_to_transactions": false,
			"processing_error":      nil,
			"error_time":            nil,
		},
	}
}

func decodeLoose(body []byte) any {
	var doc map[string]any
	if err := json.Unmarshal(normalizeBody(body), &doc); err == nil {
		return doc
	}
	return string(body)
}

func failureUpdate(reason string, at time.Time) store.Document {
	return store.Document{
		"metadata": store.Document{
			"processing_error": reason,
			"error_time":       at,
		},
	}
}

func processedUpdate(saved bool, at time.Time) store.Document {
	return store.Document{
		"metadata": store.Document{
			"processed":             true,
			"processed_at":          at,
			"saved_to_transactions": saved,
			"processing_error":      nil,
			"error_time":            nil,
		},
	}
}
