// Package posterwebhook ingests Poster webhook deliveries: every call is
// persisted raw before validation, and finalizing actions additionally
// produce an enriched transaction record.
package posterwebhook

import (
	"bytes"
	"encoding/json"

	pkgerrors "github.com/posterops/poster-bridge/pkg/errors"
	"github.com/posterops/poster-bridge/pkg/types"
)

// Envelope is the inbound Poster event shape. ObjectID is a pointer so
// an absent id is distinguishable from a literal zero, and Data stays
// raw because Poster sends it either as an object or as a JSON string.
type Envelope struct {
	Account       string          `json:"account"`
	AccountNumber string          `json:"account_number"`
	Object        string          `json:"object"`
	ObjectID      *types.Number   `json:"object_id"`
	Action        string          `json:"action"`
	Time          types.Number    `json:"time"`
	Verify        string          `json:"verify"`
	Data          json.RawMessage `json:"data"`
}

// TransactionID returns the inbound object id, zero when absent.
func (e *Envelope) TransactionID() int64 {
	if e == nil || e.ObjectID == nil {
		return 0
	}
	return e.ObjectID.Int64()
}

// ParseEnvelope decodes a webhook body. Bodies arrive as a JSON object
// or as a JSON string wrapping one; anything else is a validation
// error, never a panic.
func ParseEnvelope(body []byte) (*Envelope, error) {
	var env Envelope
	if err := json.Unmarshal(normalizeBody(body), &env); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "body is not valid JSON").
			WithDetails(map[string]string{"body": "must be valid JSON"})
	}
	return &env, nil
}

// Validate checks the envelope against the configured action policy.
func (e *Envelope) Validate(allowed map[string]struct{}) error {
	if e.Action == "" {
		return pkgerrors.New(pkgerrors.CodeValidation, "action is required").
			WithDetails(map[string]string{"action": "is required"})
	}
	if _, ok := allowed[e.Action]; !ok {
		return pkgerrors.New(pkgerrors.CodeValidation, "action is not allowed").
			WithDetails(map[string]string{"action": "is not allowed"})
	}
	if e.ObjectID == nil {
		return pkgerrors.New(pkgerrors.CodeValidation, "object_id is required").
			WithDetails(map[string]string{"object_id": "is required"})
	}
	return nil
}

// normalizeBody unwraps one level of JSON-string encoding around the
// payload.
func normalizeBody(body []byte) []byte {
	trimmed := bytes.TrimSpace(body)
	if len(trimmed) > 1 && trimmed[0] == '"' {
		var inner string
		if err := json.Unmarshal(trimmed, &inner); err == nil {
			return bytes.TrimSpace([]byte(inner))
		}
	}
	return trimmed
}
