package posterwebhook

import (
	"testing"

	pkgerrors "github.com/posterops/poster-bridge/pkg/errors"
)

func TestParseEnvelopeToleratesDataShapes(t *testing.T) {
	cases := []struct {
		name string
		body string
	}{
		{"data as object", `{"action":"closed","object_id":1,"data":{"status":"1"}}`},
		{"data as json string", `{"action":"closed","object_id":1,"data":"{\"status\":\"1\"}"}`},
		{"data absent", `{"action":"closed","object_id":1}`},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			env, err := ParseEnvelope([]byte(tc.body))
			if err != nil {
				t.Fatalf("ParseEnvelope: %v", err)
			}
			if env.Action != "closed" || env.TransactionID() != 1 {
				t.Errorf("unexpected envelope: %+v", env)
			}
		})
	}
}

func TestParseEnvelopeNumericShapes(t *testing.T) {
	env, err := ParseEnvelope([]byte(`{"action":"closed","object_id":"789","time":"1741944413"}`))
	if err != nil {
		t.Fatalf("ParseEnvelope: %v", err)
	}
	if env.TransactionID() != 789 {
		t.Errorf("expected id 789, got %d", env.TransactionID())
	}
	if env.Time.Int64() != 1741944413 {
		t.Errorf("expected numeric time, got %v", env.Time)
	}
}

func TestParseEnvelopeRejectsEmptyBody(t *testing.T) {
	_, err := ParseEnvelope(nil)
	typed := pkgerrors.As(err)
	if typed == nil || typed.Code() != pkgerrors.CodeValidation {
		t.Fatalf("expected validation error, got %v", err)
	}
}

func TestValidateRequiresObjectID(t *testing.T) {
	env, err := ParseEnvelope([]byte(`{"action":"closed"}`))
	if err != nil {
		t.Fatalf("ParseEnvelope: %v", err)
	}
	allowed := map[string]struct{}{"closed": {}}
	vErr := env.Validate(allowed)
	typed := pkgerrors.As(vErr)
	if typed == nil || typed.Message() != "object_id is required" {
		t.Fatalf("expected object_id error, got %v", vErr)
	}
	details, ok := typed.Details().(map[string]string)
	if !ok || details["object_id"] != "is required" {
		t.Errorf("unexpected details: %#v", typed.Details())
	}
}

func TestValidateDistinguishesZeroID(t *testing.T) {
	env, err := ParseEnvelope([]byte(`{"action":"closed","object_id":0}`))
	if err != nil {
		t.Fatalf("ParseEnvelope: %v", err)
	}
	if vErr := env.Validate(map[string]struct{}{"closed": {}}); vErr != nil {
		t.Fatalf("expected literal zero id to pass shape validation, got %v", vErr)
	}
}
