package validators

import (
	"net/http/httptest"
	"testing"

	pkgerrors "github.com/posterops/poster-bridge/pkg/errors"
)

func TestValidateStructReportsJSONFieldNames(t *testing.T) {
	type params struct {
		DateFrom string `json:"dateFrom" validate:"required,datetime=2006-01-02"`
		DateTo   string `json:"dateTo" validate:"omitempty,datetime=2006-01-02"`
	}

	err := ValidateStruct(params{})
	if err == nil {
		t.Fatal("expected validation failure")
	}
	typed := pkgerrors.As(err)
	if typed == nil || typed.Code() != pkgerrors.CodeValidation {
		t.Fatalf("expected validation code, got %v", err)
	}
	details, ok := typed.Details().(map[string]string)
	if !ok {
		t.Fatalf("expected map details, got %T", typed.Details())
	}
	if details["dateFrom"] != "is required" {
		t.Fatalf("unexpected detail for dateFrom: %q", details["dateFrom"])
	}

	if err := ValidateStruct(params{DateFrom: "2025-06-01"}); err != nil {
		t.Fatalf("valid params rejected: %v", err)
	}
	if err := ValidateStruct(params{DateFrom: "06/01/2025"}); err == nil {
		t.Fatal("expected format failure")
	}
}

func TestParseQueryInt(t *testing.T) {
	r := httptest.NewRequest("GET", "/transactions?limit=50", nil)
	got, err := ParseQueryInt(r, "limit", 100, 1, 1000)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got != 50 {
		t.Fatalf("expected 50, got %d", got)
	}

	r = httptest.NewRequest("GET", "/transactions", nil)
	if got, _ = ParseQueryInt(r, "limit", 100, 1, 1000); got != 100 {
		t.Fatalf("expected default 100, got %d", got)
	}

	r = httptest.NewRequest("GET", "/transactions?limit=abc", nil)
	if _, err = ParseQueryInt(r, "limit", 100, 1, 1000); err == nil {
		t.Fatal("expected error for non-numeric limit")
	}

	r = httptest.NewRequest("GET", "/transactions?limit=5000", nil)
	if _, err = ParseQueryInt(r, "limit", 100, 1, 1000); err == nil {
		t.Fatal("expected error for out-of-range limit")
	}
}

func TestSecretEquals(t *testing.T) {
	if !SecretEquals("s3cret", "s3cret") {
		t.Fatal("matching secrets should compare equal")
	}
	if SecretEquals("s3cret", "other") {
		t.Fatal("different secrets should not match")
	}
	if SecretEquals("", "s3cret") {
		t.Fatal("empty caller secret should not match")
	}
	if SecretEquals("anything", "") {
		t.Fatal("empty configured secret should never match")
	}
	if !SecretEquals("  s3cret  ", "s3cret") {
		t.Fatal("caller secret should be trimmed before compare")
	}
}
