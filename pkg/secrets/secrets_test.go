package secrets

import (
	"context"
	"errors"
	"testing"

	"github.com/posterops/poster-bridge/pkg/config"
)

type stubProvider struct {
	values map[string]string
	calls  int
	err    error
}

func (s *stubProvider) Access(_ context.Context, name string) (string, error) {
	s.calls++
	if s.err != nil {
		return "", s.err
	}
	return s.values[name], nil
}

func TestResolvePrefersDirectValue(t *testing.T) {
	provider := &stubProvider{values: map[string]string{"poster-token": "from-secret"}}

	got, err := Resolve(context.Background(), provider, "direct-value", "poster-token")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got != "direct-value" {
		t.Fatalf("expected direct value to win, got %q", got)
	}
	if provider.calls != 0 {
		t.Fatalf("provider should not be consulted when a direct value exists")
	}
}

func TestResolveFallsBackToProvider(t *testing.T) {
	provider := &stubProvider{values: map[string]string{"poster-token": "from-secret"}}

	got, err := Resolve(context.Background(), provider, "", "poster-token")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got != "from-secret" {
		t.Fatalf("expected provider value, got %q", got)
	}
}

func TestResolveEmptyReferences(t *testing.T) {
	got, err := Resolve(context.Background(), nil, "", "")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got != "" {
		t.Fatalf("expected empty result, got %q", got)
	}

	if _, err := Resolve(context.Background(), nil, "", "some-secret"); err == nil {
		t.Fatal("expected error when a secret is referenced without a provider")
	}
}

func TestResolveBundle(t *testing.T) {
	provider := &stubProvider{values: map[string]string{
		"poster-token-secret": "ptoken",
		"mongo-uri-secret":    "mongodb://resolved:27017",
	}}

	cfg := &config.Config{}
	cfg.Poster.TokenSecretName = "poster-token-secret"
	cfg.Webhook.APIKey = "direct-hook-key"
	cfg.Auth.QueryToken = "direct-query-token"
	cfg.Mongo.URISecretName = "mongo-uri-secret"

	bundle, err := ResolveBundle(context.Background(), provider, cfg)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if bundle.PosterToken != "ptoken" {
		t.Fatalf("unexpected poster token %q", bundle.PosterToken)
	}
	if bundle.WebhookAPIKey != "direct-hook-key" {
		t.Fatalf("unexpected webhook key %q", bundle.WebhookAPIKey)
	}
	if bundle.QueryToken != "direct-query-token" {
		t.Fatalf("unexpected query token %q", bundle.QueryToken)
	}
	if bundle.MongoURI != "mongodb://resolved:27017" {
		t.Fatalf("unexpected mongo uri %q", bundle.MongoURI)
	}
	if provider.calls != 2 {
		t.Fatalf("expected 2 provider lookups, got %d", provider.calls)
	}
}

func TestResolveBundlePropagatesProviderError(t *testing.T) {
	provider := &stubProvider{err: errors.New("permission denied")}

	cfg := &config.Config{}
	cfg.Poster.TokenSecretName = "poster-token-secret"

	if _, err := ResolveBundle(context.Background(), provider, cfg); err == nil {
		t.Fatal("expected provider error to propagate")
	}
}
