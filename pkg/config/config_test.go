package config

import (
	"os"
	"testing"
	"time"
)

func TestLoad_Success(t *testing.T) {
	setMinimalEnv(t)

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() returned unexpected error: %v", err)
	}

	if cfg.App.Env != "prod" {
		t.Fatalf("expected App.Env to be prod, got %q", cfg.App.Env)
	}

	if cfg.Poster.BaseURL != "https://joinposter.com/api" {
		t.Fatalf("unexpected poster base URL: %q", cfg.Poster.BaseURL)
	}
	if cfg.Poster.Timeout != 10*time.Second {
		t.Fatalf("expected poster timeout 10s, got %v", cfg.Poster.Timeout)
	}

	if got := cfg.Catalog.TTL; got != 24*time.Hour {
		t.Fatalf("expected catalog TTL 24h, got %v", got)
	}
	if got := len(cfg.Catalog.IgnoredCategories); got != 8 {
		t.Fatalf("expected 8 default ignored categories, got %d", got)
	}

	if got := len(cfg.Webhook.AllowedActions); got != 5 {
		t.Fatalf("expected 5 default allowed actions, got %d", got)
	}
	if got := len(cfg.Webhook.TriggerActions); got != 2 {
		t.Fatalf("expected 2 default trigger actions, got %d", got)
	}

	if !cfg.Store.ReadsMongo() {
		t.Fatalf("expected default read backend to be mongo, got %q", cfg.Store.ReadFrom)
	}
	if cfg.Sync.PerPage != 100 || cfg.Sync.MaxEmptyPages != 3 {
		t.Fatalf("unexpected sync defaults: %+v", cfg.Sync)
	}

	if cfg.Redis.URL != "redis://localhost:6379/0" {
		t.Fatalf("unexpected Redis URL: %q", cfg.Redis.URL)
	}
}

func TestLoad_MissingRequired(t *testing.T) {
	setMinimalEnv(t)
	if err := os.Unsetenv(EnvAppEnv); err != nil {
		t.Fatalf("failed to unset %s: %v", EnvAppEnv, err)
	}

	if _, err := Load(); err == nil {
		t.Fatal("expected missing required env to return an error")
	}
}

func TestLoad_InvalidReadBackend(t *testing.T) {
	setMinimalEnv(t)
	t.Setenv(EnvStoreReadFrom, "dynamo")

	if _, err := Load(); err == nil {
		t.Fatal("expected invalid read backend to return an error")
	}
}

func TestLoad_NoWriteBackends(t *testing.T) {
	setMinimalEnv(t)
	t.Setenv(EnvStoreWriteMongo, "false")
	t.Setenv(EnvStoreWriteFirestore, "false")

	if _, err := Load(); err == nil {
		t.Fatal("expected all-writes-disabled config to return an error")
	}
}

func TestLoad_MongoConnectionMaterialRequired(t *testing.T) {
	setMinimalEnv(t)
	t.Setenv(EnvMongoURISecretName, "")
	if err := os.Unsetenv(EnvMongoURI); err != nil {
		t.Fatalf("failed to unset %s: %v", EnvMongoURI, err)
	}

	if _, err := Load(); err == nil {
		t.Fatal("expected missing mongo URI to return an error")
	}
}

func setMinimalEnv(t *testing.T) {
	t.Helper()

	t.Setenv(EnvAppEnv, "prod")
	t.Setenv(EnvPort, "8081")
	t.Setenv(EnvRedisURL, "redis://localhost:6379/0")
	t.Setenv(EnvMongoURI, "mongodb://localhost:27017")
	t.Setenv(EnvGCPProjectID, "project-123")
	t.Setenv(EnvPosterToken, "poster-token")
	t.Setenv(EnvWebhookAPIKey, "hook-key")
	t.Setenv(EnvAuthToken, "query-token")
}

func TestAppConfigEnvHelpers(t *testing.T) {
	devConfig := AppConfig{Env: "DEV"}
	if !devConfig.IsDev() {
		t.Fatalf("expected IsDev true for %q", devConfig.Env)
	}
	if devConfig.IsProd() {
		t.Fatalf("expected IsProd false for %q", devConfig.Env)
	}

	prodConfig := AppConfig{Env: "prod"}
	if !prodConfig.IsProd() {
		t.Fatalf("expected IsProd true for %q", prodConfig.Env)
	}
	if prodConfig.IsDev() {
		t.Fatalf("expected IsDev false for %q", prodConfig.Env)
	}
}
