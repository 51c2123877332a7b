package secrets

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"

	secretmanager "cloud.google.com/go/secretmanager/apiv1"
	"cloud.google.com/go/secretmanager/apiv1/secretmanagerpb"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"

	"github.com/posterops/poster-bridge/pkg/config"
	pkgerrors "github.com/posterops/poster-bridge/pkg/errors"
	"github.com/posterops/poster-bridge/pkg/logger"
)

// Provider fetches secret material by name.
type Provider interface {
	Access(ctx context.Context, name string) (string, error)
}

// Manager reads secrets from Google Secret Manager and memoizes them for
// the process lifetime. Secret rotation requires a restart.
type Manager struct {
	client    *secretmanager.Client
	projectID string
	logg      *logger.Logger

	mu    sync.Mutex
	cache map[string]string
}

func NewManager(ctx context.Context, projectID string, logg *logger.Logger) (*Manager, error) {
	if projectID == "" {
		return nil, errors.New("gcp project id is required for the secret manager")
	}

	client, err := secretmanager.NewClient(ctx)
	if err != nil {
		return nil, fmt.Errorf("creating secret manager client: %w", err)
	}

	if logg != nil {
		logg.Info(ctx, "secret manager client initialized")
	}

	return &Manager{
		client:    client,
		projectID: projectID,
		logg:      logg,
		cache:     map[string]string{},
	}, nil
}

// Access returns the payload of the named secret. Bare names resolve to
// the latest version in the configured project; full resource names are
// used as-is.
func (m *Manager) Access(ctx context.Context, name string) (string, error) {
	resource := m.resourceName(name)

	m.mu.Lock()
	if cached, ok := m.cache[resource]; ok {
		m.mu.Unlock()
		return cached, nil
	}
	m.mu.Unlock()

	resp, err := m.client.AccessSecretVersion(ctx, &secretmanagerpb.AccessSecretVersionRequest{
		Name: resource,
	})
	if err != nil {
		if status.Code(err) == codes.NotFound {
			return "", pkgerrors.Wrap(pkgerrors.CodeDependency, err, fmt.Sprintf("secret %s not found", name))
		}
		return "", pkgerrors.Wrap(pkgerrors.CodeDependency, err, fmt.Sprintf("access secret %s", name))
	}

	value := string(resp.GetPayload().GetData())

	m.mu.Lock()
	m.cache[resource] = value
	m.mu.Unlock()

	return value, nil
}

func (m *Manager) Close() error {
	return m.client.Close()
}

func (m *Manager) resourceName(name string) string {
	if strings.HasPrefix(name, "projects/") {
		return name
	}
	return fmt.Sprintf("projects/%s/secrets/%s/versions/latest", m.projectID, name)
}

// Resolve prefers directly injected material over a secret reference.
// Both empty yields an empty string without error; callers decide
// whether the credential is mandatory.
func Resolve(ctx context.Context, provider Provider, direct, secretName string) (string, error) {
	if direct != "" {
		return direct, nil
	}
	if secretName == "" {
		return "", nil
	}
	if provider == nil {
		return "", errors.New("secret provider not configured")
	}
	return provider.Access(ctx, secretName)
}

// Bundle groups the credentials the services need at runtime, resolved
// once during startup.
type Bundle struct {
	PosterToken   string
	WebhookAPIKey string
	QueryToken    string
	MongoURI      string
}

// ResolveBundle materializes every configured credential, consulting the
// provider only for values that are referenced by secret name.
func ResolveBundle(ctx context.Context, provider Provider, cfg *config.Config) (*Bundle, error) {
	posterToken, err := Resolve(ctx, provider, cfg.Poster.Token, cfg.Poster.TokenSecretName)
	if err != nil {
		return nil, fmt.Errorf("resolving poster token: %w", err)
	}
	webhookKey, err := Resolve(ctx, provider, cfg.Webhook.APIKey, cfg.Webhook.APIKeySecretName)
	if err != nil {
		return nil, fmt.Errorf("resolving webhook api key: %w", err)
	}
	queryToken, err := Resolve(ctx, provider, cfg.Auth.QueryToken, cfg.Auth.QueryTokenSecretName)
	if err != nil {
		return nil, fmt.Errorf("resolving query token: %w", err)
	}
	mongoURI, err := Resolve(ctx, provider, cfg.Mongo.URI, cfg.Mongo.URISecretName)
	if err != nil {
		return nil, fmt.Errorf("resolving mongo uri: %w", err)
	}

	return &Bundle{
		PosterToken:   posterToken,
		WebhookAPIKey: webhookKey,
		QueryToken:    queryToken,
		MongoURI:      mongoURI,
	}, nil
}
