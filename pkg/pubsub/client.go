package pubsub

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	pubsub "cloud.google.com/go/pubsub/v2"
	"cloud.google.com/go/pubsub/v2/apiv1/pubsubpb"
	"github.com/posterops/poster-bridge/pkg/config"
	"github.com/posterops/poster-bridge/pkg/logger"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
)

// Event types carried in the event_type message attribute.
const (
	// EventTypeTransactionIngested marks messages emitted after a POS
	// transaction has been persisted from a webhook delivery.
	EventTypeTransactionIngested = "transaction.ingested"

	// EventTypeTransactionsSynced marks messages emitted after a bulk
	// feed sync run finishes.
	EventTypeTransactionsSynced = "transactions.synced"
)

// TransactionEvent is the payload published after ingestion.
type TransactionEvent struct {
	TransactionID int64     `json:"transaction_id"`
	Action        string    `json:"action"`
	RawHookID     string    `json:"raw_hook_id,omitempty"`
	WriteOffCount int       `json:"write_off_count"`
	OccurredAt    time.Time `json:"occurred_at"`
}

// SyncCompletedEvent is the payload published after a bulk sync run.
type SyncCompletedEvent struct {
	DateFrom          string    `json:"date_from"`
	DateTo            string    `json:"date_to,omitempty"`
	TotalRows         int       `json:"total_rows"`
	AffectedRows      int       `json:"affected_rows"`
	AffectedWithError int       `json:"affected_with_error"`
	PagesProcessed    int       `json:"pages_processed"`
	OccurredAt        time.Time `json:"occurred_at"`
}

type Client struct {
	client    *pubsub.Client
	projectID string
	cfg       config.PubSubConfig
}

var (
	errProjectIDRequired = errors.New("gcp project id is required")
	errNoTopic           = errors.New("pubsub topic name is required")
)

// NewClient creates a Pub/Sub v2 client and ensures the configured topic exists.
func NewClient(ctx context.Context, gcp config.GCPConfig, cfg config.PubSubConfig, logg *logger.Logger) (*Client, error) {
	if strings.TrimSpace(gcp.ProjectID) == "" {
		return nil, errProjectIDRequired
	}

	psClient, err := pubsub.NewClient(ctx, gcp.ProjectID)
	if err != nil {
		return nil, fmt.Errorf("creating pubsub client: %w", err)
	}

	c := &Client{
		client:    psClient,
		projectID: gcp.ProjectID,
		cfg:       cfg,
	}

	if err := c.ensureTopicsConfigured(ctx); err != nil {
		_ = psClient.Close()
		return nil, err
	}

	if logg != nil {
		logg.Info(ctx, "pubsub client initialized")
	}

	return c, nil
}

func (c *Client) ensureTopicsConfigured(ctx context.Context) error {
	names := topicNames(c.cfg)
	if len(names) == 0 {
		return errNoTopic
	}
	for _, name := range names {
		if err := c.ensureTopicExists(ctx, name); err != nil {
			return err
		}
	}
	return nil
}

func topicNames(cfg config.PubSubConfig) []string {
	names := []string{}
	for _, name := range []string{
		cfg.TransactionTopic,
	} {
		if trimmed := strings.TrimSpace(name); trimmed != "" {
			names = append(names, trimmed)
		}
	}
	return names
}

func (c *Client) ensureTopicExists(ctx context.Context, name string) error {
	fullName := c.topicResourceName(name)
	if fullName == "" {
		return fmt.Errorf("topic %q not configured", name)
	}

	_, err := c.client.TopicAdminClient.GetTopic(
		ctx,
		&pubsubpb.GetTopicRequest{Topic: fullName},
	)
	if err != nil {
		// v2 uses gRPC errors; NotFound means the topic doesn't exist.
		if status.Code(err) == codes.NotFound {
			return fmt.Errorf("topic %q does not exist", name)
		}
		return fmt.Errorf("checking topic %q: %w", name, err)
	}

	return nil
}

// Publisher returns a publisher handle for the given topic ID/resource name.
func (c *Client) Publisher(name string) *pubsub.Publisher {
	if c == nil || c.client == nil {
		return nil
	}
	fullName := c.topicResourceName(name)
	if fullName == "" {
		return nil
	}
	return c.client.Publisher(fullName)
}

// TransactionPublisher returns the configured transaction event publisher.
func (c *Client) TransactionPublisher() *pubsub.Publisher {
	return c.Publisher(c.cfg.TransactionTopic)
}

// PublishTransactionIngested publishes one ingestion event and waits for
// the server ack. Callers treat failures as non-fatal.
func (c *Client) PublishTransactionIngested(ctx context.Context, event TransactionEvent) (string, error) {
	publisher := c.TransactionPublisher()
	if publisher == nil {
		return "", errNoTopic
	}

	payload, err := json.Marshal(event)
	if err != nil {
		return "", fmt.Errorf("encoding transaction event: %w", err)
	}

	result := publisher.Publish(ctx, &pubsub.Message{
		Data: payload,
		Attributes: map[string]string{
			"event_type": EventTypeTransactionIngested,
			"action":     event.Action,
		},
	})
	id, err := result.Get(ctx)
	if err != nil {
		return "", fmt.Errorf("publishing transaction event: %w", err)
	}
	return id, nil
}

// PublishSyncCompleted publishes one bulk sync summary on the same
// topic, distinguished by the event_type attribute.
func (c *Client) PublishSyncCompleted(ctx context.Context, event SyncCompletedEvent) (string, error) {
	publisher := c.TransactionPublisher()
	if publisher == nil {
		return "", errNoTopic
	}

	payload, err := json.Marshal(event)
	if err != nil {
		return "", fmt.Errorf("encoding sync event: %w", err)
	}

	result := publisher.Publish(ctx, &pubsub.Message{
		Data: payload,
		Attributes: map[string]string{
			"event_type": EventTypeTransactionsSynced,
		},
	})
	id, err := result.Get(ctx)
	if err != nil {
		return "", fmt.Errorf("publishing sync event: %w", err)
	}
	return id, nil
}

// Ping verifies Pub/Sub connectivity by checking configured topics exist.
func (c *Client) Ping(ctx context.Context) error {
	if c == nil {
		return errors.New("pubsub client not initialized")
	}
	return c.ensureTopicsConfigured(ctx)
}

// Close releases the Pub/Sub client resources.
func (c *Client) Close() error {
	if c == nil || c.client == nil {
		return nil
	}
	return c.client.Close()
}

func (c *Client) topicResourceName(name string) string {
	if c == nil {
		return ""
	}
	n := strings.TrimSpace(name)
	if n == "" {
		return ""
	}
	if strings.HasPrefix(n, "projects/") && strings.Contains(n, "/topics/") {
		return n
	}
	p := strings.TrimSpace(c.projectID)
	if p == "" {
		return ""
	}
	return fmt.Sprintf("projects/%s/topics/%s", p, n)
}
