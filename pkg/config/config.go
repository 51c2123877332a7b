package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/kelseyhightower/envconfig"
)

type Config struct {
	App       AppConfig
	Service   ServiceConfig
	Poster    PosterConfig
	Webhook   WebhookConfig
	Auth      AuthConfig
	Store     StoreConfig
	Mongo     MongoConfig
	Firestore FirestoreConfig
	Catalog   CatalogConfig
	Sync      SyncConfig
	Redis     RedisConfig
	GCP       GCPConfig
	PubSub    PubSubConfig
	Cron      CronConfig
}

func Load() (*Config, error) {
	var cfg Config
	if err := envconfig.Process(EnvPrefix, &cfg); err != nil {
		return nil, fmt.Errorf("parsing config: %w", err)
	}
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

type AppConfig struct {
	Env          string `envconfig:"POSTER_BRIDGE_APP_ENV" required:"true"`
	Port         string `envconfig:"POSTER_BRIDGE_APP_PORT" required:"true"`
	LogLevel     string `envconfig:"POSTER_BRIDGE_LOG_LEVEL" default:"info"`
	LogWarnStack bool   `envconfig:"POSTER_BRIDGE_LOG_WARN_STACK" default:"false"`
}

func (a AppConfig) IsDev() bool {
	return strings.EqualFold(a.Env, AppEnvDev)
}

func (a AppConfig) IsProd() bool {
	return strings.EqualFold(a.Env, AppEnvProd)
}

type ServiceConfig struct {
	Kind string `envconfig:"POSTER_BRIDGE_SERVICE_KIND" default:"api"`
}

// PosterConfig points the upstream client at the Poster POS API.
type PosterConfig struct {
	BaseURL         string        `envconfig:"POSTER_BRIDGE_POSTER_BASE_URL" default:"https://joinposter.com/api"`
	Token           string        `envconfig:"POSTER_BRIDGE_POSTER_TOKEN"`
	TokenSecretName string        `envconfig:"POSTER_BRIDGE_POSTER_TOKEN_SECRET_NAME"`
	Timeout         time.Duration `envconfig:"POSTER_BRIDGE_POSTER_TIMEOUT" default:"10s"`
}

// WebhookConfig holds the inbound shared secret and the action policy.
// The allow-list bounds which actions are accepted at all; the trigger
// subset decides which of them persist a derived transaction.
type WebhookConfig struct {
	APIKey           string   `envconfig:"POSTER_BRIDGE_WEBHOOK_API_KEY"`
	APIKeySecretName string   `envconfig:"POSTER_BRIDGE_WEBHOOK_API_KEY_SECRET_NAME"`
	AllowedActions   []string `envconfig:"POSTER_BRIDGE_WEBHOOK_ALLOWED_ACTIONS" default:"added,changed,removed,transformed,closed"`
	TriggerActions   []string `envconfig:"POSTER_BRIDGE_WEBHOOK_TRIGGER_ACTIONS" default:"closed,changed"`
}

// AuthConfig holds the static token that guards the query endpoints.
type AuthConfig struct {
	QueryToken           string `envconfig:"POSTER_BRIDGE_AUTH_TOKEN"`
	QueryTokenSecretName string `envconfig:"POSTER_BRIDGE_AUTH_TOKEN_SECRET_NAME"`
}

// StoreConfig switches the dual-write facade: each backend can be
// write-enabled independently, and reads always come from exactly one.
type StoreConfig struct {
	WriteMongo     bool   `envconfig:"POSTER_BRIDGE_STORE_WRITE_MONGO" default:"true"`
	WriteFirestore bool   `envconfig:"POSTER_BRIDGE_STORE_WRITE_FIRESTORE" default:"true"`
	ReadFrom       string `envconfig:"POSTER_BRIDGE_STORE_READ_FROM" default:"mongo"`
}

func (s StoreConfig) ReadsMongo() bool {
	return strings.EqualFold(s.ReadFrom, ReadBackendMongo)
}

func (s StoreConfig) ReadsFirestore() bool {
	return strings.EqualFold(s.ReadFrom, ReadBackendFirestore)
}

// MongoActive reports whether the mongo backend participates at all.
func (s StoreConfig) MongoActive() bool {
	return s.WriteMongo || s.ReadsMongo()
}

// FirestoreActive reports whether the firestore backend participates at all.
func (s StoreConfig) FirestoreActive() bool {
	return s.WriteFirestore || s.ReadsFirestore()
}

func (s StoreConfig) validate() error {
	if !s.ReadsMongo() && !s.ReadsFirestore() {
		return fmt.Errorf("%s must be %q or %q, got %q", EnvStoreReadFrom, ReadBackendMongo, ReadBackendFirestore, s.ReadFrom)
	}
	if !s.WriteMongo && !s.WriteFirestore {
		return fmt.Errorf("at least one of %s or %s must be enabled", EnvStoreWriteMongo, EnvStoreWriteFirestore)
	}
	return nil
}

type MongoConfig struct {
	URI           string        `envconfig:"POSTER_BRIDGE_MONGO_URI"`
	URISecretName string        `envconfig:"POSTER_BRIDGE_MONGO_URI_SECRET_NAME"`
	Database      string        `envconfig:"POSTER_BRIDGE_MONGO_DATABASE" default:"poster_bridge"`
	Timeout       time.Duration `envconfig:"POSTER_BRIDGE_MONGO_TIMEOUT" default:"10s"`
}

type FirestoreConfig struct {
	ProjectID  string `envconfig:"POSTER_BRIDGE_FIRESTORE_PROJECT_ID"`
	DatabaseID string `envconfig:"POSTER_BRIDGE_FIRESTORE_DATABASE_ID" default:"(default)"`
}

// CatalogConfig tunes the lazy cache. IgnoredCategories lists the
// administrative ingredient categories that never become catalog items.
type CatalogConfig struct {
	TTL               time.Duration `envconfig:"POSTER_BRIDGE_CATALOG_TTL" default:"24h"`
	IgnoredCategories []string      `envconfig:"POSTER_BRIDGE_CATALOG_IGNORED_CATEGORIES" default:"7,9,23,24,25,31,36,42"`
}

type SyncConfig struct {
	PerPage       int `envconfig:"POSTER_BRIDGE_SYNC_PER_PAGE" default:"100"`
	MaxEmptyPages int `envconfig:"POSTER_BRIDGE_SYNC_MAX_EMPTY_PAGES" default:"3"`
}

type RedisConfig struct {
	URL          string        `envconfig:"POSTER_BRIDGE_REDIS_URL" required:"true"`
	Address      string        `envconfig:"POSTER_BRIDGE_REDIS_ADDR"`
	Password     string        `envconfig:"POSTER_BRIDGE_REDIS_PASSWORD"`
	DB           int           `envconfig:"POSTER_BRIDGE_REDIS_DB" default:"0"`
	PoolSize     int           `envconfig:"POSTER_BRIDGE_REDIS_POOL_SIZE" default:"10"`
	MinIdleConns int           `envconfig:"POSTER_BRIDGE_REDIS_MIN_IDLE_CONNS" default:"2"`
	DialTimeout  time.Duration `envconfig:"POSTER_BRIDGE_REDIS_DIAL_TIMEOUT" default:"5s"`
	ReadTimeout  time.Duration `envconfig:"POSTER_BRIDGE_REDIS_READ_TIMEOUT" default:"5s"`
	WriteTimeout time.Duration `envconfig:"POSTER_BRIDGE_REDIS_WRITE_TIMEOUT" default:"5s"`
}

type GCPConfig struct {
	ProjectID              string `envconfig:"POSTER_BRIDGE_GCP_PROJECT_ID"`
	CredentialsJSON        string `envconfig:"POSTER_BRIDGE_GCP_CREDENTIALS_JSON"`
	ApplicationCredentials string `envconfig:"POSTER_BRIDGE_GOOGLE_APPLICATION_CREDENTIALS"`
}

type PubSubConfig struct {
	Enabled          bool   `envconfig:"POSTER_BRIDGE_PUBSUB_ENABLED" default:"false"`
	TransactionTopic string `envconfig:"POSTER_BRIDGE_PUBSUB_TRANSACTION_TOPIC" default:"poster-transaction-events"`
}

type CronConfig struct {
	Interval       time.Duration `envconfig:"POSTER_BRIDGE_CRON_INTERVAL" default:"24h"`
	LockTTL        time.Duration `envconfig:"POSTER_BRIDGE_CRON_LOCK_TTL" default:"30m"`
	SyncWindowDays int           `envconfig:"POSTER_BRIDGE_CRON_SYNC_WINDOW_DAYS" default:"2"`
}

// FirestoreProject resolves the project the firestore client should use,
// falling back to the general GCP project.
func (c *Config) FirestoreProject() string {
	if c.Firestore.ProjectID != "" {
		return c.Firestore.ProjectID
	}
	return c.GCP.ProjectID
}

func (c *Config) validate() error {
	if err := c.Store.validate(); err != nil {
		return err
	}
	if c.Store.MongoActive() && c.Mongo.URI == "" && c.Mongo.URISecretName == "" {
		return fmt.Errorf("either %s or %s is required when the mongo backend is active", EnvMongoURI, EnvMongoURISecretName)
	}
	if c.Store.FirestoreActive() && c.FirestoreProject() == "" {
		return fmt.Errorf("%s is required when the firestore backend is active", EnvGCPProjectID)
	}
	if c.PubSub.Enabled && c.GCP.ProjectID == "" {
		return fmt.Errorf("%s is required when pubsub is enabled", EnvGCPProjectID)
	}
	return nil
}
