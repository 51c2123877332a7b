package config

// EnvPrefix is the shared prefix for every environment variable the
// service reads.
const EnvPrefix = "POSTER_BRIDGE"

// Environment variable names, kept in one place so validation messages
// and tests never drift from the struct tags.
const (
	EnvAppEnv       = "POSTER_BRIDGE_APP_ENV"
	EnvPort         = "POSTER_BRIDGE_APP_PORT"
	EnvLogLevel     = "POSTER_BRIDGE_LOG_LEVEL"
	EnvLogWarnStack = "POSTER_BRIDGE_LOG_WARN_STACK"

	EnvPosterBaseURL         = "POSTER_BRIDGE_POSTER_BASE_URL"
	EnvPosterToken           = "POSTER_BRIDGE_POSTER_TOKEN"
	EnvPosterTokenSecretName = "POSTER_BRIDGE_POSTER_TOKEN_SECRET_NAME"
	EnvPosterTimeout         = "POSTER_BRIDGE_POSTER_TIMEOUT"

	EnvWebhookAPIKey           = "POSTER_BRIDGE_WEBHOOK_API_KEY"
	EnvWebhookAPIKeySecretName = "POSTER_BRIDGE_WEBHOOK_API_KEY_SECRET_NAME"
	EnvWebhookAllowedActions   = "POSTER_BRIDGE_WEBHOOK_ALLOWED_ACTIONS"
	EnvWebhookTriggerActions   = "POSTER_BRIDGE_WEBHOOK_TRIGGER_ACTIONS"

	EnvAuthToken           = "POSTER_BRIDGE_AUTH_TOKEN"
	EnvAuthTokenSecretName = "POSTER_BRIDGE_AUTH_TOKEN_SECRET_NAME"

	EnvStoreWriteMongo     = "POSTER_BRIDGE_STORE_WRITE_MONGO"
	EnvStoreWriteFirestore = "POSTER_BRIDGE_STORE_WRITE_FIRESTORE"
	EnvStoreReadFrom       = "POSTER_BRIDGE_STORE_READ_FROM"

	EnvMongoURI           = "POSTER_BRIDGE_MONGO_URI"
	EnvMongoURISecretName = "POSTER_BRIDGE_MONGO_URI_SECRET_NAME"
	EnvMongoDatabase      = "POSTER_BRIDGE_MONGO_DATABASE"
	EnvMongoTimeout       = "POSTER_BRIDGE_MONGO_TIMEOUT"

	EnvFirestoreProjectID  = "POSTER_BRIDGE_FIRESTORE_PROJECT_ID"
	EnvFirestoreDatabaseID = "POSTER_BRIDGE_FIRESTORE_DATABASE_ID"

	EnvCatalogTTL               = "POSTER_BRIDGE_CATALOG_TTL"
	EnvCatalogIgnoredCategories = "POSTER_BRIDGE_CATALOG_IGNORED_CATEGORIES"

	EnvSyncPerPage       = "POSTER_BRIDGE_SYNC_PER_PAGE"
	EnvSyncMaxEmptyPages = "POSTER_BRIDGE_SYNC_MAX_EMPTY_PAGES"

	EnvRedisURL = "POSTER_BRIDGE_REDIS_URL"

	EnvGCPProjectID = "POSTER_BRIDGE_GCP_PROJECT_ID"

	EnvPubSubEnabled          = "POSTER_BRIDGE_PUBSUB_ENABLED"
	EnvPubSubTransactionTopic = "POSTER_BRIDGE_PUBSUB_TRANSACTION_TOPIC"

	EnvCronInterval       = "POSTER_BRIDGE_CRON_INTERVAL"
	EnvCronLockTTL        = "POSTER_BRIDGE_CRON_LOCK_TTL"
	EnvCronSyncWindowDays = "POSTER_BRIDGE_CRON_SYNC_WINDOW_DAYS"
)

// Recognized application environments.
const (
	AppEnvDev     = "dev"
	AppEnvStaging = "staging"
	AppEnvProd    = "prod"
)

// Read-backend selector values for StoreConfig.ReadFrom.
const (
	ReadBackendMongo     = "mongo"
	ReadBackendFirestore = "firestore"
)
