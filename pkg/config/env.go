package config

const (
	EnvPrefix = "LEARNHUB"

	AppEnvDev  = "dev"
	AppEnvProd = "prod"

	DBDriverPostgres = "postgres"
	DBDriverSQLite   = "sqlite"

	GatewayProviderPagarme = "pagarme"
	GatewayProviderSquare  = "square"
)

const (
	EnvAppEnv   = "LEARNHUB_APP_ENV"
	EnvPort     = "LEARNHUB_APP_PORT"
	EnvLogLevel = "LEARNHUB_LOG_LEVEL"

	EnvDBDSN        = "LEARNHUB_DB_DSN"
	EnvDBServiceDSN = "LEARNHUB_DB_SERVICE_DSN"
	EnvDBHost       = "LEARNHUB_DB_HOST"
	EnvDBUser       = "LEARNHUB_DB_USER"
	EnvDBName       = "LEARNHUB_DB_NAME"

	EnvRedisURL = "LEARNHUB_REDIS_URL"

	EnvJWTSecret = "LEARNHUB_JWT_SECRET"
	EnvJWTIssuer = "LEARNHUB_JWT_ISSUER"

	EnvGatewayProvider    = "LEARNHUB_GATEWAY_PROVIDER"
	EnvGatewaySecretKey   = "LEARNHUB_GATEWAY_SECRET_KEY"
	EnvGatewayRecipientID = "LEARNHUB_GATEWAY_PLATFORM_RECIPIENT_ID"
	EnvGatewayTimeout     = "LEARNHUB_GATEWAY_TIMEOUT"

	EnvSquareAccessToken = "LEARNHUB_SQUARE_ACCESS_TOKEN"
	EnvSquareLocationID  = "LEARNHUB_SQUARE_LOCATION_ID"

	EnvCheckoutLockTTL = "LEARNHUB_CHECKOUT_LOCK_TTL"
	EnvOutboxMaxTries  = "LEARNHUB_OUTBOX_MAX_ATTEMPTS"

	EnvWorkerID = "LEARNHUB_WORKER_ID"

	EnvPubSubProjectID   = "LEARNHUB_PUBSUB_PROJECT_ID"
	EnvPubSubDomainTopic = "LEARNHUB_PUBSUB_DOMAIN_TOPIC"
)

var legacyDBEnvVars = []string{EnvDBHost, EnvDBUser, EnvDBName}
