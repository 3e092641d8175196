package config

import (
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/kelseyhightower/envconfig"
)

type Config struct {
	App          AppConfig
	DB           DBConfig
	Redis        RedisConfig
	JWT          JWTConfig
	FeatureFlags FeatureFlagsConfig
	Eventing     EventingConfig
	Gateway      GatewayConfig
	Square       SquareConfig
	Checkout     CheckoutConfig
	Outbox       OutboxConfig
	PubSub       PubSubConfig
}

func Load() (*Config, error) {
	var cfg Config
	if err := envconfig.Process(EnvPrefix, &cfg); err != nil {
		return nil, fmt.Errorf("parsing config: %w", err)
	}
	if err := cfg.DB.ensureDSN(); err != nil {
		return nil, err
	}
	if err := cfg.Gateway.validate(); err != nil {
		return nil, err
	}
	if err := cfg.Checkout.validate(cfg.Gateway.Timeout); err != nil {
		return nil, err
	}
	return &cfg, nil
}

type AppConfig struct {
	Env          string `envconfig:"LEARNHUB_APP_ENV" required:"true"`
	Port         string `envconfig:"LEARNHUB_APP_PORT" required:"true"`
	LogLevel     string `envconfig:"LEARNHUB_LOG_LEVEL" default:"info"`
	LogWarnStack bool   `envconfig:"LEARNHUB_LOG_WARN_STACK" default:"false"`
}

func (a AppConfig) IsDev() bool {
	return strings.EqualFold(a.Env, AppEnvDev)
}

func (a AppConfig) IsProd() bool {
	return strings.EqualFold(a.Env, AppEnvProd)
}

type DBConfig struct {
	DSN    string `envconfig:"LEARNHUB_DB_DSN"`
	Driver string `envconfig:"LEARNHUB_DB_DRIVER" default:"postgres"`
	// ServiceDSN connects with the service role used for post-payment writes.
	ServiceDSN string `envconfig:"LEARNHUB_DB_SERVICE_DSN"`

	LegacyHost     string `envconfig:"LEARNHUB_DB_HOST"`
	LegacyPort     int    `envconfig:"LEARNHUB_DB_PORT" default:"5432"`
	LegacyUser     string `envconfig:"LEARNHUB_DB_USER"`
	LegacyPassword string `envconfig:"LEARNHUB_DB_PASSWORD"`
	LegacyName     string `envconfig:"LEARNHUB_DB_NAME"`
	LegacySSLMode  string `envconfig:"LEARNHUB_DB_SSLMODE" default:"disable"`

	MaxOpenConns    int           `envconfig:"LEARNHUB_DB_MAX_OPEN_CONNS" default:"20"`
	MaxIdleConns    int           `envconfig:"LEARNHUB_DB_MAX_IDLE_CONNS" default:"10"`
	ConnMaxLifetime time.Duration `envconfig:"LEARNHUB_DB_CONN_MAX_LIFETIME" default:"1h"`
	ConnMaxIdleTime time.Duration `envconfig:"LEARNHUB_DB_CONN_MAX_IDLE_TIME" default:"10m"`
}

// ServiceRole returns a copy of the config pointed at the service-role DSN.
// It falls back to the primary DSN when no dedicated credentials are set.
func (db DBConfig) ServiceRole() DBConfig {
	out := db
	if strings.TrimSpace(db.ServiceDSN) != "" {
		out.DSN = db.ServiceDSN
	}
	return out
}

// HasServiceRole reports whether privileged writes use their own connection.
func (db DBConfig) HasServiceRole() bool {
	return strings.TrimSpace(db.ServiceDSN) != "" && db.ServiceDSN != db.DSN
}

type RedisConfig struct {
	URL          string        `envconfig:"LEARNHUB_REDIS_URL" required:"true"`
	Address      string        `envconfig:"LEARNHUB_REDIS_ADDR"`
	Password     string        `envconfig:"LEARNHUB_REDIS_PASSWORD"`
	DB           int           `envconfig:"LEARNHUB_REDIS_DB" default:"0"`
	PoolSize     int           `envconfig:"LEARNHUB_REDIS_POOL_SIZE" default:"10"`
	MinIdleConns int           `envconfig:"LEARNHUB_REDIS_MIN_IDLE_CONNS" default:"2"`
	DialTimeout  time.Duration `envconfig:"LEARNHUB_REDIS_DIAL_TIMEOUT" default:"5s"`
	ReadTimeout  time.Duration `envconfig:"LEARNHUB_REDIS_READ_TIMEOUT" default:"5s"`
	WriteTimeout time.Duration `envconfig:"LEARNHUB_REDIS_WRITE_TIMEOUT" default:"5s"`
}

// JWTConfig describes how identity-provider access tokens are verified.
type JWTConfig struct {
	Secret            string `envconfig:"LEARNHUB_JWT_SECRET" required:"true"`
	Issuer            string `envconfig:"LEARNHUB_JWT_ISSUER" required:"true"`
	ExpirationMinutes int    `envconfig:"LEARNHUB_JWT_EXPIRATION_MINUTES" default:"60"`
}

type FeatureFlagsConfig struct {
	UseSQLite   bool `envconfig:"LEARNHUB_USE_SQLITE" default:"false"`
	AutoMigrate bool `envconfig:"LEARNHUB_AUTO_MIGRATE" default:"false"`
}

type EventingConfig struct {
	OutboxIdempotencyTTL time.Duration `envconfig:"LEARNHUB_EVENTING_IDEMPOTENCY_TTL" default:"720h"`
}

// GatewayConfig selects and configures the card payment provider.
type GatewayConfig struct {
	Provider            string        `envconfig:"LEARNHUB_GATEWAY_PROVIDER" default:"pagarme"`
	BaseURL             string        `envconfig:"LEARNHUB_GATEWAY_BASE_URL" default:"https://api.pagar.me/core/v5"`
	SecretKey           string        `envconfig:"LEARNHUB_GATEWAY_SECRET_KEY"`
	PlatformRecipientID string        `envconfig:"LEARNHUB_GATEWAY_PLATFORM_RECIPIENT_ID"`
	Timeout             time.Duration `envconfig:"LEARNHUB_GATEWAY_TIMEOUT" default:"30s"`
	CountryCode         string        `envconfig:"LEARNHUB_GATEWAY_COUNTRY_CODE" default:"55"`
	Currency            string        `envconfig:"LEARNHUB_GATEWAY_CURRENCY" default:"BRL"`
}

// NormalizedProvider returns the lower-cased provider name.
func (g GatewayConfig) NormalizedProvider() string {
	provider := strings.ToLower(strings.TrimSpace(g.Provider))
	if provider == "" {
		return GatewayProviderPagarme
	}
	return provider
}

func (g GatewayConfig) validate() error {
	switch g.NormalizedProvider() {
	case GatewayProviderPagarme:
		return nil
	case GatewayProviderSquare:
		if strings.TrimSpace(g.PlatformRecipientID) != "" {
			return fmt.Errorf("%s is not supported with the square provider", EnvGatewayRecipientID)
		}
		return nil
	default:
		return fmt.Errorf("%s must be %q or %q", EnvGatewayProvider, GatewayProviderPagarme, GatewayProviderSquare)
	}
}

type SquareConfig struct {
	AccessToken   string `envconfig:"LEARNHUB_SQUARE_ACCESS_TOKEN"`
	LocationID    string `envconfig:"LEARNHUB_SQUARE_LOCATION_ID"`
	WebhookSecret string `envconfig:"LEARNHUB_SQUARE_WEBHOOK_SECRET"`
	Env           string `envconfig:"LEARNHUB_SQUARE_ENV" default:"sandbox"`
}

// Environment returns the normalized Square environment (sandbox/production).
func (s SquareConfig) Environment() string {
	env := strings.TrimSpace(strings.ToLower(s.Env))
	if env == "" {
		return "sandbox"
	}
	return env
}

type CheckoutConfig struct {
	LockTTL time.Duration `envconfig:"LEARNHUB_CHECKOUT_LOCK_TTL" default:"2m"`
}

// validate keeps the per-user lock alive for the whole gateway round trip.
func (c CheckoutConfig) validate(gatewayTimeout time.Duration) error {
	if c.LockTTL <= 0 {
		return fmt.Errorf("%s must be positive", EnvCheckoutLockTTL)
	}
	if c.LockTTL <= gatewayTimeout {
		return fmt.Errorf("%s (%s) must exceed %s (%s)", EnvCheckoutLockTTL, c.LockTTL, EnvGatewayTimeout, gatewayTimeout)
	}
	return nil
}

type OutboxConfig struct {
	BatchSize      int `envconfig:"LEARNHUB_OUTBOX_BATCH_SIZE" default:"50"`
	PollIntervalMS int `envconfig:"LEARNHUB_OUTBOX_POLL_MS" default:"1000"`
	MaxAttempts    int `envconfig:"LEARNHUB_OUTBOX_MAX_ATTEMPTS" default:"10"`
	// MetricsAddr serves the worker's /metrics when set, e.g. ":9091".
	MetricsAddr string `envconfig:"LEARNHUB_WORKER_METRICS_ADDR"`
}

// PubSubConfig points the enrollment worker at a domain-event topic. Fan-out
// is off unless both values are set.
type PubSubConfig struct {
	ProjectID   string `envconfig:"LEARNHUB_PUBSUB_PROJECT_ID"`
	DomainTopic string `envconfig:"LEARNHUB_PUBSUB_DOMAIN_TOPIC"`
}

func (p PubSubConfig) Enabled() bool {
	return strings.TrimSpace(p.ProjectID) != "" && strings.TrimSpace(p.DomainTopic) != ""
}

func (db *DBConfig) ensureDSN() error {
	if db.DSN != "" {
		return nil
	}

	missing := []string{}
	legacyValues := map[string]string{
		EnvDBHost: db.LegacyHost,
		EnvDBUser: db.LegacyUser,
		EnvDBName: db.LegacyName,
	}
	for _, env := range legacyDBEnvVars {
		if legacyValues[env] == "" {
			missing = append(missing, env)
		}
	}

	if len(missing) > 0 {
		return fmt.Errorf("either %s or %s are required", EnvDBDSN, strings.Join(missing, ", "))
	}

	userInfo := url.User(db.LegacyUser)
	if db.LegacyPassword != "" {
		userInfo = url.UserPassword(db.LegacyUser, db.LegacyPassword)
	}

	u := &url.URL{
		Scheme: "postgres",
		User:   userInfo,
		Host:   fmt.Sprintf("%s:%d", db.LegacyHost, db.LegacyPort),
		Path:   db.LegacyName,
	}

	if db.LegacySSLMode != "" {
		q := u.Query()
		q.Set("sslmode", db.LegacySSLMode)
		u.RawQuery = q.Encode()
	}

	db.DSN = u.String()
	return nil
}
