package config

import (
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/kelseyhightower/envconfig"
)

type Config struct {
	App           AppConfig
	Service       ServiceConfig
	DB            DBConfig
	Redis         RedisConfig
	JWT           JWTConfig
	RateLimit     RateLimitConfig
	FeatureFlags  FeatureFlagsConfig
	Eventing      EventingConfig
	GCP           GCPConfig
	PubSub        PubSubConfig
	BigQuery      BigQueryConfig
	Square        SquareConfig
	Refunds       RefundConfig
	Outbox        OutboxConfig
	Notifications NotificationConfig
	Feed          FeedConfig
	Cron          CronConfig
}

func Load() (*Config, error) {
	var cfg Config
	if err := envconfig.Process(EnvPrefix, &cfg); err != nil {
		return nil, fmt.Errorf("parsing config: %w", err)
	}
	if err := cfg.DB.ensureDSN(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

type AppConfig struct {
	Env          string `envconfig:"TANDEMFLIGHT_APP_ENV" required:"true"`
	Port         string `envconfig:"TANDEMFLIGHT_APP_PORT" required:"true"`
	LogLevel     string `envconfig:"TANDEMFLIGHT_LOG_LEVEL" default:"info"`
	LogWarnStack bool   `envconfig:"TANDEMFLIGHT_LOG_WARN_STACK" default:"false"`
	LogFormat    string `envconfig:"TANDEMFLIGHT_LOG_FORMAT" default:"json"`
	CORSOrigins  string `envconfig:"TANDEMFLIGHT_CORS_ORIGINS" default:"*"`
}

func (a AppConfig) IsDev() bool {
	return strings.EqualFold(a.Env, AppEnvDev)
}

func (a AppConfig) IsProd() bool {
	return strings.EqualFold(a.Env, AppEnvProd) || strings.EqualFold(a.Env, "production")
}

// AllowedOrigins splits the comma separated CORS origin list.
func (a AppConfig) AllowedOrigins() []string {
	parts := strings.Split(a.CORSOrigins, ",")
	out := make([]string, 0, len(parts))
	for _, part := range parts {
		if trimmed := strings.TrimSpace(part); trimmed != "" {
			out = append(out, trimmed)
		}
	}
	return out
}

type ServiceConfig struct {
	Kind string `envconfig:"TANDEMFLIGHT_SERVICE_KIND" default:"api"`
}

type DBConfig struct {
	DSN    string `envconfig:"TANDEMFLIGHT_DB_DSN"`
	Driver string `envconfig:"TANDEMFLIGHT_DB_DRIVER" default:"postgres"`

	LegacyHost     string `envconfig:"TANDEMFLIGHT_DB_HOST"`
	LegacyPort     int    `envconfig:"TANDEMFLIGHT_DB_PORT" default:"5432"`
	LegacyUser     string `envconfig:"TANDEMFLIGHT_DB_USER"`
	LegacyPassword string `envconfig:"TANDEMFLIGHT_DB_PASSWORD"`
	LegacyName     string `envconfig:"TANDEMFLIGHT_DB_NAME"`
	LegacySSLMode  string `envconfig:"TANDEMFLIGHT_DB_SSLMODE" default:"disable"`

	MaxOpenConns       int           `envconfig:"TANDEMFLIGHT_DB_MAX_OPEN_CONNS" default:"20"`
	MaxIdleConns       int           `envconfig:"TANDEMFLIGHT_DB_MAX_IDLE_CONNS" default:"10"`
	ConnMaxLifetime    time.Duration `envconfig:"TANDEMFLIGHT_DB_CONN_MAX_LIFETIME" default:"1h"`
	ConnMaxIdleTime    time.Duration `envconfig:"TANDEMFLIGHT_DB_CONN_MAX_IDLE_TIME" default:"10m"`
	SlowQueryThreshold time.Duration `envconfig:"TANDEMFLIGHT_DB_SLOW_QUERY_THRESHOLD" default:"500ms"`
}

type RedisConfig struct {
	URL          string        `envconfig:"TANDEMFLIGHT_REDIS_URL" required:"true"`
	Address      string        `envconfig:"TANDEMFLIGHT_REDIS_ADDR"`
	Password     string        `envconfig:"TANDEMFLIGHT_REDIS_PASSWORD"`
	DB           int           `envconfig:"TANDEMFLIGHT_REDIS_DB" default:"0"`
	PoolSize     int           `envconfig:"TANDEMFLIGHT_REDIS_POOL_SIZE" default:"10"`
	MinIdleConns int           `envconfig:"TANDEMFLIGHT_REDIS_MIN_IDLE_CONNS" default:"2"`
	DialTimeout  time.Duration `envconfig:"TANDEMFLIGHT_REDIS_DIAL_TIMEOUT" default:"5s"`
	ReadTimeout  time.Duration `envconfig:"TANDEMFLIGHT_REDIS_READ_TIMEOUT" default:"5s"`
	WriteTimeout time.Duration `envconfig:"TANDEMFLIGHT_REDIS_WRITE_TIMEOUT" default:"5s"`
}

// JWTConfig verifies bearer tokens minted by the identity service.
type JWTConfig struct {
	Secret            string `envconfig:"TANDEMFLIGHT_JWT_SECRET" required:"true"`
	Issuer            string `envconfig:"TANDEMFLIGHT_JWT_ISSUER" required:"true"`
	ExpirationMinutes int    `envconfig:"TANDEMFLIGHT_JWT_EXPIRATION_MINUTES" default:"60"`
}

// RateLimitConfig throttles admin booking mutations per actor and per client IP.
type RateLimitConfig struct {
	MutationWindow     time.Duration `envconfig:"TANDEMFLIGHT_RATE_LIMIT_MUTATION_WINDOW" default:"1m"`
	MutationActorLimit int           `envconfig:"TANDEMFLIGHT_RATE_LIMIT_MUTATION_ACTOR_LIMIT" default:"120"`
	MutationIPLimit    int           `envconfig:"TANDEMFLIGHT_RATE_LIMIT_MUTATION_IP_LIMIT" default:"300"`
}

type FeatureFlagsConfig struct {
	AutoMigrate      bool `envconfig:"TANDEMFLIGHT_AUTO_MIGRATE" default:"false"`
	GatewayRefunds   bool `envconfig:"TANDEMFLIGHT_FEATURE_GATEWAY_REFUNDS" default:"true"`
	AnalyticsExports bool `envconfig:"TANDEMFLIGHT_FEATURE_ANALYTICS_EXPORTS" default:"false"`
}

type EventingConfig struct {
	OutboxIdempotencyTTL time.Duration `envconfig:"TANDEMFLIGHT_EVENTING_IDEMPOTENCY_TTL" default:"720h"`
	HTTPIdempotencyTTL   time.Duration `envconfig:"TANDEMFLIGHT_HTTP_IDEMPOTENCY_TTL" default:"24h"`
}

type GCPConfig struct {
	ProjectID              string `envconfig:"TANDEMFLIGHT_GCP_PROJECT_ID" required:"true"`
	CredentialsJSON        string `envconfig:"TANDEMFLIGHT_GCP_CREDENTIALS_JSON"`
	ApplicationCredentials string `envconfig:"TANDEMFLIGHT_GOOGLE_APPLICATION_CREDENTIALS"`
}

type PubSubConfig struct {
	LifecycleTopic           string `envconfig:"TANDEMFLIGHT_PUBSUB_LIFECYCLE_TOPIC" default:"tf-booking-lifecycle"`
	AnalyticsSubscription    string `envconfig:"TANDEMFLIGHT_PUBSUB_ANALYTICS_SUBSCRIPTION" required:"true"`
	NotificationTopic        string `envconfig:"TANDEMFLIGHT_PUBSUB_NOTIFICATION_TOPIC" default:"tf-notification-events"`
	NotificationSubscription string `envconfig:"TANDEMFLIGHT_PUBSUB_NOTIFICATION_SUBSCRIPTION" required:"true"`
}

type BigQueryConfig struct {
	Dataset         string `envconfig:"TANDEMFLIGHT_BIGQUERY_DATASET" default:"tandemflight"`
	LifecycleTable  string `envconfig:"TANDEMFLIGHT_BIGQUERY_LIFECYCLE_TABLE" default:"booking_lifecycle_events"`
	InsertBatchSize int    `envconfig:"TANDEMFLIGHT_BIGQUERY_INSERT_BATCH_SIZE" default:"1"`
}

// SquareConfig holds the Square credentials used for deposit refunds.
type SquareConfig struct {
	AccessToken  string        `envconfig:"TANDEMFLIGHT_SQUARE_ACCESS_TOKEN"`
	Env          string        `envconfig:"TANDEMFLIGHT_SQUARE_ENV" default:"sandbox"`
	BaseURL      string        `envconfig:"TANDEMFLIGHT_SQUARE_BASE_URL"`
	Timeout      time.Duration `envconfig:"TANDEMFLIGHT_SQUARE_TIMEOUT" default:"15s"`
	RequestsPerS float64       `envconfig:"TANDEMFLIGHT_SQUARE_REQUESTS_PER_SECOND" default:"10"`
}

// Environment returns the normalized Square environment (sandbox/production).
func (s SquareConfig) Environment() string {
	env := strings.TrimSpace(strings.ToLower(s.Env))
	if env == "" {
		return "sandbox"
	}
	return env
}

type RefundConfig struct {
	MaxRetries  uint64        `envconfig:"TANDEMFLIGHT_REFUND_MAX_RETRIES" default:"3"`
	BaseBackoff time.Duration `envconfig:"TANDEMFLIGHT_REFUND_BASE_BACKOFF" default:"200ms"`
	MaxBackoff  time.Duration `envconfig:"TANDEMFLIGHT_REFUND_MAX_BACKOFF" default:"2s"`
}

type OutboxConfig struct {
	BatchSize      int           `envconfig:"TANDEMFLIGHT_OUTBOX_PUBLISH_BATCH_SIZE" default:"50"`
	PollIntervalMS int           `envconfig:"TANDEMFLIGHT_OUTBOX_PUBLISH_POLL_MS" default:"500"`
	MaxAttempts    int           `envconfig:"TANDEMFLIGHT_OUTBOX_MAX_ATTEMPTS" default:"10"`
	Retention      time.Duration `envconfig:"TANDEMFLIGHT_OUTBOX_RETENTION" default:"720h"`
}

type NotificationConfig struct {
	Retention         time.Duration `envconfig:"TANDEMFLIGHT_NOTIFICATION_RETENTION" default:"2160h"`
	PendingNudgeAhead time.Duration `envconfig:"TANDEMFLIGHT_NOTIFICATION_PENDING_NUDGE_AHEAD" default:"48h"`
}

// CronConfig drives the cron worker cadence and its redis lock.
type CronConfig struct {
	Interval time.Duration `envconfig:"TANDEMFLIGHT_CRON_INTERVAL" default:"1h"`
	LockTTL  time.Duration `envconfig:"TANDEMFLIGHT_CRON_LOCK_TTL" default:"55m"`
}

// FeedConfig controls the redis backed booking change feed.
type FeedConfig struct {
	Channel   string        `envconfig:"TANDEMFLIGHT_FEED_CHANNEL" default:"tf:bookings:changes"`
	Heartbeat time.Duration `envconfig:"TANDEMFLIGHT_FEED_HEARTBEAT" default:"25s"`
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
