package config

// EnvPrefix namespaces every configuration variable.
const EnvPrefix = "TANDEMFLIGHT"

const (
	AppEnvDev  = "dev"
	AppEnvProd = "prod"
)

const (
	EnvAppEnv   = "TANDEMFLIGHT_APP_ENV"
	EnvPort     = "TANDEMFLIGHT_APP_PORT"
	EnvLogLevel = "TANDEMFLIGHT_LOG_LEVEL"

	EnvDBDSN      = "TANDEMFLIGHT_DB_DSN"
	EnvDBHost     = "TANDEMFLIGHT_DB_HOST"
	EnvDBPort     = "TANDEMFLIGHT_DB_PORT"
	EnvDBUser     = "TANDEMFLIGHT_DB_USER"
	EnvDBPassword = "TANDEMFLIGHT_DB_PASSWORD"
	EnvDBName     = "TANDEMFLIGHT_DB_NAME"
	EnvDBSSLMode  = "TANDEMFLIGHT_DB_SSLMODE"

	EnvRedisURL = "TANDEMFLIGHT_REDIS_URL"

	EnvJWTSecret = "TANDEMFLIGHT_JWT_SECRET"
	EnvJWTIssuer = "TANDEMFLIGHT_JWT_ISSUER"

	EnvGCPProjectID = "TANDEMFLIGHT_GCP_PROJECT_ID"

	EnvPubSubAnalyticsSub    = "TANDEMFLIGHT_PUBSUB_ANALYTICS_SUBSCRIPTION"
	EnvPubSubNotificationSub = "TANDEMFLIGHT_PUBSUB_NOTIFICATION_SUBSCRIPTION"
	EnvPubSubLifecycleTopic  = "TANDEMFLIGHT_PUBSUB_LIFECYCLE_TOPIC"

	EnvSquareEnv         = "TANDEMFLIGHT_SQUARE_ENV"
	EnvRefundMaxRetries  = "TANDEMFLIGHT_REFUND_MAX_RETRIES"
	EnvRefundBaseBackoff = "TANDEMFLIGHT_REFUND_BASE_BACKOFF"
)

// legacyDBEnvVars must all be present when no DSN is configured.
var legacyDBEnvVars = []string{EnvDBHost, EnvDBUser, EnvDBName}
