package config

// EnvPrefix is passed to envconfig; individual fields carry full names so
// the prefix only applies to fields without an explicit tag.
const EnvPrefix = "CRAFTKART"

const (
	AppEnvDev  = "dev"
	AppEnvProd = "prod"
)

const (
	EnvAppEnv     = "CRAFTKART_APP_ENV"
	EnvPort       = "CRAFTKART_APP_PORT"
	EnvRedisURL   = "CRAFTKART_REDIS_URL"
	EnvJWTSecret  = "CRAFTKART_JWT_SECRET"
	EnvJWTIssuer  = "CRAFTKART_JWT_ISSUER"
	EnvJWTExpMins = "CRAFTKART_JWT_EXPIRATION_MINUTES"

	EnvGCPProjectID        = "CRAFTKART_GCP_PROJECT_ID"
	EnvPubSubNotifTopic    = "CRAFTKART_PUBSUB_NOTIFICATION_TOPIC"
	EnvPubSubNotifSub      = "CRAFTKART_PUBSUB_NOTIFICATION_SUBSCRIPTION"
	EnvRazorpayKeyID       = "CRAFTKART_RAZORPAY_KEY_ID"
	EnvRazorpayKeySecret   = "CRAFTKART_RAZORPAY_KEY_SECRET"
	EnvSendgridAPIKey      = "CRAFTKART_SENDGRID_API_KEY"
	EnvSendgridFromAddress = "CRAFTKART_SENDGRID_FROM_EMAIL"
)

const (
	EnvDBDSN      = "CRAFTKART_DB_DSN"
	EnvDBHost     = "CRAFTKART_DB_HOST"
	EnvDBPort     = "CRAFTKART_DB_PORT"
	EnvDBUser     = "CRAFTKART_DB_USER"
	EnvDBPassword = "CRAFTKART_DB_PASSWORD"
	EnvDBName     = "CRAFTKART_DB_NAME"
	EnvDBSSLMode  = "CRAFTKART_DB_SSLMODE"
)

var legacyDBEnvVars = []string{EnvDBHost, EnvDBUser, EnvDBName}
