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
	Service      ServiceConfig
	DB           DBConfig
	Redis        RedisConfig
	JWT          JWTConfig
	RateLimit    RateLimitConfig
	FeatureFlags FeatureFlagsConfig
	Checkout     CheckoutConfig
	GCP          GCPConfig
	PubSub       PubSubConfig
	Razorpay     RazorpayConfig
	Sendgrid     SendgridConfig
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
	Env          string `envconfig:"CRAFTKART_APP_ENV" required:"true"`
	Port         string `envconfig:"CRAFTKART_APP_PORT" required:"true"`
	LogLevel     string `envconfig:"CRAFTKART_LOG_LEVEL" default:"info"`
	LogWarnStack bool   `envconfig:"CRAFTKART_LOG_WARN_STACK" default:"false"`
}

func (a AppConfig) IsDev() bool {
	return strings.EqualFold(a.Env, AppEnvDev)
}

func (a AppConfig) IsProd() bool {
	return strings.EqualFold(a.Env, AppEnvProd)
}

type ServiceConfig struct {
	Kind string `envconfig:"CRAFTKART_SERVICE_KIND" default:"api"`
}

type DBConfig struct {
	DSN    string `envconfig:"CRAFTKART_DB_DSN"`
	Driver string `envconfig:"CRAFTKART_DB_DRIVER" default:"postgres"`

	LegacyHost     string `envconfig:"CRAFTKART_DB_HOST"`
	LegacyPort     int    `envconfig:"CRAFTKART_DB_PORT" default:"5432"`
	LegacyUser     string `envconfig:"CRAFTKART_DB_USER"`
	LegacyPassword string `envconfig:"CRAFTKART_DB_PASSWORD"`
	LegacyName     string `envconfig:"CRAFTKART_DB_NAME"`
	LegacySSLMode  string `envconfig:"CRAFTKART_DB_SSLMODE" default:"disable"`

	MaxOpenConns    int           `envconfig:"CRAFTKART_DB_MAX_OPEN_CONNS" default:"20"`
	MaxIdleConns    int           `envconfig:"CRAFTKART_DB_MAX_IDLE_CONNS" default:"10"`
	ConnMaxLifetime time.Duration `envconfig:"CRAFTKART_DB_CONN_MAX_LIFETIME" default:"1h"`
	ConnMaxIdleTime time.Duration `envconfig:"CRAFTKART_DB_CONN_MAX_IDLE_TIME" default:"10m"`
}

type RedisConfig struct {
	URL          string        `envconfig:"CRAFTKART_REDIS_URL" required:"true"`
	Address      string        `envconfig:"CRAFTKART_REDIS_ADDR"`
	Password     string        `envconfig:"CRAFTKART_REDIS_PASSWORD"`
	DB           int           `envconfig:"CRAFTKART_REDIS_DB" default:"0"`
	PoolSize     int           `envconfig:"CRAFTKART_REDIS_POOL_SIZE" default:"10"`
	MinIdleConns int           `envconfig:"CRAFTKART_REDIS_MIN_IDLE_CONNS" default:"2"`
	DialTimeout  time.Duration `envconfig:"CRAFTKART_REDIS_DIAL_TIMEOUT" default:"5s"`
	ReadTimeout  time.Duration `envconfig:"CRAFTKART_REDIS_READ_TIMEOUT" default:"5s"`
	WriteTimeout time.Duration `envconfig:"CRAFTKART_REDIS_WRITE_TIMEOUT" default:"5s"`
}

type JWTConfig struct {
	Secret            string `envconfig:"CRAFTKART_JWT_SECRET" required:"true"`
	Issuer            string `envconfig:"CRAFTKART_JWT_ISSUER" required:"true"`
	ExpirationMinutes int    `envconfig:"CRAFTKART_JWT_EXPIRATION_MINUTES" required:"true"`
}

type RateLimitConfig struct {
	CheckoutWindow    time.Duration `envconfig:"CRAFTKART_RATE_LIMIT_CHECKOUT_WINDOW" default:"1m"`
	CheckoutUserLimit int           `envconfig:"CRAFTKART_RATE_LIMIT_CHECKOUT_USER_LIMIT" default:"10"`
	CouponWindow      time.Duration `envconfig:"CRAFTKART_RATE_LIMIT_COUPON_WINDOW" default:"1m"`
	CouponUserLimit   int           `envconfig:"CRAFTKART_RATE_LIMIT_COUPON_USER_LIMIT" default:"30"`
}

type FeatureFlagsConfig struct {
	UseSQLite   bool `envconfig:"CRAFTKART_USE_SQLITE" default:"false"`
	AutoMigrate bool `envconfig:"CRAFTKART_AUTO_MIGRATE" default:"false"`
}

type CheckoutConfig struct {
	IdempotencyTTL time.Duration `envconfig:"CRAFTKART_CHECKOUT_IDEMPOTENCY_TTL" default:"24h"`
}

type GCPConfig struct {
	ProjectID              string `envconfig:"CRAFTKART_GCP_PROJECT_ID" required:"true"`
	CredentialsJSON        string `envconfig:"CRAFTKART_GCP_CREDENTIALS_JSON"`
	ApplicationCredentials string `envconfig:"CRAFTKART_GOOGLE_APPLICATION_CREDENTIALS"`
}

type PubSubConfig struct {
	NotificationTopic        string `envconfig:"CRAFTKART_PUBSUB_NOTIFICATION_TOPIC" default:"ck-notification-events"`
	NotificationSubscription string `envconfig:"CRAFTKART_PUBSUB_NOTIFICATION_SUBSCRIPTION" required:"true"`
}

type RazorpayConfig struct {
	KeyID     string `envconfig:"CRAFTKART_RAZORPAY_KEY_ID"`
	KeySecret string `envconfig:"CRAFTKART_RAZORPAY_KEY_SECRET"`
	BaseURL   string `envconfig:"CRAFTKART_RAZORPAY_BASE_URL"`
}

type SendgridConfig struct {
	APIKey      string `envconfig:"CRAFTKART_SENDGRID_API_KEY"`
	DefaultFrom string `envconfig:"CRAFTKART_SENDGRID_FROM_EMAIL"`
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
