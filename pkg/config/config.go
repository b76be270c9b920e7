package config

import (
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/kelseyhightower/envconfig"
)

// EnvPrefix scopes every environment variable consumed by the service.
const EnvPrefix = "CHOPWELL"

const (
	AppEnvDev  = "dev"
	AppEnvProd = "prod"
)

type Config struct {
	App          AppConfig
	DB           DBConfig
	Redis        RedisConfig
	Monnify      MonnifyConfig
	Payment      PaymentConfig
	FeatureFlags FeatureFlagsConfig
	GCP          GCPConfig
	PubSub       PubSubConfig
	Outbox       OutboxConfig
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
	Env          string `envconfig:"CHOPWELL_APP_ENV" required:"true"`
	Port         string `envconfig:"CHOPWELL_APP_PORT" required:"true"`
	LogLevel     string `envconfig:"CHOPWELL_LOG_LEVEL" default:"info"`
	LogWarnStack bool   `envconfig:"CHOPWELL_LOG_WARN_STACK" default:"false"`
}

func (a AppConfig) IsDev() bool {
	return strings.EqualFold(a.Env, AppEnvDev)
}

func (a AppConfig) IsProd() bool {
	return strings.EqualFold(a.Env, AppEnvProd)
}

type DBConfig struct {
	DSN    string `envconfig:"CHOPWELL_DB_DSN"`
	Driver string `envconfig:"CHOPWELL_DB_DRIVER" default:"postgres"`

	Host     string `envconfig:"CHOPWELL_DB_HOST"`
	Port     int    `envconfig:"CHOPWELL_DB_PORT" default:"5432"`
	User     string `envconfig:"CHOPWELL_DB_USER"`
	Password string `envconfig:"CHOPWELL_DB_PASSWORD"`
	Name     string `envconfig:"CHOPWELL_DB_NAME"`
	SSLMode  string `envconfig:"CHOPWELL_DB_SSLMODE" default:"disable"`

	MaxOpenConns    int           `envconfig:"CHOPWELL_DB_MAX_OPEN_CONNS" default:"20"`
	MaxIdleConns    int           `envconfig:"CHOPWELL_DB_MAX_IDLE_CONNS" default:"10"`
	ConnMaxLifetime time.Duration `envconfig:"CHOPWELL_DB_CONN_MAX_LIFETIME" default:"1h"`
	ConnMaxIdleTime time.Duration `envconfig:"CHOPWELL_DB_CONN_MAX_IDLE_TIME" default:"10m"`
}

type RedisConfig struct {
	URL          string        `envconfig:"CHOPWELL_REDIS_URL" required:"true"`
	Address      string        `envconfig:"CHOPWELL_REDIS_ADDR"`
	Password     string        `envconfig:"CHOPWELL_REDIS_PASSWORD"`
	DB           int           `envconfig:"CHOPWELL_REDIS_DB" default:"0"`
	PoolSize     int           `envconfig:"CHOPWELL_REDIS_POOL_SIZE" default:"10"`
	MinIdleConns int           `envconfig:"CHOPWELL_REDIS_MIN_IDLE_CONNS" default:"2"`
	DialTimeout  time.Duration `envconfig:"CHOPWELL_REDIS_DIAL_TIMEOUT" default:"5s"`
	ReadTimeout  time.Duration `envconfig:"CHOPWELL_REDIS_READ_TIMEOUT" default:"5s"`
	WriteTimeout time.Duration `envconfig:"CHOPWELL_REDIS_WRITE_TIMEOUT" default:"5s"`
}

// MonnifyConfig carries credentials for the payment provider.
type MonnifyConfig struct {
	BaseURL       string        `envconfig:"CHOPWELL_MONNIFY_BASE_URL" default:"https://api.monnify.com"`
	APIKey        string        `envconfig:"CHOPWELL_MONNIFY_API_KEY" required:"true"`
	SecretKey     string        `envconfig:"CHOPWELL_MONNIFY_SECRET_KEY" required:"true"`
	ContractCode  string        `envconfig:"CHOPWELL_MONNIFY_CONTRACT_CODE" required:"true"`
	AllowedIPs    []string      `envconfig:"CHOPWELL_MONNIFY_ALLOWED_IPS" default:"35.242.133.146"`
	HTTPTimeout   time.Duration `envconfig:"CHOPWELL_MONNIFY_HTTP_TIMEOUT" default:"15s"`
	AmountEpsilon string        `envconfig:"CHOPWELL_MONNIFY_AMOUNT_EPSILON" default:"0.01"`
}

// PaymentConfig tunes the reconciliation pipeline.
type PaymentConfig struct {
	SessionTTL        time.Duration `envconfig:"CHOPWELL_PAYMENT_SESSION_TTL" default:"6h"`
	ProcessingLockTTL time.Duration `envconfig:"CHOPWELL_PAYMENT_PROCESSING_LOCK_TTL" default:"60s"`
	WebhookDedupTTL   time.Duration `envconfig:"CHOPWELL_PAYMENT_WEBHOOK_DEDUP_TTL" default:"24h"`
	RecencyWindow     time.Duration `envconfig:"CHOPWELL_PAYMENT_RECENCY_WINDOW" default:"2h"`
	ClockSkew         time.Duration `envconfig:"CHOPWELL_PAYMENT_CLOCK_SKEW" default:"2m"`
}

type FeatureFlagsConfig struct {
	UseSQLite   bool `envconfig:"CHOPWELL_USE_SQLITE" default:"false"`
	AutoMigrate bool `envconfig:"CHOPWELL_AUTO_MIGRATE" default:"false"`
}

type GCPConfig struct {
	ProjectID              string `envconfig:"CHOPWELL_GCP_PROJECT_ID" required:"true"`
	CredentialsJSON        string `envconfig:"CHOPWELL_GCP_CREDENTIALS_JSON"`
	ApplicationCredentials string `envconfig:"CHOPWELL_GOOGLE_APPLICATION_CREDENTIALS"`
}

type PubSubConfig struct {
	NotificationTopic        string `envconfig:"CHOPWELL_PUBSUB_NOTIFICATION_TOPIC" default:"cw-notification-events"`
	NotificationSubscription string `envconfig:"CHOPWELL_PUBSUB_NOTIFICATION_SUBSCRIPTION" required:"true"`
}

type OutboxConfig struct {
	BatchSize      int `envconfig:"CHOPWELL_OUTBOX_PUBLISH_BATCH_SIZE" default:"50"`
	PollIntervalMS int `envconfig:"CHOPWELL_OUTBOX_PUBLISH_POLL_MS" default:"500"`
	MaxAttempts    int `envconfig:"CHOPWELL_OUTBOX_MAX_ATTEMPTS" default:"10"`
}

func (db *DBConfig) ensureDSN() error {
	if db.DSN != "" {
		return nil
	}

	missing := []string{}
	required := map[string]string{
		"CHOPWELL_DB_HOST": db.Host,
		"CHOPWELL_DB_USER": db.User,
		"CHOPWELL_DB_NAME": db.Name,
	}
	for _, name := range []string{"CHOPWELL_DB_HOST", "CHOPWELL_DB_USER", "CHOPWELL_DB_NAME"} {
		if required[name] == "" {
			missing = append(missing, name)
		}
	}

	if len(missing) > 0 {
		return fmt.Errorf("either CHOPWELL_DB_DSN or %s are required", strings.Join(missing, ", "))
	}

	userInfo := url.User(db.User)
	if db.Password != "" {
		userInfo = url.UserPassword(db.User, db.Password)
	}

	u := &url.URL{
		Scheme: "postgres",
		User:   userInfo,
		Host:   fmt.Sprintf("%s:%d", db.Host, db.Port),
		Path:   db.Name,
	}

	if db.SSLMode != "" {
		q := u.Query()
		q.Set("sslmode", db.SSLMode)
		u.RawQuery = q.Encode()
	}

	db.DSN = u.String()
	return nil
}
