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
	Password      PasswordConfig
	AuthRateLimit AuthRateLimitConfig
	FeatureFlags  FeatureFlagsConfig
	Reservations  ReservationsConfig
	GCP           GCPConfig
	GCS           GCSConfig
	Media         MediaConfig
	PubSub        PubSubConfig
	Stripe        StripeConfig
	Outbox        OutboxConfig
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
	Env          string `envconfig:"NESTFINDER_APP_ENV" required:"true"`
	Port         string `envconfig:"NESTFINDER_APP_PORT" required:"true"`
	LogLevel     string `envconfig:"NESTFINDER_LOG_LEVEL" default:"info"`
	LogWarnStack bool   `envconfig:"NESTFINDER_LOG_WARN_STACK" default:"false"`
}

func (a AppConfig) IsDev() bool {
	return strings.EqualFold(a.Env, AppEnvDev)
}

func (a AppConfig) IsProd() bool {
	return strings.EqualFold(a.Env, AppEnvProd)
}

type ServiceConfig struct {
	Kind string `envconfig:"NESTFINDER_SERVICE_KIND" default:"api"`
}

type DBConfig struct {
	DSN    string `envconfig:"NESTFINDER_DB_DSN"`
	Driver string `envconfig:"NESTFINDER_DB_DRIVER" default:"postgres"`

	LegacyHost     string `envconfig:"NESTFINDER_DB_HOST"`
	LegacyPort     int    `envconfig:"NESTFINDER_DB_PORT" default:"5432"`
	LegacyUser     string `envconfig:"NESTFINDER_DB_USER"`
	LegacyPassword string `envconfig:"NESTFINDER_DB_PASSWORD"`
	LegacyName     string `envconfig:"NESTFINDER_DB_NAME"`
	LegacySSLMode  string `envconfig:"NESTFINDER_DB_SSLMODE" default:"disable"`

	MaxOpenConns    int           `envconfig:"NESTFINDER_DB_MAX_OPEN_CONNS" default:"20"`
	MaxIdleConns    int           `envconfig:"NESTFINDER_DB_MAX_IDLE_CONNS" default:"10"`
	ConnMaxLifetime time.Duration `envconfig:"NESTFINDER_DB_CONN_MAX_LIFETIME" default:"1h"`
	ConnMaxIdleTime time.Duration `envconfig:"NESTFINDER_DB_CONN_MAX_IDLE_TIME" default:"10m"`
}

type RedisConfig struct {
	URL          string        `envconfig:"NESTFINDER_REDIS_URL" required:"true"`
	Address      string        `envconfig:"NESTFINDER_REDIS_ADDR"`
	Password     string        `envconfig:"NESTFINDER_REDIS_PASSWORD"`
	DB           int           `envconfig:"NESTFINDER_REDIS_DB" default:"0"`
	PoolSize     int           `envconfig:"NESTFINDER_REDIS_POOL_SIZE" default:"10"`
	MinIdleConns int           `envconfig:"NESTFINDER_REDIS_MIN_IDLE_CONNS" default:"2"`
	DialTimeout  time.Duration `envconfig:"NESTFINDER_REDIS_DIAL_TIMEOUT" default:"5s"`
	ReadTimeout  time.Duration `envconfig:"NESTFINDER_REDIS_READ_TIMEOUT" default:"5s"`
	WriteTimeout time.Duration `envconfig:"NESTFINDER_REDIS_WRITE_TIMEOUT" default:"5s"`
}

type JWTConfig struct {
	Secret                 string `envconfig:"NESTFINDER_JWT_SECRET" required:"true"`
	Issuer                 string `envconfig:"NESTFINDER_JWT_ISSUER" required:"true"`
	ExpirationMinutes      int    `envconfig:"NESTFINDER_JWT_EXPIRATION_MINUTES" required:"true"`
	RefreshTokenTTLMinutes int    `envconfig:"NESTFINDER_REFRESH_TOKEN_TTL_MINUTES" default:"43200"`
}

// RefreshTokenTTL returns the refresh token TTL configured in minutes.
func (j JWTConfig) RefreshTokenTTL() time.Duration {
	if j.RefreshTokenTTLMinutes <= 0 {
		return 0
	}
	return time.Duration(j.RefreshTokenTTLMinutes) * time.Minute
}

type PasswordConfig struct {
	ArgonMemoryKB    int `envconfig:"NESTFINDER_ARGON_MEMORY_KB" default:"65536"`
	ArgonTime        int `envconfig:"NESTFINDER_ARGON_TIME" default:"3"`
	ArgonParallelism int `envconfig:"NESTFINDER_ARGON_PARALLELISM" default:"2"`
	ArgonSaltLen     int `envconfig:"NESTFINDER_ARGON_SALT_LEN" default:"16"`
	ArgonKeyLen      int `envconfig:"NESTFINDER_ARGON_KEY_LEN" default:"32"`
}

type AuthRateLimitConfig struct {
	LoginWindow        time.Duration `envconfig:"NESTFINDER_AUTH_RATE_LIMIT_LOGIN_WINDOW" default:"1m"`
	LoginEmailLimit    int           `envconfig:"NESTFINDER_AUTH_RATE_LIMIT_LOGIN_EMAIL_LIMIT" default:"5"`
	LoginIPLimit       int           `envconfig:"NESTFINDER_AUTH_RATE_LIMIT_LOGIN_IP_LIMIT" default:"20"`
	RegisterWindow     time.Duration `envconfig:"NESTFINDER_AUTH_RATE_LIMIT_REGISTER_WINDOW" default:"5m"`
	RegisterEmailLimit int           `envconfig:"NESTFINDER_AUTH_RATE_LIMIT_REGISTER_EMAIL_LIMIT" default:"3"`
	RegisterIPLimit    int           `envconfig:"NESTFINDER_AUTH_RATE_LIMIT_REGISTER_IP_LIMIT" default:"20"`
}

type FeatureFlagsConfig struct {
	UseSQLite     bool   `envconfig:"NESTFINDER_USE_SQLITE" default:"false"`
	AutoMigrate   bool   `envconfig:"NESTFINDER_AUTO_MIGRATE" default:"false"`
	GCSAccessMode string `envconfig:"NESTFINDER_GCS_ACCESS_MODE" default:"public"`
}

// ReservationsConfig carries the policy knobs for the unlock workflow.
type ReservationsConfig struct {
	// RevokeUnlockOnRefund controls whether a refund also revokes the
	// student's visibility into gated property fields. The default keeps
	// visibility after refund.
	RevokeUnlockOnRefund bool   `envconfig:"NESTFINDER_RESERVATIONS_REVOKE_UNLOCK_ON_REFUND" default:"false"`
	Currency             string `envconfig:"NESTFINDER_RESERVATIONS_CURRENCY" default:"ngn"`
	ReadRetryAttempts    int    `envconfig:"NESTFINDER_RESERVATIONS_READ_RETRY_ATTEMPTS" default:"3"`
}

type GCPConfig struct {
	ProjectID              string `envconfig:"NESTFINDER_GCP_PROJECT_ID" required:"true"`
	CredentialsJSON        string `envconfig:"NESTFINDER_GCP_CREDENTIALS_JSON"`
	ApplicationCredentials string `envconfig:"NESTFINDER_GOOGLE_APPLICATION_CREDENTIALS"`
}

type GCSConfig struct {
	BucketName        string        `envconfig:"NESTFINDER_GCS_BUCKET_NAME" required:"true"`
	UploadURLExpiry   time.Duration `envconfig:"NESTFINDER_GCS_UPLOAD_URL_EXPIRY" required:"true"`
	DownloadURLExpiry time.Duration `envconfig:"NESTFINDER_GCS_DOWNLOAD_URL_EXPIRY" required:"true"`
}

type MediaConfig struct {
	MaxUploadMB int `envconfig:"NESTFINDER_MAX_UPLOAD_MB" default:"50"`
}

type PubSubConfig struct {
	ReservationTopic        string `envconfig:"NESTFINDER_PUBSUB_RESERVATION_TOPIC" required:"true"`
	ReservationSubscription string `envconfig:"NESTFINDER_PUBSUB_RESERVATION_SUBSCRIPTION" required:"true"`
	AlertTopic              string `envconfig:"NESTFINDER_PUBSUB_ALERT_TOPIC" required:"true"`
	AlertSubscription       string `envconfig:"NESTFINDER_PUBSUB_ALERT_SUBSCRIPTION" required:"true"`
}

type OutboxConfig struct {
	BatchSize      int `envconfig:"NESTFINDER_OUTBOX_PUBLISH_BATCH_SIZE" default:"50"`
	PollIntervalMS int `envconfig:"NESTFINDER_OUTBOX_PUBLISH_POLL_MS" default:"500"`
	MaxAttempts    int `envconfig:"NESTFINDER_OUTBOX_MAX_ATTEMPTS" default:"10"`
}

type StripeConfig struct {
	APIKey string `envconfig:"NESTFINDER_STRIPE_API_KEY"`
	Secret string `envconfig:"NESTFINDER_STRIPE_SECRET"`
	Env    string `envconfig:"NESTFINDER_STRIPE_ENV" default:"test"`
}

// Environment returns the normalized Stripe environment (test/live).
func (s StripeConfig) Environment() string {
	env := strings.TrimSpace(strings.ToLower(s.Env))
	if env == "" {
		return "test"
	}
	return env
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
