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
	Stripe       StripeConfig
	Vehicles     VehiclesConfig
	FeatureFlags FeatureFlagsConfig
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
	Env          string `envconfig:"AUTOSALES_APP_ENV" required:"true"`
	Port         string `envconfig:"AUTOSALES_APP_PORT" required:"true"`
	LogLevel     string `envconfig:"AUTOSALES_LOG_LEVEL" default:"info"`
	LogWarnStack bool   `envconfig:"AUTOSALES_LOG_WARN_STACK" default:"false"`

	CORSOrigins []string `envconfig:"AUTOSALES_CORS_ORIGINS"`
}

func (a AppConfig) IsDev() bool {
	return strings.EqualFold(a.Env, AppEnvDev)
}

func (a AppConfig) IsProd() bool {
	return strings.EqualFold(a.Env, AppEnvProd)
}

type DBConfig struct {
	DSN    string `envconfig:"AUTOSALES_DB_DSN"`
	Driver string `envconfig:"AUTOSALES_DB_DRIVER" default:"postgres"`

	LegacyHost     string `envconfig:"AUTOSALES_DB_HOST"`
	LegacyPort     int    `envconfig:"AUTOSALES_DB_PORT" default:"5432"`
	LegacyUser     string `envconfig:"AUTOSALES_DB_USER"`
	LegacyPassword string `envconfig:"AUTOSALES_DB_PASSWORD"`
	LegacyName     string `envconfig:"AUTOSALES_DB_NAME"`
	LegacySSLMode  string `envconfig:"AUTOSALES_DB_SSLMODE" default:"disable"`

	MaxOpenConns    int           `envconfig:"AUTOSALES_DB_MAX_OPEN_CONNS" default:"20"`
	MaxIdleConns    int           `envconfig:"AUTOSALES_DB_MAX_IDLE_CONNS" default:"10"`
	ConnMaxLifetime time.Duration `envconfig:"AUTOSALES_DB_CONN_MAX_LIFETIME" default:"1h"`
	ConnMaxIdleTime time.Duration `envconfig:"AUTOSALES_DB_CONN_MAX_IDLE_TIME" default:"10m"`
}

type RedisConfig struct {
	URL          string        `envconfig:"AUTOSALES_REDIS_URL" required:"true"`
	Address      string        `envconfig:"AUTOSALES_REDIS_ADDR"`
	Password     string        `envconfig:"AUTOSALES_REDIS_PASSWORD"`
	DB           int           `envconfig:"AUTOSALES_REDIS_DB" default:"0"`
	PoolSize     int           `envconfig:"AUTOSALES_REDIS_POOL_SIZE" default:"10"`
	MinIdleConns int           `envconfig:"AUTOSALES_REDIS_MIN_IDLE_CONNS" default:"2"`
	DialTimeout  time.Duration `envconfig:"AUTOSALES_REDIS_DIAL_TIMEOUT" default:"5s"`
	ReadTimeout  time.Duration `envconfig:"AUTOSALES_REDIS_READ_TIMEOUT" default:"3s"`
	WriteTimeout time.Duration `envconfig:"AUTOSALES_REDIS_WRITE_TIMEOUT" default:"3s"`
}

type StripeConfig struct {
	APIKey        string        `envconfig:"AUTOSALES_STRIPE_API_KEY"`
	Secret        string        `envconfig:"AUTOSALES_STRIPE_SECRET"`
	Env           string        `envconfig:"AUTOSALES_STRIPE_ENV" default:"test"`
	Currency      string        `envconfig:"AUTOSALES_STRIPE_CURRENCY" default:"brl"`
	SuccessURL    string        `envconfig:"AUTOSALES_STRIPE_SUCCESS_URL" default:"https://example.com/sales"`
	WebhookTTL    time.Duration `envconfig:"AUTOSALES_STRIPE_WEBHOOK_DEDUP_TTL" default:"24h"`
}

// Environment returns the normalized Stripe environment (test/live).
func (s StripeConfig) Environment() string {
	env := strings.TrimSpace(strings.ToLower(s.Env))
	if env == "" {
		return "test"
	}
	return env
}

type VehiclesConfig struct {
	BaseURL   string        `envconfig:"AUTOSALES_VEHICLES_URL" required:"true"`
	AuthToken string        `envconfig:"AUTOSALES_VEHICLES_AUTH_TOKEN"`
	Timeout   time.Duration `envconfig:"AUTOSALES_VEHICLES_TIMEOUT" default:"10s"`
}

type FeatureFlagsConfig struct {
	AutoMigrate bool `envconfig:"AUTOSALES_AUTO_MIGRATE" default:"false"`
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
