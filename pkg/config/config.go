package config

import (
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/kelseyhightower/envconfig"
)

const (
	EnvPrefix = "STOREFRONT"

	AppEnvDev  = "dev"
	AppEnvProd = "prod"

	EnvAppEnv          = "STOREFRONT_APP_ENV"
	EnvPort            = "STOREFRONT_APP_PORT"
	EnvLogLevel        = "STOREFRONT_LOG_LEVEL"
	EnvCatalogBaseURL  = "STOREFRONT_CATALOG_BASE_URL"
	EnvSessionStore    = "STOREFRONT_SESSION_STORE"
	EnvSessionSecret   = "STOREFRONT_SESSION_SECRET"
	EnvRedisURL        = "STOREFRONT_REDIS_URL"
	EnvDBDSN           = "STOREFRONT_DB_DSN"
	EnvDBDriver        = "STOREFRONT_DB_DRIVER"
	EnvDBHost          = "STOREFRONT_DB_HOST"
	EnvDBUser          = "STOREFRONT_DB_USER"
	EnvDBName          = "STOREFRONT_DB_NAME"
	EnvCheckoutTaxRate = "STOREFRONT_CHECKOUT_TAX_RATE"

	SessionStoreRedis  = "redis"
	SessionStoreSQL    = "sql"
	SessionStoreMemory = "memory"

	DBDriverPostgres = "postgres"
	DBDriverSQLite   = "sqlite"
)

var legacyDBEnvVars = []string{EnvDBHost, EnvDBUser, EnvDBName}

type Config struct {
	App          AppConfig
	Catalog      CatalogConfig
	Session      SessionConfig
	RateLimit    RateLimitConfig
	Redis        RedisConfig
	DB           DBConfig
	Checkout     CheckoutConfig
	Carousel     CarouselConfig
	Cron         CronConfig
	FeatureFlags FeatureFlagsConfig
}

func Load() (*Config, error) {
	var cfg Config
	if err := envconfig.Process(EnvPrefix, &cfg); err != nil {
		return nil, fmt.Errorf("parsing config: %w", err)
	}
	if err := cfg.Session.validate(); err != nil {
		return nil, err
	}
	if cfg.Session.Store == SessionStoreRedis && cfg.Redis.URL == "" && cfg.Redis.Address == "" {
		return nil, fmt.Errorf("%s is required when the session store is %q", EnvRedisURL, SessionStoreRedis)
	}
	if cfg.NeedsDB() {
		if err := cfg.DB.ensureDSN(); err != nil {
			return nil, err
		}
	}
	return &cfg, nil
}

// RequireDB resolves the DB DSN for tools that always need a database,
// whatever session store the api is configured with.
func (c *Config) RequireDB() error {
	return c.DB.ensureDSN()
}

// NeedsDB reports whether the configured stack requires a SQL connection.
func (c Config) NeedsDB() bool {
	return c.Session.Store == SessionStoreSQL
}

type AppConfig struct {
	Env          string   `envconfig:"STOREFRONT_APP_ENV" required:"true"`
	Port         string   `envconfig:"STOREFRONT_APP_PORT" default:"8080"`
	LogLevel     string   `envconfig:"STOREFRONT_LOG_LEVEL" default:"info"`
	LogWarnStack bool     `envconfig:"STOREFRONT_LOG_WARN_STACK" default:"false"`
	LogFormat    string   `envconfig:"STOREFRONT_LOG_FORMAT"`
	CORSOrigins  []string `envconfig:"STOREFRONT_CORS_ORIGINS" default:"http://localhost:3000"`
}

func (a AppConfig) IsDev() bool {
	return strings.EqualFold(a.Env, AppEnvDev)
}

func (a AppConfig) IsProd() bool {
	return strings.EqualFold(a.Env, AppEnvProd)
}

type CatalogConfig struct {
	BaseURL               string        `envconfig:"STOREFRONT_CATALOG_BASE_URL" default:"https://inspired-sunshine-587c5c91b5.strapiapp.com"`
	MediaBaseURL          string        `envconfig:"STOREFRONT_CATALOG_MEDIA_BASE_URL"`
	Timeout               time.Duration `envconfig:"STOREFRONT_CATALOG_TIMEOUT" default:"10s"`
	CacheTTL              time.Duration `envconfig:"STOREFRONT_CATALOG_CACHE_TTL" default:"1m"`
	BreakerMaxFailures    uint32        `envconfig:"STOREFRONT_CATALOG_BREAKER_MAX_FAILURES" default:"5"`
	BreakerOpenTimeout    time.Duration `envconfig:"STOREFRONT_CATALOG_BREAKER_OPEN_TIMEOUT" default:"30s"`
	BreakerHalfOpenProbes uint32        `envconfig:"STOREFRONT_CATALOG_BREAKER_HALF_OPEN_PROBES" default:"1"`
}

// MediaBase returns the prefix used for relative image URLs.
func (c CatalogConfig) MediaBase() string {
	if c.MediaBaseURL != "" {
		return strings.TrimRight(c.MediaBaseURL, "/")
	}
	return strings.TrimRight(c.BaseURL, "/")
}

type SessionConfig struct {
	Store        string        `envconfig:"STOREFRONT_SESSION_STORE" default:"redis"`
	TTL          time.Duration `envconfig:"STOREFRONT_SESSION_TTL" default:"2h"`
	CookieName   string        `envconfig:"STOREFRONT_SESSION_COOKIE_NAME" default:"sf_session"`
	CookieSecure bool          `envconfig:"STOREFRONT_SESSION_COOKIE_SECURE" default:"true"`
	Secret       string        `envconfig:"STOREFRONT_SESSION_SECRET" required:"true"`
	Issuer       string        `envconfig:"STOREFRONT_SESSION_ISSUER" default:"storefront"`
	LockTTL      time.Duration `envconfig:"STOREFRONT_SESSION_LOCK_TTL" default:"10s"`
	LockWait     time.Duration `envconfig:"STOREFRONT_SESSION_LOCK_WAIT" default:"3s"`
}

func (s *SessionConfig) validate() error {
	s.Store = strings.ToLower(strings.TrimSpace(s.Store))
	switch s.Store {
	case SessionStoreRedis, SessionStoreSQL, SessionStoreMemory:
	default:
		return fmt.Errorf("%s must be one of redis, sql, memory (got %q)", EnvSessionStore, s.Store)
	}
	if s.TTL <= 0 {
		return fmt.Errorf("session ttl must be positive")
	}
	return nil
}

type RateLimitConfig struct {
	Window       time.Duration `envconfig:"STOREFRONT_RATE_LIMIT_WINDOW" default:"1m"`
	SessionLimit int           `envconfig:"STOREFRONT_RATE_LIMIT_SESSION_LIMIT" default:"120"`
	IPLimit      int           `envconfig:"STOREFRONT_RATE_LIMIT_IP_LIMIT" default:"600"`
}

type RedisConfig struct {
	URL          string        `envconfig:"STOREFRONT_REDIS_URL"`
	Address      string        `envconfig:"STOREFRONT_REDIS_ADDR"`
	Password     string        `envconfig:"STOREFRONT_REDIS_PASSWORD"`
	DB           int           `envconfig:"STOREFRONT_REDIS_DB" default:"0"`
	PoolSize     int           `envconfig:"STOREFRONT_REDIS_POOL_SIZE" default:"10"`
	MinIdleConns int           `envconfig:"STOREFRONT_REDIS_MIN_IDLE_CONNS" default:"2"`
	DialTimeout  time.Duration `envconfig:"STOREFRONT_REDIS_DIAL_TIMEOUT" default:"5s"`
	ReadTimeout  time.Duration `envconfig:"STOREFRONT_REDIS_READ_TIMEOUT" default:"5s"`
	WriteTimeout time.Duration `envconfig:"STOREFRONT_REDIS_WRITE_TIMEOUT" default:"5s"`
}

// Enabled reports whether any Redis endpoint has been configured.
func (r RedisConfig) Enabled() bool {
	return r.URL != "" || r.Address != ""
}

type DBConfig struct {
	DSN    string `envconfig:"STOREFRONT_DB_DSN"`
	Driver string `envconfig:"STOREFRONT_DB_DRIVER" default:"postgres"`

	LegacyHost     string `envconfig:"STOREFRONT_DB_HOST"`
	LegacyPort     int    `envconfig:"STOREFRONT_DB_PORT" default:"5432"`
	LegacyUser     string `envconfig:"STOREFRONT_DB_USER"`
	LegacyPassword string `envconfig:"STOREFRONT_DB_PASSWORD"`
	LegacyName     string `envconfig:"STOREFRONT_DB_NAME"`
	LegacySSLMode  string `envconfig:"STOREFRONT_DB_SSLMODE" default:"disable"`

	MaxOpenConns    int           `envconfig:"STOREFRONT_DB_MAX_OPEN_CONNS" default:"20"`
	MaxIdleConns    int           `envconfig:"STOREFRONT_DB_MAX_IDLE_CONNS" default:"10"`
	ConnMaxLifetime time.Duration `envconfig:"STOREFRONT_DB_CONN_MAX_LIFETIME" default:"1h"`
	ConnMaxIdleTime time.Duration `envconfig:"STOREFRONT_DB_CONN_MAX_IDLE_TIME" default:"10m"`
}

type CheckoutConfig struct {
	FreeShippingThreshold string `envconfig:"STOREFRONT_CHECKOUT_FREE_SHIPPING_THRESHOLD" default:"100"`
	FlatShipping          string `envconfig:"STOREFRONT_CHECKOUT_FLAT_SHIPPING" default:"9.99"`
	TaxRate               string `envconfig:"STOREFRONT_CHECKOUT_TAX_RATE" default:"0.08"`
}

type CarouselConfig struct {
	Interval time.Duration `envconfig:"STOREFRONT_CAROUSEL_INTERVAL" default:"4s"`
}

type CronConfig struct {
	SweepInterval time.Duration `envconfig:"STOREFRONT_CRON_SWEEP_INTERVAL" default:"15m"`
	JobTimeout    time.Duration `envconfig:"STOREFRONT_CRON_JOB_TIMEOUT" default:"2m"`
}

type FeatureFlagsConfig struct {
	AutoMigrate bool `envconfig:"STOREFRONT_AUTO_MIGRATE" default:"false"`
}

func (db *DBConfig) ensureDSN() error {
	db.Driver = strings.ToLower(strings.TrimSpace(db.Driver))
	if db.Driver == "" {
		db.Driver = DBDriverPostgres
	}
	if db.Driver != DBDriverPostgres && db.Driver != DBDriverSQLite {
		return fmt.Errorf("%s must be postgres or sqlite (got %q)", EnvDBDriver, db.Driver)
	}
	if db.DSN != "" {
		return nil
	}
	if db.Driver == DBDriverSQLite {
		return fmt.Errorf("%s is required for the sqlite driver", EnvDBDSN)
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
