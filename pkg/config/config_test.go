package config

import (
	"os"
	"testing"
	"time"
)

func TestLoad_Success(t *testing.T) {
	setMinimalEnv(t)

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() returned unexpected error: %v", err)
	}

	if cfg.App.Env != "production" {
		t.Fatalf("expected App.Env to be production, got %q", cfg.App.Env)
	}
	if cfg.App.Port != "8081" {
		t.Fatalf("expected port 8081, got %q", cfg.App.Port)
	}
	if cfg.Redis.URL != "redis://localhost:6379/0" {
		t.Fatalf("unexpected Redis URL: %q", cfg.Redis.URL)
	}
	if got := cfg.Catalog.Timeout; got != 10*time.Second {
		t.Fatalf("expected catalog timeout 10s, got %v", got)
	}
	if got := cfg.Carousel.Interval; got != 4*time.Second {
		t.Fatalf("expected carousel interval 4s, got %v", got)
	}
	if cfg.Checkout.TaxRate != "0.08" || cfg.Checkout.FlatShipping != "9.99" || cfg.Checkout.FreeShippingThreshold != "100" {
		t.Fatalf("unexpected checkout defaults: %+v", cfg.Checkout)
	}
	if cfg.Session.Store != SessionStoreRedis {
		t.Fatalf("expected redis session store, got %q", cfg.Session.Store)
	}
	if cfg.NeedsDB() {
		t.Fatal("redis session store should not require a database")
	}
}

func TestLoad_MissingRequired(t *testing.T) {
	setMinimalEnv(t)
	if err := os.Unsetenv(EnvAppEnv); err != nil {
		t.Fatalf("failed to unset %s: %v", EnvAppEnv, err)
	}

	if _, err := Load(); err == nil {
		t.Fatal("expected missing required env to return an error")
	}
}

func TestLoad_RejectsUnknownSessionStore(t *testing.T) {
	setMinimalEnv(t)
	t.Setenv(EnvSessionStore, "cookie")

	if _, err := Load(); err == nil {
		t.Fatal("expected unknown session store to fail")
	}
}

func TestLoad_RedisStoreRequiresRedis(t *testing.T) {
	setMinimalEnv(t)
	t.Setenv(EnvRedisURL, "")

	if _, err := Load(); err == nil {
		t.Fatal("expected redis session store without redis url to fail")
	}
}

func TestLoad_SQLStoreBuildsLegacyDSN(t *testing.T) {
	setMinimalEnv(t)
	t.Setenv(EnvSessionStore, "SQL")
	t.Setenv(EnvDBHost, "db.internal")
	t.Setenv(EnvDBUser, "shop")
	t.Setenv(EnvDBName, "storefront")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() returned unexpected error: %v", err)
	}
	if !cfg.NeedsDB() {
		t.Fatal("expected sql store to require a database")
	}
	want := "postgres://shop@db.internal:5432/storefront?sslmode=disable"
	if cfg.DB.DSN != want {
		t.Fatalf("expected dsn %q, got %q", want, cfg.DB.DSN)
	}
}

func TestLoad_SQLStoreMissingDatabase(t *testing.T) {
	setMinimalEnv(t)
	t.Setenv(EnvSessionStore, SessionStoreSQL)

	if _, err := Load(); err == nil {
		t.Fatal("expected sql store without database settings to fail")
	}
}

func TestLoad_SQLiteRequiresDSN(t *testing.T) {
	setMinimalEnv(t)
	t.Setenv(EnvSessionStore, SessionStoreSQL)
	t.Setenv(EnvDBDriver, DBDriverSQLite)

	if _, err := Load(); err == nil {
		t.Fatal("expected sqlite driver without dsn to fail")
	}

	t.Setenv(EnvDBDSN, "file::memory:?cache=shared")
	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() returned unexpected error: %v", err)
	}
	if cfg.DB.Driver != DBDriverSQLite {
		t.Fatalf("expected sqlite driver, got %q", cfg.DB.Driver)
	}
}

func TestCatalogMediaBase(t *testing.T) {
	c := CatalogConfig{BaseURL: "https://cms.example.com/"}
	if got := c.MediaBase(); got != "https://cms.example.com" {
		t.Fatalf("unexpected media base %q", got)
	}
	c.MediaBaseURL = "https://cdn.example.com"
	if got := c.MediaBase(); got != "https://cdn.example.com" {
		t.Fatalf("unexpected media base %q", got)
	}
}

func setMinimalEnv(t *testing.T) {
	t.Helper()

	t.Setenv(EnvAppEnv, "production")
	t.Setenv(EnvPort, "8081")
	t.Setenv(EnvRedisURL, "redis://localhost:6379/0")
	t.Setenv(EnvSessionSecret, "secret")
	for _, key := range []string{EnvSessionStore, EnvDBDriver, EnvDBDSN, EnvDBHost, EnvDBUser, EnvDBName} {
		unsetEnv(t, key)
	}
}

// unsetEnv clears key for the duration of the test; envconfig treats a
// set-but-empty variable as an explicit value.
func unsetEnv(t *testing.T, key string) {
	t.Helper()
	t.Setenv(key, "")
	if err := os.Unsetenv(key); err != nil {
		t.Fatalf("failed to unset %s: %v", key, err)
	}
}

func TestAppConfigEnvHelpers(t *testing.T) {
	devConfig := AppConfig{Env: "DEV"}
	if !devConfig.IsDev() {
		t.Fatalf("expected IsDev true for %q", devConfig.Env)
	}
	if devConfig.IsProd() {
		t.Fatalf("expected IsProd false for %q", devConfig.Env)
	}

	prodConfig := AppConfig{Env: "prod"}
	if !prodConfig.IsProd() {
		t.Fatalf("expected IsProd true for %q", prodConfig.Env)
	}
	if prodConfig.IsDev() {
		t.Fatalf("expected IsDev false for %q", prodConfig.Env)
	}
}
