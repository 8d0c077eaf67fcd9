package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/kelseyhightower/envconfig"
)

type Config struct {
	App        AppConfig
	GCP        GCPConfig
	Firestore  FirestoreConfig
	Redis      RedisConfig
	LocalStore LocalStoreConfig
	Session    SessionConfig
	GoogleMaps GoogleMapsConfig
	PubSub     PubSubConfig
	Cart       CartConfig
	Catalog    CatalogConfig
}

func Load() (*Config, error) {
	var cfg Config
	if err := envconfig.Process(EnvPrefix, &cfg); err != nil {
		return nil, fmt.Errorf("parsing config: %w", err)
	}
	if err := cfg.Cart.validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

type AppConfig struct {
	Env          string `envconfig:"AQUADROP_APP_ENV" required:"true"`
	Port         string `envconfig:"AQUADROP_APP_PORT" default:"8080"`
	LogLevel     string `envconfig:"AQUADROP_LOG_LEVEL" default:"info"`
	LogWarnStack bool   `envconfig:"AQUADROP_LOG_WARN_STACK" default:"false"`
	LogFormat    string `envconfig:"AQUADROP_LOG_FORMAT" default:"json"`
	LogNoColor   bool   `envconfig:"AQUADROP_LOG_NO_COLOR" default:"false"`

	// CORSOrigins extends the local development origins.
	CORSOrigins     []string      `envconfig:"AQUADROP_CORS_ORIGINS"`
	ShutdownTimeout time.Duration `envconfig:"AQUADROP_SHUTDOWN_TIMEOUT" default:"15s"`
}

func (a AppConfig) IsDev() bool {
	return strings.EqualFold(a.Env, AppEnvDev) || strings.EqualFold(a.Env, "development")
}

func (a AppConfig) IsProd() bool {
	return strings.EqualFold(a.Env, AppEnvProd) || strings.EqualFold(a.Env, "production")
}

type GCPConfig struct {
	ProjectID       string `envconfig:"AQUADROP_GCP_PROJECT_ID" required:"true"`
	CredentialsFile string `envconfig:"AQUADROP_GOOGLE_APPLICATION_CREDENTIALS"`
}

// FirestoreConfig names the document collections backing the marketplace.
type FirestoreConfig struct {
	CartsCollection    string        `envconfig:"AQUADROP_FIRESTORE_CARTS" default:"carts"`
	VendorsCollection  string        `envconfig:"AQUADROP_FIRESTORE_VENDORS" default:"vendors"`
	ProductsCollection string        `envconfig:"AQUADROP_FIRESTORE_PRODUCTS" default:"products"`
	OrdersCollection   string        `envconfig:"AQUADROP_FIRESTORE_ORDERS" default:"orders"`
	ProfileCollections []string      `envconfig:"AQUADROP_FIRESTORE_PROFILE_COLLECTIONS" default:"users,vendors,admins"`
	RetryAttempts      uint64        `envconfig:"AQUADROP_FIRESTORE_RETRY_ATTEMPTS" default:"3"`
	RetryBaseDelay     time.Duration `envconfig:"AQUADROP_FIRESTORE_RETRY_BASE_DELAY" default:"1s"`
}

type RedisConfig struct {
	URL          string        `envconfig:"AQUADROP_REDIS_URL"`
	Address      string        `envconfig:"AQUADROP_REDIS_ADDR"`
	Password     string        `envconfig:"AQUADROP_REDIS_PASSWORD"`
	DB           int           `envconfig:"AQUADROP_REDIS_DB" default:"0"`
	PoolSize     int           `envconfig:"AQUADROP_REDIS_POOL_SIZE" default:"10"`
	MinIdleConns int           `envconfig:"AQUADROP_REDIS_MIN_IDLE_CONNS" default:"2"`
	DialTimeout  time.Duration `envconfig:"AQUADROP_REDIS_DIAL_TIMEOUT" default:"5s"`
	ReadTimeout  time.Duration `envconfig:"AQUADROP_REDIS_READ_TIMEOUT" default:"5s"`
	WriteTimeout time.Duration `envconfig:"AQUADROP_REDIS_WRITE_TIMEOUT" default:"5s"`
}

// Enabled reports whether a redis endpoint was configured.
func (r RedisConfig) Enabled() bool {
	return strings.TrimSpace(r.URL) != "" || strings.TrimSpace(r.Address) != ""
}

// LocalStoreConfig points at the device-scoped sqlite database used for anonymous carts.
type LocalStoreConfig struct {
	Path string `envconfig:"AQUADROP_LOCAL_STORE_PATH" default:"file:aquadrop-local.db?_busy_timeout=5000"`
}

// SessionConfig signs the device session tokens handed to anonymous shoppers.
type SessionConfig struct {
	Secret     string `envconfig:"AQUADROP_SESSION_SECRET" required:"true"`
	Issuer     string `envconfig:"AQUADROP_SESSION_ISSUER" default:"aquadrop"`
	TTLMinutes int    `envconfig:"AQUADROP_SESSION_TTL_MINUTES" default:"43200"`
}

// TTL returns the configured session lifetime.
func (s SessionConfig) TTL() time.Duration {
	if s.TTLMinutes <= 0 {
		return 0
	}
	return time.Duration(s.TTLMinutes) * time.Minute
}

type GoogleMapsConfig struct {
	APIKey      string        `envconfig:"AQUADROP_GOOGLE_MAPS_API_KEY"`
	RegionCodes []string      `envconfig:"AQUADROP_GOOGLE_MAPS_REGION_CODES" default:"in"`
	Timeout     time.Duration `envconfig:"AQUADROP_GOOGLE_MAPS_TIMEOUT" default:"5s"`
}

// PubSubConfig enables order event publishing when a topic is set.
type PubSubConfig struct {
	OrdersTopic string `envconfig:"AQUADROP_PUBSUB_ORDERS_TOPIC"`
	Ordered     bool   `envconfig:"AQUADROP_PUBSUB_ORDERED" default:"true"`
}

// Enabled reports whether order events should be published.
func (p PubSubConfig) Enabled() bool {
	return strings.TrimSpace(p.OrdersTopic) != ""
}

type CartConfig struct {
	IdentityPolicy     string        `envconfig:"AQUADROP_CART_IDENTITY_POLICY" default:"replace"`
	PersistTimeout     time.Duration `envconfig:"AQUADROP_CART_PERSIST_TIMEOUT" default:"10s"`
	SessionIdleTimeout time.Duration `envconfig:"AQUADROP_CART_SESSION_IDLE_TIMEOUT" default:"30m"`
}

func (c CartConfig) validate() error {
	switch strings.ToLower(strings.TrimSpace(c.IdentityPolicy)) {
	case CartPolicyReplace, CartPolicyMerge:
		return nil
	}
	return fmt.Errorf("%s must be %q or %q", EnvCartIdentityPolicy, CartPolicyReplace, CartPolicyMerge)
}

type CatalogConfig struct {
	CacheTTL time.Duration `envconfig:"AQUADROP_CATALOG_CACHE_TTL" default:"2m"`
}
