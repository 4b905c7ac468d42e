package app

import (
	"os"
	"slices"
	"time"

	"github.com/cristalhq/aconfig"
	"github.com/cristalhq/aconfig/aconfigyaml"
	"github.com/go-faster/errors"
	"github.com/shopspring/decimal"

	"github.com/xenking/dailymenu/internal/domain/order"
	"github.com/xenking/dailymenu/internal/rollover"
)

// Storage drivers.
const (
	DriverPostgres = "postgres"
	DriverMemory   = "memory"
)

// Sequence backends.
const (
	SequenceStore = "store"
	SequenceRedis = "redis"
)

const defaultAddr = "0.0.0.0:8080"

// Config holds the complete application configuration, loadable from
// environment variables (DAILYMENU_ prefix), flags, or YAML config files.
type Config struct {
	Addr         string `default:"0.0.0.0:8080" usage:"API server listen address"`
	ImageBaseURL string `default:"" usage:"Base URL for food images (e.g. https://cdn.example.com/images)" flag:"image-base-url"`
	Storage      StorageConfig
	Sequence     SequenceConfig
	Menu         MenuConfig
	Orders       OrdersConfig
	Auth         AuthConfig
	Events       EventsConfig
	RateLimit    RateLimitConfig
	CORS         CORSConfig
	Graceful     GracefulConfig
}

// StorageConfig selects the primary store.
type StorageConfig struct {
	Driver      string `default:"postgres" usage:"Storage driver: postgres or memory"`
	DatabaseURL string `usage:"PostgreSQL connection URL (DAILYMENU_STORAGE_DATABASE_URL or DATABASE_URL)" flag:"database-url"`
}

// SequenceConfig controls order number allocation.
type SequenceConfig struct {
	Backend  string `default:"store" usage:"Counter backend: store (primary storage) or redis"`
	Name     string `default:"orderNumber" usage:"Counter name"`
	Base     int64  `default:"1000" usage:"Initial counter value; the first order gets Base+1"`
	RedisURL string `usage:"Redis URL for the redis backend" flag:"redis-url"`
}

// MenuConfig controls the daily menu calendar.
type MenuConfig struct {
	Timezone        string `default:"Local" usage:"IANA time zone days are computed in"`
	Schedule        string `default:"0 0 * * *" usage:"Cron expression for the menu rollover"`
	RolloverEnabled bool   `default:"true" usage:"Run the rollover scheduler in the API process" flag:"rollover-enabled"`
}

// OrdersConfig controls order placement and status changes.
type OrdersConfig struct {
	StockPolicy    string `default:"best_effort" usage:"Stock policy: best_effort or reserve" flag:"stock-policy"`
	StrictStatus   bool   `default:"false" usage:"Enforce the status transition table" flag:"strict-status"`
	TotalTolerance string `default:"0.01" usage:"Accepted difference between submitted and computed totals" flag:"total-tolerance"`
}

// AuthConfig holds credentials for the admin and customer guards.
type AuthConfig struct {
	APIKeyPepper string        `usage:"HMAC pepper for API key hashing (DAILYMENU_AUTH_API_KEY_PEPPER)" flag:"api-key-pepper"`
	JWTSecret    string        `usage:"HS256 secret for customer bearer tokens" flag:"jwt-secret"`
	JWTLeeway    time.Duration `default:"30s" usage:"Clock skew allowed when validating tokens" flag:"jwt-leeway"`
}

// EventsConfig enables order event publishing. An empty URL disables it.
type EventsConfig struct {
	AMQPURL  string `usage:"AMQP URL of the event broker" flag:"amqp-url"`
	Exchange string `default:"orders_topic" usage:"Topic exchange for order events"`
}

// RateLimitConfig controls the per-client token bucket rate limiter.
type RateLimitConfig struct {
	Max    int           `default:"100" usage:"Max requests per window"`
	Window time.Duration `default:"1m"  usage:"Rate limit window duration"`
}

// CORSConfig controls Cross-Origin Resource Sharing headers.
type CORSConfig struct {
	Origins []string `default:"*" usage:"Allowed CORS origins"`
}

// GracefulConfig controls graceful shutdown timing.
type GracefulConfig struct {
	ReadinessDelay  time.Duration `default:"3s"  usage:"Delay after readiness=false before shutdown" flag:"readiness-delay"`
	ShutdownTimeout time.Duration `default:"15s" usage:"Maximum shutdown duration" flag:"shutdown-timeout"`
}

// LoadConfig loads configuration from environment variables, YAML config files,
// and applies platform-specific defaults.
func LoadConfig() (*Config, error) {
	cfg, err := loadConfig()
	if err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// LoadRolloverConfig loads the same sources as LoadConfig but only checks the
// groups the one-shot rollover uses: storage and the menu time zone.
func LoadRolloverConfig() (*Config, error) {
	cfg, err := loadConfig()
	if err != nil {
		return nil, err
	}
	if err := cfg.ValidateRollover(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func loadConfig() (*Config, error) {
	var cfg Config
	loader := aconfig.LoaderFor(&cfg, aconfig.Config{
		EnvPrefix: "DAILYMENU",
		Files:     []string{"config.yaml", "/etc/dailymenu/config.yaml"},
		FileDecoders: map[string]aconfig.FileDecoder{
			".yaml": aconfigyaml.New(),
		},
	})
	if err := loader.Load(); err != nil {
		return nil, errors.Wrap(err, "load config")
	}
	cfg.applyPlatformDefaults()
	return &cfg, nil
}

// applyPlatformDefaults maps platform-provided environment variables (Railway,
// Render, etc.) that use standard names like DATABASE_URL and PORT to the
// application's DAILYMENU_-prefixed configuration.
func (c *Config) applyPlatformDefaults() {
	if c.Storage.DatabaseURL == "" {
		if v := os.Getenv("DATABASE_URL"); v != "" {
			c.Storage.DatabaseURL = v
		}
	}
	if port := os.Getenv("PORT"); port != "" && c.Addr == defaultAddr {
		c.Addr = "0.0.0.0:" + port
	}
}

// Validate rejects configurations the service cannot start with.
func (c *Config) Validate() error {
	if err := c.ValidateRollover(); err != nil {
		return err
	}
	if c.Sequence.Name == "" {
		return errors.New("sequence name is required")
	}
	if c.Sequence.Base < 0 {
		return errors.Errorf("sequence base must not be negative, got %d", c.Sequence.Base)
	}
	if err := rollover.ParseSchedule(c.Menu.Schedule); err != nil {
		return err
	}

	policies := []string{string(order.StockBestEffort), string(order.StockReserve)}
	if !slices.Contains(policies, c.Orders.StockPolicy) {
		return errors.Errorf("unknown stock policy %q", c.Orders.StockPolicy)
	}
	if _, err := c.Orders.Tolerance(); err != nil {
		return err
	}

	if c.Auth.JWTSecret == "" {
		return errors.New("JWT secret is required: set DAILYMENU_AUTH_JWT_SECRET")
	}
	return nil
}

// ValidateRollover checks what OpenStorage and the menu clock need.
func (c *Config) ValidateRollover() error {
	switch c.Storage.Driver {
	case DriverPostgres:
		if c.Storage.DatabaseURL == "" {
			return errors.New("database URL is required: set DAILYMENU_STORAGE_DATABASE_URL or DATABASE_URL")
		}
	case DriverMemory:
	default:
		return errors.Errorf("unknown storage driver %q", c.Storage.Driver)
	}

	switch c.Sequence.Backend {
	case SequenceStore:
	case SequenceRedis:
		if c.Sequence.RedisURL == "" {
			return errors.New("redis URL is required for the redis sequence backend")
		}
	default:
		return errors.Errorf("unknown sequence backend %q", c.Sequence.Backend)
	}

	_, err := c.Menu.Location()
	return err
}

// Location loads the configured menu time zone.
func (c MenuConfig) Location() (*time.Location, error) {
	loc, err := time.LoadLocation(c.Timezone)
	if err != nil {
		return nil, errors.Wrapf(err, "load time zone %q", c.Timezone)
	}
	return loc, nil
}

// Tolerance parses the accepted total difference.
func (c OrdersConfig) Tolerance() (decimal.Decimal, error) {
	if c.TotalTolerance == "" {
		return order.DefaultTotalTolerance, nil
	}
	d, err := decimal.NewFromString(c.TotalTolerance)
	if err != nil {
		return decimal.Zero, errors.Wrapf(err, "parse total tolerance %q", c.TotalTolerance)
	}
	if d.IsNegative() {
		return decimal.Zero, errors.Errorf("total tolerance must not be negative, got %s", d)
	}
	return d, nil
}

// OrderConfig converts the orders group into the order service configuration.
func (c OrdersConfig) OrderConfig() (order.Config, error) {
	tol, err := c.Tolerance()
	if err != nil {
		return order.Config{}, err
	}
	return order.Config{
		StockPolicy:    order.StockPolicy(c.StockPolicy),
		StrictStatus:   c.StrictStatus,
		TotalTolerance: tol,
	}, nil
}
