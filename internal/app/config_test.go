package app

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/xenking/dailymenu/internal/domain/order"
)

func validConfig() Config {
	return Config{
		Addr:     defaultAddr,
		Storage:  StorageConfig{Driver: DriverMemory},
		Sequence: SequenceConfig{Backend: SequenceStore, Name: "orderNumber", Base: 1000},
		Menu:     MenuConfig{Timezone: "UTC", Schedule: "0 0 * * *"},
		Orders:   OrdersConfig{StockPolicy: "best_effort", TotalTolerance: "0.01"},
		Auth:     AuthConfig{JWTSecret: "secret"},
	}
}

func TestConfig_Validate(t *testing.T) {
	base := validConfig()
	require.NoError(t, base.Validate())

	for _, tt := range []struct {
		name   string
		modify func(*Config)
	}{
		{"UnknownDriver", func(c *Config) { c.Storage.Driver = "sqlite" }},
		{"PostgresWithoutURL", func(c *Config) { c.Storage.Driver = DriverPostgres }},
		{"UnknownSequenceBackend", func(c *Config) { c.Sequence.Backend = "etcd" }},
		{"RedisWithoutURL", func(c *Config) { c.Sequence.Backend = SequenceRedis }},
		{"EmptySequenceName", func(c *Config) { c.Sequence.Name = "" }},
		{"NegativeBase", func(c *Config) { c.Sequence.Base = -1 }},
		{"BadTimezone", func(c *Config) { c.Menu.Timezone = "Mars/Olympus" }},
		{"BadSchedule", func(c *Config) { c.Menu.Schedule = "every day" }},
		{"UnknownStockPolicy", func(c *Config) { c.Orders.StockPolicy = "oversell" }},
		{"BadTolerance", func(c *Config) { c.Orders.TotalTolerance = "cent" }},
		{"NegativeTolerance", func(c *Config) { c.Orders.TotalTolerance = "-1" }},
		{"NoJWTSecret", func(c *Config) { c.Auth.JWTSecret = "" }},
	} {
		t.Run(tt.name, func(t *testing.T) {
			c := validConfig()
			tt.modify(&c)
			assert.Error(t, c.Validate())
		})
	}
}

func TestConfig_ValidateRollover(t *testing.T) {
	c := validConfig()
	c.Auth.JWTSecret = ""
	c.Menu.Schedule = ""
	c.Orders.StockPolicy = ""
	require.Error(t, c.Validate())
	require.NoError(t, c.ValidateRollover())

	for _, tt := range []struct {
		name   string
		modify func(*Config)
	}{
		{"UnknownDriver", func(c *Config) { c.Storage.Driver = "sqlite" }},
		{"PostgresWithoutURL", func(c *Config) { c.Storage.Driver = DriverPostgres }},
		{"RedisWithoutURL", func(c *Config) { c.Sequence.Backend = SequenceRedis }},
		{"BadTimezone", func(c *Config) { c.Menu.Timezone = "Mars/Olympus" }},
	} {
		t.Run(tt.name, func(t *testing.T) {
			c := validConfig()
			c.Auth.JWTSecret = ""
			tt.modify(&c)
			assert.Error(t, c.ValidateRollover())
		})
	}
}

func TestConfig_PlatformDefaults(t *testing.T) {
	t.Setenv("DATABASE_URL", "postgres://platform/db")
	t.Setenv("PORT", "9000")

	c := validConfig()
	c.applyPlatformDefaults()
	assert.Equal(t, "postgres://platform/db", c.Storage.DatabaseURL)
	assert.Equal(t, "0.0.0.0:9000", c.Addr)

	c = validConfig()
	c.Addr = "127.0.0.1:7000"
	c.Storage.DatabaseURL = "postgres://explicit/db"
	c.applyPlatformDefaults()
	assert.Equal(t, "postgres://explicit/db", c.Storage.DatabaseURL)
	assert.Equal(t, "127.0.0.1:7000", c.Addr)
}

func TestOrdersConfig_OrderConfig(t *testing.T) {
	cfg, err := OrdersConfig{StockPolicy: "reserve", StrictStatus: true, TotalTolerance: "0.5"}.OrderConfig()
	require.NoError(t, err)
	assert.Equal(t, order.StockReserve, cfg.StockPolicy)
	assert.True(t, cfg.StrictStatus)
	assert.True(t, decimal.RequireFromString("0.5").Equal(cfg.TotalTolerance))

	cfg, err = OrdersConfig{StockPolicy: "best_effort"}.OrderConfig()
	require.NoError(t, err)
	assert.True(t, order.DefaultTotalTolerance.Equal(cfg.TotalTolerance))
}
