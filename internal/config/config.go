package config

import (
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/go-playground/validator/v10"

	"github.com/matrixise/coinfolio/internal/dashboard"
	"github.com/matrixise/coinfolio/internal/market"
	"github.com/matrixise/coinfolio/internal/scheduler"
	"github.com/matrixise/coinfolio/internal/storage"
)

// RootScope is the persistence scope used when no wallet is configured
const RootScope = "root"

// Config represents the application configuration
type Config struct {
	APIBaseURL      string        `mapstructure:"api_base_url" validate:"omitempty,url"`
	APIKey          string        `mapstructure:"api_key"`
	VsCurrency      string        `mapstructure:"vs_currency" validate:"required,alphanum,max=10"`
	RequestTimeout  string        `mapstructure:"request_timeout" validate:"omitempty,duration"`
	RateLimit       float64       `mapstructure:"rate_limit" validate:"min=0"`
	CatalogPageSize int           `mapstructure:"catalog_page_size" validate:"min=1,max=250"`
	SearchLimit     int           `mapstructure:"search_limit" validate:"min=1,max=250"`
	SearchDebounce  string        `mapstructure:"search_debounce" validate:"omitempty,duration"`
	RefreshGrace    string        `mapstructure:"refresh_grace" validate:"omitempty,duration"`
	Storage         StorageConfig `mapstructure:"storage"`
	Wallet          string        `mapstructure:"wallet" validate:"omitempty,eth_addr"`
	Interval        string        `mapstructure:"interval" validate:"omitempty,schedule"`
	Timezone        string        `mapstructure:"timezone" validate:"omitempty,timezone"`
	RunImmediately  *bool         `mapstructure:"run_immediately"`
	LogLevel        string        `mapstructure:"log_level" validate:"omitempty,oneof=debug info warn error"`
	HTTPPort        int           `mapstructure:"http_port" validate:"omitempty,min=1024,max=65535"`

	// Scope is derived by Normalize
	Scope string `mapstructure:"-"`
}

// StorageConfig selects the persistence backend
type StorageConfig struct {
	Backend       string `mapstructure:"backend" validate:"required,oneof=memory file postgres redis"`
	Path          string `mapstructure:"path" validate:"required_if=Backend file"`
	DatabaseURL   string `mapstructure:"database_url" validate:"required_if=Backend postgres"`
	RedisAddr     string `mapstructure:"redis_addr" validate:"required_if=Backend redis"`
	RedisPassword string `mapstructure:"redis_password"`
	RedisDB       int    `mapstructure:"redis_db" validate:"min=0,max=15"`
}

// Normalize trims and lower-cases free-form values, checksums the wallet
// address and derives the persistence scope
func (c *Config) Normalize() error {
	c.APIBaseURL = strings.TrimRight(strings.TrimSpace(c.APIBaseURL), "/")
	c.APIKey = strings.TrimSpace(c.APIKey)
	c.VsCurrency = strings.ToLower(strings.TrimSpace(c.VsCurrency))
	c.LogLevel = strings.ToLower(strings.TrimSpace(c.LogLevel))
	c.Interval = strings.TrimSpace(c.Interval)
	c.Storage.Backend = strings.ToLower(strings.TrimSpace(c.Storage.Backend))
	if c.Storage.Backend == "" {
		c.Storage.Backend = storage.BackendMemory
	}

	c.Wallet = strings.TrimSpace(c.Wallet)
	if c.Wallet == "" {
		c.Scope = RootScope
		return nil
	}
	if !common.IsHexAddress(c.Wallet) {
		return fmt.Errorf("invalid wallet address %q", c.Wallet)
	}
	c.Wallet = common.HexToAddress(c.Wallet).Hex()
	c.Scope = c.Wallet
	return nil
}

// GetTimezone returns the scheduler location, UTC when unset or invalid
func (c *Config) GetTimezone() *time.Location {
	if c.Timezone == "" {
		return time.UTC
	}
	loc, err := time.LoadLocation(c.Timezone)
	if err != nil {
		return time.UTC
	}
	return loc
}

// ShouldRunImmediately defaults to true
func (c *Config) ShouldRunImmediately() bool {
	if c.RunImmediately == nil {
		return true
	}
	return *c.RunImmediately
}

// IsCronExpression reports whether Interval is a cron expression
func (c *Config) IsCronExpression() bool {
	return scheduler.IsCronExpression(c.Interval)
}

// PersistKey returns the storage key for this configuration's scope
func (c *Config) PersistKey() string {
	return storage.PersistKey(c.Scope)
}

func (c *Config) RequestTimeoutDuration() time.Duration {
	return durationOr(c.RequestTimeout, 10*time.Second)
}

func (c *Config) SearchDebounceDuration() time.Duration {
	return durationOr(c.SearchDebounce, dashboard.DefaultSearchDebounce)
}

func (c *Config) RefreshGraceDuration() time.Duration {
	return durationOr(c.RefreshGrace, dashboard.DefaultRefreshGrace)
}

// MarketOptions builds the gateway options
func (c *Config) MarketOptions(l *slog.Logger) market.Options {
	return market.Options{
		BaseURL:     c.APIBaseURL,
		APIKey:      c.APIKey,
		VsCurrency:  c.VsCurrency,
		Timeout:     c.RequestTimeoutDuration(),
		RateLimit:   c.RateLimit,
		SearchLimit: c.SearchLimit,
		Logger:      l,
	}
}

// DashboardOptions builds the dashboard options
func (c *Config) DashboardOptions(l *slog.Logger) dashboard.Options {
	return dashboard.Options{
		CatalogPageSize: c.CatalogPageSize,
		SearchDebounce:  c.SearchDebounceDuration(),
		RefreshGrace:    c.RefreshGraceDuration(),
		RequestTimeout:  c.RequestTimeoutDuration(),
		Logger:          l,
	}
}

// StorageOptions builds the storage options
func (c *Config) StorageOptions(l *slog.Logger) storage.Options {
	return storage.Options{
		Backend:       c.Storage.Backend,
		Path:          c.Storage.Path,
		DatabaseURL:   c.Storage.DatabaseURL,
		RedisAddr:     c.Storage.RedisAddr,
		RedisPassword: c.Storage.RedisPassword,
		RedisDB:       c.Storage.RedisDB,
		Logger:        l,
	}
}

func durationOr(s string, def time.Duration) time.Duration {
	if s == "" {
		return def
	}
	d, err := time.ParseDuration(s)
	if err != nil || d <= 0 {
		return def
	}
	return d
}

// ethAddressValidator validates Ethereum addresses
func ethAddressValidator(fl validator.FieldLevel) bool {
	return common.IsHexAddress(fl.Field().String())
}

// durationValidator validates duration strings
func durationValidator(fl validator.FieldLevel) bool {
	if fl.Field().String() == "" {
		return true
	}
	d, err := time.ParseDuration(fl.Field().String())
	return err == nil && d > 0
}

// scheduleValidator accepts clock-aligned durations and cron expressions
func scheduleValidator(fl validator.FieldLevel) bool {
	return scheduler.ValidateScheduleInterval(fl.Field().String()) == nil
}

func timezoneValidator(fl validator.FieldLevel) bool {
	if fl.Field().String() == "" {
		return true
	}
	_, err := time.LoadLocation(fl.Field().String())
	return err == nil
}

// NewValidator creates a validator with custom validation rules
func NewValidator() *validator.Validate {
	validate := validator.New()
	validate.RegisterValidation("eth_addr", ethAddressValidator)
	validate.RegisterValidation("duration", durationValidator)
	validate.RegisterValidation("schedule", scheduleValidator)
	validate.RegisterValidation("timezone", timezoneValidator)
	return validate
}
