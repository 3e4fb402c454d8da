package config

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestEthAddressValidator(t *testing.T) {
	v := NewValidator()

	tests := []struct {
		name      string
		address   string
		wantError bool
	}{
		{name: "valid address with 0x prefix", address: "0x742d35Cc6634C0532925a3b844Bc9e7595f0bEb0"},
		{name: "valid address all lowercase", address: "0x742d35cc6634c0532925a3b844bc9e7595f0beb0"},
		{name: "valid address all uppercase", address: "0x742D35CC6634C0532925A3B844BC9E7595F0BEB0"},
		{name: "zero address is valid", address: "0x0000000000000000000000000000000000000000"},
		{name: "valid address without 0x prefix", address: "742d35Cc6634C0532925a3b844Bc9e7595f0bEb0"},
		{name: "empty wallet is optional", address: ""},
		{name: "too short", address: "0x742d35Cc", wantError: true},
		{name: "too long", address: "0x742d35Cc6634C0532925a3b844Bc9e7595f0bEb123", wantError: true},
		{name: "invalid hex character", address: "0x742d35Cc6634C0532925a3b844Bc9e7595f0bEg0", wantError: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := validConfig()
			cfg.Wallet = tt.address
			err := v.Struct(cfg)
			if tt.wantError {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestScheduleValidator(t *testing.T) {
	cfg := validConfig()
	v := NewValidator()

	tests := []struct {
		name      string
		interval  string
		wantError bool
	}{
		{name: "valid duration 5m", interval: "5m"},
		{name: "valid duration 1h", interval: "1h"},
		{name: "valid duration 30s", interval: "30s"},
		{name: "valid cron 5 fields", interval: "*/5 * * * *"},
		{name: "valid cron 6 fields with seconds", interval: "*/30 * * * * *"},
		{name: "empty interval is valid", interval: ""},
		{name: "invalid duration 7m (not divisor of 60)", interval: "7m", wantError: true},
		{name: "invalid duration 5h (not divisor of 24)", interval: "5h", wantError: true},
		{name: "invalid cron too few fields", interval: "*/5 * * *", wantError: true},
		{name: "invalid cron too many fields", interval: "*/5 * * * * * *", wantError: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg.Interval = tt.interval
			err := v.Struct(cfg)
			if tt.wantError {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestTimezoneValidator(t *testing.T) {
	cfg := validConfig()
	v := NewValidator()

	tests := []struct {
		name      string
		timezone  string
		wantError bool
	}{
		{name: "valid UTC", timezone: "UTC"},
		{name: "valid America/New_York", timezone: "America/New_York"},
		{name: "valid Europe/Paris", timezone: "Europe/Paris"},
		{name: "valid Asia/Tokyo", timezone: "Asia/Tokyo"},
		{name: "empty timezone is valid (defaults to UTC)", timezone: ""},
		{name: "invalid timezone", timezone: "Invalid/Timezone", wantError: true},
		{name: "random string", timezone: "NotATimezone", wantError: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg.Timezone = tt.timezone
			err := v.Struct(cfg)
			if tt.wantError {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestDurationValidator(t *testing.T) {
	v := NewValidator()

	tests := []struct {
		name      string
		value     string
		wantError bool
	}{
		{name: "milliseconds", value: "300ms"},
		{name: "seconds", value: "1s"},
		{name: "compound", value: "1m30s"},
		{name: "empty uses the default", value: ""},
		{name: "zero", value: "0s", wantError: true},
		{name: "negative", value: "-5s", wantError: true},
		{name: "missing unit", value: "300", wantError: true},
		{name: "garbage", value: "quick", wantError: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := validConfig()
			cfg.SearchDebounce = tt.value
			cfg.RefreshGrace = tt.value
			cfg.RequestTimeout = tt.value
			err := v.Struct(cfg)
			if tt.wantError {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestValidatorIntegration(t *testing.T) {
	v := NewValidator()

	t.Run("complete valid config passes all validators", func(t *testing.T) {
		runNow := false
		cfg := &Config{
			APIBaseURL:      "https://pro-api.coingecko.com/api/v3",
			APIKey:          "key",
			VsCurrency:      "eur",
			RequestTimeout:  "5s",
			RateLimit:       0.5,
			CatalogPageSize: 250,
			SearchLimit:     25,
			SearchDebounce:  "250ms",
			RefreshGrace:    "2s",
			Storage:         StorageConfig{Backend: "redis", RedisAddr: "localhost:6379", RedisDB: 2},
			Wallet:          "0x1234567890123456789012345678901234567890",
			Interval:        "15m",
			Timezone:        "Europe/Brussels",
			RunImmediately:  &runNow,
			LogLevel:        "debug",
			HTTPPort:        8080,
		}
		assert.NoError(t, v.Struct(cfg))
	})

	t.Run("minimal valid config passes", func(t *testing.T) {
		assert.NoError(t, v.Struct(validConfig()))
	})
}
