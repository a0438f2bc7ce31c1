package config

import (
	"os"
	"strconv"
	"time"

	"github.com/shopspring/decimal"
)

// Settings carries the fee/point constants and gateway endpoints. Loaded once
// at startup; rates are decimals so no fractional minor units can leak into
// the arithmetic.
type Settings struct {
	// PlatformFeeRate is the share of each settlement kept by the platform,
	// e.g. 0.03.
	PlatformFeeRate decimal.Decimal
	// GatewayFeeRate and GatewayFixedFee model the card processor's pricing,
	// e.g. 3.6% + 40 per transaction. Cash settlements carry no gateway fee.
	GatewayFeeRate  decimal.Decimal
	GatewayFixedFee int64
	// PointAwardRate is the share of the settled amount returned as points,
	// e.g. 0.05. Awards are floored.
	PointAwardRate decimal.Decimal

	// CodeTTL is the redemption window of an issued payment code.
	CodeTTL time.Duration

	// Currency is the single settlement currency, lower-case ISO 4217.
	Currency string

	GatewayBaseURL       string
	GatewayAPIKey        string
	GatewayWebhookSecret string
}

func Load() Settings {
	return Settings{
		PlatformFeeRate:      envDecimal("PLATFORM_FEE_RATE", "0.03"),
		GatewayFeeRate:       envDecimal("GATEWAY_FEE_RATE", "0.036"),
		GatewayFixedFee:      envInt64("GATEWAY_FIXED_FEE", 40),
		PointAwardRate:       envDecimal("POINT_AWARD_RATE", "0.05"),
		CodeTTL:              envDuration("PAYMENT_CODE_TTL", 5*time.Minute),
		Currency:             envString("CURRENCY", "jpy"),
		GatewayBaseURL:       os.Getenv("GATEWAY_BASE_URL"),
		GatewayAPIKey:        os.Getenv("GATEWAY_API_KEY"),
		GatewayWebhookSecret: os.Getenv("GATEWAY_WEBHOOK_SECRET"),
	}
}

func envString(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func envDecimal(key, fallback string) decimal.Decimal {
	raw := os.Getenv(key)
	if raw == "" {
		raw = fallback
	}
	d, err := decimal.NewFromString(raw)
	if err != nil {
		d, _ = decimal.NewFromString(fallback)
	}
	return d
}

func envInt64(key string, fallback int64) int64 {
	raw := os.Getenv(key)
	if raw == "" {
		return fallback
	}
	v, err := strconv.ParseInt(raw, 10, 64)
	if err != nil {
		return fallback
	}
	return v
}

func envDuration(key string, fallback time.Duration) time.Duration {
	raw := os.Getenv(key)
	if raw == "" {
		return fallback
	}
	d, err := time.ParseDuration(raw)
	if err != nil {
		return fallback
	}
	return d
}
