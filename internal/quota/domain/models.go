// Package domain defines the ingest rate quota contract.
package domain

import (
	"context"
	"errors"
	"os"
	"strconv"
)

// Config bounds how many usage events one user may ingest per calendar month.
type Config struct {
	Enabled       bool
	MonthlyEvents int64
}

// LoadConfig reads quota settings from the environment with safe defaults.
func LoadConfig() Config {
	cfg := Config{
		Enabled:       true,
		MonthlyEvents: 1_000_000,
	}
	if v := os.Getenv("QUOTA_ENABLED"); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			cfg.Enabled = b
		}
	}
	if v := os.Getenv("QUOTA_MONTHLY_EVENTS"); v != "" {
		if n, err := strconv.ParseInt(v, 10, 64); err == nil && n > 0 {
			cfg.MonthlyEvents = n
		}
	}
	return cfg
}

// Service answers whether a user may ingest another usage event this month.
type Service interface {
	// CanIngest returns nil when the event is allowed and ErrQuotaExceeded
	// when the monthly budget is spent. Counter-store outages fail open.
	CanIngest(ctx context.Context, userID string) error
}

var ErrQuotaExceeded = errors.New("quota_exceeded")
