package config

import (
	"os"
	"strconv"
	"strings"
	"time"
)

// AnalyticsConfig holds every tunable the consumption analytics core reads.
// All thresholds are injectable so test suites can exercise boundary behavior
// deterministically without relying on production defaults.
//
// Env overrides (optional):
// - ANALYTICS_WINDOW_DAYS (default 30)
// - ANALYTICS_MIN_CORRELATION_POINTS (default 5)
// - ANALYTICS_STALENESS_CUTOFF_HOURS (default 24)
// - ANALYTICS_SIGNIFICANCE_THRESHOLD (default 0.4)
// - ANALYTICS_VOLATILITY_FALLBACK (default MEDIUM)
type AnalyticsConfig struct {
	WindowDays           int
	MinCorrelationPoints int
	StalenessCutoff      time.Duration

	// CV band upper bounds: cv < CvLowMax => LOW, < CvMediumMax => MEDIUM,
	// < CvHighMax => HIGH, otherwise VERY_HIGH.
	CvLowMax    float64
	CvMediumMax float64
	CvHighMax   float64

	// Correlation bands on |r|: >= StrongMin => strong, >= ModerateMin => moderate,
	// >= WeakMin => weak, otherwise no correlation.
	StrongMin   float64
	ModerateMin float64
	WeakMin     float64

	// Minimum |r| for an entry to qualify as a recommendation.
	SignificanceThreshold float64

	// Day-to-mean consumption ratios marking a spike or a drop.
	SpikeRatio float64
	DropRatio  float64

	// Volatility class assigned when CV is undefined (zero mean).
	// Kept as an explicit policy rather than an implicit fallback.
	VolatilityFallback string
}

func DefaultAnalyticsConfig() AnalyticsConfig {
	return AnalyticsConfig{
		WindowDays:            30,
		MinCorrelationPoints:  5,
		StalenessCutoff:       24 * time.Hour,
		CvLowMax:              0.25,
		CvMediumMax:           0.5,
		CvHighMax:             1.0,
		StrongMin:             0.7,
		ModerateMin:           0.4,
		WeakMin:               0.2,
		SignificanceThreshold: 0.4,
		SpikeRatio:            1.5,
		DropRatio:             0.5,
		VolatilityFallback:    "MEDIUM",
	}
}

// GetAnalyticsConfig returns the defaults with env overrides applied.
func GetAnalyticsConfig() AnalyticsConfig {
	cfg := DefaultAnalyticsConfig()
	if n := intFromEnv("ANALYTICS_WINDOW_DAYS", cfg.WindowDays); n > 0 {
		cfg.WindowDays = n
	}
	if n := intFromEnv("ANALYTICS_MIN_CORRELATION_POINTS", cfg.MinCorrelationPoints); n > 1 {
		cfg.MinCorrelationPoints = n
	}
	if n := intFromEnv("ANALYTICS_STALENESS_CUTOFF_HOURS", 24); n > 0 {
		cfg.StalenessCutoff = time.Duration(n) * time.Hour
	}
	if f, ok := floatFromEnv("ANALYTICS_SIGNIFICANCE_THRESHOLD"); ok && f > 0 && f < 1 {
		cfg.SignificanceThreshold = f
	}
	if v := strings.ToUpper(strings.TrimSpace(os.Getenv("ANALYTICS_VOLATILITY_FALLBACK"))); v != "" {
		cfg.VolatilityFallback = v
	}
	return cfg
}

func floatFromEnv(key string) (float64, bool) {
	v := strings.TrimSpace(os.Getenv(key))
	if v == "" {
		return 0, false
	}
	f, err := strconv.ParseFloat(v, 64)
	if err != nil {
		return 0, false
	}
	return f, true
}
