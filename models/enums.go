package models

// VolatilityClass buckets an item's coefficient of variation of daily consumption.
type VolatilityClass string

const (
	VolatilityLow      VolatilityClass = "LOW"
	VolatilityMedium   VolatilityClass = "MEDIUM"
	VolatilityHigh     VolatilityClass = "HIGH"
	VolatilityVeryHigh VolatilityClass = "VERY_HIGH"
)

func (v VolatilityClass) IsHighlyVolatile() bool {
	return v == VolatilityHigh || v == VolatilityVeryHigh
}

// CorrelationType classifies a Pearson coefficient by strength and sign.
type CorrelationType string

const (
	CorrelationStrongPositive   CorrelationType = "STRONG_POSITIVE"
	CorrelationStrongNegative   CorrelationType = "STRONG_NEGATIVE"
	CorrelationModeratePositive CorrelationType = "MODERATE_POSITIVE"
	CorrelationModerateNegative CorrelationType = "MODERATE_NEGATIVE"
	CorrelationWeakPositive     CorrelationType = "WEAK_POSITIVE"
	CorrelationWeakNegative     CorrelationType = "WEAK_NEGATIVE"
	CorrelationNone             CorrelationType = "NO_CORRELATION"
)

// ConfidenceLevel reflects how many aligned data points backed a correlation.
type ConfidenceLevel string

const (
	ConfidenceLow    ConfidenceLevel = "LOW"
	ConfidenceMedium ConfidenceLevel = "MEDIUM"
	ConfidenceHigh   ConfidenceLevel = "HIGH"
)

// AbnormalityKind marks a single day's consumption as a spike or a drop
// relative to the item's average.
type AbnormalityKind string

const (
	AbnormalityNone  AbnormalityKind = ""
	AbnormalitySpike AbnormalityKind = "SPIKE"
	AbnormalityDrop  AbnormalityKind = "DROP"
)
