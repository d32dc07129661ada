// Package scoring turns raw request payloads into churn predictions: it
// validates input into a typed customer record, runs the feature transform
// and the model adapter, and derives the risk tier and retention
// recommendations.
package scoring

import (
	"encoding/json"
	"fmt"
	"math"
	"strconv"

	"github.com/mvetrov/churnguard/internal/features"
	"github.com/mvetrov/churnguard/internal/model"
)

// RiskTier is the coarse bucketing of churn probability for humans.
type RiskTier string

const (
	TierLow    RiskTier = "Low"
	TierMedium RiskTier = "Medium"
	TierHigh   RiskTier = "High"
)

// Tier thresholds. Lower bounds are inclusive: exactly 0.3 is Medium,
// exactly 0.7 is High.
const (
	mediumThreshold = 0.3
	highThreshold   = 0.7
)

// TierFor buckets a probability into Low [0,0.3), Medium [0.3,0.7),
// High [0.7,1].
func TierFor(p float64) RiskTier {
	switch {
	case p < mediumThreshold:
		return TierLow
	case p < highThreshold:
		return TierMedium
	default:
		return TierHigh
	}
}

// ScoreResult is the outcome of scoring one customer record.
type ScoreResult struct {
	Probability     float64  `json:"probability"`
	Prediction      int      `json:"prediction"` // 1 when probability > 0.5
	RiskTier        RiskTier `json:"risk_tier"`
	Recommendations []string `json:"recommendations"`
}

// Scorer scores customer records against an injected model adapter.
type Scorer struct {
	model model.Scorer
}

// NewScorer builds a scorer around the given model adapter.
func NewScorer(m model.Scorer) *Scorer {
	return &Scorer{model: m}
}

// Available reports whether the underlying model can score.
func (s *Scorer) Available() bool { return s.model.Available() }

// ScoreRecord scores an already-validated customer record.
func (s *Scorer) ScoreRecord(rec features.CustomerRecord) (*ScoreResult, error) {
	_, result, err := s.scoreRecord(rec)
	return result, err
}

// scoreRecord also returns the unrounded probability, so batch aggregates
// average raw scores rather than already-rounded ones.
func (s *Scorer) scoreRecord(rec features.CustomerRecord) (float64, *ScoreResult, error) {
	p, err := s.model.Score(features.Transform(rec))
	if err != nil {
		return 0, nil, err
	}
	prediction := 0
	if p > 0.5 {
		prediction = 1
	}
	return p, &ScoreResult{
		Probability:     round4(p),
		Prediction:      prediction,
		RiskTier:        TierFor(p),
		Recommendations: Recommendations(p, rec),
	}, nil
}

// ScorePayload validates a loosely typed request payload and scores it.
// Missing numeric fields default to 0; missing categorical fields default to
// Month-to-Month, Electronic check and Fiber optic. A non-coercible number
// is a ValidationError: a bad number is not safely guessable, unlike an
// unknown category.
func (s *Scorer) ScorePayload(payload map[string]any) (*ScoreResult, error) {
	rec, err := ParseRecord(payload)
	if err != nil {
		return nil, err
	}
	return s.ScoreRecord(rec)
}

// ParseRecord coerces a loosely typed payload into a CustomerRecord.
// No unchecked field ever reaches the feature transform.
func ParseRecord(payload map[string]any) (features.CustomerRecord, error) {
	var rec features.CustomerRecord

	tenure, err := numberField(payload, "tenure")
	if err != nil {
		return rec, err
	}
	if tenure != math.Trunc(tenure) {
		return rec, newFieldError("tenure", "must be a whole number of months")
	}
	monthly, err := numberField(payload, "monthly_charges")
	if err != nil {
		return rec, err
	}
	total, err := numberField(payload, "total_charges")
	if err != nil {
		return rec, err
	}
	streamingTV, err := flagField(payload, "streaming_tv")
	if err != nil {
		return rec, err
	}
	streamingMovies, err := flagField(payload, "streaming_movies")
	if err != nil {
		return rec, err
	}
	techSupport, err := flagField(payload, "tech_support")
	if err != nil {
		return rec, err
	}
	onlineSecurity, err := flagField(payload, "online_security")
	if err != nil {
		return rec, err
	}

	rec = features.CustomerRecord{
		Tenure:          int(tenure),
		MonthlyCharges:  monthly,
		TotalCharges:    total,
		ContractType:    stringField(payload, "contract_type", "Month-to-Month"),
		PaymentMethod:   stringField(payload, "payment_method", "Electronic check"),
		InternetService: stringField(payload, "internet_service", "Fiber optic"),
		StreamingTV:     streamingTV,
		StreamingMovies: streamingMovies,
		TechSupport:     techSupport,
		OnlineSecurity:  onlineSecurity,
	}
	return rec, nil
}

// numberField coerces payload[name] to a non-negative float64, defaulting a
// missing or null field to 0.
func numberField(payload map[string]any, name string) (float64, error) {
	raw, ok := payload[name]
	if !ok || raw == nil {
		return 0, nil
	}
	v, err := coerceNumber(raw)
	if err != nil {
		return 0, newFieldError(name, err.Error())
	}
	if v < 0 {
		return 0, newFieldError(name, "must not be negative")
	}
	return v, nil
}

// flagField coerces payload[name] to a boolean service flag. Accepts 0/1
// numbers, bools and their string forms; missing defaults to false.
func flagField(payload map[string]any, name string) (bool, error) {
	raw, ok := payload[name]
	if !ok || raw == nil {
		return false, nil
	}
	if b, ok := raw.(bool); ok {
		return b, nil
	}
	v, err := coerceNumber(raw)
	if err != nil {
		return false, newFieldError(name, err.Error())
	}
	if v != 0 && v != 1 {
		return false, newFieldError(name, "must be 0 or 1")
	}
	return v == 1, nil
}

func stringField(payload map[string]any, name, def string) string {
	raw, ok := payload[name]
	if !ok || raw == nil {
		return def
	}
	s, ok := raw.(string)
	if !ok || s == "" {
		return def
	}
	return s
}

// coerceNumber accepts the numeric shapes a JSON or CSV payload can carry.
func coerceNumber(raw any) (float64, error) {
	switch v := raw.(type) {
	case float64:
		return v, nil
	case int:
		return float64(v), nil
	case json.Number:
		f, err := v.Float64()
		if err != nil {
			return 0, fmt.Errorf("not a number: %q", v.String())
		}
		return f, nil
	case string:
		f, err := strconv.ParseFloat(v, 64)
		if err != nil {
			return 0, fmt.Errorf("not a number: %q", v)
		}
		return f, nil
	default:
		return 0, fmt.Errorf("not a number: %v", raw)
	}
}

func round4(p float64) float64 {
	return math.Round(p*10000) / 10000
}
