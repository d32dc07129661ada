package scoring

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"

	"github.com/mvetrov/churnguard/internal/features"
	"github.com/mvetrov/churnguard/internal/model"
)

// MaxResponseRows caps how many scored rows a batch response carries. The
// summary is always computed over the full table regardless of the cap.
const MaxResponseRows = 100

// requiredColumns are the CSV headers a batch upload must carry, matching
// the CustomerRecord fields.
var requiredColumns = []string{
	"tenure",
	"monthly_charges",
	"total_charges",
	"contract_type",
	"payment_method",
	"internet_service",
	"streaming_tv",
	"streaming_movies",
	"tech_support",
	"online_security",
}

// BatchRow is one scored table row: the original record plus the derived
// prediction columns.
type BatchRow struct {
	Row int `json:"row"` // 1-based data row number
	features.CustomerRecord
	Probability float64  `json:"probability"`
	Prediction  int      `json:"prediction"`
	RiskTier    RiskTier `json:"risk_tier"`
}

// RowError reports one skipped row. Malformed cells do not abort the batch;
// the row is skipped and reported here (skip-and-report policy).
type RowError struct {
	Row     int    `json:"row"`
	Message string `json:"message"`
}

// BatchSummary aggregates the whole table.
type BatchSummary struct {
	Total           int     `json:"total"`
	HighRiskCount   int     `json:"high_risk_count"`
	MediumRiskCount int     `json:"medium_risk_count"`
	LowRiskCount    int     `json:"low_risk_count"`
	AvgProbability  float64 `json:"avg_probability"`
}

// BatchResult is the outcome of scoring one uploaded table.
type BatchResult struct {
	Summary   BatchSummary `json:"summary"`
	Rows      []BatchRow   `json:"rows"`
	RowErrors []RowError   `json:"row_errors,omitempty"`
}

// ScoreCSV scores every row of a CSV table using the same feature transform
// and the same fixed encoder vocabulary as single-record scoring. Structural
// problems (unreadable CSV, missing required columns) abort the whole batch
// with a ValidationError naming the missing columns.
func (s *Scorer) ScoreCSV(r io.Reader) (*BatchResult, error) {
	if !s.model.Available() {
		// Fail before reading the table; nothing can be scored.
		return nil, model.ErrModelUnavailable
	}

	cr := csv.NewReader(r)
	cr.TrimLeadingSpace = true

	header, err := cr.Read()
	if err != nil {
		return nil, &ValidationError{Message: "empty or unreadable CSV file"}
	}

	colIndex := make(map[string]int, len(header))
	for i, name := range header {
		colIndex[name] = i
	}

	missing := map[string]string{}
	for _, col := range requiredColumns {
		if _, ok := colIndex[col]; !ok {
			missing[col] = "required column is missing"
		}
	}
	if len(missing) > 0 {
		return nil, &ValidationError{Message: "missing required columns", Fields: missing}
	}

	result := &BatchResult{Rows: []BatchRow{}}
	probabilitySum := 0.0
	rowNum := 0

	for {
		cells, err := cr.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		rowNum++
		if err != nil {
			result.RowErrors = append(result.RowErrors, RowError{Row: rowNum, Message: err.Error()})
			continue
		}

		rec, err := recordFromRow(cells, colIndex)
		if err != nil {
			result.RowErrors = append(result.RowErrors, RowError{Row: rowNum, Message: err.Error()})
			continue
		}

		raw, scored, err := s.scoreRecord(rec)
		if err != nil {
			// Model went away mid-batch only if it was never loaded, which
			// is checked above; anything else is a real fault.
			return nil, err
		}

		result.Summary.Total++
		probabilitySum += raw
		switch scored.RiskTier {
		case TierHigh:
			result.Summary.HighRiskCount++
		case TierMedium:
			result.Summary.MediumRiskCount++
		default:
			result.Summary.LowRiskCount++
		}

		if len(result.Rows) < MaxResponseRows {
			result.Rows = append(result.Rows, BatchRow{
				Row:            rowNum,
				CustomerRecord: rec,
				Probability:    scored.Probability,
				Prediction:     scored.Prediction,
				RiskTier:       scored.RiskTier,
			})
		}
	}

	if result.Summary.Total > 0 {
		result.Summary.AvgProbability = round4(probabilitySum / float64(result.Summary.Total))
	}
	return result, nil
}

// recordFromRow builds a CustomerRecord from one CSV row, reusing the same
// coercion rules as the single-record payload parser.
func recordFromRow(cells []string, colIndex map[string]int) (features.CustomerRecord, error) {
	payload := make(map[string]any, len(colIndex))
	for name, idx := range colIndex {
		if idx >= len(cells) {
			return features.CustomerRecord{}, fmt.Errorf("row has no value for column %q", name)
		}
		payload[name] = cells[idx]
	}
	rec, err := ParseRecord(payload)
	if err != nil {
		return features.CustomerRecord{}, err
	}
	return rec, nil
}
