package api

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/google/uuid"

	"github.com/mvetrov/churnguard/internal/auth"
	"github.com/mvetrov/churnguard/internal/store"
	"github.com/mvetrov/churnguard/internal/telemetry"
)

// handlePredict handles POST /v1/predict: score one customer record.
func (s *Server) handlePredict(w http.ResponseWriter, r *http.Request) {
	var payload map[string]any
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		BadRequestError(w, r, ErrCodeInvalidJSON, "invalid JSON")
		return
	}

	result, err := s.scorer.ScorePayload(payload)
	if err != nil {
		s.log.Warn().Err(err).Msg("prediction rejected")
		s.writeDomainError(w, r, err)
		return
	}

	telemetry.PredictionsTotal.WithLabelValues(string(result.RiskTier)).Inc()
	telemetry.ChurnProbability.Observe(result.Probability)

	// History write is best-effort: a store failure must not fail a scoring
	// call that already succeeded.
	if user, ok := auth.UserFromContext(r.Context()); ok {
		featJSON, _ := json.Marshal(payload)
		err := s.store.SavePrediction(r.Context(), store.Prediction{
			ID:          uuid.NewString(),
			UserID:      user.ID,
			Features:    featJSON,
			Probability: result.Probability,
			Prediction:  result.Prediction,
			RiskTier:    string(result.RiskTier),
		})
		if err != nil {
			s.log.Warn().Err(err).Msg("failed to save prediction history")
		}
	}

	writeJSON(w, http.StatusOK, result)
}

// handleBatchPredict handles POST /v1/predict/batch: score an uploaded CSV.
func (s *Server) handleBatchPredict(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, maxUploadBytes)
	file, _, err := r.FormFile("file")
	if err != nil {
		BadRequestError(w, r, ErrCodeValidation, "no file uploaded; send the CSV as multipart field 'file'")
		return
	}
	defer file.Close()

	result, err := s.scorer.ScoreCSV(file)
	if err != nil {
		s.log.Warn().Err(err).Msg("batch prediction failed")
		s.writeDomainError(w, r, err)
		return
	}

	for _, row := range result.Rows {
		telemetry.PredictionsTotal.WithLabelValues(string(row.RiskTier)).Inc()
	}
	s.log.Info().
		Int("total", result.Summary.Total).
		Int("skipped", len(result.RowErrors)).
		Float64("avg_probability", result.Summary.AvgProbability).
		Msg("batch scored")

	writeJSON(w, http.StatusOK, result)
}

// predictionView is one history row with the stored request payload inlined.
type predictionView struct {
	ID          string          `json:"id"`
	Features    json.RawMessage `json:"features"`
	Probability float64         `json:"probability"`
	Prediction  int             `json:"prediction"`
	RiskTier    string          `json:"risk_tier"`
	CreatedAt   string          `json:"created_at"`
}

// handlePredictions handles GET /v1/predictions: the caller's history.
func (s *Server) handlePredictions(w http.ResponseWriter, r *http.Request) {
	user, ok := auth.UserFromContext(r.Context())
	if !ok {
		UnauthorizedError(w, r, "missing user")
		return
	}

	preds, err := s.store.ListPredictionsByUser(r.Context(), user.ID, s.historyLimit)
	if err != nil {
		s.log.Error().Err(err).Msg("failed to list predictions")
		s.writeDomainError(w, r, err)
		return
	}

	views := make([]predictionView, 0, len(preds))
	for _, p := range preds {
		views = append(views, predictionView{
			ID:          p.ID,
			Features:    json.RawMessage(p.Features),
			Probability: p.Probability,
			Prediction:  p.Prediction,
			RiskTier:    p.RiskTier,
			CreatedAt:   p.CreatedAt.UTC().Format(time.RFC3339),
		})
	}
	writeJSON(w, http.StatusOK, map[string]any{"predictions": views})
}

// handleSegments handles GET /v1/segments: risk segmentation over stored
// predictions.
func (s *Server) handleSegments(w http.ResponseWriter, r *http.Request) {
	segments, err := s.store.SegmentStats(r.Context())
	if err != nil {
		s.log.Error().Err(err).Msg("failed to compute segments")
		s.writeDomainError(w, r, err)
		return
	}
	if segments == nil {
		segments = []store.SegmentStat{}
	}
	writeJSON(w, http.StatusOK, map[string]any{"segments": segments})
}

// metricsSummaryResponse is the response for GET /v1/metrics/summary.
type metricsSummaryResponse struct {
	DailyPredictions []store.DailyCount        `json:"daily_predictions"`
	Distribution     []store.ProbabilityBucket `json:"distribution"`
}

// handleMetricsSummary handles GET /v1/metrics/summary: daily prediction
// counts for the last 30 days plus the stored probability distribution.
func (s *Server) handleMetricsSummary(w http.ResponseWriter, r *http.Request) {
	daily, err := s.store.DailyCounts(r.Context(), 30)
	if err != nil {
		s.log.Error().Err(err).Msg("failed to compute daily counts")
		s.writeDomainError(w, r, err)
		return
	}
	dist, err := s.store.ProbabilityDistribution(r.Context())
	if err != nil {
		s.log.Error().Err(err).Msg("failed to compute distribution")
		s.writeDomainError(w, r, err)
		return
	}
	if daily == nil {
		daily = []store.DailyCount{}
	}
	if dist == nil {
		dist = []store.ProbabilityBucket{}
	}
	writeJSON(w, http.StatusOK, metricsSummaryResponse{
		DailyPredictions: daily,
		Distribution:     dist,
	})
}
