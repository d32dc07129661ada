package api_test

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/rs/zerolog"

	"github.com/mvetrov/churnguard/internal/api"
	"github.com/mvetrov/churnguard/internal/auth"
	"github.com/mvetrov/churnguard/internal/model"
	"github.com/mvetrov/churnguard/internal/scoring"
	"github.com/mvetrov/churnguard/internal/store"
	"github.com/mvetrov/churnguard/internal/testutil"
)

func decodeJSON(t *testing.T, rr *httptest.ResponseRecorder, v any) {
	t.Helper()
	if err := json.Unmarshal(rr.Body.Bytes(), v); err != nil {
		t.Fatalf("decode response %q: %v", rr.Body.String(), err)
	}
}

func TestHealth(t *testing.T) {
	server, _ := testutil.NewTestServer(t)
	rr := (&testutil.HTTPRequest{Method: "GET", Path: "/healthz"}).Do(t, server.Router())
	if rr.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rr.Code)
	}
	var health struct {
		Status      string `json:"status"`
		ModelLoaded bool   `json:"model_loaded"`
	}
	decodeJSON(t, rr, &health)
	if health.Status != "ok" || !health.ModelLoaded {
		t.Fatalf("health = %+v", health)
	}
}

func TestHealthModelNotLoaded(t *testing.T) {
	memStore := store.NewMemoryStore()
	server := api.NewServer(memStore, scoring.NewScorer(model.Unavailable()),
		auth.NewService(memStore, ""), zerolog.Nop(), api.Options{})

	rr := (&testutil.HTTPRequest{Method: "GET", Path: "/healthz"}).Do(t, server.Router())
	if rr.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200 (health never fails on model state)", rr.Code)
	}
	var health struct {
		ModelLoaded bool `json:"model_loaded"`
	}
	decodeJSON(t, rr, &health)
	if health.ModelLoaded {
		t.Fatal("model_loaded = true for unavailable model")
	}
}

func TestRegister(t *testing.T) {
	server, _ := testutil.NewTestServer(t)
	handler := server.Router()

	rr := (&testutil.HTTPRequest{
		Method: "POST", Path: "/v1/auth/register",
		Body: `{"username":"alice","password":"longenough","email":"alice@example.com"}`,
	}).Do(t, handler)
	if rr.Code != http.StatusCreated {
		t.Fatalf("status = %d, want 201: %s", rr.Code, rr.Body.String())
	}
	var resp struct {
		UserID   int64  `json:"user_id"`
		Username string `json:"username"`
		Token    string `json:"token"`
	}
	decodeJSON(t, rr, &resp)
	if resp.Username != "alice" || resp.Token == "" {
		t.Fatalf("response = %+v", resp)
	}

	// Duplicate registration is a field-level validation error.
	rr = (&testutil.HTTPRequest{
		Method: "POST", Path: "/v1/auth/register",
		Body: `{"username":"alice","password":"longenough","email":"alice2@example.com"}`,
	}).Do(t, handler)
	if rr.Code != http.StatusBadRequest {
		t.Fatalf("duplicate status = %d, want 400", rr.Code)
	}
	var errResp api.ErrorResponse
	decodeJSON(t, rr, &errResp)
	if errResp.Code != api.ErrCodeValidation {
		t.Errorf("code = %s, want VALIDATION_ERROR", errResp.Code)
	}
	if _, ok := errResp.Fields["username"]; !ok {
		t.Errorf("fields = %v, want username error", errResp.Fields)
	}
}

func TestRegisterInvalidInput(t *testing.T) {
	server, _ := testutil.NewTestServer(t)
	handler := server.Router()

	rr := (&testutil.HTTPRequest{
		Method: "POST", Path: "/v1/auth/register", Body: `{not json`,
	}).Do(t, handler)
	if rr.Code != http.StatusBadRequest {
		t.Fatalf("malformed body status = %d, want 400", rr.Code)
	}
	var errResp api.ErrorResponse
	decodeJSON(t, rr, &errResp)
	if errResp.Code != api.ErrCodeInvalidJSON {
		t.Errorf("code = %s, want INVALID_JSON", errResp.Code)
	}
	if errResp.RequestID == "" {
		t.Error("error response missing request id")
	}

	rr = (&testutil.HTTPRequest{
		Method: "POST", Path: "/v1/auth/register",
		Body: `{"username":"ab","password":"short","email":"bad"}`,
	}).Do(t, handler)
	if rr.Code != http.StatusBadRequest {
		t.Fatalf("invalid fields status = %d, want 400", rr.Code)
	}
	decodeJSON(t, rr, &errResp)
	for _, field := range []string{"username", "password", "email"} {
		if _, ok := errResp.Fields[field]; !ok {
			t.Errorf("field %q not reported: %v", field, errResp.Fields)
		}
	}
}

func TestLogin(t *testing.T) {
	server, memStore := testutil.NewTestServer(t)
	handler := server.Router()
	user, _ := testutil.SeedUser(t, memStore)

	rr := (&testutil.HTTPRequest{
		Method: "POST", Path: "/v1/auth/login",
		Body: `{"username":"carol","password":"correct-horse"}`,
	}).Do(t, handler)
	if rr.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200: %s", rr.Code, rr.Body.String())
	}
	var resp struct {
		UserID int64  `json:"user_id"`
		Token  string `json:"token"`
	}
	decodeJSON(t, rr, &resp)
	if resp.UserID != user.ID || resp.Token == "" {
		t.Fatalf("response = %+v", resp)
	}

	rr = (&testutil.HTTPRequest{
		Method: "POST", Path: "/v1/auth/login",
		Body: `{"username":"carol","password":"wrong"}`,
	}).Do(t, handler)
	if rr.Code != http.StatusUnauthorized {
		t.Fatalf("wrong password status = %d, want 401", rr.Code)
	}
}

func TestPredictRequiresAuth(t *testing.T) {
	server, _ := testutil.NewTestServer(t)
	rr := (&testutil.HTTPRequest{
		Method: "POST", Path: "/v1/predict", Body: `{"tenure":12}`,
	}).Do(t, server.Router())
	if rr.Code != http.StatusUnauthorized {
		t.Fatalf("status = %d, want 401", rr.Code)
	}
}

func TestPredict(t *testing.T) {
	server, memStore := testutil.NewTestServer(t)
	handler := server.Router()
	user, token := testutil.SeedUser(t, memStore)

	rr := (&testutil.HTTPRequest{
		Method: "POST", Path: "/v1/predict",
		Body:    `{"tenure":2,"monthly_charges":95.5,"total_charges":191.0,"contract_type":"Month-to-Month"}`,
		Headers: map[string]string{"Authorization": "Bearer " + token},
	}).Do(t, handler)
	if rr.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200: %s", rr.Code, rr.Body.String())
	}

	var result scoring.ScoreResult
	decodeJSON(t, rr, &result)
	if result.Probability < 0 || result.Probability > 1 {
		t.Errorf("probability = %v, want [0,1]", result.Probability)
	}
	if result.RiskTier != scoring.TierFor(result.Probability) {
		t.Errorf("risk tier %s does not match probability %v", result.RiskTier, result.Probability)
	}
	if len(result.Recommendations) == 0 {
		t.Error("no recommendations returned")
	}

	// The call lands in the caller's history.
	preds, err := memStore.ListPredictionsByUser(context.Background(), user.ID, 10)
	if err != nil {
		t.Fatalf("ListPredictionsByUser: %v", err)
	}
	if len(preds) != 1 {
		t.Fatalf("history has %d rows, want 1", len(preds))
	}
	if preds[0].Probability != result.Probability || preds[0].RiskTier != string(result.RiskTier) {
		t.Errorf("stored %+v, response %+v", preds[0], result)
	}
}

func TestPredictValidationError(t *testing.T) {
	server, memStore := testutil.NewTestServer(t)
	handler := server.Router()
	_, token := testutil.SeedUser(t, memStore)

	rr := (&testutil.HTTPRequest{
		Method: "POST", Path: "/v1/predict",
		Body:    `{"tenure":"twelve"}`,
		Headers: map[string]string{"Authorization": "Bearer " + token},
	}).Do(t, handler)
	if rr.Code != http.StatusBadRequest {
		t.Fatalf("status = %d, want 400: %s", rr.Code, rr.Body.String())
	}
	var errResp api.ErrorResponse
	decodeJSON(t, rr, &errResp)
	if errResp.Code != api.ErrCodeValidation {
		t.Errorf("code = %s, want VALIDATION_ERROR", errResp.Code)
	}
	if _, ok := errResp.Fields["tenure"]; !ok {
		t.Errorf("fields = %v, want tenure error", errResp.Fields)
	}
}

func TestPredictModelUnavailable(t *testing.T) {
	memStore := store.NewMemoryStore()
	server := api.NewServer(memStore, scoring.NewScorer(model.Unavailable()),
		auth.NewService(memStore, ""), zerolog.Nop(), api.Options{})
	handler := server.Router()
	_, token := testutil.SeedUser(t, memStore)

	rr := (&testutil.HTTPRequest{
		Method: "POST", Path: "/v1/predict",
		Body:    `{"tenure":12}`,
		Headers: map[string]string{"Authorization": "Bearer " + token},
	}).Do(t, handler)
	if rr.Code != http.StatusServiceUnavailable {
		t.Fatalf("status = %d, want 503: %s", rr.Code, rr.Body.String())
	}
	var errResp api.ErrorResponse
	decodeJSON(t, rr, &errResp)
	if errResp.Code != api.ErrCodeModelUnavailable {
		t.Errorf("code = %s, want MODEL_UNAVAILABLE", errResp.Code)
	}
}

func TestBatchPredict(t *testing.T) {
	server, memStore := testutil.NewTestServer(t)
	handler := server.Router()
	_, token := testutil.SeedUser(t, memStore)

	csv := "tenure,monthly_charges,total_charges,contract_type,payment_method,internet_service,streaming_tv,streaming_movies,tech_support,online_security\n" +
		"2,95.0,190.0,Month-to-Month,Electronic check,Fiber optic,1,1,0,0\n" +
		"60,40.0,2400.0,Two year,Credit card,DSL,0,0,1,1\n"
	body, contentType := testutil.MultipartCSV(t, csv)

	req := httptest.NewRequest("POST", "/v1/predict/batch", body)
	req.Header.Set("Content-Type", contentType)
	req.Header.Set("Authorization", "Bearer "+token)
	rr := httptest.NewRecorder()
	handler.ServeHTTP(rr, req)

	if rr.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200: %s", rr.Code, rr.Body.String())
	}
	var result scoring.BatchResult
	decodeJSON(t, rr, &result)
	if result.Summary.Total != 2 {
		t.Fatalf("total = %d, want 2", result.Summary.Total)
	}
	if len(result.Rows) != 2 {
		t.Fatalf("rows = %d, want 2", len(result.Rows))
	}
}

func TestBatchPredictMissingFile(t *testing.T) {
	server, memStore := testutil.NewTestServer(t)
	handler := server.Router()
	_, token := testutil.SeedUser(t, memStore)

	rr := (&testutil.HTTPRequest{
		Method: "POST", Path: "/v1/predict/batch",
		Body:    `{"not":"a file"}`,
		Headers: map[string]string{"Authorization": "Bearer " + token},
	}).Do(t, handler)
	if rr.Code != http.StatusBadRequest {
		t.Fatalf("status = %d, want 400", rr.Code)
	}
}

func TestBatchPredictMissingColumns(t *testing.T) {
	server, memStore := testutil.NewTestServer(t)
	handler := server.Router()
	_, token := testutil.SeedUser(t, memStore)

	body, contentType := testutil.MultipartCSV(t, "monthly_charges\n70\n")
	req := httptest.NewRequest("POST", "/v1/predict/batch", body)
	req.Header.Set("Content-Type", contentType)
	req.Header.Set("Authorization", "Bearer "+token)
	rr := httptest.NewRecorder()
	handler.ServeHTTP(rr, req)

	if rr.Code != http.StatusBadRequest {
		t.Fatalf("status = %d, want 400: %s", rr.Code, rr.Body.String())
	}
	var errResp api.ErrorResponse
	decodeJSON(t, rr, &errResp)
	if _, ok := errResp.Fields["tenure"]; !ok {
		t.Errorf("fields = %v, want missing tenure named", errResp.Fields)
	}
}

func TestPredictionsHistory(t *testing.T) {
	server, memStore := testutil.NewTestServer(t)
	handler := server.Router()
	_, token := testutil.SeedUser(t, memStore)

	for i := 0; i < 3; i++ {
		rr := (&testutil.HTTPRequest{
			Method: "POST", Path: "/v1/predict",
			Body:    `{"tenure":12,"monthly_charges":70,"total_charges":840}`,
			Headers: map[string]string{"Authorization": "Bearer " + token},
		}).Do(t, handler)
		if rr.Code != http.StatusOK {
			t.Fatalf("predict %d status = %d", i, rr.Code)
		}
	}

	rr := (&testutil.HTTPRequest{
		Method: "GET", Path: "/v1/predictions",
		Headers: map[string]string{"Authorization": "Bearer " + token},
	}).Do(t, handler)
	if rr.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200: %s", rr.Code, rr.Body.String())
	}
	var resp struct {
		Predictions []struct {
			ID          string          `json:"id"`
			Features    json.RawMessage `json:"features"`
			Probability float64         `json:"probability"`
			RiskTier    string          `json:"risk_tier"`
			CreatedAt   string          `json:"created_at"`
		} `json:"predictions"`
	}
	decodeJSON(t, rr, &resp)
	if len(resp.Predictions) != 3 {
		t.Fatalf("history has %d rows, want 3", len(resp.Predictions))
	}
	if resp.Predictions[0].ID == "" || resp.Predictions[0].CreatedAt == "" {
		t.Errorf("row = %+v, want id and created_at", resp.Predictions[0])
	}
	var feats map[string]any
	if err := json.Unmarshal(resp.Predictions[0].Features, &feats); err != nil {
		t.Fatalf("stored features not JSON: %v", err)
	}
	if feats["tenure"] != float64(12) {
		t.Errorf("stored tenure = %v, want 12", feats["tenure"])
	}
}

func TestSegmentsAndMetricsSummary(t *testing.T) {
	server, memStore := testutil.NewTestServer(t)
	handler := server.Router()
	_, token := testutil.SeedUser(t, memStore)
	authHeader := map[string]string{"Authorization": "Bearer " + token}

	// Empty store yields empty arrays, not nulls.
	rr := (&testutil.HTTPRequest{Method: "GET", Path: "/v1/segments", Headers: authHeader}).Do(t, handler)
	if rr.Code != http.StatusOK {
		t.Fatalf("segments status = %d", rr.Code)
	}
	var segResp struct {
		Segments []store.SegmentStat `json:"segments"`
	}
	decodeJSON(t, rr, &segResp)
	if segResp.Segments == nil {
		t.Error("segments is null, want []")
	}

	rr = (&testutil.HTTPRequest{Method: "POST", Path: "/v1/predict",
		Body: `{"tenure":1,"monthly_charges":110,"total_charges":110}`, Headers: authHeader}).Do(t, handler)
	if rr.Code != http.StatusOK {
		t.Fatalf("predict status = %d", rr.Code)
	}

	rr = (&testutil.HTTPRequest{Method: "GET", Path: "/v1/segments", Headers: authHeader}).Do(t, handler)
	decodeJSON(t, rr, &segResp)
	total := 0
	for _, s := range segResp.Segments {
		total += s.Count
	}
	if total != 1 {
		t.Errorf("segment counts sum to %d, want 1", total)
	}

	rr = (&testutil.HTTPRequest{Method: "GET", Path: "/v1/metrics/summary", Headers: authHeader}).Do(t, handler)
	if rr.Code != http.StatusOK {
		t.Fatalf("metrics summary status = %d", rr.Code)
	}
	var sumResp struct {
		DailyPredictions []store.DailyCount        `json:"daily_predictions"`
		Distribution     []store.ProbabilityBucket `json:"distribution"`
	}
	decodeJSON(t, rr, &sumResp)
	if len(sumResp.DailyPredictions) != 1 {
		t.Errorf("daily predictions = %+v, want one day", sumResp.DailyPredictions)
	}
	if len(sumResp.Distribution) != 1 {
		t.Errorf("distribution = %+v, want one bucket", sumResp.Distribution)
	}
}
