// Package testutil carries shared helpers for handler and service tests.
package testutil

import (
	"bytes"
	"context"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/rs/zerolog"

	"github.com/mvetrov/churnguard/internal/api"
	"github.com/mvetrov/churnguard/internal/auth"
	"github.com/mvetrov/churnguard/internal/features"
	"github.com/mvetrov/churnguard/internal/model"
	"github.com/mvetrov/churnguard/internal/scoring"
	"github.com/mvetrov/churnguard/internal/store"
)

// TestArtifact returns a synthetic but valid model artifact. With zero means
// and unit stddevs the score is sigmoid(intercept + w·x), which makes expected
// probabilities easy to compute by hand in tests.
func TestArtifact() *model.Artifact {
	means := make([]float64, features.NumFeatures)
	stddevs := make([]float64, features.NumFeatures)
	weights := make([]float64, features.NumFeatures)
	for i := range stddevs {
		stddevs[i] = 1
	}
	// Long tenure and contracts push risk down, high charges push it up.
	weights[features.FeatTenure] = -0.05
	weights[features.FeatMonthlyCharges] = 0.02
	weights[features.FeatContractEncoded] = -0.8

	return &model.Artifact{
		Version:           model.ArtifactVersion,
		VocabularyVersion: features.VocabularyVersion,
		FeatureNames:      features.FeatureNames[:],
		Means:             means,
		Stddevs:           stddevs,
		Weights:           weights,
		Intercept:         0.5,
		TrainedAt:         time.Date(2024, 6, 1, 0, 0, 0, 0, time.UTC),
		Samples:           1000,
	}
}

// NewTestServer creates an API server backed by an in-memory store and the
// synthetic test artifact.
func NewTestServer(t *testing.T) (*api.Server, *store.MemoryStore) {
	t.Helper()
	memStore := store.NewMemoryStore()
	scorer := scoring.NewScorer(model.NewAdapter(TestArtifact()))
	authSvc := auth.NewService(memStore, "")
	server := api.NewServer(memStore, scorer, authSvc, zerolog.Nop(), api.Options{Debug: true})
	return server, memStore
}

// SeedUser registers a user directly against the store's auth service and
// returns the user and a valid bearer token.
func SeedUser(t *testing.T, st store.Store) (*store.User, string) {
	t.Helper()
	svc := auth.NewService(st, "")
	user, token, err := svc.Register(context.Background(), "carol", "correct-horse", "carol@example.com")
	if err != nil {
		t.Fatalf("seed user: %v", err)
	}
	return user, token
}

// HTTPRequest is a helper for making test HTTP requests.
type HTTPRequest struct {
	Method  string
	Path    string
	Body    string
	Headers map[string]string
}

// Do executes the HTTP request and returns the response recorder.
func (r *HTTPRequest) Do(t *testing.T, handler http.Handler) *httptest.ResponseRecorder {
	t.Helper()
	var body io.Reader
	if r.Body != "" {
		body = bytes.NewBufferString(r.Body)
	}
	req := httptest.NewRequest(r.Method, r.Path, body)
	if r.Body != "" {
		req.Header.Set("Content-Type", "application/json")
	}
	for k, v := range r.Headers {
		req.Header.Set(k, v)
	}
	rr := httptest.NewRecorder()
	handler.ServeHTTP(rr, req)
	return rr
}

// MultipartCSV builds a multipart/form-data body with one CSV file part named
// "file", for batch upload tests.
func MultipartCSV(t *testing.T, csv string) (body *bytes.Buffer, contentType string) {
	t.Helper()
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	part, err := mw.CreateFormFile("file", "customers.csv")
	if err != nil {
		t.Fatalf("create form file: %v", err)
	}
	if _, err := part.Write([]byte(csv)); err != nil {
		t.Fatalf("write csv part: %v", err)
	}
	if err := mw.Close(); err != nil {
		t.Fatalf("close multipart writer: %v", err)
	}
	return &buf, mw.FormDataContentType()
}
