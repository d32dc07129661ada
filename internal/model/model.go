package model

import (
	"errors"
	"math"

	"github.com/mvetrov/churnguard/internal/features"
)

// ErrModelUnavailable is returned by Score when no artifact could be loaded.
// The process keeps serving; callers surface the condition as a 503.
var ErrModelUnavailable = errors.New("model artifact not loaded; retrain or reload the model")

// Scorer is the scoring contract: feature vector in, churn probability out.
type Scorer interface {
	// Score returns the probability of churn (positive class) in [0,1].
	Score(v features.FeatureVector) (float64, error)
	// Available reports whether the underlying classifier is loaded.
	Available() bool
}

// Adapter is the dependency-injected model wrapper. It is constructed once
// at startup and immutable afterwards; a reload requires a restart. When the
// artifact failed to load, the adapter stays in an unavailable state instead
// of crashing the process.
type Adapter struct {
	artifact *Artifact
	loadErr  error
}

// NewAdapter wraps an already-validated artifact.
func NewAdapter(a *Artifact) *Adapter {
	return &Adapter{artifact: a}
}

// LoadAdapter loads the artifact at path. On failure it returns an adapter
// in the unavailable state together with the load error, so the caller can
// log it and keep serving.
func LoadAdapter(path string) (*Adapter, error) {
	a, err := LoadArtifact(path)
	if err != nil {
		return &Adapter{loadErr: err}, err
	}
	return &Adapter{artifact: a}, nil
}

// Unavailable returns an adapter that fails every Score call. Useful in
// tests and as the explicit variant for a missing model.
func Unavailable() *Adapter {
	return &Adapter{loadErr: ErrModelUnavailable}
}

// Available reports whether an artifact is loaded.
func (a *Adapter) Available() bool { return a.artifact != nil }

// Score computes the churn probability for one feature vector:
// standard-scale each feature with the training means and stddevs, then
// apply the logistic model.
func (a *Adapter) Score(v features.FeatureVector) (float64, error) {
	if a.artifact == nil {
		return 0, ErrModelUnavailable
	}
	m := a.artifact
	z := m.Intercept
	for i := 0; i < features.NumFeatures; i++ {
		z += m.Weights[i] * scale(v[i], m.Means[i], m.Stddevs[i])
	}
	return sigmoid(z), nil
}

// scale applies the training-time standardization. A zero stddev means the
// feature was constant in training; it contributes nothing.
func scale(x, mean, std float64) float64 {
	if std == 0 {
		return 0
	}
	return (x - mean) / std
}

func sigmoid(z float64) float64 {
	return 1 / (1 + math.Exp(-z))
}
