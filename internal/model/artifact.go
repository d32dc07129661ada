// Package model wraps a trained churn classifier behind a small scoring
// contract. The artifact on disk is a standard-scaler + logistic-regression
// model serialized as JSON; anything meeting the same shape can be dropped in
// by an external training process.
package model

import (
	"encoding/json"
	"fmt"
	"os"
	"time"

	"github.com/mvetrov/churnguard/internal/features"
)

// ArtifactVersion is the serialization format version this build reads.
const ArtifactVersion = "1"

// Artifact is the persisted form of a trained classifier.
type Artifact struct {
	Version           string    `json:"version"`
	VocabularyVersion string    `json:"vocabulary_version"`
	FeatureNames      []string  `json:"feature_names"`
	Means             []float64 `json:"means"`
	Stddevs           []float64 `json:"stddevs"`
	Weights           []float64 `json:"weights"`
	Intercept         float64   `json:"intercept"`
	TrainedAt         time.Time `json:"trained_at"`
	Samples           int       `json:"samples,omitempty"`
}

// Validate checks that the artifact matches the feature contract of this
// build: exact vector width, exact feature order, same encoder vocabulary
// version. A mismatch means every score would be silently wrong, so it is
// rejected up front.
func (a *Artifact) Validate() error {
	if a.Version != ArtifactVersion {
		return fmt.Errorf("unsupported artifact version %q (want %q)", a.Version, ArtifactVersion)
	}
	if a.VocabularyVersion != features.VocabularyVersion {
		return fmt.Errorf("artifact trained against vocabulary %q, this build uses %q; retrain the model",
			a.VocabularyVersion, features.VocabularyVersion)
	}
	if len(a.FeatureNames) != features.NumFeatures {
		return fmt.Errorf("artifact has %d features, want %d", len(a.FeatureNames), features.NumFeatures)
	}
	for i, name := range a.FeatureNames {
		if name != features.FeatureNames[i] {
			return fmt.Errorf("feature %d is %q in artifact, want %q", i, name, features.FeatureNames[i])
		}
	}
	if len(a.Means) != features.NumFeatures || len(a.Stddevs) != features.NumFeatures ||
		len(a.Weights) != features.NumFeatures {
		return fmt.Errorf("artifact parameter lengths do not match %d features", features.NumFeatures)
	}
	return nil
}

// LoadArtifact reads and validates an artifact from path.
func LoadArtifact(path string) (*Artifact, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read model artifact: %w", err)
	}
	var a Artifact
	if err := json.Unmarshal(data, &a); err != nil {
		return nil, fmt.Errorf("parse model artifact: %w", err)
	}
	if err := a.Validate(); err != nil {
		return nil, fmt.Errorf("invalid model artifact: %w", err)
	}
	return &a, nil
}

// Save writes the artifact to path, creating or truncating the file.
func (a *Artifact) Save(path string) error {
	data, err := json.MarshalIndent(a, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal model artifact: %w", err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("write model artifact: %w", err)
	}
	return nil
}
