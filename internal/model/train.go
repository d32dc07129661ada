package model

import (
	"errors"
	"fmt"
	"math"
	"time"

	"github.com/mvetrov/churnguard/internal/features"
)

// TrainOptions controls the logistic-regression fit.
type TrainOptions struct {
	LearningRate float64 // gradient step size
	Epochs       int     // full passes over the training set
	L2           float64 // ridge penalty on the weights (not the intercept)
}

// DefaultTrainOptions are sensible for the sample data sizes this tool sees.
func DefaultTrainOptions() TrainOptions {
	return TrainOptions{LearningRate: 0.1, Epochs: 500, L2: 0.001}
}

// Fit trains a standard-scaler + logistic-regression artifact on feature
// vectors built with the same Transform the server uses at inference time.
// Labels are 1 for churned, 0 for retained.
func Fit(vectors []features.FeatureVector, labels []int, opts TrainOptions) (*Artifact, error) {
	if len(vectors) == 0 {
		return nil, errors.New("training set is empty")
	}
	if len(vectors) != len(labels) {
		return nil, fmt.Errorf("have %d vectors but %d labels", len(vectors), len(labels))
	}
	for i, y := range labels {
		if y != 0 && y != 1 {
			return nil, fmt.Errorf("label %d is %d, want 0 or 1", i, y)
		}
	}

	means, stddevs := fitScaler(vectors)

	// Pre-scale once; the vectors are small.
	scaled := make([]features.FeatureVector, len(vectors))
	for i, v := range vectors {
		for j := 0; j < features.NumFeatures; j++ {
			scaled[i][j] = scale(v[j], means[j], stddevs[j])
		}
	}

	weights := make([]float64, features.NumFeatures)
	intercept := 0.0
	n := float64(len(scaled))

	for epoch := 0; epoch < opts.Epochs; epoch++ {
		grad := make([]float64, features.NumFeatures)
		gradB := 0.0
		for i, x := range scaled {
			z := intercept
			for j := 0; j < features.NumFeatures; j++ {
				z += weights[j] * x[j]
			}
			err := sigmoid(z) - float64(labels[i])
			for j := 0; j < features.NumFeatures; j++ {
				grad[j] += err * x[j]
			}
			gradB += err
		}
		for j := 0; j < features.NumFeatures; j++ {
			weights[j] -= opts.LearningRate * (grad[j]/n + opts.L2*weights[j])
		}
		intercept -= opts.LearningRate * gradB / n
	}

	return &Artifact{
		Version:           ArtifactVersion,
		VocabularyVersion: features.VocabularyVersion,
		FeatureNames:      features.FeatureNames[:],
		Means:             means,
		Stddevs:           stddevs,
		Weights:           weights,
		Intercept:         intercept,
		TrainedAt:         time.Now().UTC(),
		Samples:           len(vectors),
	}, nil
}

// Accuracy reports the fraction of samples the artifact classifies correctly
// at the 0.5 threshold. Rough fit check, not an evaluation suite.
func Accuracy(a *Artifact, vectors []features.FeatureVector, labels []int) float64 {
	if len(vectors) == 0 {
		return 0
	}
	adapter := NewAdapter(a)
	correct := 0
	for i, v := range vectors {
		p, _ := adapter.Score(v)
		predicted := 0
		if p > 0.5 {
			predicted = 1
		}
		if predicted == labels[i] {
			correct++
		}
	}
	return float64(correct) / float64(len(vectors))
}

func fitScaler(vectors []features.FeatureVector) (means, stddevs []float64) {
	means = make([]float64, features.NumFeatures)
	stddevs = make([]float64, features.NumFeatures)
	n := float64(len(vectors))

	for _, v := range vectors {
		for j := 0; j < features.NumFeatures; j++ {
			means[j] += v[j]
		}
	}
	for j := range means {
		means[j] /= n
	}
	for _, v := range vectors {
		for j := 0; j < features.NumFeatures; j++ {
			d := v[j] - means[j]
			stddevs[j] += d * d
		}
	}
	for j := range stddevs {
		stddevs[j] = math.Sqrt(stddevs[j] / n)
	}
	return means, stddevs
}
