package model

import (
	"testing"

	"github.com/mvetrov/churnguard/internal/features"
)

// separableSet builds a trivially separable training set: churners have short
// tenure and high monthly charges, retained customers the opposite.
func separableSet() ([]features.FeatureVector, []int) {
	var vectors []features.FeatureVector
	var labels []int
	for i := 0; i < 40; i++ {
		churner := features.Transform(features.CustomerRecord{
			Tenure:         1 + i%3,
			MonthlyCharges: 100 + float64(i),
			TotalCharges:   200,
			ContractType:   "Month-to-Month",
		})
		vectors = append(vectors, churner)
		labels = append(labels, 1)

		retained := features.Transform(features.CustomerRecord{
			Tenure:         60 + i%5,
			MonthlyCharges: 30 + float64(i%10),
			TotalCharges:   2000,
			ContractType:   "Two year",
			TechSupport:    true,
		})
		vectors = append(vectors, retained)
		labels = append(labels, 0)
	}
	return vectors, labels
}

func TestFitSeparableData(t *testing.T) {
	vectors, labels := separableSet()
	art, err := Fit(vectors, labels, DefaultTrainOptions())
	if err != nil {
		t.Fatalf("Fit: %v", err)
	}
	if err := art.Validate(); err != nil {
		t.Fatalf("trained artifact invalid: %v", err)
	}
	if art.Samples != len(vectors) {
		t.Errorf("Samples = %d, want %d", art.Samples, len(vectors))
	}

	if acc := Accuracy(art, vectors, labels); acc < 0.95 {
		t.Fatalf("training accuracy %v on separable data, want >= 0.95", acc)
	}

	// Spot-check the direction: a clear churner scores above a clear keeper.
	adapter := NewAdapter(art)
	high, _ := adapter.Score(vectors[0])
	low, _ := adapter.Score(vectors[1])
	if high <= low {
		t.Fatalf("churner probability %v not above retained probability %v", high, low)
	}
}

func TestFitRejectsBadInput(t *testing.T) {
	vectors, labels := separableSet()

	if _, err := Fit(nil, nil, DefaultTrainOptions()); err == nil {
		t.Error("empty training set accepted")
	}
	if _, err := Fit(vectors, labels[:len(labels)-1], DefaultTrainOptions()); err == nil {
		t.Error("mismatched label count accepted")
	}
	bad := append([]int{}, labels...)
	bad[0] = 2
	if _, err := Fit(vectors, bad, DefaultTrainOptions()); err == nil {
		t.Error("non-binary label accepted")
	}
}

func TestAccuracyEmptySet(t *testing.T) {
	vectors, labels := separableSet()
	art, err := Fit(vectors, labels, DefaultTrainOptions())
	if err != nil {
		t.Fatalf("Fit: %v", err)
	}
	if acc := Accuracy(art, nil, nil); acc != 0 {
		t.Fatalf("Accuracy on empty set = %v, want 0", acc)
	}
}
