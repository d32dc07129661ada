package features

import (
	"math"
	"testing"
)

func TestTransformVectorOrder(t *testing.T) {
	rec := CustomerRecord{
		Tenure:          24,
		MonthlyCharges:  80,
		TotalCharges:    1920,
		ContractType:    "One year",
		PaymentMethod:   "Credit card",
		InternetService: "DSL",
		StreamingTV:     true,
		StreamingMovies: false,
		TechSupport:     true,
		OnlineSecurity:  false,
	}

	v := Transform(rec)

	want := FeatureVector{
		24,          // tenure
		80,          // monthly_charges
		1920,        // total_charges
		1,           // contract_encoded: One year
		3,           // payment_encoded: Credit card
		0,           // internet_encoded: DSL
		1,           // streaming_tv
		0,           // streaming_movies
		1,           // tech_support
		0,           // online_security
		1920.0 / 25, // avg_monthly_charge
		80 * 24,     // contract_value
		2,           // services_count
	}
	for i := range want {
		if math.Abs(v[i]-want[i]) > 1e-9 {
			t.Errorf("feature %s = %v, want %v", FeatureNames[i], v[i], want[i])
		}
	}
}

func TestTransformZeroTenure(t *testing.T) {
	rec := CustomerRecord{Tenure: 0, TotalCharges: 100}
	v := Transform(rec)
	if v[FeatAvgMonthlyCharge] != 100 {
		t.Fatalf("avg_monthly_charge = %v, want 100 (total/(tenure+1))", v[FeatAvgMonthlyCharge])
	}
	if v[FeatContractValue] != 0 {
		t.Fatalf("contract_value = %v, want 0", v[FeatContractValue])
	}
}

func TestTransformDeterministic(t *testing.T) {
	rec := CustomerRecord{
		Tenure:         5,
		MonthlyCharges: 99.95,
		TotalCharges:   499.75,
		ContractType:   "Month-to-Month",
	}
	a := Transform(rec)
	b := Transform(rec)
	if a != b {
		t.Fatalf("transform not deterministic: %v vs %v", a, b)
	}
}

func TestFeatureNamesMatchWidth(t *testing.T) {
	if len(FeatureNames) != NumFeatures {
		t.Fatalf("FeatureNames has %d entries, want %d", len(FeatureNames), NumFeatures)
	}
	seen := map[string]bool{}
	for _, name := range FeatureNames {
		if name == "" {
			t.Fatal("empty feature name")
		}
		if seen[name] {
			t.Fatalf("duplicate feature name %q", name)
		}
		seen[name] = true
	}
}

func TestServicesCount(t *testing.T) {
	tests := []struct {
		name string
		rec  CustomerRecord
		want int
	}{
		{"none", CustomerRecord{}, 0},
		{"all", CustomerRecord{StreamingTV: true, StreamingMovies: true, TechSupport: true, OnlineSecurity: true}, 4},
		{"some", CustomerRecord{StreamingMovies: true, OnlineSecurity: true}, 2},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.rec.ServicesCount(); got != tt.want {
				t.Errorf("ServicesCount() = %d, want %d", got, tt.want)
			}
		})
	}
}
