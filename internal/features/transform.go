package features

// Feature indices. The order is a hard invariant shared with every trained
// model artifact: any permutation silently changes model semantics.
const (
	FeatTenure = iota
	FeatMonthlyCharges
	FeatTotalCharges
	FeatContractEncoded
	FeatPaymentEncoded
	FeatInternetEncoded
	FeatStreamingTV
	FeatStreamingMovies
	FeatTechSupport
	FeatOnlineSecurity
	FeatAvgMonthlyCharge
	FeatContractValue
	FeatServicesCount

	// NumFeatures is the exact width of the model input.
	NumFeatures = 13
)

// FeatureNames lists the features in vector order, for artifacts and logs.
var FeatureNames = [NumFeatures]string{
	"tenure",
	"monthly_charges",
	"total_charges",
	"contract_encoded",
	"payment_encoded",
	"internet_encoded",
	"streaming_tv",
	"streaming_movies",
	"tech_support",
	"online_security",
	"avg_monthly_charge",
	"contract_value",
	"services_count",
}

// FeatureVector is the fixed-order numeric input consumed by the classifier.
// Immutable once built (passed by value).
type FeatureVector [NumFeatures]float64

// Transform derives the feature vector for one customer record.
//
// Derived features:
//   - avg_monthly_charge = total_charges / (tenure + 1). The +1 guards the
//     tenure=0 case and is part of the trained contract, not an optimization.
//   - contract_value = monthly_charges * tenure
//   - services_count = number of active optional services
//
// Unknown categorical values encode to their default codes; Transform never
// fails.
func Transform(rec CustomerRecord) FeatureVector {
	var v FeatureVector
	v[FeatTenure] = float64(rec.Tenure)
	v[FeatMonthlyCharges] = rec.MonthlyCharges
	v[FeatTotalCharges] = rec.TotalCharges
	v[FeatContractEncoded] = float64(ContractEncoder.Encode(rec.ContractType))
	v[FeatPaymentEncoded] = float64(PaymentEncoder.Encode(rec.PaymentMethod))
	v[FeatInternetEncoded] = float64(InternetEncoder.Encode(rec.InternetService))
	v[FeatStreamingTV] = boolFeature(rec.StreamingTV)
	v[FeatStreamingMovies] = boolFeature(rec.StreamingMovies)
	v[FeatTechSupport] = boolFeature(rec.TechSupport)
	v[FeatOnlineSecurity] = boolFeature(rec.OnlineSecurity)
	v[FeatAvgMonthlyCharge] = rec.TotalCharges / (float64(rec.Tenure) + 1)
	v[FeatContractValue] = rec.MonthlyCharges * float64(rec.Tenure)
	v[FeatServicesCount] = float64(rec.ServicesCount())
	return v
}

func boolFeature(b bool) float64 {
	if b {
		return 1
	}
	return 0
}
