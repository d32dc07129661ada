package scoring

import "github.com/mvetrov/churnguard/internal/features"

// Recommendations builds the ordered retention advice list for a scored
// customer. Pure function of (probability, record): tier-generic advice
// first, then conditional advice driven by the record itself.
func Recommendations(p float64, rec features.CustomerRecord) []string {
	var recs []string

	switch TierFor(p) {
	case TierHigh:
		recs = append(recs,
			"High churn risk - immediate intervention required",
			"Offer loyalty discount or premium features",
			"Schedule personal call from retention team",
		)
	case TierMedium:
		recs = append(recs,
			"Monitor closely for changes in usage patterns",
			"Send targeted re-engagement email campaign",
			"Offer upgrade incentives or bundled services",
		)
	default:
		recs = append(recs,
			"Customer appears satisfied",
			"Continue monitoring engagement metrics",
			"Consider for referral program",
		)
	}

	if rec.ContractType == "Month-to-Month" {
		recs = append(recs, "Encourage upgrade to an annual contract")
	}
	if !rec.TechSupport {
		recs = append(recs, "Promote tech support subscription")
	}

	return recs
}
