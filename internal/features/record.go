// Package features maps raw customer attributes to the fixed-order numeric
// vector consumed by the churn classifier. The transform is pure: the same
// record always produces the same vector, at training time and at inference
// time.
package features

// CustomerRecord holds the raw attributes of one subscription customer.
// Records are transient: built per request or per CSV row, never persisted.
type CustomerRecord struct {
	Tenure          int     `json:"tenure"`           // months with the service, >= 0
	MonthlyCharges  float64 `json:"monthly_charges"`  // currency, >= 0
	TotalCharges    float64 `json:"total_charges"`    // currency, >= 0
	ContractType    string  `json:"contract_type"`    // Month-to-Month | One year | Two year
	PaymentMethod   string  `json:"payment_method"`   // Electronic check | Mailed check | Bank transfer | Credit card
	InternetService string  `json:"internet_service"` // DSL | Fiber optic | No
	StreamingTV     bool    `json:"streaming_tv"`
	StreamingMovies bool    `json:"streaming_movies"`
	TechSupport     bool    `json:"tech_support"`
	OnlineSecurity  bool    `json:"online_security"`
}

// ServicesCount returns how many of the four optional services are active (0-4).
func (r CustomerRecord) ServicesCount() int {
	n := 0
	for _, on := range []bool{r.StreamingTV, r.StreamingMovies, r.TechSupport, r.OnlineSecurity} {
		if on {
			n++
		}
	}
	return n
}
