package dataset

import (
	"encoding/csv"
	"fmt"
	"io"
	"math"
	"math/rand"
	"os"
	"path/filepath"
	"strconv"

	"github.com/mvetrov/churnguard/internal/features"
)

// Sample is one synthetic customer with its churn label.
type Sample struct {
	CustomerID string
	Record     features.CustomerRecord
	Churn      int
}

// Generate produces n synthetic customers with churn labels correlated with
// the drivers the model is expected to learn: month-to-month contracts,
// short tenure, high monthly charges, electronic-check payment and few
// optional services all raise churn odds.
func Generate(n int, seed int64) []Sample {
	rng := rand.New(rand.NewSource(seed))
	samples := make([]Sample, 0, n)

	for i := 0; i < n; i++ {
		tenure := int(rng.ExpFloat64() * 20)
		if tenure < 1 {
			tenure = 1
		}
		if tenure > 72 {
			tenure = 72
		}

		contract := weightedChoice(rng,
			[]string{"Month-to-Month", "One year", "Two year"},
			[]float64{0.55, 0.25, 0.20})

		var minCharge, maxCharge float64
		switch contract {
		case "Month-to-Month":
			minCharge, maxCharge = 15, 30
		case "One year":
			minCharge, maxCharge = 12, 25
		default:
			minCharge, maxCharge = 10, 20
		}
		monthly := math.Round((minCharge+rng.Float64()*(maxCharge-minCharge))*100) / 100

		total := monthly*float64(tenure) + rng.NormFloat64()*50
		if total < monthly {
			total = monthly
		}
		total = math.Round(total*100) / 100

		payment := weightedChoice(rng,
			[]string{"Electronic check", "Mailed check", "Bank transfer", "Credit card"},
			[]float64{0.35, 0.15, 0.25, 0.25})

		internet := weightedChoice(rng,
			[]string{"DSL", "Fiber optic", "No"},
			[]float64{0.35, 0.45, 0.20})

		rec := features.CustomerRecord{
			Tenure:          tenure,
			MonthlyCharges:  monthly,
			TotalCharges:    total,
			ContractType:    contract,
			PaymentMethod:   payment,
			InternetService: internet,
		}
		if internet != "No" {
			rec.StreamingTV = rng.Float64() < 0.6
			rec.StreamingMovies = rng.Float64() < 0.6
			rec.TechSupport = rng.Float64() < 0.5
			rec.OnlineSecurity = rng.Float64() < 0.5
		}

		prob := 0.3
		switch contract {
		case "Month-to-Month":
			prob += 0.25
		case "Two year":
			prob -= 0.15
		}
		if tenure < 6 {
			prob += 0.20
		} else if tenure > 24 {
			prob -= 0.15
		}
		if monthly > 25 {
			prob += 0.15
		}
		if payment == "Electronic check" {
			prob += 0.10
		}
		prob -= float64(rec.ServicesCount()) * 0.05
		prob = math.Min(math.Max(prob, 0.1), 0.9)

		churn := 0
		if rng.Float64() < prob {
			churn = 1
		}

		samples = append(samples, Sample{
			CustomerID: fmt.Sprintf("CUST_%06d", i+1),
			Record:     rec,
			Churn:      churn,
		})
	}
	return samples
}

// WriteCSV writes samples as a labeled training table.
func WriteCSV(w io.Writer, samples []Sample) error {
	cw := csv.NewWriter(w)
	header := []string{
		"customer_id", "tenure", "monthly_charges", "total_charges",
		"contract_type", "payment_method", "internet_service",
		"streaming_tv", "streaming_movies", "tech_support", "online_security",
		"churn",
	}
	if err := cw.Write(header); err != nil {
		return err
	}
	for _, s := range samples {
		row := []string{
			s.CustomerID,
			strconv.Itoa(s.Record.Tenure),
			strconv.FormatFloat(s.Record.MonthlyCharges, 'f', 2, 64),
			strconv.FormatFloat(s.Record.TotalCharges, 'f', 2, 64),
			s.Record.ContractType,
			s.Record.PaymentMethod,
			s.Record.InternetService,
			flag(s.Record.StreamingTV),
			flag(s.Record.StreamingMovies),
			flag(s.Record.TechSupport),
			flag(s.Record.OnlineSecurity),
			strconv.Itoa(s.Churn),
		}
		if err := cw.Write(row); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}

// WriteCSVFile writes samples to path, creating parent directories.
func WriteCSVFile(path string, samples []Sample) error {
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return err
		}
	}
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer f.Close()
	return WriteCSV(f, samples)
}

func flag(b bool) string {
	if b {
		return "1"
	}
	return "0"
}

func weightedChoice(rng *rand.Rand, values []string, weights []float64) string {
	r := rng.Float64()
	acc := 0.0
	for i, w := range weights {
		acc += w
		if r < acc {
			return values[i]
		}
	}
	return values[len(values)-1]
}
