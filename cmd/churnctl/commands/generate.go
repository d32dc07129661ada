package commands

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/mvetrov/churnguard/internal/dataset"
)

var (
	generateOut  string
	generateRows int
	generateSeed int64
)

var generateCmd = &cobra.Command{
	Use:   "generate",
	Short: "Generate synthetic labeled customer data",
	Long: `Generate a synthetic labeled customer table for training.

The churn labels correlate with the drivers the model is expected to learn:
month-to-month contracts, short tenure, high charges, electronic-check
payment and few optional services.

Example:
  churnctl generate --out data/customers.csv --rows 5000`,
	RunE: func(cmd *cobra.Command, args []string) error {
		samples := dataset.Generate(generateRows, generateSeed)
		if err := dataset.WriteCSVFile(generateOut, samples); err != nil {
			return fmt.Errorf("failed to write sample data: %w", err)
		}

		if !quiet {
			churned := 0
			for _, s := range samples {
				churned += s.Churn
			}
			fmt.Printf("Wrote %d customers to %s (%.1f%% churned)\n",
				len(samples), generateOut, 100*float64(churned)/float64(len(samples)))
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(generateCmd)

	generateCmd.Flags().StringVar(&generateOut, "out", "data/customers.csv", "Output CSV path")
	generateCmd.Flags().IntVar(&generateRows, "rows", 5000, "Number of customers to generate")
	generateCmd.Flags().Int64Var(&generateSeed, "seed", 42, "Random seed")
}
