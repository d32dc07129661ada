package commands

import (
	"github.com/spf13/cobra"
)

var (
	// Global flags
	baseURL string
	token   string
	quiet   bool
)

// rootCmd represents the base command
var rootCmd = &cobra.Command{
	Use:   "churnctl",
	Short: "CLI tool for the churnguard churn-prediction service",
	Long: `Churnctl works with the churnguard service: it generates sample
customer data, trains the churn model artifact the server loads, and runs
predictions against a running API.

Examples:
  churnctl generate --out data/customers.csv --rows 5000
  churnctl train --data data/customers.csv --out models/churn_model.json
  churnctl predict --file customer.json --base-url http://localhost:8080`,
}

// Execute runs the root command
func Execute() error {
	return rootCmd.Execute()
}

func init() {
	// Global flags available to all commands
	rootCmd.PersistentFlags().StringVar(&baseURL, "base-url", "", "Base URL of the churnguard API")
	rootCmd.PersistentFlags().StringVar(&token, "token", "", "API token for authentication")
	rootCmd.PersistentFlags().BoolVar(&quiet, "quiet", false, "Suppress output")
}
