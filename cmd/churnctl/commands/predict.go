package commands

import (
	"context"
	"encoding/json"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/mvetrov/churnguard/internal/cli"
	"github.com/mvetrov/churnguard/internal/client"
)

var (
	predictFile  string
	predictBatch string
)

var predictCmd = &cobra.Command{
	Use:   "predict",
	Short: "Score a customer against a running API",
	Long: `Score a single customer record (JSON file) or a whole CSV table
against a running churnguard API.

Examples:
  churnctl predict --file customer.json
  churnctl predict --batch customers.csv`,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := cli.LoadConfig()
		if err != nil {
			return fmt.Errorf("configuration error: %w", err)
		}
		url, tok, err := cli.Resolve(cfg, baseURL, token)
		if err != nil {
			return err
		}
		c := client.NewClient(url, tok)
		ctx := context.Background()

		switch {
		case predictBatch != "":
			f, err := os.Open(predictBatch)
			if err != nil {
				return err
			}
			defer f.Close()
			result, err := c.PredictBatch(ctx, predictBatch, f)
			if err != nil {
				return fmt.Errorf("batch prediction failed: %w", err)
			}
			return cli.PrintJSON(result)

		case predictFile != "":
			data, err := os.ReadFile(predictFile)
			if err != nil {
				return err
			}
			var payload map[string]any
			if err := json.Unmarshal(data, &payload); err != nil {
				return fmt.Errorf("invalid record JSON: %w", err)
			}
			result, err := c.Predict(ctx, payload)
			if err != nil {
				return fmt.Errorf("prediction failed: %w", err)
			}
			return cli.PrintJSON(result)

		default:
			return fmt.Errorf("pass --file for a single record or --batch for a CSV")
		}
	},
}

func init() {
	rootCmd.AddCommand(predictCmd)

	predictCmd.Flags().StringVar(&predictFile, "file", "", "JSON file with one customer record")
	predictCmd.Flags().StringVar(&predictBatch, "batch", "", "CSV file with one customer per row")
}
