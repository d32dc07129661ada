package commands

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/mvetrov/churnguard/internal/dataset"
	"github.com/mvetrov/churnguard/internal/model"
)

var (
	trainData   string
	trainOut    string
	trainEpochs int
	trainRate   float64
)

var trainCmd = &cobra.Command{
	Use:   "train",
	Short: "Train a churn model artifact from a labeled CSV",
	Long: `Train a standard-scaler + logistic-regression artifact from a labeled
customer table. Features are derived with the exact transform and the exact
encoder vocabulary the server uses at inference time, so training and
inference can never drift apart.

Example:
  churnctl train --data data/customers.csv --out models/churn_model.json`,
	RunE: func(cmd *cobra.Command, args []string) error {
		records, labels, err := dataset.Load(trainData)
		if err != nil {
			return fmt.Errorf("failed to load training data: %w", err)
		}
		vectors := dataset.Vectors(records)

		opts := model.DefaultTrainOptions()
		if trainEpochs > 0 {
			opts.Epochs = trainEpochs
		}
		if trainRate > 0 {
			opts.LearningRate = trainRate
		}

		artifact, err := model.Fit(vectors, labels, opts)
		if err != nil {
			return fmt.Errorf("training failed: %w", err)
		}

		if dir := filepath.Dir(trainOut); dir != "." {
			if err := os.MkdirAll(dir, 0o755); err != nil {
				return err
			}
		}
		if err := artifact.Save(trainOut); err != nil {
			return err
		}

		if !quiet {
			fmt.Printf("Trained on %d samples, training accuracy %.4f\n",
				len(vectors), model.Accuracy(artifact, vectors, labels))
			fmt.Printf("Saved model artifact to %s\n", trainOut)
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(trainCmd)

	trainCmd.Flags().StringVar(&trainData, "data", "data/customers.csv", "Labeled training CSV")
	trainCmd.Flags().StringVar(&trainOut, "out", "models/churn_model.json", "Output artifact path")
	trainCmd.Flags().IntVar(&trainEpochs, "epochs", 0, "Training epochs (0 = default)")
	trainCmd.Flags().Float64Var(&trainRate, "rate", 0, "Learning rate (0 = default)")
}
