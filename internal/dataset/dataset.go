// Package dataset loads labeled customer tables for training and generates
// synthetic sample data shaped like the production traffic.
package dataset

import (
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"strconv"

	"github.com/mvetrov/churnguard/internal/features"
	"github.com/mvetrov/churnguard/internal/scoring"
)

// labelColumn is the required training label: 1 churned, 0 retained.
const labelColumn = "churn"

// Load reads a labeled CSV training table. Rows reuse the same coercion
// rules as the scoring paths, so training sees byte-identical features.
func Load(path string) ([]features.CustomerRecord, []int, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, nil, fmt.Errorf("open training data: %w", err)
	}
	defer f.Close()
	return Read(f)
}

// Read parses a labeled CSV table from r.
func Read(r io.Reader) ([]features.CustomerRecord, []int, error) {
	cr := csv.NewReader(r)
	cr.TrimLeadingSpace = true

	header, err := cr.Read()
	if err != nil {
		return nil, nil, fmt.Errorf("read header: %w", err)
	}
	colIndex := make(map[string]int, len(header))
	for i, name := range header {
		colIndex[name] = i
	}
	if _, ok := colIndex[labelColumn]; !ok {
		return nil, nil, fmt.Errorf("training data needs a %q column", labelColumn)
	}

	var records []features.CustomerRecord
	var labels []int
	rowNum := 1
	for {
		cells, err := cr.Read()
		if err == io.EOF {
			break
		}
		rowNum++
		if err != nil {
			return nil, nil, fmt.Errorf("row %d: %w", rowNum, err)
		}

		payload := make(map[string]any, len(colIndex))
		for name, idx := range colIndex {
			if idx < len(cells) {
				payload[name] = cells[idx]
			}
		}
		rec, err := scoring.ParseRecord(payload)
		if err != nil {
			return nil, nil, fmt.Errorf("row %d: %w", rowNum, err)
		}

		label, err := strconv.Atoi(cells[colIndex[labelColumn]])
		if err != nil || (label != 0 && label != 1) {
			return nil, nil, fmt.Errorf("row %d: churn label must be 0 or 1", rowNum)
		}

		records = append(records, rec)
		labels = append(labels, label)
	}
	return records, labels, nil
}

// Vectors applies the feature transform to every record.
func Vectors(records []features.CustomerRecord) []features.FeatureVector {
	vectors := make([]features.FeatureVector, len(records))
	for i, rec := range records {
		vectors[i] = features.Transform(rec)
	}
	return vectors
}
