package main

import (
	"encoding/csv"
	"fmt"
	"log/slog"
	"os"
	"strconv"

	"github.com/jobtrail/jobtrail/internal/classifier"
	"github.com/jobtrail/jobtrail/internal/cli"
	"github.com/jobtrail/jobtrail/internal/config"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

func trainCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "train <labeled.csv>",
		Short: "Train the relevance classifier from a labeled corpus",
		Long: `Train the TF-IDF relevance classifier on a labeled CSV corpus and save
the model artifact for later classify runs.

The CSV has two columns: label,text. Labels are 1/0 or true/false, where
a positive label means the message is job-application related. A header
row is detected and skipped. A fifth of the corpus is held out for
evaluation; the reported metrics are computed on that holdout.

Examples:
  jobtrail train corpus.csv
  jobtrail train corpus.csv --artifact ~/models/classifier.json`,
		Args: cobra.ExactArgs(1),
		RunE: runTrain,
	}

	cmd.Flags().String("artifact", "", "path to write the model artifact (default: data dir)")
	_ = viper.BindPFlag("classifier.artifact", cmd.Flags().Lookup("artifact"))

	return cmd
}

func runTrain(_ *cobra.Command, args []string) error {
	examples, err := loadLabeledCSV(args[0])
	if err != nil {
		return err
	}

	slog.Info("Loaded training corpus", "examples", len(examples))

	train, holdout := classifier.SplitExamples(examples)

	m, err := classifier.Train(train)
	if err != nil {
		return fmt.Errorf("training failed: %w", err)
	}

	metrics, err := classifier.Evaluate(m, holdout, classifier.DefaultThreshold)
	if err != nil {
		return fmt.Errorf("evaluation failed: %w", err)
	}

	artifactPath := viper.GetString("classifier.artifact")
	if artifactPath == "" {
		artifactPath = config.DefaultArtifactPath()
	}
	artifactPath = config.ExpandPath(artifactPath)

	if err := classifier.SaveArtifact(artifactPath, m, metrics); err != nil {
		return fmt.Errorf("failed to save artifact: %w", err)
	}

	fmt.Println(cli.FormatSuccess(fmt.Sprintf("Trained on %d examples, evaluated on %d", len(train), len(holdout))))
	fmt.Printf("  accuracy  %.3f\n  precision %.3f\n  recall    %.3f\n  f1        %.3f\n",
		metrics.Accuracy, metrics.Precision, metrics.Recall, metrics.F1)
	fmt.Println(cli.SubtleStyle.Render("Artifact written to " + artifactPath))

	return nil
}

// loadLabeledCSV reads a two-column label,text corpus. An unparsable
// label in the first row is treated as a header and skipped.
func loadLabeledCSV(path string) ([]classifier.Example, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open corpus: %w", err)
	}
	defer func() {
		if closeErr := f.Close(); closeErr != nil {
			slog.Warn("Failed to close corpus file", "error", closeErr)
		}
	}()

	reader := csv.NewReader(f)
	reader.FieldsPerRecord = 2

	records, err := reader.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("failed to read corpus: %w", err)
	}

	examples := make([]classifier.Example, 0, len(records))
	for i, record := range records {
		label, parseErr := strconv.ParseBool(record[0])
		if parseErr != nil {
			if i == 0 {
				continue // header row
			}
			return nil, fmt.Errorf("row %d: invalid label %q", i+1, record[0])
		}
		examples = append(examples, classifier.Example{Text: record[1], IsJobRelated: label})
	}

	if len(examples) == 0 {
		return nil, fmt.Errorf("corpus %s contains no labeled examples", path)
	}

	return examples, nil
}
