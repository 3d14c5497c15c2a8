package classifier

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/jobtrail/jobtrail/internal/common"
)

// Artifact is the serialized form of a trained model. The version field
// gates loading: an artifact produced by a different feature pipeline
// must not be silently reused.
type Artifact struct {
	TrainedAt  time.Time          `json:"trained_at"`
	Version    string             `json:"version"`
	Vocabulary map[string]int     `json:"vocabulary"`
	IDF        []float64          `json:"idf"`
	Weights    []float64          `json:"weights"`
	Bias       float64            `json:"bias"`
	Metrics    *EvaluationMetrics `json:"metrics,omitempty"`
}

// SaveArtifact writes the trained model to disk as a versioned JSON file.
func SaveArtifact(path string, model *Model, metrics *EvaluationMetrics) error {
	if model == nil {
		return fmt.Errorf("model cannot be nil")
	}

	artifact := Artifact{
		Version:    ModelVersion,
		TrainedAt:  time.Now().UTC(),
		Vocabulary: model.Vocabulary,
		IDF:        model.IDF,
		Weights:    model.Weights,
		Bias:       model.Bias,
		Metrics:    metrics,
	}

	data, err := json.MarshalIndent(artifact, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal artifact: %w", err)
	}

	if err := os.MkdirAll(filepath.Dir(path), 0750); err != nil {
		return fmt.Errorf("failed to create artifact directory: %w", err)
	}

	if err := os.WriteFile(path, data, 0600); err != nil {
		return fmt.Errorf("failed to write artifact: %w", err)
	}

	return nil
}

// LoadArtifact reads a model from disk, verifying the artifact version.
// A missing file is a configuration error, not a transient failure.
func LoadArtifact(path string) (*Model, error) {
	data, err := os.ReadFile(path)
	if errors.Is(err, os.ErrNotExist) {
		return nil, fmt.Errorf("%w: %s", common.ErrMissingArtifact, path)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read artifact: %w", err)
	}

	var artifact Artifact
	if err := json.Unmarshal(data, &artifact); err != nil {
		return nil, fmt.Errorf("failed to parse artifact: %w", err)
	}

	if artifact.Version != ModelVersion {
		return nil, fmt.Errorf("%w: artifact %q, expected %q",
			common.ErrArtifactVersion, artifact.Version, ModelVersion)
	}
	if len(artifact.IDF) != len(artifact.Vocabulary) || len(artifact.Weights) != len(artifact.Vocabulary) {
		return nil, fmt.Errorf("%w: artifact dimensions inconsistent", common.ErrArtifactVersion)
	}

	return &Model{
		Vocabulary: artifact.Vocabulary,
		IDF:        artifact.IDF,
		Weights:    artifact.Weights,
		Bias:       artifact.Bias,
	}, nil
}
