package classifier

import "fmt"

// EvaluationMetrics summarizes classifier quality on a held-out split.
type EvaluationMetrics struct {
	Accuracy  float64 `json:"accuracy"`
	Precision float64 `json:"precision"`
	Recall    float64 `json:"recall"`
	F1        float64 `json:"f1"`
	Examples  int     `json:"examples"`
}

// SplitExamples partitions labeled examples into train and holdout sets
// deterministically: every fifth example goes to the holdout. The split
// is stable across runs so retraining on identical data yields identical
// artifacts.
func SplitExamples(examples []Example) (train, holdout []Example) {
	for i, ex := range examples {
		if i%5 == 4 {
			holdout = append(holdout, ex)
		} else {
			train = append(train, ex)
		}
	}
	return train, holdout
}

// Evaluate scores a trained model against labeled examples at the given
// threshold.
func Evaluate(m *Model, examples []Example, threshold float64) (*EvaluationMetrics, error) {
	if len(examples) == 0 {
		return nil, fmt.Errorf("cannot evaluate on zero examples")
	}
	if threshold <= 0 || threshold >= 1 {
		threshold = DefaultThreshold
	}

	var truePositives, falsePositives, falseNegatives, correct int
	for _, ex := range examples {
		predicted := m.Predict(ex.Text) >= threshold
		switch {
		case predicted && ex.IsJobRelated:
			truePositives++
			correct++
		case predicted && !ex.IsJobRelated:
			falsePositives++
		case !predicted && ex.IsJobRelated:
			falseNegatives++
		default:
			correct++
		}
	}

	metrics := &EvaluationMetrics{
		Accuracy: float64(correct) / float64(len(examples)),
		Examples: len(examples),
	}
	if truePositives+falsePositives > 0 {
		metrics.Precision = float64(truePositives) / float64(truePositives+falsePositives)
	}
	if truePositives+falseNegatives > 0 {
		metrics.Recall = float64(truePositives) / float64(truePositives+falseNegatives)
	}
	if metrics.Precision+metrics.Recall > 0 {
		metrics.F1 = 2 * metrics.Precision * metrics.Recall / (metrics.Precision + metrics.Recall)
	}
	return metrics, nil
}
