package classifier

import (
	"strings"

	"github.com/jobtrail/jobtrail/internal/model"
)

// DefaultThreshold is the probability above which a message is labeled
// job-related when no strong signal fires.
const DefaultThreshold = 0.5

// RelevanceClassifier labels messages as job-related or not. It combines
// a trained statistical model with rule-based strong signals; the rules
// win when they fire.
type RelevanceClassifier struct {
	model     *Model
	threshold float64
}

// NewRelevanceClassifier creates a classifier around a trained model.
// A threshold outside (0, 1) falls back to the default.
func NewRelevanceClassifier(m *Model, threshold float64) *RelevanceClassifier {
	if threshold <= 0 || threshold >= 1 {
		threshold = DefaultThreshold
	}
	return &RelevanceClassifier{
		model:     m,
		threshold: threshold,
	}
}

// Classify produces a relevance label for a single message. A message
// with no usable text is labeled not-relevant with zero confidence
// rather than failing.
func (c *RelevanceClassifier) Classify(msg model.Message) model.RelevanceLabel {
	label := model.RelevanceLabel{MessageID: msg.ID}

	if strings.TrimSpace(msg.Text()) == "" {
		return label
	}

	if HasStrongSignal(msg.Subject, msg.Body) {
		label.IsJobRelated = true
		label.Confidence = 1.0
		return label
	}

	probability := c.model.Predict(msg.Text())
	label.IsJobRelated = probability >= c.threshold
	if label.IsJobRelated {
		label.Confidence = probability
	} else {
		label.Confidence = 1.0 - probability
	}
	return label
}

// ClassifyAll labels a batch of messages in order.
func (c *RelevanceClassifier) ClassifyAll(messages []model.Message) []model.RelevanceLabel {
	labels := make([]model.RelevanceLabel, 0, len(messages))
	for _, msg := range messages {
		labels = append(labels, c.Classify(msg))
	}
	return labels
}
