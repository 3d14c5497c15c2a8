package classifier

import (
	"fmt"
	"math"
	"sort"
)

// ModelVersion identifies the artifact format and feature pipeline. A
// loaded artifact with a different version is a configuration error.
const ModelVersion = "tfidf-logreg/1"

// Training hyperparameters. Fixed rather than configurable: the corpus is
// small and the training path is offline.
const (
	trainEpochs    = 30
	learningRate   = 0.5
	l2Penalty      = 1e-4
	maxVocabulary  = 20000
	minDocumentFrq = 2
)

// Example is one labeled training document.
type Example struct {
	Text         string
	IsJobRelated bool
}

// Model is a trained decision boundary: TF-IDF features plus logistic
// regression weights. It is immutable after training.
type Model struct {
	Vocabulary map[string]int
	IDF        []float64
	Weights    []float64
	Bias       float64
}

// Train fits a model on the labeled corpus. Training is deterministic:
// the vocabulary is sorted and examples are visited in input order, so a
// fixed corpus always yields the same boundary.
func Train(examples []Example) (*Model, error) {
	if len(examples) == 0 {
		return nil, fmt.Errorf("no training examples")
	}

	var positives int
	for _, ex := range examples {
		if ex.IsJobRelated {
			positives++
		}
	}
	if positives == 0 || positives == len(examples) {
		return nil, fmt.Errorf("training corpus needs both classes: %d of %d positive", positives, len(examples))
	}

	model := buildVocabulary(examples)
	if len(model.Vocabulary) == 0 {
		return nil, fmt.Errorf("empty vocabulary after filtering")
	}

	vectors := make([][]feature, len(examples))
	for i, ex := range examples {
		vectors[i] = model.vectorize(ex.Text)
	}

	model.Weights = make([]float64, len(model.Vocabulary))
	for epoch := 0; epoch < trainEpochs; epoch++ {
		rate := learningRate / (1 + float64(epoch))
		for i, vec := range vectors {
			target := 0.0
			if examples[i].IsJobRelated {
				target = 1.0
			}
			pred := model.decision(vec)
			gradient := pred - target

			for _, f := range vec {
				model.Weights[f.index] -= rate * (gradient*f.value + l2Penalty*model.Weights[f.index])
			}
			model.Bias -= rate * gradient
		}
	}

	return model, nil
}

// buildVocabulary selects terms by document frequency, keeping the most
// common maxVocabulary terms that appear in at least minDocumentFrq
// documents.
func buildVocabulary(examples []Example) *Model {
	docFreq := make(map[string]int)
	for _, ex := range examples {
		seen := make(map[string]bool)
		for tok := range termCounts(ex.Text) {
			if !seen[tok] {
				docFreq[tok]++
				seen[tok] = true
			}
		}
	}

	type termFreq struct {
		term string
		freq int
	}
	candidates := make([]termFreq, 0, len(docFreq))
	for term, freq := range docFreq {
		if freq >= minDocumentFrq {
			candidates = append(candidates, termFreq{term, freq})
		}
	}
	sort.Slice(candidates, func(i, j int) bool {
		if candidates[i].freq != candidates[j].freq {
			return candidates[i].freq > candidates[j].freq
		}
		return candidates[i].term < candidates[j].term
	})
	if len(candidates) > maxVocabulary {
		candidates = candidates[:maxVocabulary]
	}

	model := &Model{Vocabulary: make(map[string]int, len(candidates))}
	model.IDF = make([]float64, len(candidates))
	totalDocs := float64(len(examples))
	for i, c := range candidates {
		model.Vocabulary[c.term] = i
		model.IDF[i] = math.Log((1+totalDocs)/(1+float64(c.freq))) + 1
	}

	return model
}

type feature struct {
	index int
	value float64
}

// vectorize produces the L2-normalized TF-IDF vector for a document,
// sparse over the model vocabulary.
func (m *Model) vectorize(text string) []feature {
	counts := termCounts(text)
	vec := make([]feature, 0, len(counts))
	for term, count := range counts {
		idx, ok := m.Vocabulary[term]
		if !ok {
			continue
		}
		vec = append(vec, feature{index: idx, value: float64(count) * m.IDF[idx]})
	}
	sort.Slice(vec, func(i, j int) bool { return vec[i].index < vec[j].index })

	// Accumulate the norm over the sorted slice: float addition order must
	// not depend on map iteration order or identical corpora would train
	// to slightly different weights.
	var norm float64
	for _, f := range vec {
		norm += f.value * f.value
	}
	if norm > 0 {
		norm = math.Sqrt(norm)
		for i := range vec {
			vec[i].value /= norm
		}
	}
	return vec
}

func (m *Model) decision(vec []feature) float64 {
	score := m.Bias
	for _, f := range vec {
		score += m.Weights[f.index] * f.value
	}
	return sigmoid(score)
}

// Predict returns the probability that the document is job-related.
// An empty or out-of-vocabulary document scores 0.
func (m *Model) Predict(text string) float64 {
	vec := m.vectorize(text)
	if len(vec) == 0 {
		return 0
	}
	return m.decision(vec)
}

func sigmoid(x float64) float64 {
	return 1 / (1 + math.Exp(-x))
}
