package inference

import (
	"context"
	"fmt"
	"math"
	"strings"
)

const consistencyPrompt = "<pad> Determine if the hypothesis is true given the premise?\n\nPremise: %s\n\nHypothesis: %s"

type ConsistencyLabel string

const (
	LabelConsistent   ConsistencyLabel = "consistent"
	LabelHallucinated ConsistencyLabel = "hallucinated"
)

var consistencyLabels = []ConsistencyLabel{LabelConsistent, LabelHallucinated}

// ConsistencyScores holds the known classes of a hallucination model. Labels
// outside the enumeration are dropped when parsing.
type ConsistencyScores map[ConsistencyLabel]float64

func parseConsistencyScores(scores []LabelScore) ConsistencyScores {
	out := make(ConsistencyScores, len(consistencyLabels))
	for _, s := range scores {
		label := ConsistencyLabel(strings.ToLower(strings.TrimSpace(s.Label)))
		for _, known := range consistencyLabels {
			if label == known {
				out[known] = s.Score
			}
		}
	}
	return out
}

// ConsistencyScorer scores how far a hypothesis is supported by a premise.
type ConsistencyScorer interface {
	Score(ctx context.Context, premise, hypothesis string) (float64, error)
}

type consistencyScorer struct {
	model Predictor
}

// NewConsistencyScorer wraps a model server serving a hallucination
// evaluation model.
func NewConsistencyScorer(model Predictor) ConsistencyScorer {
	return consistencyScorer{model: model}
}

// FormatConsistencyPrompt renders the premise/hypothesis pair the model was
// trained on.
func FormatConsistencyPrompt(premise, hypothesis string) string {
	return fmt.Sprintf(consistencyPrompt, premise, hypothesis)
}

func (s consistencyScorer) Score(ctx context.Context, premise, hypothesis string) (float64, error) {
	raw, err := s.model.Predict(ctx, FormatConsistencyPrompt(premise, hypothesis))
	if err != nil {
		return 0, &Error{Provider: "consistency", Err: err}
	}
	if len(raw) == 0 {
		return 0, &Error{Provider: "consistency", Err: errNoScores}
	}

	score, ok := parseConsistencyScores(raw)[LabelConsistent]
	if !ok {
		return 0, &Error{Provider: "consistency", Err: fmt.Errorf("label %q missing from model output", LabelConsistent)}
	}
	if math.IsNaN(score) || score < 0 || score > 1 {
		return 0, &Error{Provider: "consistency", Err: fmt.Errorf("score %v outside [0, 1]", score)}
	}
	return score, nil
}
