package inference

import (
	"context"
	"fmt"
	"math"

	"text-analysis-api/models"
)

// GibberishOutput is the raw classifier result before it becomes a record.
type GibberishOutput struct {
	Label        models.GibberishLabel
	Distribution models.Distribution
}

// GibberishClassifier assigns a text to one of the four coherence classes.
type GibberishClassifier interface {
	Classify(ctx context.Context, text string) (*GibberishOutput, error)
}

type gibberishClassifier struct {
	model Predictor
}

func NewGibberishClassifier(model Predictor) GibberishClassifier {
	return gibberishClassifier{model: model}
}

func (c gibberishClassifier) Classify(ctx context.Context, text string) (*GibberishOutput, error) {
	raw, err := c.model.Predict(ctx, text)
	if err != nil {
		return nil, &Error{Provider: "gibberish", Err: err}
	}
	if len(raw) == 0 {
		return nil, &Error{Provider: "gibberish", Err: errNoScores}
	}

	dist := make(models.Distribution, len(models.GibberishLabels))
	var sum float64
	for _, s := range raw {
		label, ok := models.ParseGibberishLabel(s.Label)
		if !ok {
			return nil, &Error{Provider: "gibberish", Err: fmt.Errorf("unexpected label %q", s.Label)}
		}
		dist[label] = s.Score
		sum += s.Score
	}
	if math.IsNaN(sum) || math.IsInf(sum, 0) || sum <= 0 {
		return nil, &Error{Provider: "gibberish", Err: fmt.Errorf("degenerate distribution (sum %v)", sum)}
	}

	// Model servers report float32 softmax outputs; renormalize so the
	// stored probabilities sum to one.
	for l, p := range dist {
		dist[l] = p / sum
	}

	label, _ := dist.Argmax()
	return &GibberishOutput{Label: label, Distribution: dist}, nil
}
