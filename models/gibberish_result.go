package models

import (
	"fmt"
	"math"
	"strings"
	"time"
)

type GibberishLabel string

const (
	LabelClean         GibberishLabel = "clean"
	LabelMildGibberish GibberishLabel = "mild_gibberish"
	LabelNoise         GibberishLabel = "noise"
	LabelWordSalad     GibberishLabel = "word_salad"
)

// GibberishLabels is also the tie-break order for Argmax: the earliest label
// wins when two probabilities are equal.
var GibberishLabels = [4]GibberishLabel{LabelClean, LabelMildGibberish, LabelNoise, LabelWordSalad}

// ProbabilityTolerance bounds how far a distribution may sum away from 1.
const ProbabilityTolerance = 1e-6

// ParseGibberishLabel maps model label spellings such as "mild gibberish" or
// "Word-Salad" onto the fixed label set.
func ParseGibberishLabel(s string) (GibberishLabel, bool) {
	norm := strings.ToLower(strings.TrimSpace(s))
	norm = strings.NewReplacer(" ", "_", "-", "_").Replace(norm)
	for _, l := range GibberishLabels {
		if GibberishLabel(norm) == l {
			return l, true
		}
	}
	return "", false
}

type Distribution map[GibberishLabel]float64

// Argmax returns the most probable label among those present.
func (d Distribution) Argmax() (GibberishLabel, bool) {
	var (
		best  GibberishLabel
		bestP float64
		found bool
	)
	for _, l := range GibberishLabels {
		p, ok := d[l]
		if !ok {
			continue
		}
		if !found || p > bestP {
			best, bestP, found = l, p, true
		}
	}
	return best, found
}

// Validate checks that all four labels are present, finite, non-negative and
// sum to one.
func (d Distribution) Validate() error {
	var sum float64
	for _, l := range GibberishLabels {
		p, ok := d[l]
		field := "prob_" + string(l)
		if !ok {
			return &ValidationError{Field: field, Reason: "missing"}
		}
		if math.IsNaN(p) || math.IsInf(p, 0) {
			return &ValidationError{Field: field, Reason: "not a finite number"}
		}
		if p < 0 {
			return &ValidationError{Field: field, Reason: "negative probability"}
		}
		sum += p
	}
	if math.Abs(sum-1) > ProbabilityTolerance {
		return &ValidationError{Field: "probabilities", Reason: fmt.Sprintf("sum to %g, want 1", sum)}
	}
	return nil
}

type GibberishResult struct {
	PredictionID      string         `gorm:"column:prediction_id;primaryKey;type:varchar(36)" json:"prediction_id"`
	InputText         string         `gorm:"column:input_text;type:text" json:"input_text"`
	PredictedLabel    GibberishLabel `gorm:"column:predicted_label;type:varchar(50)" json:"predicted_label"`
	ProbClean         float64        `gorm:"column:prob_clean;type:double precision" json:"prob_clean"`
	ProbMildGibberish float64        `gorm:"column:prob_mild_gibberish;type:double precision" json:"prob_mild_gibberish"`
	ProbNoise         float64        `gorm:"column:prob_noise;type:double precision" json:"prob_noise"`
	ProbWordSalad     float64        `gorm:"column:prob_word_salad;type:double precision" json:"prob_word_salad"`
	Timestamp         time.Time      `gorm:"column:timestamp;index" json:"timestamp"`
	ProcessingTimeMs  int64          `gorm:"column:processing_time_ms;type:integer" json:"processing_time_ms"`
	Status            Status         `gorm:"column:status;type:varchar(20)" json:"status"`
}

func (GibberishResult) TableName() string { return "gibberish_results" }

func (GibberishResult) Kind() Kind { return KindGibberish }

func (r *GibberishResult) Stamp(id string, ts time.Time) {
	r.PredictionID = id
	r.Timestamp = ts
}

func (r *GibberishResult) Identity() (string, time.Time) {
	return r.PredictionID, r.Timestamp
}

// Distribution rebuilds the label map from the flat probability columns.
func (r *GibberishResult) Distribution() Distribution {
	return Distribution{
		LabelClean:         r.ProbClean,
		LabelMildGibberish: r.ProbMildGibberish,
		LabelNoise:         r.ProbNoise,
		LabelWordSalad:     r.ProbWordSalad,
	}
}

// NewGibberishResult validates a classifier output and flattens it into the
// stored shape. Missing probabilities are an error, never zero-filled.
func NewGibberishResult(text string, label GibberishLabel, dist Distribution, elapsedMs int64, status Status) (*GibberishResult, error) {
	if err := dist.Validate(); err != nil {
		return nil, err
	}
	want, _ := dist.Argmax()
	if label != want {
		return nil, &ValidationError{
			Field:  "predicted_label",
			Reason: fmt.Sprintf("%q is not the most probable label %q", label, want),
		}
	}
	if elapsedMs < 0 {
		return nil, &ValidationError{Field: "processing_time_ms", Reason: "negative"}
	}
	return &GibberishResult{
		InputText:         text,
		PredictedLabel:    label,
		ProbClean:         dist[LabelClean],
		ProbMildGibberish: dist[LabelMildGibberish],
		ProbNoise:         dist[LabelNoise],
		ProbWordSalad:     dist[LabelWordSalad],
		ProcessingTimeMs:  elapsedMs,
		Status:            status,
	}, nil
}

func NewFailedGibberishResult(text string) *GibberishResult {
	return &GibberishResult{
		InputText: text,
		Status:    StatusError,
	}
}
