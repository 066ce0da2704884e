package models

import (
	"math"
	"time"
)

type ConsistencyResult struct {
	PredictionID     string    `gorm:"column:prediction_id;primaryKey;type:varchar(36)" json:"prediction_id"`
	Input1           string    `gorm:"column:input_1;type:text" json:"input_1"`
	Input2           string    `gorm:"column:input_2;type:text" json:"input_2"`
	OutputScore      float64   `gorm:"column:output_score;type:double precision" json:"output_score"`
	Timestamp        time.Time `gorm:"column:timestamp;index" json:"timestamp"`
	ProcessingTimeMs int64     `gorm:"column:processing_time_ms;type:integer" json:"processing_time_ms"`
	Status           Status    `gorm:"column:status;type:varchar(20)" json:"status"`
}

func (ConsistencyResult) TableName() string { return "vectara_results" }

func (ConsistencyResult) Kind() Kind { return KindConsistency }

func (r *ConsistencyResult) Stamp(id string, ts time.Time) {
	r.PredictionID = id
	r.Timestamp = ts
}

func (r *ConsistencyResult) Identity() (string, time.Time) {
	return r.PredictionID, r.Timestamp
}

// NewConsistencyResult builds the unsaved record for a premise/hypothesis pair.
func NewConsistencyResult(premise, hypothesis string, score float64, elapsedMs int64, status Status) (*ConsistencyResult, error) {
	if math.IsNaN(score) || math.IsInf(score, 0) {
		return nil, &ValidationError{Field: "output_score", Reason: "not a finite number"}
	}
	if score < 0 || score > 1 {
		return nil, &ValidationError{Field: "output_score", Reason: "outside [0, 1]"}
	}
	if elapsedMs < 0 {
		return nil, &ValidationError{Field: "processing_time_ms", Reason: "negative"}
	}
	return &ConsistencyResult{
		Input1:           premise,
		Input2:           hypothesis,
		OutputScore:      score,
		ProcessingTimeMs: elapsedMs,
		Status:           status,
	}, nil
}

// NewFailedConsistencyResult builds the audit record written when inference
// failed and failure persistence is enabled.
func NewFailedConsistencyResult(premise, hypothesis string) *ConsistencyResult {
	return &ConsistencyResult{
		Input1: premise,
		Input2: hypothesis,
		Status: StatusError,
	}
}
