package services

import (
	"context"
	"errors"
	"fmt"

	"go.uber.org/zap"
	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat"

	"text-analysis-api/config"
	"text-analysis-api/inference"
	"text-analysis-api/metrics"
	"text-analysis-api/models"
	"text-analysis-api/store"
)

type PredictionService struct {
	store      *store.Store
	scorer     inference.ConsistencyScorer
	classifier inference.GibberishClassifier
	publisher  Publisher
	clock      Clock
	pipeline   config.PipelineConfig
	log        *zap.Logger
}

type ServiceOption func(*PredictionService)

func WithServiceClock(clock Clock) ServiceOption {
	return func(s *PredictionService) { s.clock = clock }
}

// WithPublisher fans stored records out to live subscribers.
func WithPublisher(p Publisher) ServiceOption {
	return func(s *PredictionService) { s.publisher = p }
}

func NewPredictionService(
	st *store.Store,
	scorer inference.ConsistencyScorer,
	classifier inference.GibberishClassifier,
	pipeline config.PipelineConfig,
	log *zap.Logger,
	opts ...ServiceOption,
) *PredictionService {
	s := &PredictionService{
		store:      st,
		scorer:     scorer,
		classifier: classifier,
		clock:      SystemClock,
		pipeline:   pipeline,
		log:        log,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// PredictConsistency scores the hypothesis against the premise and stores the
// result. Nothing is stored when inference fails unless failure persistence
// is enabled, and the request fails either way.
func (s *PredictionService) PredictConsistency(ctx context.Context, premise, hypothesis string) (*models.ConsistencyResult, error) {
	var result *models.ConsistencyResult
	err := s.store.WithSession(ctx, func(sess *store.Session) error {
		score, elapsed, err := TimeCall(s.clock, func() (float64, error) {
			return s.scorer.Score(ctx, premise, hypothesis)
		})
		if err == nil {
			result, err = models.NewConsistencyResult(premise, hypothesis, score, elapsed, models.StatusSuccess)
		}
		if err != nil {
			s.failed(ctx, sess, models.NewFailedConsistencyResult(premise, hypothesis), err)
			return err
		}
		return s.persist(ctx, sess, result)
	})
	if err != nil {
		return nil, err
	}
	return result, nil
}

func (s *PredictionService) PredictGibberish(ctx context.Context, text string) (*models.GibberishResult, error) {
	var result *models.GibberishResult
	err := s.store.WithSession(ctx, func(sess *store.Session) error {
		out, elapsed, err := TimeCall(s.clock, func() (*inference.GibberishOutput, error) {
			return s.classifier.Classify(ctx, text)
		})
		if err == nil {
			result, err = models.NewGibberishResult(text, out.Label, out.Distribution, elapsed, models.StatusSuccess)
		}
		if err != nil {
			s.failed(ctx, sess, models.NewFailedGibberishResult(text), err)
			return err
		}
		return s.persist(ctx, sess, result)
	})
	if err != nil {
		return nil, err
	}
	return result, nil
}

func (s *PredictionService) persist(ctx context.Context, sess *store.Session, rec models.Record) error {
	kind := string(rec.Kind())
	if _, err := sess.Insert(ctx, rec); err != nil {
		metrics.StorageFailures.WithLabelValues(kind, "insert").Inc()
		s.log.Error("Failed to store prediction", zap.String("kind", kind), zap.Error(err))
		return err
	}
	id, ts := rec.Identity()

	var elapsed int64
	switch r := rec.(type) {
	case *models.ConsistencyResult:
		elapsed = r.ProcessingTimeMs
	case *models.GibberishResult:
		elapsed = r.ProcessingTimeMs
	}
	metrics.ObservePrediction(kind, string(models.StatusSuccess), elapsed)
	s.log.Info("Prediction stored",
		zap.String("kind", kind),
		zap.String("prediction_id", id),
		zap.Time("timestamp", ts),
		zap.Int64("processing_time_ms", elapsed),
	)
	s.publish(ctx, rec)
	return nil
}

// failed records the metric and, when configured, an audit record with
// status=error. A failure to store the audit record is logged only.
func (s *PredictionService) failed(ctx context.Context, sess *store.Session, rec models.Record, cause error) {
	kind := string(rec.Kind())
	metrics.ObservePrediction(kind, string(models.StatusError), 0)

	var verr *models.ValidationError
	if errors.As(cause, &verr) {
		s.log.Warn("Model output rejected", zap.String("kind", kind), zap.Error(cause))
	} else {
		s.log.Error("Inference failed", zap.String("kind", kind), zap.Error(cause))
	}

	if !s.pipeline.PersistFailures {
		return
	}
	if _, err := sess.Insert(ctx, rec); err != nil {
		metrics.StorageFailures.WithLabelValues(kind, "insert").Inc()
		s.log.Error("Failed to store failed prediction", zap.String("kind", kind), zap.Error(err))
		return
	}
	id, ts := rec.Identity()
	s.log.Info("Failed prediction stored",
		zap.String("kind", kind),
		zap.String("prediction_id", id),
		zap.Time("timestamp", ts),
	)
	s.publish(ctx, rec)
}

func (s *PredictionService) publish(ctx context.Context, rec models.Record) {
	if s.publisher == nil {
		return
	}
	if err := s.publisher.Publish(ctx, PredictionEvent{Kind: rec.Kind(), Record: rec}); err != nil {
		s.log.Warn("Failed to publish prediction event", zap.String("kind", string(rec.Kind())), zap.Error(err))
		return
	}
	metrics.EventsPublished.Inc()
}

func (s *PredictionService) ListConsistency(ctx context.Context, limit int) ([]models.ConsistencyResult, error) {
	var rows []models.ConsistencyResult
	err := s.store.WithSession(ctx, func(sess *store.Session) error {
		var err error
		rows, err = sess.ListConsistency(ctx, limit)
		return err
	})
	if err != nil {
		metrics.StorageFailures.WithLabelValues(string(models.KindConsistency), "list").Inc()
		return nil, err
	}
	return rows, nil
}

func (s *PredictionService) ListGibberish(ctx context.Context, limit int) ([]models.GibberishResult, error) {
	var rows []models.GibberishResult
	err := s.store.WithSession(ctx, func(sess *store.Session) error {
		var err error
		rows, err = sess.ListGibberish(ctx, limit)
		return err
	})
	if err != nil {
		metrics.StorageFailures.WithLabelValues(string(models.KindGibberish), "list").Inc()
		return nil, err
	}
	return rows, nil
}

// ResultStats summarises the recent successful records of one kind. Score is
// output_score for consistency and prob_clean for gibberish.
type ResultStats struct {
	Kind         models.Kind                   `json:"kind"`
	Total        int                           `json:"total"`
	Failed       int                           `json:"failed"`
	AverageScore float64                       `json:"average_score"`
	MinScore     float64                       `json:"min_score"`
	MaxScore     float64                       `json:"max_score"`
	AvgTimeMs    float64                       `json:"avg_processing_time_ms"`
	LabelCounts  map[models.GibberishLabel]int `json:"label_counts,omitempty"`
}

func (s *PredictionService) Stats(ctx context.Context, kind models.Kind, limit int) (*ResultStats, error) {
	stats := &ResultStats{Kind: kind}
	var scores, times []float64

	switch kind {
	case models.KindConsistency:
		rows, err := s.ListConsistency(ctx, limit)
		if err != nil {
			return nil, err
		}
		for _, r := range rows {
			if r.Status != models.StatusSuccess {
				stats.Failed++
				continue
			}
			scores = append(scores, r.OutputScore)
			times = append(times, float64(r.ProcessingTimeMs))
		}
	case models.KindGibberish:
		rows, err := s.ListGibberish(ctx, limit)
		if err != nil {
			return nil, err
		}
		stats.LabelCounts = make(map[models.GibberishLabel]int, len(models.GibberishLabels))
		for _, r := range rows {
			if r.Status != models.StatusSuccess {
				stats.Failed++
				continue
			}
			scores = append(scores, r.ProbClean)
			times = append(times, float64(r.ProcessingTimeMs))
			stats.LabelCounts[r.PredictedLabel]++
		}
	default:
		return nil, fmt.Errorf("unknown prediction kind %q", kind)
	}

	stats.Total = len(scores)
	if len(scores) == 0 {
		return stats, nil
	}
	stats.AverageScore = stat.Mean(scores, nil)
	stats.MinScore = floats.Min(scores)
	stats.MaxScore = floats.Max(scores)
	stats.AvgTimeMs = stat.Mean(times, nil)
	return stats, nil
}
