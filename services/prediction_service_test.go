package services

import (
	"context"
	"errors"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"

	"text-analysis-api/config"
	"text-analysis-api/inference"
	"text-analysis-api/models"
	"text-analysis-api/store"
)

// MockConsistencyScorer is a mock implementation of inference.ConsistencyScorer
type MockConsistencyScorer struct {
	mock.Mock
}

func (m *MockConsistencyScorer) Score(ctx context.Context, premise, hypothesis string) (float64, error) {
	args := m.Called(ctx, premise, hypothesis)
	return args.Get(0).(float64), args.Error(1)
}

// MockGibberishClassifier is a mock implementation of inference.GibberishClassifier
type MockGibberishClassifier struct {
	mock.Mock
}

func (m *MockGibberishClassifier) Classify(ctx context.Context, text string) (*inference.GibberishOutput, error) {
	args := m.Called(ctx, text)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*inference.GibberishOutput), args.Error(1)
}

type MockPublisher struct {
	mock.Mock
}

func (m *MockPublisher) Publish(ctx context.Context, event PredictionEvent) error {
	args := m.Called(ctx, event)
	return args.Error(0)
}

func newTestStore(t *testing.T) *store.Store {
	t.Helper()
	db, err := store.Open(context.Background(), config.DatabaseConfig{
		Dialect: "sqlite",
		URL:     filepath.Join(t.TempDir(), "results.db"),
	}, zap.NewNop())
	require.NoError(t, err)
	require.NoError(t, store.AutoMigrate(db))

	st := store.New(db)
	t.Cleanup(func() { _ = st.Close() })
	return st
}

type serviceFixture struct {
	svc        *PredictionService
	store      *store.Store
	scorer     *MockConsistencyScorer
	classifier *MockGibberishClassifier
}

func newServiceFixture(t *testing.T, pipeline config.PipelineConfig, opts ...ServiceOption) *serviceFixture {
	t.Helper()
	f := &serviceFixture{
		store:      newTestStore(t),
		scorer:     new(MockConsistencyScorer),
		classifier: new(MockGibberishClassifier),
	}
	clock := &stepClock{now: time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC), step: 50 * time.Millisecond}
	opts = append([]ServiceOption{WithServiceClock(clock)}, opts...)
	f.svc = NewPredictionService(f.store, f.scorer, f.classifier, pipeline, zap.NewNop(), opts...)
	return f
}

var noiseOutput = &inference.GibberishOutput{
	Label: models.LabelNoise,
	Distribution: models.Distribution{
		models.LabelClean:         0.02,
		models.LabelMildGibberish: 0.10,
		models.LabelNoise:         0.80,
		models.LabelWordSalad:     0.08,
	},
}

func TestPredictConsistency(t *testing.T) {
	f := newServiceFixture(t, config.PipelineConfig{})
	ctx := context.Background()
	premise, hypothesis := "The cat sat on the mat.", "A cat is sitting on a mat."
	f.scorer.On("Score", mock.Anything, premise, hypothesis).Return(0.92, nil)

	rec, err := f.svc.PredictConsistency(ctx, premise, hypothesis)

	require.NoError(t, err)
	assert.NotEmpty(t, rec.PredictionID)
	assert.Equal(t, 0.92, rec.OutputScore)
	assert.Equal(t, int64(50), rec.ProcessingTimeMs)
	assert.Equal(t, models.StatusSuccess, rec.Status)

	rows, err := f.svc.ListConsistency(ctx, 1)
	require.NoError(t, err)
	require.Len(t, rows, 1)
	assert.Equal(t, rec.PredictionID, rows[0].PredictionID)
	assert.Equal(t, premise, rows[0].Input1)
	f.scorer.AssertExpectations(t)
}

func TestPredictConsistency_IdenticalInputsAreIndependent(t *testing.T) {
	f := newServiceFixture(t, config.PipelineConfig{})
	ctx := context.Background()
	f.scorer.On("Score", mock.Anything, "p", "h").Return(0.5, nil).Twice()

	a, err := f.svc.PredictConsistency(ctx, "p", "h")
	require.NoError(t, err)
	b, err := f.svc.PredictConsistency(ctx, "p", "h")
	require.NoError(t, err)

	assert.NotEqual(t, a.PredictionID, b.PredictionID)
	rows, err := f.svc.ListConsistency(ctx, 0)
	require.NoError(t, err)
	assert.Len(t, rows, 2)
}

func TestPredictConsistency_InferenceFailure(t *testing.T) {
	modelErr := &inference.Error{Provider: "consistency", Err: errors.New("model unavailable")}

	t.Run("nothing stored by default", func(t *testing.T) {
		f := newServiceFixture(t, config.PipelineConfig{})
		f.scorer.On("Score", mock.Anything, "p", "h").Return(0.0, modelErr)

		rec, err := f.svc.PredictConsistency(context.Background(), "p", "h")

		assert.Nil(t, rec)
		var ierr *inference.Error
		assert.ErrorAs(t, err, &ierr)

		rows, err := f.svc.ListConsistency(context.Background(), 0)
		require.NoError(t, err)
		assert.Empty(t, rows)
	})

	t.Run("audit record stored when enabled", func(t *testing.T) {
		f := newServiceFixture(t, config.PipelineConfig{PersistFailures: true})
		f.scorer.On("Score", mock.Anything, "p", "h").Return(0.0, modelErr)

		_, err := f.svc.PredictConsistency(context.Background(), "p", "h")
		assert.ErrorIs(t, err, modelErr)

		rows, err := f.svc.ListConsistency(context.Background(), 0)
		require.NoError(t, err)
		require.Len(t, rows, 1)
		assert.Equal(t, models.StatusError, rows[0].Status)
		assert.Zero(t, rows[0].OutputScore)
		assert.Zero(t, rows[0].ProcessingTimeMs)
	})
}

func TestPredictConsistency_OutOfRangeScore(t *testing.T) {
	f := newServiceFixture(t, config.PipelineConfig{})
	f.scorer.On("Score", mock.Anything, "p", "h").Return(1.5, nil)

	_, err := f.svc.PredictConsistency(context.Background(), "p", "h")

	var verr *models.ValidationError
	assert.ErrorAs(t, err, &verr)
}

func TestPredictGibberish(t *testing.T) {
	publisher := new(MockPublisher)
	publisher.On("Publish", mock.Anything, mock.MatchedBy(func(e PredictionEvent) bool {
		return e.Kind == models.KindGibberish
	})).Return(nil).Once()

	f := newServiceFixture(t, config.PipelineConfig{}, WithPublisher(publisher))
	ctx := context.Background()
	f.classifier.On("Classify", mock.Anything, "asdf jkl qwop").Return(noiseOutput, nil)

	rec, err := f.svc.PredictGibberish(ctx, "asdf jkl qwop")

	require.NoError(t, err)
	assert.Equal(t, models.LabelNoise, rec.PredictedLabel)
	assert.Equal(t, 0.80, rec.ProbNoise)
	assert.Equal(t, int64(50), rec.ProcessingTimeMs)

	rows, err := f.svc.ListGibberish(ctx, 1)
	require.NoError(t, err)
	require.Len(t, rows, 1)
	assert.Equal(t, rec.PredictionID, rows[0].PredictionID)
	publisher.AssertExpectations(t)
}

func TestPredictGibberish_InvalidDistribution(t *testing.T) {
	f := newServiceFixture(t, config.PipelineConfig{})
	f.classifier.On("Classify", mock.Anything, "x").Return(&inference.GibberishOutput{
		Label:        models.LabelClean,
		Distribution: models.Distribution{models.LabelClean: 0.6, models.LabelNoise: 0.4},
	}, nil)

	_, err := f.svc.PredictGibberish(context.Background(), "x")

	var verr *models.ValidationError
	require.ErrorAs(t, err, &verr)
	rows, err := f.svc.ListGibberish(context.Background(), 0)
	require.NoError(t, err)
	assert.Empty(t, rows)
}

func TestPredictGibberish_PublishFailureDoesNotFailRequest(t *testing.T) {
	publisher := new(MockPublisher)
	publisher.On("Publish", mock.Anything, mock.Anything).Return(errors.New("redis down"))

	f := newServiceFixture(t, config.PipelineConfig{}, WithPublisher(publisher))
	f.classifier.On("Classify", mock.Anything, "hello").Return(noiseOutput, nil)

	rec, err := f.svc.PredictGibberish(context.Background(), "hello")
	require.NoError(t, err)
	assert.NotEmpty(t, rec.PredictionID)
}

func TestPredict_StoreUnavailable(t *testing.T) {
	f := newServiceFixture(t, config.PipelineConfig{})
	require.NoError(t, f.store.Close())

	_, err := f.svc.PredictConsistency(context.Background(), "p", "h")
	var serr *store.Error
	assert.ErrorAs(t, err, &serr)
	f.scorer.AssertNotCalled(t, "Score", mock.Anything, mock.Anything, mock.Anything)

	_, err = f.svc.ListGibberish(context.Background(), 10)
	assert.ErrorAs(t, err, &serr)
}

func TestStats(t *testing.T) {
	f := newServiceFixture(t, config.PipelineConfig{PersistFailures: true})
	ctx := context.Background()

	f.scorer.On("Score", mock.Anything, "a", "h").Return(0.2, nil)
	f.scorer.On("Score", mock.Anything, "b", "h").Return(0.6, nil)
	f.scorer.On("Score", mock.Anything, "c", "h").Return(0.0, errors.New("boom"))
	for _, p := range []string{"a", "b", "c"} {
		_, _ = f.svc.PredictConsistency(ctx, p, "h")
	}

	stats, err := f.svc.Stats(ctx, models.KindConsistency, 0)
	require.NoError(t, err)
	assert.Equal(t, 2, stats.Total)
	assert.Equal(t, 1, stats.Failed)
	assert.InDelta(t, 0.4, stats.AverageScore, 1e-9)
	assert.InDelta(t, 0.2, stats.MinScore, 1e-9)
	assert.InDelta(t, 0.6, stats.MaxScore, 1e-9)
	assert.InDelta(t, 50, stats.AvgTimeMs, 1e-9)

	f.classifier.On("Classify", mock.Anything, "x").Return(noiseOutput, nil)
	_, err = f.svc.PredictGibberish(ctx, "x")
	require.NoError(t, err)

	gstats, err := f.svc.Stats(ctx, models.KindGibberish, 0)
	require.NoError(t, err)
	assert.Equal(t, 1, gstats.Total)
	assert.InDelta(t, 0.02, gstats.AverageScore, 1e-9)
	assert.Equal(t, 1, gstats.LabelCounts[models.LabelNoise])

	_, err = f.svc.Stats(ctx, models.Kind("roads"), 0)
	assert.Error(t, err)
}

func TestStats_Empty(t *testing.T) {
	f := newServiceFixture(t, config.PipelineConfig{})

	stats, err := f.svc.Stats(context.Background(), models.KindGibberish, 0)
	require.NoError(t, err)
	assert.Zero(t, stats.Total)
	assert.Zero(t, stats.AverageScore)
}

func TestPredictConsistency_LogsStoredIdentity(t *testing.T) {
	core, logs := observer.New(zap.InfoLevel)
	f := newServiceFixture(t, config.PipelineConfig{})
	f.svc.log = zap.New(core)
	f.scorer.On("Score", mock.Anything, "p", "h").Return(0.7, nil)

	rec, err := f.svc.PredictConsistency(context.Background(), "p", "h")
	require.NoError(t, err)

	stored := logs.FilterMessage("Prediction stored").All()
	require.Len(t, stored, 1)
	fields := stored[0].ContextMap()
	assert.Equal(t, rec.PredictionID, fields["prediction_id"])
	assert.True(t, rec.Timestamp.Equal(fields["timestamp"].(time.Time)))
	assert.Equal(t, "vectara", fields["kind"])
}
