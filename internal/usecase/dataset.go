package usecase

import (
	"context"
	"fmt"
	"time"

	"TrendForge/internal/domain/models"
	domrepo "TrendForge/internal/domain/repository"
	"TrendForge/internal/services/features"

	"github.com/rs/zerolog"
)

// DatasetUseCase drives the offline training path: walk a stored candle
// range, extract every usable trailing window, label it by forward return
// and hand the rows to the trainer.
type DatasetUseCase struct {
	store     domrepo.CandleStore
	extractor *features.Extractor
	publisher domrepo.SamplePublisher
	metrics   domrepo.Metrics
	logger    zerolog.Logger
	timeout   time.Duration
}

func NewDatasetUseCase(
	store domrepo.CandleStore,
	extractor *features.Extractor,
	publisher domrepo.SamplePublisher,
	metrics domrepo.Metrics,
	logger zerolog.Logger,
) *DatasetUseCase {
	return &DatasetUseCase{
		store:     store,
		extractor: extractor,
		publisher: publisher,
		metrics:   metrics,
		logger:    logger.With().Str("component", "dataset_usecase").Logger(),
		timeout:   2 * time.Minute,
	}
}

// BuildDatasetParams selects the candle range and the labeling rule.
type BuildDatasetParams struct {
	Symbol        string
	From, To      time.Time
	Timeframe     domrepo.Timeframe
	FuturePeriods int
	Threshold     float64
	Publish       bool
}

func (p BuildDatasetParams) validate() error {
	if p.Symbol == "" {
		return fmt.Errorf("symbol required")
	}
	if !p.To.After(p.From) {
		return fmt.Errorf("invalid range: from %s >= to %s", p.From, p.To)
	}
	if p.FuturePeriods <= 0 {
		return fmt.Errorf("future periods must be positive, got %d", p.FuturePeriods)
	}
	if p.Threshold <= 0 {
		return fmt.Errorf("threshold must be positive, got %v", p.Threshold)
	}
	return nil
}

// BuildDataset extracts a labeled dataset over the stored range. A range
// that yields zero usable windows returns an empty dataset, not an error.
// When Publish is set, every row is also delivered to the sample topic.
func (uc *DatasetUseCase) BuildDataset(ctx context.Context, p BuildDatasetParams) (*models.Dataset, error) {
	if err := p.validate(); err != nil {
		return nil, err
	}

	ctx, cancel := context.WithTimeout(ctx, uc.timeout)
	defer cancel()

	cfg := uc.extractor.Config()

	candles, err := uc.store.GetCandles(ctx, p.Symbol, p.From, p.To, p.Timeframe)
	if err != nil {
		uc.metrics.RecordError("dataset_fetch")
		return nil, fmt.Errorf("get candles: %w", err)
	}

	dataset := &models.Dataset{
		Symbol:      p.Symbol,
		Timeframe:   string(p.Timeframe),
		Fingerprint: cfg.Fingerprint(),
		Names:       cfg.FeatureNames(),
	}
	if len(candles) < cfg.MinWindow()+p.FuturePeriods {
		uc.logger.Warn().
			Str("symbol", p.Symbol).
			Int("candles", len(candles)).
			Int("min_window", cfg.MinWindow()).
			Int("future_periods", p.FuturePeriods).
			Msg("range too short for any labeled window")
		return dataset, nil
	}

	series, err := models.NewCandleSeries(p.Symbol, string(p.Timeframe), candles)
	if err != nil {
		uc.metrics.RecordError("dataset_series")
		return nil, fmt.Errorf("candle series: %w", err)
	}

	start := time.Now()
	cursor := uc.extractor.Labeled(series, p.FuturePeriods, p.Threshold)

	dataset.X = make([][]float64, 0, cursor.Count())
	dataset.Y = make([]int, 0, cursor.Count())
	records := make([]*models.DatasetRecord, 0, cursor.Count())

	for cursor.Next() {
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		sample := cursor.Sample()
		dataset.X = append(dataset.X, sample.Features.Values)
		dataset.Y = append(dataset.Y, int(sample.Label))
		if p.Publish {
			records = append(records, &models.DatasetRecord{
				Symbol:      p.Symbol,
				Timeframe:   string(p.Timeframe),
				Fingerprint: cfg.Fingerprint(),
				Bucket:      sample.Bucket,
				Values:      sample.Features.Values,
				Label:       int(sample.Label),
			})
		}
	}
	uc.metrics.RecordLatency("extract_with_labels", time.Since(start).Seconds())

	if p.Publish && len(records) > 0 {
		if uc.publisher == nil {
			return nil, fmt.Errorf("publish requested but no sample publisher configured")
		}
		if err := uc.publisher.PublishBatch(ctx, records); err != nil {
			uc.metrics.RecordError("dataset_publish")
			return nil, fmt.Errorf("publish samples: %w", err)
		}
		for range records {
			uc.metrics.RecordSamplePublished(p.Symbol)
		}
	}

	counts := dataset.LabelCounts()
	uc.logger.Info().
		Str("symbol", p.Symbol).
		Str("timeframe", string(p.Timeframe)).
		Int("samples", dataset.Len()).
		Int("down", counts[models.LabelDown]).
		Int("flat", counts[models.LabelFlat]).
		Int("up", counts[models.LabelUp]).
		Bool("published", p.Publish && len(records) > 0).
		Dur("took", time.Since(start)).
		Msg("dataset built")

	return dataset, nil
}
