package usecase

import (
	"context"
	"fmt"
	"time"

	domrepo "TrendForge/internal/domain/repository"
	domsvc "TrendForge/internal/domain/service"
	"TrendForge/pkg/logger"
	"TrendForge/pkg/queue"
)

// DatasetBuildType is the queue message type for background dataset builds.
const DatasetBuildType = "dataset.build"

// DatasetJobPayload is the queue payload for one dataset build.
type DatasetJobPayload struct {
	Symbol        string  `json:"symbol"`
	FromUnix      int64   `json:"from"`
	ToUnix        int64   `json:"to"`
	Timeframe     string  `json:"tf"`
	FuturePeriods int     `json:"future_periods"`
	Threshold     float64 `json:"threshold"`
	Publish       bool    `json:"publish"`
	Train         bool    `json:"train"`
}

// DatasetBuildJob runs dataset builds from the Redis queue, so large
// historical ranges do not hold an HTTP request open.
type DatasetBuildJob struct {
	dataset *DatasetUseCase
	trainer domsvc.Trainer
	l       *logger.Logger
}

func NewDatasetBuildJob(dataset *DatasetUseCase, trainer domsvc.Trainer, l *logger.Logger) *DatasetBuildJob {
	return &DatasetBuildJob{dataset: dataset, trainer: trainer, l: l}
}

func (j *DatasetBuildJob) Name() string { return "dataset_build" }
func (j *DatasetBuildJob) Type() string { return DatasetBuildType }

func (j *DatasetBuildJob) Handle(ctx context.Context, payload interface{}) error {
	p, err := queue.ParsePayload[DatasetJobPayload](payload)
	if err != nil {
		return fmt.Errorf("parse payload: %w", err)
	}

	ds, err := j.dataset.BuildDataset(ctx, BuildDatasetParams{
		Symbol:        p.Symbol,
		From:          time.Unix(p.FromUnix, 0).UTC(),
		To:            time.Unix(p.ToUnix, 0).UTC(),
		Timeframe:     domrepo.NormalizeTimeframe(p.Timeframe),
		FuturePeriods: p.FuturePeriods,
		Threshold:     p.Threshold,
		Publish:       p.Publish,
	})
	if err != nil {
		return fmt.Errorf("build dataset: %w", err)
	}

	j.l.Info("dataset job built",
		logger.String("symbol", p.Symbol),
		logger.Int("samples", ds.Len()))

	if p.Train {
		if j.trainer == nil {
			return fmt.Errorf("train requested but no trainer configured")
		}
		result, err := j.trainer.SubmitDataset(ctx, ds)
		if err != nil {
			return fmt.Errorf("submit dataset: %w", err)
		}
		j.l.Info("dataset job trained",
			logger.String("symbol", p.Symbol),
			logger.String("model_id", result.ModelID))
	}
	return nil
}

var _ queue.Job = (*DatasetBuildJob)(nil)
