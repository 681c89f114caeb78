package service

import (
	"context"

	"TrendForge/internal/domain/models"
)

// Trainer submits labeled datasets to the model-training collaborator.
type Trainer interface {
	SubmitDataset(ctx context.Context, dataset *models.Dataset) (models.TrainResult, error)
}

// Predictor scores one feature vector against the trained classifier.
type Predictor interface {
	Predict(ctx context.Context, symbol, fingerprint string, values []float64) (models.Prediction, error)
}
