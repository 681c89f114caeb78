package trainer

import (
	"context"
	"fmt"
	"time"

	"TrendForge/internal/domain/models"
	domsvc "TrendForge/internal/domain/service"
	"TrendForge/pkg/config"
)

// HTTPTrainer talks to the model-training collaborator over HTTP. Datasets
// go out with their fingerprint so the trainer can refuse rows extracted
// under a different feature layout.
type HTTPTrainer struct{ base *HTTPServiceBase }

func NewHTTPTrainer(cfg *config.Config) *HTTPTrainer {
	return &HTTPTrainer{base: NewHTTPServiceBase(cfg)}
}

type trainResp struct {
	ModelID  string  `json:"model_id"`
	Samples  int     `json:"samples"`
	Accuracy float64 `json:"accuracy"`
}

func (s *HTTPTrainer) SubmitDataset(ctx context.Context, dataset *models.Dataset) (models.TrainResult, error) {
	var result models.TrainResult
	var tr trainResp
	if err := s.base.PostJSONWithRetry(ctx, "/train", dataset, &tr, 3); err != nil {
		return result, fmt.Errorf("submit dataset: %w", err)
	}
	result.ModelID = tr.ModelID
	result.Fingerprint = dataset.Fingerprint
	result.Samples = tr.Samples
	result.Accuracy = tr.Accuracy
	result.TrainedAt = time.Now()
	return result, nil
}

type predictReq struct {
	Symbol      string    `json:"symbol"`
	Fingerprint string    `json:"fingerprint"`
	Values      []float64 `json:"values"`
}

type predictResp struct {
	Label         int        `json:"label"`
	Probabilities [3]float64 `json:"probabilities"`
	ModelID       string     `json:"model_id"`
}

func (s *HTTPTrainer) Predict(ctx context.Context, symbol, fingerprint string, values []float64) (models.Prediction, error) {
	var result models.Prediction
	var pr predictResp
	err := s.base.PostJSON(ctx, "/predict", predictReq{Symbol: symbol, Fingerprint: fingerprint, Values: values}, &pr)
	if err != nil {
		return result, fmt.Errorf("post predict: %w", err)
	}
	result.Symbol = symbol
	result.Bucket = time.Now()
	result.Label = models.Label(pr.Label)
	result.Probabilities = pr.Probabilities
	result.ModelID = pr.ModelID
	return result, nil
}

var (
	_ domsvc.Trainer   = (*HTTPTrainer)(nil)
	_ domsvc.Predictor = (*HTTPTrainer)(nil)
)
