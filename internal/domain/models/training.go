package models

import "time"

// TrainResult reports the outcome of a training run on a submitted dataset.
type TrainResult struct {
	ModelID     string    `json:"model_id"`
	Fingerprint string    `json:"fingerprint"`
	Samples     int       `json:"samples"`
	Accuracy    float64   `json:"accuracy"`
	TrainedAt   time.Time `json:"trained_at"`
}

// Prediction is the classifier's answer for one feature vector.
type Prediction struct {
	Symbol        string     `json:"symbol"`
	Bucket        time.Time  `json:"bucket"`
	Label         Label      `json:"label"`
	Probabilities [3]float64 `json:"probabilities"` // indexed by Label
	ModelID       string     `json:"model_id"`
}
