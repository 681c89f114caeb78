package repository

import (
	"context"

	"TrendForge/internal/domain/models"
)

// MarketStream is a live kline source (exchange websocket).
type MarketStream interface {
	Connect(ctx context.Context) error
	Subscribe(ctx context.Context) error
	Read(ctx context.Context) (<-chan *models.Candle, <-chan error)
	Reconnect(ctx context.Context) error
	Close() error
	IsConnected() bool
}

// CandlePublisher forwards ingested candles to the candle topic for
// downstream consumers.
type CandlePublisher interface {
	Publish(ctx context.Context, c *models.Candle) error
	PublishBatch(ctx context.Context, candles []*models.Candle) error
	Close() error
}

// SamplePublisher delivers labeled training rows to the model-training
// collaborator's topic.
type SamplePublisher interface {
	Publish(ctx context.Context, r *models.DatasetRecord) error
	PublishBatch(ctx context.Context, records []*models.DatasetRecord) error
	Close() error
}

// CandleStorage persists ingested candles.
type CandleStorage interface {
	Init(ctx context.Context) error // ensure tables, health checks
	Store(ctx context.Context, c *models.Candle) error
	StoreBatch(ctx context.Context, candles []*models.Candle) error
	Health(ctx context.Context) error // ping
	Close() error
}

// Metrics records operational counters for ingest and extraction.
type Metrics interface {
	RecordCandleIngested(source, symbol string)
	RecordSamplePublished(symbol string)
	RecordError(kind string)
	RecordLastClose(symbol string, price float64)
	RecordLatency(op string, seconds float64)
}
