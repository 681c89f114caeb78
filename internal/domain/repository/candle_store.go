package repository

import (
	"context"
	"time"

	"TrendForge/internal/domain/models"
)

// Timeframe represents candle resolution buckets.
type Timeframe string

const (
	TF1s Timeframe = "1s"
	TF1m Timeframe = "1m"
	TF5m Timeframe = "5m"
)

// CandleStore provides read access to stored candles. It is the collaborator
// that owns candle lifecycles and guarantees ascending, de-duplicated
// buckets; the feature engine only borrows the slices it returns.
type CandleStore interface {
	GetCandles(ctx context.Context, symbol string, from, to time.Time, tf Timeframe) ([]models.Candle, error)
	GetLatestNCandles(ctx context.Context, symbol string, n int, tf Timeframe) ([]models.Candle, error)
}
