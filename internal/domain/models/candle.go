package models

import (
	"fmt"
	"time"
)

// Candle represents an OHLCV record for feature engineering and training.
type Candle struct {
	Bucket time.Time
	Symbol string
	Open   float64
	High   float64
	Low    float64
	Close  float64
	Volume float64
}

// CandleSeries is an ordered, read-only view over candles for one
// symbol/timeframe. Timestamps are strictly increasing; the engine only
// borrows read access, the store that produced the slice owns it.
type CandleSeries struct {
	symbol    string
	timeframe string
	candles   []Candle
}

// NewCandleSeries wraps candles into a series. It rejects empty input and
// out-of-order or duplicate timestamps.
func NewCandleSeries(symbol, timeframe string, candles []Candle) (*CandleSeries, error) {
	if len(candles) == 0 {
		return nil, fmt.Errorf("candle series %s/%s: empty", symbol, timeframe)
	}
	for i := 1; i < len(candles); i++ {
		if !candles[i].Bucket.After(candles[i-1].Bucket) {
			return nil, fmt.Errorf("candle series %s/%s: non-increasing bucket at index %d", symbol, timeframe, i)
		}
	}
	return &CandleSeries{symbol: symbol, timeframe: timeframe, candles: candles}, nil
}

func (s *CandleSeries) Symbol() string    { return s.symbol }
func (s *CandleSeries) Timeframe() string { return s.timeframe }
func (s *CandleSeries) Len() int          { return len(s.candles) }

// At returns the candle at index i (0 = oldest).
func (s *CandleSeries) At(i int) Candle { return s.candles[i] }

// Last returns the most recent candle.
func (s *CandleSeries) Last() Candle { return s.candles[len(s.candles)-1] }

// Window returns a sub-series view of `length` candles starting at `start`.
// The view shares the backing array; no candles are copied.
func (s *CandleSeries) Window(start, length int) (*CandleSeries, error) {
	if start < 0 || length <= 0 || start+length > len(s.candles) {
		return nil, &InsufficientDataError{Required: start + length, Actual: len(s.candles)}
	}
	return &CandleSeries{symbol: s.symbol, timeframe: s.timeframe, candles: s.candles[start : start+length]}, nil
}

// Trailing returns a view over the last n candles.
func (s *CandleSeries) Trailing(n int) (*CandleSeries, error) {
	if n <= 0 || n > len(s.candles) {
		return nil, &InsufficientDataError{Required: n, Actual: len(s.candles)}
	}
	return s.Window(len(s.candles)-n, n)
}

// Column accessors. Each call builds a fresh slice; callers doing repeated
// window math should extract the columns once and slice them.

func (s *CandleSeries) Opens() []float64   { return s.column(func(c Candle) float64 { return c.Open }) }
func (s *CandleSeries) Highs() []float64   { return s.column(func(c Candle) float64 { return c.High }) }
func (s *CandleSeries) Lows() []float64    { return s.column(func(c Candle) float64 { return c.Low }) }
func (s *CandleSeries) Closes() []float64  { return s.column(func(c Candle) float64 { return c.Close }) }
func (s *CandleSeries) Volumes() []float64 { return s.column(func(c Candle) float64 { return c.Volume }) }

func (s *CandleSeries) column(f func(Candle) float64) []float64 {
	out := make([]float64, len(s.candles))
	for i, c := range s.candles {
		out[i] = f(c)
	}
	return out
}
