package features

import (
	"context"
	"sync"

	"TrendForge/internal/domain/models"
)

// Extractor turns candle series into fixed-order feature vectors. It holds
// only the validated configuration: no state survives a call, so one
// extractor can serve concurrent extractions over independent series.
type Extractor struct {
	cfg   Config
	names []string
}

// NewExtractor validates the configuration once and builds the extractor.
func NewExtractor(cfg Config) (*Extractor, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &Extractor{cfg: cfg, names: cfg.FeatureNames()}, nil
}

// NewDefaultExtractor builds an extractor with the pinned default config.
func NewDefaultExtractor() *Extractor {
	e, err := NewExtractor(DefaultConfig())
	if err != nil {
		// the default config is a constant; it cannot fail validation
		panic(err)
	}
	return e
}

func (e *Extractor) Config() Config { return e.cfg }

// columns is one snapshot of a series decomposed into float columns.
type columns struct {
	opens, highs, lows, closes, volumes []float64
	series                              *models.CandleSeries
}

func newColumns(s *models.CandleSeries) columns {
	return columns{
		opens:   s.Opens(),
		highs:   s.Highs(),
		lows:    s.Lows(),
		closes:  s.Closes(),
		volumes: s.Volumes(),
		series:  s,
	}
}

// slice returns the window columns covering indexes [start, end].
func (c columns) slice(start, end int) columns {
	return columns{
		opens:   c.opens[start : end+1],
		highs:   c.highs[start : end+1],
		lows:    c.lows[start : end+1],
		closes:  c.closes[start : end+1],
		volumes: c.volumes[start : end+1],
	}
}

// ExtractSingle computes one feature vector over the entire series. It is
// the live-scoring path: too little history is a hard, specific error
// rather than a silently degraded vector.
func (e *Extractor) ExtractSingle(s *models.CandleSeries) (models.FeatureVector, error) {
	required := e.cfg.MinWindow()
	if s.Len() < required {
		return models.FeatureVector{}, &models.InsufficientDataError{Required: required, Actual: s.Len()}
	}
	return models.FeatureVector{
		Values: e.buildValues(newColumns(s)),
		Names:  e.names,
	}, nil
}

// buildValues assembles the canonical vector. Order here and in
// Config.FeatureNames must stay in lock-step; both encode the wire contract.
func (e *Extractor) buildValues(c columns) []float64 {
	closes := c.closes
	currentClose := closes[len(closes)-1]
	last := len(closes) - 1

	values := make([]float64, 0, e.cfg.FeatureCount())

	for _, period := range e.cfg.SMAPeriods {
		values = append(values, PriceRatio(currentClose, SMA(closes, period)))
	}
	for _, period := range e.cfg.EMAPeriods {
		values = append(values, PriceRatio(currentClose, EMA(closes, period)))
	}

	values = append(values, RSI(closes, e.cfg.RSIPeriod)/100.0)

	hist, signalRatio := MACD(closes, e.cfg.MACDFast, e.cfg.MACDSlow, e.cfg.MACDSignal)
	values = append(values, hist, signalRatio)

	percentB, bandwidth := Bollinger(closes, e.cfg.BBPeriod, e.cfg.BBStdDev)
	values = append(values, percentB, bandwidth)

	atr := ATR(c.highs, c.lows, closes, e.cfg.ATRPeriod)
	atrRatio := 0.0
	if currentClose > 0 {
		atrRatio = atr / currentClose
	}
	values = append(values, atrRatio)

	for _, period := range e.cfg.ReturnPeriods {
		values = append(values, Return(closes, period))
	}
	for _, period := range e.cfg.ReturnPeriods {
		values = append(values, LogReturn(closes, period))
	}

	body, upperShadow, lowerShadow := CandleShape(c.opens[last], c.highs[last], c.lows[last], currentClose)
	values = append(values, body, upperShadow, lowerShadow)
	values = append(values, VolumeChange(c.volumes))

	return values
}

// BatchCursor lazily walks trailing windows of a series, oldest window
// first. It is restartable via Reset and deterministic; callers cancel by
// not calling Next again.
type BatchCursor struct {
	e      *Extractor
	cols   columns
	window int
	next   int // index just past the current window's last candle
}

// Batch returns a cursor over every trailing window of `windowSize` candles.
// A non-positive windowSize defaults to the config's MinWindow. A series
// shorter than one window yields an empty cursor, not an error: training
// wants every usable window, and zero usable windows is a valid answer.
func (e *Extractor) Batch(s *models.CandleSeries, windowSize int) *BatchCursor {
	if windowSize <= 0 {
		windowSize = e.cfg.MinWindow()
	}
	c := &BatchCursor{e: e, cols: newColumns(s), window: windowSize}
	c.Reset()
	return c
}

// Count returns the total number of windows the cursor will yield.
func (c *BatchCursor) Count() int {
	n := len(c.cols.closes) - c.window + 1
	if n < 0 {
		return 0
	}
	return n
}

// Reset rewinds the cursor to before the first window.
func (c *BatchCursor) Reset() { c.next = c.window - 1 }

// Next advances to the next window; it returns false when exhausted.
func (c *BatchCursor) Next() bool {
	if c.next >= len(c.cols.closes) {
		return false
	}
	c.next++
	return true
}

// Vector computes the feature vector for the current window.
func (c *BatchCursor) Vector() models.FeatureVector {
	end := c.next - 1
	return models.FeatureVector{
		Values: c.e.buildValues(c.cols.slice(end-c.window+1, end)),
		Names:  c.e.names,
	}
}

// ExtractBatch drains a batch cursor into a slice.
func (e *Extractor) ExtractBatch(s *models.CandleSeries, windowSize int) []models.FeatureVector {
	cursor := e.Batch(s, windowSize)
	out := make([]models.FeatureVector, 0, cursor.Count())
	for cursor.Next() {
		out = append(out, cursor.Vector())
	}
	return out
}

// ExtractBatchParallel computes the same windows as ExtractBatch using
// `workers` goroutines. Windows are independent, so they are computed out of
// order and written back by index; the returned slice is in window order.
func (e *Extractor) ExtractBatchParallel(ctx context.Context, s *models.CandleSeries, windowSize, workers int) []models.FeatureVector {
	if windowSize <= 0 {
		windowSize = e.cfg.MinWindow()
	}
	if workers <= 0 {
		workers = 1
	}

	cols := newColumns(s)
	count := len(cols.closes) - windowSize + 1
	if count <= 0 {
		return nil
	}

	out := make([]models.FeatureVector, count)
	indexes := make(chan int)

	var wg sync.WaitGroup
	for w := 0; w < workers; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for i := range indexes {
				end := windowSize - 1 + i
				out[i] = models.FeatureVector{
					Values: e.buildValues(cols.slice(end-windowSize+1, end)),
					Names:  e.names,
				}
			}
		}()
	}

feed:
	for i := 0; i < count; i++ {
		select {
		case indexes <- i:
		case <-ctx.Done():
			break feed
		}
	}
	close(indexes)
	wg.Wait()

	if ctx.Err() != nil {
		return nil
	}
	return out
}

// LabeledCursor walks trailing windows that still have `futurePeriods` of
// lookahead left and labels each one by its forward return. Windows near the
// end of the series lacking lookahead are dropped silently; that is the
// documented training-path behavior, not an error.
type LabeledCursor struct {
	cursor        *BatchCursor
	futurePeriods int
	threshold     float64
}

// Labeled returns a cursor over labeled samples. The window size is the
// config's MinWindow; the forward return for the window ending at index i is
// close[i+futurePeriods]/close[i] - 1.
func (e *Extractor) Labeled(s *models.CandleSeries, futurePeriods int, threshold float64) *LabeledCursor {
	return &LabeledCursor{
		cursor:        e.Batch(s, 0),
		futurePeriods: futurePeriods,
		threshold:     threshold,
	}
}

// Count returns the number of samples the cursor will yield.
func (c *LabeledCursor) Count() int {
	n := c.cursor.Count() - c.futurePeriods
	if n < 0 {
		return 0
	}
	return n
}

// Reset rewinds the cursor to before the first labeled window.
func (c *LabeledCursor) Reset() { c.cursor.Reset() }

// Next advances to the next window that still has lookahead.
func (c *LabeledCursor) Next() bool {
	if c.cursor.next+c.futurePeriods >= len(c.cursor.cols.closes) {
		return false
	}
	return c.cursor.Next()
}

// Sample computes the feature vector and label for the current window.
func (c *LabeledCursor) Sample() models.LabeledSample {
	vector := c.cursor.Vector()
	end := c.cursor.next - 1
	closes := c.cursor.cols.closes
	forward := closes[end+c.futurePeriods]/closes[end] - 1.0
	return models.LabeledSample{
		Features: vector,
		Label:    models.LabelForReturn(forward, c.threshold),
		Bucket:   c.cursor.cols.series.At(end).Bucket,
	}
}

// ExtractWithLabels drains a labeled cursor into a slice.
func (e *Extractor) ExtractWithLabels(s *models.CandleSeries, futurePeriods int, threshold float64) []models.LabeledSample {
	cursor := e.Labeled(s, futurePeriods, threshold)
	out := make([]models.LabeledSample, 0, cursor.Count())
	for cursor.Next() {
		out = append(out, cursor.Sample())
	}
	return out
}
