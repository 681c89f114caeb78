package features

import (
	"context"
	"errors"
	"math"
	"testing"
	"time"

	"TrendForge/internal/domain/models"
)

func seriesFromCloses(t *testing.T, closes []float64, volume float64) *models.CandleSeries {
	t.Helper()
	base := time.Date(2025, 6, 1, 0, 0, 0, 0, time.UTC)
	candles := make([]models.Candle, len(closes))
	for i, c := range closes {
		candles[i] = models.Candle{
			Bucket: base.Add(time.Duration(i) * time.Minute),
			Symbol: "BTCUSDT",
			Open:   c,
			High:   c,
			Low:    c,
			Close:  c,
			Volume: volume,
		}
	}
	s, err := models.NewCandleSeries("BTCUSDT", "1m", candles)
	if err != nil {
		t.Fatalf("series: %v", err)
	}
	return s
}

func wavySeries(t *testing.T, n int) *models.CandleSeries {
	t.Helper()
	base := time.Date(2025, 6, 1, 0, 0, 0, 0, time.UTC)
	candles := make([]models.Candle, n)
	for i := 0; i < n; i++ {
		variation := math.Sin(float64(i)*0.1) * 1000
		open := 50000 + variation
		close := open + (math.Mod(float64(i), 3)-1)*100
		candles[i] = models.Candle{
			Bucket: base.Add(time.Duration(i) * time.Minute),
			Symbol: "BTCUSDT",
			Open:   open,
			High:   math.Max(open, close) + 50,
			Low:    math.Min(open, close) - 50,
			Close:  close,
			Volume: 100 + float64(i),
		}
	}
	s, err := models.NewCandleSeries("BTCUSDT", "1m", candles)
	if err != nil {
		t.Fatalf("series: %v", err)
	}
	return s
}

func TestExtractSingleShape(t *testing.T) {
	e := NewDefaultExtractor()
	s := wavySeries(t, 100)

	vec, err := e.ExtractSingle(s)
	if err != nil {
		t.Fatalf("extract: %v", err)
	}
	if vec.Len() != e.Config().FeatureCount() {
		t.Fatalf("vector len %d != feature count %d", vec.Len(), e.Config().FeatureCount())
	}
	if len(vec.Names) != vec.Len() {
		t.Fatalf("names %d != values %d", len(vec.Names), vec.Len())
	}
	for i, v := range vec.Values {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			t.Fatalf("feature %s is not finite: %v", vec.Names[i], v)
		}
	}
}

func TestExtractSingleFlatSeries(t *testing.T) {
	e := NewDefaultExtractor()
	closes := make([]float64, 60)
	for i := range closes {
		closes[i] = 100
	}
	vec, err := e.ExtractSingle(seriesFromCloses(t, closes, 1000))
	if err != nil {
		t.Fatalf("extract: %v", err)
	}

	byName := map[string]float64{}
	for i, n := range vec.Names {
		byName[n] = vec.Values[i]
	}

	for _, n := range []string{"sma_5_ratio", "sma_50_ratio", "ema_12_ratio", "ema_26_ratio"} {
		if byName[n] != 0 {
			t.Fatalf("%s = %v, want 0", n, byName[n])
		}
	}
	// flat window: zero average loss, so the parity-preserved RSI branch
	// reads 100 (feature 1.0), not a neutral 0.5
	if byName["rsi"] != 1.0 {
		t.Fatalf("rsi feature = %v, want 1.0", byName["rsi"])
	}
	if byName["macd_histogram"] != 0 || byName["macd_signal_ratio"] != 0 {
		t.Fatalf("macd = %v/%v, want 0/0", byName["macd_histogram"], byName["macd_signal_ratio"])
	}
	if byName["bb_percent_b"] != 0.5 {
		t.Fatalf("bb %%B = %v, want 0.5", byName["bb_percent_b"])
	}
	if byName["bb_bandwidth"] != 0 {
		t.Fatalf("bb bandwidth = %v, want 0", byName["bb_bandwidth"])
	}
	for _, n := range []string{
		"atr_ratio",
		"return_1", "return_5", "return_10",
		"log_return_1", "log_return_5", "log_return_10",
		"body_ratio", "upper_shadow_ratio", "lower_shadow_ratio", "volume_change",
	} {
		if byName[n] != 0 {
			t.Fatalf("%s = %v, want 0", n, byName[n])
		}
	}
}

func TestExtractSingleInsufficientData(t *testing.T) {
	e := NewDefaultExtractor()
	closes := make([]float64, 10)
	for i := range closes {
		closes[i] = 100
	}
	_, err := e.ExtractSingle(seriesFromCloses(t, closes, 1000))
	if err == nil {
		t.Fatalf("expected error")
	}
	var ide *models.InsufficientDataError
	if !errors.As(err, &ide) {
		t.Fatalf("expected InsufficientDataError, got %T", err)
	}
	if ide.Required != 50 || ide.Actual != 10 {
		t.Fatalf("unexpected required/actual %d/%d", ide.Required, ide.Actual)
	}
}

func TestExtractSingleDeterministic(t *testing.T) {
	e := NewDefaultExtractor()
	s := wavySeries(t, 120)
	a, err := e.ExtractSingle(s)
	if err != nil {
		t.Fatalf("extract: %v", err)
	}
	b, err := e.ExtractSingle(s)
	if err != nil {
		t.Fatalf("extract: %v", err)
	}
	for i := range a.Values {
		if a.Values[i] != b.Values[i] {
			t.Fatalf("feature %s not bit-identical: %v vs %v", a.Names[i], a.Values[i], b.Values[i])
		}
	}
}

func TestExtractBatchCount(t *testing.T) {
	e := NewDefaultExtractor()

	got := e.ExtractBatch(wavySeries(t, 60), 50)
	if len(got) != 11 {
		t.Fatalf("batch over 60 candles window 50 = %d vectors, want 11", len(got))
	}

	// series shorter than one window degrades to zero vectors, no error
	if got := e.ExtractBatch(wavySeries(t, 49), 50); len(got) != 0 {
		t.Fatalf("short series batch = %d vectors, want 0", len(got))
	}

	// default window when windowSize <= 0
	if got := e.ExtractBatch(wavySeries(t, 52), 0); len(got) != 3 {
		t.Fatalf("default-window batch = %d vectors, want 3", len(got))
	}
}

func TestBatchCursorRestartable(t *testing.T) {
	e := NewDefaultExtractor()
	cursor := e.Batch(wavySeries(t, 60), 50)

	first := 0
	for cursor.Next() {
		_ = cursor.Vector()
		first++
	}
	cursor.Reset()
	second := 0
	for cursor.Next() {
		_ = cursor.Vector()
		second++
	}
	if first != 11 || second != 11 {
		t.Fatalf("cursor not restartable: %d then %d", first, second)
	}
	if cursor.Count() != 11 {
		t.Fatalf("count = %d, want 11", cursor.Count())
	}
}

func TestBatchMatchesSingleOnLastWindow(t *testing.T) {
	e := NewDefaultExtractor()
	s := wavySeries(t, 80)

	window, err := s.Trailing(50)
	if err != nil {
		t.Fatalf("trailing: %v", err)
	}
	single, err := e.ExtractSingle(window)
	if err != nil {
		t.Fatalf("extract: %v", err)
	}

	batch := e.ExtractBatch(s, 50)
	last := batch[len(batch)-1]
	for i := range single.Values {
		if single.Values[i] != last.Values[i] {
			t.Fatalf("single and batch paths drifted at %s: %v vs %v", single.Names[i], single.Values[i], last.Values[i])
		}
	}
}

func TestExtractBatchParallelPreservesOrder(t *testing.T) {
	e := NewDefaultExtractor()
	s := wavySeries(t, 150)

	serial := e.ExtractBatch(s, 50)
	parallel := e.ExtractBatchParallel(context.Background(), s, 50, 4)
	if len(parallel) != len(serial) {
		t.Fatalf("parallel len %d != serial len %d", len(parallel), len(serial))
	}
	for i := range serial {
		for j := range serial[i].Values {
			if serial[i].Values[j] != parallel[i].Values[j] {
				t.Fatalf("window %d feature %s differs", i, serial[i].Names[j])
			}
		}
	}
}

func TestExtractWithLabelsBoundary(t *testing.T) {
	e := NewDefaultExtractor()

	// closes: 50 flat bars at 100, then 112.5 (+12.5%), then 140.625 (+25%).
	// 112.5/100 - 1 is exactly 0.125 in binary, so the boundary comparison
	// is not at the mercy of rounding
	closes := make([]float64, 52)
	for i := 0; i < 50; i++ {
		closes[i] = 100
	}
	closes[50] = 112.5
	closes[51] = 140.625

	samples := e.ExtractWithLabels(seriesFromCloses(t, closes, 1000), 1, 0.125)
	if len(samples) != 2 {
		t.Fatalf("got %d samples, want 2", len(samples))
	}
	// forward return exactly +threshold stays Flat
	if samples[0].Label != models.LabelFlat {
		t.Fatalf("boundary label = %v, want flat", samples[0].Label)
	}
	if samples[1].Label != models.LabelUp {
		t.Fatalf("label = %v, want up", samples[1].Label)
	}
}

func TestExtractWithLabelsDownBoundary(t *testing.T) {
	e := NewDefaultExtractor()

	closes := make([]float64, 52)
	for i := 0; i < 50; i++ {
		closes[i] = 100
	}
	closes[50] = 87.5   // -12.5%, exact in binary
	closes[51] = 65.625 // -25%

	samples := e.ExtractWithLabels(seriesFromCloses(t, closes, 1000), 1, 0.125)
	if len(samples) != 2 {
		t.Fatalf("got %d samples, want 2", len(samples))
	}
	if samples[0].Label != models.LabelFlat {
		t.Fatalf("boundary label = %v, want flat", samples[0].Label)
	}
	if samples[1].Label != models.LabelDown {
		t.Fatalf("label = %v, want down", samples[1].Label)
	}
}

func TestExtractWithLabelsDropsShortLookahead(t *testing.T) {
	e := NewDefaultExtractor()
	s := wavySeries(t, 60)

	// window 50, future 5: windows ending at 49..54 keep lookahead, the
	// last five are dropped silently
	samples := e.ExtractWithLabels(s, 5, 0.02)
	if len(samples) != 6 {
		t.Fatalf("got %d samples, want 6", len(samples))
	}

	// not enough candles for a single labeled window: empty, not an error
	if got := e.ExtractWithLabels(wavySeries(t, 54), 5, 0.02); len(got) != 0 {
		t.Fatalf("short labeled extraction = %d samples, want 0", len(got))
	}
}

func TestLabeledCursorBucketTracksWindowEnd(t *testing.T) {
	e := NewDefaultExtractor()
	s := wavySeries(t, 60)

	cursor := e.Labeled(s, 5, 0.02)
	if !cursor.Next() {
		t.Fatalf("expected a sample")
	}
	sample := cursor.Sample()
	if !sample.Bucket.Equal(s.At(49).Bucket) {
		t.Fatalf("first sample bucket %v, want %v", sample.Bucket, s.At(49).Bucket)
	}
}
