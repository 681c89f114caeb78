package usecase

import (
	"context"
	"errors"
	"fmt"
	"math"
	"sync"
	"testing"
	"time"

	"TrendForge/internal/domain/models"
	domrepo "TrendForge/internal/domain/repository"
	"TrendForge/internal/services/features"
	pkgcache "TrendForge/pkg/cache"
)

// fakeCandleStore serves a canned slice and records what was asked of it.
type fakeCandleStore struct {
	candles []models.Candle
	err     error
	lastN   int
}

func (f *fakeCandleStore) GetCandles(_ context.Context, _ string, from, to time.Time, _ domrepo.Timeframe) ([]models.Candle, error) {
	if f.err != nil {
		return nil, f.err
	}
	out := make([]models.Candle, 0, len(f.candles))
	for _, c := range f.candles {
		if !c.Bucket.Before(from) && c.Bucket.Before(to) {
			out = append(out, c)
		}
	}
	return out, nil
}

func (f *fakeCandleStore) GetLatestNCandles(_ context.Context, _ string, n int, _ domrepo.Timeframe) ([]models.Candle, error) {
	f.lastN = n
	if f.err != nil {
		return nil, f.err
	}
	if n > len(f.candles) {
		n = len(f.candles)
	}
	return f.candles[len(f.candles)-n:], nil
}

// recorderMetrics counts calls so tests can assert on the instrumented paths.
type recorderMetrics struct {
	mu        sync.Mutex
	errors    map[string]int
	samples   int
	ingested  int
	lastClose float64
}

func newRecorderMetrics() *recorderMetrics {
	return &recorderMetrics{errors: map[string]int{}}
}

func (m *recorderMetrics) RecordCandleIngested(string, string) {
	m.mu.Lock()
	m.ingested++
	m.mu.Unlock()
}

func (m *recorderMetrics) RecordSamplePublished(string) {
	m.mu.Lock()
	m.samples++
	m.mu.Unlock()
}

func (m *recorderMetrics) RecordError(kind string) {
	m.mu.Lock()
	m.errors[kind]++
	m.mu.Unlock()
}

func (m *recorderMetrics) RecordLastClose(_ string, price float64) {
	m.mu.Lock()
	m.lastClose = price
	m.mu.Unlock()
}

func (m *recorderMetrics) RecordLatency(string, float64) {}

func testCandles(n int) []models.Candle {
	base := time.Date(2025, 6, 1, 0, 0, 0, 0, time.UTC)
	candles := make([]models.Candle, n)
	for i := 0; i < n; i++ {
		open := 50000 + math.Sin(float64(i)*0.1)*1000
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
	return candles
}

func newScoring(t *testing.T, store *fakeCandleStore, m *recorderMetrics) *ScoringUseCase {
	t.Helper()
	ex, err := features.NewExtractor(features.DefaultConfig())
	if err != nil {
		t.Fatalf("extractor: %v", err)
	}
	return NewScoringUseCase(store, ex, m)
}

func TestLatestFeaturesDefaultsToMinWindow(t *testing.T) {
	store := &fakeCandleStore{candles: testCandles(120)}
	uc := newScoring(t, store, newRecorderMetrics())

	if _, err := uc.LatestFeatures(context.Background(), "BTCUSDT", 0, domrepo.TF1m); err != nil {
		t.Fatalf("latest features: %v", err)
	}
	if store.lastN != 50 {
		t.Fatalf("requested %d candles, want min window 50", store.lastN)
	}
}

func TestLatestFeaturesRequiresSymbol(t *testing.T) {
	uc := newScoring(t, &fakeCandleStore{}, newRecorderMetrics())
	if _, err := uc.LatestFeatures(context.Background(), "", 0, domrepo.TF1m); err == nil {
		t.Fatalf("expected error for empty symbol")
	}
}

func TestLatestFeaturesInsufficientHistory(t *testing.T) {
	store := &fakeCandleStore{candles: testCandles(10)}
	uc := newScoring(t, store, newRecorderMetrics())

	_, err := uc.LatestFeatures(context.Background(), "BTCUSDT", 0, domrepo.TF1m)
	if err == nil {
		t.Fatalf("expected error")
	}
	var ide *models.InsufficientDataError
	if !errors.As(err, &ide) {
		t.Fatalf("expected InsufficientDataError, got %T: %v", err, err)
	}
	if ide.Required != 50 || ide.Actual != 10 {
		t.Fatalf("required/actual = %d/%d, want 50/10", ide.Required, ide.Actual)
	}
}

func TestLatestFeaturesResultShape(t *testing.T) {
	store := &fakeCandleStore{candles: testCandles(80)}
	m := newRecorderMetrics()
	uc := newScoring(t, store, m)

	res, err := uc.LatestFeatures(context.Background(), "BTCUSDT", 60, domrepo.TF1m)
	if err != nil {
		t.Fatalf("latest features: %v", err)
	}
	cfg := features.DefaultConfig()
	if res.Fingerprint != cfg.Fingerprint() {
		t.Fatalf("fingerprint %q != config %q", res.Fingerprint, cfg.Fingerprint())
	}
	if len(res.Values) != cfg.FeatureCount() || len(res.Names) != cfg.FeatureCount() {
		t.Fatalf("got %d values / %d names, want %d", len(res.Values), len(res.Names), cfg.FeatureCount())
	}
	last := store.candles[len(store.candles)-1]
	if !res.Bucket.Equal(last.Bucket) {
		t.Fatalf("bucket %v, want last candle bucket %v", res.Bucket, last.Bucket)
	}
	if m.lastClose != last.Close {
		t.Fatalf("last close gauge %v, want %v", m.lastClose, last.Close)
	}
}

func TestLatestFeaturesServedFromCache(t *testing.T) {
	store := &fakeCandleStore{candles: testCandles(80)}
	uc := newScoring(t, store, newRecorderMetrics())
	uc.SetCache(pkgcache.NewMemoryCache(), time.Minute)

	first, err := uc.LatestFeatures(context.Background(), "BTCUSDT", 60, domrepo.TF1m)
	if err != nil {
		t.Fatalf("first call: %v", err)
	}

	// second call must not touch the store
	store.err = fmt.Errorf("store down")
	second, err := uc.LatestFeatures(context.Background(), "BTCUSDT", 60, domrepo.TF1m)
	if err != nil {
		t.Fatalf("cached call: %v", err)
	}
	if second.Fingerprint != first.Fingerprint || len(second.Values) != len(first.Values) {
		t.Fatalf("cached result diverged from original")
	}
	for i := range first.Values {
		if first.Values[i] != second.Values[i] {
			t.Fatalf("cached value %d differs: %v vs %v", i, first.Values[i], second.Values[i])
		}
	}
}

func TestLayoutMatchesConfig(t *testing.T) {
	uc := newScoring(t, &fakeCandleStore{}, newRecorderMetrics())
	layout := uc.Layout()
	cfg := features.DefaultConfig()
	if layout.Fingerprint != cfg.Fingerprint() {
		t.Fatalf("layout fingerprint %q != %q", layout.Fingerprint, cfg.Fingerprint())
	}
	if layout.Count != cfg.FeatureCount() || len(layout.Names) != cfg.FeatureCount() {
		t.Fatalf("layout count %d names %d, want %d", layout.Count, len(layout.Names), cfg.FeatureCount())
	}
	if layout.MinWindow != 50 {
		t.Fatalf("layout min window %d, want 50", layout.MinWindow)
	}
}
