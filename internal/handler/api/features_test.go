package api

import (
	"context"
	"encoding/json"
	"math"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"TrendForge/internal/domain/models"
	domrepo "TrendForge/internal/domain/repository"
	icache "TrendForge/internal/service/cache"
	"TrendForge/internal/services/features"
	"TrendForge/internal/usecase"
)

type stubStore struct {
	candles []models.Candle
	calls   int
}

func (s *stubStore) GetCandles(_ context.Context, _ string, _, _ time.Time, _ domrepo.Timeframe) ([]models.Candle, error) {
	s.calls++
	return s.candles, nil
}

func (s *stubStore) GetLatestNCandles(_ context.Context, _ string, n int, _ domrepo.Timeframe) ([]models.Candle, error) {
	s.calls++
	if n > len(s.candles) {
		n = len(s.candles)
	}
	return s.candles[len(s.candles)-n:], nil
}

type nopMetrics struct{}

func (nopMetrics) RecordCandleIngested(string, string) {}
func (nopMetrics) RecordSamplePublished(string)        {}
func (nopMetrics) RecordError(string)                  {}
func (nopMetrics) RecordLastClose(string, float64)     {}
func (nopMetrics) RecordLatency(string, float64)       {}

func stubCandles(n int) []models.Candle {
	base := time.Date(2025, 6, 1, 0, 0, 0, 0, time.UTC)
	out := make([]models.Candle, n)
	for i := 0; i < n; i++ {
		open := 50000 + math.Sin(float64(i)*0.1)*1000
		close := open + (math.Mod(float64(i), 3)-1)*100
		out[i] = models.Candle{
			Bucket: base.Add(time.Duration(i) * time.Minute),
			Symbol: "BTCUSDT",
			Open:   open,
			High:   math.Max(open, close) + 50,
			Low:    math.Min(open, close) - 50,
			Close:  close,
			Volume: 100 + float64(i),
		}
	}
	return out
}

func newTestHandler(t *testing.T, store *stubStore) *FeaturesHandler {
	t.Helper()
	ex, err := features.NewExtractor(features.DefaultConfig())
	if err != nil {
		t.Fatalf("extractor: %v", err)
	}
	return NewFeaturesHandler(usecase.NewScoringUseCase(store, ex, nopMetrics{}))
}

func TestFeaturesEndpoint(t *testing.T) {
	store := &stubStore{candles: stubCandles(80)}
	h := newTestHandler(t, store)

	req := httptest.NewRequest(http.MethodGet, "/features?symbol=BTCUSDT&tf=1m", nil)
	rec := httptest.NewRecorder()
	h.Features()(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status %d, want 200: %s", rec.Code, rec.Body.String())
	}
	var res usecase.LatestFeaturesResult
	if err := json.Unmarshal(rec.Body.Bytes(), &res); err != nil {
		t.Fatalf("decode: %v", err)
	}
	cfg := features.DefaultConfig()
	if res.Symbol != "BTCUSDT" || len(res.Values) != cfg.FeatureCount() {
		t.Fatalf("unexpected payload: symbol %q values %d", res.Symbol, len(res.Values))
	}
	if res.Fingerprint != cfg.Fingerprint() {
		t.Fatalf("fingerprint %q, want %q", res.Fingerprint, cfg.Fingerprint())
	}
}

func TestFeaturesRequiresSymbol(t *testing.T) {
	h := newTestHandler(t, &stubStore{candles: stubCandles(80)})

	req := httptest.NewRequest(http.MethodGet, "/features", nil)
	rec := httptest.NewRecorder()
	h.Features()(rec, req)

	if rec.Code != http.StatusBadRequest {
		t.Fatalf("status %d, want 400", rec.Code)
	}
}

func TestFeaturesInsufficientHistory(t *testing.T) {
	h := newTestHandler(t, &stubStore{candles: stubCandles(10)})

	req := httptest.NewRequest(http.MethodGet, "/features?symbol=BTCUSDT", nil)
	rec := httptest.NewRecorder()
	h.Features()(rec, req)

	if rec.Code != http.StatusUnprocessableEntity {
		t.Fatalf("status %d, want 422: %s", rec.Code, rec.Body.String())
	}
}

func TestFeaturesCacheShortCircuitsStore(t *testing.T) {
	store := &stubStore{candles: stubCandles(80)}
	h := newTestHandler(t, store)
	h.SetCache(icache.NewTTLCache())

	req := httptest.NewRequest(http.MethodGet, "/features?symbol=BTCUSDT&tf=1m", nil)

	rec := httptest.NewRecorder()
	h.Features()(rec, req)
	if rec.Code != http.StatusOK {
		t.Fatalf("first call status %d", rec.Code)
	}
	callsAfterFirst := store.calls

	rec = httptest.NewRecorder()
	h.Features()(rec, req)
	if rec.Code != http.StatusOK {
		t.Fatalf("second call status %d", rec.Code)
	}
	if store.calls != callsAfterFirst {
		t.Fatalf("cached request hit the store: %d -> %d calls", callsAfterFirst, store.calls)
	}
}

func TestFeaturesRateLimited(t *testing.T) {
	h := newTestHandler(t, &stubStore{candles: stubCandles(80)})

	var limited bool
	for i := 0; i < 10; i++ {
		req := httptest.NewRequest(http.MethodGet, "/features?symbol=BTCUSDT", nil)
		req.RemoteAddr = "10.0.0.1:5000"
		rec := httptest.NewRecorder()
		h.Features()(rec, req)
		if rec.Code == http.StatusTooManyRequests {
			limited = true
			break
		}
	}
	if !limited {
		t.Fatalf("burst of 10 requests was never rate limited")
	}
}

func TestFeatureNamesEndpoint(t *testing.T) {
	h := newTestHandler(t, &stubStore{})

	req := httptest.NewRequest(http.MethodGet, "/features/names", nil)
	rec := httptest.NewRecorder()
	h.FeatureNames()(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status %d, want 200", rec.Code)
	}
	var layout usecase.FeatureLayout
	if err := json.Unmarshal(rec.Body.Bytes(), &layout); err != nil {
		t.Fatalf("decode: %v", err)
	}
	cfg := features.DefaultConfig()
	if layout.Count != cfg.FeatureCount() || layout.Fingerprint != cfg.Fingerprint() {
		t.Fatalf("layout count %d fingerprint %q", layout.Count, layout.Fingerprint)
	}
	if layout.MinWindow != 50 {
		t.Fatalf("min window %d, want 50", layout.MinWindow)
	}
}
