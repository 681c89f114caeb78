package usecase

import (
	"context"
	"fmt"
	"time"

	"TrendForge/internal/domain/models"
	domrepo "TrendForge/internal/domain/repository"
	"TrendForge/internal/services/features"
	pkgcache "TrendForge/pkg/cache"
)

// ScoringUseCase serves the live-scoring path: the freshest feature vector
// for a symbol, one at a time, with a hard error when history is too short.
type ScoringUseCase struct {
	store     domrepo.CandleStore
	extractor *features.Extractor
	cache     pkgcache.Service
	metrics   domrepo.Metrics
	cacheTTL  time.Duration
}

func NewScoringUseCase(store domrepo.CandleStore, extractor *features.Extractor, metrics domrepo.Metrics) *ScoringUseCase {
	return &ScoringUseCase{
		store:     store,
		extractor: extractor,
		metrics:   metrics,
		cacheTTL:  5 * time.Second,
	}
}

// SetCache enables short-TTL caching of scoring results.
func (uc *ScoringUseCase) SetCache(c pkgcache.Service, ttl time.Duration) {
	uc.cache = c
	if ttl > 0 {
		uc.cacheTTL = ttl
	}
}

// LatestFeaturesResult is the one-vector payload handed to a live scorer.
type LatestFeaturesResult struct {
	Symbol      string    `json:"symbol"`
	Timeframe   string    `json:"timeframe"`
	Bucket      time.Time `json:"bucket"`
	Fingerprint string    `json:"fingerprint"`
	Names       []string  `json:"names"`
	Values      []float64 `json:"values"`
}

// LatestFeatures extracts one vector over the trailing n candles (n <= 0
// uses the config minimum). Insufficient stored history surfaces as
// models.InsufficientDataError so the caller knows scoring is impossible,
// instead of receiving a quietly degraded vector.
func (uc *ScoringUseCase) LatestFeatures(ctx context.Context, symbol string, n int, tf domrepo.Timeframe) (*LatestFeaturesResult, error) {
	if symbol == "" {
		return nil, fmt.Errorf("symbol required")
	}
	cfg := uc.extractor.Config()
	if n <= 0 {
		n = cfg.MinWindow()
	}

	cacheKey := pkgcache.GenerateKeyWithParams("features", symbol, string(tf), n, cfg.Fingerprint())
	if uc.cache != nil {
		var cached LatestFeaturesResult
		if err := uc.cache.Get(ctx, cacheKey, &cached); err == nil {
			return &cached, nil
		}
	}

	candles, err := uc.store.GetLatestNCandles(ctx, symbol, n, tf)
	if err != nil {
		uc.metrics.RecordError("scoring_fetch")
		return nil, fmt.Errorf("latest candles: %w", err)
	}
	if len(candles) < cfg.MinWindow() {
		// not wrapped in a fetch error: this is the documented scoring
		// failure mode and callers match on the type
		return nil, &models.InsufficientDataError{Required: cfg.MinWindow(), Actual: len(candles)}
	}

	series, err := models.NewCandleSeries(symbol, string(tf), candles)
	if err != nil {
		uc.metrics.RecordError("scoring_series")
		return nil, fmt.Errorf("candle series: %w", err)
	}

	start := time.Now()
	vec, err := uc.extractor.ExtractSingle(series)
	if err != nil {
		uc.metrics.RecordError("scoring_extract")
		return nil, err
	}
	uc.metrics.RecordLatency("extract_single", time.Since(start).Seconds())
	uc.metrics.RecordLastClose(symbol, series.Last().Close)

	res := &LatestFeaturesResult{
		Symbol:      symbol,
		Timeframe:   string(tf),
		Bucket:      series.Last().Bucket,
		Fingerprint: cfg.Fingerprint(),
		Names:       vec.Names,
		Values:      vec.Values,
	}
	if uc.cache != nil {
		_ = uc.cache.Set(ctx, cacheKey, res, uc.cacheTTL)
	}
	return res, nil
}

// FeatureLayout describes the current wire contract: canonical names, count
// and fingerprint. Serving and training must agree on it before exchanging
// vectors.
type FeatureLayout struct {
	Fingerprint string          `json:"fingerprint"`
	Count       int             `json:"count"`
	Names       []string        `json:"names"`
	MinWindow   int             `json:"min_window"`
	Config      features.Config `json:"config"`
}

// Layout returns the extractor's feature layout.
func (uc *ScoringUseCase) Layout() FeatureLayout {
	cfg := uc.extractor.Config()
	return FeatureLayout{
		Fingerprint: cfg.Fingerprint(),
		Count:       cfg.FeatureCount(),
		Names:       cfg.FeatureNames(),
		MinWindow:   cfg.MinWindow(),
		Config:      cfg,
	}
}
