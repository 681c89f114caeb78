package api

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"time"

	"TrendForge/internal/domain/models"
	domrepo "TrendForge/internal/domain/repository"
	icache "TrendForge/internal/service/cache"
	"TrendForge/internal/service/metrics"
	"TrendForge/internal/service/ratelimit"
	"TrendForge/internal/usecase"
	applogger "TrendForge/pkg/logger"
)

// FeaturesHandler is the plain net/http variant of the feature endpoints,
// used when the service runs without the Echo server (scrape-style
// integrations hitting the metrics mux).
type FeaturesHandler struct {
	scoring *usecase.ScoringUseCase
	cache   icache.BytesCache
	rl      *ratelimit.Limiter
	l       *applogger.Logger
}

func NewFeaturesHandler(scoring *usecase.ScoringUseCase) *FeaturesHandler {
	metrics.Register()
	return &FeaturesHandler{scoring: scoring, rl: ratelimit.New()}
}

func (h *FeaturesHandler) SetCache(c icache.BytesCache) { h.cache = c }

// SetLogger injects a structured logger.
func (h *FeaturesHandler) SetLogger(l *applogger.Logger) { h.l = l }

func (h *FeaturesHandler) Features() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		endpoint := "features"
		defer func() { metrics.FeatureLatency.WithLabelValues(endpoint).Observe(time.Since(start).Seconds()) }()

		symbol := r.URL.Query().Get("symbol")
		if symbol == "" {
			if h.l != nil {
				h.l.Warn("features missing symbol")
			}
			http.Error(w, "symbol required", http.StatusBadRequest)
			return
		}
		n := parseInt(r.URL.Query().Get("n"), 0)
		tf := domrepo.NormalizeTimeframe(r.URL.Query().Get("tf"))
		if !h.rl.Allow(r.RemoteAddr+":features", 5, 2) {
			if h.l != nil {
				h.l.Warn("features rate_limited", applogger.String("remote", r.RemoteAddr))
			}
			http.Error(w, "rate limited", http.StatusTooManyRequests)
			return
		}
		cacheKey := "features:" + symbol + ":" + string(tf)
		if h.cache != nil {
			if b, ok, err := h.cache.GetBytes(cacheKey); err != nil {
				if h.l != nil {
					h.l.Warn("features cache_get_error", applogger.Error(err))
				}
			} else if ok {
				w.Header().Set("Content-Type", "application/json")
				if _, err := w.Write(b); err != nil && h.l != nil {
					h.l.Warn("features write_error", applogger.Error(err))
				}
				return
			}
		}
		res, err := h.scoring.LatestFeatures(r.Context(), symbol, n, tf)
		if err != nil {
			metrics.FeatureErrors.WithLabelValues(endpoint).Inc()
			var ide *models.InsufficientDataError
			if errors.As(err, &ide) {
				http.Error(w, ide.Error(), http.StatusUnprocessableEntity)
				return
			}
			if h.l != nil {
				h.l.Error("features error", applogger.Error(err))
			}
			http.Error(w, err.Error(), http.StatusInternalServerError)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		b, err := json.Marshal(res)
		if err != nil {
			if h.l != nil {
				h.l.Error("features marshal_error", applogger.Error(err))
			}
			http.Error(w, "encode error", http.StatusInternalServerError)
			return
		}
		if h.cache != nil {
			if err := h.cache.SetBytes(cacheKey, b, 5*time.Second); err != nil && h.l != nil {
				h.l.Warn("features cache_set_error", applogger.Error(err))
			}
		}
		if _, err := w.Write(b); err != nil && h.l != nil {
			h.l.Warn("features write_error", applogger.Error(err))
		}
	}
}

func (h *FeaturesHandler) FeatureNames() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		endpoint := "feature_names"
		defer func() { metrics.FeatureLatency.WithLabelValues(endpoint).Observe(time.Since(start).Seconds()) }()

		w.Header().Set("Content-Type", "application/json")
		if err := json.NewEncoder(w).Encode(h.scoring.Layout()); err != nil && h.l != nil {
			h.l.Warn("feature_names write_error", applogger.Error(err))
		}
	}
}

func parseInt(s string, def int) int {
	if s == "" {
		return def
	}
	v, err := strconv.Atoi(s)
	if err != nil {
		return def
	}
	return v
}
