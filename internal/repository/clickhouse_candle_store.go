package repository

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"TrendForge/internal/domain/models"
	domrepo "TrendForge/internal/domain/repository"
	pkgch "TrendForge/pkg/clickhouse"
	applogger "TrendForge/pkg/logger"
)

// CHCandleStore implements CandleStore backed by ClickHouse. Rows come back
// ascending and de-duplicated by bucket, which is the contract the feature
// engine's series constructor enforces.
type CHCandleStore struct {
	db *sql.DB
	l  *applogger.Logger
}

func NewCHCandleStore(ch *pkgch.Client) *CHCandleStore {
	return &CHCandleStore{db: ch.DB()}
}

// SetLogger injects a structured logger.
func (s *CHCandleStore) SetLogger(l *applogger.Logger) { s.l = l }

func (s *CHCandleStore) GetCandles(ctx context.Context, symbol string, from, to time.Time, tf domrepo.Timeframe) ([]models.Candle, error) {
	start := time.Now()
	table, err := tableForTF(tf)
	if err != nil {
		return nil, err
	}
	const qtpl = `
        SELECT bucket, symbol, open, high, low, close, vol
        FROM %s
        WHERE symbol = ? AND bucket >= ? AND bucket <= ?
        ORDER BY bucket ASC
    `
	q := fmt.Sprintf(qtpl, table)
	rows, err := s.db.QueryContext(ctx, q, symbol, from, to)
	if err != nil {
		if s.l != nil {
			s.l.Error("clickhouse get_candles query error",
				applogger.String("table", table),
				applogger.String("symbol", symbol),
				applogger.String("tf", string(tf)),
				applogger.Error(err),
			)
		}
		return nil, fmt.Errorf("get candles: %w", err)
	}
	defer rows.Close()

	out, err := s.scanCandles(rows, table, symbol, tf)
	if err != nil {
		return nil, err
	}
	if tf == domrepo.TF5m {
		out = aggregate5m(out)
	}
	if s.l != nil {
		s.l.Info("clickhouse get_candles ok",
			applogger.String("table", table),
			applogger.String("symbol", symbol),
			applogger.String("tf", string(tf)),
			applogger.Int("rows", len(out)),
			applogger.Duration("duration_ms", time.Since(start)),
		)
	}
	return out, nil
}

func (s *CHCandleStore) GetLatestNCandles(ctx context.Context, symbol string, n int, tf domrepo.Timeframe) ([]models.Candle, error) {
	start := time.Now()
	table, err := tableForTF(tf)
	if err != nil {
		return nil, err
	}
	limit := n
	if tf == domrepo.TF5m {
		limit = n * 5 // 5m buckets are folded from 1m rows
	}
	const qtpl = `
        SELECT bucket, symbol, open, high, low, close, vol
        FROM %s
        WHERE symbol = ?
        ORDER BY bucket DESC
        LIMIT ?
    `
	q := fmt.Sprintf(qtpl, table)
	rows, err := s.db.QueryContext(ctx, q, symbol, limit)
	if err != nil {
		if s.l != nil {
			s.l.Error("clickhouse latest_candles query error",
				applogger.String("table", table),
				applogger.String("symbol", symbol),
				applogger.String("tf", string(tf)),
				applogger.Int("limit", limit),
				applogger.Error(err),
			)
		}
		return nil, fmt.Errorf("get latest candles: %w", err)
	}
	defer rows.Close()

	tmp, err := s.scanCandles(rows, table, symbol, tf)
	if err != nil {
		return nil, err
	}
	// reverse to ASC
	for i, j := 0, len(tmp)-1; i < j; i, j = i+1, j-1 {
		tmp[i], tmp[j] = tmp[j], tmp[i]
	}
	if tf == domrepo.TF5m {
		tmp = aggregate5m(tmp)
		if len(tmp) > n {
			tmp = tmp[len(tmp)-n:]
		}
	}
	if s.l != nil {
		s.l.Info("clickhouse latest_candles ok",
			applogger.String("table", table),
			applogger.String("symbol", symbol),
			applogger.String("tf", string(tf)),
			applogger.Int("limit", limit),
			applogger.Int("rows", len(tmp)),
			applogger.Duration("duration_ms", time.Since(start)),
		)
	}
	return tmp, nil
}

// scanCandles drains rows, skipping duplicate buckets the merge tree has not
// collapsed yet. Rows must arrive ordered by bucket.
func (s *CHCandleStore) scanCandles(rows *sql.Rows, table, symbol string, tf domrepo.Timeframe) ([]models.Candle, error) {
	out := make([]models.Candle, 0, 1024)
	for rows.Next() {
		var c models.Candle
		if err := rows.Scan(&c.Bucket, &c.Symbol, &c.Open, &c.High, &c.Low, &c.Close, &c.Volume); err != nil {
			if s.l != nil {
				s.l.Error("clickhouse scan error",
					applogger.String("table", table),
					applogger.String("symbol", symbol),
					applogger.String("tf", string(tf)),
					applogger.Error(err),
				)
			}
			return nil, fmt.Errorf("scan candle: %w", err)
		}
		if len(out) > 0 && c.Bucket.Equal(out[len(out)-1].Bucket) {
			continue
		}
		out = append(out, c)
	}
	if err := rows.Err(); err != nil {
		if s.l != nil {
			s.l.Error("clickhouse rows error",
				applogger.String("table", table),
				applogger.String("symbol", symbol),
				applogger.String("tf", string(tf)),
				applogger.Error(err),
			)
		}
		return nil, fmt.Errorf("rows: %w", err)
	}
	return out, nil
}

// aggregate5m folds ascending 1m candles into 5m buckets.
func aggregate5m(in []models.Candle) []models.Candle {
	if len(in) == 0 {
		return in
	}
	out := make([]models.Candle, 0, len(in)/5+1)
	for _, c := range in {
		bucket := c.Bucket.Truncate(5 * time.Minute)
		if len(out) == 0 || !out[len(out)-1].Bucket.Equal(bucket) {
			c.Bucket = bucket
			out = append(out, c)
			continue
		}
		cur := &out[len(out)-1]
		if c.High > cur.High {
			cur.High = c.High
		}
		if c.Low < cur.Low {
			cur.Low = c.Low
		}
		cur.Close = c.Close
		cur.Volume += c.Volume
	}
	return out
}

func tableForTF(tf domrepo.Timeframe) (string, error) {
	switch tf {
	case domrepo.TF1s:
		return "trendforge.candles_1s", nil
	case domrepo.TF1m:
		return "trendforge.candles_1m", nil
	case domrepo.TF5m:
		// folded from 1m on read; no separate table yet
		return "trendforge.candles_1m", nil
	default:
		return "", fmt.Errorf("unsupported timeframe: %s", tf)
	}
}
