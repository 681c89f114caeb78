package middleware

import (
	"context"
	"fmt"
	"sync"
	"testing"
	"time"

	"TrendForge/internal/domain/models"
)

type captureProc struct {
	mu      sync.Mutex
	candles []*models.Candle
	fail    bool
}

func (p *captureProc) Process(_ context.Context, c *models.Candle) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.fail {
		return fmt.Errorf("downstream down")
	}
	p.candles = append(p.candles, c)
	return nil
}

func (p *captureProc) count() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return len(p.candles)
}

type countingMetrics struct {
	mu     sync.Mutex
	errors map[string]int
}

func newCountingMetrics() *countingMetrics {
	return &countingMetrics{errors: map[string]int{}}
}

func (m *countingMetrics) RecordCandleIngested(string, string) {}
func (m *countingMetrics) RecordSamplePublished(string)        {}
func (m *countingMetrics) RecordError(kind string) {
	m.mu.Lock()
	m.errors[kind]++
	m.mu.Unlock()
}
func (m *countingMetrics) RecordLastClose(string, float64) {}
func (m *countingMetrics) RecordLatency(string, float64)   {}

func (m *countingMetrics) errorCount(kind string) int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.errors[kind]
}

func candleAt(symbol string, bucket time.Time) *models.Candle {
	return &models.Candle{
		Bucket: bucket,
		Symbol: symbol,
		Open:   100,
		High:   110,
		Low:    90,
		Close:  105,
		Volume: 10,
	}
}

func TestPipelineDropsStaleBuckets(t *testing.T) {
	proc := &captureProc{}
	m := newCountingMetrics()
	p := NewRealtimePipeline(proc, m)
	base := time.Date(2025, 6, 1, 0, 0, 0, 0, time.UTC)

	if err := p.Process(context.Background(), candleAt("BTCUSDT", base)); err != nil {
		t.Fatalf("process: %v", err)
	}
	// same bucket again: exchange resends closed klines on reconnect
	if err := p.Process(context.Background(), candleAt("BTCUSDT", base)); err != nil {
		t.Fatalf("duplicate bucket must be dropped silently: %v", err)
	}
	// older bucket: replay
	if err := p.Process(context.Background(), candleAt("BTCUSDT", base.Add(-time.Minute))); err != nil {
		t.Fatalf("stale bucket must be dropped silently: %v", err)
	}
	if proc.count() != 1 {
		t.Fatalf("downstream saw %d candles, want 1", proc.count())
	}
	if m.errorCount("pipeline_stale") != 2 {
		t.Fatalf("stale drops = %d, want 2", m.errorCount("pipeline_stale"))
	}
}

func TestPipelineBucketsArePerSymbol(t *testing.T) {
	proc := &captureProc{}
	p := NewRealtimePipeline(proc, newCountingMetrics())
	base := time.Date(2025, 6, 1, 0, 0, 0, 0, time.UTC)

	if err := p.Process(context.Background(), candleAt("BTCUSDT", base)); err != nil {
		t.Fatalf("process: %v", err)
	}
	// same bucket for another symbol is fine
	if err := p.Process(context.Background(), candleAt("ETHUSDT", base)); err != nil {
		t.Fatalf("process: %v", err)
	}
	if proc.count() != 2 {
		t.Fatalf("downstream saw %d candles, want 2", proc.count())
	}
}

func TestPipelineRejectsInvalidCandles(t *testing.T) {
	proc := &captureProc{}
	m := newCountingMetrics()
	p := NewRealtimePipeline(proc, m)
	base := time.Date(2025, 6, 1, 0, 0, 0, 0, time.UTC)

	bad := candleAt("BTCUSDT", base)
	bad.High = 50 // below low
	if err := p.Process(context.Background(), bad); err == nil {
		t.Fatalf("expected validation error")
	}
	if err := p.Process(context.Background(), candleAt("", base)); err == nil {
		t.Fatalf("expected validation error for empty symbol")
	}
	if proc.count() != 0 {
		t.Fatalf("invalid candles reached downstream")
	}
	if m.errorCount("pipeline_validate") != 2 {
		t.Fatalf("validation errors = %d, want 2", m.errorCount("pipeline_validate"))
	}
}

func TestPipelineBuffersOnDownstreamError(t *testing.T) {
	proc := &captureProc{fail: true}
	m := newCountingMetrics()
	p := NewRealtimePipeline(proc, m, WithBufferSize(10))
	base := time.Date(2025, 6, 1, 0, 0, 0, 0, time.UTC)

	if err := p.Process(context.Background(), candleAt("BTCUSDT", base)); err == nil {
		t.Fatalf("expected downstream error")
	}
	if m.errorCount("pipeline_process") != 1 {
		t.Fatalf("process errors = %d, want 1", m.errorCount("pipeline_process"))
	}

	// recover downstream and let the flusher drain the buffer
	proc.mu.Lock()
	proc.fail = false
	proc.mu.Unlock()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	p.Start(ctx)
	defer p.Stop()

	deadline := time.Now().Add(2 * time.Second)
	for proc.count() == 0 {
		if time.Now().After(deadline) {
			t.Fatalf("buffered candle never flushed")
		}
		time.Sleep(10 * time.Millisecond)
	}
}

func TestPipelineTransformHook(t *testing.T) {
	proc := &captureProc{}
	p := NewRealtimePipeline(proc, newCountingMetrics(), WithTransform(func(c *models.Candle) *models.Candle {
		c.Symbol = "BTC-USDT"
		return c
	}))
	base := time.Date(2025, 6, 1, 0, 0, 0, 0, time.UTC)

	if err := p.Process(context.Background(), candleAt("BTCUSDT", base)); err != nil {
		t.Fatalf("process: %v", err)
	}
	if proc.count() != 1 || proc.candles[0].Symbol != "BTC-USDT" {
		t.Fatalf("transform hook not applied")
	}
}
