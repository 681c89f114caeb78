package usecase

import (
	"context"
	"testing"
	"time"

	"TrendForge/internal/domain/models"
)

type fakeCandleStorage struct {
	stored []*models.Candle
	err    error
}

func (f *fakeCandleStorage) Init(context.Context) error   { return nil }
func (f *fakeCandleStorage) Health(context.Context) error { return nil }
func (f *fakeCandleStorage) Close() error                 { return nil }

func (f *fakeCandleStorage) Store(_ context.Context, c *models.Candle) error {
	if f.err != nil {
		return f.err
	}
	f.stored = append(f.stored, c)
	return nil
}

func (f *fakeCandleStorage) StoreBatch(_ context.Context, candles []*models.Candle) error {
	if f.err != nil {
		return f.err
	}
	f.stored = append(f.stored, candles...)
	return nil
}

func TestKafkaCandlesHandlerStoresCandle(t *testing.T) {
	storage := &fakeCandleStorage{}
	m := newRecorderMetrics()
	h := NewKafkaCandlesHandler("trendforge.candles", storage, m)

	msg := []byte(`{"symbol":"BTCUSDT","t":1748779200,"o":50000,"h":50100,"l":49900,"c":50050,"v":12.5}`)
	if err := h.Handle(context.Background(), msg); err != nil {
		t.Fatalf("handle: %v", err)
	}
	if len(storage.stored) != 1 {
		t.Fatalf("stored %d candles, want 1", len(storage.stored))
	}
	c := storage.stored[0]
	if c.Symbol != "BTCUSDT" || c.Close != 50050 || c.Volume != 12.5 {
		t.Fatalf("unexpected candle: %+v", c)
	}
	if !c.Bucket.Equal(time.Unix(1748779200, 0).UTC()) {
		t.Fatalf("bucket %v", c.Bucket)
	}
	if m.ingested != 1 {
		t.Fatalf("ingested counter %d, want 1", m.ingested)
	}
}

func TestKafkaCandlesHandlerMillisecondTimestamps(t *testing.T) {
	storage := &fakeCandleStorage{}
	h := NewKafkaCandlesHandler("trendforge.candles", storage, newRecorderMetrics())

	msg := []byte(`{"symbol":"BTCUSDT","t":1748779200000,"o":1,"h":1,"l":1,"c":1,"v":1}`)
	if err := h.Handle(context.Background(), msg); err != nil {
		t.Fatalf("handle: %v", err)
	}
	if !storage.stored[0].Bucket.Equal(time.Unix(1748779200, 0).UTC()) {
		t.Fatalf("ms timestamp not normalized: %v", storage.stored[0].Bucket)
	}
}

func TestKafkaCandlesHandlerBadPayload(t *testing.T) {
	storage := &fakeCandleStorage{}
	m := newRecorderMetrics()
	h := NewKafkaCandlesHandler("trendforge.candles", storage, m)

	if err := h.Handle(context.Background(), []byte(`not json`)); err == nil {
		t.Fatalf("expected unmarshal error")
	}
	if len(storage.stored) != 0 {
		t.Fatalf("bad payload reached storage")
	}
	if m.errors["consumer_unmarshal"] != 1 {
		t.Fatalf("unmarshal error not recorded")
	}
}
