package usecase

import (
	"context"
	"testing"
	"time"

	"TrendForge/internal/domain/models"
	domrepo "TrendForge/internal/domain/repository"
	"TrendForge/internal/services/features"

	"github.com/rs/zerolog"
)

type fakeSamplePublisher struct {
	records []*models.DatasetRecord
}

func (f *fakeSamplePublisher) Publish(_ context.Context, r *models.DatasetRecord) error {
	f.records = append(f.records, r)
	return nil
}

func (f *fakeSamplePublisher) PublishBatch(_ context.Context, records []*models.DatasetRecord) error {
	f.records = append(f.records, records...)
	return nil
}

func (f *fakeSamplePublisher) Close() error { return nil }

func newDataset(t *testing.T, store *fakeCandleStore, pub domrepo.SamplePublisher, m *recorderMetrics) *DatasetUseCase {
	t.Helper()
	ex, err := features.NewExtractor(features.DefaultConfig())
	if err != nil {
		t.Fatalf("extractor: %v", err)
	}
	return NewDatasetUseCase(store, ex, pub, m, zerolog.Nop())
}

func rangeParams(candles []models.Candle) BuildDatasetParams {
	return BuildDatasetParams{
		Symbol:        "BTCUSDT",
		From:          candles[0].Bucket,
		To:            candles[len(candles)-1].Bucket.Add(time.Minute),
		Timeframe:     domrepo.TF1m,
		FuturePeriods: 5,
		Threshold:     0.02,
	}
}

func TestBuildDatasetValidation(t *testing.T) {
	uc := newDataset(t, &fakeCandleStore{}, nil, newRecorderMetrics())
	base := time.Date(2025, 6, 1, 0, 0, 0, 0, time.UTC)

	cases := []struct {
		name string
		p    BuildDatasetParams
	}{
		{"empty symbol", BuildDatasetParams{From: base, To: base.Add(time.Hour), FuturePeriods: 5, Threshold: 0.02}},
		{"inverted range", BuildDatasetParams{Symbol: "BTCUSDT", From: base.Add(time.Hour), To: base, FuturePeriods: 5, Threshold: 0.02}},
		{"zero future", BuildDatasetParams{Symbol: "BTCUSDT", From: base, To: base.Add(time.Hour), FuturePeriods: 0, Threshold: 0.02}},
		{"zero threshold", BuildDatasetParams{Symbol: "BTCUSDT", From: base, To: base.Add(time.Hour), FuturePeriods: 5, Threshold: 0}},
	}
	for _, tc := range cases {
		if _, err := uc.BuildDataset(context.Background(), tc.p); err == nil {
			t.Fatalf("%s: expected error", tc.name)
		}
	}
}

func TestBuildDatasetShortRangeIsEmptyNotError(t *testing.T) {
	candles := testCandles(20)
	store := &fakeCandleStore{candles: candles}
	uc := newDataset(t, store, nil, newRecorderMetrics())

	ds, err := uc.BuildDataset(context.Background(), rangeParams(candles))
	if err != nil {
		t.Fatalf("build: %v", err)
	}
	if ds.Len() != 0 {
		t.Fatalf("short range produced %d samples, want 0", ds.Len())
	}
	if ds.Fingerprint != features.DefaultConfig().Fingerprint() {
		t.Fatalf("empty dataset still carries the layout fingerprint")
	}
}

func TestBuildDatasetCounts(t *testing.T) {
	candles := testCandles(60)
	store := &fakeCandleStore{candles: candles}
	uc := newDataset(t, store, nil, newRecorderMetrics())

	ds, err := uc.BuildDataset(context.Background(), rangeParams(candles))
	if err != nil {
		t.Fatalf("build: %v", err)
	}
	// window 50, future 5: windows ending at 49..54
	if ds.Len() != 6 {
		t.Fatalf("got %d samples, want 6", ds.Len())
	}
	cfg := features.DefaultConfig()
	for i, row := range ds.X {
		if len(row) != cfg.FeatureCount() {
			t.Fatalf("row %d width %d, want %d", i, len(row), cfg.FeatureCount())
		}
	}
	for i, y := range ds.Y {
		if y < 0 || y > 2 {
			t.Fatalf("label %d out of range: %d", i, y)
		}
	}
	counts := ds.LabelCounts()
	if counts[0]+counts[1]+counts[2] != ds.Len() {
		t.Fatalf("label counts %v do not sum to %d", counts, ds.Len())
	}
}

func TestBuildDatasetPublish(t *testing.T) {
	candles := testCandles(60)
	store := &fakeCandleStore{candles: candles}
	pub := &fakeSamplePublisher{}
	m := newRecorderMetrics()
	uc := newDataset(t, store, pub, m)

	p := rangeParams(candles)
	p.Publish = true
	ds, err := uc.BuildDataset(context.Background(), p)
	if err != nil {
		t.Fatalf("build: %v", err)
	}
	if len(pub.records) != ds.Len() {
		t.Fatalf("published %d records, want %d", len(pub.records), ds.Len())
	}
	if m.samples != ds.Len() {
		t.Fatalf("recorded %d published samples, want %d", m.samples, ds.Len())
	}
	for i, r := range pub.records {
		if r.Symbol != "BTCUSDT" || r.Fingerprint != ds.Fingerprint {
			t.Fatalf("record %d has symbol %q fingerprint %q", i, r.Symbol, r.Fingerprint)
		}
		if r.Label != ds.Y[i] {
			t.Fatalf("record %d label %d != dataset label %d", i, r.Label, ds.Y[i])
		}
	}
}

func TestBuildDatasetPublishWithoutPublisher(t *testing.T) {
	candles := testCandles(60)
	store := &fakeCandleStore{candles: candles}
	uc := newDataset(t, store, nil, newRecorderMetrics())

	p := rangeParams(candles)
	p.Publish = true
	if _, err := uc.BuildDataset(context.Background(), p); err == nil {
		t.Fatalf("expected error when publishing without a publisher")
	}
}
