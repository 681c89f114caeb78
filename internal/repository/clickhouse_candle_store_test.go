package repository

import (
	"testing"
	"time"

	"TrendForge/internal/domain/models"
)

func minuteCandles(n int, start time.Time) []models.Candle {
	out := make([]models.Candle, n)
	for i := 0; i < n; i++ {
		base := 100 + float64(i)
		out[i] = models.Candle{
			Bucket: start.Add(time.Duration(i) * time.Minute),
			Symbol: "BTCUSDT",
			Open:   base,
			High:   base + 2,
			Low:    base - 2,
			Close:  base + 1,
			Volume: 10,
		}
	}
	return out
}

func TestAggregate5m(t *testing.T) {
	start := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	in := minuteCandles(10, start)

	out := aggregate5m(in)
	if len(out) != 2 {
		t.Fatalf("got %d buckets, want 2", len(out))
	}

	first := out[0]
	if !first.Bucket.Equal(start) {
		t.Fatalf("first bucket %v, want %v", first.Bucket, start)
	}
	if first.Open != in[0].Open {
		t.Fatalf("open %v, want first minute open %v", first.Open, in[0].Open)
	}
	if first.Close != in[4].Close {
		t.Fatalf("close %v, want last minute close %v", first.Close, in[4].Close)
	}
	if first.High != in[4].High {
		t.Fatalf("high %v, want max %v", first.High, in[4].High)
	}
	if first.Low != in[0].Low {
		t.Fatalf("low %v, want min %v", first.Low, in[0].Low)
	}
	if first.Volume != 50 {
		t.Fatalf("volume %v, want summed 50", first.Volume)
	}

	second := out[1]
	if !second.Bucket.Equal(start.Add(5 * time.Minute)) {
		t.Fatalf("second bucket %v", second.Bucket)
	}
}

func TestAggregate5mPartialTrailingBucket(t *testing.T) {
	start := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	in := minuteCandles(7, start)

	out := aggregate5m(in)
	if len(out) != 2 {
		t.Fatalf("got %d buckets, want 2", len(out))
	}
	if out[1].Volume != 20 {
		t.Fatalf("trailing partial bucket volume %v, want 20", out[1].Volume)
	}
}

func TestAggregate5mUnalignedStart(t *testing.T) {
	// series starting mid-bucket: the first 5m candle covers only the tail
	start := time.Date(2025, 6, 1, 12, 3, 0, 0, time.UTC)
	in := minuteCandles(4, start)

	out := aggregate5m(in)
	if len(out) != 2 {
		t.Fatalf("got %d buckets, want 2", len(out))
	}
	if !out[0].Bucket.Equal(time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)) {
		t.Fatalf("first bucket %v, want aligned 12:00", out[0].Bucket)
	}
	if out[0].Volume != 20 {
		t.Fatalf("first bucket volume %v, want 20 (minutes 3 and 4)", out[0].Volume)
	}
}

func TestAggregate5mEmpty(t *testing.T) {
	if out := aggregate5m(nil); len(out) != 0 {
		t.Fatalf("empty input produced %d candles", len(out))
	}
}
