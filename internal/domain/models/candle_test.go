package models

import (
	"errors"
	"testing"
	"time"
)

func testCandles(n int) []Candle {
	base := time.Date(2025, 6, 1, 0, 0, 0, 0, time.UTC)
	out := make([]Candle, n)
	for i := 0; i < n; i++ {
		price := 100 + float64(i)
		out[i] = Candle{
			Bucket: base.Add(time.Duration(i) * time.Minute),
			Symbol: "ETHUSDT",
			Open:   price,
			High:   price + 1,
			Low:    price - 1,
			Close:  price + 0.5,
			Volume: 10 * float64(i+1),
		}
	}
	return out
}

func TestNewCandleSeriesRejectsEmpty(t *testing.T) {
	if _, err := NewCandleSeries("ETHUSDT", "1m", nil); err == nil {
		t.Fatalf("expected error for empty series")
	}
}

func TestNewCandleSeriesRejectsDuplicates(t *testing.T) {
	candles := testCandles(5)
	candles[3].Bucket = candles[2].Bucket
	if _, err := NewCandleSeries("ETHUSDT", "1m", candles); err == nil {
		t.Fatalf("expected error for duplicate bucket")
	}
}

func TestCandleSeriesWindow(t *testing.T) {
	s, err := NewCandleSeries("ETHUSDT", "1m", testCandles(10))
	if err != nil {
		t.Fatalf("series: %v", err)
	}

	w, err := s.Window(2, 5)
	if err != nil {
		t.Fatalf("window: %v", err)
	}
	if w.Len() != 5 {
		t.Fatalf("window len = %d, want 5", w.Len())
	}
	if w.At(0).Close != s.At(2).Close {
		t.Fatalf("window misaligned")
	}
	if w.Symbol() != "ETHUSDT" || w.Timeframe() != "1m" {
		t.Fatalf("window lost identity")
	}
}

func TestCandleSeriesWindowInsufficient(t *testing.T) {
	s, err := NewCandleSeries("ETHUSDT", "1m", testCandles(10))
	if err != nil {
		t.Fatalf("series: %v", err)
	}

	_, err = s.Window(8, 5)
	var ide *InsufficientDataError
	if !errors.As(err, &ide) {
		t.Fatalf("expected InsufficientDataError, got %v", err)
	}
	if ide.Required != 13 || ide.Actual != 10 {
		t.Fatalf("unexpected required/actual %d/%d", ide.Required, ide.Actual)
	}

	if _, err := s.Trailing(11); err == nil {
		t.Fatalf("expected error for oversized trailing window")
	}
}

func TestCandleSeriesColumns(t *testing.T) {
	s, err := NewCandleSeries("ETHUSDT", "1m", testCandles(4))
	if err != nil {
		t.Fatalf("series: %v", err)
	}
	closes := s.Closes()
	if len(closes) != 4 || closes[0] != 100.5 || closes[3] != 103.5 {
		t.Fatalf("unexpected closes %v", closes)
	}
	if vols := s.Volumes(); vols[3] != 40 {
		t.Fatalf("unexpected volumes %v", vols)
	}
	if s.Last().Close != 103.5 {
		t.Fatalf("unexpected last %v", s.Last())
	}
}

func TestLabelForReturn(t *testing.T) {
	if got := LabelForReturn(0.03, 0.02); got != LabelUp {
		t.Fatalf("got %v, want up", got)
	}
	if got := LabelForReturn(-0.03, 0.02); got != LabelDown {
		t.Fatalf("got %v, want down", got)
	}
	// exact threshold stays flat on both sides
	if got := LabelForReturn(0.02, 0.02); got != LabelFlat {
		t.Fatalf("got %v, want flat", got)
	}
	if got := LabelForReturn(-0.02, 0.02); got != LabelFlat {
		t.Fatalf("got %v, want flat", got)
	}
	if LabelDown != 0 || LabelFlat != 1 || LabelUp != 2 {
		t.Fatalf("label encoding is part of the wire format")
	}
}

func TestLabelForReturnTakesComputedValueAsIs(t *testing.T) {
	// 110/100 - 1 computed at runtime rounds to just above 0.1; the
	// comparison is strict, so the rounded value decides the class
	before, after := 100.0, 110.0
	ret := after/before - 1
	if ret <= 0.1 {
		t.Fatalf("expected runtime division to round above 0.1, got %.20f", ret)
	}
	if got := LabelForReturn(ret, 0.1); got != LabelUp {
		t.Fatalf("got %v, want up", got)
	}
}
