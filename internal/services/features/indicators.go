package features

import "math"

// Pure indicator kernels over trailing float columns. Every division is
// guarded locally; nothing in this file returns NaN or Inf.
//
// The formulas deliberately match the counterpart training pipeline
// bit-for-bit, including its non-standard choices (first-value EMA seed,
// non-Wilder ATR, full-prefix MACD signal reconstruction). Do not "fix"
// them independently of that pipeline.

// SMA returns the mean of the last `period` values, or 0 when period is 0
// or the data is shorter than the period.
func SMA(data []float64, period int) float64 {
	if period == 0 || len(data) < period {
		return 0
	}
	sum := 0.0
	for _, v := range data[len(data)-period:] {
		sum += v
	}
	return sum / float64(period)
}

// EMA runs the exponential recurrence across the whole slice, seeded with
// the first value rather than an SMA of the first period.
func EMA(data []float64, period int) float64 {
	if len(data) == 0 || period == 0 {
		return 0
	}
	multiplier := 2.0 / (float64(period) + 1.0)
	ema := data[0]
	for _, v := range data[1:] {
		ema = (v-ema)*multiplier + ema
	}
	return ema
}

// PriceRatio returns price/indicator - 1, or 0 when the indicator is not
// positive.
func PriceRatio(price, indicator float64) float64 {
	if indicator <= 0 {
		return 0
	}
	return price/indicator - 1.0
}

// RSI computes a simple (non-exponential) average-gain/average-loss RSI over
// the trailing `period` one-bar differences. Fewer than period+1 closes
// reads neutral 50. A window with zero average loss reads 100, which also
// covers a perfectly flat window; that bias is inherited from the
// counterpart pipeline and kept for parity.
func RSI(closes []float64, period int) float64 {
	if len(closes) < period+1 {
		return 50
	}

	gains := make([]float64, 0, len(closes)-1)
	losses := make([]float64, 0, len(closes)-1)
	for i := 1; i < len(closes); i++ {
		change := closes[i] - closes[i-1]
		if change > 0 {
			gains = append(gains, change)
			losses = append(losses, 0)
		} else {
			gains = append(gains, 0)
			losses = append(losses, math.Abs(change))
		}
	}

	start := 0
	if len(gains) > period {
		start = len(gains) - period
	}
	avgGain := 0.0
	avgLoss := 0.0
	for i := start; i < len(gains); i++ {
		avgGain += gains[i]
		avgLoss += losses[i]
	}
	avgGain /= float64(period)
	avgLoss /= float64(period)

	if avgLoss == 0 {
		return 100
	}
	rs := avgGain / avgLoss
	return 100 - 100/(1+rs)
}

// MACD returns the price-normalized histogram and the clamped macd/signal
// ratio. The signal line is an EMA of the MACD line recomputed at every
// growing prefix from index `slow` onward. That is quadratic in the window
// length; the window is bounded by Config.MinWindow, and an incremental
// recurrence would drift from the counterpart's low-order bits.
func MACD(closes []float64, fast, slow, signal int) (histogram, signalRatio float64) {
	fastEMA := EMA(closes, fast)
	slowEMA := EMA(closes, slow)
	macdLine := fastEMA - slowEMA

	var macdHistory []float64
	for i := slow; i <= len(closes); i++ {
		macdHistory = append(macdHistory, EMA(closes[:i], fast)-EMA(closes[:i], slow))
	}

	signalLine := macdLine
	if len(macdHistory) >= signal {
		signalLine = EMA(macdHistory, signal)
	}

	hist := macdLine - signalLine
	currentPrice := 1.0
	if len(closes) > 0 {
		currentPrice = closes[len(closes)-1]
	}
	histogram = 0
	if currentPrice > 0 {
		histogram = hist / currentPrice * 100
	}

	signalRatio = 0
	if math.Abs(signalLine) > 1e-4 {
		signalRatio = macdLine/signalLine - 1.0
	}
	return histogram, clamp(signalRatio, -1, 1)
}

// Bollinger returns %B in [0,1] and bandwidth relative to the middle band.
// The standard deviation is the population deviation over the trailing
// `period` closes. A zero-width band reads a neutral %B of 0.5.
func Bollinger(closes []float64, period int, stdDevMult float64) (percentB, bandwidth float64) {
	if len(closes) < period {
		return 0.5, 0
	}

	window := closes[len(closes)-period:]
	sma := 0.0
	for _, v := range window {
		sma += v
	}
	sma /= float64(period)

	variance := 0.0
	for _, v := range window {
		d := v - sma
		variance += d * d
	}
	variance /= float64(period)
	stdDev := math.Sqrt(variance)

	upper := sma + stdDevMult*stdDev
	lower := sma - stdDevMult*stdDev
	width := upper - lower
	price := closes[len(closes)-1]

	percentB = 0.5
	if width > 0 {
		percentB = (price - lower) / width
	}
	bandwidth = 0
	if sma > 0 {
		bandwidth = width / sma
	}
	return clamp(percentB, 0, 1), bandwidth
}

// ATR averages the trailing `period` true ranges with a plain mean, not
// Wilder smoothing. With fewer than `period` true ranges available it
// averages what it has.
func ATR(highs, lows, closes []float64, period int) float64 {
	if len(highs) < period+1 || len(highs) != len(lows) || len(highs) != len(closes) {
		return 0
	}

	trueRanges := make([]float64, 0, len(highs)-1)
	for i := 1; i < len(highs); i++ {
		tr := highs[i] - lows[i]
		if hc := math.Abs(highs[i] - closes[i-1]); hc > tr {
			tr = hc
		}
		if lc := math.Abs(lows[i] - closes[i-1]); lc > tr {
			tr = lc
		}
		trueRanges = append(trueRanges, tr)
	}

	// unreachable while the period+1 length guard above holds: len(highs)-1
	// true ranges is already >= period
	if len(trueRanges) < period {
		n := len(trueRanges)
		if n == 0 {
			n = 1
		}
		sum := 0.0
		for _, tr := range trueRanges {
			sum += tr
		}
		return sum / float64(n)
	}

	sum := 0.0
	for _, tr := range trueRanges[len(trueRanges)-period:] {
		sum += tr
	}
	return sum / float64(period)
}

// Return is the simple return over `period` bars, 0 on insufficient history
// or a non-positive base price.
func Return(closes []float64, period int) float64 {
	if len(closes) <= period {
		return 0
	}
	current := closes[len(closes)-1]
	past := closes[len(closes)-1-period]
	if past <= 0 {
		return 0
	}
	return current/past - 1.0
}

// LogReturn is the natural-log return over `period` bars, 0 on insufficient
// history or non-positive prices.
func LogReturn(closes []float64, period int) float64 {
	if len(closes) <= period {
		return 0
	}
	current := closes[len(closes)-1]
	past := closes[len(closes)-1-period]
	if past <= 0 || current <= 0 {
		return 0
	}
	return math.Log(current / past)
}

// CandleShape returns body and shadow sizes relative to the bar range.
// Shadows are measured from the body edge facing them, so the bullish and
// bearish cases pick different anchors. A zero-range bar reads all zeros.
func CandleShape(open, high, low, close float64) (bodyRatio, upperShadowRatio, lowerShadowRatio float64) {
	barRange := high - low
	if barRange <= 0 {
		return 0, 0, 0
	}

	bodyRatio = math.Abs(close-open) / barRange

	var upper, lower float64
	if close > open {
		upper = high - close
		lower = open - low
	} else {
		upper = high - open
		lower = close - low
	}
	return bodyRatio, upper / barRange, lower / barRange
}

// VolumeChange is current/previous volume - 1 clamped to [-2, 2], 0 when
// there is no previous bar or its volume is not positive.
func VolumeChange(volumes []float64) float64 {
	if len(volumes) == 0 {
		return 0
	}
	prev := volumes[0]
	if len(volumes) >= 2 {
		prev = volumes[len(volumes)-2]
	}
	if prev <= 0 {
		return 0
	}
	return clamp(volumes[len(volumes)-1]/prev-1.0, -2, 2)
}

func clamp(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
