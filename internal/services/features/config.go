package features

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"strings"

	"github.com/creasty/defaults"
)

// Config describes every indicator window used by the extractor. It is
// validated once at construction and never mutated afterwards; the derived
// MinWindow/FeatureCount/FeatureNames are pure functions of it.
//
// The default values are pinned to the counterpart training pipeline.
// Changing any of them changes FeatureNames order or count and invalidates
// every model trained against the old layout (see Fingerprint).
type Config struct {
	SMAPeriods    []int   `yaml:"sma_periods" default:"[5,10,20,50]"`
	EMAPeriods    []int   `yaml:"ema_periods" default:"[12,26]"`
	RSIPeriod     int     `yaml:"rsi_period" default:"14"`
	MACDFast      int     `yaml:"macd_fast" default:"12"`
	MACDSlow      int     `yaml:"macd_slow" default:"26"`
	MACDSignal    int     `yaml:"macd_signal" default:"9"`
	BBPeriod      int     `yaml:"bb_period" default:"20"`
	BBStdDev      float64 `yaml:"bb_std_dev" default:"2.0"`
	ATRPeriod     int     `yaml:"atr_period" default:"14"`
	ReturnPeriods []int   `yaml:"return_periods" default:"[1,5,10]"`
}

// minWindowFloor guarantees enough trailing history for EMA convergence even
// with small configured periods. It matches the counterpart pipeline and is
// not derived from the periods; do not fold it into the max below.
const minWindowFloor = 50

// DefaultConfig returns the pinned default configuration.
func DefaultConfig() Config {
	var c Config
	_ = defaults.Set(&c)
	return c
}

// InvalidConfigError reports a configuration rejected by Validate.
type InvalidConfigError struct {
	Detail string
}

func (e *InvalidConfigError) Error() string {
	return "invalid feature config: " + e.Detail
}

// Validate checks the configuration once, at construction time.
func (c Config) Validate() error {
	for _, p := range c.SMAPeriods {
		if p <= 0 {
			return &InvalidConfigError{Detail: fmt.Sprintf("sma period %d must be positive", p)}
		}
	}
	for _, p := range c.EMAPeriods {
		if p <= 0 {
			return &InvalidConfigError{Detail: fmt.Sprintf("ema period %d must be positive", p)}
		}
	}
	if c.RSIPeriod <= 0 {
		return &InvalidConfigError{Detail: "rsi period must be positive"}
	}
	if c.MACDFast <= 0 || c.MACDSlow <= 0 || c.MACDSignal <= 0 {
		return &InvalidConfigError{Detail: "macd periods must be positive"}
	}
	if c.MACDFast >= c.MACDSlow {
		return &InvalidConfigError{Detail: fmt.Sprintf("macd fast %d must be < slow %d", c.MACDFast, c.MACDSlow)}
	}
	if c.BBPeriod <= 0 {
		return &InvalidConfigError{Detail: "bollinger period must be positive"}
	}
	if c.ATRPeriod <= 0 {
		return &InvalidConfigError{Detail: "atr period must be positive"}
	}
	for _, p := range c.ReturnPeriods {
		if p <= 0 {
			return &InvalidConfigError{Detail: fmt.Sprintf("return period %d must be positive", p)}
		}
	}
	return nil
}

// MinWindow returns the minimum number of candles required for extraction.
func (c Config) MinWindow() int {
	req := minWindowFloor
	for _, p := range c.SMAPeriods {
		req = maxInt(req, p)
	}
	for _, p := range c.EMAPeriods {
		req = maxInt(req, p)
	}
	req = maxInt(req, c.RSIPeriod+1)
	req = maxInt(req, c.MACDSlow+c.MACDSignal)
	req = maxInt(req, c.BBPeriod)
	req = maxInt(req, c.ATRPeriod)
	for _, p := range c.ReturnPeriods {
		req = maxInt(req, p+1)
	}
	return req
}

// FeatureCount returns the length of every vector this config produces.
func (c Config) FeatureCount() int {
	return len(c.SMAPeriods) + // SMA ratios
		len(c.EMAPeriods) + // EMA ratios
		1 + // RSI
		2 + // MACD histogram, signal ratio
		2 + // Bollinger %B, bandwidth
		1 + // ATR ratio
		len(c.ReturnPeriods) + // simple returns
		len(c.ReturnPeriods) + // log returns
		4 // body, upper shadow, lower shadow, volume change
}

// FeatureNames returns the canonical feature order. Models are positionally
// bound to this order; it changes only with an explicit contract version.
func (c Config) FeatureNames() []string {
	names := make([]string, 0, c.FeatureCount())
	for _, p := range c.SMAPeriods {
		names = append(names, fmt.Sprintf("sma_%d_ratio", p))
	}
	for _, p := range c.EMAPeriods {
		names = append(names, fmt.Sprintf("ema_%d_ratio", p))
	}
	names = append(names, "rsi")
	names = append(names, "macd_histogram", "macd_signal_ratio")
	names = append(names, "bb_percent_b", "bb_bandwidth")
	names = append(names, "atr_ratio")
	for _, p := range c.ReturnPeriods {
		names = append(names, fmt.Sprintf("return_%d", p))
	}
	for _, p := range c.ReturnPeriods {
		names = append(names, fmt.Sprintf("log_return_%d", p))
	}
	names = append(names, "body_ratio", "upper_shadow_ratio", "lower_shadow_ratio", "volume_change")
	return names
}

// Fingerprint hashes the canonical feature layout. It travels with datasets
// and the names endpoint so a serving model can detect that it was trained
// against a different layout instead of silently mis-scoring.
func (c Config) Fingerprint() string {
	sum := sha256.Sum256([]byte(strings.Join(c.FeatureNames(), ",")))
	return hex.EncodeToString(sum[:8])
}

func maxInt(a, b int) int {
	if a > b {
		return a
	}
	return b
}
