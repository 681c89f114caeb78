package features

import (
	"errors"
	"strings"
	"testing"
)

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()
	if got := cfg.SMAPeriods; len(got) != 4 || got[0] != 5 || got[3] != 50 {
		t.Fatalf("unexpected sma periods %v", got)
	}
	if cfg.RSIPeriod != 14 {
		t.Fatalf("unexpected rsi period %d", cfg.RSIPeriod)
	}
	if cfg.MACDFast != 12 || cfg.MACDSlow != 26 || cfg.MACDSignal != 9 {
		t.Fatalf("unexpected macd params %d/%d/%d", cfg.MACDFast, cfg.MACDSlow, cfg.MACDSignal)
	}
	if cfg.BBStdDev != 2.0 {
		t.Fatalf("unexpected bb std dev %v", cfg.BBStdDev)
	}
	if err := cfg.Validate(); err != nil {
		t.Fatalf("default config must validate: %v", err)
	}
}

func TestMinWindowDefault(t *testing.T) {
	// every derived requirement of the default config sits at or under the
	// fixed floor of 50
	if got := DefaultConfig().MinWindow(); got != 50 {
		t.Fatalf("expected min window 50, got %d", got)
	}
}

func TestMinWindowDerived(t *testing.T) {
	cfg := DefaultConfig()
	cfg.SMAPeriods = []int{5, 200}
	if got := cfg.MinWindow(); got != 200 {
		t.Fatalf("expected min window 200, got %d", got)
	}

	cfg = DefaultConfig()
	cfg.MACDSlow = 40
	cfg.MACDSignal = 30
	if got := cfg.MinWindow(); got != 70 {
		t.Fatalf("expected min window 70 (slow+signal), got %d", got)
	}

	cfg = DefaultConfig()
	cfg.ReturnPeriods = []int{1, 60}
	if got := cfg.MinWindow(); got != 61 {
		t.Fatalf("expected min window 61 (max return + 1), got %d", got)
	}
}

func TestFeatureNamesCanonicalOrder(t *testing.T) {
	cfg := DefaultConfig()
	names := cfg.FeatureNames()
	if len(names) != cfg.FeatureCount() {
		t.Fatalf("names %d != count %d", len(names), cfg.FeatureCount())
	}
	if cfg.FeatureCount() != 22 {
		t.Fatalf("default config must produce 22 features, got %d", cfg.FeatureCount())
	}

	want := []string{
		"sma_5_ratio", "sma_10_ratio", "sma_20_ratio", "sma_50_ratio",
		"ema_12_ratio", "ema_26_ratio",
		"rsi",
		"macd_histogram", "macd_signal_ratio",
		"bb_percent_b", "bb_bandwidth",
		"atr_ratio",
		"return_1", "return_5", "return_10",
		"log_return_1", "log_return_5", "log_return_10",
		"body_ratio", "upper_shadow_ratio", "lower_shadow_ratio", "volume_change",
	}
	for i, w := range want {
		if names[i] != w {
			t.Fatalf("name[%d] = %q, want %q", i, names[i], w)
		}
	}
}

func TestValidateRejectsBadConfig(t *testing.T) {
	cases := []struct {
		name   string
		mutate func(*Config)
		detail string
	}{
		{"fast >= slow", func(c *Config) { c.MACDFast = 26 }, "fast"},
		{"negative sma", func(c *Config) { c.SMAPeriods = []int{10, -3} }, "sma"},
		{"zero rsi", func(c *Config) { c.RSIPeriod = 0 }, "rsi"},
		{"zero atr", func(c *Config) { c.ATRPeriod = 0 }, "atr"},
		{"zero return period", func(c *Config) { c.ReturnPeriods = []int{0} }, "return"},
	}
	for _, tc := range cases {
		cfg := DefaultConfig()
		tc.mutate(&cfg)
		err := cfg.Validate()
		if err == nil {
			t.Fatalf("%s: expected error", tc.name)
		}
		var ice *InvalidConfigError
		if !errors.As(err, &ice) {
			t.Fatalf("%s: expected InvalidConfigError, got %T", tc.name, err)
		}
		if !strings.Contains(ice.Detail, tc.detail) {
			t.Fatalf("%s: detail %q missing %q", tc.name, ice.Detail, tc.detail)
		}
	}
}

func TestFingerprintTracksLayout(t *testing.T) {
	cfg := DefaultConfig()
	fp := cfg.Fingerprint()
	if fp == "" || fp != cfg.Fingerprint() {
		t.Fatalf("fingerprint must be stable, got %q", fp)
	}

	changed := DefaultConfig()
	changed.SMAPeriods = []int{5, 10, 20}
	if changed.Fingerprint() == fp {
		t.Fatalf("fingerprint must change when the layout changes")
	}
}
